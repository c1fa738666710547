package apperr

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"
)

// Handler logs failures and forwards remote ones to Sentry when enabled.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, sentryEnabled: sentryEnabled}
}

// Handle records err and returns the message to surface to the user.
func (h *Handler) Handle(ctx context.Context, op string, err error) string {
	if err == nil {
		return ""
	}

	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		level := slog.LevelError
		if appErr.Kind == KindValidation {
			level = slog.LevelWarn
		}
		h.log.Log(ctx, level, "generation error", "op", op, "kind", string(appErr.Kind), "err", err)
		if h.sentryEnabled && appErr.Kind != KindValidation {
			h.sendToSentry(op, appErr.Kind, err)
		}
		return UserMessage(err)
	}

	h.log.ErrorContext(ctx, "unexpected error", "op", op, "err", err)
	if h.sentryEnabled {
		h.sendToSentry(op, "", err)
	}
	return UserMessage(err)
}

func (h *Handler) sendToSentry(op string, kind Kind, err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("op", op)
		if kind != "" {
			scope.SetTag("kind", string(kind))
		}
		sentry.CaptureException(err)
	})
}
