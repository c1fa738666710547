package apperr

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure categories a generation can end in.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindRemoteFailure     Kind = "remote-failure"
	KindMalformedResponse Kind = "malformed-response"
)

type Error struct {
	Kind        Kind
	Message     string
	UserMessage string
	cause       error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches another *Error by kind so errors.Is(err, apperr.Validation) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	Validation        = &Error{Kind: KindValidation}
	RemoteFailure     = &Error{Kind: KindRemoteFailure}
	MalformedResponse = &Error{Kind: KindMalformedResponse}
)

func NewValidation(msg string) *Error {
	return &Error{
		Kind:        KindValidation,
		Message:     msg,
		UserMessage: msg,
	}
}

func NewRemoteFailure(userMessage string, cause error) *Error {
	return &Error{
		Kind:        KindRemoteFailure,
		Message:     "remote generation failed",
		UserMessage: userMessage,
		cause:       cause,
	}
}

func NewMalformedResponse(userMessage string) *Error {
	return &Error{
		Kind:        KindMalformedResponse,
		Message:     "remote response carried no image",
		UserMessage: userMessage,
	}
}

// KindOf returns the kind of the first *Error in the chain, or "" if none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Kind
	}
	return ""
}

// UserMessage returns the message safe to show, falling back to a generic one.
func UserMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil && appErr.UserMessage != "" {
		return appErr.UserMessage
	}
	return "Generation failed. Please try again."
}
