package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/digkill/bizimage/internal/apperr"
	"github.com/digkill/bizimage/internal/catalog"
	"github.com/digkill/bizimage/internal/datauri"
	"github.com/digkill/bizimage/internal/gemini"
	"github.com/digkill/bizimage/internal/metrics"
	"github.com/digkill/bizimage/internal/models"
	"github.com/digkill/bizimage/internal/state"
)

// RecentLimit is how many records of a kind the generate tabs preview.
const RecentLimit = 4

type Gateway interface {
	GenerateFromText(ctx context.Context, prompt string) ([]gemini.Image, error)
	GenerateFromImageAndText(ctx context.Context, imageDataURI, sceneModifier, userText string) ([]gemini.Image, error)
}

type SnapshotStore interface {
	LoadAccount(ctx context.Context) (models.Account, error)
	LoadHistory(ctx context.Context) ([]models.GeneratedImage, error)
	SaveAccount(ctx context.Context, account models.Account) error
	SaveHistory(ctx context.Context, images []models.GeneratedImage) error
}

// ImageUploader moves generated payloads out of the history blob.
type ImageUploader interface {
	Upload(ctx context.Context, id string, kind models.ImageKind, data []byte, contentType string) (string, error)
}

// Dashboard owns the application state and applies user intents to it.
// The mutex guards state and persistence only; it is released while a
// generation is in flight so other controls stay usable.
type Dashboard struct {
	mu       sync.Mutex
	app      *state.App
	gateway  Gateway
	store    SnapshotStore
	uploader ImageUploader
	errs     *apperr.Handler
	log      *slog.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Dashboard)

// WithUploader enables offloading generated images to object storage.
func WithUploader(u ImageUploader) Option {
	return func(d *Dashboard) {
		if u != nil {
			d.uploader = u
		}
	}
}

func WithErrorHandler(h *apperr.Handler) Option {
	return func(d *Dashboard) {
		if h != nil {
			d.errs = h
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(d *Dashboard) { d.newID = newID }
}

// NewDashboard reads both persisted blobs once and seeds the state from them.
func NewDashboard(ctx context.Context, log *slog.Logger, store SnapshotStore, gateway Gateway, opts ...Option) (*Dashboard, error) {
	if log == nil {
		log = slog.Default()
	}

	account, err := store.LoadAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	history, err := store.LoadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	d := &Dashboard{
		app:     state.NewApp(account, history),
		gateway: gateway,
		store:   store,
		errs:    apperr.NewHandler(log, false),
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}

	metrics.SetCreditBalance(account.Credits)
	log.Info("dashboard loaded", "account", account.ID, "credits", account.Credits, "images", len(history))
	return d, nil
}

// Snapshot is a point-in-time copy of everything the dashboard renders.
type Snapshot struct {
	Account         models.Account          `json:"account"`
	Tab             models.Tab              `json:"tab"`
	Forms           state.Forms             `json:"forms"`
	HasProductImage bool                    `json:"hasProductImage"`
	TextFlow        models.FlowStatus       `json:"textFlow"`
	SceneFlow       models.FlowStatus       `json:"sceneFlow"`
	RecentText      []models.GeneratedImage `json:"recentText"`
	RecentScene     []models.GeneratedImage `json:"recentScene"`
	History         []models.GeneratedImage `json:"history"`
}

func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Dashboard) snapshotLocked() Snapshot {
	all := d.app.History.All()
	return Snapshot{
		Account:         d.app.Ledger.Account(),
		Tab:             d.app.Tab,
		Forms:           d.app.Forms,
		HasProductImage: d.app.Forms.ProductImage != "",
		TextFlow:        d.app.TextFlow,
		SceneFlow:       d.app.SceneFlow,
		RecentText:      state.Recent(all, models.KindTextToImage, RecentLimit),
		RecentScene:     state.Recent(all, models.KindProductToScene, RecentLimit),
		History:         all,
	}
}

func (d *Dashboard) Balance() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.app.Ledger.Balance()
}

func (d *Dashboard) SelectTab(tab models.Tab) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.app.Tab = tab
}

func (d *Dashboard) SetTextPrompt(prompt string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.app.Forms.TextPrompt = prompt
}

// SetProductImage stores an already encoded data URI as the product image.
func (d *Dashboard) SetProductImage(dataURI string) error {
	if strings.TrimSpace(dataURI) == "" {
		return apperr.NewValidation("Please upload a product image first.")
	}
	if _, err := datauri.Decode(dataURI); err != nil {
		return apperr.NewValidation("The uploaded file could not be read as an image.")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.app.Forms.ProductImage = dataURI
	return nil
}

// UploadProductImage converts raw file bytes into a data URI.
func (d *Dashboard) UploadProductImage(data []byte) error {
	uri, err := datauri.FromFile(data)
	if err != nil {
		d.log.Warn("product image rejected", "err", err)
		return apperr.NewValidation("Please upload a PNG, JPG or WEBP image.")
	}
	return d.SetProductImage(uri)
}

func (d *Dashboard) SelectScene(preset models.ScenePreset) error {
	if _, ok := catalog.Scene(preset); !ok {
		return apperr.NewValidation(fmt.Sprintf("Unknown scene %q.", preset))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.app.Forms.Scene = preset
	return nil
}

func (d *Dashboard) SetProductPrompt(prompt string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.app.Forms.ProductPrompt = prompt
}

// Gallery returns the history newest first, optionally narrowed to one kind
// and capped at limit when limit is positive.
func (d *Dashboard) Gallery(kind *models.ImageKind, limit int) []models.GeneratedImage {
	d.mu.Lock()
	all := d.app.History.All()
	d.mu.Unlock()

	if kind != nil {
		all = state.ByKind(all, *kind)
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// persistLocked writes both blobs. Failures are logged and counted; the
// in-memory state is kept as is.
func (d *Dashboard) persistLocked(ctx context.Context) {
	d.persistAccountLocked(ctx)
	d.persistHistoryLocked(ctx)
}

func (d *Dashboard) persistAccountLocked(ctx context.Context) {
	account := d.app.Ledger.Account()
	metrics.SetCreditBalance(account.Credits)
	if err := d.store.SaveAccount(ctx, account); err != nil {
		metrics.RecordPersistFailure("account")
		d.log.ErrorContext(ctx, "failed to persist account", "err", err)
	}
}

func (d *Dashboard) persistHistoryLocked(ctx context.Context) {
	if err := d.store.SaveHistory(ctx, d.app.History.All()); err != nil {
		metrics.RecordPersistFailure("history")
		d.log.ErrorContext(ctx, "failed to persist history", "err", err)
	}
}
