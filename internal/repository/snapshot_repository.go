package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/digkill/bizimage/internal/models"
)

const (
	AccountKey = "bizimage_user"
	HistoryKey = "bizimage_history"
)

// SnapshotRepository persists the account and the image history as two
// independent JSON blobs. There is no schema versioning: anything that does
// not decode falls back to the defaults.
type SnapshotRepository struct {
	store BlobStore
	log   *slog.Logger
}

func NewSnapshotRepository(store BlobStore, log *slog.Logger) *SnapshotRepository {
	if log == nil {
		log = slog.Default()
	}
	return &SnapshotRepository{store: store, log: log}
}

func (r *SnapshotRepository) LoadAccount(ctx context.Context) (models.Account, error) {
	data, err := r.store.Get(ctx, AccountKey)
	if err != nil {
		return models.Account{}, fmt.Errorf("load account: %w", err)
	}
	if data == nil {
		return models.DefaultAccount(), nil
	}
	var account models.Account
	if err := json.Unmarshal(data, &account); err != nil {
		r.log.Warn("malformed account blob, using default", "err", err)
		return models.DefaultAccount(), nil
	}
	// null and {} decode cleanly but carry no account.
	if account.ID == "" {
		r.log.Warn("account blob has no id, using default")
		return models.DefaultAccount(), nil
	}
	return account, nil
}

func (r *SnapshotRepository) LoadHistory(ctx context.Context) ([]models.GeneratedImage, error) {
	data, err := r.store.Get(ctx, HistoryKey)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if data == nil {
		return []models.GeneratedImage{}, nil
	}
	var images []models.GeneratedImage
	if err := json.Unmarshal(data, &images); err != nil {
		r.log.Warn("malformed history blob, using empty history", "err", err)
		return []models.GeneratedImage{}, nil
	}
	if images == nil {
		images = []models.GeneratedImage{}
	}
	return images, nil
}

func (r *SnapshotRepository) SaveAccount(ctx context.Context, account models.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	if err := r.store.Put(ctx, AccountKey, data); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) SaveHistory(ctx context.Context, images []models.GeneratedImage) error {
	if images == nil {
		images = []models.GeneratedImage{}
	}
	data, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := r.store.Put(ctx, HistoryKey, data); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
