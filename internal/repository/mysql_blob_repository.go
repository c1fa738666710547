package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type MySQLBlobRepository struct {
	db *sql.DB
}

func NewMySQLBlobRepository(db *sql.DB) *MySQLBlobRepository {
	return &MySQLBlobRepository{db: db}
}

func (r *MySQLBlobRepository) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT blob_value FROM kv_blobs WHERE blob_key = ?`
	row := r.db.QueryRowContext(ctx, query, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan blob: %w", err)
	}
	return []byte(value), nil
}

func (r *MySQLBlobRepository) Put(ctx context.Context, key string, value []byte) error {
	const query = `
INSERT INTO kv_blobs (blob_key, blob_value)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE blob_value = VALUES(blob_value), updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("upsert blob: %w", err)
	}
	return nil
}
