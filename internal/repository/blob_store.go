package repository

import "context"

// BlobStore is an opaque key-value store of whole JSON documents. Get returns
// nil, nil for an absent key; Put overwrites the previous value in full.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
