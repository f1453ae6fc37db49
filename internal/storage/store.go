// Package storage persists original and processed images.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("storage: object not found")

// Store writes, reads and deletes blobs by key. Write returns the canonical
// key the blob was stored under. Deleting a missing key is not an error.
type Store interface {
	Write(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*S3Store)(nil)
)
