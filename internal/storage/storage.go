package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Get when no object lives at the given key.
var ErrNotExist = errors.New("storage: object does not exist")

// Storage is the blob store behind template documents and completed
// signature images. Keys are opaque slash-separated paths.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
