// Package storage holds the blob backends used for uploaded files and
// profile photos.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Delete when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// BlobStore persists opaque blobs under slash-separated keys.
type BlobStore interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}
