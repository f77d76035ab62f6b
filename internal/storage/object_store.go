package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound marks a missing key.
var ErrObjectNotFound = errors.New("storage: object not found")

// ObjectStore persists document and selfie images by key and hands out
// time-limited retrieval URLs for review screens.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
