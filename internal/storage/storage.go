package storage

import (
	"context"
	"io"
)

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// Upload writes the object and returns its publicly reachable URL.
	// The key must be unique; uploads with an existing key overwrite it.
	Upload(ctx context.Context, objectKey string, contentType string, body io.Reader) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error

	// ObjectURL returns the public URL for an object key without touching
	// the provider.
	ObjectURL(objectKey string) string
}
