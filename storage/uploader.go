package storage

import (
	"context"
	"io"
)

// UploadResult describes where a stored object ended up.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores binary blobs (group logos) outside the database.
// Implementations own key layout and public URL construction; callers
// treat keys as opaque.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	// GetPublicURL returns the browser-facing URL for a stored key, or
	// an empty string when the bucket has no public base configured.
	GetPublicURL(key string) string
}
