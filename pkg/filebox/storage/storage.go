// Package storage issues upload destinations for file blobs and resolves
// stored blobs to download URLs.
package storage

import (
	"context"
	"time"
)

// Upload is a single-use write destination for one blob. The client sends
// the bytes to URL with Method and then refers to the blob by StorageID.
type Upload struct {
	URL       string    `json:"upload_url"`
	Method    string    `json:"method"`
	StorageID string    `json:"storage_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Storage is a blob store addressed by opaque keys
type Storage interface {
	// NewUpload mints a fresh write destination under a new key
	NewUpload(ctx context.Context) (Upload, error)

	// URL returns a download URL for key, or nil when no blob is stored
	// under it
	URL(ctx context.Context, key string) (*string, error)

	// Delete removes the blob stored under key. Deleting a missing blob is
	// not an error.
	Delete(ctx context.Context, key string) error
}
