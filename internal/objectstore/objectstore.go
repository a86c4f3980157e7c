// Package objectstore abstracts the external provider that holds file bytes.
// The database only keeps metadata and the provider's retrieval URL.
package objectstore

import (
	"context"
	"io"
)

// Object describes a stored blob at the provider.
type Object struct {
	// ID is the provider-side identifier, kept as the file's storage key
	// so the object can be deleted later.
	ID string
	// URL is a retrieval URL clients can be redirected to.
	URL string
	// Size as reported by the provider, in bytes.
	Size int64
}

type ObjectStore interface {
	// Upload streams the content to the provider and returns the stored
	// object. Nothing is persisted locally on failure.
	Upload(ctx context.Context, name string, mimeType string, content io.Reader) (Object, error)
	// Delete removes the object from the provider.
	Delete(ctx context.Context, id string) error
}
