// Package objectstore is the thin typed facade over the external
// blob store. Keys use "/" as a separator and never begin with "/".
// Two backends implement the same Store interface: a Cloudinary CDN
// (production) and a local filesystem directory (development, and
// any deployment that runs without Cloudinary configured).
package objectstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when key does not exist.
var ErrNotFound = errors.New("objectstore: key not found")

// Store is the object-store adapter contract used by the rest of the
// system. Implementations give no atomicity guarantees between
// operations.
type Store interface {
	// Put writes bytes under key, overwriting any previous value.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns a reader for the bytes under key and their size.
	// Returns ErrNotFound if key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)

	// List returns every key with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key under prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}
