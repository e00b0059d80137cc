package blobstore

import "context"

// ErrNotFound is returned when a blob does not exist.
//
// Implementations must return an error that satisfies
// `errors.Is(err, ErrNotFound)`.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "blobstore: blob not found" }

// Store is an abstraction for whole-document blob access. Documents are
// small (reports, ground-truth files), so reads and writes are
// whole-value rather than streaming.
type Store interface {
	// Put writes a blob atomically, replacing any previous value.
	Put(ctx context.Context, name string, data []byte) error

	// Get reads a whole blob. A missing name returns ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes a blob. Deleting a missing name is not an error.
	Delete(ctx context.Context, name string) error

	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
