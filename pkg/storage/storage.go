// Package storage persists uploaded media under a configured root.
//
// Keys are slash-separated paths relative to the root, exactly the form
// stored on database rows (for example "jobs/spec.pdf"). The disk
// implementation guards against traversal, sanitizes filenames, and
// suffixes a timestamp when a name is already taken rather than
// overwriting.
package storage

import (
	"context"
	"io"
)

// Storage defines file storage operations for uploaded media.
type Storage interface {
	// Put writes data under dir using the given filename, adjusted to be
	// filesystem-safe and collision-free. Returns the stored file info,
	// whose Key is the relative path to persist on the owning row.
	Put(ctx context.Context, r io.Reader, dir, filename string) (*FileInfo, error)

	// Open returns a reader for the file at key.
	// The caller closes the returned reader.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the file at key. Deleting a missing file is a
	// no-op, not a failure.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a file is present at key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns the public URL for the file at key.
	URL(key string) string
}

// FileInfo describes a stored file.
type FileInfo struct {
	// Key is the storage key (relative path) for the file.
	Key string

	// Name is the final filename after sanitization and dedup.
	Name string

	// Size is the number of bytes written.
	Size int64
}
