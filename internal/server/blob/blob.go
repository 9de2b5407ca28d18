// Package blob defines the narrow object-storage contract the directory
// store depends on: read an object together with its version tag, and write
// it back only if the version still matches. The version tag is opaque to
// callers; it exists solely to detect a concurrent modification between
// read and write.
package blob

import (
	"context"
	"errors"
)

var (
	// ErrNotExist is returned by Get when the object has never been written.
	ErrNotExist = errors.New("object does not exist")

	// ErrVersionMismatch is returned by Put when the object's version no
	// longer matches the tag captured at read time.
	ErrVersionMismatch = errors.New("object version mismatch")
)

// Bucket is the conditional-write port over a single object store.
type Bucket interface {
	// Get returns the object bytes and its current version tag.
	Get(ctx context.Context, key string) (data []byte, version string, err error)

	// Put writes the object only if its version still equals the given tag.
	// An empty tag means the object must not exist yet. Returns the version
	// tag of the written object.
	Put(ctx context.Context, key string, data []byte, version string) (string, error)
}
