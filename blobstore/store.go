package blobstore

import "context"

// Store is the blob backend contract every storage_type variant implements.
// Keys are path-like strings (e.g. "myindex/segments/seg-1/terms.bin").
// Writes must be atomic at the single-key granularity: a reader never
// observes a partially-written value.
type Store interface {
	// Put writes data at key, replacing any existing value.
	Put(ctx context.Context, key string, data []byte) error
	// Get reads the value at key. Returns errs.NotFound if key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns every key with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
}
