// Package collision tracks hash-to-key mappings and detects collisions
// when a 64-bit hash is used as a map key standing in for a longer string
// identifier - as the series dictionary does for (metric, label-set) keys.
package collision

import (
	"github.com/eaglenest7/infino/errs"
)

// Tracker tracks series keys and detects hash collisions during ingest. It
// maintains a hash-to-key mapping and an ordered list of every key passed
// to TrackKey.
type Tracker struct {
	keys         map[uint64]string // hash -> key mapping for collision detection
	keysList     []string          // ordered list for the sealed dictionary
	hasCollision bool
}

// NewTracker creates a new collision tracker.
func NewTracker() *Tracker {
	return &Tracker{
		keys:     make(map[uint64]string),
		keysList: make([]string, 0),
	}
}

// TrackHash tracks a hash with no associated key, used when the caller
// already holds a stable identity for the hash and only needs duplicate
// detection (e.g. a doc-id recorded once per segment). Returns
// errs.ErrHashCollision if the hash was already tracked.
func (t *Tracker) TrackHash(hash uint64) error {
	if _, exists := t.keys[hash]; exists {
		return errs.New(errs.ErrHashCollision, errs.Internal, "collision: hash already tracked")
	}

	t.keys[hash] = ""

	return nil
}

// TrackKey tracks a series key with its hash. Returns a SchemaError if key
// is empty, or a Conflict error if the exact same key was already tracked.
// A different key resolving to the same hash is not an error: HasCollision
// becomes true and both keys are retained in GetKeys order so the sealed
// series dictionary can fall back to storing full keys instead of hashes.
func (t *Tracker) TrackKey(key string, hash uint64) error {
	if key == "" {
		return errs.New(nil, errs.SchemaError, "collision: series key must not be empty")
	}

	if existing, exists := t.keys[hash]; exists {
		if existing == key {
			return errs.Newf(nil, errs.Conflict, "collision: series key %q already tracked", key)
		}

		t.hasCollision = true
	}

	t.keys[hash] = key
	t.keysList = append(t.keysList, key)

	return nil
}

// HasCollision reports whether two distinct keys have hashed to the same
// value since the last Reset.
func (t *Tracker) HasCollision() bool {
	return t.hasCollision
}

// GetKeys returns the tracked keys in the order TrackKey was called.
func (t *Tracker) GetKeys() []string {
	return t.keysList
}

// Count returns the number of tracked keys.
func (t *Tracker) Count() int {
	return len(t.keysList)
}

// Reset clears all tracked state, preserving allocated capacity for reuse.
func (t *Tracker) Reset() {
	for k := range t.keys {
		delete(t.keys, k)
	}
	t.keysList = t.keysList[:0]
	t.hasCollision = false
}
