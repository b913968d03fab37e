// Package segment implements the self-contained, per-time-window storage
// unit that an Index is built from: an Open, append-only combination of an
// inverted index, a forward store, and a metric series dictionary, which
// transitions through Sealing to an immutable Sealed form. A Segment's State
// never reaches Persisted; only a Sealed rebuilt by Load from Blob Store
// bytes reports Persisted.
package segment
