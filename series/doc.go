// Package series holds the per-segment metric series dictionary: the
// mapping from a (metric name, label set) identity to the compressed
// (timestamp, value) stream recorded for it.
//
// Series are keyed by the xxHash64 of their canonical series key, not the
// key itself: the common case never sees a hash collision and pays only
// for a uint64 map lookup, while a collision falls back to exact string
// comparison via internal/collision's Tracker.
package series
