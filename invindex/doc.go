// Package invindex implements the per-segment inverted index: a Term
// dictionary mapping (field, token) pairs to ascending PostingLists.
//
// While a segment is Open, the dictionary is partitioned by the first byte
// of the term's field name into 256 shards, each behind its own mutex, so
// concurrent appends to unrelated terms don't contend on a single lock -
// replacing the source's single in-place mutable concurrent map per design
// note §9. Once Sealed, Freeze produces a read-only sorted-array
// dictionary with prefix compression, matching the serialized layout spec
// §4.4 describes.
package invindex
