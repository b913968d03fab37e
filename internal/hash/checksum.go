package hash

import "github.com/cespare/xxhash/v2"

// Checksum computes the xxHash64 checksum of a serialized component (a
// segment file or the index/segment manifest) for integrity verification on
// load.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// LabelSetID hashes a sorted label-set representation into the key used to
// look up a Series within a segment's series dictionary.
func LabelSetID(sortedLabels string) uint64 {
	return xxhash.Sum64String(sortedLabels)
}
