// Package forward implements the doc-id to Document store for a Segment.
//
// While Open, documents are buffered in memory in doc-id order (doc-ids are
// dense from zero by construction). Freeze compacts them into fixed-size
// compressed blocks. forward.bin stores no doc-id directory: a doc-id is
// resolved to (block index, intra-block index) by dividing by the block
// size recorded in its header.
package forward
