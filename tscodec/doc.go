// Package tscodec implements the time-series codec: delta-of-delta
// compression for millisecond timestamps and Gorilla XOR compression for
// float64 sample values.
//
// Both codecs stream: Write/WriteSlice append during the mutable life of a
// Series, and the decoder reconstructs the original sequence exactly via an
// iter.Seq[T] once the Series is sealed. Encoders are single-use - call
// Finish to release the pooled buffer back once the bytes have been copied
// out into the sealed segment.
package tscodec
