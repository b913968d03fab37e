// Package encoding provides the generic codec contracts shared by Infino's
// columnar binary formats, plus the length-prefixed string encoder used for
// the inverted index's term dictionary and the forward store's field names.
//
// # Architecture
//
// The package is organized around the ColumnarEncoder and ColumnarDecoder
// interfaces:
//
//	type ColumnarEncoder[T comparable] interface {
//	    Write(data T)           // Encode single value
//	    WriteSlice(data []T)    // Encode multiple values (more efficient)
//	    Bytes() []byte          // Get encoded data
//	    Len() int               // Number of values encoded
//	    Size() int              // Size in bytes
//	    Reset()                 // Clear state but keep buffer
//	    Finish()                // Finalize and release resources
//	}
//
//	type ColumnarDecoder[T comparable] interface {
//	    All(data []byte, count int) iter.Seq[T]      // Sequential iteration
//	    At(data []byte, index, count int) (T, bool)  // Random access (if supported)
//	}
//
// Time-series timestamp and value codecs live in package tscodec, which
// implements ColumnarEncoder/ColumnarDecoder against the delta-delta and
// Gorilla XOR algorithms; this package only carries the shared interfaces
// plus VarStringEncoder, the generic string codec reused wherever a
// length-prefixed string stream is needed outside the time-series path.
package encoding
