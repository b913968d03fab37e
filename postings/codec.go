// Package postings implements the bit-packed monotonically increasing
// doc-id codec used by the inverted index: a strictly ascending sequence of
// 32-bit doc-ids is grouped into fixed-size blocks, each stored as a varint
// base, a varint block-final id (the block's prefix-sum bound, letting
// SkipTo reject a whole block without unpacking it), and per-block
// bit-packed deltas sized to the block's own maximum delta, with a
// varint-delta tail for the remainder. No library in the
// retrieved pack implements this exact fixed-block layout (Roaring bitmaps
// use a different container format), so the packer in bitpack.go is
// hand-written, following the bit-writer shape of the time-series codec.
package postings

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/eaglenest7/infino/errs"
)

// Encoder accumulates a strictly ascending sequence of doc-ids for one
// PostingList and produces its encoded form on demand.
type Encoder struct {
	ids []uint32
	err error
}

// NewEncoder creates an empty postings encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Write appends the next doc-id. id must be strictly greater than the last
// id written; violations are recorded and surfaced by Bytes and by every
// later Write so that
// callers can batch Write calls without checking every return value.
func (e *Encoder) Write(id uint32) error {
	if e.err != nil {
		return e.err
	}

	if n := len(e.ids); n > 0 && id <= e.ids[n-1] {
		e.err = errs.New(errs.ErrPostingNotAscending, errs.Internal,
			fmt.Sprintf("postings: doc-id %d not strictly greater than previous %d", id, e.ids[n-1]))

		return e.err
	}

	e.ids = append(e.ids, id)

	return nil
}

// WriteSlice appends ids in bulk, stopping at the first ordering violation.
func (e *Encoder) WriteSlice(ids []uint32) error {
	for _, id := range ids {
		if err := e.Write(id); err != nil {
			return err
		}
	}

	return nil
}

// Len returns the number of ids written so far.
func (e *Encoder) Len() int { return len(e.ids) }

// Bytes encodes the accumulated ids and returns the encoded payload.
func (e *Encoder) Bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}

	return Encode(e.ids), nil
}

// Finish releases the encoder's internal buffer. The encoder is single-use
// afterward.
func (e *Encoder) Finish() {
	e.ids = nil
}

// Encode is the functional form of Encoder, useful when the full id slice
// is already in hand (e.g. merging posting lists during a segment seal).
// ids must already be strictly ascending; callers that cannot guarantee
// this should go through Encoder.Write instead.
func Encode(ids []uint32) []byte {
	out := make([]byte, 0, len(ids)+binary.MaxVarintLen64)
	out = binary.AppendUvarint(out, uint64(len(ids)))

	numFull := len(ids) / blockSize
	for b := range numFull {
		block := ids[b*blockSize : (b+1)*blockSize]
		out = appendBlock(out, block)
	}

	tail := ids[numFull*blockSize:]
	prev := uint32(0)
	if numFull > 0 {
		prev = ids[numFull*blockSize-1]
	}

	for _, id := range tail {
		out = binary.AppendUvarint(out, uint64(id-prev))
		prev = id
	}

	return out
}

func appendBlock(out []byte, block []uint32) []byte {
	out = binary.AppendUvarint(out, uint64(block[0]))
	out = binary.AppendUvarint(out, uint64(block[len(block)-1]))

	deltas := make([]uint32, len(block)-1)
	var maxDelta uint32
	for i := 1; i < len(block); i++ {
		d := block[i] - block[i-1]
		deltas[i-1] = d
		if d > maxDelta {
			maxDelta = d
		}
	}

	width := deltaWidth(maxDelta)
	out = append(out, byte(width)) //nolint:gosec // width is 0-32
	out = append(out, packDeltas(deltas, width)...)

	return out
}

// Decoder decodes postings codec payloads. It is stateless and safe to
// share across goroutines.
type Decoder struct{}

// NewDecoder returns a stateless postings decoder.
func NewDecoder() Decoder { return Decoder{} }

// Count reports how many ids are encoded in data without decoding them.
func (Decoder) Count(data []byte) (int, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return 0, errs.New(errs.ErrInvalidHeaderSize, errs.ParseError, "postings: truncated count header")
	}

	return int(count), nil
}

// All returns an iterator over every doc-id encoded in data, in ascending
// order.
func (Decoder) All(data []byte) iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		count, n := binary.Uvarint(data)
		if n <= 0 {
			return
		}

		offset := n
		remaining := int(count)
		numFull := remaining / blockSize
		prev := uint32(0)

		for range numFull {
			base, n := binary.Uvarint(data[offset:])
			if n <= 0 {
				return
			}
			offset += n

			_, n = binary.Uvarint(data[offset:]) // block-final id, unused here
			if n <= 0 {
				return
			}
			offset += n

			if offset >= len(data) {
				return
			}
			width := int(data[offset])
			offset++

			payloadLen := packedByteLen(width, blockSize-1)
			if offset+payloadLen > len(data) {
				return
			}
			deltas := unpackDeltas(data[offset:offset+payloadLen], width, blockSize-1)
			offset += payloadLen

			cur := uint32(base) //nolint:gosec
			if !yield(cur) {
				return
			}

			for _, d := range deltas {
				cur += d
				if !yield(cur) {
					return
				}
			}

			prev = cur
			remaining -= blockSize
		}

		for range remaining {
			delta, n := binary.Uvarint(data[offset:])
			if n <= 0 {
				return
			}
			offset += n

			prev += uint32(delta) //nolint:gosec
			if !yield(prev) {
				return
			}
		}
	}
}

// SkipTo returns an iterator starting at the first id greater than or equal
// to target, skipping whole blocks without unpacking them when their
// encoded block-final id (the block's true prefix-sum bound) is still below
// target.
func (Decoder) SkipTo(data []byte, target uint32) iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		count, n := binary.Uvarint(data)
		if n <= 0 {
			return
		}

		offset := n
		remaining := int(count)
		numFull := remaining / blockSize
		prev := uint32(0)

		for range numFull {
			base, n := binary.Uvarint(data[offset:])
			if n <= 0 {
				return
			}
			offset += n

			blockLast, n := binary.Uvarint(data[offset:])
			if n <= 0 {
				return
			}
			offset += n

			if offset >= len(data) {
				return
			}
			width := int(data[offset])
			offset++

			payloadLen := packedByteLen(width, blockSize-1)
			if offset+payloadLen > len(data) {
				return
			}

			if blockLast < uint64(target) {
				offset += payloadLen
				remaining -= blockSize
				prev = uint32(blockLast) //nolint:gosec

				continue
			}

			deltas := unpackDeltas(data[offset:offset+payloadLen], width, blockSize-1)
			offset += payloadLen

			cur := uint32(base) //nolint:gosec
			if cur >= target && !yield(cur) {
				return
			}

			for _, d := range deltas {
				cur += d
				if cur >= target && !yield(cur) {
					return
				}
			}

			prev = cur
			remaining -= blockSize
		}

		for range remaining {
			delta, n := binary.Uvarint(data[offset:])
			if n <= 0 {
				return
			}
			offset += n

			prev += uint32(delta) //nolint:gosec
			if prev >= target && !yield(prev) {
				return
			}
		}
	}
}
