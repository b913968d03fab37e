package tscodec

import (
	"iter"
	"math"
	"math/bits"

	"github.com/eaglenest7/infino/encoding"
	"github.com/eaglenest7/infino/internal/options"
	"github.com/eaglenest7/infino/internal/pool"
)

var (
	_ encoding.ColumnarEncoder[float64] = (*ValueEncoder)(nil)
	_ encoding.ColumnarDecoder[float64] = ValueDecoder{}
)

// ValueEncoder compresses a stream of float64 sample values using Gorilla
// XOR compression: the first value is stored verbatim, each subsequent value
// is XORed against the previous one, and the run of meaningful bits in the
// XOR (bounded by its leading/trailing zero counts) is stored with a block
// header reused across runs that share the same zero-count window.
//
// See https://www.vldb.org/pvldb/vol8/p1816-teller.pdf for the algorithm.
type ValueEncoder struct {
	w   *bitWriter
	buf *pool.ByteBuffer

	prevBits      uint64
	prevLeading   int
	prevTrailing  int
	prevBlockSize int
	count         int
	first         bool
}

// ValueEncoderOption configures a ValueEncoder at construction time.
type ValueEncoderOption = options.Option[*valueEncoderConfig]

type valueEncoderConfig struct {
	initialCapacity int
}

// WithValueInitialCapacity pre-grows the encoder's backing buffer to avoid
// reallocation when the approximate number of samples per Series is known
// ahead of time.
func WithValueInitialCapacity(bytes int) ValueEncoderOption {
	return options.NoError(func(c *valueEncoderConfig) { c.initialCapacity = bytes })
}

// NewValueEncoder creates a Gorilla encoder ready to accept values for one Series.
func NewValueEncoder(opts ...ValueEncoderOption) *ValueEncoder {
	cfg := &valueEncoderConfig{}
	_ = options.Apply(cfg, opts...)

	buf := pool.GetBlobBuffer()
	if cfg.initialCapacity > 0 {
		buf.Grow(cfg.initialCapacity)
	}

	return &ValueEncoder{
		buf:   buf,
		w:     newBitWriter(buf),
		first: true,
	}
}

// Write encodes a single value.
func (e *ValueEncoder) Write(val float64) {
	if e.buf == nil {
		panic("tscodec: ValueEncoder already finished")
	}

	e.count++
	bits64 := math.Float64bits(val)

	if e.first {
		e.first = false
		e.prevBits = bits64
		e.w.writeBits(bits64, 64)

		return
	}

	e.writeValue(bits64)
}

// WriteSlice encodes values in bulk.
func (e *ValueEncoder) WriteSlice(values []float64) {
	for _, v := range values {
		e.Write(v)
	}
}

func (e *ValueEncoder) writeValue(valBits uint64) {
	xor := valBits ^ e.prevBits
	e.prevBits = valBits

	if xor == 0 {
		e.w.writeBit(0)

		return
	}

	e.w.writeBit(1)

	leading := bits.LeadingZeros64(xor)
	trailing := bits.TrailingZeros64(xor)
	if leading > 31 {
		adjustment := leading - 31
		leading = 31
		trailing -= adjustment
		if trailing < 0 {
			trailing = 0
		}
	}

	if e.count > 2 && e.prevBlockSize > 0 && leading >= e.prevLeading && trailing >= e.prevTrailing {
		e.w.writeBit(0)
		e.w.writeBits(xor>>e.prevTrailing, e.prevBlockSize)

		return
	}

	blockSize := 64 - leading - trailing
	e.w.writeBit(1)
	e.w.writeBits(uint64(leading), 5)   //nolint:gosec // leading is clamped to 0-31
	e.w.writeBits(uint64(blockSize-1), 6) //nolint:gosec // blockSize-1 is always 0-63
	e.w.writeBits(xor>>trailing, blockSize)

	e.prevLeading = leading
	e.prevTrailing = trailing
	e.prevBlockSize = blockSize
}

// Bytes returns the encoded payload including any bits still pending in the
// bit writer, without ending the encoding session: later Writes continue
// the same bit stream. The returned slice may alias the internal buffer and
// is only valid until Finish.
func (e *ValueEncoder) Bytes() []byte {
	if e.buf == nil {
		panic("tscodec: ValueEncoder already finished")
	}

	if e.w.bitCount == 0 {
		return e.buf.Bytes()
	}

	out := append([]byte(nil), e.buf.Bytes()...)
	aligned := e.w.bitBuf << (64 - e.w.bitCount)
	for i := range (e.w.bitCount + 7) / 8 {
		out = append(out, byte(aligned>>(56-i*8)))
	}

	return out
}

// Len returns the number of values written.
func (e *ValueEncoder) Len() int { return e.count }

// Size returns the number of bytes flushed to the buffer so far. Bits still
// pending in the bit writer are not included.
func (e *ValueEncoder) Size() int {
	if e.buf == nil {
		panic("tscodec: ValueEncoder already finished")
	}

	return e.buf.Len()
}

// Reset clears the XOR compression state so a new independent value
// sequence can be appended to the same underlying buffer. Len, Size, and
// Bytes of data already written are unaffected.
func (e *ValueEncoder) Reset() {
	e.prevBits = 0
	e.prevLeading = 0
	e.prevTrailing = 0
	e.prevBlockSize = 0
	e.first = true
}

// Finish releases the pooled buffer. The encoder is single-use afterward.
func (e *ValueEncoder) Finish() {
	if e.buf == nil {
		return
	}

	pool.PutBlobBuffer(e.buf)
	e.buf = nil
}

// ValueDecoder decodes Gorilla-compressed float64 values. It is stateless
// and safe to share across goroutines.
type ValueDecoder struct{}

// NewValueDecoder returns a stateless Gorilla decoder.
func NewValueDecoder() ValueDecoder { return ValueDecoder{} }

// All returns an iterator yielding the count values encoded in data.
func (ValueDecoder) All(data []byte, count int) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		if len(data) == 0 || count == 0 {
			return
		}

		r := newBitReader(data)
		first, ok := r.readBits(64)
		if !ok {
			return
		}

		prevBits := first
		if !yield(math.Float64frombits(prevBits)) {
			return
		}

		leading, trailing, blockSize := 0, 0, 0
		blockValid := false

		for i := 1; i < count; i++ {
			ctrl, ok := r.readBit()
			if !ok {
				return
			}

			if ctrl == 0 {
				if !yield(math.Float64frombits(prevBits)) {
					return
				}

				continue
			}

			reuse, ok := r.readBit()
			if !ok {
				return
			}

			if reuse == 0 {
				if !blockValid {
					return
				}
			} else {
				l, ok := r.readBits(5)
				if !ok {
					return
				}

				sz, ok := r.readBits(6)
				if !ok {
					return
				}

				leading = int(l)
				blockSize = int(sz) + 1
				trailing = 64 - leading - blockSize
				if trailing < 0 || blockSize < 1 || blockSize > 64 {
					return
				}

				blockValid = true
			}

			meaningful, ok := r.readBits(blockSize)
			if !ok {
				return
			}

			prevBits ^= meaningful << trailing
			if !yield(math.Float64frombits(prevBits)) {
				return
			}
		}
	}
}

// At decodes sequentially up to index and returns that value. For repeated
// random access prefer All and cache the results.
func (d ValueDecoder) At(data []byte, index int, count int) (float64, bool) {
	if index < 0 || index >= count {
		return 0, false
	}

	i := 0
	var result float64
	found := false
	for v := range d.All(data, count) {
		if i == index {
			result = v
			found = true

			break
		}
		i++
	}

	return result, found
}
