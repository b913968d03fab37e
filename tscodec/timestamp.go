package tscodec

import (
	"encoding/binary"
	"iter"

	"github.com/eaglenest7/infino/encoding"
	"github.com/eaglenest7/infino/internal/options"
	"github.com/eaglenest7/infino/internal/pool"
)

var (
	_ encoding.ColumnarEncoder[int64] = (*TimestampEncoder)(nil)
	_ encoding.ColumnarDecoder[int64] = TimestampDecoder{}
)

// TimestampEncoder compresses a strictly ascending stream of millisecond
// timestamps using delta-of-delta coding: the first timestamp is stored as a
// full varint, the second as a zigzag-varint delta from the first, and every
// subsequent timestamp as a zigzag-varint delta-of-delta. Regular intervals
// (the common case for metric scrapes) collapse to a single byte per point.
type TimestampEncoder struct {
	buf      *pool.ByteBuffer
	prevTS   int64
	prevStep int64
	count    int
}

// TimestampEncoderOption configures a TimestampEncoder at construction time.
type TimestampEncoderOption = options.Option[*timestampEncoderConfig]

type timestampEncoderConfig struct {
	initialCapacity int
}

// WithTimestampInitialCapacity pre-grows the encoder's backing buffer to
// avoid reallocation when the approximate number of samples per Series is
// known ahead of time.
func WithTimestampInitialCapacity(bytes int) TimestampEncoderOption {
	return options.NoError(func(c *timestampEncoderConfig) { c.initialCapacity = bytes })
}

// NewTimestampEncoder creates a delta-of-delta encoder for one Series.
func NewTimestampEncoder(opts ...TimestampEncoderOption) *TimestampEncoder {
	cfg := &timestampEncoderConfig{}
	_ = options.Apply(cfg, opts...)

	buf := pool.GetBlobBuffer()
	if cfg.initialCapacity > 0 {
		buf.Grow(cfg.initialCapacity)
	}

	return &TimestampEncoder{buf: buf}
}

// Write encodes the next timestamp. ts must be strictly greater than the
// previously written timestamp; callers enforce this at the Series level
// since duplicate or out-of-order timestamps are rejected there, not here.
func (e *TimestampEncoder) Write(ts int64) {
	if e.buf == nil {
		panic("tscodec: TimestampEncoder already finished")
	}

	e.count++

	if e.count == 1 {
		e.appendUvarint(uint64(ts)) //nolint:gosec // timestamps are non-negative unix millis
		e.prevTS = ts

		return
	}

	step := ts - e.prevTS

	var toEncode int64
	if e.count == 2 {
		toEncode = step
	} else {
		toEncode = step - e.prevStep
	}

	e.appendUvarint(zigzagEncode(toEncode))
	e.prevStep = step
	e.prevTS = ts
}

// WriteSlice encodes timestamps in bulk.
func (e *TimestampEncoder) WriteSlice(values []int64) {
	for _, v := range values {
		e.Write(v)
	}
}

func zigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63)) //nolint:gosec
}

func zigzagDecode(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1) //nolint:gosec
}

func (e *TimestampEncoder) appendUvarint(v uint64) {
	e.buf.Grow(binary.MaxVarintLen64)
	e.buf.B = binary.AppendUvarint(e.buf.B, v)
}

// Bytes returns the encoded payload. Valid until Finish.
func (e *TimestampEncoder) Bytes() []byte {
	if e.buf == nil {
		panic("tscodec: TimestampEncoder already finished")
	}

	return e.buf.Bytes()
}

// Len returns the number of timestamps written.
func (e *TimestampEncoder) Len() int { return e.count }

// Size returns the number of bytes written to the buffer so far.
func (e *TimestampEncoder) Size() int {
	if e.buf == nil {
		panic("tscodec: TimestampEncoder already finished")
	}

	return e.buf.Len()
}

// Reset clears the delta-of-delta state so a new independent timestamp
// sequence can be appended to the same underlying buffer.
func (e *TimestampEncoder) Reset() {
	e.prevTS = 0
	e.prevStep = 0
	e.count = 0
}

// Finish releases the pooled buffer.
func (e *TimestampEncoder) Finish() {
	if e.buf == nil {
		return
	}

	pool.PutBlobBuffer(e.buf)
	e.buf = nil
}

// TimestampDecoder decodes delta-of-delta compressed millisecond timestamps.
// It is stateless and safe to share.
type TimestampDecoder struct{}

// NewTimestampDecoder returns a stateless decoder.
func NewTimestampDecoder() TimestampDecoder { return TimestampDecoder{} }

// All returns an iterator yielding the count timestamps encoded in data.
func (TimestampDecoder) All(data []byte, count int) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		if len(data) == 0 || count <= 0 {
			return
		}

		first, n := binary.Uvarint(data)
		if n <= 0 {
			return
		}

		cur := int64(first) //nolint:gosec
		offset := n
		if !yield(cur) {
			return
		}

		if count == 1 {
			return
		}

		zz, n := binary.Uvarint(data[offset:])
		if n <= 0 {
			return
		}

		step := zigzagDecode(zz)
		cur += step
		offset += n
		if !yield(cur) {
			return
		}

		for i := 2; i < count; i++ {
			zz, n := binary.Uvarint(data[offset:])
			if n <= 0 {
				return
			}

			offset += n
			step += zigzagDecode(zz)
			cur += step

			if !yield(cur) {
				return
			}
		}
	}
}

// At decodes sequentially up to index and returns that timestamp.
func (d TimestampDecoder) At(data []byte, index int, count int) (int64, bool) {
	if index < 0 || index >= count {
		return 0, false
	}

	i := 0
	var result int64
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
