package tscodec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueEncoder_RoundTrip(t *testing.T) {
	values := []float64{100.0, 100.1, 100.05, 100.05, 99.9, 150.25, 150.25, 0, -42.5}

	enc := NewValueEncoder()
	enc.WriteSlice(values)
	require.Equal(t, len(values), enc.Len())

	data := append([]byte(nil), enc.Bytes()...)
	enc.Finish()

	dec := NewValueDecoder()

	got := make([]float64, 0, len(values))
	for v := range dec.All(data, len(values)) {
		got = append(got, v)
	}

	require.Equal(t, values, got)
}

func TestValueEncoder_WithInitialCapacity(t *testing.T) {
	enc := NewValueEncoder(WithValueInitialCapacity(64))
	enc.Write(1.0)
	enc.Write(2.0)
	require.Equal(t, 2, enc.Len())
	require.GreaterOrEqual(t, cap(enc.buf.B), 64)
}

func TestValueEncoder_SingleValue(t *testing.T) {
	enc := NewValueEncoder()
	enc.Write(42.0)
	require.Equal(t, 1, enc.Len())

	data := append([]byte(nil), enc.Bytes()...)
	enc.Finish()

	dec := NewValueDecoder()
	v, ok := dec.At(data, 0, 1)
	require.True(t, ok)
	require.Equal(t, 42.0, v)
}

func TestValueEncoder_UnchangedValuesCompressSmall(t *testing.T) {
	enc := NewValueEncoder()
	for range 4 {
		enc.Write(100.0)
	}

	data := append([]byte(nil), enc.Bytes()...)
	enc.Finish()

	require.LessOrEqual(t, len(data), 9)
}

func TestValueEncoder_At(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	enc := NewValueEncoder()
	enc.WriteSlice(values)

	data := append([]byte(nil), enc.Bytes()...)
	enc.Finish()

	dec := NewValueDecoder()
	for i, want := range values {
		got, ok := dec.At(data, i, len(values))
		require.True(t, ok)
		require.Equal(t, want, got)
	}

	_, ok := dec.At(data, len(values), len(values))
	require.False(t, ok)
}

func TestValueEncoder_SpecialFloats(t *testing.T) {
	values := []float64{math.Inf(1), math.Inf(-1), 0, math.MaxFloat64, math.SmallestNonzeroFloat64}

	enc := NewValueEncoder()
	enc.WriteSlice(values)

	data := append([]byte(nil), enc.Bytes()...)
	enc.Finish()

	dec := NewValueDecoder()

	got := make([]float64, 0, len(values))
	for v := range dec.All(data, len(values)) {
		got = append(got, v)
	}

	require.Equal(t, values, got)
}

func TestValueEncoder_EmptySlice(t *testing.T) {
	enc := NewValueEncoder()
	enc.WriteSlice(nil)
	require.Equal(t, 0, enc.Len())
	enc.Finish()
}
