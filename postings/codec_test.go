package postings

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func makeAscending(n int, step uint32) []uint32 {
	ids := make([]uint32, n)
	var cur uint32
	for i := range n {
		cur += step
		ids[i] = cur
	}

	return ids
}

func TestEncoder_RoundTrip_SingleBlock(t *testing.T) {
	ids := makeAscending(50, 3)

	enc := NewEncoder()
	require.NoError(t, enc.WriteSlice(ids))

	data, err := enc.Bytes()
	require.NoError(t, err)

	dec := NewDecoder()
	var got []uint32
	for id := range dec.All(data) {
		got = append(got, id)
	}

	require.Equal(t, ids, got)
}

func TestEncoder_RoundTrip_MultipleBlocksWithTail(t *testing.T) {
	ids := makeAscending(300, 7)

	enc := NewEncoder()
	require.NoError(t, enc.WriteSlice(ids))

	data, err := enc.Bytes()
	require.NoError(t, err)

	dec := NewDecoder()
	var got []uint32
	for id := range dec.All(data) {
		got = append(got, id)
	}

	require.Equal(t, ids, got)
}

func TestEncoder_RoundTrip_ExactBlockMultiple(t *testing.T) {
	ids := makeAscending(blockSize*3, 1)

	enc := NewEncoder()
	require.NoError(t, enc.WriteSlice(ids))

	data, err := enc.Bytes()
	require.NoError(t, err)

	dec := NewDecoder()
	var got []uint32
	for id := range dec.All(data) {
		got = append(got, id)
	}

	require.Equal(t, ids, got)
}

func TestEncoder_RejectsNonAscending(t *testing.T) {
	enc := NewEncoder()
	require.NoError(t, enc.Write(5))
	require.Error(t, enc.Write(5))
	require.Error(t, enc.Write(3))

	_, err := enc.Bytes()
	require.Error(t, err)
}

func TestEncoder_Empty(t *testing.T) {
	enc := NewEncoder()
	data, err := enc.Bytes()
	require.NoError(t, err)

	dec := NewDecoder()
	count, err := dec.Count(data)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	var got []uint32
	for id := range dec.All(data) {
		got = append(got, id)
	}
	require.Empty(t, got)
}

func TestDecoder_Count(t *testing.T) {
	ids := makeAscending(400, 2)

	enc := NewEncoder()
	require.NoError(t, enc.WriteSlice(ids))
	data, err := enc.Bytes()
	require.NoError(t, err)

	dec := NewDecoder()
	count, err := dec.Count(data)
	require.NoError(t, err)
	require.Equal(t, len(ids), count)
}

func TestDecoder_SkipTo(t *testing.T) {
	ids := makeAscending(500, 5)

	enc := NewEncoder()
	require.NoError(t, enc.WriteSlice(ids))
	data, err := enc.Bytes()
	require.NoError(t, err)

	dec := NewDecoder()

	target := ids[273]
	var got []uint32
	for id := range dec.SkipTo(data, target) {
		got = append(got, id)
	}

	require.Equal(t, ids[273:], got)
}

func TestDecoder_SkipToPastEnd(t *testing.T) {
	ids := makeAscending(50, 1)

	enc := NewEncoder()
	require.NoError(t, enc.WriteSlice(ids))
	data, err := enc.Bytes()
	require.NoError(t, err)

	dec := NewDecoder()

	var got []uint32
	for id := range dec.SkipTo(data, ids[len(ids)-1]+1000) {
		got = append(got, id)
	}

	require.Empty(t, got)
}

func TestDecoder_SkipTo_BlockSpanExceedsDeltaWidthBound(t *testing.T) {
	// A block whose max single delta is small but whose ids span far past
	// base+(2^width-1) once all 127 deltas accumulate: the naive
	// base+(2^width-1) bound used to under-estimate this block's true
	// reach and skip it even though it holds the target.
	ids := makeAscending(blockSize*2, 5)

	enc := NewEncoder()
	require.NoError(t, enc.WriteSlice(ids))
	data, err := enc.Bytes()
	require.NoError(t, err)

	dec := NewDecoder()

	target := ids[blockSize+10]
	var got []uint32
	for id := range dec.SkipTo(data, target) {
		got = append(got, id)
	}

	require.Equal(t, ids[blockSize+10:], got)
}

func TestEncode_VaryingDeltaSizes(t *testing.T) {
	ids := []uint32{1, 2, 4, 8, 16, 1000, 1001, 1002, 100000}

	data := Encode(ids)

	dec := NewDecoder()
	var got []uint32
	for id := range dec.All(data) {
		got = append(got, id)
	}

	require.Equal(t, ids, got)
}
