package invindex

import (
	"testing"

	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/postings"
	"github.com/stretchr/testify/require"
)

func buildSampleIndex(t *testing.T) *Builder {
	t.Helper()

	b := NewBuilder()
	require.NoError(t, b.Insert(document.Term{Field: "msg", Value: "hello"}, 0))
	require.NoError(t, b.Insert(document.Term{Field: "msg", Value: "hello"}, 3))
	require.NoError(t, b.Insert(document.Term{Field: "msg", Value: "help"}, 1))
	require.NoError(t, b.Insert(document.Term{Field: "msg", Value: "world"}, 2))
	require.NoError(t, b.Insert(document.Term{Field: "host", Value: "a"}, 0))

	return b
}

func TestFreeze_LookupMatchesBuilder(t *testing.T) {
	b := buildSampleIndex(t)
	f := Freeze(b)

	data, ok := f.Lookup(document.Term{Field: "msg", Value: "hello"})
	require.True(t, ok)

	dec := postings.NewDecoder()
	var ids []uint32
	for id := range dec.All(data) {
		ids = append(ids, id)
	}
	require.Equal(t, []uint32{0, 3}, ids)
}

func TestFreeze_SerializeLoadRoundTrip(t *testing.T) {
	b := buildSampleIndex(t)
	f := Freeze(b)

	termsBin, postingsBin := f.Serialize()

	loaded, err := LoadFrozen(termsBin, postingsBin)
	require.NoError(t, err)
	require.Equal(t, f.TermCount(), loaded.TermCount())

	data, ok := loaded.Lookup(document.Term{Field: "msg", Value: "help"})
	require.True(t, ok)

	dec := postings.NewDecoder()
	var ids []uint32
	for id := range dec.All(data) {
		ids = append(ids, id)
	}
	require.Equal(t, []uint32{1}, ids)
}

func TestFreeze_Prefix(t *testing.T) {
	b := buildSampleIndex(t)
	f := Freeze(b)

	matches := f.Prefix("msg", "hel")
	require.Len(t, matches, 2)
}

func TestFreeze_Wildcard(t *testing.T) {
	b := buildSampleIndex(t)
	f := Freeze(b)

	matches := f.Wildcard("msg", "h*")
	require.Len(t, matches, 2)
}

func TestFreeze_LookupMissing(t *testing.T) {
	b := buildSampleIndex(t)
	f := Freeze(b)

	_, ok := f.Lookup(document.Term{Field: "msg", Value: "absent"})
	require.False(t, ok)
}
