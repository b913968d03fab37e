package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksumDeterministic(t *testing.T) {
	data := []byte("segment-manifest-bytes")
	require.Equal(t, Checksum(data), Checksum(data))
	require.NotEqual(t, Checksum(data), Checksum([]byte("other-bytes")))
}

func TestLabelSetIDDeterministic(t *testing.T) {
	a := LabelSetID("host=a,region=us")
	b := LabelSetID("host=a,region=us")
	c := LabelSetID("host=b,region=us")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}
