package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eaglenest7/infino/blobstore"
	"github.com/eaglenest7/infino/config"
	"github.com/eaglenest7/infino/document"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	store, err := blobstore.NewLocal(t.TempDir())
	require.NoError(t, err)

	opts := config.New(config.WithIndexDirPath("data"), config.WithRetentionDays(30))

	return Config{Store: store, Opts: opts}
}

func TestIndex_WriteLogDocument(t *testing.T) {
	idx := New("logs", testConfig(t))

	err := idx.Write(WriteDoc{
		Timestamp: 1000,
		Labels:    document.Labels{"host": "a"},
		Fields:    map[string]document.FieldValue{"message": "connection reset"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, idx.Open().DocCount())
}

func TestIndex_WriteMetricPoint(t *testing.T) {
	idx := New("metrics", testConfig(t))

	err := idx.Write(WriteDoc{
		Timestamp: 1000,
		Labels:    document.Labels{"host": "a"},
		Fields: map[string]document.FieldValue{
			"metric": "cpu",
			"value":  float64(0.5),
		},
	})
	require.NoError(t, err)
}

func TestIndex_QueryAveragesMetricPoints(t *testing.T) {
	idx := New("metrics", testConfig(t))

	require.NoError(t, idx.Write(WriteDoc{
		Timestamp: 1,
		Labels:    document.Labels{"h": "a"},
		Fields:    map[string]document.FieldValue{"metric": "cpu", "value": float64(0.5)},
	}))
	require.NoError(t, idx.Write(WriteDoc{
		Timestamp: 2,
		Labels:    document.Labels{"h": "a"},
		Fields:    map[string]document.FieldValue{"metric": "cpu", "value": float64(0.7)},
	}))

	body := []byte(`{"query":{"range":{"date":{"gte":1,"lte":2}}},"aggs":{"avg":{"avg":{"field":"value"}}}}`)

	res, err := idx.Query(context.Background(), body, "message")
	require.NoError(t, err)
	require.InDelta(t, 0.6, res.Aggs["avg"].Value, 0.0001)
}

func TestIndex_CommitSealsAndListsSegment(t *testing.T) {
	ctx := context.Background()
	idx := New("commit-test", testConfig(t))

	require.NoError(t, idx.Write(WriteDoc{
		Timestamp: 1000,
		Labels:    document.Labels{"host": "a"},
		Fields:    map[string]document.FieldValue{"message": "hello world"},
	}))

	require.NoError(t, idx.Commit(ctx))

	segments := idx.Segments()
	require.Len(t, segments, 1)
	require.Equal(t, 1, segments[0].DocCount())
	require.Equal(t, 0, idx.Open().DocCount())
}

func TestIndex_CommitOnEmptySegmentIsNoop(t *testing.T) {
	ctx := context.Background()
	idx := New("empty-commit", testConfig(t))

	require.NoError(t, idx.Commit(ctx))
	require.Empty(t, idx.Segments())
}

func TestIndex_LoadReconstructsCommittedSegments(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	idx := New("reload", cfg)

	require.NoError(t, idx.Write(WriteDoc{
		Timestamp: 1000,
		Labels:    document.Labels{"host": "a"},
		Fields:    map[string]document.FieldValue{"message": "hello world"},
	}))
	require.NoError(t, idx.Commit(ctx))

	reloaded, err := Load(ctx, "reload", cfg)
	require.NoError(t, err)

	segments := reloaded.Segments()
	require.Len(t, segments, 1)
	require.Equal(t, 1, segments[0].DocCount())
}

func TestIndex_LoadOnMissingManifestIsEmptyIndex(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	idx, err := Load(ctx, "never-committed", cfg)
	require.NoError(t, err)
	require.Empty(t, idx.Segments())
}

func TestIndex_EnforceRetentionRemovesExpiredSegments(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Opts = config.New(config.WithIndexDirPath("data"), config.WithRetentionDays(1))
	idx := New("retention", cfg)

	twoDaysAgo := time.Now().AddDate(0, 0, -2).UnixMilli()
	require.NoError(t, idx.Write(WriteDoc{
		Timestamp: twoDaysAgo,
		Labels:    document.Labels{"host": "a"},
		Fields:    map[string]document.FieldValue{"message": "stale entry"},
	}))
	require.NoError(t, idx.Commit(ctx))
	require.Len(t, idx.Segments(), 1)

	require.NoError(t, idx.EnforceRetention(ctx, time.Now()))
	require.Empty(t, idx.Segments())
}

func TestIndex_EnforceRetentionKeepsFreshSegments(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	idx := New("retention-fresh", cfg)

	require.NoError(t, idx.Write(WriteDoc{
		Timestamp: time.Now().UnixMilli(),
		Labels:    document.Labels{"host": "a"},
		Fields:    map[string]document.FieldValue{"message": "fresh entry"},
	}))
	require.NoError(t, idx.Commit(ctx))

	require.NoError(t, idx.EnforceRetention(ctx, time.Now()))
	require.Len(t, idx.Segments(), 1)
}

func TestIndex_QueryFindsDocInOpenSegment(t *testing.T) {
	ctx := context.Background()
	idx := New("query-open", testConfig(t))

	require.NoError(t, idx.Write(WriteDoc{
		Timestamp: 1000,
		Labels:    document.Labels{"host": "a"},
		Fields:    map[string]document.FieldValue{"message": "connection reset"},
	}))

	res, err := idx.Query(ctx, []byte(`{"query":{"term":{"host":"a"}}}`), "message")
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
}

func TestIndex_QueryFindsDocAfterCommit(t *testing.T) {
	ctx := context.Background()
	idx := New("query-sealed", testConfig(t))

	require.NoError(t, idx.Write(WriteDoc{
		Timestamp: 1000,
		Labels:    document.Labels{"host": "a"},
		Fields:    map[string]document.FieldValue{"message": "connection reset"},
	}))
	require.NoError(t, idx.Commit(ctx))

	res, err := idx.Query(ctx, []byte(`{"query":{"match":{"message":"connection"}}}`), "message")
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
}

func TestIndex_QueryRejectsInvalidRequestBody(t *testing.T) {
	ctx := context.Background()
	idx := New("query-invalid", testConfig(t))

	_, err := idx.Query(ctx, []byte(`{}`), "message")
	require.Error(t, err)
}

func TestIndex_Delete(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	idx := New("to-delete", cfg)

	require.NoError(t, idx.Write(WriteDoc{
		Timestamp: 1000,
		Labels:    document.Labels{"host": "a"},
		Fields:    map[string]document.FieldValue{"message": "hello"},
	}))
	require.NoError(t, idx.Commit(ctx))

	require.NoError(t, idx.Delete(ctx))

	keys, err := cfg.Store.List(ctx, idx.prefix())
	require.NoError(t, err)
	require.Empty(t, keys)
}
