package requestmanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eaglenest7/infino/blobstore"
	"github.com/eaglenest7/infino/config"
	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/errs"
	"github.com/eaglenest7/infino/index"
)

func testRoot(t *testing.T, opts ...config.OptionFunc) *StorageRoot {
	t.Helper()

	store, err := blobstore.NewLocal(t.TempDir())
	require.NoError(t, err)

	cfg := Config{Store: store, Opts: config.New(append([]config.OptionFunc{
		config.WithIndexDirPath("data"),
		config.WithRetentionDays(30),
	}, opts...)...)}

	return New(cfg)
}

func TestStorageRoot_CreateIndex(t *testing.T) {
	r := testRoot(t)

	require.NoError(t, r.CreateIndex("logs"))
	require.True(t, r.Exists("logs"))
}

func TestStorageRoot_CreateIndex_ConflictOnDuplicate(t *testing.T) {
	r := testRoot(t)

	require.NoError(t, r.CreateIndex("logs"))

	err := r.CreateIndex("logs")
	require.Error(t, err)
	require.Equal(t, errs.Conflict, errs.CodeOf(err))
}

func TestStorageRoot_Write_NotFoundOnUnknownIndex(t *testing.T) {
	r := testRoot(t)

	err := r.Write("nope", index.WriteDoc{Timestamp: 1000, Fields: map[string]document.FieldValue{"message": "hi"}})
	require.Error(t, err)
	require.Equal(t, errs.NotFound, errs.CodeOf(err))
}

func TestStorageRoot_WriteThenQuery(t *testing.T) {
	ctx := context.Background()
	r := testRoot(t)
	require.NoError(t, r.CreateIndex("logs"))

	require.NoError(t, r.Write("logs", index.WriteDoc{
		Timestamp: 1000,
		Labels:    document.Labels{"host": "a"},
		Fields:    map[string]document.FieldValue{"message": "connection reset"},
	}))

	res, err := r.Query(ctx, "logs", []byte(`{"query":{"term":{"host":"a"}}}`), "message")
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
}

func TestStorageRoot_DeleteIndex(t *testing.T) {
	ctx := context.Background()
	r := testRoot(t)
	require.NoError(t, r.CreateIndex("logs"))

	require.NoError(t, r.DeleteIndex(ctx, "logs"))
	require.False(t, r.Exists("logs"))

	err := r.DeleteIndex(ctx, "logs")
	require.Error(t, err)
	require.Equal(t, errs.NotFound, errs.CodeOf(err))
}

func TestStorageRoot_Bootstrap_RediscoversCommittedIndex(t *testing.T) {
	ctx := context.Background()
	store, err := blobstore.NewLocal(t.TempDir())
	require.NoError(t, err)
	cfg := Config{Store: store, Opts: config.New(config.WithIndexDirPath("data"), config.WithRetentionDays(30))}

	first := New(cfg)
	require.NoError(t, first.CreateIndex("logs"))
	require.NoError(t, first.Write("logs", index.WriteDoc{
		Timestamp: 1000,
		Labels:    document.Labels{"host": "a"},
		Fields:    map[string]document.FieldValue{"message": "hello"},
	}))
	require.NoError(t, first.Commit(ctx, "logs"))

	second := New(cfg)
	require.NoError(t, second.Bootstrap(ctx))
	require.True(t, second.Exists("logs"))

	stats, err := second.Stats("logs")
	require.NoError(t, err)
	require.Equal(t, 1, stats.SealedSegments)
	require.Equal(t, 1, stats.SealedDocCount)
}

func TestStorageRoot_Write_DedupsWhenRabbitMQConfigured(t *testing.T) {
	r := testRoot(t, config.WithRabbitMQ(true))
	require.NoError(t, r.CreateIndex("logs"))

	doc := index.WriteDoc{
		Timestamp: 1000,
		Labels:    document.Labels{"host": "a"},
		Fields:    map[string]document.FieldValue{"message": "hello"},
	}

	require.NoError(t, r.Write("logs", doc))
	require.NoError(t, r.Write("logs", doc))

	stats, err := r.Stats("logs")
	require.NoError(t, err)
	require.Equal(t, 1, stats.OpenDocCount)
}

func TestStorageRoot_Write_NoDedupWithoutRabbitMQ(t *testing.T) {
	r := testRoot(t)
	require.NoError(t, r.CreateIndex("logs"))

	doc := index.WriteDoc{
		Timestamp: 1000,
		Labels:    document.Labels{"host": "a"},
		Fields:    map[string]document.FieldValue{"message": "hello"},
	}

	require.NoError(t, r.Write("logs", doc))
	require.NoError(t, r.Write("logs", doc))

	stats, err := r.Stats("logs")
	require.NoError(t, err)
	require.Equal(t, 2, stats.OpenDocCount)
}

func TestStorageRoot_CommitAll(t *testing.T) {
	ctx := context.Background()
	r := testRoot(t)
	require.NoError(t, r.CreateIndex("logs"))
	require.NoError(t, r.Write("logs", index.WriteDoc{
		Timestamp: 1000,
		Labels:    document.Labels{"host": "a"},
		Fields:    map[string]document.FieldValue{"message": "hello"},
	}))

	require.NoError(t, r.CommitAll(ctx))

	stats, err := r.Stats("logs")
	require.NoError(t, err)
	require.Equal(t, 0, stats.OpenDocCount)
	require.Equal(t, 1, stats.SealedSegments)
}
