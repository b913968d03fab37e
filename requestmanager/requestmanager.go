// Package requestmanager is the thin routing layer in front of a named
// collection of Indexes. It has no storage or query logic of its own: every
// operation resolves a target Index by name and delegates, translating
// "index not found"/"index already exists" into the shared errs taxonomy so
// an HTTP front-end can map them to status codes without knowing anything
// about segments or the Blob Store.
package requestmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/eaglenest7/infino/blobstore"
	"github.com/eaglenest7/infino/config"
	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/errs"
	"github.com/eaglenest7/infino/index"
	"github.com/eaglenest7/infino/internal/hash"
	"github.com/eaglenest7/infino/query/executor"
)

// dedupCacheSize bounds the at-most-once write dedup cache. It is sized for
// roughly one commit interval's worth of upstream-queue retries, not for
// long-term exactly-once storage: a duplicate arriving after the cache has
// evicted its entry is written again, same as if dedup were disabled.
const dedupCacheSize = 100_000

// Config holds the dependencies every Index managed by a StorageRoot shares.
type Config struct {
	Store  blobstore.Store
	Opts   *config.Options
	Logger *zap.SugaredLogger
}

// Stats summarizes one Index's current state, the data backing the
// `_cat/<index>` contract.
type Stats struct {
	Name           string
	OpenDocCount   int
	SealedSegments int
	SealedDocCount int
}

// dedupKey identifies a write for at-most-once suppression: the target
// index, the document's timestamp, and a content hash of everything else.
type dedupKey struct {
	index     string
	timestamp int64
	content   uint64
}

// StorageRoot owns every Index in the process, keyed by name. It is the
// single place writes are deduplicated when UseRabbitMQ-style at-most-once
// ingestion is configured, and the single place index lifecycle errors
// (Conflict on create, NotFound on everything else) are raised.
type StorageRoot struct {
	cfg    Config
	logger *zap.SugaredLogger

	mu      sync.RWMutex
	indices map[string]*index.Index

	dedup *lru.Cache[dedupKey, struct{}]
}

// New creates an empty StorageRoot. Use Bootstrap to discover and load
// Indexes that already have committed segments in the Blob Store.
func New(cfg Config) *StorageRoot {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	r := &StorageRoot{
		cfg:     cfg,
		logger:  logger,
		indices: make(map[string]*index.Index),
	}

	if cfg.Opts.UseRabbitMQ {
		cache, err := lru.New[dedupKey, struct{}](dedupCacheSize)
		if err != nil {
			panic(fmt.Sprintf("requestmanager: invalid dedup cache size %d: %v", dedupCacheSize, err))
		}
		r.dedup = cache
	}

	return r
}

func (r *StorageRoot) indexConfig() index.Config {
	return index.Config{Store: r.cfg.Store, Opts: r.cfg.Opts, Logger: r.logger}
}

// Bootstrap lists every Index prefix under the configured IndexDirPath and
// loads each one from its manifest, so a restarted process regains query
// visibility over indexes it did not itself create in this run.
func (r *StorageRoot) Bootstrap(ctx context.Context) error {
	keys, err := r.cfg.Store.List(ctx, r.cfg.Opts.IndexDirPath+"/")
	if err != nil {
		return err
	}

	names := make(map[string]struct{})
	prefixLen := len(r.cfg.Opts.IndexDirPath) + 1
	for _, key := range keys {
		rest := key[prefixLen:]
		for i := 0; i < len(rest); i++ {
			if rest[i] == '/' {
				names[rest[:i]] = struct{}{}

				break
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for name := range names {
		if _, ok := r.indices[name]; ok {
			continue
		}

		idx, err := index.Load(ctx, name, r.indexConfig())
		if err != nil {
			return errs.Newf(err, errs.StoragePermanent, "requestmanager: failed to load index %q", name)
		}
		r.indices[name] = idx
	}

	return nil
}

// CreateIndex registers a new, empty Index under name. It returns
// errs.Conflict if an Index with that name is already known to this
// StorageRoot.
func (r *StorageRoot) CreateIndex(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.indices[name]; ok {
		return errs.New(nil, errs.Conflict, "requestmanager: index already exists").WithDetail("index", name)
	}

	r.indices[name] = index.New(name, r.indexConfig())
	r.logger.Infow("index created", "index", name)

	return nil
}

// DeleteIndex removes name's Index, including its underlying Blob Store
// state, and forgets it. It returns errs.NotFound if no such Index exists.
func (r *StorageRoot) DeleteIndex(ctx context.Context, name string) error {
	r.mu.Lock()
	idx, ok := r.indices[name]
	if ok {
		delete(r.indices, name)
	}
	r.mu.Unlock()

	if !ok {
		return errs.New(nil, errs.NotFound, "requestmanager: unknown index").WithDetail("index", name)
	}

	if err := idx.Delete(ctx); err != nil {
		return err
	}

	r.logger.Infow("index deleted", "index", name)

	return nil
}

// Exists reports whether name refers to a known Index.
func (r *StorageRoot) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.indices[name]

	return ok
}

func (r *StorageRoot) lookup(name string) (*index.Index, error) {
	r.mu.RLock()
	idx, ok := r.indices[name]
	r.mu.RUnlock()

	if !ok {
		return nil, errs.New(nil, errs.NotFound, "requestmanager: unknown index").WithDetail("index", name)
	}

	return idx, nil
}

// Write routes doc to name's Index. If UseRabbitMQ-style at-most-once
// ingestion is configured, a write whose (index, timestamp, content-hash)
// was already seen is silently dropped rather than appended twice.
func (r *StorageRoot) Write(name string, doc index.WriteDoc) error {
	idx, err := r.lookup(name)
	if err != nil {
		return err
	}

	if r.dedup != nil {
		key := dedupKey{index: name, timestamp: doc.Timestamp, content: contentHash(doc)}
		if _, seen := r.dedup.Get(key); seen {
			return nil
		}
		r.dedup.Add(key, struct{}{})
	}

	return idx.Write(doc)
}

// contentHash hashes everything about doc except its timestamp, which
// dedupKey already carries separately.
func contentHash(doc index.WriteDoc) uint64 {
	canon := struct {
		Labels document.Labels                `json:"labels"`
		Fields map[string]document.FieldValue `json:"fields"`
	}{Labels: doc.Labels, Fields: doc.Fields}

	data, err := json.Marshal(canon)
	if err != nil {
		return 0
	}

	return hash.Checksum(data)
}

// Query routes a JSON search request body to name's Index.
func (r *StorageRoot) Query(ctx context.Context, name string, body []byte, defaultField string) (*executor.Result, error) {
	idx, err := r.lookup(name)
	if err != nil {
		return nil, err
	}

	return idx.Query(ctx, body, defaultField)
}

// Commit seals name's Index's current Open segment.
func (r *StorageRoot) Commit(ctx context.Context, name string) error {
	idx, err := r.lookup(name)
	if err != nil {
		return err
	}

	return idx.Commit(ctx)
}

// CommitAll seals every known Index's current Open segment. It runs only
// when called: nothing in this module calls it on a timer, and
// CommitInterval is not read.
func (r *StorageRoot) CommitAll(ctx context.Context) error {
	for _, idx := range r.snapshot() {
		if err := idx.Commit(ctx); err != nil {
			return err
		}
	}

	return nil
}

// EnforceRetentionAll sweeps expired segments from every known Index. Like
// CommitAll, it runs only when called.
func (r *StorageRoot) EnforceRetentionAll(ctx context.Context, now time.Time) error {
	for _, idx := range r.snapshot() {
		if err := idx.EnforceRetention(ctx, now); err != nil {
			return err
		}
	}

	return nil
}

func (r *StorageRoot) snapshot() map[string]*index.Index {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*index.Index, len(r.indices))
	for name, idx := range r.indices {
		out[name] = idx
	}

	return out
}

// Stats reports name's current Index state for the `_cat/<index>` contract.
func (r *StorageRoot) Stats(name string) (Stats, error) {
	idx, err := r.lookup(name)
	if err != nil {
		return Stats{}, err
	}

	sealed := idx.Segments()
	sealedDocs := 0
	for _, s := range sealed {
		sealedDocs += s.DocCount()
	}

	return Stats{
		Name:           name,
		OpenDocCount:   idx.Open().DocCount(),
		SealedSegments: len(sealed),
		SealedDocCount: sealedDocs,
	}, nil
}
