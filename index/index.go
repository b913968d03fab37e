package index

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/eaglenest7/infino/blobstore"
	"github.com/eaglenest7/infino/config"
	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/errs"
	"github.com/eaglenest7/infino/internal/hash"
	"github.com/eaglenest7/infino/query/executor"
	"github.com/eaglenest7/infino/query/jsonparser"
	"github.com/eaglenest7/infino/segment"
)

const manifestKey = "manifest.json"

// WriteDoc is a raw ingested document: a timestamp, a flat label map, and
// the remaining fields keyed by name. A WriteDoc carrying both a "metric"
// string field and a "value" numeric field is interpreted as a MetricPoint;
// otherwise it is interpreted as a log Document.
type WriteDoc struct {
	Timestamp int64
	Labels    document.Labels
	Fields    map[string]document.FieldValue
}

// Config holds the dependencies an Index needs beyond its own name:
// storage backend, operating options, and a logger threaded through every
// constructor.
type Config struct {
	Store  blobstore.Store
	Opts   *config.Options
	Logger *zap.SugaredLogger
}

// Index is a named collection of Segments: exactly one Open segment
// accepting writes, plus zero or more Sealed/Persisted segments serving
// queries. Commit, retention, and reconciliation are all driven through an
// Index's own manifest, whose PUT to the Blob Store is the single
// visibility point for a sealed segment.
type Index struct {
	name string

	store  blobstore.Store
	opts   *config.Options
	logger *zap.SugaredLogger

	mu       sync.RWMutex
	open     *segment.Segment
	sealed   map[string]*segment.Sealed
	manifest Manifest

	segmentSeq atomic.Uint64
}

// New creates an empty Index with a fresh Open segment. Use Load to
// reconstruct an Index with pre-existing segments from the Blob Store.
func New(name string, cfg Config) *Index {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	idx := &Index{
		name:     name,
		store:    cfg.Store,
		opts:     cfg.Opts,
		logger:   logger,
		sealed:   make(map[string]*segment.Sealed),
		manifest: Manifest{IndexName: name},
	}
	idx.open = segment.New(idx.nextSegmentID())

	return idx
}

func (idx *Index) nextSegmentID() string {
	seq := idx.segmentSeq.Add(1)

	return fmt.Sprintf("%s-%016x", idx.name, seq)
}

func (idx *Index) prefix() string {
	return idx.opts.IndexDirPath + "/" + idx.name + "/"
}

func (idx *Index) segmentPrefix(segID string) string {
	return idx.prefix() + "segments/" + segID + "/"
}

// isMetric reports whether a WriteDoc's fields carry a metric identity:
// a string "metric" field and a numeric "value" field.
func isMetric(fields map[string]document.FieldValue) (name string, value float64, ok bool) {
	rawName, hasName := fields["metric"]
	rawValue, hasValue := fields["value"]
	if !hasName || !hasValue {
		return "", 0, false
	}

	name, ok = rawName.(string)
	if !ok {
		return "", 0, false
	}

	switch v := rawValue.(type) {
	case float64:
		return name, v, true
	case int:
		return name, float64(v), true
	case int64:
		return name, float64(v), true
	default:
		return "", 0, false
	}
}

// Write appends a WriteDoc to the Index's current Open segment, routing it
// to the log or metric path depending on whether it carries a metric
// identity. The write is visible to subsequent queries against this Index
// as soon as the append returns.
func (idx *Index) Write(doc WriteDoc) error {
	idx.mu.RLock()
	open := idx.open
	idx.mu.RUnlock()

	if name, value, ok := isMetric(doc.Fields); ok {
		point := document.Point{
			Metric:    name,
			Labels:    doc.Labels,
			Timestamp: doc.Timestamp,
			Value:     value,
		}

		return open.AppendMetric(point)
	}

	d := document.Document{
		Timestamp: doc.Timestamp,
		Labels:    doc.Labels,
		Fields:    doc.Fields,
	}
	_, err := open.AppendLog(d)

	return err
}

// ShouldCommit reports whether the current Open segment holds at least one
// document. It does not consult the configured segment size threshold:
// Segment does not track serialized size until Seal.
func (idx *Index) ShouldCommit() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.open.DocCount() > 0
}

// Commit seals the current Open segment, serializes it, writes its
// component blobs and meta.json to the Blob Store, and atomically updates
// the Index manifest to make the sealed segment visible. A fresh Open
// segment is swapped in before sealing begins, so writes are never
// blocked on a commit in progress. A crash before the manifest PUT leaves
// orphan segment bytes that Load's reconciliation treats as garbage.
func (idx *Index) Commit(ctx context.Context) error {
	idx.mu.Lock()
	sealing := idx.open
	idx.open = segment.New(idx.nextSegmentID())
	idx.mu.Unlock()

	if sealing.DocCount() == 0 {
		idx.mu.Lock()
		idx.open = sealing
		idx.mu.Unlock()

		return nil
	}

	sealed, err := sealing.Seal()
	if err != nil {
		return err
	}

	m, blobs, err := sealed.Serialize()
	if err != nil {
		return err
	}

	segPrefix := idx.segmentPrefix(sealed.ID())

	for name, data := range map[string][]byte{
		"terms.bin":    blobs.Terms,
		"postings.bin": blobs.Postings,
		"forward.bin":  blobs.Forward,
		"series.bin":   blobs.Series,
	} {
		if err := withRetry(ctx, func(ctx context.Context) error {
			return idx.store.Put(ctx, segPrefix+name, data)
		}); err != nil {
			return err
		}
	}

	manifestBytes, err := json.Marshal(m)
	if err != nil {
		return errs.New(err, errs.Internal, "index: failed to marshal segment manifest")
	}

	if err := withRetry(ctx, func(ctx context.Context) error {
		return idx.store.Put(ctx, segPrefix+"meta.json", manifestBytes)
	}); err != nil {
		return err
	}

	minTS, maxTS := sealed.TimeRange()
	ref := SegmentRef{
		ID:               sealed.ID(),
		MinTS:            minTS,
		MaxTS:            maxTS,
		ManifestChecksum: hash.Checksum(manifestBytes),
	}

	idx.mu.Lock()
	idx.manifest.add(ref)
	idx.sealed[sealed.ID()] = sealed
	newManifest := idx.manifest
	idx.mu.Unlock()

	if err := idx.putManifest(ctx, newManifest); err != nil {
		return err
	}

	idx.logger.Infow("segment committed", "index", idx.name, "segment", sealed.ID(), "docs", sealed.DocCount())

	return nil
}

func (idx *Index) putManifest(ctx context.Context, m Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return errs.New(err, errs.Internal, "index: failed to marshal index manifest")
	}

	return withRetry(ctx, func(ctx context.Context) error {
		return idx.store.Put(ctx, idx.prefix()+manifestKey, data)
	})
}

// EnforceRetention removes segments whose max_ts is older than the
// configured retention horizon from the Index manifest via a single
// atomic PUT, then best-effort deletes their underlying Blob Store keys.
// A segment is only ever removed from query visibility by the manifest
// PUT; the subsequent blob deletion is cleanup, not a correctness
// requirement.
func (idx *Index) EnforceRetention(ctx context.Context, now time.Time) error {
	horizon := now.AddDate(0, 0, -idx.opts.RetentionDays).UnixMilli()

	idx.mu.Lock()
	var expired []SegmentRef
	for _, ref := range idx.manifest.Segments {
		if ref.MaxTS < horizon {
			expired = append(expired, ref)
		}
	}
	for _, ref := range expired {
		idx.manifest.remove(ref.ID)
		delete(idx.sealed, ref.ID)
	}
	newManifest := idx.manifest
	idx.mu.Unlock()

	if len(expired) == 0 {
		return nil
	}

	if err := idx.putManifest(ctx, newManifest); err != nil {
		return err
	}

	for _, ref := range expired {
		segPrefix := idx.segmentPrefix(ref.ID)
		for _, name := range []string{"terms.bin", "postings.bin", "forward.bin", "series.bin", "meta.json"} {
			if err := idx.store.Delete(ctx, segPrefix+name); err != nil {
				idx.logger.Warnw("failed to delete expired segment file",
					"index", idx.name, "segment", ref.ID, "file", name, "err", err)
			}
		}
	}

	idx.logger.Infow("retention swept segments", "index", idx.name, "count", len(expired))

	return nil
}

// Delete removes every blob under the Index's prefix, including the
// manifest and all segment files.
func (idx *Index) Delete(ctx context.Context) error {
	keys, err := idx.store.List(ctx, idx.prefix())
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := idx.store.Delete(ctx, key); err != nil {
			return err
		}
	}

	return nil
}

// Segments returns the Sealed/Persisted segments currently listed in the
// Index manifest, for use by query execution.
func (idx *Index) Segments() []*segment.Sealed {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]*segment.Sealed, 0, len(idx.sealed))
	for _, s := range idx.sealed {
		out = append(out, s)
	}

	return out
}

// Open returns the Index's current Open segment, for use by query
// execution needing read-your-writes visibility.
func (idx *Index) Open() *segment.Segment {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.open
}

// Query parses a JSON search request body and executes it against the
// Index's current Open segment plus every Sealed segment, giving
// read-your-writes visibility over documents committed since the last
// Commit. defaultField is the field bare query_string terms are matched
// against when the request does not name one itself.
func (idx *Index) Query(ctx context.Context, body []byte, defaultField string) (*executor.Result, error) {
	req, err := jsonparser.Parse(body, defaultField)
	if err != nil {
		return nil, errs.New(err, errs.ParseError, "index: invalid search request")
	}

	if err := ctx.Err(); err != nil {
		return nil, errs.New(err, errs.Cancelled, "index: query cancelled")
	}

	return executor.Execute(req, idx.Open(), idx.Segments(), idx.opts.TimestampKey)
}

// Load reconstructs an Index from its manifest in the Blob Store,
// reconciling away any orphan segment bytes: only segments listed in the
// manifest are loaded, regardless of what else exists under the prefix.
func Load(ctx context.Context, name string, cfg Config) (*Index, error) {
	idx := New(name, cfg)

	data, err := idx.store.Get(ctx, idx.prefix()+manifestKey)
	if errs.CodeOf(err) == errs.NotFound {
		return idx, nil
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errs.New(err, errs.ParseError, "index: invalid index manifest")
	}
	idx.manifest = m

	maxSeq := uint64(0)
	for _, ref := range m.Segments {
		segPrefix := idx.segmentPrefix(ref.ID)

		metaBytes, err := idx.store.Get(ctx, segPrefix+"meta.json")
		if err != nil {
			return nil, errs.New(err, errs.StoragePermanent,
				fmt.Sprintf("index: segment %q listed in manifest but meta.json missing", ref.ID))
		}

		if hash.Checksum(metaBytes) != ref.ManifestChecksum {
			return nil, errs.New(errs.ErrChecksumMismatch, errs.StoragePermanent,
				fmt.Sprintf("index: segment %q meta.json checksum mismatch", ref.ID))
		}

		var segManifest segment.Manifest
		if err := json.Unmarshal(metaBytes, &segManifest); err != nil {
			return nil, errs.New(err, errs.ParseError, "index: invalid segment manifest")
		}

		blobs := segment.Blobs{}
		for name, dst := range map[string]*[]byte{
			"terms.bin":    &blobs.Terms,
			"postings.bin": &blobs.Postings,
			"forward.bin":  &blobs.Forward,
			"series.bin":   &blobs.Series,
		} {
			data, err := idx.store.Get(ctx, segPrefix+name)
			if err != nil {
				return nil, errs.New(err, errs.StoragePermanent,
					fmt.Sprintf("index: segment %q listed in manifest but %s missing", ref.ID, name))
			}
			*dst = data
		}

		sealed, err := segment.Load(segManifest, blobs)
		if err != nil {
			return nil, err
		}

		idx.sealed[ref.ID] = sealed

		if seq, ok := parseSegmentSeq(name, ref.ID); ok && seq > maxSeq {
			maxSeq = seq
		}
	}

	idx.segmentSeq.Store(maxSeq)
	idx.open = segment.New(idx.nextSegmentID())

	idx.logger.Infow("index loaded", "index", name, "segments", len(idx.sealed))

	return idx, nil
}

func parseSegmentSeq(indexName, segID string) (uint64, bool) {
	prefixLen := len(indexName) + 1
	if len(segID) <= prefixLen {
		return 0, false
	}

	var seq uint64
	if _, err := fmt.Sscanf(segID[prefixLen:], "%016x", &seq); err != nil {
		return 0, false
	}

	return seq, true
}
