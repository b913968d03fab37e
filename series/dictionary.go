package series

import (
	"iter"
	"sort"
	"sync"

	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/errs"
	"github.com/eaglenest7/infino/internal/collision"
	"github.com/eaglenest7/infino/internal/hash"
	"github.com/eaglenest7/infino/tscodec"
)

// Sample is a single decoded (timestamp, value) pair of a Series.
type Sample struct {
	Timestamp int64
	Value     float64
}

type entry struct {
	key    string
	metric string
	labels document.Labels
	hash   uint64
	ts     *tscodec.TimestampEncoder
	val    *tscodec.ValueEncoder
	lastTS int64
	minTS  int64
	maxTS  int64
	count  int
}

// Dictionary is the mutable, Open-segment series store: label-set-hash to
// Series, built incrementally as metric points are appended. A single
// Dictionary belongs to exactly one Segment.
type Dictionary struct {
	mu      sync.Mutex
	tracker *collision.Tracker
	byHash  map[uint64]*entry
	order   []*entry
}

// NewDictionary creates an empty series dictionary for a newly opened segment.
func NewDictionary() *Dictionary {
	return &Dictionary{
		tracker: collision.NewTracker(),
		byHash:  make(map[uint64]*entry),
	}
}

// Append records one (timestamp, value) sample for the series identified by
// key, creating the series on first use. ts must be strictly greater than
// the last timestamp appended to this series; duplicate or out-of-order
// timestamps are rejected with errs.ErrDuplicateTimestamp since the
// underlying delta-of-delta codec requires strict ascension.
func (d *Dictionary) Append(key document.SeriesKey, ts int64, value float64) error {
	canonical := CanonicalKey(key)
	if canonical == "" {
		return errs.New(errs.ErrInvalidSeriesKey, errs.SchemaError, "series: metric name must not be empty")
	}

	h := hash.ID(canonical)

	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.byHash[h]
	if !ok {
		if err := d.tracker.TrackKey(canonical, h); err != nil {
			return err
		}

		e = &entry{
			key:    canonical,
			metric: key.Metric,
			labels: key.Labels,
			hash:   h,
			ts:     tscodec.NewTimestampEncoder(),
			val:    tscodec.NewValueEncoder(),
			minTS:  ts,
		}
		d.byHash[h] = e
		d.order = append(d.order, e)
	} else if ts <= e.lastTS {
		return errs.Newf(errs.ErrDuplicateTimestamp, errs.Conflict,
			"series: duplicate or out-of-order timestamp %d for series %q", ts, canonical)
	}

	e.ts.Write(ts)
	e.val.Write(value)
	e.lastTS = ts
	e.count++
	if ts > e.maxTS {
		e.maxTS = ts
	}

	return nil
}

// SeriesCount returns the number of distinct series tracked so far.
func (d *Dictionary) SeriesCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.order)
}

// HasCollision reports whether two distinct series keys hashed to the same
// value since the dictionary was created.
func (d *Dictionary) HasCollision() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.tracker.HasCollision()
}

// All returns an iterator over the decoded samples of the series identified
// by key, along with whether the series exists.
func (d *Dictionary) All(key document.SeriesKey) (iter.Seq[Sample], bool) {
	d.mu.Lock()
	e, ok := d.byHash[hash.ID(CanonicalKey(key))]
	d.mu.Unlock()

	if !ok {
		return nil, false
	}

	dec := tscodec.NewTimestampDecoder()
	vdec := tscodec.NewValueDecoder()
	tsBytes := e.ts.Bytes()
	valBytes := e.val.Bytes()
	count := e.count

	return func(yield func(Sample) bool) {
		timestamps := dec.All(tsBytes, count)
		values := vdec.All(valBytes, count)

		next, stop := iter.Pull(values)
		defer stop()

		for ts := range timestamps {
			val, ok := next()
			if !ok {
				return
			}

			if !yield(Sample{Timestamp: ts, Value: val}) {
				return
			}
		}
	}, true
}

// Keys returns the identity of every series tracked so far, in no
// particular order. Query execution uses it to enumerate the series a
// metric query or aggregation should consider before fetching their samples.
func (d *Dictionary) Keys() []document.SeriesKey {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]document.SeriesKey, len(d.order))
	for i, e := range d.order {
		out[i] = document.SeriesKey{Metric: e.metric, Labels: e.labels}
	}

	return out
}

// sortedEntries returns the tracked series sorted by hash, the order Freeze
// serializes them in so Frozen lookups can binary search.
func (d *Dictionary) sortedEntries() []*entry {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]*entry, len(d.order))
	copy(out, d.order)
	sort.Slice(out, func(i, j int) bool { return out[i].hash < out[j].hash })

	return out
}
