package segment

import (
	"sync"
	"sync/atomic"

	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/errs"
	"github.com/eaglenest7/infino/forward"
	"github.com/eaglenest7/infino/invindex"
	"github.com/eaglenest7/infino/series"
)

// Segment is the mutable, in-memory unit of storage for one time window of
// an Index: an inverted index over log fields and labels, a forward store
// of the original Documents, and a series dictionary for metric Points.
// Segment is safe for concurrent AppendLog/AppendMetric calls; append
// ordering against a single Segment is serialized by mu so doc-ids are
// assigned without gaps.
type Segment struct {
	id string

	mu    sync.Mutex
	state State

	inverted *invindex.Builder
	fwd      *forward.Store
	seriesD  *series.Dictionary

	nextDocID atomic.Uint64
	minTS     int64
	maxTS     int64
	hasRange  bool
}

// New creates an empty Open segment with the given id, unique within its Index.
func New(id string) *Segment {
	return &Segment{
		id:       id,
		state:    Open,
		inverted: invindex.NewBuilder(),
		fwd:      forward.NewStore(),
		seriesD:  series.NewDictionary(),
	}
}

// ID returns the segment's identifier.
func (s *Segment) ID() string { return s.id }

// State returns the segment's current lifecycle state.
func (s *Segment) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// TimeRange returns the segment's [min_ts, max_ts] span. ok is false for an
// empty segment that has never been appended to.
func (s *Segment) TimeRange() (minTS, maxTS int64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.minTS, s.maxTS, s.hasRange
}

// TimeOverlaps reports whether the segment's time range intersects
// [rangeMin, rangeMax].
func (s *Segment) TimeOverlaps(rangeMin, rangeMax int64) bool {
	minTS, maxTS, ok := s.TimeRange()
	if !ok {
		return false
	}

	return maxTS >= rangeMin && minTS <= rangeMax
}

func (s *Segment) updateRangeLocked(ts int64) {
	if !s.hasRange {
		s.minTS, s.maxTS = ts, ts
		s.hasRange = true

		return
	}

	if ts < s.minTS {
		s.minTS = ts
	}
	if ts > s.maxTS {
		s.maxTS = ts
	}
}

// AppendLog assigns the next doc-id, tokenizes text fields and inserts
// (field, token) terms plus exact-match (label, value) terms into the
// inverted index, stores the document in the forward store, and widens the
// segment's time range. Returns the assigned doc-id.
func (s *Segment) AppendLog(doc document.Document) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Open {
		return 0, errs.New(errs.ErrSegmentSealed, errs.Internal, "segment: cannot append to a sealed segment")
	}

	docID := s.nextDocID.Load()
	doc.DocID = docID

	for _, term := range document.TermsForFields(doc) {
		if err := s.inverted.Insert(term, docID); err != nil {
			return 0, err
		}
	}

	if err := s.fwd.Put(doc); err != nil {
		return 0, err
	}

	s.nextDocID.Add(1)
	s.updateRangeLocked(doc.Timestamp)

	return docID, nil
}

// AppendMetric resolves or creates the Series for point's (metric, labels)
// identity and appends its (timestamp, value) sample.
func (s *Segment) AppendMetric(point document.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Open {
		return errs.New(errs.ErrSegmentSealed, errs.Internal, "segment: cannot append to a sealed segment")
	}

	key := document.SeriesKey{Metric: point.Metric, Labels: point.Labels}
	if err := s.seriesD.Append(key, point.Timestamp, point.Value); err != nil {
		return err
	}

	s.updateRangeLocked(point.Timestamp)

	return nil
}

// DocCount returns the number of documents appended so far.
func (s *Segment) DocCount() int {
	return int(s.nextDocID.Load()) //nolint:gosec
}

// Inverted exposes the mutable inverted index for query execution against
// the still-Open segment. Callers must not mutate it directly.
func (s *Segment) Inverted() *invindex.Builder { return s.inverted }

// Series exposes the mutable series dictionary for metric query execution
// against the still-Open segment.
func (s *Segment) Series() *series.Dictionary { return s.seriesD }

// Doc returns the document with the given doc-id from the forward store.
func (s *Segment) Doc(docID uint64) (document.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fwd.Get(docID)
}

// Seal transitions the segment from Open to Sealed, freezing the inverted
// index, forward store, and series dictionary into their immutable forms.
// No further appends are accepted once Seal begins.
func (s *Segment) Seal() (*Sealed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Open {
		return nil, errs.New(errs.ErrSegmentSealed, errs.Internal, "segment: already sealed")
	}

	s.state = Sealing

	frozenInverted := invindex.Freeze(s.inverted)
	frozenSeries := series.Freeze(s.seriesD)

	s.state = Sealed

	return &Sealed{
		id:        s.id,
		minTS:     s.minTS,
		maxTS:     s.maxTS,
		docCount:  int(s.nextDocID.Load()), //nolint:gosec
		inverted:  frozenInverted,
		fwdStore:  s.fwd,
		seriesD:   frozenSeries,
		persisted: false,
	}, nil
}
