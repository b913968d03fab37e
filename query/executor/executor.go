// Package executor resolves a parsed query request against an Index's
// segments and materializes the matching documents. It has no dependency
// on the index package: Execute takes plain Segment/Sealed values so the
// index package can be the only one that imports both.
package executor

import (
	"sort"

	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/query/jsonparser"
	"github.com/eaglenest7/infino/segment"
)

// Hit is one matched document, tagged with the segment it came from since
// doc-ids are only unique within a single segment.
type Hit struct {
	SegmentID string
	DocID     uint64
	Document  document.Document
}

// Result is a search request's full output: the page of hits requested via
// Size/From, the total number of matches before pagination, and whichever
// aggregations were requested, computed over every match.
type Result struct {
	Hits  []Hit
	Total int
	Aggs  map[string]AggResult
}

// Execute resolves req.Query against open (may be nil) and every sealed
// segment, unions the per-segment matches, sorts and paginates them per
// req.Sort/Size/From, and computes req.Aggs over the full (pre-pagination)
// match set plus any metric samples the query also matches. timestampKey is
// the configured document field interpreted as a log document's timestamp,
// needed to honor a range query against it even though it never appears in
// Fields.
func Execute(
	req *jsonparser.Request, open *segment.Segment, sealed []*segment.Sealed, timestampKey string,
) (*Result, error) {
	sources := make([]source, 0, len(sealed)+1)
	seriesSrcs := make([]seriesSource, 0, len(sealed)+1)
	segIDs := make([]string, 0, len(sealed)+1)

	if open != nil {
		sources = append(sources, openSource{seg: open, timestampKey: timestampKey})
		seriesSrcs = append(seriesSrcs, openSeriesSource{seg: open})
		segIDs = append(segIDs, open.ID())
	}
	for _, s := range sealed {
		sources = append(sources, sealedSource{seg: s, timestampKey: timestampKey})
		seriesSrcs = append(seriesSrcs, sealedSeriesSource{seg: s})
		segIDs = append(segIDs, s.ID())
	}

	var hits []Hit
	for _, src := range sources {
		ids, err := resolve(src, req.Query)
		if err != nil {
			return nil, err
		}

		for _, id := range ids {
			doc, ok := src.Doc(uint64(id))
			if !ok {
				continue
			}
			hits = append(hits, Hit{SegmentID: src.ID(), DocID: uint64(id), Document: doc})
		}
	}

	var metricHits []MetricHit
	for i, src := range seriesSrcs {
		metricHits = append(metricHits, resolveMetrics(segIDs[i], src, req.Query, timestampKey)...)
	}

	sortHits(hits, req.Sort)

	total := len(hits)
	page := paginate(hits, req.From, req.Size)

	return &Result{Hits: page, Total: total, Aggs: computeAggs(req.Aggs, hits, metricHits)}, nil
}

func paginate(hits []Hit, from, size int) []Hit {
	if from < 0 {
		from = 0
	}
	if from >= len(hits) {
		return nil
	}

	end := len(hits)
	if size >= 0 && from+size < end {
		end = from + size
	}

	return hits[from:end]
}

func sortHits(hits []Hit, sortFields []jsonparser.SortField) {
	if len(sortFields) == 0 {
		sort.SliceStable(hits, func(i, j int) bool {
			a, b := hits[i], hits[j]
			if a.Document.Timestamp != b.Document.Timestamp {
				return a.Document.Timestamp > b.Document.Timestamp
			}
			if a.SegmentID != b.SegmentID {
				return a.SegmentID > b.SegmentID
			}

			return a.DocID > b.DocID
		})

		return
	}

	sort.SliceStable(hits, func(i, j int) bool {
		for _, sf := range sortFields {
			cmp := compareField(hits[i].Document, hits[j].Document, sf.Field)
			if cmp == 0 {
				continue
			}
			if sf.Desc {
				return cmp > 0
			}

			return cmp < 0
		}

		return false
	})
}

// compareField orders two documents by a named sort field, returning
// negative, zero, or positive the way sort.Interface's Less expects. The
// "timestamp" field name compares Document.Timestamp directly since that
// value is stored out-of-band from Fields/Labels.
func compareField(a, b document.Document, field string) int {
	if field == "timestamp" {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		default:
			return 0
		}
	}

	av, aOK := a.Fields[field]
	bv, bOK := b.Fields[field]
	if aOK && bOK {
		if an, ok := numericValue(av); ok {
			if bn, ok := numericValue(bv); ok {
				switch {
				case an < bn:
					return -1
				case an > bn:
					return 1
				default:
					return 0
				}
			}
		}
	}

	as := fieldString(a, field)
	bs := fieldString(b, field)

	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}
