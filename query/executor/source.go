package executor

import (
	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/invindex"
	"github.com/eaglenest7/infino/postings"
	"github.com/eaglenest7/infino/segment"
)

// source is the read contract resolve.go needs from a segment, regardless
// of whether it is still Open or has been Sealed. The two concrete
// implementations below exist because Builder and Frozen disagree on
// whether a posting list comes back decoded ([]uint32) or as its encoded
// wire bytes; source normalizes that so resolve.go never needs to know
// which segment state it is querying against.
type source interface {
	ID() string
	DocCount() int
	Lookup(t document.Term) (docSet, bool)
	Prefix(field, valuePrefix string) []invindex.TermMatch
	Range(field, low, high string, inclusiveLow, inclusiveHigh bool) []invindex.TermMatch
	Wildcard(field, pattern string) []invindex.TermMatch
	PostingsFor(m invindex.TermMatch) docSet
	Doc(docID uint64) (document.Document, bool)
	// TimestampKey returns the configured document field interpreted as a
	// log document's timestamp, so resolveRange can honor a range query
	// against it even though it is never stored in Fields.
	TimestampKey() string
}

type openSource struct {
	seg          *segment.Segment
	timestampKey string
}

func (o openSource) ID() string           { return o.seg.ID() }
func (o openSource) DocCount() int        { return o.seg.DocCount() }
func (o openSource) TimestampKey() string { return o.timestampKey }

func (o openSource) Doc(id uint64) (document.Document, bool) { return o.seg.Doc(id) }

func (o openSource) Lookup(t document.Term) (docSet, bool) {
	ids, ok := o.seg.Inverted().Lookup(t)

	return docSet(ids), ok
}

func (o openSource) Prefix(field, valuePrefix string) []invindex.TermMatch {
	return o.seg.Inverted().Prefix(field, valuePrefix)
}

func (o openSource) Range(field, low, high string, inclusiveLow, inclusiveHigh bool) []invindex.TermMatch {
	return o.seg.Inverted().Range(field, low, high, inclusiveLow, inclusiveHigh)
}

func (o openSource) Wildcard(field, pattern string) []invindex.TermMatch {
	return o.seg.Inverted().Wildcard(field, pattern)
}

func (o openSource) PostingsFor(m invindex.TermMatch) docSet {
	return docSet(o.seg.Inverted().PostingsFor(m))
}

type sealedSource struct {
	seg          *segment.Sealed
	timestampKey string
}

func (s sealedSource) ID() string           { return s.seg.ID() }
func (s sealedSource) DocCount() int        { return s.seg.DocCount() }
func (s sealedSource) TimestampKey() string { return s.timestampKey }

func (s sealedSource) Doc(id uint64) (document.Document, bool) {
	doc, ok, err := s.seg.Doc(id)
	if err != nil {
		return document.Document{}, false
	}

	return doc, ok
}

func (s sealedSource) Lookup(t document.Term) (docSet, bool) {
	raw, ok := s.seg.Inverted().Lookup(t)
	if !ok {
		return nil, false
	}

	return decodePostings(raw), true
}

func (s sealedSource) Prefix(field, valuePrefix string) []invindex.TermMatch {
	return s.seg.Inverted().Prefix(field, valuePrefix)
}

func (s sealedSource) Range(field, low, high string, inclusiveLow, inclusiveHigh bool) []invindex.TermMatch {
	return s.seg.Inverted().Range(field, low, high, inclusiveLow, inclusiveHigh)
}

func (s sealedSource) Wildcard(field, pattern string) []invindex.TermMatch {
	return s.seg.Inverted().Wildcard(field, pattern)
}

func (s sealedSource) PostingsFor(m invindex.TermMatch) docSet {
	return decodePostings(s.seg.Inverted().PostingsFor(m))
}

func decodePostings(raw []byte) docSet {
	if len(raw) == 0 {
		return nil
	}

	dec := postings.NewDecoder()

	var out docSet
	for id := range dec.All(raw) {
		out = append(out, id)
	}

	return out
}
