package forward

import (
	"encoding/json"

	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/errs"
)

// Store is the mutable, per-segment forward store used while a Segment is
// Open. Doc-ids are assigned densely from zero by the caller (the Segment),
// so Put is append-only and Get is a direct slice index.
type Store struct {
	docs []document.Document
}

// NewStore creates an empty forward store.
func NewStore() *Store {
	return &Store{}
}

// Put appends doc, which must carry the next dense doc-id (len(docs)).
func (s *Store) Put(doc document.Document) error {
	if doc.DocID != uint64(len(s.docs)) {
		return errs.Newf(errs.ErrDocIDNotStrictlyIncreasing, errs.Internal,
			"forward: expected doc-id %d, got %d", len(s.docs), doc.DocID)
	}

	s.docs = append(s.docs, doc)

	return nil
}

// Get returns the document with the given doc-id.
func (s *Store) Get(docID uint64) (document.Document, bool) {
	if docID >= uint64(len(s.docs)) {
		return document.Document{}, false
	}

	return s.docs[docID], true
}

// Len returns the number of documents stored.
func (s *Store) Len() int { return len(s.docs) }

// All returns every document in doc-id order. The returned slice must not
// be mutated.
func (s *Store) All() []document.Document { return s.docs }

// marshalDoc and unmarshalDoc centralize the document wire encoding used
// both for the forward store's compressed blocks and nowhere else, so a
// future change to the on-disk document shape has one call site.
func marshalDoc(doc document.Document) ([]byte, error) {
	return json.Marshal(doc)
}

func unmarshalDoc(data []byte) (document.Document, error) {
	var doc document.Document
	err := json.Unmarshal(data, &doc)

	return doc, err
}
