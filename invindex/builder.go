package invindex

import (
	"sort"
	"sync"

	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/errs"
)

// termKey is the dictionary ordering key for a Term: field name, a NUL
// separator (which sorts before every printable codepoint so a field's
// terms stay contiguous), then the term value. Comparing termKeys
// byte-for-byte is equivalent to lexicographic UTF-8 codepoint ordering.
func termKey(t document.Term) string {
	return t.Field + "\x00" + t.Value
}

func shardIndex(t document.Term) byte {
	if len(t.Field) == 0 {
		return 0
	}

	return t.Field[0]
}

type postingBuilder struct {
	ids  []uint32
	last uint32
	has  bool
}

func (p *postingBuilder) insert(docID uint32) error {
	if p.has && docID <= p.last {
		return errs.New(errs.ErrDocIDNotStrictlyIncreasing, errs.Internal,
			"invindex: doc-id not strictly increasing for term")
	}

	p.ids = append(p.ids, docID)
	p.last = docID
	p.has = true

	return nil
}

type shard struct {
	mu    sync.Mutex
	terms map[string]*postingBuilder
}

// Builder is the mutable, per-segment inverted index used while a Segment
// is Open. It is safe for concurrent Insert calls on distinct terms; terms
// partition across 256 shards by the first byte of the field name to keep
// unrelated inserts from contending on one lock.
type Builder struct {
	shards [256]*shard
}

// NewBuilder creates an empty inverted-index builder.
func NewBuilder() *Builder {
	b := &Builder{}
	for i := range b.shards {
		b.shards[i] = &shard{terms: make(map[string]*postingBuilder)}
	}

	return b
}

// Insert records that docID appears in term. docID must be strictly
// greater than any previously inserted doc-id for this exact term.
func (b *Builder) Insert(t document.Term, docID uint64) error {
	sh := b.shards[shardIndex(t)]
	key := termKey(t)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	pb, ok := sh.terms[key]
	if !ok {
		pb = &postingBuilder{}
		sh.terms[key] = pb
	}

	return pb.insert(uint32(docID)) //nolint:gosec // doc-ids fit uint32 per segment
}

// Lookup returns the ascending doc-id slice for term, or (nil, false) if
// the term was never inserted. The returned slice must not be mutated.
func (b *Builder) Lookup(t document.Term) ([]uint32, bool) {
	sh := b.shards[shardIndex(t)]
	key := termKey(t)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	pb, ok := sh.terms[key]
	if !ok {
		return nil, false
	}

	return pb.ids, true
}

// TermCount returns the number of distinct terms recorded so far.
func (b *Builder) TermCount() int {
	n := 0
	for _, sh := range b.shards {
		sh.mu.Lock()
		n += len(sh.terms)
		sh.mu.Unlock()
	}

	return n
}

// sortedKeys returns every term key currently recorded, sorted
// lexicographically. Used by Freeze to build the dictionary array and by
// the Open-segment prefix/range/wildcard query paths.
func (b *Builder) sortedKeys() []string {
	keys := make([]string, 0, b.TermCount())
	for _, sh := range b.shards {
		sh.mu.Lock()
		for k := range sh.terms {
			keys = append(keys, k)
		}
		sh.mu.Unlock()
	}

	sort.Strings(keys)

	return keys
}

func (b *Builder) postingsForKey(key string) []uint32 {
	sh := b.shards[key[0]]

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if pb, ok := sh.terms[key]; ok {
		return pb.ids
	}

	return nil
}
