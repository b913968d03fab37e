package invindex

import (
	"encoding/binary"
	"sort"
	"strings"

	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/errs"
	"github.com/eaglenest7/infino/postings"
)

// entry is one row of a Frozen dictionary: the full term key (reconstructed
// from prefix compression at load time) and where its posting list lives in
// the postings blob.
type entry struct {
	key    string
	offset int
	length int
}

// Frozen is the immutable, post-seal form of the inverted index: a
// lexicographically sorted term dictionary with prefix-compressed keys,
// and postings stored contiguously with per-term offsets, matching the
// serialized layout described for terms.bin/postings.bin.
type Frozen struct {
	entries  []entry
	postings []byte
}

// Freeze drains b into an immutable, sorted, prefix-compressed dictionary.
// b must not be mutated afterward.
func Freeze(b *Builder) *Frozen {
	keys := b.sortedKeys()

	f := &Frozen{entries: make([]entry, 0, len(keys))}
	for _, key := range keys {
		ids := b.postingsForKey(key)
		encoded := postings.Encode(ids)

		f.entries = append(f.entries, entry{
			key:    key,
			offset: len(f.postings),
			length: len(encoded),
		})
		f.postings = append(f.postings, encoded...)
	}

	return f
}

// Serialize produces the on-disk terms.bin and postings.bin byte streams.
// terms.bin is the prefix-compressed dictionary; postings.bin is the
// concatenated postings blob.
func (f *Frozen) Serialize() (termsBin, postingsBin []byte) {
	var out []byte
	prev := ""
	for _, e := range f.entries {
		shared := commonPrefixLen(prev, e.key)
		suffix := e.key[shared:]

		out = binary.AppendUvarint(out, uint64(shared))
		out = binary.AppendUvarint(out, uint64(len(suffix)))
		out = append(out, suffix...)
		out = binary.AppendUvarint(out, uint64(e.offset))
		out = binary.AppendUvarint(out, uint64(e.length))

		prev = e.key
	}

	return out, f.postings
}

// LoadFrozen reconstructs a Frozen index from its serialized terms.bin and
// postings.bin blobs.
func LoadFrozen(termsBin, postingsBin []byte) (*Frozen, error) {
	f := &Frozen{postings: postingsBin}

	prev := ""
	offset := 0
	for offset < len(termsBin) {
		shared, n := binary.Uvarint(termsBin[offset:])
		if n <= 0 {
			return nil, errs.New(errs.ErrInvalidHeaderSize, errs.ParseError, "invindex: truncated term dictionary")
		}
		offset += n

		suffixLen, n := binary.Uvarint(termsBin[offset:])
		if n <= 0 {
			return nil, errs.New(errs.ErrInvalidHeaderSize, errs.ParseError, "invindex: truncated term dictionary")
		}
		offset += n

		if offset+int(suffixLen) > len(termsBin) {
			return nil, errs.New(errs.ErrInvalidHeaderSize, errs.ParseError, "invindex: truncated term suffix")
		}
		suffix := string(termsBin[offset : offset+int(suffixLen)])
		offset += int(suffixLen)

		key := prev[:shared] + suffix
		prev = key

		postOffset, n := binary.Uvarint(termsBin[offset:])
		if n <= 0 {
			return nil, errs.New(errs.ErrInvalidHeaderSize, errs.ParseError, "invindex: truncated posting offset")
		}
		offset += n

		postLen, n := binary.Uvarint(termsBin[offset:])
		if n <= 0 {
			return nil, errs.New(errs.ErrInvalidHeaderSize, errs.ParseError, "invindex: truncated posting length")
		}
		offset += n

		f.entries = append(f.entries, entry{key: key, offset: int(postOffset), length: int(postLen)})
	}

	return f, nil
}

func commonPrefixLen(a, b string) int {
	n := min(len(b), len(a))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}

	return i
}

// Lookup returns the posting-list bytes for term, or (nil, false) if absent.
func (f *Frozen) Lookup(t document.Term) ([]byte, bool) {
	key := termKey(t)
	i := sort.Search(len(f.entries), func(i int) bool { return f.entries[i].key >= key })
	if i >= len(f.entries) || f.entries[i].key != key {
		return nil, false
	}

	e := f.entries[i]

	return f.postings[e.offset : e.offset+e.length], true
}

// Prefix returns the terms in field whose value starts with valuePrefix.
func (f *Frozen) Prefix(field, valuePrefix string) []TermMatch {
	lo := field + "\x00" + valuePrefix
	start := sort.Search(len(f.entries), func(i int) bool { return f.entries[i].key >= lo })

	var out []TermMatch
	for i := start; i < len(f.entries); i++ {
		key := f.entries[i].key
		if !strings.HasPrefix(key, lo) {
			break
		}

		out = append(out, TermMatch{Term: keyToTerm(key), key: key})
	}

	return out
}

// Range returns the terms in field whose value falls within [low, high].
func (f *Frozen) Range(field, low, high string, inclusiveLow, inclusiveHigh bool) []TermMatch {
	var out []TermMatch
	for _, e := range f.entries {
		i := strings.IndexByte(e.key, 0)
		if i < 0 || e.key[:i] != field {
			continue
		}
		val := e.key[i+1:]

		if low != "" {
			if inclusiveLow && val < low {
				continue
			}
			if !inclusiveLow && val <= low {
				continue
			}
		}
		if high != "" {
			if inclusiveHigh && val > high {
				continue
			}
			if !inclusiveHigh && val >= high {
				continue
			}
		}

		out = append(out, TermMatch{Term: keyToTerm(e.key), key: e.key})
	}

	return out
}

// Wildcard returns the terms in field whose value matches pattern.
func (f *Frozen) Wildcard(field, pattern string) []TermMatch {
	if !strings.ContainsAny(pattern, "*?") {
		if _, ok := f.Lookup(document.Term{Field: field, Value: pattern}); ok {
			key := field + "\x00" + pattern
			return []TermMatch{{Term: document.Term{Field: field, Value: pattern}, key: key}}
		}

		return nil
	}

	var out []TermMatch
	for _, e := range f.entries {
		i := strings.IndexByte(e.key, 0)
		if i < 0 || e.key[:i] != field {
			continue
		}
		val := e.key[i+1:]

		if wildcardMatch(pattern, val) {
			out = append(out, TermMatch{Term: keyToTerm(e.key), key: e.key})
		}
	}

	return out
}

// PostingsFor resolves the posting-list bytes for a matched term.
func (f *Frozen) PostingsFor(m TermMatch) []byte {
	i := sort.Search(len(f.entries), func(i int) bool { return f.entries[i].key >= m.key })
	if i >= len(f.entries) || f.entries[i].key != m.key {
		return nil
	}

	e := f.entries[i]

	return f.postings[e.offset : e.offset+e.length]
}

// TermCount reports the number of distinct terms in the dictionary.
func (f *Frozen) TermCount() int { return len(f.entries) }
