package invindex

import (
	"strings"

	"github.com/eaglenest7/infino/document"
)

// TermMatch pairs a matched Term with its key, letting callers recover the
// posting list via Lookup/postingsForKey without re-deriving the key.
type TermMatch struct {
	Term document.Term
	key  string
}

func keyToTerm(key string) document.Term {
	i := strings.IndexByte(key, 0)
	if i < 0 {
		return document.Term{Value: key}
	}

	return document.Term{Field: key[:i], Value: key[i+1:]}
}

// Prefix returns every term whose value begins with valuePrefix within the
// given field, in dictionary order.
func (b *Builder) Prefix(field, valuePrefix string) []TermMatch {
	lo := field + "\x00" + valuePrefix

	var out []TermMatch
	for _, key := range b.sortedKeys() {
		if key < lo {
			continue
		}
		if !strings.HasPrefix(key, lo) {
			break
		}

		out = append(out, TermMatch{Term: keyToTerm(key), key: key})
	}

	return out
}

// Range returns every term in field whose value falls within [low, high]
// (or exclusive of the endpoints per the inclusive flags).
func (b *Builder) Range(field, low, high string, inclusiveLow, inclusiveHigh bool) []TermMatch {
	var out []TermMatch
	for _, key := range b.sortedKeys() {
		i := strings.IndexByte(key, 0)
		if i < 0 || key[:i] != field {
			continue
		}
		val := key[i+1:]

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

		out = append(out, TermMatch{Term: keyToTerm(key), key: key})
	}

	return out
}

// Wildcard returns every term in field whose value matches pattern, where
// '?' matches exactly one grapheme (approximated here as one rune) and '*'
// matches any run of runes, including empty. A pattern with no wildcard
// character is equivalent to an exact term match.
func (b *Builder) Wildcard(field, pattern string) []TermMatch {
	if !strings.ContainsAny(pattern, "*?") {
		if _, ok := b.Lookup(document.Term{Field: field, Value: pattern}); ok {
			return []TermMatch{{Term: document.Term{Field: field, Value: pattern}, key: field + "\x00" + pattern}}
		}

		return nil
	}

	var out []TermMatch
	for _, key := range b.sortedKeys() {
		i := strings.IndexByte(key, 0)
		if i < 0 || key[:i] != field {
			continue
		}
		val := key[i+1:]

		if wildcardMatch(pattern, val) {
			out = append(out, TermMatch{Term: keyToTerm(key), key: key})
		}
	}

	return out
}

// wildcardMatch reports whether value matches pattern under Lucene-style
// wildcard semantics ('?' = one rune, '*' = any run of runes). Implemented
// as the classic glob-matching dynamic program over rune slices so '*' does
// not need backtracking recursion.
func wildcardMatch(pattern, value string) bool {
	p := []rune(pattern)
	v := []rune(value)

	dp := make([][]bool, len(p)+1)
	for i := range dp {
		dp[i] = make([]bool, len(v)+1)
	}
	dp[0][0] = true

	for i := 1; i <= len(p); i++ {
		if p[i-1] == '*' {
			dp[i][0] = dp[i-1][0]
		}
	}

	for i := 1; i <= len(p); i++ {
		for j := 1; j <= len(v); j++ {
			switch p[i-1] {
			case '*':
				dp[i][j] = dp[i-1][j] || dp[i][j-1]
			case '?':
				dp[i][j] = dp[i-1][j-1]
			default:
				dp[i][j] = dp[i-1][j-1] && p[i-1] == v[j-1]
			}
		}
	}

	return dp[len(p)][len(v)]
}

// PostingsFor resolves the ascending doc-id list for a matched term.
func (b *Builder) PostingsFor(m TermMatch) []uint32 {
	return b.postingsForKey(m.key)
}
