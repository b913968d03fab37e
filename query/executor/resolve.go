package executor

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/invindex"
	"github.com/eaglenest7/infino/query/ast"
)

// resolve evaluates node against one segment, returning the sorted set of
// matching local doc-ids. It never crosses segment boundaries; the caller
// (executor.go) unions per-segment hits after tagging each with its source.
func resolve(src source, node ast.Node) (docSet, error) {
	switch n := node.(type) {
	case *ast.Bool:
		return resolveBool(src, n)
	case *ast.Term:
		ids, _ := src.Lookup(document.Term{Field: n.Field, Value: n.Value})

		return ids, nil
	case *ast.Match:
		return resolveMatch(src, n), nil
	case *ast.Range:
		return resolveRange(src, n), nil
	case *ast.Exists:
		return resolveExists(src, n), nil
	case *ast.IDs:
		return resolveIDs(n), nil
	case *ast.Prefix:
		return resolveTermMatches(src, src.Prefix(n.Field, n.Value)), nil
	case *ast.Wildcard:
		return resolveTermMatches(src, src.Wildcard(n.Field, n.Value)), nil
	case *ast.Regexp:
		return resolveRegexp(src, n)
	case *ast.ConstantScore:
		return resolve(src, n.Filter)
	case *ast.QueryString:
		return resolve(src, n.Parsed)
	case *ast.MatchAll:
		return allDocs(src.DocCount()), nil
	case *ast.MatchNone:
		return nil, nil
	case *ast.Ignored:
		if n.Inner != nil {
			return resolve(src, n.Inner)
		}

		return allDocs(src.DocCount()), nil
	default:
		return nil, fmt.Errorf("executor: unsupported query node %T", node)
	}
}

// dropUnconstrained removes Ignored nodes with no Inner query from a clause
// list, so they neither force a match nor an exclusion: they behave as if
// they had never been part of the list, per ast.Ignored's contract.
func dropUnconstrained(nodes []ast.Node) []ast.Node {
	out := make([]ast.Node, 0, len(nodes))
	for _, n := range nodes {
		if ig, ok := n.(*ast.Ignored); ok && ig.Inner == nil {
			continue
		}
		out = append(out, n)
	}

	return out
}

func resolveList(src source, nodes []ast.Node) ([]docSet, error) {
	nodes = dropUnconstrained(nodes)

	out := make([]docSet, 0, len(nodes))
	for _, n := range nodes {
		ids, err := resolve(src, n)
		if err != nil {
			return nil, err
		}
		out = append(out, ids)
	}

	return out, nil
}

// resolveBool mirrors Elasticsearch's bool query: must/filter intersect,
// must_not excludes, and should only becomes a required constraint
// (minimum_should_match=1) when must and filter are both absent — otherwise
// it is an optional clause that, absent scoring, changes nothing.
func resolveBool(src source, b *ast.Bool) (docSet, error) {
	mustSets, err := resolveList(src, b.Must)
	if err != nil {
		return nil, err
	}

	filterSets, err := resolveList(src, b.Filter)
	if err != nil {
		return nil, err
	}

	mustNotSets, err := resolveList(src, b.MustNot)
	if err != nil {
		return nil, err
	}

	shouldSets, err := resolveList(src, b.Should)
	if err != nil {
		return nil, err
	}

	result := allDocs(src.DocCount())
	if len(mustSets) > 0 {
		result = intersectAll(mustSets)
	}
	if len(filterSets) > 0 {
		result = intersect(result, intersectAll(filterSets))
	}

	if len(shouldSets) > 0 && len(mustSets) == 0 && len(filterSets) == 0 {
		result = intersect(result, union(shouldSets...))
	}

	if len(mustNotSets) > 0 {
		result = subtract(result, union(mustNotSets...))
	}

	return result, nil
}

func resolveMatch(src source, m *ast.Match) docSet {
	tokens := document.Tokenize(m.Value)
	if len(tokens) == 0 {
		return nil
	}

	sets := make([]docSet, 0, len(tokens))
	for _, tok := range tokens {
		if ids, ok := src.Lookup(document.Term{Field: m.Field, Value: tok}); ok {
			sets = append(sets, ids)
		}
	}

	return union(sets...)
}

func resolveTermMatches(src source, matches []invindex.TermMatch) docSet {
	sets := make([]docSet, 0, len(matches))
	for _, m := range matches {
		sets = append(sets, src.PostingsFor(m))
	}

	return union(sets...)
}

func resolveIDs(n *ast.IDs) docSet {
	var out docSet
	for _, v := range n.Values {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			continue
		}
		out = append(out, uint32(id))
	}

	return newDocSet(out)
}

// resolveRange and resolveExists fall back to a full forward-store scan:
// numeric and presence queries are never indexed by TermsForFields, which
// only synthesizes terms for string fields and labels.
func resolveRange(src source, r *ast.Range) docSet {
	var out docSet

	for id := 0; id < src.DocCount(); id++ {
		doc, ok := src.Doc(uint64(id)) //nolint:gosec
		if !ok {
			continue
		}

		val, ok := rangeFieldValue(doc, r.Field, src.TimestampKey())
		if !ok {
			continue
		}

		if inRange(val, r) {
			out = append(out, uint32(id)) //nolint:gosec
		}
	}

	return out
}

// rangeFieldValue resolves field to a numeric value on doc, special-casing
// the configured timestamp field since it lives in Document.Timestamp
// rather than Fields.
func rangeFieldValue(doc document.Document, field, timestampKey string) (float64, bool) {
	if timestampKey != "" && field == timestampKey {
		return float64(doc.Timestamp), true
	}

	raw, ok := doc.Fields[field]
	if !ok {
		return 0, false
	}

	return numericValue(raw)
}

func inRange(val float64, r *ast.Range) bool {
	if r.Gt.Present && !(val > r.Gt.Value) {
		return false
	}
	if r.Gte.Present && !(val >= r.Gte.Value) {
		return false
	}
	if r.Lt.Present && !(val < r.Lt.Value) {
		return false
	}
	if r.Lte.Present && !(val <= r.Lte.Value) {
		return false
	}

	return true
}

func numericValue(v document.FieldValue) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func resolveExists(src source, e *ast.Exists) docSet {
	var out docSet

	for id := 0; id < src.DocCount(); id++ {
		doc, ok := src.Doc(uint64(id)) //nolint:gosec
		if !ok {
			continue
		}

		if _, ok := doc.Fields[e.Field]; ok {
			out = append(out, uint32(id)) //nolint:gosec

			continue
		}
		if _, ok := doc.Labels[e.Field]; ok {
			out = append(out, uint32(id)) //nolint:gosec
		}
	}

	return out
}

// resolveRegexp enumerates every term under the field (via an empty-prefix
// scan) and anchors the pattern with ^...$, matching Elasticsearch's
// whole-value regexp semantics rather than Go's default substring search.
func resolveRegexp(src source, n *ast.Regexp) (docSet, error) {
	re, err := regexp.Compile("^(?:" + n.Value + ")$")
	if err != nil {
		return nil, fmt.Errorf("executor: invalid regexp %q: %w", n.Value, err)
	}

	matches := src.Prefix(n.Field, "")

	var sets []docSet
	for _, m := range matches {
		if re.MatchString(m.Term.Value) {
			sets = append(sets, src.PostingsFor(m))
		}
	}

	return union(sets...), nil
}
