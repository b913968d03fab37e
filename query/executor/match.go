package executor

import (
	"regexp"
	"strings"

	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/query/ast"
)

// matchesDoc evaluates node against a single already-materialized document,
// independent of any inverted index. It backs Filters bucket aggregations,
// which partition an already-resolved hit set by membership in several
// named sub-queries rather than by issuing a fresh index lookup per bucket.
func matchesDoc(doc document.Document, node ast.Node) bool {
	switch n := node.(type) {
	case *ast.Bool:
		return matchesBool(doc, n)
	case *ast.Term:
		return fieldString(doc, n.Field) == n.Value
	case *ast.Match:
		tokens := document.Tokenize(n.Value)
		val := fieldString(doc, n.Field)
		for _, tok := range document.Tokenize(val) {
			for _, want := range tokens {
				if tok == want {
					return true
				}
			}
		}

		return false
	case *ast.Range:
		raw, ok := doc.Fields[n.Field]
		if !ok {
			return false
		}
		val, ok := numericValue(raw)

		return ok && inRange(val, n)
	case *ast.Exists:
		if _, ok := doc.Fields[n.Field]; ok {
			return true
		}
		_, ok := doc.Labels[n.Field]

		return ok
	case *ast.Prefix:
		return strings.HasPrefix(fieldString(doc, n.Field), n.Value)
	case *ast.Wildcard:
		return wildcardMatchString(n.Value, fieldString(doc, n.Field))
	case *ast.Regexp:
		re, err := regexp.Compile("^(?:" + n.Value + ")$")

		return err == nil && re.MatchString(fieldString(doc, n.Field))
	case *ast.ConstantScore:
		return matchesDoc(doc, n.Filter)
	case *ast.QueryString:
		return matchesDoc(doc, n.Parsed)
	case *ast.MatchAll:
		return true
	case *ast.MatchNone:
		return false
	case *ast.Ignored:
		if n.Inner != nil {
			return matchesDoc(doc, n.Inner)
		}

		return true
	default:
		return false
	}
}

func matchesBool(doc document.Document, b *ast.Bool) bool {
	must := dropUnconstrained(b.Must)
	filter := dropUnconstrained(b.Filter)
	for _, n := range must {
		if !matchesDoc(doc, n) {
			return false
		}
	}
	for _, n := range filter {
		if !matchesDoc(doc, n) {
			return false
		}
	}
	for _, n := range dropUnconstrained(b.MustNot) {
		if matchesDoc(doc, n) {
			return false
		}
	}

	should := dropUnconstrained(b.Should)
	if len(should) > 0 && len(must) == 0 && len(filter) == 0 {
		ok := false
		for _, n := range should {
			if matchesDoc(doc, n) {
				ok = true

				break
			}
		}
		if !ok {
			return false
		}
	}

	return true
}

func fieldString(doc document.Document, field string) string {
	if v, ok := doc.Fields[field]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}

	return doc.Labels[field]
}

// wildcardMatchString mirrors invindex's glob semantics ('*' any run, '?'
// any single rune) for use against an already-materialized field value.
func wildcardMatchString(pattern, value string) bool {
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
