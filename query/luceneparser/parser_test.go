package luceneparser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eaglenest7/infino/query/ast"
)

func TestParse_BareTermUsesDefaultField(t *testing.T) {
	node, err := Parse("error", "message")
	require.NoError(t, err)
	require.Equal(t, &ast.Term{Field: "message", Value: "error"}, node)
}

func TestParse_FieldPrefixedTerm(t *testing.T) {
	node, err := Parse("host:a", "message")
	require.NoError(t, err)
	require.Equal(t, &ast.Term{Field: "host", Value: "a"}, node)
}

func TestParse_Wildcard(t *testing.T) {
	node, err := Parse("host:a*", "message")
	require.NoError(t, err)
	require.Equal(t, &ast.Wildcard{Field: "host", Value: "a*"}, node)
}

func TestParse_AndOr(t *testing.T) {
	node, err := Parse("host:a AND level:error", "message")
	require.NoError(t, err)
	b, ok := node.(*ast.Bool)
	require.True(t, ok)
	require.Len(t, b.Must, 2)
}

func TestParse_ImplicitOr(t *testing.T) {
	node, err := Parse("foo bar", "message")
	require.NoError(t, err)
	b, ok := node.(*ast.Bool)
	require.True(t, ok)
	require.Len(t, b.Should, 2)
}

func TestParse_NotPrefix(t *testing.T) {
	node, err := Parse("-host:a", "message")
	require.NoError(t, err)
	b, ok := node.(*ast.Bool)
	require.True(t, ok)
	require.Len(t, b.MustNot, 1)
}

func TestParse_ParenGroup(t *testing.T) {
	node, err := Parse("(host:a OR host:b) AND level:error", "message")
	require.NoError(t, err)
	b, ok := node.(*ast.Bool)
	require.True(t, ok)
	require.Len(t, b.Must, 2)
	_, ok = b.Must[0].(*ast.Bool)
	require.True(t, ok)
}

func TestParse_InclusiveRange(t *testing.T) {
	node, err := Parse("date:[1 TO 2]", "message")
	require.NoError(t, err)
	r, ok := node.(*ast.Range)
	require.True(t, ok)
	require.Equal(t, "date", r.Field)
	require.True(t, r.Gte.Present)
	require.Equal(t, 1.0, r.Gte.Value)
	require.True(t, r.Lte.Present)
	require.Equal(t, 2.0, r.Lte.Value)
}

func TestParse_ExclusiveRange(t *testing.T) {
	node, err := Parse("date:{1 TO 2}", "message")
	require.NoError(t, err)
	r, ok := node.(*ast.Range)
	require.True(t, ok)
	require.True(t, r.Gt.Present)
	require.True(t, r.Lt.Present)
}

func TestParse_OpenEndedRange(t *testing.T) {
	node, err := Parse("date:[1 TO *]", "message")
	require.NoError(t, err)
	r, ok := node.(*ast.Range)
	require.True(t, ok)
	require.True(t, r.Gte.Present)
	require.False(t, r.Lte.Present)
}

func TestParse_PhraseWithProximity(t *testing.T) {
	node, err := Parse(`"connection reset"~2`, "message")
	require.NoError(t, err)
	require.Equal(t, &ast.Match{Field: "message", Value: "connection reset"}, node)
}

func TestParse_BoostDropped(t *testing.T) {
	node, err := Parse("host:a^2.0", "message")
	require.NoError(t, err)
	require.Equal(t, &ast.Term{Field: "host", Value: "a"}, node)
}

func TestParse_FuzzyDropped(t *testing.T) {
	node, err := Parse("host:roam~1", "message")
	require.NoError(t, err)
	require.Equal(t, &ast.Term{Field: "host", Value: "roam"}, node)
}

func TestParse_Regexp(t *testing.T) {
	node, err := Parse("host:/[a-z]+/", "message")
	require.NoError(t, err)
	require.Equal(t, &ast.Regexp{Field: "host", Value: "[a-z]+"}, node)
}
