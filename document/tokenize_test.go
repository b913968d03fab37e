package document

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenize_LowercasesAndSplitsWords(t *testing.T) {
	tokens := Tokenize("Hello, World! 2024 errors.")
	require.Equal(t, []string{"hello", "world", "2024", "errors"}, tokens)
}

func TestTokenize_Empty(t *testing.T) {
	require.Nil(t, Tokenize(""))
}

func TestTokenize_NoStemming(t *testing.T) {
	tokens := Tokenize("running runs run")
	require.Equal(t, []string{"running", "runs", "run"}, tokens)
}

func TestTermsForFields(t *testing.T) {
	doc := Document{
		Fields: map[string]FieldValue{
			"msg":   "hello world",
			"count": 3.0,
		},
		Labels: Labels{"host": "a"},
	}

	terms := TermsForFields(doc)

	require.Contains(t, terms, Term{Field: "msg", Value: "hello"})
	require.Contains(t, terms, Term{Field: "msg", Value: "world"})
	require.Contains(t, terms, Term{Field: "host", Value: "a"})
	require.Len(t, terms, 3)
}
