package document

import (
	"bufio"
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/segment"
)

// Tokenize splits text into lowercased word tokens using Unicode word
// segmentation (UAX #29). Segments that aren't letters or digits
// (punctuation, whitespace, symbols) are dropped; no stemming is applied.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	scanner := bufio.NewScanner(bytes.NewReader([]byte(text)))
	scanner.Split(segment.SplitWords)

	var tokens []string
	for scanner.Scan() {
		raw := scanner.Bytes()
		r, _ := utf8.DecodeRune(raw)
		if !IsWordRune(r) {
			continue
		}

		tokens = append(tokens, strings.ToLower(string(raw)))
	}

	return tokens
}

// IsWordRune reports whether r would be retained by Tokenize's own
// classification. Exported so the Lucene sub-parser's bare-word scanner can
// stay consistent with how Documents are tokenized at ingest time.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// TermsForFields tokenizes every text field of a Document and synthesizes
// exact-match terms for its labels, per the inverted-index insertion
// contract: text fields contribute (field, token) for every token, labels
// contribute a single (label-name, label-value) term each.
func TermsForFields(doc Document) []Term {
	terms := make([]Term, 0, len(doc.Fields)*4+len(doc.Labels))

	for field, value := range doc.Fields {
		s, ok := value.(string)
		if !ok {
			continue
		}

		for _, tok := range Tokenize(s) {
			terms = append(terms, Term{Field: field, Value: tok})
		}
	}

	for name, value := range doc.Labels {
		terms = append(terms, Term{Field: name, Value: value})
	}

	return terms
}
