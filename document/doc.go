// Package document defines the entities ingested into a Segment - log
// Documents and metric Points - plus the tokenizer that turns a Document's
// text fields into indexable Terms.
package document
