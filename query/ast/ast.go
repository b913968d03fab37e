// Package ast defines the tagged-sum query tree produced by jsonparser and
// luceneparser and consumed by executor. Every node kind the grammar
// accepts is represented, including the ones the executor intentionally
// does not act on (scoring and relevance-only constructs): those parse and
// type-check like any other node but contribute nothing to the result set.
package ast

// Node is any query tree node. The concrete type identifies the node kind;
// executor type-switches on it rather than calling a method, since the
// kinds are closed and new ones are added rarely.
type Node interface {
	isNode()
}

// Bool composes must/should/must_not/filter clauses. An empty clause list
// is valid and contributes nothing: an empty Must list does not force zero
// hits, and an empty Should list does not force a minimum_should_match
// failure — both behave as if the clause were never specified.
type Bool struct {
	Must    []Node
	Should  []Node
	MustNot []Node
	Filter  []Node
}

func (*Bool) isNode() {}

// Term matches documents where Field has exactly Value.
type Term struct {
	Field string
	Value string
}

func (*Term) isNode() {}

// Match tokenizes Value the same way ingest does and matches the OR of its
// constituent tokens against Field.
type Match struct {
	Field string
	Value string
}

func (*Match) isNode() {}

// RangeBound is one side of a Range query. Present reports whether the
// bound was specified at all, distinguishing an explicit 0 from "unset".
type RangeBound struct {
	Value   float64
	Present bool
}

// Range matches documents where Field's numeric value satisfies every
// specified bound. A Range query against a field absent from a document
// excludes that document, per the "range on missing field" edge case.
type Range struct {
	Field string
	Gt    RangeBound
	Gte   RangeBound
	Lt    RangeBound
	Lte   RangeBound
}

func (*Range) isNode() {}

// Exists matches documents that carry Field at all, regardless of value.
type Exists struct {
	Field string
}

func (*Exists) isNode() {}

// IDs matches documents whose doc-id (as a decimal string) is in Values.
type IDs struct {
	Values []string
}

func (*IDs) isNode() {}

// Prefix matches documents where Field starts with Value.
type Prefix struct {
	Field string
	Value string
}

func (*Prefix) isNode() {}

// Wildcard matches documents where Field matches the glob pattern Value
// ('*' any run, '?' any single rune). A Value with no wildcard character
// is equivalent to a Term match, per the "wildcard with no wildcard char"
// edge case.
type Wildcard struct {
	Field string
	Value string
}

func (*Wildcard) isNode() {}

// Regexp matches documents where Field matches the anchored regular
// expression Value: the executor implicitly anchors with ^...$, since
// Elasticsearch regexp queries match the whole field value, not a substring.
type Regexp struct {
	Field string
	Value string
}

func (*Regexp) isNode() {}

// ConstantScore executes Filter as a non-scoring filter. Since this system
// never scores, ConstantScore and its inner Filter are semantically
// identical to executing Filter directly.
type ConstantScore struct {
	Filter Node
}

func (*ConstantScore) isNode() {}

// QueryString is a Lucene sub-grammar expression string, already lowered
// by luceneparser into Parsed by the time the executor sees it. DefaultField
// is the field bare terms (no "field:" prefix) are matched against.
type QueryString struct {
	Query        string
	DefaultField string
	Parsed       Node
}

func (*QueryString) isNode() {}

// MatchAll matches every live document in scope.
type MatchAll struct{}

func (*MatchAll) isNode() {}

// MatchNone matches no documents. jsonparser produces it for an ids query
// whose values list is empty.
type MatchNone struct{}

func (*MatchNone) isNode() {}

// Ignored represents a node kind that is accepted and type-checked by the
// parser but never consulted by the executor: scoring, boosting,
// function_score, decay functions, span queries, more_like_this,
// percolate, pinned, rank_feature, suggesters, highlighters, script, and
// scripted_metric. Kind names which construct produced it, for
// diagnostics. When Inner is non-nil (function_score, pinned,
// constant_score-like wrappers with a scored inner query), the executor
// evaluates Inner and drops the decoration; when Inner is nil, the node
// contributes nothing to whatever clause list it appears in, as if it had
// never been specified.
type Ignored struct {
	Kind  string
	Inner Node
}

func (*Ignored) isNode() {}
