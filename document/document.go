package document

// Labels is a flat string-to-string map, shared by log Documents (the
// labels_key field) and metric Points (a series' identity).
type Labels map[string]string

// FieldValue is a log field's value: a string, a float64, or a bool. The
// concrete type stored decides which term kind is synthesized for it during
// tokenization.
type FieldValue any

// Document is a single ingested log record. DocID is assigned by the
// Segment at append time and is never mutated afterward.
type Document struct {
	DocID     uint64
	Timestamp int64 // milliseconds since epoch
	Labels    Labels
	Fields    map[string]FieldValue
}

// Point is a single metric sample belonging to a Series. Uniqueness within
// a Series is by Timestamp; a Segment rejects a duplicate timestamp for the
// same (Metric, Labels) pair.
type Point struct {
	Metric    string
	Labels    Labels
	Timestamp int64
	Value     float64
}

// Term is a (field, token) pair extracted from a Document's text fields, or
// synthesized as an exact-match (label-name, label-value) pair from its
// Labels. Terms are the atoms the inverted index is keyed by.
type Term struct {
	Field string
	Value string
}

// SeriesKey identifies a Series by the metric name and label set that
// uniquely define it. Two Points with equal SeriesKey belong to the same
// Series.
type SeriesKey struct {
	Metric string
	Labels Labels
}
