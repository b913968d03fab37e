package executor

import (
	"iter"
	"regexp"
	"strings"

	"github.com/eaglenest7/infino/document"
	"github.com/eaglenest7/infino/query/ast"
	"github.com/eaglenest7/infino/segment"
	"github.com/eaglenest7/infino/series"
)

// valueFieldName is the field name a metric sample's numeric value is
// addressed under in queries and aggregations, matching index.WriteDoc's
// own "value" convention for routing a write to the metric path.
const valueFieldName = "value"

// metricFieldName addresses a sample's series identity, the metric name
// itself, the same way index.WriteDoc's "metric" field does at ingest time.
const metricFieldName = "metric"

// seriesSource is the read contract metric query execution needs from a
// segment, open or sealed: every tracked series' identity plus its decoded
// samples. It mirrors source's open/sealed split for the same reason -
// Dictionary and Frozen disagree on how a series is addressed (by key vs.
// by hash) - without resolve.go needing to know which one it has.
type seriesSource interface {
	Keys() []document.SeriesKey
	Samples(key document.SeriesKey) iter.Seq[series.Sample]
}

type openSeriesSource struct{ seg *segment.Segment }

func (o openSeriesSource) Keys() []document.SeriesKey { return o.seg.Series().Keys() }

func (o openSeriesSource) Samples(key document.SeriesKey) iter.Seq[series.Sample] {
	samples, ok := o.seg.Series().All(key)
	if !ok {
		return func(func(series.Sample) bool) {}
	}

	return samples
}

type sealedSeriesSource struct{ seg *segment.Sealed }

func (s sealedSeriesSource) Keys() []document.SeriesKey { return s.seg.Series().Keys() }

func (s sealedSeriesSource) Samples(key document.SeriesKey) iter.Seq[series.Sample] {
	samples, ok := s.seg.Series().All(series.Lookup(key))
	if !ok {
		return func(func(series.Sample) bool) {}
	}

	return samples
}

// MetricHit is one matched metric sample, tagged with the segment and
// series it belongs to since a sample carries no id of its own.
type MetricHit struct {
	SegmentID string
	Series    document.SeriesKey
	Sample    series.Sample
}

// resolveMetrics evaluates node against every series src tracks, returning
// one MetricHit per sample that matches. Series with no matching samples
// contribute nothing; a series with no identity-level bearing on node (no
// term/exists clause naming its metric or labels) still has each of its
// samples tested individually against node, since most queries here are
// range queries over the timestamp or value fields rather than identity
// filters.
func resolveMetrics(segmentID string, src seriesSource, node ast.Node, timestampKey string) []MetricHit {
	var out []MetricHit

	for _, key := range src.Keys() {
		for sample := range src.Samples(key) {
			if matchesSeries(key, sample, node, timestampKey) {
				out = append(out, MetricHit{SegmentID: segmentID, Series: key, Sample: sample})
			}
		}
	}

	return out
}

// matchesSeries evaluates node against one (series identity, sample) pair,
// independent of any forward store: series data is never indexed by terms,
// so every metric query is a direct scan the way resolveRange/resolveExists
// scan the forward store for log documents.
func matchesSeries(key document.SeriesKey, sample series.Sample, node ast.Node, timestampKey string) bool {
	switch n := node.(type) {
	case *ast.Bool:
		return matchesSeriesBool(key, sample, n, timestampKey)
	case *ast.Term:
		return seriesFieldString(key, sample, n.Field) == n.Value
	case *ast.Match:
		val := seriesFieldString(key, sample, n.Field)
		for _, want := range document.Tokenize(n.Value) {
			for _, tok := range document.Tokenize(val) {
				if tok == want {
					return true
				}
			}
		}

		return false
	case *ast.Range:
		val, ok := seriesNumericField(key, sample, n.Field, timestampKey)

		return ok && inRange(val, n)
	case *ast.Exists:
		_, ok := seriesField(key, sample, n.Field)

		return ok
	case *ast.Prefix:
		return strings.HasPrefix(seriesFieldString(key, sample, n.Field), n.Value)
	case *ast.Wildcard:
		return wildcardMatchString(n.Value, seriesFieldString(key, sample, n.Field))
	case *ast.Regexp:
		re, err := regexp.Compile("^(?:" + n.Value + ")$")

		return err == nil && re.MatchString(seriesFieldString(key, sample, n.Field))
	case *ast.ConstantScore:
		return matchesSeries(key, sample, n.Filter, timestampKey)
	case *ast.QueryString:
		return matchesSeries(key, sample, n.Parsed, timestampKey)
	case *ast.MatchAll:
		return true
	case *ast.MatchNone:
		return false
	case *ast.Ignored:
		if n.Inner != nil {
			return matchesSeries(key, sample, n.Inner, timestampKey)
		}

		return true
	default:
		return false
	}
}

func matchesSeriesBool(key document.SeriesKey, sample series.Sample, b *ast.Bool, timestampKey string) bool {
	must := dropUnconstrained(b.Must)
	filter := dropUnconstrained(b.Filter)
	for _, n := range must {
		if !matchesSeries(key, sample, n, timestampKey) {
			return false
		}
	}
	for _, n := range filter {
		if !matchesSeries(key, sample, n, timestampKey) {
			return false
		}
	}
	for _, n := range dropUnconstrained(b.MustNot) {
		if matchesSeries(key, sample, n, timestampKey) {
			return false
		}
	}

	should := dropUnconstrained(b.Should)
	if len(should) > 0 && len(must) == 0 && len(filter) == 0 {
		ok := false
		for _, n := range should {
			if matchesSeries(key, sample, n, timestampKey) {
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

// seriesField resolves field against a series' identity and its current
// sample, the metric-domain equivalent of a log document's Fields/Labels.
func seriesField(key document.SeriesKey, sample series.Sample, field string) (any, bool) {
	switch field {
	case metricFieldName:
		return key.Metric, true
	case valueFieldName:
		return sample.Value, true
	default:
		v, ok := key.Labels[field]

		return v, ok
	}
}

func seriesFieldString(key document.SeriesKey, sample series.Sample, field string) string {
	v, ok := seriesField(key, sample, field)
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}

	return ""
}

func seriesNumericField(key document.SeriesKey, sample series.Sample, field, timestampKey string) (float64, bool) {
	if field == timestampKey {
		return float64(sample.Timestamp), true
	}

	v, ok := seriesField(key, sample, field)
	if !ok {
		return 0, false
	}

	return numericValue(v)
}
