package executor

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/eaglenest7/infino/query/ast"
)

// Bucket is one row of a bucket aggregation's output.
type Bucket struct {
	Key   string
	Count int
}

// AggResult is one named aggregation's output. Exactly one of Value or
// Buckets is populated, depending on whether agg was a metric or bucket
// aggregation.
type AggResult struct {
	Value   float64
	Buckets []Bucket
}

// computeAggs evaluates every requested aggregation over hits, the already
// resolved and materialized (pre-pagination) hit set, plus metricHits for
// the metric-aware numeric reducers (avg/sum/max/min). Pipeline
// aggregations are silently skipped: they consume another aggregation's
// bucket output, which this executor does not compute.
func computeAggs(aggs map[string]ast.Agg, hits []Hit, metricHits []MetricHit) map[string]AggResult {
	if len(aggs) == 0 {
		return nil
	}

	out := make(map[string]AggResult, len(aggs))
	for name, agg := range aggs {
		switch a := agg.(type) {
		case *ast.Avg:
			out[name] = AggResult{Value: reduceNumeric(hits, metricHits, a.Field, avgReducer)}
		case *ast.Sum:
			out[name] = AggResult{Value: reduceNumeric(hits, metricHits, a.Field, sumReducer)}
		case *ast.Max:
			out[name] = AggResult{Value: reduceNumeric(hits, metricHits, a.Field, maxReducer)}
		case *ast.Min:
			out[name] = AggResult{Value: reduceNumeric(hits, metricHits, a.Field, minReducer)}
		case *ast.Histogram:
			out[name] = AggResult{Buckets: histogramBuckets(hits, a)}
		case *ast.DateHistogram:
			out[name] = AggResult{Buckets: dateHistogramBuckets(hits, a)}
		case *ast.Filters:
			out[name] = AggResult{Buckets: filtersBuckets(hits, a)}
		case *ast.SetOfTerms:
			out[name] = AggResult{Buckets: termsBuckets(hits, a)}
		case *ast.Pipeline:
			// Accepted but not computed.
		}
	}

	return out
}

type reducer func(values []float64) float64

func avgReducer(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	return sumReducer(values) / float64(len(values))
}

func sumReducer(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}

	return total
}

func maxReducer(values []float64) float64 {
	m := math.Inf(-1)
	for _, v := range values {
		if v > m {
			m = v
		}
	}

	return m
}

func minReducer(values []float64) float64 {
	m := math.Inf(1)
	for _, v := range values {
		if v < m {
			m = v
		}
	}

	return m
}

// reduceNumeric feeds reduce every value field resolves to across hits'
// forward-store documents and metricHits' samples. A metric sample's value
// only answers field "value", the same sentinel index.WriteDoc routes a
// metric write under.
func reduceNumeric(hits []Hit, metricHits []MetricHit, field string, reduce reducer) float64 {
	var values []float64
	for _, h := range hits {
		raw, ok := h.Document.Fields[field]
		if !ok {
			continue
		}
		v, ok := numericValue(raw)
		if !ok {
			continue
		}
		values = append(values, v)
	}

	if field == valueFieldName {
		for _, mh := range metricHits {
			values = append(values, mh.Sample.Value)
		}
	}

	return reduce(values)
}

func histogramBuckets(hits []Hit, a *ast.Histogram) []Bucket {
	if a.Interval <= 0 {
		return nil
	}

	counts := make(map[float64]int)
	for _, h := range hits {
		raw, ok := h.Document.Fields[a.Field]
		if !ok {
			continue
		}
		v, ok := numericValue(raw)
		if !ok {
			continue
		}

		key := math.Floor(v/a.Interval) * a.Interval
		counts[key]++
	}

	keys := make([]float64, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	out := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, Bucket{Key: fmt.Sprintf("%g", k), Count: counts[k]})
	}

	return out
}

func dateHistogramBuckets(hits []Hit, a *ast.DateHistogram) []Bucket {
	interval, err := parseDateInterval(a.Interval)
	if err != nil || interval <= 0 {
		return nil
	}

	counts := make(map[int64]int)
	for _, h := range hits {
		bucketStart := (h.Document.Timestamp / interval) * interval
		counts[bucketStart]++
	}

	keys := make([]int64, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, Bucket{
			Key:   time.UnixMilli(k).UTC().Format(time.RFC3339),
			Count: counts[k],
		})
	}

	return out
}

// parseDateInterval accepts Go duration strings plus the "Nd" calendar-day
// shorthand Elasticsearch's fixed_interval uses, in milliseconds.
func parseDateInterval(s string) (int64, error) {
	if strings.HasSuffix(s, "d") {
		days := strings.TrimSuffix(s, "d")
		d, err := time.ParseDuration(days + "h")
		if err != nil {
			return 0, err
		}

		return d.Milliseconds() * 24, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}

	return d.Milliseconds(), nil
}

func filtersBuckets(hits []Hit, a *ast.Filters) []Bucket {
	names := make([]string, 0, len(a.Buckets))
	for name := range a.Buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Bucket, 0, len(names))
	for _, name := range names {
		node := a.Buckets[name]

		count := 0
		for _, h := range hits {
			if matchesDoc(h.Document, node) {
				count++
			}
		}
		out = append(out, Bucket{Key: name, Count: count})
	}

	return out
}

func termsBuckets(hits []Hit, a *ast.SetOfTerms) []Bucket {
	counts := make(map[string]int)
	for _, h := range hits {
		val := fieldString(h.Document, a.Field)
		if val == "" {
			continue
		}
		counts[val]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}

		return keys[i] < keys[j]
	})

	size := a.Size
	if size <= 0 {
		size = 10
	}
	if len(keys) > size {
		keys = keys[:size]
	}

	out := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, Bucket{Key: k, Count: counts[k]})
	}

	return out
}
