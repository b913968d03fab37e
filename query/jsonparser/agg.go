package jsonparser

import (
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/eaglenest7/infino/query/ast"
)

var pipelineAggKinds = map[string]bool{
	"avg_bucket":      true,
	"sum_bucket":      true,
	"max_bucket":      true,
	"min_bucket":      true,
	"derivative":      true,
	"cumulative_sum":  true,
	"moving_fn":       true,
	"moving_avg":      true,
	"bucket_script":   true,
	"serial_diff":     true,
	"bucket_selector": true,
	"bucket_sort":     true,
}

func lowerAggs(v *fastjson.Value, defaultField string) (map[string]ast.Agg, error) {
	obj, err := v.Object()
	if err != nil {
		return nil, fmt.Errorf("jsonparser: \"aggs\" must be an object: %w", err)
	}

	out := make(map[string]ast.Agg, obj.Len())

	var outErr error
	obj.Visit(func(key []byte, val *fastjson.Value) {
		if outErr != nil {
			return
		}

		agg, err := lowerAgg(val, defaultField)
		if err != nil {
			outErr = err

			return
		}
		out[string(key)] = agg
	})
	if outErr != nil {
		return nil, outErr
	}

	return out, nil
}

func lowerAgg(v *fastjson.Value, defaultField string) (ast.Agg, error) {
	obj, err := v.Object()
	if err != nil {
		return nil, fmt.Errorf("jsonparser: aggregation must be an object: %w", err)
	}

	var (
		kind string
		body *fastjson.Value
	)
	obj.Visit(func(key []byte, val *fastjson.Value) {
		if kind != "" || key == nil {
			return
		}
		name := string(key)
		if name == "aggs" || name == "aggregations" {
			// Nested sub-aggregations are accepted but not executed.
			return
		}
		kind = name
		body = val
	})

	switch kind {
	case "avg":
		field, err := stringField(body, "field")
		if err != nil {
			return nil, err
		}

		return &ast.Avg{Field: field}, nil
	case "sum":
		field, err := stringField(body, "field")
		if err != nil {
			return nil, err
		}

		return &ast.Sum{Field: field}, nil
	case "max":
		field, err := stringField(body, "field")
		if err != nil {
			return nil, err
		}

		return &ast.Max{Field: field}, nil
	case "min":
		field, err := stringField(body, "field")
		if err != nil {
			return nil, err
		}

		return &ast.Min{Field: field}, nil
	case "histogram":
		field, err := stringField(body, "field")
		if err != nil {
			return nil, err
		}
		intervalVal := body.Get("interval")
		if intervalVal == nil {
			return nil, fmt.Errorf("jsonparser: histogram requires \"interval\"")
		}
		interval, err := intervalVal.Float64()
		if err != nil {
			return nil, fmt.Errorf("jsonparser: histogram.interval must be numeric: %w", err)
		}

		return &ast.Histogram{Field: field, Interval: interval}, nil
	case "date_histogram":
		field, err := stringField(body, "field")
		if err != nil {
			return nil, err
		}
		interval, err := stringField(body, "fixed_interval")
		if err != nil {
			interval, err = stringField(body, "interval")
			if err != nil {
				return nil, fmt.Errorf("jsonparser: date_histogram requires \"fixed_interval\" or \"interval\"")
			}
		}

		return &ast.DateHistogram{Field: field, Interval: interval}, nil
	case "filters":
		bucketsVal := body.Get("filters")
		if bucketsVal == nil {
			return nil, fmt.Errorf("jsonparser: filters agg requires \"filters\"")
		}
		bucketsObj, err := bucketsVal.Object()
		if err != nil {
			return nil, fmt.Errorf("jsonparser: filters.filters must be an object: %w", err)
		}

		buckets := make(map[string]ast.Node, bucketsObj.Len())
		var outErr error
		bucketsObj.Visit(func(key []byte, val *fastjson.Value) {
			if outErr != nil {
				return
			}
			node, err := lowerQuery(val, defaultField)
			if err != nil {
				outErr = err

				return
			}
			buckets[string(key)] = node
		})
		if outErr != nil {
			return nil, outErr
		}

		return &ast.Filters{Buckets: buckets}, nil
	case "terms":
		field, err := stringField(body, "field")
		if err != nil {
			return nil, err
		}
		size := body.GetInt("size")
		if size == 0 {
			size = 10
		}

		return &ast.SetOfTerms{Field: field, Size: size}, nil
	default:
		if pipelineAggKinds[kind] {
			return &ast.Pipeline{Kind: kind}, nil
		}

		return nil, fmt.Errorf("jsonparser: unknown aggregation kind %q", kind)
	}
}
