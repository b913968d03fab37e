package jsonparser

import (
	"fmt"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/eaglenest7/infino/query/ast"
	"github.com/eaglenest7/infino/query/luceneparser"
)

// lowerQuery dispatches on a query object's single node-kind key.
func lowerQuery(v *fastjson.Value, defaultField string) (ast.Node, error) {
	if v.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("jsonparser: query node must be a JSON object")
	}

	obj, err := v.Object()
	if err != nil {
		return nil, err
	}
	if obj.Len() == 0 {
		return nil, fmt.Errorf("jsonparser: empty query node")
	}

	var (
		kind string
		body *fastjson.Value
	)
	obj.Visit(func(key []byte, val *fastjson.Value) {
		if kind == "" {
			kind = string(key)
			body = val
		}
	})

	return lowerQueryKind(kind, body, defaultField)
}

func lowerQueryKind(kind string, body *fastjson.Value, defaultField string) (ast.Node, error) {
	switch kind {
	case "bool":
		return lowerBool(body, defaultField)
	case "term":
		return lowerFieldValue(body, func(field, value string) ast.Node {
			return &ast.Term{Field: field, Value: value}
		})
	case "match":
		return lowerFieldValue(body, func(field, value string) ast.Node {
			return &ast.Match{Field: field, Value: value}
		})
	case "match_all":
		return &ast.MatchAll{}, nil
	case "range":
		return lowerRange(body)
	case "exists":
		field, err := stringField(body, "field")
		if err != nil {
			return nil, err
		}

		return &ast.Exists{Field: field}, nil
	case "ids":
		return lowerIDs(body)
	case "prefix":
		return lowerFieldValue(body, func(field, value string) ast.Node {
			return &ast.Prefix{Field: field, Value: value}
		})
	case "wildcard":
		return lowerFieldValue(body, func(field, value string) ast.Node {
			return &ast.Wildcard{Field: field, Value: value}
		})
	case "regexp":
		return lowerFieldValue(body, func(field, value string) ast.Node {
			return &ast.Regexp{Field: field, Value: value}
		})
	case "constant_score":
		filterVal := body.Get("filter")
		if filterVal == nil {
			return nil, fmt.Errorf("jsonparser: constant_score requires \"filter\"")
		}
		inner, err := lowerQuery(filterVal, defaultField)
		if err != nil {
			return nil, err
		}

		return &ast.ConstantScore{Filter: inner}, nil
	case "query_string":
		return lowerQueryString(body, defaultField)
	case "function_score":
		return lowerIgnoredWrapper(body, "function_score", "query", defaultField)
	case "pinned":
		return lowerIgnoredWrapper(body, "pinned", "organic", defaultField)
	case "boosting":
		return lowerIgnoredWrapper(body, "boosting", "positive", defaultField)
	case "more_like_this", "percolate", "rank_feature", "script", "scripted_metric":
		return &ast.Ignored{Kind: kind}, nil
	default:
		if strings.HasPrefix(kind, "span_") {
			return &ast.Ignored{Kind: kind}, nil
		}

		return nil, fmt.Errorf("jsonparser: unknown query kind %q", kind)
	}
}

// lowerIgnoredWrapper parses a scoring/boosting wrapper query whose inner
// clause, if present, is executed with the decoration dropped.
func lowerIgnoredWrapper(body *fastjson.Value, kind, innerKey, defaultField string) (ast.Node, error) {
	innerVal := body.Get(innerKey)
	if innerVal == nil {
		return &ast.Ignored{Kind: kind}, nil
	}

	inner, err := lowerQuery(innerVal, defaultField)
	if err != nil {
		return nil, err
	}

	return &ast.Ignored{Kind: kind, Inner: inner}, nil
}

func lowerBool(body *fastjson.Value, defaultField string) (ast.Node, error) {
	b := &ast.Bool{}

	clauses := []struct {
		key string
		out *[]ast.Node
	}{
		{"must", &b.Must},
		{"should", &b.Should},
		{"must_not", &b.MustNot},
		{"filter", &b.Filter},
	}

	for _, c := range clauses {
		val := body.Get(c.key)
		if val == nil {
			continue
		}

		nodes, err := lowerQueryList(val, defaultField)
		if err != nil {
			return nil, err
		}
		*c.out = nodes
	}

	return b, nil
}

// lowerQueryList accepts either a single query object or an array of them,
// matching Elasticsearch's bool-clause shorthand.
func lowerQueryList(v *fastjson.Value, defaultField string) ([]ast.Node, error) {
	if v.Type() == fastjson.TypeArray {
		arr, err := v.Array()
		if err != nil {
			return nil, err
		}

		out := make([]ast.Node, 0, len(arr))
		for _, item := range arr {
			node, err := lowerQuery(item, defaultField)
			if err != nil {
				return nil, err
			}
			out = append(out, node)
		}

		return out, nil
	}

	node, err := lowerQuery(v, defaultField)
	if err != nil {
		return nil, err
	}

	return []ast.Node{node}, nil
}

// lowerFieldValue handles the common "{field: value}" or
// "{field: {value: v}}" shapes shared by term/match/prefix/wildcard/regexp.
func lowerFieldValue(body *fastjson.Value, build func(field, value string) ast.Node) (ast.Node, error) {
	obj, err := body.Object()
	if err != nil {
		return nil, fmt.Errorf("jsonparser: expected field object: %w", err)
	}
	if obj.Len() == 0 {
		return nil, fmt.Errorf("jsonparser: empty field clause")
	}

	var (
		field string
		val   *fastjson.Value
	)
	obj.Visit(func(key []byte, v *fastjson.Value) {
		if field == "" {
			field = string(key)
			val = v
		}
	})

	var value string
	switch val.Type() {
	case fastjson.TypeObject:
		s, err := stringField(val, "value")
		if err != nil {
			return nil, err
		}
		value = s
	case fastjson.TypeString:
		b, _ := val.StringBytes()
		value = string(b)
	default:
		value = val.String()
	}

	return build(field, value), nil
}

func lowerRange(body *fastjson.Value) (ast.Node, error) {
	obj, err := body.Object()
	if err != nil {
		return nil, fmt.Errorf("jsonparser: range must be a field object: %w", err)
	}
	if obj.Len() == 0 {
		return nil, fmt.Errorf("jsonparser: empty range clause")
	}

	var (
		field string
		val   *fastjson.Value
	)
	obj.Visit(func(key []byte, v *fastjson.Value) {
		if field == "" {
			field = string(key)
			val = v
		}
	})

	r := &ast.Range{Field: field}

	bounds := []struct {
		key string
		out *ast.RangeBound
	}{
		{"gt", &r.Gt},
		{"gte", &r.Gte},
		{"lt", &r.Lt},
		{"lte", &r.Lte},
	}
	for _, b := range bounds {
		bv := val.Get(b.key)
		if bv == nil {
			continue
		}
		f, err := bv.Float64()
		if err != nil {
			return nil, fmt.Errorf("jsonparser: range bound %q must be numeric: %w", b.key, err)
		}
		*b.out = ast.RangeBound{Value: f, Present: true}
	}

	return r, nil
}

func lowerIDs(body *fastjson.Value) (ast.Node, error) {
	valuesVal := body.Get("values")
	if valuesVal == nil {
		return nil, fmt.Errorf("jsonparser: ids requires \"values\"")
	}

	arr, err := valuesVal.Array()
	if err != nil {
		return nil, fmt.Errorf("jsonparser: ids.values must be an array: %w", err)
	}

	values := make([]string, 0, len(arr))
	for _, item := range arr {
		switch item.Type() {
		case fastjson.TypeString:
			b, _ := item.StringBytes()
			values = append(values, string(b))
		default:
			values = append(values, item.String())
		}
	}

	if len(values) == 0 {
		return &ast.MatchNone{}, nil
	}

	return &ast.IDs{Values: values}, nil
}

func lowerQueryString(body *fastjson.Value, defaultField string) (ast.Node, error) {
	queryStr, err := stringField(body, "query")
	if err != nil {
		return nil, err
	}

	field := defaultField
	if f, err := stringField(body, "default_field"); err == nil {
		field = f
	}

	parsed, err := luceneparser.Parse(queryStr, field)
	if err != nil {
		return nil, fmt.Errorf("jsonparser: query_string: %w", err)
	}

	return &ast.QueryString{Query: queryStr, DefaultField: field, Parsed: parsed}, nil
}

func stringField(v *fastjson.Value, key string) (string, error) {
	fv := v.Get(key)
	if fv == nil {
		return "", fmt.Errorf("jsonparser: missing %q", key)
	}

	b, err := fv.StringBytes()
	if err != nil {
		return "", fmt.Errorf("jsonparser: %q must be a string: %w", key, err)
	}

	return string(b), nil
}
