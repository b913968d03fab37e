// Package jsonparser lowers the Elasticsearch/OpenSearch-compatible JSON
// query DSL into the shared query AST. JSON syntax itself is parsed by
// valyala/fastjson; this package's job is the recursive descent over the
// resulting value tree, dispatching on each query object's node-kind key
// the way a hand-written grammar would, since no library in this tree's
// dependency surface understands the query-DSL grammar itself.
package jsonparser

import (
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/eaglenest7/infino/query/ast"
)

// SortField is one entry of a request's "sort" clause.
type SortField struct {
	Field string
	Desc  bool
}

// Request is a fully parsed search request: the required query, plus
// whichever optional top-level clauses were present. highlight, suggest,
// and script_fields are accepted and validated as JSON but carry no
// further representation, since none of them affect which documents
// match or their ordering.
type Request struct {
	Query Node
	Aggs  map[string]Agg
	Sort  []SortField
	Size  int
	From  int
}

// Node is an alias for ast.Node scoped to this package's doc comments;
// request fields otherwise use ast types directly.
type Node = ast.Node

// Agg is an alias for ast.Agg, mirrored for the same reason as Node.
type Agg = ast.Agg

const defaultSize = 10

// Parse lowers a JSON search request body into a Request. query is
// required; every other top-level key is optional, in any order, since
// JSON object keys carry no sequencing constraint worth enforcing here
// even though they do in the PEG grammar this dispatches on.
func Parse(data []byte, defaultField string) (*Request, error) {
	var p fastjson.Parser
	root, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("jsonparser: invalid JSON: %w", err)
	}

	if root.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("jsonparser: request body must be a JSON object")
	}

	queryVal := root.Get("query")
	if queryVal == nil {
		return nil, fmt.Errorf("jsonparser: missing required \"query\" field")
	}

	query, err := lowerQuery(queryVal, defaultField)
	if err != nil {
		return nil, err
	}

	if filterVal := root.Get("filter"); filterVal != nil {
		filter, err := lowerQuery(filterVal, defaultField)
		if err != nil {
			return nil, err
		}
		query = &ast.Bool{Must: []ast.Node{query}, Filter: []ast.Node{filter}}
	}

	req := &Request{Query: query, Size: defaultSize}

	if aggsVal := root.Get("aggs"); aggsVal != nil {
		req.Aggs, err = lowerAggs(aggsVal, defaultField)
		if err != nil {
			return nil, err
		}
	} else if aggsVal := root.Get("aggregations"); aggsVal != nil {
		req.Aggs, err = lowerAggs(aggsVal, defaultField)
		if err != nil {
			return nil, err
		}
	}

	if sortVal := root.Get("sort"); sortVal != nil {
		req.Sort, err = lowerSort(sortVal)
		if err != nil {
			return nil, err
		}
	}

	if sizeVal := root.Get("size"); sizeVal != nil {
		n, err := sizeVal.Int()
		if err != nil {
			return nil, fmt.Errorf("jsonparser: invalid \"size\": %w", err)
		}
		req.Size = n
	}

	if fromVal := root.Get("from"); fromVal != nil {
		n, err := fromVal.Int()
		if err != nil {
			return nil, fmt.Errorf("jsonparser: invalid \"from\": %w", err)
		}
		req.From = n
	}

	// highlight, suggest, and script_fields are accepted as opaque JSON
	// and otherwise ignored: they shape the response payload, not the
	// hit set, and this executor does not implement either feature.
	for _, key := range []string{"highlight", "suggest", "script_fields"} {
		if v := root.Get(key); v != nil && v.Type() != fastjson.TypeObject && v.Type() != fastjson.TypeArray {
			return nil, fmt.Errorf("jsonparser: %q must be an object or array", key)
		}
	}

	return req, nil
}

func lowerSort(v *fastjson.Value) ([]SortField, error) {
	arr, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("jsonparser: \"sort\" must be an array: %w", err)
	}

	var out []SortField
	for _, item := range arr {
		switch item.Type() {
		case fastjson.TypeString:
			field, _ := item.StringBytes()
			name := string(field)
			if name == "_score" {
				continue
			}
			out = append(out, SortField{Field: name})
		case fastjson.TypeObject:
			obj, err := item.Object()
			if err != nil {
				return nil, err
			}
			var outErr error
			obj.Visit(func(key []byte, val *fastjson.Value) {
				if outErr != nil {
					return
				}
				name := string(key)
				if name == "_score" {
					return
				}
				desc := false
				if orderVal := val.Get("order"); orderVal != nil {
					order, err := orderVal.StringBytes()
					if err != nil {
						outErr = err

						return
					}
					desc = string(order) == "desc"
				}
				out = append(out, SortField{Field: name, Desc: desc})
			})
			if outErr != nil {
				return nil, outErr
			}
		default:
			return nil, fmt.Errorf("jsonparser: invalid sort entry")
		}
	}

	return out, nil
}
