// Package searchplugin is the auxiliary search-engine mirror contract named
// in spec.md §1: a thin client surface over a real Elasticsearch cluster
// that an operator can point writes/queries at alongside the core, for
// side-by-side comparison or migration. It carries no indexing or query
// logic of its own — every document and query body it sees is opaque JSON
// handed through verbatim to the Elasticsearch client.
package searchplugin

import (
	"bytes"
	"context"
	"io"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"

	"github.com/eaglenest7/infino/errs"
)

// Config describes how to reach the mirrored Elasticsearch cluster.
type Config struct {
	Addresses []string
	Username  string
	Password  string
}

// Mirror wraps a single Elasticsearch client bound to Config.
type Mirror struct {
	client *elasticsearch.Client
}

// Connect builds a Mirror from cfg.
func Connect(cfg Config) (*Mirror, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errs.New(err, errs.StorageTransient, "searchplugin: failed to construct client")
	}

	return &Mirror{client: client}, nil
}

// Index mirrors one document body into indexName under docID, verbatim.
func (m *Mirror) Index(ctx context.Context, indexName, docID string, body []byte) error {
	res, err := m.client.Index(
		indexName,
		bytes.NewReader(body),
		m.client.Index.WithDocumentID(docID),
		m.client.Index.WithContext(ctx),
	)
	if err != nil {
		return errs.New(err, errs.StorageTransient, "searchplugin: index request failed")
	}
	defer res.Body.Close()

	return responseErr(res)
}

// Search mirrors a search request body against indexName and returns the
// raw Elasticsearch response body.
func (m *Mirror) Search(ctx context.Context, indexName string, body []byte) ([]byte, error) {
	res, err := m.client.Search(
		m.client.Search.WithContext(ctx),
		m.client.Search.WithIndex(indexName),
		m.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, errs.New(err, errs.StorageTransient, "searchplugin: search request failed")
	}
	defer res.Body.Close()

	if err := responseErr(res); err != nil {
		return nil, err
	}

	return io.ReadAll(res.Body)
}

func responseErr(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}

	return errs.Newf(nil, errs.StorageTransient, "searchplugin: elasticsearch returned %s", res.Status())
}
