package blobstore

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/eaglenest7/infino/errs"
)

// GCS is the Google Cloud Storage Store backend.
type GCS struct {
	bucket *storage.BucketHandle
}

// NewGCS creates a GCS store for the given bucket using application default
// credentials.
func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errs.New(err, errs.StoragePermanent, "blobstore: failed to create GCS client")
	}

	return &GCS{bucket: client.Bucket(bucket)}, nil
}

// Put uploads data to key.
func (g *GCS) Put(ctx context.Context, key string, data []byte) error {
	w := g.bucket.Object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()

		return classifyGCSError(err)
	}

	return classifyGCSError(w.Close())
}

// Get downloads the object at key.
func (g *GCS) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := g.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, errs.Newf(err, errs.NotFound, "blobstore: key %q not found", key)
		}

		return nil, classifyGCSError(err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.New(err, errs.StorageTransient, "blobstore: failed reading GCS object body")
	}

	return data, nil
}

// Delete removes the object at key. A missing object is not an error.
func (g *GCS) Delete(ctx context.Context, key string) error {
	err := g.bucket.Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}

	return classifyGCSError(err)
}

// List returns every key with the given prefix.
func (g *GCS) List(ctx context.Context, prefix string) ([]string, error) {
	it := g.bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	var keys []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, classifyGCSError(err)
		}

		keys = append(keys, attrs.Name)
	}

	return keys, nil
}

// Exists reports whether key is present.
func (g *GCS) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.bucket.Object(key).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}

	return false, classifyGCSError(err)
}

// classifyGCSError maps GCS API errors to the blob store's retry taxonomy.
func classifyGCSError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 403, 401:
			return errs.New(err, errs.StoragePermanent, "blobstore: GCS access denied")
		case 429, 500, 502, 503, 504:
			return errs.New(err, errs.StorageTransient, "blobstore: GCS transient error")
		}
	}

	return errs.New(err, errs.StorageTransient, "blobstore: GCS error")
}
