package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-storage-blob-go/azblob"

	"github.com/eaglenest7/infino/errs"
)

// Azure is the Azure Blob Storage Store backend.
type Azure struct {
	container azblob.ContainerURL
}

// NewAzure creates an Azure store against the given account/container using
// a shared-key credential.
func NewAzure(account, accountKey, container string) (*Azure, error) {
	cred, err := azblob.NewSharedKeyCredential(account, accountKey)
	if err != nil {
		return nil, errs.New(err, errs.StoragePermanent, "blobstore: invalid Azure credentials")
	}

	p := azblob.NewPipeline(cred, azblob.PipelineOptions{})
	u, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net/%s", account, container))
	if err != nil {
		return nil, errs.New(err, errs.StoragePermanent, "blobstore: invalid Azure container URL")
	}

	return &Azure{container: azblob.NewContainerURL(*u, p)}, nil
}

func (a *Azure) blockBlob(key string) azblob.BlockBlobURL {
	return a.container.NewBlockBlobURL(key)
}

// Put uploads data to key.
func (a *Azure) Put(ctx context.Context, key string, data []byte) error {
	_, err := azblob.UploadBufferToBlockBlob(ctx, data, a.blockBlob(key), azblob.UploadToBlockBlobOptions{})

	return classifyAzureError(err)
}

// Get downloads the blob at key.
func (a *Azure) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := a.blockBlob(key).Download(ctx, 0, azblob.CountToEnd, azblob.BlobAccessConditions{}, false, azblob.ClientProvidedKeyOptions{})
	if err != nil {
		if isAzureNotFound(err) {
			return nil, errs.Newf(err, errs.NotFound, "blobstore: key %q not found", key)
		}

		return nil, classifyAzureError(err)
	}

	body := resp.Body(azblob.RetryReaderOptions{})
	defer body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return nil, errs.New(err, errs.StorageTransient, "blobstore: failed reading Azure blob body")
	}

	return buf.Bytes(), nil
}

// Delete removes the blob at key. A missing blob is not an error.
func (a *Azure) Delete(ctx context.Context, key string) error {
	_, err := a.blockBlob(key).Delete(ctx, azblob.DeleteSnapshotsOptionNone, azblob.BlobAccessConditions{})
	if isAzureNotFound(err) {
		return nil
	}

	return classifyAzureError(err)
}

// List returns every key with the given prefix.
func (a *Azure) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	for marker := (azblob.Marker{}); marker.NotDone(); {
		resp, err := a.container.ListBlobsFlatSegment(ctx, marker, azblob.ListBlobsSegmentOptions{Prefix: prefix})
		if err != nil {
			return nil, classifyAzureError(err)
		}

		for _, item := range resp.Segment.BlobItems {
			keys = append(keys, item.Name)
		}

		marker = resp.NextMarker
	}

	return keys, nil
}

// Exists reports whether key is present.
func (a *Azure) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.blockBlob(key).GetProperties(ctx, azblob.BlobAccessConditions{}, azblob.ClientProvidedKeyOptions{})
	if err == nil {
		return true, nil
	}
	if isAzureNotFound(err) {
		return false, nil
	}

	return false, classifyAzureError(err)
}

func isAzureNotFound(err error) bool {
	var stgErr azblob.StorageError
	if errors.As(err, &stgErr) {
		return stgErr.ServiceCode() == azblob.ServiceCodeBlobNotFound
	}

	return false
}

// classifyAzureError maps Azure Blob Storage errors to the blob store's
// retry taxonomy.
func classifyAzureError(err error) error {
	if err == nil {
		return nil
	}

	var stgErr azblob.StorageError
	if errors.As(err, &stgErr) {
		switch stgErr.Response().StatusCode {
		case 403, 401:
			return errs.New(err, errs.StoragePermanent, "blobstore: Azure access denied")
		case 429, 500, 502, 503, 504:
			return errs.New(err, errs.StorageTransient, "blobstore: Azure transient error")
		}
	}

	if strings.Contains(err.Error(), "no such host") {
		return errs.New(err, errs.StorageTransient, "blobstore: Azure unreachable")
	}

	return errs.New(err, errs.StorageTransient, "blobstore: Azure error")
}
