package blobstore

import (
	"context"
	"fmt"
	"os"

	"github.com/eaglenest7/infino/config"
	"github.com/eaglenest7/infino/errs"
)

// New creates the Store backend selected by opts.StorageType. Azure
// credentials are read from AZURE_STORAGE_ACCOUNT/AZURE_STORAGE_KEY since
// config.Options has no dedicated fields for them.
func New(ctx context.Context, opts *config.Options) (Store, error) {
	switch opts.StorageType {
	case config.StorageLocal:
		return NewLocal(opts.IndexDirPath)
	case config.StorageAWS:
		return NewS3(ctx, opts.CloudStorageBucketName, opts.CloudStorageRegion)
	case config.StorageGCP:
		return NewGCS(ctx, opts.CloudStorageBucketName)
	case config.StorageAzure:
		account := os.Getenv("AZURE_STORAGE_ACCOUNT")
		key := os.Getenv("AZURE_STORAGE_KEY")

		return NewAzure(account, key, opts.CloudStorageBucketName)
	default:
		return nil, errs.New(nil, errs.SchemaError, fmt.Sprintf("blobstore: unknown storage_type %q", opts.StorageType))
	}
}
