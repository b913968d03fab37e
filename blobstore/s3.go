package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/eaglenest7/infino/errs"
)

// S3 is the S3-compatible Store backend.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 creates an S3 store for the given bucket/region using the default
// AWS credential chain.
func NewS3(ctx context.Context, bucket, region string) (*S3, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, errs.New(err, errs.StoragePermanent, "blobstore: failed to load AWS config")
	}

	return &S3{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// Put uploads data to key.
func (s *S3) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})

	return classifyS3Error(err)
}

// Get downloads the object at key.
func (s *S3) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, errs.Newf(err, errs.NotFound, "blobstore: key %q not found", key)
		}

		return nil, classifyS3Error(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errs.New(err, errs.StorageTransient, "blobstore: failed reading S3 object body")
	}

	return data, nil
}

// Delete removes the object at key.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	return classifyS3Error(err)
}

// List returns every key with the given prefix, paginating through all results.
func (s *S3) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classifyS3Error(err)
		}

		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}

	return keys, nil
}

// Exists reports whether key is present.
func (s *S3) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}

	return false, classifyS3Error(err)
}

// classifyS3Error maps AWS API errors to the blob store's retry taxonomy.
// Access-denied and credential errors are permanent; every other error,
// including throttling and server errors, is treated as retryable.
func classifyS3Error(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errs.New(err, errs.StoragePermanent, "blobstore: S3 access denied")
		case "Throttling", "SlowDown", "RequestTimeout", "InternalError", "ServiceUnavailable":
			return errs.New(err, errs.StorageTransient, "blobstore: S3 transient error")
		}
	}

	if strings.Contains(err.Error(), "no such host") || strings.Contains(err.Error(), "connection refused") {
		return errs.New(err, errs.StorageTransient, "blobstore: S3 unreachable")
	}

	return errs.New(err, errs.StorageTransient, "blobstore: S3 error")
}
