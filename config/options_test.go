package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	o := New()

	require.Equal(t, StorageLocal, o.StorageType)
	require.Equal(t, "default", o.DefaultIndexName)
	require.Equal(t, 128, o.SegmentSizeThresholdMB)
	require.Equal(t, 30*time.Second, o.CommitInterval)
	require.NoError(t, o.Validate())
}

func TestOptionsOverride(t *testing.T) {
	o := New(
		WithStorageType(StorageAWS),
		WithCloudStorageBucket("infino-bucket", "us-east-1"),
		WithSegmentSizeThresholdMB(256),
		WithRetentionDays(7),
		WithServerAddr("127.0.0.1", 9300),
	)

	require.Equal(t, StorageAWS, o.StorageType)
	require.Equal(t, "infino-bucket", o.CloudStorageBucketName)
	require.Equal(t, 256, o.SegmentSizeThresholdMB)
	require.Equal(t, 7, o.RetentionDays)
	require.Equal(t, "127.0.0.1", o.Host)
	require.Equal(t, 9300, o.Port)
	require.NoError(t, o.Validate())
}

func TestValidateRejectsCloudStorageWithoutBucket(t *testing.T) {
	o := New(WithStorageType(StorageGCP))
	require.Error(t, o.Validate())
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	o := New(WithSegmentSizeThresholdMB(0))
	require.Error(t, o.Validate())

	o = New(WithRetentionDays(-1))
	require.Error(t, o.Validate())
}
