// Package config centralizes Infino's external configuration surface: the
// storage backend selection, per-index defaults, document field mapping, and
// the server bind address. Options are applied through a slice of OptionFunc
// rather than through struct literals, so defaults stay in one place and
// zero values never leak into behavior.
package config

import (
	"fmt"
	"time"
)

// StorageType selects which Blob Store backend the process binds to.
type StorageType string

const (
	StorageLocal StorageType = "local"
	StorageAWS   StorageType = "aws"
	StorageGCP   StorageType = "gcp"
	StorageAzure StorageType = "azure"
)

// Options holds every externally configurable knob named in the operating
// contract: storage backend, per-index thresholds, document field mapping,
// and server bind address.
type Options struct {
	StorageType            StorageType
	CloudStorageBucketName string
	CloudStorageRegion     string
	IndexDirPath           string
	DefaultIndexName       string

	SegmentSizeThresholdMB int
	MemoryBudgetMB         int
	RetentionDays          int
	CommitInterval         time.Duration

	TimestampKey string
	LabelsKey    string

	UseRabbitMQ bool

	Host string
	Port int
}

// OptionFunc mutates an Options in place. New applies sane defaults first,
// then each OptionFunc in order, so later options win and callers only
// specify what they want to override.
type OptionFunc func(*Options)

// New builds an Options from defaults overridden by opts, in order.
func New(opts ...OptionFunc) *Options {
	o := &Options{
		StorageType:            StorageLocal,
		IndexDirPath:           "./data",
		DefaultIndexName:       "default",
		SegmentSizeThresholdMB: 128,
		MemoryBudgetMB:         512,
		RetentionDays:          30,
		CommitInterval:         30 * time.Second,
		TimestampKey:           "date",
		LabelsKey:              "labels",
		Host:                   "0.0.0.0",
		Port:                   9200,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func WithStorageType(t StorageType) OptionFunc {
	return func(o *Options) { o.StorageType = t }
}

func WithCloudStorageBucket(name, region string) OptionFunc {
	return func(o *Options) {
		o.CloudStorageBucketName = name
		o.CloudStorageRegion = region
	}
}

func WithIndexDirPath(path string) OptionFunc {
	return func(o *Options) { o.IndexDirPath = path }
}

func WithDefaultIndexName(name string) OptionFunc {
	return func(o *Options) { o.DefaultIndexName = name }
}

func WithSegmentSizeThresholdMB(mb int) OptionFunc {
	return func(o *Options) { o.SegmentSizeThresholdMB = mb }
}

func WithMemoryBudgetMB(mb int) OptionFunc {
	return func(o *Options) { o.MemoryBudgetMB = mb }
}

func WithRetentionDays(days int) OptionFunc {
	return func(o *Options) { o.RetentionDays = days }
}

func WithCommitInterval(d time.Duration) OptionFunc {
	return func(o *Options) { o.CommitInterval = d }
}

func WithTimestampKey(key string) OptionFunc {
	return func(o *Options) { o.TimestampKey = key }
}

func WithLabelsKey(key string) OptionFunc {
	return func(o *Options) { o.LabelsKey = key }
}

func WithRabbitMQ(enabled bool) OptionFunc {
	return func(o *Options) { o.UseRabbitMQ = enabled }
}

func WithServerAddr(host string, port int) OptionFunc {
	return func(o *Options) {
		o.Host = host
		o.Port = port
	}
}

// Validate checks the combination of options for internal consistency,
// returning a descriptive error for anything a config-loading front-end
// should reject before starting the storage layer.
func (o *Options) Validate() error {
	switch o.StorageType {
	case StorageLocal, StorageAWS, StorageGCP, StorageAzure:
	default:
		return fmt.Errorf("config: unknown storage_type %q", o.StorageType)
	}

	if o.StorageType != StorageLocal && o.CloudStorageBucketName == "" {
		return fmt.Errorf("config: cloud_storage_bucket_name is required for storage_type %q", o.StorageType)
	}

	if o.SegmentSizeThresholdMB <= 0 {
		return fmt.Errorf("config: segment_size_threshold_megabytes must be positive")
	}

	if o.MemoryBudgetMB <= 0 {
		return fmt.Errorf("config: memory_budget_megabytes must be positive")
	}

	if o.RetentionDays <= 0 {
		return fmt.Errorf("config: retention_days must be positive")
	}

	if o.CommitInterval <= 0 {
		return fmt.Errorf("config: commit_interval_in_seconds must be positive")
	}

	if o.TimestampKey == "" {
		return fmt.Errorf("config: timestamp_key must not be empty")
	}

	if o.LabelsKey == "" {
		return fmt.Errorf("config: labels_key must not be empty")
	}

	return nil
}
