// Package blobstore abstracts durable key/value byte storage behind one
// Store interface, with local filesystem, S3, GCS, and Azure Blob
// implementations selected by configuration. Every Store method classifies
// its failures into errs.StorageTransient (worth retrying) or
// errs.StoragePermanent (not), the distinction the Index commit driver's
// retry policy depends on.
package blobstore
