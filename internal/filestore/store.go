// Package filestore defines the unified interface for object storage backends.
//
// All providers (MinIO, AWS S3) implement the Store interface.
// Callers depend only on this package, never on a specific provider package.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("http://localhost:9000", "minioadmin", "minioadmin")
//	store, err := minio.New(cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	err = store.MakeBucket(ctx, "reports")
package filestore

import (
	"context"
	"io"
)

// Store is the single interface all object storage providers must implement.
// Implementations return *errs.Error for every failure.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources (connections, goroutines, etc.).
	Close() error

	// MakeBucket creates bucket in the configured region.
	MakeBucket(ctx context.Context, bucket string) error

	// PutObject streams r into key inside bucket. size is the body length,
	// or -1 when unknown. Bodies larger than the configured part size are
	// sent as a multipart upload.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts PutOptions) (*ObjectInfo, error)

	// GetObject opens a streaming handle to the object at key inside bucket.
	// Missing buckets and keys are reported here, before any byte is read.
	// The caller MUST call Object.Close() after reading.
	GetObject(ctx context.Context, bucket, key string) (Object, error)
}

// Backend operation names, used in error details.
const (
	OpPutObject    = "PutObject"
	OpGetObject    = "GetObject"
	OpCreateBucket = "CreateBucket"
	OpPing         = "ListBuckets"
)
