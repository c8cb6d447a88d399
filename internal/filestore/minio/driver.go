// Package minio provides a MinIO implementation of filestore.Store.
// It works against MinIO and any S3-compatible service, AWS included.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("http://localhost:9000", "minioadmin", "minioadmin")
//	store, err := minio.New(cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	err = store.MakeBucket(ctx, "reports")
package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/koustreak/bucketgate/internal/errs"
	"github.com/koustreak/bucketgate/internal/filestore"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	awsEndpoint = "s3.amazonaws.com"

	// minPartSize is the smallest part size minio-go accepts.
	minPartSize = 5 * 1024 * 1024
)

// Driver is a MinIO implementation of filestore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client      *miniogo.Client
	creds       *credentials.Credentials
	region      string
	partSize    uint64
	concurrency uint
}

// New builds a MinIO client from cfg. It does no network I/O; use Ping to
// check that the backend is reachable.
func New(cfg *filestore.Config) (*Driver, error) {
	c := cfg.WithDefaults()

	host, secure, err := parseEndpoint(c.Endpoint)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidParams, "invalid storage endpoint", err)
	}

	lookup := miniogo.BucketLookupAuto
	if c.PathStyle {
		lookup = miniogo.BucketLookupPath
	}

	creds := credentials.NewStaticV4(c.AccessKey, c.SecretKey, "")
	client, err := miniogo.New(host, &miniogo.Options{
		Creds:        creds,
		Secure:       secure,
		Region:       c.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindUnavailable, "failed to create minio client", err)
	}

	partSize := c.PartSize
	if partSize < minPartSize {
		partSize = minPartSize
	}

	return &Driver{
		client:      client,
		creds:       creds,
		region:      c.Region,
		partSize:    uint64(partSize),
		concurrency: uint(c.Concurrency),
	}, nil
}

// parseEndpoint accepts "http(s)://host:port" or a bare "host:port".
// An empty endpoint means AWS S3.
func parseEndpoint(endpoint string) (host string, secure bool, err error) {
	if endpoint == "" {
		return awsEndpoint, true, nil
	}
	if !strings.Contains(endpoint, "://") {
		return endpoint, false, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, err
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("endpoint %q has no host", endpoint)
	}
	switch u.Scheme {
	case "https":
		return u.Host, true, nil
	case "http":
		return u.Host, false, nil
	default:
		return "", false, fmt.Errorf("endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
}

// checkCredentials fails with KindNoCredentials when the static keys are blank.
func (d *Driver) checkCredentials() error {
	v, err := d.creds.Get()
	if err != nil {
		return errs.NoCredentials(err)
	}
	if v.AccessKeyID == "" || v.SecretAccessKey == "" {
		return errs.NoCredentials(nil)
	}
	return nil
}

// --- filestore.Store implementation ---

// Ping verifies the MinIO server is reachable by listing buckets.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.checkCredentials(); err != nil {
		return err
	}
	if _, err := d.client.ListBuckets(ctx); err != nil {
		return mapError(err, filestore.OpPing)
	}
	return nil
}

// Close is a no-op for MinIO; the SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

// MakeBucket creates bucket in the configured region.
func (d *Driver) MakeBucket(ctx context.Context, bucket string) error {
	if err := d.checkCredentials(); err != nil {
		return err
	}
	err := d.client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{Region: d.region})
	if err != nil {
		return mapError(err, filestore.OpCreateBucket)
	}
	return nil
}

// PutObject streams r to the backend. minio-go switches to a multipart
// upload with d.concurrency workers once the body exceeds d.partSize.
func (d *Driver) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts filestore.PutOptions) (*filestore.ObjectInfo, error) {
	if err := d.checkCredentials(); err != nil {
		return nil, err
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := d.client.PutObject(ctx, bucket, key, r, size, miniogo.PutObjectOptions{
		ContentType: contentType,
		PartSize:    d.partSize,
		NumThreads:  d.concurrency,
	})
	if err != nil {
		return nil, mapError(err, filestore.OpPutObject)
	}

	return &filestore.ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  contentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

// GetObject opens a streaming handle to the object at key inside bucket.
// The caller MUST call Object.Close() after reading.
func (d *Driver) GetObject(ctx context.Context, bucket, key string) (filestore.Object, error) {
	if err := d.checkCredentials(); err != nil {
		return nil, err
	}
	obj, err := d.client.GetObject(ctx, bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, filestore.OpGetObject)
	}

	// GetObject is lazy; Stat issues the request so that a missing bucket or
	// key is reported before the caller starts streaming.
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, d.statError(ctx, bucket, err)
	}

	return &object{
		ReadCloser: obj,
		info: &filestore.ObjectInfo{
			Key:          key,
			Size:         stat.Size,
			ContentType:  stat.ContentType,
			ETag:         stat.ETag,
			LastModified: stat.LastModified,
		},
	}, nil
}

// statError maps a failed Stat. Stat is a HEAD request, and a HEAD 404 with
// no error code reads as NoSuchKey even when the bucket is the thing missing
// (AWS answers that way), so a missing key is confirmed against the bucket.
func (d *Driver) statError(ctx context.Context, bucket string, err error) *errs.Error {
	mapped := mapError(err, filestore.OpGetObject)
	if !errs.IsNotFound(mapped) || mapped.Resource != errs.ResourceObject {
		return mapped
	}
	exists, berr := d.client.BucketExists(ctx, bucket)
	if berr == nil && !exists {
		return errs.NotFound(errs.ResourceBucket, "The specified bucket does not exist", err)
	}
	return mapped
}

// --- internal types ---

// object wraps a MinIO GetObject response and exposes filestore.Object.
type object struct {
	io.ReadCloser
	info *filestore.ObjectInfo
}

func (o *object) Info() *filestore.ObjectInfo {
	return o.info
}

var _ filestore.Store = (*Driver)(nil)
