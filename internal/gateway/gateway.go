// Package gateway bridges validated HTTP requests to the object store.
//
// Every method validates its input before touching the backend and returns
// either nil or an *errs.Error; nothing unclassified escapes.
package gateway

import (
	"context"
	"io"

	"github.com/koustreak/bucketgate/internal/errs"
	"github.com/koustreak/bucketgate/internal/filestore"
	"github.com/koustreak/bucketgate/internal/logger"
)

// Gateway runs upload, download and create-bucket against a Store.
// It holds no per-request state and is safe for concurrent use.
type Gateway struct {
	store filestore.Store
	log   *logger.Logger
}

// New returns a Gateway over store. A nil log uses the default logger.
func New(store filestore.Store, log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.New(nil)
	}
	return &Gateway{store: store, log: log}
}

// Upload streams body into req.Object inside req.Bucket. size is the body
// length or -1 when unknown.
func (g *Gateway) Upload(ctx context.Context, req BucketRequest, body io.Reader, size int64, contentType string) error {
	if err := req.Validate(); err != nil {
		return err
	}
	log := g.log.Ctx(ctx).With().Str("op", "upload").Str("bucket", req.Bucket).Str("object", req.Object).Logger()

	info, err := g.store.PutObject(ctx, req.Bucket, req.Object, body, size, filestore.PutOptions{ContentType: contentType})
	if err != nil {
		e := errs.From(err)
		log.ErrorWith("upload failed", e, map[string]interface{}{"kind": e.Kind.String()})
		return e
	}

	log.InfoWith("file uploaded", map[string]interface{}{"size": info.Size, "etag": info.ETag})
	return nil
}

// Download opens req.Object for streaming. On success the caller owns the
// returned Object and must Close it.
func (g *Gateway) Download(ctx context.Context, req BucketRequest) (filestore.Object, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := g.log.Ctx(ctx).With().Str("op", "download").Str("bucket", req.Bucket).Str("object", req.Object).Logger()

	obj, err := g.store.GetObject(ctx, req.Bucket, req.Object)
	if err != nil {
		e := errs.From(err)
		log.ErrorWith("download failed", e, map[string]interface{}{"kind": e.Kind.String()})
		return nil, e
	}

	log.Debugf("object opened, %d bytes", obj.Info().Size)
	return obj, nil
}

// CreateBucket creates bucket. An existing bucket is an error.
func (g *Gateway) CreateBucket(ctx context.Context, bucket string) error {
	if err := ValidateBucketName(bucket); err != nil {
		return err
	}
	log := g.log.Ctx(ctx).With().Str("op", "create_bucket").Str("bucket", bucket).Logger()

	if err := g.store.MakeBucket(ctx, bucket); err != nil {
		e := errs.From(err)
		log.ErrorWith("create bucket failed", e, map[string]interface{}{"kind": e.Kind.String()})
		return e
	}

	log.Info("bucket created")
	return nil
}

// Ping reports whether the backend is reachable.
func (g *Gateway) Ping(ctx context.Context) error {
	if err := g.store.Ping(ctx); err != nil {
		return errs.From(err)
	}
	return nil
}
