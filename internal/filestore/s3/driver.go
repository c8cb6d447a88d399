// Package s3 provides an AWS SDK (v2) implementation of filestore.Store.
//
// Uploads go through the SDK transfer manager, which sends bodies larger than
// the configured part size as a multipart upload with bounded concurrency.
package s3

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/koustreak/bucketgate/internal/errs"
	"github.com/koustreak/bucketgate/internal/filestore"
)

// API is the subset of *s3.Client the driver uses.
type API interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
}

// Driver is an AWS SDK implementation of filestore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client   API
	uploader *manager.Uploader
	creds    aws.CredentialsProvider
	region   string
}

// New loads an AWS config bound to the static credentials in cfg and builds
// an S3 client. Endpoint, when set, replaces the AWS endpoint.
func New(ctx context.Context, cfg *filestore.Config) (*Driver, error) {
	c := cfg.WithDefaults()

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(c.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	}
	if c.Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(c.Endpoint))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidParams, "failed to load aws config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = c.PathStyle
	})
	return NewWithClient(client, awsCfg.Credentials, c), nil
}

// NewWithClient builds a Driver around an existing client.
func NewWithClient(client API, creds aws.CredentialsProvider, cfg filestore.Config) *Driver {
	c := cfg.WithDefaults()

	partSize := c.PartSize
	if partSize < manager.MinUploadPartSize {
		partSize = manager.MinUploadPartSize
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = partSize
		u.Concurrency = c.Concurrency
	})

	return &Driver{
		client:   client,
		uploader: uploader,
		creds:    creds,
		region:   c.Region,
	}
}

func (d *Driver) checkCredentials(ctx context.Context) error {
	if d.creds == nil {
		return errs.NoCredentials(nil)
	}
	v, err := d.creds.Retrieve(ctx)
	if err != nil {
		return errs.NoCredentials(err)
	}
	if !v.HasKeys() {
		return errs.NoCredentials(nil)
	}
	return nil
}

// Ping verifies the backend is reachable by listing buckets.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.checkCredentials(ctx); err != nil {
		return err
	}
	if _, err := d.client.ListBuckets(ctx, &s3.ListBucketsInput{}); err != nil {
		return mapError(err, filestore.OpPing)
	}
	return nil
}

// Close is a no-op; the SDK client shares the default HTTP transport.
func (d *Driver) Close() error {
	return nil
}

// MakeBucket creates bucket. Outside us-east-1 the region is sent as the
// location constraint, as S3 requires.
func (d *Driver) MakeBucket(ctx context.Context, bucket string) error {
	if err := d.checkCredentials(ctx); err != nil {
		return err
	}
	in := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if d.region != filestore.DefaultRegion {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(d.region),
		}
	}
	if _, err := d.client.CreateBucket(ctx, in); err != nil {
		return mapError(err, filestore.OpCreateBucket)
	}
	return nil
}

// PutObject streams r through the transfer manager.
func (d *Driver) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts filestore.PutOptions) (*filestore.ObjectInfo, error) {
	if err := d.checkCredentials(ctx); err != nil {
		return nil, err
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body := &countingReader{r: r}
	out, err := d.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, mapError(err, filestore.OpPutObject)
	}
	if size < 0 {
		size = body.n
	}

	return &filestore.ObjectInfo{
		Key:         key,
		Size:        size,
		ContentType: contentType,
		ETag:        aws.ToString(out.ETag),
	}, nil
}

// GetObject opens the object body. The SDK performs the request here, so
// missing buckets and keys are reported before any byte is read.
func (d *Driver) GetObject(ctx context.Context, bucket, key string) (filestore.Object, error) {
	if err := d.checkCredentials(ctx); err != nil {
		return nil, err
	}
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapError(err, filestore.OpGetObject)
	}

	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return &object{
		ReadCloser: out.Body,
		info: &filestore.ObjectInfo{
			Key:          key,
			Size:         size,
			ContentType:  aws.ToString(out.ContentType),
			ETag:         aws.ToString(out.ETag),
			LastModified: aws.ToTime(out.LastModified),
		},
	}, nil
}

type object struct {
	io.ReadCloser
	info *filestore.ObjectInfo
}

func (o *object) Info() *filestore.ObjectInfo {
	return o.info
}

var _ filestore.Store = (*Driver)(nil)

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
