// Package filestoretest provides an in-memory filestore.Store for tests.
package filestoretest

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koustreak/bucketgate/internal/errs"
	"github.com/koustreak/bucketgate/internal/filestore"
)

// Store is an in-memory filestore.Store. It reports the same error kinds and
// messages as the real drivers. The zero value is not usable; call New.
type Store struct {
	mu      sync.Mutex
	buckets map[string]map[string]stored

	// NoCredentials makes every operation fail as if credentials were missing.
	NoCredentials bool

	// Fail, when set, is returned by every operation instead of doing work.
	Fail error

	// Calls counts backend operations (Ping excluded).
	Calls atomic.Int64

	// Opened records every object handed out by GetObject.
	Opened []*Object
}

type stored struct {
	data        []byte
	contentType string
	modified    time.Time
}

// New returns an empty Store with the given buckets already created.
func New(buckets ...string) *Store {
	s := &Store{buckets: make(map[string]map[string]stored)}
	for _, b := range buckets {
		s.buckets[b] = make(map[string]stored)
	}
	return s
}

func (s *Store) precheck() error {
	s.Calls.Add(1)
	if s.NoCredentials {
		return errs.NoCredentials(nil)
	}
	return s.Fail
}

func (s *Store) Ping(context.Context) error {
	if s.NoCredentials {
		return errs.NoCredentials(nil)
	}
	return s.Fail
}

func (s *Store) Close() error { return nil }

func (s *Store) MakeBucket(_ context.Context, bucket string) error {
	if err := s.precheck(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buckets[bucket]; ok {
		return errs.Backend(errs.KindAlreadyExists, "CreateBucket", "BucketAlreadyExists",
			"The requested bucket name is not available.", nil)
	}
	s.buckets[bucket] = make(map[string]stored)
	return nil
}

func (s *Store) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, opts filestore.PutOptions) (*filestore.ObjectInfo, error) {
	if err := s.precheck(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(errs.KindUnavailable, "failed to read upload body", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		return nil, errs.NotFound(errs.ResourceBucket, "The specified bucket does not exist", nil)
	}
	now := time.Now()
	objects[key] = stored{data: data, contentType: opts.ContentType, modified: now}
	return &filestore.ObjectInfo{Key: key, Size: int64(len(data)), ContentType: opts.ContentType, LastModified: now}, nil
}

func (s *Store) GetObject(_ context.Context, bucket, key string) (filestore.Object, error) {
	if err := s.precheck(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		return nil, errs.NotFound(errs.ResourceBucket, "The specified bucket does not exist", nil)
	}
	o, ok := objects[key]
	if !ok {
		return nil, errs.NotFound(errs.ResourceObject, "Object not found in the bucket", nil)
	}
	obj := &Object{
		Reader: bytes.NewReader(o.data),
		info: &filestore.ObjectInfo{
			Key:          key,
			Size:         int64(len(o.data)),
			ContentType:  o.contentType,
			LastModified: o.modified,
		},
	}
	s.Opened = append(s.Opened, obj)
	return obj, nil
}

// Contents returns a copy of the stored bytes for bucket/key.
func (s *Store) Contents(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.buckets[bucket][key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(o.data), true
}

// Object is the filestore.Object returned by Store.GetObject.
type Object struct {
	*bytes.Reader
	info   *filestore.ObjectInfo
	closed atomic.Bool
}

func (o *Object) Info() *filestore.ObjectInfo { return o.info }

func (o *Object) Close() error {
	o.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (o *Object) Closed() bool { return o.closed.Load() }

var _ filestore.Store = (*Store)(nil)
