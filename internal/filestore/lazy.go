package filestore

import (
	"context"
	"io"
	"sync"
)

// OpenFunc builds a Store.
type OpenFunc func() (Store, error)

// Lazy is a Store that builds its backend client on first use and reuses it
// for the rest of the process. It is safe for concurrent use.
// A failed build is not cached; the next call tries again.
type Lazy struct {
	open OpenFunc

	mu    sync.Mutex
	store Store
}

// NewLazy returns a Lazy store backed by open.
func NewLazy(open OpenFunc) *Lazy {
	return &Lazy{open: open}
}

func (l *Lazy) get() (Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		return l.store, nil
	}
	s, err := l.open()
	if err != nil {
		return nil, err
	}
	l.store = s
	return s, nil
}

// Ping builds the client if needed and pings the backend.
func (l *Lazy) Ping(ctx context.Context) error {
	s, err := l.get()
	if err != nil {
		return err
	}
	return s.Ping(ctx)
}

// Close closes the underlying store if it was ever built.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store == nil {
		return nil
	}
	err := l.store.Close()
	l.store = nil
	return err
}

func (l *Lazy) MakeBucket(ctx context.Context, bucket string) error {
	s, err := l.get()
	if err != nil {
		return err
	}
	return s.MakeBucket(ctx, bucket)
}

func (l *Lazy) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts PutOptions) (*ObjectInfo, error) {
	s, err := l.get()
	if err != nil {
		return nil, err
	}
	return s.PutObject(ctx, bucket, key, r, size, opts)
}

func (l *Lazy) GetObject(ctx context.Context, bucket, key string) (Object, error) {
	s, err := l.get()
	if err != nil {
		return nil, err
	}
	return s.GetObject(ctx, bucket, key)
}

var _ Store = (*Lazy)(nil)
