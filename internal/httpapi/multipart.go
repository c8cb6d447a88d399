package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"

	"github.com/koustreak/bucketgate/internal/errs"
)

// maxFieldSize bounds bucket_name and object_name.
const maxFieldSize = 64 << 10

func readField(p *multipart.Part) (string, error) {
	b, err := io.ReadAll(io.LimitReader(p, maxFieldSize+1))
	if err != nil {
		return "", invalidForm(err)
	}
	if len(b) > maxFieldSize {
		return "", errs.Validation(fmt.Sprintf("%s is too long", p.FormName()))
	}
	return string(b), nil
}

func invalidForm(err error) *errs.Error {
	return errs.Validation("invalid multipart form: " + err.Error())
}

// spool holds a file part that arrived before the fields naming where it
// goes. Up to max bytes stay in memory; the rest goes to a temporary file.
type spool struct {
	mem         bytes.Buffer
	file        *os.File
	size        int64
	contentType string
}

func spoolPart(p *multipart.Part, max int64) (*spool, error) {
	s := &spool{contentType: p.Header.Get("Content-Type")}

	n, err := io.CopyN(&s.mem, p, max+1)
	s.size = n
	if errors.Is(err, io.EOF) {
		return s, nil
	}
	if err != nil {
		return nil, invalidForm(err)
	}

	f, err := os.CreateTemp("", "bucketgate-upload-*")
	if err != nil {
		return nil, errs.Wrap(errs.KindUnavailable, "failed to buffer upload", err)
	}
	s.file = f
	if _, err := s.mem.WriteTo(f); err != nil {
		s.remove()
		return nil, errs.Wrap(errs.KindUnavailable, "failed to buffer upload", err)
	}
	m, err := io.Copy(f, p)
	s.size += m
	if err != nil {
		s.remove()
		return nil, invalidForm(err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		s.remove()
		return nil, errs.Wrap(errs.KindUnavailable, "failed to buffer upload", err)
	}
	return s, nil
}

func (s *spool) reader() io.Reader {
	if s.file != nil {
		return s.file
	}
	return &s.mem
}

func (s *spool) remove() {
	if s == nil || s.file == nil {
		return
	}
	name := s.file.Name()
	_ = s.file.Close()
	_ = os.Remove(name)
	s.file = nil
}

// bodyReader counts what the backend consumed and keeps the first read
// error, so a broken client body is not blamed on the backend.
type bodyReader struct {
	r   io.Reader
	n   int64
	err error
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	b.n += int64(n)
	if err != nil && !errors.Is(err, io.EOF) && b.err == nil {
		b.err = err
	}
	return n, err
}
