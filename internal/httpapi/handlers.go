package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/koustreak/bucketgate/internal/errs"
	"github.com/koustreak/bucketgate/internal/gateway"
)

const (
	msgUploaded      = "File uploaded successfully"
	msgBucketCreated = "Bucket created successfully"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.log.Ctx(r.Context()).Debug("health check endpoint accessed")
	writeMessage(w, s.opts.ServiceName+" is running")
}

// handleReady pings the backend, building the client on first use.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.gw.Ping(r.Context()); err != nil {
		s.log.Ctx(r.Context()).WarnWith("readiness check failed", err, nil)
		writeDetail(w, http.StatusServiceUnavailable, errs.Detail(err))
		return
	}
	writeMessage(w, "ready")
}

// handleUpload accepts a multipart form with bucket_name, object_name and
// file. When both names come before the file, as browsers and most clients
// send them, the file part is streamed to the backend as it arrives with no
// length. A file sent first is spooled until the names are known.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		s.fail(w, r, OpUpload, invalidForm(err))
		return
	}

	var (
		req                    gateway.BucketRequest
		haveBucket, haveObject bool
		buffered               *spool
	)
	defer func() {
		buffered.remove()
	}()

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.fail(w, r, OpUpload, invalidForm(err))
			return
		}

		switch part.FormName() {
		case "bucket_name":
			if req.Bucket, err = readField(part); err != nil {
				s.fail(w, r, OpUpload, err)
				return
			}
			haveBucket = true
		case "object_name":
			if req.Object, err = readField(part); err != nil {
				s.fail(w, r, OpUpload, err)
				return
			}
			haveObject = true
		case "file":
			if buffered != nil {
				break
			}
			if haveBucket && haveObject {
				if err := req.Validate(); err != nil {
					s.fail(w, r, OpUpload, err)
					return
				}
				s.upload(w, r, req, part, -1, part.Header.Get("Content-Type"))
				return
			}
			if buffered, err = spoolPart(part, s.opts.MaxMemory); err != nil {
				s.fail(w, r, OpUpload, err)
				return
			}
		}
		_ = part.Close()
	}

	if err := req.Validate(); err != nil {
		s.fail(w, r, OpUpload, err)
		return
	}
	if buffered == nil {
		s.fail(w, r, OpUpload, errs.Validation("file is required"))
		return
	}
	s.upload(w, r, req, buffered.reader(), buffered.size, buffered.contentType)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request, req gateway.BucketRequest, body io.Reader, size int64, contentType string) {
	in := &bodyReader{r: body}
	if err := s.gw.Upload(r.Context(), req, in, size, contentType); err != nil {
		if in.err != nil {
			err = invalidForm(in.err)
		}
		s.fail(w, r, OpUpload, err)
		return
	}

	s.metrics.Uploaded(in.n)
	writeMessage(w, msgUploaded)
}

// handleDownload streams the object body. The object is closed on every
// path, including a client that disconnects mid-stream.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := gateway.BucketRequest{
		Bucket: q.Get("bucket_name"),
		Object: q.Get("object_name"),
	}

	obj, err := s.gw.Download(r.Context(), req)
	if err != nil {
		s.fail(w, r, OpDownload, err)
		return
	}
	defer obj.Close()

	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	if size := obj.Info().Size; size >= 0 {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, obj)
	s.metrics.Downloaded(n)
	if err != nil {
		// Headers are gone; all that is left is to stop and record it.
		s.log.Ctx(r.Context()).WarnWith("download interrupted", err, map[string]interface{}{
			"bucket":  req.Bucket,
			"object":  req.Object,
			"written": n,
		})
	}
}

func (s *Server) handleCreateBucket(w http.ResponseWriter, r *http.Request) {
	bucket := r.URL.Query().Get("bucket_name")

	if err := s.gw.CreateBucket(r.Context(), bucket); err != nil {
		s.fail(w, r, OpCreateBucket, err)
		return
	}
	writeMessage(w, msgBucketCreated)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op Operation, err error) {
	status, detail := Translate(op, err)
	if errs.IsValidation(err) {
		s.log.Ctx(r.Context()).WarnWith("validation error", err, map[string]interface{}{"op": op.String()})
	}
	writeDetail(w, status, detail)
}
