package minio

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeS3 is a path-style S3 endpoint covering what the driver calls. Like
// AWS, it answers a HEAD that misses with an empty 404 and no error code.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]map[string]fakeObject
	uploads map[string]*fakeUpload
	nextID  int

	// partsUploaded counts UploadPart requests.
	partsUploaded int
}

type fakeObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

type fakeUpload struct {
	bucket, key string
	contentType string
	parts       map[int][]byte
}

func newFakeS3(t *testing.T, buckets ...string) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{
		buckets: make(map[string]map[string]fakeObject),
		uploads: make(map[string]*fakeUpload),
	}
	for _, b := range buckets {
		f.buckets[b] = make(map[string]fakeObject)
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	q := r.URL.Query()

	if bucket == "" {
		f.listBuckets(w)
		return
	}
	objects, bucketExists := f.buckets[bucket]

	if key == "" {
		switch r.Method {
		case http.MethodHead:
			if !bucketExists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			if bucketExists {
				writeS3Error(w, http.StatusConflict, "BucketAlreadyOwnedByYou",
					"Your previous request to create the named bucket succeeded and you already own it.")
				return
			}
			f.buckets[bucket] = make(map[string]fakeObject)
			w.WriteHeader(http.StatusOK)
		default:
			writeS3Error(w, http.StatusNotImplemented, "NotImplemented", "not supported by the fake")
		}
		return
	}

	if !bucketExists {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist")
		return
	}

	switch {
	case r.Method == http.MethodHead || r.Method == http.MethodGet:
		obj, ok := objects[key]
		if !ok {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			writeS3Error(w, http.StatusNotFound, "NoSuchKey", "The specified key does not exist.")
			return
		}
		h := w.Header()
		h.Set("Content-Length", strconv.Itoa(len(obj.data)))
		h.Set("Content-Type", obj.contentType)
		h.Set("ETag", etagOf(obj.data))
		h.Set("Last-Modified", obj.modified.UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(obj.data)
		}

	case r.Method == http.MethodPost && q.Has("uploads"):
		f.nextID++
		id := fmt.Sprintf("upload-%d", f.nextID)
		f.uploads[id] = &fakeUpload{bucket: bucket, key: key, contentType: r.Header.Get("Content-Type"), parts: make(map[int][]byte)}
		writeXML(w, struct {
			XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
			Bucket   string
			Key      string
			UploadID string `xml:"UploadId"`
		}{Bucket: bucket, Key: key, UploadID: id})

	case r.Method == http.MethodPut && q.Has("uploadId"):
		up, ok := f.uploads[q.Get("uploadId")]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchUpload", "The specified upload does not exist.")
			return
		}
		n, _ := strconv.Atoi(q.Get("partNumber"))
		data, err := readPayload(r)
		if err != nil {
			writeS3Error(w, http.StatusBadRequest, "IncompleteBody", err.Error())
			return
		}
		up.parts[n] = data
		f.partsUploaded++
		w.Header().Set("ETag", etagOf(data))
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPost && q.Has("uploadId"):
		up, ok := f.uploads[q.Get("uploadId")]
		if !ok {
			writeS3Error(w, http.StatusNotFound, "NoSuchUpload", "The specified upload does not exist.")
			return
		}
		numbers := make([]int, 0, len(up.parts))
		for n := range up.parts {
			numbers = append(numbers, n)
		}
		sort.Ints(numbers)
		var joined bytes.Buffer
		for _, n := range numbers {
			joined.Write(up.parts[n])
		}
		delete(f.uploads, q.Get("uploadId"))
		objects[key] = fakeObject{data: joined.Bytes(), contentType: up.contentType, modified: time.Now()}
		writeXML(w, struct {
			XMLName  xml.Name `xml:"CompleteMultipartUploadResult"`
			Location string
			Bucket   string
			Key      string
			ETag     string
		}{Location: r.URL.Path, Bucket: bucket, Key: key, ETag: etagOf(joined.Bytes())})

	case r.Method == http.MethodDelete && q.Has("uploadId"):
		delete(f.uploads, q.Get("uploadId"))
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodPut:
		data, err := readPayload(r)
		if err != nil {
			writeS3Error(w, http.StatusBadRequest, "IncompleteBody", err.Error())
			return
		}
		objects[key] = fakeObject{data: data, contentType: r.Header.Get("Content-Type"), modified: time.Now()}
		w.Header().Set("ETag", etagOf(data))
		w.WriteHeader(http.StatusOK)

	default:
		writeS3Error(w, http.StatusNotImplemented, "NotImplemented", "not supported by the fake")
	}
}

func (f *fakeS3) listBuckets(w http.ResponseWriter) {
	type bucket struct {
		Name         string
		CreationDate string
	}
	out := struct {
		XMLName xml.Name `xml:"ListAllMyBucketsResult"`
		Buckets struct {
			Bucket []bucket
		}
	}{}
	for name := range f.buckets {
		out.Buckets.Bucket = append(out.Buckets.Bucket, bucket{Name: name, CreationDate: "2024-01-01T00:00:00.000Z"})
	}
	writeXML(w, out)
}

func (f *fakeS3) object(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.buckets[bucket][key]
	return o.data, ok
}

// readPayload decodes an aws-chunked body, which minio-go sends to plain
// http endpoints, or returns the raw body.
func readPayload(r *http.Request) ([]byte, error) {
	if !strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
		return io.ReadAll(r.Body)
	}
	br := bufio.NewReader(r.Body)
	var out bytes.Buffer
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		sizeHex, _, _ := strings.Cut(strings.TrimSpace(line), ";")
		n, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return out.Bytes(), nil
		}
		if _, err := io.CopyN(&out, br, n); err != nil {
			return nil, err
		}
		if _, err := br.Discard(2); err != nil {
			return nil, err
		}
	}
}

func etagOf(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func writeXML(w http.ResponseWriter, v interface{}) {
	body, _ := xml.Marshal(v)
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append([]byte(xml.Header), body...))
}

func writeS3Error(w http.ResponseWriter, status int, code, msg string) {
	body, _ := xml.Marshal(struct {
		XMLName   xml.Name `xml:"Error"`
		Code      string
		Message   string
		RequestID string `xml:"RequestId"`
	}{Code: code, Message: msg, RequestID: "fake"})
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = w.Write(append([]byte(xml.Header), body...))
}
