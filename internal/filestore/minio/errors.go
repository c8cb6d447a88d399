package minio

import (
	"context"
	"errors"
	"net/http"

	"github.com/koustreak/bucketgate/internal/errs"
	minioErr "github.com/minio/minio-go/v7"
)

// mapError translates a MinIO SDK error into a *errs.Error.
// S3 error codes are checked before HTTP status: NoSuchBucket and NoSuchKey
// share status 404 but must stay distinguishable.
func mapError(err error, op string) *errs.Error {
	if err == nil {
		return nil
	}

	// Context cancellation / deadline
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.KindTimeout, op+" timed out", err)
	}

	var resp minioErr.ErrorResponse
	if !errors.As(err, &resp) {
		// Anything else is a connection or I/O failure
		return errs.Wrap(errs.KindUnavailable, "storage backend unavailable", err)
	}

	switch resp.Code {
	case "NoSuchBucket":
		return errs.NotFound(errs.ResourceBucket, "The specified bucket does not exist", err)
	case "NoSuchKey":
		return errs.NotFound(errs.ResourceObject, "Object not found in the bucket", err)
	case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
		return errs.Backend(errs.KindAlreadyExists, op, resp.Code, resp.Message, err)
	case "InvalidBucketName", "InvalidObjectName", "XMinioInvalidObjectName", "KeyTooLongError":
		return errs.Backend(errs.KindInvalidParams, op, resp.Code, resp.Message, err)
	}

	if resp.Code != "" {
		return errs.Backend(errs.KindClient, op, resp.Code, resp.Message, err)
	}

	// Some responses (HEAD) carry no body, only a status.
	switch resp.StatusCode {
	case http.StatusNotFound:
		return errs.NotFound(errs.ResourceObject, "Object not found in the bucket", err)
	case 0:
		return errs.Wrap(errs.KindUnavailable, "storage backend unavailable", err)
	}
	return errs.Backend(errs.KindClient, op, http.StatusText(resp.StatusCode), resp.Message, err)
}
