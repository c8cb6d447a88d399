package s3

import (
	"context"
	"errors"

	"github.com/aws/smithy-go"

	"github.com/koustreak/bucketgate/internal/errs"
)

// mapError translates an AWS SDK error into a *errs.Error.
func mapError(err error, op string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.KindTimeout, op+" timed out", err)
	}

	// Raised by the SDK's input validation before any request is sent.
	var params smithy.InvalidParamsError
	if errors.As(err, &params) {
		return errs.Wrap(errs.KindInvalidParams, params.Error(), err)
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return errs.Wrap(errs.KindUnavailable, "storage backend unavailable", err)
	}

	code := apiErr.ErrorCode()
	switch code {
	case "NoSuchBucket":
		return errs.NotFound(errs.ResourceBucket, "The specified bucket does not exist", err)
	case "NoSuchKey", "NotFound":
		return errs.NotFound(errs.ResourceObject, "Object not found in the bucket", err)
	case "BucketAlreadyExists", "BucketAlreadyOwnedByYou":
		return errs.Backend(errs.KindAlreadyExists, op, code, apiErr.ErrorMessage(), err)
	case "InvalidBucketName", "KeyTooLongError":
		return errs.Backend(errs.KindInvalidParams, op, code, apiErr.ErrorMessage(), err)
	}

	return errs.Backend(errs.KindClient, op, code, apiErr.ErrorMessage(), err)
}
