package gateway

import (
	"strings"

	"github.com/koustreak/bucketgate/internal/errs"
)

// BucketRequest names an object inside a bucket.
type BucketRequest struct {
	Bucket string
	Object string
}

// Validate fails when either identifier is empty or whitespace only.
// Bucket naming rules are left to the backend.
func (r BucketRequest) Validate() error {
	if err := ValidateBucketName(r.Bucket); err != nil {
		return err
	}
	if isBlank(r.Object) {
		return errs.Validation("object_name must be a non-empty string")
	}
	return nil
}

// ValidateBucketName applies the same rule to a bucket name alone.
func ValidateBucketName(name string) error {
	if isBlank(name) {
		return errs.Validation("bucket_name must be a non-empty string")
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
