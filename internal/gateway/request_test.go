package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/koustreak/bucketgate/internal/errs"
)

func TestBucketRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     BucketRequest
		wantErr bool
	}{
		{name: "valid", req: BucketRequest{Bucket: "test-bucket", Object: "test.txt"}},
		{name: "surrounding spaces allowed", req: BucketRequest{Bucket: " b ", Object: " o "}},
		{name: "no naming rules", req: BucketRequest{Bucket: "UPPER_case!", Object: "a/b/c"}},
		{name: "empty bucket", req: BucketRequest{Bucket: "", Object: "test.txt"}, wantErr: true},
		{name: "blank bucket", req: BucketRequest{Bucket: " \t\n", Object: "test.txt"}, wantErr: true},
		{name: "empty object", req: BucketRequest{Bucket: "test-bucket", Object: ""}, wantErr: true},
		{name: "blank object", req: BucketRequest{Bucket: "test-bucket", Object: "   "}, wantErr: true},
		{name: "both blank", req: BucketRequest{Bucket: " ", Object: " "}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.True(t, errs.IsValidation(err))
		})
	}
}

func TestValidateBucketName(t *testing.T) {
	assert.NoError(t, ValidateBucketName("test-bucket"))

	err := ValidateBucketName("  ")
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, "bucket_name must be a non-empty string", errs.Detail(err))
}
