package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	assert.Equal(t, "[validation] bucket_name must be a non-empty string",
		Validation("bucket_name must be a non-empty string").Error())
	assert.Equal(t, "[unavailable] storage backend unavailable: dial tcp: connection refused",
		Wrap(KindUnavailable, "storage backend unavailable", cause).Error())
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	base := NotFound(ResourceObject, "Object not found in the bucket", nil)
	wrapped := fmt.Errorf("download: %w", base)

	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, ResourceObject, ResourceOf(wrapped))
	assert.Equal(t, "Object not found in the bucket", Detail(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestBackend_KeepsBackendMessage(t *testing.T) {
	err := Backend(KindAlreadyExists, "CreateBucket", "BucketAlreadyExists",
		"The requested bucket name is not available.", nil)

	assert.True(t, IsAlreadyExists(err))
	assert.Equal(t, "BucketAlreadyExists", err.Code)
	assert.Contains(t, err.Message, "BucketAlreadyExists")
	assert.Contains(t, err.Message, "The requested bucket name is not available.")
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	typed := NoCredentials(nil)
	assert.Same(t, typed, From(fmt.Errorf("wrap: %w", typed)))

	raw := errors.New("boom")
	got := From(raw)
	require.NotNil(t, got)
	assert.Equal(t, KindUnavailable, got.Kind)
	assert.ErrorIs(t, got, raw)
}

func TestNoCredentials_Detail(t *testing.T) {
	err := NoCredentials(errors.New("static credentials are empty"))

	assert.True(t, IsNoCredentials(err))
	assert.Equal(t, CredentialsMessage, Detail(err))
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindUnknown:       "unknown",
		KindValidation:    "validation",
		KindNotFound:      "not_found",
		KindAlreadyExists: "already_exists",
		KindNoCredentials: "no_credentials",
		KindClient:        "client_error",
		KindInvalidParams: "invalid_params",
		KindTimeout:       "timeout",
		KindUnavailable:   "unavailable",
	}
	for k, want := range tests {
		assert.Equal(t, want, k.String())
	}
}
