// Package errs provides the unified error type used across all of bucketgate.
//
// Every storage driver decodes its native errors into *errs.Error exactly once,
// in its mapError function. The gateway and HTTP layers then branch on the
// Kind only, never on backend-specific error codes.
//
// Usage:
//
//	// In a driver, wrap native errors:
//	return errs.NotFound(errs.ResourceObject, "Object not found in the bucket", err)
//
//	// In a handler, check the error kind:
//	if errs.IsNotFound(err) {
//	    writeDetail(w, http.StatusNotFound, errs.Detail(err))
//	}
package errs

import (
	"errors"
	"fmt"
)

// Kind categorises an error without exposing backend-specific codes.
// MinIO and AWS SDK errors are mapped to one of these kinds.
type Kind int

const (
	KindUnknown       Kind = iota
	KindValidation         // empty or whitespace-only identifiers
	KindNotFound           // no such bucket, no such key
	KindAlreadyExists      // bucket already exists / already owned by you
	KindNoCredentials      // static credentials missing
	KindClient             // any other error reported by the backend
	KindInvalidParams      // call parameters rejected by the SDK before sending
	KindTimeout            // context deadline / cancellation
	KindUnavailable        // backend unreachable or failed in an unclassified way
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindNoCredentials:
		return "no_credentials"
	case KindClient:
		return "client_error"
	case KindInvalidParams:
		return "invalid_params"
	case KindTimeout:
		return "timeout"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Resource names what a KindNotFound error refers to.
type Resource string

const (
	ResourceBucket Resource = "bucket"
	ResourceObject Resource = "object"
)

// CredentialsMessage is the detail reported whenever credentials are missing.
const CredentialsMessage = "Credentials not available"

// Error is the single error type returned by all bucketgate subsystems.
// Drivers produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind Kind

	// Message is the human-readable detail shown to HTTP clients.
	Message string

	// Resource is set for KindNotFound.
	Resource Resource

	// Code is the backend's raw error code (e.g. "NoSuchKey"), if any.
	Code string

	Cause error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Validation reports a malformed request.
func Validation(msg string) *Error {
	return New(KindValidation, msg)
}

// NotFound reports a missing bucket or object.
func NotFound(res Resource, msg string, cause error) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Resource: res, Cause: cause}
}

// NoCredentials reports that the static credentials are not available.
func NoCredentials(cause error) *Error {
	return Wrap(KindNoCredentials, CredentialsMessage, cause)
}

// Backend reports an error the backend returned with a code, keeping the
// backend's message verbatim in the detail.
func Backend(kind Kind, op, code, msg string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf("%s failed (%s): %s", op, code, msg),
		Code:    code,
		Cause:   cause,
	}
}

// From returns err as an *Error. Errors that were never classified become
// KindUnavailable so that no failure leaves the gateway untyped.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(KindUnavailable, "storage backend unavailable", err)
}

// --- Predicates ---

// IsValidation reports whether err was caused by a malformed request.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsNotFound reports whether err represents a missing bucket or object.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsAlreadyExists reports whether err represents a bucket that already exists.
func IsAlreadyExists(err error) bool {
	return KindOf(err) == KindAlreadyExists
}

// IsNoCredentials reports whether err was caused by missing credentials.
func IsNoCredentials(err error) bool {
	return KindOf(err) == KindNoCredentials
}

// KindOf extracts the Kind from any error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ResourceOf returns the Resource of a KindNotFound error, or "".
func ResourceOf(err error) Resource {
	var e *Error
	if errors.As(err, &e) {
		return e.Resource
	}
	return ""
}

// Detail returns the client-facing message for err.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
