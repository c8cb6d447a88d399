package httpapi

import (
	"net/http"

	"github.com/koustreak/bucketgate/internal/errs"
)

// Operation identifies the endpoint an error came from; the same error kind
// maps to different statuses depending on it.
type Operation int

const (
	OpUpload Operation = iota
	OpDownload
	OpCreateBucket
)

func (o Operation) String() string {
	switch o {
	case OpUpload:
		return "upload"
	case OpDownload:
		return "download"
	case OpCreateBucket:
		return "create_bucket"
	default:
		return "unknown"
	}
}

// Translate maps a gateway error to an HTTP status and the detail shown to
// the client. Only downloads report missing resources as 404; uploads and
// bucket creation report every client-side failure as 400.
func Translate(op Operation, err error) (int, string) {
	switch errs.KindOf(err) {
	case errs.KindValidation, errs.KindClient, errs.KindInvalidParams, errs.KindAlreadyExists:
		return http.StatusBadRequest, errs.Detail(err)
	case errs.KindNoCredentials:
		return http.StatusBadRequest, errs.CredentialsMessage
	case errs.KindNotFound:
		if op == OpDownload {
			return http.StatusNotFound, errs.Detail(err)
		}
		return http.StatusBadRequest, errs.Detail(err)
	case errs.KindTimeout:
		return http.StatusGatewayTimeout, errs.Detail(err)
	default:
		return http.StatusBadGateway, "storage backend unavailable"
	}
}
