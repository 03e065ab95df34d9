package api

import (
	"errors"
	"net/http"

	"github.com/okian/blueprint/internal/domain/failure"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrBodyTooBig = errors.New("request body too large")
)

// Public details for failures whose specifics stay in the logs.
const (
	detailProvider  = "failed to fetch astrology data"
	detailTransport = "failed to send email"
	detailRender    = "failed to render report"
	detailInternal  = "internal error"
)

// errorStatus maps a pipeline error to the status, code and detail a client
// sees. Client-fixable kinds keep their message; upstream and internal
// failures get a fixed detail.
func errorStatus(err error) (int, string, string) {
	kind := failure.KindOf(err)
	switch kind {
	case failure.KindValidation:
		return http.StatusBadRequest, string(kind), unwrapMessage(err)
	case failure.KindParse:
		return http.StatusUnprocessableEntity, string(kind), unwrapMessage(err)
	case failure.KindProvider:
		return http.StatusBadGateway, string(kind), detailProvider
	case failure.KindTransport:
		return http.StatusBadGateway, string(kind), detailTransport
	case failure.KindRender:
		return http.StatusInternalServerError, string(kind), detailRender
	default:
		return http.StatusInternalServerError, string(failure.KindInternal), detailInternal
	}
}

// unwrapMessage returns the message of the classified error without its
// operation prefix.
func unwrapMessage(err error) string {
	var fe *failure.Error
	if errors.As(err, &fe) && fe.Err != nil {
		return fe.Err.Error()
	}
	return err.Error()
}
