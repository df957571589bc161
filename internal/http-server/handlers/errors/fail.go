package errors

import (
	"net/http"

	"github.com/go-chi/render"

	"MarketChat/entity"
	"MarketChat/internal/lib/api/response"
)

// Fail writes a service error as a JSON envelope with the HTTP status
// matching its kind.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := entity.KindOf(err)
	render.Status(r, statusFor(kind))
	render.JSON(w, r, response.ErrorKind(err.Error(), kind.String()))
}

func statusFor(kind entity.ErrorKind) int {
	switch kind {
	case entity.KindInvalidInput:
		return http.StatusBadRequest
	case entity.KindNotFound:
		return http.StatusNotFound
	case entity.KindUnauthorized:
		return http.StatusForbidden
	case entity.KindConflict:
		return http.StatusConflict
	case entity.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
