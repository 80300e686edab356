package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hongminglow/squeak-be/internal/http/respond"
	"github.com/hongminglow/squeak-be/internal/service"
)

// statusFor maps a service error to an HTTP status. Login reports bad
// credentials as 400 so clients can show the message inline.
func statusFor(err error, login bool) int {
	switch service.KindOf(err) {
	case service.KindInvalid:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		if login {
			return http.StatusBadRequest
		}
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusUnauthorized
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	respond.Error(w, statusFor(err, false), service.MessageOf(err))
}

// decodeOptional decodes a JSON body into dst. An empty body is not an error.
func decodeOptional(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
