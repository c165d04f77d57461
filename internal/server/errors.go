package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	errs "github.com/matzehuels/scenebox/pkg/errors"
)

// errorResponse is the JSON body of every failed request.
//
//	{"error": {"code": "INVALID_RELATION", "message": "...", "request_id": "..."}}
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps an error to an HTTP status and a wire code.
func statusFor(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "CANCELED"
	}

	code := errs.GetCode(err)
	switch code {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidPath, errs.ErrCodeInvalidColor:
		return http.StatusBadRequest, string(code)
	case errs.ErrCodeInvalidScene, errs.ErrCodeInvalidRelation, errs.ErrCodeLayoutFailed, errs.ErrCodeFileNotFound:
		return http.StatusUnprocessableEntity, string(code)
	case errs.ErrCodeNotFound:
		return http.StatusNotFound, string(code)
	case errs.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType, string(code)
	case "":
		return http.StatusInternalServerError, string(errs.ErrCodeInternal)
	}
	return http.StatusInternalServerError, string(code)
}

// fail logs err and writes it as a JSON error response. Messages of
// uncoded internal errors are not sent to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := errs.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestID(r.Context()), "code", code, "err", err)
		if errs.GetCode(err) == "" {
			msg = http.StatusText(status)
		}
	} else {
		s.logger.Debug("request rejected", "id", RequestID(r.Context()), "code", code, "err", err)
	}
	writeError(w, r, status, code, msg)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{
		Code:      code,
		Message:   msg,
		RequestID: RequestID(r.Context()),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
