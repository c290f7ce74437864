package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/dialoguegraph/pkg/errors"
)

type errorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// statusOf maps an error code to an HTTP status.
func statusOf(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeOccupiedSlot, errors.ErrCodeImmutableNode:
		return http.StatusConflict
	case errors.ErrCodeInvalidEdge, errors.ErrCodeInvalidFormat, errors.ErrCodeUnknownReference:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusOf(code)
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed request body")
	}
	return nil
}
