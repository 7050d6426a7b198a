package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/MrEthical07/provision"
)

const maxBodyBytes = 64 << 10

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Label   string `json:"label,omitempty"`
	Step    string `json:"step,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError renders an engine error as {success:false, error, label}.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeStepError(w, r, err, "")
}

// writeStepError is writeError plus the registration step to resume at.
func (s *Server) writeStepError(w http.ResponseWriter, r *http.Request, err error, step string) {
	label, msg := provision.Describe(err)
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warnw("request failed", "path", r.URL.Path, "label", label, "err", err)
	}
	if wait := provision.RetryAfter(err); wait > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	}
	writeJSON(w, status, errorBody{Error: msg, Label: label, Step: step})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, provision.ErrValidation), errors.Is(err, provision.ErrMismatch):
		return http.StatusBadRequest
	case errors.Is(err, provision.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, provision.ErrAccountIncomplete):
		return http.StatusForbidden
	case errors.Is(err, provision.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, provision.ErrSequenceViolation),
		errors.Is(err, provision.ErrConflict),
		errors.Is(err, provision.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, provision.ErrExpired):
		return http.StatusGone
	case errors.Is(err, provision.ErrRateLimited), errors.Is(err, provision.ErrAttemptsExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, provision.ErrDelivery):
		return http.StatusInternalServerError
	default:
		return http.StatusServiceUnavailable
	}
}

// decode reads a bounded JSON body into v. An empty body leaves v zero.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body.")
		return false
	}
	return true
}
