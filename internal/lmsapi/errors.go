package lmsapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("lms: unauthorized")
	ErrForbidden    = errors.New("lms: forbidden")
	ErrNotFound     = errors.New("lms: not found")
	ErrBadRequest   = errors.New("lms: bad request")
	ErrUnavailable  = errors.New("lms: service unavailable")
)

const fallbackMessage = "An unexpected error occurred"

// APIError is a non-2xx answer from the LMS. It unwraps to the sentinel
// matching its status, so callers can use errors.Is.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lms responded %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status >= 400 && e.Status < 500:
		return ErrBadRequest
	default:
		return ErrUnavailable
	}
}

// newAPIError picks the human-readable message the LMS put in the body,
// trying "message", then "detail", then "error".
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	msg := fallbackMessage
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			msg = payload.Message
		case payload.Detail != "":
			msg = payload.Detail
		case payload.Error != "":
			msg = payload.Error
		}
	}
	return &APIError{Status: status, Message: msg, Body: body}
}
