// Copyright 2025, the Agora contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"codeberg.org/agora/agora/server/request_context"
)

// HTTPError is an error that carries the status code it should be reported
// with. Handlers return it for client mistakes; any other error is a 500.
type HTTPError struct {
	StatusCode int
	Err        error
}

// NewHTTPError formats an HTTPError with the given status.
func NewHTTPError(statusCode int, format string, args ...any) *HTTPError {
	return &HTTPError{StatusCode: statusCode, Err: fmt.Errorf(format, args...)}
}

func (e *HTTPError) Error() string {
	return e.Err.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// StatusCodeOf returns the status an error should be reported with.
func StatusCodeOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	return http.StatusInternalServerError
}

// ErrorData is the body of every error response.
type ErrorData struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorPage writes the error stored in the request context as JSON, using
// the status code stored alongside it.
//
// Messages of internal errors are not exposed to the client.
func ErrorPage(w http.ResponseWriter, r *http.Request) {
	ctx := request_context.FromRequest(r)

	message := http.StatusText(ctx.StatusCode)

	var httpErr *HTTPError
	if errors.As(ctx.RequestError, &httpErr) {
		message = httpErr.Error()
	}

	writeJSON(w, ctx.StatusCode, ErrorData{
		Error:     message,
		Status:    ctx.StatusCode,
		RequestID: ctx.RequestID,
	})
}

// writeJSON sets the JSON headers, writes statusCode and encodes data.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(data)
}
