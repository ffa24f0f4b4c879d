package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rhuss/kanzel/pkg/llm"
	"github.com/rhuss/kanzel/pkg/upstream"
)

// Error type constants follow the Chat Completions error envelope.
const (
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeServerError    = "server_error"
	ErrorTypeUpstreamError  = "upstream_error"
)

// APIError is the wire format for error responses.
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorResponse wraps an APIError for serialization.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewInvalidRequestError creates an invalid_request_error for the given
// parameter.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{Type: ErrorTypeInvalidRequest, Message: message, Param: param}
}

// WriteError writes a JSON error response with the given status code.
func WriteError(w http.ResponseWriter, apiErr *APIError, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: apiErr})
}

// writeEngineError maps errors surfaced by the engine to HTTP responses.
// Endpoint and upstream failures are gateway errors; anything else is a
// server error.
func writeEngineError(w http.ResponseWriter, err error) {
	var endpointErr *llm.EndpointError
	if errors.As(err, &endpointErr) {
		status := http.StatusBadGateway
		// Client-side mistakes reported by the endpoint pass through.
		if endpointErr.Status >= 400 && endpointErr.Status < 500 {
			status = endpointErr.Status
		}
		WriteError(w, &APIError{Type: ErrorTypeUpstreamError, Message: endpointErr.Error()}, status)
		return
	}

	var connErr *upstream.ConnectionError
	if errors.As(err, &connErr) {
		WriteError(w, &APIError{Type: ErrorTypeUpstreamError, Message: connErr.Error()}, http.StatusBadGateway)
		return
	}

	var respErr *upstream.ResponseError
	if errors.As(err, &respErr) {
		WriteError(w, &APIError{Type: ErrorTypeUpstreamError, Message: respErr.Error()}, http.StatusBadGateway)
		return
	}

	WriteError(w, &APIError{Type: ErrorTypeServerError, Message: err.Error()}, http.StatusInternalServerError)
}
