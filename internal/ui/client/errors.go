package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	// DefaultErrorMessage is used when an error response does not carry a message field
	DefaultErrorMessage = "An error occurred while processing the request"

	// NetworkErrorMessage is used when a transport failure has no message of its own
	NetworkErrorMessage = "Network error"
)

// ClientError represents an error encountered when communicating with the API
// StatusCode 0 = network/connection/parse error, >0 = HTTP response received
type ClientError struct {
	Message    string          `json:"message"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data,omitempty"`
	Err        error           `json:"-"`
}

func (e *ClientError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("api request failed: %s", e.Message)
	}
	return fmt.Sprintf("api status %d: %s", e.StatusCode, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether the request failed before a usable response was received
func (e *ClientError) IsTransport() bool {
	return e.StatusCode == 0
}

// UserError returns a user-friendly message suitable for rendering in the UI
func (e *ClientError) UserError() string {
	switch e.StatusCode {
	case 0:
		return "Unable to reach the school server. Please check your connection and try again."
	case http.StatusUnauthorized:
		return "Your session is not valid. Please log in again."
	case http.StatusForbidden:
		return "You don't have permission to perform this action."
	case http.StatusNotFound:
		return "The requested record was not found."
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		if e.Message != "" && e.Message != DefaultErrorMessage {
			return e.Message
		}
		return "Invalid request. Please check your input and try again."
	case http.StatusTooManyRequests:
		return "Too many requests. Please try again in a few moments."
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return "An error occurred. Please try again."
	}
}

// NewClientConnectionError creates a ClientError for network/connection issues
func NewClientConnectionError(err error) *ClientError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = NetworkErrorMessage
	}
	return &ClientError{
		Message:    msg,
		StatusCode: 0,
		Err:        err,
	}
}

// NewClientInternalError creates a ClientError for local failures, supply the error and an explanation of what was being done when the error occurred
func NewClientInternalError(err error, while string) *ClientError {
	return &ClientError{
		Message:    fmt.Sprintf("%v while %s", err, while),
		StatusCode: 0,
		Err:        err,
	}
}

// NewClientApiError creates a ClientError from a non-2xx response.
// data is the parsed response body, its message field is used when present.
func NewClientApiError(statusCode int, data json.RawMessage) *ClientError {
	var serverErr struct {
		Message string `json:"message"`
	}

	msg := DefaultErrorMessage
	// a body that is not an object (or has a non-string message) just falls back to the default message
	if err := json.Unmarshal(data, &serverErr); err == nil && serverErr.Message != "" {
		msg = serverErr.Message
	}

	return &ClientError{
		Message:    msg,
		StatusCode: statusCode,
		Data:       data,
	}
}
