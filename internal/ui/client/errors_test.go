package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestNewClientApiError(t *testing.T) {
	tests := []struct {
		name        string
		data        json.RawMessage
		wantMessage string
	}{
		{name: "message present", data: json.RawMessage(`{"message":"Modality already exists"}`), wantMessage: "Modality already exists"},
		{name: "null body", data: json.RawMessage(`null`), wantMessage: DefaultErrorMessage},
		{name: "string body", data: json.RawMessage(`"oops"`), wantMessage: DefaultErrorMessage},
		{name: "object without message", data: json.RawMessage(`{"detail":"x"}`), wantMessage: DefaultErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := NewClientApiError(http.StatusConflict, tt.data)
			if ce.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", ce.Message, tt.wantMessage)
			}
			if ce.StatusCode != http.StatusConflict {
				t.Errorf("StatusCode = %d, want %d", ce.StatusCode, http.StatusConflict)
			}
			if string(ce.Data) != string(tt.data) {
				t.Errorf("Data = %s, want %s", ce.Data, tt.data)
			}
		})
	}
}

func TestClientErrorString(t *testing.T) {
	apiErr := NewClientApiError(http.StatusNotFound, json.RawMessage(`{"message":"Not found"}`))
	if got := apiErr.Error(); got != "api status 404: Not found" {
		t.Errorf("Error() = %q", got)
	}

	cause := errors.New("dial tcp: connection refused")
	connErr := NewClientConnectionError(cause)
	if !strings.Contains(connErr.Error(), "connection refused") {
		t.Errorf("Error() = %q, want the transport cause", connErr.Error())
	}
	if !errors.Is(connErr, cause) {
		t.Error("connection error does not unwrap to its cause")
	}
}

func TestUserError(t *testing.T) {
	tests := []struct {
		name       string
		err        *ClientError
		wantSubstr string
	}{
		{name: "transport", err: NewClientConnectionError(errors.New("refused")), wantSubstr: "Unable to reach"},
		{name: "unauthorized", err: &ClientError{StatusCode: http.StatusUnauthorized}, wantSubstr: "log in again"},
		{name: "forbidden", err: &ClientError{StatusCode: http.StatusForbidden}, wantSubstr: "permission"},
		{name: "not found", err: &ClientError{StatusCode: http.StatusNotFound}, wantSubstr: "not found"},
		{name: "validation with server message", err: &ClientError{StatusCode: http.StatusUnprocessableEntity, Message: "capacity must be positive"}, wantSubstr: "capacity must be positive"},
		{name: "validation with default message", err: &ClientError{StatusCode: http.StatusBadRequest, Message: DefaultErrorMessage}, wantSubstr: "check your input"},
		{name: "rate limited", err: &ClientError{StatusCode: http.StatusTooManyRequests}, wantSubstr: "Too many requests"},
		{name: "server error", err: &ClientError{StatusCode: http.StatusBadGateway}, wantSubstr: "temporarily unavailable"},
		{name: "other", err: &ClientError{StatusCode: http.StatusTeapot}, wantSubstr: "An error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.UserError(); !strings.Contains(got, tt.wantSubstr) {
				t.Errorf("UserError() = %q, want it to contain %q", got, tt.wantSubstr)
			}
		})
	}
}
