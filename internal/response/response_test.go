package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danceschool/portal/internal/apperrors"
)

func TestRespondWithError(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)

	RespondWithError(rr, req, http.StatusTooManyRequests, apperrors.ErrCodeRateLimitExceeded, "Rate limit exceeded")

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("got Content-Type %q", ct)
	}

	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not json: %v", err)
	}
	if body.ErrorCode != apperrors.ErrCodeRateLimitExceeded || body.Message != "Rate limit exceeded" {
		t.Errorf("got body %+v", body)
	}
}

func TestRespondWithJSON(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		payload  any
		wantBody string
	}{
		{name: "object", status: http.StatusOK, payload: map[string]string{"status": "ok"}, wantBody: `{"status":"ok"}`},
		{name: "no content", status: http.StatusNoContent, payload: map[string]string{"ignored": "x"}, wantBody: ""},
		{name: "unmarshalable", status: http.StatusOK, payload: make(chan int), wantBody: "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondWithJSON(rr, tt.status, tt.payload)
			if rr.Body.String() != tt.wantBody {
				t.Errorf("got body %q, want %q", rr.Body.String(), tt.wantBody)
			}
		})
	}
}
