package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danceschool/portal/internal/logger"
	"github.com/go-chi/chi/v5"
)

func TestRateLimit(t *testing.T) {
	tests := []struct {
		name      string
		rps       int32
		burst     int32
		requests  int
		htmx      bool
		wantCodes []int
	}{
		{name: "disabled", rps: 0, burst: 0, requests: 3, wantCodes: []int{200, 200, 200}},
		{name: "burst then reject", rps: 1, burst: 2, requests: 3, wantCodes: []int{200, 200, 429}},
		{name: "htmx rejection rendered as alert", rps: 1, burst: 1, requests: 2, htmx: true, wantCodes: []int{200, 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.Use(RateLimit(tt.rps, tt.burst))
			router.Post("/login", func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("ok"))
			})

			var last *httptest.ResponseRecorder
			for i := 0; i < tt.requests; i++ {
				req := httptest.NewRequest(http.MethodPost, "/login", nil)
				if tt.htmx {
					req.Header.Set("HX-Request", "true")
				}
				rr := httptest.NewRecorder()
				router.ServeHTTP(rr, req)
				if rr.Code != tt.wantCodes[i] {
					t.Errorf("request %d: got status %d, want %d", i+1, rr.Code, tt.wantCodes[i])
				}
				last = rr
			}

			if tt.htmx {
				if last.Header().Get("HX-Retarget") != "#error-container" {
					t.Error("htmx rejection not retargeted to the error container")
				}
				if !strings.Contains(last.Body.String(), "Too many attempts") {
					t.Errorf("got body %q", last.Body.String())
				}
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		environment string
		wantHSTS    bool
	}{
		{environment: "dev"},
		{environment: "staging", wantHSTS: true},
		{environment: "prod", wantHSTS: true},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			handler := SecurityHeaders(tt.environment)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

			if rr.Header().Get("X-Frame-Options") != "DENY" {
				t.Error("X-Frame-Options not set")
			}
			if got := rr.Header().Get("Strict-Transport-Security") != ""; got != tt.wantHSTS {
				t.Errorf("HSTS set = %v, want %v", got, tt.wantHSTS)
			}
		})
	}
}

func TestMethodOverride(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		wantMethod  string
	}{
		{name: "delete", method: http.MethodPost, contentType: "application/x-www-form-urlencoded", body: "_method=DELETE", wantMethod: http.MethodDelete},
		{name: "lower case patch", method: http.MethodPost, contentType: "application/x-www-form-urlencoded", body: "_method=patch&active=true", wantMethod: http.MethodPatch},
		{name: "put with charset", method: http.MethodPost, contentType: "application/x-www-form-urlencoded; charset=utf-8", body: "_method=PUT&name=Tango", wantMethod: http.MethodPut},
		{name: "get is not an override", method: http.MethodPost, contentType: "application/x-www-form-urlencoded", body: "_method=GET", wantMethod: http.MethodPost},
		{name: "no field", method: http.MethodPost, contentType: "application/x-www-form-urlencoded", body: "name=Tango", wantMethod: http.MethodPost},
		{name: "json body ignored", method: http.MethodPost, contentType: "application/json", body: `{"_method":"DELETE"}`, wantMethod: http.MethodPost},
		{name: "only post is overridden", method: http.MethodPut, contentType: "application/x-www-form-urlencoded", body: "_method=DELETE", wantMethod: http.MethodPut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMethod, gotField string
			router := chi.NewRouter()
			router.Use(logger.RequestLogging(slog.New(slog.NewTextHandler(io.Discard, nil))))
			router.Use(MethodOverride)
			router.HandleFunc("/modalities/m1", func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotField = r.FormValue("name")
			})

			req := httptest.NewRequest(tt.method, "/modalities/m1", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if gotMethod != tt.wantMethod {
				t.Errorf("handler saw method %s, want %s", gotMethod, tt.wantMethod)
			}
			if strings.Contains(tt.body, "name=Tango") && gotField != "Tango" {
				t.Errorf("form field lost after override, got %q", gotField)
			}
		})
	}
}
