package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danceschool/portal/internal/apperrors"
	"github.com/danceschool/portal/internal/ui/auth"
	"github.com/danceschool/portal/internal/ui/client"
	"github.com/danceschool/portal/internal/ui/types"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *client.ClientError
		want int
	}{
		{name: "transport", err: client.NewClientConnectionError(errors.New("connection refused")), want: http.StatusBadGateway},
		{name: "server error", err: client.NewClientApiError(http.StatusInternalServerError, nil), want: http.StatusBadGateway},
		{name: "not found", err: client.NewClientApiError(http.StatusNotFound, nil), want: http.StatusNotFound},
		{name: "conflict", err: client.NewClientApiError(http.StatusConflict, nil), want: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorStatus(tt.err); got != tt.want {
				t.Errorf("errorStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  *client.ClientError
		want apperrors.ErrorCode
	}{
		{err: client.NewClientConnectionError(errors.New("timeout")), want: apperrors.ErrCodeNetworkError},
		{err: client.NewClientApiError(http.StatusUnauthorized, nil), want: apperrors.ErrCodeAuthenticationFailure},
		{err: client.NewClientApiError(http.StatusForbidden, nil), want: apperrors.ErrCodeAuthorizationFailure},
		{err: client.NewClientApiError(http.StatusNotFound, nil), want: apperrors.ErrCodeResourceNotFound},
		{err: client.NewClientApiError(http.StatusConflict, nil), want: apperrors.ErrCodeInvalidRequest},
		{err: client.NewClientApiError(http.StatusUnprocessableEntity, nil), want: apperrors.ErrCodeInvalidRequest},
		{err: client.NewClientApiError(http.StatusServiceUnavailable, nil), want: apperrors.ErrCodeUpstreamError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := errorCode(tt.err); got != tt.want {
				t.Errorf("errorCode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNavItems(t *testing.T) {
	tests := []struct {
		name    string
		session *auth.Session
		want    []string
	}{
		{name: "anonymous", session: auth.AnonymousSession(), want: nil},
		{name: "loading", session: auth.LoadingSession(), want: nil},
		{name: "student", session: auth.NewSession(&types.AccessTokenDetails{Role: types.RoleStudent}), want: []string{"/dashboard"}},
		{name: "financial", session: auth.NewSession(&types.AccessTokenDetails{Role: types.RoleFinancial}), want: []string{"/dashboard", "/financial"}},
		{name: "secretary with modalities", session: auth.NewSession(&types.AccessTokenDetails{
			Role:        types.RoleSecretary,
			Permissions: []string{types.PermModalitiesRead},
		}), want: []string{"/dashboard", "/modalities"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := navItems(tt.session)
			var got []string
			for _, item := range nav {
				got = append(got, item.Href)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("navItems() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandleClientError(t *testing.T) {
	h := &HandlerService{AuthService: auth.NewAuthService(nil, "test", time.Second, time.Hour)}

	tests := []struct {
		name         string
		htmx         bool
		err          error
		wantStatus   int
		wantLocation string
		wantHeader   map[string]string
		wantBody     string
		wantCleared  bool
	}{
		{
			name:         "unauthorized clears cookies",
			err:          client.NewClientApiError(http.StatusUnauthorized, nil),
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login",
			wantCleared:  true,
		},
		{
			name:        "unauthorized htmx",
			htmx:        true,
			err:         client.NewClientApiError(http.StatusUnauthorized, nil),
			wantStatus:  http.StatusOK,
			wantHeader:  map[string]string{"HX-Redirect": "/login"},
			wantCleared: true,
		},
		{
			name:       "network failure page",
			err:        client.NewClientConnectionError(errors.New("dial tcp: connection refused")),
			wantStatus: http.StatusBadGateway,
			wantBody:   "Unable to reach the school server",
		},
		{
			name:       "htmx error is retargeted",
			htmx:       true,
			err:        client.NewClientApiError(http.StatusNotFound, nil),
			wantStatus: http.StatusOK,
			wantHeader: map[string]string{"HX-Retarget": "#error-container", "HX-Reswap": "innerHTML"},
			wantBody:   "The requested record was not found.",
		},
		{
			name:       "non client error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "An error occurred. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/modalities", nil)
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			rr := httptest.NewRecorder()

			h.handleClientError(rr, req, tt.err, "testing")

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantLocation != "" && rr.Header().Get("Location") != tt.wantLocation {
				t.Errorf("Location = %q, want %q", rr.Header().Get("Location"), tt.wantLocation)
			}
			for k, v := range tt.wantHeader {
				if got := rr.Header().Get(k); got != v {
					t.Errorf("%s = %q, want %q", k, got, v)
				}
			}
			if tt.wantBody != "" && !strings.Contains(rr.Body.String(), tt.wantBody) {
				t.Errorf("body does not contain %q: %s", tt.wantBody, rr.Body.String())
			}

			cleared := false
			for _, c := range rr.Result().Cookies() {
				if c.MaxAge < 0 {
					cleared = true
				}
			}
			if cleared != tt.wantCleared {
				t.Errorf("cookies cleared = %v, want %v", cleared, tt.wantCleared)
			}
		})
	}
}
