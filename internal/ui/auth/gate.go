package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/danceschool/portal/internal/apperrors"
	"github.com/danceschool/portal/internal/logger"
	"github.com/danceschool/portal/internal/ui/templates"
	"github.com/danceschool/portal/internal/ui/types"
)

// AuthProvider is the authentication state of the current request.
// The predicates must always return a definite answer.
type AuthProvider interface {
	IsAuthenticated() bool
	// IsLoading is true while the session is still being resolved, IsAuthenticated is not meaningful until it is false.
	IsLoading() bool
	// HasRole reports whether the account has at least one of roles
	HasRole(roles ...types.Role) bool
	HasPermission(permission string) bool
}

// Requirement is the protection attached to a route.
// The zero value only requires an authenticated account.
type Requirement struct {
	Roles      []types.Role
	Permission string
}

// Decision is the outcome of evaluating a Requirement against an AuthProvider
type Decision int

const (
	DecisionLoading Decision = iota
	DecisionRedirectLogin
	DecisionDeniedRole
	DecisionDeniedPermission
	DecisionGranted
)

var decisionNames = []string{"Loading", "RedirectLogin", "DeniedRole", "DeniedPermission", "Granted"}

func (d Decision) String() string {
	if d < 0 || int(d) >= len(decisionNames) {
		return fmt.Sprintf("Decision(%d)", int(d))
	}
	return decisionNames[d]
}

// ErrorCode returns the code logged for decisions that stop the request
func (d Decision) ErrorCode() apperrors.ErrorCode {
	switch d {
	case DecisionRedirectLogin:
		return apperrors.ErrCodeAuthenticationFailure
	case DecisionDeniedRole:
		return apperrors.ErrCodeRoleRequired
	case DecisionDeniedPermission:
		return apperrors.ErrCodePermissionRequired
	default:
		return ""
	}
}

// Decide evaluates req against state. The checks run in order and the first match wins:
// loading, unauthenticated, missing role, missing permission.
// A nil state is treated as unauthenticated.
func Decide(state AuthProvider, req Requirement) Decision {
	if state == nil {
		return DecisionRedirectLogin
	}
	if state.IsLoading() {
		return DecisionLoading
	}
	if !state.IsAuthenticated() {
		return DecisionRedirectLogin
	}
	if len(req.Roles) > 0 && !state.HasRole(req.Roles...) {
		return DecisionDeniedRole
	}
	if req.Permission != "" && !state.HasPermission(req.Permission) {
		return DecisionDeniedPermission
	}
	return DecisionGranted
}

// Gate applies route requirements to requests
type Gate struct {
	retryAfter time.Duration
}

// NewGate creates a Gate. retryAfter is how long the loading page waits before reloading.
func NewGate(retryAfter time.Duration) *Gate {
	if retryAfter <= 0 {
		retryAfter = time.Second
	}
	return &Gate{retryAfter: retryAfter}
}

// Require returns middleware that only calls the next handler when the request's AuthProvider meets req.
//
// The AuthProvider is read from the request context (see ResolveSession), a request without one is treated as unauthenticated.
func (g *Gate) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := logger.ContextRequestLogger(r.Context())
			provider, _ := ContextAuthProvider(r.Context())

			decision := Decide(provider, req)

			switch decision {
			case DecisionGranted:
				next.ServeHTTP(w, r)
			case DecisionLoading:
				reqLogger.Debug("session still resolving - rendering loading page",
					slog.String("component", "ui.Gate"),
				)
				g.renderLoading(w, r)
			case DecisionRedirectLogin:
				reqLogger.Debug("not authenticated - redirecting to login",
					slog.String("component", "ui.Gate"),
				)
				redirectToLogin(w, r)
			case DecisionDeniedRole, DecisionDeniedPermission:
				attrs := []slog.Attr{
					slog.String("error_code", string(decision.ErrorCode())),
				}
				if a, ok := provider.(interface{ AccountID() string }); ok {
					attrs = append(attrs, slog.String("account_id", a.AccountID()))
				}
				logger.ContextWithLogAttrs(r.Context(), attrs...)

				reqLogger.Info("access denied",
					slog.String("component", "ui.Gate"),
					slog.String("decision", decision.String()),
					slog.String("error_code", string(decision.ErrorCode())),
				)
				renderAccessDenied(w, r)
			}
		})
	}
}

func (g *Gate) renderLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Retry-After", strconv.Itoa(max(int(g.retryAfter/time.Second), 1)))

	// htmx requests reload the whole page, which then gets the self refreshing loading page
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusOK)
		return
	}

	retryPath := r.URL.RequestURI()
	if r.Method != http.MethodGet {
		retryPath = r.URL.Path
	}
	templ.Handler(templates.LoadingPage(retryPath, g.retryAfter)).ServeHTTP(w, r)
}

// redirectToLogin redirects to the login page for both HTMX and direct requests.
// A 303 replaces the protected page in the browser history.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// renderAccessDenied shows the same message whichever requirement failed
func renderAccessDenied(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/access-denied")
		w.WriteHeader(http.StatusOK)
		return
	}
	templ.Handler(
		templates.AccessDeniedPage(templates.AccessDeniedMessage),
		templ.WithStatus(http.StatusForbidden),
	).ServeHTTP(w, r)
}
