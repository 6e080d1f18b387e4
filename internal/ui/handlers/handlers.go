package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/danceschool/portal/internal/apperrors"
	"github.com/danceschool/portal/internal/logger"
	"github.com/danceschool/portal/internal/ui/auth"
	"github.com/danceschool/portal/internal/ui/client"
	"github.com/danceschool/portal/internal/ui/templates"
	"github.com/danceschool/portal/internal/ui/types"
	"github.com/danceschool/portal/internal/utils"
)

// HandlerService holds the dependencies shared by the page handlers.
// Access control is applied by the Gate before these handlers run.
type HandlerService struct {
	AuthService *auth.AuthService
	ApiClient   *client.Client
	Money       *utils.MoneyFormatter
	Environment string
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// render writes a component and logs render failures
func (h *HandlerService) render(w http.ResponseWriter, r *http.Request, status int, component templ.Component) {
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	if err := component.Render(r.Context(), w); err != nil {
		reqLogger := logger.ContextRequestLogger(r.Context())
		reqLogger.Error("Failed to render component", slog.String("error", err.Error()))
	}
}

// RenderError shows an error message.
// HTMX requests get an alert swapped into #error-container (htmx does not swap 4xx/5xx responses by default),
// other requests get a full error page with the supplied status.
func (h *HandlerService) RenderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if isHTMX(r) {
		w.Header().Set("HX-Retarget", "#error-container")
		w.Header().Set("HX-Reswap", "innerHTML")
		h.render(w, r, http.StatusOK, templates.ErrorAlert(message))
		return
	}
	h.render(w, r, status, templates.ErrorPage(navItems(auth.ContextSession(r.Context())), message))
}

// RedirectToLogin redirects to the login page for both HTMX and direct requests
func (h *HandlerService) RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleClientError logs a failed API call and shows the user facing message.
// A 401 from the API means the session was revoked: the cookies are cleared and the user is sent to the login page.
func (h *HandlerService) handleClientError(w http.ResponseWriter, r *http.Request, err error, while string) {
	reqLogger := logger.ContextRequestLogger(r.Context())

	var ce *client.ClientError
	if !errors.As(err, &ce) {
		reqLogger.Error("API call failed",
			slog.String("while", while),
			slog.String("error_code", string(apperrors.ErrCodeInternalError)),
			slog.String("error", err.Error()),
		)
		h.RenderError(w, r, http.StatusInternalServerError, "An error occurred. Please try again.")
		return
	}

	code := errorCode(ce)
	level := slog.LevelWarn
	if code == apperrors.ErrCodeNetworkError || code == apperrors.ErrCodeUpstreamError {
		level = slog.LevelError
	}
	reqLogger.LogAttrs(r.Context(), level, "API call failed",
		slog.String("while", while),
		slog.String("error_code", string(code)),
		slog.Int("api_status", ce.StatusCode),
		slog.String("error", ce.Error()),
	)

	if ce.StatusCode == http.StatusUnauthorized {
		h.AuthService.ClearAuthCookies(w)
		h.RedirectToLogin(w, r)
		return
	}

	h.RenderError(w, r, errorStatus(ce), ce.UserError())
}

// errorCode classifies a failed API call for the logs
func errorCode(ce *client.ClientError) apperrors.ErrorCode {
	switch {
	case ce.IsTransport():
		return apperrors.ErrCodeNetworkError
	case ce.StatusCode == http.StatusUnauthorized:
		return apperrors.ErrCodeAuthenticationFailure
	case ce.StatusCode == http.StatusForbidden:
		return apperrors.ErrCodeAuthorizationFailure
	case ce.StatusCode == http.StatusNotFound:
		return apperrors.ErrCodeResourceNotFound
	case ce.StatusCode >= 400 && ce.StatusCode < 500:
		return apperrors.ErrCodeInvalidRequest
	default:
		return apperrors.ErrCodeUpstreamError
	}
}

// errorStatus is the portal response status for a failed API call
func errorStatus(ce *client.ClientError) int {
	switch {
	case ce.IsTransport(), ce.StatusCode >= 500:
		return http.StatusBadGateway
	case ce.StatusCode >= 400:
		return ce.StatusCode
	default:
		return http.StatusBadGateway
	}
}

// navItems lists the pages the session may open
func navItems(session *auth.Session) []templates.NavItem {
	if !session.IsAuthenticated() {
		return nil
	}
	nav := []templates.NavItem{{Label: "Dashboard", Href: "/dashboard"}}
	if session.HasRole(FinancialRoles...) {
		nav = append(nav, templates.NavItem{Label: "Financial", Href: "/financial"})
	}
	if session.HasPermission(types.PermModalitiesRead) {
		nav = append(nav, templates.NavItem{Label: "Modalities", Href: "/modalities"})
	}
	return nav
}

// FinancialRoles may open the financial summary
var FinancialRoles = []types.Role{types.RoleAdmin, types.RoleFinancial}

func modalityActions(session *auth.Session) templates.ModalityActions {
	return templates.ModalityActions{
		CanWrite:  session.HasPermission(types.PermModalitiesWrite),
		CanDelete: session.HasRole(types.RoleAdmin),
	}
}
