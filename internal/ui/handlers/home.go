package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danceschool/portal/internal/apperrors"
	"github.com/danceschool/portal/internal/logger"
	"github.com/danceschool/portal/internal/ui/auth"
	"github.com/danceschool/portal/internal/ui/client"
	"github.com/danceschool/portal/internal/ui/templates"
)

// HandleHome redirects to the dashboard if authenticated, login if not.
// A session that is still loading goes to the dashboard, where the Gate shows the loading page.
func (h *HandlerService) HandleHome(w http.ResponseWriter, r *http.Request) {
	session := auth.ContextSession(r.Context())

	if session.IsAuthenticated() || session.IsLoading() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.RedirectToLogin(w, r)
}

func (h *HandlerService) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if auth.ContextSession(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, templates.LoginPage(""))
}

// HandleLoginPost authenticates the user and adds the authentication cookies to the response
func (h *HandlerService) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	reqLogger := logger.ContextRequestLogger(r.Context())

	if email == "" || password == "" {
		h.renderLoginError(w, r, http.StatusUnprocessableEntity, "Email and password are required.")
		return
	}

	accessTokenDetails, err := h.ApiClient.Login(r.Context(), email, password)
	if err != nil {
		reqLogger.Info("Authentication failed",
			slog.String("error_code", string(apperrors.ErrCodeAuthenticationFailure)),
			slog.String("error", err.Error()),
		)

		message := "An error occurred. Please try again."
		status := http.StatusBadGateway
		var ce *client.ClientError
		if errors.As(err, &ce) {
			message = ce.UserError()
			status = errorStatus(ce)
			if ce.StatusCode == http.StatusUnauthorized || ce.StatusCode == http.StatusBadRequest {
				message = "Invalid email or password."
			}
		}
		h.renderLoginError(w, r, status, message)
		return
	}

	if err := h.AuthService.SetAuthCookies(w, accessTokenDetails); err != nil {
		reqLogger.Error("Failed to set authentication cookies", slog.String("error", err.Error()))
		h.renderLoginError(w, r, http.StatusInternalServerError, "An error occurred. Please try again.")
		return
	}

	// Login successful - add account log attribute to context so it is included in the final request log
	_ = logger.ContextWithLogAttrs(r.Context(),
		slog.String("account_id", accessTokenDetails.AccountID),
	)

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/dashboard")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *HandlerService) renderLoginError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if isHTMX(r) {
		h.render(w, r, http.StatusOK, templates.ErrorAlert(message))
		return
	}
	h.render(w, r, status, templates.LoginPage(message))
}

func (h *HandlerService) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.AuthService.DiscardRefresh(r)
	h.AuthService.ClearAuthCookies(w)
	h.RedirectToLogin(w, r)
}

// HandleAccessDenied renders the page HTMX requests are redirected to when a route requirement is not met
func (h *HandlerService) HandleAccessDenied(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, templates.AccessDeniedPage(templates.AccessDeniedMessage))
}
