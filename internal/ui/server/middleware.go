package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danceschool/portal/internal/apperrors"
	"github.com/danceschool/portal/internal/logger"
	"github.com/danceschool/portal/internal/response"
	"github.com/danceschool/portal/internal/ui/templates"
	"github.com/jub0bs/cors"
	"golang.org/x/time/rate"
)

func CORS(middleware *cors.Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return middleware.Wrap(next)
	}
}

func SecurityHeaders(environment string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// for legacy support
			w.Header().Set("X-Frame-Options", "DENY")

			w.Header().Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none';")

			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if environment == "prod" || environment == "staging" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// methodOverrideField is the form field plain HTML forms use to reach PUT, PATCH and DELETE routes
const methodOverrideField = "_method"

// MethodOverride routes a form POST carrying a _method of PUT, PATCH or DELETE as that method.
// It must run before routing.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			switch method := strings.ToUpper(r.PostFormValue(methodOverrideField)); method {
			case http.MethodPut, http.MethodPatch, http.MethodDelete:
				logger.ContextWithLogAttrs(r.Context(),
					slog.String("method_override", method),
				)
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit limits requests across all clients. A requestsPerSecond of 0 or less disables the limit.
//
// HTMX requests get an error alert so the message is shown in the form, other requests get a JSON error.
func RateLimit(requestsPerSecond int32, burst int32) func(http.Handler) http.Handler {
	if requestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			reqLogger := logger.ContextRequestLogger(r.Context())
			reqLogger.Warn("Rate limit exceeded",
				slog.String("component", "RateLimit"),
				slog.String("remote_addr", r.RemoteAddr),
			)

			// Add context for final request log
			logger.ContextWithLogAttrs(r.Context(),
				slog.String("error_code", string(apperrors.ErrCodeRateLimitExceeded)),
			)

			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Retarget", "#error-container")
				w.Header().Set("HX-Reswap", "innerHTML")
				if err := templates.ErrorAlert("Too many attempts. Please wait a moment and try again.").Render(r.Context(), w); err != nil {
					reqLogger.Error("Failed to render rate limit alert", slog.String("error", err.Error()))
				}
				return
			}

			response.RespondWithError(w, r, http.StatusTooManyRequests,
				apperrors.ErrCodeRateLimitExceeded, "Rate limit exceeded")
		})
	}
}
