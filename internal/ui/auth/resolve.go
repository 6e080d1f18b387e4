package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danceschool/portal/internal/apperrors"
	"github.com/danceschool/portal/internal/logger"
	"github.com/danceschool/portal/internal/ui/config"
	"github.com/danceschool/portal/internal/ui/types"
	"github.com/google/uuid"
)

// ResolveSession is middleware that adds the request's Session to the context.
//
//   - a valid access token gives an authenticated session
//   - a missing or expired access token with a refresh token cookie starts a token refresh.
//     The request waits up to resolveWait for the refresh, when it takes longer the request gets a loading session
//     and the refresh result is picked up by a later request.
//   - a failed refresh clears the auth cookies and gives an anonymous session
//
// ResolveSession never rejects a request, the Gate decides what the session may access.
func (a *AuthService) ResolveSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := a.resolve(w, r)

		ctx := ContextWithAuthProvider(r.Context(), session)
		if session.IsAuthenticated() {
			logger.ContextWithLogAttrs(ctx,
				slog.String("account_id", session.AccountID()),
				slog.String("role", string(session.Role())),
			)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *AuthService) resolve(w http.ResponseWriter, r *http.Request) *Session {
	reqLogger := logger.ContextRequestLogger(r.Context())

	details, err := a.AccessTokenDetailsFromCookie(r)
	if err != nil {
		reqLogger.Warn("unreadable access details cookie",
			slog.String("component", "ui.ResolveSession"),
			slog.String("error_code", string(apperrors.ErrCodeTokenInvalid)),
			slog.String("error", err.Error()),
		)
	}

	status := a.CheckAccessTokenStatus(details)
	if status == TokenValid {
		return NewSession(details)
	}

	refreshTokenCookie, err := r.Cookie(config.RefreshTokenCookieName)
	if err != nil || refreshTokenCookie.Value == "" {
		if status != TokenMissing {
			a.ClearAuthCookies(w)
		}
		return AnonymousSession()
	}

	reqLogger.Debug("access token not usable - refreshing",
		slog.String("component", "ui.ResolveSession"),
		slog.String("status", status.String()),
	)

	claim := ""
	if c, err := r.Cookie(config.RefreshClaimCookieName); err == nil {
		claim = c.Value
	}

	waitStarted := a.now()
	outcome, done := a.refresh(r.Context(), refreshTokenCookie.Value, claim)
	if !done {
		reqLogger.Debug("token refresh still in progress - returning loading session",
			slog.String("component", "ui.ResolveSession"),
		)
		a.issueClaim(w, refreshTokenCookie.Value, waitStarted)
		return LoadingSession()
	}

	if outcome.err != nil {
		reqLogger.Info("token refresh failed - clearing auth cookies",
			slog.String("component", "ui.ResolveSession"),
			slog.String("error_code", string(apperrors.ErrCodeRefreshTokenInvalid)),
			slog.String("error", outcome.err.Error()),
		)
		a.ClearAuthCookies(w)
		return AnonymousSession()
	}

	if err := a.SetAuthCookies(w, outcome.details); err != nil {
		reqLogger.Error("failed to set authentication cookies after refresh",
			slog.String("component", "ui.ResolveSession"),
			slog.String("error", err.Error()),
		)
		return AnonymousSession()
	}
	if claim != "" {
		a.clearClaimCookie(w)
	}

	reqLogger.Debug("token refresh successful",
		slog.String("component", "ui.ResolveSession"),
	)
	return NewSession(outcome.details)
}

// refresh exchanges refreshToken, sharing one API call between concurrent requests presenting the same token.
//
// A completed refresh is only handed to a later request when it presents a claim issued to a request that was
// still waiting for that refresh. Any other request presenting the old token goes to the API again, which
// rejects it once the token has been rotated.
// done is false when the refresh did not complete within resolveWait or the request was cancelled.
func (a *AuthService) refresh(ctx context.Context, refreshToken, claim string) (refreshOutcome, bool) {
	if outcome, ok := a.redeemClaim(claim, refreshToken); ok {
		return outcome, true
	}

	ch := a.group.DoChan(refreshToken, func() (any, error) {
		// the refresh is not tied to the request that started it
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		details, err := a.refresher.RefreshToken(refreshCtx, refreshToken)
		a.storeOutcome(refreshToken, details, err)
		return details, err
	})

	timer := time.NewTimer(a.resolveWait)
	defer timer.Stop()

	select {
	case res := <-ch:
		details, _ := res.Val.(*types.AccessTokenDetails)
		return refreshOutcome{details: details, err: res.Err}, true
	case <-timer.C:
		return refreshOutcome{}, false
	case <-ctx.Done():
		return refreshOutcome{}, false
	}
}

// issueClaim records that a request started waiting for the refresh of refreshToken at waitStarted
// and gives the browser a one time claim on its outcome.
func (a *AuthService) issueClaim(w http.ResponseWriter, refreshToken string, waitStarted time.Time) {
	claim := uuid.NewString()

	a.mu.Lock()
	a.pruneLocked(a.now())
	a.claims[claim] = refreshClaim{refreshToken: refreshToken, issued: waitStarted}
	a.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     config.RefreshClaimCookieName,
		Value:    claim,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.environment == "prod",
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(outcomeTTL / time.Second),
	})
}

func (a *AuthService) clearClaimCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.RefreshClaimCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.environment == "prod",
		SameSite: http.SameSiteStrictMode,
	})
}

// redeemClaim returns the outcome of the refresh the claim was issued for and consumes the claim
func (a *AuthService) redeemClaim(claim, refreshToken string) (refreshOutcome, bool) {
	if claim == "" {
		return refreshOutcome{}, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := a.claims[claim]
	if !ok || c.refreshToken != refreshToken {
		return refreshOutcome{}, false
	}
	outcome, ok := a.outcomes[refreshToken]
	if !ok || outcome.completed.Before(c.issued) || a.now().Sub(outcome.completed) > outcomeTTL {
		return refreshOutcome{}, false
	}

	delete(a.claims, claim)
	return outcome, true
}

func (a *AuthService) storeOutcome(refreshToken string, details *types.AccessTokenDetails, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	a.pruneLocked(now)
	a.outcomes[refreshToken] = refreshOutcome{details: details, err: err, completed: now}
}

// pruneLocked drops expired outcomes and claims, a.mu must be held
func (a *AuthService) pruneLocked(now time.Time) {
	for token, outcome := range a.outcomes {
		if now.Sub(outcome.completed) > outcomeTTL {
			delete(a.outcomes, token)
		}
	}
	for claim, c := range a.claims {
		if now.Sub(c.issued) > outcomeTTL {
			delete(a.claims, claim)
		}
	}
}

// DiscardRefresh forgets the refresh state linked to the request's cookies: its pending claim,
// the outcome of refreshing its refresh token and the outcome that issued its refresh token.
// Called on logout so a signed out browser cannot pick up a remembered refresh.
func (a *AuthService) DiscardRefresh(r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, err := r.Cookie(config.RefreshClaimCookieName); err == nil {
		if claim, ok := a.claims[c.Value]; ok {
			delete(a.outcomes, claim.refreshToken)
			delete(a.claims, c.Value)
		}
	}

	c, err := r.Cookie(config.RefreshTokenCookieName)
	if err != nil || c.Value == "" {
		return
	}
	delete(a.outcomes, c.Value)
	for token, outcome := range a.outcomes {
		if outcome.details != nil && outcome.details.RefreshToken == c.Value {
			delete(a.outcomes, token)
		}
	}
}
