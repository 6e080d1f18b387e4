package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/danceschool/portal/internal/ui/config"
	"github.com/danceschool/portal/internal/ui/types"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	// refreshTimeout bounds a refresh that carries on after the requests waiting for it have given up
	refreshTimeout = 30 * time.Second

	// outcomeTTL is how long a completed refresh is remembered for requests holding a refresh claim
	outcomeTTL = time.Minute

	// expiryLeeway treats tokens about to expire as expired so they are not rejected by the API mid request
	expiryLeeway = 10 * time.Second
)

// TokenRefresher exchanges a refresh token for new access token details
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*types.AccessTokenDetails, error)
}

// AuthService builds the per request authentication state from the browser cookies
type AuthService struct {
	refresher          TokenRefresher
	environment        string
	resolveWait        time.Duration
	refreshTokenMaxAge time.Duration

	group singleflight.Group

	mu       sync.Mutex
	outcomes map[string]refreshOutcome
	claims   map[string]refreshClaim

	now func() time.Time
}

// refreshClaim is handed to a request that gave up waiting for a refresh, it entitles the next request
// presenting it to that refresh's outcome
type refreshClaim struct {
	refreshToken string
	issued       time.Time
}

// refreshOutcome is the result of a completed refresh, keyed by the refresh token that was exchanged
type refreshOutcome struct {
	details   *types.AccessTokenDetails
	err       error
	completed time.Time
}

// NewAuthService creates the UI authentication service.
//
// resolveWait is how long a request waits for a token refresh before it is given a loading session.
func NewAuthService(refresher TokenRefresher, environment string, resolveWait, refreshTokenMaxAge time.Duration) *AuthService {
	return &AuthService{
		refresher:          refresher,
		environment:        environment,
		resolveWait:        resolveWait,
		refreshTokenMaxAge: refreshTokenMaxAge,
		outcomes:           make(map[string]refreshOutcome),
		claims:             make(map[string]refreshClaim),
		now:                time.Now,
	}
}

// AccessTokenStatus represents the status of an access token used in a UI request
type AccessTokenStatus int

const (
	TokenMissing AccessTokenStatus = iota
	TokenInvalid
	TokenExpired
	TokenValid
)

var tokenStatusNames = []string{"TokenMissing", "TokenInvalid", "TokenExpired", "TokenValid"}

func (t AccessTokenStatus) String() string {
	if t < 0 || int(t) >= len(tokenStatusNames) {
		return fmt.Sprintf("TokenStatus(%d)", int(t))
	}
	return tokenStatusNames[t]
}

// CheckAccessTokenStatus reads the expiry of the access token.
// The signature is not verified here, the API verifies it on every call.
func (a *AuthService) CheckAccessTokenStatus(accessTokenDetails *types.AccessTokenDetails) AccessTokenStatus {
	if accessTokenDetails == nil {
		return TokenMissing
	}

	if accessTokenDetails.AccessToken == "" {
		return TokenInvalid
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := &jwt.RegisteredClaims{}

	_, _, err := parser.ParseUnverified(accessTokenDetails.AccessToken, claims)
	if err != nil {
		return TokenInvalid
	}

	if claims.ExpiresAt == nil {
		return TokenInvalid
	}

	if claims.ExpiresAt.Before(a.now().Add(expiryLeeway)) {
		return TokenExpired
	}

	return TokenValid
}

// AccessTokenDetailsFromCookie decodes the access details cookie. It returns nil, nil when the cookie is absent.
func (a *AuthService) AccessTokenDetailsFromCookie(r *http.Request) (*types.AccessTokenDetails, error) {
	cookie, err := r.Cookie(config.AccessTokenDetailsCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode access token details cookie: %w", err)
	}

	var details types.AccessTokenDetails
	if err := json.Unmarshal(decoded, &details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal access token details cookie: %w", err)
	}

	return &details, nil
}

// SetAuthCookies sets the authentication cookies after a login or a token refresh.
//
// The following cookies are set:
//   - the access details cookie: the access token and account information, without the refresh token
//   - the refresh token cookie, when details carries a refresh token (the API rotates refresh tokens)
func (a *AuthService) SetAuthCookies(w http.ResponseWriter, details *types.AccessTokenDetails) error {
	isProd := a.environment == "prod"

	accessOnly := *details
	accessOnly.RefreshToken = ""

	accessTokenDetailsJSON, err := json.Marshal(accessOnly)
	if err != nil {
		return fmt.Errorf("failed to marshal access token details: %w", err)
	}

	// Base64 encode to avoid cookie encoding issues
	encodedAccessTokenDetails := base64.StdEncoding.EncodeToString(accessTokenDetailsJSON)

	http.SetCookie(w, &http.Cookie{
		Name:     config.AccessTokenDetailsCookieName,
		Value:    encodedAccessTokenDetails,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   details.ExpiresIn,
	})

	if details.RefreshToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     config.RefreshTokenCookieName,
			Value:    details.RefreshToken,
			Path:     "/",
			HttpOnly: true,
			Secure:   isProd,
			SameSite: http.SameSiteStrictMode,
			MaxAge:   int(a.refreshTokenMaxAge / time.Second),
		})
	}

	return nil
}

// ClearAuthCookies clears all authentication-related cookies
func (a *AuthService) ClearAuthCookies(w http.ResponseWriter) {
	isProd := a.environment == "prod"

	for _, name := range []string{config.AccessTokenDetailsCookieName, config.RefreshTokenCookieName, config.RefreshClaimCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   isProd,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
