package auth

import (
	"slices"

	"github.com/danceschool/portal/internal/ui/types"
)

// Session is the AuthProvider built by ResolveSession
type Session struct {
	loading bool
	details *types.AccessTokenDetails
}

// AnonymousSession is the state of a request without usable credentials
func AnonymousSession() *Session {
	return &Session{}
}

// LoadingSession is the state of a request whose token refresh has not finished yet
func LoadingSession() *Session {
	return &Session{loading: true}
}

// NewSession creates an authenticated session
func NewSession(details *types.AccessTokenDetails) *Session {
	if details == nil {
		return AnonymousSession()
	}
	return &Session{details: details}
}

func (s *Session) IsLoading() bool {
	return s != nil && s.loading
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && !s.loading && s.details != nil
}

func (s *Session) HasRole(roles ...types.Role) bool {
	if !s.IsAuthenticated() {
		return false
	}
	return slices.Contains(roles, s.details.Role)
}

func (s *Session) HasPermission(permission string) bool {
	if !s.IsAuthenticated() {
		return false
	}
	return slices.Contains(s.details.Permissions, permission)
}

func (s *Session) AccountID() string {
	if !s.IsAuthenticated() {
		return ""
	}
	return s.details.AccountID
}

func (s *Session) Name() string {
	if !s.IsAuthenticated() {
		return ""
	}
	return s.details.Name
}

func (s *Session) Role() types.Role {
	if !s.IsAuthenticated() {
		return ""
	}
	return s.details.Role
}

// AccessToken is the bearer token used for API calls made on behalf of the account
func (s *Session) AccessToken() string {
	if !s.IsAuthenticated() {
		return ""
	}
	return s.details.AccessToken
}
