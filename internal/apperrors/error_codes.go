package apperrors

// ErrorCode is a machine readable error classification used in logs and JSON error responses.
type ErrorCode string

const (
	ErrCodeAuthenticationFailure ErrorCode = "authentication_error"
	ErrCodeAuthorizationFailure  ErrorCode = "authorization_error"
	ErrCodeInternalError         ErrorCode = "internal_error"
	ErrCodeInvalidRequest        ErrorCode = "invalid_request"
	ErrCodeInvalidURLParam       ErrorCode = "invalid_url_param"
	ErrCodeMalformedBody         ErrorCode = "malformed_body"
	ErrCodeNetworkError          ErrorCode = "network_error"
	ErrCodePermissionRequired    ErrorCode = "permission_required"
	ErrCodeRateLimitExceeded     ErrorCode = "rate_limit_exceeded"
	ErrCodeRefreshTokenInvalid   ErrorCode = "refresh_token_invalid"
	ErrCodeResourceNotFound      ErrorCode = "resource_not_found"
	ErrCodeRoleRequired          ErrorCode = "role_required"
	ErrCodeTokenInvalid          ErrorCode = "token_invalid"
	ErrCodeUpstreamError         ErrorCode = "upstream_error"
	ErrCodeValidationFailed      ErrorCode = "validation_failed"
)

// ErrorResponse is the JSON body returned by the portal's JSON endpoints.
type ErrorResponse struct {
	ErrorCode ErrorCode `json:"error_code"`
	Message   string    `json:"message"`
}
