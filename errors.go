package authclient

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "authclient_invalid_credentials"
	TextCodeTransport          = "authclient_transport_failure"
	TextCodeMissingToken       = "authclient_missing_token"
	TextCodeMissingAuthURL     = "authclient_missing_auth_url"
	TextCodeProfileUnavailable = "authclient_profile_unavailable"
	TextCodeSessionExpired     = "authclient_session_expired"
	TextCodeNoSession          = "authclient_no_session"
	TextCodeTokenInvalid       = "authclient_token_invalid"
	TextCodeInvalidConfig      = "authclient_invalid_config"
	TextCodeStorage            = "authclient_storage_failure"
)

// ErrInvalidCredentials is returned when the login endpoint rejects the
// credentials. The server message, if any, is in the error Message.
var ErrInvalidCredentials = goerrors.New("Invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrTransport is returned when the remote API could not be reached or its
// response could not be read.
var ErrTransport = goerrors.New("failed to reach authentication service", goerrors.CategoryOperation).
	WithTextCode(TextCodeTransport).
	WithCode(goerrors.CodeInternal)

// ErrMissingToken is returned for a success status without a token.
var ErrMissingToken = goerrors.New("authentication response has no token", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMissingToken).
	WithCode(goerrors.CodeBadRequest)

var ErrMissingAuthURL = goerrors.New("authorization url not provided", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMissingAuthURL).
	WithCode(goerrors.CodeBadRequest)

var ErrProfileUnavailable = goerrors.New("user profile unavailable", goerrors.CategoryAuth).
	WithTextCode(TextCodeProfileUnavailable).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionExpired is returned by the token inspector for tokens past their exp claim.
var ErrSessionExpired = goerrors.New("session token expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenInvalid is returned when a stored token fails signature checks.
var ErrTokenInvalid = goerrors.New("session token is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)

var ErrNoSession = goerrors.New("no session stored", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNoSession).
	WithCode(goerrors.CodeNotFound)

// ErrStorage is returned when a Storage backend refuses a write.
var ErrStorage = goerrors.New("session storage unavailable", goerrors.CategoryOperation).
	WithTextCode(TextCodeStorage).
	WithCode(goerrors.CodeInternal)

// NewStorageError wraps a Storage backend failure on key.
func NewStorageError(cause error, key string) *goerrors.Error {
	return withCause(ErrStorage, cause, map[string]any{"key": key})
}

// IsStorageError reports whether err came from a Storage backend.
func IsStorageError(err error) bool {
	return hasTextCode(err, TextCodeStorage)
}

// IsTransportError reports whether err was caused by a failure to reach
// the remote API.
func IsTransportError(err error) bool {
	return hasTextCode(err, TextCodeTransport)
}

// IsCredentialsError reports whether err is a rejected login, including a
// success response that carried no token.
func IsCredentialsError(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials) || hasTextCode(err, TextCodeMissingToken)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

func withCause(base *goerrors.Error, cause error, metadata map[string]any) *goerrors.Error {
	clone := base.Clone()
	clone.Source = cause
	if len(metadata) == 0 {
		return clone
	}
	return clone.WithMetadata(metadata)
}

func withMessage(base *goerrors.Error, message string) *goerrors.Error {
	clone := base.Clone()
	if message != "" {
		clone.Message = message
	}
	return clone
}
