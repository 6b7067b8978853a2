package storage

import "errors"

// Lookup errors. Stores return these instead of nil entities so callers can use
// errors.Is, and so a failed client credential check looks exactly like a missing client.
var (
	ErrAccessTokenNotFound  = errors.New("access token not found")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrAuthCodeNotFound     = errors.New("authorization code not found")
	ErrClientNotFound       = errors.New("client not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrScopeNotFound        = errors.New("scope not found")
)

var notFoundErrors = []error{
	ErrAccessTokenNotFound,
	ErrRefreshTokenNotFound,
	ErrAuthCodeNotFound,
	ErrClientNotFound,
	ErrSessionNotFound,
	ErrScopeNotFound,
}

// IsNotFoundError reports whether err is, or wraps, any of the lookup errors.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
