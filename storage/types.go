package storage

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenTypeBearer is the token type reported for access tokens issued from this storage.
const TokenTypeBearer = "Bearer"

// AccessToken is an issued access token
type AccessToken struct {
	ID         string
	ExpireTime time.Time
	SessionID  int64
}

// Expired reports whether the token has expired at the given instant.
// A zero ExpireTime never expires.
func (t *AccessToken) Expired(now time.Time) bool {
	return !t.ExpireTime.IsZero() && now.After(t.ExpireTime)
}

// OAuth2Token converts the access token, and optionally its refresh token,
// into the shape returned from a token endpoint.
func (t *AccessToken) OAuth2Token(refresh *RefreshToken) *oauth2.Token {
	token := &oauth2.Token{
		AccessToken: t.ID,
		TokenType:   TokenTypeBearer,
		Expiry:      t.ExpireTime,
	}
	if refresh != nil {
		token.RefreshToken = refresh.ID
	}
	return token
}

// RefreshToken is an issued refresh token
type RefreshToken struct {
	ID            string
	ExpireTime    time.Time
	AccessTokenID string
}

// Expired reports whether the token has expired at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.ExpireTime.IsZero() && now.After(t.ExpireTime)
}

// AuthCode is an issued authorization code
type AuthCode struct {
	ID         string
	ExpireTime time.Time
	SessionID  int64
}

// Expired reports whether the code has expired at the given instant.
func (c *AuthCode) Expired(now time.Time) bool {
	return !c.ExpireTime.IsZero() && now.After(c.ExpireTime)
}

// Client is a registered OAuth client.
// RedirectURI is the registered endpoint that matched the lookup, empty if none did.
type Client struct {
	ID          string
	Secret      string
	Name        string
	RedirectURI string
}

// Session binds an owner (for example a user) to a client
type Session struct {
	ID          int64
	ClientID    string
	OwnerType   string
	OwnerID     string
	RedirectURI string
}

// Scope is a named permission
type Scope struct {
	ID          string
	Description string
}
