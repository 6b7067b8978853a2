package storage

import (
	"context"
	"time"
)

// KeyValue is the downstream contract: the small set of string-keyed commands the
// stores need from a Redis-protocol server.
// Get reports found=false for a missing key; it is not an error.
type KeyValue interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	SAdd(ctx context.Context, key, member string) (int64, error)
	SRem(ctx context.Context, key, member string) (int64, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	Del(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// AccessTokenStore persists access tokens and their granted scopes.
// All methods accept context.Context for tracing and cancellation.
type AccessTokenStore interface {
	// Get retrieves an access token by its identifier
	Get(ctx context.Context, token string) (*AccessToken, error)

	// GetByRefreshToken retrieves the access token a refresh token was issued for
	GetByRefreshToken(ctx context.Context, refreshToken *RefreshToken) (*AccessToken, error)

	// GetScopes returns the scopes granted to the token.
	// Associations pointing at scopes that no longer exist are skipped.
	GetScopes(ctx context.Context, token *AccessToken) ([]*Scope, error)

	// Create stores a new access token and registers it in the access token id set
	Create(ctx context.Context, token string, expireTime time.Time, sessionID int64) (*AccessToken, error)

	// AssociateScope grants a scope to the token
	AssociateScope(ctx context.Context, token *AccessToken, scope *Scope) error

	// Delete removes the token, its id set membership and its scope associations.
	// Refresh tokens issued for it are left in place.
	Delete(ctx context.Context, token *AccessToken) error
}

// RefreshTokenStore persists refresh tokens.
type RefreshTokenStore interface {
	// Get retrieves a refresh token by its identifier
	Get(ctx context.Context, token string) (*RefreshToken, error)

	// Create stores a new refresh token linked to an access token
	Create(ctx context.Context, token string, expireTime time.Time, accessTokenID string) (*RefreshToken, error)

	// Delete removes the token and its id set membership
	Delete(ctx context.Context, token *RefreshToken) error
}

// AuthCodeStore persists authorization codes and their requested scopes.
type AuthCodeStore interface {
	Get(ctx context.Context, code string) (*AuthCode, error)
	GetScopes(ctx context.Context, code *AuthCode) ([]*Scope, error)
	Create(ctx context.Context, code string, expireTime time.Time, sessionID int64) (*AuthCode, error)
	AssociateScope(ctx context.Context, code *AuthCode, scope *Scope) error
	Delete(ctx context.Context, code *AuthCode) error
}

// ClientStore looks up and validates registered clients.
type ClientStore interface {
	// Get retrieves a client and validates the supplied credentials.
	// Empty secret, redirectURI or grantType mean "not supplied" and are not checked.
	// A failed check returns ErrClientNotFound, the same as a missing client.
	Get(ctx context.Context, clientID, secret, redirectURI, grantType string) (*Client, error)

	// GetBySession retrieves the client a session was created for
	GetBySession(ctx context.Context, session *Session) (*Client, error)

	// Create stores a client record (id, secret, name)
	Create(ctx context.Context, client *Client) error

	// AssociateRedirectURI registers a redirect URI for a client
	AssociateRedirectURI(ctx context.Context, clientID, redirectURI string) error

	// AssociateGrant allows a client to use a grant type
	AssociateGrant(ctx context.Context, clientID, grantType string) error

	// Delete removes the client record, its redirect URIs and its allowed grants
	Delete(ctx context.Context, clientID string) error
}

// SessionStore persists sessions and their scopes.
type SessionStore interface {
	Get(ctx context.Context, sessionID int64) (*Session, error)
	GetByAccessToken(ctx context.Context, token *AccessToken) (*Session, error)
	GetByAuthCode(ctx context.Context, code *AuthCode) (*Session, error)
	GetScopes(ctx context.Context, session *Session) ([]*Scope, error)

	// Create allocates a new session id from the session counter and stores the session
	Create(ctx context.Context, ownerType, ownerID, clientID, clientRedirectURI string) (int64, error)

	AssociateScope(ctx context.Context, session *Session, scope *Scope) error
	Delete(ctx context.Context, session *Session) error
}

// ScopeStore persists scope definitions.
type ScopeStore interface {
	Get(ctx context.Context, scope string) (*Scope, error)
	Create(ctx context.Context, scope *Scope) error
	Delete(ctx context.Context, scope string) error
}
