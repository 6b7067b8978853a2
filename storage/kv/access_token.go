package kv

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/giantswarm/oauth-kv/internal/util"
	"github.com/giantswarm/oauth-kv/security"
	"github.com/giantswarm/oauth-kv/storage"
)

// AccessTokenStore stores access tokens under oauth:access:tokens:<id>
type AccessTokenStore struct {
	adapter *Adapter
	logger  *slog.Logger
	auditor *security.Auditor
}

var _ storage.AccessTokenStore = (*AccessTokenStore)(nil)

// NewAccessTokenStore creates an access token store on top of adapter
func NewAccessTokenStore(adapter *Adapter, logger *slog.Logger, auditor *security.Auditor) *AccessTokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccessTokenStore{adapter: adapter, logger: logger, auditor: auditor}
}

// Get retrieves an access token
func (s *AccessTokenStore) Get(ctx context.Context, token string) (*storage.AccessToken, error) {
	rec, found, err := getRecord(ctx, s.adapter, token, NamespaceAccessTokens)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrAccessTokenNotFound
	}
	return accessTokenFromRecord(rec), nil
}

// GetByRefreshToken follows the refresh token's access_token_id field
func (s *AccessTokenStore) GetByRefreshToken(ctx context.Context, refreshToken *storage.RefreshToken) (*storage.AccessToken, error) {
	if refreshToken == nil {
		return nil, fmt.Errorf("refresh token cannot be nil")
	}

	rec, found, err := getRecord(ctx, s.adapter, refreshToken.ID, NamespaceRefreshTokens)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrAccessTokenNotFound
	}

	accessTokenID := rec.str("access_token_id")
	if accessTokenID == "" {
		return nil, storage.ErrAccessTokenNotFound
	}
	return s.Get(ctx, accessTokenID)
}

// GetScopes returns the scopes associated with the token
func (s *AccessTokenStore) GetScopes(ctx context.Context, token *storage.AccessToken) ([]*storage.Scope, error) {
	if token == nil {
		return nil, fmt.Errorf("access token cannot be nil")
	}
	return resolveScopes(ctx, s.adapter, token.ID, NamespaceAccessTokenScopes)
}

// Create stores a token and adds it to the access token id set
func (s *AccessTokenStore) Create(ctx context.Context, token string, expireTime time.Time, sessionID int64) (*storage.AccessToken, error) {
	if token == "" {
		return nil, fmt.Errorf("access token cannot be empty")
	}

	payload := map[string]any{
		"id":          token,
		"expire_time": unixSeconds(expireTime),
		"session_id":  sessionID,
	}
	if err := s.adapter.Set(ctx, token, NamespaceAccessTokens, payload); err != nil {
		return nil, err
	}
	if err := s.adapter.PushToSet(ctx, "", NamespaceAccessTokens, token); err != nil {
		return nil, err
	}

	s.logger.Debug("Saved access token",
		"token_prefix", util.SafeTruncate(token, util.IDLogLength),
		"session_id", sessionID)
	s.auditor.LogTokenIssued(security.TokenTypeAccess, sessionID)

	return accessTokenFromRecord(record(payload)), nil
}

// AssociateScope adds a scope reference to the token's scope set
func (s *AccessTokenStore) AssociateScope(ctx context.Context, token *storage.AccessToken, scope *storage.Scope) error {
	if token == nil || scope == nil {
		return fmt.Errorf("access token and scope cannot be nil")
	}
	if token.ID == "" {
		return fmt.Errorf("access token cannot be empty")
	}
	return s.adapter.PushToSet(ctx, token.ID, NamespaceAccessTokenScopes, scopeRef(scope.ID))
}

// Delete removes the token record, its id set membership and its scope set
func (s *AccessTokenStore) Delete(ctx context.Context, token *storage.AccessToken) error {
	if token == nil {
		return fmt.Errorf("access token cannot be nil")
	}
	if token.ID == "" {
		return fmt.Errorf("access token cannot be empty")
	}

	if err := s.adapter.DeleteKey(ctx, token.ID, NamespaceAccessTokens); err != nil {
		return err
	}
	if err := s.adapter.RemoveFromSet(ctx, "", NamespaceAccessTokens, token.ID); err != nil {
		return err
	}
	if err := s.adapter.DeleteKey(ctx, token.ID, NamespaceAccessTokenScopes); err != nil {
		return err
	}

	s.logger.Debug("Deleted access token", "token_prefix", util.SafeTruncate(token.ID, util.IDLogLength))
	s.auditor.LogTokenDeleted(security.TokenTypeAccess)
	return nil
}

func accessTokenFromRecord(rec record) *storage.AccessToken {
	return &storage.AccessToken{
		ID:         rec.str("id"),
		ExpireTime: rec.unixTime("expire_time"),
		SessionID:  rec.int64("session_id"),
	}
}
