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

// RefreshTokenStore stores refresh tokens under oauth:refresh:tokens:<id>
type RefreshTokenStore struct {
	adapter *Adapter
	logger  *slog.Logger
	auditor *security.Auditor
}

var _ storage.RefreshTokenStore = (*RefreshTokenStore)(nil)

// NewRefreshTokenStore creates a refresh token store on top of adapter
func NewRefreshTokenStore(adapter *Adapter, logger *slog.Logger, auditor *security.Auditor) *RefreshTokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshTokenStore{adapter: adapter, logger: logger, auditor: auditor}
}

func (s *RefreshTokenStore) Get(ctx context.Context, token string) (*storage.RefreshToken, error) {
	rec, found, err := getRecord(ctx, s.adapter, token, NamespaceRefreshTokens)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrRefreshTokenNotFound
	}
	return refreshTokenFromRecord(rec), nil
}

func (s *RefreshTokenStore) Create(ctx context.Context, token string, expireTime time.Time, accessTokenID string) (*storage.RefreshToken, error) {
	if token == "" {
		return nil, fmt.Errorf("refresh token cannot be empty")
	}

	payload := map[string]any{
		"id":              token,
		"expire_time":     unixSeconds(expireTime),
		"access_token_id": accessTokenID,
	}
	if err := s.adapter.Set(ctx, token, NamespaceRefreshTokens, payload); err != nil {
		return nil, err
	}
	if err := s.adapter.PushToSet(ctx, "", NamespaceRefreshTokens, token); err != nil {
		return nil, err
	}

	s.logger.Debug("Saved refresh token",
		"token_prefix", util.SafeTruncate(token, util.IDLogLength),
		"access_token_prefix", util.SafeTruncate(accessTokenID, util.IDLogLength))
	s.auditor.LogRefreshTokenIssued(accessTokenID)

	return refreshTokenFromRecord(record(payload)), nil
}

func (s *RefreshTokenStore) Delete(ctx context.Context, token *storage.RefreshToken) error {
	if token == nil {
		return fmt.Errorf("refresh token cannot be nil")
	}
	if token.ID == "" {
		return fmt.Errorf("refresh token cannot be empty")
	}

	if err := s.adapter.DeleteKey(ctx, token.ID, NamespaceRefreshTokens); err != nil {
		return err
	}
	if err := s.adapter.RemoveFromSet(ctx, "", NamespaceRefreshTokens, token.ID); err != nil {
		return err
	}

	s.logger.Debug("Deleted refresh token", "token_prefix", util.SafeTruncate(token.ID, util.IDLogLength))
	s.auditor.LogTokenDeleted(security.TokenTypeRefresh)
	return nil
}

func refreshTokenFromRecord(rec record) *storage.RefreshToken {
	return &storage.RefreshToken{
		ID:            rec.str("id"),
		ExpireTime:    rec.unixTime("expire_time"),
		AccessTokenID: rec.str("access_token_id"),
	}
}
