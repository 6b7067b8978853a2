package kv

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/giantswarm/oauth-kv/security"
	"github.com/giantswarm/oauth-kv/storage"
)

// AuthCodeStore stores authorization codes under oauth:auth:codes:<id>
type AuthCodeStore struct {
	adapter *Adapter
	logger  *slog.Logger
	auditor *security.Auditor
}

var _ storage.AuthCodeStore = (*AuthCodeStore)(nil)

// NewAuthCodeStore creates an authorization code store on top of adapter
func NewAuthCodeStore(adapter *Adapter, logger *slog.Logger, auditor *security.Auditor) *AuthCodeStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthCodeStore{adapter: adapter, logger: logger, auditor: auditor}
}

func (s *AuthCodeStore) Get(ctx context.Context, code string) (*storage.AuthCode, error) {
	rec, found, err := getRecord(ctx, s.adapter, code, NamespaceAuthCodes)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrAuthCodeNotFound
	}
	return authCodeFromRecord(rec), nil
}

func (s *AuthCodeStore) GetScopes(ctx context.Context, code *storage.AuthCode) ([]*storage.Scope, error) {
	if code == nil {
		return nil, fmt.Errorf("authorization code cannot be nil")
	}
	return resolveScopes(ctx, s.adapter, code.ID, NamespaceAuthCodeScopes)
}

func (s *AuthCodeStore) Create(ctx context.Context, code string, expireTime time.Time, sessionID int64) (*storage.AuthCode, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code cannot be empty")
	}

	payload := map[string]any{
		"id":          code,
		"expire_time": unixSeconds(expireTime),
		"session_id":  sessionID,
	}
	if err := s.adapter.Set(ctx, code, NamespaceAuthCodes, payload); err != nil {
		return nil, err
	}
	if err := s.adapter.PushToSet(ctx, "", NamespaceAuthCodes, code); err != nil {
		return nil, err
	}

	s.logger.Debug("Saved authorization code", "session_id", sessionID)
	s.auditor.LogTokenIssued(security.TokenTypeAuthCode, sessionID)

	return authCodeFromRecord(record(payload)), nil
}

func (s *AuthCodeStore) AssociateScope(ctx context.Context, code *storage.AuthCode, scope *storage.Scope) error {
	if code == nil || scope == nil {
		return fmt.Errorf("authorization code and scope cannot be nil")
	}
	if code.ID == "" {
		return fmt.Errorf("authorization code cannot be empty")
	}
	return s.adapter.PushToSet(ctx, code.ID, NamespaceAuthCodeScopes, scopeRef(scope.ID))
}

func (s *AuthCodeStore) Delete(ctx context.Context, code *storage.AuthCode) error {
	if code == nil {
		return fmt.Errorf("authorization code cannot be nil")
	}
	if code.ID == "" {
		return fmt.Errorf("authorization code cannot be empty")
	}

	if err := s.adapter.DeleteKey(ctx, code.ID, NamespaceAuthCodes); err != nil {
		return err
	}
	if err := s.adapter.RemoveFromSet(ctx, "", NamespaceAuthCodes, code.ID); err != nil {
		return err
	}
	if err := s.adapter.DeleteKey(ctx, code.ID, NamespaceAuthCodeScopes); err != nil {
		return err
	}

	s.logger.Debug("Deleted authorization code")
	s.auditor.LogTokenDeleted(security.TokenTypeAuthCode)
	return nil
}

func authCodeFromRecord(rec record) *storage.AuthCode {
	return &storage.AuthCode{
		ID:         rec.str("id"),
		ExpireTime: rec.unixTime("expire_time"),
		SessionID:  rec.int64("session_id"),
	}
}
