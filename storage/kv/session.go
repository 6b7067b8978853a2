package kv

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/giantswarm/oauth-kv/instrumentation"
	"github.com/giantswarm/oauth-kv/security"
	"github.com/giantswarm/oauth-kv/storage"
)

// SessionStore stores sessions under oauth:sessions:<id>. Ids come from the
// oauth:session:ids counter.
type SessionStore struct {
	adapter *Adapter
	logger  *slog.Logger
	auditor *security.Auditor
}

var _ storage.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a session store on top of adapter
func NewSessionStore(adapter *Adapter, logger *slog.Logger, auditor *security.Auditor) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{adapter: adapter, logger: logger, auditor: auditor}
}

func (s *SessionStore) Get(ctx context.Context, sessionID int64) (*storage.Session, error) {
	ctx, span := s.adapter.startSpan(ctx, "session.get")
	defer span.End()
	instrumentation.AddSessionAttributes(span, sessionID)

	rec, found, err := getRecord(ctx, s.adapter, sessionKeyID(sessionID), NamespaceSessions)
	if err != nil {
		instrumentation.RecordError(span, err)
		return nil, err
	}
	if !found {
		return nil, storage.ErrSessionNotFound
	}
	return sessionFromRecord(rec), nil
}

// GetByAccessToken follows the stored token's session_id field
func (s *SessionStore) GetByAccessToken(ctx context.Context, token *storage.AccessToken) (*storage.Session, error) {
	if token == nil {
		return nil, fmt.Errorf("access token cannot be nil")
	}
	return s.getVia(ctx, token.ID, NamespaceAccessTokens)
}

// GetByAuthCode follows the stored code's session_id field
func (s *SessionStore) GetByAuthCode(ctx context.Context, code *storage.AuthCode) (*storage.Session, error) {
	if code == nil {
		return nil, fmt.Errorf("authorization code cannot be nil")
	}
	return s.getVia(ctx, code.ID, NamespaceAuthCodes)
}

func (s *SessionStore) getVia(ctx context.Context, id, namespace string) (*storage.Session, error) {
	rec, found, err := getRecord(ctx, s.adapter, id, namespace)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrSessionNotFound
	}
	return s.Get(ctx, rec.int64("session_id"))
}

func (s *SessionStore) GetScopes(ctx context.Context, session *storage.Session) ([]*storage.Scope, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	return resolveScopes(ctx, s.adapter, sessionKeyID(session.ID), NamespaceSessionScopes)
}

// Create allocates an id from the session counter and stores the session under it
func (s *SessionStore) Create(ctx context.Context, ownerType, ownerID, clientID, clientRedirectURI string) (int64, error) {
	ctx, span := s.adapter.startSpan(ctx, "session.create")
	defer span.End()
	instrumentation.AddClientAttributes(span, clientID, "")

	sessionID, err := s.adapter.Increment(ctx, NamespaceSessionIDs)
	if err != nil {
		instrumentation.RecordError(span, err)
		return 0, err
	}
	instrumentation.AddSessionAttributes(span, sessionID)

	payload := map[string]any{
		"id":           sessionID,
		"client_id":    clientID,
		"owner_type":   ownerType,
		"owner_id":     ownerID,
		"redirect_uri": clientRedirectURI,
	}
	if err := s.adapter.Set(ctx, sessionKeyID(sessionID), NamespaceSessions, payload); err != nil {
		instrumentation.RecordError(span, err)
		return 0, err
	}

	s.logger.Debug("Saved session", "session_id", sessionID, "client_id", clientID)
	s.auditor.LogSessionCreated(sessionID, clientID, ownerType, ownerID)
	return sessionID, nil
}

func (s *SessionStore) AssociateScope(ctx context.Context, session *storage.Session, scope *storage.Scope) error {
	if session == nil || scope == nil {
		return fmt.Errorf("session and scope cannot be nil")
	}
	return s.adapter.PushToSet(ctx, sessionKeyID(session.ID), NamespaceSessionScopes, scopeRef(scope.ID))
}

// Delete removes the session record and its scope set. Tokens and codes issued
// for the session are left in place.
func (s *SessionStore) Delete(ctx context.Context, session *storage.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	id := sessionKeyID(session.ID)
	if err := s.adapter.DeleteKey(ctx, id, NamespaceSessions); err != nil {
		return err
	}
	if err := s.adapter.DeleteKey(ctx, id, NamespaceSessionScopes); err != nil {
		return err
	}

	s.logger.Debug("Deleted session", "session_id", session.ID)
	return nil
}

func sessionFromRecord(rec record) *storage.Session {
	return &storage.Session{
		ID:          rec.int64("id"),
		ClientID:    rec.str("client_id"),
		OwnerType:   rec.str("owner_type"),
		OwnerID:     rec.str("owner_id"),
		RedirectURI: rec.str("redirect_uri"),
	}
}
