package kv

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/giantswarm/oauth-kv/instrumentation"
	"github.com/giantswarm/oauth-kv/security"
	"github.com/giantswarm/oauth-kv/storage"
)

// ClientStore stores clients under oauth:clients:<id>, their redirect URIs under
// oauth:client:endpoints:<id> and their allowed grants under oauth:client:grants:<id>.
type ClientStore struct {
	adapter *Adapter
	logger  *slog.Logger
	auditor *security.Auditor

	limitToGrants bool
	limiter       *security.CredentialLimiter
	hashCost      int
}

var _ storage.ClientStore = (*ClientStore)(nil)

// ClientStoreOptions configures client validation
type ClientStoreOptions struct {
	// LimitClientsToGrants rejects lookups whose grant type is not in the
	// client's allowed grants set.
	LimitClientsToGrants bool

	// CredentialLimiter, if set, throttles lookups that carry a secret.
	CredentialLimiter *security.CredentialLimiter

	// SecretHashCost, if positive, makes Create store a bcrypt hash of the
	// secret instead of the secret itself.
	SecretHashCost int
}

// NewClientStore creates a client store on top of adapter
func NewClientStore(adapter *Adapter, logger *slog.Logger, auditor *security.Auditor, opts ClientStoreOptions) *ClientStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientStore{
		adapter:       adapter,
		logger:        logger,
		auditor:       auditor,
		limitToGrants: opts.LimitClientsToGrants,
		limiter:       opts.CredentialLimiter,
		hashCost:      opts.SecretHashCost,
	}
}

// Get retrieves a client and checks whichever of secret, redirectURI and
// grantType were supplied. Every failed check reports ErrClientNotFound.
func (s *ClientStore) Get(ctx context.Context, clientID, secret, redirectURI, grantType string) (*storage.Client, error) {
	ctx, span := s.startSpan(ctx, "client.get")
	defer span.End()
	instrumentation.AddClientAttributes(span, clientID, grantType)

	if secret != "" && s.limiter != nil && !s.limiter.Allow(clientID) {
		s.auditor.LogRateLimitExceeded(clientID)
		return nil, s.reject(ctx, clientID, security.ReasonRateLimited)
	}

	rec, found, err := getRecord(ctx, s.adapter, clientID, NamespaceClients)
	if err != nil {
		instrumentation.RecordError(span, err)
		return nil, err
	}
	if !found {
		return nil, storage.ErrClientNotFound
	}

	var matchedURI string
	if redirectURI != "" {
		matchedURI, err = s.matchRedirectURI(ctx, clientID, redirectURI)
		if err != nil {
			instrumentation.RecordError(span, err)
			return nil, err
		}
	}

	if secret != "" && !security.CompareSecret(secret, rec.str("secret"), rec.str("secret_hash")) {
		return nil, s.reject(ctx, clientID, security.ReasonSecretMismatch)
	}
	if redirectURI != "" && redirectURI != matchedURI {
		return nil, s.reject(ctx, clientID, security.ReasonRedirectURIMismatch)
	}

	if s.limitToGrants && grantType != "" {
		allowed, err := s.grantAllowed(ctx, clientID, grantType)
		if err != nil {
			instrumentation.RecordError(span, err)
			return nil, err
		}
		if !allowed {
			return nil, s.reject(ctx, clientID, security.ReasonGrantNotAllowed)
		}
	}

	instrumentation.SetSpanSuccess(span)
	return &storage.Client{
		ID:          rec.str("id"),
		Secret:      rec.str("secret"),
		Name:        rec.str("name"),
		RedirectURI: matchedURI,
	}, nil
}

// GetBySession retrieves the client a session belongs to, without credential checks
func (s *ClientStore) GetBySession(ctx context.Context, session *storage.Session) (*storage.Client, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}

	rec, found, err := getRecord(ctx, s.adapter, sessionKeyID(session.ID), NamespaceSessions)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrClientNotFound
	}
	return s.Get(ctx, rec.str("client_id"), "", "", "")
}

// Create stores the client record. A non-empty RedirectURI is registered as well.
func (s *ClientStore) Create(ctx context.Context, client *storage.Client) error {
	if client == nil {
		return fmt.Errorf("client cannot be nil")
	}
	if client.ID == "" {
		return fmt.Errorf("client ID cannot be empty")
	}

	payload := map[string]any{
		"id":   client.ID,
		"name": client.Name,
	}
	if s.hashCost > 0 && client.Secret != "" {
		hash, err := security.HashSecret(client.Secret, s.hashCost)
		if err != nil {
			return err
		}
		payload["secret_hash"] = hash
	} else {
		payload["secret"] = client.Secret
	}

	if err := s.adapter.Set(ctx, client.ID, NamespaceClients, payload); err != nil {
		return err
	}
	if client.RedirectURI != "" {
		if err := s.AssociateRedirectURI(ctx, client.ID, client.RedirectURI); err != nil {
			return err
		}
	}

	s.logger.Debug("Saved client", "client_id", client.ID)
	return nil
}

// AssociateRedirectURI registers a redirect URI for the client
func (s *ClientStore) AssociateRedirectURI(ctx context.Context, clientID, redirectURI string) error {
	if clientID == "" || redirectURI == "" {
		return fmt.Errorf("client ID and redirect URI cannot be empty")
	}
	return s.adapter.PushToSet(ctx, clientID, NamespaceClientEndpoints, map[string]any{"redirect_uri": redirectURI})
}

// AssociateGrant adds a grant type to the client's allowed grants
func (s *ClientStore) AssociateGrant(ctx context.Context, clientID, grantType string) error {
	if clientID == "" || grantType == "" {
		return fmt.Errorf("client ID and grant type cannot be empty")
	}
	return s.adapter.PushToSet(ctx, clientID, NamespaceClientGrants, map[string]any{"id": grantType})
}

// Delete removes the client record and its endpoint and grant sets
func (s *ClientStore) Delete(ctx context.Context, clientID string) error {
	if clientID == "" {
		return fmt.Errorf("client ID cannot be empty")
	}
	for _, namespace := range []string{NamespaceClients, NamespaceClientEndpoints, NamespaceClientGrants} {
		if err := s.adapter.DeleteKey(ctx, clientID, namespace); err != nil {
			return err
		}
	}

	s.logger.Debug("Deleted client", "client_id", clientID)
	return nil
}

// matchRedirectURI returns redirectURI if the client registered it, else ""
func (s *ClientStore) matchRedirectURI(ctx context.Context, clientID, redirectURI string) (string, error) {
	result, found, err := s.adapter.FindInSet(ctx, clientID, NamespaceClientEndpoints, func(member any) (any, bool) {
		endpoint, ok := asRecord(member)
		if !ok {
			return nil, false
		}
		uri := endpoint.str("redirect_uri")
		return uri, uri == redirectURI
	})
	if err != nil || !found {
		return "", err
	}
	return result.(string), nil
}

func (s *ClientStore) grantAllowed(ctx context.Context, clientID, grantType string) (bool, error) {
	_, found, err := s.adapter.FindInSet(ctx, clientID, NamespaceClientGrants, func(member any) (any, bool) {
		grant, ok := asRecord(member)
		return nil, ok && grant.str("id") == grantType
	})
	return found, err
}

// reject records a failed validation and returns the error callers see
func (s *ClientStore) reject(ctx context.Context, clientID, reason string) error {
	s.logger.Debug("Client validation failed", "client_id", clientID, "reason", reason)
	s.auditor.LogClientValidationFailed(clientID, reason)
	if inst := s.adapter.instrumentation; inst != nil {
		inst.Metrics().RecordClientValidationFailed(ctx, reason)
	}
	return storage.ErrClientNotFound
}

func (s *ClientStore) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.adapter.startSpan(ctx, name)
}
