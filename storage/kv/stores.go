package kv

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/giantswarm/oauth-kv/instrumentation"
	"github.com/giantswarm/oauth-kv/security"
	"github.com/giantswarm/oauth-kv/storage"
)

// Config holds the dependencies shared by every unit of work
type Config struct {
	// Logger is used by the adapter and stores (default: slog.Default())
	Logger *slog.Logger

	// Instrumentation provides tracing and metrics (optional)
	Instrumentation *instrumentation.Instrumentation

	// Auditor receives security events (optional)
	Auditor *security.Auditor

	// LimitClientsToGrants makes client lookups check the client's allowed grants
	LimitClientsToGrants bool

	// CredentialLimiter throttles client lookups carrying a secret (optional)
	CredentialLimiter *security.CredentialLimiter

	// ClientSecretHashCost, if positive, stores new client secrets as bcrypt hashes
	ClientSecretHashCost int
}

// Backend builds request-scoped store bundles over one KeyValue client
type Backend struct {
	client storage.KeyValue
	config Config
}

// Stores is one unit of work: six stores sharing one adapter and its cache.
// Obtain a fresh bundle per request and drop it afterwards.
type Stores struct {
	Adapter *Adapter

	AccessTokens  *AccessTokenStore
	RefreshTokens *RefreshTokenStore
	AuthCodes     *AuthCodeStore
	Clients       *ClientStore
	Sessions      *SessionStore
	Scopes        *ScopeStore
}

// New validates cfg and creates a backend over client
func New(client storage.KeyValue, cfg Config) (*Backend, error) {
	if client == nil {
		return nil, fmt.Errorf("key-value client cannot be nil")
	}
	if cfg.ClientSecretHashCost < 0 {
		return nil, fmt.Errorf("client secret hash cost cannot be negative")
	}
	if err := security.ValidateHashCost(cfg.ClientSecretHashCost); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Backend{client: client, config: cfg}, nil
}

// Stores returns a new bundle with an empty cache
func (b *Backend) Stores() *Stores {
	adapter := NewAdapter(b.client, b.config.Logger, b.config.Instrumentation)
	return newStores(adapter, b.config)
}

// StoresFor returns a new bundle whose logger carries the request id from ctx.
// A request id is generated when ctx has none; the returned context carries it.
func (b *Backend) StoresFor(ctx context.Context) (context.Context, *Stores) {
	ctx, requestID := security.EnsureRequestID(ctx)

	cfg := b.config
	cfg.Logger = cfg.Logger.With("request_id", requestID)

	adapter := NewAdapter(b.client, cfg.Logger, cfg.Instrumentation)
	return ctx, newStores(adapter, cfg)
}

func newStores(adapter *Adapter, cfg Config) *Stores {
	return &Stores{
		Adapter:       adapter,
		AccessTokens:  NewAccessTokenStore(adapter, cfg.Logger, cfg.Auditor),
		RefreshTokens: NewRefreshTokenStore(adapter, cfg.Logger, cfg.Auditor),
		AuthCodes:     NewAuthCodeStore(adapter, cfg.Logger, cfg.Auditor),
		Clients: NewClientStore(adapter, cfg.Logger, cfg.Auditor, ClientStoreOptions{
			LimitClientsToGrants: cfg.LimitClientsToGrants,
			CredentialLimiter:    cfg.CredentialLimiter,
			SecretHashCost:       cfg.ClientSecretHashCost,
		}),
		Sessions: NewSessionStore(adapter, cfg.Logger, cfg.Auditor),
		Scopes:   NewScopeStore(adapter, cfg.Logger),
	}
}
