package kv

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/giantswarm/oauth-kv/storage"
)

// ScopeStore stores scope definitions under oauth:scopes:<id>
type ScopeStore struct {
	adapter *Adapter
	logger  *slog.Logger
}

var _ storage.ScopeStore = (*ScopeStore)(nil)

// NewScopeStore creates a scope store on top of adapter
func NewScopeStore(adapter *Adapter, logger *slog.Logger) *ScopeStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScopeStore{adapter: adapter, logger: logger}
}

func (s *ScopeStore) Get(ctx context.Context, scope string) (*storage.Scope, error) {
	rec, found, err := getRecord(ctx, s.adapter, scope, NamespaceScopes)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrScopeNotFound
	}
	return scopeFromRecord(rec), nil
}

func (s *ScopeStore) Create(ctx context.Context, scope *storage.Scope) error {
	if scope == nil || scope.ID == "" {
		return fmt.Errorf("scope ID cannot be empty")
	}

	payload := map[string]any{
		"id":          scope.ID,
		"description": scope.Description,
	}
	if err := s.adapter.Set(ctx, scope.ID, NamespaceScopes, payload); err != nil {
		return err
	}

	s.logger.Debug("Saved scope", "scope", scope.ID)
	return nil
}

// Delete removes the scope definition. Association sets still referencing it
// skip it on read.
func (s *ScopeStore) Delete(ctx context.Context, scope string) error {
	if scope == "" {
		return fmt.Errorf("scope ID cannot be empty")
	}
	if err := s.adapter.DeleteKey(ctx, scope, NamespaceScopes); err != nil {
		return err
	}

	s.logger.Debug("Deleted scope", "scope", scope)
	return nil
}
