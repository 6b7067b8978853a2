// Package storage defines the entities and storage interfaces an OAuth2 authorization
// server uses to persist access tokens, refresh tokens, authorization codes, clients,
// sessions and scopes.
//
// The upstream interfaces (AccessTokenStore, RefreshTokenStore, AuthCodeStore,
// ClientStore, SessionStore, ScopeStore) are what the OAuth2 framework drives. The
// downstream KeyValue interface is the only thing the implementations require from a
// key-value server.
//
// Implementations are provided in subpackages:
//   - storage/kv: entity stores on top of any KeyValue, with a request-scoped read cache
//   - storage/memory: in-process KeyValue for development and testing
//   - storage/valkey: KeyValue backed by valkey-go
//   - storage/goredis: KeyValue backed by go-redis (standalone, sentinel or cluster)
//   - storage/mock: scriptable KeyValue for unit testing
package storage
