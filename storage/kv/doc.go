// Package kv maps OAuth2 entities onto a Redis-protocol key-value store.
//
// The Adapter is the generic layer: prefixed keys, JSON values, set operations, an
// atomic counter and a read cache. The six entity stores (AccessTokenStore,
// RefreshTokenStore, AuthCodeStore, ClientStore, SessionStore, ScopeStore) are thin
// mappings on top of one shared Adapter.
//
// # Key Schema
//
// A namespace is a logical table name; underscores become colons and the record id
// is appended. Empty ids (counters and "all ids" sets) drop the trailing colon.
//
//	oauth:access:tokens:{id}          -> JSON{id, expire_time, session_id}
//	oauth:access:tokens               -> SET of access token ids
//	oauth:access:token:scopes:{id}    -> SET of JSON{id}
//	oauth:refresh:tokens:{id}         -> JSON{id, expire_time, access_token_id}
//	oauth:refresh:tokens              -> SET of refresh token ids
//	oauth:auth:codes:{id}             -> JSON{id, expire_time, session_id}
//	oauth:auth:codes                  -> SET of authorization code ids
//	oauth:auth:code:scopes:{id}       -> SET of JSON{id}
//	oauth:clients:{id}                -> JSON{id, secret|secret_hash, name}
//	oauth:client:endpoints:{id}       -> SET of JSON{redirect_uri}
//	oauth:client:grants:{id}          -> SET of JSON{id}
//	oauth:sessions:{id}               -> JSON{id, client_id, owner_type, owner_id, redirect_uri}
//	oauth:session:scopes:{id}         -> SET of JSON{id}
//	oauth:session:ids                 -> counter
//	oauth:scopes:{id}                 -> JSON{id, description}
//
// # Request Scope
//
// The read cache has no eviction and no expiry. It exists so that a create followed
// by an associate, or two lookups of the same client in one request, cost a single
// round trip. Obtain a fresh set of stores from Backend.Stores for every request and
// drop it afterwards; never share one across concurrent callers.
//
//	backend, err := kv.New(valkeyStore, kv.Config{LimitClientsToGrants: true})
//	...
//	stores := backend.Stores() // per request
//	client, err := stores.Clients.Get(ctx, id, secret, redirectURI, "authorization_code")
//	if storage.IsNotFoundError(err) {
//	    // missing or failed validation; the audit log says which
//	}
//
// # Consistency
//
// Writes that touch two keys (record plus id set, record plus association set) are
// two independent commands. A failure between them leaves the pair inconsistent;
// readers tolerate this by skipping association entries whose record is gone.
package kv
