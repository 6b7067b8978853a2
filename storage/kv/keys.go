package kv

import (
	"strconv"
	"strings"
)

// Namespaces, in logical table form
const (
	NamespaceAccessTokens      = "oauth_access_tokens"
	NamespaceAccessTokenScopes = "oauth_access_token_scopes"
	NamespaceRefreshTokens     = "oauth_refresh_tokens"
	NamespaceAuthCodes         = "oauth_auth_codes"
	NamespaceAuthCodeScopes    = "oauth_auth_code_scopes"
	NamespaceClients           = "oauth_clients"
	NamespaceClientEndpoints   = "oauth_client_endpoints"
	NamespaceClientGrants      = "oauth_client_grants"
	NamespaceSessions          = "oauth_sessions"
	NamespaceSessionScopes     = "oauth_session_scopes"
	NamespaceSessionIDs        = "oauth_session_ids"
	NamespaceScopes            = "oauth_scopes"
)

// Key builds the store key for id in namespace: underscores in the namespace become
// colons, and leading or trailing colons are trimmed so an empty id addresses the
// namespace itself.
//
//	Key("foo", "oauth_access_tokens") // "oauth:access:tokens:foo"
//	Key("", "oauth_session_ids")      // "oauth:session:ids"
func Key(id, namespace string) string {
	return strings.Trim(strings.ReplaceAll(namespace, "_", ":")+":"+id, ":")
}

func sessionKeyID(id int64) string {
	return strconv.FormatInt(id, 10)
}
