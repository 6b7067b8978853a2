// Package security provides the security pieces of the oauth-kv storage layer:
// client secret verification, audit logging with PII hashing, and a per-client
// limiter for credential checks.
//
// # Client Secrets
//
// Client records may carry the secret in plain form (field "secret") or as a bcrypt
// hash (field "secret_hash"). CompareSecret handles both and always runs in constant
// time with respect to the supplied secret. HashSecret produces hashes for seeding.
//
// # Audit Logging
//
// The Auditor writes structured slog records under the "security_audit" message.
// Client lookups that fail validation are reported to callers exactly like a missing
// client; the audit log is where the actual reason is recorded.
//
// # Credential Limiting
//
// CredentialLimiter is a token bucket per client id with LRU eviction. When configured
// on the client store, lookups that present a secret consume a token; once the bucket
// is empty the lookup fails without touching the stored secret.
package security
