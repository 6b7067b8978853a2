package security

// Event type constants for security audit logging.
const (
	// EventTokenIssued is logged when an access token, refresh token or authorization code is stored
	EventTokenIssued = "token_issued"

	// EventTokenDeleted is logged when an access token, refresh token or authorization code is removed
	EventTokenDeleted = "token_deleted"

	// EventSessionCreated is logged when a new session id is allocated
	EventSessionCreated = "session_created"

	// EventClientValidationFailed is logged when a client lookup fails a secret, redirect URI or grant check
	EventClientValidationFailed = "client_validation_failed"

	// EventRateLimitExceeded is logged when a client exhausts its credential check budget
	EventRateLimitExceeded = "rate_limit_exceeded"
)

// Reasons attached to EventClientValidationFailed
const (
	ReasonSecretMismatch      = "secret_mismatch"
	ReasonRedirectURIMismatch = "redirect_uri_mismatch"
	ReasonGrantNotAllowed     = "grant_not_allowed"
	ReasonRateLimited         = "rate_limited"
)

// Token types attached to token events
const (
	TokenTypeAccess   = "access_token"
	TokenTypeRefresh  = "refresh_token"
	TokenTypeAuthCode = "authorization_code"
)
