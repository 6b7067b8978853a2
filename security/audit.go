package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Auditor handles security event logging with PII protection.
// A nil *Auditor is valid and logs nothing.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates a new security auditor
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		logger:  logger,
		enabled: enabled,
	}
}

// Event represents a security audit event
type Event struct {
	Type      string
	ClientID  string
	OwnerID   string
	Details   map[string]any
	Timestamp time.Time
}

// LogEvent logs a security event with hashed owner identifiers
func (a *Auditor) LogEvent(event Event) {
	if a == nil || !a.enabled {
		return
	}

	event.Timestamp = time.Now()

	a.logger.Info("security_audit",
		"event_type", event.Type,
		"client_id", event.ClientID,
		"owner_id_hash", hashForLogging(event.OwnerID),
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogTokenIssued logs when a token or code is stored for a session
func (a *Auditor) LogTokenIssued(tokenType string, sessionID int64) {
	a.LogEvent(Event{
		Type: EventTokenIssued,
		Details: map[string]any{
			"token_type": tokenType,
			"session_id": sessionID,
		},
	})
}

// LogRefreshTokenIssued logs when a refresh token is stored. Refresh tokens hang off
// an access token rather than a session, so the access token is logged hashed.
func (a *Auditor) LogRefreshTokenIssued(accessTokenID string) {
	a.LogEvent(Event{
		Type: EventTokenIssued,
		Details: map[string]any{
			"token_type":        TokenTypeRefresh,
			"access_token_hash": hashForLogging(accessTokenID),
		},
	})
}

// LogTokenDeleted logs when a token or code is removed
func (a *Auditor) LogTokenDeleted(tokenType string) {
	a.LogEvent(Event{
		Type: EventTokenDeleted,
		Details: map[string]any{
			"token_type": tokenType,
		},
	})
}

// LogSessionCreated logs when a session is created
func (a *Auditor) LogSessionCreated(sessionID int64, clientID, ownerType, ownerID string) {
	a.LogEvent(Event{
		Type:     EventSessionCreated,
		ClientID: clientID,
		OwnerID:  ownerID,
		Details: map[string]any{
			"session_id": sessionID,
			"owner_type": ownerType,
		},
	})
}

// LogClientValidationFailed logs why a client lookup was rejected
func (a *Auditor) LogClientValidationFailed(clientID, reason string) {
	a.LogEvent(Event{
		Type:     EventClientValidationFailed,
		ClientID: clientID,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogRateLimitExceeded logs a client exhausting its credential check budget
func (a *Auditor) LogRateLimitExceeded(clientID string) {
	a.LogEvent(Event{
		Type:     EventRateLimitExceeded,
		ClientID: clientID,
	})
}

// hashForLogging creates a SHA256 hash of sensitive data for logging
func hashForLogging(sensitive string) string {
	if sensitive == "" {
		return "<empty>"
	}
	hash := sha256.Sum256([]byte(sensitive))
	return hex.EncodeToString(hash[:])[:16]
}
