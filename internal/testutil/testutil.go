package testutil

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/giantswarm/oauth-kv/storage"
)

// Clock is a manually advanced clock for expiry checks
type Clock struct {
	now time.Time
}

// NewClock returns a clock stopped at start, truncated to whole seconds
func NewClock(start time.Time) *Clock {
	return &Clock{now: start.Truncate(time.Second)}
}

// Now returns the clock's current time
func (c *Clock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// ExpiresIn returns an expiry d from the clock's current time. Whole-second
// durations survive the unix-seconds round trip unchanged.
func (c *Clock) ExpiresIn(d time.Duration) time.Time {
	return c.now.Add(d)
}

// ExpireTime is a fixed, second-precision expiry used by fixtures so that
// values survive the unix-seconds round trip unchanged.
var ExpireTime = time.Unix(1893456000, 0) // 2030-01-01T00:00:00Z

// DiscardLogger returns a logger that drops everything
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// GenerateRandomString generates a random URL-safe string of the given length
func GenerateRandomString(length int) string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to generate random string: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length]
}

// GenerateTestClient creates a client with a random id and secret registered
// for redirectURI
func GenerateTestClient(redirectURI string) *storage.Client {
	return &storage.Client{
		ID:          "test-client-" + GenerateRandomString(8),
		Secret:      GenerateRandomString(24),
		Name:        "Test Client",
		RedirectURI: redirectURI,
	}
}

// GenerateTestScope creates a scope with the given id
func GenerateTestScope(id string) *storage.Scope {
	return &storage.Scope{
		ID:          id,
		Description: "Grants " + id,
	}
}

// ScopeIDs returns the ids of scopes in order
func ScopeIDs(scopes []*storage.Scope) []string {
	ids := make([]string, 0, len(scopes))
	for _, s := range scopes {
		ids = append(ids, s.ID)
	}
	return ids
}

// AssertNotFound fails the test unless err is one of the storage lookup errors
func AssertNotFound(t *testing.T, err error) {
	t.Helper()
	if !storage.IsNotFoundError(err) {
		t.Fatalf("expected not found error, got: %v", err)
	}
}
