package valkey

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	valkeygo "github.com/valkey-io/valkey-go"

	"github.com/giantswarm/oauth-kv/storage"
)

const (
	// connectionVerifyTimeout is the timeout for initial connection verification
	connectionVerifyTimeout = 5 * time.Second
)

// Config holds configuration for the Valkey storage backend.
type Config struct {
	// Address is the Valkey server address (required), e.g., "localhost:6379"
	Address string

	// Username is the optional ACL user name
	Username string

	// Password is the optional password for Valkey authentication
	Password string

	// DB is the optional database number (default 0)
	DB int

	// KeyPrefix is prepended to all keys (default: none)
	KeyPrefix string

	// TLS is the optional TLS configuration for encrypted connections
	TLS *tls.Config

	// DisableCache turns off client-side caching, which some
	// Redis-compatible servers do not support
	DisableCache bool

	// Logger is the optional structured logger (default: slog.Default())
	Logger *slog.Logger
}

// Store is a Valkey-backed implementation of storage.KeyValue.
type Store struct {
	client valkeygo.Client
	prefix string
	logger *slog.Logger
}

// Compile-time interface check
var _ storage.KeyValue = (*Store)(nil)

// New creates a new Valkey-backed store.
// Returns an error if the connection cannot be established.
func New(cfg Config) (*Store, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("valkey address is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := valkeygo.ClientOption{
		InitAddress:  []string{cfg.Address},
		SelectDB:     cfg.DB,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableCache: cfg.DisableCache,
	}
	if cfg.TLS != nil {
		opts.TLSConfig = cfg.TLS
	}

	client, err := valkeygo.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionVerifyTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}

	logger.Info("Connected to Valkey storage",
		"address", cfg.Address,
		"db", cfg.DB,
		"prefix", cfg.KeyPrefix)

	return &Store{
		client: client,
		prefix: cfg.KeyPrefix,
		logger: logger,
	}, nil
}

// NewWithClient wraps an existing valkey-go client
func NewWithClient(client valkeygo.Client, keyPrefix string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, prefix: keyPrefix, logger: logger}
}

// Close closes the Valkey client connection.
func (s *Store) Close() {
	s.client.Close()
	s.logger.Info("Valkey storage connection closed")
}

// SetLogger sets a custom logger for the store.
func (s *Store) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// key returns the server-side key: {prefix}{key}
func (s *Store) key(k string) string {
	return s.prefix + k
}

// ============================================================
// storage.KeyValue Implementation
// ============================================================

// Get returns the string at key. A missing key is found=false, not an error.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Do(ctx, s.client.B().Get().Key(s.key(key)).Build()).ToString()
	if err != nil {
		if isNilError(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("valkey GET failed: %w", err)
	}
	return value, true, nil
}

// Set stores value at key without expiry
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Do(ctx, s.client.B().Set().Key(s.key(key)).Value(value).Build()).Error(); err != nil {
		return fmt.Errorf("valkey SET failed: %w", err)
	}
	return nil
}

// SAdd adds member to the set at key
func (s *Store) SAdd(ctx context.Context, key, member string) (int64, error) {
	n, err := s.client.Do(ctx, s.client.B().Sadd().Key(s.key(key)).Member(member).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("valkey SADD failed: %w", err)
	}
	return n, nil
}

// SRem removes member from the set at key
func (s *Store) SRem(ctx context.Context, key, member string) (int64, error) {
	n, err := s.client.Do(ctx, s.client.B().Srem().Key(s.key(key)).Member(member).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("valkey SREM failed: %w", err)
	}
	return n, nil
}

// SMembers returns the members of the set at key; a missing set is empty
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.Do(ctx, s.client.B().Smembers().Key(s.key(key)).Build()).AsStrSlice()
	if err != nil {
		if isNilError(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("valkey SMEMBERS failed: %w", err)
	}
	return members, nil
}

// Del removes key
func (s *Store) Del(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Do(ctx, s.client.B().Del().Key(s.key(key)).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("valkey DEL failed: %w", err)
	}
	return n, nil
}

// Incr atomically increments the integer at key
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Do(ctx, s.client.B().Incr().Key(s.key(key)).Build()).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("valkey INCR failed: %w", err)
	}
	return n, nil
}

// isNilError checks if the error is a Valkey nil response (key not found)
func isNilError(err error) bool {
	return valkeygo.IsValkeyNil(err)
}
