package goredis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/giantswarm/oauth-kv/storage"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

// Config holds Redis connection configuration
type Config struct {
	// Addrs lists server addresses. One address connects to a single server,
	// several to a cluster; with MasterName set they are Sentinel addresses.
	Addrs []string

	// MasterName selects Sentinel failover mode
	MasterName string

	// Username and Password for ACL authentication (optional)
	Username string
	Password string

	// DB is the database number (ignored in cluster mode)
	DB int

	// TLS enables TLS when non-nil
	TLS *tls.Config

	// KeyPrefix is prepended to every key (default: none)
	KeyPrefix string

	// Timeouts (defaults: Dial=5s, Read=3s, Write=3s)
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Logger (default: slog.Default())
	Logger *slog.Logger
}

// Store implements storage.KeyValue over a go-redis client
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
	logger    *slog.Logger
}

// Compile-time interface check
var _ storage.KeyValue = (*Store)(nil)

// New connects to Redis and verifies the connection with PING
func New(ctx context.Context, cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("at least one redis address is required")
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Addrs,
		MasterName:   cfg.MasterName,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		TLSConfig:    cfg.TLS,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	cfg.Logger.Info("Connected to Redis",
		"addrs", cfg.Addrs,
		"sentinel", cfg.MasterName != "",
		"key_prefix", cfg.KeyPrefix)

	return &Store{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		logger:    cfg.Logger,
	}, nil
}

// NewWithClient wraps a pre-configured client, e.g. one pointed at miniredis
func NewWithClient(client redis.UniversalClient, keyPrefix string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

// Health checks Redis connectivity
func (s *Store) Health(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close closes the client connection
func (s *Store) Close() error {
	s.logger.Info("Closing Redis connection")
	return s.client.Close()
}

func (s *Store) key(k string) string {
	return s.keyPrefix + k
}

// Get returns the string at key; a missing key is found=false
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis GET failed: %w", err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	return nil
}

func (s *Store) SAdd(ctx context.Context, key, member string) (int64, error) {
	n, err := s.client.SAdd(ctx, s.key(key), member).Result()
	if err != nil {
		return 0, fmt.Errorf("redis SADD failed: %w", err)
	}
	return n, nil
}

func (s *Store) SRem(ctx context.Context, key, member string) (int64, error) {
	n, err := s.client.SRem(ctx, s.key(key), member).Result()
	if err != nil {
		return 0, fmt.Errorf("redis SREM failed: %w", err)
	}
	return n, nil
}

func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.key(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis SMEMBERS failed: %w", err)
	}
	return members, nil
}

func (s *Store) Del(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Del(ctx, s.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis DEL failed: %w", err)
	}
	return n, nil
}

func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, s.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis INCR failed: %w", err)
	}
	return n, nil
}
