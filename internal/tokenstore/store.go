// Package tokenstore persists the session token under a fixed key. Three
// backends share one contract: Memory for tests and one-shot runs, File for
// the terminal host, and Redis when several hosts share a session.
package tokenstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"viacarona/internal/platform/config"
	"viacarona/internal/platform/metrics"
	redisclient "viacarona/internal/platform/redis"
)

// AuthTokenKey is the key the onboarding flow writes the session token to.
const AuthTokenKey = "@auth_token"

// Store is a string key-value store. Get returns sentinel.ErrNotFound for a
// missing key.
type Store interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New builds the backend selected by cfg. The caller owns closing the returned
// closer, which is a no-op for backends without resources.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (Store, func() error, error) {
	noop := func() error { return nil }

	var (
		store   Store
		closeFn = noop
	)
	switch cfg.Tokens.Backend {
	case config.TokenBackendMemory:
		store = NewMemory()
	case config.TokenBackendFile:
		store = NewFile(cfg.Tokens.File)
	case config.TokenBackendRedis:
		client, err := redisclient.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect token redis: %w", err)
		}
		if client == nil {
			return nil, nil, fmt.Errorf("redis backend selected without redis.url")
		}
		store = NewRedis(client.Client)
		closeFn = client.Close
	default:
		return nil, nil, fmt.Errorf("unknown token backend %q", cfg.Tokens.Backend)
	}
	return Instrument(store, strings.ToLower(cfg.Tokens.Backend), logger, m), closeFn, nil
}

// Instrument wraps s so every write is logged and counted by backend.
func Instrument(s Store, backend string, logger *slog.Logger, m *metrics.Metrics) Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &instrumented{Store: s, backend: backend, logger: logger, metrics: m}
}

type instrumented struct {
	Store
	backend string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func (s *instrumented) Set(ctx context.Context, key, value string) error {
	if err := s.Store.Set(ctx, key, value); err != nil {
		s.metrics.IncrementTokenWrites(s.backend, "error")
		s.logger.ErrorContext(ctx, "token write failed", "backend", s.backend, "key", key, "error", err)
		return err
	}
	s.metrics.IncrementTokenWrites(s.backend, "ok")
	s.logger.DebugContext(ctx, "token stored", "backend", s.backend, "key", key)
	return nil
}
