package tokenstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"viacarona/internal/platform/config"
	"viacarona/internal/platform/logger"
	"viacarona/internal/platform/metrics"
	"viacarona/pkg/platform/sentinel"
)

// contractSuite runs the Store contract against one backend.
type contractSuite struct {
	suite.Suite
	newStore func(t *testing.T) Store
	store    Store
}

func (s *contractSuite) SetupTest() {
	s.store = s.newStore(s.T())
}

func (s *contractSuite) TestSetThenGet() {
	ctx := context.Background()
	s.Require().NoError(s.store.Set(ctx, AuthTokenKey, "session-1"))

	v, err := s.store.Get(ctx, AuthTokenKey)
	s.Require().NoError(err)
	s.Equal("session-1", v)
}

func (s *contractSuite) TestOverwrite() {
	ctx := context.Background()
	s.Require().NoError(s.store.Set(ctx, AuthTokenKey, "old"))
	s.Require().NoError(s.store.Set(ctx, AuthTokenKey, "new"))

	v, err := s.store.Get(ctx, AuthTokenKey)
	s.Require().NoError(err)
	s.Equal("new", v)
}

func (s *contractSuite) TestMissingKey() {
	_, err := s.store.Get(context.Background(), "absent")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *contractSuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.store.Set(ctx, AuthTokenKey, "session-1"))
	s.Require().NoError(s.store.Delete(ctx, AuthTokenKey))
	s.Require().NoError(s.store.Delete(ctx, AuthTokenKey), "deleting twice is fine")

	_, err := s.store.Get(ctx, AuthTokenKey)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &contractSuite{newStore: func(*testing.T) Store { return NewMemory() }})
}

func TestFileStore(t *testing.T) {
	suite.Run(t, &contractSuite{newStore: func(t *testing.T) Store {
		return NewFile(filepath.Join(t.TempDir(), "tokens.json"))
	}})
}

func TestFileStore_PermissionsAndPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	ctx := context.Background()

	require.NoError(t, NewFile(path).Set(ctx, AuthTokenKey, "session-1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	v, err := NewFile(path).Get(ctx, AuthTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "session-1", v, "a fresh store reads what an earlier one wrote")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	err := NewFile(path).Set(context.Background(), AuthTokenKey, "x")
	assert.ErrorContains(t, err, "decode token file")
}

type failingStore struct{ Memory }

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestInstrument_CountsWrites(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	ctx := context.Background()

	ok := Instrument(NewMemory(), "memory", logger.Discard(), m)
	require.NoError(t, ok.Set(ctx, AuthTokenKey, "t"))

	bad := Instrument(&failingStore{}, "file", logger.Discard(), m)
	assert.Error(t, bad.Set(ctx, AuthTokenKey, "t"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenWrites.WithLabelValues("memory", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenWrites.WithLabelValues("file", "error")))
}

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Tokens: config.TokensConfig{Backend: config.TokenBackendMemory}}

	store, closeFn, err := New(ctx, cfg, logger.Discard(), nil)
	require.NoError(t, err)
	defer closeFn()
	require.NoError(t, store.Set(ctx, AuthTokenKey, "t"))

	cfg.Tokens = config.TokensConfig{Backend: config.TokenBackendFile, File: filepath.Join(t.TempDir(), "t.json")}
	_, _, err = New(ctx, cfg, logger.Discard(), nil)
	require.NoError(t, err)

	cfg.Tokens = config.TokensConfig{Backend: config.TokenBackendRedis}
	_, _, err = New(ctx, cfg, logger.Discard(), nil)
	assert.Error(t, err, "redis backend without a URL")

	cfg.Tokens = config.TokensConfig{Backend: "etcd"}
	_, _, err = New(ctx, cfg, logger.Discard(), nil)
	assert.Error(t, err)
}
