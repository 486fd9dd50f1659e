// Package config loads runtime settings from an optional YAML file layered
// under command-line flags. Flag defaults fill anything neither sets.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Token store backends.
const (
	TokenBackendMemory = "memory"
	TokenBackendFile   = "file"
	TokenBackendRedis  = "redis"
)

type Config struct {
	API        APIConfig        `koanf:"api"`
	Locality   LocalityConfig   `koanf:"locality"`
	Tokens     TokensConfig     `koanf:"tokens"`
	Redis      RedisConfig      `koanf:"redis"`
	Log        LogConfig        `koanf:"log"`
	Onboarding OnboardingConfig `koanf:"onboarding"`
	Sandbox    SandboxConfig    `koanf:"sandbox"`
}

// APIConfig points the gateway at the auth API.
type APIConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// LocalityConfig points at the state and city catalogue.
type LocalityConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

type TokensConfig struct {
	Backend string `koanf:"backend"`
	File    string `koanf:"file"`
}

// RedisConfig configures the redis token backend. An empty URL disables it.
type RedisConfig struct {
	URL          string        `koanf:"url"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// OnboardingConfig tunes the flow timings.
type OnboardingConfig struct {
	RedirectDelay     time.Duration `koanf:"redirect_delay"`
	ResendWindow      time.Duration `koanf:"resend_window"`
	MaxResendAttempts int           `koanf:"max_resend_attempts"`
}

// SandboxConfig configures the local contract fake of the auth API.
type SandboxConfig struct {
	Addr       string        `koanf:"addr"`
	SigningKey string        `koanf:"signing_key"`
	CodeTTL    time.Duration `koanf:"code_ttl"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
}

// flagKeys maps flag names to configuration keys. Flags not listed here are
// not configuration (e.g. --config itself).
var flagKeys = map[string]string{
	"api-url":             "api.base_url",
	"api-timeout":         "api.timeout",
	"locality-url":        "locality.base_url",
	"locality-timeout":    "locality.timeout",
	"token-backend":       "tokens.backend",
	"token-file":          "tokens.file",
	"redis-url":           "redis.url",
	"redis-pool-size":     "redis.pool_size",
	"redis-min-idle":      "redis.min_idle_conns",
	"redis-dial-timeout":  "redis.dial_timeout",
	"redis-read-timeout":  "redis.read_timeout",
	"redis-write-timeout": "redis.write_timeout",
	"log-format":          "log.format",
	"log-level":           "log.level",
	"redirect-delay":      "onboarding.redirect_delay",
	"resend-window":       "onboarding.resend_window",
	"max-resend-attempts": "onboarding.max_resend_attempts",
	"sandbox-addr":        "sandbox.addr",
	"sandbox-signing-key": "sandbox.signing_key",
	"sandbox-code-ttl":    "sandbox.code_ttl",
	"sandbox-token-ttl":   "sandbox.token_ttl",
}

// RegisterFlags adds every configuration flag, with its default, to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("api-url", "http://localhost:8080", "auth API base URL")
	fs.Duration("api-timeout", 15*time.Second, "auth API request timeout")
	fs.String("locality-url", "https://servicodados.ibge.gov.br/api/v1/localidades", "state and city catalogue base URL")
	fs.Duration("locality-timeout", 10*time.Second, "catalogue request timeout")
	fs.String("token-backend", TokenBackendFile, "session token store: memory, file or redis")
	fs.String("token-file", "viacarona-token.json", "token file for the file backend")
	fs.String("redis-url", "", "redis URL for the redis backend")
	fs.Int("redis-pool-size", 10, "redis connection pool size")
	fs.Int("redis-min-idle", 2, "redis minimum idle connections")
	fs.Duration("redis-dial-timeout", 5*time.Second, "redis dial timeout")
	fs.Duration("redis-read-timeout", 3*time.Second, "redis read timeout")
	fs.Duration("redis-write-timeout", 3*time.Second, "redis write timeout")
	fs.String("log-format", "text", "log format: text or json")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.Duration("redirect-delay", 2*time.Second, "delay before recovery redirects")
	fs.Duration("resend-window", 60*time.Second, "cooldown between verification code resends")
	fs.Int("max-resend-attempts", 3, "verification code resends allowed per session")
	fs.String("sandbox-addr", ":8080", "sandbox API listen address")
	fs.String("sandbox-signing-key", "sandbox-signing-key-change-me", "HS256 key for sandbox session tokens")
	fs.Duration("sandbox-code-ttl", 15*time.Minute, "sandbox verification code lifetime")
	fs.Duration("sandbox-token-ttl", 24*time.Hour, "sandbox session token lifetime")
}

// Load reads path (when non-empty) and then fs. Flags set explicitly on the
// command line win over the file; defaults only fill keys the file leaves out.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late and obscurely.
func (c *Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL))
	}
	switch c.Tokens.Backend {
	case TokenBackendMemory:
	case TokenBackendFile:
		if c.Tokens.File == "" {
			errs = append(errs, errors.New("tokens.file is required for the file backend"))
		}
	case TokenBackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("tokens.backend %q is not one of memory, file, redis", c.Tokens.Backend))
	}
	if c.Onboarding.ResendWindow <= 0 {
		errs = append(errs, errors.New("onboarding.resend_window must be positive"))
	}
	if c.Onboarding.MaxResendAttempts <= 0 {
		errs = append(errs, errors.New("onboarding.max_resend_attempts must be positive"))
	}
	if c.Onboarding.RedirectDelay < 0 {
		errs = append(errs, errors.New("onboarding.redirect_delay must not be negative"))
	}
	return errors.Join(errs...)
}
