package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Role selects which environment variables are required.
type Role int

const (
	// RoleServer needs the gateway endpoint and signing secret.
	RoleServer Role = iota
	// RoleMonitor only needs the public URL of the server.
	RoleMonitor
)

// Environment variable names.
const (
	EnvGatewayURL   = "NEXT_PUBLIC_OPENCUE_ENDPOINT"
	EnvPublicURL    = "NEXT_PUBLIC_URL"
	EnvJWTSecret    = "NEXT_JWT_SECRET"
	EnvAuthProvider = "NEXT_PUBLIC_AUTH_PROVIDER"
	EnvUseSentry    = "NEXT_PUBLIC_USE_SENTRY"
	EnvSentryDSN    = "SENTRY_DSN"
)

// providerEnv lists the variables each auth provider needs once enabled.
var providerEnv = map[string][]string{
	"okta":   {"NEXTAUTH_OKTA_CLIENT_ID", "NEXTAUTH_OKTA_CLIENT_SECRET", "NEXTAUTH_OKTA_ISSUER"},
	"google": {"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET"},
	"github": {"GITHUB_ID", "GITHUB_SECRET"},
	"ldap":   {"LDAP_URI"},
}

// Config captures everything cueweb and cuemon read at startup.
type Config struct {
	GatewayURL    string
	PublicURL     string
	JWTSecret     string
	AuthProviders []string
	SentryEnabled bool
	SentryDSN     string

	Listen         string
	LogRoot        string
	PollInterval   time.Duration
	SearchDebounce time.Duration
	Username       string

	Storage StorageConfig
	Token   TokenConfig
}

// StorageConfig selects the persisted UI state backend.
type StorageConfig struct {
	Backend       string `toml:"backend"`
	Path          string `toml:"path"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// TokenConfig shapes the bearer tokens minted for the gateway.
type TokenConfig struct {
	Subject    string `toml:"subject"`
	Role       string `toml:"role"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// TTL returns the token lifetime.
func (t TokenConfig) TTL() time.Duration {
	return time.Duration(t.TTLSeconds) * time.Second
}

const (
	defaultConfigPath     = "~/.config/cueweb/config.toml"
	defaultStatePath      = "~/.config/cueweb/state.toml"
	defaultListen         = ":3000"
	defaultPollInterval   = 5 * time.Second
	defaultSearchDebounce = 300 * time.Millisecond
	defaultUsername       = "monitor"
	defaultTokenSubject   = "cueweb"
	defaultTokenRole      = "admin"
	defaultTokenTTL       = 3600

	// StorageFile keeps UI state in a local TOML file.
	StorageFile = "file"
	// StorageRedis keeps UI state in Redis so several monitors can share it.
	StorageRedis = "redis"
)

// MissingEnvError reports a required environment variable that is unset.
type MissingEnvError struct {
	Name string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("Missing or unaccessible environment variable '%s'", e.Name)
}

// Load parses the optional TOML file at path and overlays the environment.
// A missing file falls back to defaults; a missing required variable fails.
func Load(path string, role Role) (Config, error) {
	cfg := defaults()
	if err := loadFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := loadEnv(&cfg, role); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Listen:         defaultListen,
		PollInterval:   defaultPollInterval,
		SearchDebounce: defaultSearchDebounce,
		Username:       defaultUsername,
		Storage: StorageConfig{
			Backend: StorageFile,
			Path:    mustExpand(defaultStatePath),
		},
		Token: TokenConfig{
			Subject:    defaultTokenSubject,
			Role:       defaultTokenRole,
			TTLSeconds: defaultTokenTTL,
		},
	}
}

func loadFile(path string, cfg *Config) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Listen           string        `toml:"listen"`
		LogRoot          string        `toml:"log_root"`
		PollSeconds      int           `toml:"poll_seconds"`
		SearchDebounceMS int           `toml:"search_debounce_ms"`
		Username         string        `toml:"username"`
		Storage          StorageConfig `toml:"storage"`
		Token            TokenConfig   `toml:"token"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.Listen); v != "" {
		cfg.Listen = v
	}
	if v := strings.TrimSpace(raw.LogRoot); v != "" {
		cfg.LogRoot = mustExpand(v)
	}
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}
	if raw.SearchDebounceMS > 0 {
		cfg.SearchDebounce = time.Duration(raw.SearchDebounceMS) * time.Millisecond
	}
	if v := strings.TrimSpace(raw.Username); v != "" {
		cfg.Username = v
	}

	if v := strings.ToLower(strings.TrimSpace(raw.Storage.Backend)); v != "" {
		if v != StorageFile && v != StorageRedis {
			return fmt.Errorf("parse config: unknown storage backend %q", raw.Storage.Backend)
		}
		cfg.Storage.Backend = v
	}
	if v := strings.TrimSpace(raw.Storage.Path); v != "" {
		cfg.Storage.Path = mustExpand(v)
	}
	cfg.Storage.RedisAddr = strings.TrimSpace(raw.Storage.RedisAddr)
	cfg.Storage.RedisPassword = raw.Storage.RedisPassword
	cfg.Storage.RedisDB = raw.Storage.RedisDB
	if cfg.Storage.Backend == StorageRedis && cfg.Storage.RedisAddr == "" {
		return fmt.Errorf("parse config: storage.redis_addr is required for the redis backend")
	}

	if v := strings.TrimSpace(raw.Token.Subject); v != "" {
		cfg.Token.Subject = v
	}
	if v := strings.TrimSpace(raw.Token.Role); v != "" {
		cfg.Token.Role = v
	}
	if raw.Token.TTLSeconds > 0 {
		cfg.Token.TTLSeconds = raw.Token.TTLSeconds
	}
	return nil
}

func loadEnv(cfg *Config, role Role) error {
	var err error
	if role == RoleServer {
		if cfg.GatewayURL, err = requireEnv(EnvGatewayURL); err != nil {
			return err
		}
	}
	if cfg.PublicURL, err = requireEnv(EnvPublicURL); err != nil {
		return err
	}
	if role == RoleServer {
		if cfg.JWTSecret, err = requireEnv(EnvJWTSecret); err != nil {
			return err
		}
	}

	for _, provider := range strings.Split(os.Getenv(EnvAuthProvider), ",") {
		provider = strings.ToLower(strings.TrimSpace(provider))
		if provider == "" {
			continue
		}
		cfg.AuthProviders = append(cfg.AuthProviders, provider)
		if role != RoleServer {
			continue
		}
		for _, name := range providerEnv[provider] {
			if _, err := requireEnv(name); err != nil {
				return err
			}
		}
	}

	cfg.SentryEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv(EnvUseSentry)), "true")
	if cfg.SentryEnabled {
		if cfg.SentryDSN, err = requireEnv(EnvSentryDSN); err != nil {
			return err
		}
	}
	return nil
}

// requireEnv returns a non-empty variable or logs and returns MissingEnvError.
func requireEnv(name string) (string, error) {
	value, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(value) == "" {
		err := &MissingEnvError{Name: name}
		log.Print(err.Error())
		return "", err
	}
	return value, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
