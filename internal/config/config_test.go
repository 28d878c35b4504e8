package config

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setServerEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvGatewayURL, "http://gateway:8448")
	t.Setenv(EnvPublicURL, "http://localhost:3000")
	t.Setenv(EnvJWTSecret, "secret")
	t.Setenv(EnvAuthProvider, "")
	t.Setenv(EnvUseSentry, "")
	t.Setenv(EnvSentryDSN, "")
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	setServerEnv(t)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"), RoleServer)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Listen != defaultListen {
		t.Fatalf("Listen = %q, want %q", cfg.Listen, defaultListen)
	}
	if cfg.PollInterval != defaultPollInterval {
		t.Fatalf("PollInterval = %v, want %v", cfg.PollInterval, defaultPollInterval)
	}
	if cfg.SearchDebounce != 300*time.Millisecond {
		t.Fatalf("SearchDebounce = %v, want 300ms", cfg.SearchDebounce)
	}
	if cfg.Storage.Backend != StorageFile {
		t.Fatalf("Storage.Backend = %q, want %q", cfg.Storage.Backend, StorageFile)
	}
	wantState, err := expandPath(defaultStatePath)
	if err != nil {
		t.Fatalf("expandPath(defaultStatePath) returned error: %v", err)
	}
	if cfg.Storage.Path != wantState {
		t.Fatalf("Storage.Path = %q, want %q", cfg.Storage.Path, wantState)
	}
	if cfg.Token.TTL() != time.Hour {
		t.Fatalf("Token.TTL = %v, want 1h", cfg.Token.TTL())
	}
	if cfg.GatewayURL != "http://gateway:8448" || cfg.JWTSecret != "secret" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	setServerEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
listen = "  127.0.0.1:8080  "
log_root = "  ~/logs  "
poll_seconds = 10
search_debounce_ms = 150
username = " alice "

[storage]
backend = "REDIS"
redis_addr = "127.0.0.1:6379"
redis_db = 2

[token]
subject = "svc"
ttl_seconds = 60
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path, RoleServer)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Fatalf("Listen = %q, want %q", cfg.Listen, "127.0.0.1:8080")
	}
	if !strings.HasPrefix(cfg.LogRoot, home) {
		t.Fatalf("LogRoot = %q, want it under HOME %q", cfg.LogRoot, home)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("PollInterval = %v, want 10s", cfg.PollInterval)
	}
	if cfg.SearchDebounce != 150*time.Millisecond {
		t.Fatalf("SearchDebounce = %v, want 150ms", cfg.SearchDebounce)
	}
	if cfg.Username != "alice" {
		t.Fatalf("Username = %q, want %q", cfg.Username, "alice")
	}
	if cfg.Storage.Backend != StorageRedis || cfg.Storage.RedisAddr != "127.0.0.1:6379" || cfg.Storage.RedisDB != 2 {
		t.Fatalf("Storage = %+v", cfg.Storage)
	}
	if cfg.Token.Subject != "svc" || cfg.Token.Role != defaultTokenRole || cfg.Token.TTL() != time.Minute {
		t.Fatalf("Token = %+v", cfg.Token)
	}
}

func TestLoad_RedisBackendNeedsAddress(t *testing.T) {
	setServerEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[storage]\nbackend = \"redis\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path, RoleServer); err == nil {
		t.Fatalf("Load returned nil error, want redis_addr error")
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	setServerEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`listen = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path, RoleServer)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_MissingSecretFailsWithExactMessage(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	setServerEnv(t)
	t.Setenv(EnvJWTSecret, "")
	buf := captureLog(t)

	_, err := Load("", RoleServer)
	if err == nil {
		t.Fatalf("Load returned nil error, want missing env error")
	}
	want := "Missing or unaccessible environment variable 'NEXT_JWT_SECRET'"
	if err.Error() != want {
		t.Fatalf("Load error = %q, want %q", err.Error(), want)
	}
	var missing *MissingEnvError
	if !errors.As(err, &missing) || missing.Name != EnvJWTSecret {
		t.Fatalf("Load error = %#v, want *MissingEnvError for %s", err, EnvJWTSecret)
	}
	if strings.TrimSpace(buf.String()) != want {
		t.Fatalf("log output = %q, want %q", buf.String(), want)
	}
}

func TestLoad_MonitorRoleOnlyNeedsPublicURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	setServerEnv(t)
	t.Setenv(EnvGatewayURL, "")
	t.Setenv(EnvJWTSecret, "")

	cfg, err := Load("", RoleMonitor)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.PublicURL != "http://localhost:3000" {
		t.Fatalf("PublicURL = %q", cfg.PublicURL)
	}

	t.Setenv(EnvPublicURL, "")
	captureLog(t)
	if _, err := Load("", RoleMonitor); err == nil || !strings.Contains(err.Error(), EnvPublicURL) {
		t.Fatalf("Load error = %v, want missing %s", err, EnvPublicURL)
	}
}

func TestLoad_ConditionalVariables(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		missing string
	}{
		{
			name:    "okta needs issuer",
			env:     map[string]string{EnvAuthProvider: "okta", "NEXTAUTH_OKTA_CLIENT_ID": "id", "NEXTAUTH_OKTA_CLIENT_SECRET": "s"},
			missing: "NEXTAUTH_OKTA_ISSUER",
		},
		{
			name:    "second provider checked",
			env:     map[string]string{EnvAuthProvider: "ldap, github", "LDAP_URI": "ldap://x", "GITHUB_ID": "id"},
			missing: "GITHUB_SECRET",
		},
		{
			name:    "sentry needs dsn",
			env:     map[string]string{EnvUseSentry: "true"},
			missing: EnvSentryDSN,
		},
		{
			name: "all present",
			env:  map[string]string{EnvAuthProvider: "google", "GOOGLE_CLIENT_ID": "id", "GOOGLE_CLIENT_SECRET": "s", EnvUseSentry: "true", EnvSentryDSN: "https://k@sentry/1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			setServerEnv(t)
			for _, name := range []string{"NEXTAUTH_OKTA_ISSUER", "GITHUB_SECRET"} {
				t.Setenv(name, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			captureLog(t)

			cfg, err := Load("", RoleServer)
			if tt.missing == "" {
				if err != nil {
					t.Fatalf("Load returned error: %v", err)
				}
				if !cfg.SentryEnabled || cfg.SentryDSN == "" {
					t.Fatalf("Sentry not enabled: %+v", cfg)
				}
				return
			}
			var missing *MissingEnvError
			if !errors.As(err, &missing) || missing.Name != tt.missing {
				t.Fatalf("Load error = %v, want missing %s", err, tt.missing)
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
