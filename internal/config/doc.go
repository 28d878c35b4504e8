// Package config loads cueweb and cuemon startup configuration.
//
// Settings come from two places. An optional TOML file (default
// ~/.config/cueweb/config.toml) carries tunables such as the listen address,
// poll interval, and persisted UI state backend. The environment carries the
// deployment values that must be present for the process to start at all.
//
// # Required Environment
//
// The server role requires:
//
//   - NEXT_PUBLIC_OPENCUE_ENDPOINT: base URL of the REST gateway
//   - NEXT_PUBLIC_URL: public base URL of the dashboard
//   - NEXT_JWT_SECRET: HMAC secret used to sign gateway tokens
//
// The monitor role only requires NEXT_PUBLIC_URL, since it talks to the
// dashboard's API routes rather than to the gateway.
//
// Enabling an auth provider through NEXT_PUBLIC_AUTH_PROVIDER (a comma list of
// okta, google, github, ldap) makes that provider's credentials required.
// NEXT_PUBLIC_USE_SENTRY=true makes SENTRY_DSN required.
//
// A missing variable is logged and returned as a *MissingEnvError whose
// message is "Missing or unaccessible environment variable '<NAME>'".
//
// # TOML Format
//
//	listen = ":3000"
//	log_root = "/shots/logs"
//	poll_seconds = 5
//	search_debounce_ms = 300
//	username = "alice"
//
//	[storage]
//	backend = "redis"          # or "file"
//	path = "~/.config/cueweb/state.toml"
//	redis_addr = "127.0.0.1:6379"
//
//	[token]
//	subject = "cueweb"
//	role = "admin"
//	ttl_seconds = 3600
//
// Every field is optional. Missing files and empty values fall back to
// defaults; tilde expansion is applied to paths.
package config
