// Package config resolves reviewdeck's runtime settings.
//
// # Resolution order
//
// Load consults, highest precedence first:
//
//  1. Command-line flags the user actually set (see RegisterFlags)
//  2. REVIEWDECK_* environment variables, with dashes mapped to
//     underscores (REVIEWDECK_POLL_INTERVAL, ...). API_BASE_URL is accepted
//     as a fallback for the base URL.
//  3. The TOML config file (~/.config/reviewdeck/config.toml by default)
//  4. Built-in defaults
//
// A missing config file is not an error. A malformed one is.
//
// # Defaults
//
//   - api-base-url: http://localhost:8000
//   - poll-interval: 15s
//   - request-timeout: 10s
//   - log-file: ~/.local/state/reviewdeck/reviewdeck.log
//   - log-level: info
//   - metrics-addr: empty (metrics endpoint disabled)
//
// # TOML format
//
//	api-base-url = "https://reviews.example.com"
//	poll-interval = "30s"
//	log-level = "debug"
//	metrics-addr = "127.0.0.1:9464"
//
// Paths starting with ~ are expanded against the user's home directory.
package config
