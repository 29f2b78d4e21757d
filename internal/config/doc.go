// Package config loads statekit's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/statekit/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults
//  5. STATEKIT_API_URL, when set, replaces api_url
//
// A .env file in the working directory is loaded by the command before Load
// runs, so the override can live there.
//
// # Default Values
//
//   - API endpoint: http://127.0.0.1:7490
//   - Page size: 20, undo steps: 50, debounce: 300ms
//   - Log file: ~/.local/share/statekit/statekit.log
//   - Retry: 3 attempts, 1s initial delay doubling to at most 30s
//
// # TOML Format
//
//	api_url = "http://127.0.0.1:7490"
//	page_size = 20
//	max_undo_steps = 50
//	debounce_ms = 300
//	enable_logging = true
//	log_file = "~/.local/share/statekit/statekit.log"
//	metrics_addr = "127.0.0.1:9464"
//
//	[retry]
//	max_attempts = 3
//	initial_delay_ms = 1000
//	max_delay_ms = 30000
//	multiplier = 2.0
//
// # Error Handling
//
// A missing file is not an error. Unreadable or malformed files, and retry
// settings that fail retry.Policy.Validate, are returned as errors and abort
// startup.
package config
