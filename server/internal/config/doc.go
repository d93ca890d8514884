// Package config loads the dev collector configuration from the `server:`
// section of config.yaml.
//
// Fields:
//   - HTTPPort:     listen port (default 8080)
//   - TTL:          how long a client's last payload stays listed (default 5m)
//   - MaxBodyBytes: per-request body cap (default 4 MiB)
//   - LogLevel:     slog level name (default info)
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
