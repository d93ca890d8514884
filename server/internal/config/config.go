package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the collector configuration.
const (
	DefaultHTTPPort     = 8080
	DefaultTTL          = 5 * time.Minute
	DefaultMaxBodyBytes = 4 << 20
)

// Config holds the collector configuration parsed from the `server:` section
// of config.yaml. The `agent:` key in the same file is ignored.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all collector settings.
type ServerConfig struct {
	// HTTPPort is the port /collect, /payloads and /metrics listen on.
	HTTPPort int `yaml:"http_port"`

	// TTL is how long a client's last payload stays listed after it arrived.
	TTL time.Duration `yaml:"ttl"`

	// MaxBodyBytes caps the size of a single POST /collect body.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`
}

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config populated with default values. It is what the
// collector runs with when no config file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:     DefaultHTTPPort,
			TTL:          DefaultTTL,
			MaxBodyBytes: DefaultMaxBodyBytes,
			LogLevel:     "info",
		},
	}
}

func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	if s.TTL <= 0 {
		return fmt.Errorf("server.ttl must be positive")
	}
	if s.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server.log_level %q unknown: want debug|info|warn|error", s.LogLevel)
	}
	return nil
}
