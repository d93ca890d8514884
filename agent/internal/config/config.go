package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/littleapps/usagestats/agent/internal/serialize"
	"github.com/littleapps/usagestats/agent/internal/transmit"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultUserAgent       = "usagestats-agent/0.1"
	DefaultTimeout         = transmit.DefaultTimeout
	DefaultFormat          = "json"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultProbeSource     = "runtime"
	DefaultNodeExporterURL = "http://localhost:9100/metrics"
)

// Config is the top-level configuration file.
type Config struct {
	Agent AgentConfig `yaml:"agent"`
}

// AgentConfig holds all agent-side settings.
type AgentConfig struct {
	// Endpoint is the full URL of the collection endpoint.
	Endpoint string `yaml:"endpoint"`

	// UserAgent is sent verbatim in every request.
	UserAgent string `yaml:"user_agent"`

	// Timeout bounds one send.
	Timeout time.Duration `yaml:"timeout"`

	// StrictTLS enables server certificate validation. Defaults to true;
	// false accepts any certificate.
	StrictTLS bool `yaml:"strict_tls"`

	// CAFile optionally adds a PEM root CA when StrictTLS is set.
	CAFile string `yaml:"ca_file"`

	// Format is the wire format: json | xml.
	Format string `yaml:"format"`

	// Interval between sends in `run` mode. Zero sends once.
	Interval time.Duration `yaml:"interval"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is one of: json | text.
	LogFormat string `yaml:"log_format"`

	// App identifies the reporting application.
	App AppConfig `yaml:"app"`

	// Probe selects where platform inventory comes from.
	Probe ProbeConfig `yaml:"probe"`
}

// AppConfig identifies the application being reported on.
type AppConfig struct {
	ID      string `yaml:"id"`
	Version string `yaml:"version"`
}

// ProbeConfig configures the platform prober.
type ProbeConfig struct {
	// Source is one of: runtime | node_exporter.
	Source string `yaml:"source"`

	// NodeExporterURL is the /metrics URL used when Source == "node_exporter".
	NodeExporterURL string `yaml:"node_exporter_url"`

	// Commands allows the runtime prober to shell out for details the Go
	// runtime does not expose (kernel release).
	Commands bool `yaml:"commands"`
}

// Transmission returns the per-send transmission snapshot.
func (a AgentConfig) Transmission() transmit.Config {
	return transmit.Config{
		Endpoint:  a.Endpoint,
		UserAgent: a.UserAgent,
		Timeout:   a.Timeout,
		StrictTLS: a.StrictTLS,
		CAFile:    a.CAFile,
	}
}

// WireFormat returns the parsed wire format. Load has already validated it;
// the error only surfaces for configs built by hand.
func (a AgentConfig) WireFormat() (serialize.Format, error) {
	return serialize.ParseFormat(a.Format)
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes, applying defaults and validation.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config pre-populated with default values.
// Endpoint has no default and must be supplied.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			UserAgent: DefaultUserAgent,
			Timeout:   DefaultTimeout,
			StrictTLS: true,
			Format:    DefaultFormat,
			LogLevel:  DefaultLogLevel,
			LogFormat: DefaultLogFormat,
			Probe: ProbeConfig{
				Source:          DefaultProbeSource,
				NodeExporterURL: DefaultNodeExporterURL,
				Commands:        true,
			},
		},
	}
}

// validate checks required fields and enums.
func validate(cfg *Config) error {
	a := cfg.Agent
	if a.Endpoint == "" {
		return fmt.Errorf("agent.endpoint is required")
	}
	u, err := url.Parse(a.Endpoint)
	if err != nil {
		return fmt.Errorf("agent.endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("agent.endpoint %q: scheme must be http or https", a.Endpoint)
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("agent.timeout must be positive")
	}
	if a.Interval < 0 {
		return fmt.Errorf("agent.interval must not be negative")
	}
	if _, err := serialize.ParseFormat(a.Format); err != nil {
		return fmt.Errorf("agent.format: %w", err)
	}
	switch a.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("agent.log_level %q unknown: want debug|info|warn|error", a.LogLevel)
	}
	switch a.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("agent.log_format %q unknown: want json|text", a.LogFormat)
	}
	switch a.Probe.Source {
	case "runtime":
	case "node_exporter":
		if a.Probe.NodeExporterURL == "" {
			return fmt.Errorf("agent.probe.node_exporter_url is required for node_exporter source")
		}
	default:
		return fmt.Errorf("agent.probe.source %q unknown: want runtime|node_exporter", a.Probe.Source)
	}
	return nil
}
