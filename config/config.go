// Package config loads the daemon configuration from a TOML file with
// environment overrides for deploy-time settings and secrets.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"movelend/chain"
)

// Duration parses TOML duration strings like "15s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Backend configures the ticket-issuing API client.
type Backend struct {
	URL               string   `toml:"URL"`
	BearerToken       string   `toml:"BearerToken"`
	RequestsPerSecond float64  `toml:"RequestsPerSecond"`
	Timeout           Duration `toml:"Timeout"`
}

// Node configures the fullnode REST client.
type Node struct {
	URL     string   `toml:"URL"`
	ChainID uint8    `toml:"ChainID"`
	Timeout Duration `toml:"Timeout"`
}

// Journal configures the local submission history store. An empty path
// disables it.
type Journal struct {
	Path string `toml:"Path"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Metrics  bool   `toml:"Metrics"`
	Traces   bool   `toml:"Traces"`
}

// Logging configures the log level and the optional rotating log file
// alongside stdout.
type Logging struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
}

// Config captures the runtime settings for movelendd. Execution options such
// as the signing timeout belong to engine.Config; the daemon only reads and
// quotes.
type Config struct {
	Environment string    `toml:"Environment"`
	Listen      string    `toml:"Listen"`
	Contract    string    `toml:"Contract"`
	Backend     Backend   `toml:"Backend"`
	Node        Node      `toml:"Node"`
	Journal     Journal   `toml:"Journal"`
	Telemetry   Telemetry `toml:"Telemetry"`
	Logging     Logging   `toml:"Logging"`
}

const (
	envEnvironment  = "MOVELEND_ENV"
	envListen       = "MOVELEND_LISTEN"
	envBackendURL   = "MOVELEND_BACKEND_URL"
	envBackendToken = "MOVELEND_BACKEND_TOKEN"
	envNodeURL      = "MOVELEND_NODE_URL"

	defaultEnvironment = "development"
	defaultListen      = "0.0.0.0:8080"
)

// Load reads the TOML file when path names one, applies environment
// overrides, fills defaults, and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		meta, err := toml.DecodeFile(trimmed, cfg)
		if err != nil {
			return nil, fmt.Errorf("decode config %s: %w", trimmed, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config %s has unknown field %s", trimmed, undecoded[0].String())
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envEnvironment)); v != "" {
		cfg.Environment = v
	}
	if v := strings.TrimSpace(os.Getenv(envListen)); v != "" {
		cfg.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv(envBackendURL)); v != "" {
		cfg.Backend.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(envBackendToken)); v != "" {
		cfg.Backend.BearerToken = v
	}
	if v := strings.TrimSpace(os.Getenv(envNodeURL)); v != "" {
		cfg.Node.URL = v
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = defaultEnvironment
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = defaultListen
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = Duration(10 * time.Second)
	}
	if cfg.Node.Timeout <= 0 {
		cfg.Node.Timeout = Duration(15 * time.Second)
	}
}

// Validate ensures the configuration is internally consistent.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Backend.URL) == "" {
		return fmt.Errorf("backend URL is required (set Backend.URL or %s)", envBackendURL)
	}
	if strings.TrimSpace(cfg.Node.URL) == "" {
		return fmt.Errorf("node URL is required (set Node.URL or %s)", envNodeURL)
	}
	if strings.TrimSpace(cfg.Contract) == "" {
		return fmt.Errorf("contract address is required")
	}
	if _, err := chain.ParseAddress(cfg.Contract); err != nil {
		return fmt.Errorf("contract address: %w", err)
	}
	if cfg.Backend.RequestsPerSecond < 0 {
		return fmt.Errorf("backend requests per second must be non-negative")
	}
	return nil
}

// ContractAddress returns the parsed contract address. Validate must have
// accepted the config first.
func (cfg *Config) ContractAddress() (chain.AccountAddress, error) {
	return chain.ParseAddress(cfg.Contract)
}

// Sanitized returns a copy with secrets masked for logging.
func (cfg Config) Sanitized() Config {
	clone := cfg
	if clone.Backend.BearerToken != "" {
		clone.Backend.BearerToken = "***"
	}
	return clone
}
