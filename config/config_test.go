package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleConfig = `
Environment = "staging"
Listen = "127.0.0.1:9000"
Contract = "0xc0ffee"

[Backend]
URL = "https://backend.example.com/api"
BearerToken = "super-secret"
RequestsPerSecond = 4.0
Timeout = "8s"

[Node]
URL = "https://fullnode.example.com"
ChainID = 126
Timeout = "12s"

[Journal]
Path = "/var/lib/movelend/journal.db"

[Telemetry]
Endpoint = "collector:4318"
Insecure = true
Metrics = true
Traces = true

[Logging]
Level = "debug"
File = "/var/log/movelend/movelendd.log"
MaxSizeMB = 50
MaxBackups = 3
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "staging" {
		t.Fatalf("environment = %s", cfg.Environment)
	}
	if cfg.Backend.URL != "https://backend.example.com/api" {
		t.Fatalf("backend url = %s", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout.Std() != 8*time.Second {
		t.Fatalf("backend timeout = %s", cfg.Backend.Timeout.Std())
	}
	if cfg.Node.ChainID != 126 {
		t.Fatalf("chain id = %d", cfg.Node.ChainID)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level = %s", cfg.Logging.Level)
	}
	if _, err := cfg.ContractAddress(); err != nil {
		t.Fatalf("contract address: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	minimal := `
Contract = "0x1"

[Backend]
URL = "https://backend.example.com"

[Node]
URL = "https://node.example.com"
`
	cfg, err := Load(writeConfig(t, minimal))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "development" {
		t.Fatalf("environment default = %s", cfg.Environment)
	}
	if cfg.Listen != "0.0.0.0:8080" {
		t.Fatalf("listen default = %s", cfg.Listen)
	}
	if cfg.Backend.Timeout.Std() != 10*time.Second {
		t.Fatalf("backend timeout default = %s", cfg.Backend.Timeout.Std())
	}
	if cfg.Node.Timeout.Std() != 15*time.Second {
		t.Fatalf("node timeout default = %s", cfg.Node.Timeout.Std())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MOVELEND_BACKEND_URL", "https://override.example.com")
	t.Setenv("MOVELEND_BACKEND_TOKEN", "env-token")
	t.Setenv("MOVELEND_LISTEN", "127.0.0.1:7777")

	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.URL != "https://override.example.com" {
		t.Fatalf("backend url = %s", cfg.Backend.URL)
	}
	if cfg.Backend.BearerToken != "env-token" {
		t.Fatalf("bearer token = %s", cfg.Backend.BearerToken)
	}
	if cfg.Listen != "127.0.0.1:7777" {
		t.Fatalf("listen = %s", cfg.Listen)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	if _, err := Load(writeConfig(t, sampleConfig+"\nTypoField = true\n")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing backend url", mutate: func(c *Config) { c.Backend.URL = "" }},
		{name: "missing node url", mutate: func(c *Config) { c.Node.URL = "" }},
		{name: "missing contract", mutate: func(c *Config) { c.Contract = "" }},
		{name: "malformed contract", mutate: func(c *Config) { c.Contract = "0xzz" }},
		{name: "negative rate", mutate: func(c *Config) { c.Backend.RequestsPerSecond = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, sampleConfig))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSanitizedMasksSecrets(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	masked := cfg.Sanitized()
	if strings.Contains(masked.Backend.BearerToken, "super-secret") {
		t.Fatal("bearer token leaked through Sanitized")
	}
	if cfg.Backend.BearerToken != "super-secret" {
		t.Fatal("Sanitized mutated the original config")
	}
}
