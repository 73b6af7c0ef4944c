package wsserver

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the declarative, ops-facing description of a multi-service
// Listener: which paths exist and how each one's sessions behave. It does
// not carry Behavior construction, which stays in Go code (BehaviorFactory
// closures over application state don't serialize), only the operational
// knobs spec.md's Service/Session types expose.
type Config struct {
	Addr     string          `yaml:"addr"`
	Services []ServiceConfig `yaml:"services"`
}

// ServiceConfig is one entry of Config.Services.
type ServiceConfig struct {
	Path              string        `yaml:"path"`
	Subprotocols      []string      `yaml:"subprotocols"`
	EnableCompression bool          `yaml:"enable_compression"`
	CloseTimeout      time.Duration `yaml:"close_timeout"`
	KeepClean         bool          `yaml:"keep_clean"`
	WaitTime          time.Duration `yaml:"wait_time"`
}

// LoadConfig reads and parses a YAML Config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wsserver: read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("wsserver: parse config: %w", err)
	}
	return &cfg, nil
}

// ServiceOptions converts the declarative knobs of sc into a
// ServiceOptions, leaving the hooks that can't be expressed in YAML
// (CheckOrigin, CheckCredentials, buffer sizes) at their zero values for
// the caller to fill in.
func (sc ServiceConfig) ServiceOptions() ServiceOptions {
	return ServiceOptions{
		Subprotocols:      sc.Subprotocols,
		EnableCompression: sc.EnableCompression,
		CloseTimeout:      sc.CloseTimeout,
		KeepClean:         sc.KeepClean,
		WaitTime:          sc.WaitTime,
	}
}
