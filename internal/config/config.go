// Package config holds all capscout configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"capscout/internal/browser"
	"capscout/internal/orchestrator"
)

// Config is the full process configuration.
type Config struct {
	// HTTP control surface listen address.
	ListenAddr string `yaml:"listen_addr"`

	// Dataset CSV path (append log).
	DatasetPath string `yaml:"dataset_path"`

	// Run-history SQLite path.
	HistoryPath string `yaml:"history_path"`

	// Recurring trigger.
	Schedule ScheduleConfig `yaml:"schedule"`

	// Automated client session.
	Browser browser.Config `yaml:"browser"`

	// Run parameters (prompt, validation bounds).
	Run orchestrator.Config `yaml:"run"`
}

// ScheduleConfig configures the recurring trigger.
type ScheduleConfig struct {
	Spec     string `yaml:"spec"`
	Timezone string `yaml:"timezone"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:  ":8085",
		DatasetPath: "data/small_cap_stocks.csv",
		HistoryPath: "data/run_history.db",
		Schedule: ScheduleConfig{
			Spec:     "0 */6 * * *",
			Timezone: "America/New_York",
		},
		Browser: browser.DefaultConfig(),
		Run:     orchestrator.DefaultConfig(),
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment variables override either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("CAPSCOUT_LISTEN"); addr != "" {
		c.ListenAddr = addr
	}
	if path := os.Getenv("CAPSCOUT_DATASET"); path != "" {
		c.DatasetPath = path
	}
	if path := os.Getenv("CAPSCOUT_HISTORY_DB"); path != "" {
		c.HistoryPath = path
	}
	if url := os.Getenv("CAPSCOUT_SERVICE_URL"); url != "" {
		c.Browser.ServiceURL = url
	}
}
