// Package daemon wires the stores, coordinator, and HTTP server into a
// running service. Configuration is TOML, loaded from the reloop home
// directory with sane defaults for every field.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full daemon configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Store   StoreConfig   `toml:"store"`
	Proof   ProofConfig   `toml:"proof"`
	Metrics MetricsConfig `toml:"metrics"`
}

// APIConfig configures the HTTP listener.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StoreConfig configures the embedded database.
type StoreConfig struct {
	Dir string `toml:"dir"` // empty = <home>/data
}

// ProofConfig configures the proof chain extension.
type ProofConfig struct {
	// Endpoint of the external ledger node. Empty selects the local
	// content-hash backend.
	Endpoint string `toml:"endpoint"`

	SubmitTimeout string `toml:"submit_timeout"` // bound on one backend call
	GraceWindow   string `toml:"grace_window"`   // purchase waits this long for confirmation
	RetryInterval string `toml:"retry_interval"` // reconciliation sweep period
	RetryBatch    int    `toml:"retry_batch"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8750,
		},
		Store: StoreConfig{},
		Proof: ProofConfig{
			SubmitTimeout: "10s",
			GraceWindow:   "2s",
			RetryInterval: "1m",
			RetryBatch:    50,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// SubmitTimeoutDuration parses the configured submission bound.
func (c ProofConfig) SubmitTimeoutDuration() time.Duration {
	return parseDuration(c.SubmitTimeout, 10*time.Second)
}

// GraceWindowDuration parses the configured grace window.
func (c ProofConfig) GraceWindowDuration() time.Duration {
	return parseDuration(c.GraceWindow, 2*time.Second)
}

// RetryIntervalDuration parses the reconciliation sweep period.
func (c ProofConfig) RetryIntervalDuration() time.Duration {
	return parseDuration(c.RetryInterval, time.Minute)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Home returns the reloop home directory (RELOOP_HOME or ~/.reloop).
func Home() string {
	if home := os.Getenv("RELOOP_HOME"); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return ".reloop"
	}
	return filepath.Join(userHome, ".reloop")
}

// LoadConfig reads config.toml from the home directory, overlaying it on
// the defaults. A missing file is not an error.
func LoadConfig(home string) (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(home, "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// DataDir resolves the database directory for a given home.
func (c Config) DataDir(home string) string {
	if c.Store.Dir != "" {
		return c.Store.Dir
	}
	return filepath.Join(home, "data")
}
