// Package config loads Hubert's runtime configuration: a plain
// Config-struct-plus-defaults shape, layered with three override
// sources — an optional YAML file, environment variables, and
// command-line flags — applied in that order so flags always win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Backend names accepted by --storage.
const (
	BackendDHT    = "dht"
	BackendCAS    = "cas"
	BackendServer = "server"
	BackendHybrid = "hybrid"
)

// Config is the single struct every subcommand reads from: one Config
// type threaded through the whole program rather than scattered globals.
type Config struct {
	Storage string `yaml:"storage"`

	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	Timeout time.Duration `yaml:"timeout"`
	TTL     time.Duration `yaml:"ttl"`
	Pin     bool          `yaml:"pin"`

	DHTBootstrapAddrs []string `yaml:"dht_bootstrap_addrs"`
	CASEndpoint       string   `yaml:"cas_endpoint"`
	ServerURL         string   `yaml:"server_url"`

	Verbose bool `yaml:"-"`
}

// Default returns the baseline configuration before file/env/flag
// overrides are applied.
func Default() Config {
	return Config{
		Storage:     BackendHybrid,
		Host:        "127.0.0.1",
		Port:        45678,
		Timeout:     30 * time.Second,
		TTL:         24 * time.Hour,
		CASEndpoint: "/ip4/127.0.0.1/tcp/5001",
	}
}

// LoadFile merges a YAML config file over cfg's current values. A missing
// file is not an error — it's the common case for a first run.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "config: read %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "config: parse %s", path)
	}
	return nil
}

// env var names, using a HUBERT_-prefixed convention for daemon
// configuration.
const (
	envStorage = "HUBERT_STORAGE"
	envHost    = "HUBERT_HOST"
	envPort    = "HUBERT_PORT"
	envTimeout = "HUBERT_TIMEOUT"
	envTTL     = "HUBERT_TTL"
)

// LoadEnv merges process environment variables over cfg's current values.
func LoadEnv(cfg *Config) error {
	if v := os.Getenv(envStorage); v != "" {
		cfg.Storage = v
	}
	if v := os.Getenv(envHost); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(envPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "config: %s must be an integer", envPort)
		}
		cfg.Port = port
	}
	if v := os.Getenv(envTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "config: %s must be a duration", envTimeout)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv(envTTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "config: %s must be a duration", envTTL)
		}
		cfg.TTL = d
	}
	return nil
}

// Validate reports whether cfg names a known backend and a usable port.
func (c Config) Validate() error {
	switch c.Storage {
	case BackendDHT, BackendCAS, BackendServer, BackendHybrid:
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	return nil
}
