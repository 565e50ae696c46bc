// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "STOCKROOM_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the configuration shared by both stockroom binaries.
type Config struct {
	Environment Environment `yaml:"environment"`

	Paths  PathsConfig  `yaml:"paths"`
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`

	// Per-environment overrides, applied after the base config.
	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains fields that can be overridden per environment.
// Zero values leave the base value in place.
type Overrides struct {
	Paths  *PathsConfig  `yaml:"paths,omitempty"`
	Server *ServerConfig `yaml:"server,omitempty"`
	Client *ClientConfig `yaml:"client,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for stockroom data.
	Root string `yaml:"root"`
}

// ServerConfig configures stockroom-server.
type ServerConfig struct {
	// Listen is the TCP listen address.
	Listen string `yaml:"listen"`

	// Database is the SQLite file holding users and products.
	Database string `yaml:"database"`

	// Pool sizes. Zero lets the server pick from the CPU count.
	ReaderWorkers  int `yaml:"reader_workers"`
	HandlerWorkers int `yaml:"handler_workers"`
	WriterWorkers  int `yaml:"writer_workers"`

	// WriteQueue is the capacity of the response queue.
	WriteQueue int `yaml:"write_queue"`

	// WriteTimeout bounds the flush of one response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// AuthCacheTTL is how long a verified login is reused. Negative
	// disables the cache.
	AuthCacheTTL time.Duration `yaml:"auth_cache_ttl"`
}

// ClientConfig configures the stockroom REPL.
type ClientConfig struct {
	// Address is the server's host:port.
	Address string `yaml:"address"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReceiveTimeout time.Duration `yaml:"receive_timeout"`

	// MaxScriptDepth caps execute_script nesting.
	MaxScriptDepth int `yaml:"max_script_depth"`

	// HistorySize is the number of command names history keeps.
	HistorySize int `yaml:"history_size"`
}

// Default returns the development configuration used when no file is
// given, and as the base a file is merged into.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "stockroom")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root: defaultRoot,
		},
		Server: ServerConfig{
			Listen:       "127.0.0.1:7020",
			Database:     "${STOCKROOM_ROOT}/stockroom.db",
			WriteQueue:   256,
			WriteTimeout: 10 * time.Second,
			AuthCacheTTL: time.Minute,
		},
		Client: ClientConfig{
			Address:        "127.0.0.1:7020",
			ConnectTimeout: 10 * time.Second,
			ReceiveTimeout: 10 * time.Second,
			MaxScriptDepth: 3,
			HistorySize:    8,
		},
	}
}

// Resolve loads the file at flagPath, or at $STOCKROOM_CONFIG when
// flagPath is empty. With neither, it returns the expanded defaults.
func Resolve(flagPath string) (*Config, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		cfg := Default()
		cfg.applyEnvironmentOverrides()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the section matching Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &Overrides{
				Server: &ServerConfig{WriteTimeout: 5 * time.Second},
				Client: &ClientConfig{
					ConnectTimeout: 5 * time.Second,
					ReceiveTimeout: 5 * time.Second,
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		override(&c.Paths.Root, overrides.Paths.Root)
	}

	if server := overrides.Server; server != nil {
		override(&c.Server.Listen, server.Listen)
		override(&c.Server.Database, server.Database)
		override(&c.Server.ReaderWorkers, server.ReaderWorkers)
		override(&c.Server.HandlerWorkers, server.HandlerWorkers)
		override(&c.Server.WriterWorkers, server.WriterWorkers)
		override(&c.Server.WriteQueue, server.WriteQueue)
		override(&c.Server.WriteTimeout, server.WriteTimeout)
		override(&c.Server.AuthCacheTTL, server.AuthCacheTTL)
	}

	if client := overrides.Client; client != nil {
		override(&c.Client.Address, client.Address)
		override(&c.Client.ConnectTimeout, client.ConnectTimeout)
		override(&c.Client.ReceiveTimeout, client.ReceiveTimeout)
		override(&c.Client.MaxScriptDepth, client.MaxScriptDepth)
		override(&c.Client.HistorySize, client.HistorySize)
	}
}

func override[T comparable](field *T, value T) {
	var zero T
	if value != zero {
		*field = value
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"STOCKROOM_ROOT": c.Paths.Root,
		"HOME":           os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["STOCKROOM_ROOT"] = c.Paths.Root

	c.Server.Database = expandVars(c.Server.Database, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}. Provided vars win
// over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Paths.Root == "" {
		errs = append(errs, errors.New("paths.root is required"))
	}

	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		errs = append(errs, fmt.Errorf("server.listen: %w", err))
	}
	if c.Server.Database == "" {
		errs = append(errs, errors.New("server.database is required"))
	}
	for name, value := range map[string]int{
		"server.reader_workers":  c.Server.ReaderWorkers,
		"server.handler_workers": c.Server.HandlerWorkers,
		"server.writer_workers":  c.Server.WriterWorkers,
		"server.write_queue":     c.Server.WriteQueue,
	} {
		if value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}

	if _, _, err := net.SplitHostPort(c.Client.Address); err != nil {
		errs = append(errs, fmt.Errorf("client.address: %w", err))
	}
	if c.Client.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("client.connect_timeout must be positive"))
	}
	if c.Client.ReceiveTimeout <= 0 {
		errs = append(errs, errors.New("client.receive_timeout must be positive"))
	}
	if c.Client.MaxScriptDepth < 1 {
		errs = append(errs, errors.New("client.max_script_depth must be at least 1"))
	}
	if c.Client.HistorySize < 1 {
		errs = append(errs, errors.New("client.history_size must be at least 1"))
	}

	return errors.Join(errs...)
}

// EnsurePaths creates the root directory and the database's parent.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Root, filepath.Dir(c.Server.Database)} {
		if path == "" || path == "." {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}
