// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stockroom.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Server.Listen != "127.0.0.1:7020" {
		t.Errorf("expected listen=127.0.0.1:7020, got %s", cfg.Server.Listen)
	}
	if cfg.Client.MaxScriptDepth != 3 {
		t.Errorf("expected max_script_depth=3, got %d", cfg.Client.MaxScriptDepth)
	}
	if cfg.Client.HistorySize != 8 {
		t.Errorf("expected history_size=8, got %d", cfg.Client.HistorySize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestResolveWithoutFileExpandsDefaults(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	cfg, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := filepath.Join(cfg.Paths.Root, "stockroom.db")
	if cfg.Server.Database != want {
		t.Errorf("database = %q, want %q", cfg.Server.Database, want)
	}
}

func TestResolvePrefersFlagOverEnvironment(t *testing.T) {
	fromEnv := writeConfig(t, "server:\n  listen: 127.0.0.1:1111\n")
	fromFlag := writeConfig(t, "server:\n  listen: 127.0.0.1:2222\n")
	t.Setenv(EnvironmentVariable, fromEnv)

	cfg, err := Resolve(fromFlag)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:2222" {
		t.Errorf("listen = %s, want the flag file's value", cfg.Server.Listen)
	}

	cfg, err = Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:1111" {
		t.Errorf("listen = %s, want the environment file's value", cfg.Server.Listen)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: staging
paths:
  root: /test/root
server:
  write_timeout: 3s
  handler_workers: 12
client:
  address: stock.example:7020
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}
	if cfg.Server.WriteTimeout != 3*time.Second {
		t.Errorf("write_timeout = %v, want 3s", cfg.Server.WriteTimeout)
	}
	if cfg.Server.HandlerWorkers != 12 {
		t.Errorf("handler_workers = %d, want 12", cfg.Server.HandlerWorkers)
	}
	if cfg.Server.Database != "/test/root/stockroom.db" {
		t.Errorf("database = %s, want expansion under the configured root", cfg.Server.Database)
	}
	// Untouched values keep their defaults.
	if cfg.Client.ReceiveTimeout != 10*time.Second {
		t.Errorf("receive_timeout = %v, want default 10s", cfg.Client.ReceiveTimeout)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
environment: staging
server:
  listen: 127.0.0.1:7020
staging:
  server:
    listen: 0.0.0.0:9000
  client:
    history_size: 20
production:
  server:
    listen: 0.0.0.0:443
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Listen != "0.0.0.0:9000" {
		t.Errorf("listen = %s, want staging override", cfg.Server.Listen)
	}
	if cfg.Client.HistorySize != 20 {
		t.Errorf("history_size = %d, want staging override", cfg.Client.HistorySize)
	}
}

func TestProductionDefaultsTightenTimeouts(t *testing.T) {
	path := writeConfig(t, "environment: production\n")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.WriteTimeout != 5*time.Second {
		t.Errorf("write_timeout = %v, want 5s", cfg.Server.WriteTimeout)
	}
	if cfg.Client.ConnectTimeout != 5*time.Second {
		t.Errorf("connect_timeout = %v, want 5s", cfg.Client.ConnectTimeout)
	}
	// Fields the production defaults do not name are kept.
	if cfg.Client.HistorySize != 8 {
		t.Errorf("history_size = %d, want 8", cfg.Client.HistorySize)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("STOCKROOM_TEST_VAR", "from-env")

	tests := []struct {
		input string
		vars  map[string]string
		want  string
	}{
		{"${HOME}/data", map[string]string{"HOME": "/home/ada"}, "/home/ada/data"},
		{"${STOCKROOM_TEST_VAR}/x", nil, "from-env/x"},
		{"${STOCKROOM_UNSET_VAR:-fallback}/x", nil, "fallback/x"},
		{"${STOCKROOM_UNSET_VAR}/x", nil, "/x"},
		{"plain/path", nil, "plain/path"},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			if got := expandVars(test.input, test.vars); got != test.want {
				t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Environment = "qa"
	cfg.Server.Listen = "no-port"
	cfg.Server.WriterWorkers = -1
	cfg.Client.MaxScriptDepth = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted an invalid config")
	}
	for _, fragment := range []string{
		"invalid environment: qa",
		"server.listen",
		"server.writer_workers must not be negative",
		"client.max_script_depth",
	} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("Validate error missing %q:\n%v", fragment, err)
		}
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadFile succeeded on a missing file")
	}
}

func TestEnsurePaths(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	cfg := Default()
	cfg.Paths.Root = root
	cfg.Server.Database = filepath.Join(root, "db", "stockroom.db")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "db")); err != nil {
		t.Errorf("database directory not created: %v", err)
	}
}
