package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// isolate points the global config dir and working directory at a
// fresh temp dir so developer config files never leak into tests.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvGitHubToken, "")
	t.Setenv(EnvGitHubAPIURL, "")
	t.Setenv(EnvPort, "")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Server.Addr", cfg.Server.Addr, ":8000"},
		{"Server.ReadTimeout", cfg.Server.ReadTimeout, 10 * time.Second},
		{"Server.WriteTimeout", cfg.Server.WriteTimeout, 30 * time.Second},
		{"GitHub.BaseURL", cfg.GitHub.BaseURL, "https://api.github.com/"},
		{"GitHub.DefaultState", cfg.GitHub.DefaultState, "open"},
		{"GitHub.Timeout", cfg.GitHub.Timeout, 10 * time.Second},
		{"Log.Level", cfg.Log.Level, "info"},
		{"Log.Format", cfg.Log.Format, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults when no files exist", func(t *testing.T) {
		isolate(t)

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.Server.Addr != ":8000" {
			t.Errorf("Server.Addr = %q, want :8000", cfg.Server.Addr)
		}
		if cfg.HasGitHubToken() {
			t.Error("expected no token")
		}
	})

	t.Run("local file overrides global file", func(t *testing.T) {
		dir := isolate(t)
		writeFile(t, filepath.Join(dir, "ghissues-agent", "config.yaml"), `
server:
  addr: ":9000"
github:
  default_state: closed
`)
		writeFile(t, filepath.Join(dir, ".ghissues-agent.yaml"), `
github:
  default_state: all
`)

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		// Global value preserved
		if cfg.Server.Addr != ":9000" {
			t.Errorf("Server.Addr = %q, want :9000", cfg.Server.Addr)
		}
		// Local value wins
		if cfg.GitHub.DefaultState != "all" {
			t.Errorf("GitHub.DefaultState = %q, want all", cfg.GitHub.DefaultState)
		}
		// Untouched default preserved
		if cfg.GitHub.Timeout != 10*time.Second {
			t.Errorf("GitHub.Timeout = %v, want 10s", cfg.GitHub.Timeout)
		}
	})

	t.Run("explicit file and durations", func(t *testing.T) {
		dir := isolate(t)
		path := filepath.Join(dir, "custom.yaml")
		writeFile(t, path, `
server:
  request_timeout: 5s
log:
  level: debug
  format: json
`)

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.Server.RequestTimeout != 5*time.Second {
			t.Errorf("Server.RequestTimeout = %v, want 5s", cfg.Server.RequestTimeout)
		}
		if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
			t.Errorf("Log = %+v, want debug/json", cfg.Log)
		}
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		dir := isolate(t)
		if _, err := Load(filepath.Join(dir, "nope.yaml")); err == nil {
			t.Error("expected error for missing explicit config file")
		}
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		dir := isolate(t)
		path := filepath.Join(dir, "bad.yaml")
		writeFile(t, path, "server: [unclosed")
		if _, err := Load(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("environment wins over files", func(t *testing.T) {
		dir := isolate(t)
		writeFile(t, filepath.Join(dir, ".ghissues-agent.yaml"), `
server:
  addr: ":9000"
github:
  base_url: https://ghe.example.com/api/v3/
`)
		t.Setenv(EnvGitHubToken, "  secret-token \n")
		t.Setenv(EnvPort, "7070")
		t.Setenv(EnvGitHubAPIURL, "http://127.0.0.1:9999/")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if cfg.GitHub.Token != "secret-token" {
			t.Errorf("GitHub.Token = %q, want trimmed token", cfg.GitHub.Token)
		}
		if cfg.Server.Addr != ":7070" {
			t.Errorf("Server.Addr = %q, want :7070", cfg.Server.Addr)
		}
		if cfg.GitHub.BaseURL != "http://127.0.0.1:9999/" {
			t.Errorf("GitHub.BaseURL = %q", cfg.GitHub.BaseURL)
		}
	})

	t.Run("invalid state rejected", func(t *testing.T) {
		dir := isolate(t)
		writeFile(t, filepath.Join(dir, ".ghissues-agent.yaml"), "github:\n  default_state: pending\n")
		if _, err := Load(""); err == nil {
			t.Error("expected validation error for unknown default_state")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"bad base url", func(c *Config) { c.GitHub.BaseURL = "not a url" }, "base_url"},
		{"bad state", func(c *Config) { c.GitHub.DefaultState = "merged" }, "default_state"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative timeout", func(c *Config) { c.GitHub.Timeout = -time.Second }, "github.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestToYAMLOmitsToken(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GitHub.Token = "ghp_supersecret"

	out, err := cfg.ToYAML()
	if err != nil {
		t.Fatalf("ToYAML() error: %v", err)
	}
	if strings.Contains(out, "ghp_supersecret") {
		t.Error("ToYAML() leaked the token")
	}
	if !strings.Contains(out, "default_state: open") {
		t.Errorf("ToYAML() missing default_state:\n%s", out)
	}
}

func TestMinimalConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(MinimalConfig()), cfg); err != nil {
		t.Fatalf("MinimalConfig() does not parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("MinimalConfig() does not validate: %v", err)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := SaveTo(path, MinimalConfig()); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != MinimalConfig() {
		t.Error("SaveTo() content mismatch")
	}
}
