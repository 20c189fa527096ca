package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spiffcs/ghissues-agent/internal/constants"
	"github.com/spiffcs/ghissues-agent/internal/log"
)

// Environment variables consulted by Load.
const (
	EnvGitHubToken  = "GITHUB_TOKEN"
	EnvGitHubAPIURL = "GITHUB_API_URL"
	EnvPort         = "PORT"
)

// Config represents the application configuration.
// It is built once at startup and treated as read-only afterwards.
type Config struct {
	Server ServerConfig `yaml:"server"`
	GitHub GitHubConfig `yaml:"github"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig controls the JSON-RPC HTTP listener.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// GitHubConfig controls the upstream issue-listing client.
type GitHubConfig struct {
	BaseURL      string        `yaml:"base_url"`
	DefaultState string        `yaml:"default_state"`
	Timeout      time.Duration `yaml:"timeout"`

	// Token is only ever read from the environment and never serialized.
	Token string `yaml:"-" json:"-"`
}

// LogConfig controls the internal/log setup.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a fully populated config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           constants.DefaultAddr,
			ReadTimeout:    constants.DefaultReadTimeout,
			WriteTimeout:   constants.DefaultWriteTimeout,
			RequestTimeout: constants.DefaultRequestTimeout,
		},
		GitHub: GitHubConfig{
			BaseURL:      constants.DefaultGitHubBaseURL,
			DefaultState: constants.DefaultIssueState,
			Timeout:      constants.DefaultGitHubTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: log.FormatText,
		},
	}
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "." + constants.AgentName
	}
	return filepath.Join(configDir, constants.AgentName)
}

// ConfigPath returns the path to the global config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return "." + constants.AgentName + ".yaml"
}

// Load builds the configuration from defaults, the global config file,
// the local config file, an optional explicit file and the environment,
// in increasing order of precedence. Missing global and local files are
// skipped; a missing explicit file is an error.
func Load(explicitPath string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{ConfigPath(), LocalConfigPath()} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := mergeFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if explicitPath != "" {
		if err := mergeFile(cfg, explicitPath); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile decodes a YAML file on top of cfg. Keys absent from the file
// keep their current values.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	log.Debug("loaded config file", "path", path)
	return nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if token, ok := lookup(EnvGitHubToken); ok {
		cfg.GitHub.Token = strings.TrimSpace(token)
	}
	if apiURL, ok := lookup(EnvGitHubAPIURL); ok && apiURL != "" {
		cfg.GitHub.BaseURL = apiURL
	}
	if port, ok := lookup(EnvPort); ok && port != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if _, err := url.ParseRequestURI(c.GitHub.BaseURL); err != nil {
		return fmt.Errorf("invalid github.base_url %q: %w", c.GitHub.BaseURL, err)
	}
	if !ValidIssueState(c.GitHub.DefaultState) {
		return fmt.Errorf("invalid github.default_state %q (want open, closed or all)", c.GitHub.DefaultState)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	if !log.ValidFormat(c.Log.Format) {
		return fmt.Errorf("invalid log.format %q (want text or json)", c.Log.Format)
	}
	for name, d := range map[string]time.Duration{
		"server.read_timeout":    c.Server.ReadTimeout,
		"server.write_timeout":   c.Server.WriteTimeout,
		"server.request_timeout": c.Server.RequestTimeout,
		"github.timeout":         c.GitHub.Timeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// ValidIssueState reports whether state is accepted by the GitHub issues endpoint.
func ValidIssueState(state string) bool {
	switch state {
	case constants.StateOpen, constants.StateClosed, constants.StateAll:
		return true
	}
	return false
}

// HasGitHubToken reports whether a token was found in the environment.
func (c *Config) HasGitHubToken() bool {
	return c.GitHub.Token != ""
}

// ToYAML returns the config as a YAML string. The token is never included.
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	// Get absolute path for local config
	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# ghissues-agent configuration file
# See: ghissues-agent config defaults  (for all available options)
#
# The GitHub token is read from the GITHUB_TOKEN environment variable only.

server:
  addr: ":8000"

github:
  # Point at a GitHub Enterprise API to use a private instance
  # base_url: https://github.example.com/api/v3/
  default_state: open

log:
  level: info   # quiet, info, debug, trace
  format: text  # text, json
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
