package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spiffcs/ciwatch/internal/constants"
	"github.com/spiffcs/ciwatch/internal/model"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a loaded config holds values the engine
// cannot run with.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the application configuration
type Config struct {
	EnableDiagnostics *bool         `yaml:"enable_diagnostics,omitempty"`
	DiagnosticsFile   string        `yaml:"diagnostics_file,omitempty"`
	PollInterval      time.Duration `yaml:"poll_interval,omitempty"`
	RequestTimeout    time.Duration `yaml:"request_timeout,omitempty"`
	Workers           int           `yaml:"workers,omitempty"`
	Workflow          string        `yaml:"workflow,omitempty"`
	DefaultFormat     string        `yaml:"default_format,omitempty"`

	// Watch lists PR references polled on startup, in owner/repo#123 or
	// pull request URL form.
	Watch []string `yaml:"watch,omitempty"`
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".ciwatch"
	}
	return filepath.Join(configDir, "ciwatch")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".ciwatch.yaml"
}

// DefaultDiagnosticsPath returns where the diagnostics log is written when
// diagnostics_file is not set.
func DefaultDiagnosticsPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".ciwatch", constants.DiagnosticsFileName)
	}
	return filepath.Join(dir, "ciwatch", constants.DiagnosticsFileName)
}

// Load loads the configuration from disk.
// It first loads the global config from XDG config directory, then merges
// any local .ciwatch.yaml config on top (local values take precedence).
func Load() (*Config, error) {
	return LoadFrom(ConfigPath(), LocalConfigPath())
}

// LoadFrom loads and merges the config files at globalPath and localPath.
// Missing files are skipped.
func LoadFrom(globalPath, localPath string) (*Config, error) {
	global, err := readFile(globalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load global config file: %w", err)
	}
	local, err := readFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load local config file: %w", err)
	}

	cfg := mergeConfig(global, local)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readFile parses one config file. A missing file yields an empty config.
func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := *global

	if local.EnableDiagnostics != nil {
		result.EnableDiagnostics = local.EnableDiagnostics
	}
	if local.DiagnosticsFile != "" {
		result.DiagnosticsFile = local.DiagnosticsFile
	}
	if local.PollInterval != 0 {
		result.PollInterval = local.PollInterval
	}
	if local.RequestTimeout != 0 {
		result.RequestTimeout = local.RequestTimeout
	}
	if local.Workers != 0 {
		result.Workers = local.Workers
	}
	if local.Workflow != "" {
		result.Workflow = local.Workflow
	}
	if local.DefaultFormat != "" {
		result.DefaultFormat = local.DefaultFormat
	}

	// Arrays: local replaces if non-empty
	if len(local.Watch) > 0 {
		result.Watch = local.Watch
	}

	return &result
}

func (c *Config) applyDefaults() {
	if c.EnableDiagnostics == nil {
		enabled := true
		c.EnableDiagnostics = &enabled
	}
	if c.PollInterval == 0 {
		c.PollInterval = constants.DefaultPollInterval
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = constants.DefaultRequestTimeout
	}
	if c.Workers == 0 {
		c.Workers = constants.DefaultWorkers
	}
	if c.DefaultFormat == "" {
		c.DefaultFormat = "table"
	}
}

// Validate reports values outside the ranges the engine accepts.
func (c *Config) Validate() error {
	if c.PollInterval != 0 && c.PollInterval < constants.MinPollInterval {
		return fmt.Errorf("%w: poll_interval %s is below the minimum of %s",
			ErrInvalidConfig, c.PollInterval, constants.MinPollInterval)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("%w: request_timeout must not be negative", ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	if _, err := c.WatchedPRs(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// DiagnosticsEnabled reports whether the diagnostics log should be written.
func (c *Config) DiagnosticsEnabled() bool {
	return c.EnableDiagnostics == nil || *c.EnableDiagnostics
}

// DiagnosticsPath returns the diagnostics log location.
func (c *Config) DiagnosticsPath() string {
	if c.DiagnosticsFile != "" {
		return c.DiagnosticsFile
	}
	return DefaultDiagnosticsPath()
}

// WatchedPRs parses the watch list.
func (c *Config) WatchedPRs() ([]model.WatchedPR, error) {
	prs := make([]model.WatchedPR, 0, len(c.Watch))
	for _, ref := range c.Watch {
		pr, err := model.ParseWatchedPR(ref)
		if err != nil {
			return nil, fmt.Errorf("watch entry %q: %w", ref, err)
		}
		prs = append(prs, pr)
	}
	return prs, nil
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment variable.
func (c *Config) GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return SaveTo(ConfigPath(), string(data))
}

// DefaultConfig returns a fully populated config with all default values.
// This is useful for generating a complete config file template.
func DefaultConfig() *Config {
	cfg := &Config{Watch: []string{}}
	cfg.applyDefaults()
	cfg.DiagnosticsFile = DefaultDiagnosticsPath()
	return cfg
}

// ToYAML returns the config as a YAML string
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
	return `# ciwatch configuration file
# See: ciwatch config defaults  (for all available options)

# How often every watched pull request is re-polled
poll_interval: 10s

# Upper bound on one pull request's fetch sequence
request_timeout: 30s

# Output format when the dashboard is off: table, json or markdown
default_format: table

# Only track runs of one workflow (file name, path, name or ID)
# workflow: ci.yml

# Pull requests to watch on startup
# watch:
#   - owner/repo#123
#   - https://github.com/owner/repo/pull/456

# Write a rotating debug log (default true)
# enable_diagnostics: true
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
