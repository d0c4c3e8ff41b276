package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spiffcs/ciwatch/internal/constants"
	"github.com/spiffcs/ciwatch/internal/model"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadFromMissingFiles(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFrom(filepath.Join(dir, "global.yaml"), filepath.Join(dir, "local.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}

	if !cfg.DiagnosticsEnabled() {
		t.Error("DiagnosticsEnabled() = false, want true")
	}
	if cfg.PollInterval != constants.DefaultPollInterval {
		t.Errorf("PollInterval = %s, want %s", cfg.PollInterval, constants.DefaultPollInterval)
	}
	if cfg.RequestTimeout != constants.DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %s, want %s", cfg.RequestTimeout, constants.DefaultRequestTimeout)
	}
	if cfg.Workers != constants.DefaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Workers, constants.DefaultWorkers)
	}
	if cfg.DefaultFormat != "table" {
		t.Errorf("DefaultFormat = %q, want %q", cfg.DefaultFormat, "table")
	}
	if cfg.Workflow != "" {
		t.Errorf("Workflow = %q, want empty", cfg.Workflow)
	}
}

func TestLoadFromMergesLocalOverGlobal(t *testing.T) {
	dir := t.TempDir()
	global := writeConfig(t, dir, "global.yaml", `
poll_interval: 30s
workers: 4
workflow: ci.yml
enable_diagnostics: false
watch:
  - org/one#1
`)
	local := writeConfig(t, dir, "local.yaml", `
poll_interval: 5s
default_format: json
watch:
  - org/two#2
  - https://github.com/org/three/pull/3
`)

	cfg, err := LoadFrom(global, local)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"PollInterval", cfg.PollInterval, 5 * time.Second},
		{"Workers", cfg.Workers, 4},
		{"Workflow", cfg.Workflow, "ci.yml"},
		{"DefaultFormat", cfg.DefaultFormat, "json"},
		{"DiagnosticsEnabled", cfg.DiagnosticsEnabled(), false},
		{"Watch", len(cfg.Watch), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}

	prs, err := cfg.WatchedPRs()
	if err != nil {
		t.Fatalf("WatchedPRs() error: %v", err)
	}
	want := model.WatchedPR{Owner: "org", Repo: "three", Number: 3}
	if len(prs) != 2 || prs[1] != want {
		t.Errorf("WatchedPRs() = %v, want second entry %v", prs, want)
	}
}

func TestLoadFromRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"interval below minimum", "poll_interval: 100ms\n"},
		{"negative workers", "workers: -1\n"},
		{"negative timeout", "request_timeout: -5s\n"},
		{"bad watch entry", "watch:\n  - not-a-pr\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeConfig(t, dir, "global.yaml", tt.content)

			_, err := LoadFrom(path, filepath.Join(dir, "missing.yaml"))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("LoadFrom() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadFromMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "global.yaml", "poll_interval: [unterminated\n")

	if _, err := LoadFrom(path, filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFrom() error = nil, want parse error")
	}
}

func TestDiagnosticsPath(t *testing.T) {
	cfg := &Config{DiagnosticsFile: "/tmp/custom.log"}
	if got := cfg.DiagnosticsPath(); got != "/tmp/custom.log" {
		t.Errorf("DiagnosticsPath() = %q, want %q", got, "/tmp/custom.log")
	}

	cfg = &Config{}
	if got := cfg.DiagnosticsPath(); !strings.HasSuffix(got, constants.DiagnosticsFileName) {
		t.Errorf("DiagnosticsPath() = %q, want suffix %q", got, constants.DiagnosticsFileName)
	}
}

func TestGetGitHubToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	if got := (&Config{}).GetGitHubToken(); got != "ghp_test" {
		t.Errorf("GetGitHubToken() = %q, want %q", got, "ghp_test")
	}
}

func TestDefaultConfigRoundTripsDurations(t *testing.T) {
	out, err := DefaultConfig().ToYAML()
	if err != nil {
		t.Fatalf("ToYAML() error: %v", err)
	}
	if !strings.Contains(out, "poll_interval: 10s") {
		t.Errorf("ToYAML() missing poll_interval: 10s:\n%s", out)
	}

	var decoded Config
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("yaml.Unmarshal() error: %v", err)
	}
	if decoded.RequestTimeout != constants.DefaultRequestTimeout {
		t.Errorf("decoded RequestTimeout = %s, want %s", decoded.RequestTimeout, constants.DefaultRequestTimeout)
	}
}

func TestMinimalConfigParses(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(MinimalConfig()), &cfg); err != nil {
		t.Fatalf("MinimalConfig() does not parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("MinimalConfig() Validate() = %v", err)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := SaveTo(path, "workers: 2\n"); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(data) != "workers: 2\n" {
		t.Errorf("saved content = %q", data)
	}
}
