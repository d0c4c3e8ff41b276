package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/spiffcs/ciwatch/config"
	"github.com/spiffcs/ciwatch/internal/model"
	"github.com/spiffcs/ciwatch/internal/output"
	"github.com/spiffcs/ciwatch/internal/tui"
)

type stubFetcher struct {
	statuses map[model.WatchedPR]model.RunStatus
	errs     map[model.WatchedPR]error
}

func (f *stubFetcher) Fetch(_ context.Context, pr model.WatchedPR) (model.PRSnapshot, error) {
	if err := f.errs[pr]; err != nil {
		return model.PRSnapshot{}, err
	}
	return model.PRSnapshot{Owner: pr.Owner, Repo: pr.Repo, Number: pr.Number, Status: f.statuses[pr]}, nil
}

func TestNew(t *testing.T) {
	cmd := New()
	if cmd == nil {
		t.Fatal("New() returned nil")
	}
	if cmd.Name() != "ciwatch" {
		t.Errorf("New().Name() = %q, want %q", cmd.Name(), "ciwatch")
	}

	for _, name := range []string{"watch", "config", "workflows", "ratelimit", "version"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	for _, flag := range []string{"output", "interval", "workflow", "timeout", "workers", "once", "tui", "verbose"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("root command missing --%s", flag)
		}
	}
}

func TestTUIFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"true", "true", false},
		{"no", "false", false},
		{"auto", "auto", false},
		{"1", "true", false},
		{"F", "false", false},
		{"maybe", "auto", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f := newTUIFlag(&Options{})
			err := f.Set(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got := f.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldUseTUI(t *testing.T) {
	on := true
	tests := []struct {
		name string
		opts *Options
		want bool
	}{
		{"forced on", NewOptions(WithTUI(&on)), true},
		{"once disables", NewOptions(WithTUI(&on), WithOnce(true)), false},
		{"verbose disables", NewOptions(WithTUI(&on), WithVerbosity(1)), false},
		{"forced off", NewOptions(WithTUI(new(bool))), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldUseTUI(tt.opts); got != tt.want {
				t.Errorf("shouldUseTUI() = %v, want %v", got, tt.want)
			}
		})
	}
}

func defaultConfig() *config.Config {
	return &config.Config{
		PollInterval:   10 * time.Second,
		RequestTimeout: 30 * time.Second,
		Workers:        20,
		Workflow:       "ci.yml",
		DefaultFormat:  "table",
	}
}

func TestResolveSettings(t *testing.T) {
	tests := []struct {
		name    string
		opts    *Options
		want    settings
		wantErr bool
	}{
		{
			name: "config only",
			opts: NewOptions(),
			want: settings{format: output.FormatTable, interval: 10 * time.Second, timeout: 30 * time.Second, workers: 20, workflow: "ci.yml"},
		},
		{
			name: "flags override",
			opts: NewOptions(WithFormat("json"), WithInterval(2*time.Second), WithTimeout(5*time.Second), WithWorkers(3), WithWorkflow("release.yml")),
			want: settings{format: output.FormatJSON, interval: 2 * time.Second, timeout: 5 * time.Second, workers: 3, workflow: "release.yml"},
		},
		{name: "interval too short", opts: NewOptions(WithInterval(10 * time.Millisecond)), wantErr: true},
		{name: "negative workers", opts: NewOptions(WithWorkers(-1)), wantErr: true},
		{name: "unknown format", opts: NewOptions(WithFormat("xml")), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveSettings(tt.opts, defaultConfig())
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolveSettings() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCollectPRs(t *testing.T) {
	cfg := defaultConfig()
	cfg.Watch = []string{"org/repo#1", "org/other#2"}

	prs, err := collectPRs([]string{"https://github.com/ORG/repo/pull/1", "org/repo#3"}, cfg)
	if err != nil {
		t.Fatalf("collectPRs() error: %v", err)
	}
	if len(prs) != 3 {
		t.Fatalf("collectPRs() = %v, want 3 unique PRs", prs)
	}
	if prs[0].Owner != "ORG" {
		t.Errorf("collectPRs()[0] = %v, want the command-line reference first", prs[0])
	}

	if _, err := collectPRs([]string{"nope"}, cfg); err == nil {
		t.Error("collectPRs() with invalid reference error = nil")
	}
}

func TestRunOnce(t *testing.T) {
	ok := model.WatchedPR{Owner: "org", Repo: "repo", Number: 1}
	red := model.WatchedPR{Owner: "org", Repo: "repo", Number: 2}
	gone := model.WatchedPR{Owner: "org", Repo: "repo", Number: 3}
	f := &stubFetcher{
		statuses: map[model.WatchedPR]model.RunStatus{ok: model.StatusSucceeded(), red: model.StatusFailed()},
		errs:     map[model.WatchedPR]error{gone: errors.New("not found")},
	}

	var buf bytes.Buffer
	err := runOnce(context.Background(), f, []model.WatchedPR{ok, red, gone}, 2, &output.JSONFormatter{}, &buf)
	if !errors.Is(err, errRunFailed) {
		t.Errorf("runOnce() error = %v, want errRunFailed", err)
	}
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("runOnce() error = %v, want the fetch failure included", err)
	}
	if got := strings.Count(buf.String(), `"number"`); got != 2 {
		t.Errorf("runOnce() printed %d snapshots, want 2:\n%s", got, buf.String())
	}
}

func TestRunOnceAllGreen(t *testing.T) {
	pr := model.WatchedPR{Owner: "org", Repo: "repo", Number: 1}
	f := &stubFetcher{statuses: map[model.WatchedPR]model.RunStatus{pr: model.StatusInProgress(0.2)}}

	var buf bytes.Buffer
	if err := runOnce(context.Background(), f, []model.WatchedPR{pr}, 1, &output.JSONFormatter{}, &buf); err != nil {
		t.Errorf("runOnce() error = %v, want nil", err)
	}
}

func TestRunOnceNothingToWatch(t *testing.T) {
	err := runOnce(context.Background(), &stubFetcher{}, nil, 1, &output.JSONFormatter{}, &bytes.Buffer{})
	if !errors.Is(err, errNothingToWatch) {
		t.Errorf("runOnce() error = %v, want errNothingToWatch", err)
	}
}

func TestHeadlessEmitter(t *testing.T) {
	var buf bytes.Buffer
	e := headlessEmitter(&output.JSONFormatter{}, &buf)
	snaps := []model.PRSnapshot{{Owner: "org", Repo: "repo", Number: 1, Status: model.StatusQueued()}}

	if err := e.Emit(context.Background(), snaps); err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	if err := e.Emit(context.Background(), snaps); err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(lines) != 2 {
		t.Errorf("Emit() twice wrote %d lines, want one JSON document per tick:\n%s", len(lines), buf.String())
	}
}

func TestDashboardEmitter(t *testing.T) {
	events := make(chan tui.Event, 4)
	snaps := []model.PRSnapshot{{Owner: "org", Repo: "repo", Number: 1}}

	if err := dashboardEmitter(events).Emit(context.Background(), snaps); err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	if _, ok := (<-events).(tui.RateLimitEvent); !ok {
		t.Error("first event is not a RateLimitEvent")
	}
	e, ok := (<-events).(tui.SnapshotEvent)
	if !ok {
		t.Fatal("second event is not a SnapshotEvent")
	}
	if len(e.Snapshots) != 1 || e.At.IsZero() {
		t.Errorf("SnapshotEvent = %+v", e)
	}
}

func TestPrintWorkflows(t *testing.T) {
	var buf bytes.Buffer
	printWorkflows(&buf, []model.WorkflowDetails{
		{ID: 22, Name: "Release", Path: ".github/workflows/release.yml", State: "active"},
		{ID: 7, Name: "CI", Path: ".github/workflows/ci.yml", State: "active"},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("printWorkflows() wrote %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.HasPrefix(lines[1], "7 ") {
		t.Errorf("printWorkflows() = \n%s\nwant header then ci.yml first", buf.String())
	}
	if strings.Index(lines[1], ".github") != strings.Index(lines[2], ".github") {
		t.Errorf("printWorkflows() columns not aligned:\n%s", buf.String())
	}
}

func TestPrintRateLimits(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limits := &gh.RateLimits{
		Core: &gh.Rate{Limit: 5000, Remaining: 4200, Reset: gh.Timestamp{Time: now.Add(90 * time.Second)}},
	}

	var buf bytes.Buffer
	printRateLimits(&buf, limits, now)
	if !strings.Contains(buf.String(), "4200/5000 remaining (resets in 1m30s)") {
		t.Errorf("printRateLimits() = %q", buf.String())
	}
	if strings.Contains(buf.String(), "Search") {
		t.Errorf("printRateLimits() printed an absent limit:\n%s", buf.String())
	}
}

func TestPrintConfig(t *testing.T) {
	var buf bytes.Buffer
	if err := printConfig(&buf, config.DefaultConfig(), "yaml"); err != nil {
		t.Fatalf("printConfig(yaml) error: %v", err)
	}
	if !strings.Contains(buf.String(), "poll_interval: 10s") {
		t.Errorf("printConfig(yaml) = %s", buf.String())
	}
	if err := printConfig(&buf, config.DefaultConfig(), "toml"); err == nil {
		t.Error("printConfig(toml) error = nil")
	}
}

func TestRunConfigInitLocal(t *testing.T) {
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	if err := runConfigInit(nil, &out, false, true); err != nil {
		t.Fatalf("runConfigInit() error: %v", err)
	}
	if _, err := os.Stat(config.LocalConfigPath()); err != nil {
		t.Fatalf("local config not created: %v", err)
	}
	if err := runConfigInit(nil, &out, false, true); err == nil {
		t.Error("second runConfigInit() error = nil, want already exists")
	}
	if err := runConfigInit(nil, &out, true, true); err == nil {
		t.Error("runConfigInit(global, local) error = nil")
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2026-01-01")
	t.Cleanup(func() { SetVersionInfo("dev", "none", "unknown") })

	cmd := NewCmdVersion()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.Run(cmd, nil)

	if !strings.Contains(buf.String(), "ciwatch 1.2.3") || !strings.Contains(buf.String(), "abc123") {
		t.Errorf("version output = %q", buf.String())
	}
}
