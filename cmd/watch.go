package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spiffcs/ciwatch/config"
	"github.com/spiffcs/ciwatch/internal/constants"
	"github.com/spiffcs/ciwatch/internal/ghclient"
	"github.com/spiffcs/ciwatch/internal/log"
	"github.com/spiffcs/ciwatch/internal/model"
	"github.com/spiffcs/ciwatch/internal/output"
	"github.com/spiffcs/ciwatch/internal/poller"
	"github.com/spiffcs/ciwatch/internal/service"
	"github.com/spiffcs/ciwatch/internal/tui"
)

var (
	errNothingToWatch = errors.New("no pull requests to watch: pass owner/repo#123 or list them under watch: in the config file")
	errRunFailed      = errors.New("workflow run failed")
)

// settings is the effective configuration after flags are layered over config.
type settings struct {
	format   output.Format
	interval time.Duration
	timeout  time.Duration
	workers  int
	workflow string
}

// NewCmdWatch creates the watch command.
func NewCmdWatch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [pr-ref...]",
		Short: "Watch CI progress for pull requests (same as root ciwatch)",
		Long: `Polls the latest workflow run of every watched pull request and shows its
status. In a terminal an interactive dashboard is shown where pull requests
can be added and removed; otherwise each refresh is printed to stdout.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, opts)
		},
	}

	addWatchFlags(cmd, opts)
	return cmd
}

// addWatchFlags adds the watch-specific flags to a command.
func addWatchFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format without the dashboard (table, json, markdown)")
	cmd.Flags().DurationVarP(&opts.Interval, "interval", "i", 0, "Poll interval (default from config, 10s)")
	cmd.Flags().StringVarP(&opts.Workflow, "workflow", "w", "", "Only track runs of this workflow (file name, path, name or ID)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Per pull request fetch timeout (default from config, 30s)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Pull requests fetched concurrently (default from config, 20)")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "Fetch every pull request once, print the result and exit")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	// TUI flag with tri-state: nil = auto, true = force, false = disable
	cmd.Flags().Var(newTUIFlag(opts), "tui", "Enable/disable the interactive dashboard (default: auto-detect)")

	// Profiling flags
	cmd.Flags().StringVar(&opts.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	cmd.Flags().StringVar(&opts.MemProfile, "memprofile", "", "Write memory profile to file")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "Write execution trace to file")
}

func runWatch(cmd *cobra.Command, args []string, opts *Options) error {
	profiler := NewProfiler(opts.CPUProfile, opts.MemProfile, opts.Trace)
	if err := profiler.Start(); err != nil {
		return err
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Warn("profiling incomplete", "error", err)
		}
	}()

	useTUI := shouldUseTUI(opts)

	// Initialize logging - suppress logs during TUI to avoid interleaving with display
	if useTUI {
		log.Initialize(opts.Verbosity, io.Discard)
	} else {
		log.Initialize(opts.Verbosity, os.Stderr)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.DiagnosticsEnabled() {
		if err := log.EnableDiagnostics(cfg.DiagnosticsPath()); err != nil {
			log.Warn("diagnostics log disabled", "error", err)
		}
		defer func() { _ = log.Close() }()
	}

	s, err := resolveSettings(opts, cfg)
	if err != nil {
		return err
	}

	prs, err := collectPRs(args, cfg)
	if err != nil {
		return err
	}
	if len(prs) == 0 && !useTUI {
		return errNothingToWatch
	}

	token := cfg.GetGitHubToken()
	if token == "" {
		return fmt.Errorf("GitHub token not configured. Set the GITHUB_TOKEN environment variable")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := ghclient.NewClient(ctx, token, s.timeout)
	if err != nil {
		return err
	}
	fetcher := service.NewFetcher(client, nil, service.Options{
		Workflow: s.workflow,
		Timeout:  s.timeout,
	})

	log.Debug("starting", "prs", len(prs), "interval", s.interval, "workers", s.workers,
		"workflow", s.workflow, "tui", useTUI, "once", opts.Once)

	switch {
	case opts.Once:
		return runOnce(ctx, fetcher, prs, s.workers, output.NewFormatter(s.format), os.Stdout)
	case useTUI:
		return runDashboard(ctx, fetcher, prs, s)
	default:
		return runHeadless(ctx, fetcher, prs, s, output.NewFormatter(s.format), os.Stdout)
	}
}

// resolveSettings layers command-line options over the loaded config.
func resolveSettings(opts *Options, cfg *config.Config) (settings, error) {
	s := settings{
		interval: cfg.PollInterval,
		timeout:  cfg.RequestTimeout,
		workers:  cfg.Workers,
		workflow: cfg.Workflow,
	}

	if opts.Interval != 0 {
		if opts.Interval < constants.MinPollInterval {
			return settings{}, fmt.Errorf("invalid interval %s: must be at least %s", opts.Interval, constants.MinPollInterval)
		}
		s.interval = opts.Interval
	}
	if opts.Timeout < 0 {
		return settings{}, fmt.Errorf("invalid timeout %s: must not be negative", opts.Timeout)
	}
	if opts.Timeout > 0 {
		s.timeout = opts.Timeout
	}
	if opts.Workers < 0 {
		return settings{}, fmt.Errorf("invalid workers %d: must not be negative", opts.Workers)
	}
	if opts.Workers > 0 {
		s.workers = opts.Workers
	}
	if opts.Workflow != "" {
		s.workflow = opts.Workflow
	}

	name := opts.Format
	if name == "" {
		name = cfg.DefaultFormat
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return settings{}, err
	}
	s.format = format

	return s, nil
}

// collectPRs parses the command-line references and appends the config
// watch list, dropping duplicates.
func collectPRs(args []string, cfg *config.Config) ([]model.WatchedPR, error) {
	var prs []model.WatchedPR
	add := func(pr model.WatchedPR) {
		if !slices.ContainsFunc(prs, pr.Equal) {
			prs = append(prs, pr)
		}
	}

	for _, arg := range args {
		pr, err := model.ParseWatchedPR(arg)
		if err != nil {
			return nil, err
		}
		add(pr)
	}

	fromConfig, err := cfg.WatchedPRs()
	if err != nil {
		return nil, err
	}
	for _, pr := range fromConfig {
		add(pr)
	}
	return prs, nil
}

// runOnce fetches every PR a single time and prints the result. The
// returned error joins every failed fetch and every failed run.
func runOnce(ctx context.Context, fetcher poller.Fetcher, prs []model.WatchedPR, workers int, f output.Formatter, w io.Writer) error {
	if len(prs) == 0 {
		return errNothingToWatch
	}

	results := poller.FetchAll(ctx, fetcher, prs, workers)

	snaps := make([]model.PRSnapshot, 0, len(results))
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			log.Warn("failed to fetch status", "pr", r.PR.String(), "error", r.Err)
			errs = append(errs, fmt.Errorf("%s: %w", r.PR, r.Err))
			continue
		}
		snaps = append(snaps, r.Snapshot)
		if r.Snapshot.Status.Kind() == model.KindFailed {
			errs = append(errs, fmt.Errorf("%s: %w", r.PR, errRunFailed))
		}
	}

	if err := f.Format(snaps, w); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return errors.Join(errs...)
}

// runHeadless prints every tick until ctx is cancelled.
func runHeadless(ctx context.Context, fetcher poller.Fetcher, prs []model.WatchedPR, s settings, f output.Formatter, w io.Writer) error {
	p := poller.New(fetcher, headlessEmitter(f, w), poller.Options{
		Interval: s.interval,
		Workers:  s.workers,
		Watch:    prs,
	})

	log.Info("watching pull requests", "count", len(prs), "interval", s.interval)
	p.Run(ctx)
	return nil
}

// headlessEmitter renders each tick with f.
func headlessEmitter(f output.Formatter, w io.Writer) poller.Emitter {
	_, isJSON := f.(*output.JSONFormatter)
	return poller.EmitterFunc(func(_ context.Context, snaps []model.PRSnapshot) error {
		if err := f.Format(snaps, w); err != nil {
			return err
		}
		if !isJSON {
			_, err := fmt.Fprintln(w)
			return err
		}
		return nil
	})
}

// runDashboard runs the engine behind the interactive dashboard until the
// user quits.
func runDashboard(ctx context.Context, fetcher poller.Fetcher, prs []model.WatchedPR, s settings) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tui.Event, constants.EventBufferSize)
	p := poller.New(fetcher, dashboardEmitter(events), poller.Options{
		Interval: s.interval,
		Workers:  s.workers,
		Watch:    prs,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
		// Close the dashboard if the poller stopped first, e.g. on SIGTERM
		tui.SendEvent(events, tui.DoneEvent{})
	}()

	err := tui.Run(events, p.Handle(), prs...)

	// Abandon in-flight fetches instead of waiting out their timeouts
	cancel()
	<-done
	return err
}

// dashboardEmitter forwards each tick and the current rate-limit state to
// the dashboard without blocking the poller.
func dashboardEmitter(events chan tui.Event) poller.Emitter {
	return poller.EmitterFunc(func(_ context.Context, snaps []model.PRSnapshot) error {
		remaining, _, resetAt, limited := ghclient.RateLimitStatus()
		tui.SendEvent(events, tui.RateLimitEvent{Limited: limited, Remaining: remaining, ResetAt: resetAt})
		tui.PublishSnapshots(events, snaps, time.Now())
		return nil
	})
}
