package cmd

import (
	"fmt"
	"strconv"

	"github.com/spiffcs/ciwatch/internal/tui"
)

// dashboardFlag backs --tui. A bare --tui forces the dashboard on;
// "auto" restores terminal detection.
type dashboardFlag struct {
	opts *Options
}

func newTUIFlag(opts *Options) *dashboardFlag {
	return &dashboardFlag{opts: opts}
}

func (f *dashboardFlag) String() string {
	if f.opts.TUI == nil {
		return "auto"
	}
	return strconv.FormatBool(*f.opts.TUI)
}

func (f *dashboardFlag) Set(s string) error {
	if s == "auto" {
		f.opts.TUI = nil
		return nil
	}
	switch s {
	case "yes":
		s = "true"
	case "no":
		s = "false"
	}
	on, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid --tui value %q: want true, false or auto", s)
	}
	f.opts.TUI = &on
	return nil
}

func (f *dashboardFlag) Type() string { return "bool" }

// IsBoolFlag lets pflag accept --tui without a value.
func (f *dashboardFlag) IsBoolFlag() bool { return true }

// shouldUseTUI picks the dashboard or plain output. --once and -v always
// print plainly; otherwise an explicit --tui wins over terminal detection.
func shouldUseTUI(opts *Options) bool {
	switch {
	case opts.Once, opts.Verbosity > 0:
		return false
	case opts.TUI != nil:
		return *opts.TUI
	default:
		return tui.ShouldUseTUI()
	}
}
