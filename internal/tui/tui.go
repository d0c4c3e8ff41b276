package tui

import (
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spiffcs/ciwatch/internal/model"
	"golang.org/x/term"
)

// Run starts the dashboard and blocks until the user quits or events closes.
// watched lists the PRs the poller was seeded with.
func Run(events <-chan Event, c Commander, watched ...model.WatchedPR) error {
	p := tea.NewProgram(NewModel(events, c, watched...), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// ShouldUseTUI returns true if the TUI should be used based on environment.
func ShouldUseTUI() bool {
	// Check if stdout is a TTY
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}

	// Check for CI environment variables
	ciVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"GITLAB_CI",
		"BUILDKITE",
	}

	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return false
		}
	}

	return true
}

// SendEvent sends an event to the channel in a non-blocking manner.
func SendEvent(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- e:
	default:
		// Non-blocking send - drop event if channel is full
	}
}

// PublishSnapshots delivers a tick's snapshots without blocking. When the
// dashboard has fallen behind, the oldest pending event is discarded so the
// newest state always gets through.
func PublishSnapshots(ch chan Event, snaps []model.PRSnapshot, at time.Time) {
	if ch == nil {
		return
	}
	e := SnapshotEvent{Snapshots: snaps, At: at}
	for range 2 {
		select {
		case ch <- e:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
