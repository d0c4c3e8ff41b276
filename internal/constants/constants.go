// Package constants provides a centralized location for all configuration
// defaults and magic numbers used throughout ciwatch.
package constants

import "time"

// Polling engine defaults
const (
	// DefaultPollInterval is how often the heartbeat asks for a re-poll.
	DefaultPollInterval = 10 * time.Second

	// MinPollInterval is the shortest interval accepted from config or flags.
	MinPollInterval = time.Second

	// DefaultRequestTimeout bounds one PR's whole fetch sequence.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultWorkers is the number of PRs fetched concurrently per tick.
	DefaultWorkers = 20

	// CommandQueueSize is the capacity of the poller's command queue.
	CommandQueueSize = 100
)

// TUI display constants
const (
	// EventBufferSize is the capacity of the channel feeding snapshots
	// to the dashboard.
	EventBufferSize = 16

	// HeaderLines is the number of lines used for the dashboard header.
	HeaderLines = 2

	// FooterLines is the number of lines used for the dashboard footer.
	FooterLines = 2

	// AgeRefreshInterval is how often the "updated" age is redrawn.
	AgeRefreshInterval = time.Second
)

// Diagnostics log
const (
	// DiagnosticsFileName is the log file name under the state directory.
	DiagnosticsFileName = "ciwatch.log"
)
