package tui

import (
	"time"

	"github.com/spiffcs/ciwatch/internal/model"
)

// Event is the interface for all TUI events.
type Event interface {
	isEvent()
}

// SnapshotEvent carries the complete result of one poller tick.
// It replaces everything the dashboard shows.
type SnapshotEvent struct {
	Snapshots []model.PRSnapshot
	At        time.Time
}

func (SnapshotEvent) isEvent() {}

// RateLimitEvent reports the GitHub API quota after a tick.
type RateLimitEvent struct {
	Limited   bool
	Remaining int
	ResetAt   time.Time
}

func (RateLimitEvent) isEvent() {}

// DoneEvent signals that the poller has stopped.
type DoneEvent struct{}

func (DoneEvent) isEvent() {}
