package poller

import (
	"context"
	"errors"
	"time"

	"github.com/spiffcs/ciwatch/internal/log"
	"github.com/spiffcs/ciwatch/internal/model"
)

// Handle sends commands to a running Poller. Every method returns
// immediately; delivery failures are logged, never returned.
// A Handle is safe for concurrent use and may be copied freely.
type Handle struct {
	queue *queue
}

// AddPR starts watching pr and triggers a refresh.
func (h *Handle) AddPR(pr model.WatchedPR) {
	h.send(command{kind: cmdAdd, pr: pr})
}

// RemovePR stops watching pr and triggers a refresh.
func (h *Handle) RemovePR(pr model.WatchedPR) {
	h.send(command{kind: cmdRemove, pr: pr})
}

// ClearPRs empties the watch list and triggers a refresh.
func (h *Handle) ClearPRs() {
	h.send(command{kind: cmdClear})
}

// Tick triggers a refresh.
func (h *Handle) Tick() {
	h.send(command{kind: cmdTick})
}

// Close stops the poller once the commands already queued are handled.
// Close is idempotent.
func (h *Handle) Close() {
	h.queue.close()
}

func (h *Handle) send(cmd command) {
	err := h.queue.push(cmd)
	switch {
	case err == nil:
	case errors.Is(err, ErrPollerDown):
		log.Error("poller is down", "command", cmd.kind.String())
	default:
		log.Warn("dropping command", "command", cmd.kind.String(), "error", err)
	}
}

// heartbeat queues a tick every interval until ctx is done. A tick that
// does not fit in the queue is dropped; the next beat retries.
func heartbeat(ctx context.Context, q *queue, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := q.push(command{kind: cmdTick})
			switch {
			case err == nil:
			case errors.Is(err, ErrPollerDown):
				log.Debug("heartbeat stopping", "reason", err)
				return
			default:
				log.Debug("heartbeat tick dropped", "error", err)
			}
		}
	}
}
