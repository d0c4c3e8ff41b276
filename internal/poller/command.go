package poller

import (
	"errors"
	"sync"

	"github.com/spiffcs/ciwatch/internal/model"
)

var (
	// ErrQueueFull is returned when the command queue has no free slot.
	ErrQueueFull = errors.New("command queue full")

	// ErrPollerDown is returned once the command queue has been closed.
	ErrPollerDown = errors.New("poller is down")
)

type commandKind int

const (
	cmdAdd commandKind = iota
	cmdRemove
	cmdClear
	cmdTick
)

func (k commandKind) String() string {
	switch k {
	case cmdAdd:
		return "add"
	case cmdRemove:
		return "remove"
	case cmdClear:
		return "clear"
	case cmdTick:
		return "tick"
	default:
		return "unknown"
	}
}

// command is one message for the actor. pr is set for add and remove only.
type command struct {
	kind commandKind
	pr   model.WatchedPR
}

// queue is the actor's inbox. Pushes never block, and pushing after close
// reports ErrPollerDown instead of panicking.
type queue struct {
	mu     sync.Mutex
	ch     chan command
	closed bool
}

func newQueue(size int) *queue {
	return &queue{ch: make(chan command, size)}
}

func (q *queue) push(c command) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrPollerDown
	}
	select {
	case q.ch <- c:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
