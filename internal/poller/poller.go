// Package poller implements the polling engine: a single goroutine that owns
// the watch list, processes commands in order, and re-polls every watched
// pull request on each tick.
package poller

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/spiffcs/ciwatch/internal/constants"
	"github.com/spiffcs/ciwatch/internal/log"
	"github.com/spiffcs/ciwatch/internal/model"
)

// Emitter receives the full set of snapshots produced by each tick.
type Emitter interface {
	Emit(ctx context.Context, snaps []model.PRSnapshot) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, snaps []model.PRSnapshot) error

// Emit calls f.
func (f EmitterFunc) Emit(ctx context.Context, snaps []model.PRSnapshot) error {
	return f(ctx, snaps)
}

// Options configures a Poller.
type Options struct {
	// Interval between heartbeat ticks. Zero disables the heartbeat.
	Interval time.Duration

	// Workers bounds concurrent fetches within a tick.
	Workers int

	// QueueSize is the command queue capacity.
	QueueSize int

	// Watch seeds the watch list. Duplicates are dropped and the first
	// tick runs as soon as Run starts.
	Watch []model.WatchedPR
}

// Poller is the actor. Only the goroutine running Run touches the watch list.
type Poller struct {
	fetcher Fetcher
	emitter Emitter
	opts    Options
	queue   *queue

	watched []model.WatchedPR
}

// New creates a Poller. Zero-valued options take their defaults, except
// Interval, which is used as given.
func New(fetcher Fetcher, emitter Emitter, opts Options) *Poller {
	if opts.Workers <= 0 {
		opts.Workers = constants.DefaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = constants.CommandQueueSize
	}
	p := &Poller{
		fetcher: fetcher,
		emitter: emitter,
		opts:    opts,
		queue:   newQueue(opts.QueueSize),
	}
	for _, pr := range opts.Watch {
		if p.indexOf(pr) < 0 {
			p.watched = append(p.watched, pr)
		}
	}
	p.opts.Watch = nil
	return p
}

// Start runs a new Poller in the background and returns its Handle.
func Start(ctx context.Context, fetcher Fetcher, emitter Emitter, opts Options) *Handle {
	p := New(fetcher, emitter, opts)
	go p.Run(ctx)
	return p.Handle()
}

// Handle returns the command entry point for p.
func (p *Poller) Handle() *Handle {
	return &Handle{queue: p.queue}
}

// Run processes commands until the queue is closed or ctx is cancelled.
// Commands are handled one at a time, so ticks never overlap.
func (p *Poller) Run(ctx context.Context) {
	defer p.queue.close()

	hbCtx, stop := context.WithCancel(ctx)
	defer stop()
	if p.opts.Interval > 0 {
		go heartbeat(hbCtx, p.queue, p.opts.Interval)
	}

	log.Debug("poller started", "interval", p.opts.Interval, "workers", p.opts.Workers, "watched", len(p.watched))
	if len(p.watched) > 0 {
		p.selfTick()
	}
	for {
		select {
		case <-ctx.Done():
			log.Debug("poller stopped", "reason", ctx.Err())
			return
		case cmd, ok := <-p.queue.ch:
			if !ok {
				log.Debug("poller stopped", "reason", "queue closed")
				return
			}
			p.handle(ctx, cmd)
		}
	}
}

func (p *Poller) handle(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdAdd:
		if p.indexOf(cmd.pr) < 0 {
			p.watched = append(p.watched, cmd.pr)
			log.Info("watching pull request", "pr", cmd.pr.String(), "watched", len(p.watched))
		} else {
			log.Debug("pull request already watched", "pr", cmd.pr.String())
		}
		p.selfTick()
	case cmdRemove:
		before := len(p.watched)
		p.watched = slices.DeleteFunc(p.watched, cmd.pr.Equal)
		log.Info("stopped watching pull request", "pr", cmd.pr.String(), "removed", before-len(p.watched))
		p.selfTick()
	case cmdClear:
		p.watched = nil
		log.Info("cleared watch list")
		p.selfTick()
	case cmdTick:
		p.tick(ctx)
	}
}

func (p *Poller) indexOf(pr model.WatchedPR) int {
	return slices.IndexFunc(p.watched, pr.Equal)
}

// selfTick queues a refresh behind any commands already waiting.
func (p *Poller) selfTick() {
	err := p.queue.push(command{kind: cmdTick})
	switch {
	case err == nil:
	case errors.Is(err, ErrPollerDown):
		log.Debug("skipping refresh", "reason", err)
	default:
		log.Warn("dropping refresh", "error", err)
	}
}

// tick fetches every watched PR and emits the successful snapshots.
// Failed PRs are logged and left out of the emission.
func (p *Poller) tick(ctx context.Context) {
	prs := slices.Clone(p.watched)
	log.Debug("tick", "prs", len(prs))

	results := FetchAll(ctx, p.fetcher, prs, p.opts.Workers)

	snaps := make([]model.PRSnapshot, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			log.Warn("failed to fetch status", "pr", r.PR.String(), "error", r.Err)
			continue
		}
		snaps = append(snaps, r.Snapshot)
	}

	if err := p.emitter.Emit(ctx, snaps); err != nil {
		log.Error("failed to emit snapshots", "error", err)
		return
	}
	log.Info("tick complete", "snapshots", len(snaps), "failed", len(results)-len(snaps))
}
