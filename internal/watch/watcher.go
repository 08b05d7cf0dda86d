// Package watch implements the pull-based status bridge: clients poll
// an entity's status at a bounded interval until it reaches a terminal
// state, then get notified once and stop.
//
// The server never imports this package. It is the client-side
// counterpart of the job and scheduled-post status fields: anything
// consuming the HTTP API (a CLI, a frontend poller) wraps its status
// request in a Watcher instead of hand-rolling the poll loop.
package watch

import (
	"context"
	"time"
)

// DefaultInterval matches the reference polling cadence.
const DefaultInterval = 2 * time.Second

// StatusFunc fetches the current status of the watched entity.
type StatusFunc func(ctx context.Context) (status string, err error)

// TerminalFunc reports whether a status ends observation.
type TerminalFunc func(status string) bool

// ObserverFunc receives the terminal status exactly once.
type ObserverFunc func(status string)

// Watcher polls one entity until terminal. A transport error stops
// observation without synthesizing a state change; the entity itself is
// unaffected.
type Watcher struct {
	interval time.Duration
	fetch    StatusFunc
	terminal TerminalFunc
	observer ObserverFunc

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWatcher(fetch StatusFunc, terminal TerminalFunc, observer ObserverFunc, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		interval: interval,
		fetch:    fetch,
		terminal: terminal,
		observer: observer,
		done:     make(chan struct{}),
	}
}

// Start begins polling in the background. It returns immediately; the
// first poll happens after one interval.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status, err := w.fetch(ctx)
		if err != nil {
			return
		}
		if w.terminal(status) {
			w.observer(status)
			return
		}
	}
}

// Stop cancels observation. Safe to call more than once and after the
// watcher already finished.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

// Done is closed when observation ends, whichever way it ended.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// JobTerminal reports render-lifecycle terminality for polling clients.
func JobTerminal(status string) bool {
	return status == "DONE" || status == "FAILED"
}

// SubtitleTerminal reports subtitle-workflow terminality: anything not
// in flight.
func SubtitleTerminal(status string) bool {
	return status != "generating" && status != "burning"
}
