// internal/watcher/watcher.go
package watcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// URLSource reports the address a page is currently showing.
type URLSource interface {
	CurrentURL(ctx context.Context) (string, error)
}

// Handler is invoked once per settled navigation.
type Handler interface {
	OnNavigate(ctx context.Context, url string)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, url string)

func (f HandlerFunc) OnNavigate(ctx context.Context, url string) { f(ctx, url) }

// Options tunes the polling loop.
type Options struct {
	PollInterval time.Duration
	// SettleDelay is how long a new URL must hold before the handler runs.
	// Single page apps swap the address before they render the new view.
	SettleDelay time.Duration
}

// DefaultOptions polls twice a second and settles for one second.
func DefaultOptions() Options {
	return Options{PollInterval: 500 * time.Millisecond, SettleDelay: time.Second}
}

// ErrAlreadyRunning is returned by Start on a running watcher.
var ErrAlreadyRunning = errors.New("watcher already running")

// Watcher detects client side navigations by polling the page URL. The
// handler runs on the watcher goroutine, so navigations are handled one at a
// time and a change during handling is picked up on the next poll.
type Watcher struct {
	source  URLSource
	handler Handler
	opts    Options
	logger  *zap.Logger

	mu      sync.Mutex
	lastURL string
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a stopped watcher.
func New(source URLSource, handler Handler, opts Options, logger *zap.Logger) *Watcher {
	def := DefaultOptions()
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{source: source, handler: handler, opts: opts, logger: logger.Named("watcher")}
}

// Start launches the polling loop. The first URL seen counts as a navigation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return ErrAlreadyRunning
	}
	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.lastURL = ""
	go w.run(loopCtx, w.done)
	return nil
}

// Stop ends the loop and waits for it, including a handler that is running.
// It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// LastURL returns the most recent URL the watcher acted on.
func (w *Watcher) LastURL() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastURL
}

func (w *Watcher) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		w.poll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	current, err := w.source.CurrentURL(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Debug("Failed to read current URL.", zap.Error(err))
		}
		return
	}
	if current == w.LastURL() {
		return
	}

	// Wait for the address to hold still before acting on it.
	for {
		w.setLast(current)
		if !sleep(ctx, w.opts.SettleDelay) {
			return
		}
		again, err := w.source.CurrentURL(ctx)
		if err != nil || again == current {
			break
		}
		current = again
	}

	w.logger.Info("Navigation detected.", zap.String("url", current))
	w.handler.OnNavigate(ctx, current)
}

func (w *Watcher) setLast(u string) {
	w.mu.Lock()
	w.lastURL = u
	w.mu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
