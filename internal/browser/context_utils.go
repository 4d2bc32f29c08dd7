// internal/browser/context_utils.go
package browser

import (
	"context"
	"time"
)

// CombineContext returns a context that carries the values of tabCtx (the
// chromedp target) and is cancelled when either tabCtx or opCtx is done.
func CombineContext(tabCtx, opCtx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(tabCtx)
	go func() {
		select {
		case <-opCtx.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}

type detachedContext struct {
	context.Context
}

func (detachedContext) Deadline() (time.Time, bool) { return time.Time{}, false }
func (detachedContext) Done() <-chan struct{}       { return nil }
func (detachedContext) Err() error                  { return nil }

// Detach keeps the values of ctx but drops its deadline and cancellation.
// Shutdown uses it so the browser can still be closed after the caller's
// context has ended.
func Detach(ctx context.Context) context.Context {
	return detachedContext{ctx}
}
