// internal/browser/tab.go
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/clipper-cli/internal/browser/dom"
	"github.com/xkilldash9x/clipper-cli/internal/config"
)

type runActionsFunc func(ctx context.Context, actions ...chromedp.Action) error

// Tab is a single browser page.
type Tab struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	cfg    config.BrowserConfig
	logger *zap.Logger

	// swapped out in tests
	runActions runActionsFunc

	onClose   func()
	closeOnce sync.Once
}

func newTab(id string, ctx context.Context, cancel context.CancelFunc, cfg config.BrowserConfig, logger *zap.Logger) *Tab {
	return &Tab{
		id:         id,
		ctx:        ctx,
		cancel:     cancel,
		cfg:        cfg,
		logger:     logger.With(zap.String("tab_id", id)),
		runActions: chromedp.Run,
	}
}

func (t *Tab) ID() string { return t.id }

// open creates (or attaches to) the target. The target's event loop lives on
// the context of the first Run, so it goes straight to the tab context.
func (t *Tab) open(actions ...chromedp.Action) error {
	return t.runActions(t.ctx, actions...)
}

// run executes actions on the tab's target, bounded by the caller's context.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(t.ctx, ctx)
	defer cancel()
	if err := t.runActions(runCtx, actions...); err != nil {
		// Report the caller's cancellation rather than the derived one.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Navigate loads url and waits for the body to be ready, then gives the
// page's scripts PostLoadWait to render the coupon list.
func (t *Tab) Navigate(ctx context.Context, url string) error {
	navCtx := ctx
	if t.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, t.cfg.NavigationTimeout)
		defer cancel()
	}

	t.logger.Debug("Navigating.", zap.String("url", url))
	if err := t.run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	if t.cfg.PostLoadWait > 0 {
		if err := t.run(ctx, chromedp.Sleep(t.cfg.PostLoadWait)); err != nil {
			return err
		}
	}
	return nil
}

// WaitReady blocks until selector is present on the page.
func (t *Tab) WaitReady(ctx context.Context, selector string) error {
	if err := t.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("waiting for %q: %w", selector, err)
	}
	return nil
}

// CurrentURL returns the tab's location.
func (t *Tab) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := t.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read tab location: %w", err)
	}
	return url, nil
}

// Evaluate runs a script in the page and decodes its result into res.
func (t *Tab) Evaluate(ctx context.Context, script string, res interface{}) error {
	return t.run(ctx, chromedp.Evaluate(script, res))
}

// Document exposes the live page to the clipper.
func (t *Tab) Document() dom.Document {
	return &cdpDocument{tab: t}
}

// Close closes the tab. It is safe to call more than once.
func (t *Tab) Close() error {
	t.closeOnce.Do(func() {
		t.cancel()
		if t.onClose != nil {
			t.onClose()
		}
	})
	return nil
}
