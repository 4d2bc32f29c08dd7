// internal/browser/manager.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/clipper-cli/internal/browser/stealth"
	"github.com/xkilldash9x/clipper-cli/internal/config"
)

const shutdownGracePeriod = 10 * time.Second

// ErrManagerClosed is returned by NewTab after Shutdown.
var ErrManagerClosed = errors.New("browser manager is shut down")

// Manager owns the Chrome connection and the tabs opened on it. A launched
// browser is closed on Shutdown; an attached (remote) browser is left
// running and only the tabs this process opened are closed.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	tabs   map[string]*Tab
	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool

	initOnce sync.Once
	initErr  error
}

// NewManager creates a manager. Chrome is not started until the first tab is requested.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	m := &Manager{
		cfg:    cfg,
		logger: logger.Named("browser_manager"),
		tabs:   make(map[string]*Tab),
	}
	m.logger.Debug("Browser manager created (initialization deferred).")
	return m
}

// Remote reports whether the manager attaches to an existing browser.
func (m *Manager) Remote() bool { return m.cfg.RemoteURL != "" }

func (m *Manager) initialize() error {
	m.initOnce.Do(func() {
		sugar := m.logger.Sugar()
		ctxOpts := []chromedp.ContextOption{
			chromedp.WithLogf(sugar.Debugf),
			chromedp.WithErrorf(sugar.Warnf),
		}

		// The allocator outlives any single command context, so it hangs
		// off Background and is torn down by Shutdown.
		if m.Remote() {
			m.logger.Info("Attaching to running browser.", zap.String("remote_url", m.cfg.RemoteURL))
			m.allocCtx, m.allocCancel = chromedp.NewRemoteAllocator(context.Background(), m.cfg.RemoteURL)
			// Each tab dials its own connection; there is no root tab to keep.
			m.browserCtx, m.browserCancel = m.allocCtx, func() {}
			return
		}

		m.logger.Info("Launching browser.", zap.Bool("headless", m.cfg.Headless))
		m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(context.Background(), AllocatorOptions(m.cfg)...)
		m.browserCtx, m.browserCancel = chromedp.NewContext(m.allocCtx, ctxOpts...)

		// The first Run starts the process. It must not carry a timeout or
		// the browser dies with it.
		if err := chromedp.Run(m.browserCtx); err != nil {
			m.browserCancel()
			m.allocCancel()
			m.initErr = fmt.Errorf("failed to launch browser: %w", err)
			return
		}
		m.logger.Info("Browser launched.")
	})
	return m.initErr
}

// NewTab opens a fresh tab and applies the configured persona to it.
func (m *Manager) NewTab() (*Tab, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	m.wg.Add(1)
	m.mu.Unlock()

	if err := m.initialize(); err != nil {
		m.wg.Done()
		return nil, err
	}

	sugar := m.logger.Sugar()
	tabCtx, cancel := chromedp.NewContext(m.browserCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Warnf),
	)
	tab := newTab(uuid.NewString(), tabCtx, cancel, m.cfg, m.logger)
	tab.onClose = func() {
		m.mu.Lock()
		delete(m.tabs, tab.ID())
		m.mu.Unlock()
		m.wg.Done()
		m.logger.Debug("Tab removed from manager.", zap.String("tab_id", tab.ID()))
	}

	setup := chromedp.Tasks{}
	if m.cfg.Stealth && !m.Remote() {
		setup = stealth.Apply(m.cfg.Persona, m.logger)
	}
	if err := tab.open(setup); err != nil {
		_ = tab.Close()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	m.mu.Lock()
	m.tabs[tab.ID()] = tab
	m.mu.Unlock()

	m.logger.Info("New tab opened.", zap.String("tab_id", tab.ID()))
	return tab, nil
}

// Shutdown closes every open tab and, for a launched browser, the browser itself.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	open := make([]*Tab, 0, len(m.tabs))
	for _, t := range m.tabs {
		open = append(open, t)
	}
	m.mu.Unlock()

	m.logger.Info("Shutting down browser manager.", zap.Int("open_tabs", len(open)))
	for _, t := range open {
		if err := t.Close(); err != nil {
			m.logger.Warn("Error closing tab during shutdown.", zap.String("tab_id", t.ID()), zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("Timed out waiting for tabs to close.", zap.Error(ctx.Err()))
	}

	if m.allocCtx == nil {
		return nil
	}

	var err error
	if !m.Remote() && m.initErr == nil {
		closeCtx, cancel := context.WithTimeout(Detach(m.browserCtx), shutdownGracePeriod)
		if cerr := chromedp.Cancel(closeCtx); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = fmt.Errorf("failed to close browser: %w", cerr)
		}
		cancel()
	}
	m.browserCancel()
	m.allocCancel()
	m.logger.Info("Browser manager shut down.")
	return err
}
