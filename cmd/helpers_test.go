// cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/clipper-cli/internal/browser/dom"
	"github.com/xkilldash9x/clipper-cli/internal/config"
	"github.com/xkilldash9x/clipper-cli/internal/observability"
)

// fastConfig keeps every delay at a millisecond so batches finish quickly.
const fastConfig = `
logger:
  level: fatal
clipper:
  kroger_interval: 1ms
  walgreens_interval: 1ms
  settle_delay: 1ms
  poll_interval: 1ms
  poll_attempts: 4
  max_transitional_polls: 40
  skip_pause: 1ms
  trailing_delay: 1ms
watcher:
  poll_interval: 5ms
  settle_delay: 5ms
  min_trigger_interval: 1h
`

const krogerPage = `<html><body>
<button data-testid="CouponActionButton-1">Clip</button>
<button data-testid="CouponActionButton-2">Unclip</button>
<button data-testid="CouponActionButton-3">Clip</button>
</body></html>`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// executeCommand runs a fresh root command and captures both streams.
func executeCommand(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// -- Fake browser --

type fakeTab struct {
	mu      sync.Mutex
	doc     *dom.StaticDocument
	url     string
	visited []string
	scripts []string
	closed  bool
	navErr  error
}

func (f *fakeTab) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.navErr != nil {
		return f.navErr
	}
	f.url = url
	f.visited = append(f.visited, url)
	return nil
}

func (f *fakeTab) setURL(url string) {
	f.mu.Lock()
	f.url = url
	f.mu.Unlock()
}

func (f *fakeTab) CurrentURL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, nil
}

func (f *fakeTab) Evaluate(ctx context.Context, script string, res interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts = append(f.scripts, script)
	return nil
}

func (f *fakeTab) Document() dom.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc
}

func (f *fakeTab) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTab) toasts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scripts)
}

type fakeSource struct {
	mu       sync.Mutex
	pages    map[string]string
	tabs     []*fakeTab
	shutdown bool
	navErr   error
	cfg      config.BrowserConfig
}

func (s *fakeSource) NewTab() (pageTab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tab := &fakeTab{navErr: s.navErr}
	s.tabs = append(s.tabs, tab)
	return &pageLoader{fakeTab: tab, pages: s.pages}, nil
}

func (s *fakeSource) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown = true
	return nil
}

// pageLoader swaps the tab's document for the fixture registered for a URL.
type pageLoader struct {
	*fakeTab
	pages map[string]string
}

func (p *pageLoader) Navigate(ctx context.Context, url string) error {
	if err := p.fakeTab.Navigate(ctx, url); err != nil {
		return err
	}
	doc, err := dom.ParseHTML(p.pages[url], dom.WithClickReaction(markClipped))
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
	return nil
}

// useFakeBrowser routes newTabSource to an in-memory source serving pages.
func useFakeBrowser(t *testing.T, pages map[string]string) *fakeSource {
	t.Helper()
	src := &fakeSource{pages: pages}
	orig := newTabSource
	newTabSource = func(cfg config.BrowserConfig, logger *zap.Logger) tabSource {
		src.cfg = cfg
		return src
	}
	t.Cleanup(func() { newTabSource = orig })
	return src
}
