// internal/watcher/watcher_test.go
package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

// scriptedSource serves a settable URL and counts reads.
type scriptedSource struct {
	mu    sync.Mutex
	url   string
	err   error
	reads int
}

func (s *scriptedSource) CurrentURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.url, s.err
}

func (s *scriptedSource) set(u string) {
	s.mu.Lock()
	s.url = u
	s.mu.Unlock()
}

func (s *scriptedSource) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

type recorder struct {
	mu   sync.Mutex
	urls []string
}

func (r *recorder) OnNavigate(ctx context.Context, url string) {
	r.mu.Lock()
	r.urls = append(r.urls, url)
	r.mu.Unlock()
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}

func fastOptions() Options {
	return Options{PollInterval: 5 * time.Millisecond, SettleDelay: 10 * time.Millisecond}
}

func TestWatcher_FiresOnInitialAndChangedURLs(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &scriptedSource{url: "https://www.kroger.com/"}
	rec := &recorder{}
	w := New(src, rec, fastOptions(), zaptest.NewLogger(t))
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.Eventually(t, func() bool { return len(rec.seen()) == 1 }, time.Second, time.Millisecond)

	src.set("https://www.kroger.com/savings/cl/coupons/")
	require.Eventually(t, func() bool { return len(rec.seen()) == 2 }, time.Second, time.Millisecond)

	// An unchanged URL never re-fires.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{
		"https://www.kroger.com/",
		"https://www.kroger.com/savings/cl/coupons/",
	}, rec.seen())
	assert.Equal(t, "https://www.kroger.com/savings/cl/coupons/", w.LastURL())
}

func TestWatcher_SettlesRapidChanges(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &scriptedSource{url: "https://a.example/1"}
	var once sync.Once
	rec := &recorder{}
	// The source flips once while the first URL is settling.
	flipper := &flippingSource{scriptedSource: src, flip: func() {
		once.Do(func() { src.set("https://a.example/2") })
	}}

	w := New(flipper, rec, Options{PollInterval: 5 * time.Millisecond, SettleDelay: 20 * time.Millisecond}, nil)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.Eventually(t, func() bool { return len(rec.seen()) >= 1 }, time.Second, time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []string{"https://a.example/2"}, rec.seen(), "only the settled URL is handled")
}

// flippingSource runs flip after the first read.
type flippingSource struct {
	*scriptedSource
	flip func()
}

func (f *flippingSource) CurrentURL(ctx context.Context) (string, error) {
	u, err := f.scriptedSource.CurrentURL(ctx)
	f.flip()
	return u, err
}

func TestWatcher_SourceErrorsAreSkipped(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &scriptedSource{err: errors.New("target crashed")}
	rec := &recorder{}
	w := New(src, rec, fastOptions(), zaptest.NewLogger(t))
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, rec.seen())

	src.set("https://www.cvs.com/coupons")
	src.setErr(nil)
	require.Eventually(t, func() bool { return len(rec.seen()) == 1 }, time.Second, time.Millisecond)
}

func TestWatcher_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &scriptedSource{url: "https://www.walgreens.com/"}
	w := New(src, &recorder{}, fastOptions(), nil)

	w.Stop() // stopping a watcher that never started is a no-op

	require.NoError(t, w.Start(context.Background()))
	assert.ErrorIs(t, w.Start(context.Background()), ErrAlreadyRunning)
	w.Stop()
	w.Stop()

	// A stopped watcher can be started again and fires for the current URL.
	rec := &recorder{}
	w = New(src, rec, fastOptions(), nil)
	require.NoError(t, w.Start(context.Background()))
	require.Eventually(t, func() bool { return len(rec.seen()) == 1 }, time.Second, time.Millisecond)
	w.Stop()
}

func TestWatcher_StopWaitsForHandler(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &scriptedSource{url: "https://www.kroger.com/coupons"}
	entered := make(chan struct{})
	var finished bool
	var mu sync.Mutex
	h := HandlerFunc(func(ctx context.Context, url string) {
		close(entered)
		<-ctx.Done()
		mu.Lock()
		finished = true
		mu.Unlock()
	})

	w := New(src, h, fastOptions(), nil)
	require.NoError(t, w.Start(context.Background()))
	<-entered
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, finished, "Stop returns only after the handler observed cancellation")
}

func TestWatcher_ParentContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	w := New(&scriptedSource{url: "x"}, &recorder{}, fastOptions(), nil)
	require.NoError(t, w.Start(ctx))
	cancel()
	w.Stop()
}

func TestNew_Defaults(t *testing.T) {
	w := New(&scriptedSource{}, &recorder{}, Options{SettleDelay: -time.Second}, nil)
	assert.Equal(t, 500*time.Millisecond, w.opts.PollInterval)
	assert.Zero(t, w.opts.SettleDelay)
}
