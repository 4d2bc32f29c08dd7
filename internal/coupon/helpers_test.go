// internal/coupon/helpers_test.go
package coupon

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xkilldash9x/clipper-cli/internal/browser/dom"
	"github.com/xkilldash9x/clipper-cli/internal/notify"
)

// -- Fake Elements --

// eventLog is a shared, ordered record of clicks and state reads.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// fakeElement returns its initial state until clicked, then walks through
// afterClick one read at a time and sticks on the last entry.
type fakeElement struct {
	mu         sync.Mutex
	id         string
	initial    dom.ButtonState
	afterClick []dom.ButtonState
	clickErr   error
	stateErr   error
	log        *eventLog

	clicks int
	reads  int
}

func button(id, text string) *fakeElement {
	return &fakeElement{id: id, initial: dom.ButtonState{Text: text}}
}

func (e *fakeElement) then(states ...dom.ButtonState) *fakeElement {
	e.afterClick = states
	return e
}

func (e *fakeElement) withLog(l *eventLog) *fakeElement {
	e.log = l
	return e
}

func (e *fakeElement) ID() string { return e.id }

func (e *fakeElement) State(ctx context.Context) (dom.ButtonState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stateErr != nil {
		return dom.ButtonState{}, e.stateErr
	}
	if e.clicks == 0 || len(e.afterClick) == 0 {
		return e.initial, nil
	}
	i := e.reads
	if i >= len(e.afterClick) {
		i = len(e.afterClick) - 1
	}
	e.reads++
	return e.afterClick[i], nil
}

func (e *fakeElement) Click(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log.add("click:" + e.id)
	e.clicks++
	return e.clickErr
}

func (e *fakeElement) clickCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

func elements(fs ...*fakeElement) []dom.Element {
	out := make([]dom.Element, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}

// fakeDocument answers QueryAll from a selector map.
type fakeDocument struct {
	bySelector map[string][]dom.Element
	err        error
	queried    []string
}

func (d *fakeDocument) QueryAll(ctx context.Context, selector string) ([]dom.Element, error) {
	d.queried = append(d.queried, selector)
	if d.err != nil {
		return nil, d.err
	}
	return d.bySelector[selector], nil
}

// -- Fake Clock --

type fakeTask struct {
	delay   time.Duration
	f       func()
	mu      sync.Mutex
	ran     bool
	stopped bool
}

func (t *fakeTask) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ran || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (t *fakeTask) run() {
	t.mu.Lock()
	if t.ran || t.stopped {
		t.mu.Unlock()
		return
	}
	t.ran = true
	t.mu.Unlock()
	t.f()
}

// fakeScheduler records every scheduled task. In immediate mode tasks run
// synchronously inside AfterFunc; otherwise they wait for fireAll.
type fakeScheduler struct {
	mu        sync.Mutex
	immediate bool
	tasks     []*fakeTask
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) TaskHandle {
	t := &fakeTask{delay: d, f: f}
	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	if s.immediate {
		t.run()
	}
	return t
}

func (s *fakeScheduler) delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.delay
	}
	return out
}

func (s *fakeScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// fireAll runs pending tasks in delay order.
func (s *fakeScheduler) fireAll() {
	s.mu.Lock()
	tasks := append([]*fakeTask(nil), s.tasks...)
	s.mu.Unlock()
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].delay < tasks[j].delay })
	for _, t := range tasks {
		t.run()
	}
}

// fakeSleeper records requested pauses without blocking. onSleep, when set,
// runs before each pause returns.
type fakeSleeper struct {
	mu      sync.Mutex
	slept   []time.Duration
	log     *eventLog
	onSleep func(n int)
}

func (s *fakeSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.slept = append(s.slept, d)
	n := len(s.slept)
	hook := s.onSleep
	s.mu.Unlock()
	s.log.add("sleep:" + d.String())
	if hook != nil {
		hook(n)
	}
	return ctx.Err()
}

func (s *fakeSleeper) durations() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.slept...)
}

// -- Recording Notifier --

type notification struct {
	Level   notify.Level
	Message string
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notification
}

func (r *recordingNotifier) Notify(_ context.Context, level notify.Level, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, notification{Level: level, Message: message})
	return nil
}

func (r *recordingNotifier) all() []notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification(nil), r.msgs...)
}

// testTiming is the default pacing with stable, easy to read numbers.
func testTiming() Timing {
	t := DefaultTiming()
	t.KrogerInterval = 300 * time.Millisecond
	t.WalgreensInterval = 500 * time.Millisecond
	return t
}
