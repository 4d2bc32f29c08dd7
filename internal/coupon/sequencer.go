// internal/coupon/sequencer.go
package coupon

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/clipper-cli/internal/browser/dom"
)

// Counts is the tally a sequencer run produces.
type Counts struct {
	Newly      int
	Already    int
	Failed     int
	Confirmed  int
	TimedOut   int
	Irrelevant int
	Cancelled  bool
}

// ScheduledClick is one click of a staggered run. Slot is the multiple of the
// per-click delay at which it fires; Index is the button's position on the page.
type ScheduledClick struct {
	Slot    int
	Index   int
	Element dom.Element
}

// Sequencer delivers clicks at the pace a site profile requires.
type Sequencer struct {
	logger *zap.Logger
	timing Timing
	sched  Scheduler
	sleep  SleepFunc
}

// NewSequencer creates a sequencer. Nil scheduler or sleep fall back to the
// real clock.
func NewSequencer(logger *zap.Logger, timing Timing, sched Scheduler, sleep SleepFunc) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sched == nil {
		sched = NewTimerScheduler()
	}
	if sleep == nil {
		sleep = Sleep
	}
	return &Sequencer{
		logger: logger.Named("sequencer"),
		timing: timing,
		sched:  sched,
		sleep:  sleep,
	}
}

// counter guards Counts updated from timer goroutines.
type counter struct {
	mu sync.Mutex
	c  Counts
}

func (c *counter) add(f func(*Counts)) {
	c.mu.Lock()
	f(&c.c)
	c.mu.Unlock()
}

func (c *counter) snapshot() Counts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.c
}

// RunStaggered schedules every click at Slot x interval from now and waits for
// all of them plus the trailing delay. Clicks fire independently of each other;
// a failure is counted and logged without affecting the rest. Cancelling ctx
// stops the clicks that have not fired yet.
func (s *Sequencer) RunStaggered(ctx context.Context, p SiteProfile, clicks []ScheduledClick) Counts {
	interval := s.timing.IntervalFor(p)
	tally := &counter{}

	var wg sync.WaitGroup
	handles := make([]TaskHandle, 0, len(clicks))
	for _, sc := range clicks {
		wg.Add(1)
		delay := time.Duration(sc.Slot) * interval
		handles = append(handles, s.sched.AfterFunc(delay, func() {
			defer wg.Done()
			s.fire(ctx, sc, tally)
		}))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		stopped := 0
		for _, h := range handles {
			if h.Stop() {
				stopped++
				wg.Done()
			}
		}
		<-done
		s.logger.Info("Staggered batch cancelled.", zap.Int("stopped_clicks", stopped))
		out := tally.snapshot()
		out.Cancelled = true
		return out
	}

	if err := s.sleep(ctx, s.timing.TrailingDelay); err != nil {
		out := tally.snapshot()
		out.Cancelled = true
		return out
	}
	return tally.snapshot()
}

func (s *Sequencer) fire(ctx context.Context, sc ScheduledClick, tally *counter) {
	if ctx.Err() != nil {
		return
	}
	if err := sc.Element.Click(ctx); err != nil {
		cerr := &ClickError{Index: sc.Index, ButtonID: sc.Element.ID(), Err: err}
		s.logger.Warn("Click failed.", zap.Error(cerr))
		tally.add(func(c *Counts) { c.Failed++ })
		return
	}
	s.logger.Debug("Clicked.", zap.Int("index", sc.Index), zap.String("button", sc.Element.ID()))
	tally.add(func(c *Counts) { c.Newly++ })
}

// RunConfirmed walks buttons one at a time. Each is classified when reached,
// clicked if still clickable, and confirmed before the next one is touched.
func (s *Sequencer) RunConfirmed(ctx context.Context, p SiteProfile, buttons []dom.Element) Counts {
	var out Counts

	for i, el := range buttons {
		if ctx.Err() != nil {
			out.Cancelled = true
			return out
		}

		st, err := el.State(ctx)
		if err != nil {
			if ctx.Err() != nil {
				out.Cancelled = true
				return out
			}
			s.logger.Warn("Failed to read button state.", zap.Int("index", i), zap.Error(err))
			out.Failed++
		} else {
			switch class := p.Classify(st.Text); class {
			case AlreadyDone:
				out.Already++
			case Irrelevant:
				s.logger.Debug("Skipping unrecognized button.", zap.Int("index", i), zap.String("text", st.Text))
				out.Irrelevant++
			case Clickable:
				outcome, err := s.confirmClick(ctx, p, i, el, st.Text)
				var cerr *ClickError
				switch {
				case errors.As(err, &cerr):
					s.logger.Warn("Click failed.", zap.Error(cerr))
					out.Failed++
				case err != nil:
					// Cancelled between steps. The click itself went out.
					out.Newly++
					out.Cancelled = true
					return out
				default:
					out.Newly++
					if outcome.State == StateConfirmed {
						out.Confirmed++
					} else {
						out.TimedOut++
					}
				}
			}
		}

		if err := s.sleep(ctx, s.timing.SkipPause); err != nil {
			out.Cancelled = i < len(buttons)-1
			return out
		}
	}
	return out
}
