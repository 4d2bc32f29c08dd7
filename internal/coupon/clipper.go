// internal/coupon/clipper.go
package coupon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/clipper-cli/api/schemas"
	"github.com/xkilldash9x/clipper-cli/internal/browser/dom"
	"github.com/xkilldash9x/clipper-cli/internal/notify"
)

const (
	msgNoButtons       = "No coupon buttons found. Make sure you're on the coupons page."
	msgNoButtonsOnPage = "No coupon buttons found on this page"
	msgNoAvailable     = "No available coupons to clip found."
)

// Clipper runs clip batches against a page.
type Clipper struct {
	logger   *zap.Logger
	timing   Timing
	sched    Scheduler
	sleep    SleepFunc
	notifier notify.Notifier
	now      func() time.Time
	newID    func() string
}

// Option configures a Clipper.
type Option func(*Clipper)

func WithTiming(t Timing) Option             { return func(c *Clipper) { c.timing = t } }
func WithScheduler(s Scheduler) Option       { return func(c *Clipper) { c.sched = s } }
func WithSleep(s SleepFunc) Option           { return func(c *Clipper) { c.sleep = s } }
func WithNotifier(n notify.Notifier) Option  { return func(c *Clipper) { c.notifier = n } }
func WithClock(now func() time.Time) Option  { return func(c *Clipper) { c.now = now } }
func WithIDGenerator(f func() string) Option { return func(c *Clipper) { c.newID = f } }

// New creates a Clipper with default timing and the real clock.
func New(logger *zap.Logger, opts ...Option) *Clipper {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Clipper{
		logger:   logger.Named("clipper"),
		timing:   DefaultTiming(),
		sched:    NewTimerScheduler(),
		sleep:    Sleep,
		notifier: notify.Nop{},
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Batch is one running invocation.
type Batch struct {
	ID string

	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result *schemas.ClipResult
}

// Wait blocks until the batch finishes and returns its result.
func (b *Batch) Wait() *schemas.ClipResult {
	<-b.done
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.result
}

// Done is closed when the batch finishes.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Cancel stops the batch. Clicks already delivered stay counted.
func (b *Batch) Cancel() { b.cancel() }

func (b *Batch) finish(res *schemas.ClipResult) {
	b.mu.Lock()
	b.result = res
	b.mu.Unlock()
	b.cancel()
	close(b.done)
}

// ClipAll clicks every clickable coupon on the page and waits for the batch.
func (c *Clipper) ClipAll(ctx context.Context, doc dom.Document) (*schemas.ClipResult, error) {
	b, err := c.Start(ctx, doc, schemas.ModeAll)
	if err != nil {
		return nil, err
	}
	return b.Wait(), nil
}

// ClipAvailable filters the page down to clickable coupons first and clicks
// only those.
func (c *Clipper) ClipAvailable(ctx context.Context, doc dom.Document) (*schemas.ClipResult, error) {
	b, err := c.Start(ctx, doc, schemas.ModeAvailable)
	if err != nil {
		return nil, err
	}
	return b.Wait(), nil
}

// Start detects the site and launches a batch without waiting for it. Errors
// are returned only when the page could not be queried; "nothing to clip"
// outcomes come back as unsuccessful results.
func (c *Clipper) Start(ctx context.Context, doc dom.Document, mode schemas.ClipMode) (*Batch, error) {
	started := c.now()
	batchCtx, cancel := context.WithCancel(ctx)
	b := &Batch{ID: c.newID(), cancel: cancel, done: make(chan struct{})}
	log := c.logger.With(zap.String("batch_id", b.ID), zap.String("mode", string(mode)))

	det, err := Detect(batchCtx, doc)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("site detection failed: %w", err)
	}

	res := &schemas.ClipResult{
		BatchID:    b.ID,
		Site:       det.Profile.Kind.String(),
		Mode:       mode,
		TotalFound: len(det.Buttons),
		StartedAt:  started,
	}

	if !det.Found() {
		log.Info("No coupon buttons matched any site profile.")
		c.notify(batchCtx, log, notify.LevelWarning, msgNoButtonsOnPage)
		res.Message = msgNoButtons
		c.complete(b, res)
		return b, nil
	}

	log = log.With(zap.String("site", res.Site), zap.Int("found", res.TotalFound))
	log.Info("Coupon buttons detected.")

	if mode == schemas.ModeAvailable {
		available, notClickable := c.filterClickable(batchCtx, log, det)
		res.AlreadyClipped = notClickable
		if len(available) == 0 {
			c.notify(batchCtx, log, notify.LevelWarning, msgNoAvailable)
			res.Message = msgNoAvailable
			c.complete(b, res)
			return b, nil
		}
		det.Buttons = available
	}

	c.notify(batchCtx, log, notify.LevelInfo, det.Profile.StartMessage(res.TotalFound))

	go func() {
		seq := NewSequencer(log, c.timing, c.sched, c.sleep)
		var counts Counts
		if det.Profile.Confirmation {
			counts = seq.RunConfirmed(batchCtx, det.Profile, det.Buttons)
		} else {
			counts = seq.RunStaggered(batchCtx, det.Profile, c.planStaggered(batchCtx, log, det, mode, res))
		}
		c.aggregate(batchCtx, log, det.Profile, res, counts)
		c.complete(b, res)
	}()
	return b, nil
}

// filterClickable keeps the buttons that read as clickable right now. Every
// other readable button counts as already clipped; a button whose state
// cannot be read is left out of both.
func (c *Clipper) filterClickable(ctx context.Context, log *zap.Logger, det Detection) ([]dom.Element, int) {
	var (
		available    []dom.Element
		notClickable int
	)
	for i, el := range det.Buttons {
		st, err := el.State(ctx)
		if err != nil {
			log.Debug("Failed to read button state while filtering.", zap.Int("index", i), zap.Error(err))
			continue
		}
		if det.Profile.IsClickable(st.Text) {
			available = append(available, el)
		} else {
			notClickable++
		}
	}
	return available, notClickable
}

// planStaggered classifies the buttons once, up front. In "all" mode a click
// keeps its page position as its stagger slot and already clipped buttons are
// tallied into res; in "available" mode the list is already filtered and slots
// are dense. Slot offsets count from when the plan is scheduled, after this
// read pass.
func (c *Clipper) planStaggered(ctx context.Context, log *zap.Logger, det Detection, mode schemas.ClipMode, res *schemas.ClipResult) []ScheduledClick {
	plan := make([]ScheduledClick, 0, len(det.Buttons))
	if mode == schemas.ModeAvailable {
		for i, el := range det.Buttons {
			plan = append(plan, ScheduledClick{Slot: i, Index: i, Element: el})
		}
		return plan
	}

	for i, el := range det.Buttons {
		st, err := el.State(ctx)
		if err != nil {
			log.Debug("Failed to read button state while planning.", zap.Int("index", i), zap.Error(err))
			continue
		}
		switch det.Profile.Classify(st.Text) {
		case Clickable:
			plan = append(plan, ScheduledClick{Slot: i, Index: i, Element: el})
		case AlreadyDone:
			res.AlreadyClipped++
		default:
			log.Debug("Skipping unrecognized button.", zap.Int("index", i), zap.String("text", st.Text))
		}
	}
	return plan
}

func (c *Clipper) aggregate(ctx context.Context, log *zap.Logger, p SiteProfile, res *schemas.ClipResult, counts Counts) {
	res.NewlyClipped = counts.Newly
	res.AlreadyClipped += counts.Already
	res.Failed = counts.Failed
	res.Confirmed = counts.Confirmed
	res.TimedOut = counts.TimedOut
	res.Cancelled = counts.Cancelled

	fields := []zap.Field{
		zap.Int("newly_clipped", res.NewlyClipped),
		zap.Int("already_clipped", res.AlreadyClipped),
		zap.Int("failed", res.Failed),
		zap.Int("irrelevant", counts.Irrelevant),
	}

	if res.Cancelled {
		res.Message = fmt.Sprintf("Cancelled. %s %d of %d coupons before stopping.", p.PastVerb, res.NewlyClipped, res.TotalFound)
		log.Info("Clip batch cancelled.", fields...)
		return
	}

	res.Success = true
	res.Message = p.CompleteMessage(res.NewlyClipped, res.AlreadyClipped)
	log.Info("Clip batch complete.", fields...)
	c.notify(ctx, log, notify.LevelSuccess, res.Message)
}

func (c *Clipper) complete(b *Batch, res *schemas.ClipResult) {
	res.Duration = c.now().Sub(res.StartedAt)
	b.finish(res)
}

func (c *Clipper) notify(ctx context.Context, log *zap.Logger, level notify.Level, msg string) {
	if err := c.notifier.Notify(ctx, level, msg); err != nil {
		log.Debug("Failed to deliver notification.", zap.Error(err))
	}
}
