// internal/coupon/scheduler.go
package coupon

import (
	"context"
	"time"
)

// TaskHandle cancels a scheduled task. Stop reports whether the task was
// prevented from running.
type TaskHandle interface {
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) TaskHandle
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) TaskHandle {
	return time.AfterFunc(d, f)
}

// NewTimerScheduler returns a Scheduler backed by time.AfterFunc.
func NewTimerScheduler() Scheduler { return timerScheduler{} }

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
