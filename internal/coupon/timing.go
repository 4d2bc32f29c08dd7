// internal/coupon/timing.go
package coupon

import (
	"time"

	"github.com/xkilldash9x/clipper-cli/internal/config"
)

// Timing holds the pacing knobs of the sequencer.
type Timing struct {
	// Stagger overrides for the fire-and-forget profiles. Zero keeps the
	// profile's own PerClickDelay.
	KrogerInterval    time.Duration
	WalgreensInterval time.Duration

	SettleDelay          time.Duration
	PollInterval         time.Duration
	PollAttempts         int
	MaxTransitionalPolls int
	SkipPause            time.Duration
	TrailingDelay        time.Duration
}

// DefaultTiming mirrors the pacing the retailer pages were tuned against.
func DefaultTiming() Timing {
	return Timing{
		SettleDelay:          500 * time.Millisecond,
		PollInterval:         500 * time.Millisecond,
		PollAttempts:         4,
		MaxTransitionalPolls: 40,
		SkipPause:            100 * time.Millisecond,
		TrailingDelay:        time.Second,
	}
}

// TimingFromConfig builds Timing from the clipper config section.
func TimingFromConfig(cfg config.ClipperConfig) Timing {
	return Timing{
		KrogerInterval:       cfg.KrogerInterval,
		WalgreensInterval:    cfg.WalgreensInterval,
		SettleDelay:          cfg.SettleDelay,
		PollInterval:         cfg.PollInterval,
		PollAttempts:         cfg.PollAttempts,
		MaxTransitionalPolls: cfg.MaxTransitionalPolls,
		SkipPause:            cfg.SkipPause,
		TrailingDelay:        cfg.TrailingDelay,
	}
}

// IntervalFor returns the stagger between clicks for a fire-and-forget profile.
func (t Timing) IntervalFor(p SiteProfile) time.Duration {
	switch {
	case p.Kind == SiteKroger && t.KrogerInterval > 0:
		return t.KrogerInterval
	case p.Kind == SiteWalgreens && t.WalgreensInterval > 0:
		return t.WalgreensInterval
	default:
		return p.PerClickDelay
	}
}

func (t Timing) transitionalCeiling() int {
	if t.MaxTransitionalPolls < t.PollAttempts {
		return t.PollAttempts
	}
	return t.MaxTransitionalPolls
}
