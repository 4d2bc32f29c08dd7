// internal/coupon/confirm.go
package coupon

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/clipper-cli/internal/browser/dom"
)

// ConfirmState is a step of the per-button confirmation state machine.
type ConfirmState int

const (
	StateClicked ConfirmState = iota
	StatePolling
	StateConfirmed
	StateTimedOut
)

func (s ConfirmState) String() string {
	switch s {
	case StateClicked:
		return "clicked"
	case StatePolling:
		return "polling"
	case StateConfirmed:
		return "confirmed"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// ConfirmationOutcome is the terminal result of confirming one click.
// A timeout is not an error: the click was delivered, the page just never
// acknowledged it.
type ConfirmationOutcome struct {
	State     ConfirmState
	Polls     int
	FinalText string
}

// confirmClick clicks el and polls it until the label flips to a done marker.
// Every poll counts toward PollAttempts, but the budget is only enforced on a
// poll where the button is idle; while it is disabled or spinning polling
// continues up to the transitional ceiling.
func (s *Sequencer) confirmClick(ctx context.Context, p SiteProfile, index int, el dom.Element, preText string) (ConfirmationOutcome, error) {
	var (
		out   ConfirmationOutcome
		state = StateClicked
		log   = s.logger.With(zap.Int("index", index), zap.String("button", el.ID()))
	)

	for {
		switch state {
		case StateClicked:
			if err := el.Click(ctx); err != nil {
				return out, &ClickError{Index: index, ButtonID: el.ID(), Err: err}
			}
			if err := s.sleep(ctx, s.timing.SettleDelay); err != nil {
				return out, err
			}
			state = StatePolling

		case StatePolling:
			st, err := el.State(ctx)
			out.Polls++
			busy := false
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return out, ctx.Err()
				}
				// A detached or re-rendered node reads as a plain unconfirmed poll.
				log.Debug("Failed to read button state during confirmation.", zap.Error(err))
			case Normalize(st.Text) != Normalize(preText) && p.IsAlreadyDone(st.Text):
				out.FinalText = st.Text
				state = StateConfirmed
				continue
			case st.Transitional():
				out.FinalText = st.Text
				busy = true
			default:
				out.FinalText = st.Text
			}

			if out.Polls >= s.timing.transitionalCeiling() || (!busy && out.Polls >= s.timing.PollAttempts) {
				state = StateTimedOut
				continue
			}
			if err := s.sleep(ctx, s.timing.PollInterval); err != nil {
				return out, err
			}

		case StateConfirmed, StateTimedOut:
			out.State = state
			if state == StateTimedOut {
				log.Warn("Confirmation timeout, proceeding anyway.",
					zap.Int("polls", out.Polls), zap.String("last_text", out.FinalText))
			} else {
				log.Debug("Click confirmed.", zap.Int("polls", out.Polls))
			}
			return out, nil
		}
	}
}
