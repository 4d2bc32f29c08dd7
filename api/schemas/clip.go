// api/schemas/clip.go
package schemas

import (
	"fmt"
	"strings"
	"time"
)

// -- Clip Invocation Schemas --

// ClipMode selects which entry point a batch runs through.
type ClipMode string

const (
	// ModeAll classifies every matched button and clicks the clickable ones,
	// counting the already-clipped ones as it goes.
	ModeAll ClipMode = "all"
	// ModeAvailable pre-filters the matched buttons down to the clickable set
	// before anything is scheduled.
	ModeAvailable ClipMode = "available"
)

// ParseClipMode converts a user supplied string into a ClipMode.
func ParseClipMode(s string) (ClipMode, error) {
	switch ClipMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAll, "":
		return ModeAll, nil
	case ModeAvailable:
		return ModeAvailable, nil
	default:
		return "", fmt.Errorf("unknown clip mode %q (expected 'all' or 'available')", s)
	}
}

// ClipResult is produced once per invocation and handed back to the caller.
// It is never persisted.
//
// NewlyClipped + AlreadyClipped <= TotalFound holds for every result. Buttons
// that are neither clickable nor already clipped are excluded from both counts.
type ClipResult struct {
	BatchID        string        `json:"batch_id"`
	URL            string        `json:"url,omitempty"`
	Site           string        `json:"site"`
	Mode           ClipMode      `json:"mode"`
	TotalFound     int           `json:"total_found"`
	NewlyClipped   int           `json:"newly_clipped"`
	AlreadyClipped int           `json:"already_clipped"`
	Failed         int           `json:"failed"`
	Confirmed      int           `json:"confirmed,omitempty"`
	TimedOut       int           `json:"timed_out,omitempty"`
	Cancelled      bool          `json:"cancelled,omitempty"`
	Success        bool          `json:"success"`
	Message        string        `json:"message,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
}

// Summary renders the one-line status the control surface shows after a run.
func (r ClipResult) Summary() string {
	if !r.Success {
		if r.Message != "" {
			return r.Message
		}
		return "No coupons found on this page"
	}
	return fmt.Sprintf("Success! Found %d coupons. Clipped %d new ones.", r.TotalFound, r.NewlyClipped)
}
