// internal/coupon/site.go
package coupon

import (
	"fmt"
	"strings"
	"time"
)

// SiteKind identifies which retailer family a page belongs to.
type SiteKind int

const (
	SiteUnknown SiteKind = iota
	SiteKroger
	SiteCVS
	SiteWalgreens
)

func (k SiteKind) String() string {
	switch k {
	case SiteKroger:
		return "kroger"
	case SiteCVS:
		return "cvs"
	case SiteWalgreens:
		return "walgreens"
	default:
		return "unknown"
	}
}

// SiteProfile describes how coupon buttons look and behave on one retailer family.
type SiteProfile struct {
	Kind          SiteKind
	Name          string
	MatchSelector string
	// PerClickDelay is the stagger between scheduled clicks. It is unused
	// when Confirmation is set.
	PerClickDelay time.Duration
	// Confirmation serializes clicks and waits for each to be acknowledged.
	Confirmation bool
	// ActionVerb and PastVerb feed the user facing messages
	// ("Sending to card..." / "Sent to card 3 new coupons").
	ActionVerb string
	PastVerb   string

	clickExact    string
	clickContains string
	doneMarkers   []string
}

var (
	// KrogerProfile covers kroger.com and its banners (Ralphs, Fred Meyer,
	// King Soopers, Smith's), which share one storefront.
	KrogerProfile = SiteProfile{
		Kind:          SiteKroger,
		Name:          "Kroger family",
		MatchSelector: `button[data-testid^="CouponActionButton-"]`,
		PerClickDelay: 300 * time.Millisecond,
		ActionVerb:    "Clipping",
		PastVerb:      "Clipped",
		clickExact:    "clip",
		doneMarkers:   []string{"clipped", "added", "unclip"},
	}

	CVSProfile = SiteProfile{
		Kind:          SiteCVS,
		Name:          "CVS",
		MatchSelector: "send-to-card-action button.coupon-action, send-to-card-action button.sc-send-to-card-action",
		Confirmation:  true,
		ActionVerb:    "Sending to card",
		PastVerb:      "Sent to card",
		clickContains: "send to card",
		doneMarkers:   []string{"sent", "added", "on card"},
	}

	WalgreensProfile = SiteProfile{
		Kind:          SiteWalgreens,
		Name:          "Walgreens",
		MatchSelector: `button[id^="clip"]`,
		PerClickDelay: 500 * time.Millisecond,
		ActionVerb:    "Clipping",
		PastVerb:      "Clipped",
		clickExact:    "clip",
		doneMarkers:   []string{"clipped", "added", "unclip"},
	}

	UnknownProfile = SiteProfile{Kind: SiteUnknown, Name: "unknown"}
)

// Profiles returns the supported profiles in detection priority order.
func Profiles() []SiteProfile {
	return []SiteProfile{KrogerProfile, CVSProfile, WalgreensProfile}
}

// ProfileFor looks a profile up by kind.
func ProfileFor(kind SiteKind) SiteProfile {
	for _, p := range Profiles() {
		if p.Kind == kind {
			return p
		}
	}
	return UnknownProfile
}

// IsClickable reports whether a button with this label still needs clicking.
func (p SiteProfile) IsClickable(text string) bool {
	n := Normalize(text)
	switch {
	case p.clickExact != "":
		return n == p.clickExact
	case p.clickContains != "":
		return strings.Contains(n, p.clickContains)
	default:
		return false
	}
}

// IsAlreadyDone reports whether the label shows the coupon is already on the card.
func (p SiteProfile) IsAlreadyDone(text string) bool {
	n := Normalize(text)
	for _, m := range p.doneMarkers {
		if strings.Contains(n, m) {
			return true
		}
	}
	return false
}

// Classify buckets a button label. Clickable wins over AlreadyDone.
func (p SiteProfile) Classify(text string) Classification {
	switch {
	case p.IsClickable(text):
		return Clickable
	case p.IsAlreadyDone(text):
		return AlreadyDone
	default:
		return Irrelevant
	}
}

// StartMessage is shown once the buttons have been counted.
func (p SiteProfile) StartMessage(found int) string {
	return fmt.Sprintf("Found %d coupons. %s...", found, p.ActionVerb)
}

// CompleteMessage is shown after the batch has drained.
func (p SiteProfile) CompleteMessage(newly, already int) string {
	return fmt.Sprintf("Complete! %s %d new coupons. %d were already %s.",
		p.PastVerb, newly, already, strings.ToLower(p.PastVerb))
}
