// internal/coupon/classify_test.go
package coupon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "clip", Normalize("  Clip\n"))
	assert.Equal(t, "send to card", Normalize("\tSEND TO CARD "))
	assert.Equal(t, "", Normalize("   "))
}

func TestSiteProfile_Classify(t *testing.T) {
	tests := []struct {
		name    string
		profile SiteProfile
		text    string
		want    Classification
	}{
		{"kroger clip", KrogerProfile, "Clip", Clickable},
		{"kroger clip padded", KrogerProfile, "  CLIP  ", Clickable},
		{"kroger clipped", KrogerProfile, "Clipped", AlreadyDone},
		{"kroger unclip", KrogerProfile, "Unclip", AlreadyDone},
		{"kroger added", KrogerProfile, "Added to card", AlreadyDone},
		{"kroger clip coupon is not exact", KrogerProfile, "Clip Coupon", Irrelevant},
		{"kroger empty", KrogerProfile, "", Irrelevant},
		{"walgreens clip", WalgreensProfile, "clip", Clickable},
		{"walgreens shop", WalgreensProfile, "Shop", Irrelevant},
		{"walgreens clipped", WalgreensProfile, "Clipped", AlreadyDone},
		{"cvs send", CVSProfile, "Send to card", Clickable},
		{"cvs send with extra", CVSProfile, "Send to card $2 off", Clickable},
		{"cvs sent", CVSProfile, "Sent to card", AlreadyDone},
		{"cvs on card", CVSProfile, "On card", AlreadyDone},
		{"cvs added", CVSProfile, "Added!", AlreadyDone},
		{"cvs other", CVSProfile, "Learn more", Irrelevant},
		{"cvs clip means nothing", CVSProfile, "Clip", Irrelevant},
		{"unknown never clicks", UnknownProfile, "Clip", Irrelevant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.profile.Classify(tt.text))
		})
	}
}

func TestSiteProfile_Messages(t *testing.T) {
	assert.Equal(t, "Found 4 coupons. Clipping...", KrogerProfile.StartMessage(4))
	assert.Equal(t, "Found 2 coupons. Sending to card...", CVSProfile.StartMessage(2))
	assert.Equal(t, "Complete! Clipped 3 new coupons. 1 were already clipped.", KrogerProfile.CompleteMessage(3, 1))
	assert.Equal(t, "Complete! Clipped 0 new coupons. 5 were already clipped.", WalgreensProfile.CompleteMessage(0, 5))
	assert.Equal(t, "Complete! Sent to card 2 new coupons. 1 were already sent to card.", CVSProfile.CompleteMessage(2, 1))
}

func TestProfiles(t *testing.T) {
	kinds := []SiteKind{}
	for _, p := range Profiles() {
		kinds = append(kinds, p.Kind)
	}
	assert.Equal(t, []SiteKind{SiteKroger, SiteCVS, SiteWalgreens}, kinds, "detection order is fixed")

	assert.Equal(t, CVSProfile.MatchSelector, ProfileFor(SiteCVS).MatchSelector)
	assert.Equal(t, SiteUnknown, ProfileFor(SiteKind(9)).Kind)
	assert.Equal(t, "walgreens", SiteWalgreens.String())
	assert.Equal(t, "unknown", SiteKind(9).String())
	assert.Equal(t, "already_done", AlreadyDone.String())
}
