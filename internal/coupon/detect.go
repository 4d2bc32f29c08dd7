// internal/coupon/detect.go
package coupon

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/clipper-cli/internal/browser/dom"
)

// Detection is the outcome of matching a page against the site profiles.
type Detection struct {
	Profile SiteProfile
	// Buttons are the matched coupon buttons in document order.
	Buttons []dom.Element
}

// Found reports whether any profile matched.
func (d Detection) Found() bool {
	return d.Profile.Kind != SiteUnknown && len(d.Buttons) > 0
}

// Detect tries each profile in priority order and returns the first one with
// at least one matching button. A page with no match yields SiteUnknown and
// no error.
func Detect(ctx context.Context, doc dom.Document) (Detection, error) {
	for _, p := range Profiles() {
		buttons, err := doc.QueryAll(ctx, p.MatchSelector)
		if err != nil {
			return Detection{Profile: UnknownProfile}, fmt.Errorf("failed to query %s buttons: %w", p.Kind, err)
		}
		if len(buttons) > 0 {
			return Detection{Profile: p, Buttons: buttons}, nil
		}
	}
	return Detection{Profile: UnknownProfile}, nil
}
