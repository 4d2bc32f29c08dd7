// internal/browser/dom/dom.go
package dom

import (
	"context"
	"strings"
)

// ButtonState is a point-in-time read of a coupon button.
type ButtonState struct {
	Text     string `json:"text"`
	Disabled bool   `json:"disabled"`
	// Loading is set when the button carries a "loading" class (a spinner
	// is showing while the retailer processes the request).
	Loading bool `json:"loading"`
}

// Transitional reports whether the button is mid-request.
func (s ButtonState) Transitional() bool {
	return s.Disabled || s.Loading
}

// Element is a handle to a single button on a page.
type Element interface {
	// ID returns a stable identifier for logging (element id, test id or position).
	ID() string
	State(ctx context.Context) (ButtonState, error)
	Click(ctx context.Context) error
}

// Document is the page-level query surface the clipper works against.
// Implementations return matches in document order.
type Document interface {
	QueryAll(ctx context.Context, selector string) ([]Element, error)
}

// HasClass reports whether a space separated class attribute contains name.
func HasClass(classAttr, name string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == name {
			return true
		}
	}
	return false
}
