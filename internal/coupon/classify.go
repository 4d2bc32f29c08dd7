// internal/coupon/classify.go
package coupon

import "strings"

// Classification is the bucket a button label falls into.
type Classification int

const (
	Irrelevant Classification = iota
	Clickable
	AlreadyDone
)

func (c Classification) String() string {
	switch c {
	case Clickable:
		return "clickable"
	case AlreadyDone:
		return "already_done"
	default:
		return "irrelevant"
	}
}

// Normalize trims surrounding whitespace and case folds a button label.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
