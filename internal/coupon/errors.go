// internal/coupon/errors.go
package coupon

import (
	"errors"
	"fmt"

	"github.com/xkilldash9x/clipper-cli/api/schemas"
)

var (
	// ErrNoButtonsFound means no site profile matched any button on the page.
	ErrNoButtonsFound = errors.New("no coupon buttons found")
	// ErrNoAvailableCoupons means buttons matched but none could be clicked.
	ErrNoAvailableCoupons = errors.New("no available coupons to clip")
	// ErrBatchCancelled means the batch stopped before every click was delivered.
	ErrBatchCancelled = errors.New("clip batch cancelled")
)

// ClickError wraps a failure to deliver a single click.
type ClickError struct {
	Index    int
	ButtonID string
	Err      error
}

func (e *ClickError) Error() string {
	return fmt.Sprintf("click on button %d (%s) failed: %v", e.Index, e.ButtonID, e.Err)
}

func (e *ClickError) Unwrap() error { return e.Err }

// ResultError maps a finished result onto the sentinel describing why it
// did not succeed. It returns nil for successful results.
func ResultError(res *schemas.ClipResult) error {
	switch {
	case res == nil || res.Success:
		return nil
	case res.Cancelled:
		return ErrBatchCancelled
	case res.TotalFound == 0:
		return ErrNoButtonsFound
	default:
		return ErrNoAvailableCoupons
	}
}
