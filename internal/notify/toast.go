// internal/notify/toast.go
package notify

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Evaluator runs a script in the page.
type Evaluator interface {
	Evaluate(ctx context.Context, script string, res interface{}) error
}

// ToastElementID is the id of the injected toast; a new toast replaces the old one.
const ToastElementID = "coupon-clipper-notification"

var toastColors = map[Level]string{
	LevelInfo:    "#2196F3",
	LevelSuccess: "#4CAF50",
	LevelWarning: "#FF9800",
	LevelError:   "#F44336",
}

const toastScript = `(() => {
  const existing = document.getElementById(%[1]s);
  if (existing) existing.remove();
  const el = document.createElement('div');
  el.id = %[1]s;
  el.textContent = %[2]s;
  Object.assign(el.style, {
    position: 'fixed', top: '20px', right: '20px',
    backgroundColor: %[3]s, color: 'white',
    padding: '15px 20px', borderRadius: '8px', zIndex: '10001',
    fontSize: '14px', fontFamily: 'Arial, sans-serif', maxWidth: '300px',
    boxShadow: '0 4px 12px rgba(0,0,0,0.3)'
  });
  (document.body || document.documentElement).appendChild(el);
  setTimeout(() => { if (el.parentNode) el.remove(); }, %[4]d);
  return true;
})()`

// PageToast shows messages as a transient element in the top right corner of
// the page.
type PageToast struct {
	eval     Evaluator
	duration time.Duration
}

// NewPageToast creates a toast notifier. Toasts remove themselves after 4s.
func NewPageToast(eval Evaluator) *PageToast {
	return &PageToast{eval: eval, duration: 4 * time.Second}
}

func (p *PageToast) Notify(ctx context.Context, level Level, message string) error {
	script, err := ToastScript(level, message, p.duration)
	if err != nil {
		return err
	}
	var ok bool
	if err := p.eval.Evaluate(ctx, script, &ok); err != nil {
		return fmt.Errorf("failed to inject toast: %w", err)
	}
	return nil
}

// ToastScript renders the injection script. String values are JSON encoded
// so page text can never break out of the literal.
func ToastScript(level Level, message string, d time.Duration) (string, error) {
	color, ok := toastColors[level]
	if !ok {
		color = toastColors[LevelInfo]
	}
	quoted := make([]string, 0, 3)
	for _, s := range []string{ToastElementID, message, color} {
		b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(s)
		if err != nil {
			return "", fmt.Errorf("failed to encode toast value: %w", err)
		}
		quoted = append(quoted, string(b))
	}
	return fmt.Sprintf(toastScript, quoted[0], quoted[1], quoted[2], d.Milliseconds()), nil
}
