// internal/notify/notify.go
package notify

import (
	"context"
	"errors"
)

// Level is the severity of a user facing status message.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier presents status messages to the user. Delivery is best effort;
// callers log a returned error and carry on.
type Notifier interface {
	Notify(ctx context.Context, level Level, message string) error
}

// Nop discards every message.
type Nop struct{}

func (Nop) Notify(context.Context, Level, string) error { return nil }

// Multi fans a message out to every notifier, joining their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, level Level, message string) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, level, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
