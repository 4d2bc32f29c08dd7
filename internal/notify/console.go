// internal/notify/console.go
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/xkilldash9x/clipper-cli/internal/observability"
)

var levelColors = map[Level]string{
	LevelInfo:    "blue",
	LevelSuccess: "green",
	LevelWarning: "yellow",
	LevelError:   "red",
}

// Console writes one line per message.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	color  bool
	prefix string
}

// NewConsole creates a console notifier. With color set the level tag is
// wrapped in ANSI codes.
func NewConsole(w io.Writer, color bool) *Console {
	return &Console{w: w, color: color, prefix: "clipper"}
}

func (c *Console) Notify(_ context.Context, level Level, message string) error {
	tag := fmt.Sprintf("[%s]", c.prefix)
	if c.color {
		tag = observability.Colorize(levelColors[level], tag)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "%s %s\n", tag, message)
	return err
}
