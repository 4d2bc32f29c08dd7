// cmd/clipper/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/clipper-cli/cmd"
	"github.com/xkilldash9x/clipper-cli/internal/observability"
)

// Allows mocking os.Exit in tests.
var osExit = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx)
	stop()
	osExit(code)
}

func run(ctx context.Context) int {
	err := cmd.Execute(ctx)
	observability.Sync()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		// Ctrl+C mid batch; the summary has already been printed.
		return 130
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
}
