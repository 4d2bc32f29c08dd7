// internal/browser/allocator.go
package browser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/clipper-cli/internal/config"
)

// allocatorFlags returns the command line flags layered on top of chromedp's
// defaults. A false value removes a default flag.
func allocatorFlags(cfg config.BrowserConfig) map[string]any {
	flags := map[string]any{
		// Retailer pages treat the automation banner and the
		// AutomationControlled blink feature as bot signals.
		"enable-automation":      false,
		"disable-blink-features": "AutomationControlled",
		"headless":               cfg.Headless,
		"hide-scrollbars":        cfg.Headless,
		"mute-audio":             cfg.Headless,
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		flags["window-size"] = fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight)
	}
	if cfg.UserDataDir != "" {
		flags["user-data-dir"] = cfg.UserDataDir
	}
	for _, arg := range cfg.Args {
		name, value, ok := parseArg(arg)
		if !ok {
			continue
		}
		flags[name] = value
	}
	return flags
}

// parseArg splits "--name=value" or "--name" into a chromedp flag.
func parseArg(arg string) (string, any, bool) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	if arg == "" {
		return "", nil, false
	}
	name, value, hasValue := strings.Cut(arg, "=")
	if !hasValue {
		return name, true, true
	}
	return name, value, true
}

// AllocatorOptions builds the exec allocator options for a locally launched Chrome.
func AllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	flags := allocatorFlags(cfg)
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opts = append(opts, chromedp.Flag(name, flags[name]))
	}

	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.Stealth && cfg.Persona.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.Persona.UserAgent))
	}
	return opts
}
