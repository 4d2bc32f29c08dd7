// cmd/tabs.go
package cmd

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/clipper-cli/internal/browser"
	"github.com/xkilldash9x/clipper-cli/internal/browser/dom"
	"github.com/xkilldash9x/clipper-cli/internal/config"
)

// pageTab is the slice of a browser tab the commands use.
type pageTab interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	Evaluate(ctx context.Context, script string, res interface{}) error
	Document() dom.Document
	Close() error
}

type tabSource interface {
	NewTab() (pageTab, error)
	Shutdown(ctx context.Context) error
}

type managerSource struct {
	*browser.Manager
}

func (m managerSource) NewTab() (pageTab, error) {
	t, err := m.Manager.NewTab()
	if err != nil {
		return nil, err
	}
	return t, nil
}

// newTabSource is replaced in tests.
var newTabSource = func(cfg config.BrowserConfig, logger *zap.Logger) tabSource {
	return managerSource{browser.NewManager(cfg, logger)}
}
