// internal/browser/manager_test.go
package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/clipper-cli/internal/config"
)

func TestManagerShutdownBeforeInit(t *testing.T) {
	m := NewManager(config.NewDefaultConfig().Browser(), zaptest.NewLogger(t))
	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()), "second shutdown is a no-op")

	_, err := m.NewTab()
	assert.ErrorIs(t, err, ErrManagerClosed)
}

func TestManagerRemote(t *testing.T) {
	cfg := config.NewDefaultConfig().Browser()
	assert.False(t, NewManager(cfg, zaptest.NewLogger(t)).Remote())

	cfg.RemoteURL = "ws://127.0.0.1:9222/devtools/browser/abc"
	assert.True(t, NewManager(cfg, zaptest.NewLogger(t)).Remote())
}
