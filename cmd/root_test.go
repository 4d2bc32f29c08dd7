// cmd/root_test.go
package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_VersionFlag(t *testing.T) {
	stdout, _, err := executeCommand(t, context.Background(), "--version")
	require.NoError(t, err)
	assert.Equal(t, "clipper version dev\n", stdout)
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := executeCommand(t, context.Background(), "version")
	require.NoError(t, err)
	assert.Equal(t, "clipper version dev\n", stdout)
}

func TestRootCmd_NoArgsShowsHelp(t *testing.T) {
	stdout, _, err := executeCommand(t, context.Background())
	require.NoError(t, err)
	assert.Contains(t, stdout, "Clipper clips every digital coupon")
	assert.Contains(t, stdout, "watch")
}

func TestRootCmd_MissingConfigFile(t *testing.T) {
	_, _, err := executeCommand(t, context.Background(), "sites", "--config", "/nonexistent/clipper.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	cfg := writeFile(t, "config.yaml", "clipper:\n  poll_attempts: 0\n")
	_, _, err := executeCommand(t, context.Background(), "sites", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load or validate config")
}

func TestRootCmd_EnvAndFlagPrecedence(t *testing.T) {
	src := useFakeBrowser(t, map[string]string{"https://www.kroger.com/savings/cl/coupons/": krogerPage})
	cfg := writeFile(t, "config.yaml", fastConfig+"browser:\n  concurrency: 2\n  headless: false\n")
	t.Setenv("CLIPPER_BROWSER_CONCURRENCY", "5")

	_, _, err := executeCommand(t, context.Background(),
		"clip", "--config", cfg, "--headless", "--remote-url", "ws://127.0.0.1:9222/devtools/browser/x",
		"https://www.kroger.com/savings/cl/coupons/")
	require.NoError(t, err)

	assert.Equal(t, 5, src.cfg.Concurrency, "env beats the config file")
	assert.True(t, src.cfg.Headless, "flag beats the config file")
	assert.Equal(t, "ws://127.0.0.1:9222/devtools/browser/x", src.cfg.RemoteURL)
}

func TestConfigFromContext(t *testing.T) {
	_, err := configFromContext(context.Background())
	assert.EqualError(t, err, "configuration not loaded")
}
