// internal/notify/notify_test.go
package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEvaluator struct {
	mock.Mock
}

func (m *mockEvaluator) Evaluate(ctx context.Context, script string, res interface{}) error {
	args := m.Called(ctx, script, res)
	return args.Error(0)
}

type failingNotifier struct{ err error }

func (f failingNotifier) Notify(context.Context, Level, string) error { return f.err }

func TestLevelString(t *testing.T) {
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "success", LevelSuccess.String())
	assert.Equal(t, "warning", LevelWarning.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "info", Level(42).String())
}

func TestConsole(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewConsole(&buf, false)
		require.NoError(t, c.Notify(context.Background(), LevelInfo, "Found 3 coupons. Clipping..."))
		require.NoError(t, c.Notify(context.Background(), LevelSuccess, "Complete!"))
		assert.Equal(t, "[clipper] Found 3 coupons. Clipping...\n[clipper] Complete!\n", buf.String())
	})

	t.Run("colored", func(t *testing.T) {
		var buf bytes.Buffer
		c := NewConsole(&buf, true)
		require.NoError(t, c.Notify(context.Background(), LevelError, "boom"))
		assert.Contains(t, buf.String(), "\x1b[31m[clipper]\x1b[0m boom")
	})
}

func TestMulti(t *testing.T) {
	var a, b bytes.Buffer
	boom := errors.New("page closed")
	m := Multi{NewConsole(&a, false), nil, failingNotifier{err: boom}, NewConsole(&b, false)}

	err := m.Notify(context.Background(), LevelWarning, "No coupon buttons found on this page")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, a.String(), "No coupon buttons found on this page")
	assert.Contains(t, b.String(), "No coupon buttons found on this page", "a failing notifier does not stop the fan-out")

	assert.NoError(t, Multi{}.Notify(context.Background(), LevelInfo, "x"))
	assert.NoError(t, Nop{}.Notify(context.Background(), LevelInfo, "x"))
}

func TestToastScript(t *testing.T) {
	script, err := ToastScript(LevelSuccess, `He said "hi" </script>`, 4*time.Second)
	require.NoError(t, err)

	assert.Contains(t, script, `"coupon-clipper-notification"`)
	assert.Contains(t, script, `"#4CAF50"`)
	assert.Contains(t, script, `, 4000);`)
	assert.Contains(t, script, `He said \"hi\" \u003c/script\u003e`)
	assert.False(t, strings.Contains(script, "</script>"))

	script, err = ToastScript(Level(99), "x", time.Second)
	require.NoError(t, err)
	assert.Contains(t, script, `"#2196F3"`, "unknown levels use the info color")
}

func TestPageToast(t *testing.T) {
	ctx := context.Background()

	t.Run("injects script", func(t *testing.T) {
		ev := new(mockEvaluator)
		ev.On("Evaluate", ctx, mock.MatchedBy(func(s string) bool {
			return strings.Contains(s, "Found 2 coupons. Sending to card...") && strings.Contains(s, "#2196F3")
		}), mock.Anything).Return(nil).Once()

		require.NoError(t, NewPageToast(ev).Notify(ctx, LevelInfo, "Found 2 coupons. Sending to card..."))
		ev.AssertExpectations(t)
	})

	t.Run("wraps evaluation errors", func(t *testing.T) {
		ev := new(mockEvaluator)
		ev.On("Evaluate", ctx, mock.Anything, mock.Anything).Return(errors.New("target closed"))

		err := NewPageToast(ev).Notify(ctx, LevelError, "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to inject toast")
	})
}
