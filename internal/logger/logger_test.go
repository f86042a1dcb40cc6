package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestNew(t *testing.T) {
	t.Run("unknown level falls back to info and says so", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "studio.log")
		l, err := New(Config{Level: "loud", OutputPath: path})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
		_ = l.Sync()

		out := readLog(t, path)
		assert.Contains(t, out, "Invalid log level, using info")
		assert.Contains(t, out, `"requested_level":"loud"`)
	})

	t.Run("writes json with service field", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "studio.log")
		l, err := New(Config{Level: "DEBUG", Encoding: "xml", OutputPath: path, Service: "studio-server"})
		require.NoError(t, err)
		l.Debug("hello")
		_ = l.Sync()

		out := readLog(t, path)
		assert.Contains(t, out, `"msg":"hello"`)
		assert.Contains(t, out, `"level":"DEBUG"`)
		assert.Contains(t, out, `"timestamp"`)
		assert.Contains(t, out, `"service":"studio-server"`)
		assert.NotContains(t, out, `"caller"`)
	})

	t.Run("development uses console with caller", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "studio.log")
		l, err := New(Config{Encoding: "json", OutputPath: path, Development: true})
		require.NoError(t, err)
		l.Info("started")
		_ = l.Sync()

		out := readLog(t, path)
		assert.Contains(t, out, "started")
		assert.NotContains(t, out, `"msg"`)
		assert.Contains(t, out, "logger_test.go")
	})
}
