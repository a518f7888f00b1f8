package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lzx0713/FreeChat/config"
)

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
		ok   bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"info", zapcore.InfoLevel, true},
		{"", zapcore.InfoLevel, true},
		{"warn", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"verbose", zapcore.InfoLevel, false},
	}

	for _, c := range cases {
		level, err := parseLogLevel(c.in)
		if c.ok {
			assert.NoError(t, err, "level %q", c.in)
		} else {
			assert.Error(t, err, "level %q", c.in)
		}
		assert.Equal(t, c.want, level)
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("console to stdout", func(t *testing.T) {
		log, err := NewLogger(&config.LoggingConfig{Level: "info", Format: "console", Output: "stdout"})
		require.NoError(t, err)
		defer log.Close()

		log.Info("hello")
	})

	t.Run("json to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		log, err := NewLogger(&config.LoggingConfig{Level: "debug", Format: "json", Output: "file", FilePath: path})
		require.NoError(t, err)

		log.Info("written", zap.String("k", "v"))
		require.NoError(t, log.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"message":"written"`)
		assert.Contains(t, string(data), `"k":"v"`)
	})

	t.Run("bad level rejected", func(t *testing.T) {
		_, err := NewLogger(&config.LoggingConfig{Level: "noisy"})
		assert.Error(t, err)
	})
}

func TestWithFields(t *testing.T) {
	log, err := NewDevelopmentLogger()
	require.NoError(t, err)

	child := log.WithFields(zap.String("component", "chat"))
	assert.NotSame(t, log, child)
	child.Info("tagged entry")
}
