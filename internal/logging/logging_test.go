package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewNop(t *testing.T) {
	l, err := New(Options{})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))

	assert.NotNil(t, OrNop(nil))
	assert.Same(t, l, OrNop(l))
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "warn", Console: &buf})
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown", zap.String("query", "#TODO"))
	require.NoError(t, l.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "#TODO")
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quickjump.log")
	l, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)

	l.Named("palette").Debug("evaluated", zap.Int("results", 3))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	require.True(t, gjson.Valid(line), line)
	entry := gjson.Parse(line)
	assert.Equal(t, "evaluated", entry.Get("message").String())
	assert.Equal(t, "DEBUG", entry.Get("level").String())
	assert.Equal(t, "palette", entry.Get("logger").String())
	assert.Equal(t, int64(3), entry.Get("results").Int())
}

func TestNewBadLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}
