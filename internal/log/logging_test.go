package log_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanmouse/lanmouse/internal/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", log.LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, log.ParseLevel(tt.in))
		})
	}
}

func TestSetupLoggerFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "lanmouse.log")
	logger, closers, err := log.SetupLogger("trace", file, log.FormatJSON)
	require.NoError(t, err)
	require.Len(t, closers, 1)

	logger.Log(t.Context(), log.LevelTrace, "datagram", "size", 21)
	logger.Debug("debug line")
	for _, c := range closers {
		require.NoError(t, c.Close())
	}

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "TRACE", rec["level"])
	assert.Equal(t, "datagram", rec["msg"])
	assert.Equal(t, float64(21), rec["size"])
}

func TestSetupLoggerLevelFiltersFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "lanmouse.log")
	logger, closers, err := log.SetupLogger("warn", file, log.FormatText)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	for _, c := range closers {
		require.NoError(t, c.Close())
	}
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "msg=shown")
}

func TestSetupLoggerRejectsFormat(t *testing.T) {
	_, _, err := log.SetupLogger("info", "", log.Format("xml"))
	assert.Error(t, err)
}

func TestRawLogger(t *testing.T) {
	var buf bytes.Buffer
	raw := log.NewRaw(&buf)
	raw.Log(true, "10.0.0.2:4242", []byte{0x05, 0x00, 0xff})
	raw.Log(false, "10.0.0.2:4242", nil)
	raw.Log(false, "10.0.0.3:4242", []byte{0x07})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "recv <- 10.0.0.2:4242: 3 bytes, hex: 05 00 ff"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "send -> 10.0.0.3:4242: 1 bytes, hex: 07"), lines[1])

	// A nil writer discards.
	log.NewRaw(nil).Log(true, "x", []byte{1})
}
