package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvzc/ipksniff/internal/session"
)

func TestNewLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Options{Level: zerolog.InfoLevel, Out: &buf, NoColor: true})

	ctx := session.WithDevice(context.Background(), "eth0")
	scoped := WithLocalScope(ctx, WithScope(logger, "SNIFF"), "run")

	scoped.Info().Msg("capture started")
	scoped.Debug().Msg("hidden")

	out := buf.String()
	assert.Contains(t, out, "[SNIFF]")
	assert.Contains(t, out, "eth0")
	assert.Contains(t, out, "run;")
	assert.Contains(t, out, "capture started")
	assert.NotContains(t, out, "hidden")
}

func TestNewLogger_DefaultScope(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Options{Level: zerolog.DebugLevel, Out: &buf, NoColor: true})

	logger.Debug().Msg("plain")

	assert.Contains(t, buf.String(), "[app]")
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ipksniff.log")

	var buf bytes.Buffer
	logger := NewLogger(Options{
		Level:   zerolog.InfoLevel,
		Out:     &buf,
		File:    path,
		NoColor: true,
	})
	l := WithScope(logger, "MAIN")
	l.Warn().Msg("to both")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scope":"MAIN"`)
	assert.Contains(t, string(data), `"message":"to both"`)
	assert.Contains(t, buf.String(), "to both")
}
