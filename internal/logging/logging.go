package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/xvzc/ipksniff/internal/session"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// scopeFieldName defines the key for the "scope" field in structured logs.
	scopeFieldName      = "scope"
	localScopeFieldName = "local_scope"
	runIDFieldName      = "run_id"
	deviceFieldName     = "device"
)

// Options controls where diagnostics are written.
type Options struct {
	Level zerolog.Level

	// Out receives the human-readable console output. Defaults to stderr
	// so that stdout only carries reports.
	Out io.Writer

	// File, when set, additionally receives JSON lines and is rotated by
	// size.
	File string

	NoColor bool
}

// NewLogger creates the base logger. Components derive their own with
// WithScope.
func NewLogger(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = newConsoleWriter(out, opts.NoColor)
	if opts.File != "" {
		w = zerolog.MultiLevelWriter(w, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		})
	}

	return zerolog.New(w).
		Hook(ctxHook{}).
		Level(opts.Level).
		With().
		Timestamp().
		Logger()
}

func newConsoleWriter(out io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
		// FormatPrepare intercepts fields just before printing
		// to render the scope as [SCOPE] and the local scope as "name;".
		FormatPrepare: func(m map[string]any) error {
			for _, k := range []string{runIDFieldName, deviceFieldName} {
				if v, ok := m[k].(string); !ok || v == "" {
					m[k] = ""
				}
			}

			if v, ok := m[scopeFieldName].(string); ok && v != "" {
				m[scopeFieldName] = fmt.Sprintf("[%s]", v)
			} else {
				m[scopeFieldName] = "[app]"
			}

			if v, ok := m[localScopeFieldName].(string); ok && v != "" {
				m[localScopeFieldName] = fmt.Sprintf("%s;", v)
			} else {
				m[localScopeFieldName] = ""
			}

			return nil
		},
		// The formatted fields are already part of PartsOrder.
		FieldsExclude: []string{
			runIDFieldName,
			deviceFieldName,
			scopeFieldName,
			localScopeFieldName,
		},
		PartsOrder: []string{
			zerolog.LevelFieldName,
			zerolog.TimestampFieldName,
			runIDFieldName,
			scopeFieldName,
			deviceFieldName,
			localScopeFieldName,
			zerolog.MessageFieldName,
		},
	}
}

// WithScope is a helper for components (like the Sniffer or the config
// loader) to create a sub-logger with their component name.
func WithScope(logger zerolog.Logger, scope string) zerolog.Logger {
	return logger.With().Str(scopeFieldName, scope).Logger()
}

func WithLocalScope(
	ctx context.Context,
	logger zerolog.Logger,
	localScope string,
) zerolog.Logger {
	return logger.With().Ctx(ctx).Str(localScopeFieldName, localScope).Logger()
}

// ctxHook implements the zerolog.Hook interface.
// Its Run method is called for every log event, allowing us to
// automatically extract values from the context.
type ctxHook struct{}

// Run adds the run ID and the capture device from the context attached
// with .Ctx(ctx), if any.
func (h ctxHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	if id, ok := session.RunIDFrom(ctx); ok {
		e.Str(runIDFieldName, id)
	}

	if device, ok := session.DeviceFrom(ctx); ok {
		e.Str(deviceFieldName, device)
	}
}
