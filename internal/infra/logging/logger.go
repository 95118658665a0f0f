// Package logging builds the process logger and adapts it to core.Logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Development is the environment name that enables console output and debug
// logging by default.
const Development = "development"

// New constructs a zerolog.Logger writing to stdout. Level overrides the
// environment default when it parses.
func New(env, level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, env, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, env, level string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	if env == Development {
		lvl = zerolog.DebugLevel
	}
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && level != "" {
		lvl = parsed
	}

	logger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	if env == Development {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	}
	return logger
}

// Adapter exposes a zerolog.Logger through the key/value Logger interface
// used by the registry core.
type Adapter struct {
	log zerolog.Logger
}

// NewAdapter wraps log.
func NewAdapter(log zerolog.Logger) *Adapter {
	return &Adapter{log: log}
}

// Debug logs at debug level.
func (a *Adapter) Debug(msg string, args ...any) { a.emit(a.log.Debug(), msg, args) }

// Info logs at info level.
func (a *Adapter) Info(msg string, args ...any) { a.emit(a.log.Info(), msg, args) }

// Warn logs at warn level.
func (a *Adapter) Warn(msg string, args ...any) { a.emit(a.log.Warn(), msg, args) }

// Error logs at error level.
func (a *Adapter) Error(msg string, args ...any) { a.emit(a.log.Error(), msg, args) }

func (a *Adapter) emit(ev *zerolog.Event, msg string, args []any) {
	if ev == nil {
		return
	}
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			ev = ev.Interface("!BADKEY", key)
			break
		}
		switch v := args[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}
