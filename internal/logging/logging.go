// Package logging builds the process logger: JSON lines to a file through
// zerolog, with errors fanned out to Sentry when a DSN is configured. The TUI
// owns stdout, so nothing is written to the terminal.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

type Options struct {
	Env       string
	Level     string
	File      string // empty discards file output
	SentryDSN string
	Release   string
}

// Logger wraps the slog front end with the resources that must be flushed on
// exit.
type Logger struct {
	*slog.Logger
	file   io.Closer
	sentry bool
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New opens the log file and, when SentryDSN is set, initialises the Sentry
// client.
func New(opts Options) (*Logger, error) {
	l := &Logger{}
	var out io.Writer = io.Discard
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, errors.Wrapf(err, "open log file %s", opts.File)
		}
		out, l.file = f, f
	}
	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         opts.SentryDSN,
			Environment: opts.Env,
			Release:     opts.Release,
		})
		if err != nil {
			if l.file != nil {
				_ = l.file.Close()
			}
			return nil, errors.Wrap(err, "init sentry")
		}
		l.sentry = true
	}
	l.Logger = slog.New(handler(out, ParseLevel(opts.Level), l.sentry)).With("env", opts.Env)
	return l, nil
}

// NewWriter logs to w only; used by tests and the CLI subcommands.
func NewWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(handler(w, level, false))
}

func handler(w io.Writer, level slog.Level, withSentry bool) slog.Handler {
	zl := zerolog.New(w).With().Timestamp().Logger()
	file := slogzerolog.Option{Level: level, Logger: &zl}.NewZerologHandler()
	if !withSentry {
		return file
	}
	return slogmulti.Fanout(
		file,
		slogsentry.Option{Level: slog.LevelError}.NewSentryHandler(),
	)
}

// Close flushes Sentry and closes the log file.
func (l *Logger) Close() error {
	if l.sentry {
		sentry.Flush(2 * time.Second)
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
