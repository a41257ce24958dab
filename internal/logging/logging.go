package logging

import (
	"context"
	"io"
	stdlog "log"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level       string
	Pretty      bool
	ServiceName string
}

var global = zerolog.New(os.Stdout).With().Timestamp().Logger()

// New builds a zerolog.Logger writing to w. ERROR-level events automatically
// include a stack trace.
func New(w io.Writer, cfg Config) zerolog.Logger {
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	logger := zerolog.New(w).
		Level(parseLevel(cfg.Level)).
		Hook(stackHook{}).
		With().Timestamp().Caller().Logger()
	if cfg.ServiceName != "" {
		logger = logger.With().Str(FieldService, cfg.ServiceName).Logger()
	}
	return logger
}

// Setup configures the global logger from cfg and bridges the standard
// library log package into it.
func Setup(cfg Config) zerolog.Logger {
	global = New(os.Stdout, cfg)
	stdlog.SetFlags(0)
	stdlog.SetOutput(global.With().Str("source", "stdlog").Logger())
	return global
}

// L returns the global logger.
func L() *zerolog.Logger {
	return &global
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Fatal logs at Error level and exits with code 1.
func Fatal(err error, msg string) {
	global.Error().Err(err).Msg(msg)
	os.Exit(1)
}

// stackHook appends a stack trace to ERROR+ events.
type stackHook struct{}

func (stackHook) Run(e *zerolog.Event, level zerolog.Level, _ string) {
	if level < zerolog.ErrorLevel || level == zerolog.NoLevel || level == zerolog.Disabled {
		return
	}
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	e.Str("stacktrace", string(buf[:n]))
}

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx returns the request-scoped logger, or the global logger if none is set.
func Ctx(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return &l
	}
	return L()
}
