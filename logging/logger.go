// Package logging provides a structured (slog) logging wrapper with
// OpenTelemetry trace-context injection and optional remote log shipping.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"go.opentelemetry.io/otel/trace"
)

var (
	defaultLogger *Logger
	once          sync.Once

	// levelVar backs every handler's Level option, so SetLevel can raise or
	// lower verbosity on a running process without rebuilding the Logger
	// (config hot-reload calls this from its fsnotify callback).
	levelVar slog.LevelVar
)

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel adjusts the shared log level at runtime. Safe for concurrent use.
func SetLevel(level string) {
	levelVar.Set(parseLevel(level))
}

// Config configures a Logger.
type Config struct {
	Service    string
	Module     string
	Level      string
	File       string // log file path; empty means stdout only
	MaxSize    int    // max size per log file (MB)
	MaxBackups int    // max retained rotated files
	MaxAge     int    // max retained age (days)
	Compress   bool   // compress rotated files
	Remote     RemoteConfig
}

// Logger wraps *slog.Logger, adding the service/module fields every record
// carries.
type Logger struct {
	*slog.Logger
	Service string
	Module  string
	close   func() error
}

// Close releases any resources NewFromConfig opened (the remote writer's
// background flush loop, if enabled). Safe to call on a Logger built
// without remote logging.
func (l *Logger) Close() error {
	if l.close == nil {
		return nil
	}
	return l.close()
}

// TraceHandler decorates a slog.Handler, injecting trace_id/span_id from
// the OpenTelemetry span found in the record's context.
type TraceHandler struct {
	slog.Handler
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

// NewFromConfig builds a Logger per cfg. When cfg.Remote.Enabled, the local
// handler is fanned out to a remoteWriter-backed handler via
// newMultiHandler, instead of leaving remote shipping unwired.
func NewFromConfig(cfg Config) *Logger {
	levelVar.Set(parseLevel(cfg.Level))

	replaceAttr := func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			a.Key = "timestamp"
		}
		return a
	}

	var handler slog.Handler
	if cfg.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		handler = slog.NewJSONHandler(fileWriter, &slog.HandlerOptions{
			Level:       &levelVar,
			ReplaceAttr: replaceAttr,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:       &levelVar,
			ReplaceAttr: replaceAttr,
		})
	}

	var closeFn func() error
	if cfg.Remote.Enabled {
		remote, closeRemote := newRemoteWriter(cfg.Remote)
		remoteHandler := slog.NewJSONHandler(remote, &slog.HandlerOptions{
			Level:       &levelVar,
			ReplaceAttr: replaceAttr,
		})
		handler = newMultiHandler(handler, remoteHandler)
		closeFn = closeRemote
	}

	traceHandler := &TraceHandler{Handler: handler}

	logger := slog.New(traceHandler).With(
		slog.String("service", cfg.Service),
		slog.String("module", cfg.Module),
	)

	return &Logger{
		Logger:  logger,
		Service: cfg.Service,
		Module:  cfg.Module,
		close:   closeFn,
	}
}

// NewLogger is a compatibility alias for simple construction.
func NewLogger(service, module string, level ...string) *Logger {
	lvl := "info"
	if len(level) > 0 {
		lvl = level[0]
	}
	return NewFromConfig(Config{
		Service: service,
		Module:  module,
		Level:   lvl,
	})
}

// InitLogger initializes the global default logger. Call once at process
// startup.
func InitLogger(service, module string, level ...string) {
	once.Do(func() {
		lvl := "info"
		if len(level) > 0 {
			lvl = level[0]
		}
		defaultLogger = NewFromConfig(Config{
			Service: service,
			Module:  module,
			Level:   lvl,
		})
		slog.SetDefault(defaultLogger.Logger)
	})
}

// EnsureDefaultLogger lazily initializes the global default logger.
func EnsureDefaultLogger() {
	if defaultLogger == nil {
		InitLogger("default", "default", "info")
	}
}

// Default returns the global default Logger.
func Default() *Logger {
	EnsureDefaultLogger()
	return defaultLogger
}

func Info(ctx context.Context, msg string, args ...any) {
	EnsureDefaultLogger()
	defaultLogger.InfoContext(ctx, msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	EnsureDefaultLogger()
	defaultLogger.WarnContext(ctx, msg, args...)
}

func Error(ctx context.Context, msg string, args ...any) {
	EnsureDefaultLogger()
	defaultLogger.ErrorContext(ctx, msg, args...)
}

func Debug(ctx context.Context, msg string, args ...any) {
	EnsureDefaultLogger()
	defaultLogger.DebugContext(ctx, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any)  { Info(ctx, msg, args...) }
func WarnContext(ctx context.Context, msg string, args ...any)  { Warn(ctx, msg, args...) }
func ErrorContext(ctx context.Context, msg string, args ...any) { Error(ctx, msg, args...) }
func DebugContext(ctx context.Context, msg string, args ...any) { Debug(ctx, msg, args...) }

// LogDuration logs the elapsed time of an operation when the returned
// closure is called.
func LogDuration(ctx context.Context, operation string, args ...any) func() {
	start := time.Now()
	return func() {
		logArgs := append(args, "duration", time.Since(start))
		Info(ctx, fmt.Sprintf("%s finished", operation), logArgs...)
	}
}

// GetLogger returns the global default Logger, initializing an "unknown"
// one if InitLogger was never called.
func GetLogger() *Logger {
	if defaultLogger == nil {
		return NewFromConfig(Config{Service: "unknown", Module: "unknown"})
	}
	return defaultLogger
}
