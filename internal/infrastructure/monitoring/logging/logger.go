// Package logging is the structured logger shared by every layer of shgctl.
// Entries go to stderr by default so stdout carries only command output.
//
// Components take a Logger by injection.  Field is zap's own field type, so
// entries are encoded without an intermediate representation.
package logging

import (
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/turtacn/SHG-Insights/pkg/errors"
)

// Accepted level names.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Field is a typed key-value pair attached to an entry.
type Field = zap.Field

func String(key, val string) Field                 { return zap.String(key, val) }
func Int(key string, val int) Field                { return zap.Int(key, val) }
func Int64(key string, val int64) Field            { return zap.Int64(key, val) }
func Float64(key string, val float64) Field        { return zap.Float64(key, val) }
func Bool(key string, val bool) Field              { return zap.Bool(key, val) }
func Strings(key string, val []string) Field       { return zap.Strings(key, val) }
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }
func Any(key string, val interface{}) Field        { return zap.Any(key, val) }

// Err records err as an "error" object holding its message and, for an
// AppError, its code.  A nil err is logged as the string "<nil>".
func Err(err error) Field {
	if err == nil {
		return zap.String("error", "<nil>")
	}
	return zap.Object("error", errorField{err})
}

type errorField struct{ err error }

// MarshalLogObject flattens err into {"message": ..., "code": ...}.
func (e errorField) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("message", e.err.Error())
	if code := errors.CodeOf(e.err); code != errors.CodeUnknown {
		enc.AddString("code", string(code))
	}
	return nil
}

// Logger is the structured logging contract.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// Fatal exits the process.  Only cmd/shgctl may call it.
	Fatal(msg string, fields ...Field)
	With(fields ...Field) Logger
	// Named appends name to the logger name: "analytics" then "cache" gives
	// "analytics.cache".
	Named(name string) Logger
}

// LevelSetter is implemented by loggers whose threshold can change at run
// time, e.g. when log.level is edited in a watched config file.
type LevelSetter interface {
	SetLevel(level string)
}

// LogConfig selects level, encoding and destinations.
type LogConfig struct {
	Level string
	// Format is "console" or "json"; anything else is json.
	Format           string
	OutputPaths      []string
	ErrorOutputPaths []string
	EnableCaller     bool
}

type zapLogger struct {
	*zap.Logger
	level *zap.AtomicLevel
}

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{Logger: l.Logger.With(fields...), level: l.level}
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{Logger: l.Logger.Named(name), level: l.level}
}

// SetLevel applies to this logger and every logger derived from it.  Loggers
// built by NewLoggerFromCore ignore it.
func (l *zapLogger) SetLevel(level string) {
	if l.level != nil {
		l.level.SetLevel(parseLevel(level))
	}
}

// parseLevel is case and space insensitive.  Unknown names mean info.
func parseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl < zapcore.DebugLevel || lvl > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return lvl
}

// NewLogger builds a zap logger writing to stderr unless cfg names other
// outputs.
func NewLogger(cfg LogConfig) (Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	level := zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zc.Level = level
	zc.Sampling = nil
	zc.DisableCaller = !cfg.EnableCaller
	zc.DisableStacktrace = cfg.Format != "console"
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = orStderr(cfg.OutputPaths)
	zc.ErrorOutputPaths = orStderr(cfg.ErrorOutputPaths)

	z, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build logger")
	}
	return &zapLogger{Logger: z, level: &level}, nil
}

func orStderr(paths []string) []string {
	if len(paths) == 0 {
		return []string{"stderr"}
	}
	return paths
}

// NewLoggerFromCore wraps an existing core, typically a zaptest buffer.
func NewLoggerFromCore(core zapcore.Core) Logger {
	return &zapLogger{Logger: zap.New(core)}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (nopLogger) Fatal(string, ...Field) {}
func (n nopLogger) With(...Field) Logger { return n }
func (n nopLogger) Named(string) Logger  { return n }

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

type holder struct{ Logger }

var process atomic.Pointer[holder]

// SetDefault installs l as the process logger.  nil is ignored.
func SetDefault(l Logger) {
	if l != nil {
		process.Store(&holder{l})
	}
}

// Default returns the process logger, a no-op logger until SetDefault runs.
func Default() Logger {
	if h := process.Load(); h != nil {
		return h.Logger
	}
	return nopLogger{}
}
