// Package log is a small leveled logger wrapper around zap, shaped after
// the donor repository's contrib/log usage (NewHelper, Context, With,
// leveled printf methods) so the rest of the tree can stay decoupled from
// zap's own API.
package log

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the minimal leveled logging surface the rest of the proxy
// depends on.
type Logger interface {
	Log(level Level, msg string, kv ...any)
}

type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// zapLogger adapts *zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// Options configures the process-wide logger. Path is the rotation target;
// an empty Path logs to stderr only.
type Options struct {
	Level      Level
	Path       string
	Caller     bool
	MaxSize    int
	MaxAge     int
	MaxBackups int
	Compress   bool
}

// New builds a Logger from Options, rotating through lumberjack when Path
// is set.
func New(o Options) Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(enc)

	var writer zapcore.WriteSyncer
	if o.Path != "" {
		writer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   o.Path,
			MaxSize:    defaultInt(o.MaxSize, 100),
			MaxAge:     defaultInt(o.MaxAge, 7),
			MaxBackups: defaultInt(o.MaxBackups, 5),
			Compress:   o.Compress,
		})
	} else {
		writer = zapcore.AddSync(os.Stderr)
	}

	core := zapcore.NewCore(encoder, writer, o.Level.zapLevel())
	zopts := []zap.Option{}
	if o.Caller {
		zopts = append(zopts, zap.AddCaller())
	}

	return &zapLogger{sugar: zap.New(core, zopts...).Sugar()}
}

func defaultInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func (z *zapLogger) Log(level Level, msg string, kv ...any) {
	switch level {
	case LevelDebug:
		z.sugar.Debugw(msg, kv...)
	case LevelWarn:
		z.sugar.Warnw(msg, kv...)
	case LevelError:
		z.sugar.Errorw(msg, kv...)
	case LevelFatal:
		z.sugar.Fatalw(msg, kv...)
	default:
		z.sugar.Infow(msg, kv...)
	}
}

var global Logger = New(Options{Level: LevelInfo})

// SetLogger installs the process-wide logger.
func SetLogger(l Logger) { global = l }

// GetLogger returns the process-wide logger.
func GetLogger() Logger { return global }

// Helper is a convenience wrapper carrying a fixed set of key/value pairs,
// added to every call (mirrors the donor's log.Helper / log.With).
type Helper struct {
	logger Logger
	kv     []any
}

func NewHelper(l Logger) *Helper { return &Helper{logger: l} }

// With returns a Helper that always includes the given key/value pairs.
func With(l Logger, kv ...any) *Helper { return &Helper{logger: l, kv: kv} }

func (h *Helper) With(kv ...any) *Helper {
	merged := make([]any, 0, len(h.kv)+len(kv))
	merged = append(merged, h.kv...)
	merged = append(merged, kv...)
	return &Helper{logger: h.logger, kv: merged}
}

func (h *Helper) log(level Level, msg string) { h.logger.Log(level, msg, h.kv...) }

func (h *Helper) Debugf(format string, args ...any) { h.log(LevelDebug, fmt.Sprintf(format, args...)) }
func (h *Helper) Infof(format string, args ...any)  { h.log(LevelInfo, fmt.Sprintf(format, args...)) }
func (h *Helper) Warnf(format string, args ...any)  { h.log(LevelWarn, fmt.Sprintf(format, args...)) }
func (h *Helper) Errorf(format string, args ...any) { h.log(LevelError, fmt.Sprintf(format, args...)) }
func (h *Helper) Fatalf(format string, args ...any) { h.log(LevelFatal, fmt.Sprintf(format, args...)) }

func (h *Helper) Debug(args ...any) { h.log(LevelDebug, fmt.Sprint(args...)) }
func (h *Helper) Info(args ...any)  { h.log(LevelInfo, fmt.Sprint(args...)) }
func (h *Helper) Warn(args ...any)  { h.log(LevelWarn, fmt.Sprint(args...)) }
func (h *Helper) Error(args ...any) { h.log(LevelError, fmt.Sprint(args...)) }

// package-level convenience functions operating on the global logger,
// mirroring the donor's bare log.Infof/log.Errorf call sites.
func Debugf(format string, args ...any) { NewHelper(global).Debugf(format, args...) }
func Infof(format string, args ...any)  { NewHelper(global).Infof(format, args...) }
func Warnf(format string, args ...any)  { NewHelper(global).Warnf(format, args...) }
func Errorf(format string, args ...any) { NewHelper(global).Errorf(format, args...) }
func Fatalf(format string, args ...any) { NewHelper(global).Fatalf(format, args...) }
func Fatal(args ...any)                 { NewHelper(global).log(LevelFatal, fmt.Sprint(args...)) }

type ctxKey struct{}

// Context returns a Helper carrying a request ID pulled from ctx, if any.
func Context(ctx context.Context) *Helper {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return With(global, "request_id", v)
	}
	return NewHelper(global)
}

// WithRequestID stashes a request ID in ctx for later retrieval via Context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}
