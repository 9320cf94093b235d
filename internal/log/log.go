package log

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a zap logger with context hooks.
type Logger struct {
	zl *zap.Logger

	mu    sync.RWMutex
	hooks []Hook
}

// New builds a Logger from the given config.
func New(cfg Config) *Logger {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zapcore.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder

	switch cfg.Format {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	var sink zapcore.WriteSyncer

	switch cfg.Output {
	case "file":
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge,
			Compress:   cfg.File.Compress,
		})
	case "stderr":
		sink = zapcore.AddSync(os.Stderr)
	default:
		sink = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(enc, sink, level)

	return &Logger{zl: zap.New(core, zap.AddCallerSkip(2))}
}

// AddHook registers a context hook on the logger.
func (l *Logger) AddHook(hook Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, hook)
}

func (l *Logger) applyHooks(ctx context.Context, msg string, fields []Field) []Field {
	l.mu.RLock()
	hooks := l.hooks
	l.mu.RUnlock()

	for _, hook := range hooks {
		fields = hook.Apply(ctx, msg, fields...)
	}

	return fields
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.zl.Debug(msg, l.applyHooks(ctx, msg, fields)...)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.zl.Info(msg, l.applyHooks(ctx, msg, fields)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.zl.Warn(msg, l.applyHooks(ctx, msg, fields)...)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.zl.Error(msg, l.applyHooks(ctx, msg, fields)...)
}

func (l *Logger) Fatal(ctx context.Context, msg string, fields ...Field) {
	l.zl.Fatal(msg, l.applyHooks(ctx, msg, fields)...)
}

// DebugEnabled reports whether debug level logging is active.
func (l *Logger) DebugEnabled() bool {
	return l.zl.Core().Enabled(zapcore.DebugLevel)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}
