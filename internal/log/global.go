package log

import (
	"context"
	"sync"
)

var (
	globalMu sync.RWMutex
	global   = New(Config{})
)

// SetGlobalConfig rebuilds the global logger from the given config.
// Hooks previously added via the global logger survive the rebuild.
func SetGlobalConfig(cfg Config) {
	globalMu.Lock()
	defer globalMu.Unlock()

	logger := New(cfg)
	logger.hooks = global.hooks
	global = logger
}

// GetGlobalLogger returns the process-wide logger.
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()

	return global
}

func Debug(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Debug(ctx, msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Info(ctx, msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Warn(ctx, msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Error(ctx, msg, fields...)
}

func Fatal(ctx context.Context, msg string, fields ...Field) {
	GetGlobalLogger().Fatal(ctx, msg, fields...)
}

// DebugEnabled reports whether the global logger logs at debug level.
func DebugEnabled() bool {
	return GetGlobalLogger().DebugEnabled()
}
