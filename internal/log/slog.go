package log

import (
	"context"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AsSlog exposes the logger through the standard slog interface, for
// libraries that take *slog.Logger.
func (l *Logger) AsSlog() *slog.Logger {
	return slog.New(&slogHandler{logger: l})
}

type slogHandler struct {
	logger *Logger
	attrs  []Field
	group  string
}

func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.zl.Core().Enabled(zapLevel(level))
}

func (h *slogHandler) Handle(ctx context.Context, record slog.Record) error {
	fields := append([]Field(nil), h.attrs...)

	record.Attrs(func(attr slog.Attr) bool {
		fields = append(fields, h.attrField(attr))

		return true
	})

	if ce := h.logger.zl.Check(zapLevel(record.Level), record.Message); ce != nil {
		ce.Write(h.logger.applyHooks(ctx, record.Message, fields)...)
	}

	return nil
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := &slogHandler{logger: h.logger, group: h.group}
	out.attrs = append(append([]Field(nil), h.attrs...), h.attrFields(attrs)...)

	return out
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	prefix := name
	if h.group != "" {
		prefix = h.group + "." + name
	}

	return &slogHandler{logger: h.logger, attrs: h.attrs, group: prefix}
}

func (h *slogHandler) attrFields(attrs []slog.Attr) []Field {
	out := make([]Field, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, h.attrField(attr))
	}

	return out
}

func (h *slogHandler) attrField(attr slog.Attr) Field {
	key := attr.Key
	if h.group != "" {
		key = h.group + "." + key
	}

	return zap.Any(key, attr.Value.Any())
}

func zapLevel(level slog.Level) zapcore.Level {
	switch {
	case level >= slog.LevelError:
		return zapcore.ErrorLevel
	case level >= slog.LevelWarn:
		return zapcore.WarnLevel
	case level >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
