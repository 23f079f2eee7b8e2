package hooking

import (
	"context"
	"log/slog"
)

// A LogHook writes every engine hook invocation to a structured logger.
type LogHook struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogHook creates a LogHook that logs at the given level.
func NewLogHook(logger *slog.Logger, level slog.Level) *LogHook {
	return &LogHook{
		logger: logger.With("component", "engine"),
		level:  level,
	}
}

// Func logs the hook context.
func (h *LogHook) Func(ctx HookCtx) {
	if !h.logger.Enabled(context.Background(), h.level) {
		return
	}

	attrs := []any{"tick", ctx.Now}

	switch item := ctx.Item.(type) {
	case interface{ Label() string }:
		attrs = append(attrs, "process", item.Label())
	case error:
		attrs = append(attrs, "error", item.Error())
	}

	if ctx.Detail != nil {
		attrs = append(attrs, "detail", ctx.Detail)
	}

	h.logger.Log(context.Background(), h.level, ctx.Pos.Name, attrs...)
}
