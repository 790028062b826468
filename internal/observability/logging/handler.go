package logging

import (
	"context"
	"io"
	"log/slog"
)

type HandlerConfig struct {
	Level         slog.Level
	Service       ServiceInfo
	DefaultModule Module
	GCPProjectID  string
}

// ContextHandler adds the request id, module and service fields carried by
// the context to every record.
type ContextHandler struct {
	next slog.Handler
	cfg  HandlerConfig
}

func NewHandler(w io.Writer, cfg HandlerConfig) *ContextHandler {
	next := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.Level,
	})

	return &ContextHandler{next: next, cfg: cfg}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}

	module := ModuleFromContext(ctx)
	if module == "" {
		module = h.cfg.DefaultModule
	}

	if module != "" {
		r.AddAttrs(slog.String("module", string(module)))
	}

	if h.cfg.Service.Name != "" {
		r.AddAttrs(slog.Group("service",
			slog.String("name", h.cfg.Service.Name),
			slog.String("version", h.cfg.Service.Version),
		))
	}

	r.AddAttrs(gcpTraceAttrs(ctx, h.cfg.GCPProjectID)...)

	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs), cfg: h.cfg}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name), cfg: h.cfg}
}

func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}

	return level
}
