package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// swappableHandler lets Manager replace its sink without invalidating
// loggers already derived with With or WithGroup.
type swappableHandler struct {
	root  *atomic.Pointer[slog.Handler]
	apply func(slog.Handler) slog.Handler
}

func newSwappableHandler(initial slog.Handler) *swappableHandler {
	root := new(atomic.Pointer[slog.Handler])
	root.Store(&initial)
	return &swappableHandler{root: root, apply: func(h slog.Handler) slog.Handler { return h }}
}

func (h *swappableHandler) swap(next slog.Handler) {
	h.root.Store(&next)
}

func (h *swappableHandler) current() slog.Handler {
	return h.apply(*h.root.Load())
}

func (h *swappableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.current().Enabled(ctx, level)
}

func (h *swappableHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.current().Handle(ctx, r)
}

func (h *swappableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	parent := h.apply
	return &swappableHandler{root: h.root, apply: func(next slog.Handler) slog.Handler {
		return parent(next).WithAttrs(attrs)
	}}
}

func (h *swappableHandler) WithGroup(name string) slog.Handler {
	parent := h.apply
	return &swappableHandler{root: h.root, apply: func(next slog.Handler) slog.Handler {
		return parent(next).WithGroup(name)
	}}
}
