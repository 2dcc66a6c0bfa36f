// Package logging provides the module's structured logger.
//
// Components call L(component) at package-init time, before Init() has run
// and decided on a sink. The returned *slog.Logger wraps a switchableHandler
// whose underlying slog.Handler can be swapped later by Init() without
// invalidating loggers already captured in package-level vars.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// Key constants for structured log fields used across the module.
const (
	KeySourceID   = "sourceId"
	KeySourceName = "sourceName"
	KeyGrabberID  = "grabberId"
	KeyPeerName   = "peerName"
	KeyComponent  = "component"
	KeyDurationMs = "durationMs"
	KeyError      = "error"
)

type switchableHandler struct {
	state  *switchableState
	attrs  []slog.Attr
	groups []string
}

type switchableState struct {
	current atomic.Value // holds slog.Handler
}

func newSwitchableHandler(h slog.Handler) *switchableHandler {
	state := &switchableState{}
	state.current.Store(h)
	return &switchableHandler{state: state}
}

func (h *switchableHandler) set(handler slog.Handler) {
	h.state.current.Store(handler)
}

func (h *switchableHandler) base() slog.Handler {
	return h.state.current.Load().(slog.Handler)
}

func (h *switchableHandler) materialize() slog.Handler {
	handler := h.base()
	for _, group := range h.groups {
		handler = handler.WithGroup(group)
	}
	if len(h.attrs) > 0 {
		handler = handler.WithAttrs(h.attrs)
	}
	return handler
}

func (h *switchableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.materialize().Enabled(ctx, level)
}

func (h *switchableHandler) Handle(ctx context.Context, record slog.Record) error {
	return h.materialize().Handle(ctx, record)
}

func (h *switchableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	groups := make([]string, len(h.groups))
	copy(groups, h.groups)
	return &switchableHandler{state: h.state, attrs: merged, groups: groups}
}

func (h *switchableHandler) WithGroup(name string) slog.Handler {
	groups := make([]string, len(h.groups)+1)
	copy(groups, h.groups)
	groups[len(groups)-1] = name
	attrs := make([]slog.Attr, len(h.attrs))
	copy(attrs, h.attrs)
	return &switchableHandler{state: h.state, attrs: attrs, groups: groups}
}

var root = newSwitchableHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// Format selects the log sink's encoding.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Init reconfigures the process-wide log sink. Safe to call once at
// startup after Settings has been loaded; loggers already captured via L()
// observe the change immediately because they share root's atomic state.
func Init(format Format, level slog.Level, w io.Writer) {
	opts := &slog.HandlerOptions{Level: level}
	out := w
	if out == nil {
		out = os.Stderr
	}
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}
	root.set(handler)
}

// L returns a logger scoped to component, e.g. logging.L("session").
func L(component string) *slog.Logger {
	return slog.New(root).With(KeyComponent, component)
}
