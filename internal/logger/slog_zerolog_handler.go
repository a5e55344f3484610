// Package logger builds the zerolog logger and exposes it as *slog.Logger.
package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/rs/zerolog"
)

type zlHandler struct {
	zl     *zerolog.Logger
	attr   []prefixedAttr
	prefix string
}

type prefixedAttr struct {
	prefix string
	attr   slog.Attr
}

func NewSlog(zl *zerolog.Logger) *slog.Logger {
	return slog.New(&zlHandler{zl: zl})
}

func toZerolog(l slog.Level) zerolog.Level {
	switch {
	case l < slog.LevelInfo:
		return zerolog.DebugLevel
	case l < slog.LevelWarn:
		return zerolog.InfoLevel
	case l < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func (h *zlHandler) Enabled(_ context.Context, l slog.Level) bool {
	return toZerolog(l) >= h.zl.GetLevel()
}

func (h *zlHandler) Handle(ctx context.Context, r slog.Record) error {
	base := FromContext(ctx, h.zl)

	ev := base.WithLevel(toZerolog(r.Level))
	if ev == nil {
		return nil
	}

	for _, pa := range h.attr {
		ev = addAttr(ev, pa.prefix, pa.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		ev = addAttr(ev, h.prefix, a)
		return true
	})

	ev.Msg(r.Message)
	return nil
}

func (h *zlHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cp := *h
	cp.attr = append([]prefixedAttr(nil), h.attr...)
	for _, a := range attrs {
		cp.attr = append(cp.attr, prefixedAttr{prefix: h.prefix, attr: a})
	}
	return &cp
}

// groups flatten into dotted keys
func (h *zlHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	cp := *h
	cp.prefix = h.prefix + name + "."
	return &cp
}

func addAttr(ev *zerolog.Event, prefix string, a slog.Attr) *zerolog.Event {
	a.Value = a.Value.Resolve()
	k := prefix + a.Key
	switch a.Value.Kind() {
	case slog.KindString:
		return ev.Str(k, a.Value.String())
	case slog.KindInt64:
		return ev.Int64(k, a.Value.Int64())
	case slog.KindUint64:
		return ev.Uint64(k, a.Value.Uint64())
	case slog.KindFloat64:
		return ev.Float64(k, a.Value.Float64())
	case slog.KindBool:
		return ev.Bool(k, a.Value.Bool())
	case slog.KindDuration:
		return ev.Dur(k, a.Value.Duration())
	case slog.KindTime:
		return ev.Time(k, a.Value.Time().UTC().Truncate(time.Microsecond))
	case slog.KindGroup:
		for _, ga := range a.Value.Group() {
			ev = addAttr(ev, k+".", ga)
		}
		return ev
	default:
		if err, ok := a.Value.Any().(error); ok {
			return ev.AnErr(k, err)
		}
		return ev.Interface(k, a.Value.Any())
	}
}
