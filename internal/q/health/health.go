// Package health creates errors that carry slog-style attributes, and logs them in one step:
//
//	return health.LogWrappedErr(logger, "document.save", err, "path", path)
package health

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
)

// HealthErr is an error with a log-friendly message, attributes in slog's key/value format, and an optional wrapped error.
type HealthErr struct {
	Message string
	wrapped error
	attrs   []any
}

// Error returns "msg[k=v ...] via wrapped", leaving out the parts that are empty.
func (e *HealthErr) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if attrs := formatAttrs(e.attrs); attrs != "" {
		b.WriteByte('[')
		b.WriteString(attrs)
		b.WriteByte(']')
	}
	if e.wrapped != nil {
		b.WriteString(" via ")
		b.WriteString(e.wrapped.Error())
	}
	return b.String()
}

func (e *HealthErr) Unwrap() error {
	return e.wrapped
}

// NewErr returns a new, unlogged error. args are key/values or slog.Attrs, as for slog.Logger.Info.
func NewErr(msg string, args ...any) error {
	return &HealthErr{Message: msg, attrs: args}
}

// Wrap returns a new error wrapping wrapped. A nil wrapped is a programming error; it is replaced by an error saying so rather than panicking.
func Wrap(msg string, wrapped error, args ...any) error {
	if wrapped == nil {
		wrapped = errors.New("health.Wrap called with a nil error")
	}
	return &HealthErr{Message: msg, wrapped: wrapped, attrs: args}
}

// LogNewErr creates an error with NewErr, logs it, and returns it.
func LogNewErr(logger *slog.Logger, msg string, args ...any) error {
	return LogErr(logger, NewErr(msg, args...))
}

// LogWrappedErr creates an error with Wrap, logs it, and returns it.
func LogWrappedErr(logger *slog.Logger, msg string, wrapped error, args ...any) error {
	return LogErr(logger, Wrap(msg, wrapped, args...))
}

// LogErr logs err at error level and returns it unchanged. A nil logger or nil err logs nothing.
//
// A *HealthErr (or the HealthErr inside a *HumanErr) is logged with its own message, then its attrs, then via=<wrapped error>, then args. Any other error
// is logged as err.Error() with args.
func LogErr(logger *slog.Logger, err error, args ...any) error {
	if logger == nil || err == nil {
		return err
	}

	var h *HealthErr
	switch e := err.(type) {
	case *HumanErr:
		h = &e.HealthErr
	case *HealthErr:
		h = e
	default:
		logger.Error(err.Error(), args...)
		return err
	}

	all := append([]any{}, h.attrs...)
	if h.wrapped != nil {
		all = append(all, slog.String("via", h.wrapped.Error()))
	}
	all = append(all, args...)
	logger.Error(h.Message, all...)
	return err
}

// formatAttrs formats attrs the way slog's TextHandler does (`num=3 str="hi there"`).
func formatAttrs(attrs []any) string {
	if len(attrs) == 0 {
		return ""
	}
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey || a.Key == slog.MessageKey) {
				return slog.Attr{}
			}
			return a
		},
	})
	var r slog.Record
	r.Add(attrs...)
	if err := h.Handle(context.Background(), r); err != nil {
		return "!FORMAT_ERROR"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
