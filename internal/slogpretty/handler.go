// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

// Package slogpretty provides a compact, colorized [slog.Handler] used as
// the default sink for the router's logger and recovery middleware.
package slogpretty

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lynx-toolkit/lynx/internal/ansi"
)

const (
	initialBufferSize = 1024
	maxBufferSize     = 16 << 10
)

var _ slog.Handler = (*Handler)(nil)

// DefaultHandler writes error records to stderr and everything else to
// stdout, both behind a mutex so concurrent requests never interleave lines.
var DefaultHandler = &Handler{
	We:  &lockedWriter{w: os.Stderr},
	Wo:  &lockedWriter{w: os.Stdout},
	Lvl: slog.LevelDebug,
}

var timeFormat = fmt.Sprintf("%s %s", time.DateOnly, time.TimeOnly)

var logBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, initialBufferSize)
		return &b
	},
}

func freeBuf(b *[]byte) {
	if cap(*b) <= maxBufferSize {
		*b = (*b)[:0]
		logBufPool.Put(b)
	}
}

// Handler is a colorized line-oriented slog handler. Error-level records go
// to We, all others to Wo.
type Handler struct {
	We    io.Writer
	Wo    io.Writer
	Lvl   slog.Leveler
	attrs []slog.Attr
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.Lvl.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	bufp := logBufPool.Get().(*[]byte)
	buf := *bufp

	defer func() {
		*bufp = buf
		freeBuf(bufp)
	}()

	buf = append(buf, "[LYNX] "...)

	if !record.Time.IsZero() {
		buf = append(buf, ansi.Faint...)
		buf = append(buf, record.Time.Format(timeFormat)...)
		buf = append(buf, ansi.NormalIntensity...)
		buf = append(buf, ' ')
	}

	buf = append(buf, "| "...)
	buf = append(buf, levelColor(record.Level)...)
	buf = append(buf, record.Level.String()...)
	if record.Level == slog.LevelInfo || record.Level == slog.LevelWarn {
		// Pad four-letter levels so columns line up.
		buf = append(buf, ' ')
	}
	buf = append(buf, ansi.Reset...)
	buf = append(buf, " | "...)
	buf = append(buf, record.Message...)
	buf = append(buf, ' ')

	for _, attr := range h.attrs {
		buf = appendAttr(record.Level, buf, attr)
	}
	if record.NumAttrs() > 0 {
		record.Attrs(func(attr slog.Attr) bool {
			buf = appendAttr(record.Level, buf, attr)
			return true
		})
	}

	buf[len(buf)-1] = '\n'

	if record.Level >= slog.LevelError {
		_, err := h.We.Write(buf)
		return err
	}
	_, err := h.Wo.Write(buf)
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		We:    h.We,
		Wo:    h.Wo,
		Lvl:   h.Lvl,
		attrs: append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...),
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	// Groups are not rendered: attributes added after WithGroup are written
	// with their plain keys, without a group prefix.
	return h
}

func appendAttr(level slog.Level, buf []byte, attr slog.Attr) []byte {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return buf
	}

	buf = append(buf, ansi.Faint...)
	buf = append(buf, ansi.Bold...)
	buf = append(buf, attr.Key...)
	buf = append(buf, '=')
	buf = append(buf, ansi.NormalIntensity...)

	switch attr.Key {
	case "method":
		buf = append(buf, ansi.BgBlue...)
		buf = append(buf, ' ')
		buf = append(buf, attr.Value.String()...)
		buf = append(buf, ' ')
	case "status":
		buf = append(buf, statusColor(level)...)
		buf = append(buf, ' ')
		buf = append(buf, attr.Value.String()...)
		buf = append(buf, ' ')
	case "latency":
		buf = append(buf, latencyColor(attr.Value.Duration())...)
		buf = append(buf, attr.Value.String()...)
	case "panic", "error":
		buf = append(buf, ansi.FgRed...)
		buf = append(buf, attr.Value.String()...)
	default:
		buf = append(buf, ansi.FgCyan...)
		buf = append(buf, attr.Value.String()...)
	}
	buf = append(buf, ansi.Reset...)
	buf = append(buf, ' ')

	return buf
}

type lockedWriter struct {
	w io.Writer
	sync.Mutex
}

func (w *lockedWriter) Write(p []byte) (n int, err error) {
	w.Lock()
	n, err = w.w.Write(p)
	w.Unlock()
	return
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansi.FgRed
	case level >= slog.LevelWarn:
		return ansi.FgYellow
	case level >= slog.LevelInfo:
		return ansi.FgGreen
	default:
		return ansi.FgMagenta
	}
}

func statusColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansi.BgRed
	case level >= slog.LevelWarn:
		return ansi.BgYellow
	case level >= slog.LevelInfo:
		return ansi.BgBlue
	default:
		return ansi.BgMagenta
	}
}

func latencyColor(d time.Duration) string {
	if d < 100*time.Millisecond {
		return ansi.FgGreen
	}
	if d < 500*time.Millisecond {
		return ansi.FgYellow
	}
	return ansi.FgRed
}
