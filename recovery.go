// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

package lynx

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime"
	"strings"

	"github.com/lynx-toolkit/lynx/internal/slogpretty"
)

// LoggerPanicKey is the key used by the built-in recovery middleware for the
// panic value. The associated [slog.Value] is any.
const LoggerPanicKey = "panic"

// RecoveryFunc is a function type that defines how to handle panics that
// occur during the handling of a request.
type RecoveryFunc func(c *Context, err any)

// Recovery returns a middleware that recovers from any panic, logs the
// error, request details and stack trace using the built-in slog handler
// and writes a 500 status code response if a panic occurs.
func Recovery() MiddlewareFunc {
	return CustomRecovery(DefaultHandleRecovery)
}

// CustomRecovery returns a middleware that recovers from any panic, logs it
// using the built-in slog handler and then calls the provided handle
// function to produce the response.
func CustomRecovery(handle RecoveryFunc) MiddlewareFunc {
	return CustomRecoveryWithLogHandler(slogpretty.DefaultHandler, handle)
}

// CustomRecoveryWithLogHandler returns a middleware for a given
// [slog.Handler] that recovers from any panic, logs it and then calls the
// provided handle function. Panics with [http.ErrAbortHandler] are
// propagated so the client sees an interrupted response.
func CustomRecoveryWithLogHandler(handler slog.Handler, handle RecoveryFunc) MiddlewareFunc {
	slogger := slog.New(handler)
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) {
			defer recovery(slogger, c, handle)
			next(c)
		}
	}
}

// DefaultHandleRecovery is a default implementation of [RecoveryFunc]. It
// responds with a status code 500 and a generic error message.
func DefaultHandleRecovery(c *Context, _ any) {
	http.Error(c.Writer(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func recovery(logger *slog.Logger, c *Context, handle RecoveryFunc) {
	err := recover()
	if err == nil {
		return
	}
	if e, ok := err.(error); ok && errors.Is(e, http.ErrAbortHandler) {
		panic(e)
	}

	var sb strings.Builder
	sb.WriteString("recovered from panic\n")
	sb.WriteString(c.Method())
	sb.WriteByte(' ')
	sb.WriteString(c.Path())
	sb.WriteString("\nStack:\n")
	sb.WriteString(stacktrace(3, 6))

	route := c.Pattern()
	if route == "" {
		route = c.Path()
	}

	logger.Error(
		sb.String(),
		slog.String(LoggerRouteKey, route),
		slog.Any(LoggerPanicKey, err),
	)

	if !c.Writer().Written() && !connIsBroken(err) {
		handle(c, err)
	}
}

func connIsBroken(err any) bool {
	if ne, ok := err.(*net.OpError); ok {
		var se *os.SyscallError
		if errors.As(ne, &se) {
			seStr := strings.ToLower(se.Error())
			return strings.Contains(seStr, "broken pipe") || strings.Contains(seStr, "connection reset by peer")
		}
	}
	return false
}

func stacktrace(skip, nFrames int) string {
	pcs := make([]uintptr, nFrames+1)
	n := runtime.Callers(skip+1, pcs)
	if n == 0 {
		return "(no stack)"
	}
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	i := 0
	for {
		frame, more := frames.Next()
		if i > 0 {
			b.WriteByte('\n')
		}
		_, _ = fmt.Fprintf(&b, "called from %s %s:%d", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
		i++
		if i >= nFrames {
			_, _ = fmt.Fprintf(&b, "\n(rest of stack elided)")
			break
		}
	}
	return b.String()
}
