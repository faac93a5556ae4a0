// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

package lynx

import (
	"log/slog"
	"net"
	"time"
)

// Keys for "built-in" logger attributes used by the logger middleware.
const (
	// LoggerStatusKey is the key used by the built-in logger middleware for the
	// HTTP response status code. The associated [slog.Value] is an int.
	LoggerStatusKey = "status"
	// LoggerMethodKey is the key used by the built-in logger middleware for the
	// HTTP request method. The associated [slog.Value] is a string.
	LoggerMethodKey = "method"
	// LoggerHostKey is the key used by the built-in logger middleware for the
	// request host. The associated [slog.Value] is a string.
	LoggerHostKey = "host"
	// LoggerPathKey is the key used by the built-in logger middleware for the
	// request path. The associated [slog.Value] is a string.
	LoggerPathKey = "path"
	// LoggerRouteKey is the key used by the built-in logger middleware for the
	// matched route pattern. The associated [slog.Value] is a string.
	LoggerRouteKey = "route"
	// LoggerLatencyKey is the key used by the built-in logger middleware for
	// the request processing duration. The associated [slog.Value] is a
	// [time.Duration].
	LoggerLatencyKey = "latency"
	// LoggerSizeKey is the key used by the built-in logger middleware for the
	// response body size. The associated [slog.Value] is an int.
	LoggerSizeKey = "size"
)

// Logger returns a middleware that logs request information using the
// provided [slog.Handler]: remote IP, method, host, path, matched route,
// status code, response size and latency. Status codes are logged at
// different levels: 2xx at INFO, 3xx at DEBUG, 4xx at WARN and 5xx at ERROR.
func Logger(handler slog.Handler) MiddlewareFunc {
	log := slog.New(handler)
	return func(next HandlerFunc) HandlerFunc {
		return func(c *Context) {
			start := time.Now()
			next(c)
			latency := time.Since(start)

			ip, _, err := net.SplitHostPort(c.Request().RemoteAddr)
			if err != nil {
				ip = c.Request().RemoteAddr
			}

			log.Log(
				c.Request().Context(),
				level(c.Writer().Status()),
				ip,
				slog.Int(LoggerStatusKey, c.Writer().Status()),
				slog.String(LoggerMethodKey, c.Method()),
				slog.String(LoggerHostKey, c.Host()),
				slog.String(LoggerPathKey, c.Path()),
				slog.String(LoggerRouteKey, c.Pattern()),
				slog.Int(LoggerSizeKey, c.Writer().Size()),
				slog.Duration(LoggerLatencyKey, latency),
			)
		}
	}
}

func level(status int) slog.Level {
	switch {
	case status >= 200 && status < 300:
		return slog.LevelInfo
	case status >= 300 && status < 400:
		return slog.LevelDebug
	case status >= 400 && status < 500:
		return slog.LevelWarn
	case status >= 500:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
