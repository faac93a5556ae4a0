// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

package lynx

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	mux := Must(WithMiddleware(Logger(slog.NewTextHandler(buf, nil))))
	require.NoError(t, mux.Get("/user/{id}", func(c *Context) {
		_ = c.String(http.StatusOK, "hello")
	}))

	serve(mux, http.MethodGet, "/user/42")

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "path=/user/42")
	assert.Contains(t, out, "route=/user/{id}")
	assert.Contains(t, out, "size=5")
	assert.Contains(t, out, "latency=")
}

func TestLoggerLevels(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusMovedPermanently, "DEBUG"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tc := range cases {
		buf := new(bytes.Buffer)
		handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
		mux := Must(WithMiddleware(Logger(handler)))
		status := tc.status
		require.NoError(t, mux.Get("/s", func(c *Context) {
			_ = c.String(status, "")
		}))

		serve(mux, http.MethodGet, "/s")
		assert.Contains(t, buf.String(), "level="+tc.level)
	}
}

func TestLevelMapping(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, level(204))
	assert.Equal(t, slog.LevelDebug, level(308))
	assert.Equal(t, slog.LevelWarn, level(418))
	assert.Equal(t, slog.LevelError, level(503))
	assert.Equal(t, slog.LevelInfo, level(0))
}
