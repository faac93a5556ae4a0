// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

package lynx

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradeHandlerEcho(t *testing.T) {
	mux := Must()
	require.NoError(t, mux.Websocket("/echo/{room}", UpgradeHandler(nil, func(c *Context, conn *websocket.Conn) {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.WriteMessage(mt, []byte(c.Param("room")+":"+string(msg)))
	})))
	require.NoError(t, mux.Finalize())

	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/echo/lobby"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hi")))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "lobby:hi", string(msg))
}

func TestUpgradeHandlerRejectsPlainRequest(t *testing.T) {
	upgrader := &websocket.Upgrader{}
	invoked := false
	h := UpgradeHandler(upgrader, func(c *Context, conn *websocket.Conn) {
		invoked = true
	})

	mux := Must()
	require.NoError(t, mux.Any("/ws", h))

	// A non-upgrade request reaches the handler through the ANY token but
	// fails the upgrade; the upgrader writes the error response itself.
	w := serve(mux, "GET", "/ws")
	assert.Equal(t, 400, w.Code)
	assert.False(t, invoked)
}
