// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

package lynx

import (
	"github.com/gorilla/websocket"
)

// DefaultUpgrader is the [websocket.Upgrader] used by [UpgradeHandler] when
// none is provided.
var DefaultUpgrader = &websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// UpgradeHandler adapts a websocket session function into a [HandlerFunc].
// The request is upgraded with the given [websocket.Upgrader] (or
// [DefaultUpgrader] if nil) and fn runs on the accepted duplex connection,
// with the route's path parameters available through the [Context]. The
// connection is closed when fn returns. Register the result on the
// [MethodWebsocket] channel via [Router.Websocket].
//
// If the upgrade fails, the upgrader has already replied to the client with
// an appropriate HTTP error and the handler returns without invoking fn.
func UpgradeHandler(upgrader *websocket.Upgrader, fn func(c *Context, conn *websocket.Conn)) HandlerFunc {
	if upgrader == nil {
		upgrader = DefaultUpgrader
	}
	return func(c *Context) {
		conn, err := upgrader.Upgrade(c.Writer(), c.Request(), nil)
		if err != nil {
			return
		}
		defer conn.Close()
		fn(c, conn)
	}
}
