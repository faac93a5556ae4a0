// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

package lynx

import (
	"fmt"
	"net/http"
)

// Method is a dispatch token: one of the nine HTTP methods from RFC 9110 and
// RFC 5789, or one of the two synthetic tokens. [MethodAny] matches any HTTP
// method once specific-method lookup fails, and [MethodWebsocket] is a
// distinct dispatch channel for upgraded connections.
type Method uint8

const (
	MethodConnect Method = iota
	MethodDelete
	MethodGet
	MethodHead
	MethodOptions
	MethodPatch
	MethodPost
	MethodPut
	MethodTrace
	MethodAny
	MethodWebsocket
)

var methodNames = [...]string{
	MethodConnect:   http.MethodConnect,
	MethodDelete:    http.MethodDelete,
	MethodGet:       http.MethodGet,
	MethodHead:      http.MethodHead,
	MethodOptions:   http.MethodOptions,
	MethodPatch:     http.MethodPatch,
	MethodPost:      http.MethodPost,
	MethodPut:       http.MethodPut,
	MethodTrace:     http.MethodTrace,
	MethodAny:       "ANY_HTTP",
	MethodWebsocket: "WEBSOCKET",
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

// ParseMethod maps an HTTP method string to its token. The token set is
// closed: unknown methods return [ErrInvalidMethod].
func ParseMethod(s string) (Method, error) {
	switch s {
	case http.MethodConnect:
		return MethodConnect, nil
	case http.MethodDelete:
		return MethodDelete, nil
	case http.MethodGet:
		return MethodGet, nil
	case http.MethodHead:
		return MethodHead, nil
	case http.MethodOptions:
		return MethodOptions, nil
	case http.MethodPatch:
		return MethodPatch, nil
	case http.MethodPost:
		return MethodPost, nil
	case http.MethodPut:
		return MethodPut, nil
	case http.MethodTrace:
		return MethodTrace, nil
	}
	return 0, fmt.Errorf("%w: '%s'", ErrInvalidMethod, s)
}

// Method tokens share the trie child map with literal path segments. A
// leading NUL keeps the two key spaces disjoint without a wrapper type:
// literal segments come from percent-decoded paths and route patterns,
// neither of which carries control bytes in practice.
const methodKeyPrefix = "\x00"

func (m Method) key() string {
	return methodKeyPrefix + m.String()
}

func isMethodKey(k string) bool {
	return len(k) > 0 && k[0] == methodKeyPrefix[0]
}

func methodFromKey(k string) (Method, bool) {
	if !isMethodKey(k) {
		return 0, false
	}
	name := k[1:]
	for m, n := range methodNames {
		if n == name {
			return Method(m), true
		}
	}
	return 0, false
}
