// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

package lynx

import (
	"maps"
	"reflect"
)

// node is a segment-based trie node. Nodes are structurally immutable: every
// transform allocates a fresh node and shares unchanged children. Once a tree
// is published by finalize it is read concurrently without synchronization,
// so a node must never be written after it became reachable from a root.
//
// The children map is keyed by the union of literal path segments and method
// tokens (see [Method.key]). Method-token children are leaves in the dispatch
// sense: they carry a handler and middleware but never children, wildcard or
// catchall of their own.
type node struct {
	handler          HandlerFunc
	middleware       []MiddlewareFunc
	children         map[string]*node
	wildcard         *paramEdge
	catchall         *paramEdge
	notFound         HandlerFunc
	methodNotAllowed HandlerFunc
}

// paramEdge is a named parameterized edge. As a wildcard it consumes exactly
// one segment; as a catchall it consumes the whole remaining path.
type paramEdge struct {
	name  string
	child *node
}

// clone is the copy-with-overrides primitive: callers shallow-copy, assign
// the overridden fields and publish the copy, leaving the receiver untouched.
func (n *node) clone() *node {
	c := *n
	return &c
}

func (n *node) child(key string) *node {
	return n.children[key]
}

// hasMethodChild reports whether any child is keyed by a method token. The
// lookup engine uses this to distinguish "path not routable" (404) from
// "path routable, method wrong" (405).
func (n *node) hasMethodChild() bool {
	for k := range n.children {
		if isMethodKey(k) {
			return true
		}
	}
	return false
}

// equalNodes compares two nodes field by field: handlers and middleware by
// identity, children structurally. Nil and empty children maps compare equal.
func equalNodes(a, b *node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if !funcEqual(a.handler, b.handler) ||
		!funcEqual(a.notFound, b.notFound) ||
		!funcEqual(a.methodNotAllowed, b.methodNotAllowed) {
		return false
	}
	if !middlewareEqual(a.middleware, b.middleware) {
		return false
	}
	if !equalEdges(a.wildcard, b.wildcard) || !equalEdges(a.catchall, b.catchall) {
		return false
	}
	if len(a.children) != len(b.children) {
		return false
	}
	return maps.EqualFunc(a.children, b.children, equalNodes)
}

func equalEdges(a, b *paramEdge) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.name == b.name && equalNodes(a.child, b.child)
}

// funcEqual compares two function values by identity. Go functions are not
// comparable, so identity is the code pointer: two distinct closures over the
// same function body share one and are treated as the same value. Handlers
// and middleware must therefore be addressable, named values when conflict
// detection matters.
func funcEqual(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.IsNil() || vb.IsNil() {
		return va.IsNil() == vb.IsNil()
	}
	return va.Pointer() == vb.Pointer()
}

func middlewareEqual(a, b []MiddlewareFunc) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !funcEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
