// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

package lynx

import (
	"strings"
)

// The trie algebra. Four pure functions build single-route subtrees, merge
// two trees with conflict checking, mount a subtree under a literal prefix
// and finalize a tree by cascading defaults into every node. All of them
// return fresh nodes and leave their inputs untouched.

// buildRouteTree constructs the minimal tree encoding a single route. The
// innermost node maps the method token to a leaf carrying the handler and
// its route-level middleware.
func buildRouteTree(method Method, path string, handler HandlerFunc, mws []MiddlewareFunc) (*node, error) {
	leaf := &node{handler: handler, middleware: mws}
	child := &node{children: map[string]*node{method.key(): leaf}}
	return buildSubTree(path, child)
}

// buildSubTree wraps child in a chain of nodes encoding path, materialized
// right to left. "{name}" becomes a wildcard edge, "{name...}" a catchall
// edge and anything else, including the empty segment produced by a trailing
// slash, an exact-match child.
func buildSubTree(path string, child *node) (*node, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, newInvalidRouteError("path must start with '/', got %q", path)
	}
	segments := strings.Split(path[1:], "/")

	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		switch {
		case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "...}"):
			child = &node{catchall: &paramEdge{name: seg[1 : len(seg)-4], child: child}}
		case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"):
			child = &node{wildcard: &paramEdge{name: seg[1 : len(seg)-1], child: child}}
		default:
			child = &node{children: map[string]*node{seg: child}}
		}
	}

	return child, nil
}

// mergeNodes combines two trees into one. Handlers, error handlers and
// middleware conflict when both sides carry non-identical values; wildcard
// and catchall edges conflict when their parameter names differ. The
// middleware check is asymmetric on purpose: a freshly built route carries
// no node-level middleware and merges cleanly into a node whose middleware
// was already set by Use.
func mergeNodes(a, b *node) (*node, error) {
	return mergeNodesAt(a, b, nil)
}

func mergeNodesAt(a, b *node, at []string) (*node, error) {
	if a.handler != nil && b.handler != nil && !funcEqual(a.handler, b.handler) {
		return nil, newConflictError("conflicting handlers", at)
	}
	handler := a.handler
	if handler == nil {
		handler = b.handler
	}

	if a.notFound != nil && b.notFound != nil && !funcEqual(a.notFound, b.notFound) {
		return nil, newConflictError("conflicting not found handlers", at)
	}
	notFound := a.notFound
	if notFound == nil {
		notFound = b.notFound
	}

	if a.methodNotAllowed != nil && b.methodNotAllowed != nil && !funcEqual(a.methodNotAllowed, b.methodNotAllowed) {
		return nil, newConflictError("conflicting method not allowed handlers", at)
	}
	methodNotAllowed := a.methodNotAllowed
	if methodNotAllowed == nil {
		methodNotAllowed = b.methodNotAllowed
	}

	if len(b.middleware) > 0 && !middlewareEqual(a.middleware, b.middleware) {
		return nil, newConflictError("conflicting middleware on merged node", at)
	}
	middleware := a.middleware
	if len(middleware) == 0 {
		middleware = b.middleware
	}

	var wildcard *paramEdge
	switch {
	case a.wildcard != nil && b.wildcard != nil:
		if a.wildcard.name != b.wildcard.name {
			return nil, newConflictError("conflicting wildcard names", at)
		}
		child, err := mergeNodesAt(a.wildcard.child, b.wildcard.child, append(at, "{"+a.wildcard.name+"}"))
		if err != nil {
			return nil, err
		}
		wildcard = &paramEdge{name: a.wildcard.name, child: child}
	case a.wildcard != nil:
		wildcard = a.wildcard
	default:
		wildcard = b.wildcard
	}

	var catchall *paramEdge
	switch {
	case a.catchall != nil && b.catchall != nil:
		if a.catchall.name != b.catchall.name {
			return nil, newConflictError("conflicting catchall names", at)
		}
		child, err := mergeNodesAt(a.catchall.child, b.catchall.child, append(at, "{"+a.catchall.name+"...}"))
		if err != nil {
			return nil, err
		}
		catchall = &paramEdge{name: a.catchall.name, child: child}
	case a.catchall != nil:
		catchall = a.catchall
	default:
		catchall = b.catchall
	}

	children := make(map[string]*node, len(a.children)+len(b.children))
	for k, child := range a.children {
		children[k] = child
	}
	for k, child := range b.children {
		if existing, ok := children[k]; ok {
			merged, err := mergeNodesAt(existing, child, append(at, segmentLabel(k)))
			if err != nil {
				return nil, err
			}
			children[k] = merged
			continue
		}
		children[k] = child
	}

	return &node{
		handler:          handler,
		middleware:       middleware,
		children:         children,
		wildcard:         wildcard,
		catchall:         catchall,
		notFound:         notFound,
		methodNotAllowed: methodNotAllowed,
	}, nil
}

func segmentLabel(key string) string {
	if m, ok := methodFromKey(key); ok {
		return "[" + m.String() + "]"
	}
	return key
}

// mountNode installs child under prefix of parent. The child's node-level
// middleware is pre-cascaded into its own method leaves first, so middleware
// travels with the routes instead of being stranded on the mounting boundary.
func mountNode(prefix string, parent, child *node) (*node, error) {
	if !strings.HasPrefix(prefix, "/") {
		return nil, newInvalidRouteError("mount prefix must start with '/', got %q", prefix)
	}
	if prefix != "/" && strings.HasSuffix(prefix, "/") {
		return nil, newInvalidRouteError("mount prefix cannot end with '/', got %q", prefix)
	}
	if strings.ContainsAny(prefix, "{}") {
		return nil, newInvalidRouteError("mount prefix must be literal, got %q", prefix)
	}

	if hasMiddleware(child) {
		child = cascadeMiddleware(child, nil)
	}
	if prefix == "/" {
		return mergeNodes(parent, child)
	}
	sub, err := buildSubTree(prefix, child)
	if err != nil {
		return nil, err
	}
	return mergeNodes(parent, sub)
}

func hasMiddleware(n *node) bool {
	return len(n.middleware) > 0
}

// cascadeMiddleware pushes accumulated middleware down the tree, setting it
// only on handler-bearing leaves and clearing it everywhere else.
func cascadeMiddleware(n *node, mws []MiddlewareFunc) *node {
	if len(n.middleware) > 0 {
		mws = concatMiddleware(mws, n.middleware)
	}

	c := n.clone()
	if c.handler != nil {
		c.middleware = mws
	} else {
		c.middleware = nil
	}

	if c.wildcard != nil {
		c.wildcard = &paramEdge{name: c.wildcard.name, child: cascadeMiddleware(c.wildcard.child, mws)}
	}
	if c.catchall != nil {
		c.catchall = &paramEdge{name: c.catchall.name, child: cascadeMiddleware(c.catchall.child, mws)}
	}
	if len(c.children) > 0 {
		children := make(map[string]*node, len(c.children))
		for k, child := range c.children {
			children[k] = cascadeMiddleware(child, mws)
		}
		c.children = children
	}

	return c
}

// finalizeNode walks the tree once, producing a new tree where every node
// carries a non-nil not-found and method-not-allowed handler and every
// method leaf's middleware is the cascaded ancestor chain, outermost first.
// A node's own error handler becomes the new default for its subtree.
// Finalize is idempotent: middleware moves from interior nodes onto leaves,
// so re-finalizing with the same defaults reproduces an equal tree.
func finalizeNode(root *node, notFound, methodNotAllowed HandlerFunc, mws []MiddlewareFunc) (*node, error) {
	if notFound == nil {
		return nil, ErrMissingErrorHandler
	}
	if methodNotAllowed == nil {
		return nil, ErrMissingErrorHandler
	}
	return cascadeDefaults(root, notFound, methodNotAllowed, mws), nil
}

func cascadeDefaults(n *node, notFound, methodNotAllowed HandlerFunc, mws []MiddlewareFunc) *node {
	c := n.clone()

	if c.notFound == nil {
		c.notFound = notFound
	} else {
		notFound = c.notFound
	}
	if c.methodNotAllowed == nil {
		c.methodNotAllowed = methodNotAllowed
	} else {
		methodNotAllowed = c.methodNotAllowed
	}

	if len(c.middleware) > 0 {
		mws = concatMiddleware(mws, c.middleware)
	}
	if c.handler != nil {
		c.middleware = mws
	} else {
		c.middleware = nil
	}

	if c.wildcard != nil {
		c.wildcard = &paramEdge{name: c.wildcard.name, child: cascadeDefaults(c.wildcard.child, notFound, methodNotAllowed, mws)}
	}
	if c.catchall != nil {
		c.catchall = &paramEdge{name: c.catchall.name, child: cascadeDefaults(c.catchall.child, notFound, methodNotAllowed, mws)}
	}
	if len(c.children) > 0 {
		children := make(map[string]*node, len(c.children))
		for k, child := range c.children {
			children[k] = cascadeDefaults(child, notFound, methodNotAllowed, mws)
		}
		c.children = children
	}

	return c
}

// concatMiddleware returns a fresh slice so cascades never alias the
// append-grown backing array of a sibling branch.
func concatMiddleware(a, b []MiddlewareFunc) []MiddlewareFunc {
	out := make([]MiddlewareFunc, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
