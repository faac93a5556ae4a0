// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

package lynx

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the lookup LRU when no [WithCacheSize] option is
// provided.
const DefaultCacheSize = 1024

// lookupResult is the resolved dispatch tuple for a (method, path) pair.
// Results may be served from the lookup cache and shared between concurrent
// requests, so they are read-only after creation.
type lookupResult struct {
	handler    HandlerFunc
	middleware []MiddlewareFunc
	params     Params
	pattern    string
}

// lookupTree walks the finalized tree for a path known to begin with '/'.
// At every level an exact child wins over the wildcard edge and the wildcard
// wins over the catchall; the catchall terminates traversal unconditionally,
// binding the joined remainder (the empty string when no segments remain).
// When a segment below a wildcard matches no edge, traversal falls back to
// the deepest catchall that was passed over for that wildcard, so the
// catchall remains the last resort.
//
// After segment traversal the cursor's children are probed with the request
// token, then with [MethodAny]. A node with method children but no matching
// one resolves to its method-not-allowed handler with the accumulated params.
// A node with no method children at all resolves to its not-found handler:
// the path is under-defined, which is a 404 rather than a 405.
func lookupTree(root *node, method Method, path string) *lookupResult {
	segments := strings.Split(path[1:], "/")

	current := root
	var params Params
	labels := make([]string, 0, len(segments))
	// A catchall passed over for a wildcard stays available as the last
	// resort should the wildcard branch dead-end.
	var fallback *paramEdge
	var fallbackAt, fallbackParams, fallbackLabels int
	for i, seg := range segments {
		if child, ok := current.children[seg]; ok {
			labels = append(labels, seg)
			current = child
			continue
		}
		if current.wildcard != nil {
			if current.catchall != nil {
				fallback, fallbackAt, fallbackParams, fallbackLabels = current.catchall, i, len(params), len(labels)
			}
			params = append(params, Param{Key: current.wildcard.name, Value: seg})
			labels = append(labels, "{"+current.wildcard.name+"}")
			current = current.wildcard.child
			continue
		}
		if current.catchall != nil {
			params = append(params, Param{Key: current.catchall.name, Value: strings.Join(segments[i:], "/")})
			labels = append(labels, "{"+current.catchall.name+"...}")
			current = current.catchall.child
			break
		}
		if fallback != nil {
			params = append(params[:fallbackParams], Param{Key: fallback.name, Value: strings.Join(segments[fallbackAt:], "/")})
			labels = append(labels[:fallbackLabels], "{"+fallback.name+"...}")
			current = fallback.child
			break
		}
		return &lookupResult{handler: current.notFound}
	}

	leaf, ok := current.children[method.key()]
	if !ok {
		leaf, ok = current.children[MethodAny.key()]
		if !ok {
			if current.hasMethodChild() {
				return &lookupResult{handler: current.methodNotAllowed, params: params}
			}
			return &lookupResult{handler: current.notFound}
		}
	}

	if leaf.handler == nil {
		return &lookupResult{handler: current.notFound}
	}

	return &lookupResult{
		handler:    leaf.handler,
		middleware: leaf.middleware,
		params:     params,
		pattern:    "/" + strings.Join(labels, "/"),
	}
}

// lookupKey identifies a cache entry. The root pointer is the tree identity:
// finalization produces a new root and further mutation is forbidden, so a
// stale entry can never outlive its tree.
type lookupKey struct {
	path   string
	method Method
	root   *node
}

type lookupCache struct {
	lru *lru.Cache[lookupKey, *lookupResult]
}

func newLookupCache(size int) (*lookupCache, error) {
	c, err := lru.New[lookupKey, *lookupResult](size)
	if err != nil {
		return nil, err
	}
	return &lookupCache{lru: c}, nil
}

// lookup resolves (method, path) against root, consulting the bounded LRU
// first. Safe for concurrent use: the underlying cache serializes access and
// the tree is immutable.
func (c *lookupCache) lookup(root *node, method Method, path string) *lookupResult {
	key := lookupKey{path: path, method: method, root: root}
	if res, ok := c.lru.Get(key); ok {
		return res
	}
	res := lookupTree(root, method, path)
	c.lru.Add(key, res)
	return res
}
