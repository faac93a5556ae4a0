// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

// Package lynx is a high-throughput HTTP and websocket request multiplexer.
// Routes are registered into an immutable segment trie which is compiled by
// Finalize and read without synchronization by any number of concurrent
// requests. At every path level an exact segment wins over a wildcard
// ("{name}") and a wildcard wins over a catchall ("{name...}"). Not-found
// and method-not-allowed handlers cascade through nested mounts, so after
// finalization every path and method combination resolves to a handler.
package lynx

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// HandlerFunc is a function type that responds to a request. Path parameters
// and the matched route pattern are read from the [Context] rather than
// passed as arguments, keeping the handler shape uniform regardless of the
// route's parameter arity. HandlerFunc functions should be thread-safe, as
// they will be called concurrently.
type HandlerFunc func(c *Context)

// MiddlewareFunc is a function type for implementing [HandlerFunc]
// middleware. The returned [HandlerFunc] usually wraps the input
// [HandlerFunc]. Middleware is compared by identity for conflict detection,
// so it should be a named, addressable value: two structurally equal
// closures are nonetheless distinct.
type MiddlewareFunc func(next HandlerFunc) HandlerFunc

// Router maps incoming requests to handlers through a compiled routing trie,
// weaving the per-route middleware stack around the handler before
// invocation. Registration builds an accumulator tree; Finalize compiles it
// by cascading defaults into every node and freezes it for the process
// lifetime. Registration methods must be serialized by the caller and are
// forbidden once the router is finalized; dispatch is safe for concurrent
// use.
type Router struct {
	mu        sync.Mutex
	root      *node
	tree      atomic.Pointer[node]
	cache     *lookupCache
	pool      sync.Pool
	noRoute   HandlerFunc
	noMethod  HandlerFunc
	cacheSize int
}

var _ http.Handler = (*Router)(nil)

// New returns a ready to use Router, configured with the provided options.
func New(opts ...Option) (*Router, error) {
	mux := &Router{
		root:      new(node),
		noRoute:   DefaultNotFoundHandler,
		noMethod:  DefaultMethodNotAllowedHandler,
		cacheSize: DefaultCacheSize,
	}
	mux.pool.New = func() any {
		return &Context{router: mux}
	}
	for _, opt := range opts {
		if err := opt.apply(mux); err != nil {
			return nil, err
		}
	}
	return mux, nil
}

// Must returns a ready to use Router and panics on error. This function is a
// convenience wrapper for [New].
func Must(opts ...Option) *Router {
	mux, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return mux
}

// Handle registers a handler for the given method token and path, with
// optional route-level middleware. If an error occurs, it returns one of the
// following:
//   - [ErrAlreadyFinalized]: if the router was already finalized.
//   - [ErrInvalidRoute]: if the path is malformed or the handler nil.
//   - [ErrRouteConflict]: if the route conflicts with a registered one.
func (mux *Router) Handle(method Method, path string, handler HandlerFunc, mws ...MiddlewareFunc) error {
	if handler == nil {
		return newInvalidRouteError("nil handler")
	}

	mux.mu.Lock()
	defer mux.mu.Unlock()
	if mux.tree.Load() != nil {
		return ErrAlreadyFinalized
	}

	sub, err := buildRouteTree(method, path, handler, mws)
	if err != nil {
		return err
	}
	merged, err := mergeNodes(mux.root, sub)
	if err != nil {
		return err
	}
	mux.root = merged
	return nil
}

// Connect registers a handler for CONNECT requests on path. See [Router.Handle].
func (mux *Router) Connect(path string, handler HandlerFunc, mws ...MiddlewareFunc) error {
	return mux.Handle(MethodConnect, path, handler, mws...)
}

// Delete registers a handler for DELETE requests on path. See [Router.Handle].
func (mux *Router) Delete(path string, handler HandlerFunc, mws ...MiddlewareFunc) error {
	return mux.Handle(MethodDelete, path, handler, mws...)
}

// Get registers a handler for GET requests on path. See [Router.Handle].
func (mux *Router) Get(path string, handler HandlerFunc, mws ...MiddlewareFunc) error {
	return mux.Handle(MethodGet, path, handler, mws...)
}

// Head registers a handler for HEAD requests on path. See [Router.Handle].
func (mux *Router) Head(path string, handler HandlerFunc, mws ...MiddlewareFunc) error {
	return mux.Handle(MethodHead, path, handler, mws...)
}

// Options registers a handler for OPTIONS requests on path. See [Router.Handle].
func (mux *Router) Options(path string, handler HandlerFunc, mws ...MiddlewareFunc) error {
	return mux.Handle(MethodOptions, path, handler, mws...)
}

// Patch registers a handler for PATCH requests on path. See [Router.Handle].
func (mux *Router) Patch(path string, handler HandlerFunc, mws ...MiddlewareFunc) error {
	return mux.Handle(MethodPatch, path, handler, mws...)
}

// Post registers a handler for POST requests on path. See [Router.Handle].
func (mux *Router) Post(path string, handler HandlerFunc, mws ...MiddlewareFunc) error {
	return mux.Handle(MethodPost, path, handler, mws...)
}

// Put registers a handler for PUT requests on path. See [Router.Handle].
func (mux *Router) Put(path string, handler HandlerFunc, mws ...MiddlewareFunc) error {
	return mux.Handle(MethodPut, path, handler, mws...)
}

// Trace registers a handler for TRACE requests on path. See [Router.Handle].
func (mux *Router) Trace(path string, handler HandlerFunc, mws ...MiddlewareFunc) error {
	return mux.Handle(MethodTrace, path, handler, mws...)
}

// Websocket registers a handler for upgraded websocket connections on path.
// See [Router.Handle] and [UpgradeHandler].
func (mux *Router) Websocket(path string, handler HandlerFunc, mws ...MiddlewareFunc) error {
	return mux.Handle(MethodWebsocket, path, handler, mws...)
}

// Any registers a handler matching any HTTP method or websocket connection
// on path, consulted only after specific-method lookup fails. This is useful
// for mounting a fully independent handler. See [Router.Handle].
func (mux *Router) Any(path string, handler HandlerFunc, mws ...MiddlewareFunc) error {
	return mux.Handle(MethodAny, path, handler, mws...)
}

// Use appends middleware to the router. Finalize cascades it in front of
// every route's middleware chain, so the call order relative to route
// registration does not matter.
func (mux *Router) Use(mws ...MiddlewareFunc) error {
	mux.mu.Lock()
	defer mux.mu.Unlock()
	if mux.tree.Load() != nil {
		return ErrAlreadyFinalized
	}

	root := mux.root.clone()
	root.middleware = concatMiddleware(root.middleware, mws)
	mux.root = root
	return nil
}

// Mount merges another router's routes under prefix. The prefix must begin
// with '/', must not end with '/' unless it is "/" and may not contain
// wildcard markers. The mounted routes carry the middleware the child had
// at mount time; middleware registered later on the child has no effect.
func (mux *Router) Mount(prefix string, other *Router) error {
	mux.mu.Lock()
	defer mux.mu.Unlock()
	if mux.tree.Load() != nil {
		return ErrAlreadyFinalized
	}

	merged, err := mountNode(prefix, mux.root, other.snapshot())
	if err != nil {
		return err
	}
	mux.root = merged
	return nil
}

// NotFound registers the handler invoked when path resolution fails.
// Setting it twice is an error.
func (mux *Router) NotFound(handler HandlerFunc) error {
	mux.mu.Lock()
	defer mux.mu.Unlock()
	if mux.tree.Load() != nil {
		return ErrAlreadyFinalized
	}
	if mux.root.notFound != nil {
		return ErrHandlerAlreadySet
	}

	root := mux.root.clone()
	root.notFound = handler
	mux.root = root
	return nil
}

// MethodNotAllowed registers the handler invoked when path resolution
// succeeds but no leaf matches the request's method. Setting it twice is an
// error.
func (mux *Router) MethodNotAllowed(handler HandlerFunc) error {
	mux.mu.Lock()
	defer mux.mu.Unlock()
	if mux.tree.Load() != nil {
		return ErrAlreadyFinalized
	}
	if mux.root.methodNotAllowed != nil {
		return ErrHandlerAlreadySet
	}

	root := mux.root.clone()
	root.methodNotAllowed = handler
	mux.root = root
	return nil
}

// Finalize compiles the routing tree: every node inherits the nearest
// not-found and method-not-allowed handlers and every leaf's middleware
// becomes the cascaded ancestor chain. After Finalize the tree is read-only
// for the process lifetime and registration methods fail with
// [ErrAlreadyFinalized]. Finalize is idempotent and runs lazily on the
// first dispatched request, but calling it during startup keeps
// misconfiguration failures out of the request path.
func (mux *Router) Finalize() error {
	mux.mu.Lock()
	defer mux.mu.Unlock()
	if mux.tree.Load() != nil {
		return nil
	}

	notFound := mux.root.notFound
	if notFound == nil {
		notFound = mux.noRoute
	}
	methodNotAllowed := mux.root.methodNotAllowed
	if methodNotAllowed == nil {
		methodNotAllowed = mux.noMethod
	}

	tree, err := finalizeNode(mux.root, notFound, methodNotAllowed, nil)
	if err != nil {
		return err
	}
	cache, err := newLookupCache(mux.cacheSize)
	if err != nil {
		return err
	}

	mux.cache = cache
	mux.root = tree
	mux.tree.Store(tree)
	return nil
}

// snapshot returns the current accumulator root for mounting.
func (mux *Router) snapshot() *node {
	mux.mu.Lock()
	defer mux.mu.Unlock()
	return mux.root
}

// ServeHTTP is the dispatch entry point. It derives the method token from
// the request (the [MethodWebsocket] channel for upgrade requests), resolves
// the handler tuple against the compiled trie, binds the path parameters and
// matched route pattern into the request scope, folds the middleware stack
// around the handler right-to-left and invokes the result.
//
// The 404 and 405 outcomes are successful dispatches to the cascaded error
// handlers, invoked with an empty middleware stack; the router produces no
// request-time errors of its own and handler panics propagate unchanged.
func (mux *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tree := mux.tree.Load()
	if tree == nil {
		// First dispatch freezes the tree before any concurrent read.
		if err := mux.Finalize(); err != nil {
			panic(err)
		}
		tree = mux.tree.Load()
	}

	res := mux.resolve(tree, r)

	c := mux.pool.Get().(*Context)
	c.reset(w, r)
	c.bind(res)
	defer mux.pool.Put(c)

	h := res.handler
	for i := len(res.middleware) - 1; i >= 0; i-- {
		h = res.middleware[i](h)
	}
	h(c)
}

func (mux *Router) resolve(tree *node, r *http.Request) *lookupResult {
	path := r.URL.Path
	if len(path) == 0 || path[0] != '/' {
		return &lookupResult{handler: tree.notFound}
	}

	var method Method
	if websocket.IsWebSocketUpgrade(r) {
		method = MethodWebsocket
	} else {
		m, err := ParseMethod(r.Method)
		if err != nil {
			// Outside the closed token set no leaf can match.
			return &lookupResult{handler: tree.notFound}
		}
		method = m
	}

	return mux.cache.lookup(tree, method, path)
}

// DefaultNotFoundHandler is a simple [HandlerFunc] that replies to each
// request with a "404 page not found" reply.
func DefaultNotFoundHandler(c *Context) {
	http.Error(c.Writer(), "404 page not found", http.StatusNotFound)
}

// DefaultMethodNotAllowedHandler is a simple [HandlerFunc] that replies to
// each request with a "405 Method Not Allowed" reply.
func DefaultMethodNotAllowedHandler(c *Context) {
	http.Error(c.Writer(), http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
