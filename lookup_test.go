// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

package lynx

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The fixture mirrors the canonical routing table:
//
//	*     /                                   home
//	GET   /admin                              adminHome      [adminMW]
//	POST  /admin/user/{id}/rename             adminRename    [adminMW > adminUserMW > adminRenameMW]
//	GET   /admin/user/{id}/transaction/{tx}   adminTx        [adminMW > adminUserMW]
//	GET   /static/{path...}                   static
//
// with a 404 override under /admin and a 405 override under /static.
var (
	homeHandler        = HandlerFunc(func(c *Context) { _ = c.String(200, "home") })
	adminHomeHandler   = HandlerFunc(func(c *Context) { _ = c.String(200, "admin_home") })
	adminRenameHandler = HandlerFunc(func(c *Context) { _ = c.String(200, "admin_user_rename") })
	adminTxHandler     = HandlerFunc(func(c *Context) { _ = c.String(200, "admin_user_tx") })
	staticHandler      = HandlerFunc(func(c *Context) { _ = c.String(200, "static") })
	rootNotFound       = HandlerFunc(func(c *Context) { _ = c.String(404, "not_found") })
	adminNotFound      = HandlerFunc(func(c *Context) { _ = c.String(404, "admin_not_found") })
	rootNoMethod       = HandlerFunc(func(c *Context) { _ = c.String(405, "method_not_allowed") })
	staticNoMethod     = HandlerFunc(func(c *Context) { _ = c.String(405, "static_method_not_allowed") })

	adminMW       = MiddlewareFunc(func(next HandlerFunc) HandlerFunc { return next })
	adminUserMW   = MiddlewareFunc(func(next HandlerFunc) HandlerFunc { return next })
	adminRenameMW = MiddlewareFunc(func(next HandlerFunc) HandlerFunc { return next })
)

func scenarioTree(t *testing.T) *node {
	t.Helper()

	root := new(node)
	add := func(method Method, path string, h HandlerFunc, mws ...MiddlewareFunc) {
		sub, err := buildRouteTree(method, path, h, mws)
		require.NoError(t, err)
		root, err = mergeNodes(root, sub)
		require.NoError(t, err)
	}

	add(MethodAny, "/", homeHandler)
	add(MethodGet, "/admin", adminHomeHandler, adminMW)
	add(MethodPost, "/admin/user/{id}/rename", adminRenameHandler, adminMW, adminUserMW, adminRenameMW)
	add(MethodGet, "/admin/user/{id}/transaction/{tx}", adminTxHandler, adminMW, adminUserMW)
	add(MethodGet, "/static/{path...}", staticHandler)

	override, err := buildSubTree("/admin", &node{notFound: adminNotFound})
	require.NoError(t, err)
	root, err = mergeNodes(root, override)
	require.NoError(t, err)

	override, err = buildSubTree("/static", &node{methodNotAllowed: staticNoMethod})
	require.NoError(t, err)
	root, err = mergeNodes(root, override)
	require.NoError(t, err)

	final, err := finalizeNode(root, rootNotFound, rootNoMethod, nil)
	require.NoError(t, err)
	return final
}

func TestLookupTree(t *testing.T) {
	tree := scenarioTree(t)

	cases := []struct {
		name       string
		method     Method
		path       string
		handler    HandlerFunc
		middleware []MiddlewareFunc
		params     Params
		pattern    string
	}{
		{
			name:    "any method on root",
			method:  MethodPatch,
			path:    "/",
			handler: homeHandler,
			pattern: "/",
		},
		{
			name:       "exact match with middleware",
			method:     MethodGet,
			path:       "/admin",
			handler:    adminHomeHandler,
			middleware: []MiddlewareFunc{adminMW},
			pattern:    "/admin",
		},
		{
			name:    "not found",
			method:  MethodGet,
			path:    "/some/nonexistent",
			handler: rootNotFound,
		},
		{
			name:    "trailing slash is distinct and 404s on the admin override",
			method:  MethodGet,
			path:    "/admin/",
			handler: adminNotFound,
		},
		{
			name:    "method not allowed",
			method:  MethodDelete,
			path:    "/admin",
			handler: rootNoMethod,
		},
		{
			name:    "method not allowed keeps params and subtree override",
			method:  MethodOptions,
			path:    "/static/bleugh.txt",
			handler: staticNoMethod,
			params:  Params{{Key: "path", Value: "bleugh.txt"}},
		},
		{
			name:       "wildcard param",
			method:     MethodPost,
			path:       "/admin/user/1/rename",
			handler:    adminRenameHandler,
			middleware: []MiddlewareFunc{adminMW, adminUserMW, adminRenameMW},
			params:     Params{{Key: "id", Value: "1"}},
			pattern:    "/admin/user/{id}/rename",
		},
		{
			name:       "multiple wildcard params",
			method:     MethodGet,
			path:       "/admin/user/1/transaction/2",
			handler:    adminTxHandler,
			middleware: []MiddlewareFunc{adminMW, adminUserMW},
			params:     Params{{Key: "id", Value: "1"}, {Key: "tx", Value: "2"}},
			pattern:    "/admin/user/{id}/transaction/{tx}",
		},
		{
			name:    "catchall spans segments",
			method:  MethodGet,
			path:    "/static/lib/datastar.min.js",
			handler: staticHandler,
			params:  Params{{Key: "path", Value: "lib/datastar.min.js"}},
			pattern: "/static/{path...}",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := lookupTree(tree, tc.method, tc.path)
			assert.True(t, funcEqual(tc.handler, res.handler), "wrong handler")
			assert.True(t, middlewareEqual(tc.middleware, res.middleware), "wrong middleware")
			assert.Empty(t, cmp.Diff(tc.params, res.params))
			assert.Equal(t, tc.pattern, res.pattern)
		})
	}
}

func TestLookupCatchallEmptyRemainder(t *testing.T) {
	tree := scenarioTree(t)

	// A path ending right at the catchall's prefix binds the empty string.
	res := lookupTree(tree, MethodGet, "/static/")
	assert.True(t, funcEqual(staticHandler, res.handler))
	assert.Empty(t, cmp.Diff(Params{{Key: "path", Value: ""}}, res.params))
	assert.Equal(t, "/static/{path...}", res.pattern)
}

func TestLookupNoMethodChildrenIs404(t *testing.T) {
	// /static itself has no method-token children: the path is
	// under-defined, which is a 404 rather than a 405.
	tree := scenarioTree(t)
	res := lookupTree(tree, MethodGet, "/static")
	assert.True(t, funcEqual(rootNotFound, res.handler))
	assert.Empty(t, res.params)
	assert.Empty(t, res.pattern)
}

func TestLookupAnyFallbackAfterSpecific(t *testing.T) {
	getHandler := HandlerFunc(func(c *Context) {})
	anyHandler := HandlerFunc(func(c *Context) {})

	root := new(node)
	sub, err := buildRouteTree(MethodGet, "/x", getHandler, nil)
	require.NoError(t, err)
	root, err = mergeNodes(root, sub)
	require.NoError(t, err)
	sub, err = buildRouteTree(MethodAny, "/x", anyHandler, nil)
	require.NoError(t, err)
	root, err = mergeNodes(root, sub)
	require.NoError(t, err)
	tree, err := finalizeNode(root, rootNotFound, rootNoMethod, nil)
	require.NoError(t, err)

	assert.True(t, funcEqual(getHandler, lookupTree(tree, MethodGet, "/x").handler))
	assert.True(t, funcEqual(anyHandler, lookupTree(tree, MethodDelete, "/x").handler))
	assert.True(t, funcEqual(anyHandler, lookupTree(tree, MethodWebsocket, "/x").handler))
}

func TestLookupPriority(t *testing.T) {
	exact := HandlerFunc(func(c *Context) {})
	wild := HandlerFunc(func(c *Context) {})
	catch := HandlerFunc(func(c *Context) {})

	root := new(node)
	for _, rte := range []struct {
		path    string
		handler HandlerFunc
	}{
		{"/files/exact", exact},
		{"/files/{name}", wild},
		{"/files/{rest...}", catch},
	} {
		sub, err := buildRouteTree(MethodGet, rte.path, rte.handler, nil)
		require.NoError(t, err)
		root, err = mergeNodes(root, sub)
		require.NoError(t, err)
	}
	tree, err := finalizeNode(root, rootNotFound, rootNoMethod, nil)
	require.NoError(t, err)

	// Exact beats wildcard, wildcard beats catchall, catchall is last resort.
	assert.True(t, funcEqual(exact, lookupTree(tree, MethodGet, "/files/exact").handler))
	assert.True(t, funcEqual(wild, lookupTree(tree, MethodGet, "/files/other").handler))
	assert.True(t, funcEqual(catch, lookupTree(tree, MethodGet, "/files/a/b").handler))
}

func TestLookupDeterminism(t *testing.T) {
	tree := scenarioTree(t)
	first := lookupTree(tree, MethodGet, "/admin/user/7/transaction/9")
	for range 100 {
		res := lookupTree(tree, MethodGet, "/admin/user/7/transaction/9")
		assert.True(t, funcEqual(first.handler, res.handler))
		assert.Empty(t, cmp.Diff(first.params, res.params))
		assert.Equal(t, first.pattern, res.pattern)
	}
}

func TestLookupParamRoundTrip(t *testing.T) {
	tree := scenarioTree(t)

	for _, path := range []string{
		"/admin/user/42/rename",
		"/admin/user/1/transaction/2",
		"/static/css/site.css",
	} {
		method := MethodGet
		if strings.Contains(path, "rename") {
			method = MethodPost
		}
		res := lookupTree(tree, method, path)
		require.NotEmpty(t, res.pattern, path)

		// Substituting the params back into the matched pattern rebuilds
		// the concrete path.
		rebuilt := res.pattern
		for _, p := range res.params {
			rebuilt = strings.Replace(rebuilt, "{"+p.Key+"...}", p.Value, 1)
			rebuilt = strings.Replace(rebuilt, "{"+p.Key+"}", p.Value, 1)
		}
		assert.Equal(t, path, rebuilt)
	}
}

func TestLookupCache(t *testing.T) {
	tree := scenarioTree(t)
	cache, err := newLookupCache(DefaultCacheSize)
	require.NoError(t, err)

	first := cache.lookup(tree, MethodGet, "/admin")
	second := cache.lookup(tree, MethodGet, "/admin")
	assert.Same(t, first, second)

	// A different tree identity misses even for an identical path.
	other := scenarioTree(t)
	third := cache.lookup(other, MethodGet, "/admin")
	assert.NotSame(t, first, third)

	// Distinct methods are distinct entries.
	fourth := cache.lookup(tree, MethodDelete, "/admin")
	assert.NotSame(t, first, fourth)
}

func TestLookupCacheBounded(t *testing.T) {
	tree := scenarioTree(t)
	cache, err := newLookupCache(8)
	require.NoError(t, err)

	for i := range 100 {
		cache.lookup(tree, MethodGet, fmt.Sprintf("/static/%d", i))
	}
	assert.LessOrEqual(t, cache.lru.Len(), 8)
}

func TestLookupFuzzedRoutes(t *testing.T) {
	f := fuzz.New().Funcs(func(s *string, c fuzz.Continue) {
		const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
		n := c.Intn(10) + 1
		b := make([]byte, n)
		for i := range b {
			b[i] = alphabet[c.Intn(len(alphabet))]
		}
		*s = string(b)
	})

	handlers := make(map[string]HandlerFunc)
	root := new(node)
	for range 500 {
		segs := make([]string, 3)
		for i := range segs {
			f.Fuzz(&segs[i])
		}
		path := "/" + strings.Join(segs, "/")
		if _, ok := handlers[path]; ok {
			continue
		}
		h := HandlerFunc(func(c *Context) { _ = c.String(200, path) })
		handlers[path] = h

		sub, err := buildRouteTree(MethodGet, path, h, nil)
		require.NoError(t, err)
		root, err = mergeNodes(root, sub)
		require.NoError(t, err)
	}

	tree, err := finalizeNode(root, rootNotFound, rootNoMethod, nil)
	require.NoError(t, err)

	for path, h := range handlers {
		res := lookupTree(tree, MethodGet, path)
		assert.True(t, funcEqual(h, res.handler), "path %s resolved to the wrong handler", path)
		assert.Equal(t, path, res.pattern)
	}
}
