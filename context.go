// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

package lynx

import (
	netcontext "context"
	"io"
	"iter"
	"net/http"
	"net/url"
)

// Context represents the context of the current request. It surfaces the
// path parameters and the matched route pattern to handlers and middleware
// without threading them through every signature. The Context API is not
// thread-safe and its lifetime is limited to the duration of the
// [HandlerFunc] execution: the router releases it on every exit path,
// including panics, and may reuse it for a later request.
type Context struct {
	req           *http.Request
	w             ResponseWriter
	router        *Router
	params        Params
	pattern       string
	cachedQueries url.Values
	rec           recorder
}

func (c *Context) reset(w http.ResponseWriter, r *http.Request) {
	c.rec.reset(w)
	c.w = &c.rec
	c.req = r
	c.params = nil
	c.pattern = ""
	c.cachedQueries = nil
}

// Request returns the current [http.Request].
func (c *Context) Request() *http.Request {
	return c.req
}

// SetRequest sets the [http.Request].
func (c *Context) SetRequest(r *http.Request) {
	c.cachedQueries = nil // In case r is a different request than c.req
	c.req = r
}

// Writer returns the [ResponseWriter].
func (c *Context) Writer() ResponseWriter {
	return c.w
}

// SetWriter sets the [ResponseWriter].
func (c *Context) SetWriter(w ResponseWriter) {
	c.w = w
}

// Method returns the request method.
func (c *Context) Method() string {
	return c.req.Method
}

// Path returns the request [url.URL.Path]. The router assumes the path has
// already been percent-decoded by the server runtime.
func (c *Context) Path() string {
	return c.req.URL.Path
}

// Host returns the request host.
func (c *Context) Host() string {
	return c.req.Host
}

// Pattern returns the matched route pattern (e.g. "/user/{id}"), or the
// empty string when the handler runs on an error path.
func (c *Context) Pattern() string {
	return c.pattern
}

// Param retrieves a matching wildcard or catchall segment by name.
func (c *Context) Param(name string) string {
	return c.params.Get(name)
}

// Params returns an iterator over the path parameters for the current
// route. The underlying values may be shared with the lookup cache and must
// not be mutated; use [Params.Clone] to hold them past the handler's return.
func (c *Context) Params() iter.Seq[Param] {
	return func(yield func(Param) bool) {
		for _, p := range c.params {
			if !yield(p) {
				return
			}
		}
	}
}

// QueryParams parses the request raw query and returns the corresponding
// values. The result is cached after the first call.
func (c *Context) QueryParams() url.Values {
	if c.cachedQueries == nil {
		c.cachedQueries = c.req.URL.Query()
	}
	return c.cachedQueries
}

// QueryParam returns the first query value associated with the given key.
func (c *Context) QueryParam(name string) string {
	return c.QueryParams().Get(name)
}

// Header retrieves the value of the request header for the given key.
func (c *Context) Header(key string) string {
	return c.req.Header.Get(key)
}

// SetHeader sets the response header for the given key to the specified value.
func (c *Context) SetHeader(key, value string) {
	c.w.Header().Set(key, value)
}

// Router returns the [Router] instance dispatching this request.
func (c *Context) Router() *Router {
	return c.router
}

// String sends a string with the specified status code.
func (c *Context) String(code int, s string) (err error) {
	if c.w.Header().Get("Content-Type") == "" {
		c.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	c.w.WriteHeader(code)
	_, err = c.w.WriteString(s)
	return
}

// Blob sends a byte slice with the specified status code and content type.
func (c *Context) Blob(code int, contentType string, buf []byte) (err error) {
	c.w.Header().Set("Content-Type", contentType)
	c.w.WriteHeader(code)
	_, err = c.w.Write(buf)
	return
}

// Stream sends data from an [io.Reader] with the specified status code and
// content type.
func (c *Context) Stream(code int, contentType string, r io.Reader) (err error) {
	c.w.Header().Set("Content-Type", contentType)
	c.w.WriteHeader(code)
	_, err = io.Copy(c.w, r)
	return
}

// WrapF is an adapter for wrapping [http.HandlerFunc] into a [HandlerFunc].
// The wrapped handler reads path parameters and the matched route through
// [ParamsFromContext] and [RouteFromContext].
func WrapF(f http.HandlerFunc) HandlerFunc {
	return WrapH(f)
}

// WrapH is an adapter for wrapping [http.Handler] into a [HandlerFunc].
// The wrapped handler reads path parameters and the matched route through
// [ParamsFromContext] and [RouteFromContext].
func WrapH(h http.Handler) HandlerFunc {
	return func(c *Context) {
		h.ServeHTTP(c.Writer(), c.Request())
	}
}

// bind installs the per-request scoped bindings: the pooled context fields
// and the request-context values read back by [ParamsFromContext] and
// [RouteFromContext]. The request context carries the bindings across
// suspension points and releases them with the request on every exit path.
func (c *Context) bind(res *lookupResult) {
	c.params = res.params
	c.pattern = res.pattern

	ctx := c.req.Context()
	ctx = netcontext.WithValue(ctx, paramsCtxKey{}, res.params)
	ctx = netcontext.WithValue(ctx, routeCtxKey{}, res.pattern)
	c.req = c.req.WithContext(ctx)
}
