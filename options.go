// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

package lynx

import (
	"fmt"

	"github.com/lynx-toolkit/lynx/internal/slogpretty"
)

type Option interface {
	apply(*Router) error
}

type optionFunc func(*Router) error

func (o optionFunc) apply(mux *Router) error {
	return o(mux)
}

// WithNotFound sets the default handler invoked when no route matches the
// request path. The default applies wherever no subtree-level handler was
// registered via [Router.NotFound]. By default, [DefaultNotFoundHandler]
// is used.
func WithNotFound(handler HandlerFunc) Option {
	return optionFunc(func(mux *Router) error {
		if handler == nil {
			return fmt.Errorf("%w: nil not found handler", ErrInvalidConfig)
		}
		mux.noRoute = handler
		return nil
	})
}

// WithMethodNotAllowed sets the default handler invoked when the path
// resolves but the request method has no leaf. By default,
// [DefaultMethodNotAllowedHandler] is used.
func WithMethodNotAllowed(handler HandlerFunc) Option {
	return optionFunc(func(mux *Router) error {
		if handler == nil {
			return fmt.Errorf("%w: nil method not allowed handler", ErrInvalidConfig)
		}
		mux.noMethod = handler
		return nil
	})
}

// WithMiddleware attaches router-level middleware, equivalent to calling
// [Router.Use] right after construction. Finalize cascades it in front of
// every route's chain. Error-path handlers are never wrapped: users who want
// middleware around a 404 or 405 handler must wrap the handler explicitly
// before registration.
func WithMiddleware(mws ...MiddlewareFunc) Option {
	return optionFunc(func(mux *Router) error {
		return mux.Use(mws...)
	})
}

// WithCacheSize bounds the lookup engine's LRU cache. The default is
// [DefaultCacheSize].
func WithCacheSize(size int) Option {
	return optionFunc(func(mux *Router) error {
		if size <= 0 {
			return fmt.Errorf("%w: cache size must be positive, got %d", ErrInvalidConfig, size)
		}
		mux.cacheSize = size
		return nil
	})
}

// DefaultOptions configures the router with the [Recovery] and [Logger]
// middleware, in that order, logging through the built-in terminal handler.
func DefaultOptions() Option {
	return optionFunc(func(mux *Router) error {
		return mux.Use(Recovery(), Logger(slogpretty.DefaultHandler))
	})
}
