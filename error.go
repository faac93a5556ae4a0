// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

package lynx

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRoute        = errors.New("invalid route")
	ErrRouteConflict       = errors.New("route conflict")
	ErrInvalidMethod       = errors.New("invalid method")
	ErrAlreadyFinalized    = errors.New("router already finalized")
	ErrHandlerAlreadySet   = errors.New("handler already set")
	ErrMissingErrorHandler = errors.New("missing error handler")
	ErrInvalidConfig       = errors.New("invalid config")
)

// RouteConflictError reports a conflict detected while merging two route
// subtrees. Kind names the conflicting field and Segments the path from the
// merge root down to the node where the conflict was found.
type RouteConflictError struct {
	Kind     string
	Segments []string
}

func (e *RouteConflictError) Error() string {
	sb := new(strings.Builder)
	sb.WriteString("route conflict: ")
	sb.WriteString(e.Kind)
	if len(e.Segments) > 0 {
		sb.WriteString(" under '/")
		sb.WriteString(strings.Join(e.Segments, "/"))
		sb.WriteByte('\'')
	}
	return sb.String()
}

// Unwrap returns the sentinel value [ErrRouteConflict].
func (e *RouteConflictError) Unwrap() error {
	return ErrRouteConflict
}

func newConflictError(kind string, segments []string) error {
	return &RouteConflictError{Kind: kind, Segments: segments}
}

func newInvalidRouteError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRoute, fmt.Sprintf(format, args...))
}
