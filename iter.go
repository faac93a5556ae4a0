// Copyright 2025 Lynx Contributors. All rights reserved.
// Use of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/lynx-toolkit/lynx/blob/master/LICENSE.txt.

package lynx

import (
	"fmt"
	"iter"
	"reflect"
	"runtime"
	"slices"
	"sort"
	"strings"
)

// RouteInfo describes a registered route as seen while iterating the trie.
type RouteInfo struct {
	Handler    HandlerFunc
	Middleware []MiddlewareFunc
	Pattern    string
	Method     Method
}

// Routes returns an iterator over the registered routes in deterministic
// trie order: at each node the literal children (sorted) are walked first,
// then the node's own routes by method name, then the wildcard and the
// catchall subtrees. It reads a point-in-time snapshot of the
// tree: on a finalized router the middleware chains include the cascaded
// ancestors.
func (mux *Router) Routes() iter.Seq[RouteInfo] {
	root := mux.snapshot()
	return func(yield func(RouteInfo) bool) {
		walkRoutes(root, nil, yield)
	}
}

func walkRoutes(n *node, parts []string, yield func(RouteInfo) bool) bool {
	for _, k := range sortedKeys(n.children) {
		child := n.children[k]
		if m, ok := methodFromKey(k); ok {
			if child.handler == nil {
				continue
			}
			info := RouteInfo{
				Method:     m,
				Pattern:    "/" + strings.Join(parts, "/"),
				Handler:    child.handler,
				Middleware: child.middleware,
			}
			if !yield(info) {
				return false
			}
			continue
		}
		if !walkRoutes(child, append(parts, k), yield) {
			return false
		}
	}
	if n.wildcard != nil {
		if !walkRoutes(n.wildcard.child, append(parts, "{"+n.wildcard.name+"}"), yield) {
			return false
		}
	}
	if n.catchall != nil {
		if !walkRoutes(n.catchall.child, append(parts, "{"+n.catchall.name+"...}"), yield) {
			return false
		}
	}
	return true
}

// sortedKeys orders a child map for deterministic iteration: literal
// segments first, then method-token leaves by method name.
func sortedKeys(children map[string]*node) []string {
	keys := make([]string, 0, len(children))
	for k := range children {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		am, bm := isMethodKey(a), isMethodKey(b)
		if am != bm {
			if bm {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})
	return keys
}

// FormatRoutes renders the registered routes as a column-aligned flat list:
//
//	ANY_HTTP   /                   main.home
//	GET        /admin              main.adminHome   [main.auth]
//	GET        /static/{path...}   main.static
//
// With verbose set, error handler overrides are appended, including the root
// defaults on a finalized router.
func (mux *Router) FormatRoutes(verbose bool) string {
	root := mux.snapshot()

	type entry struct {
		method  string
		pattern string
		handler string
		mws     []string
	}
	var entries []entry
	for info := range routesOf(root) {
		mws := make([]string, 0, len(info.Middleware))
		for _, m := range info.Middleware {
			mws = append(mws, funcName(m))
		}
		entries = append(entries, entry{
			method:  info.Method.String(),
			pattern: info.Pattern,
			handler: funcName(info.Handler),
			mws:     mws,
		})
	}
	if len(entries) == 0 {
		return ""
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].pattern != entries[j].pattern {
			return entries[i].pattern < entries[j].pattern
		}
		return entries[i].method < entries[j].method
	})

	var methodW, patternW, handlerW int
	for _, e := range entries {
		methodW = max(methodW, len(e.method))
		patternW = max(patternW, len(e.pattern))
		handlerW = max(handlerW, len(e.handler))
	}

	var lines []string
	for _, e := range entries {
		if len(e.mws) > 0 {
			lines = append(lines, fmt.Sprintf("%-*s   %-*s   %-*s   [%s]",
				methodW, e.method, patternW, e.pattern, handlerW, e.handler, strings.Join(e.mws, " > ")))
		} else {
			lines = append(lines, fmt.Sprintf("%-*s   %-*s   %s",
				methodW, e.method, patternW, e.pattern, e.handler))
		}
	}

	if verbose {
		overrides := collectErrorOverrides(root)
		if len(overrides) > 0 {
			lines = append(lines, "")
			var statusW, pathW int
			for _, o := range overrides {
				statusW = max(statusW, len(o.status))
				pathW = max(pathW, len(o.path))
			}
			for _, o := range overrides {
				lines = append(lines, fmt.Sprintf("%-*s   %-*s   %s", statusW, o.status, pathW, o.path, o.handler))
			}
		}
	}

	return strings.Join(lines, "\n")
}

// FormatTree renders the registered routes as a visual tree:
//
//	/
//	├── [GET] main.home
//	└── admin
//	    └── [GET] main.adminHome [main.auth]
//
// With verbose set, error handler transitions are annotated on the node
// where they take effect.
func (mux *Router) FormatTree(verbose bool) string {
	root := mux.snapshot()

	label := "/"
	if verbose {
		var notes []string
		if root.notFound != nil {
			notes = append(notes, "404: "+funcName(root.notFound))
		}
		if root.methodNotAllowed != nil {
			notes = append(notes, "405: "+funcName(root.methodNotAllowed))
		}
		if len(notes) > 0 {
			label += " (" + strings.Join(notes, ", ") + ")"
		}
	}
	lines := []string{label}
	renderTree(root, "", verbose, &lines)
	return strings.Join(lines, "\n")
}

func routesOf(root *node) iter.Seq[RouteInfo] {
	return func(yield func(RouteInfo) bool) {
		walkRoutes(root, nil, yield)
	}
}

type errorOverride struct {
	status  string
	path    string
	handler string
}

func collectErrorOverrides(root *node) []errorOverride {
	var out []errorOverride
	if root.notFound != nil {
		out = append(out, errorOverride{"404", "/", funcName(root.notFound)})
	}
	if root.methodNotAllowed != nil {
		out = append(out, errorOverride{"405", "/", funcName(root.methodNotAllowed)})
	}

	var sub []errorOverride
	walkErrorOverrides(root, nil, root.notFound, root.methodNotAllowed, &sub)
	sort.Slice(sub, func(i, j int) bool {
		if sub[i].path != sub[j].path {
			return sub[i].path < sub[j].path
		}
		return sub[i].status < sub[j].status
	})
	return append(out, sub...)
}

func walkErrorOverrides(n *node, parts []string, parentNF, parentMNA HandlerFunc, out *[]errorOverride) {
	if len(parts) > 0 {
		if n.notFound != nil && !funcEqual(n.notFound, parentNF) {
			*out = append(*out, errorOverride{"404", "/" + strings.Join(parts, "/"), funcName(n.notFound)})
		}
		if n.methodNotAllowed != nil && !funcEqual(n.methodNotAllowed, parentMNA) {
			*out = append(*out, errorOverride{"405", "/" + strings.Join(parts, "/"), funcName(n.methodNotAllowed)})
		}
	}
	nf, mna := n.notFound, n.methodNotAllowed
	if nf == nil {
		nf = parentNF
	}
	if mna == nil {
		mna = parentMNA
	}

	for _, k := range sortedKeys(n.children) {
		if isMethodKey(k) {
			continue
		}
		walkErrorOverrides(n.children[k], append(parts, k), nf, mna, out)
	}
	if n.wildcard != nil {
		walkErrorOverrides(n.wildcard.child, append(parts, "{"+n.wildcard.name+"}"), nf, mna, out)
	}
	if n.catchall != nil {
		walkErrorOverrides(n.catchall.child, append(parts, "{"+n.catchall.name+"...}"), nf, mna, out)
	}
}

type treeItem struct {
	label string
	child *node
}

func renderTree(n *node, prefix string, verbose bool, lines *[]string) {
	var items []treeItem

	// Handler entries from the "" child surface on the parent so a trailing
	// slash route renders next to its sibling.
	if empty, ok := n.children[""]; ok {
		for _, k := range sortedKeys(empty.children) {
			if m, ok := methodFromKey(k); ok && empty.children[k].handler != nil {
				items = append(items, treeItem{label: handlerLabel(m, empty.children[k])})
			}
		}
	}
	for _, k := range sortedKeys(n.children) {
		if m, ok := methodFromKey(k); ok {
			if n.children[k].handler != nil {
				items = append(items, treeItem{label: handlerLabel(m, n.children[k])})
			}
		}
	}
	for _, k := range sortedKeys(n.children) {
		if isMethodKey(k) || k == "" {
			continue
		}
		child := n.children[k]
		items = append(items, treeItem{label: k + errorAnnotation(child, n, verbose), child: child})
	}
	if n.wildcard != nil {
		child := n.wildcard.child
		items = append(items, treeItem{label: "{" + n.wildcard.name + "}" + errorAnnotation(child, n, verbose), child: child})
	}
	if n.catchall != nil {
		child := n.catchall.child
		items = append(items, treeItem{label: "{" + n.catchall.name + "...}" + errorAnnotation(child, n, verbose), child: child})
	}

	for i, item := range items {
		last := i == len(items)-1
		connector := "├── "
		extension := "│   "
		if last {
			connector = "└── "
			extension = "    "
		}
		*lines = append(*lines, prefix+connector+item.label)
		if item.child != nil {
			renderTree(item.child, prefix+extension, verbose, lines)
		}
	}
}

func handlerLabel(m Method, leaf *node) string {
	method := m.String()
	if m == MethodAny {
		method = "*"
	}
	label := "[" + method + "] " + funcName(leaf.handler)
	if len(leaf.middleware) > 0 {
		mws := make([]string, 0, len(leaf.middleware))
		for _, mw := range leaf.middleware {
			mws = append(mws, funcName(mw))
		}
		label += " [" + strings.Join(mws, " > ") + "]"
	}
	return label
}

func errorAnnotation(child, parent *node, verbose bool) string {
	if !verbose {
		return ""
	}
	var notes []string
	if child.notFound != nil && !funcEqual(child.notFound, parent.notFound) {
		notes = append(notes, "404: "+funcName(child.notFound))
	}
	if child.methodNotAllowed != nil && !funcEqual(child.methodNotAllowed, parent.methodNotAllowed) {
		notes = append(notes, "405: "+funcName(child.methodNotAllowed))
	}
	if len(notes) == 0 {
		return ""
	}
	return " (" + strings.Join(notes, ", ") + ")"
}

// funcName resolves a function value to its short symbol name, the closest
// Go analogue to a qualified callable name.
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.IsNil() {
		return "<nil>"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return fmt.Sprintf("%#x", v.Pointer())
	}
	name := f.Name()
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}
