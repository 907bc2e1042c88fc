// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package clientmirror evaluates generated binding scripts against a
// client-side copy of the view model.
//
// The mirror runs scripts in an embedded JavaScript engine that
// provides a minimal knockout: observable cells, ko.unwrap and
// ko.pureComputed. View-model objects are mirrored as objects whose
// fields are observables; lists are mirrored as arrays held in an
// observable. Every observable counts its reads, so tests can check
// how often a script reads each cell.
//
// A Mirror is not safe for concurrent use.
package clientmirror // import "github.com/tomasmikes/dotvvm/clientmirror"

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dop251/goja"
)

const shim = `
var ko = (function () {
	function isObservable(x) {
		return typeof x === "function" && x.__ko_observable === true;
	}
	function observable(v, name) {
		var f = function () {
			if (arguments.length > 0) {
				v = arguments[0];
				return;
			}
			__read(name);
			return v;
		};
		f.__ko_observable = true;
		f.peek = function () { return v; };
		return f;
	}
	return {
		observable: observable,
		isObservable: isObservable,
		unwrap: function (x) { return isObservable(x) ? x() : x; },
		pureComputed: function (fn) {
			var f = function () { return fn(); };
			f.__ko_observable = true;
			return f;
		}
	};
})();
`

// A Mirror is a script engine holding a mirrored view model.
type Mirror struct {
	rt    *goja.Runtime
	reads map[string]int

	observable   goja.Callable
	isObservable goja.Callable
}

// New returns a mirror with the knockout shim installed.
func New() (*Mirror, error) {
	m := &Mirror{rt: goja.New(), reads: make(map[string]int)}
	m.rt.Set("__read", func(call goja.FunctionCall) goja.Value {
		m.reads[call.Argument(0).String()]++
		return goja.Undefined()
	})
	if _, err := m.rt.RunString(shim); err != nil {
		return nil, fmt.Errorf("installing knockout shim: %v", err)
	}
	ko := m.rt.Get("ko").ToObject(m.rt)
	var ok bool
	if m.observable, ok = goja.AssertFunction(ko.Get("observable")); !ok {
		return nil, fmt.Errorf("ko.observable is not a function")
	}
	if m.isObservable, ok = goja.AssertFunction(ko.Get("isObservable")); !ok {
		return nil, fmt.Errorf("ko.isObservable is not a function")
	}
	return m, nil
}

// A Context describes the data contexts a script runs in.
type Context struct {
	// VMs holds the data context of each enclosing scope,
	// innermost first. The last element is the root.
	VMs []any

	// Indexes holds the collection index of each scope, innermost first.
	Indexes []int64

	// Element is the value of $element.
	Element any

	// Values holds custom context parameters of the innermost scope.
	Values map[string]any
}

// Run evaluates the script expression code in ctx and returns its
// result, which may be a cell. The free variables $context, $data and
// $element are bound to the innermost binding context.
func (m *Mirror) Run(code string, ctx *Context) (goja.Value, error) {
	if len(ctx.VMs) == 0 {
		return nil, fmt.Errorf("empty data context chain")
	}
	contexts, err := m.contexts(ctx)
	if err != nil {
		return nil, err
	}
	fnv, err := m.rt.RunString("(function ($context, $data, $element) {\n\treturn (" + code + "\n);\n})")
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %v", code, err)
	}
	fn, ok := goja.AssertFunction(fnv)
	if !ok {
		return nil, fmt.Errorf("compiling %s: not a function", code)
	}
	inner := contexts[0]
	v, err := fn(goja.Undefined(), inner, inner.Get("$data"), inner.Get("$element"))
	if err != nil {
		return nil, fmt.Errorf("evaluating %s: %v", code, err)
	}
	return v, nil
}

// Eval evaluates code in ctx, reads the result if it is a cell, and
// returns it as a Go value (see Export).
func (m *Mirror) Eval(code string, ctx *Context) (any, error) {
	v, err := m.Run(code, ctx)
	if err != nil {
		return nil, err
	}
	return m.Value(v)
}

// IsCell reports whether v is an observable cell.
func (m *Mirror) IsCell(v goja.Value) bool {
	res, err := m.isObservable(goja.Undefined(), v)
	return err == nil && res.ToBoolean()
}

// Value reads v if it is a cell and returns the result as a Go value.
func (m *Mirror) Value(v goja.Value) (any, error) {
	if m.IsCell(v) {
		fn, _ := goja.AssertFunction(v)
		var err error
		if v, err = fn(goja.Undefined()); err != nil {
			return nil, err
		}
	}
	return Export(v), nil
}

// Export converts a script value into the representation used on the
// server: nil, bool, int64, float64, string, []any or map[string]any.
// Integral numbers are int64. Cells inside objects are read without
// being counted.
func Export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	switch x := v.Export().(type) {
	case int64:
		return x
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
		return x
	case bool, string:
		return x
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.Export()
	}
	if obj.ClassName() == "Array" {
		n := int(obj.Get("length").ToInteger())
		list := make([]any, n)
		for i := range n {
			list[i] = Export(obj.Get(strconv.Itoa(i)))
		}
		return list
	}
	if peek, ok := goja.AssertFunction(obj.Get("peek")); ok {
		inner, err := peek(obj)
		if err != nil {
			return nil
		}
		return Export(inner)
	}
	fields := make(map[string]any)
	for _, k := range obj.Keys() {
		fields[k] = Export(obj.Get(k))
	}
	return fields
}

// Normalize converts integral float64 values in v to int64, recursively,
// so that server values compare equal to exported script values.
func Normalize(v any) any {
	switch v := v.(type) {
	case int:
		return int64(v)
	case float64:
		if v == float64(int64(v)) {
			return int64(v)
		}
	case []any:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = Normalize(x)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[k] = Normalize(x)
		}
		return out
	}
	return v
}

// Reads returns how often the cell at path was read.
// Paths are field names joined by dots, with list elements as [i];
// data contexts other than the innermost are prefixed with ^n.
func (m *Mirror) Reads(path string) int { return m.reads[path] }

// TotalReads returns the number of cell reads since the last reset.
func (m *Mirror) TotalReads() int {
	n := 0
	for _, c := range m.reads {
		n += c
	}
	return n
}

// ReadPaths returns the paths of all cells read, sorted.
func (m *Mirror) ReadPaths() []string {
	paths := make([]string, 0, len(m.reads))
	for p := range m.reads {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ResetReads clears the read counters.
func (m *Mirror) ResetReads() { clear(m.reads) }

// contexts builds the knockout binding contexts of ctx, innermost first.
func (m *Mirror) contexts(ctx *Context) ([]*goja.Object, error) {
	n := len(ctx.VMs)
	data := make([]goja.Value, n)
	for i, vm := range ctx.VMs {
		prefix := ""
		if i > 0 {
			prefix = "^" + strconv.Itoa(i) + "."
		}
		v, err := m.mirror(vm, prefix)
		if err != nil {
			return nil, err
		}
		data[i] = v
	}
	element := m.rt.ToValue(ctx.Element)

	contexts := make([]*goja.Object, n)
	for i := n - 1; i >= 0; i-- {
		c := m.rt.NewObject()
		set := func(name string, v any) {
			if err := c.Set(name, v); err != nil {
				panic(err) // plain objects accept any property
			}
		}
		set("$data", data[i])
		set("$root", data[n-1])
		set("$element", element)
		parents := make([]any, 0, n-i-1)
		for _, p := range data[i+1:] {
			parents = append(parents, p)
		}
		set("$parents", m.rt.NewArray(parents...))
		if i+1 < n {
			set("$parent", data[i+1])
			set("$parentContext", contexts[i+1])
		}
		if i < len(ctx.Indexes) {
			idx, err := m.observable(goja.Undefined(), m.rt.ToValue(ctx.Indexes[i]), m.rt.ToValue("$index^"+strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			set("$index", idx)
		}
		if i == 0 {
			for name, v := range ctx.Values {
				mv, err := m.mirror(v, name+".")
				if err != nil {
					return nil, err
				}
				set(name, mv)
			}
		}
		contexts[i] = c
	}
	return contexts, nil
}

// mirror converts a server value into its client form.
// Object fields become observables named prefix+field.
func (m *Mirror) mirror(v any, prefix string) (goja.Value, error) {
	switch v := v.(type) {
	case nil:
		return goja.Null(), nil
	case int:
		return m.rt.ToValue(int64(v)), nil
	case bool, int64, float64, string:
		return m.rt.ToValue(v), nil
	case []any:
		elems := make([]any, len(v))
		for i, x := range v {
			e, err := m.mirror(x, strings.TrimSuffix(prefix, ".")+"["+strconv.Itoa(i)+"].")
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return m.rt.NewArray(elems...), nil
	case map[string]any:
		obj := m.rt.NewObject()
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fv, err := m.mirror(v[k], prefix+k+".")
			if err != nil {
				return nil, err
			}
			cell, err := m.observable(goja.Undefined(), fv, m.rt.ToValue(prefix+k))
			if err != nil {
				return nil, err
			}
			if err := obj.Set(k, cell); err != nil {
				return nil, err
			}
		}
		return obj, nil
	}
	return nil, fmt.Errorf("cannot mirror %T", v)
}
