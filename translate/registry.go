// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package translate

import (
	"fmt"
	"sync"

	"github.com/tomasmikes/dotvvm/diag"
	"github.com/tomasmikes/dotvvm/jsast"
	"github.com/tomasmikes/dotvvm/types"
)

// A MemberFunc translates a field access given its translated receiver.
type MemberFunc func(recv jsast.Expr) (jsast.Expr, error)

// A MethodFunc translates a method call given its translated receiver
// (nil for a static method) and arguments.
type MethodFunc func(recv jsast.Expr, args []jsast.Expr) (jsast.Expr, error)

type key struct {
	decl, name string
}

// A Registry maps members and methods of server types to their script
// translations. Entries are keyed by the declaring type's definition
// name (see types.Type.Definition) and the member name; all overloads
// of a method share one entry. A Registry is immutable and may be
// shared by concurrent translations.
type Registry struct {
	members map[key]MemberFunc
	methods map[key]MethodFunc
}

// Member returns the translation of the field f.
func (r *Registry) Member(f *types.Field) (MemberFunc, bool) {
	fn, ok := r.members[key{f.Decl.Definition(), f.Name}]
	return fn, ok
}

// Method returns the translation of the method m.
func (r *Registry) Method(m *types.Method) (MethodFunc, bool) {
	fn, ok := r.methods[key{m.Decl.Definition(), m.Name}]
	return fn, ok
}

// Len returns the number of entries in r.
func (r *Registry) Len() int { return len(r.members) + len(r.methods) }

// A RegistryBuilder accumulates translations until Build is called.
// Adding to a built registry panics.
type RegistryBuilder struct {
	members map[key]MemberFunc
	methods map[key]MethodFunc
	built   bool
}

// NewRegistryBuilder returns an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{
		members: make(map[key]MemberFunc),
		methods: make(map[key]MethodFunc),
	}
}

// AddMember registers the translation of field name of type decl,
// replacing any previous one.
func (b *RegistryBuilder) AddMember(decl, name string, fn MemberFunc) *RegistryBuilder {
	b.check()
	b.members[key{decl, name}] = fn
	return b
}

// AddMethod registers the translation of method name of type decl,
// replacing any previous one.
func (b *RegistryBuilder) AddMethod(decl, name string, fn MethodFunc) *RegistryBuilder {
	b.check()
	b.methods[key{decl, name}] = fn
	return b
}

func (b *RegistryBuilder) check() {
	if b.built {
		panic("translate: registration into a built registry")
	}
}

// Build freezes the builder and returns the registry.
func (b *RegistryBuilder) Build() *Registry {
	b.check()
	b.built = true
	return &Registry{members: b.members, methods: b.methods}
}

// DefaultRegistry returns the registry of the predeclared types,
// built on first use.
var DefaultRegistry = sync.OnceValue(func() *Registry {
	b := NewRegistryBuilder()
	RegisterDefaults(b)
	return b.Build()
})

// Helpers for writing translations.

func method(recv jsast.Expr, name string, args ...jsast.Expr) jsast.Expr {
	return jsast.Invoke(jsast.Dot(recv, name), args...)
}

func global(path ...string) jsast.Expr {
	var e jsast.Expr = jsast.Annotate(jsast.Id(path[0]), jsast.NotNull{})
	for _, name := range path[1:] {
		e = jsast.Dot(e, name)
	}
	return e
}

func renamed(name string) MethodFunc {
	return func(recv jsast.Expr, args []jsast.Expr) (jsast.Expr, error) {
		return method(recv, name, args...), nil
	}
}

func property(name string) MemberFunc {
	return func(recv jsast.Expr) (jsast.Expr, error) {
		return jsast.Dot(recv, name), nil
	}
}

func staticCall(path ...string) MethodFunc {
	return func(_ jsast.Expr, args []jsast.Expr) (jsast.Expr, error) {
		return jsast.Invoke(global(path...), args...), nil
	}
}

// orEmpty returns x ?? "".
func orEmpty(x jsast.Expr) jsast.Expr {
	return jsast.Bin(jsast.BinNullishCoalescing, x, jsast.Lit(""))
}

// RegisterDefaults adds the translations of the predeclared types.
func RegisterDefaults(b *RegistryBuilder) {
	const list = "List"
	b.AddMember(list, "Count", property("length"))
	b.AddMethod(list, "Any", renamed("some"))
	b.AddMethod(list, "All", renamed("every"))
	b.AddMethod(list, "Where", renamed("filter"))
	b.AddMethod(list, "Contains", renamed("includes"))

	str := types.String.Definition()
	b.AddMember(str, "Length", property("length"))
	b.AddMethod(str, "ToUpper", renamed("toUpperCase"))
	b.AddMethod(str, "ToLower", renamed("toLowerCase"))
	b.AddMethod(str, "Trim", renamed("trim"))
	b.AddMethod(str, "Contains", renamed("includes"))
	b.AddMethod(str, "StartsWith", renamed("startsWith"))
	b.AddMethod(str, "EndsWith", renamed("endsWith"))
	b.AddMethod(str, "IsNullOrEmpty", func(_ jsast.Expr, args []jsast.Expr) (jsast.Expr, error) {
		return jsast.Not(args[0]), nil
	})
	b.AddMethod(str, "IsNullOrWhiteSpace", func(_ jsast.Expr, args []jsast.Expr) (jsast.Expr, error) {
		return jsast.Not(method(orEmpty(args[0]), "trim")), nil
	})

	b.AddMethod(types.Any.Definition(), "ToString", func(recv jsast.Expr, _ []jsast.Expr) (jsast.Expr, error) {
		return toString(recv), nil
	})

	m := types.Math.Definition()
	b.AddMethod(m, "Max", staticCall("Math", "max"))
	b.AddMethod(m, "Min", staticCall("Math", "min"))
	b.AddMethod(m, "Abs", staticCall("Math", "abs"))

	b.AddMethod(types.Resources.Definition(), "Url", func(_ jsast.Expr, args []jsast.Expr) (jsast.Expr, error) {
		var name string
		if lit, ok := args[0].(*jsast.Literal); ok {
			name, _ = lit.Value.(string)
		}
		if name == "" {
			return nil, diag.Errorf(diag.UntranslatableOperation, "Resources.Url requires a constant resource name")
		}
		return jsast.Annotate(&jsast.Symbol{Name: "resource:" + name}, jsast.NotNull{}), nil
	})
}

// toString returns x == null ? null : String(x).
func toString(x jsast.Expr) jsast.Expr {
	return &jsast.Conditional{
		Cond: jsast.Bin(jsast.BinLooseEq, x, jsast.Lit(nil)),
		Then: jsast.Lit(nil),
		Else: jsast.Invoke(global("String"), jsast.Clone(x)),
	}
}

func untranslatable(what string, args ...any) error {
	return diag.Errorf(diag.UntranslatableOperation, "no script translation for %s", fmt.Sprintf(what, args...))
}
