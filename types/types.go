// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package types describes the static types that a binding expression is
// checked against.
//
// The descriptors are the compiler's view of the view-model type system:
// each Type has a fully qualified name, a Kind, a nullability flag, and
// the fields and methods visible to binding expressions. Fields and
// methods carry Go implementations so that the server-side delegate can
// evaluate them; the client-side translation of the same members lives
// in package translate.
//
// Types are built once (see Universe) and never mutated afterwards.
package types // import "github.com/tomasmikes/dotvvm/types"

import (
	"fmt"
	"strings"
	"sync"
)

// A Kind classifies a Type.
type Kind uint8

const (
	InvalidKind Kind = iota
	VoidKind
	AnyKind    // System.Object; any value, including nil
	BoolKind   // bool
	IntKind    // int64
	FloatKind  // float64
	StringKind // string
	ObjectKind // view-model object, represented as map[string]any
	ListKind   // ordered collection, represented as []any
	FuncKind   // function value, represented as Func
	StaticKind // static class; not a value
)

var kindNames = [...]string{
	InvalidKind: "invalid",
	VoidKind:    "void",
	AnyKind:     "any",
	BoolKind:    "bool",
	IntKind:     "int",
	FloatKind:   "float",
	StringKind:  "string",
	ObjectKind:  "object",
	ListKind:    "list",
	FuncKind:    "func",
	StaticKind:  "static",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsValue reports whether values of this kind can be null only when
// wrapped in a nullable type.
func (k Kind) IsValue() bool { return k == BoolKind || k == IntKind || k == FloatKind }

// IsNumeric reports whether k is Int or Float.
func (k Kind) IsNumeric() bool { return k == IntKind || k == FloatKind }

// A Func is the runtime representation of a function-typed value.
type Func func(args ...any) (any, error)

// A Type is a static type descriptor.
type Type struct {
	Name     string // fully qualified name, e.g. "System.Int32" or "App.Customer"
	Kind     Kind
	Nullable bool

	// Elem is the element type of a List, or the underlying
	// type of a nullable value type.
	Elem *Type

	// Params and Result describe a Func.
	Params []*Type
	Result *Type

	generic string // generic definition name, e.g. "List"
	fields  []*Field
	methods []*Method
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// Definition returns the name under which members of t are registered:
// the generic definition name for constructed types, otherwise Name.
func (t *Type) Definition() string {
	if t.generic != "" {
		return t.generic
	}
	if t.Kind.IsValue() && t.Nullable && t.Elem != nil {
		return t.Elem.Definition()
	}
	return t.Name
}

// Underlying returns the non-nullable form of a nullable value type,
// and t itself otherwise.
func (t *Type) Underlying() *Type {
	if t.Kind.IsValue() && t.Nullable && t.Elem != nil {
		return t.Elem
	}
	return t
}

// Fields returns the fields of t in declaration order.
func (t *Type) Fields() []*Field { return t.fields }

// Methods returns the methods of t in declaration order.
func (t *Type) Methods() []*Method { return t.methods }

// Field returns the named field of t, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Underlying().fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Method returns the first method of t with the given name and number
// of parameters, or nil.
func (t *Type) Method(name string, nargs int) *Method {
	if ms := t.Overloads(name, nargs); len(ms) > 0 {
		return ms[0]
	}
	return nil
}

// Overloads returns the methods of t with the given name and number
// of parameters, in declaration order. Instance methods of
// System.Object are visible on all types.
func (t *Type) Overloads(name string, nargs int) []*Method {
	var ms []*Method
	for _, m := range t.Underlying().methods {
		if m.Name == name && len(m.Params) == nargs {
			ms = append(ms, m)
		}
	}
	if t != Any {
		for _, m := range Any.methods {
			if m.Name == name && len(m.Params) == nargs && !m.Static {
				ms = append(ms, m)
			}
		}
	}
	return ms
}

// AddField declares a field of t and returns it.
// It must be called only while the type is being built.
func (t *Type) AddField(name string, typ *Type) *Field {
	f := &Field{Name: name, Decl: t, Type: typ}
	t.fields = append(t.fields, f)
	return f
}

// AddMethod declares a method of t and returns it.
// It must be called only while the type is being built.
func (t *Type) AddMethod(m *Method) *Method {
	m.Decl = t
	t.methods = append(t.methods, m)
	return m
}

// A Field is a property of a type.
//
// If Get is nil, the field of an Object is read from its map
// representation; Set likewise defaults to a map store unless
// ReadOnly is set.
type Field struct {
	Name     string
	Decl     *Type
	Type     *Type
	ReadOnly bool
	Get      func(recv any) (any, error)
	Set      func(recv, value any) error
}

// FullName returns the field's qualified name, Decl.Name + "." + Name.
func (f *Field) FullName() string { return f.Decl.Definition() + "." + f.Name }

// A Method is a callable member of a type.
// Static methods are called with a nil receiver.
type Method struct {
	Name   string
	Decl   *Type
	Static bool
	Params []*Type
	Result *Type
	Call   func(recv any, args []any) (any, error)
}

// FullName returns the method's qualified name.
func (m *Method) FullName() string { return m.Decl.Definition() + "." + m.Name }

// NewObject returns a new, empty view-model object type.
func NewObject(name string) *Type {
	return &Type{Name: name, Kind: ObjectKind, Nullable: true}
}

// NewStatic returns a new static class type.
func NewStatic(name string) *Type {
	return &Type{Name: name, Kind: StaticKind}
}

var (
	constructed   = make(map[string]*Type)
	constructedMu sync.Mutex
)

// intern returns the constructed type of the given name, calling
// build if there is none yet. build may itself construct types.
func intern(name string, build func() *Type) *Type {
	constructedMu.Lock()
	t, ok := constructed[name]
	constructedMu.Unlock()
	if ok {
		return t
	}
	t = build()
	constructedMu.Lock()
	defer constructedMu.Unlock()
	if prev, ok := constructed[name]; ok {
		return prev
	}
	constructed[name] = t
	return t
}

// Nullable returns the nullable form of t.
// Reference kinds are already nullable and are returned unchanged.
func Nullable(t *Type) *Type {
	if t.Nullable {
		return t
	}
	return intern(t.Name+"?", func() *Type {
		return &Type{Name: t.Name + "?", Kind: t.Kind, Nullable: true, Elem: t}
	})
}

// ListOf returns the list type whose elements have type elem.
func ListOf(elem *Type) *Type {
	name := "List<" + elem.Name + ">"
	return intern(name, func() *Type {
		t := &Type{Name: name, Kind: ListKind, Nullable: true, Elem: elem, generic: "List"}
		t.fields = []*Field{{
			Name:     "Count",
			Decl:     t,
			Type:     Int,
			ReadOnly: true,
			Get: func(recv any) (any, error) {
				l, ok := recv.([]any)
				if !ok {
					return nil, fmt.Errorf("Count: not a list: %T", recv)
				}
				return int64(len(l)), nil
			},
		}}
		addListMethods(t)
		return t
	})
}

// FuncOf returns the function type with the given parameter and result types.
func FuncOf(params []*Type, result *Type) *Type {
	names := make([]string, 0, len(params)+1)
	for _, p := range params {
		names = append(names, p.Name)
	}
	names = append(names, result.Name)
	name := "Func<" + strings.Join(names, ",") + ">"
	return intern(name, func() *Type {
		return &Type{Name: name, Kind: FuncKind, Nullable: true, Params: params, Result: result, generic: "Func"}
	})
}

// Identical reports whether x and y denote the same type.
func Identical(x, y *Type) bool {
	return x == y || (x != nil && y != nil && x.Name == y.Name && x.Kind == y.Kind && x.Nullable == y.Nullable)
}

// Default returns the default value of t: nil for nullable types,
// otherwise the zero value of the kind's representation.
func Default(t *Type) any {
	if t == nil || t.Nullable {
		return nil
	}
	switch t.Kind {
	case BoolKind:
		return false
	case IntKind:
		return int64(0)
	case FloatKind:
		return float64(0)
	}
	return nil
}

func addListMethods(t *Type) {
	pred := FuncOf([]*Type{t.Elem}, Bool)
	filter := func(recv any, args []any, keep func(bool) bool) ([]any, error) {
		l, _ := recv.([]any)
		f, _ := args[0].(Func)
		if f == nil {
			return nil, fmt.Errorf("nil predicate")
		}
		var out []any
		for _, x := range l {
			ok, err := f(x)
			if err != nil {
				return nil, err
			}
			b, _ := ok.(bool)
			if keep(b) {
				out = append(out, x)
			}
		}
		return out, nil
	}
	t.AddMethod(&Method{
		Name:   "Any",
		Params: []*Type{pred},
		Result: Bool,
		Call: func(recv any, args []any) (any, error) {
			out, err := filter(recv, args, func(b bool) bool { return b })
			return len(out) > 0, err
		},
	})
	t.AddMethod(&Method{
		Name:   "All",
		Params: []*Type{pred},
		Result: Bool,
		Call: func(recv any, args []any) (any, error) {
			out, err := filter(recv, args, func(b bool) bool { return !b })
			return len(out) == 0, err
		},
	})
	t.AddMethod(&Method{
		Name:   "Where",
		Params: []*Type{pred},
		Result: t,
		Call: func(recv any, args []any) (any, error) {
			out, err := filter(recv, args, func(b bool) bool { return b })
			if out == nil && err == nil {
				out = []any{}
			}
			return out, err
		},
	})
	t.AddMethod(&Method{
		Name:   "Contains",
		Params: []*Type{t.Elem},
		Result: Bool,
		Call: func(recv any, args []any) (any, error) {
			l, _ := recv.([]any)
			for _, x := range l {
				switch x.(type) {
				case nil, bool, int64, float64, string:
					if x == args[0] {
						return true, nil
					}
				}
			}
			return false, nil
		},
	})
}
