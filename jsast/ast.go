// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jsast defines the syntax tree of the client-side script
// generated for bindings.
//
// The tree covers the expression subset of JavaScript that the
// translator emits. Nodes carry annotations: out-of-band facts about
// the node, such as its static type or whether it evaluates to an
// observable cell, which the rewrite passes read.
//
// Trees are never shared: a node belongs to exactly one tree, and
// passes that change a tree return a new one (see Clone and Transform).
package jsast // import "github.com/tomasmikes/dotvvm/jsast"

import (
	"fmt"
	"reflect"
)

// An Expr is a script expression node.
type Expr interface {
	base() *node
}

// An Annotation is a fact attached to a node.
// A node holds at most one annotation of each concrete type.
type Annotation interface {
	annotation()
}

type node struct {
	annots []Annotation
}

func (n *node) base() *node { return n }

// Annotate attaches a to e, replacing any annotation of the same type.
// It returns e.
func Annotate[E Expr](e E, a Annotation) E {
	n := e.base()
	t := reflect.TypeOf(a)
	for i, old := range n.annots {
		if reflect.TypeOf(old) == t {
			n.annots[i] = a
			return e
		}
	}
	n.annots = append(n.annots, a)
	return e
}

// AnnotationOf returns the annotation of type T attached to e.
func AnnotationOf[T Annotation](e Expr) (T, bool) {
	for _, a := range e.base().annots {
		if t, ok := a.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// HasAnnotation reports whether an annotation of type T is attached to e.
func HasAnnotation[T Annotation](e Expr) bool {
	_, ok := AnnotationOf[T](e)
	return ok
}

// Annotations returns the annotations attached to e.
// The result must not be modified.
func Annotations(e Expr) []Annotation { return e.base().annots }

// CopyAnnotations attaches to dst the annotations of src.
func CopyAnnotations[E Expr](dst E, src Expr) E {
	for _, a := range src.base().annots {
		Annotate(dst, a)
	}
	return dst
}

type (
	// An Ident is a reference to a variable.
	Ident struct {
		node
		Name string
	}

	// A Member is a property access X.Name.
	Member struct {
		node
		X    Expr
		Name string
	}

	// An Index is a computed property access X[Key].
	Index struct {
		node
		X, Key Expr
	}

	// A Call is a function call.
	Call struct {
		node
		Fn   Expr
		Args []Expr
	}

	// A New is a constructor call.
	New struct {
		node
		Fn   Expr
		Args []Expr
	}

	// A Unary is a prefix or postfix operation.
	Unary struct {
		node
		Op OpCode
		X  Expr
	}

	// A Binary is a binary operation or an assignment.
	Binary struct {
		node
		Op   OpCode
		X, Y Expr
	}

	// A Conditional is Cond ? Then : Else.
	Conditional struct {
		node
		Cond, Then, Else Expr
	}

	// A Literal is null, a boolean, a number or a string.
	// Value is nil, bool, int64, float64 or string.
	Literal struct {
		node
		Value any
	}

	// An Array is an array literal.
	Array struct {
		node
		Elems []Expr
	}

	// An Object is an object literal.
	Object struct {
		node
		Props []*Property
	}

	// A Paren is a parenthesized expression.
	Paren struct {
		node
		X Expr
	}

	// A Function is a function expression returning Body.
	Function struct {
		node
		Params []string
		Body   Expr
	}

	// An Arrow is an arrow function with an expression body.
	Arrow struct {
		node
		Params []string
		Body   Expr
	}

	// A Sequence is a comma expression.
	Sequence struct {
		node
		List []Expr
	}

	// A Symbol is a placeholder whose text is supplied when the script
	// is rendered. Default, if not nil, is used when no value is supplied.
	Symbol struct {
		node
		Name    string
		Default Expr
	}
)

// A Property is a key: value pair of an object literal.
type Property struct {
	Key   string
	Value Expr
}

// Helpers for building trees.

// Id returns an identifier.
func Id(name string) *Ident { return &Ident{Name: name} }

// Dot returns the property access x.name.
func Dot(x Expr, name string) *Member { return &Member{X: x, Name: name} }

// Invoke returns the call fn(args...).
func Invoke(fn Expr, args ...Expr) *Call { return &Call{Fn: fn, Args: args} }

// Lit returns a literal.
func Lit(v any) *Literal {
	switch v := v.(type) {
	case int:
		return &Literal{Value: int64(v)}
	case nil, bool, int64, float64, string:
		return &Literal{Value: v}
	}
	panic(fmt.Sprintf("jsast.Lit: unsupported %T", v))
}

// Bin returns the binary operation x op y.
func Bin(op OpCode, x, y Expr) *Binary { return &Binary{Op: op, X: x, Y: y} }

// Not returns !x.
func Not(x Expr) *Unary { return &Unary{Op: UnNot, X: x} }
