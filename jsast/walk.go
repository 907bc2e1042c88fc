// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsast

import (
	"fmt"
	"strconv"
	"strings"
)

// Children returns the operands of e in evaluation order.
// A function's body is its only child.
func Children(e Expr) []Expr {
	switch e := e.(type) {
	case *Ident, *Literal, *Symbol:
		return nil
	case *Member:
		return []Expr{e.X}
	case *Index:
		return []Expr{e.X, e.Key}
	case *Call:
		return append([]Expr{e.Fn}, e.Args...)
	case *New:
		return append([]Expr{e.Fn}, e.Args...)
	case *Unary:
		return []Expr{e.X}
	case *Binary:
		return []Expr{e.X, e.Y}
	case *Conditional:
		return []Expr{e.Cond, e.Then, e.Else}
	case *Array:
		return append([]Expr(nil), e.Elems...)
	case *Object:
		kids := make([]Expr, len(e.Props))
		for i, p := range e.Props {
			kids[i] = p.Value
		}
		return kids
	case *Paren:
		return []Expr{e.X}
	case *Function:
		return []Expr{e.Body}
	case *Arrow:
		return []Expr{e.Body}
	case *Sequence:
		return append([]Expr(nil), e.List...)
	}
	panic(fmt.Sprintf("unexpected node %T", e))
}

// FirstChild returns the first operand of e, or nil.
func FirstChild(e Expr) Expr {
	if kids := Children(e); len(kids) > 0 {
		return kids[0]
	}
	return nil
}

// Walk traverses a tree in depth-first order.
// It starts by calling f(e); e must not be nil.
// If f returns true, Walk calls itself
// recursively for each child of e.
func Walk(e Expr, f func(Expr) bool) {
	if !f(e) {
		return
	}
	for _, kid := range Children(e) {
		Walk(kid, f)
	}
}

// WithChildren returns a shallow copy of e, with the same annotations,
// whose operands are kids. kids must have the length and order of
// Children(e).
func WithChildren(e Expr, kids []Expr) Expr {
	var out Expr
	switch e := e.(type) {
	case *Ident:
		out = &Ident{Name: e.Name}
	case *Literal:
		out = &Literal{Value: e.Value}
	case *Symbol:
		s := &Symbol{Name: e.Name}
		if e.Default != nil {
			s.Default = Clone(e.Default)
		}
		out = s
	case *Member:
		out = &Member{X: kids[0], Name: e.Name}
	case *Index:
		out = &Index{X: kids[0], Key: kids[1]}
	case *Call:
		out = &Call{Fn: kids[0], Args: kids[1:]}
	case *New:
		out = &New{Fn: kids[0], Args: kids[1:]}
	case *Unary:
		out = &Unary{Op: e.Op, X: kids[0]}
	case *Binary:
		out = &Binary{Op: e.Op, X: kids[0], Y: kids[1]}
	case *Conditional:
		out = &Conditional{Cond: kids[0], Then: kids[1], Else: kids[2]}
	case *Array:
		out = &Array{Elems: kids}
	case *Object:
		props := make([]*Property, len(e.Props))
		for i, p := range e.Props {
			props[i] = &Property{Key: p.Key, Value: kids[i]}
		}
		out = &Object{Props: props}
	case *Paren:
		out = &Paren{X: kids[0]}
	case *Function:
		out = &Function{Params: append([]string(nil), e.Params...), Body: kids[0]}
	case *Arrow:
		out = &Arrow{Params: append([]string(nil), e.Params...), Body: kids[0]}
	case *Sequence:
		out = &Sequence{List: kids}
	default:
		panic(fmt.Sprintf("unexpected node %T", e))
	}
	if annots := e.base().annots; len(annots) > 0 {
		out.base().annots = append([]Annotation(nil), annots...)
	}
	return out
}

// Transform rebuilds e bottom-up: each node is copied with its
// transformed operands and then passed to f, whose result replaces it.
// The input tree is not modified.
func Transform(e Expr, f func(Expr) Expr) Expr {
	kids := Children(e)
	for i, kid := range kids {
		kids[i] = Transform(kid, f)
	}
	return f(WithChildren(e, kids))
}

// Clone returns a deep copy of e.
func Clone(e Expr) Expr {
	return Transform(e, func(e Expr) Expr { return e })
}

// Dump returns a string that is equal for structurally equal trees.
// Annotations are ignored.
func Dump(e Expr) string {
	var buf strings.Builder
	dump(&buf, e)
	return buf.String()
}

func dump(buf *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *Ident:
		buf.WriteString(e.Name)
		return
	case *Literal:
		buf.WriteString(literalKey(e.Value))
		return
	case *Symbol:
		buf.WriteString("{{" + e.Name + "}}")
		return
	}
	buf.WriteByte('(')
	switch e := e.(type) {
	case *Member:
		buf.WriteString("." + e.Name)
	case *Unary:
		buf.WriteString("u" + e.Op.String())
	case *Binary:
		buf.WriteString("b" + e.Op.String())
	case *Object:
		buf.WriteString("object")
		for _, p := range e.Props {
			buf.WriteString(" " + strconv.Quote(p.Key))
		}
	case *Function:
		buf.WriteString("function " + strings.Join(e.Params, ","))
	case *Arrow:
		buf.WriteString("arrow " + strings.Join(e.Params, ","))
	default:
		name := fmt.Sprintf("%T", e)
		buf.WriteString(strings.ToLower(name[strings.LastIndexByte(name, '.')+1:]))
	}
	for _, kid := range Children(e) {
		buf.WriteByte(' ')
		dump(buf, kid)
	}
	buf.WriteByte(')')
}

// literalKey renders a literal so that it differs from every
// identifier and from literals of other types.
func literalKey(v any) string {
	switch v := v.(type) {
	case nil:
		return "#null"
	case string:
		return "#" + strconv.Quote(v)
	case float64:
		return "#" + strconv.FormatFloat(v, 'g', -1, 64) + "f"
	}
	return "#" + fmt.Sprint(v)
}

// Identifiers returns the names of all identifiers in e.
func Identifiers(e Expr) map[string]bool {
	names := make(map[string]bool)
	Walk(e, func(e Expr) bool {
		switch e := e.(type) {
		case *Ident:
			names[e.Name] = true
		case *Function:
			for _, p := range e.Params {
				names[p] = true
			}
		case *Arrow:
			for _, p := range e.Params {
				names[p] = true
			}
		}
		return true
	})
	return names
}
