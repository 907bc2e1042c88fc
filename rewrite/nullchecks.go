// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rewrite implements the passes applied to translated script
// trees before they are formatted.
//
// Every pass is a pure function from tree to tree: the input is not
// modified and the result shares no nodes with it.
package rewrite // import "github.com/tomasmikes/dotvvm/rewrite"

import (
	"github.com/tomasmikes/dotvvm/jsast"
	"github.com/tomasmikes/dotvvm/types"
)

// AddNullChecks guards every member and element access whose receiver
// has a nullable static type:
//
//	r.x   =>   r == null ? d : r.x
//
// where d is the default value of the static type of the whole access
// chain. Accesses and calls applied to an already guarded chain are
// moved into its innermost guard, so the guard short-circuits the rest
// of the chain, and d is updated to the type of the extended chain.
//
// Nodes without type information, and nodes annotated NotNull, are
// never guarded. The receiver appears twice in the result;
// HoistTemporaries removes the second evaluation.
func AddNullChecks(e jsast.Expr) jsast.Expr {
	c := &checker{produced: make(map[*jsast.Conditional]bool)}
	return jsast.Transform(e, c.node)
}

type checker struct {
	produced map[*jsast.Conditional]bool
}

func (c *checker) node(e jsast.Expr) jsast.Expr {
	switch n := e.(type) {
	case *jsast.Member:
		return c.access(n.X, func(x jsast.Expr) jsast.Expr {
			return jsast.CopyAnnotations(jsast.Dot(x, n.Name), n)
		})
	case *jsast.Index:
		return c.access(n.X, func(x jsast.Expr) jsast.Expr {
			return jsast.CopyAnnotations(&jsast.Index{X: x, Key: n.Key}, n)
		})
	case *jsast.Call:
		// A call of a guarded function reference joins its guard.
		if g, ok := n.Fn.(*jsast.Conditional); ok && c.produced[g] {
			return c.extend(g, func(fn jsast.Expr) jsast.Expr {
				return jsast.CopyAnnotations(jsast.Invoke(fn, n.Args...), n)
			}, false)
		}
	}
	return e
}

// access applies build to recv, guarding recv if it may be null.
func (c *checker) access(recv jsast.Expr, build func(jsast.Expr) jsast.Expr) jsast.Expr {
	if g, ok := recv.(*jsast.Conditional); ok && c.produced[g] {
		return c.extend(g, build, true)
	}
	if !mayBeNull(recv) {
		return build(recv)
	}
	return c.guard(recv, build(jsast.Clone(recv)))
}

// extend moves build into the innermost guard of the chain g.
// If check is set, the guarded value is itself checked for null.
func (c *checker) extend(g *jsast.Conditional, build func(jsast.Expr) jsast.Expr, check bool) jsast.Expr {
	var body jsast.Expr
	switch inner, ok := g.Else.(*jsast.Conditional); {
	case ok && c.produced[inner]:
		body = c.extend(inner, build, check)
	case check:
		body = c.access(g.Else, build)
	default:
		body = build(g.Else)
	}
	return c.guard(g.Cond.(*jsast.Binary).X, body)
}

// guard returns recv == null ? default : body.
func (c *checker) guard(recv, body jsast.Expr) *jsast.Conditional {
	t := jsast.TypeOf(body)
	g := &jsast.Conditional{
		Cond: jsast.Bin(jsast.BinLooseEq, recv, jsast.Lit(nil)),
		Then: jsast.Lit(types.Default(t)),
		Else: body,
	}
	if t != nil {
		jsast.Annotate(g, jsast.TypeInfo{Type: t})
	}
	c.produced[g] = true
	return g
}

// mayBeNull reports whether e may evaluate to null. A cell reference
// is never null, though the value it holds may be.
func mayBeNull(e jsast.Expr) bool {
	if jsast.HasAnnotation[jsast.NotNull](e) || jsast.IsCell(e) {
		return false
	}
	t := jsast.TypeOf(e)
	return t != nil && t.Nullable
}
