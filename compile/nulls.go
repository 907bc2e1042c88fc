// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"fmt"

	"github.com/tomasmikes/dotvvm/typed"
)

// PropagateNulls returns a copy of e in which every member access,
// instance call and element access whose receiver may be null is
// guarded: if the receiver is null, the rest of the chain is skipped
// and the chain evaluates to the default value of its static type.
//
// Accesses applied to an already guarded chain are moved into the
// innermost guard, so a.b.c.d with b and c nullable becomes
//
//	a.b is {} v0 ? (v0.c is {} v1 ? v1.d : default) : default
//
// Scope parameters, constants and guard variables are never null
// and are not guarded.
func PropagateNulls(e typed.Expr) typed.Expr {
	p := &propagator{produced: make(map[*typed.NullGuard]bool)}
	return p.expr(e)
}

type propagator struct {
	produced map[*typed.NullGuard]bool
	nlocals  int
}

func (p *propagator) expr(e typed.Expr) typed.Expr {
	switch e := e.(type) {
	case *typed.Param, *typed.Local, *typed.Const, *typed.TypeRef:
		return e

	case *typed.Member:
		return p.access(p.expr(e.X), func(x typed.Expr) typed.Expr {
			return &typed.Member{X: x, Field: e.Field}
		})

	case *typed.Call:
		args := p.list(e.Args)
		if e.X == nil {
			return &typed.Call{Method: e.Method, Args: args}
		}
		return p.access(p.expr(e.X), func(x typed.Expr) typed.Expr {
			return &typed.Call{X: x, Method: e.Method, Args: args}
		})

	case *typed.Index:
		key := p.expr(e.Key)
		return p.access(p.expr(e.X), func(x typed.Expr) typed.Expr {
			return &typed.Index{X: x, Key: key, T: e.T}
		})

	case *typed.Unary:
		return &typed.Unary{Op: e.Op, X: p.expr(e.X)}

	case *typed.Binary:
		return &typed.Binary{Op: e.Op, X: p.expr(e.X), Y: p.expr(e.Y), T: e.T}

	case *typed.Conditional:
		return &typed.Conditional{Cond: p.expr(e.Cond), Then: p.expr(e.Then), Else: p.expr(e.Else), T: e.T}

	case *typed.Convert:
		return &typed.Convert{X: p.expr(e.X), T: e.T, Kind: e.Kind}

	case *typed.Lambda:
		return &typed.Lambda{Params: e.Params, Body: p.expr(e.Body), T: e.T}

	case *typed.ListLit:
		return &typed.ListLit{Elems: p.list(e.Elems), T: e.T}

	case *typed.NullGuard:
		return &typed.NullGuard{X: p.expr(e.X), Var: e.Var, Body: p.expr(e.Body), T: e.T}
	}
	panic(fmt.Sprintf("unexpected expr %T", e))
}

func (p *propagator) list(list []typed.Expr) []typed.Expr {
	if list == nil {
		return nil
	}
	out := make([]typed.Expr, len(list))
	for i, x := range list {
		out[i] = p.expr(x)
	}
	return out
}

// access applies build to recv, guarding recv if it may be null.
func (p *propagator) access(recv typed.Expr, build func(typed.Expr) typed.Expr) typed.Expr {
	if g, ok := recv.(*typed.NullGuard); ok && p.produced[g] {
		body := p.access(g.Body, build)
		return p.guard(g.X, g.Var, body)
	}
	if !mayBeNull(recv) {
		return build(recv)
	}
	v := &typed.Local{Name: fmt.Sprintf("v%d", p.nlocals), T: recv.Type(), NonNull: true}
	p.nlocals++
	return p.guard(recv, v, build(v))
}

func (p *propagator) guard(x typed.Expr, v *typed.Local, body typed.Expr) *typed.NullGuard {
	g := &typed.NullGuard{X: x, Var: v, Body: body, T: body.Type()}
	p.produced[g] = true
	return g
}

// mayBeNull reports whether e has a nullable type and is not known
// to be non-null.
func mayBeNull(e typed.Expr) bool {
	if !e.Type().Nullable {
		return false
	}
	switch e := e.(type) {
	case *typed.Param, *typed.TypeRef, *typed.Lambda, *typed.ListLit:
		return false
	case *typed.Const:
		return e.Value == nil
	case *typed.Local:
		return !e.NonNull
	case *typed.Convert:
		return mayBeNull(e.X)
	}
	return true
}
