// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package translate converts typed binding expressions into client
// script syntax trees.
//
// The client holds the view model as a tree of observable cells:
// every field of a view-model object is a cell, and reading it means
// calling it. Translate produces a raw tree in which cell-valued nodes
// carry a jsast.Cell annotation and no cell has been read yet;
// ResolveCells then decides which cells are read.
//
// Data contexts and scope parameters are reached through the
// knockout binding context. The innermost data context and the
// context itself are emitted as the slots $data and $context, so
// that callers may substitute other expressions for them.
package translate // import "github.com/tomasmikes/dotvvm/translate"

import (
	"fmt"

	"github.com/tomasmikes/dotvvm/diag"
	"github.com/tomasmikes/dotvvm/jsast"
	"github.com/tomasmikes/dotvvm/scope"
	"github.com/tomasmikes/dotvvm/typed"
	"github.com/tomasmikes/dotvvm/types"
)

// Slot names of the binding context.
const (
	DataSlot    = "$data"
	ContextSlot = "$context"
)

// A Translator translates typed expressions using a registry.
type Translator struct {
	registry *Registry
}

// New returns a translator that uses r, or the default registry if r is nil.
func New(r *Registry) *Translator {
	if r == nil {
		r = DefaultRegistry()
	}
	return &Translator{registry: r}
}

// Translate converts e, evaluated in scope s, into a raw script tree.
func (t *Translator) Translate(e typed.Expr, s *scope.Scope) (jsast.Expr, error) {
	tr := &translation{registry: t.registry, scope: s}
	return tr.expr(e)
}

type translation struct {
	registry *Registry
	scope    *scope.Scope
}

func typeInfo[E jsast.Expr](e E, t *types.Type) E {
	return jsast.Annotate(e, jsast.TypeInfo{Type: t})
}

func notNull[E jsast.Expr](e E) E { return jsast.Annotate(e, jsast.NotNull{}) }

// Context returns the $context slot.
func Context() *jsast.Symbol {
	return notNull(&jsast.Symbol{Name: ContextSlot, Default: jsast.Id(ContextSlot)})
}

// Data returns the $data slot.
func Data() *jsast.Symbol {
	return notNull(&jsast.Symbol{Name: DataSlot, Default: jsast.Id(DataSlot)})
}

// contextAt returns the binding context depth levels out.
func contextAt(depth int) jsast.Expr {
	var e jsast.Expr = Context()
	for range depth {
		e = notNull(jsast.Dot(e, "$parentContext"))
	}
	return e
}

func (tr *translation) param(p *typed.Param) (jsast.Expr, error) {
	depth := tr.scope.Depth() - p.Scope.Depth()
	if depth < 0 || !tr.scope.Ancestor(depth).Equal(p.Scope) {
		return nil, diag.Errorf(diag.UnsupportedShape, "%s refers to a scope outside of %s", p.Name, tr.scope.DataType)
	}
	from := jsast.FromParameter{Name: p.Name}

	sp := p.Special
	if sp == nil {
		var e jsast.Expr
		switch {
		case depth == 0:
			e = Data()
		case p.Scope.Parent == nil:
			e = jsast.Dot(Context(), "$root")
		case depth == 1:
			e = jsast.Dot(Context(), "$parent")
		default:
			e = &jsast.Index{X: jsast.Dot(Context(), "$parents"), Key: jsast.Lit(depth - 1)}
		}
		e = jsast.Annotate(typeInfo(notNull(e), p.Type()), from)
		return e, nil
	}

	var e jsast.Expr
	switch sp.Kind {
	case scope.Index:
		e = jsast.Annotate(jsast.Dot(contextAt(depth), "$index"), jsast.Cell{})
		e = notNull(e)
	case scope.Control:
		e = notNull(jsast.Id("$element"))
	case scope.Collection:
		return nil, untranslatable("%s", p.Name)
	case scope.Custom:
		e = jsast.Annotate(jsast.Dot(contextAt(depth), sp.Name), jsast.Cell{Maybe: true})
	default:
		panic(fmt.Sprintf("unexpected parameter kind %v", sp.Kind))
	}
	return jsast.Annotate(typeInfo(e, sp.Type), from), nil
}

func (tr *translation) expr(e typed.Expr) (jsast.Expr, error) {
	switch e := e.(type) {
	case *typed.Param:
		return tr.param(e)

	case *typed.Local:
		// Lambda parameters receive collection elements, which may
		// or may not be cells.
		return typeInfo(jsast.Annotate(jsast.Id(e.Name), jsast.Cell{Maybe: true}), e.T), nil

	case *typed.Const:
		lit := typeInfo(jsast.Lit(e.Value), e.T)
		if e.Value != nil {
			notNull(lit)
		}
		return lit, nil

	case *typed.TypeRef:
		return nil, diag.Errorf(diag.ParseAmbiguity, "%s is a type, not a value", e.T)

	case *typed.Member:
		recv, err := tr.expr(e.X)
		if err != nil {
			return nil, err
		}
		if fn, ok := tr.registry.Member(e.Field); ok {
			out, err := fn(recv)
			if err != nil {
				return nil, err
			}
			return typeInfo(out, e.Field.Type), nil
		}
		if k := e.X.Type().Kind; k != types.ObjectKind && k != types.AnyKind {
			return nil, untranslatable("%s", e.Field.FullName())
		}
		// View-model properties are cells.
		out := jsast.Annotate(jsast.Dot(recv, e.Field.Name), jsast.Cell{})
		return typeInfo(out, e.Field.Type), nil

	case *typed.Call:
		fn, ok := tr.registry.Method(e.Method)
		if !ok {
			return nil, untranslatable("%s", e.Method.FullName())
		}
		var recv jsast.Expr
		if e.X != nil {
			var err error
			if recv, err = tr.expr(e.X); err != nil {
				return nil, err
			}
		}
		args, err := tr.list(e.Args)
		if err != nil {
			return nil, err
		}
		out, err := fn(recv, args)
		if err != nil {
			return nil, err
		}
		return typeInfo(out, e.Method.Result), nil

	case *typed.Index:
		x, err := tr.expr(e.X)
		if err != nil {
			return nil, err
		}
		key, err := tr.expr(e.Key)
		if err != nil {
			return nil, err
		}
		out := jsast.Annotate(&jsast.Index{X: x, Key: key}, jsast.Cell{Maybe: true})
		return typeInfo(out, e.T), nil

	case *typed.Unary:
		x, err := tr.expr(e.X)
		if err != nil {
			return nil, err
		}
		var op jsast.OpCode
		switch e.Op {
		case typed.Not:
			op = jsast.UnNot
		case typed.Negate:
			op = jsast.UnNeg
		case typed.Plus:
			op = jsast.UnPos
		default:
			panic(fmt.Sprintf("unexpected unary op %v", e.Op))
		}
		return typeInfo(&jsast.Unary{Op: op, X: x}, e.Type()), nil

	case *typed.Binary:
		return tr.binary(e)

	case *typed.Conditional:
		list, err := tr.list([]typed.Expr{e.Cond, e.Then, e.Else})
		if err != nil {
			return nil, err
		}
		return typeInfo(&jsast.Conditional{Cond: list[0], Then: list[1], Else: list[2]}, e.T), nil

	case *typed.Convert:
		x, err := tr.expr(e.X)
		if err != nil {
			return nil, err
		}
		switch e.Kind {
		case typed.ToString:
			return typeInfo(toString(x), e.T), nil
		case typed.Box, typed.Lift:
			// The operand keeps its own type so that null checks
			// use the default of the unconverted chain.
			return x, nil
		}
		// Other conversions do not change the client representation.
		return typeInfo(x, e.T), nil

	case *typed.Lambda:
		body, err := tr.expr(e.Body)
		if err != nil {
			return nil, err
		}
		params := make([]string, len(e.Params))
		for i, p := range e.Params {
			params[i] = p.Name
		}
		return typeInfo(notNull(&jsast.Arrow{Params: params, Body: body}), e.T), nil

	case *typed.ListLit:
		elems, err := tr.list(e.Elems)
		if err != nil {
			return nil, err
		}
		return typeInfo(notNull(&jsast.Array{Elems: elems}), e.T), nil

	case *typed.NullGuard:
		// ((v) => v == null ? default : body)(x)
		x, err := tr.expr(e.X)
		if err != nil {
			return nil, err
		}
		body, err := tr.expr(e.Body)
		if err != nil {
			return nil, err
		}
		v := e.Var.Name
		fn := &jsast.Arrow{
			Params: []string{v},
			Body: &jsast.Conditional{
				Cond: jsast.Bin(jsast.BinLooseEq, jsast.Id(v), jsast.Lit(nil)),
				Then: jsast.Lit(types.Default(e.T)),
				Else: body,
			},
		}
		return typeInfo(jsast.Invoke(fn, x), e.T), nil
	}
	panic(fmt.Sprintf("unexpected expr %T", e))
}

func (tr *translation) list(list []typed.Expr) ([]jsast.Expr, error) {
	out := make([]jsast.Expr, len(list))
	for i, x := range list {
		var err error
		if out[i], err = tr.expr(x); err != nil {
			return nil, err
		}
	}
	return out, nil
}

var binaryOps = [...]jsast.OpCode{
	typed.Add:          jsast.BinAdd,
	typed.Sub:          jsast.BinSub,
	typed.Mul:          jsast.BinMul,
	typed.Div:          jsast.BinDiv,
	typed.Mod:          jsast.BinRem,
	typed.Equal:        jsast.BinLooseEq,
	typed.NotEqual:     jsast.BinLooseNe,
	typed.Less:         jsast.BinLt,
	typed.LessEqual:    jsast.BinLe,
	typed.Greater:      jsast.BinGt,
	typed.GreaterEqual: jsast.BinGe,
	typed.AndAlso:      jsast.BinLogicalAnd,
	typed.OrElse:       jsast.BinLogicalOr,
	typed.Coalesce:     jsast.BinNullishCoalescing,
}

func (tr *translation) binary(e *typed.Binary) (jsast.Expr, error) {
	x, err := tr.expr(e.X)
	if err != nil {
		return nil, err
	}
	y, err := tr.expr(e.Y)
	if err != nil {
		return nil, err
	}
	if e.Op == typed.Add && e.T.Kind == types.StringKind {
		// Concatenation renders null as the empty string.
		x, y = concatOperand(x, e.X), concatOperand(y, e.Y)
		return typeInfo(jsast.Bin(jsast.BinAdd, x, y), e.T), nil
	}
	var out jsast.Expr = jsast.Bin(binaryOps[e.Op], x, y)
	if e.Op == typed.Div && e.T.Underlying() == types.Int {
		out = jsast.Invoke(global("Math", "trunc"), out)
	}
	out = typeInfo(out, e.T)
	if e.Op > typed.Mod {
		return out, nil
	}
	// Arithmetic with a null operand is null:
	// x == null ? null : y == null ? null : x op y
	for _, operand := range [...]jsast.Expr{y, x} {
		t := jsast.TypeOf(operand)
		if t != nil && t.Nullable && !jsast.HasAnnotation[jsast.NotNull](operand) {
			out = typeInfo(&jsast.Conditional{
				Cond: jsast.Bin(jsast.BinLooseEq, jsast.Clone(operand), jsast.Lit(nil)),
				Then: jsast.Lit(nil),
				Else: out,
			}, e.T)
		}
	}
	return out, nil
}

func concatOperand(x jsast.Expr, src typed.Expr) jsast.Expr {
	if !src.Type().Nullable || jsast.HasAnnotation[jsast.NotNull](x) {
		return x
	}
	return typeInfo(notNull(orEmpty(x)), types.String)
}
