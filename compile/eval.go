// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compile turns typed binding expressions into Go closures that
// evaluate them on the server.
//
// Read compiles an expression into a ReadFunc. Before compilation the
// expression goes through PropagateNulls, so a null link in a member
// chain yields the default value of the chain's type instead of an
// error. Write compiles the write-back of an assignable expression.
//
// Values are represented as follows: nil, bool, int64, float64, string,
// map[string]any for view-model objects, []any for lists and types.Func
// for functions.
package compile // import "github.com/tomasmikes/dotvvm/compile"

import (
	"fmt"
	"math"
	"strings"

	"github.com/tomasmikes/dotvvm/diag"
	"github.com/tomasmikes/dotvvm/scope"
	"github.com/tomasmikes/dotvvm/typed"
	"github.com/tomasmikes/dotvvm/types"
)

// A Control supplies the values of special parameters.
// The depth is the number of scopes between the binding's scope and
// the scope that declares p.
type Control interface {
	Parameter(p *scope.Parameter, depth int) (any, bool)
}

// A ReadFunc evaluates a binding. vms holds the data context of each
// scope of the chain, innermost first.
type ReadFunc func(vms []any, ctl Control) (any, error)

// A WriteFunc assigns value to the target of a binding.
type WriteFunc func(vms []any, ctl Control, value any) error

// An EvalError is a failure during evaluation of a compiled binding.
type EvalError struct {
	Expr string
	Msg  string
}

func (e *EvalError) Error() string { return fmt.Sprintf("evaluating %s: %s", e.Expr, e.Msg) }

func evalErrorf(e typed.Expr, format string, args ...any) error {
	return &EvalError{Expr: e.String(), Msg: fmt.Sprintf(format, args...)}
}

// frame is the state of one evaluation.
type frame struct {
	vms    []any
	ctl    Control
	locals []any
}

type evalFunc func(fr *frame) (any, error)

// compiler assigns a slot to each local.
type compiler struct {
	scope *scope.Scope
	slots map[*typed.Local]int
}

func newCompiler(s *scope.Scope) *compiler {
	return &compiler{scope: s, slots: make(map[*typed.Local]int)}
}

func (c *compiler) slot(l *typed.Local) int {
	if i, ok := c.slots[l]; ok {
		return i
	}
	i := len(c.slots)
	c.slots[l] = i
	return i
}

// Read compiles e, evaluated in scope s, into a ReadFunc.
func Read(e typed.Expr, s *scope.Scope) (ReadFunc, error) {
	e = PropagateNulls(e)
	c := newCompiler(s)
	fn, err := c.expr(e)
	if err != nil {
		return nil, err
	}
	nslots := len(c.slots)
	return func(vms []any, ctl Control) (any, error) {
		return fn(&frame{vms: vms, ctl: ctl, locals: make([]any, nslots)})
	}, nil
}

func (c *compiler) param(p *typed.Param) (evalFunc, error) {
	depth := c.scope.Depth() - p.Scope.Depth()
	if depth < 0 || !c.scope.Ancestor(depth).Equal(p.Scope) {
		return nil, diag.Errorf(diag.UnsupportedShape, "%s refers to a scope outside of %s", p.Name, c.scope.DataType)
	}
	if sp := p.Special; sp != nil {
		return func(fr *frame) (any, error) {
			if fr.ctl == nil {
				return nil, evalErrorf(p, "no value for %s: nil control", sp.Name)
			}
			v, ok := fr.ctl.Parameter(sp, depth)
			if !ok {
				return nil, evalErrorf(p, "no value for %s", sp.Name)
			}
			return normalize(v, sp.Type), nil
		}, nil
	}
	return func(fr *frame) (any, error) {
		if depth >= len(fr.vms) {
			return nil, evalErrorf(p, "data context chain has %d levels, need %d", len(fr.vms), depth+1)
		}
		return fr.vms[depth], nil
	}, nil
}

func (c *compiler) expr(e typed.Expr) (evalFunc, error) {
	switch e := e.(type) {
	case *typed.Param:
		return c.param(e)

	case *typed.Local:
		i := c.slot(e)
		return func(fr *frame) (any, error) { return fr.locals[i], nil }, nil

	case *typed.Const:
		v := e.Value
		return func(*frame) (any, error) { return v, nil }, nil

	case *typed.TypeRef:
		return nil, diag.Errorf(diag.ParseAmbiguity, "%s is a type, not a value", e.T)

	case *typed.Member:
		x, err := c.expr(e.X)
		if err != nil {
			return nil, err
		}
		f := e.Field
		return func(fr *frame) (any, error) {
			recv, err := x(fr)
			if err != nil {
				return nil, err
			}
			return getField(e, f, recv)
		}, nil

	case *typed.Call:
		var recv evalFunc
		if e.X != nil {
			var err error
			if recv, err = c.expr(e.X); err != nil {
				return nil, err
			}
		}
		args, err := c.list(e.Args)
		if err != nil {
			return nil, err
		}
		m := e.Method
		if m.Call == nil {
			return nil, diag.Errorf(diag.UnsupportedShape, "method %s has no server implementation", m.FullName())
		}
		return func(fr *frame) (any, error) {
			var r any
			if recv != nil {
				var err error
				if r, err = recv(fr); err != nil {
					return nil, err
				}
				if r == nil {
					return nil, evalErrorf(e, "call of %s on null", m.Name)
				}
			}
			vals := make([]any, len(args))
			for i, arg := range args {
				v, err := arg(fr)
				if err != nil {
					return nil, err
				}
				vals[i] = v
			}
			v, err := m.Call(r, vals)
			if err != nil {
				return nil, evalErrorf(e, "%v", err)
			}
			return normalize(v, m.Result), nil
		}, nil

	case *typed.Index:
		x, err := c.expr(e.X)
		if err != nil {
			return nil, err
		}
		key, err := c.expr(e.Key)
		if err != nil {
			return nil, err
		}
		return func(fr *frame) (any, error) {
			recv, err := x(fr)
			if err != nil {
				return nil, err
			}
			k, err := key(fr)
			if err != nil {
				return nil, err
			}
			return getIndex(e, recv, k)
		}, nil

	case *typed.Unary:
		x, err := c.expr(e.X)
		if err != nil {
			return nil, err
		}
		op := e.Op
		return func(fr *frame) (any, error) {
			v, err := x(fr)
			if err != nil || v == nil {
				return nil, err
			}
			switch op {
			case typed.Not:
				return !v.(bool), nil
			case typed.Negate:
				switch v := v.(type) {
				case int64:
					return -v, nil
				case float64:
					return -v, nil
				}
			case typed.Plus:
				return v, nil
			}
			return nil, evalErrorf(e, "invalid operand %T", v)
		}, nil

	case *typed.Binary:
		return c.binary(e)

	case *typed.Conditional:
		cond, err := c.expr(e.Cond)
		if err != nil {
			return nil, err
		}
		then, err := c.expr(e.Then)
		if err != nil {
			return nil, err
		}
		els, err := c.expr(e.Else)
		if err != nil {
			return nil, err
		}
		return func(fr *frame) (any, error) {
			v, err := cond(fr)
			if err != nil {
				return nil, err
			}
			if b, _ := v.(bool); b {
				return then(fr)
			}
			return els(fr)
		}, nil

	case *typed.Convert:
		x, err := c.expr(e.X)
		if err != nil {
			return nil, err
		}
		kind, t := e.Kind, e.T
		return func(fr *frame) (any, error) {
			v, err := x(fr)
			if err != nil {
				return nil, err
			}
			switch kind {
			case typed.Numeric:
				switch n := v.(type) {
				case int64:
					if t.Kind == types.FloatKind {
						return float64(n), nil
					}
				case float64:
					if t.Kind == types.IntKind {
						return int64(n), nil
					}
				}
			case typed.ToString:
				if v == nil {
					return nil, nil
				}
				return types.Format(v), nil
			case typed.Unbox:
				if v == nil {
					return types.Default(t), nil
				}
				return normalize(v, t), nil
			}
			return v, nil
		}, nil

	case *typed.Lambda:
		body, err := c.expr(e.Body)
		if err != nil {
			return nil, err
		}
		slots := make([]int, len(e.Params))
		for i, p := range e.Params {
			slots[i] = c.slot(p)
		}
		return func(fr *frame) (any, error) {
			return types.Func(func(args ...any) (any, error) {
				inner := &frame{vms: fr.vms, ctl: fr.ctl, locals: append([]any(nil), fr.locals...)}
				for i, slot := range slots {
					if i < len(args) && slot < len(inner.locals) {
						inner.locals[slot] = args[i]
					}
				}
				return body(inner)
			}), nil
		}, nil

	case *typed.ListLit:
		elems, err := c.list(e.Elems)
		if err != nil {
			return nil, err
		}
		return func(fr *frame) (any, error) {
			list := make([]any, len(elems))
			for i, elem := range elems {
				v, err := elem(fr)
				if err != nil {
					return nil, err
				}
				list[i] = v
			}
			return list, nil
		}, nil

	case *typed.NullGuard:
		x, err := c.expr(e.X)
		if err != nil {
			return nil, err
		}
		i := c.slot(e.Var)
		body, err := c.expr(e.Body)
		if err != nil {
			return nil, err
		}
		def := types.Default(e.T)
		return func(fr *frame) (any, error) {
			v, err := x(fr)
			if err != nil {
				return nil, err
			}
			if v == nil {
				return def, nil
			}
			fr.locals[i] = v
			return body(fr)
		}, nil
	}
	panic(fmt.Sprintf("unexpected expr %T", e))
}

func (c *compiler) list(list []typed.Expr) ([]evalFunc, error) {
	fns := make([]evalFunc, len(list))
	for i, x := range list {
		fn, err := c.expr(x)
		if err != nil {
			return nil, err
		}
		fns[i] = fn
	}
	return fns, nil
}

func (c *compiler) binary(e *typed.Binary) (evalFunc, error) {
	x, err := c.expr(e.X)
	if err != nil {
		return nil, err
	}
	y, err := c.expr(e.Y)
	if err != nil {
		return nil, err
	}
	op := e.Op
	switch op {
	case typed.AndAlso, typed.OrElse:
		return func(fr *frame) (any, error) {
			l, err := x(fr)
			if err != nil {
				return nil, err
			}
			lb, _ := l.(bool)
			if lb == (op == typed.OrElse) {
				return lb, nil
			}
			r, err := y(fr)
			if err != nil {
				return nil, err
			}
			rb, _ := r.(bool)
			return rb, nil
		}, nil

	case typed.Coalesce:
		return func(fr *frame) (any, error) {
			l, err := x(fr)
			if err != nil || l != nil {
				return l, err
			}
			return y(fr)
		}, nil
	}

	stringConcat := op == typed.Add && e.T.Kind == types.StringKind
	return func(fr *frame) (any, error) {
		l, err := x(fr)
		if err != nil {
			return nil, err
		}
		r, err := y(fr)
		if err != nil {
			return nil, err
		}
		if stringConcat {
			return types.Format(l) + types.Format(r), nil
		}
		v, err := Binary(op, l, r)
		if err != nil {
			return nil, evalErrorf(e, "%v", err)
		}
		return v, nil
	}, nil
}

// Binary applies a strict binary operator to evaluated operands.
// Arithmetic with a null operand yields null; comparisons with a
// null operand are false.
func Binary(op typed.BinaryOp, x, y any) (any, error) {
	switch op {
	case typed.Equal:
		return equal(x, y), nil
	case typed.NotEqual:
		return !equal(x, y), nil
	}
	if x == nil || y == nil {
		if op.IsComparison() {
			return false, nil
		}
		return nil, nil
	}

	if xs, ok := x.(string); ok {
		ys, ok := y.(string)
		if !ok || !op.IsComparison() {
			return nil, fmt.Errorf("invalid operands for %s: %T, %T", op, x, y)
		}
		return compare(op, strings.Compare(xs, ys)), nil
	}

	xi, xint := x.(int64)
	yi, yint := y.(int64)
	if xint && yint {
		switch op {
		case typed.Add:
			return xi + yi, nil
		case typed.Sub:
			return xi - yi, nil
		case typed.Mul:
			return xi * yi, nil
		case typed.Div, typed.Mod:
			if yi == 0 {
				return nil, fmt.Errorf("integer division by zero")
			}
			if op == typed.Div {
				return xi / yi, nil
			}
			return xi % yi, nil
		}
		switch {
		case xi < yi:
			return compare(op, -1), nil
		case xi > yi:
			return compare(op, +1), nil
		}
		return compare(op, 0), nil
	}

	xf, ok1 := toFloat(x)
	yf, ok2 := toFloat(y)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("invalid operands for %s: %T, %T", op, x, y)
	}
	switch op {
	case typed.Add:
		return xf + yf, nil
	case typed.Sub:
		return xf - yf, nil
	case typed.Mul:
		return xf * yf, nil
	case typed.Div:
		return xf / yf, nil
	case typed.Mod:
		return math.Mod(xf, yf), nil
	}
	switch {
	case xf < yf:
		return compare(op, -1), nil
	case xf > yf:
		return compare(op, +1), nil
	case xf == yf:
		return compare(op, 0), nil
	}
	return false, nil // NaN
}

func compare(op typed.BinaryOp, cmp int) bool {
	switch op {
	case typed.Less:
		return cmp < 0
	case typed.LessEqual:
		return cmp <= 0
	case typed.Greater:
		return cmp > 0
	case typed.GreaterEqual:
		return cmp >= 0
	}
	panic(op)
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func equal(x, y any) bool {
	if xf, ok := toFloat(x); ok {
		yf, ok := toFloat(y)
		return ok && xf == yf
	}
	switch x.(type) {
	case nil, bool, string:
		return x == y
	}
	return false
}

func getField(e typed.Expr, f *types.Field, recv any) (any, error) {
	if recv == nil {
		return nil, evalErrorf(e, "access of %s on null", f.Name)
	}
	if f.Get != nil {
		v, err := f.Get(recv)
		if err != nil {
			return nil, evalErrorf(e, "%v", err)
		}
		return normalize(v, f.Type), nil
	}
	obj, ok := recv.(map[string]any)
	if !ok {
		return nil, evalErrorf(e, "access of %s on %T", f.Name, recv)
	}
	return normalize(obj[f.Name], f.Type), nil
}

func getIndex(e typed.Expr, recv, key any) (any, error) {
	switch recv := recv.(type) {
	case nil:
		return nil, evalErrorf(e, "index of null")
	case []any:
		i, ok := key.(int64)
		if !ok {
			return nil, evalErrorf(e, "list index must be an integer, got %T", key)
		}
		if i < 0 || i >= int64(len(recv)) {
			return nil, evalErrorf(e, "index %d out of range [0:%d]", i, len(recv))
		}
		return normalize(recv[i], e.Type()), nil
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return nil, evalErrorf(e, "object key must be a string, got %T", key)
		}
		return normalize(recv[k], e.Type()), nil
	}
	return nil, evalErrorf(e, "cannot index %T", recv)
}

// normalize converts a Go value obtained from a view model to the
// representation of type t.
func normalize(v any, t *types.Type) any {
	switch v := v.(type) {
	case int:
		return normalize(int64(v), t)
	case int32:
		return normalize(int64(v), t)
	case float32:
		return normalize(float64(v), t)
	case int64:
		if t != nil && t.Kind == types.FloatKind {
			return float64(v)
		}
	case float64:
		if t != nil && t.Kind == types.IntKind && v == math.Trunc(v) {
			return int64(v)
		}
	case []string:
		list := make([]any, len(v))
		for i, s := range v {
			list[i] = s
		}
		return list
	}
	return v
}
