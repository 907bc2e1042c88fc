// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package syntax turns the source text of a binding into a typed
// expression.
//
// Binding source text uses the expression subset of ECMAScript, so the
// text is parsed by the goja parser and the resulting syntax tree is
// bound against a scope: identifiers are resolved to scope parameters,
// data context members, lambda parameters or types, and every node is
// type-checked.
package syntax // import "github.com/tomasmikes/dotvvm/syntax"

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
	"github.com/dop251/goja/token"

	"github.com/tomasmikes/dotvvm/compile"
	"github.com/tomasmikes/dotvvm/scope"
	"github.com/tomasmikes/dotvvm/typed"
	"github.com/tomasmikes/dotvvm/types"
)

// An Error describes a syntax or binding error.
type Error struct {
	Src    string
	Offset int // byte offset in Src, or -1
	Msg    string
}

func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s: offset %d: %s", e.Src, e.Offset, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Src, e.Msg)
}

// Parse parses and binds the source text of a binding evaluated in
// scope s. Type names are resolved in u.
func Parse(src string, s *scope.Scope, u *types.Universe) (typed.Expr, error) {
	// The source is parenthesized so that an object literal is not
	// read as a block.
	prog, err := parser.ParseFile(nil, "", "("+src+"\n)", 0)
	if err != nil {
		return nil, &Error{Src: src, Offset: -1, Msg: err.Error()}
	}
	if len(prog.Body) != 1 {
		return nil, &Error{Src: src, Offset: -1, Msg: "not a single expression"}
	}
	stmt, ok := prog.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return nil, &Error{Src: src, Offset: -1, Msg: "not an expression"}
	}
	b := &binder{src: src, scope: s, universe: u}
	return b.expr(stmt.Expression)
}

type binder struct {
	src      string
	scope    *scope.Scope
	universe *types.Universe
	locals   []*typed.Local // lambda parameters in scope, innermost last
}

func (b *binder) errorf(n ast.Node, format string, args ...any) error {
	offset := -1
	if n != nil {
		// Idx is 1-based and counts the opening parenthesis.
		offset = int(n.Idx0()) - 2
	}
	return &Error{Src: b.src, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// expr binds e, which must denote a value.
func (b *binder) expr(e ast.Expression) (typed.Expr, error) {
	switch e := e.(type) {
	case *ast.Identifier:
		return b.ident(e)

	case *ast.NumberLiteral:
		switch v := e.Value.(type) {
		case int64:
			return typed.NewConst(v), nil
		case float64:
			return typed.NewConst(v), nil
		}
		return nil, b.errorf(e, "unsupported number %s", e.Literal)

	case *ast.StringLiteral:
		return typed.NewConst(string(e.Value)), nil

	case *ast.BooleanLiteral:
		return typed.NewConst(e.Value), nil

	case *ast.NullLiteral:
		return typed.Null, nil

	case *ast.DotExpression:
		return b.dot(e)

	case *ast.BracketExpression:
		return b.index(e)

	case *ast.CallExpression:
		return b.call(e)

	case *ast.UnaryExpression:
		return b.unary(e)

	case *ast.BinaryExpression:
		return b.binary(e)

	case *ast.ConditionalExpression:
		return b.conditional(e)

	case *ast.ArrayLiteral:
		return b.array(e)

	case *ast.ArrowFunctionLiteral:
		return nil, b.errorf(e, "lambda is only allowed as a method argument")

	case *ast.SequenceExpression:
		if len(e.Sequence) == 1 {
			return b.expr(e.Sequence[0])
		}
	}
	return nil, b.errorf(e, "unsupported expression %T", e)
}

const parentName = "_parent"

func (b *binder) ident(id *ast.Identifier) (typed.Expr, error) {
	name := string(id.Name)
	for i := len(b.locals) - 1; i >= 0; i-- {
		if b.locals[i].Name == name {
			return b.locals[i], nil
		}
	}

	switch {
	case name == "_this":
		return typed.DataContext(b.scope, name), nil
	case name == "_root":
		return typed.DataContext(b.scope.Root(), name), nil
	case strings.HasPrefix(name, parentName):
		n := 1
		if rest := name[len(parentName):]; rest != "" {
			var err error
			if n, err = strconv.Atoi(rest); err != nil || n < 1 {
				break
			}
		}
		anc := b.scope.Ancestor(n)
		if anc == nil {
			return nil, b.errorf(id, "%s: scope has only %d parents", name, b.scope.Depth())
		}
		return typed.DataContext(anc, name), nil
	}

	if p, owner, ok := b.scope.Resolve(name); ok {
		return &typed.Param{Name: name, Scope: owner, Special: p}, nil
	}

	if f := b.scope.DataType.Field(name); f != nil {
		return &typed.Member{X: typed.DataContext(b.scope, "_this"), Field: f}, nil
	}

	if t := b.lookupType(name); t != nil {
		return &typed.TypeRef{T: t}, nil
	}
	return nil, b.errorf(id, "undefined: %s", name)
}

func (b *binder) lookupType(name string) *types.Type {
	if b.universe == nil {
		return nil
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		if ns, ok := b.scope.LookupAlias(name[:i]); ok {
			name = ns + name[i:]
		}
	} else if ns, ok := b.scope.LookupAlias(name); ok {
		name = ns
	}
	return b.universe.Lookup(name, b.scope.Namespaces()...)
}

// qualifiedName returns the dotted name denoted by e, if e is a chain
// of identifiers.
func qualifiedName(e ast.Expression) (string, bool) {
	switch e := e.(type) {
	case *ast.Identifier:
		return string(e.Name), true
	case *ast.DotExpression:
		if left, ok := qualifiedName(e.Left); ok {
			return left + "." + string(e.Identifier.Name), true
		}
	}
	return "", false
}

// receiver binds the left operand of a member access or call,
// which may denote a type.
func (b *binder) receiver(e ast.Expression) (typed.Expr, error) {
	x, err := b.expr(e)
	if err == nil {
		return x, nil
	}
	if name, ok := qualifiedName(e); ok {
		if t := b.lookupType(name); t != nil {
			return &typed.TypeRef{T: t}, nil
		}
	}
	return nil, err
}

func (b *binder) dot(e *ast.DotExpression) (typed.Expr, error) {
	name := string(e.Identifier.Name)
	x, err := b.receiver(e.Left)
	if err != nil {
		if qn, ok := qualifiedName(e); ok {
			if t := b.lookupType(qn); t != nil {
				return &typed.TypeRef{T: t}, nil
			}
		}
		return nil, err
	}
	if ref, ok := x.(*typed.TypeRef); ok {
		return nil, b.errorf(e, "%s has no static field %s", ref.T, name)
	}
	f := x.Type().Field(name)
	if f == nil {
		return nil, b.errorf(e, "%s has no field %s", x.Type(), name)
	}
	return &typed.Member{X: x, Field: f}, nil
}

func (b *binder) index(e *ast.BracketExpression) (typed.Expr, error) {
	x, err := b.expr(e.Left)
	if err != nil {
		return nil, err
	}
	key, err := b.expr(e.Member)
	if err != nil {
		return nil, err
	}
	t := x.Type()
	switch t.Kind {
	case types.ListKind:
		k, ok := compile.Implicit(key, types.Int)
		if !ok {
			return nil, b.errorf(e.Member, "list index must be an integer, not %s", key.Type())
		}
		return &typed.Index{X: x, Key: k, T: t.Elem}, nil
	case types.ObjectKind:
		if c, ok := key.(*typed.Const); ok {
			if name, ok := c.Value.(string); ok {
				if f := t.Field(name); f != nil {
					return &typed.Member{X: x, Field: f}, nil
				}
				return nil, b.errorf(e.Member, "%s has no field %s", t, name)
			}
		}
	}
	return nil, b.errorf(e, "cannot index %s", t)
}

func (b *binder) call(e *ast.CallExpression) (typed.Expr, error) {
	callee, ok := e.Callee.(*ast.DotExpression)
	if !ok {
		return nil, b.errorf(e, "call of a non-method")
	}
	name := string(callee.Identifier.Name)
	recv, err := b.receiver(callee.Left)
	if err != nil {
		return nil, err
	}
	var decl *types.Type
	static := false
	if ref, ok := recv.(*typed.TypeRef); ok {
		decl, static, recv = ref.T, true, nil
	} else {
		decl = recv.Type()
	}

	var firstErr error
	for _, m := range decl.Overloads(name, len(e.ArgumentList)) {
		if m.Static != static {
			continue
		}
		args, err := b.args(e.ArgumentList, m.Params)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return &typed.Call{X: recv, Method: m, Args: args}, nil
	}
	if firstErr != nil {
		return nil, firstErr
	}
	kind := "method"
	if static {
		kind = "static method"
	}
	return nil, b.errorf(e, "%s has no %s %s with %d arguments", decl, kind, name, len(e.ArgumentList))
}

// args binds call arguments against the parameter types of a method.
func (b *binder) args(list []ast.Expression, params []*types.Type) ([]typed.Expr, error) {
	args := make([]typed.Expr, len(list))
	for i, a := range list {
		var arg typed.Expr
		var err error
		if fn, ok := a.(*ast.ArrowFunctionLiteral); ok {
			arg, err = b.lambda(fn, params[i])
		} else {
			arg, err = b.expr(a)
		}
		if err != nil {
			return nil, err
		}
		conv, ok := compile.Implicit(arg, params[i])
		if !ok {
			return nil, b.errorf(a, "cannot use %s as %s argument", arg.Type(), params[i])
		}
		args[i] = conv
	}
	return args, nil
}

func (b *binder) lambda(fn *ast.ArrowFunctionLiteral, t *types.Type) (typed.Expr, error) {
	if t.Kind != types.FuncKind {
		return nil, b.errorf(fn, "lambda used as %s", t)
	}
	list := fn.ParameterList.List
	if len(list) != len(t.Params) || fn.ParameterList.Rest != nil {
		return nil, b.errorf(fn, "lambda has %d parameters, want %d", len(list), len(t.Params))
	}
	body, ok := fn.Body.(*ast.ExpressionBody)
	if !ok {
		return nil, b.errorf(fn, "lambda body must be an expression")
	}
	params := make([]*typed.Local, len(list))
	for i, p := range list {
		id, ok := p.Target.(*ast.Identifier)
		if !ok || p.Initializer != nil {
			return nil, b.errorf(fn, "unsupported lambda parameter")
		}
		params[i] = &typed.Local{Name: string(id.Name), T: t.Params[i]}
	}
	saved := b.locals
	b.locals = append(b.locals[:len(b.locals):len(b.locals)], params...)
	defer func() { b.locals = saved }()

	x, err := b.expr(body.Expression)
	if err != nil {
		return nil, err
	}
	if x, ok := compile.Implicit(x, t.Result); ok {
		return &typed.Lambda{Params: params, Body: x, T: t}, nil
	}
	return nil, b.errorf(fn, "lambda returns %s, want %s", x.Type(), t.Result)
}

func (b *binder) unary(e *ast.UnaryExpression) (typed.Expr, error) {
	var op typed.UnaryOp
	switch e.Operator {
	case token.NOT:
		op = typed.Not
	case token.MINUS:
		op = typed.Negate
	case token.PLUS:
		op = typed.Plus
	default:
		return nil, b.errorf(e, "unsupported operator %s", e.Operator)
	}
	x, err := b.expr(e.Operand)
	if err != nil {
		return nil, err
	}
	u, err := typed.NewUnary(op, x)
	if err != nil {
		return nil, b.errorf(e, "%v", err)
	}
	return u, nil
}

var binaryOps = map[token.Token]typed.BinaryOp{
	token.PLUS:             typed.Add,
	token.MINUS:            typed.Sub,
	token.MULTIPLY:         typed.Mul,
	token.SLASH:            typed.Div,
	token.REMAINDER:        typed.Mod,
	token.EQUAL:            typed.Equal,
	token.STRICT_EQUAL:     typed.Equal,
	token.NOT_EQUAL:        typed.NotEqual,
	token.STRICT_NOT_EQUAL: typed.NotEqual,
	token.LESS:             typed.Less,
	token.LESS_OR_EQUAL:    typed.LessEqual,
	token.GREATER:          typed.Greater,
	token.GREATER_OR_EQUAL: typed.GreaterEqual,
	token.LOGICAL_AND:      typed.AndAlso,
	token.LOGICAL_OR:       typed.OrElse,
	token.COALESCE:         typed.Coalesce,
}

func (b *binder) binary(e *ast.BinaryExpression) (typed.Expr, error) {
	op, ok := binaryOps[e.Operator]
	if !ok {
		return nil, b.errorf(e, "unsupported operator %s", e.Operator)
	}
	x, err := b.expr(e.Left)
	if err != nil {
		return nil, err
	}
	y, err := b.expr(e.Right)
	if err != nil {
		return nil, err
	}
	if op == typed.Coalesce {
		// Int? ?? 0 is Int.
		if u := x.Type().Underlying(); u != x.Type() {
			if yc, ok := compile.Implicit(y, u); ok {
				y = yc
			}
		}
	}
	bin, err := typed.NewBinary(op, x, y)
	if err != nil {
		return nil, b.errorf(e, "%v", err)
	}
	return bin, nil
}

func (b *binder) conditional(e *ast.ConditionalExpression) (typed.Expr, error) {
	cond, err := b.expr(e.Test)
	if err != nil {
		return nil, err
	}
	if cond.Type().Kind != types.BoolKind || cond.Type().Nullable {
		return nil, b.errorf(e.Test, "condition must be bool, not %s", cond.Type())
	}
	then, err := b.expr(e.Consequent)
	if err != nil {
		return nil, err
	}
	els, err := b.expr(e.Alternate)
	if err != nil {
		return nil, err
	}
	t, then, els, ok := unify(then, els)
	if !ok {
		return nil, b.errorf(e, "mismatched conditional branches %s and %s", then.Type(), els.Type())
	}
	return &typed.Conditional{Cond: cond, Then: then, Else: els, T: t}, nil
}

// unify converts x and y to a common type.
func unify(x, y typed.Expr) (*types.Type, typed.Expr, typed.Expr, bool) {
	xt, yt := x.Type(), y.Type()
	if types.Identical(xt, yt) {
		return xt, x, y, true
	}
	if yc, ok := compile.Implicit(y, xt); ok && xt.Kind != types.AnyKind {
		return xt, x, yc, true
	}
	if xc, ok := compile.Implicit(x, yt); ok && yt.Kind != types.AnyKind {
		return yt, xc, y, true
	}
	// 1 or null
	if xt.Kind.IsValue() {
		nt := types.Nullable(xt)
		xc, ok1 := compile.Implicit(x, nt)
		yc, ok2 := compile.Implicit(y, nt)
		if ok1 && ok2 {
			return nt, xc, yc, true
		}
	}
	if yt.Kind.IsValue() {
		nt := types.Nullable(yt)
		xc, ok1 := compile.Implicit(x, nt)
		yc, ok2 := compile.Implicit(y, nt)
		if ok1 && ok2 {
			return nt, xc, yc, true
		}
	}
	return nil, x, y, false
}

func (b *binder) array(e *ast.ArrayLiteral) (typed.Expr, error) {
	elems := make([]typed.Expr, len(e.Value))
	for i, v := range e.Value {
		x, err := b.expr(v)
		if err != nil {
			return nil, err
		}
		elems[i] = x
	}
	if len(elems) == 0 {
		return &typed.ListLit{T: types.ListOf(types.Any)}, nil
	}
	acc := elems[0]
	for i := 1; i < len(elems); i++ {
		t, _, _, ok := unify(acc, elems[i])
		if !ok {
			return nil, b.errorf(e.Value[i], "mismatched list element %s, want %s", elems[i].Type(), acc.Type())
		}
		if !types.Identical(t, acc.Type()) {
			acc = &typed.Local{T: t}
		}
	}
	t := acc.Type()
	for i, x := range elems {
		conv, ok := compile.Implicit(x, t)
		if !ok {
			return nil, b.errorf(e.Value[i], "mismatched list element %s, want %s", x.Type(), t)
		}
		elems[i] = conv
	}
	return &typed.ListLit{Elems: elems, T: types.ListOf(t)}, nil
}
