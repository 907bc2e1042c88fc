// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package typed defines the type-checked expression trees from which
// bindings are compiled.
//
// A typed expression is produced by a binder (see package syntax) and is
// immutable thereafter. Every node has a static type. The set of node
// types is closed: switches over Expr are exhaustive.
package typed // import "github.com/tomasmikes/dotvvm/typed"

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tomasmikes/dotvvm/diag"
	"github.com/tomasmikes/dotvvm/scope"
	"github.com/tomasmikes/dotvvm/types"
)

// An Expr is a typed expression.
type Expr interface {
	Type() *types.Type
	String() string
	expr()
}

func (*Param) expr()       {}
func (*Local) expr()       {}
func (*Const) expr()       {}
func (*Member) expr()      {}
func (*Call) expr()        {}
func (*Index) expr()       {}
func (*Unary) expr()       {}
func (*Binary) expr()      {}
func (*Conditional) expr() {}
func (*Convert) expr()     {}
func (*Lambda) expr()      {}
func (*ListLit) expr()     {}
func (*NullGuard) expr()   {}
func (*TypeRef) expr()     {}

// A Param refers to a scope: either its data context (Special == nil)
// or one of its special parameters.
type Param struct {
	Name    string       // spelling in the source, e.g. _this, _parent2, _index
	Scope   *scope.Scope // declaring scope
	Special *scope.Parameter
}

// DataContext returns a reference to the data context of s.
func DataContext(s *scope.Scope, name string) *Param {
	return &Param{Name: name, Scope: s}
}

func (p *Param) Type() *types.Type {
	if p.Special != nil {
		return p.Special.Type
	}
	return p.Scope.DataType
}

// A Local is a lambda parameter or a temporary introduced by a NullGuard.
type Local struct {
	Name    string
	T       *types.Type
	NonNull bool // known not to be null
}

func (l *Local) Type() *types.Type { return l.T }

// A Const is a literal value.
// Value is nil, bool, int64, float64 or string.
type Const struct {
	Value any
	T     *types.Type
}

// Null is the null literal.
var Null = &Const{Value: nil, T: types.Any}

// NewConst returns a literal of the natural type of v.
func NewConst(v any) *Const {
	switch v := v.(type) {
	case nil:
		return Null
	case bool:
		return &Const{Value: v, T: types.Bool}
	case int:
		return &Const{Value: int64(v), T: types.Int}
	case int64:
		return &Const{Value: v, T: types.Int}
	case float64:
		return &Const{Value: v, T: types.Float}
	case string:
		return &Const{Value: v, T: types.String}
	}
	panic(fmt.Sprintf("typed.NewConst: unsupported %T", v))
}

func (c *Const) Type() *types.Type { return c.T }

// A Member is a field access X.Field.
type Member struct {
	X     Expr
	Field *types.Field
}

// NewMember returns the access of the named field of x.
func NewMember(x Expr, name string) (*Member, error) {
	f := x.Type().Field(name)
	if f == nil {
		return nil, fmt.Errorf("%s has no field %s", x.Type(), name)
	}
	return &Member{X: x, Field: f}, nil
}

func (m *Member) Type() *types.Type { return m.Field.Type }

// A Call is a method call. X is nil for a static method.
type Call struct {
	X      Expr
	Method *types.Method
	Args   []Expr
}

// NewCall returns a call of the named method. If recv is nil,
// the static method of decl is called.
func NewCall(recv Expr, decl *types.Type, name string, args ...Expr) (*Call, error) {
	if recv != nil {
		decl = recv.Type()
	}
	m := decl.Method(name, len(args))
	if m == nil || m.Static != (recv == nil) {
		return nil, fmt.Errorf("%s has no method %s/%d", decl, name, len(args))
	}
	return &Call{X: recv, Method: m, Args: args}, nil
}

func (c *Call) Type() *types.Type { return c.Method.Result }

// An Index is an element access X[Key].
type Index struct {
	X, Key Expr
	T      *types.Type
}

func (x *Index) Type() *types.Type { return x.T }

// A UnaryOp is a unary operator.
type UnaryOp uint8

const (
	Not UnaryOp = iota
	Negate
	Plus
)

func (op UnaryOp) String() string {
	switch op {
	case Not:
		return "!"
	case Negate:
		return "-"
	case Plus:
		return "+"
	}
	panic(op)
}

// A Unary is a unary operation.
type Unary struct {
	Op UnaryOp
	X  Expr
}

// NewUnary type-checks and returns op x.
func NewUnary(op UnaryOp, x Expr) (*Unary, error) {
	k := x.Type().Kind
	switch op {
	case Not:
		if k != types.BoolKind {
			return nil, diag.Errorf(diag.TypeConversionFailure, "operator ! not defined on %s", x.Type())
		}
	case Negate, Plus:
		if !k.IsNumeric() {
			return nil, diag.Errorf(diag.TypeConversionFailure, "operator %s not defined on %s", op, x.Type())
		}
	}
	return &Unary{Op: op, X: x}, nil
}

func (u *Unary) Type() *types.Type { return u.X.Type() }

// A BinaryOp is a binary operator.
type BinaryOp uint8

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
	Equal
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
	AndAlso
	OrElse
	Coalesce
)

var binaryOpNames = [...]string{
	Add:          "+",
	Sub:          "-",
	Mul:          "*",
	Div:          "/",
	Mod:          "%",
	Equal:        "==",
	NotEqual:     "!=",
	Less:         "<",
	LessEqual:    "<=",
	Greater:      ">",
	GreaterEqual: ">=",
	AndAlso:      "&&",
	OrElse:       "||",
	Coalesce:     "??",
}

func (op BinaryOp) String() string { return binaryOpNames[op] }

// IsComparison reports whether op is one of < <= > >=.
func (op BinaryOp) IsComparison() bool { return op >= Less && op <= GreaterEqual }

// A Binary is a binary operation.
type Binary struct {
	Op   BinaryOp
	X, Y Expr
	T    *types.Type
}

// NewBinary type-checks and returns x op y.
//
// Arithmetic on a nullable operand yields a nullable result;
// Int combined with Float yields Float. Comparisons and equality
// always yield Bool.
func NewBinary(op BinaryOp, x, y Expr) (*Binary, error) {
	xt, yt := x.Type(), y.Type()
	fail := func() (*Binary, error) {
		return nil, diag.Errorf(diag.TypeConversionFailure, "operator %s not defined on %s and %s", op, xt, yt)
	}
	numeric := func() *types.Type {
		if !xt.Kind.IsNumeric() || !yt.Kind.IsNumeric() {
			return nil
		}
		t := types.Int
		if xt.Kind == types.FloatKind || yt.Kind == types.FloatKind {
			t = types.Float
		}
		if xt.Nullable || yt.Nullable {
			t = types.Nullable(t)
		}
		return t
	}
	var t *types.Type
	switch op {
	case Add:
		if xt.Kind == types.StringKind || yt.Kind == types.StringKind {
			t = types.String
			break
		}
		fallthrough
	case Sub, Mul, Div, Mod:
		if t = numeric(); t == nil {
			return fail()
		}
	case Equal, NotEqual:
		t = types.Bool
	case Less, LessEqual, Greater, GreaterEqual:
		if numeric() == nil && !(xt.Kind == types.StringKind && yt.Kind == types.StringKind) {
			return fail()
		}
		t = types.Bool
	case AndAlso, OrElse:
		if xt.Kind != types.BoolKind || yt.Kind != types.BoolKind {
			return fail()
		}
		t = types.Bool
		if xt.Nullable || yt.Nullable {
			t = types.Nullable(t)
		}
	case Coalesce:
		if !xt.Nullable {
			return fail()
		}
		switch {
		case isNullConst(y):
			t = xt
		case types.Identical(xt.Underlying(), yt) || types.Identical(xt, yt):
			t = yt
		case xt.Kind == types.AnyKind:
			t = xt
		default:
			return fail()
		}
	default:
		panic(op)
	}
	return &Binary{Op: op, X: x, Y: y, T: t}, nil
}

func isNullConst(e Expr) bool {
	c, ok := e.(*Const)
	return ok && c.Value == nil
}

func (b *Binary) Type() *types.Type { return b.T }

// A Conditional is Cond ? Then : Else.
type Conditional struct {
	Cond, Then, Else Expr
	T                *types.Type
}

func (c *Conditional) Type() *types.Type { return c.T }

// A ConvertKind says how a Convert changes its operand's representation.
type ConvertKind uint8

const (
	Box      ConvertKind = iota // to Any; no change
	Lift                        // to a nullable type; no change
	Numeric                     // int64 to float64
	ToString                    // render with ToString
	Unbox                       // from Any or a nullable type; checked
)

var convertKindNames = [...]string{
	Box:      "Box",
	Lift:     "Lift",
	Numeric:  "Numeric",
	ToString: "ToString",
	Unbox:    "Unbox",
}

func (k ConvertKind) String() string { return convertKindNames[k] }

// A Convert changes the static type of X to T.
type Convert struct {
	X    Expr
	T    *types.Type
	Kind ConvertKind
}

func (c *Convert) Type() *types.Type { return c.T }

// A Lambda is a function literal.
type Lambda struct {
	Params []*Local
	Body   Expr
	T      *types.Type
}

// NewLambda returns a lambda with the given parameters and body.
func NewLambda(params []*Local, body Expr) *Lambda {
	ptypes := make([]*types.Type, len(params))
	for i, p := range params {
		ptypes[i] = p.T
	}
	return &Lambda{Params: params, Body: body, T: types.FuncOf(ptypes, body.Type())}
}

func (l *Lambda) Type() *types.Type { return l.T }

// A ListLit is a list literal.
type ListLit struct {
	Elems []Expr
	T     *types.Type
}

func (l *ListLit) Type() *types.Type { return l.T }

// A NullGuard evaluates X; if it is null the result is the default
// value of T, otherwise Body is evaluated with Var bound to X.
type NullGuard struct {
	X    Expr
	Var  *Local
	Body Expr
	T    *types.Type
}

func (g *NullGuard) Type() *types.Type { return g.T }

// A TypeRef denotes a type used as a value, e.g. the receiver of a
// static call. It is not a valid binding by itself.
type TypeRef struct {
	T *types.Type
}

func (r *TypeRef) Type() *types.Type { return r.T }

// String methods render the canonical form of an expression.

func (p *Param) String() string { return p.Name }
func (l *Local) String() string { return l.Name }

func (c *Const) String() string {
	switch v := c.Value.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	case string:
		return strconv.Quote(v)
	}
	return fmt.Sprint(c.Value)
}

func (m *Member) String() string { return m.X.String() + "." + m.Field.Name }

func (c *Call) String() string {
	var buf strings.Builder
	if c.X != nil {
		buf.WriteString(c.X.String())
	} else {
		buf.WriteString(c.Method.Decl.Name)
	}
	buf.WriteByte('.')
	buf.WriteString(c.Method.Name)
	writeList(&buf, "(", c.Args, ")")
	return buf.String()
}

func (x *Index) String() string { return x.X.String() + "[" + x.Key.String() + "]" }

func (u *Unary) String() string { return u.Op.String() + u.X.String() }

func (b *Binary) String() string {
	return "(" + b.X.String() + " " + b.Op.String() + " " + b.Y.String() + ")"
}

func (c *Conditional) String() string {
	return "(" + c.Cond.String() + " ? " + c.Then.String() + " : " + c.Else.String() + ")"
}

func (c *Convert) String() string {
	return "Convert(" + c.X.String() + ", " + c.T.Name + ")"
}

func (l *Lambda) String() string {
	var buf strings.Builder
	buf.WriteByte('(')
	for i, p := range l.Params {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(p.Name)
	}
	buf.WriteString(") => ")
	buf.WriteString(l.Body.String())
	return buf.String()
}

func (l *ListLit) String() string {
	var buf strings.Builder
	writeList(&buf, "[", l.Elems, "]")
	return buf.String()
}

func (g *NullGuard) String() string {
	return "(" + g.X.String() + " is {} " + g.Var.Name + " ? " + g.Body.String() + " : default)"
}

func (r *TypeRef) String() string { return r.T.Name }

func writeList(buf *strings.Builder, open string, list []Expr, close string) {
	buf.WriteString(open)
	for i, e := range list {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(e.String())
	}
	buf.WriteString(close)
}
