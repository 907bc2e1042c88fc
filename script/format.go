// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package script

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/tomasmikes/dotvvm/jsast"
)

// Format renders e as a parametrized script. If nice is set, the
// output is spaced for reading; otherwise it is compact.
//
// The result is wrapped in parentheses when its text would otherwise
// begin like a statement (see StartsLikeStatement). Symbol nodes are
// emitted as slots.
func Format(e jsast.Expr, nice bool) *Code {
	p := &printer{nice: nice}
	if StartsLikeStatement(e) {
		p.text("(")
		p.expr(e, jsast.LLowest)
		p.text(")")
	} else {
		p.expr(e, jsast.LLowest)
	}
	return p.b.Code()
}

// StartsLikeStatement reports whether the text of e, placed at the
// start of a statement, would be read as a declaration or block
// rather than an expression.
//
// The leftmost operand chain is followed until an object or function
// literal is found. The search stops at a leaf, a parenthesized
// expression, an array literal, a prefix operation, a constructor call
// or an arrow function.
func StartsLikeStatement(e jsast.Expr) bool {
	for e != nil {
		switch e := e.(type) {
		case *jsast.Object, *jsast.Function:
			return true
		case *jsast.Paren, *jsast.Array, *jsast.New, *jsast.Arrow:
			return false
		case *jsast.Unary:
			if e.Op.IsPrefix() {
				return false
			}
		}
		e = jsast.FirstChild(e)
	}
	return false
}

type printer struct {
	b    Builder
	nice bool
}

// text appends s, separating tokens that would otherwise merge
// into a different token (a+ +b, a- -b).
func (p *printer) text(s string) {
	if s == "" {
		return
	}
	if last := p.b.lastByte(); (s[0] == '+' || s[0] == '-') && last == s[0] {
		p.b.Text(" ")
	}
	p.b.Text(s)
}

// space emits a space in nice mode only.
func (p *printer) space() {
	if p.nice {
		p.b.Text(" ")
	}
}

func (p *printer) comma() {
	p.text(",")
	p.space()
}

// level returns the precedence of the operator at the root of e.
func level(e jsast.Expr) jsast.L {
	switch e := e.(type) {
	case *jsast.Literal:
		if isNegative(e.Value) {
			return jsast.LPrefix
		}
		return jsast.LMember
	case *jsast.Ident, *jsast.Symbol, *jsast.Array, *jsast.Object, *jsast.Paren, *jsast.Function, *jsast.Member, *jsast.Index:
		return jsast.LMember
	case *jsast.Call:
		return jsast.LCall
	case *jsast.New:
		return jsast.LNew
	case *jsast.Unary:
		return jsast.OpTable[e.Op].Level
	case *jsast.Binary:
		return jsast.OpTable[e.Op].Level
	case *jsast.Conditional:
		return jsast.LConditional
	case *jsast.Arrow:
		return jsast.LAssign
	case *jsast.Sequence:
		return jsast.LComma
	}
	panic(fmt.Sprintf("unexpected node %T", e))
}

func isNegative(v any) bool {
	switch v := v.(type) {
	case int64:
		return v < 0
	case float64:
		return v < 0 || math.Signbit(v)
	}
	return false
}

// expr prints e, parenthesized if its precedence is below min.
func (p *printer) expr(e jsast.Expr, min jsast.L) {
	if level(e) < min {
		p.text("(")
		p.node(e)
		p.text(")")
		return
	}
	p.node(e)
}

func (p *printer) node(e jsast.Expr) {
	switch e := e.(type) {
	case *jsast.Ident:
		p.text(e.Name)

	case *jsast.Literal:
		p.text(literal(e.Value))

	case *jsast.Symbol:
		if e.Default == nil {
			p.b.Slot(e.Name)
			return
		}
		sub := &printer{nice: p.nice}
		sub.expr(e.Default, jsast.LMember)
		p.b.SlotDefault(e.Name, sub.b.Code().String())

	case *jsast.Member:
		p.receiver(e.X)
		p.text("." + e.Name)

	case *jsast.Index:
		p.receiver(e.X)
		p.text("[")
		p.expr(e.Key, jsast.LLowest)
		p.text("]")

	case *jsast.Call:
		p.receiver(e.Fn)
		p.args(e.Args)

	case *jsast.New:
		p.text("new ")
		p.expr(e.Fn, jsast.LMember)
		p.args(e.Args)

	case *jsast.Unary:
		op := jsast.OpTable[e.Op]
		p.text(op.Text)
		if op.IsKeyword {
			p.text(" ")
		}
		p.expr(e.X, jsast.LPrefix)

	case *jsast.Binary:
		p.binary(e)

	case *jsast.Conditional:
		p.expr(e.Cond, jsast.LConditional+1)
		p.space()
		p.text("?")
		p.space()
		p.expr(e.Then, jsast.LAssign)
		p.space()
		p.text(":")
		p.space()
		p.expr(e.Else, jsast.LAssign)

	case *jsast.Array:
		p.text("[")
		for i, elem := range e.Elems {
			if i > 0 {
				p.comma()
			}
			p.expr(elem, jsast.LAssign)
		}
		p.text("]")

	case *jsast.Object:
		if len(e.Props) == 0 {
			p.text("{}")
			return
		}
		p.text("{")
		p.space()
		for i, prop := range e.Props {
			if i > 0 {
				p.comma()
			}
			p.text(propertyKey(prop.Key))
			p.text(":")
			p.space()
			p.expr(prop.Value, jsast.LAssign)
		}
		p.space()
		p.text("}")

	case *jsast.Paren:
		p.text("(")
		p.expr(e.X, jsast.LLowest)
		p.text(")")

	case *jsast.Function:
		p.text("function")
		p.space()
		p.params(e.Params)
		p.space()
		p.text("{")
		p.space()
		p.text("return ")
		p.expr(e.Body, jsast.LLowest)
		p.text(";")
		p.space()
		p.text("}")

	case *jsast.Arrow:
		p.params(e.Params)
		p.space()
		p.text("=>")
		p.space()
		if StartsLikeStatement(e.Body) {
			p.text("(")
			p.expr(e.Body, jsast.LLowest)
			p.text(")")
		} else {
			p.expr(e.Body, jsast.LAssign)
		}

	case *jsast.Sequence:
		for i, x := range e.List {
			if i > 0 {
				p.comma()
			}
			p.expr(x, jsast.LAssign)
		}

	default:
		panic(fmt.Sprintf("unexpected node %T", e))
	}
}

// receiver prints the operand of a member access or call.
func (p *printer) receiver(x jsast.Expr) {
	if lit, ok := x.(*jsast.Literal); ok {
		switch lit.Value.(type) {
		case int64, float64:
			// 1.toString is a syntax error
			p.text("(")
			p.node(x)
			p.text(")")
			return
		}
	}
	p.expr(x, jsast.LCall)
}

func (p *printer) args(args []jsast.Expr) {
	p.text("(")
	for i, arg := range args {
		if i > 0 {
			p.comma()
		}
		p.expr(arg, jsast.LAssign)
	}
	p.text(")")
}

func (p *printer) params(params []string) {
	p.text("(")
	for i, name := range params {
		if i > 0 {
			p.comma()
		}
		p.text(name)
	}
	p.text(")")
}

func (p *printer) binary(e *jsast.Binary) {
	op := jsast.OpTable[e.Op]
	left, right := op.Level, op.Level+1
	if e.Op.IsRightAssociative() {
		left, right = op.Level+1, op.Level
	}
	// ?? may not be mixed with && or || without parentheses.
	if mixesCoalescing(e.Op, e.X) {
		left = jsast.LMember
	}
	if mixesCoalescing(e.Op, e.Y) {
		right = jsast.LMember
	}
	p.expr(e.X, left)
	p.space()
	p.text(op.Text)
	p.space()
	p.expr(e.Y, right)
}

func mixesCoalescing(op jsast.OpCode, operand jsast.Expr) bool {
	b, ok := operand.(*jsast.Binary)
	if !ok {
		return false
	}
	logical := func(op jsast.OpCode) bool { return op == jsast.BinLogicalAnd || op == jsast.BinLogicalOr }
	return op == jsast.BinNullishCoalescing && logical(b.Op) ||
		logical(op) && b.Op == jsast.BinNullishCoalescing
}

func literal(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		switch {
		case math.IsNaN(v):
			return "NaN"
		case math.IsInf(v, 1):
			return "Infinity"
		case math.IsInf(v, -1):
			return "-Infinity"
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return quote(v)
	}
	panic(fmt.Sprintf("unexpected literal %T", v))
}

// quote returns a double-quoted script string literal. The result is
// safe to embed in HTML.
func quote(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		panic(err) // strings always marshal
	}
	return string(data)
}

func propertyKey(key string) string {
	if isIdent(key) {
		return key
	}
	return quote(key)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || c == '$' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z':
		case i > 0 && '0' <= c && c <= '9':
		default:
			return false
		}
	}
	return true
}
