// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rewrite

import "github.com/tomasmikes/dotvvm/jsast"

var negated = map[jsast.OpCode]jsast.OpCode{
	jsast.BinLooseEq:  jsast.BinLooseNe,
	jsast.BinLooseNe:  jsast.BinLooseEq,
	jsast.BinStrictEq: jsast.BinStrictNe,
	jsast.BinStrictNe: jsast.BinStrictEq,
}

// Prettify normalizes e for reading. It removes explicit parentheses
// (the formatter inserts those that are needed), flattens nested
// sequences, and folds negated equality tests:
//
//	!(a == b)   =>   a != b
//
// Evaluation order and results are unchanged.
func Prettify(e jsast.Expr) jsast.Expr {
	return jsast.Transform(e, func(e jsast.Expr) jsast.Expr {
		switch n := e.(type) {
		case *jsast.Paren:
			return jsast.CopyAnnotations(n.X, n)

		case *jsast.Unary:
			if b, ok := n.X.(*jsast.Binary); ok && n.Op == jsast.UnNot {
				if op, ok := negated[b.Op]; ok {
					return jsast.CopyAnnotations(jsast.Bin(op, b.X, b.Y), n)
				}
			}

		case *jsast.Sequence:
			var list []jsast.Expr
			for _, x := range n.List {
				if inner, ok := x.(*jsast.Sequence); ok {
					list = append(list, inner.List...)
				} else {
					list = append(list, x)
				}
			}
			return jsast.CopyAnnotations(&jsast.Sequence{List: list}, n)
		}
		return e
	})
}
