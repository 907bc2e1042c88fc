// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package typed

// Walk traverses an expression tree in depth-first order.
// It starts by calling f(e); e must not be nil.
// If f returns true, Walk calls itself
// recursively for each non-nil child of e.
// Walk then calls f(nil).
func Walk(e Expr, f func(Expr) bool) {
	if e == nil {
		panic("nil")
	}
	if !f(e) {
		return
	}

	switch e := e.(type) {
	case *Param, *Local, *Const, *TypeRef:
		// no-op

	case *Member:
		Walk(e.X, f)

	case *Call:
		if e.X != nil {
			Walk(e.X, f)
		}
		walkList(e.Args, f)

	case *Index:
		Walk(e.X, f)
		Walk(e.Key, f)

	case *Unary:
		Walk(e.X, f)

	case *Binary:
		Walk(e.X, f)
		Walk(e.Y, f)

	case *Conditional:
		Walk(e.Cond, f)
		Walk(e.Then, f)
		Walk(e.Else, f)

	case *Convert:
		Walk(e.X, f)

	case *Lambda:
		Walk(e.Body, f)

	case *ListLit:
		walkList(e.Elems, f)

	case *NullGuard:
		Walk(e.X, f)
		Walk(e.Body, f)

	default:
		panic(e)
	}

	f(nil)
}

func walkList(list []Expr, f func(Expr) bool) {
	for _, x := range list {
		Walk(x, f)
	}
}

// Strip removes outer conversions that do not change the
// representation of a value.
func Strip(e Expr) Expr {
	for {
		c, ok := e.(*Convert)
		if !ok || (c.Kind != Box && c.Kind != Lift) {
			return e
		}
		e = c.X
	}
}

// Members returns the field accesses of e, in pre-order.
func Members(e Expr) []*Member {
	var members []*Member
	Walk(e, func(e Expr) bool {
		if m, ok := e.(*Member); ok {
			members = append(members, m)
		}
		return true
	})
	return members
}
