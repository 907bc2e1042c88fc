// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rewrite

import (
	"strconv"

	"github.com/tomasmikes/dotvvm/jsast"
)

// HoistTemporaries ensures that no subexpression containing a call is
// evaluated twice. The first evaluation of a repeated subexpression is
// assigned to a temporary and later evaluations that it dominates read
// the temporary instead:
//
//	f(x) == null ? null : f(x).y   =>   ((a) => (a = f(x)) == null ? null : a.y)()
//
// Temporaries are declared as parameters of an immediately invoked
// arrow function, so the result is still a single expression. The body
// of each function in e gets temporaries of its own, declared the same
// way inside the body.
//
// An occurrence dominates another if it is always evaluated first.
// The branches of a conditional and the right operands of &&, || and
// ?? are evaluated only sometimes, so temporaries assigned inside them
// are visible outside only in a later branch taken under the same
// condition. The callee of a method call is never replaced, as that
// would lose its receiver.
func HoistTemporaries(e jsast.Expr) jsast.Expr {
	var n int
	out := hoistBody(e, &n)
	if n == 0 {
		return out
	}

	// Drop temporaries that were assigned but never read, and name
	// the others in the order they were introduced.
	// Each temporary is assigned exactly once.
	refs := make(map[string]int)
	jsast.Walk(out, func(e jsast.Expr) bool {
		if id, ok := e.(*jsast.Ident); ok && jsast.HasAnnotation[jsast.Temporary](id) {
			refs[id.Name]++
		}
		return true
	})
	used := jsast.Identifiers(e)
	rename := make(map[string]string)
	for i := range n {
		if t := placeholder(i); refs[t] > 1 {
			rename[t] = tempName(used)
		}
	}
	return jsast.Transform(out, func(e jsast.Expr) jsast.Expr {
		switch e := e.(type) {
		case *jsast.Ident:
			if jsast.HasAnnotation[jsast.Temporary](e) {
				e.Name = rename[e.Name]
			}
		case *jsast.Binary:
			if t, ok := e.X.(*jsast.Ident); ok && e.Op == jsast.BinAssign && jsast.HasAnnotation[jsast.Temporary](t) && t.Name == "" {
				return e.Y
			}
		case *jsast.Call:
			if fn, ok := e.Fn.(*jsast.Arrow); ok && jsast.HasAnnotation[jsast.Temporary](fn) {
				var params []string
				for _, p := range fn.Params {
					if name, ok := rename[p]; ok {
						params = append(params, name)
					}
				}
				if len(params) == 0 {
					return fn.Body
				}
				fn.Params = params
			}
		}
		return e
	})
}

// tempName returns the first temporary name not in used and adds it
// to used: a, b, ..., z, a1, b1, ...
func tempName(used map[string]bool) string {
	for n := 0; ; n++ {
		name := string(rune('a' + n%26))
		if n >= 26 {
			name += strconv.Itoa(n / 26)
		}
		if !used[name] {
			used[name] = true
			return name
		}
	}
}

// placeholder names the i-th temporary until it is renamed.
func placeholder(i int) string { return "$t" + strconv.Itoa(i) }

// hoistBody hoists repeated subexpressions of e, which is the whole
// expression or a function body. n counts the temporaries of all bodies.
func hoistBody(e jsast.Expr, n *int) jsast.Expr {
	h := &hoister{counts: make(map[string]int), n: n}
	h.count(e)
	h.frames = []*frame{newFrame()}
	out := h.expr(e, true)
	if len(h.temps) == 0 {
		return out
	}
	fn := jsast.Annotate(&jsast.Arrow{Params: h.temps, Body: out}, jsast.Temporary{})
	return jsast.CopyAnnotations(jsast.Invoke(fn), out)
}

// A frame holds the temporaries assigned in one region of code that is
// evaluated as a whole.
type frame struct {
	temps    map[string]string // dump key -> temporary
	branches map[string]*frame // branch key -> frame
}

func newFrame() *frame {
	return &frame{temps: make(map[string]string), branches: make(map[string]*frame)}
}

type hoister struct {
	counts map[string]int
	frames []*frame // innermost last
	temps  []string
	n      *int
}

// count records how often each subtree containing a call occurs
// outside function bodies, and reports whether e contains a call.
func (h *hoister) count(e jsast.Expr) bool {
	var calls bool
	switch e.(type) {
	case *jsast.Function, *jsast.Arrow:
		return false
	case *jsast.Call, *jsast.New:
		calls = true
	}
	for _, kid := range jsast.Children(e) {
		if h.count(kid) {
			calls = true
		}
	}
	if calls {
		h.counts[jsast.Dump(e)]++
	}
	return calls
}

func (h *hoister) lookup(key string) (string, bool) {
	for i := len(h.frames) - 1; i >= 0; i-- {
		if t, ok := h.frames[i].temps[key]; ok {
			return t, true
		}
	}
	return "", false
}

// enter pushes the frames of the branch b and returns how many it pushed.
func (h *hoister) enter(b string) int {
	for i := len(h.frames) - 1; i >= 0; i-- {
		if f, ok := h.frames[i].branches[b]; ok {
			// The branch was taken before under the same condition.
			h.frames = append(h.frames, f, newFrame())
			return 2
		}
	}
	f := newFrame()
	h.frames[len(h.frames)-1].branches[b] = f
	h.frames = append(h.frames, f)
	return 1
}

func (h *hoister) leave(n int) { h.frames = h.frames[:len(h.frames)-n] }

func temp(name string) *jsast.Ident {
	return jsast.Annotate(jsast.Id(name), jsast.Temporary{})
}

// expr rewrites e in evaluation order. If hoistable is false, e itself
// is neither assigned to nor replaced by a temporary.
func (h *hoister) expr(e jsast.Expr, hoistable bool) jsast.Expr {
	switch e.(type) {
	case *jsast.Function, *jsast.Arrow:
		return jsast.WithChildren(e, []jsast.Expr{hoistBody(jsast.FirstChild(e), h.n)})
	}

	key := jsast.Dump(e)
	if !hoistable || h.counts[key] < 2 {
		key = ""
	} else if t, ok := h.lookup(key); ok {
		return jsast.CopyAnnotations(temp(t), e)
	}

	kids := jsast.Children(e)
	for i, kid := range kids {
		if b := branch(e, i); b != "" {
			n := h.enter(b)
			kids[i] = h.expr(kid, true)
			h.leave(n)
		} else {
			kids[i] = h.expr(kid, !callee(e, i))
		}
	}
	out := jsast.WithChildren(e, kids)
	if key == "" {
		return out
	}

	t := placeholder(*h.n)
	*h.n++
	h.temps = append(h.temps, t)
	h.frames[len(h.frames)-1].temps[key] = t
	return jsast.CopyAnnotations(jsast.Bin(jsast.BinAssign, temp(t), out), out)
}

// branch returns a key for the i-th operand of e if that operand is
// evaluated only sometimes, and "" otherwise. Operands with equal keys
// are evaluated under the same condition.
func branch(e jsast.Expr, i int) string {
	switch e := e.(type) {
	case *jsast.Conditional:
		if i > 0 {
			return strconv.Itoa(i) + "?" + jsast.Dump(e.Cond)
		}
	case *jsast.Binary:
		if i > 0 && e.Op.IsShortCircuit() {
			return e.Op.String() + jsast.Dump(e.X)
		}
	}
	return ""
}

// callee reports whether the i-th operand of e must keep its shape:
// the member called by a method call, or an assignment target.
func callee(e jsast.Expr, i int) bool {
	switch e := e.(type) {
	case *jsast.Call:
		return i == 0 && isAccess(e.Fn)
	case *jsast.New:
		return i == 0 && isAccess(e.Fn)
	case *jsast.Binary:
		return i == 0 && e.Op == jsast.BinAssign
	}
	return false
}

func isAccess(e jsast.Expr) bool {
	switch e.(type) {
	case *jsast.Member, *jsast.Index:
		return true
	}
	return false
}
