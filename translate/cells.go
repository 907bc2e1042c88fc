// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package translate

import "github.com/tomasmikes/dotvvm/jsast"

// Resolved is a translated tree in which every operand that is a cell
// has been read. Only the root may still be a cell.
type Resolved struct {
	root  jsast.Expr
	cell  bool // root is a cell
	maybe bool // root may be a cell
}

// ResolveCells reads every cell that is an operand of another node.
// Operators, calls and accesses never consume cells; parentheses pass
// their operand's cell-ness through. A definite cell c is read as c();
// a possible cell as ko.unwrap(c).
//
// The tree is traversed once, bottom-up. Whether the root itself is
// read is decided by Variant.
func ResolveCells(root jsast.Expr) *Resolved {
	out := jsast.Transform(root, func(e jsast.Expr) jsast.Expr {
		if p, ok := e.(*jsast.Paren); ok {
			if c, ok := jsast.AnnotationOf[jsast.Cell](p.X); ok {
				jsast.Annotate(p, c)
			}
			return e
		}
		kids := jsast.Children(e)
		forced := false
		for i, kid := range kids {
			if jsast.IsCell(kid) {
				kids[i] = Force(kid)
				forced = true
			}
		}
		if !forced {
			return e
		}
		return jsast.WithChildren(e, kids)
	})
	c, ok := jsast.AnnotationOf[jsast.Cell](out)
	return &Resolved{root: out, cell: ok && !c.Maybe, maybe: ok && c.Maybe}
}

// IsCell reports whether the root of r is a definite cell.
func (r *Resolved) IsCell() bool { return r.cell }

// MayBeCell reports whether the root of r is a definite or possible cell.
func (r *Resolved) MayBeCell() bool { return r.cell || r.maybe }

// Variant returns a new tree for the requested output. If allowCell
// is set and the root is a cell reference, the root is left unread,
// so the result is the cell itself; otherwise the root is read.
func (r *Resolved) Variant(allowCell bool) jsast.Expr {
	e := jsast.Clone(r.root)
	if allowCell || !jsast.IsCell(e) {
		return e
	}
	return Force(e)
}

// Force returns an expression reading the cell e: e() for a definite
// cell, ko.unwrap(e) otherwise. The result keeps e's type annotation
// but not NotNull, which describes the cell rather than its value.
func Force(e jsast.Expr) jsast.Expr {
	var out jsast.Expr
	if c, _ := jsast.AnnotationOf[jsast.Cell](e); c.Maybe {
		out = jsast.Invoke(global("ko", "unwrap"), e)
	} else {
		out = jsast.Invoke(e)
	}
	if ti, ok := jsast.AnnotationOf[jsast.TypeInfo](e); ok {
		jsast.Annotate(out, ti)
	}
	return out
}

// CellWrapped returns r as a cell: the root itself if it is a definite
// cell, otherwise ko.pureComputed(() => value).
func (r *Resolved) CellWrapped() jsast.Expr {
	if r.cell {
		return r.Variant(true)
	}
	fn := &jsast.Arrow{Body: r.Variant(false)}
	return jsast.Invoke(global("ko", "pureComputed"), fn)
}
