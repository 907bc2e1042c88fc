// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsast

import "github.com/tomasmikes/dotvvm/types"

// TypeInfo records the static type of the server expression a node
// was translated from.
type TypeInfo struct {
	Type *types.Type
}

// Cell marks a node that evaluates to an observable cell rather than
// a plain value. If Maybe is set, the node may evaluate to either.
type Cell struct {
	Maybe bool
}

// FromParameter marks a node that references a scope parameter.
type FromParameter struct {
	Name string
}

// NotNull marks a node that never evaluates to null or undefined.
type NotNull struct{}

// Temporary marks an identifier introduced for a hoisted subexpression.
type Temporary struct{}

func (TypeInfo) annotation()      {}
func (Cell) annotation()          {}
func (FromParameter) annotation() {}
func (NotNull) annotation()       {}
func (Temporary) annotation()     {}

// TypeOf returns the static type recorded on e, or nil.
func TypeOf(e Expr) *types.Type {
	if ti, ok := AnnotationOf[TypeInfo](e); ok {
		return ti.Type
	}
	return nil
}

// IsCell reports whether e is annotated as a definite or possible cell.
func IsCell(e Expr) bool { return HasAnnotation[Cell](e) }
