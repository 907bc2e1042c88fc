// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"strconv"

	"github.com/tomasmikes/dotvvm/diag"
	"github.com/tomasmikes/dotvvm/typed"
	"github.com/tomasmikes/dotvvm/types"
)

// Implicit returns e converted to dest by an implicit conversion:
// identity, boxing to Any, lifting to a nullable type, widening of
// integers to floats, or typing of the null literal.
func Implicit(e typed.Expr, dest *types.Type) (typed.Expr, bool) {
	t := e.Type()
	switch {
	case types.Identical(t, dest):
		return e, true
	case dest.Kind == types.AnyKind:
		return &typed.Convert{X: e, T: dest, Kind: typed.Box}, true
	case isNull(e):
		if dest.Nullable {
			return &typed.Const{Value: nil, T: dest}, true
		}
		return nil, false
	case dest.Nullable && types.Identical(t, dest.Underlying()):
		return &typed.Convert{X: e, T: dest, Kind: typed.Lift}, true
	case t.Kind == types.IntKind && dest.Kind == types.FloatKind && (dest.Nullable || !t.Nullable):
		return &typed.Convert{X: e, T: dest, Kind: typed.Numeric}, true
	case t.Kind == types.ListKind && dest.Kind == types.ListKind && dest.Elem.Kind == types.AnyKind:
		return &typed.Convert{X: e, T: dest, Kind: typed.Box}, true
	}
	return nil, false
}

func isNull(e typed.Expr) bool {
	c, ok := e.(*typed.Const)
	return ok && c.Value == nil
}

// LambdaConversion wraps e in a function literal if dest is a function
// type whose result e converts to. The parameters of the function are
// ignored.
func LambdaConversion(e typed.Expr, dest *types.Type) (typed.Expr, bool) {
	if dest.Kind != types.FuncKind || dest.Result == nil {
		return nil, false
	}
	body, ok := e, true
	if dest.Result.Kind != types.VoidKind {
		body, ok = Implicit(e, dest.Result)
	}
	if !ok {
		return nil, false
	}
	params := make([]*typed.Local, len(dest.Params))
	for i, t := range dest.Params {
		params[i] = &typed.Local{Name: "_arg" + strconv.Itoa(i), T: t}
	}
	return &typed.Lambda{Params: params, Body: body, T: dest}, true
}

// Convert converts e to the type dest, trying in order an implicit
// conversion, rendering to a string (if allowToString is set and dest
// is System.String) and a lambda conversion. An expression of type
// Any, such as the null literal, tries the lambda conversion first.
// Nothing is converted to Void.
func Convert(e typed.Expr, dest *types.Type, allowToString bool) (typed.Expr, error) {
	if dest == nil || dest.Kind == types.VoidKind {
		return e, nil
	}
	converted, ok := Implicit(e, dest)
	if !ok && allowToString && dest.Kind == types.StringKind {
		converted, ok = &typed.Convert{X: e, T: dest, Kind: typed.ToString}, true
	}
	if ok && e.Type().Kind != types.AnyKind {
		return converted, nil
	}
	if l, ok := LambdaConversion(e, dest); ok {
		return l, nil
	}
	if ok {
		return converted, nil
	}
	return nil, diag.Errorf(diag.TypeConversionFailure, "cannot convert %s of type %s to %s", e, e.Type(), dest)
}

// Explicit converts e to dest, also allowing the conversions that
// may fail at run time: unboxing from Any and from nullable types.
func Explicit(e typed.Expr, dest *types.Type) (typed.Expr, error) {
	if c, ok := Implicit(e, dest); ok {
		return c, nil
	}
	t := e.Type()
	if t.Kind == types.AnyKind || (t.Nullable && types.Identical(t.Underlying(), dest)) {
		return &typed.Convert{X: e, T: dest, Kind: typed.Unbox}, nil
	}
	if t.Kind.IsNumeric() && dest.Kind.IsNumeric() {
		return &typed.Convert{X: e, T: dest, Kind: typed.Numeric}, nil
	}
	return nil, diag.Errorf(diag.TypeConversionFailure, "cannot convert %s of type %s to %s", e, t, dest)
}
