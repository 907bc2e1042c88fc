// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binding

import (
	"github.com/tomasmikes/dotvvm/compile"
	"github.com/tomasmikes/dotvvm/diag"
	"github.com/tomasmikes/dotvvm/identity"
	"github.com/tomasmikes/dotvvm/jsast"
	"github.com/tomasmikes/dotvvm/rewrite"
	"github.com/tomasmikes/dotvvm/scope"
	"github.com/tomasmikes/dotvvm/script"
	"github.com/tomasmikes/dotvvm/syntax"
	"github.com/tomasmikes/dotvvm/translate"
	"github.com/tomasmikes/dotvvm/typed"
	"github.com/tomasmikes/dotvvm/types"
)

// defaultResolvers is copied into every Compiler.
var defaultResolvers = map[Property]*Resolver{
	ParsedExpression: {
		Deps: []Property{OriginalString, DataContext},
		Fn: func(b *Binding, args []any) (any, error) {
			src, s := args[0].(string), args[1].(*scope.Scope)
			e, err := syntax.Parse(src, s, b.c.universe)
			if err != nil {
				return nil, err
			}
			if _, ok := e.(*typed.TypeRef); ok {
				return nil, diag.Errorf(diag.ParseAmbiguity, "%s is a type, not a value", e)
			}
			return e, nil
		},
	},
	ExpectedType: {
		Fn: func(*Binding, []any) (any, error) { return types.Any, nil },
	},
	LocationInfo: {
		Optional: []Property{TreeRoot, DeclaringProperty},
		Fn: func(_ *Binding, args []any) (any, error) {
			root, _ := args[0].(string)
			prop, _ := args[1].(string)
			return Location{File: root, Line: -1, RelatedProperty: prop}, nil
		},
	},

	ResultType: {
		Deps: []Property{ParsedExpression},
		Fn: func(_ *Binding, args []any) (any, error) {
			return args[0].(typed.Expr).Type(), nil
		},
	},
	CastedExpression: {
		Deps: []Property{ParsedExpression, ExpectedType},
		Fn: func(_ *Binding, args []any) (any, error) {
			return compile.Convert(args[0].(typed.Expr), args[1].(*types.Type), true)
		},
	},
	ReadDelegate: {
		Deps: []Property{CastedExpression, DataContext},
		Fn: func(_ *Binding, args []any) (any, error) {
			return compile.Read(args[0].(typed.Expr), args[1].(*scope.Scope))
		},
	},
	WriteDelegate: {
		Deps: []Property{ParsedExpression, DataContext},
		Fn: func(_ *Binding, args []any) (any, error) {
			return compile.Write(args[0].(typed.Expr), args[1].(*scope.Scope))
		},
	},

	ScriptAST: {
		Deps: []Property{CastedExpression, DataContext},
		Fn: func(b *Binding, args []any) (any, error) {
			return b.c.translator.Translate(args[0].(typed.Expr), args[1].(*scope.Scope))
		},
	},
	ResolvedScript: {
		Deps: []Property{ScriptAST},
		Fn: func(_ *Binding, args []any) (any, error) {
			return translate.ResolveCells(args[0].(jsast.Expr)), nil
		},
	},
	CellScript: {
		Deps: []Property{ResolvedScript},
		Fn: func(b *Binding, args []any) (any, error) {
			return b.c.format(args[0].(*translate.Resolved).Variant(true)), nil
		},
	},
	ValueScript: {
		Deps: []Property{ResolvedScript},
		Fn: func(b *Binding, args []any) (any, error) {
			return b.c.format(args[0].(*translate.Resolved).Variant(false)), nil
		},
	},
	CellWrappedScript: {
		Deps: []Property{ResolvedScript},
		Fn: func(b *Binding, args []any) (any, error) {
			return b.c.format(args[0].(*translate.Resolved).CellWrapped()), nil
		},
	},
	OptionsLambdaScript: {
		Deps: []Property{ResolvedScript},
		Fn: func(b *Binding, args []any) (any, error) {
			body := b.c.rewrite(args[0].(*translate.Resolved).Variant(false))
			code := script.Format(&jsast.Arrow{Params: []string{"options"}, Body: body}, b.c.opts.Debug)
			code = code.Assign(translate.ContextSlot, "options.knockoutContext")
			return code.Assign(translate.DataSlot, "options.viewModel"), nil
		},
	},
	SimplePath: {
		Deps: []Property{ScriptAST},
		Fn: func(_ *Binding, args []any) (any, error) {
			return script.Format(args[0].(jsast.Expr), false), nil
		},
	},

	SiblingIndex: {
		Deps:     []Property{DataContext},
		Optional: []Property{TreeRoot},
		Fn: func(b *Binding, args []any) (any, error) {
			root, _ := args[1].(string)
			if root == "" {
				return -1, nil
			}
			return b.c.session.NextIndex(root, args[0].(*scope.Scope)), nil
		},
	},
	ID: {
		Deps:     []Property{DataContext, SiblingIndex},
		Optional: []Property{OriginalString, ParsedExpression, LocationInfo, DeclaringProperty},
		Fn: func(_ *Binding, args []any) (any, error) {
			in := identity.Input{Scope: args[0].(*scope.Scope)}
			if i := args[1].(int); i >= 0 {
				in.Index, in.HasIndex = i, true
			}
			if src, ok := args[2].(string); ok {
				in.Code = src
			} else if e, ok := args[3].(typed.Expr); ok {
				in.Code = e.String()
			} else {
				return nil, diag.Errorf(diag.NoResolver, "binding has neither source text nor expression")
			}
			if loc, ok := args[4].(Location); ok {
				in.Property = loc.RelatedProperty
			}
			if in.Property == "" {
				in.Property, _ = args[5].(string)
			}
			return identity.Compute(in), nil
		},
	},

	NegatedBinding:            derived(negate),
	IsNullBinding:             derived(isNull),
	IsNullOrEmptyBinding:      derived(stringTest("IsNullOrEmpty")),
	IsNullOrWhitespaceBinding: derived(stringTest("IsNullOrWhiteSpace")),
	IsMoreThanZeroBinding: derived(func(e typed.Expr) (typed.Expr, error) {
		return typed.NewBinary(typed.Greater, e, typed.NewConst(0))
	}),
	DataSourceLength: derived(func(e typed.Expr) (typed.Expr, error) {
		switch e.Type().Kind {
		case types.ListKind:
			return typed.NewMember(e, "Count")
		case types.StringKind:
			return typed.NewMember(e, "Length")
		}
		return nil, diag.Errorf(diag.UnsupportedShape, "cannot find the length of %s of type %s", e, e.Type())
	}),
	DataSourceAccess: {
		Deps: []Property{ParsedExpression},
		Fn: func(b *Binding, args []any) (any, error) {
			if e := args[0].(typed.Expr); e.Type().Kind != types.ListKind {
				return nil, diag.Errorf(diag.UnsupportedShape, "cannot make a data source of %s of type %s", e, e.Type())
			}
			return b, nil
		},
	},
	CollectionElementScope: {
		Deps: []Property{DataContext, ResultType},
		Fn: func(_ *Binding, args []any) (any, error) {
			s, t := args[0].(*scope.Scope), args[1].(*types.Type)
			if t.Kind != types.ListKind {
				return nil, diag.Errorf(diag.UnsupportedShape, "%s is not a collection", t)
			}
			return scope.CollectionElement(s, t), nil
		},
	},
	DataSourceCurrentElement: {
		Deps: []Property{ParsedExpression, CollectionElementScope},
		Fn: func(b *Binding, args []any) (any, error) {
			e, s := args[0].(typed.Expr), args[1].(*scope.Scope)
			p, owner, ok := s.FindKind(scope.Index)
			if !ok {
				return nil, diag.Errorf(diag.UnsupportedShape, "no collection index in %s", s.DataType)
			}
			index := &typed.Index{
				X:   e,
				Key: &typed.Param{Name: p.Name, Scope: owner, Special: p},
				T:   s.DataType,
			}
			return b.Derive(index, s), nil
		},
	},
	ThisBinding: {
		Deps: []Property{DataContext},
		Fn: func(b *Binding, args []any) (any, error) {
			s := args[0].(*scope.Scope)
			return b.Derive(typed.DataContext(s, "_this"), s), nil
		},
	},
	ReferencedProperties: {
		Deps: []Property{ParsedExpression},
		Fn: func(b *Binding, args []any) (any, error) {
			return references(b, args[0].(typed.Expr)), nil
		},
	},
}

// derived returns a resolver of a binding of f(expression).
func derived(f func(typed.Expr) (typed.Expr, error)) *Resolver {
	return &Resolver{
		Deps: []Property{ParsedExpression},
		Fn: func(b *Binding, args []any) (any, error) {
			e, err := f(args[0].(typed.Expr))
			if err != nil {
				return nil, err
			}
			return b.Derive(e, nil), nil
		},
	}
}

// negate returns the negation of e. Negations and equality tests are
// inverted; comparisons are not, because a comparison with null is
// false on both sides of its inverse on the server.
func negate(e typed.Expr) (typed.Expr, error) {
	switch e := e.(type) {
	case *typed.Unary:
		if e.Op == typed.Not {
			return e.X, nil
		}
	case *typed.Binary:
		switch e.Op {
		case typed.Equal:
			return &typed.Binary{Op: typed.NotEqual, X: e.X, Y: e.Y, T: e.T}, nil
		case typed.NotEqual:
			return &typed.Binary{Op: typed.Equal, X: e.X, Y: e.Y, T: e.T}, nil
		}
	}
	return typed.NewUnary(typed.Not, e)
}

func isNull(e typed.Expr) (typed.Expr, error) {
	t := e.Type()
	if t.Kind.IsValue() && !t.Nullable {
		return typed.NewConst(false), nil
	}
	return typed.NewBinary(typed.Equal, e, typed.Null)
}

func stringTest(method string) func(typed.Expr) (typed.Expr, error) {
	return func(e typed.Expr) (typed.Expr, error) {
		if e.Type().Kind != types.StringKind {
			return nil, diag.Errorf(diag.UnsupportedShape, "%s is of type %s, not %s", e, e.Type(), types.String)
		}
		call, err := typed.NewCall(nil, types.String, method, e)
		if err != nil {
			return nil, diag.Errorf(diag.UnsupportedShape, "%v", err)
		}
		return call, nil
	}
}

// references collects the fields read by e and finds its main field.
func references(b *Binding, e typed.Expr) *References {
	refs := new(References)
	for _, m := range typed.Members(e) {
		refs.All = append(refs.All, m.Field)
	}
	for {
		switch x := e.(type) {
		case *typed.Unary:
			e = x.X
			continue
		case *typed.Convert:
			e = x.X
			continue
		case *typed.Call:
			if x.Method.Name == "ToString" {
				if x.X != nil {
					e = x.X
				} else {
					e = x.Args[0]
				}
				continue
			}
		case *typed.Binary:
			if _, ok := x.Y.(*typed.Const); ok {
				e = x.X
				continue
			}
			if _, ok := x.X.(*typed.Const); ok {
				e = x.Y
				continue
			}
		}
		break
	}
	if m, ok := e.(*typed.Member); ok {
		refs.Main = m.Field
	}
	refs.Unwrapped = b.Derive(e, nil)
	return refs
}

// rewrite applies the script passes selected by the options.
func (c *Compiler) rewrite(e jsast.Expr) jsast.Expr {
	if c.opts.NullChecks {
		e = rewrite.AddNullChecks(e)
	}
	return rewrite.Prettify(rewrite.HoistTemporaries(e))
}

func (c *Compiler) format(e jsast.Expr) *script.Code {
	return script.Format(c.rewrite(e), c.opts.Debug)
}
