// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package binding compiles binding expressions into their server,
// client and identity artifacts.
//
// A Binding holds the inputs of one binding: its source text or typed
// expression, its scope and optional metadata. Every other artifact is
// a Property computed on first request by a Resolver from other
// properties, and then remembered. A binding that is only evaluated
// on the server is therefore never translated to script.
//
//	c := binding.NewCompiler(universe, binding.Options{NullChecks: true})
//	b := c.New(binding.Input{Code: "Items.Count > 0", Scope: s})
//	read, err := b.ReadFunc()
//	code, err := b.ValueScript()
//
// Get may be called concurrently. Two goroutines that request the
// same property at once may both compute it; the first result stored
// is the one returned to both.
package binding // import "github.com/tomasmikes/dotvvm/binding"

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tomasmikes/dotvvm/compile"
	"github.com/tomasmikes/dotvvm/diag"
	"github.com/tomasmikes/dotvvm/identity"
	"github.com/tomasmikes/dotvvm/scope"
	"github.com/tomasmikes/dotvvm/script"
	"github.com/tomasmikes/dotvvm/typed"
	"github.com/tomasmikes/dotvvm/types"
)

// Input holds the inputs of a binding. Code or Expr must be set;
// if both are, Expr is used and Code serves as the source text.
type Input struct {
	Code         string
	Expr         typed.Expr
	Scope        *scope.Scope
	ExpectedType *types.Type
	Property     string // full name of the declaring property
	TreeRoot     string // e.g. the markup file name
	Location     *Location
}

// Location describes where a binding appears in markup.
type Location struct {
	File            string
	Line            int // -1 if unknown
	Ranges          [][2]int
	RelatedProperty string
}

// References lists the view-model fields a binding reads.
type References struct {
	// Main is the field whose value the binding essentially is, after
	// conversions, negation and arithmetic with constants are removed.
	// It is nil if there is no such field.
	Main *types.Field

	// All holds every field access in pre-order.
	All []*types.Field

	// Unwrapped is the binding of the expression Main was found in.
	Unwrapped *Binding
}

type entry struct {
	value any
	err   error
}

// A Binding is one compilation unit.
type Binding struct {
	c *Compiler

	mu   sync.Mutex
	memo map[Property]entry
}

func (c *Compiler) newBinding() *Binding {
	return &Binding{c: c, memo: make(map[Property]entry)}
}

// New returns a binding with the given inputs.
func (c *Compiler) New(in Input) *Binding {
	b := c.newBinding()
	if in.Scope != nil {
		b.seed(DataContext, in.Scope)
	}
	if in.Code != "" {
		b.seed(OriginalString, in.Code)
	}
	if in.Expr != nil {
		b.seed(ParsedExpression, in.Expr)
	}
	if in.ExpectedType != nil {
		b.seed(ExpectedType, in.ExpectedType)
	}
	if in.Property != "" {
		b.seed(DeclaringProperty, in.Property)
	}
	if in.TreeRoot != "" {
		b.seed(TreeRoot, in.TreeRoot)
	}
	if in.Location != nil {
		b.seed(LocationInfo, *in.Location)
	}
	return b
}

// Derive returns a binding of e in the scope s, sharing the location
// metadata of b. If s is nil, the scope of b is used.
func (b *Binding) Derive(e typed.Expr, s *scope.Scope) *Binding {
	d := b.c.newBinding()
	d.seed(ParsedExpression, e)
	if s == nil {
		s, _ = b.Scope()
	}
	if s != nil {
		d.seed(DataContext, s)
	}
	for _, p := range []Property{DeclaringProperty, TreeRoot, LocationInfo} {
		if v, ok := b.memoized(p); ok {
			d.seed(p, v)
		}
	}
	return d
}

func (b *Binding) seed(p Property, v any) { b.memo[p] = entry{value: v} }

func (b *Binding) memoized(p Property) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.memo[p]
	if !ok || e.err != nil {
		return nil, false
	}
	return e.value, true
}

// Get returns the value of property p, computing it if necessary.
// Errors are remembered like values.
func (b *Binding) Get(p Property) (any, error) {
	v, err := b.get(p, nil)
	if err != nil {
		return nil, b.annotate(err)
	}
	return v, nil
}

// Has reports whether p has been computed or supplied.
func (b *Binding) Has(p Property) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.memo[p]
	return ok
}

// get resolves p. chain holds the properties being resolved by the
// calling goroutine, outermost first.
func (b *Binding) get(p Property, chain []Property) (any, error) {
	b.mu.Lock()
	e, ok := b.memo[p]
	b.mu.Unlock()
	if ok {
		return e.value, e.err
	}

	if slices.Contains(chain, p) {
		names := make([]string, 0, len(chain)+1)
		for _, q := range chain[slices.Index(chain, p):] {
			names = append(names, q.String())
		}
		names = append(names, p.String())
		return nil, diag.Errorf(diag.CyclicDependency, "%s", strings.Join(names, " -> "))
	}
	r, ok := b.c.resolvers[p]
	if !ok || r == nil || r.Fn == nil {
		return nil, diag.Errorf(diag.NoResolver, "no resolver for %s", p)
	}
	if b.c.opts.Trace != nil {
		b.c.opts.Trace("resolving %s%s", p, b.describe())
	}

	chain = append(slices.Clip(chain), p)
	args := make([]any, 0, len(r.Deps)+len(r.Optional))
	var (
		v   any
		err error
	)
	for _, d := range r.Deps {
		var dv any
		if dv, err = b.get(d, chain); err != nil {
			break
		}
		args = append(args, dv)
	}
	if err == nil {
		for _, d := range r.Optional {
			dv, derr := b.get(d, chain)
			if derr != nil {
				if errors.Is(derr, diag.CyclicDependency) {
					err = derr
					break
				}
				dv = nil
			}
			args = append(args, dv)
		}
	}
	if err == nil {
		v, err = r.Fn(b, args)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.memo[p]; ok {
		return e.value, e.err
	}
	if !errors.Is(err, diag.CyclicDependency) {
		b.memo[p] = entry{value: v, err: err}
	}
	return v, err
}

func (b *Binding) describe() string {
	if src, ok := b.memoized(OriginalString); ok {
		return fmt.Sprintf(" of %q", src)
	}
	if e, ok := b.memoized(ParsedExpression); ok {
		return fmt.Sprintf(" of %s", e)
	}
	return ""
}

// annotate attaches the source text of b to err.
func (b *Binding) annotate(err error) error {
	src, _ := b.memoized(OriginalString)
	s, _ := src.(string)
	if s == "" {
		if e, ok := b.memoized(ParsedExpression); ok {
			s = e.(typed.Expr).String()
		}
	}
	if diag.KindOf(err) != 0 {
		return diag.WithSource(err, s, 0)
	}
	if s == "" {
		return err
	}
	return fmt.Errorf("%s: %w", s, err)
}

// get returns property p of b as a T. A nil value yields the zero T.
func get[T any](b *Binding, p Property) (T, error) {
	var zero T
	v, err := b.Get(p)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s is %T, not %T", p, v, zero)
	}
	return t, nil
}

// Accessors for the commonly used properties.

func (b *Binding) Scope() (*scope.Scope, error)        { return get[*scope.Scope](b, DataContext) }
func (b *Binding) Expr() (typed.Expr, error)           { return get[typed.Expr](b, ParsedExpression) }
func (b *Binding) ResultType() (*types.Type, error)    { return get[*types.Type](b, ResultType) }
func (b *Binding) ReadFunc() (compile.ReadFunc, error) { return get[compile.ReadFunc](b, ReadDelegate) }

// WriteFunc returns the write-back of b, or nil if b is not assignable.
func (b *Binding) WriteFunc() (compile.WriteFunc, error) {
	return get[compile.WriteFunc](b, WriteDelegate)
}

func (b *Binding) CellScript() (*script.Code, error)  { return get[*script.Code](b, CellScript) }
func (b *Binding) ValueScript() (*script.Code, error) { return get[*script.Code](b, ValueScript) }
func (b *Binding) ID() (identity.ID, error)           { return get[identity.ID](b, ID) }

// Derived returns the binding stored in property p, which must be one
// of the derived binding properties.
func (b *Binding) Derived(p Property) (*Binding, error) { return get[*Binding](b, p) }

// Negated returns the binding of the negation of b.
func (b *Binding) Negated() (*Binding, error) { return b.Derived(NegatedBinding) }

// References returns the view-model fields read by b.
func (b *Binding) References() (*References, error) {
	return get[*References](b, ReferencedProperties)
}
