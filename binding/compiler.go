// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binding

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"sync"

	"github.com/tomasmikes/dotvvm/compile"
	"github.com/tomasmikes/dotvvm/identity"
	"github.com/tomasmikes/dotvvm/script"
	"github.com/tomasmikes/dotvvm/translate"
	"github.com/tomasmikes/dotvvm/types"
)

// Options control compilation.
type Options struct {
	// NullChecks guards client member accesses on nullable receivers.
	NullChecks bool

	// Debug formats scripts for reading.
	Debug bool

	// Workers bounds the number of bindings CompilePage compiles at
	// once. Zero means GOMAXPROCS.
	Workers int

	// FailFast makes CompilePage stop at the first failing binding.
	FailFast bool

	// Registry holds the client translations.
	// If nil, the default registry is used.
	Registry *translate.Registry

	// Session holds the sibling-index counters.
	// If nil, the compiler creates its own.
	Session *identity.Session

	// Trace, if not nil, is called as each property is resolved.
	Trace func(format string, args ...any)
}

// A Resolver computes a property from other properties.
// Fn receives the values of Deps followed by those of Optional;
// an optional property that cannot be resolved is passed as nil.
type Resolver struct {
	Deps     []Property
	Optional []Property
	Fn       func(b *Binding, args []any) (any, error)
}

// A Compiler creates bindings that share options and a session.
type Compiler struct {
	opts       Options
	universe   *types.Universe
	translator *translate.Translator
	session    *identity.Session
	resolvers  map[Property]*Resolver
}

// NewCompiler returns a compiler that resolves type names in u.
func NewCompiler(u *types.Universe, opts Options) *Compiler {
	c := &Compiler{
		opts:       opts,
		universe:   u,
		translator: translate.New(opts.Registry),
		session:    opts.Session,
		resolvers:  maps.Clone(defaultResolvers),
	}
	if c.session == nil {
		c.session = identity.NewSession()
	}
	return c
}

// SetResolver replaces the resolver of p; nil removes it.
// It must not be called once bindings are being resolved.
func (c *Compiler) SetResolver(p Property, r *Resolver) {
	if r == nil {
		delete(c.resolvers, p)
		return
	}
	c.resolvers[p] = r
}

// Session returns the session of c.
func (c *Compiler) Session() *identity.Session { return c.session }

// Options returns the options of c.
func (c *Compiler) Options() Options { return c.opts }

// A Result holds the artifacts of one binding of a page.
type Result struct {
	Binding *Binding
	ID      identity.ID
	Read    compile.ReadFunc
	Write   compile.WriteFunc
	Value   *script.Code
	Cell    *script.Code
	Err     error
}

// A PageResult holds the results of CompilePage, in input order.
type PageResult struct {
	Results []*Result
	Errors  []error
}

// OK reports whether every binding compiled.
func (r *PageResult) OK() bool { return len(r.Errors) == 0 }

// CompilePage compiles the bindings of one page concurrently.
//
// Sibling indexes are assigned in input order before compilation
// starts, so IDs do not depend on scheduling. A failing binding does
// not affect the others; its error is recorded in its Result and in
// Errors. With Options.FailFast, CompilePage instead returns the first
// error and abandons bindings not yet started.
func (c *Compiler) CompilePage(ctx context.Context, inputs []Input) (*PageResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	res := &PageResult{Results: make([]*Result, len(inputs))}
	for i, in := range inputs {
		b := c.New(in)
		res.Results[i] = &Result{Binding: b}
		if in.TreeRoot != "" {
			if _, err := b.Get(SiblingIndex); err != nil {
				res.Results[i].Err = err
			}
		}
	}

	workers := c.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var (
		wg    sync.WaitGroup
		sem   = make(chan struct{}, workers)
		mu    sync.Mutex
		first error
	)
	for i, r := range res.Results {
		if r.Err != nil {
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer func() { <-sem; wg.Done() }()
			r.Err = r.compile()
			if r.Err != nil && c.opts.FailFast {
				mu.Lock()
				if first == nil {
					first = fmt.Errorf("binding %d: %w", i, r.Err)
				}
				mu.Unlock()
				cancel()
			}
		}()
	}
	wg.Wait()

	if first != nil {
		return nil, first
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, r := range res.Results {
		if r.Err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("binding %d: %w", i, r.Err))
		}
	}
	return res, nil
}

func (r *Result) compile() error {
	b := r.Binding
	var err error
	if r.ID, err = b.ID(); err != nil {
		return err
	}
	if r.Read, err = b.ReadFunc(); err != nil {
		return err
	}
	if r.Write, err = b.WriteFunc(); err != nil {
		return err
	}
	if r.Value, err = b.ValueScript(); err != nil {
		return err
	}
	if r.Cell, err = b.CellScript(); err != nil {
		return err
	}
	return nil
}
