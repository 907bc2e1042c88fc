// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compile

import (
	"github.com/tomasmikes/dotvvm/scope"
	"github.com/tomasmikes/dotvvm/typed"
)

// Write compiles the assignment of a value to the target denoted by e.
// It returns a nil WriteFunc and a nil error if e is not assignable:
// only writable fields and list or object elements are.
func Write(e typed.Expr, s *scope.Scope) (WriteFunc, error) {
	c := newCompiler(s)
	var store func(fr *frame, value any) error
	switch target := typed.Strip(e).(type) {
	case *typed.Member:
		f := target.Field
		if f.ReadOnly || (f.Set == nil && f.Get != nil) {
			return nil, nil
		}
		recv, err := c.expr(PropagateNulls(target.X))
		if err != nil {
			return nil, err
		}
		store = func(fr *frame, value any) error {
			r, err := recv(fr)
			if err != nil {
				return err
			}
			if r == nil {
				return evalErrorf(target, "assignment to %s of null", f.Name)
			}
			value = normalize(value, f.Type)
			if f.Set != nil {
				return f.Set(r, value)
			}
			obj, ok := r.(map[string]any)
			if !ok {
				return evalErrorf(target, "assignment to %s of %T", f.Name, r)
			}
			obj[f.Name] = value
			return nil
		}

	case *typed.Index:
		recv, err := c.expr(PropagateNulls(target.X))
		if err != nil {
			return nil, err
		}
		key, err := c.expr(PropagateNulls(target.Key))
		if err != nil {
			return nil, err
		}
		store = func(fr *frame, value any) error {
			r, err := recv(fr)
			if err != nil {
				return err
			}
			k, err := key(fr)
			if err != nil {
				return err
			}
			value = normalize(value, target.T)
			switch r := r.(type) {
			case []any:
				i, ok := k.(int64)
				if !ok || i < 0 || i >= int64(len(r)) {
					return evalErrorf(target, "index %v out of range [0:%d]", k, len(r))
				}
				r[i] = value
				return nil
			case map[string]any:
				name, ok := k.(string)
				if !ok {
					return evalErrorf(target, "object key must be a string, got %T", k)
				}
				r[name] = value
				return nil
			}
			return evalErrorf(target, "cannot assign element of %T", r)
		}

	default:
		return nil, nil
	}

	nslots := len(c.slots)
	return func(vms []any, ctl Control, value any) error {
		return store(&frame{vms: vms, ctl: ctl, locals: make([]any, nslots)}, value)
	}, nil
}
