// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scope models the chain of nested data contexts against which
// a binding expression is resolved.
//
// A Scope has a data type (the type of the view-model object that is
// the current context), an optional parent, a set of special parameters
// and a set of namespace imports. Scopes are immutable once created and
// may be shared by any number of bindings.
package scope // import "github.com/tomasmikes/dotvvm/scope"

import (
	"strings"

	"github.com/tomasmikes/dotvvm/types"
)

// A ParamKind classifies a special parameter by what supplies its value.
type ParamKind uint8

const (
	Custom     ParamKind = iota // supplied by name from the evaluation context
	Index                       // the index of the current collection element
	Control                     // the control on which the binding is evaluated
	Collection                  // the collection being iterated
)

var paramKindNames = [...]string{
	Custom:     "Custom",
	Index:      "CurrentCollectionIndex",
	Control:    "CurrentControl",
	Collection: "Collection",
}

func (k ParamKind) String() string { return paramKindNames[k] }

// A Parameter is a special identifier available in a scope in addition
// to the members of its data type.
type Parameter struct {
	Name    string
	Type    *types.Type
	Inherit bool // visible in descendant scopes
	Kind    ParamKind
}

// An Import makes the types of Namespace available, under Alias if not empty.
type Import struct {
	Alias     string
	Namespace string
}

// A Scope is one level of the data context chain.
type Scope struct {
	DataType   *types.Type
	Parent     *Scope
	Parameters []*Parameter
	Imports    []Import

	depth int
	key   string
}

// New returns a new scope nested in parent, which may be nil.
// The params and imports slices are retained and must not be modified.
func New(dataType *types.Type, parent *Scope, params []*Parameter, imports ...Import) *Scope {
	s := &Scope{
		DataType:   dataType,
		Parent:     parent,
		Parameters: params,
		Imports:    imports,
	}
	if parent != nil {
		s.depth = parent.depth + 1
	}
	s.key = s.describe()
	return s
}

// CollectionElement returns the scope of an element of a collection
// whose type is collection, nested in parent.
// It declares _index and _collection.
func CollectionElement(parent *Scope, collection *types.Type) *Scope {
	elem := collection.Elem
	if elem == nil {
		elem = types.Any
	}
	return New(elem, parent, []*Parameter{
		{Name: "_index", Type: types.Int, Inherit: true, Kind: Index},
		{Name: "_collection", Type: collection, Inherit: false, Kind: Collection},
	})
}

// Depth returns the number of ancestors of s.
func (s *Scope) Depth() int { return s.depth }

// Ancestor returns the n'th ancestor of s; Ancestor(0) is s.
// It returns nil if the chain is shorter than n.
func (s *Scope) Ancestor(n int) *Scope {
	for ; s != nil && n > 0; n-- {
		s = s.Parent
	}
	return s
}

// Root returns the outermost scope of the chain.
func (s *Scope) Root() *Scope {
	for s.Parent != nil {
		s = s.Parent
	}
	return s
}

// Resolve finds the special parameter named name, walking outward
// from s. A parameter declared in an outer scope is found only if
// it is inheritable. Resolve returns the parameter and the scope
// that declares it.
func (s *Scope) Resolve(name string) (*Parameter, *Scope, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		for _, p := range cur.Parameters {
			if p.Name == name && (cur == s || p.Inherit) {
				return p, cur, true
			}
		}
	}
	return nil, nil, false
}

// FindKind returns the innermost parameter visible from s with the given kind.
func (s *Scope) FindKind(kind ParamKind) (*Parameter, *Scope, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		for _, p := range cur.Parameters {
			if p.Kind == kind && (cur == s || p.Inherit) {
				return p, cur, true
			}
		}
	}
	return nil, nil, false
}

// Namespaces returns the imported namespaces visible from s,
// innermost first.
func (s *Scope) Namespaces() []string {
	var ns []string
	for cur := s; cur != nil; cur = cur.Parent {
		for _, imp := range cur.Imports {
			ns = append(ns, imp.Namespace)
		}
	}
	return ns
}

// LookupAlias returns the namespace imported under alias, if any.
func (s *Scope) LookupAlias(alias string) (string, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		for _, imp := range cur.Imports {
			if imp.Alias == alias {
				return imp.Namespace, true
			}
		}
	}
	return "", false
}

// Describe returns the canonical description of the chain, innermost
// level first. Each level is rendered as
//
//	Type(alias=ns,...;name*:Type:Kind,...) --
//
// where * marks an inheritable parameter.
func (s *Scope) Describe() string { return s.key }

// Key returns a string that is equal for structurally equal chains.
func (s *Scope) Key() string { return s.key }

// Equal reports whether s and t are structurally equal.
func (s *Scope) Equal(t *Scope) bool {
	if s == nil || t == nil {
		return s == t
	}
	return s == t || s.key == t.key
}

func (s *Scope) String() string { return s.key }

func (s *Scope) describe() string {
	var buf strings.Builder
	for cur := s; cur != nil; cur = cur.Parent {
		buf.WriteString(cur.DataType.String())
		buf.WriteByte('(')
		for i, imp := range cur.Imports {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(imp.Alias)
			buf.WriteByte('=')
			buf.WriteString(imp.Namespace)
		}
		buf.WriteByte(';')
		for i, p := range cur.Parameters {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(p.Name)
			if p.Inherit {
				buf.WriteByte('*')
			}
			buf.WriteByte(':')
			buf.WriteString(p.Type.String())
			buf.WriteByte(':')
			buf.WriteString(p.Kind.String())
		}
		buf.WriteString(") -- ")
	}
	return buf.String()
}
