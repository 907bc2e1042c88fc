// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scope_test

import (
	"testing"

	"github.com/tomasmikes/dotvvm/scope"
	"github.com/tomasmikes/dotvvm/types"
)

func TestResolve(t *testing.T) {
	page := types.NewObject("App.Page")
	ctl := &scope.Parameter{Name: "_control", Type: types.Any, Kind: scope.Control}
	app := &scope.Parameter{Name: "_app", Type: types.String, Inherit: true}
	root := scope.New(page, nil, []*scope.Parameter{ctl, app})
	items := scope.CollectionElement(root, types.ListOf(types.String))
	inner := scope.CollectionElement(items, types.ListOf(types.Int))

	for i, test := range []struct {
		s     *scope.Scope
		name  string
		owner *scope.Scope // nil => not found
	}{
		{root, "_control", root},
		{root, "_app", root},
		{items, "_control", nil}, // not inheritable
		{items, "_app", root},
		{items, "_index", items},
		{items, "_collection", items},
		{inner, "_index", inner}, // shadows the outer _index
		{inner, "_collection", inner},
		{inner, "_app", root},
		{inner, "nope", nil},
	} {
		_, owner, ok := test.s.Resolve(test.name)
		if ok != (test.owner != nil) || owner != test.owner {
			t.Errorf("#%d: Resolve(%s) = %v, %t; want %v", i, test.name, owner, ok, test.owner)
		}
	}

	if inner.Depth() != 2 || inner.Ancestor(2) != root || inner.Root() != root {
		t.Errorf("bad chain: depth %d", inner.Depth())
	}
	if inner.Ancestor(3) != nil {
		t.Error("Ancestor beyond root should be nil")
	}
}

func TestDescribe(t *testing.T) {
	page := types.NewObject("App.Page")
	root := scope.New(page, nil, nil, scope.Import{Alias: "m", Namespace: "System"})
	items := scope.CollectionElement(root, types.ListOf(types.String))

	const want = "System.String(;_index*:System.Int32:CurrentCollectionIndex,_collection:List<System.String>:Collection) -- " +
		"App.Page(m=System;) -- "
	if got := items.Describe(); got != want {
		t.Errorf("Describe() =\n%s\nwant\n%s", got, want)
	}

	// Structurally equal chains built separately are equal.
	root2 := scope.New(page, nil, nil, scope.Import{Alias: "m", Namespace: "System"})
	items2 := scope.CollectionElement(root2, types.ListOf(types.String))
	if !items.Equal(items2) {
		t.Error("structurally equal scopes compare unequal")
	}
	if items.Equal(root) {
		t.Error("distinct scopes compare equal")
	}

	// A parameter moved to a different level changes the description.
	p := &scope.Parameter{Name: "x", Type: types.Int}
	a := scope.New(page, scope.New(page, nil, []*scope.Parameter{p}), nil)
	b := scope.New(page, scope.New(page, nil, nil), []*scope.Parameter{p})
	if a.Describe() == b.Describe() {
		t.Errorf("distinct chains share description %q", a.Describe())
	}
}

func TestImports(t *testing.T) {
	root := scope.New(types.Any, nil, nil, scope.Import{Namespace: "App"}, scope.Import{Alias: "sys", Namespace: "System"})
	child := scope.New(types.Any, root, nil, scope.Import{Namespace: "App.Models"})
	if got := child.Namespaces(); len(got) != 3 || got[0] != "App.Models" {
		t.Errorf("Namespaces() = %v", got)
	}
	if ns, ok := child.LookupAlias("sys"); !ok || ns != "System" {
		t.Errorf("LookupAlias(sys) = %q, %t", ns, ok)
	}
}
