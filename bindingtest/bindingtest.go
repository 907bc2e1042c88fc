// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bindingtest defines a small view-model type system and
// related fixtures shared by the tests of the binding compiler.
package bindingtest // import "github.com/tomasmikes/dotvvm/bindingtest"

import (
	"github.com/tomasmikes/dotvvm/scope"
	"github.com/tomasmikes/dotvvm/types"
)

// View-model types of the test application.
var (
	Address       = types.NewObject("App.Address")
	Customer      = types.NewObject("App.Customer")
	ListContainer = types.NewObject("App.ListContainer")
)

func init() {
	Address.AddField("City", types.String)
	Address.AddField("Zip", types.String)

	Customer.AddField("Name", types.String)
	Customer.AddField("Address", Address)
	Customer.AddField("Age", types.Int)
	Customer.AddField("Score", types.Nullable(types.Int))
	Customer.AddField("Active", types.Bool)
	Customer.AddField("Tags", types.ListOf(types.String))

	ListContainer.AddField("Items", types.ListOf(types.String))
	ListContainer.AddField("Title", types.String)
	ListContainer.AddField("Customer", Customer)
	ListContainer.AddField("Customers", types.ListOf(Customer))
	ListContainer.AddField("Numbers", types.ListOf(types.Int))
	ListContainer.AddField("Limit", types.Nullable(types.Int))
	ListContainer.AddField("Ratio", types.Float)
	ListContainer.AddField("Enabled", types.Bool)
	ListContainer.AddField("Version", types.Int).ReadOnly = true
}

// Universe returns a universe containing the test application types.
func Universe() *types.Universe {
	u := types.NewUniverse()
	for _, t := range []*types.Type{Address, Customer, ListContainer} {
		if err := u.Define(t); err != nil {
			panic(err)
		}
	}
	return u
}

// ControlParam is the special parameter bound to the current control.
var ControlParam = &scope.Parameter{Name: "_control", Type: types.Any, Kind: scope.Control}

// Root returns a root scope of type ListContainer that imports App.
func Root() *scope.Scope {
	return scope.New(ListContainer, nil, []*scope.Parameter{ControlParam}, scope.Import{Namespace: "App"})
}

// Customers returns the scope of an element of the Customers collection
// nested in Root.
func Customers() *scope.Scope {
	return scope.CollectionElement(Root(), ListContainer.Field("Customers").Type)
}

// NewCustomer returns a customer view model.
func NewCustomer(name string, age int64, city string) map[string]any {
	c := map[string]any{
		"Name":    name,
		"Age":     age,
		"Active":  true,
		"Score":   nil,
		"Tags":    []any{},
		"Address": nil,
	}
	if city != "" {
		c["Address"] = map[string]any{"City": city, "Zip": "10000"}
	}
	return c
}

// NewListContainer returns a ListContainer view model holding items.
func NewListContainer(items ...string) map[string]any {
	list := make([]any, len(items))
	for i, s := range items {
		list[i] = s
	}
	return map[string]any{
		"Items":     list,
		"Title":     "Items",
		"Customer":  NewCustomer("Alice", 30, "Prague"),
		"Customers": []any{NewCustomer("Bob", 41, "Brno"), NewCustomer("Carol", 25, "")},
		"Numbers":   []any{int64(1), int64(2), int64(3)},
		"Limit":     nil,
		"Ratio":     0.5,
		"Enabled":   true,
		"Version":   int64(7),
	}
}

// A Control supplies special parameter values during server-side
// evaluation. Indexes holds the current collection index of each
// enclosing scope, innermost first.
type Control struct {
	Element any
	Indexes []int64
	Values  map[string]any
}

// Parameter implements compile.Control.
func (c *Control) Parameter(p *scope.Parameter, depth int) (any, bool) {
	switch p.Kind {
	case scope.Control:
		return c.Element, true
	case scope.Index:
		if depth < len(c.Indexes) {
			return c.Indexes[depth], true
		}
		return nil, false
	}
	v, ok := c.Values[p.Name]
	return v, ok
}
