// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomasmikes/dotvvm/binding"
	"github.com/tomasmikes/dotvvm/bindingtest"
	"github.com/tomasmikes/dotvvm/config"
	"github.com/tomasmikes/dotvvm/types"
)

func TestLoad(t *testing.T) {
	c, err := config.Load("testdata/orders.toml")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(config.Compiler{NullChecks: false, Workers: 2}, c.Compiler); diff != "" {
		t.Errorf("compiler (-want +got):\n%s", diff)
	}
	wantPage := config.Page{
		Name:     "orders.dothtml",
		DataType: "OrderList",
		Imports:  []string{"Shop"},
		ViewModel: map[string]any{
			"Title": "Orders",
			"Limit": int64(10),
			"Orders": []any{
				map[string]any{
					"Id": int64(1), "Total": 12.5, "Paid": true,
					"Address": map[string]any{"City": "Brno", "Zip": "60200"},
				},
				map[string]any{"Id": int64(2), "Total": 3.0, "Paid": false},
			},
		},
	}
	if diff := cmp.Diff(wantPage, c.Page); diff != "" {
		t.Errorf("page (-want +got):\n%s", diff)
	}
	wantBindings := []*config.Binding{
		{Code: "Title", Property: "Literal.Text"},
		{Code: "Orders.Count > 0", Property: "HtmlGenericControl.Visible", ExpectedType: "bool"},
		{Code: "Address.City", Property: "Literal.Text", Collection: "Orders"},
		{Code: "Total * 2", Property: "Literal.Text", ExpectedType: "string", Collection: "Orders"},
	}
	if diff := cmp.Diff(wantBindings, c.Bindings); diff != "" {
		t.Errorf("bindings (-want +got):\n%s", diff)
	}
	if len(c.Types) != 3 || c.Types[1].Name != "Shop.Order" {
		t.Errorf("types = %v", c.Types)
	}
}

func TestCompile(t *testing.T) {
	c, err := config.Load("testdata/orders.toml")
	if err != nil {
		t.Fatal(err)
	}
	u, err := c.Universe()
	if err != nil {
		t.Fatal(err)
	}
	order := u.Lookup("Shop.Order")
	if order == nil {
		t.Fatal("Shop.Order is not defined")
	}
	if f := order.Field("Id"); f == nil || !f.ReadOnly || f.Type != types.Int {
		t.Errorf("Shop.Order.Id = %+v", f)
	}
	if f := order.Field("Address"); f == nil || f.Type != u.Lookup("Shop.Address") {
		t.Errorf("Shop.Order.Address = %+v", f)
	}

	root, err := c.Scope(u)
	if err != nil {
		t.Fatal(err)
	}
	inputs, err := c.Inputs(u, root)
	if err != nil {
		t.Fatal(err)
	}
	if inputs[2].Scope.Parent != root || inputs[2].Scope != inputs[3].Scope {
		t.Error("collection bindings do not share an element scope")
	}
	if inputs[1].ExpectedType != types.Bool || inputs[0].TreeRoot != "orders.dothtml" {
		t.Errorf("inputs[1] = %+v", inputs[1])
	}

	res, err := binding.NewCompiler(u, c.Options()).CompilePage(context.Background(), inputs)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK() {
		t.Fatalf("errors: %v", res.Errors)
	}

	vm := c.Page.ViewModel
	first := vm["Orders"].([]any)[0]
	for i, test := range []struct {
		vms  []any
		want any
	}{
		{[]any{vm}, "Orders"},
		{[]any{vm}, true},
		{[]any{first, vm}, "Brno"},
	} {
		got, err := res.Results[i].Read(test.vms, &bindingtest.Control{Indexes: []int64{0}})
		if err != nil {
			t.Errorf("#%d: %v", i, err)
			continue
		}
		if got != test.want {
			t.Errorf("#%d: %s = %v, want %v", i, inputs[i].Code, got, test.want)
		}
	}
}

func TestDefault(t *testing.T) {
	c := config.Default()
	if !c.Options().NullChecks {
		t.Error("null checks are off by default")
	}
	u, err := c.Universe()
	if err != nil {
		t.Fatal(err)
	}
	s, err := c.Scope(u)
	if err != nil {
		t.Fatal(err)
	}
	if s.DataType != types.Any {
		t.Errorf("default data type = %s", s.DataType)
	}
}

func TestErrors(t *testing.T) {
	for i, test := range []struct {
		src, want string
	}{
		{`[compiler]
workers = -1`, "must not be negative"},
		{`[[bindings]]
property = "Literal.Text"`, "bindings[0] has no code"},
		{`[[types]]
fields = { A = "int" }`, "types[0] has no name"},
		{`[compiler`, ""},
	} {
		_, err := config.Parse([]byte(test.src))
		if err == nil || !strings.Contains(err.Error(), test.want) {
			t.Errorf("#%d: got %v, want error containing %q", i, err, test.want)
		}
	}

	for i, test := range []struct {
		src, want string
	}{
		{`[[types]]
name = "A.T"
fields = { X = "Missing" }`, "A.T.X: undefined type Missing"},
		{`[[types]]
name = "A.T"
fields = { X = "int" }
read_only = ["Y"]`, "read-only field Y"},
	} {
		c, err := config.Parse([]byte(test.src))
		if err != nil {
			t.Fatalf("#%d: %v", i, err)
		}
		if _, err := c.Universe(); err == nil || !strings.Contains(err.Error(), test.want) {
			t.Errorf("#%d: got %v, want error containing %q", i, err, test.want)
		}
	}

	c, err := config.Parse([]byte(`[page]
data_type = "Page"
[[bindings]]
code = "Title"
collection = "Title"`))
	if err != nil {
		t.Fatal(err)
	}
	u, _ := c.Universe()
	if _, err := c.Scope(u); err == nil {
		t.Error("undefined page type accepted")
	}
}
