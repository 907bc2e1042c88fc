// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package clientmirror_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomasmikes/dotvvm/bindingtest"
	"github.com/tomasmikes/dotvvm/clientmirror"
)

func newMirror(t *testing.T) *clientmirror.Mirror {
	t.Helper()
	m, err := clientmirror.New()
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestEval(t *testing.T) {
	m := newMirror(t)
	root := bindingtest.NewListContainer("a", "b")
	bob := root["Customers"].([]any)[0]
	ctx := &clientmirror.Context{
		VMs:     []any{bob, root},
		Indexes: []int64{0},
		Element: "div#main",
	}
	for i, test := range []struct {
		code string
		want any
	}{
		{`$data.Name()`, "Bob"},
		{`$data.Name`, "Bob"}, // a cell result is read
		{`$data.Address().City()`, "Brno"},
		{`$context.$parent.Items().length`, int64(2)},
		{`$context.$root.Ratio() * 2`, int64(1)},
		{`$context.$root.Ratio()`, 0.5},
		{`$context.$parents[0].Title()`, "Items"},
		{`$context.$index()`, int64(0)},
		{`$element`, "div#main"},
		{`ko.unwrap($data.Age) + ko.unwrap(1)`, int64(42)},
		{`ko.pureComputed(() => $data.Age() > 40)`, true},
		{`$context.$parent.Numbers()`, []any{int64(1), int64(2), int64(3)}},
		{`$data.Address()`, map[string]any{"City": "Brno", "Zip": "10000"}},
		{`null`, nil},
	} {
		got, err := m.Eval(test.code, ctx)
		if err != nil {
			t.Errorf("#%d: %s: %v", i, test.code, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("#%d: %s: (-want +got)\n%s", i, test.code, diff)
		}
	}
}

func TestReads(t *testing.T) {
	m := newMirror(t)
	ctx := &clientmirror.Context{VMs: []any{bindingtest.NewListContainer("a")}}

	if _, err := m.Eval(`$data.Customer().Name() + $data.Customer().Name()`, ctx); err != nil {
		t.Fatal(err)
	}
	if got := m.Reads("Customer"); got != 2 {
		t.Errorf("Customer read %d times, want 2", got)
	}
	if got := m.Reads("Customer.Name"); got != 2 {
		t.Errorf("Customer.Name read %d times, want 2", got)
	}
	if diff := cmp.Diff([]string{"Customer", "Customer.Name"}, m.ReadPaths()); diff != "" {
		t.Errorf("ReadPaths: (-want +got)\n%s", diff)
	}

	m.ResetReads()
	if _, err := m.Eval(`$data.Customers()[1].Name()`, ctx); err != nil {
		t.Fatal(err)
	}
	if got := m.Reads("Customers[1].Name"); got != 1 {
		t.Errorf("reads = %v", m.ReadPaths())
	}
	if got := m.TotalReads(); got != 2 {
		t.Errorf("TotalReads = %d, want 2", got)
	}
}

func TestErrors(t *testing.T) {
	m := newMirror(t)
	ctx := &clientmirror.Context{VMs: []any{bindingtest.NewCustomer("Carol", 25, "")}}
	if _, err := m.Eval(`$data.Address().City()`, ctx); err == nil {
		t.Error("reading a field of null succeeded")
	}
	if _, err := m.Eval(`$data.Name(`, ctx); err == nil {
		t.Error("syntax error not reported")
	}
	if _, err := m.Eval(`1`, &clientmirror.Context{}); err == nil {
		t.Error("empty context chain accepted")
	}
}
