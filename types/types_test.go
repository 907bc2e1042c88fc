// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types_test

import (
	"testing"

	"github.com/tomasmikes/dotvvm/types"
)

func TestParse(t *testing.T) {
	u := types.NewUniverse()
	customer := types.NewObject("App.Customer")
	if err := u.Define(customer); err != nil {
		t.Fatal(err)
	}
	for i, test := range []struct {
		src, want string
	}{
		{"int", "System.Int32"},
		{"int?", "System.Int32?"},
		{"string", "System.String"},
		{"string?", "System.String"}, // reference types are already nullable
		{"List<string>", "List<System.String>"},
		{"Customer[]", "List<App.Customer>"},
		{"App.Customer", "App.Customer"},
		{"Double", "System.Double"},
	} {
		got, err := u.Parse(test.src, "App")
		if err != nil {
			t.Errorf("#%d: Parse(%q): %v", i, test.src, err)
			continue
		}
		if got.Name != test.want {
			t.Errorf("#%d: Parse(%q) = %s, want %s", i, test.src, got, test.want)
		}
	}

	for _, bad := range []string{"", "Nope", "Map<int>", "List<Nope>"} {
		if _, err := u.Parse(bad); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", bad)
		}
	}
}

func TestInterning(t *testing.T) {
	if types.ListOf(types.Int) != types.ListOf(types.Int) {
		t.Error("ListOf(Int) not interned")
	}
	if types.Nullable(types.Int) != types.Nullable(types.Int) {
		t.Error("Nullable(Int) not interned")
	}
	if types.Nullable(types.String) != types.String {
		t.Error("Nullable(String) should be String")
	}
	if got := types.Nullable(types.Int).Underlying(); got != types.Int {
		t.Errorf("Underlying = %s, want Int", got)
	}
}

func TestDefault(t *testing.T) {
	for _, test := range []struct {
		t    *types.Type
		want any
	}{
		{types.Int, int64(0)},
		{types.Float, float64(0)},
		{types.Bool, false},
		{types.String, nil},
		{types.Nullable(types.Int), nil},
		{types.ListOf(types.String), nil},
	} {
		if got := types.Default(test.t); got != test.want {
			t.Errorf("Default(%s) = %#v, want %#v", test.t, got, test.want)
		}
	}
}

func TestMembers(t *testing.T) {
	count := types.ListOf(types.String).Field("Count")
	if count == nil {
		t.Fatal("List has no Count")
	}
	n, err := count.Get([]any{"a", "b"})
	if err != nil || n != int64(2) {
		t.Errorf("Count = %v, %v", n, err)
	}
	if count.FullName() != "List.Count" {
		t.Errorf("FullName = %s", count.FullName())
	}

	// ToString is inherited from System.Object.
	if m := types.Int.Method("ToString", 0); m == nil || m.Decl != types.Any {
		t.Errorf("Int.ToString = %v", m)
	}
	max := types.Math.Method("Max", 2)
	v, err := max.Call(nil, []any{int64(3), int64(7)})
	if err != nil || v != int64(7) {
		t.Errorf("Math.Max(3, 7) = %v, %v", v, err)
	}
}
