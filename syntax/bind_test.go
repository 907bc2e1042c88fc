// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax_test

import (
	"strings"
	"testing"

	"github.com/tomasmikes/dotvvm/bindingtest"
	"github.com/tomasmikes/dotvvm/syntax"
	"github.com/tomasmikes/dotvvm/typed"
)

func TestParse(t *testing.T) {
	u := bindingtest.Universe()
	root := bindingtest.Root()
	item := bindingtest.Customers()

	for i, test := range []struct {
		src   string
		inner bool // evaluate in the Customers element scope
		want  string
		typ   string
	}{
		{src: `Items.Count > 0`, want: `(_this.Items.Count > 0)`, typ: "System.Boolean"},
		{src: `Title + "!"`, want: `(_this.Title + "!")`, typ: "System.String"},
		{src: `Customer.Address.City`, want: `_this.Customer.Address.City`, typ: "System.String"},
		{src: `Limit ?? 10`, want: `(_this.Limit ?? 10)`, typ: "System.Int32"},
		{src: `Ratio * 2`, want: `(_this.Ratio * 2)`, typ: "System.Double"},
		{src: `Enabled ? 1 : null`, want: `(_this.Enabled ? Convert(1, System.Int32?) : null)`, typ: "System.Int32?"},
		{src: `!Enabled`, want: `!_this.Enabled`, typ: "System.Boolean"},
		{src: `Items[0]`, want: `_this.Items[0]`, typ: "System.String"},
		{src: `Math.Max(Version, 3)`, want: `System.Math.Max(_this.Version, 3)`, typ: "System.Int32"},
		{src: `System.Math.Max(Ratio, 3)`, want: `System.Math.Max(_this.Ratio, Convert(3, System.Double))`, typ: "System.Double"},
		{src: `Title.ToUpper()`, want: `_this.Title.ToUpper()`, typ: "System.String"},
		{src: `string.IsNullOrEmpty(Title)`, want: `System.String.IsNullOrEmpty(_this.Title)`, typ: "System.Boolean"},
		{src: `Customers.Any(c => c.Age > 40)`, want: `_this.Customers.Any((c) => (c.Age > 40))`, typ: "System.Boolean"},
		{src: `[1, 2.5]`, want: `[Convert(1, System.Double), 2.5]`, typ: "List<System.Double>"},
		{src: `_control`, want: `_control`, typ: "System.Object"},
		{src: `Name`, inner: true, want: `_this.Name`, typ: "System.String"},
		{src: `_parent.Title + _index`, inner: true, want: `(_parent.Title + _index)`, typ: "System.String"},
		{src: `_root.Items`, inner: true, want: `_root.Items`, typ: "List<System.String>"},
		{src: `Address.City == "Brno"`, inner: true, want: `(_this.Address.City == "Brno")`, typ: "System.Boolean"},
	} {
		s := root
		if test.inner {
			s = item
		}
		e, err := syntax.Parse(test.src, s, u)
		if err != nil {
			t.Errorf("#%d: Parse(%s): %v", i, test.src, err)
			continue
		}
		if got := e.String(); got != test.want {
			t.Errorf("#%d: Parse(%s) = %s, want %s", i, test.src, got, test.want)
		}
		if got := e.Type().Name; got != test.typ {
			t.Errorf("#%d: type of %s = %s, want %s", i, test.src, got, test.typ)
		}
	}
}

func TestParseTypeRef(t *testing.T) {
	e, err := syntax.Parse(`System.Math`, bindingtest.Root(), bindingtest.Universe())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*typed.TypeRef); !ok {
		t.Errorf("got %T, want *typed.TypeRef", e)
	}
}

func TestParseErrors(t *testing.T) {
	u := bindingtest.Universe()
	root := bindingtest.Root()
	for _, test := range []struct{ src, want string }{
		{`Nope`, "undefined: Nope"},
		{`Title.Nope`, "System.String has no field Nope"},
		{`Items.Count > "a"`, "operator > not defined"},
		{`Enabled ? 1 : "a"`, "mismatched conditional branches"},
		{`_parent`, "scope has only 0 parents"},
		{`Items[`, "Unexpected"},
		{`x => x`, "lambda is only allowed as a method argument"},
		{`Title.Contains(1)`, "cannot use System.Int32 as System.String argument"},
		{`Math.Max(Title)`, "no static method Max with 1 arguments"},
	} {
		_, err := syntax.Parse(test.src, root, u)
		if err == nil {
			t.Errorf("Parse(%s) succeeded, want error containing %q", test.src, test.want)
			continue
		}
		if !strings.Contains(err.Error(), test.want) {
			t.Errorf("Parse(%s) = %v, want error containing %q", test.src, err, test.want)
		}
	}
}
