// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package translate_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomasmikes/dotvvm/bindingtest"
	"github.com/tomasmikes/dotvvm/clientmirror"
	"github.com/tomasmikes/dotvvm/compile"
	"github.com/tomasmikes/dotvvm/diag"
	"github.com/tomasmikes/dotvvm/jsast"
	"github.com/tomasmikes/dotvvm/rewrite"
	"github.com/tomasmikes/dotvvm/scope"
	"github.com/tomasmikes/dotvvm/script"
	"github.com/tomasmikes/dotvvm/syntax"
	"github.com/tomasmikes/dotvvm/translate"
	"github.com/tomasmikes/dotvvm/typed"
)

func parse(t *testing.T, src string, s *scope.Scope) typed.Expr {
	t.Helper()
	e, err := syntax.Parse(src, s, bindingtest.Universe())
	if err != nil {
		t.Fatalf("Parse(%s): %v", src, err)
	}
	return e
}

type options struct {
	allowCell, nullChecks, hoist bool
}

// emit runs the client pipeline on src and returns compact script text.
func emit(t *testing.T, src string, s *scope.Scope, opts options) string {
	t.Helper()
	raw, err := translate.New(nil).Translate(parse(t, src, s), s)
	if err != nil {
		t.Fatalf("Translate(%s): %v", src, err)
	}
	e := translate.ResolveCells(raw).Variant(opts.allowCell)
	if opts.nullChecks {
		e = rewrite.AddNullChecks(e)
	}
	if opts.hoist {
		e = rewrite.HoistTemporaries(e)
	}
	return script.Format(e, false).String()
}

func TestTranslate(t *testing.T) {
	root, customers := bindingtest.Root(), bindingtest.Customers()
	for i, test := range []struct {
		src   string
		scope *scope.Scope
		value string
		cell  string
	}{
		{`Title`, root, `$data.Title()`, `$data.Title`},
		{`_this`, root, `$data`, `$data`},
		{`Items.Count > 0`, root, `$data.Items().length>0`, ""},
		{`Customer.Address.City`, root, `$data.Customer().Address().City()`, `$data.Customer().Address().City`},
		{`Title + "!"`, root, `($data.Title()??"")+"!"`, ""},
		{`Version / 2`, root, `Math.trunc($data.Version()/2)`, ""},
		{`Ratio / 2`, root, `$data.Ratio()/2`, ""},
		{`Limit ?? 10`, root, `$data.Limit()??10`, ""},
		{`Limit + 1`, root, `$data.Limit()==null?null:$data.Limit()+1`, ""},
		{`Version - Customer.Score`, root, `$data.Customer().Score()==null?null:$data.Version()-$data.Customer().Score()`, ""},
		{`Enabled ? "on" : "off"`, root, `$data.Enabled()?"on":"off"`, ""},
		{`!Enabled`, root, `!$data.Enabled()`, ""},
		{`-Version`, root, `-$data.Version()`, ""},
		{`Numbers[0]`, root, `ko.unwrap($data.Numbers()[0])`, `$data.Numbers()[0]`},
		{`Math.Max(Version, 3)`, root, `Math.max($data.Version(),3)`, ""},
		{`Resources.Url("logo")`, root, `{{resource:logo}}`, ""},
		{`string.IsNullOrEmpty(Title)`, root, `!$data.Title()`, ""},
		{`Items.Contains("a")`, root, `$data.Items().includes("a")`, ""},
		{`Customers.Where(c => c.Age > 30).Count`, root, `$data.Customers().filter((c)=>ko.unwrap(c).Age()>30).length`, ""},
		{`_control`, root, `$element`, ""},
		{`Name.ToUpper()`, customers, `$data.Name().toUpperCase()`, ""},
		{`_index + 1`, customers, `$context.$index()+1`, ""},
		{`_index`, customers, `$context.$index()`, `$context.$index`},
		{`_root.Title`, customers, `$context.$root.Title()`, `$context.$root.Title`},
		{`_parent.Version`, customers, `$context.$root.Version()`, `$context.$root.Version`},
		{`Age.ToString()`, customers, `$data.Age()==null?null:String($data.Age())`, ""},
	} {
		if got := emit(t, test.src, test.scope, options{}); got != test.value {
			t.Errorf("#%d: %s: value variant = %s, want %s", i, test.src, got, test.value)
		}
		want := test.cell
		if want == "" {
			want = test.value
		}
		if got := emit(t, test.src, test.scope, options{allowCell: true}); got != want {
			t.Errorf("#%d: %s: cell variant = %s, want %s", i, test.src, got, want)
		}
	}
}

func TestNestedScopes(t *testing.T) {
	root := bindingtest.Root()
	mid := scope.New(bindingtest.Customer, root, nil)
	inner := scope.CollectionElement(mid, bindingtest.Customer.Field("Tags").Type)

	for _, test := range []struct{ src, want string }{
		{`_this.Length`, `$data.length`},
		{`_parent.Name`, `$context.$parent.Name()`},
		{`_parent2.Title`, `$context.$root.Title()`},
		{`_index`, `$context.$index()`},
	} {
		if got := emit(t, test.src, inner, options{}); got != test.want {
			t.Errorf("%s = %s, want %s", test.src, got, test.want)
		}
	}

	// A scope two levels below a non-root ancestor.
	deep := scope.New(bindingtest.Address, scope.New(bindingtest.Customer, mid, nil), nil)
	if got, want := emit(t, `_parent2.Name`, deep, options{}), `$context.$parents[1].Name()`; got != want {
		t.Errorf("_parent2.Name = %s, want %s", got, want)
	}
}

func TestTranslateErrors(t *testing.T) {
	root := bindingtest.Root()
	tr := translate.New(nil)

	_, err := tr.Translate(&typed.TypeRef{T: bindingtest.Customer}, root)
	if !errors.Is(err, diag.ParseAmbiguity) {
		t.Errorf("type reference: got %v, want ParseAmbiguity", err)
	}

	empty := translate.New(translate.NewRegistryBuilder().Build())
	_, err = empty.Translate(parse(t, `Items.Count`, root), root)
	if !errors.Is(err, diag.UntranslatableOperation) {
		t.Errorf("empty registry: got %v, want UntranslatableOperation", err)
	}

	_, err = tr.Translate(parse(t, `_collection`, bindingtest.Customers()), bindingtest.Customers())
	if !errors.Is(err, diag.UntranslatableOperation) {
		t.Errorf("_collection: got %v, want UntranslatableOperation", err)
	}

	_, err = tr.Translate(parse(t, `Resources.Url(Title)`, root), root)
	if !errors.Is(err, diag.UntranslatableOperation) {
		t.Errorf("Resources.Url(Title): got %v, want UntranslatableOperation", err)
	}
}

func TestRegistry(t *testing.T) {
	b := translate.NewRegistryBuilder()
	b.AddMethod("App.Customer", "Greet", func(recv jsast.Expr, args []jsast.Expr) (jsast.Expr, error) {
		return jsast.Lit("hi"), nil
	})
	r := b.Build()
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
	if translate.DefaultRegistry() != translate.DefaultRegistry() {
		t.Error("DefaultRegistry is rebuilt")
	}

	defer func() {
		if recover() == nil {
			t.Error("adding to a built registry did not panic")
		}
	}()
	b.AddMember("App.Customer", "Name", nil)
}

func TestForce(t *testing.T) {
	for i, c := range []jsast.Cell{{}, {Maybe: true}} {
		cell := jsast.Dot(translate.Data(), "Limit")
		jsast.Annotate(cell, c)
		jsast.Annotate(cell, jsast.NotNull{})
		jsast.Annotate(cell, jsast.TypeInfo{Type: bindingtest.ListContainer.Field("Limit").Type})
		out := translate.Force(cell)
		if jsast.HasAnnotation[jsast.NotNull](out) {
			t.Errorf("#%d: the value of a cell is marked not null", i)
		}
		if got := jsast.TypeOf(out); got == nil || !got.Nullable {
			t.Errorf("#%d: type = %v, want a nullable type", i, got)
		}
	}
	if got := script.Format(translate.Force(jsast.Annotate(jsast.Id("c"), jsast.Cell{Maybe: true})), false).String(); got != "ko.unwrap(c)" {
		t.Errorf("Force(maybe cell) = %s", got)
	}
}

func TestResolveCells(t *testing.T) {
	raw := jsast.Annotate(jsast.Dot(translate.Data(), "Title"), jsast.Cell{})
	r := translate.ResolveCells(raw)
	if !r.IsCell() || !r.MayBeCell() {
		t.Error("bare field is not a cell")
	}
	a, b := r.Variant(true), r.Variant(true)
	if a == b {
		t.Error("Variant returns shared trees")
	}
	if got := script.Format(r.CellWrapped(), false).String(); got != "$data.Title" {
		t.Errorf("CellWrapped = %s", got)
	}

	sum := translate.ResolveCells(jsast.Bin(jsast.BinAdd, raw, jsast.Lit(1)))
	if sum.IsCell() {
		t.Error("sum is a cell")
	}
	if got, want := script.Format(sum.CellWrapped(), false).String(), "ko.pureComputed(()=>$data.Title()+1)"; got != want {
		t.Errorf("CellWrapped = %s, want %s", got, want)
	}
	// The input is not modified.
	if _, ok := raw.X.(*jsast.Symbol); !ok {
		t.Error("input modified")
	}
}

// newMirror returns a mirror and the data context chain of the
// Customers scope at element i.
func customerContext(vm map[string]any, i int) *clientmirror.Context {
	c := vm["Customers"].([]any)[i]
	return &clientmirror.Context{VMs: []any{c, vm}, Indexes: []int64{int64(i)}}
}

// TestDualMode checks that the cell and value variants agree with each
// other and with the server.
func TestDualMode(t *testing.T) {
	m, err := clientmirror.New()
	if err != nil {
		t.Fatal(err)
	}
	vm := bindingtest.NewListContainer("a", "b", "c")
	root, customers := bindingtest.Root(), bindingtest.Customers()
	ctx := customerContext(vm, 0)

	for _, test := range []struct {
		src      string
		s        *scope.Scope
		rootCell bool
	}{
		{`_this`, root, false},
		{`_index`, customers, true},
		{`Title`, root, true},
		{`Version * 2 + 1`, root, false},
		{`Ratio * Version`, root, false},
		{`Title.ToUpper()`, root, false},
		{`Customer.Address.City`, root, true},
		{`Items.Count > 0`, root, false},
		{`Customers.Where(c => c.Age > 30).Count`, root, false},
		{`Limit ?? 10`, root, false},
		{`Limit + 1`, root, false},
		{`Limit * Version`, root, false},
		{`Name + " from " + Address.City`, customers, false},
		{`_root.Items.Count`, customers, false},
		{`Numbers[1]`, root, false},
	} {
		vms := []any{vm}
		c := &clientmirror.Context{VMs: vms}
		if test.s == customers {
			vms, c = ctx.VMs, ctx
		}
		fn, err := compile.Read(parse(t, test.src, test.s), test.s)
		if err != nil {
			t.Fatal(err)
		}
		server, err := fn(vms, &bindingtest.Control{Indexes: c.Indexes})
		if err != nil {
			t.Fatalf("%s: server: %v", test.src, err)
		}

		for _, opts := range []options{{}, {nullChecks: true, hoist: true}} {
			valueCode := emit(t, test.src, test.s, opts)
			opts.allowCell = true
			cellCode := emit(t, test.src, test.s, opts)

			v, err := m.Run(valueCode, c)
			if err != nil {
				t.Fatalf("%s: %v", test.src, err)
			}
			if m.IsCell(v) {
				t.Errorf("%s: value variant %s returned a cell", test.src, valueCode)
			}
			value := clientmirror.Export(v)

			cv, err := m.Run(cellCode, c)
			if err != nil {
				t.Fatalf("%s: %v", test.src, err)
			}
			if got := m.IsCell(cv); got != test.rootCell {
				t.Errorf("%s: cell variant %s: IsCell = %t, want %t", test.src, cellCode, got, test.rootCell)
			}
			forced, err := m.Value(cv)
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(value, forced); diff != "" {
				t.Errorf("%s: variants differ (-value +cell)\n%s", test.src, diff)
			}
			if diff := cmp.Diff(clientmirror.Normalize(server), value); diff != "" {
				t.Errorf("%s: client %s differs from server (-server +client)\n%s", test.src, valueCode, diff)
			}
		}
	}
}
