// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package script_test

import (
	"testing"

	"github.com/dop251/goja/parser"
	. "github.com/tomasmikes/dotvvm/jsast"
	"github.com/tomasmikes/dotvvm/script"
)

func TestFormat(t *testing.T) {
	a, b, c := Id("a"), Id("b"), Id("c")
	for i, test := range []struct {
		e          Expr
		nice, mini string
	}{
		{Id("x"), "x", "x"},
		{Bin(BinAdd, Bin(BinAdd, Id("a"), Id("b")), Id("c")), "a + b + c", "a+b+c"},
		{Bin(BinSub, Id("a"), Bin(BinSub, Id("b"), Id("c"))), "a - (b - c)", "a-(b-c)"},
		{Bin(BinMul, Bin(BinAdd, Id("a"), Id("b")), Id("c")), "(a + b) * c", "(a+b)*c"},
		{Bin(BinSub, Id("a"), Lit(-1)), "a - -1", "a- -1"},
		{&Unary{Op: UnNeg, X: &Unary{Op: UnNeg, X: Id("x")}}, "- -x", "- -x"},
		{Not(Bin(BinLooseEq, Id("a"), Lit(nil))), "!(a == null)", "!(a==null)"},
		{&Unary{Op: UnTypeof, X: Id("x")}, "typeof x", "typeof x"},
		{Bin(BinNullishCoalescing, Bin(BinLogicalOr, Id("a"), Id("b")), Id("c")), "(a || b) ?? c", "(a||b)??c"},
		{Bin(BinLogicalAnd, Id("a"), Bin(BinNullishCoalescing, Id("b"), Id("c"))), "a && (b ?? c)", "a&&(b??c)"},
		{&Conditional{Cond: &Conditional{Cond: a, Then: b, Else: c}, Then: Lit(1), Else: Lit(2)}, "(a ? b : c) ? 1 : 2", "(a?b:c)?1:2"},
		{&Conditional{Cond: Id("a"), Then: Lit(1), Else: &Conditional{Cond: Id("b"), Then: Lit(2), Else: Lit(3)}}, "a ? 1 : b ? 2 : 3", "a?1:b?2:3"},
		{Dot(Invoke(Dot(Id("a"), "b"), Lit(1), Lit("s")), "c"), `a.b(1, "s").c`, `a.b(1,"s").c`},
		{Dot(Lit(1), "toString"), "(1).toString", "(1).toString"},
		{Dot(Bin(BinAdd, Id("a"), Id("b")), "length"), "(a + b).length", "(a+b).length"},
		{&Index{X: Id("a"), Key: Lit(0)}, "a[0]", "a[0]"},
		{Invoke(&Arrow{Params: []string{"t"}, Body: Id("t")}, Lit(1)), "((t) => t)(1)", "((t)=>t)(1)"},
		{&Arrow{Params: []string{"o"}, Body: &Object{Props: []*Property{{Key: "a", Value: Id("o")}}}}, "(o) => ({ a: o })", "(o)=>({a:o})"},
		{&Sequence{List: []Expr{Bin(BinAssign, Id("t"), Id("a")), Id("t")}}, "t = a, t", "t=a,t"},
		{Bin(BinLogicalAnd, Bin(BinAssign, Id("t"), Id("a")), Id("t")), "(t = a) && t", "(t=a)&&t"},
		{Invoke(Id("f"), &Sequence{List: []Expr{a, b}}), "f((a, b))", "f((a,b))"},
		{&Array{Elems: []Expr{Lit(1), Lit(2.5), Lit(true)}}, "[1, 2.5, true]", "[1,2.5,true]"},
		{Lit("a\"b</script>"), `"a\"b\u003c/script\u003e"`, `"a\"b\u003c/script\u003e"`},
		{&Object{Props: []*Property{{Key: "x-y", Value: Lit(nil)}}}, `({ "x-y": null })`, `({"x-y":null})`},
		{&Object{}, "({})", "({})"},
		{Dot(&Object{}, "a"), "({}.a)", "({}.a)"},
		{Invoke(&Function{Params: []string{"a"}, Body: Id("a")}), "(function (a) { return a; }())", "(function(a){return a;}())"},
		{&New{Fn: Id("Date"), Args: []Expr{Lit(0)}}, "new Date(0)", "new Date(0)"},
		{&Paren{X: Id("a")}, "(a)", "(a)"},
	} {
		if got := script.Format(test.e, true).String(); got != test.nice {
			t.Errorf("#%d: nice: got %s, want %s", i, got, test.nice)
		}
		mini := script.Format(test.e, false).String()
		if mini != test.mini {
			t.Errorf("#%d: compact: got %s, want %s", i, mini, test.mini)
		}
		if _, err := parser.ParseFile(nil, "", mini, 0); err != nil {
			t.Errorf("#%d: %s does not parse: %v", i, mini, err)
		}
	}
}

func TestStartsLikeStatement(t *testing.T) {
	for i, test := range []struct {
		e    Expr
		want bool
	}{
		{Id("x"), false},
		{&Object{}, true},
		{&Function{Body: Lit(1)}, true},
		{Dot(&Object{}, "x"), true},
		{Bin(BinAdd, Invoke(&Function{Body: Lit(1)}), Lit(1)), true},
		{&Conditional{Cond: &Object{}, Then: a(), Else: a()}, true},
		{&Paren{X: &Object{}}, false},
		{Dot(&Array{Elems: []Expr{&Object{}}}, "length"), false},
		{Not(&Object{}), false},
		{&New{Fn: Id("X")}, false},
		{&Arrow{Body: &Object{}}, false},
		{Lit(nil), false},
	} {
		if got := script.StartsLikeStatement(test.e); got != test.want {
			t.Errorf("#%d: StartsLikeStatement(%s) = %t", i, script.Format(test.e, false), got)
		}
	}
}

func a() Expr { return Id("a") }

func TestSymbols(t *testing.T) {
	e := Bin(BinAdd,
		Dot(&Symbol{Name: "$data", Default: Id("$data")}, "x"),
		Invoke(Dot(&Symbol{Name: "resource:logo"}, "concat"), &Symbol{Name: "resource:logo"}))
	code := script.Format(e, false)

	if got, want := code.String(), "$data.x+{{resource:logo}}.concat({{resource:logo}})"; got != want {
		t.Errorf("String = %s, want %s", got, want)
	}
	if code.IsConstant() {
		t.Error("IsConstant = true")
	}
	if got := code.Parameters(); len(got) != 2 || got[0] != "$data" || got[1] != "resource:logo" {
		t.Errorf("Parameters = %q", got)
	}
	if _, err := code.Resolve(nil); err == nil {
		t.Error("Resolve without values succeeded")
	}
	got, err := code.Resolve(map[string]string{"resource:logo": `"/img.png"`})
	if err != nil {
		t.Fatal(err)
	}
	if want := `$data.x+"/img.png".concat("/img.png")`; got != want {
		t.Errorf("Resolve = %s, want %s", got, want)
	}

	assigned := code.Assign("$data", "options.viewModel")
	if got, want := assigned.String(), "options.viewModel.x+{{resource:logo}}.concat({{resource:logo}})"; got != want {
		t.Errorf("Assign = %s, want %s", got, want)
	}
	if code.String() == assigned.String() {
		t.Error("Assign modified the original")
	}
	if !script.Literal("1").IsConstant() {
		t.Error("literal is not constant")
	}
}
