// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package repl_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tomasmikes/dotvvm/binding"
	"github.com/tomasmikes/dotvvm/bindingtest"
	"github.com/tomasmikes/dotvvm/diag"
	"github.com/tomasmikes/dotvvm/repl"
)

func newSession(out *bytes.Buffer) *repl.Session {
	return &repl.Session{
		Compiler:  binding.NewCompiler(bindingtest.Universe(), binding.Options{NullChecks: true}),
		Scope:     bindingtest.Root(),
		ViewModel: bindingtest.NewListContainer("a", "b"),
		Control:   &bindingtest.Control{Element: "div"},
		Out:       out,
	}
}

func TestEval(t *testing.T) {
	for i, test := range []struct {
		line, want string
	}{
		{``, ``},
		{`Items.Count > 0`, "True\n"},
		{`Title + "!"`, "Items!\n"},
		{`Limit`, "null\n"},
		{`Version * 2`, "14\n$data.Version()*2\n"},
		{`:CellScript Title`, "$data.Title\n"},
		{`:NegatedBinding !Enabled`, "_this.Enabled\n$data.Enabled()\n"},
		{`:ReferencedProperties Customer.Name.ToUpper()`, "main: <none>\nApp.Customer.Name\nApp.ListContainer.Customer\n"},
		{`:ResultType Items.Count`, "System.Int32\n"},
	} {
		var out bytes.Buffer
		if err := newSession(&out).Eval(context.Background(), test.line); err != nil {
			t.Errorf("#%d: %s: %v", i, test.line, err)
			continue
		}
		if got := out.String(); !strings.Contains(got, test.want) {
			t.Errorf("#%d: %s printed %q, want %q", i, test.line, got, test.want)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	var out bytes.Buffer
	sess := newSession(&out)
	ctx := context.Background()
	if err := sess.Eval(ctx, `Math`); !errors.Is(err, diag.ParseAmbiguity) {
		t.Errorf("Math: got %v", err)
	}
	if err := sess.Eval(ctx, `:Nonsense Title`); err == nil {
		t.Error("unknown property accepted")
	}
	if err := sess.Eval(ctx, `:DataSourceLength Version`); !errors.Is(err, diag.UnsupportedShape) {
		t.Errorf("DataSourceLength of Version: got %v", err)
	}
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := sess.Eval(cancelled, `Title`); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("failed evaluations printed %q", out.String())
	}
}
