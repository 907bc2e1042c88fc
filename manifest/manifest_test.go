// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package manifest_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/tomasmikes/dotvvm/binding"
	"github.com/tomasmikes/dotvvm/bindingtest"
	"github.com/tomasmikes/dotvvm/manifest"
)

func compilePage(t *testing.T, c *binding.Compiler, page string) *binding.PageResult {
	t.Helper()
	root := bindingtest.Root()
	inputs := []binding.Input{
		{Code: `Title`, Property: "Literal.Text"},
		{Code: `Items.Count > 0`, Property: "HtmlGenericControl.Visible"},
		{Code: `Resources.Url("logo")`, Property: "HtmlGenericControl.Src"},
		{Code: `Math`, Property: "Literal.Text"},
	}
	for i := range inputs {
		inputs[i].Scope = root
		inputs[i].TreeRoot = page
	}
	res, err := c.CompilePage(context.Background(), inputs)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestAddPage(t *testing.T) {
	c := binding.NewCompiler(bindingtest.Universe(), binding.Options{})
	m := manifest.New()
	if n := m.AddPage("page.dothtml", compilePage(t, c, "page.dothtml")); n != 4 {
		t.Errorf("added %d entries, want 4", n)
	}

	// Recompiling in a new session yields the same IDs.
	again := binding.NewCompiler(bindingtest.Universe(), binding.Options{})
	if n := m.AddPage("page.dothtml", compilePage(t, again, "page.dothtml")); n != 0 {
		t.Errorf("recompiled page added %d entries", n)
	}
	if diff := cmp.Diff([]string{"page.dothtml"}, m.Pages); diff != "" {
		t.Errorf("pages (-want +got):\n%s", diff)
	}

	var title, failed, resource *manifest.Entry
	for _, e := range m.Entries() {
		switch e.Code {
		case `Title`:
			title = e
		case `Math`:
			failed = e
		case `Resources.Url("logo")`:
			resource = e
		}
	}
	if title == nil || failed == nil || resource == nil {
		t.Fatalf("missing entries: %v", m.Entries())
	}
	want := &manifest.Entry{
		ID:         title.ID,
		Code:       `Title`,
		Property:   "Literal.Text",
		ResultType: "System.String",
		Value:      `$data.Title()`,
		Cell:       `$data.Title`,
		Parameters: []string{"$data"},
		Writable:   true,
	}
	if diff := cmp.Diff(want, title, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Title entry (-want +got):\n%s", diff)
	}
	if failed.Error == "" || failed.Value != "" {
		t.Errorf("failed entry = %+v", failed)
	}
	if len(resource.Parameters) == 0 {
		t.Errorf("resource entry has no parameters: %+v", resource)
	}
	if e, ok := m.Lookup(title.ID); !ok || e != title {
		t.Errorf("Lookup(%s) = %v, %t", title.ID, e, ok)
	}
}

func TestEncodings(t *testing.T) {
	c := binding.NewCompiler(bindingtest.Universe(), binding.Options{NullChecks: true})
	m := manifest.New()
	m.AddPage("page.dothtml", compilePage(t, c, "page.dothtml"))

	for i, f := range []manifest.Format{manifest.Wire, manifest.JSON, manifest.Text} {
		data, err := m.Marshal(f)
		if err != nil {
			t.Fatalf("#%d: Marshal(%s): %v", i, f, err)
		}
		got, err := manifest.Unmarshal(data, f)
		if err != nil {
			t.Fatalf("#%d: Unmarshal(%s): %v", i, f, err)
		}
		if diff := cmp.Diff(m.Entries(), got.Entries(), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("#%d: %s round trip (-want +got):\n%s", i, f, diff)
		}
		if diff := cmp.Diff(m.Pages, got.Pages); diff != "" {
			t.Errorf("#%d: %s pages (-want +got):\n%s", i, f, diff)
		}
	}

	a, err := m.Marshal(manifest.Wire)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Marshal(manifest.Wire)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("wire encoding is not deterministic")
	}

	if _, err := m.Marshal("yaml"); err == nil {
		t.Error("Marshal accepted an unknown format")
	}
	if _, err := manifest.Unmarshal([]byte("{"), manifest.JSON); err == nil {
		t.Error("Unmarshal accepted malformed JSON")
	}
	if _, err := manifest.Unmarshal([]byte(`{"pages": []}`), manifest.JSON); err == nil {
		t.Error("Unmarshal accepted a manifest without bindings")
	}
}
