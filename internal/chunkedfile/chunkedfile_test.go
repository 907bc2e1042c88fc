// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chunkedfile_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomasmikes/dotvvm/internal/chunkedfile"
)

type testReporter struct {
	reported []string
}

func (r *testReporter) Errorf(format string, args ...any) {
	r.reported = append(r.reported, fmt.Sprintf(format, args...))
}

func TestParse(t *testing.T) {
	data := []byte(`%scope root
Title.ToUpper()
Math ### "parse ambiguity"
---
// comment

%scope customers
Name
`)
	var r testReporter
	chunks := chunkedfile.Parse("test.txt", data, &r)
	if len(r.reported) > 0 {
		t.Fatalf("unexpected reports: %q", r.reported)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}

	first := chunks[0]
	if diff := cmp.Diff(map[string]string{"scope": "root"}, first.Directives); diff != "" {
		t.Errorf("directives (-want +got):\n%s", diff)
	}
	want := []chunkedfile.Line{{Num: 2, Text: "Title.ToUpper()"}, {Num: 3, Text: "Math"}}
	if diff := cmp.Diff(want, first.Lines); diff != "" {
		t.Errorf("lines (-want +got):\n%s", diff)
	}
	if first.WantsError(2) || !first.WantsError(3) {
		t.Error("wrong error expectations")
	}

	second := chunks[1]
	if diff := cmp.Diff([]chunkedfile.Line{{Num: 8, Text: "Name"}}, second.Lines); diff != "" {
		t.Errorf("lines (-want +got):\n%s", diff)
	}
	if second.Directives["scope"] != "customers" {
		t.Errorf("scope directive = %q", second.Directives["scope"])
	}
}

func TestExpectations(t *testing.T) {
	for i, test := range []struct {
		errs []string // errors reported at line 1
		want []string
	}{
		{[]string{"parse ambiguity: Math is a type"}, nil},
		{nil, []string{"\nf.txt:1: expected error matching \"parse ambiguity\""}},
		{[]string{"cyclic dependency"}, []string{"\nf.txt:1: error \"cyclic dependency\" does not match pattern \"parse ambiguity\""}},
		{[]string{"parse ambiguity", "parse ambiguity"}, []string{"\nf.txt:1: unexpected error: parse ambiguity"}},
	} {
		var r testReporter
		chunks := chunkedfile.Parse("f.txt", []byte(`Math ### "parse ambiguity"`), &r)
		chunk := chunks[0]
		for _, msg := range test.errs {
			chunk.GotError(1, msg)
		}
		chunk.Done()
		if diff := cmp.Diff(test.want, r.reported); diff != "" {
			t.Errorf("#%d: reports (-want +got):\n%s", i, diff)
		}
	}
}

func TestBadPattern(t *testing.T) {
	var r testReporter
	chunkedfile.Parse("f.txt", []byte("Title ### parse\nVersion ### \"(\""), &r)
	if len(r.reported) != 2 {
		t.Errorf("got reports %q, want 2", r.reported)
	}
}
