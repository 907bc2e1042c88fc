// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package identity_test

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tomasmikes/dotvvm/bindingtest"
	"github.com/tomasmikes/dotvvm/identity"
)

func TestCanonical(t *testing.T) {
	root := bindingtest.Root()
	in := identity.Input{
		Index:    3,
		HasIndex: true,
		Code:     "Items.Count > 0",
		Scope:    root,
		Property: "App.Repeater.Visible",
	}
	want := "3 || Items.Count > 0 || " + root.Describe() + " || App.Repeater.Visible"
	if got := identity.Canonical(in); got != want {
		t.Errorf("Canonical = %q, want %q", got, want)
	}

	in.HasIndex = false
	want = "- || Items.Count > 0 || " + root.Describe() + " || App.Repeater.Visible"
	if got := identity.Canonical(in); got != want {
		t.Errorf("Canonical = %q, want %q", got, want)
	}

	// Source text containing the separator.
	for i, pair := range [][2]identity.Input{
		{{Code: "0 || a", Scope: root}, {Index: 0, HasIndex: true, Code: "a", Scope: root}},
		{{Code: "a || b"}, {Code: "a", Property: "b"}},
	} {
		if a, b := identity.Canonical(pair[0]), identity.Canonical(pair[1]); a == b {
			t.Errorf("#%d: %q is the canonical form of two inputs", i, a)
		}
	}
}

func TestDeterminism(t *testing.T) {
	in := identity.Input{Code: "Title", Scope: bindingtest.Root(), Property: "App.Literal.Text"}
	a := identity.Compute(in)
	// A structurally equal scope built separately.
	in.Scope = bindingtest.Root()
	b := identity.Compute(in)
	if a != b {
		t.Errorf("IDs differ: %s, %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("len(%s) = %d, want 16", a, len(a))
	}
	for _, r := range a {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			t.Errorf("ID %s contains %q", a, r)
		}
	}
}

func TestSensitivity(t *testing.T) {
	base := identity.Input{Index: 0, HasIndex: true, Code: "Title", Scope: bindingtest.Root(), Property: "App.Literal.Text"}
	id := identity.Compute(base)
	for name, vary := range map[string]func(*identity.Input){
		"index":    func(in *identity.Input) { in.Index = 1 },
		"no index": func(in *identity.Input) { in.HasIndex = false },
		"code":     func(in *identity.Input) { in.Code = "Title " },
		"scope":    func(in *identity.Input) { in.Scope = bindingtest.Customers() },
		"property": func(in *identity.Input) { in.Property = "App.Literal.Title" },
	} {
		in := base
		vary(&in)
		if identity.Compute(in) == id {
			t.Errorf("changing %s does not change the ID", name)
		}
	}
}

func TestNoCollisions(t *testing.T) {
	scopes := []*identity.Input{
		{Scope: bindingtest.Root()},
		{Scope: bindingtest.Customers()},
	}
	seen := make(map[identity.ID]string)
	n := 0
	for _, s := range scopes {
		for i := range 6000 {
			in := *s
			in.Code = fmt.Sprintf("Items[%d]", i)
			in.Index, in.HasIndex = i%7, i%2 == 0
			key := identity.Canonical(in)
			id := identity.Compute(in)
			if prev, ok := seen[id]; ok && prev != key {
				t.Fatalf("collision: %q and %q both hash to %s", prev, key, id)
			}
			seen[id] = key
			n++
		}
	}
	if len(seen) != n {
		t.Errorf("%d distinct IDs for %d distinct inputs", len(seen), n)
	}
}

func TestSession(t *testing.T) {
	s := identity.NewSession()
	root, customers := bindingtest.Root(), bindingtest.Customers()

	if got := s.NextIndex("page.html", root); got != 0 {
		t.Errorf("first index = %d, want 0", got)
	}
	if got := s.NextIndex("page.html", bindingtest.Root()); got != 1 {
		t.Errorf("second index = %d, want 1", got)
	}
	if got := s.NextIndex("page.html", customers); got != 0 {
		t.Errorf("other scope: index = %d, want 0", got)
	}
	if got := s.NextIndex("other.html", root); got != 0 {
		t.Errorf("other root: index = %d, want 0", got)
	}
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
}

func TestSessionConcurrent(t *testing.T) {
	s := identity.NewSession()
	root := bindingtest.Root()
	const workers, each = 8, 250

	var (
		mu  sync.Mutex
		got []int
		wg  sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int, 0, each)
			for range each {
				local = append(local, s.NextIndex("page.html", root))
			}
			mu.Lock()
			got = append(got, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Ints(got)
	want := make([]int, workers*each)
	for i := range want {
		want[i] = i
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("indexes (-want +got)\n%s", diff)
	}
}
