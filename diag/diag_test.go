// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diag_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tomasmikes/dotvvm/diag"
)

func TestIs(t *testing.T) {
	err := diag.Errorf(diag.UnsupportedShape, "no length of %s", "System.Int32")
	wrapped := fmt.Errorf("compiling page: %w", err)
	if !errors.Is(wrapped, diag.UnsupportedShape) {
		t.Errorf("errors.Is(%v, UnsupportedShape) = false", wrapped)
	}
	if errors.Is(wrapped, diag.NoResolver) {
		t.Errorf("errors.Is(%v, NoResolver) = true", wrapped)
	}
	if got := diag.KindOf(wrapped); got != diag.UnsupportedShape {
		t.Errorf("KindOf = %v", got)
	}
}

func TestWithSource(t *testing.T) {
	err := diag.WithSource(diag.Errorf(diag.TypeConversionFailure, "cannot convert"), "Name + 1", diag.UnsupportedShape)
	const want = `type conversion failure: cannot convert (in "Name + 1")`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err, want)
	}

	plain := diag.WithSource(errors.New("boom"), "x", diag.UntranslatableOperation)
	if !errors.Is(plain, diag.UntranslatableOperation) {
		t.Errorf("fallback kind not applied: %v", plain)
	}
	if diag.WithSource(nil, "x", diag.NoResolver) != nil {
		t.Error("WithSource(nil) != nil")
	}
}
