// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diag defines the errors reported by binding compilation.
//
// Every failure carries a Kind so that callers can classify it with
// errors.Is, regardless of how many layers of wrapping it went through:
//
//	if errors.Is(err, diag.UnsupportedShape) { ... }
package diag // import "github.com/tomasmikes/dotvvm/diag"

import (
	"errors"
	"fmt"
)

// A Kind classifies a compilation failure.
type Kind uint8

const (
	_ Kind = iota

	// ParseAmbiguity: the expression denotes a type, not a value.
	ParseAmbiguity

	// TypeConversionFailure: no admissible conversion to the expected type.
	TypeConversionFailure

	// UntranslatableOperation: no client translation exists for an operation.
	UntranslatableOperation

	// UnsupportedShape: a derived property is not defined for this expression.
	UnsupportedShape

	// CyclicDependency: a property was requested while being computed.
	CyclicDependency

	// NoResolver: no function is registered for a property.
	NoResolver
)

var kindNames = [...]string{
	ParseAmbiguity:          "parse ambiguity",
	TypeConversionFailure:   "type conversion failure",
	UntranslatableOperation: "untranslatable operation",
	UnsupportedShape:        "unsupported shape",
	CyclicDependency:        "cyclic dependency",
	NoResolver:              "no resolver",
}

func (k Kind) String() string {
	if 0 < k && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("diag.Kind(%d)", k)
}

// Error implements error so that a Kind can be an errors.Is target.
func (k Kind) Error() string { return k.String() }

// An Error is a compilation failure of one binding.
type Error struct {
	Kind   Kind
	Source string // binding source text, if known
	Msg    string
	Err    error // underlying cause, if any
}

// Errorf returns a new Error of the given kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg += ": " + e.Err.Error()
		}
	}
	if e.Source != "" {
		return fmt.Sprintf("%s: %s (in %q)", e.Kind, msg, e.Source)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is e's Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// WithSource attaches the binding source text to err.
// If err is not (and does not wrap) an *Error, it is returned
// wrapped in one of kind fallback.
func WithSource(err error, source string, fallback Kind) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Source != "" || source == "" {
			return err
		}
		dup := *e
		dup.Source = source
		return &dup
	}
	return &Error{Kind: fallback, Source: source, Err: err}
}

// KindOf returns the Kind of err, or 0 if err is not a compilation error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
