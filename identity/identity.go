// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package identity computes the content-addressed identifiers of
// compiled bindings.
//
// An ID is derived from the binding's source text, the description
// of its scope chain, the property that declares it, and optionally
// its position among the bindings of the same scope in one syntax
// tree. Equal inputs yield equal IDs, so a page renderer can emit the
// script of each distinct binding once.
package identity // import "github.com/tomasmikes/dotvvm/identity"

import (
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tomasmikes/dotvvm/scope"
)

// Size is the number of hash bytes kept in an ID.
const Size = 12

// An ID is the 96-bit identity of a binding, base64url-encoded
// without padding. It is safe in identifiers and URLs.
type ID string

// Input holds everything the identity of a binding depends on.
type Input struct {
	// Index is the sibling index of the binding, if HasIndex is set.
	// See Session.NextIndex.
	Index    int
	HasIndex bool

	// Code is the source text of the binding, or the canonical
	// string form of its expression when no source is available.
	Code string

	Scope *scope.Scope

	// Property is the full name of the declaring property, if any.
	Property string
}

const sep = " || "

// Canonical returns the string that is hashed to obtain the ID of in:
//
//	index || code || scope description || property
//
// where index is "-" if in has none. Only the code may contain the
// separator, so distinct inputs have distinct canonical strings.
func Canonical(in Input) string {
	var buf strings.Builder
	if in.HasIndex {
		buf.WriteString(strconv.Itoa(in.Index))
	} else {
		buf.WriteString("-")
	}
	buf.WriteString(sep)
	buf.WriteString(in.Code)
	buf.WriteString(sep)
	if in.Scope != nil {
		buf.WriteString(in.Scope.Describe())
	}
	buf.WriteString(sep)
	buf.WriteString(in.Property)
	return buf.String()
}

// Compute returns the ID of in.
func Compute(in Input) ID {
	sum := sha256.Sum256([]byte(Canonical(in)))
	return ID(base64.RawURLEncoding.EncodeToString(sum[:Size]))
}

func (id ID) String() string { return string(id) }

// A Session owns the sibling-index counters of one page compilation.
// Counters are kept in an arena indexed by (tree root, scope) and are
// discarded with the session. A Session is safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	index    map[counterKey]int
	counters []*atomic.Int64
}

type counterKey struct {
	root  string
	scope string
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{index: make(map[counterKey]int)}
}

// NextIndex returns the next sibling index for a binding in scope s of
// the syntax tree identified by root. The first call for a given
// (root, s) pair returns 0. Structurally equal scopes share a counter.
func (s *Session) NextIndex(root string, sc *scope.Scope) int {
	return int(s.counter(counterKey{root, sc.Key()}).Add(1) - 1)
}

func (s *Session) counter(k counterKey) *atomic.Int64 {
	s.mu.RLock()
	i, ok := s.index[k]
	var c *atomic.Int64
	if ok {
		c = s.counters[i]
	}
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[k]; ok {
		return s.counters[i]
	}
	c = new(atomic.Int64)
	s.index[k] = len(s.counters)
	s.counters = append(s.counters, c)
	return c
}

// Len returns the number of counters in the session.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.counters)
}
