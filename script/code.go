// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package script renders script syntax trees as parametrized text.
//
// A parametrized script is a sequence of literal text and named slots.
// A slot stands for text that is not known when the binding is
// compiled, such as the resolved location of a resource, and is
// supplied later by Resolve. All occurrences of a slot name receive
// the same value.
package script // import "github.com/tomasmikes/dotvvm/script"

import (
	"fmt"
	"strings"
)

// A Slot is a named placeholder for deferred text.
type Slot struct {
	Name       string
	Default    string // text used when no value is supplied
	HasDefault bool
}

// A Segment is either literal text or a reference to a slot.
type Segment struct {
	Text string
	Slot string // slot name; empty for literal text
}

// Code is a parametrized script. The zero value is the empty script.
// A Code is immutable.
type Code struct {
	segs  []Segment
	slots map[string]Slot
}

// Literal returns a script consisting of the text s.
func Literal(s string) *Code {
	var b Builder
	b.Text(s)
	return b.Code()
}

// Segments returns the segments of c. The result must not be modified.
func (c *Code) Segments() []Segment { return c.segs }

// Slot returns the slot of the given name.
func (c *Code) Slot(name string) (Slot, bool) {
	s, ok := c.slots[name]
	return s, ok
}

// Parameters returns the distinct slot names of c in order of first use.
func (c *Code) Parameters() []string {
	var names []string
	seen := make(map[string]bool)
	for _, seg := range c.segs {
		if seg.Slot != "" && !seen[seg.Slot] {
			seen[seg.Slot] = true
			names = append(names, seg.Slot)
		}
	}
	return names
}

// IsConstant reports whether c contains no slots.
func (c *Code) IsConstant() bool {
	for _, seg := range c.segs {
		if seg.Slot != "" {
			return false
		}
	}
	return true
}

// Resolve returns the text of c with each slot replaced by its value
// in values, or by its default. It fails if a slot has neither.
func (c *Code) Resolve(values map[string]string) (string, error) {
	var buf strings.Builder
	for _, seg := range c.segs {
		if seg.Slot == "" {
			buf.WriteString(seg.Text)
			continue
		}
		if v, ok := values[seg.Slot]; ok {
			buf.WriteString(v)
		} else if s := c.slots[seg.Slot]; s.HasDefault {
			buf.WriteString(s.Default)
		} else {
			return "", fmt.Errorf("no value for script parameter %q", seg.Slot)
		}
	}
	return buf.String(), nil
}

// Assign returns a copy of c in which the named slot is replaced
// by the literal text value. Other slots are unchanged.
func (c *Code) Assign(name, value string) *Code {
	var b Builder
	for _, seg := range c.segs {
		switch seg.Slot {
		case "":
			b.Text(seg.Text)
		case name:
			b.Text(value)
		default:
			b.slot(c.slots[seg.Slot])
		}
	}
	return b.Code()
}

// String returns the text of c with slots replaced by their defaults.
// A slot without a default is rendered as {{name}}.
func (c *Code) String() string {
	var buf strings.Builder
	for _, seg := range c.segs {
		switch s := c.slots[seg.Slot]; {
		case seg.Slot == "":
			buf.WriteString(seg.Text)
		case s.HasDefault:
			buf.WriteString(s.Default)
		default:
			buf.WriteString("{{" + seg.Slot + "}}")
		}
	}
	return buf.String()
}

// A Builder accumulates segments. Adjacent text is merged.
type Builder struct {
	segs  []Segment
	slots map[string]Slot
}

// Text appends literal text.
func (b *Builder) Text(s string) {
	if s == "" {
		return
	}
	if n := len(b.segs); n > 0 && b.segs[n-1].Slot == "" {
		b.segs[n-1].Text += s
		return
	}
	b.segs = append(b.segs, Segment{Text: s})
}

// Slot appends a reference to the named slot without a default.
func (b *Builder) Slot(name string) { b.slot(Slot{Name: name}) }

// SlotDefault appends a reference to the named slot with a default.
func (b *Builder) SlotDefault(name, def string) {
	b.slot(Slot{Name: name, Default: def, HasDefault: true})
}

// slot appends a slot reference. The first declaration of a name fixes
// its default.
func (b *Builder) slot(s Slot) {
	if s.Name == "" {
		panic("script: empty slot name")
	}
	if b.slots == nil {
		b.slots = make(map[string]Slot)
	}
	if _, ok := b.slots[s.Name]; !ok {
		b.slots[s.Name] = s
	}
	b.segs = append(b.segs, Segment{Slot: s.Name})
}

// Append appends the segments of c.
func (b *Builder) Append(c *Code) {
	for _, seg := range c.segs {
		if seg.Slot == "" {
			b.Text(seg.Text)
		} else {
			b.slot(c.slots[seg.Slot])
		}
	}
}

// lastByte returns the final byte of literal text, or 0.
func (b *Builder) lastByte() byte {
	if n := len(b.segs); n > 0 && b.segs[n-1].Slot == "" {
		t := b.segs[n-1].Text
		return t[len(t)-1]
	}
	return 0
}

// Code returns the accumulated script.
func (b *Builder) Code() *Code {
	slots := make(map[string]Slot, len(b.slots))
	for name, s := range b.slots {
		slots[name] = s
	}
	return &Code{segs: append([]Segment(nil), b.segs...), slots: slots}
}
