// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package manifest records the compiled bindings of a page.
//
// A manifest is keyed by binding ID, so that a binding compiled by
// several pages, or several times, is stored once. It is encoded as a
// google.protobuf.Struct, in the binary wire format (deterministically,
// so that equal manifests have equal encodings), in JSON or in the
// protobuf text format.
package manifest // import "github.com/tomasmikes/dotvvm/manifest"

import (
	"fmt"
	"slices"
	"sort"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tomasmikes/dotvvm/binding"
	"github.com/tomasmikes/dotvvm/identity"
)

// An Entry describes one compiled binding.
type Entry struct {
	ID         identity.ID
	Code       string
	Property   string
	ResultType string
	Value      string   // value script, slots rendered by default
	Cell       string   // cell script
	Parameters []string // slot names of the value script
	Writable   bool
	Error      string // set if compilation failed
}

// A Manifest holds the entries of one or more pages.
type Manifest struct {
	Pages   []string
	entries map[identity.ID]*Entry
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{entries: make(map[identity.ID]*Entry)}
}

// Len returns the number of entries of m.
func (m *Manifest) Len() int { return len(m.entries) }

// Lookup returns the entry of the given ID.
func (m *Manifest) Lookup(id identity.ID) (*Entry, bool) {
	e, ok := m.entries[id]
	return e, ok
}

// Add adds e to m unless an entry with the same ID is present,
// and reports whether it did.
func (m *Manifest) Add(e *Entry) bool {
	if _, ok := m.entries[e.ID]; ok {
		return false
	}
	m.entries[e.ID] = e
	return true
}

// Entries returns the entries of m ordered by ID.
func (m *Manifest) Entries() []*Entry {
	list := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// AddPage records the results of compiling the named page.
// Bindings without an ID are skipped. It returns the number of
// entries added.
func (m *Manifest) AddPage(page string, res *binding.PageResult) int {
	if !slices.Contains(m.Pages, page) {
		m.Pages = append(m.Pages, page)
	}
	n := 0
	for _, r := range res.Results {
		if r.ID == "" {
			continue
		}
		if m.Add(entryOf(r)) {
			n++
		}
	}
	return n
}

func entryOf(r *binding.Result) *Entry {
	e := &Entry{ID: r.ID, Writable: r.Write != nil}
	b := r.Binding
	if v, err := b.Get(binding.OriginalString); err == nil {
		e.Code = v.(string)
	} else if x, err := b.Expr(); err == nil {
		e.Code = x.String()
	}
	if v, err := b.Get(binding.DeclaringProperty); err == nil {
		e.Property = v.(string)
	}
	if t, err := b.ResultType(); err == nil {
		e.ResultType = t.String()
	}
	if r.Value != nil {
		e.Value = r.Value.String()
		e.Parameters = r.Value.Parameters()
	}
	if r.Cell != nil {
		e.Cell = r.Cell.String()
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	return e
}

// Struct returns m as a protobuf Struct.
func (m *Manifest) Struct() (*structpb.Struct, error) {
	pages := make([]any, len(m.Pages))
	for i, p := range m.Pages {
		pages[i] = p
	}
	entries := make(map[string]any, len(m.entries))
	for id, e := range m.entries {
		params := make([]any, len(e.Parameters))
		for i, p := range e.Parameters {
			params[i] = p
		}
		fields := map[string]any{
			"code":       e.Code,
			"resultType": e.ResultType,
			"value":      e.Value,
			"cell":       e.Cell,
			"writable":   e.Writable,
			"parameters": params,
			"property":   e.Property,
			"error":      e.Error,
		}
		entries[string(id)] = fields
	}
	return structpb.NewStruct(map[string]any{
		"pages":    pages,
		"bindings": entries,
	})
}

// FromStruct is the inverse of Struct.
func FromStruct(s *structpb.Struct) (*Manifest, error) {
	m := New()
	for _, p := range s.Fields["pages"].GetListValue().GetValues() {
		m.Pages = append(m.Pages, p.GetStringValue())
	}
	bindings := s.Fields["bindings"].GetStructValue()
	if bindings == nil {
		return nil, fmt.Errorf("manifest has no bindings")
	}
	for id, v := range bindings.Fields {
		f := v.GetStructValue()
		if f == nil {
			return nil, fmt.Errorf("binding %s is not an object", id)
		}
		str := func(name string) string { return f.Fields[name].GetStringValue() }
		e := &Entry{
			ID:         identity.ID(id),
			Code:       str("code"),
			Property:   str("property"),
			ResultType: str("resultType"),
			Value:      str("value"),
			Cell:       str("cell"),
			Writable:   f.Fields["writable"].GetBoolValue(),
			Error:      str("error"),
		}
		for _, p := range f.Fields["parameters"].GetListValue().GetValues() {
			e.Parameters = append(e.Parameters, p.GetStringValue())
		}
		m.entries[e.ID] = e
	}
	return m, nil
}

// A Format is an encoding of a manifest.
type Format string

const (
	Wire Format = "wire"
	JSON Format = "json"
	Text Format = "text"
)

// Marshal encodes m in the format f.
func (m *Manifest) Marshal(f Format) ([]byte, error) {
	s, err := m.Struct()
	if err != nil {
		return nil, err
	}
	var marshal func(protoreflect.ProtoMessage) ([]byte, error)
	switch f {
	case Wire:
		marshal = proto.MarshalOptions{Deterministic: true}.Marshal
	case JSON:
		marshal = protojson.MarshalOptions{Multiline: true, Indent: "\t"}.Marshal
	case Text:
		marshal = prototext.MarshalOptions{Multiline: true, Indent: "\t"}.Marshal
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", f)
	}
	return marshal(s)
}

// Unmarshal decodes a manifest encoded in the format f.
func Unmarshal(data []byte, f Format) (*Manifest, error) {
	s := new(structpb.Struct)
	var err error
	switch f {
	case Wire:
		err = proto.Unmarshal(data, s)
	case JSON:
		err = protojson.Unmarshal(data, s)
	case Text:
		err = prototext.Unmarshal(data, s)
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s", f)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding manifest: %v", err)
	}
	return FromStruct(s)
}
