// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config reads page descriptions for the bindc command.
//
// A page file is TOML:
//
//	[compiler]
//	null_checks = true
//	workers = 4
//
//	[[types]]
//	name = "App.Todo"
//	fields = { Title = "string", Done = "bool", Tags = "List<string>" }
//	read_only = ["Title"]
//
//	[page]
//	name = "todo.dothtml"
//	data_type = "App.Todo"
//	imports = ["App"]
//
//	[page.view_model]
//	Title = "Groceries"
//	Done = false
//	Tags = ["food"]
//
//	[[bindings]]
//	code = "Title.ToUpper()"
//	property = "Literal.Text"
//	expected_type = "string"
//
// A binding with a collection is compiled in the scope of an element
// of that field of the page data type.
package config // import "github.com/tomasmikes/dotvvm/config"

import (
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml"

	"github.com/tomasmikes/dotvvm/binding"
	"github.com/tomasmikes/dotvvm/scope"
	"github.com/tomasmikes/dotvvm/types"
)

// A Config describes one page and how to compile it.
type Config struct {
	Compiler Compiler
	Types    []*Type
	Page     Page
	Bindings []*Binding
}

// Compiler holds the compiler options.
type Compiler struct {
	NullChecks bool
	Debug      bool
	Workers    int
}

// A Type declares a view-model object type.
type Type struct {
	Name     string
	Fields   map[string]string // field name -> type expression
	ReadOnly []string
}

// Page describes the page root.
type Page struct {
	Name      string
	DataType  string
	Imports   []string
	ViewModel map[string]any
}

// A Binding is one binding of the page.
type Binding struct {
	Code         string
	Property     string
	ExpectedType string
	Collection   string
}

// tomlFile is the TOML encoding of a Config.
type tomlFile struct {
	Compiler tomlCompiler   `toml:"compiler"`
	Types    []*tomlType    `toml:"types"`
	Page     tomlPage       `toml:"page"`
	Bindings []*tomlBinding `toml:"bindings"`
}

type tomlCompiler struct {
	NullChecks *bool `toml:"null_checks"`
	Debug      bool  `toml:"debug"`
	Workers    int   `toml:"workers"`
}

type tomlType struct {
	Name     string            `toml:"name"`
	Fields   map[string]string `toml:"fields"`
	ReadOnly []string          `toml:"read_only,omitempty"`
}

type tomlPage struct {
	Name     string   `toml:"name"`
	DataType string   `toml:"data_type"`
	Imports  []string `toml:"imports,omitempty"`
}

type tomlBinding struct {
	Code         string `toml:"code"`
	Property     string `toml:"property,omitempty"`
	ExpectedType string `toml:"expected_type,omitempty"`
	Collection   string `toml:"collection,omitempty"`
}

// Default returns the configuration used when no file is given:
// an empty page of type System.Object with null checks enabled.
func Default() *Config {
	return &Config{
		Compiler: Compiler{NullChecks: true},
		Page:     Page{Name: "<stdin>", DataType: "object", ViewModel: map[string]any{}},
	}
}

// Load reads the page file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	if c.Page.Name == Default().Page.Name {
		c.Page.Name = path
	}
	return c, nil
}

// Parse parses a page file.
func Parse(data []byte) (*Config, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	var f tomlFile
	if err := tree.Unmarshal(&f); err != nil {
		return nil, err
	}

	c := Default()
	if f.Compiler.NullChecks != nil {
		c.Compiler.NullChecks = *f.Compiler.NullChecks
	}
	c.Compiler.Debug = f.Compiler.Debug
	if f.Compiler.Workers < 0 {
		return nil, fmt.Errorf("compiler.workers must not be negative, got %d", f.Compiler.Workers)
	}
	c.Compiler.Workers = f.Compiler.Workers

	for i, t := range f.Types {
		if t.Name == "" {
			return nil, fmt.Errorf("types[%d] has no name", i)
		}
		c.Types = append(c.Types, &Type{Name: t.Name, Fields: t.Fields, ReadOnly: t.ReadOnly})
	}

	if f.Page.Name != "" {
		c.Page.Name = f.Page.Name
	}
	if f.Page.DataType != "" {
		c.Page.DataType = f.Page.DataType
	}
	c.Page.Imports = f.Page.Imports
	if vm, ok := tree.GetPath([]string{"page", "view_model"}).(*toml.Tree); ok {
		c.Page.ViewModel = normalize(vm.ToMap()).(map[string]any)
	}

	for i, b := range f.Bindings {
		if b.Code == "" {
			return nil, fmt.Errorf("bindings[%d] has no code", i)
		}
		c.Bindings = append(c.Bindings, &Binding{
			Code:         b.Code,
			Property:     b.Property,
			ExpectedType: b.ExpectedType,
			Collection:   b.Collection,
		})
	}
	return c, nil
}

// normalize converts decoded TOML values to the view-model
// representation: nested tables become map[string]any and arrays []any.
func normalize(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, x := range v {
			v[k] = normalize(x)
		}
		return v
	case []any:
		for i, x := range v {
			v[i] = normalize(x)
		}
		return v
	case []map[string]any:
		list := make([]any, len(v))
		for i, x := range v {
			list[i] = normalize(x)
		}
		return list
	case int:
		return int64(v)
	}
	return v
}

// Options returns the binding compiler options of c.
func (c *Config) Options() binding.Options {
	return binding.Options{
		NullChecks: c.Compiler.NullChecks,
		Debug:      c.Compiler.Debug,
		Workers:    c.Compiler.Workers,
	}
}

// Universe returns a universe holding the declared types.
// Field types may refer to any declared type.
func (c *Config) Universe() (*types.Universe, error) {
	u := types.NewUniverse()
	objs := make([]*types.Type, len(c.Types))
	for i, t := range c.Types {
		objs[i] = types.NewObject(t.Name)
		if err := u.Define(objs[i]); err != nil {
			return nil, err
		}
	}
	for i, t := range c.Types {
		names := make([]string, 0, len(t.Fields))
		for name := range t.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ft, err := u.Parse(t.Fields[name], c.Page.Imports...)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %v", t.Name, name, err)
			}
			objs[i].AddField(name, ft)
		}
		for _, name := range t.ReadOnly {
			f := objs[i].Field(name)
			if f == nil {
				return nil, fmt.Errorf("%s: read-only field %s is not declared", t.Name, name)
			}
			f.ReadOnly = true
		}
	}
	return u, nil
}

// ControlParam is the special parameter bound to the current control.
var ControlParam = &scope.Parameter{Name: "_control", Type: types.Any, Kind: scope.Control}

// Scope returns the root scope of the page.
func (c *Config) Scope(u *types.Universe) (*scope.Scope, error) {
	t, err := u.Parse(c.Page.DataType, c.Page.Imports...)
	if err != nil {
		return nil, fmt.Errorf("page data type: %v", err)
	}
	imports := make([]scope.Import, len(c.Page.Imports))
	for i, ns := range c.Page.Imports {
		imports[i] = scope.Import{Namespace: ns}
	}
	return scope.New(t, nil, []*scope.Parameter{ControlParam}, imports...), nil
}

// Inputs returns the binding inputs of the page, whose root scope is root.
func (c *Config) Inputs(u *types.Universe, root *scope.Scope) ([]binding.Input, error) {
	inputs := make([]binding.Input, len(c.Bindings))
	elems := make(map[string]*scope.Scope)
	for i, b := range c.Bindings {
		in := binding.Input{Code: b.Code, Scope: root, Property: b.Property, TreeRoot: c.Page.Name}
		if b.ExpectedType != "" {
			t, err := u.Parse(b.ExpectedType, c.Page.Imports...)
			if err != nil {
				return nil, fmt.Errorf("bindings[%d]: expected type: %v", i, err)
			}
			in.ExpectedType = t
		}
		if b.Collection != "" {
			s, ok := elems[b.Collection]
			if !ok {
				f := root.DataType.Field(b.Collection)
				if f == nil || f.Type.Kind != types.ListKind {
					return nil, fmt.Errorf("bindings[%d]: %s is not a collection of %s", i, b.Collection, root.DataType)
				}
				s = scope.CollectionElement(root, f.Type)
				elems[b.Collection] = s
			}
			in.Scope = s
		}
		inputs[i] = in
	}
	return inputs, nil
}
