// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Predeclared types.
var (
	Any    = &Type{Name: "System.Object", Kind: AnyKind, Nullable: true}
	Bool   = &Type{Name: "System.Boolean", Kind: BoolKind}
	Int    = &Type{Name: "System.Int32", Kind: IntKind}
	Float  = &Type{Name: "System.Double", Kind: FloatKind}
	String = &Type{Name: "System.String", Kind: StringKind, Nullable: true}
	Void   = &Type{Name: "System.Void", Kind: VoidKind}

	Math      = NewStatic("System.Math")
	Resources = NewStatic("App.Resources")
)

// aliases are the keyword spellings of the predeclared types.
var aliases = map[string]*Type{
	"object": Any,
	"bool":   Bool,
	"int":    Int,
	"double": Float,
	"string": String,
	"void":   Void,
}

func init() {
	Any.AddMethod(&Method{
		Name:   "ToString",
		Result: String,
		Call: func(recv any, _ []any) (any, error) {
			return Format(recv), nil
		},
	})

	String.AddField("Length", Int).Get = func(recv any) (any, error) {
		s, _ := recv.(string)
		return int64(len(s)), nil
	}
	String.Field("Length").ReadOnly = true
	stringMethod := func(name string, result *Type, fn func(s, arg string) any) {
		String.AddMethod(&Method{
			Name:   name,
			Params: []*Type{String},
			Result: result,
			Call: func(recv any, args []any) (any, error) {
				s, _ := recv.(string)
				arg, _ := args[0].(string)
				return fn(s, arg), nil
			},
		})
	}
	stringMethod("Contains", Bool, func(s, arg string) any { return strings.Contains(s, arg) })
	stringMethod("StartsWith", Bool, func(s, arg string) any { return strings.HasPrefix(s, arg) })
	stringMethod("EndsWith", Bool, func(s, arg string) any { return strings.HasSuffix(s, arg) })
	for _, m := range []struct {
		name string
		fn   func(string) string
	}{
		{"ToUpper", strings.ToUpper},
		{"ToLower", strings.ToLower},
		{"Trim", strings.TrimSpace},
	} {
		fn := m.fn
		String.AddMethod(&Method{
			Name:   m.name,
			Result: String,
			Call: func(recv any, _ []any) (any, error) {
				s, _ := recv.(string)
				return fn(s), nil
			},
		})
	}
	String.AddMethod(&Method{
		Name:   "IsNullOrEmpty",
		Static: true,
		Params: []*Type{String},
		Result: Bool,
		Call: func(_ any, args []any) (any, error) {
			s, _ := args[0].(string)
			return s == "", nil
		},
	})
	String.AddMethod(&Method{
		Name:   "IsNullOrWhiteSpace",
		Static: true,
		Params: []*Type{String},
		Result: Bool,
		Call: func(_ any, args []any) (any, error) {
			s, _ := args[0].(string)
			return strings.TrimSpace(s) == "", nil
		},
	})

	for _, name := range []string{"Max", "Min"} {
		for _, t := range []*Type{Int, Float} {
			isMax := name == "Max"
			Math.AddMethod(&Method{
				Name:   name,
				Static: true,
				Params: []*Type{t, t},
				Result: t,
				Call: func(_ any, args []any) (any, error) {
					switch x := args[0].(type) {
					case int64:
						y := args[1].(int64)
						if (x < y) == isMax {
							return y, nil
						}
						return x, nil
					case float64:
						y := args[1].(float64)
						if isMax {
							return math.Max(x, y), nil
						}
						return math.Min(x, y), nil
					}
					return nil, fmt.Errorf("Math.%s: unsupported operand %T", name, args[0])
				},
			})
		}
	}
	Math.AddMethod(&Method{
		Name:   "Abs",
		Static: true,
		Params: []*Type{Float},
		Result: Float,
		Call: func(_ any, args []any) (any, error) {
			x, _ := args[0].(float64)
			return math.Abs(x), nil
		},
	})

	Resources.AddMethod(&Method{
		Name:   "Url",
		Static: true,
		Params: []*Type{String},
		Result: String,
		Call: func(_ any, args []any) (any, error) {
			name, _ := args[0].(string)
			return "/resource/" + name, nil
		},
	})
}

// Format renders a runtime value the way ToString does.
func Format(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "True"
		}
		return "False"
	case int64:
		return fmt.Sprint(v)
	case float64:
		return fmt.Sprint(v)
	}
	return fmt.Sprint(v)
}

// A Universe is the set of named types visible to a compilation.
// The zero value is not usable; call NewUniverse.
type Universe struct {
	named map[string]*Type
}

// NewUniverse returns a universe containing the predeclared types.
func NewUniverse() *Universe {
	u := &Universe{named: make(map[string]*Type)}
	for _, t := range []*Type{Any, Bool, Int, Float, String, Void, Math, Resources} {
		u.named[t.Name] = t
	}
	return u
}

// Define adds a named type to u. It returns an error if the name is
// already taken by a different type.
func (u *Universe) Define(t *Type) error {
	if prev, ok := u.named[t.Name]; ok && prev != t {
		return fmt.Errorf("type %s already defined", t.Name)
	}
	u.named[t.Name] = t
	return nil
}

// Names returns the sorted names of all types in u.
func (u *Universe) Names() []string {
	names := make([]string, 0, len(u.named))
	for name := range u.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a type by name. The name may be a keyword alias,
// a fully qualified name, or a name relative to one of namespaces.
func (u *Universe) Lookup(name string, namespaces ...string) *Type {
	if t, ok := aliases[name]; ok {
		return t
	}
	if t, ok := u.named[name]; ok {
		return t
	}
	for _, ns := range append(namespaces, "System") {
		if t, ok := u.named[ns+"."+name]; ok {
			return t
		}
	}
	return nil
}

// IsNamespace reports whether some type in u is declared in a
// namespace whose name is, or starts with, prefix.
func (u *Universe) IsNamespace(prefix string) bool {
	for name := range u.named {
		if strings.HasPrefix(name, prefix+".") {
			return true
		}
	}
	return false
}

// Parse parses a type expression such as "int?", "List<string>" or
// "App.Customer", resolving simple names against namespaces.
func (u *Universe) Parse(s string, namespaces ...string) (*Type, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, fmt.Errorf("empty type name")
	case strings.HasSuffix(s, "?"):
		t, err := u.Parse(s[:len(s)-1], namespaces...)
		if err != nil {
			return nil, err
		}
		return Nullable(t), nil
	case strings.HasSuffix(s, "[]"):
		t, err := u.Parse(s[:len(s)-2], namespaces...)
		if err != nil {
			return nil, err
		}
		return ListOf(t), nil
	case strings.HasSuffix(s, ">"):
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			return nil, fmt.Errorf("malformed type %q", s)
		}
		generic, arg := s[:lt], s[lt+1:len(s)-1]
		switch generic {
		case "List", "IList", "IEnumerable", "System.Collections.Generic.List":
			elem, err := u.Parse(arg, namespaces...)
			if err != nil {
				return nil, err
			}
			return ListOf(elem), nil
		}
		return nil, fmt.Errorf("unknown generic type %s", generic)
	}
	if t := u.Lookup(s, namespaces...); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("undefined type %s", s)
}
