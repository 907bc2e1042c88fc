// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binding

import "fmt"

// A Property names one artifact of a binding.
//
// Input properties are supplied when the binding is created; all
// others are computed on request by a Resolver.
type Property uint8

const (
	_ Property = iota

	// Inputs.
	OriginalString    // string: source text
	ParsedExpression  // typed.Expr
	DataContext       // *scope.Scope
	ExpectedType      // *types.Type; System.Object if not supplied
	DeclaringProperty // string: full name of the declaring property
	TreeRoot          // string: the syntax tree containing the binding
	LocationInfo      // Location

	// Server.
	ResultType       // *types.Type
	CastedExpression // typed.Expr converted to ExpectedType
	ReadDelegate     // compile.ReadFunc
	WriteDelegate    // compile.WriteFunc, nil if not assignable

	// Client.
	ScriptAST           // jsast.Expr, untouched translation
	ResolvedScript      // *translate.Resolved
	CellScript          // *script.Code, may produce a cell
	ValueScript         // *script.Code, never produces a cell
	CellWrappedScript   // *script.Code, always produces a cell
	OptionsLambdaScript // *script.Code: options => value
	SimplePath          // *script.Code of ScriptAST

	// Identity.
	SiblingIndex // int, -1 without a tree root
	ID           // identity.ID

	// Derived bindings.
	NegatedBinding            // *Binding
	IsNullBinding             // *Binding
	IsNullOrEmptyBinding      // *Binding
	IsNullOrWhitespaceBinding // *Binding
	IsMoreThanZeroBinding     // *Binding
	DataSourceAccess          // *Binding
	DataSourceLength          // *Binding
	DataSourceCurrentElement  // *Binding, in CollectionElementScope
	CollectionElementScope    // *scope.Scope
	ThisBinding               // *Binding
	ReferencedProperties      // *References

	numProperties
)

var propertyNames = [...]string{
	OriginalString:            "OriginalString",
	ParsedExpression:          "ParsedExpression",
	DataContext:               "DataContext",
	ExpectedType:              "ExpectedType",
	DeclaringProperty:         "DeclaringProperty",
	TreeRoot:                  "TreeRoot",
	LocationInfo:              "LocationInfo",
	ResultType:                "ResultType",
	CastedExpression:          "CastedExpression",
	ReadDelegate:              "ReadDelegate",
	WriteDelegate:             "WriteDelegate",
	ScriptAST:                 "ScriptAST",
	ResolvedScript:            "ResolvedScript",
	CellScript:                "CellScript",
	ValueScript:               "ValueScript",
	CellWrappedScript:         "CellWrappedScript",
	OptionsLambdaScript:       "OptionsLambdaScript",
	SimplePath:                "SimplePath",
	SiblingIndex:              "SiblingIndex",
	ID:                        "ID",
	NegatedBinding:            "NegatedBinding",
	IsNullBinding:             "IsNullBinding",
	IsNullOrEmptyBinding:      "IsNullOrEmptyBinding",
	IsNullOrWhitespaceBinding: "IsNullOrWhitespaceBinding",
	IsMoreThanZeroBinding:     "IsMoreThanZeroBinding",
	DataSourceAccess:          "DataSourceAccess",
	DataSourceLength:          "DataSourceLength",
	DataSourceCurrentElement:  "DataSourceCurrentElement",
	CollectionElementScope:    "CollectionElementScope",
	ThisBinding:               "ThisBinding",
	ReferencedProperties:      "ReferencedProperties",
}

func (p Property) String() string {
	if 0 < p && p < numProperties {
		return propertyNames[p]
	}
	return fmt.Sprintf("binding.Property(%d)", p)
}

// Properties returns all properties in declaration order.
func Properties() []Property {
	ps := make([]Property, 0, numProperties-1)
	for p := OriginalString; p < numProperties; p++ {
		ps = append(ps, p)
	}
	return ps
}

// ParseProperty returns the property with the given name.
func ParseProperty(name string) (Property, bool) {
	for p := OriginalString; p < numProperties; p++ {
		if propertyNames[p] == name {
			return p, true
		}
	}
	return 0, false
}
