// Copyright 2017 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsast

// L is an operator precedence level.
type L uint8

const (
	LLowest L = iota
	LComma
	LAssign
	LConditional
	LNullishCoalescing
	LLogicalOr
	LLogicalAnd
	LEquals
	LCompare
	LAdd
	LMultiply
	LPrefix
	LPostfix
	LNew
	LCall
	LMember
)

// An OpCode is a unary or binary operator.
type OpCode uint8

const (
	// Prefix
	UnPos OpCode = iota
	UnNeg
	UnNot
	UnTypeof
	UnVoid

	// Left-associative
	BinAdd
	BinSub
	BinMul
	BinDiv
	BinRem
	BinLt
	BinLe
	BinGt
	BinGe
	BinLooseEq
	BinLooseNe
	BinStrictEq
	BinStrictNe
	BinNullishCoalescing
	BinLogicalOr
	BinLogicalAnd

	// Right-associative
	BinAssign
)

// IsPrefix reports whether op is a unary operator.
func (op OpCode) IsPrefix() bool { return op < BinAdd }

// IsShortCircuit reports whether the right operand of op may be skipped.
func (op OpCode) IsShortCircuit() bool {
	return op == BinLogicalOr || op == BinLogicalAnd || op == BinNullishCoalescing
}

// IsRightAssociative reports whether op groups right to left.
func (op OpCode) IsRightAssociative() bool { return op == BinAssign }

type opTableEntry struct {
	Text      string
	Level     L
	IsKeyword bool
}

// OpTable holds the spelling and precedence of each operator.
var OpTable = [...]opTableEntry{
	UnPos:    {"+", LPrefix, false},
	UnNeg:    {"-", LPrefix, false},
	UnNot:    {"!", LPrefix, false},
	UnTypeof: {"typeof", LPrefix, true},
	UnVoid:   {"void", LPrefix, true},

	BinAdd:               {"+", LAdd, false},
	BinSub:               {"-", LAdd, false},
	BinMul:               {"*", LMultiply, false},
	BinDiv:               {"/", LMultiply, false},
	BinRem:               {"%", LMultiply, false},
	BinLt:                {"<", LCompare, false},
	BinLe:                {"<=", LCompare, false},
	BinGt:                {">", LCompare, false},
	BinGe:                {">=", LCompare, false},
	BinLooseEq:           {"==", LEquals, false},
	BinLooseNe:           {"!=", LEquals, false},
	BinStrictEq:          {"===", LEquals, false},
	BinStrictNe:          {"!==", LEquals, false},
	BinNullishCoalescing: {"??", LNullishCoalescing, false},
	BinLogicalOr:         {"||", LLogicalOr, false},
	BinLogicalAnd:        {"&&", LLogicalAnd, false},
	BinAssign:            {"=", LAssign, false},
}

func (op OpCode) String() string { return OpTable[op].Text }
