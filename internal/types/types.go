package types

import (
	"fmt"

	"cxxsema/internal/source"
)

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVoid
	KindBool
	KindChar
	KindSChar
	KindUChar
	KindWChar
	KindChar16
	KindChar32
	KindShort
	KindUShort
	KindInt
	KindUInt
	KindLong
	KindULong
	KindLongLong
	KindULongLong
	KindFloat
	KindDouble
	KindLongDouble
	KindNullptr
	KindPointer
	KindLRef
	KindRRef
	KindArray
	KindFunction
	KindMemberPointer
	KindClass
	KindEnum
	KindParam       // template type parameter
	KindDependent   // typename Q::name
	KindSynth       // unique type used by partial ordering
	KindOverloadSet // an overloaded function name before a target is known
)

var kindNames = [...]string{
	KindInvalid:       "invalid",
	KindVoid:          "void",
	KindBool:          "bool",
	KindChar:          "char",
	KindSChar:         "signed char",
	KindUChar:         "unsigned char",
	KindWChar:         "wchar_t",
	KindChar16:        "char16_t",
	KindChar32:        "char32_t",
	KindShort:         "short",
	KindUShort:        "unsigned short",
	KindInt:           "int",
	KindUInt:          "unsigned int",
	KindLong:          "long",
	KindULong:         "unsigned long",
	KindLongLong:      "long long",
	KindULongLong:     "unsigned long long",
	KindFloat:         "float",
	KindDouble:        "double",
	KindLongDouble:    "long double",
	KindNullptr:       "nullptr_t",
	KindPointer:       "pointer",
	KindLRef:          "lvalue reference",
	KindRRef:          "rvalue reference",
	KindArray:         "array",
	KindFunction:      "function",
	KindMemberPointer: "member pointer",
	KindClass:         "class",
	KindEnum:          "enum",
	KindParam:         "template parameter",
	KindDependent:     "dependent name",
	KindSynth:         "synthesized",
	KindOverloadSet:   "overload set",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// CV is a set of cv-qualifiers.
type CV uint8

const (
	Const CV = 1 << iota
	Volatile
	Restrict
)

func (cv CV) String() string {
	s := ""
	if cv&Const != 0 {
		s = "const"
	}
	if cv&Volatile != 0 {
		if s != "" {
			s += " "
		}
		s += "volatile"
	}
	if cv&Restrict != 0 {
		if s != "" {
			s += " "
		}
		s += "restrict"
	}
	return s
}

// Covers reports whether cv has every qualifier of other.
func (cv CV) Covers(other CV) bool { return cv&other == other }

// RefQual is the ref-qualifier of a member function.
type RefQual uint8

const (
	RefNone RefQual = iota
	RefLValue
	RefRValue
)

// UnknownBound is the Count of an array without a bound.
const UnknownBound int64 = -1

// DependentBound is the Count of an array bounded by a template parameter.
const DependentBound int64 = -2

// Type is a compact descriptor for any supported type.
//
//	Pointer, LRef, RRef     Elem
//	Array                   Elem, Count
//	Function                Elem (return), Params, Variadic, FnCV, Ref
//	MemberPointer           Class, Elem
//	Class, Enum             Entity (the binding)
//	Param                   Depth, Index, Pack, Entity (first declaring binding)
//	Dependent               Elem (qualifier), Name
//	Synth                   Index
type Type struct {
	Kind      Kind
	CV        CV
	Elem      TypeID
	Class     TypeID
	Count     int64
	Entity    uint32
	Depth     uint32
	Index     uint32
	Pack      bool
	Params    []TypeID
	Variadic  bool
	FnCV      CV
	Ref       RefQual
	Name      source.StringID
	Dependent bool
}

// IsIntegral covers bool, the character types and the integer types.
func (k Kind) IsIntegral() bool { return k >= KindBool && k <= KindULongLong }

func (k Kind) IsFloating() bool { return k >= KindFloat && k <= KindLongDouble }

func (k Kind) IsArithmetic() bool { return k.IsIntegral() || k.IsFloating() }

func (k Kind) IsBuiltin() bool { return k >= KindVoid && k <= KindNullptr }

func (k Kind) IsReference() bool { return k == KindLRef || k == KindRRef }

// IsSigned is meaningful for integral kinds only.
func (k Kind) IsSigned() bool {
	switch k {
	case KindChar, KindSChar, KindWChar, KindShort, KindInt, KindLong, KindLongLong:
		return true
	}
	return false
}

// Rank is the integer conversion rank.
func (k Kind) Rank() int {
	switch k {
	case KindBool:
		return 0
	case KindChar, KindSChar, KindUChar:
		return 1
	case KindShort, KindUShort, KindChar16:
		return 2
	case KindInt, KindUInt, KindWChar, KindChar32:
		return 3
	case KindLong, KindULong:
		return 4
	case KindLongLong, KindULongLong:
		return 5
	}
	return -1
}
