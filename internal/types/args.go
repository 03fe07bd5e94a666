package types

import (
	"strconv"
	"strings"
)

// ArgKind classifies a template argument.
type ArgKind uint8

const (
	ArgType ArgKind = iota
	ArgValue
	// ArgDependentValue is the value of a non-type parameter plus a constant
	// offset, so that I and I+0 canonicalise alike.
	ArgDependentValue
	ArgTemplate
	ArgPack
)

// ParamKey is the position of a template parameter.
type ParamKey struct {
	Depth uint32
	Index uint32
}

// TemplateArg is one canonical template argument.
//
//	ArgType            Type
//	ArgValue           Value
//	ArgDependentValue  Param, Value (offset)
//	ArgTemplate        Entity (the template binding)
//	ArgPack            Pack
type TemplateArg struct {
	Kind   ArgKind
	Type   TypeID
	Value  int64
	Param  ParamKey
	Entity uint32
	Pack   []TemplateArg
}

func TypeArg(t TypeID) TemplateArg { return TemplateArg{Kind: ArgType, Type: t} }

func ValueArg(v int64) TemplateArg { return TemplateArg{Kind: ArgValue, Value: v} }

func TemplateRef(entity uint32) TemplateArg {
	return TemplateArg{Kind: ArgTemplate, Entity: entity}
}

// Bindings maps template parameters to their arguments.
type Bindings map[ParamKey]TemplateArg

// Clone copies b; a nil map yields an empty one.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Key renders the argument canonically. Type IDs are canonical already, so
// the key is a plain concatenation.
func (a TemplateArg) Key() string {
	var sb strings.Builder
	a.writeKey(&sb)
	return sb.String()
}

func (a TemplateArg) writeKey(sb *strings.Builder) {
	switch a.Kind {
	case ArgType:
		sb.WriteByte('t')
		sb.WriteString(strconv.FormatUint(uint64(a.Type), 10))
	case ArgValue:
		sb.WriteByte('v')
		sb.WriteString(strconv.FormatInt(a.Value, 10))
	case ArgDependentValue:
		sb.WriteByte('p')
		sb.WriteString(strconv.FormatUint(uint64(a.Param.Depth), 10))
		sb.WriteByte('.')
		sb.WriteString(strconv.FormatUint(uint64(a.Param.Index), 10))
		sb.WriteByte('+')
		sb.WriteString(strconv.FormatInt(a.Value, 10))
	case ArgTemplate:
		sb.WriteByte('x')
		sb.WriteString(strconv.FormatUint(uint64(a.Entity), 10))
	case ArgPack:
		sb.WriteByte('[')
		for i, p := range a.Pack {
			if i > 0 {
				sb.WriteByte(',')
			}
			p.writeKey(sb)
		}
		sb.WriteByte(']')
	}
}

// ArgsKey is the memoization key of an argument list.
func ArgsKey(args []TemplateArg) string {
	var sb strings.Builder
	for i, a := range args {
		if i > 0 {
			sb.WriteByte(',')
		}
		a.writeKey(&sb)
	}
	return sb.String()
}

// Equal compares two arguments canonically.
func (a TemplateArg) Equal(b TemplateArg) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ArgType:
		return a.Type == b.Type
	case ArgValue:
		return a.Value == b.Value
	case ArgDependentValue:
		return a.Param == b.Param && a.Value == b.Value
	case ArgTemplate:
		return a.Entity == b.Entity
	case ArgPack:
		if len(a.Pack) != len(b.Pack) {
			return false
		}
		for i := range a.Pack {
			if !a.Pack[i].Equal(b.Pack[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// ArgDependent reports whether the argument mentions a template parameter.
func (in *Interner) ArgDependent(a TemplateArg) bool {
	switch a.Kind {
	case ArgType:
		return in.IsDependent(a.Type)
	case ArgDependentValue:
		return true
	case ArgPack:
		for _, p := range a.Pack {
			if in.ArgDependent(p) {
				return true
			}
		}
	}
	return false
}

// ArgsDependent reports whether any argument is dependent.
func (in *Interner) ArgsDependent(args []TemplateArg) bool {
	for _, a := range args {
		if in.ArgDependent(a) {
			return true
		}
	}
	return false
}
