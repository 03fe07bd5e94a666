package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Namer renders the name of a class, enum or template parameter binding.
type Namer func(entity uint32) string

// String renders id in C declarator syntax: "const int *", "int (*)(char)".
func (in *Interner) String(id TypeID, name Namer) string {
	return in.render(id, "", name)
}

func (in *Interner) render(id TypeID, inner string, name Namer) string {
	t, ok := in.Lookup(id)
	if !ok {
		return join("<invalid>", inner)
	}
	switch t.Kind {
	case KindPointer, KindLRef, KindRRef, KindMemberPointer:
		op := "*"
		switch t.Kind {
		case KindLRef:
			op = "&"
		case KindRRef:
			op = "&&"
		case KindMemberPointer:
			op = in.render(t.Class, "", name) + "::*"
		}
		if t.CV != 0 {
			op += " " + t.CV.String()
			if inner != "" {
				op += " "
			}
		}
		inner = op + inner
		if k := in.Kind(t.Elem); k == KindArray || k == KindFunction {
			inner = "(" + inner + ")"
		}
		return in.render(t.Elem, inner, name)
	case KindArray:
		bound := ""
		if t.Count >= 0 {
			bound = strconv.FormatInt(t.Count, 10)
		}
		return in.render(t.Elem, inner+"["+bound+"]", name)
	case KindFunction:
		var sb strings.Builder
		sb.WriteString(inner)
		sb.WriteByte('(')
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(in.render(p, "", name))
		}
		if t.Variadic {
			if len(t.Params) > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("...")
		}
		sb.WriteByte(')')
		if t.FnCV != 0 {
			sb.WriteString(" " + t.FnCV.String())
		}
		switch t.Ref {
		case RefLValue:
			sb.WriteString(" &")
		case RefRValue:
			sb.WriteString(" &&")
		}
		return in.render(t.Elem, sb.String(), name)
	}

	base := t.Kind.String()
	switch t.Kind {
	case KindClass, KindEnum, KindParam:
		if name != nil {
			base = name(t.Entity)
		} else {
			base = fmt.Sprintf("%s#%d", t.Kind, t.Entity)
		}
		if t.Kind == KindParam && t.Pack {
			base += "..."
		}
	case KindDependent:
		base = "typename " + in.render(t.Elem, "", name) + "::" + fmt.Sprintf("$%d", t.Name)
	case KindSynth:
		base = fmt.Sprintf("<synth%d>", t.Index)
	case KindNullptr:
		base = "std::nullptr_t"
	}
	if t.CV != 0 {
		base = t.CV.String() + " " + base
	}
	return join(base, inner)
}

func join(base, inner string) string {
	if inner == "" {
		return base
	}
	if strings.HasPrefix(inner, "[") || strings.HasPrefix(inner, "(") && !strings.HasPrefix(inner, "(*") && !strings.HasPrefix(inner, "(&") {
		return base + inner
	}
	return base + " " + inner
}
