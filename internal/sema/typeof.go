package sema

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/symbols"
	"cxxsema/internal/token"
	"cxxsema/internal/types"
)

// builtinType folds a sequence of type keywords: unsigned long int.
func (u *Unit) builtinType(kws []token.Kind) types.TypeID {
	var signed, unsigned, short, char, float, double bool
	long := 0
	b := u.builtins
	for _, k := range kws {
		switch k {
		case token.KwSigned:
			signed = true
		case token.KwUnsigned:
			unsigned = true
		case token.KwShort:
			short = true
		case token.KwLong:
			long++
		case token.KwChar:
			char = true
		case token.KwFloat:
			float = true
		case token.KwDouble:
			double = true
		case token.KwVoid:
			return b.Void
		case token.KwBool, token.KwCBool:
			return b.Bool
		case token.KwWcharT:
			return b.WChar
		case token.KwChar16T:
			return b.Char16
		case token.KwChar32T:
			return b.Char32
		}
	}
	switch {
	case char && signed:
		return b.SChar
	case char && unsigned:
		return b.UChar
	case char:
		return b.Char
	case float:
		return b.Float
	case double && long > 0:
		return b.LongDouble
	case double:
		return b.Double
	case short && unsigned:
		return b.UShort
	case short:
		return b.Short
	case long >= 2 && unsigned:
		return b.ULongLong
	case long >= 2:
		return b.LongLong
	case long == 1 && unsigned:
		return b.ULong
	case long == 1:
		return b.Long
	case unsigned:
		return b.UInt
	}
	return b.Int
}

// specType is the type named by a decl-specifier sequence, cv included.
// It is NoTypeID for auto and for constructors.
func (u *Unit) specType(spec ast.NodeID) types.TypeID {
	sd := u.b.Spec(spec)
	if sd == nil {
		return types.NoTypeID
	}
	if t, ok := u.nodeTypes[spec]; ok {
		return t
	}
	var t types.TypeID
	switch {
	case sd.Decltype != ast.NoNode:
		t = u.decltypeOf(sd.Decltype)
	case len(sd.Builtin) > 0:
		t = u.builtinType(sd.Builtin)
	case sd.Type != ast.NoNode:
		switch u.kind(sd.Type) {
		case ast.KindClassSpec, ast.KindEnumSpec:
			t = u.typeOfEntity(u.declared[sd.Type])
		case ast.KindElaboratedSpec:
			t = u.typeOfName(u.b.Class(sd.Type).Name)
		default:
			t = u.typeOfName(sd.Type)
		}
	case sd.AutoType:
	default:
		t = u.builtins.Int
	}
	if t != types.NoTypeID {
		t = u.types.Qualify(t, types.CV(sd.CV))
	}
	u.nodeTypes[spec] = t
	return t
}

// typeOfEntity is the type a type binding denotes.
func (u *Unit) typeOfEntity(id symbols.SymbolID) types.TypeID {
	s := u.sym(id)
	if s == nil {
		return types.NoTypeID
	}
	switch s.Kind {
	case symbols.SymbolClass, symbols.SymbolEnum:
		if s.Type == types.NoTypeID {
			u.initTagType(id, s.Scope)
		}
		return u.sym(id).Type
	case symbols.SymbolTypedef, symbols.SymbolTypeParam, symbols.SymbolTemplateParam:
		return u.symbolType(id)
	case symbols.SymbolUsing:
		return u.typeOfEntity(s.Target)
	}
	return types.NoTypeID
}

// typeOfName resolves a name used as a type. Names that cannot be
// resolved before instantiation become dependent types.
func (u *Unit) typeOfName(n ast.NodeID) types.TypeID {
	if !u.valid(n) {
		return types.NoTypeID
	}
	if t, ok := u.nodeTypes[n]; ok {
		return t
	}
	id := u.resolve(n)
	t := u.typeOfEntity(id)
	if !id.IsValid() && u.kind(n) == ast.KindQualified {
		t = u.dependentNameType(n)
	}
	u.nodeTypes[n] = t
	return t
}

// dependentNameType builds typename Q::x for a qualified name whose
// qualifier depends on a template parameter.
func (u *Unit) dependentNameType(n ast.NodeID) types.TypeID {
	q := u.b.Name(n)
	var qt types.TypeID
	for _, seg := range q.Segments {
		if t := u.typeOfEntity(u.resolve(seg)); t != types.NoTypeID {
			qt = t
			continue
		}
		if qt == types.NoTypeID {
			continue
		}
		qt = u.types.DependentName(qt, u.intern(u.nameText(seg)))
	}
	if qt == types.NoTypeID {
		return types.NoTypeID
	}
	return u.types.DependentName(qt, u.intern(u.nameText(q.Last)))
}

// typeIDType is the type of a TypeId node.
func (u *Unit) typeIDType(n ast.NodeID) types.TypeID {
	if !u.valid(n) {
		return types.NoTypeID
	}
	if t, ok := u.nodeTypes[n]; ok {
		return t
	}
	d := u.b.Decl(n)
	t := u.declaratorType(u.specType(d.Specs), d.Declarator)
	u.nodeTypes[n] = t
	return t
}

// declaratorType applies a declarator to base: pointer operators first,
// then suffixes from the right, then the parenthesised inner declarator.
func (u *Unit) declaratorType(base types.TypeID, n ast.NodeID) types.TypeID {
	t := base
	for n != ast.NoNode {
		d := u.b.Declarator(n)
		if d == nil {
			break
		}
		for _, p := range d.Ptrs {
			t = u.applyPtr(t, p)
		}
		for i := len(d.Suffixes) - 1; i >= 0; i-- {
			t = u.applySuffix(t, d.Suffixes[i])
		}
		n = d.Nested
	}
	return t
}

func (u *Unit) applyPtr(t types.TypeID, p ast.PtrOp) types.TypeID {
	switch p.Kind {
	case ast.PtrPointer:
		return u.types.Qualify(u.types.Pointer(t), types.CV(p.CV))
	case ast.PtrLRef:
		return u.types.LRef(t)
	case ast.PtrRRef:
		return u.types.RRef(t)
	case ast.PtrMember:
		return u.types.Qualify(u.types.MemberPointer(u.typeOfName(p.Class), t), types.CV(p.CV))
	}
	return t
}

func (u *Unit) applySuffix(t types.TypeID, s ast.Suffix) types.TypeID {
	if s.Kind == ast.SuffixArray {
		if s.Size == ast.NoNode {
			return u.types.Array(t, types.UnknownBound)
		}
		v := u.constValue(s.Size)
		switch {
		case v.ok:
			return u.types.Array(t, v.v)
		case v.dep && v.pure && v.v == 0:
			return u.types.DependentArray(t, v.param.Depth, v.param.Index)
		case v.dep:
			return u.types.DependentArray(t, ^uint32(0), uint32(s.Size))
		}
		return u.types.Array(t, types.UnknownBound)
	}
	ret := t
	if s.Trailing != ast.NoNode {
		ret = u.typeIDType(s.Trailing)
	}
	var params []types.TypeID
	for i, p := range s.Params {
		pt := u.paramType(p)
		if i == 0 && len(s.Params) == 1 && u.types.Kind(pt) == types.KindVoid && declaratorName(u.b, u.b.Decl(p).Declarator) == ast.NoNode {
			break
		}
		params = append(params, u.types.Unqualified(pt))
	}
	ref := types.RefNone
	if s.HasRef {
		ref = types.RefLValue
		if s.RefQual == ast.PtrRRef {
			ref = types.RefRValue
		}
	}
	return u.types.Function(ret, params, s.Variadic, types.CV(s.CV), ref)
}

// paramType is the adjusted type of a parameter, top-level cv kept.
func (u *Unit) paramType(p ast.NodeID) types.TypeID {
	if t, ok := u.nodeTypes[p]; ok {
		return t
	}
	d := u.b.Decl(p)
	if d == nil {
		return types.NoTypeID
	}
	t := u.adjustParam(u.declaratorType(u.specType(d.Specs), d.Declarator))
	u.nodeTypes[p] = t
	return t
}

// adjustParam turns array and function parameters into pointers.
func (u *Unit) adjustParam(t types.TypeID) types.TypeID {
	switch u.types.Kind(t) {
	case types.KindArray:
		return u.types.Pointer(u.types.Elem(t))
	case types.KindFunction:
		return u.types.Pointer(t)
	}
	return t
}

func (u *Unit) hasTrailing(decl ast.NodeID) bool {
	lvl, ok := entitySuffix(u.b, decl)
	return ok && u.b.Declarator(lvl).Suffixes[0].Trailing != ast.NoNode
}

func (u *Unit) isFunctionDeclarator(decl ast.NodeID) bool {
	_, ok := entitySuffix(u.b, decl)
	return ok
}

// sameParams compares the parameter lists of two function types,
// qualifiers of member functions included.
func (u *Unit) sameParams(a, b types.TypeID) bool {
	ta, okA := u.types.Lookup(a)
	tb, okB := u.types.Lookup(b)
	if !okA || !okB || ta.Kind != types.KindFunction || tb.Kind != types.KindFunction {
		return false
	}
	if ta.Variadic != tb.Variadic || ta.FnCV != tb.FnCV || ta.Ref != tb.Ref || len(ta.Params) != len(tb.Params) {
		return false
	}
	for i := range ta.Params {
		if ta.Params[i] != tb.Params[i] {
			return false
		}
	}
	return true
}

// decltypeOf applies the decltype rules: the declared type of a named
// entity, otherwise the expression type adjusted by its category.
func (u *Unit) decltypeOf(e ast.NodeID) types.TypeID {
	switch u.kind(e) {
	case ast.KindIdExpr:
		if id := u.resolve(u.b.Expr(e).A); u.isObjectLike(id) {
			u.typeExpr(e)
			return u.symbolType(id)
		}
	case ast.KindMember:
		u.typeExpr(e)
		if id := u.resolve(u.b.Expr(e).B); u.isObjectLike(id) {
			return u.symbolType(id)
		}
	}
	t, cat := u.typeExpr(e)
	switch cat {
	case LValue:
		return u.types.LRef(t)
	case XValue:
		return u.types.RRef(t)
	}
	return t
}

func (u *Unit) isObjectLike(id symbols.SymbolID) bool {
	s := u.sym(id)
	if s == nil {
		return false
	}
	switch s.Kind {
	case symbols.SymbolVariable, symbols.SymbolParameter, symbols.SymbolField,
		symbols.SymbolEnumerator, symbols.SymbolFunction, symbols.SymbolValueParam:
		return true
	}
	return false
}

// symbolType is the type of a binding, deducing auto on first use.
func (u *Unit) symbolType(id symbols.SymbolID) types.TypeID {
	s := u.sym(id)
	if s == nil {
		return types.NoTypeID
	}
	if s.Kind == symbols.SymbolUsing && s.Target.IsValid() {
		return u.symbolType(s.Target)
	}
	if s.Type != types.NoTypeID || s.Flags&symbols.FlagAutoType == 0 {
		return s.Type
	}
	if u.symBusy[id] {
		return types.NoTypeID
	}
	u.symBusy[id] = true
	defer delete(u.symBusy, id)

	var t types.TypeID
	decl := s.Node
	if s.Kind == symbols.SymbolFunction {
		t = u.deduceReturn(decl)
	} else if d := u.b.Declarator(decl); d != nil && d.Init != ast.NoNode {
		init := d.Init
		if e := u.b.Expr(init); e != nil && (u.kind(init) == ast.KindExprList || u.kind(init) == ast.KindInitList) && len(e.List) == 1 {
			init = e.List[0]
		}
		it, cat := u.typeExpr(init)
		if it != types.NoTypeID {
			t = u.deduceAuto(decl, it, cat)
		}
	}
	u.sym(id).Type = t
	return t
}

// deduceAuto gives auto the type of its initializer, shaped by the
// declarator: auto, auto&, auto&&, auto*.
func (u *Unit) deduceAuto(decl ast.NodeID, it types.TypeID, cat Category) types.TypeID {
	base := u.types.NonRef(it)
	var specCV types.CV
	if p := u.b.Decl(u.b.Parent(decl)); p != nil {
		if sd := u.b.Spec(p.Specs); sd != nil {
			specCV = types.CV(sd.CV)
		}
	}
	d := u.b.Declarator(decl)
	if d == nil || len(d.Ptrs) == 0 {
		return u.types.Qualify(u.types.Decay(u.types.Unqualified(base)), specCV)
	}
	last := d.Ptrs[len(d.Ptrs)-1]
	switch last.Kind {
	case ast.PtrLRef:
		return u.types.LRef(u.types.Qualify(base, specCV))
	case ast.PtrRRef:
		if cat == LValue && specCV == 0 {
			return u.types.LRef(base)
		}
		return u.types.RRef(u.types.Unqualified(base))
	case ast.PtrPointer:
		p := u.types.Decay(u.types.Unqualified(base))
		elem := u.types.Qualify(u.types.Elem(p), specCV)
		return u.types.Qualify(u.types.Pointer(elem), types.CV(last.CV))
	}
	return u.types.Decay(u.types.Unqualified(base))
}

// deduceReturn types an auto function from the first return statement of
// its definition.
func (u *Unit) deduceReturn(decl ast.NodeID) types.TypeID {
	fd := u.b.Parent(decl)
	if u.kind(fd) != ast.KindFunctionDef {
		return types.NoTypeID
	}
	ret := u.builtins.Void
	found := false
	u.b.Walk(u.b.Decl(fd).Body, func(n ast.NodeID) bool {
		if found {
			return false
		}
		switch u.kind(n) {
		case ast.KindClassSpec, ast.KindFunctionDef:
			return false
		case ast.KindReturn:
			if e := u.b.Stmt(n).A; e != ast.NoNode {
				t, _ := u.typeExpr(e)
				ret = u.types.Decay(u.types.Unqualified(u.types.NonRef(t)))
				found = true
			}
			return false
		}
		return true
	})
	return u.declaratorType(ret, decl)
}
