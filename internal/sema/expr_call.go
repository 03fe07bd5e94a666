package sema

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/symbols"
	"cxxsema/internal/token"
	"cxxsema/internal/types"
)

// argsOf collects the typed arguments of a call.
func (u *Unit) argsOf(list []ast.NodeID) []callArg {
	out := make([]callArg, len(list))
	for i, a := range list {
		t, cat := u.typeExpr(a)
		out[i] = callArg{t: t, cat: cat, node: a}
	}
	return out
}

func (u *Unit) anyDependent(args []callArg) bool {
	for _, a := range args {
		if u.types.IsDependent(a.t) {
			return true
		}
	}
	return false
}

// anyUserArg reports arguments of class or enumeration type: the ones
// that open argument-dependent lookup.
func (u *Unit) anyUserArg(args []callArg) bool {
	for _, a := range args {
		switch u.types.Kind(u.types.NonRef(a.t)) {
		case types.KindClass, types.KindEnum:
			return true
		}
		switch u.types.Kind(a.t) {
		case types.KindPointer, types.KindArray:
			if k := u.types.Kind(u.types.Elem(a.t)); k == types.KindClass || k == types.KindEnum {
				return true
			}
		}
	}
	return false
}

// callResult is the type and category of a call to a function of type ft.
func (u *Unit) callResult(ft types.TypeID) (types.TypeID, Category) {
	T := u.types
	if T.IsDependent(ft) && T.Kind(ft) != types.KindFunction {
		return u.dependentType(), PRValue
	}
	rt := T.Elem(ft)
	return T.NonRef(rt), categoryOf(T, rt)
}

// finishCallee records the type of a callee that waited for its call,
// parentheses included.
func (u *Unit) finishCallee(callee ast.NodeID, t types.TypeID, cat Category) {
	for {
		u.exprs[callee] = exprInfo{state: exprDone, typ: t, cat: cat}
		if u.kind(callee) != ast.KindParen {
			return
		}
		callee = u.b.Expr(callee).A
	}
}

// bindCallee binds the callee name to the function overload resolution
// chose; a template-id names the instance.
func (u *Unit) bindCallee(name ast.NodeID, best symbols.SymbolID) {
	u.setNameSlots(name, best)
	if last := u.b.LastName(name); u.kind(last) == ast.KindTemplateID {
		u.setSlot(last, best)
	}
}

func (u *Unit) typeCall(n ast.NodeID, e *ast.ExprData) (types.TypeID, Category) {
	switch callee := u.stripParens(e.A); u.kind(callee) {
	case ast.KindIdExpr:
		return u.callName(n, e, callee)
	case ast.KindMember:
		return u.callMember(n, e, callee)
	}
	ct, ccat := u.typeExpr(e.A)
	return u.callValue(n, e, u.argsOf(e.List), ct, ccat)
}

// callName resolves f(args) for a callee named by an id-expression:
// ordinary lookup, argument-dependent lookup for unqualified names, then
// overload resolution.
func (u *Unit) callName(n ast.NodeID, e *ast.ExprData, idx ast.NodeID) (types.TypeID, Category) {
	name := u.b.Expr(idx).A
	last := u.b.LastName(name)
	args := u.argsOf(e.List)
	opts := symbols.LookupOptions{Pos: u.usePos(name)}

	var cands []symbols.SymbolID
	var explicit []types.TemplateArg
	var dep, failed bool
	hasExplicit := false
	if u.kind(last) == ast.KindTemplateID {
		tmpl := u.templateOfName(last)
		s := u.sym(tmpl)
		switch {
		case s == nil:
			return u.dependentCall(e, name, symbols.NoSymbolID)
		case s.Kind == symbols.SymbolProblem:
			u.setNameSlots(name, tmpl)
			u.finishCallee(e.A, types.NoTypeID, CategoryNone)
			return types.NoTypeID, CategoryNone
		case s.Kind != symbols.SymbolFunction:
			id := u.lookupBinding(name, opts)
			u.setNameSlots(name, id)
			t := u.typeOfEntity(id)
			u.finishCallee(e.A, t, CategoryNone)
			return u.construct(n, e.Implicit, t, args, e.List, false, false)
		}
		cands, dep, failed = u.templateCandidates(last)
		explicit, hasExplicit = u.templateArgs(last, tmpl), true
	} else {
		var res symbols.LookupResult
		res, dep, failed = u.lookupName(name, opts)
		if res.Ambiguous {
			u.setNameSlots(name, u.ambiguous(name, res.Symbols))
			u.finishCallee(e.A, types.NoTypeID, CategoryNone)
			return types.NoTypeID, CategoryNone
		}
		cands = res.Symbols
		for _, c := range cands {
			fn := u.functionOf(c)
			if fs := u.sym(fn); fs != nil && fs.Kind == symbols.SymbolFunction && u.insideOwnDeclarator(name, fn) {
				id := u.problem(symbols.CircularReference, name,
					"'"+u.b.NameString(name)+"' is used in its own declaration")
				u.setNameSlots(name, id)
				u.finishCallee(e.A, types.NoTypeID, CategoryNone)
				return types.NoTypeID, CategoryNone
			}
		}
		if len(cands) == 1 {
			s := u.sym(u.functionOf(cands[0]))
			switch {
			case s == nil:
			case isTypeSymbol(s.Kind):
				id := cands[0]
				u.setNameSlots(name, id)
				t := u.typeOfEntity(id)
				u.finishCallee(e.A, t, CategoryNone)
				return u.construct(n, e.Implicit, t, args, e.List, false, false)
			case s.Kind != symbols.SymbolFunction:
				id := cands[0]
				u.setNameSlots(name, id)
				ct, ccat := u.typeOfBinding(idx, id)
				u.finishCallee(e.A, ct, ccat)
				return u.callValue(n, e, args, ct, ccat)
			}
		}
	}
	if failed {
		u.setNameSlots(name, u.quietProblem(symbols.NameNotFound, name))
		u.finishCallee(e.A, types.NoTypeID, CategoryNone)
		return types.NoTypeID, CategoryNone
	}

	unqualified := u.kind(name) != ast.KindQualified
	if unqualified && u.adlApplies(cands) && u.anyUserArg(args) {
		cands = append(cands, u.adlCandidates(u.intern(u.nameText(name)), args)...)
	}
	if len(cands) == 0 {
		if dep || u.anyDependent(args) || u.inDependentContext(name) {
			return u.dependentCall(e, name, symbols.NoSymbolID)
		}
		id := u.problem(symbols.NameNotFound, name, "use of undeclared identifier '"+u.b.NameString(name)+"'")
		u.setNameSlots(name, id)
		u.finishCallee(e.A, types.NoTypeID, CategoryNone)
		return types.NoTypeID, CategoryNone
	}
	if u.anyDependent(args) {
		single := symbols.NoSymbolID
		if len(cands) == 1 && u.sym(u.functionOf(cands[0])).Template == nil {
			single = u.functionOf(cands[0])
		}
		return u.dependentCall(e, name, single)
	}
	if !u.cxx {
		fn := cands[0]
		u.setNameSlots(name, fn)
		ft := u.symbolType(fn)
		u.finishCallee(e.A, ft, LValue)
		return u.callResult(ft)
	}

	out := u.resolveOverload(callSite{
		cands:       cands,
		explicit:    explicit,
		hasExplicit: hasExplicit,
		obj:         u.implicitObject(n),
		args:        args,
		site:        n,
	})
	if !out.best.IsValid() {
		id := u.reportOverload(out, cands, n, u.b.NameString(name))
		u.setNameSlots(name, id)
		u.finishCallee(e.A, types.NoTypeID, CategoryNone)
		return types.NoTypeID, CategoryNone
	}
	u.bindCallee(name, out.best)
	u.bindSetArgs(e.List, out.convs[1:])
	cat := LValue
	if u.isNonStaticMember(out.fn) {
		cat = PRValue
	}
	u.finishCallee(e.A, out.typ, cat)
	return u.callResult(out.typ)
}

func isTypeSymbol(k symbols.SymbolKind) bool {
	switch k {
	case symbols.SymbolClass, symbols.SymbolEnum, symbols.SymbolTypedef,
		symbols.SymbolTypeParam, symbols.SymbolTemplateParam:
		return true
	}
	return false
}

// dependentCall is a call resolved only at instantiation. A lone
// non-template candidate still binds, and gives its return type.
func (u *Unit) dependentCall(e *ast.ExprData, name ast.NodeID, fn symbols.SymbolID) (types.TypeID, Category) {
	u.setNameSlots(name, fn)
	if fn.IsValid() {
		ft := u.symbolType(fn)
		u.finishCallee(e.A, ft, LValue)
		if !u.types.IsDependent(u.types.Elem(ft)) {
			return u.callResult(ft)
		}
		return u.dependentType(), PRValue
	}
	u.finishCallee(e.A, u.dependentType(), LValue)
	return u.dependentType(), PRValue
}

// callMember resolves obj.f(args) and ptr->f(args).
func (u *Unit) callMember(n ast.NodeID, e *ast.ExprData, m ast.NodeID) (types.TypeID, Category) {
	T := u.types
	me := u.b.Expr(m)
	args := u.argsOf(e.List)
	objT, objCat := u.typeExpr(me.A)
	if T.IsDependent(objT) {
		u.setSlot(me.B, symbols.NoSymbolID)
		u.finishCallee(e.A, u.dependentType(), PRValue)
		return u.dependentType(), PRValue
	}
	obj, ocat, ok := u.memberObject(m, me, objT, objCat)
	if !ok {
		u.setSlot(me.B, symbols.NoSymbolID)
		u.finishCallee(e.A, types.NoTypeID, CategoryNone)
		return types.NoTypeID, CategoryNone
	}
	cls := u.classEntity(obj)
	if !cls.IsValid() {
		if T.IsDependent(obj) {
			u.setSlot(me.B, symbols.NoSymbolID)
			u.finishCallee(e.A, u.dependentType(), PRValue)
			return u.dependentType(), PRValue
		}
		if u.kind(me.B) == ast.KindDestructorName {
			// pseudo destructor call on a scalar
			u.setSlot(me.B, symbols.NoSymbolID)
			u.finishCallee(e.A, types.NoTypeID, PRValue)
			return u.builtins.Void, PRValue
		}
		u.notAClass(m, obj)
		u.finishCallee(e.A, types.NoTypeID, CategoryNone)
		return types.NoTypeID, CategoryNone
	}

	res, dep := u.memberLookup(cls, me.B)
	switch {
	case dep:
		u.setSlot(me.B, symbols.NoSymbolID)
		u.finishCallee(e.A, u.dependentType(), PRValue)
		return u.dependentType(), PRValue
	case res.Ambiguous:
		u.setNameSlots(me.B, u.ambiguous(me.B, res.Symbols))
		u.finishCallee(e.A, types.NoTypeID, CategoryNone)
		return types.NoTypeID, CategoryNone
	case !res.Found():
		id := u.missingMember(cls, me.B)
		u.setNameSlots(me.B, id)
		if u.kind(me.B) == ast.KindDestructorName {
			u.finishCallee(e.A, types.NoTypeID, PRValue)
			return u.builtins.Void, PRValue
		}
		if !id.IsValid() {
			u.finishCallee(e.A, u.dependentType(), PRValue)
			return u.dependentType(), PRValue
		}
		u.finishCallee(e.A, types.NoTypeID, CategoryNone)
		return types.NoTypeID, CategoryNone
	}
	if s := u.sym(u.functionOf(res.Symbols[0])); len(res.Symbols) == 1 && s.Kind != symbols.SymbolFunction {
		id := res.Symbols[0]
		u.setNameSlots(me.B, id)
		ct, ccat := u.memberAccessType(id, obj, ocat)
		u.finishCallee(e.A, ct, ccat)
		return u.callValue(n, e, args, ct, ccat)
	}

	cands := res.Symbols
	var explicit []types.TemplateArg
	hasExplicit := false
	if last := u.b.LastName(me.B); u.kind(last) == ast.KindTemplateID {
		var tmpls []symbols.SymbolID
		for _, c := range cands {
			if t := u.templateOf(c); t.IsValid() {
				tmpls = append(tmpls, t)
			}
		}
		cands = tmpls
		if len(tmpls) > 0 {
			u.setSlot(u.b.Name(last).Template, tmpls[0])
			explicit, hasExplicit = u.templateArgs(last, tmpls[0]), true
		}
	}
	if u.anyDependent(args) {
		u.setSlot(me.B, symbols.NoSymbolID)
		u.finishCallee(e.A, u.dependentType(), PRValue)
		return u.dependentType(), PRValue
	}
	out := u.resolveOverload(callSite{
		cands:       cands,
		explicit:    explicit,
		hasExplicit: hasExplicit,
		obj:         &callArg{t: obj, cat: ocat, node: me.A},
		args:        args,
		site:        n,
	})
	if !out.best.IsValid() {
		id := u.reportOverload(out, cands, n, u.table.QualifiedName(cls)+"::"+u.nameText(me.B))
		u.setNameSlots(me.B, id)
		u.finishCallee(e.A, types.NoTypeID, CategoryNone)
		return types.NoTypeID, CategoryNone
	}
	u.bindCallee(me.B, out.best)
	u.bindSetArgs(e.List, out.convs[1:])
	u.finishCallee(e.A, out.typ, PRValue)
	return u.callResult(out.typ)
}

// callValue calls an expression of function, pointer to function or
// class type; a class object goes through its operator().
func (u *Unit) callValue(n ast.NodeID, e *ast.ExprData, args []callArg, ct types.TypeID, ccat Category) (types.TypeID, Category) {
	T := u.types
	if T.IsDependent(ct) || u.anyDependent(args) && !T.IsClass(T.NonRef(ct)) {
		return u.dependentType(), PRValue
	}
	if ct == types.NoTypeID {
		return types.NoTypeID, CategoryNone
	}
	st := T.Unqualified(T.NonRef(ct))
	if T.Kind(st) == types.KindPointer {
		st = T.Elem(st)
	}
	switch T.Kind(st) {
	case types.KindFunction:
		return u.callResult(st)
	case types.KindClass:
		cls := u.classEntity(st)
		cands := u.table.LookupMember(u.graph(), cls, u.intern(operatorName(token.LParen, false)), symbols.LookupOptions{}).Symbols
		if len(cands) > 0 {
			out := u.resolveOverload(callSite{
				cands: cands,
				obj:   &callArg{t: T.NonRef(ct), cat: ccat},
				args:  args,
				site:  n,
			})
			if out.best.IsValid() {
				u.setSlot(e.Implicit, out.best)
				u.bindSetArgs(e.List, out.convs[1:])
				return u.callResult(out.typ)
			}
			u.setSlot(e.Implicit, u.reportOverload(out, cands, n, u.table.QualifiedName(cls)+"::operator()"))
			return types.NoTypeID, CategoryNone
		}
	}
	u.report(problemCodes[symbols.InvalidType], n, "called object type '"+u.table.TypeString(ct)+"' is not a function or function pointer")
	return types.NoTypeID, CategoryNone
}

// --- member access ------------------------------------------------------------------

func (u *Unit) typeMember(n ast.NodeID, e *ast.ExprData) (types.TypeID, Category) {
	T := u.types
	if e.A == ast.NoNode {
		return u.typeDesignator(n, e)
	}
	objT, objCat := u.typeExpr(e.A)
	if T.IsDependent(objT) {
		u.setSlot(e.B, symbols.NoSymbolID)
		return u.dependentType(), LValue
	}
	obj, cat, ok := u.memberObject(n, e, objT, objCat)
	if !ok {
		u.setSlot(e.B, symbols.NoSymbolID)
		return types.NoTypeID, CategoryNone
	}
	cls := u.classEntity(obj)
	if !cls.IsValid() {
		u.setSlot(e.B, symbols.NoSymbolID)
		if T.IsDependent(obj) {
			return u.dependentType(), LValue
		}
		u.notAClass(n, obj)
		return types.NoTypeID, CategoryNone
	}
	id := u.memberBinding(cls, e.B)
	u.setNameSlots(e.B, id)
	return u.memberAccessType(id, obj, cat)
}

func (u *Unit) notAClass(n ast.NodeID, t types.TypeID) {
	if t == types.NoTypeID {
		return
	}
	u.report(problemCodes[symbols.InvalidType], n, "member reference base type '"+u.table.TypeString(t)+"' is not a structure or union")
}

// memberObject is the object a member access reaches: the operand of a
// dot, the pointee of an arrow. An arrow on a class object chains its
// operator-> until a pointer comes out; the first link is recorded on
// the implicit name of the access.
func (u *Unit) memberObject(n ast.NodeID, e *ast.ExprData, t types.TypeID, cat Category) (types.TypeID, Category, bool) {
	T := u.types
	if t == types.NoTypeID {
		return types.NoTypeID, CategoryNone, false
	}
	if e.Op != token.Arrow {
		return T.NonRef(t), cat, true
	}
	cur, ccat := T.NonRef(t), cat
	for step := 0; step < 16; step++ {
		st := T.Decay(T.Unqualified(cur))
		switch T.Kind(st) {
		case types.KindPointer:
			return T.Elem(st), LValue, true
		case types.KindParam, types.KindDependent:
			return u.dependentType(), LValue, true
		}
		cls := u.classEntity(cur)
		if !cls.IsValid() {
			break
		}
		cands := u.table.LookupMember(u.graph(), cls, u.intern("operator->"), symbols.LookupOptions{}).Symbols
		if len(cands) == 0 {
			break
		}
		out := u.resolveOverload(callSite{cands: cands, obj: &callArg{t: cur, cat: ccat}, site: n})
		if !out.best.IsValid() {
			id := u.reportOverload(out, cands, n, u.table.QualifiedName(cls)+"::operator->")
			if step == 0 {
				u.setSlot(e.Implicit, id)
			}
			return types.NoTypeID, CategoryNone, false
		}
		if step == 0 {
			u.setSlot(e.Implicit, out.best)
		}
		rt := T.Elem(out.typ)
		cur, ccat = T.NonRef(rt), categoryOf(T, rt)
	}
	u.report(problemCodes[symbols.InvalidType], n, "member reference type '"+u.table.TypeString(t)+"' is not a pointer")
	return types.NoTypeID, CategoryNone, false
}

// memberLookup finds the member name of class cls. A qualified member
// name (obj.Base::m) is looked up where it is written.
func (u *Unit) memberLookup(cls symbols.SymbolID, name ast.NodeID) (symbols.LookupResult, bool) {
	if u.kind(name) == ast.KindQualified {
		res, dep, failed := u.lookupName(name, symbols.LookupOptions{Pos: u.usePos(name)})
		if failed {
			return symbols.LookupResult{}, false
		}
		return res, dep
	}
	res := u.table.LookupMember(u.graph(), cls, u.intern(u.nameText(name)), symbols.LookupOptions{})
	return res, !res.Found() && u.depBases[cls]
}

// missingMember reports a member lookup that found nothing. Destructors
// may be implicit and bind nothing.
func (u *Unit) missingMember(cls symbols.SymbolID, name ast.NodeID) symbols.SymbolID {
	if u.kind(name) == ast.KindDestructorName || u.depBases[cls] {
		return symbols.NoSymbolID
	}
	return u.problem(symbols.NameNotFound, name, "no member named '"+u.nameText(name)+"' in '"+u.table.QualifiedName(cls)+"'")
}

// memberBinding binds the member name of an access outside a call.
func (u *Unit) memberBinding(cls symbols.SymbolID, name ast.NodeID) symbols.SymbolID {
	res, dep := u.memberLookup(cls, name)
	switch {
	case dep:
		return symbols.NoSymbolID
	case res.Ambiguous:
		return u.ambiguous(name, res.Symbols)
	case !res.Found():
		return u.missingMember(cls, name)
	}
	id := res.Symbols[0]
	if last := u.b.LastName(name); u.kind(last) == ast.KindTemplateID {
		if t := u.templateOf(id); t.IsValid() {
			u.setSlot(u.b.Name(last).Template, t)
		}
	}
	return id
}

// memberAccessType types the access of member id on an object of type
// obj and category cat.
func (u *Unit) memberAccessType(id symbols.SymbolID, obj types.TypeID, cat Category) (types.TypeID, Category) {
	T := u.types
	s := u.sym(u.functionOf(id))
	if s == nil {
		return u.dependentType(), LValue
	}
	switch s.Kind {
	case symbols.SymbolField:
		t := u.symbolType(id)
		if T.Kind(t).IsReference() {
			return T.NonRef(t), LValue
		}
		if s.Flags&symbols.FlagStatic != 0 {
			return t, LValue
		}
		cv := T.CVOf(obj)
		if s.Flags&symbols.FlagMutable != 0 {
			cv &^= types.Const
		}
		t = T.Qualify(t, cv)
		switch {
		case cat == PRValue && u.cxx:
			return t, XValue
		case cat == CategoryNone:
			return t, LValue
		}
		return t, cat
	case symbols.SymbolVariable:
		return T.NonRef(u.symbolType(id)), LValue
	case symbols.SymbolFunction:
		if s.Flags&symbols.FlagStatic != 0 {
			return u.symbolType(id), LValue
		}
		return u.symbolType(id), PRValue
	case symbols.SymbolEnumerator:
		return u.symbolType(id), PRValue
	case symbols.SymbolProblem:
		return types.NoTypeID, CategoryNone
	}
	return u.typeOfEntity(id), CategoryNone
}

// --- construction ---------------------------------------------------------------------

// construct types T(args) and T{args}. Class types resolve a constructor
// onto the implicit name.
func (u *Unit) construct(n, implicit ast.NodeID, t types.TypeID, args []callArg, nodes []ast.NodeID, copyInit, brace bool) (types.TypeID, Category) {
	T := u.types
	if t == types.NoTypeID {
		return types.NoTypeID, CategoryNone
	}
	if T.IsDependent(t) {
		return t, PRValue
	}
	cls := u.classEntity(t)
	if !cls.IsValid() {
		return T.Unqualified(t), PRValue
	}
	if brace && len(u.constructors(cls)) == 0 {
		u.setSlot(implicit, symbols.NoSymbolID)
		return t, PRValue
	}
	u.resolveConstructor(n, implicit, cls, args, nodes, copyInit)
	return t, PRValue
}

func (u *Unit) typeConstruct(n ast.NodeID, e *ast.ExprData) (types.TypeID, Category) {
	t := u.typeIDType(e.Type)
	return u.construct(n, e.Implicit, t, u.argsOf(e.List), e.List, false, e.Flags&ast.ExprBrace != 0)
}

// resolveConstructor picks the constructor of cls for args and binds it
// to implicit. A copy from an object of the class or a derived class
// uses the implicit copy constructor when none is declared to take it.
func (u *Unit) resolveConstructor(site, implicit ast.NodeID, cls symbols.SymbolID, args []callArg, nodes []ast.NodeID, copyInit bool) {
	ctors := u.constructors(cls)
	if len(ctors) == 0 || u.anyDependent(args) {
		u.setSlot(implicit, symbols.NoSymbolID)
		return
	}
	out := u.resolveOverload(callSite{cands: ctors, args: args, copyInit: copyInit, site: site})
	if out.best.IsValid() {
		u.setSlot(implicit, out.best)
		u.bindSetArgs(nodes, out.convs[1:])
		return
	}
	if len(args) == 1 && out.problem == symbols.NoViableOverload {
		if from := u.classEntity(u.types.NonRef(args[0].t)); from.IsValid() && u.baseDistance(from, cls) >= 0 {
			u.setSlot(implicit, symbols.NoSymbolID)
			return
		}
	}
	u.setSlot(implicit, u.reportOverload(out, ctors, site, u.table.QualifiedName(cls)))
}

func (u *Unit) typeNew(n ast.NodeID, e *ast.ExprData) types.TypeID {
	T := u.types
	t := u.typeIDType(e.Type)
	if t == types.NoTypeID {
		return types.NoTypeID
	}
	if e.Flags&ast.ExprArray != 0 {
		if T.Kind(t) == types.KindArray || T.IsDependent(t) && T.Elem(t) != types.NoTypeID {
			return T.Pointer(T.Elem(t))
		}
		return T.Pointer(t)
	}
	var nodes []ast.NodeID
	if e.B != ast.NoNode {
		nodes = u.b.Expr(e.B).List
	}
	u.construct(n, e.Implicit, t, u.argsOf(nodes), nodes, false, e.Flags&ast.ExprBrace != 0)
	return T.Pointer(t)
}

// resolveDeclInit binds the constructor a declarator's initializer
// selects. Objects of non-class type, references and dependent types
// bind nothing.
func (u *Unit) resolveDeclInit(decl ast.NodeID) {
	d := u.b.Declarator(decl)
	if d == nil || !u.valid(d.Implicit) || u.slots[d.Implicit].state != slotUnresolved {
		return
	}
	impl := d.Implicit
	u.slots[impl].state = slotResolving
	id := u.declared[decl]
	s := u.sym(id)
	if s == nil || s.Kind == symbols.SymbolProblem || s.Kind == symbols.SymbolFunction {
		u.setSlot(impl, symbols.NoSymbolID)
		return
	}
	T := u.types
	t := u.symbolType(id)
	cls := u.classEntity(t)
	if T.Kind(t).IsReference() || T.IsDependent(t) || !cls.IsValid() ||
		s.Flags&symbols.FlagExtern != 0 && d.Init == ast.NoNode {
		u.setSlot(impl, symbols.NoSymbolID)
		return
	}

	var nodes []ast.NodeID
	copyInit, brace := false, false
	switch d.InitKind {
	case ast.InitAssign:
		copyInit = true
		if u.kind(d.Init) == ast.KindInitList {
			nodes, brace = u.b.Expr(d.Init).List, true
		} else {
			nodes = []ast.NodeID{d.Init}
		}
	case ast.InitParen:
		nodes = u.b.Expr(d.Init).List
	case ast.InitBrace:
		nodes, brace = u.b.Expr(d.Init).List, true
	}
	if d.Init != ast.NoNode {
		u.typeExpr(d.Init)
	}
	args := u.argsOf(nodes)
	if brace && len(u.constructors(cls)) == 0 {
		// aggregate initialization
		u.setSlot(impl, symbols.NoSymbolID)
		return
	}
	u.resolveConstructor(decl, impl, cls, args, nodes, copyInit)
}
