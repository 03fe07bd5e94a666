package sema

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/inst"
	"cxxsema/internal/symbols"
	"cxxsema/internal/types"
)

// declaration is one declarator with the construct around it.
type declaration struct {
	node  ast.NodeID // SimpleDecl or FunctionDef
	spec  ast.NodeID
	decl  ast.NodeID
	flags ast.DeclFlags
	def   bool // function definition
}

func (u *Unit) walkSimpleDecl(n ast.NodeID, c *declCtx) {
	d := u.b.Decl(n)
	u.walkSpecs(d.Specs, c, len(d.List) == 0)
	if len(d.List) == 0 {
		if sd := u.b.Spec(d.Specs); sd != nil && u.kind(sd.Type) == ast.KindClassSpec && u.b.Class(sd.Type).Name == ast.NoNode {
			u.injectAnonymous(u.declared[sd.Type], c.scope)
		}
		return
	}
	for _, decl := range d.List {
		_, _, lookup := u.declareDeclarator(declaration{node: n, spec: d.Specs, decl: decl, flags: d.Flags}, c)
		if dd := u.b.Declarator(decl); dd != nil {
			u.markExpr(dd.Init, lookup)
		}
	}
}

func (u *Unit) walkFunctionDef(n ast.NodeID, c *declCtx) {
	d := u.b.Decl(n)
	u.walkSpecs(d.Specs, c, false)
	sym, proto, lookup := u.declareDeclarator(declaration{node: n, spec: d.Specs, decl: d.Declarator, def: true}, c)
	if !proto.IsValid() {
		proto = lookup
	}
	u.later(func() { u.walkBody(n, sym, proto) })
}

// walkBody walks a function body in a function scope under the prototype
// scope holding the parameters.
func (u *Unit) walkBody(n ast.NodeID, fn symbols.SymbolID, proto symbols.ScopeID) {
	d := u.b.Decl(n)
	fs := u.table.NewScope(symbols.ScopeFunction, proto, fn, n)
	u.bodies[fs] = fn
	for _, init := range d.Inits {
		u.markExpr(init, fs)
	}
	if u.valid(d.Body) {
		u.scopes[d.Body] = fs
		if st := u.b.Stmt(d.Body); st != nil {
			for _, s := range st.List {
				u.walkStmt(s, fs)
			}
		}
	}
	for _, h := range d.Handlers {
		u.walkStmt(h, fs)
	}
}

// injectAnonymous makes the members of an anonymous union or struct
// visible in the enclosing scope.
func (u *Unit) injectAnonymous(class symbols.SymbolID, sc symbols.ScopeID) {
	cs := u.sym(class)
	if cs == nil || !cs.Inner.IsValid() {
		return
	}
	target := u.declScope(sc)
	members := append([]symbols.SymbolID(nil), u.scope(cs.Inner).Symbols...)
	pos := u.span(cs.Node).End
	for _, m := range members {
		ms := u.sym(m)
		if ms.Flags&symbols.FlagInjected != 0 || ms.Name == 0 {
			continue
		}
		to := m
		if ms.Kind == symbols.SymbolUsing && ms.Target.IsValid() {
			to = ms.Target
		}
		u.table.Insert(&symbols.Symbol{
			Name:   ms.Name,
			Kind:   symbols.SymbolUsing,
			Scope:  target,
			Target: to,
			Pos:    pos,
			Node:   cs.Node,
		})
	}
}

// declareDeclarator enters the entity one declarator declares. It returns
// the binding, the prototype scope of a function and the scope the rest of
// the declaration is looked up in.
func (u *Unit) declareDeclarator(x declaration, c *declCtx) (symbols.SymbolID, symbols.ScopeID, symbols.ScopeID) {
	sd := u.b.Spec(x.spec)
	var storage ast.StorageFlags
	if sd != nil {
		storage = sd.Storage
	}
	name := declaratorName(u.b, x.decl)
	target, lookup := u.declScope(c.scope), c.scope
	owner := c.class
	qualified := u.kind(name) == ast.KindQualified
	if qualified {
		u.markExpr(name, c.scope)
		t, l, ok := u.qualContext(name, c)
		if !ok {
			u.walkDeclarator(x.decl, c.scope, c.scope)
			return symbols.NoSymbolID, symbols.NoScopeID, c.scope
		}
		target, lookup = t, l
		owner = symbols.NoSymbolID
		if s := u.scope(target); s != nil && s.Kind == symbols.ScopeClass {
			owner = s.Owner
		}
	}
	proto := u.walkDeclarator(x.decl, lookup, lookup)
	if name == ast.NoNode {
		return symbols.NoSymbolID, proto, lookup
	}
	last := u.b.LastName(name)

	// the declared type
	special := u.specialMember(last, owner, sd)
	var base types.TypeID
	switch special {
	case memberCtor, memberDtor:
		base = u.builtins.Void
	case memberConversion:
		base = u.typeIDType(u.b.Name(last).Type)
	default:
		base = u.specType(x.spec)
	}
	typ := u.declaratorType(base, x.decl)
	auto := sd != nil && sd.AutoType && !u.hasTrailing(x.decl)
	if auto {
		typ = types.NoTypeID
	}
	isFn := u.types.Kind(typ) == types.KindFunction || (auto && u.isFunctionDeclarator(x.decl))

	var kind symbols.SymbolKind
	targetKind := u.scope(target).Kind
	switch {
	case storage&ast.StorTypedef != 0:
		kind = symbols.SymbolTypedef
	case isFn:
		kind = symbols.SymbolFunction
	case targetKind == symbols.ScopeClass:
		kind = symbols.SymbolField
	default:
		kind = symbols.SymbolVariable
	}

	flags := storageFlags(storage)
	if auto {
		flags |= symbols.FlagAutoType
	}
	if kind == symbols.SymbolField && qualified {
		flags |= symbols.FlagStatic
	}
	if kind != symbols.SymbolFunction && (u.types.CVOf(typ)&types.Const != 0 || storage&ast.StorConstexpr != 0) {
		flags |= symbols.FlagConst
	}
	if dd := u.b.Declarator(x.decl); dd != nil && dd.Pure {
		flags |= symbols.FlagPure
	}
	if x.flags&ast.DeclDefaulted != 0 {
		flags |= symbols.FlagDefaulted
	}
	if x.flags&ast.DeclDeleted != 0 {
		flags |= symbols.FlagDeleted
	}
	if t, ok := u.types.Lookup(typ); ok && t.Kind == types.KindFunction && t.Variadic {
		flags |= symbols.FlagVariadic
	}
	if special == memberCtor {
		flags |= symbols.FlagHidden
	}

	if c.inst {
		u.bindInstantiation(name, last, kind, typ, lookup)
		return u.slots[name].sym, proto, lookup
	}
	if storage&ast.StorFriend != 0 && qualified {
		u.bindFriendReference(name, last, target, typ)
		return u.slots[name].sym, proto, lookup
	}

	frame := c.ownFrame()
	if frame != nil && frame.explicit {
		frame.consumed = true
		if kind == symbols.SymbolFunction {
			return u.declareFunctionSpec(x, name, last, target, typ, flags, lookup), proto, lookup
		}
	}
	if owner.IsValid() {
		if os := u.sym(owner); os.Instance != nil && os.Flags&symbols.FlagExplicitSpec == 0 {
			return u.declareMemberSpec(x, name, owner, kind, typ), proto, lookup
		}
	}

	if storage&ast.StorFriend != 0 {
		target = u.table.EnclosingNamespace(c.scope)
		targetKind = u.scope(target).Kind
	}
	attrs := symbols.DeclAttrs{
		Node:    name,
		Decl:    x.decl,
		Pos:     u.declPos(name),
		Type:    typ,
		Flags:   flags,
		Linkage: u.linkageFor(kind, target, storage, typ, c.linkC),
	}
	if targetKind == symbols.ScopeClass {
		attrs.Access = c.access
		if qualified {
			attrs.Access = symbols.AccessNone
		}
	}
	hasInit := false
	if dd := u.b.Declarator(x.decl); dd != nil {
		hasInit = dd.Init != ast.NoNode
	}
	switch kind {
	case symbols.SymbolFunction:
		attrs.Definition = x.def || x.flags&(ast.DeclDefaulted|ast.DeclDeleted) != 0
	case symbols.SymbolTypedef:
		attrs.Definition = true
	case symbols.SymbolField:
		attrs.Definition = flags&symbols.FlagStatic == 0 || qualified ||
			(hasInit && storage&(ast.StorInline|ast.StorConstexpr) != 0)
	case symbols.SymbolVariable:
		switch {
		case storage&ast.StorExtern != 0 && !hasInit:
		case !u.cxx && targetKind.IsNamespace() && !hasInit:
			attrs.Tentative = true
		default:
			attrs.Definition = true
		}
	}
	if frame != nil && !frame.explicit && !frame.consumed {
		attrs.TemplateKey = frame.key
		frame.consumed = true
	}

	nameID := u.intern(u.nameText(last))
	res := u.table.Declare(target, nameID, kind, attrs)
	if res.Problem != symbols.ProblemNone {
		p := u.declProblem(res, name)
		u.setNameSlots(name, p)
		u.declared[x.decl] = p
		return p, proto, lookup
	}
	id := res.Symbol
	s := u.sym(id)
	switch {
	case storage&ast.StorFriend != 0 && res.New:
		s.Flags |= symbols.FlagHidden
	case storage&ast.StorFriend == 0 && special != memberCtor && !res.New:
		s.Flags &^= symbols.FlagHidden
	}
	if attrs.TemplateKey != "" {
		u.attachTemplate(id, frame)
	}
	u.declared[x.decl] = id
	u.setNameSlots(name, id)
	if u.kind(last) == ast.KindTemplateID {
		u.setSlot(last, id)
	}
	return id, proto, lookup
}

func storageFlags(st ast.StorageFlags) symbols.SymbolFlags {
	var f symbols.SymbolFlags
	for _, m := range []struct {
		s ast.StorageFlags
		f symbols.SymbolFlags
	}{
		{ast.StorStatic, symbols.FlagStatic},
		{ast.StorExtern, symbols.FlagExtern},
		{ast.StorInline, symbols.FlagInline},
		{ast.StorVirtual, symbols.FlagVirtual},
		{ast.StorExplicit, symbols.FlagExplicit},
		{ast.StorFriend, symbols.FlagFriend},
		{ast.StorMutable, symbols.FlagMutable},
		{ast.StorTypedef, symbols.FlagTypedef},
	} {
		if st&m.s != 0 {
			f |= m.f
		}
	}
	return f
}

func (u *Unit) linkageFor(kind symbols.SymbolKind, target symbols.ScopeID, st ast.StorageFlags, typ types.TypeID, linkC bool) symbols.Linkage {
	if kind == symbols.SymbolTypedef {
		return symbols.LinkageNone
	}
	s := u.scope(target)
	switch s.Kind {
	case symbols.ScopeClass:
		return symbols.LinkageExternal
	case symbols.ScopeGlobal, symbols.ScopeNamespace:
		switch {
		case st&ast.StorStatic != 0:
			return symbols.LinkageInternal
		case u.inUnnamedNamespace(target) && !linkC:
			return symbols.LinkageInternal
		case u.cxx && kind == symbols.SymbolVariable && u.types.CVOf(typ)&types.Const != 0 && st&ast.StorExtern == 0:
			return symbols.LinkageInternal
		}
		return symbols.LinkageExternal
	case symbols.ScopeBlock, symbols.ScopeFunction:
		if st&ast.StorExtern != 0 || kind == symbols.SymbolFunction {
			return symbols.LinkageExternal
		}
	}
	return symbols.LinkageNone
}

func (u *Unit) inUnnamedNamespace(sc symbols.ScopeID) bool {
	for id := sc; id.IsValid(); id = u.scope(id).Parent {
		if o := u.sym(u.scope(id).Owner); o != nil && o.Kind == symbols.SymbolNamespace && o.Flags&symbols.FlagAnonymous != 0 {
			return true
		}
	}
	return false
}

type memberKind uint8

const (
	memberPlain memberKind = iota
	memberCtor
	memberDtor
	memberConversion
	memberOperator
)

// specialMember recognises constructors, destructors, conversion functions
// and operator functions by their declarator name.
func (u *Unit) specialMember(last ast.NodeID, owner symbols.SymbolID, sd *ast.SpecData) memberKind {
	switch u.kind(last) {
	case ast.KindDestructorName:
		return memberDtor
	case ast.KindConversionName:
		return memberConversion
	case ast.KindOperatorName:
		return memberOperator
	case ast.KindIdent:
		os := u.sym(owner)
		if os != nil && os.Kind == symbols.SymbolClass && !hasTypeSpec(sd) && u.b.Name(last).Text == u.text(os.Name) {
			return memberCtor
		}
	}
	return memberPlain
}

func hasTypeSpec(sd *ast.SpecData) bool {
	return sd != nil && (sd.Type != ast.NoNode || len(sd.Builtin) > 0 || sd.Decltype != ast.NoNode || sd.AutoType)
}

// qualContext resolves the qualifier of a declared name. It returns the
// scope the name belongs to and a lookup scope for the rest of the
// declaration: synthetic class and namespace scopes chained under the
// current scope, so that the declaration sees the members of what
// qualifies it as well as the template parameters of its own header.
func (u *Unit) qualContext(name ast.NodeID, c *declCtx) (target, lookup symbols.ScopeID, ok bool) {
	q := u.b.Name(name)
	lookup = c.scope
	target = u.table.Global
	for _, seg := range q.Segments {
		var f *templateFrame
		if u.kind(seg) == ast.KindTemplateID {
			f = c.consumeFrame()
		}
		sym := u.resolve(seg)
		s := u.sym(sym)
		if s == nil || s.Kind == symbols.SymbolProblem {
			return symbols.NoScopeID, c.scope, false
		}
		if f != nil && !f.explicit {
			if tp := u.templateParamsOf(sym); tp != nil {
				u.linkParams(f.params, tp)
			}
		}
		inner := u.memberScope(sym)
		if !inner.IsValid() {
			return symbols.NoScopeID, c.scope, false
		}
		target = inner
		switch u.scope(inner).Kind {
		case symbols.ScopeClass:
			lookup = u.table.NewScope(symbols.ScopeClass, lookup, u.scope(inner).Owner, name)
		case symbols.ScopeNamespace, symbols.ScopeGlobal:
			syn := u.table.NewScope(symbols.ScopeNamespace, lookup, u.namespaceOf(sym), name)
			u.table.AddUsing(syn, inner, 0, name)
			lookup = syn
		default:
			lookup = u.table.NewScope(symbols.ScopeBlock, lookup, symbols.NoSymbolID, name)
			u.table.AddUsing(lookup, u.table.EnclosingNamespace(inner), 0, name)
		}
	}
	if q.Global && len(q.Segments) == 0 {
		target = u.table.Global
	}
	return target, lookup, true
}

// templateParamsOf returns the parameters a qualifier like A<T> refers
// to: those of the primary template or of the partial specialization.
func (u *Unit) templateParamsOf(id symbols.SymbolID) []symbols.SymbolID {
	s := u.sym(id)
	if s == nil || s.Template == nil {
		return nil
	}
	return s.Template.Params
}

// memberScope is the scope holding the members of a namespace, class or
// enum binding.
func (u *Unit) memberScope(id symbols.SymbolID) symbols.ScopeID {
	s := u.sym(id)
	if s == nil {
		return symbols.NoScopeID
	}
	switch s.Kind {
	case symbols.SymbolNamespace, symbols.SymbolNamespaceAlias, symbols.SymbolEnum:
		return s.Inner
	case symbols.SymbolClass:
		return u.classScope(id)
	case symbols.SymbolTypedef:
		t := u.symbolType(id)
		if e := u.types.Entity(u.types.NonRef(t)); e != 0 {
			return u.memberScope(symbols.SymbolID(e))
		}
	}
	return symbols.NoScopeID
}

// --- specializations ----------------------------------------------------------

// declareFunctionSpec handles template<> void f<int>(int): it picks the
// function template the declaration specializes and records the
// specialization with it.
func (u *Unit) declareFunctionSpec(x declaration, name, last ast.NodeID, target symbols.ScopeID, typ types.TypeID, flags symbols.SymbolFlags, lookup symbols.ScopeID) symbols.SymbolID {
	var explicit []types.TemplateArg
	tmplName := last
	if u.kind(last) == ast.KindTemplateID {
		explicit = u.templateArgs(last, symbols.NoSymbolID)
		tmplName = u.b.Name(last).Template
	}
	nameID := u.intern(u.nameText(tmplName))
	var cands []symbols.SymbolID
	for _, id := range u.table.Bucket(target, nameID) {
		if s := u.sym(id); s.Kind == symbols.SymbolFunction && s.Template != nil {
			cands = append(cands, id)
		}
	}
	var matches []symbols.SymbolID
	var found []types.Bindings
	for _, cand := range cands {
		if b, ok := u.deduceFromType(cand, explicit, typ); ok {
			matches = append(matches, cand)
			found = append(found, b)
		}
	}
	if len(matches) == 0 {
		p := u.problem(symbols.DeductionFailure, name, "no function template matches the specialization of '"+u.nameText(tmplName)+"'")
		u.setNameSlots(name, p)
		return p
	}
	best := 0
	for i := 1; i < len(matches); i++ {
		if u.moreSpecializedFn(matches[i], matches[best]) {
			best = i
		}
	}
	primary, b := matches[best], found[best]
	if tmplName != last {
		u.setSlot(tmplName, primary)
	}
	args := u.argsFromBindings(primary, b)
	key := types.ArgsKey(args)

	pt := u.sym(primary).Template
	if prev, ok := pt.Explicit[key]; ok {
		p := u.sym(prev)
		if x.def && p.Def != ast.NoNode {
			pr := u.declProblem(symbols.DeclareResult{Problem: symbols.RedefinitionConflict, Previous: prev}, name)
			u.setNameSlots(name, pr)
			return pr
		}
		p.Decls = append(p.Decls, name)
		if x.def {
			p.Def = name
			p.Flags |= symbols.FlagDefined
			p.Node = x.decl
		}
		u.declared[x.decl] = prev
		u.setNameSlots(name, prev)
		return prev
	}
	ps := u.sym(primary)
	spec := &symbols.Symbol{
		Name:        ps.Name,
		Kind:        symbols.SymbolFunction,
		Type:        typ,
		Linkage:     ps.Linkage,
		Scope:       ps.Scope,
		Decls:       []ast.NodeID{name},
		Flags:       flags | symbols.FlagExplicitSpec,
		Pos:         u.declPos(name),
		Access:      ps.Access,
		Specialized: primary,
		Node:        x.decl,
		Instance:    &symbols.InstanceInfo{Template: primary, Pattern: primary, Args: args, Bindings: b, Key: key},
	}
	if x.def {
		spec.Def = name
		spec.Flags |= symbols.FlagDefined
	}
	id := u.table.Symbols.New(spec)
	pt = u.sym(primary).Template
	if pt.Explicit == nil {
		pt.Explicit = make(map[string]symbols.SymbolID)
	}
	pt.Explicit[key] = id
	if _, seen := u.insts.Lookup(primary, args); !seen {
		u.insts.Record(inst.KindExplicit, primary, args, id, u.span(name), symbols.NoSymbolID)
	}
	u.declared[x.decl] = id
	u.setNameSlots(name, id)
	return id
}

// declareMemberSpec handles the explicit specialization of a member of an
// implicit instance: template<> void A<int>::f() {}.
func (u *Unit) declareMemberSpec(x declaration, name ast.NodeID, owner symbols.SymbolID, kind symbols.SymbolKind, typ types.TypeID) symbols.SymbolID {
	last := u.b.LastName(name)
	for _, m := range u.members(owner, u.intern(u.nameText(last))) {
		ms := u.sym(m)
		if ms.Kind != kind || (kind == symbols.SymbolFunction && !u.sameParams(ms.Type, typ)) {
			continue
		}
		ms.Flags |= symbols.FlagExplicitSpec
		ms.Decls = append(ms.Decls, name)
		if x.def {
			ms.Def = name
			ms.Flags |= symbols.FlagDefined
			ms.Node = x.decl
		}
		u.declared[x.decl] = m
		u.setNameSlots(name, m)
		return m
	}
	p := u.problem(symbols.NameNotFound, name, "no member '"+u.nameText(last)+"' in '"+u.table.QualifiedName(owner)+"' matches the specialization")
	u.setNameSlots(name, p)
	return p
}

// bindInstantiation resolves the declarator of an explicit instantiation
// to the specialization it names.
func (u *Unit) bindInstantiation(name, last ast.NodeID, kind symbols.SymbolKind, typ types.TypeID, lookup symbols.ScopeID) {
	if kind != symbols.SymbolFunction {
		u.resolve(name)
		return
	}
	var explicit []types.TemplateArg
	hasExplicit := u.kind(last) == ast.KindTemplateID
	if hasExplicit {
		explicit = u.templateArgs(last, symbols.NoSymbolID)
	}
	res, _, _ := u.lookupName(name, symbols.LookupOptions{Pos: u.usePos(name)})
	found := symbols.NoSymbolID
	for _, c := range res.Symbols {
		s := u.sym(c)
		if s.Kind != symbols.SymbolFunction {
			continue
		}
		if s.Template != nil && !s.Template.Primary.IsValid() {
			if b, ok := u.deduceFromType(c, explicit, typ); ok {
				if hasExplicit {
					u.setSlot(u.b.Name(last).Template, c)
				}
				found = u.instantiateFunction(c, u.argsFromBindings(c, b), name)
				break
			}
			continue
		}
		if !hasExplicit && u.sameParams(s.Type, typ) {
			found = c
			break
		}
	}
	if !found.IsValid() {
		found = u.problem(symbols.NoViableOverload, name, "explicit instantiation of '"+u.b.NameString(name)+"' does not match any declaration")
	}
	u.setNameSlots(name, found)
	if hasExplicit {
		u.setSlot(last, found)
	}
}

// bindFriendReference resolves friend void B::f(); to the member it names.
func (u *Unit) bindFriendReference(name, last ast.NodeID, target symbols.ScopeID, typ types.TypeID) {
	res := u.table.LookupQualified(u.graph(), target, u.intern(u.nameText(last)), symbols.LookupOptions{Hidden: true})
	found := res.Single()
	for _, c := range res.Symbols {
		if s := u.sym(c); s.Kind == symbols.SymbolFunction && u.sameParams(s.Type, typ) {
			found = c
			break
		}
	}
	if !found.IsValid() {
		found = u.problem(symbols.NameNotFound, name, "'"+u.b.NameString(name)+"' was not declared")
	}
	u.setNameSlots(name, found)
}

// declProblem turns a failed declaration into a problem binding and
// reports it.
func (u *Unit) declProblem(res symbols.DeclareResult, name ast.NodeID) symbols.SymbolID {
	text := u.b.NameString(name)
	code := diag.SemaRedefinition
	msg := "redefinition of '" + text + "'"
	if res.Problem == symbols.InvalidOverload {
		code = diag.SemaInvalidOverload
		msg = "'" + text + "' redeclared as a different kind of entity"
	}
	id := u.table.NewProblem(res.Problem, u.intern(u.nameText(u.b.LastName(name))), u.scopeAt(name), name)
	b := diag.ReportError(u.reporter, code, u.span(name), msg)
	if prev := u.sym(res.Previous); prev != nil && len(prev.Decls) > 0 && prev.Decls[0] != ast.NoNode {
		b = b.WithNote(u.span(prev.Decls[0]), "previous declaration is here")
	}
	b.Emit()
	return id
}
