package sema

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/inst"
	"cxxsema/internal/symbols"
	"cxxsema/internal/token"
	"cxxsema/internal/types"
)

// tagScope is where a class or enum defined in sc is entered. C has no
// class scopes for tags: a nested struct belongs to the enclosing file or
// block scope.
func (u *Unit) tagScope(sc symbols.ScopeID) symbols.ScopeID {
	sc = u.declScope(sc)
	if u.cxx {
		return sc
	}
	for s := u.scope(sc); s != nil && (s.Kind == symbols.ScopeClass || s.Kind == symbols.ScopeEnum); s = u.scope(sc) {
		sc = s.Parent
	}
	return sc
}

// elaboratedScope is where `struct X *p;` declares X when no X is visible.
func (u *Unit) elaboratedScope(sc symbols.ScopeID) symbols.ScopeID {
	if !u.cxx {
		return u.tagScope(sc)
	}
	for id := sc; id.IsValid(); id = u.scope(id).Parent {
		switch u.scope(id).Kind {
		case symbols.ScopeGlobal, symbols.ScopeNamespace, symbols.ScopeBlock, symbols.ScopeFunction:
			return id
		}
	}
	return u.table.Global
}

func (u *Unit) walkClassSpec(n ast.NodeID, c *declCtx) symbols.SymbolID {
	cd := u.b.Class(n)
	u.scopes[n] = c.scope
	name := cd.Name
	var flags symbols.SymbolFlags
	if cd.Key == token.KwUnion {
		flags |= symbols.FlagUnion
	}
	target, lookup := u.tagScope(c.scope), c.scope
	u.markExpr(name, c.scope)
	if u.kind(name) == ast.KindQualified {
		if t, l, ok := u.qualContext(name, c); ok {
			target, lookup = t, l
		}
	}
	frame := c.ownFrame()
	last := u.b.LastName(name)

	var id symbols.SymbolID
	switch {
	case name == ast.NoNode:
		id = u.table.Insert(&symbols.Symbol{
			Kind:   symbols.SymbolClass,
			Scope:  target,
			Flags:  flags | symbols.FlagAnonymous | symbols.FlagDefined,
			Pos:    u.span(n).Start + 1,
			Access: c.access,
			Node:   n,
		})
	case u.kind(last) == ast.KindTemplateID:
		id = u.declareClassSpecialization(n, name, last, frame, c, flags, true)
	default:
		attrs := symbols.DeclAttrs{
			Node:       name,
			Decl:       n,
			Pos:        u.declPos(name),
			Flags:      flags,
			Definition: true,
			Tag:        !u.cxx,
			Linkage:    symbols.LinkageExternal,
		}
		if u.scope(target).Kind == symbols.ScopeClass {
			attrs.Access = c.access
		}
		if frame != nil && !frame.explicit {
			attrs.TemplateKey = frame.key
			frame.consumed = true
		}
		res := u.table.Declare(target, u.intern(u.nameText(last)), symbols.SymbolClass, attrs)
		if res.Problem != symbols.ProblemNone {
			id = u.declProblem(res, name)
		} else {
			id = res.Symbol
			if attrs.TemplateKey != "" {
				u.attachTemplate(id, frame)
			}
		}
		u.setNameSlots(name, id)
	}
	u.defineClass(n, id, lookup, c)
	return id
}

// defineClass opens the scope of a class definition and walks its members.
// Member function bodies wait until the outermost class is complete.
func (u *Unit) defineClass(n ast.NodeID, id symbols.SymbolID, parent symbols.ScopeID, c *declCtx) {
	cd := u.b.Class(n)
	u.declared[n] = id
	s := u.sym(id)
	if s.Kind == symbols.SymbolClass && s.Type == types.NoTypeID {
		dep := u.templateDepth(parent) > 0 || s.Flags&symbols.FlagPartialSpec != 0
		s.Type = u.types.Class(uint32(id), dep)
	}
	inner := u.table.NewScope(symbols.ScopeClass, parent, id, n)
	s = u.sym(id)
	if s.Kind == symbols.SymbolClass {
		s.Inner = inner
	}
	if u.cxx && cd.Name != ast.NoNode && s.Kind == symbols.SymbolClass {
		u.table.Insert(&symbols.Symbol{
			Name:   s.Name,
			Kind:   symbols.SymbolClass,
			Scope:  inner,
			Flags:  symbols.FlagInjected,
			Access: symbols.AccessPublic,
			Target: id,
			Node:   n,
			Type:   s.Type,
		})
	}
	for _, b := range cd.Bases {
		u.markExpr(b, parent)
	}
	access := symbols.AccessPublic
	if cd.Key == token.KwClass {
		access = symbols.AccessPrivate
	}
	mc := &declCtx{scope: inner, access: access, class: id, linkC: c.linkC}
	u.classNest++
	for _, m := range cd.Members {
		u.walkDecl(m, mc)
	}
	u.classNest--
	if u.classNest == 0 {
		u.flushDeferred()
	}
}

// declareClassSpecialization declares A<int> after template<> (explicit
// specialization) or A<T*> after a header with parameters (partial
// specialization). Repeated declarations of the same arguments merge.
func (u *Unit) declareClassSpecialization(n, name, last ast.NodeID, frame *templateFrame, c *declCtx, flags symbols.SymbolFlags, definition bool) symbols.SymbolID {
	tl := u.b.Name(last)
	primary := symbols.NoSymbolID
	res, _, _ := u.lookupName(tl.Template, symbols.LookupOptions{Pos: u.usePos(tl.Template), TypesOnly: true})
	for _, cand := range res.Symbols {
		if s := u.sym(cand); s.Kind == symbols.SymbolClass && s.Template != nil && !s.Template.Primary.IsValid() {
			primary = cand
			break
		}
	}
	if !primary.IsValid() {
		p := u.problem(symbols.NameNotFound, tl.Template, "'"+u.nameText(tl.Template)+"' is not a class template")
		u.setSlot(tl.Template, p)
		u.setNameSlots(name, p)
		u.setSlot(last, p)
		return p
	}
	u.setSlot(tl.Template, primary)
	args := u.completeArgs(primary, u.templateArgs(last, primary), u.span(name))
	ps := u.sym(primary)
	base := &symbols.Symbol{
		Name:        ps.Name,
		Kind:        symbols.SymbolClass,
		Scope:       ps.Scope,
		Decls:       []ast.NodeID{name},
		Flags:       flags,
		Pos:         u.declPos(name),
		Access:      ps.Access,
		Linkage:     symbols.LinkageExternal,
		Specialized: primary,
		Node:        n,
	}
	if definition {
		base.Def = name
		base.Flags |= symbols.FlagDefined
	}

	var id symbols.SymbolID
	if frame == nil || frame.explicit {
		if frame != nil {
			frame.consumed = true
		}
		key := types.ArgsKey(args)
		if prev, ok := ps.Template.Explicit[key]; ok {
			id = u.mergeClassDecl(prev, name, n, definition)
		} else {
			base.Flags |= symbols.FlagExplicitSpec
			base.Instance = &symbols.InstanceInfo{Template: primary, Args: args, Key: key}
			id = u.table.Symbols.New(base)
			s := u.sym(id)
			s.Instance.Pattern = id
			s.Type = u.types.Class(uint32(id), u.types.ArgsDependent(args))
			pt := u.sym(primary).Template
			if pt.Explicit == nil {
				pt.Explicit = make(map[string]symbols.SymbolID)
			}
			pt.Explicit[key] = id
			if _, seen := u.insts.Lookup(primary, args); !seen {
				u.insts.Record(inst.KindExplicit, primary, args, id, u.span(name), symbols.NoSymbolID)
			}
		}
	} else {
		frame.consumed = true
		for _, p := range ps.Template.Partials {
			pi := u.sym(p).Template
			if argsEqual(pi.PatternArgs, args) {
				id = u.mergeClassDecl(p, name, n, definition)
				u.linkParams(frame.params, pi.Params)
				break
			}
		}
		if !id.IsValid() {
			base.Flags |= symbols.FlagPartialSpec
			base.Template = &symbols.TemplateInfo{Params: frame.params, Depth: frame.depth, Primary: primary, PatternArgs: args, Decl: frame.node}
			id = u.table.Symbols.New(base)
			u.sym(id).Type = u.types.Class(uint32(id), true)
			for _, p := range frame.params {
				u.sym(p).Param.Owner = id
			}
			pt := u.sym(primary).Template
			pt.Partials = append(pt.Partials, id)
		}
	}
	u.setNameSlots(name, id)
	u.setSlot(last, id)
	return id
}

// mergeClassDecl adds a redeclaration to a specialization. A second
// definition becomes a problem binding.
func (u *Unit) mergeClassDecl(id symbols.SymbolID, name, n ast.NodeID, definition bool) symbols.SymbolID {
	s := u.sym(id)
	if definition && s.Def != ast.NoNode {
		return u.declProblem(symbols.DeclareResult{Problem: symbols.RedefinitionConflict, Previous: id}, name)
	}
	s.Decls = append(s.Decls, name)
	if definition {
		s.Def = name
		s.Flags |= symbols.FlagDefined
		s.Node = n
	}
	return id
}

func argsEqual(a, b []types.TemplateArg) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// walkElaborated handles struct X in a decl-specifier: a forward
// declaration when standalone, a friend declaration, an explicit
// instantiation, or a reference that declares X when nothing is visible.
func (u *Unit) walkElaborated(n ast.NodeID, c *declCtx, standalone, friend bool) {
	cd := u.b.Class(n)
	u.scopes[n] = c.scope
	name := cd.Name
	u.markExpr(name, c.scope)
	if name == ast.NoNode {
		return
	}
	kind := symbols.SymbolClass
	var flags symbols.SymbolFlags
	switch cd.Key {
	case token.KwEnum:
		kind = symbols.SymbolEnum
	case token.KwUnion:
		flags |= symbols.FlagUnion
	}
	last := u.b.LastName(name)
	frame := c.ownFrame()
	qualified := u.kind(name) == ast.KindQualified
	nameID := u.intern(u.nameText(last))

	switch {
	case c.inst:
		u.resolve(name)
		return
	case u.kind(last) == ast.KindTemplateID && standalone && !friend && frame != nil && !qualified:
		u.declareClassSpecialization(n, name, last, frame, c, flags, false)
		return
	case qualified || u.kind(last) != ast.KindIdent:
		return
	case friend:
		opts := symbols.LookupOptions{Elaborated: true, Tags: !u.cxx, Pos: u.usePos(name)}
		if r := u.table.LookupUnqualified(u.graph(), c.scope, nameID, opts); r.Found() {
			return
		}
		ns := u.table.EnclosingNamespace(c.scope)
		res := u.table.Declare(ns, nameID, kind, symbols.DeclAttrs{
			Node: name, Decl: n, Pos: u.declPos(name), Flags: flags | symbols.FlagFriend,
			Tag: !u.cxx, Linkage: symbols.LinkageExternal,
		})
		if res.Problem != symbols.ProblemNone {
			u.setSlot(name, u.declProblem(res, name))
			return
		}
		if res.New {
			u.sym(res.Symbol).Flags |= symbols.FlagHidden
		}
		u.setSlot(name, res.Symbol)
		return
	case standalone:
		target := u.tagScope(c.scope)
		attrs := symbols.DeclAttrs{Node: name, Decl: n, Pos: u.declPos(name), Flags: flags, Tag: !u.cxx, Linkage: symbols.LinkageExternal}
		if u.scope(target).Kind == symbols.ScopeClass {
			attrs.Access = c.access
		}
		if frame != nil && !frame.explicit {
			attrs.TemplateKey = frame.key
			frame.consumed = true
		}
		res := u.table.Declare(target, nameID, kind, attrs)
		if res.Problem != symbols.ProblemNone {
			u.setSlot(name, u.declProblem(res, name))
			return
		}
		u.initTagType(res.Symbol, target)
		if attrs.TemplateKey != "" {
			u.attachTemplate(res.Symbol, frame)
		}
		u.setSlot(name, res.Symbol)
		return
	}
	opts := symbols.LookupOptions{Elaborated: true, Tags: !u.cxx, Pos: u.usePos(name)}
	if r := u.table.LookupUnqualified(u.graph(), c.scope, nameID, opts); r.Found() {
		return
	}
	target := u.elaboratedScope(c.scope)
	res := u.table.Declare(target, nameID, kind, symbols.DeclAttrs{
		Node: name, Decl: n, Pos: u.declPos(name), Flags: flags, Tag: !u.cxx, Linkage: symbols.LinkageExternal,
	})
	if res.Problem != symbols.ProblemNone {
		u.setSlot(name, u.declProblem(res, name))
		return
	}
	u.initTagType(res.Symbol, target)
	u.setSlot(name, res.Symbol)
}

// initTagType gives a forward-declared class or enum its type.
func (u *Unit) initTagType(id symbols.SymbolID, sc symbols.ScopeID) {
	s := u.sym(id)
	if s == nil || s.Type != types.NoTypeID {
		return
	}
	switch s.Kind {
	case symbols.SymbolClass:
		s.Type = u.types.Class(uint32(id), u.templateDepth(sc) > 0)
	case symbols.SymbolEnum:
		s.Type = u.types.Enum(uint32(id))
	}
}

func (u *Unit) walkEnumSpec(n ast.NodeID, c *declCtx) {
	cd := u.b.Class(n)
	u.scopes[n] = c.scope
	name := cd.Name
	u.markExpr(name, c.scope)
	u.walkTypeID(cd.Underlying, c.scope)
	target, lookup := u.tagScope(c.scope), c.scope
	if u.kind(name) == ast.KindQualified {
		if t, l, ok := u.qualContext(name, c); ok {
			target, lookup = t, l
		}
	}
	var flags symbols.SymbolFlags
	if cd.Scoped {
		flags |= symbols.FlagScoped
	}
	var access symbols.Access
	if u.scope(target).Kind == symbols.ScopeClass {
		access = c.access
	}
	var id symbols.SymbolID
	if name == ast.NoNode {
		id = u.table.Insert(&symbols.Symbol{
			Kind:   symbols.SymbolEnum,
			Scope:  target,
			Flags:  flags | symbols.FlagAnonymous | symbols.FlagDefined,
			Pos:    u.span(n).Start + 1,
			Access: access,
			Node:   n,
		})
	} else {
		res := u.table.Declare(target, u.intern(u.nameText(u.b.LastName(name))), symbols.SymbolEnum, symbols.DeclAttrs{
			Node:       name,
			Decl:       n,
			Pos:        u.declPos(name),
			Flags:      flags,
			Definition: cd.Complete,
			Tag:        !u.cxx,
			Access:     access,
			Linkage:    symbols.LinkageExternal,
		})
		if res.Problem != symbols.ProblemNone {
			id = u.declProblem(res, name)
			u.setNameSlots(name, id)
			for _, e := range cd.Members {
				u.markExpr(e, c.scope)
			}
			return
		}
		id = res.Symbol
		u.setNameSlots(name, id)
	}
	u.declared[n] = id
	u.initTagType(id, target)
	if !cd.Complete {
		return
	}
	inner := u.table.NewScope(symbols.ScopeEnum, lookup, id, n)
	u.sym(id).Inner = inner
	enumType := u.sym(id).Type
	if !u.cxx {
		enumType = u.builtins.Int
	}
	into := target
	if cd.Scoped {
		into = inner
	}
	prev := symbols.NoSymbolID
	for _, e := range cd.Members {
		u.scopes[e] = inner
		ed := u.b.Class(e)
		u.markExpr(ed.Value, inner)
		u.scopes[ed.Name] = inner
		text := u.intern(u.nameText(ed.Name))
		res := u.table.Declare(into, text, symbols.SymbolEnumerator, symbols.DeclAttrs{
			Node:       ed.Name,
			Decl:       e,
			Pos:        u.declPos(ed.Name),
			Type:       enumType,
			Definition: true,
			Access:     access,
		})
		if res.Problem != symbols.ProblemNone {
			u.setSlot(ed.Name, u.declProblem(res, ed.Name))
			continue
		}
		eid := res.Symbol
		u.setSlot(ed.Name, eid)
		u.declared[e] = eid
		u.enumPrev[eid] = prev
		prev = eid
		if !cd.Scoped && u.cxx {
			u.table.Insert(&symbols.Symbol{
				Name:   text,
				Kind:   symbols.SymbolUsing,
				Scope:  inner,
				Target: eid,
				Pos:    u.declPos(ed.Name),
				Node:   e,
			})
		}
	}
}
