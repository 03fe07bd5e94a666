package sema

import (
	"strings"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/symbols"
	"cxxsema/internal/token"
	"cxxsema/internal/types"
)

// templateFrame is one template header around the declaration being
// walked. Qualifiers such as A<T>:: consume frames outermost first; the
// frame left over belongs to the declared entity itself.
type templateFrame struct {
	node     ast.NodeID
	scope    symbols.ScopeID // NoScopeID for template<>
	params   []symbols.SymbolID
	depth    uint32
	explicit bool
	key      string
	consumed bool
}

// deferredWork runs once the outermost class being defined is complete:
// member function bodies see every member.
type deferredWork func()

// declCtx is what the walk knows about the enclosing declaration context.
type declCtx struct {
	scope  symbols.ScopeID
	access symbols.Access
	class  symbols.SymbolID // class whose members are being walked
	chain  []*templateFrame // headers of the current declaration
	linkC  bool             // inside extern "C"
	inst   bool             // body of an explicit instantiation
}

// nested returns the context of a declaration nested in c, without
// template headers.
func (c *declCtx) nested(sc symbols.ScopeID) *declCtx {
	return &declCtx{scope: sc, access: c.access, class: c.class, linkC: c.linkC}
}

// ownFrame returns the header that belongs to the declared entity after
// qualifiers took theirs.
func (c *declCtx) ownFrame() *templateFrame {
	for _, f := range c.chain {
		if !f.consumed {
			return f
		}
	}
	return nil
}

// consumeFrame marks the outermost free header as used by a qualifier.
func (c *declCtx) consumeFrame() *templateFrame {
	for _, f := range c.chain {
		if !f.consumed {
			f.consumed = true
			return f
		}
	}
	return nil
}

func (u *Unit) walkTU(root ast.NodeID) {
	u.scopes[root] = u.table.Global
	c := &declCtx{scope: u.table.Global}
	for _, d := range u.b.Decl(root).List {
		u.walkDecl(d, c)
	}
	u.flushDeferred()
}

func (u *Unit) flushDeferred() {
	for len(u.deferred) > 0 {
		w := u.deferred[0]
		u.deferred = u.deferred[1:]
		w()
	}
}

// later runs w now, or after the outermost class when inside one.
func (u *Unit) later(w deferredWork) {
	if u.classNest > 0 {
		u.deferred = append(u.deferred, w)
		return
	}
	w()
}

func (u *Unit) walkDecl(n ast.NodeID, c *declCtx) {
	if !u.valid(n) {
		return
	}
	u.scopes[n] = c.scope
	d := u.b.Decl(n)
	switch u.kind(n) {
	case ast.KindSimpleDecl:
		u.walkSimpleDecl(n, c)
	case ast.KindFunctionDef:
		u.walkFunctionDef(n, c)
	case ast.KindNamespace:
		u.walkNamespace(n, c)
	case ast.KindNamespaceAlias:
		u.walkNamespaceAlias(n, c)
	case ast.KindUsingDirective:
		u.walkUsingDirective(n, c)
	case ast.KindUsingDecl:
		u.walkUsingDecl(n, c)
	case ast.KindAliasDecl:
		u.walkAliasDecl(n, c)
	case ast.KindTemplateDecl:
		u.walkTemplateDecl(n, c)
	case ast.KindExplicitInstantiation:
		inner := *c
		inner.inst = true
		inner.chain = nil
		u.walkDecl(d.Body, &inner)
	case ast.KindLinkageSpec:
		inner := *c
		inner.linkC = d.Lang == "C"
		for _, m := range d.List {
			u.walkDecl(m, &inner)
		}
	case ast.KindStaticAssert:
		u.markExpr(d.Body, c.scope)
	case ast.KindAccessSpec:
		c.access = accessOf(d.Access)
	default:
		u.mark(n, c.scope)
	}
}

func accessOf(k token.Kind) symbols.Access {
	switch k {
	case token.KwPublic:
		return symbols.AccessPublic
	case token.KwProtected:
		return symbols.AccessProtected
	case token.KwPrivate:
		return symbols.AccessPrivate
	}
	return symbols.AccessNone
}

// --- namespaces and using ----------------------------------------------------

func (u *Unit) walkNamespace(n ast.NodeID, c *declCtx) {
	d := u.b.Decl(n)
	var inner symbols.ScopeID
	if d.Name == ast.NoNode {
		id, ok := u.unnamedNS[c.scope]
		if !ok {
			id = u.table.Insert(&symbols.Symbol{
				Kind:    symbols.SymbolNamespace,
				Scope:   c.scope,
				Decls:   []ast.NodeID{n},
				Def:     n,
				Flags:   symbols.FlagDefined | symbols.FlagAnonymous,
				Linkage: symbols.LinkageInternal,
				Pos:     u.span(n).Start + 1,
				Node:    n,
			})
			sc := u.table.NewScope(symbols.ScopeNamespace, c.scope, id, n)
			u.sym(id).Inner = sc
			u.table.AddUsing(c.scope, sc, 0, n)
			u.unnamedNS[c.scope] = id
		}
		inner = u.sym(id).Inner
	} else {
		u.scopes[d.Name] = c.scope
		res := u.table.Declare(c.scope, u.intern(u.b.Name(d.Name).Text), symbols.SymbolNamespace, symbols.DeclAttrs{
			Node:       d.Name,
			Decl:       n,
			Pos:        u.declPos(d.Name),
			Definition: true,
			Linkage:    symbols.LinkageExternal,
		})
		id := res.Symbol
		if res.Problem != symbols.ProblemNone {
			u.setSlot(d.Name, u.declProblem(res, d.Name))
		} else {
			u.setSlot(d.Name, id)
		}
		if id.IsValid() && u.sym(id).Inner.IsValid() {
			inner = u.sym(id).Inner
		} else {
			inner = u.table.NewScope(symbols.ScopeNamespace, c.scope, id, n)
			if id.IsValid() {
				u.sym(id).Inner = inner
			}
		}
		if d.Flags&ast.DeclInline != 0 {
			u.table.AddUsing(c.scope, inner, 0, n)
		}
	}
	inner2 := &declCtx{scope: inner, linkC: c.linkC}
	for _, m := range d.List {
		u.walkDecl(m, inner2)
	}
}

func (u *Unit) walkNamespaceAlias(n ast.NodeID, c *declCtx) {
	d := u.b.Decl(n)
	u.markExpr(d.Target, c.scope)
	target := u.namespaceOf(u.resolve(d.Target))
	u.scopes[d.Name] = c.scope
	res := u.table.Declare(c.scope, u.intern(u.b.Name(d.Name).Text), symbols.SymbolNamespaceAlias, symbols.DeclAttrs{
		Node:       d.Name,
		Decl:       n,
		Pos:        u.declPos(d.Name),
		Definition: true,
	})
	if res.Problem != symbols.ProblemNone {
		u.setSlot(d.Name, u.declProblem(res, d.Name))
		return
	}
	u.setSlot(d.Name, res.Symbol)
	if target.IsValid() {
		alias := u.sym(res.Symbol)
		alias.Target = target
		alias.Inner = u.sym(target).Inner
	}
}

// namespaceOf follows namespace aliases.
func (u *Unit) namespaceOf(id symbols.SymbolID) symbols.SymbolID {
	for n := 0; n < 64; n++ {
		s := u.sym(id)
		if s == nil {
			return symbols.NoSymbolID
		}
		switch s.Kind {
		case symbols.SymbolNamespace:
			return id
		case symbols.SymbolNamespaceAlias:
			id = s.Target
		default:
			return symbols.NoSymbolID
		}
	}
	return symbols.NoSymbolID
}

func (u *Unit) walkUsingDirective(n ast.NodeID, c *declCtx) {
	d := u.b.Decl(n)
	u.markExpr(d.Target, c.scope)
	ns := u.namespaceOf(u.resolve(d.Target))
	if !ns.IsValid() {
		return
	}
	if inner := u.sym(ns).Inner; inner.IsValid() {
		u.table.AddUsing(c.scope, inner, u.span(n).Start, n)
	}
}

// walkUsingDecl enters one delegate per entity the using-declaration
// names. A dependent target yields a single delegate without target.
func (u *Unit) walkUsingDecl(n ast.NodeID, c *declCtx) {
	d := u.b.Decl(n)
	u.markExpr(d.Target, c.scope)
	last := u.b.LastName(d.Target)
	name := u.intern(u.nameText(last))
	sc := u.declScope(c.scope)

	res, dep, failed := u.lookupName(d.Target, symbols.LookupOptions{Pos: u.usePos(d.Target)})
	targets := res.Symbols
	switch {
	case failed:
		u.setNameSlots(d.Target, u.quietProblem(symbols.NameNotFound, d.Target))
		return
	case !res.Found() && !dep:
		u.setNameSlots(d.Target, u.problem(symbols.NameNotFound, d.Target, "'"+u.b.NameString(d.Target)+"' was not declared"))
		return
	case !res.Found():
		targets = []symbols.SymbolID{symbols.NoSymbolID}
	}
	first := symbols.NoSymbolID
	for _, t := range targets {
		dup := false
		for _, prev := range u.table.Bucket(sc, name) {
			if p := u.sym(prev); p.Kind == symbols.SymbolUsing && p.Target == t && t.IsValid() {
				dup = true
				if !first.IsValid() {
					first = prev
				}
			}
		}
		if dup {
			continue
		}
		id := u.table.Insert(&symbols.Symbol{
			Name:   name,
			Kind:   symbols.SymbolUsing,
			Scope:  sc,
			Decls:  []ast.NodeID{d.Target},
			Def:    d.Target,
			Flags:  symbols.FlagDefined,
			Pos:    u.declPos(d.Target),
			Access: c.access,
			Target: t,
			Node:   n,
		})
		if !first.IsValid() {
			first = id
		}
	}
	u.setNameSlots(d.Target, first)
}

// --- aliases and templates ---------------------------------------------------

func (u *Unit) walkAliasDecl(n ast.NodeID, c *declCtx) {
	d := u.b.Decl(n)
	u.walkTypeID(d.Body, c.scope)
	frame := c.ownFrame()
	sc := u.declScope(c.scope)
	attrs := symbols.DeclAttrs{
		Node:       d.Name,
		Decl:       n,
		Pos:        u.declPos(d.Name),
		Type:       u.typeIDType(d.Body),
		Definition: true,
		Access:     c.access,
	}
	if frame != nil && !frame.explicit {
		attrs.TemplateKey = frame.key
		frame.consumed = true
	}
	u.scopes[d.Name] = c.scope
	res := u.table.Declare(sc, u.intern(u.b.Name(d.Name).Text), symbols.SymbolTypedef, attrs)
	if res.Problem != symbols.ProblemNone {
		u.setSlot(d.Name, u.declProblem(res, d.Name))
		return
	}
	u.setSlot(d.Name, res.Symbol)
	if attrs.TemplateKey != "" {
		u.attachTemplate(res.Symbol, frame)
	}
}

func (u *Unit) walkTemplateDecl(n ast.NodeID, c *declCtx) {
	d := u.b.Decl(n)
	f := &templateFrame{node: n, explicit: d.Flags&ast.DeclExplicitSpec != 0}
	inner := *c
	if !f.explicit {
		f.depth = u.templateDepth(c.scope)
		f.scope = u.table.NewScope(symbols.ScopeTemplate, c.scope, symbols.NoSymbolID, n)
		inner.scope = f.scope
		f.params, f.key = u.declareTemplateParams(d.Params, f.scope, f.depth)
	}
	inner.chain = append(c.chain[:len(c.chain):len(c.chain)], f)
	u.walkDecl(d.Body, &inner)
}

// declareTemplateParams enters the parameters of one header and returns
// them with the header's shape key: two headers with the same kinds of
// parameters declare the same template.
func (u *Unit) declareTemplateParams(params []ast.NodeID, ts symbols.ScopeID, depth uint32) ([]symbols.SymbolID, string) {
	ids := make([]symbols.SymbolID, 0, len(params))
	var key strings.Builder
	for i, p := range params {
		u.scopes[p] = ts
		d := u.b.Decl(p)
		pack := d.Flags&ast.DeclPack != 0
		var (
			name ast.NodeID
			kind symbols.SymbolKind
			part string
			typ  types.TypeID
		)
		switch u.kind(p) {
		case ast.KindTypeParam:
			name, kind, part = d.Name, symbols.SymbolTypeParam, "t"
			u.walkTypeID(d.Body, ts)
		case ast.KindTemplateTemplateParam:
			name, kind, part = d.Name, symbols.SymbolTemplateParam, "x"
			u.markExpr(d.Body, ts)
		case ast.KindParamDecl:
			kind = symbols.SymbolValueParam
			u.walkSpecs(d.Specs, &declCtx{scope: ts}, false)
			u.walkDeclarator(d.Declarator, ts, ts)
			name = declaratorName(u.b, d.Declarator)
			if dd := u.b.Declarator(d.Declarator); dd != nil && dd.Pack {
				pack = true
			}
			typ = u.adjustParam(u.declaratorType(u.specType(d.Specs), d.Declarator))
			part = "v" + u.table.TypeString(typ)
			u.markExpr(d.Body, ts)
		default:
			continue
		}
		if pack {
			part += "..."
		}
		if i > 0 {
			key.WriteByte(',')
		}
		key.WriteString(part)

		sym := &symbols.Symbol{
			Kind:  kind,
			Scope: ts,
			Pos:   u.span(p).End,
			Node:  p,
			Type:  typ,
			Param: &symbols.ParamInfo{Depth: depth, Index: uint32(i), Pack: pack, Default: d.Body},
		}
		if pack {
			sym.Flags |= symbols.FlagPack
		}
		if name != ast.NoNode {
			u.scopes[name] = ts
			sym.Name = u.intern(u.nameText(name))
			sym.Decls = []ast.NodeID{name}
			sym.Def = name
			sym.Flags |= symbols.FlagDefined
			sym.Pos = u.declPos(name)
			for _, prev := range u.table.Bucket(ts, sym.Name) {
				if u.sym(prev).Param != nil {
					u.report(diag.SemaRedefinition, name, "redeclaration of template parameter '"+u.nameText(name)+"'")
					break
				}
			}
		}
		id := u.table.Insert(sym)
		if kind != symbols.SymbolValueParam {
			u.sym(id).Type = u.types.Param(depth, uint32(i), pack, uint32(id))
		}
		if kind == symbols.SymbolTemplateParam {
			nested := u.table.NewScope(symbols.ScopeTemplate, ts, id, p)
			inner, _ := u.declareTemplateParams(d.Params, nested, depth+1)
			u.sym(id).Template = &symbols.TemplateInfo{Params: inner, Depth: depth + 1, Decl: p}
		}
		if name != ast.NoNode {
			u.setSlot(name, id)
		}
		ids = append(ids, id)
	}
	return ids, key.String()
}

// attachTemplate gives a declared template its parameter list, or links
// the parameters of a redeclaration to the first declaration's.
func (u *Unit) attachTemplate(id symbols.SymbolID, f *templateFrame) {
	s := u.sym(id)
	if s == nil || f == nil {
		return
	}
	if s.Template == nil {
		s.Template = &symbols.TemplateInfo{Params: f.params, Depth: f.depth, Decl: f.node}
		for _, p := range f.params {
			u.sym(p).Param.Owner = id
		}
		return
	}
	u.linkParams(f.params, s.Template.Params)
}

// linkParams makes the parameters of a later header denote the first
// declaration's parameters.
func (u *Unit) linkParams(later, first []symbols.SymbolID) {
	if len(later) != len(first) {
		return
	}
	for i, p := range later {
		if p != first[i] {
			u.sym(p).Target = first[i]
		}
	}
}

// --- expressions and type-ids -------------------------------------------------

// markExpr assigns sc to an expression tree. Type-ids inside it go through
// the declaration walk since they may declare tags and parameters.
func (u *Unit) markExpr(root ast.NodeID, sc symbols.ScopeID) {
	if root == ast.NoNode {
		return
	}
	stack := []ast.NodeID{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !u.valid(id) {
			continue
		}
		if u.kind(id) == ast.KindTypeID {
			u.walkTypeID(id, sc)
			continue
		}
		u.scopes[id] = sc
		for _, im := range u.b.ImplicitNames(id) {
			if u.valid(im) {
				u.scopes[im] = sc
			}
		}
		stack = append(stack, u.b.Children(id)...)
	}
}

func (u *Unit) walkTypeID(n ast.NodeID, sc symbols.ScopeID) {
	if !u.valid(n) {
		return
	}
	u.scopes[n] = sc
	d := u.b.Decl(n)
	u.walkSpecs(d.Specs, &declCtx{scope: sc}, false)
	u.walkDeclarator(d.Declarator, sc, sc)
}

// walkSpecs marks a decl-specifier sequence and declares the classes and
// enums it defines. standalone is set for `struct X;` declarations.
func (u *Unit) walkSpecs(spec ast.NodeID, c *declCtx, standalone bool) {
	if !u.valid(spec) {
		return
	}
	u.scopes[spec] = c.scope
	d := u.b.Spec(spec)
	if d == nil {
		return
	}
	u.markExpr(d.Decltype, c.scope)
	switch u.kind(d.Type) {
	case ast.KindClassSpec:
		u.walkClassSpec(d.Type, c)
	case ast.KindEnumSpec:
		u.walkEnumSpec(d.Type, c)
	case ast.KindElaboratedSpec:
		u.walkElaborated(d.Type, c, standalone, d.Storage&ast.StorFriend != 0)
	default:
		u.markExpr(d.Type, c.scope)
	}
}

// declaratorName digs the declared name out of nested declarators.
func declaratorName(b *ast.Builder, n ast.NodeID) ast.NodeID {
	for n != ast.NoNode {
		d := b.Declarator(n)
		if d == nil {
			return ast.NoNode
		}
		if d.Name != ast.NoNode {
			return d.Name
		}
		n = d.Nested
	}
	return ast.NoNode
}

// entitySuffix finds the suffix that makes the declared name a function:
// the first suffix of the innermost level carrying suffixes or pointers.
func entitySuffix(b *ast.Builder, n ast.NodeID) (level ast.NodeID, ok bool) {
	var last ast.NodeID
	for id := n; id != ast.NoNode; {
		d := b.Declarator(id)
		if d == nil {
			break
		}
		if len(d.Suffixes) > 0 || len(d.Ptrs) > 0 {
			last = id
		}
		id = d.Nested
	}
	if last == ast.NoNode {
		return ast.NoNode, false
	}
	d := b.Declarator(last)
	if len(d.Suffixes) == 0 || d.Suffixes[0].Kind != ast.SuffixFunction {
		return ast.NoNode, false
	}
	return last, true
}

// walkDeclarator marks a declarator and declares the parameters of its
// function suffixes, each in its own prototype scope. The suffix that makes
// the declared name a function gets entityParent as parent, so that an
// out-of-line member sees its class; its scope is returned.
func (u *Unit) walkDeclarator(n ast.NodeID, sc, entityParent symbols.ScopeID) symbols.ScopeID {
	if !u.valid(n) {
		return symbols.NoScopeID
	}
	own, isFn := entitySuffix(u.b, n)
	proto := symbols.NoScopeID
	for lvl := n; lvl != ast.NoNode; {
		d := u.b.Declarator(lvl)
		if d == nil {
			break
		}
		u.scopes[lvl] = sc
		for _, p := range d.Ptrs {
			u.markExpr(p.Class, sc)
		}
		u.markExpr(d.Name, sc)
		for i, s := range d.Suffixes {
			if s.Kind == ast.SuffixArray {
				u.markExpr(s.Size, sc)
				continue
			}
			parent := sc
			mine := isFn && lvl == own && i == 0
			if mine {
				parent = entityParent
			}
			ps := u.table.NewScope(symbols.ScopePrototype, parent, symbols.NoSymbolID, lvl)
			for _, p := range s.Params {
				u.walkParam(p, ps)
			}
			for _, t := range s.Throw {
				u.walkTypeID(t, sc)
			}
			u.walkTypeID(s.Trailing, ps)
			if mine {
				proto = ps
			}
		}
		u.markExpr(d.BitWidth, sc)
		lvl = d.Nested
	}
	for _, im := range u.b.ImplicitNames(n) {
		u.scopes[im] = sc
	}
	if proto.IsValid() {
		u.protos[n] = proto
	}
	return proto
}

// walkParam declares a function parameter in prototype scope ps.
func (u *Unit) walkParam(p ast.NodeID, ps symbols.ScopeID) {
	if !u.valid(p) {
		return
	}
	u.scopes[p] = ps
	d := u.b.Decl(p)
	if d == nil {
		return
	}
	u.walkSpecs(d.Specs, &declCtx{scope: ps}, false)
	u.walkDeclarator(d.Declarator, ps, ps)
	u.markExpr(d.Body, ps)
	typ := u.paramType(p)
	name := declaratorName(u.b, d.Declarator)
	if name == ast.NoNode {
		return
	}
	var flags symbols.SymbolFlags
	if dd := u.b.Declarator(d.Declarator); dd != nil && dd.Pack {
		flags |= symbols.FlagPack
	}
	if u.types.CVOf(typ)&types.Const != 0 {
		flags |= symbols.FlagConst
	}
	res := u.table.Declare(ps, u.intern(u.nameText(name)), symbols.SymbolParameter, symbols.DeclAttrs{
		Node:       name,
		Decl:       p,
		Pos:        u.declPos(name),
		Type:       typ,
		Flags:      flags,
		Definition: true,
	})
	if res.Problem != symbols.ProblemNone {
		u.setSlot(name, u.declProblem(res, name))
		return
	}
	u.declared[p] = res.Symbol
	u.setSlot(name, res.Symbol)
}
