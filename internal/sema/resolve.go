package sema

import (
	"slices"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/symbols"
	"cxxsema/internal/token"
)

// resolve returns the binding of name node n, resolving it on first use.
// NoSymbolID means the name depends on a template parameter, or names
// something without a binding such as an implicitly declared constructor.
func (u *Unit) resolve(n ast.NodeID) symbols.SymbolID {
	if !u.valid(n) || !u.kind(n).IsName() {
		return symbols.NoSymbolID
	}
	switch u.slots[n].state {
	case slotDone:
		return u.slots[n].sym
	case slotResolving:
		if u.kind(n) == ast.KindImplicitName {
			return symbols.NoSymbolID
		}
		id := u.problem(symbols.CircularReference, n, "'"+u.b.NameString(n)+"' depends on itself")
		u.setSlot(n, id)
		return id
	}
	if u.isFrozen() {
		return symbols.NoSymbolID
	}
	if u.kind(n) == ast.KindImplicitName {
		// the owning declarator or expression fills the slot and guards
		// against re-entry itself
		id := u.resolveImplicit(n)
		if u.slots[n].state == slotUnresolved {
			u.setSlot(n, id)
		}
		return id
	}
	u.slots[n].state = slotResolving
	id := u.resolveName(n)
	if u.slots[n].state != slotDone {
		u.slots[n] = slot{state: slotDone, sym: id}
	}
	if u.kind(n) == ast.KindQualified {
		if last := u.b.Name(n).Last; u.valid(last) && u.slots[last].state != slotDone {
			u.setSlot(last, u.slots[n].sym)
		}
	}
	return u.slots[n].sym
}

func (u *Unit) resolveName(n ast.NodeID) symbols.SymbolID {
	if u.underProblem(n) {
		return symbols.NoSymbolID
	}
	p := u.b.Parent(n)
	switch u.kind(p) {
	case ast.KindQualified:
		qd := u.b.Name(p)
		if qd.Last == n {
			return u.resolve(p)
		}
		return u.resolveSegment(n)
	case ast.KindTemplateID:
		if u.b.Name(p).Template == n {
			return u.templateOfName(p)
		}
	case ast.KindIdExpr:
		return u.resolveExprName(p, n)
	case ast.KindMember:
		if u.b.Expr(p).B == n {
			return u.resolveMemberName(p, n)
		}
	case ast.KindGoto:
		return u.resolveLabel(n)
	}
	return u.lookupBinding(n, u.contextOptions(n))
}

// underProblem reports names inside constructs the parser gave up on.
func (u *Unit) underProblem(n ast.NodeID) bool {
	for id := u.b.Parent(n); id != ast.NoNode; id = u.b.Parent(id) {
		switch u.kind(id) {
		case ast.KindProblemDecl, ast.KindProblemStmt, ast.KindProblemExpr:
			return true
		}
	}
	return false
}

// contextOptions derives the lookup filter from where a complete name is
// used.
func (u *Unit) contextOptions(full ast.NodeID) symbols.LookupOptions {
	opts := symbols.LookupOptions{Pos: u.usePos(full)}
	p := u.b.Parent(full)
	switch u.kind(p) {
	case ast.KindDeclSpec, ast.KindBaseSpec, ast.KindDestructorName:
		opts.TypesOnly = true
	case ast.KindElaboratedSpec, ast.KindClassSpec, ast.KindEnumSpec:
		opts.Elaborated = true
		opts.Tags = !u.cxx
	case ast.KindNamespaceAlias, ast.KindUsingDirective:
		opts.NamespacesOnly = true
	case ast.KindQualified:
		if u.b.Name(p).Last != full {
			opts.Qualifier = true
		}
	case ast.KindDeclarator:
		if u.b.Declarator(p).Name != full {
			opts.TypesOnly = true
		}
	}
	return opts
}

// lookupBinding resolves a complete name outside expressions.
func (u *Unit) lookupBinding(n ast.NodeID, opts symbols.LookupOptions) symbols.SymbolID {
	if last := u.b.LastName(n); u.kind(last) == ast.KindTemplateID {
		id := u.resolveTemplateID(last)
		if last != n {
			u.setSlot(last, id)
		}
		return id
	}
	res, dep, failed := u.lookupName(n, opts)
	return u.pick(n, res, dep, failed)
}

func (u *Unit) resolveSegment(seg ast.NodeID) symbols.SymbolID {
	if u.kind(seg) == ast.KindTemplateID {
		return u.resolveTemplateID(seg)
	}
	res, dep, failed := u.lookupName(seg, symbols.LookupOptions{Pos: u.usePos(seg), Qualifier: true})
	return u.pick(seg, res, dep, failed)
}

// resolveExprName binds a name used as an expression. Callees wait for
// the call so that overload resolution sees the arguments.
func (u *Unit) resolveExprName(idexpr, n ast.NodeID) symbols.SymbolID {
	if call := u.callOf(idexpr); call != ast.NoNode {
		u.typeExpr(call)
	} else {
		u.typeExpr(idexpr)
	}
	if u.slots[n].state == slotDone {
		return u.slots[n].sym
	}
	return u.lookupBinding(n, symbols.LookupOptions{Pos: u.usePos(n)})
}

func (u *Unit) resolveMemberName(member, n ast.NodeID) symbols.SymbolID {
	if call := u.callOf(member); call != ast.NoNode {
		u.typeExpr(call)
	} else {
		u.typeExpr(member)
	}
	if u.slots[n].state == slotDone {
		return u.slots[n].sym
	}
	return symbols.NoSymbolID
}

// callOf returns the call whose callee is e, looking through parentheses.
func (u *Unit) callOf(e ast.NodeID) ast.NodeID {
	for {
		p := u.b.Parent(e)
		switch u.kind(p) {
		case ast.KindParen:
			e = p
			continue
		case ast.KindCall:
			if u.b.Expr(p).A == e {
				return p
			}
		}
		return ast.NoNode
	}
}

func (u *Unit) resolveLabel(n ast.NodeID) symbols.SymbolID {
	if id := u.table.LookupLabel(u.scopeAt(n), u.intern(u.nameText(n))); id.IsValid() {
		return id
	}
	return u.problem(symbols.NameNotFound, n, "use of undeclared label '"+u.nameText(n)+"'")
}

// resolveImplicit binds an implicit name through its owner: the operator
// or constructor chosen when the expression or declarator is typed.
func (u *Unit) resolveImplicit(n ast.NodeID) symbols.SymbolID {
	p := u.b.Parent(n)
	switch {
	case u.kind(p) == ast.KindDeclarator:
		u.resolveDeclInit(p)
	case u.kind(p).IsExpr():
		u.typeExpr(p)
	}
	if u.slots[n].state == slotDone {
		return u.slots[n].sym
	}
	return symbols.NoSymbolID
}

// --- lookup --------------------------------------------------------------------

// qualifierOf finds the qualified name n is a component of, and the index
// of the segment n stands for; the last component has index
// len(Segments).
func (u *Unit) qualifierOf(n ast.NodeID) (ast.NodeID, int) {
	if u.kind(n) == ast.KindQualified {
		return n, len(u.b.Name(n).Segments)
	}
	cur := n
	for {
		p := u.b.Parent(cur)
		switch u.kind(p) {
		case ast.KindTemplateID:
			if u.b.Name(p).Template != cur {
				return ast.NoNode, 0
			}
			cur = p
		case ast.KindQualified:
			qd := u.b.Name(p)
			if qd.Last == cur {
				return p, len(qd.Segments)
			}
			for i, s := range qd.Segments {
				if s == cur {
					return p, i
				}
			}
			return ast.NoNode, 0
		default:
			return ast.NoNode, 0
		}
	}
}

// lookupName looks n up where it is written, in the scope its qualifier
// names if it has one. dep reports a qualifier that depends on a template
// parameter; failed reports a qualifier that was already diagnosed.
func (u *Unit) lookupName(n ast.NodeID, opts symbols.LookupOptions) (res symbols.LookupResult, dep, failed bool) {
	if opts.Pos == 0 {
		opts.Pos = u.usePos(n)
	}
	name := u.intern(u.nameText(n))
	q, idx := u.qualifierOf(n)
	if q == ast.NoNode || (idx == 0 && !u.b.Name(q).Global) {
		return u.table.LookupUnqualified(u.graph(), u.scopeAt(n), name, opts), false, false
	}
	sc, dep, failed := u.scopeBefore(q, idx)
	if dep || failed {
		return symbols.LookupResult{}, dep, failed
	}
	res = u.table.LookupQualified(u.graph(), sc, name, opts)
	if !res.Found() && !res.Ambiguous {
		// members of a class that depends on template parameters are
		// known only once it is instantiated
		if owner := u.owner(sc); owner.IsValid() && u.sym(owner).Kind == symbols.SymbolClass && u.dependentEntity(owner) {
			return res, true, false
		}
	}
	return res, false, false
}

// scopeBefore is the scope named by the segments of q before index idx.
func (u *Unit) scopeBefore(q ast.NodeID, idx int) (symbols.ScopeID, bool, bool) {
	if idx == 0 {
		return u.table.Global, false, false
	}
	seg := u.b.Name(q).Segments[idx-1]
	id := u.resolve(seg)
	s := u.sym(id)
	switch {
	case s == nil:
		return symbols.NoScopeID, true, false
	case s.Kind == symbols.SymbolProblem:
		return symbols.NoScopeID, false, true
	}
	if sc := u.memberScope(id); sc.IsValid() {
		return sc, false, false
	}
	if u.dependentEntity(id) {
		return symbols.NoScopeID, true, false
	}
	if u.slots[seg].state == slotDone && !u.badQualifier[seg] {
		u.badQualifier[seg] = true
		msg := "'" + u.b.NameString(seg) + "' is not a class, namespace or enumeration"
		if s.Kind == symbols.SymbolClass {
			msg = "incomplete type '" + u.table.QualifiedName(id) + "' used in nested name specifier"
		}
		u.report(diag.SemaNotAClassOrNamespace, seg, msg)
	}
	return symbols.NoScopeID, false, true
}

// dependentEntity reports bindings whose members are unknown until
// instantiation.
func (u *Unit) dependentEntity(id symbols.SymbolID) bool {
	s := u.sym(id)
	if s == nil {
		return true
	}
	switch s.Kind {
	case symbols.SymbolTypeParam, symbols.SymbolTemplateParam:
		return true
	case symbols.SymbolTypedef:
		return u.types.IsDependent(u.symbolType(id))
	case symbols.SymbolClass:
		return s.Flags&symbols.FlagDependent != 0 || u.types.IsDependent(s.Type)
	case symbols.SymbolUsing:
		return !s.Target.IsValid() || u.dependentEntity(s.Target)
	}
	return false
}

// pick turns a lookup result into the binding of n, reporting failures.
func (u *Unit) pick(n ast.NodeID, res symbols.LookupResult, dep, failed bool) symbols.SymbolID {
	switch {
	case failed:
		return u.quietProblem(symbols.NameNotFound, n)
	case dep:
		return symbols.NoSymbolID
	case res.Ambiguous:
		return u.ambiguous(n, res.Symbols)
	case !res.Found():
		if u.inDependentContext(n) {
			return symbols.NoSymbolID
		}
		return u.problem(symbols.NameNotFound, n, "'"+u.b.NameString(n)+"' was not declared in this scope")
	}
	return res.Symbols[0]
}

// ambiguous reports an ambiguous name with a note per candidate.
func (u *Unit) ambiguous(n ast.NodeID, cands []symbols.SymbolID) symbols.SymbolID {
	id := u.quietProblem(symbols.AmbiguousName, n)
	b := diag.ReportError(u.reporter, diag.SemaAmbiguousName, u.span(n), "reference to '"+u.b.NameString(n)+"' is ambiguous")
	for _, c := range cands {
		if s := u.sym(c); s != nil && len(s.Decls) > 0 {
			b = b.WithNote(u.span(s.Decls[0]), "candidate found by name lookup is '"+u.table.QualifiedName(c)+"'")
		}
	}
	b.Emit()
	return id
}

// inDependentContext reports names inside a class with a dependent base:
// they may be members of that base.
func (u *Unit) inDependentContext(n ast.NodeID) bool {
	for sc := u.scopeAt(n); sc.IsValid(); sc = u.scope(sc).Parent {
		s := u.scope(sc)
		if s.Kind == symbols.ScopeClass && s.Owner.IsValid() {
			u.basesOf(s.Owner)
			if u.depBases[s.Owner] {
				return true
			}
		}
	}
	return false
}

// --- templates by name ---------------------------------------------------------

// templateOf returns the template a binding belongs to: itself for a
// template, the primary for a partial specialization, the template of an
// instance or explicit specialization.
func (u *Unit) templateOf(id symbols.SymbolID) symbols.SymbolID {
	s := u.sym(id)
	switch {
	case s == nil:
		return symbols.NoSymbolID
	case s.Kind == symbols.SymbolTemplateParam:
		return id
	case s.Template != nil && s.Template.Primary.IsValid():
		return s.Template.Primary
	case s.Template != nil:
		return id
	case s.Instance != nil && s.Instance.Template.IsValid():
		return s.Instance.Template
	}
	return symbols.NoSymbolID
}

// templateOfName binds the template name of a template-id.
func (u *Unit) templateOfName(tid ast.NodeID) symbols.SymbolID {
	tn := u.b.Name(tid).Template
	if u.slots[tn].state == slotDone {
		return u.slots[tn].sym
	}
	ids, dep, failed := u.templateCandidates(tid)
	var id symbols.SymbolID
	switch {
	case failed:
		id = u.quietProblem(symbols.NameNotFound, tn)
	case dep:
	case len(ids) == 0:
		if u.inDependentContext(tn) {
			break
		}
		id = u.problem(symbols.NameNotFound, tn, "'"+u.nameText(tn)+"' does not name a template")
	default:
		id = ids[0]
	}
	u.setSlot(tn, id)
	return id
}

// templateCandidates looks up the template name of a template-id and keeps
// the templates.
func (u *Unit) templateCandidates(tid ast.NodeID) ([]symbols.SymbolID, bool, bool) {
	tn := u.b.Name(tid).Template
	opts := u.contextOptions(u.fullName(tid))
	if opts.Qualifier {
		opts.Qualifier = false
		opts.TypesOnly = true
	}
	res, dep, failed := u.lookupName(tn, opts)
	var out []symbols.SymbolID
	for _, id := range res.Symbols {
		if t := u.templateOf(id); t.IsValid() && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out, dep, failed
}

// fullName climbs from a name component to the complete name it is part
// of. Segments of a qualified name stand on their own.
func (u *Unit) fullName(n ast.NodeID) ast.NodeID {
	for {
		p := u.b.Parent(n)
		switch u.kind(p) {
		case ast.KindQualified:
			if u.b.Name(p).Last != n {
				return n
			}
		case ast.KindTemplateID:
			if u.b.Name(p).Template != n {
				return n
			}
		default:
			return n
		}
		n = p
	}
}

// resolveTemplateID binds a template-id outside calls: class and alias
// templates instantiate, a function template needs every argument given.
func (u *Unit) resolveTemplateID(tid ast.NodeID) symbols.SymbolID {
	if u.slots[tid].state == slotDone {
		return u.slots[tid].sym
	}
	tmpl := u.templateOfName(tid)
	s := u.sym(tmpl)
	if s == nil || s.Kind == symbols.SymbolProblem {
		return tmpl
	}
	args := u.templateArgs(tid, tmpl)
	if s.Kind == symbols.SymbolFunction {
		cands, _, _ := u.templateCandidates(tid)
		for _, c := range cands {
			cs := u.sym(c)
			if cs.Kind != symbols.SymbolFunction || len(args) > len(cs.Template.Params) && !u.hasPackParam(c) {
				continue
			}
			if b, ok := u.bindExplicit(c, args); ok {
				if full, ok := u.completeBindings(c, b); ok {
					return u.instantiate(c, u.argsFromBindings(c, full), tid)
				}
			}
		}
		return u.problem(symbols.DeductionFailure, tid, "cannot deduce the template arguments of '"+u.b.NameString(tid)+"'")
	}
	return u.instantiate(tmpl, args, tid)
}

// --- names ---------------------------------------------------------------------

// nameText is the canonical spelling a name is declared and looked up by.
func (u *Unit) nameText(n ast.NodeID) string {
	d := u.b.Name(n)
	if d == nil {
		return ""
	}
	switch u.kind(n) {
	case ast.KindQualified:
		return u.nameText(d.Last)
	case ast.KindTemplateID:
		return u.nameText(d.Template)
	case ast.KindOperatorName:
		return operatorName(d.Op, d.Array)
	case ast.KindConversionName:
		return "operator " + u.table.TypeString(u.typeIDType(d.Type))
	case ast.KindDestructorName:
		return "~" + u.nameText(d.Target)
	case ast.KindImplicitName:
		if d.Implicit == ast.ImplicitOperator || d.Implicit == ast.ImplicitArrow {
			return operatorName(d.Op, false)
		}
	}
	return d.Text
}

// operatorName spells operator function names: operator+, operator(),
// operator new[].
func operatorName(op token.Kind, array bool) string {
	switch op {
	case token.LParen:
		return "operator()"
	case token.LBracket:
		return "operator[]"
	case token.KwNew, token.KwDelete:
		s := "operator " + op.String()
		if array {
			s += "[]"
		}
		return s
	}
	return "operator" + op.String()
}
