package sema

import (
	"time"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/inst"
	"cxxsema/internal/source"
	"cxxsema/internal/symbols"
	"cxxsema/internal/token"
	"cxxsema/internal/trace"
	"cxxsema/internal/types"
)

// templateArgs computes the canonical arguments written in a template-id.
// When tmpl is known its parameter kinds tell template names apart from
// types.
func (u *Unit) templateArgs(tid ast.NodeID, tmpl symbols.SymbolID) []types.TemplateArg {
	d := u.b.Name(tid)
	var params []symbols.SymbolID
	if s := u.sym(tmpl); s != nil && s.Template != nil {
		params = s.Template.Params
	}
	args := make([]types.TemplateArg, 0, len(d.Args))
	for i, a := range d.Args {
		var p *symbols.Symbol
		switch {
		case i < len(params):
			p = u.sym(params[i])
		case len(params) > 0:
			if last := u.sym(params[len(params)-1]); last.Flags&symbols.FlagPack != 0 {
				p = last
			}
		}
		args = append(args, u.templateArg(a, p))
	}
	return args
}

// templateArg canonicalizes one argument: a type, a constant, the
// parameter it stands for, or a template or entity.
func (u *Unit) templateArg(a ast.NodeID, p *symbols.Symbol) types.TemplateArg {
	wantTemplate := p != nil && p.Kind == symbols.SymbolTemplateParam
	if u.kind(a) == ast.KindTypeID {
		if wantTemplate || p == nil {
			if t := u.templateNameArg(a); t.IsValid() {
				return types.TemplateRef(uint32(t))
			}
		}
		return types.TypeArg(u.typeIDType(a))
	}
	v := u.constValue(a)
	switch {
	case v.ok:
		return types.ValueArg(v.v)
	case v.dep && v.pure:
		return types.TemplateArg{Kind: types.ArgDependentValue, Param: v.param, Value: v.v}
	case v.dep:
		return types.TemplateArg{Kind: types.ArgDependentValue, Param: exprKey(a)}
	}
	if id := u.entityArg(a); id.IsValid() {
		return types.TemplateRef(uint32(id))
	}
	return types.ValueArg(0)
}

// exprKey stands for a value-dependent expression other than P+c; the
// expression is evaluated again once its parameters are bound.
func exprKey(e ast.NodeID) types.ParamKey {
	return types.ParamKey{Depth: ^uint32(0), Index: uint32(e)}
}

// templateNameArg recognises a type-id that is just the name of a class
// template or template template parameter.
func (u *Unit) templateNameArg(a ast.NodeID) symbols.SymbolID {
	d := u.b.Decl(a)
	if dd := u.b.Declarator(d.Declarator); dd != nil && (len(dd.Ptrs) > 0 || len(dd.Suffixes) > 0) {
		return symbols.NoSymbolID
	}
	sd := u.b.Spec(d.Specs)
	if sd == nil || sd.CV != 0 || len(sd.Builtin) > 0 || sd.Type == ast.NoNode {
		return symbols.NoSymbolID
	}
	switch u.kind(u.b.LastName(sd.Type)) {
	case ast.KindIdent:
	default:
		return symbols.NoSymbolID
	}
	res, _, _ := u.lookupName(sd.Type, symbols.LookupOptions{Pos: u.usePos(sd.Type), TypesOnly: true})
	id := res.Single()
	s := u.sym(id)
	if s == nil {
		return symbols.NoSymbolID
	}
	if s.Kind == symbols.SymbolTemplateParam || (s.Template != nil && !s.Template.Primary.IsValid()) {
		u.setNameSlots(sd.Type, id)
		return id
	}
	return symbols.NoSymbolID
}

// entityArg recognises &x and f as arguments for pointer parameters.
func (u *Unit) entityArg(e ast.NodeID) symbols.SymbolID {
	for {
		switch u.kind(e) {
		case ast.KindParen:
			e = u.b.Expr(e).A
			continue
		case ast.KindUnary:
			if ed := u.b.Expr(e); ed.Op == token.Amp {
				e = ed.A
				continue
			}
		case ast.KindIdExpr:
			return u.resolve(u.b.Expr(e).A)
		}
		return symbols.NoSymbolID
	}
}

// completeArgs fills defaulted parameters and gathers the arguments of a
// trailing pack into one pack argument. A result whose length differs from
// the parameter count means the arguments do not fit.
func (u *Unit) completeArgs(tmpl symbols.SymbolID, args []types.TemplateArg, site source.Span) []types.TemplateArg {
	ts := u.sym(tmpl)
	if ts == nil || ts.Template == nil {
		return args
	}
	params := ts.Template.Params
	out := make([]types.TemplateArg, 0, len(params))
	b := u.baseBindings(tmpl)
	for i, p := range params {
		pi := u.sym(p).Param
		if pi == nil {
			return args
		}
		switch {
		case pi.Pack:
			var pack []types.TemplateArg
			switch {
			case len(args) == i+1 && args[i].Kind == types.ArgPack:
				pack = args[i].Pack
			case i < len(args):
				pack = append(pack, args[i:]...)
			}
			a := types.TemplateArg{Kind: types.ArgPack, Pack: pack}
			b[pi.Key()] = a
			return append(out, a)
		case i < len(args):
			out = append(out, args[i])
			b[pi.Key()] = args[i]
		case pi.Default != ast.NoNode:
			a, ok := u.defaultArg(p, b)
			if !ok {
				return out
			}
			out = append(out, a)
			b[pi.Key()] = a
		default:
			return out
		}
	}
	if len(args) > len(params) {
		return args
	}
	return out
}

// baseBindings starts the bindings of a template: empty, or those of the
// instance a member template belongs to.
func (u *Unit) baseBindings(tmpl symbols.SymbolID) types.Bindings {
	if s := u.sym(tmpl); s != nil && s.Instance != nil && !s.Instance.Template.IsValid() {
		return s.Instance.Bindings.Clone()
	}
	return types.Bindings{}
}

// defaultArg evaluates the default of parameter p under the arguments
// bound so far.
func (u *Unit) defaultArg(p symbols.SymbolID, b types.Bindings) (types.TemplateArg, bool) {
	ps := u.sym(p)
	def := ps.Param.Default
	switch ps.Kind {
	case symbols.SymbolTypeParam:
		t, ok := u.subst(u.typeIDType(def), b)
		return types.TypeArg(t), ok && t != types.NoTypeID
	case symbols.SymbolTemplateParam:
		if t := u.templateOf(u.resolve(def)); t.IsValid() {
			return types.TemplateRef(uint32(t)), true
		}
		return types.TemplateArg{}, false
	}
	v := u.eval(def, b)
	switch {
	case v.ok:
		return types.ValueArg(v.v), true
	case v.dep && v.pure:
		return types.TemplateArg{Kind: types.ArgDependentValue, Param: v.param, Value: v.v}, true
	case v.dep:
		return types.TemplateArg{Kind: types.ArgDependentValue, Param: exprKey(def)}, true
	}
	return types.TemplateArg{}, false
}

// ownParams reports arguments that are exactly the parameters of tmpl:
// A<T> inside A names A itself.
func (u *Unit) ownParams(tmpl symbols.SymbolID, args []types.TemplateArg) bool {
	ts := u.sym(tmpl)
	if len(args) != len(ts.Template.Params) {
		return false
	}
	for i, p := range ts.Template.Params {
		pi := u.sym(p).Param
		a := args[i]
		if pi.Pack {
			if a.Kind != types.ArgPack || len(a.Pack) != 1 {
				return false
			}
			a = a.Pack[0]
		}
		switch a.Kind {
		case types.ArgType:
			t, ok := u.types.Lookup(a.Type)
			if !ok || t.Kind != types.KindParam || t.CV != 0 || t.Depth != pi.Depth || t.Index != pi.Index {
				return false
			}
		case types.ArgDependentValue:
			if a.Param != pi.Key() || a.Value != 0 {
				return false
			}
		case types.ArgTemplate:
			o := u.sym(symbols.SymbolID(a.Entity))
			if o == nil || o.Param == nil || o.Param.Key() != pi.Key() {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// instantiate returns the specialization of tmpl for args: a declared
// explicit specialization, or the memoized implicit instance. A class
// instance takes the most specialized matching partial specialization as
// its pattern. site is the node that asked for it, NoNode for internal
// requests.
func (u *Unit) instantiate(tmpl symbols.SymbolID, args []types.TemplateArg, site ast.NodeID) symbols.SymbolID {
	ts := u.sym(tmpl)
	if ts == nil || ts.Kind == symbols.SymbolProblem {
		return tmpl
	}
	if ts.Kind == symbols.SymbolTemplateParam {
		return u.dependentInstance(tmpl, args, site)
	}
	if ts.Template == nil {
		if site == ast.NoNode {
			return symbols.NoSymbolID
		}
		return u.problem(symbols.InvalidType, site, "'"+u.table.QualifiedName(tmpl)+"' is not a template")
	}
	args = u.completeArgs(tmpl, args, u.span(site))
	if len(args) != len(ts.Template.Params) {
		if site == ast.NoNode {
			return symbols.NoSymbolID
		}
		return u.problem(symbols.InvalidType, site, "wrong number of template arguments for '"+u.table.QualifiedName(tmpl)+"'")
	}
	key := types.ArgsKey(args)
	ts = u.sym(tmpl)
	if id, ok := ts.Template.Explicit[key]; ok {
		return id
	}
	kind := inst.KindClass
	if ts.Kind == symbols.SymbolFunction {
		kind = inst.KindFunction
	}
	if id, ok := u.memo(args).Lookup(tmpl, args); ok {
		u.recordSite(kind, tmpl, args, id, site)
		return id
	}
	if u.ownParams(tmpl, args) {
		return tmpl
	}

	dependent := u.types.ArgsDependent(args)
	pattern := tmpl
	if ts.Instance != nil && ts.Instance.Pattern.IsValid() {
		pattern = ts.Instance.Pattern
	}
	b := u.baseBindings(tmpl)
	for i, p := range ts.Template.Params {
		b[u.sym(p).Param.Key()] = args[i]
	}
	if ts.Kind == symbols.SymbolClass {
		if dependent {
			for _, p := range ts.Template.Partials {
				if argsEqual(u.sym(p).Template.PatternArgs, args) {
					return p
				}
			}
		} else {
			p, pb, amb := u.selectPartial(tmpl, args)
			switch {
			case len(amb) > 0 && site != ast.NoNode:
				return u.ambiguousPartial(site, tmpl, args, amb)
			case p.IsValid():
				pattern = p
				for k, v := range pb {
					b[k] = v
				}
			}
		}
	}

	ps := u.sym(pattern)
	s := &symbols.Symbol{
		Name:        ts.Name,
		Kind:        ts.Kind,
		Linkage:     ts.Linkage,
		Scope:       ts.Scope,
		Flags:       ps.Flags &^ (symbols.FlagExplicitSpec | symbols.FlagPartialSpec | symbols.FlagHidden | symbols.FlagFriend),
		Pos:         ts.Pos,
		Access:      ts.Access,
		Specialized: pattern,
		TemplateKey: ts.TemplateKey,
		Node:        ps.Node,
		Instance:    &symbols.InstanceInfo{Template: tmpl, Pattern: pattern, Args: args, Bindings: b, Key: key},
	}
	if dependent {
		s.Flags |= symbols.FlagDependent
	}
	id := u.table.Symbols.New(s)
	u.recordSite(kind, tmpl, args, id, site)
	switch ts.Kind {
	case symbols.SymbolClass:
		u.sym(id).Type = u.types.Class(uint32(id), dependent)
	case symbols.SymbolFunction:
		t, _ := u.subst(u.symbolType(pattern), b)
		u.sym(id).Type = t
		u.fnInsts[tmpl] = append(u.fnInsts[tmpl], id)
	case symbols.SymbolTypedef:
		t, _ := u.subst(u.symbolType(pattern), b)
		u.sym(id).Type = t
	}
	if u.tracer != nil && u.tracer.Level().ShouldEmit(trace.ScopeNode) {
		u.tracer.Emit(&trace.Event{
			Time:   time.Now(),
			Seq:    trace.NextSeq(),
			Kind:   trace.KindPoint,
			Scope:  trace.ScopeNode,
			Name:   "instantiate",
			Detail: u.table.QualifiedName(tmpl) + "<" + u.table.ArgsString(args) + ">",
		})
	}
	return id
}

// instantiateFunction is instantiate for a function template whose
// arguments were deduced or given.
func (u *Unit) instantiateFunction(tmpl symbols.SymbolID, args []types.TemplateArg, site ast.NodeID) symbols.SymbolID {
	return u.instantiate(tmpl, args, site)
}

func (u *Unit) recordSite(kind inst.Kind, tmpl symbols.SymbolID, args []types.TemplateArg, id symbols.SymbolID, site ast.NodeID) {
	var sp source.Span
	if site != ast.NoNode {
		sp = u.span(site)
	}
	u.memo(args).Record(kind, tmpl, args, id, sp, u.callerOf(site))
}

// memo picks the memo for args. Unevaluated argument expressions never
// reach the map of concrete instances.
func (u *Unit) memo(args []types.TemplateArg) *inst.Map {
	if u.types.ArgsDependent(args) {
		return u.depInsts
	}
	return u.insts
}

// callerOf is the function whose body contains n.
func (u *Unit) callerOf(n ast.NodeID) symbols.SymbolID {
	if n == ast.NoNode {
		return symbols.NoSymbolID
	}
	return u.bodies[u.table.Enclosing(u.scopeAt(n), symbols.ScopeFunction)]
}

// dependentInstance is TT<args> for a template template parameter TT: a
// class known only once TT is bound.
func (u *Unit) dependentInstance(param symbols.SymbolID, args []types.TemplateArg, site ast.NodeID) symbols.SymbolID {
	if id, ok := u.depInsts.Lookup(param, args); ok {
		return id
	}
	ps := u.sym(param)
	id := u.table.Symbols.New(&symbols.Symbol{
		Name:     ps.Name,
		Kind:     symbols.SymbolClass,
		Scope:    ps.Scope,
		Flags:    symbols.FlagDependent,
		Node:     ps.Node,
		Instance: &symbols.InstanceInfo{Template: param, Pattern: param, Args: args, Key: types.ArgsKey(args)},
	})
	u.sym(id).Type = u.types.Class(uint32(id), true)
	u.depInsts.Record(inst.KindClass, param, args, id, u.span(site), u.callerOf(site))
	return id
}

// selectPartial finds the partial specialization args match. Several
// matches with no most specialized one are returned in amb.
func (u *Unit) selectPartial(tmpl symbols.SymbolID, args []types.TemplateArg) (symbols.SymbolID, types.Bindings, []symbols.SymbolID) {
	var matches []symbols.SymbolID
	var binds []types.Bindings
	for _, p := range u.sym(tmpl).Template.Partials {
		pi := u.sym(p).Template
		if b, ok := u.matchArgs(pi.PatternArgs, args, pi.Depth); ok {
			matches = append(matches, p)
			binds = append(binds, b)
		}
	}
	switch len(matches) {
	case 0:
		return symbols.NoSymbolID, nil, nil
	case 1:
		return matches[0], binds[0], nil
	}
	for i := range matches {
		best := true
		for j := range matches {
			if i != j && !u.morePartial(matches[i], matches[j]) {
				best = false
				break
			}
		}
		if best {
			return matches[i], binds[i], nil
		}
	}
	return symbols.NoSymbolID, nil, matches
}

func (u *Unit) ambiguousPartial(site ast.NodeID, tmpl symbols.SymbolID, args []types.TemplateArg, amb []symbols.SymbolID) symbols.SymbolID {
	id := u.quietProblem(symbols.AmbiguousName, site)
	b := diag.ReportError(u.reporter, diag.SemaAmbiguousName, u.span(site),
		"ambiguous partial specializations of '"+u.table.Name(tmpl)+"<"+u.table.ArgsString(args)+">'")
	for _, p := range amb {
		if s := u.sym(p); len(s.Decls) > 0 {
			b = b.WithNote(u.span(s.Decls[0]), "partial specialization matches")
		}
	}
	b.Emit()
	return id
}

// matchArgs deduces the parameters of a partial specialization from the
// arguments of an instance and checks the substitution reproduces them.
func (u *Unit) matchArgs(pattern, args []types.TemplateArg, depth uint32) (types.Bindings, bool) {
	if len(pattern) != len(args) {
		return nil, false
	}
	b := types.Bindings{}
	if !u.deduceArgs(pattern, args, b, depth) {
		return nil, false
	}
	got, ok := u.substArgs(pattern, b)
	if !ok || !argsEqual(got, args) {
		return nil, false
	}
	return b, true
}

// morePartial reports whether partial specialization a is more specialized
// than b.
func (u *Unit) morePartial(a, b symbols.SymbolID) bool {
	return u.partialAtLeast(a, b) && !u.partialAtLeast(b, a)
}

// partialAtLeast: b's pattern matches the arguments of a with a's
// parameters replaced by unique synthesized values.
func (u *Unit) partialAtLeast(a, b symbols.SymbolID) bool {
	ia, ib := u.sym(a).Template, u.sym(b).Template
	synth := u.synthBindings(ia.Params)
	args, ok := u.substArgs(ia.PatternArgs, synth)
	if !ok {
		return false
	}
	_, ok = u.matchArgs(ib.PatternArgs, args, ib.Depth)
	return ok
}

// synthBindings binds each parameter to a unique synthesized argument.
func (u *Unit) synthBindings(params []symbols.SymbolID) types.Bindings {
	b := types.Bindings{}
	for _, p := range params {
		ps := u.sym(p)
		var a types.TemplateArg
		switch ps.Kind {
		case symbols.SymbolTypeParam:
			a = types.TypeArg(u.types.Synth())
		case symbols.SymbolTemplateParam:
			a = types.TemplateRef(uint32(p))
		default:
			u.synthVal++
			a = types.ValueArg(1<<40 + u.synthVal)
		}
		if ps.Param.Pack {
			a = types.TemplateArg{Kind: types.ArgPack, Pack: []types.TemplateArg{a}}
		}
		b[ps.Param.Key()] = a
	}
	return b
}

// --- function template arguments ------------------------------------------------

func (u *Unit) hasPackParam(tmpl symbols.SymbolID) bool {
	ts := u.sym(tmpl)
	if ts == nil || ts.Template == nil || len(ts.Template.Params) == 0 {
		return false
	}
	return u.sym(ts.Template.Params[len(ts.Template.Params)-1]).Flags&symbols.FlagPack != 0
}

// bindExplicit binds explicitly given arguments to the leading parameters;
// a pack parameter takes the rest.
func (u *Unit) bindExplicit(tmpl symbols.SymbolID, explicit []types.TemplateArg) (types.Bindings, bool) {
	ts := u.sym(tmpl)
	b := u.baseBindings(tmpl)
	params := ts.Template.Params
	for i, a := range explicit {
		if i >= len(params) {
			return nil, false
		}
		pi := u.sym(params[i]).Param
		if pi.Pack {
			pack := append([]types.TemplateArg(nil), explicit[i:]...)
			b[pi.Key()] = types.TemplateArg{Kind: types.ArgPack, Pack: pack}
			return b, true
		}
		if !u.argFits(params[i], a) {
			return nil, false
		}
		b[pi.Key()] = a
	}
	return b, true
}

// argFits checks an argument against the kind of its parameter.
func (u *Unit) argFits(p symbols.SymbolID, a types.TemplateArg) bool {
	switch u.sym(p).Kind {
	case symbols.SymbolTypeParam:
		return a.Kind == types.ArgType
	case symbols.SymbolTemplateParam:
		return a.Kind == types.ArgTemplate
	}
	return a.Kind == types.ArgValue || a.Kind == types.ArgDependentValue || a.Kind == types.ArgTemplate
}

// completeBindings gives unbound parameters their defaults; an unbound
// pack is empty. It fails when a parameter stays unbound.
func (u *Unit) completeBindings(tmpl symbols.SymbolID, b types.Bindings) (types.Bindings, bool) {
	for _, p := range u.sym(tmpl).Template.Params {
		pi := u.sym(p).Param
		if _, ok := b[pi.Key()]; ok {
			continue
		}
		switch {
		case pi.Pack:
			b[pi.Key()] = types.TemplateArg{Kind: types.ArgPack}
		case pi.Default != ast.NoNode:
			a, ok := u.defaultArg(p, b)
			if !ok {
				return nil, false
			}
			b[pi.Key()] = a
		default:
			return nil, false
		}
	}
	return b, true
}

// argsFromBindings lists the arguments of tmpl in parameter order.
func (u *Unit) argsFromBindings(tmpl symbols.SymbolID, b types.Bindings) []types.TemplateArg {
	params := u.sym(tmpl).Template.Params
	out := make([]types.TemplateArg, 0, len(params))
	for _, p := range params {
		pi := u.sym(p).Param
		a, ok := b[pi.Key()]
		if !ok && pi.Pack {
			a = types.TemplateArg{Kind: types.ArgPack}
		}
		out = append(out, a)
	}
	return out
}
