package sema

import (
	"slices"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/symbols"
	"cxxsema/internal/types"
)

// CallArg is one argument of a call as overload resolution sees it.
type CallArg struct {
	Type     types.TypeID
	Category Category
}

// OverloadResult is the outcome of overload resolution. Best is the
// chosen function, an instance when it came from a function template;
// otherwise Problem says why nothing was chosen.
type OverloadResult struct {
	Best     symbols.SymbolID
	Template symbols.SymbolID
	Problem  symbols.ProblemKind
	Viable   []symbols.SymbolID
}

// callSite gathers what overload resolution needs about a call.
type callSite struct {
	cands       []symbols.SymbolID
	explicit    []types.TemplateArg
	hasExplicit bool
	// obj is the object expression of a member call, or *this.
	obj  *callArg
	args []callArg
	// operator marks operand lists: a member candidate takes the first
	// operand as its object.
	operator bool
	// copyInit excludes explicit constructors.
	copyInit bool
	site     ast.NodeID
}

type candidate struct {
	fn       symbols.SymbolID
	tmpl     bool
	bindings types.Bindings
	typ      types.TypeID
	convs    []conversion
}

type overloadOutcome struct {
	best    symbols.SymbolID
	fn      symbols.SymbolID
	typ     types.TypeID
	convs   []conversion
	viable  []symbols.SymbolID
	problem symbols.ProblemKind
}

// resolveOverload ranks the viable candidates of a call pairwise by their
// conversion sequences, then by the tie-breakers: a non-template beats a
// template, a more specialized template beats a less specialized one.
func (u *Unit) resolveOverload(cs callSite) overloadOutcome {
	var viable []*candidate
	seen := map[symbols.SymbolID]bool{}
	anyFn, allTemplates := false, true
	for _, c := range cs.cands {
		c = u.functionOf(c)
		s := u.sym(c)
		if s == nil || s.Kind != symbols.SymbolFunction || seen[c] {
			continue
		}
		seen[c] = true
		anyFn = true
		if s.Template == nil {
			allTemplates = false
		}
		if cd, ok := u.viableCandidate(c, cs); ok {
			viable = append(viable, cd)
		}
	}
	var out overloadOutcome
	for _, c := range viable {
		out.viable = append(out.viable, c.fn)
	}
	if len(viable) == 0 {
		out.problem = symbols.NoViableOverload
		if anyFn && allTemplates {
			out.problem = symbols.DeductionFailure
		}
		return out
	}
	best := viable[0]
	for _, c := range viable[1:] {
		if u.better(c, best) {
			best = c
		}
	}
	for _, c := range viable {
		if c != best && !u.better(best, c) {
			out.problem = symbols.AmbiguousOverload
			return out
		}
	}
	out.fn, out.typ, out.convs = best.fn, best.typ, best.convs
	out.best = best.fn
	if best.tmpl {
		out.best = u.instantiate(best.fn, u.argsFromBindings(best.fn, best.bindings), cs.site)
	}
	return out
}

// functionOf looks through using-declarations.
func (u *Unit) functionOf(id symbols.SymbolID) symbols.SymbolID {
	for i := 0; i < 8; i++ {
		s := u.sym(id)
		if s == nil || s.Kind != symbols.SymbolUsing || !s.Target.IsValid() {
			break
		}
		id = s.Target
	}
	return id
}

// isNonStaticMember reports member functions taking an implied object;
// constructors do not.
func (u *Unit) isNonStaticMember(fn symbols.SymbolID) bool {
	s := u.sym(fn)
	if s == nil || s.Kind != symbols.SymbolFunction || s.Flags&symbols.FlagStatic != 0 {
		return false
	}
	sc := u.scope(s.Scope)
	if sc == nil || sc.Kind != symbols.ScopeClass {
		return false
	}
	return !u.isConstructor(fn)
}

func (u *Unit) isConstructor(fn symbols.SymbolID) bool {
	s := u.sym(fn)
	cls := u.sym(u.owner(s.Scope))
	return cls != nil && cls.Kind == symbols.SymbolClass && cls.Name == s.Name
}

// viableCandidate deduces a template candidate, checks arity against
// defaults and ellipsis, and computes the conversion of every argument.
// The implied object comes first so that candidates line up.
func (u *Unit) viableCandidate(c symbols.SymbolID, cs callSite) (*candidate, bool) {
	T := u.types
	s := u.sym(c)
	member := u.isNonStaticMember(c)
	args, obj := cs.args, cs.obj
	if cs.operator {
		obj = nil
		if member {
			if len(args) == 0 {
				return nil, false
			}
			o := args[0]
			obj, args = &o, args[1:]
		}
	}
	cd := &candidate{fn: c, tmpl: s.Template != nil, typ: u.symbolType(c)}
	if cd.tmpl {
		b, ft, ok := u.deduceCall(c, cs.explicit, args)
		if !ok {
			return nil, false
		}
		cd.bindings, cd.typ = b, ft
	} else if cs.hasExplicit {
		return nil, false
	}
	if cs.copyInit && s.Flags&symbols.FlagExplicit != 0 {
		return nil, false
	}
	ft, ok := T.Lookup(cd.typ)
	if !ok || ft.Kind != types.KindFunction {
		return nil, false
	}
	if len(args) > len(ft.Params) && !ft.Variadic {
		return nil, false
	}
	if len(args) < len(ft.Params) && len(args) < u.requiredParams(c, len(ft.Params)) {
		return nil, false
	}

	switch {
	case member && obj != nil:
		oc := u.objectConversion(*obj, c, cd.typ)
		if oc.kind == rankBad {
			return nil, false
		}
		cd.convs = append(cd.convs, oc)
	case !cs.operator:
		cd.convs = append(cd.convs, exactConversion())
	}
	for i, a := range args {
		cv := conversion{kind: rankEllipsis}
		if i < len(ft.Params) {
			cv = u.implicit(a, ft.Params[i], true)
		}
		if cv.kind == rankBad {
			return nil, false
		}
		cd.convs = append(cd.convs, cv)
	}
	return cd, true
}

// better reports whether candidate a is better than b.
func (u *Unit) better(a, b *candidate) bool {
	n := min(len(a.convs), len(b.convs))
	anyBetter := false
	for i := 0; i < n; i++ {
		switch compareConv(a.convs[i], b.convs[i]) {
		case -1:
			return false
		case 1:
			anyBetter = true
		}
	}
	switch {
	case anyBetter:
		return true
	case !a.tmpl && b.tmpl:
		return true
	case a.tmpl && b.tmpl:
		return u.moreSpecializedFn(u.primaryPattern(a.fn), u.primaryPattern(b.fn))
	}
	return false
}

// primaryPattern maps a member template of an instance to the template
// it was specialized from, for partial ordering.
func (u *Unit) primaryPattern(fn symbols.SymbolID) symbols.SymbolID {
	if s := u.sym(fn); s.Specialized.IsValid() && u.sym(s.Specialized).Template != nil {
		return s.Specialized
	}
	return fn
}

// requiredParams counts the parameters of fn without a default argument.
// Defaults may come from any declaration of the function.
func (u *Unit) requiredParams(fn symbols.SymbolID, n int) int {
	s := u.sym(fn)
	for s.Instance != nil && s.Instance.Pattern.IsValid() && s.Instance.Pattern != fn {
		fn = s.Instance.Pattern
		s = u.sym(fn)
	}
	if s.Specialized.IsValid() {
		s = u.sym(s.Specialized)
	}
	required := n
	for _, name := range append([]ast.NodeID{s.Node}, s.Decls...) {
		decl := u.outerDeclarator(name)
		lvl, ok := entitySuffix(u.b, decl)
		if !ok {
			continue
		}
		params := u.b.Declarator(lvl).Suffixes[0].Params
		k := len(params)
		for k > 0 && u.b.Decl(params[k-1]).Body != ast.NoNode {
			k--
		}
		required = min(required, k)
	}
	return required
}

// outerDeclarator climbs from a declarator or declared name to the
// outermost declarator.
func (u *Unit) outerDeclarator(n ast.NodeID) ast.NodeID {
	if u.kind(n) != ast.KindDeclarator {
		n = u.b.Ancestor(n, ast.KindDeclarator)
	}
	for n != ast.NoNode && u.kind(u.b.Parent(n)) == ast.KindDeclarator {
		n = u.b.Parent(n)
	}
	return n
}

// reportOverload turns a failed resolution into a problem binding with a
// note per candidate.
func (u *Unit) reportOverload(out overloadOutcome, cands []symbols.SymbolID, n ast.NodeID, what string) symbols.SymbolID {
	id := u.quietProblem(out.problem, n)
	var msg string
	notes := cands
	switch out.problem {
	case symbols.AmbiguousOverload:
		msg = "call to '" + what + "' is ambiguous"
		notes = out.viable
	case symbols.DeductionFailure:
		msg = "no matching function for call to '" + what + "': template argument deduction failed"
	default:
		msg = "no matching function for call to '" + what + "'"
	}
	b := diag.ReportError(u.reporter, problemCodes[out.problem], u.span(n), msg)
	for _, c := range notes {
		if s := u.sym(u.functionOf(c)); s != nil && len(s.Decls) > 0 {
			b = b.WithNote(u.span(s.Decls[0]), "candidate function '"+u.table.QualifiedName(c)+"'")
		}
	}
	b.Emit()
	return id
}

// ResolveCall picks the best of candidates for a call with args. Explicit
// template arguments restrict the candidates to templates accepting them.
func (u *Unit) ResolveCall(candidates []symbols.SymbolID, args []CallArg, explicit []types.TemplateArg) OverloadResult {
	defer u.lockMutate()()
	ca := make([]callArg, len(args))
	for i, a := range args {
		ca[i] = callArg{t: a.Type, cat: a.Category}
	}
	out := u.resolveOverload(callSite{
		cands:       candidates,
		explicit:    explicit,
		hasExplicit: explicit != nil,
		args:        ca,
	})
	res := OverloadResult{Best: out.best, Problem: out.problem, Viable: slices.Clone(out.viable)}
	if out.best != out.fn {
		res.Template = out.fn
	}
	return res
}
