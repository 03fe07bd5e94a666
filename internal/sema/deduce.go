package sema

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/symbols"
	"cxxsema/internal/types"
)

// callArg is one argument of a call as overload resolution sees it.
type callArg struct {
	t    types.TypeID
	cat  Category
	node ast.NodeID
}

// bind records a for key, or checks it against an earlier deduction.
func bind(b types.Bindings, key types.ParamKey, a types.TemplateArg) bool {
	if prev, ok := b[key]; ok {
		return prev.Equal(a)
	}
	b[key] = a
	return true
}

// deduceType deduces the parameters of depth appearing in p from a. Parts
// of p that depend on nothing deducible must match exactly once
// substituted; that is checked by the caller.
func (u *Unit) deduceType(p, a types.TypeID, b types.Bindings, depth uint32) bool {
	if !u.types.IsDependent(p) {
		return true
	}
	pt, ok := u.types.Lookup(p)
	if !ok {
		return true
	}
	at, ok := u.types.Lookup(a)
	if !ok {
		return false
	}
	switch pt.Kind {
	case types.KindParam:
		if pt.Depth != depth {
			return true
		}
		acv := u.types.CVOf(a)
		if !acv.Covers(pt.CV) {
			return false
		}
		arg := a
		if pt.CV != 0 {
			arg = u.types.WithCV(a, acv&^pt.CV)
		}
		return bind(b, types.ParamKey{Depth: pt.Depth, Index: pt.Index}, types.TypeArg(arg))

	case types.KindPointer, types.KindLRef, types.KindRRef:
		if at.Kind != pt.Kind || !at.CV.Covers(pt.CV) {
			return false
		}
		return u.deduceType(pt.Elem, at.Elem, b, depth)

	case types.KindArray:
		if at.Kind != types.KindArray {
			return false
		}
		if pt.Count == types.DependentBound && pt.Depth == depth && at.Count >= 0 {
			if !bind(b, types.ParamKey{Depth: pt.Depth, Index: pt.Index}, types.ValueArg(at.Count)) {
				return false
			}
		}
		return u.deduceType(pt.Elem, at.Elem, b, depth)

	case types.KindFunction:
		if at.Kind != types.KindFunction {
			return false
		}
		if !u.deduceType(pt.Elem, at.Elem, b, depth) {
			return false
		}
		return u.deduceList(pt.Params, at.Params, b, depth)

	case types.KindMemberPointer:
		if at.Kind != types.KindMemberPointer {
			return false
		}
		return u.deduceType(pt.Class, at.Class, b, depth) && u.deduceType(pt.Elem, at.Elem, b, depth)

	case types.KindClass:
		if at.Kind != types.KindClass || !at.CV.Covers(pt.CV) {
			return false
		}
		return u.deduceClass(symbols.SymbolID(pt.Entity), symbols.SymbolID(at.Entity), b, depth)
	}
	// typename Q::x is not deduced from
	return true
}

// deduceList deduces a parameter list whose last element may expand a
// pack.
func (u *Unit) deduceList(ps, as []types.TypeID, b types.Bindings, depth uint32) bool {
	for i, p := range ps {
		if key, ok := u.packKey(p); ok && key.Depth == depth && i == len(ps)-1 {
			rest := make([]types.TypeID, 0, len(as)-min(i, len(as)))
			if i < len(as) {
				rest = as[i:]
			}
			return u.deducePackTypes(p, key, rest, b, depth)
		}
		if i >= len(as) || !u.deduceType(p, as[i], b, depth) {
			return false
		}
	}
	return len(ps) == len(as)
}

// deducePackTypes deduces pack key from each type of as against the
// pattern p.
func (u *Unit) deducePackTypes(p types.TypeID, key types.ParamKey, as []types.TypeID, b types.Bindings, depth uint32) bool {
	elems := make([]types.TemplateArg, 0, len(as))
	for _, a := range as {
		tb := b.Clone()
		delete(tb, key)
		if !u.deduceType(p, a, tb, depth) {
			return false
		}
		e, ok := tb[key]
		if !ok {
			return false
		}
		elems = append(elems, e)
		for k, v := range tb {
			if k != key && !bind(b, k, v) {
				return false
			}
		}
	}
	return bind(b, key, types.TemplateArg{Kind: types.ArgPack, Pack: elems})
}

// deduceClass matches a class pattern against a class: the same template
// with deducible arguments, or any template for TT<...>.
func (u *Unit) deduceClass(pc, ac symbols.SymbolID, b types.Bindings, depth uint32) bool {
	ps, as := u.sym(pc), u.sym(ac)
	if ps == nil || as == nil {
		return false
	}
	if pc == ac {
		return true
	}
	pargs, ptmpl := u.classPattern(pc)
	aargs, atmpl := u.classPattern(ac)
	if !ptmpl.IsValid() || !atmpl.IsValid() {
		return false
	}
	if tp := u.sym(ptmpl); tp.Kind == symbols.SymbolTemplateParam {
		if tp.Param.Depth == depth {
			if !bind(b, tp.Param.Key(), types.TemplateRef(uint32(atmpl))) {
				return false
			}
		} else if ptmpl != atmpl {
			return false
		}
	} else if ptmpl != atmpl {
		return false
	}
	return u.deduceArgs(pargs, aargs, b, depth)
}

// classPattern returns the template arguments and template of a class:
// those of an instance, or the parameters of a template named inside
// itself.
func (u *Unit) classPattern(id symbols.SymbolID) ([]types.TemplateArg, symbols.SymbolID) {
	s := u.sym(id)
	switch {
	case s.Instance != nil && s.Instance.Template.IsValid():
		return s.Instance.Args, s.Instance.Template
	case s.Template != nil && s.Template.Primary.IsValid():
		return s.Template.PatternArgs, s.Template.Primary
	case s.Template != nil:
		return u.identityArgs(id), id
	}
	return nil, symbols.NoSymbolID
}

// identityArgs are the arguments naming the parameters of tmpl
// themselves.
func (u *Unit) identityArgs(tmpl symbols.SymbolID) []types.TemplateArg {
	params := u.sym(tmpl).Template.Params
	out := make([]types.TemplateArg, 0, len(params))
	for _, p := range params {
		ps := u.sym(p)
		var a types.TemplateArg
		switch ps.Kind {
		case symbols.SymbolTypeParam:
			a = types.TypeArg(u.types.Param(ps.Param.Depth, ps.Param.Index, ps.Param.Pack, uint32(p)))
		case symbols.SymbolTemplateParam:
			a = types.TemplateRef(uint32(p))
		default:
			a = types.TemplateArg{Kind: types.ArgDependentValue, Param: ps.Param.Key()}
		}
		if ps.Param.Pack {
			a = types.TemplateArg{Kind: types.ArgPack, Pack: []types.TemplateArg{a}}
		}
		out = append(out, a)
	}
	return out
}

// deduceArgs deduces from template argument lists, as in A<T*> against
// A<int*>.
func (u *Unit) deduceArgs(ps, as []types.TemplateArg, b types.Bindings, depth uint32) bool {
	if len(ps) != len(as) {
		return false
	}
	for i, p := range ps {
		if !u.deduceArg(p, as[i], b, depth) {
			return false
		}
	}
	return true
}

func (u *Unit) deduceArg(p, a types.TemplateArg, b types.Bindings, depth uint32) bool {
	switch p.Kind {
	case types.ArgType:
		return a.Kind == types.ArgType && u.deduceType(p.Type, a.Type, b, depth)
	case types.ArgValue:
		return a.Kind == types.ArgValue && a.Value == p.Value
	case types.ArgDependentValue:
		if p.Param.Depth != depth {
			return true
		}
		switch a.Kind {
		case types.ArgValue:
			return bind(b, p.Param, types.ValueArg(a.Value-p.Value))
		case types.ArgDependentValue:
			return bind(b, p.Param, types.TemplateArg{Kind: types.ArgDependentValue, Param: a.Param, Value: a.Value - p.Value})
		}
		return false
	case types.ArgTemplate:
		if a.Kind != types.ArgTemplate {
			return false
		}
		ps := u.sym(symbols.SymbolID(p.Entity))
		if ps != nil && ps.Kind == symbols.SymbolTemplateParam && ps.Param.Depth == depth {
			return bind(b, ps.Param.Key(), a)
		}
		return p.Entity == a.Entity
	case types.ArgPack:
		if a.Kind != types.ArgPack {
			return false
		}
		return u.deducePack(p.Pack, a.Pack, b, depth)
	}
	return false
}

// deducePack matches the elements of a pack argument; a pattern element
// that expands a pack takes the remaining elements.
func (u *Unit) deducePack(ps, as []types.TemplateArg, b types.Bindings, depth uint32) bool {
	for i, p := range ps {
		key, isPack := u.argPackKey(p)
		if !isPack && p.Kind == types.ArgDependentValue && p.Value == 0 && i == len(ps)-1 {
			// a trailing value parameter in a pack pattern expands it
			key, isPack = p.Param, true
		}
		if isPack && key.Depth == depth {
			var rest []types.TemplateArg
			if i < len(as) {
				rest = as[i:]
			}
			elems := make([]types.TemplateArg, 0, len(rest))
			for _, a := range rest {
				tb := b.Clone()
				delete(tb, key)
				if !u.deduceArg(p, a, tb, depth) {
					return false
				}
				e, ok := tb[key]
				if !ok {
					return false
				}
				elems = append(elems, e)
				for k, v := range tb {
					if k != key && !bind(b, k, v) {
						return false
					}
				}
			}
			return bind(b, key, types.TemplateArg{Kind: types.ArgPack, Pack: elems})
		}
		if i >= len(as) || !u.deduceArg(p, as[i], b, depth) {
			return false
		}
	}
	return len(ps) == len(as)
}

// --- function templates -----------------------------------------------------------

// deduceCall deduces the arguments of function template tmpl for a call.
// It returns the complete bindings and the substituted function type; a
// substitution failure removes the candidate quietly.
func (u *Unit) deduceCall(tmpl symbols.SymbolID, explicit []types.TemplateArg, args []callArg) (types.Bindings, types.TypeID, bool) {
	ts := u.sym(tmpl)
	if ts == nil || ts.Template == nil {
		return nil, types.NoTypeID, false
	}
	depth := ts.Template.Depth
	b, ok := u.bindExplicit(tmpl, explicit)
	if !ok {
		return nil, types.NoTypeID, false
	}
	ft := u.symbolType(tmpl)
	params := u.types.Params(ft)
	for i, p := range params {
		if key, ok := u.packKey(p); ok && key.Depth == depth && i == len(params)-1 {
			if pre, bound := b[key]; bound && pre.Kind == types.ArgPack {
				break
			}
			elems := make([]types.TemplateArg, 0, len(args))
			for j := i; j < len(args); j++ {
				tb := b.Clone()
				delete(tb, key)
				if !u.deduceCallArg(p, args[j], tb, depth) {
					return nil, types.NoTypeID, false
				}
				e, ok := tb[key]
				if !ok {
					return nil, types.NoTypeID, false
				}
				elems = append(elems, e)
				for k, v := range tb {
					if k != key && !bind(b, k, v) {
						return nil, types.NoTypeID, false
					}
				}
			}
			b[key] = types.TemplateArg{Kind: types.ArgPack, Pack: elems}
			break
		}
		if i >= len(args) {
			break
		}
		if !u.deduceCallArg(p, args[i], b, depth) {
			return nil, types.NoTypeID, false
		}
	}
	b, ok = u.completeBindings(tmpl, b)
	if !ok {
		return nil, types.NoTypeID, false
	}
	st, ok := u.subst(ft, b)
	if !ok {
		return nil, types.NoTypeID, false
	}
	return b, st, true
}

// deduceCallArg adjusts a parameter and an argument type the way a call
// does before deducing: references are looked through, arguments decay
// otherwise, a forwarding reference binds lvalues as T&. A derived class
// may stand for a base class template.
func (u *Unit) deduceCallArg(p types.TypeID, a callArg, b types.Bindings, depth uint32) bool {
	if !u.types.IsDependent(p) {
		return true
	}
	switch u.types.Kind(a.t) {
	case types.KindOverloadSet, types.KindInvalid:
		return true
	}
	if u.kind(a.node) == ast.KindInitList {
		return true
	}
	at := u.types.NonRef(a.t)
	pt := p
	switch u.types.Kind(p) {
	case types.KindLRef:
		pt = u.types.Elem(p)
	case types.KindRRef:
		pt = u.types.Elem(p)
		if u.forwarding(pt, depth) && a.cat == LValue {
			at = u.types.LRef(at)
		}
	default:
		at = u.types.Unqualified(u.types.Decay(at))
		pt = u.types.Unqualified(pt)
	}

	tb := b.Clone()
	if u.deduceType(pt, at, tb, depth) {
		copyInto(b, tb)
		return true
	}
	// derived-to-base for A<T> and A<T>*
	target := pt
	if u.types.Kind(pt) == types.KindPointer && u.types.Kind(at) == types.KindPointer {
		target = u.types.Elem(pt)
		at = u.types.Elem(at)
	}
	if u.types.Kind(target) != types.KindClass {
		return false
	}
	cls := u.classEntity(at)
	if !cls.IsValid() {
		return false
	}
	seen := map[symbols.SymbolID]bool{cls: true}
	level := []symbols.SymbolID{cls}
	for len(level) > 0 {
		var next []symbols.SymbolID
		for _, c := range level {
			for _, e := range u.basesOf(c) {
				if seen[e.Class] {
					continue
				}
				seen[e.Class] = true
				bt := u.types.Qualify(u.typeOfEntity(e.Class), u.types.CVOf(at))
				tb := b.Clone()
				if u.deduceType(target, bt, tb, depth) {
					copyInto(b, tb)
					return true
				}
				next = append(next, e.Class)
			}
		}
		level = next
	}
	return false
}

// forwarding reports T&& where T is an unqualified parameter of the
// function template itself.
func (u *Unit) forwarding(elem types.TypeID, depth uint32) bool {
	t, ok := u.types.Lookup(elem)
	return ok && t.Kind == types.KindParam && t.CV == 0 && t.Depth == depth
}

func copyInto(dst, src types.Bindings) {
	for k, v := range src {
		dst[k] = v
	}
}

// deduceFromType deduces the arguments of function template cand from a
// target function type, as for template<> declarations and for taking
// the address of a template.
func (u *Unit) deduceFromType(cand symbols.SymbolID, explicit []types.TemplateArg, typ types.TypeID) (types.Bindings, bool) {
	cs := u.sym(cand)
	if cs == nil || cs.Template == nil || u.types.Kind(typ) != types.KindFunction {
		return nil, false
	}
	b, ok := u.bindExplicit(cand, explicit)
	if !ok {
		return nil, false
	}
	if !u.deduceType(u.symbolType(cand), typ, b, cs.Template.Depth) {
		return nil, false
	}
	b, ok = u.completeBindings(cand, b)
	if !ok {
		return nil, false
	}
	st, ok := u.subst(u.symbolType(cand), b)
	if !ok || !u.sameParams(st, typ) || u.types.Elem(st) != u.types.Elem(typ) {
		return nil, false
	}
	return b, true
}

// --- partial ordering -------------------------------------------------------------

// moreSpecializedFn reports whether function template a is more
// specialized than b. A template without a trailing pack wins a tie
// against one with.
func (u *Unit) moreSpecializedFn(a, b symbols.SymbolID) bool {
	ab := u.fnAtLeast(a, b)
	if !ab {
		return false
	}
	if !u.fnAtLeast(b, a) {
		return true
	}
	return !u.hasPackParam(a) && u.hasPackParam(b)
}

// fnAtLeast: the parameters of b deduce from those of a with a's template
// parameters replaced by unique types.
func (u *Unit) fnAtLeast(a, b symbols.SymbolID) bool {
	as, bs := u.sym(a), u.sym(b)
	if as.Template == nil || bs.Template == nil {
		return false
	}
	at, ok := u.subst(u.symbolType(a), u.synthBindings(as.Template.Params))
	if !ok {
		return false
	}
	aps := u.types.Params(at)
	bps := u.types.Params(u.symbolType(b))
	depth := bs.Template.Depth
	bb := types.Bindings{}
	strip := func(t types.TypeID) types.TypeID {
		return u.types.Unqualified(u.types.NonRef(t))
	}
	for i, p := range bps {
		if key, ok := u.packKey(p); ok && key.Depth == depth && i == len(bps)-1 {
			var rest []types.TypeID
			for _, x := range aps[min(i, len(aps)):] {
				rest = append(rest, strip(x))
			}
			return u.deducePackTypes(strip(p), key, rest, bb, depth)
		}
		if i >= len(aps) {
			return false
		}
		if !u.deduceType(strip(p), strip(aps[i]), bb, depth) {
			return false
		}
	}
	return true
}
