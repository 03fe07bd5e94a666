package sema

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/source"
	"cxxsema/internal/symbols"
	"cxxsema/internal/types"
)

// subst replaces the template parameters bound in b inside t. ok is false
// when the result would be ill-formed: a pointer to a reference, an array
// of functions, a member of a non-class. Parameters b leaves unbound stay.
func (u *Unit) subst(t types.TypeID, b types.Bindings) (types.TypeID, bool) {
	if len(b) == 0 || !u.types.IsDependent(t) {
		return t, true
	}
	tt, ok := u.types.Lookup(t)
	if !ok {
		return t, true
	}
	switch tt.Kind {
	case types.KindParam:
		a, bound := b[types.ParamKey{Depth: tt.Depth, Index: tt.Index}]
		if !bound {
			return t, true
		}
		switch a.Kind {
		case types.ArgType:
			return u.types.Qualify(a.Type, tt.CV), true
		case types.ArgPack:
			if len(a.Pack) == 1 && a.Pack[0].Kind == types.ArgType {
				return u.types.Qualify(a.Pack[0].Type, tt.CV), true
			}
			return t, true
		}
		return types.NoTypeID, false

	case types.KindPointer:
		e, ok := u.subst(tt.Elem, b)
		if !ok || u.types.Kind(e).IsReference() {
			return types.NoTypeID, false
		}
		return u.types.Qualify(u.types.Pointer(e), tt.CV), true

	case types.KindLRef, types.KindRRef:
		e, ok := u.subst(tt.Elem, b)
		if !ok || u.types.Kind(e) == types.KindVoid {
			return types.NoTypeID, false
		}
		if tt.Kind == types.KindLRef {
			return u.types.LRef(e), true
		}
		return u.types.RRef(e), true

	case types.KindArray:
		e, ok := u.subst(tt.Elem, b)
		if !ok {
			return types.NoTypeID, false
		}
		switch u.types.Kind(e) {
		case types.KindVoid, types.KindFunction, types.KindLRef, types.KindRRef:
			return types.NoTypeID, false
		}
		if tt.Count != types.DependentBound {
			return u.types.Array(e, tt.Count), true
		}
		v := u.arrayBound(tt, b)
		switch {
		case v.ok && v.v <= 0:
			return types.NoTypeID, false
		case v.ok:
			return u.types.Array(e, v.v), true
		case v.dep && v.pure && v.v == 0:
			return u.types.DependentArray(e, v.param.Depth, v.param.Index), true
		}
		return u.types.DependentArray(e, tt.Depth, tt.Index), true

	case types.KindFunction:
		ret, ok := u.subst(tt.Elem, b)
		if !ok {
			return types.NoTypeID, false
		}
		switch u.types.Kind(ret) {
		case types.KindFunction, types.KindArray:
			return types.NoTypeID, false
		}
		params, ok := u.substParams(tt.Params, b)
		if !ok {
			return types.NoTypeID, false
		}
		return u.types.Function(ret, params, tt.Variadic, tt.FnCV, tt.Ref), true

	case types.KindMemberPointer:
		c, ok := u.subst(tt.Class, b)
		if !ok || (!u.types.IsClass(c) && !u.types.IsDependent(c)) {
			return types.NoTypeID, false
		}
		e, ok := u.subst(tt.Elem, b)
		if !ok || u.types.Kind(e).IsReference() {
			return types.NoTypeID, false
		}
		return u.types.Qualify(u.types.MemberPointer(c, e), tt.CV), true

	case types.KindClass:
		id := u.substEntity(symbols.SymbolID(tt.Entity), b)
		s := u.sym(id)
		if s == nil || s.Kind == symbols.SymbolProblem {
			return types.NoTypeID, false
		}
		return u.types.Qualify(u.typeOfEntity(id), tt.CV), true

	case types.KindDependent:
		q, ok := u.subst(tt.Elem, b)
		if !ok {
			return types.NoTypeID, false
		}
		if u.types.IsDependent(q) {
			return u.types.Qualify(u.types.DependentName(q, tt.Name), tt.CV), true
		}
		m := u.memberType(q, tt.Name)
		if m == types.NoTypeID {
			return types.NoTypeID, false
		}
		return u.types.Qualify(m, tt.CV), true
	}
	return t, true
}

// arrayBound evaluates the bound of a dependent array type under b.
func (u *Unit) arrayBound(tt types.Type, b types.Bindings) constVal {
	if tt.Depth == ^uint32(0) {
		return u.eval(ast.NodeID(tt.Index), b)
	}
	key := types.ParamKey{Depth: tt.Depth, Index: tt.Index}
	return argValue(b, key, 0)
}

// argValue reads the value bound to a non-type parameter, plus offset.
func argValue(b types.Bindings, key types.ParamKey, offset int64) constVal {
	a, ok := b[key]
	if !ok {
		return constVal{v: offset, dep: true, pure: true, param: key}
	}
	switch a.Kind {
	case types.ArgValue:
		return constVal{v: a.Value + offset, ok: true}
	case types.ArgDependentValue:
		if a.Param.Depth == ^uint32(0) {
			return constVal{dep: true}
		}
		return constVal{v: a.Value + offset, dep: true, pure: true, param: a.Param}
	}
	return constVal{}
}

// memberType finds the type member name of class type q.
func (u *Unit) memberType(q types.TypeID, name source.StringID) types.TypeID {
	cls := u.classEntity(q)
	if !cls.IsValid() {
		return types.NoTypeID
	}
	res := u.table.LookupMember(u.graph(), cls, name, symbols.LookupOptions{TypesOnly: true})
	if res.Ambiguous || !res.Found() {
		return types.NoTypeID
	}
	return u.typeOfEntity(res.Symbols[0])
}

// substParams substitutes a parameter list, expanding parameters that
// mention a bound pack into one parameter per element.
func (u *Unit) substParams(params []types.TypeID, b types.Bindings) ([]types.TypeID, bool) {
	out := make([]types.TypeID, 0, len(params))
	for _, p := range params {
		if key, ok := u.packKey(p); ok {
			if a, bound := b[key]; bound && a.Kind == types.ArgPack {
				for _, e := range a.Pack {
					eb := b.Clone()
					eb[key] = e
					t, ok := u.subst(p, eb)
					if !ok || u.types.Kind(t) == types.KindVoid {
						return nil, false
					}
					out = append(out, u.types.Unqualified(u.adjustParam(t)))
				}
				continue
			}
		}
		t, ok := u.subst(p, b)
		if !ok || u.types.Kind(t) == types.KindVoid {
			return nil, false
		}
		out = append(out, u.types.Unqualified(u.adjustParam(t)))
	}
	return out, true
}

// packKey finds the parameter pack a type pattern expands.
func (u *Unit) packKey(t types.TypeID) (types.ParamKey, bool) {
	if !u.types.IsDependent(t) {
		return types.ParamKey{}, false
	}
	tt, ok := u.types.Lookup(t)
	if !ok {
		return types.ParamKey{}, false
	}
	switch tt.Kind {
	case types.KindParam:
		if tt.Pack {
			return types.ParamKey{Depth: tt.Depth, Index: tt.Index}, true
		}
	case types.KindPointer, types.KindLRef, types.KindRRef, types.KindArray, types.KindDependent:
		return u.packKey(tt.Elem)
	case types.KindMemberPointer:
		if k, ok := u.packKey(tt.Class); ok {
			return k, true
		}
		return u.packKey(tt.Elem)
	case types.KindFunction:
		if k, ok := u.packKey(tt.Elem); ok {
			return k, true
		}
		for _, p := range tt.Params {
			if k, ok := u.packKey(p); ok {
				return k, true
			}
		}
	case types.KindClass:
		if s := u.sym(symbols.SymbolID(tt.Entity)); s != nil && s.Instance != nil {
			for _, a := range s.Instance.Args {
				if k, ok := u.argPackKey(a); ok {
					return k, true
				}
			}
		}
	}
	return types.ParamKey{}, false
}

func (u *Unit) argPackKey(a types.TemplateArg) (types.ParamKey, bool) {
	switch a.Kind {
	case types.ArgType:
		return u.packKey(a.Type)
	case types.ArgPack:
		for _, e := range a.Pack {
			if k, ok := u.argPackKey(e); ok {
				return k, true
			}
		}
	}
	return types.ParamKey{}, false
}

// substArgs substitutes template arguments. Pack elements that expand a
// bound pack are spliced in place.
func (u *Unit) substArgs(args []types.TemplateArg, b types.Bindings) ([]types.TemplateArg, bool) {
	out := make([]types.TemplateArg, 0, len(args))
	for _, a := range args {
		if a.Kind == types.ArgPack {
			var pack []types.TemplateArg
			for _, e := range a.Pack {
				exp, ok := u.expandArg(e, b)
				if !ok {
					return nil, false
				}
				pack = append(pack, exp...)
			}
			out = append(out, types.TemplateArg{Kind: types.ArgPack, Pack: pack})
			continue
		}
		s, ok := u.substArg(a, b)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// expandArg substitutes one element of a pack argument.
func (u *Unit) expandArg(e types.TemplateArg, b types.Bindings) ([]types.TemplateArg, bool) {
	key, isPack := u.argPackKey(e)
	if !isPack && e.Kind == types.ArgDependentValue {
		if p, ok := b[e.Param]; ok && p.Kind == types.ArgPack {
			key, isPack = e.Param, true
		}
	}
	if isPack {
		if p, ok := b[key]; ok && p.Kind == types.ArgPack {
			out := make([]types.TemplateArg, 0, len(p.Pack))
			for _, el := range p.Pack {
				eb := b.Clone()
				eb[key] = el
				s, ok := u.substArg(e, eb)
				if !ok {
					return nil, false
				}
				out = append(out, s)
			}
			return out, true
		}
	}
	s, ok := u.substArg(e, b)
	if !ok {
		return nil, false
	}
	return []types.TemplateArg{s}, true
}

func (u *Unit) substArg(a types.TemplateArg, b types.Bindings) (types.TemplateArg, bool) {
	switch a.Kind {
	case types.ArgType:
		t, ok := u.subst(a.Type, b)
		if !ok {
			return types.TemplateArg{}, false
		}
		return types.TypeArg(t), true
	case types.ArgDependentValue:
		var v constVal
		if a.Param.Depth == ^uint32(0) {
			v = u.eval(ast.NodeID(a.Param.Index), b)
		} else {
			v = argValue(b, a.Param, a.Value)
		}
		switch {
		case v.ok:
			return types.ValueArg(v.v), true
		case v.dep && v.pure:
			return types.TemplateArg{Kind: types.ArgDependentValue, Param: v.param, Value: v.v}, true
		case v.dep:
			return a, true
		}
		return types.TemplateArg{}, false
	case types.ArgTemplate:
		id := u.substEntity(symbols.SymbolID(a.Entity), b)
		return types.TemplateRef(uint32(id)), true
	case types.ArgPack:
		out, ok := u.substArgs([]types.TemplateArg{a}, b)
		if !ok {
			return types.TemplateArg{}, false
		}
		return out[0], true
	}
	return a, true
}

// substEntity maps a binding of a template pattern to the corresponding
// binding under b: a template template parameter to its argument, a
// dependent instance to the concrete one, a member of a template to the
// member of the instance.
func (u *Unit) substEntity(id symbols.SymbolID, b types.Bindings) symbols.SymbolID {
	s := u.sym(id)
	if s == nil || len(b) == 0 {
		return id
	}
	switch {
	case s.Kind == symbols.SymbolTemplateParam:
		if a, ok := b[s.Param.Key()]; ok && a.Kind == types.ArgTemplate {
			return symbols.SymbolID(a.Entity)
		}
		return id
	case s.Instance != nil && s.Instance.Template.IsValid():
		if s.Flags&symbols.FlagDependent == 0 {
			return id
		}
		args, ok := u.substArgs(s.Instance.Args, b)
		if !ok {
			return u.table.NewProblem(symbols.DeductionFailure, s.Name, s.Scope, ast.NoNode)
		}
		tmpl := u.substEntity(s.Instance.Template, b)
		if r := u.instantiate(tmpl, args, ast.NoNode); r.IsValid() {
			return r
		}
		return id
	case s.Template != nil && s.Kind == symbols.SymbolClass:
		if u.insideOwnTemplate(id, b) {
			return u.instantiateAt(id, b)
		}
	}

	pattern := id
	if s.Instance != nil && s.Instance.Pattern.IsValid() {
		pattern = s.Instance.Pattern
	}
	owner := u.owner(s.Scope)
	os := u.sym(owner)
	if os == nil || os.Kind != symbols.SymbolClass {
		return id
	}
	no := u.substEntity(owner, b)
	if no == owner || !no.IsValid() || u.sym(no).Kind != symbols.SymbolClass {
		return id
	}
	ms := u.members(no, s.Name)
	for _, m := range ms {
		if m == pattern || u.sym(m).Specialized == pattern {
			return m
		}
	}
	// an explicit or partial specialization declares its own members:
	// the dependent name binds by name once the owner is known
	if len(ms) == 1 {
		return ms[0]
	}
	if len(ms) == 0 {
		if r := u.table.LookupMember(u.graph(), no, s.Name, symbols.LookupOptions{}).Single(); r.IsValid() {
			return r
		}
	}
	return id
}

// insideOwnTemplate reports bindings for every parameter of a class
// template or partial specialization, as inside its own definition.
func (u *Unit) insideOwnTemplate(id symbols.SymbolID, b types.Bindings) bool {
	ti := u.sym(id).Template
	if len(ti.Params) == 0 {
		return false
	}
	for _, p := range ti.Params {
		if _, ok := b[u.sym(p).Param.Key()]; !ok {
			return false
		}
	}
	return true
}

// instantiateAt names template id from inside itself with its parameters
// bound: A becomes A<int>, a partial specialization A<T*> becomes A<int*>.
func (u *Unit) instantiateAt(id symbols.SymbolID, b types.Bindings) symbols.SymbolID {
	ti := u.sym(id).Template
	if ti.Primary.IsValid() {
		args, ok := u.substArgs(ti.PatternArgs, b)
		if !ok {
			return id
		}
		if r := u.instantiate(ti.Primary, args, ast.NoNode); r.IsValid() {
			return r
		}
		return id
	}
	args := make([]types.TemplateArg, 0, len(ti.Params))
	for _, p := range ti.Params {
		args = append(args, b[u.sym(p).Param.Key()])
	}
	if u.ownParams(id, args) {
		return id
	}
	if r := u.instantiate(id, args, ast.NoNode); r.IsValid() {
		return r
	}
	return id
}
