package sema

import (
	"cxxsema/internal/source"
	"cxxsema/internal/symbols"
	"cxxsema/internal/types"
)

// associated collects the associated classes and namespaces of the
// argument types of a call.
type associated struct {
	u          *Unit
	classes    map[symbols.SymbolID]bool
	namespaces []symbols.ScopeID
	seenNS     map[symbols.ScopeID]bool
	seenTypes  map[types.TypeID]bool
}

func (u *Unit) associatedOf(ts []types.TypeID) *associated {
	a := &associated{
		u:         u,
		classes:   map[symbols.SymbolID]bool{},
		seenNS:    map[symbols.ScopeID]bool{},
		seenTypes: map[types.TypeID]bool{},
	}
	for _, t := range ts {
		a.addType(t)
	}
	return a
}

func (a *associated) addType(t types.TypeID) {
	T := a.u.types
	if t == types.NoTypeID || a.seenTypes[t] {
		return
	}
	a.seenTypes[t] = true
	tt, ok := T.Lookup(t)
	if !ok {
		return
	}
	switch tt.Kind {
	case types.KindPointer, types.KindLRef, types.KindRRef, types.KindArray:
		a.addType(tt.Elem)
	case types.KindFunction:
		a.addType(tt.Elem)
		for _, p := range tt.Params {
			a.addType(p)
		}
	case types.KindMemberPointer:
		a.addType(tt.Class)
		a.addType(tt.Elem)
	case types.KindClass:
		a.addClass(symbols.SymbolID(tt.Entity))
	case types.KindEnum:
		s := a.u.sym(symbols.SymbolID(tt.Entity))
		if s == nil {
			return
		}
		if sc := a.u.scope(s.Scope); sc != nil && sc.Kind == symbols.ScopeClass {
			a.addClass(sc.Owner)
		}
		a.addNamespace(s.Scope)
	}
}

// addClass adds a class, its bases and, for an instance, the types and
// templates of its arguments.
func (a *associated) addClass(id symbols.SymbolID) {
	if !id.IsValid() || a.classes[id] {
		return
	}
	a.classes[id] = true
	s := a.u.sym(id)
	a.addNamespace(s.Scope)
	for _, e := range a.u.basesOf(id) {
		a.addClass(e.Class)
	}
	if s.Instance == nil {
		return
	}
	for _, arg := range s.Instance.Args {
		a.addArg(arg)
	}
}

func (a *associated) addArg(arg types.TemplateArg) {
	switch arg.Kind {
	case types.ArgType:
		a.addType(arg.Type)
	case types.ArgTemplate:
		if s := a.u.sym(symbols.SymbolID(arg.Entity)); s != nil {
			a.addNamespace(s.Scope)
		}
	case types.ArgPack:
		for _, e := range arg.Pack {
			a.addArg(e)
		}
	}
}

func (a *associated) addNamespace(sc symbols.ScopeID) {
	ns := a.u.table.EnclosingNamespace(sc)
	if !a.seenNS[ns] {
		a.seenNS[ns] = true
		a.namespaces = append(a.namespaces, ns)
	}
}

// adlCandidates finds the functions named name in the namespaces
// associated with the argument types, friends declared only inside an
// associated class included. Using-directives are not followed.
func (u *Unit) adlCandidates(name source.StringID, args []callArg) []symbols.SymbolID {
	if !u.cxx {
		return nil
	}
	ts := make([]types.TypeID, 0, len(args))
	for _, a := range args {
		ts = append(ts, a.t)
	}
	as := u.associatedOf(ts)
	var out []symbols.SymbolID
	for _, ns := range as.namespaces {
		for _, id := range u.table.Bucket(ns, name) {
			id = u.functionOf(id)
			s := u.sym(id)
			if s == nil || s.Kind != symbols.SymbolFunction {
				continue
			}
			if s.Flags&symbols.FlagHidden != 0 && !u.befriendedBy(id, as.classes) {
				continue
			}
			out = append(out, id)
		}
	}
	return out
}

// befriendedBy reports whether one of classes declares fn a friend.
func (u *Unit) befriendedBy(fn symbols.SymbolID, classes map[symbols.SymbolID]bool) bool {
	s := u.sym(fn)
	for _, d := range append(s.Decls, s.Node) {
		if cls := u.enclosingClass(u.scopeAt(d)); classes[cls] {
			return true
		}
		for c := range classes {
			if in := u.sym(c).Instance; in != nil && in.Pattern.IsValid() && u.enclosingClass(u.scopeAt(d)) == in.Pattern {
				return true
			}
		}
	}
	return false
}

// adlApplies reports whether ordinary lookup leaves room for ADL: it did
// not find a class member, a block-scope function declaration or
// something other than a function.
func (u *Unit) adlApplies(found []symbols.SymbolID) bool {
	if !u.cxx {
		return false
	}
	for _, id := range found {
		s := u.sym(u.functionOf(id))
		if s == nil {
			continue
		}
		if s.Kind != symbols.SymbolFunction {
			return false
		}
		switch u.scope(s.Scope).Kind {
		case symbols.ScopeClass, symbols.ScopeBlock, symbols.ScopeFunction:
			return false
		}
	}
	return true
}
