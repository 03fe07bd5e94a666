package sema

import (
	"strconv"

	"cxxsema/internal/ast"
	"cxxsema/internal/symbols"
	"cxxsema/internal/trace"
)

// Freeze resolves every name, types every expression and builds the
// reference index. Afterwards the unit is read-only and its queries are
// safe for concurrent use. Freeze is idempotent.
func (u *Unit) Freeze() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.frozen.Load() {
		return
	}
	span := trace.Begin(u.tracer, trace.ScopePass, "freeze", 0)
	if u.b != nil {
		n := ast.NodeID(u.b.Len())
		for id := ast.NodeID(1); id <= n; id++ {
			switch k := u.kind(id); {
			case k.IsName():
				u.resolve(id)
			case k.IsExpr():
				u.typeExpr(id)
			case k == ast.KindDeclarator:
				u.resolveDeclInit(id)
			}
		}
		u.indexReferences(n)
	}
	u.frozen.Store(true)
	span.End("refs=" + strconv.Itoa(len(u.refs)))
}

// indexReferences records every name that refers to a binding. A name
// inside a larger name denoting the same binding (the last component of
// a qualified name, the template of a template-id naming an instance)
// counts once, as the larger name.
func (u *Unit) indexReferences(n ast.NodeID) {
	u.refs = make(map[symbols.SymbolID][]ast.NodeID)
	for id := ast.NodeID(1); id <= n; id++ {
		if !u.kind(id).IsName() || u.slots[id].state != slotDone {
			continue
		}
		sym := u.slots[id].sym
		if !sym.IsValid() {
			continue
		}
		if s := u.sym(sym); s == nil || s.Kind == symbols.SymbolProblem {
			continue
		}
		if d := u.b.Name(id); d != nil && d.Role != ast.RoleReference {
			continue
		}
		if u.coveredByParent(id, sym) {
			continue
		}
		u.refs[sym] = append(u.refs[sym], id)
	}
}

func (u *Unit) coveredByParent(id ast.NodeID, sym symbols.SymbolID) bool {
	p := u.b.Parent(id)
	switch u.kind(p) {
	case ast.KindQualified:
		return u.b.Name(p).Last == id && u.slots[p].sym == sym
	case ast.KindTemplateID:
		return u.slots[p].sym == sym
	}
	return false
}
