package sema

import (
	"slices"

	"cxxsema/internal/ast"
	"cxxsema/internal/symbols"
	"cxxsema/internal/types"
)

// lockWrite takes the unit for a query that may resolve lazily and
// returns the matching unlock. Frozen units only read.
func (u *Unit) lockWrite() func() {
	if u.frozen.Load() {
		u.mu.RLock()
		return u.mu.RUnlock
	}
	u.mu.Lock()
	return u.mu.Unlock
}

// lockMutate takes the unit exclusively, frozen or not: instantiation
// and overload resolution may add bindings.
func (u *Unit) lockMutate() func() {
	u.mu.Lock()
	return u.mu.Unlock
}

// Resolve returns the binding of a name node. NoSymbolID means the name
// depends on a template parameter or binds nothing, like an implicit
// constructor.
func (u *Unit) Resolve(name ast.NodeID) symbols.SymbolID {
	defer u.lockWrite()()
	return u.resolve(name)
}

// ExprType returns the type of an expression node, NoTypeID for nodes that
// are not expressions or could not be typed.
func (u *Unit) ExprType(e ast.NodeID) types.TypeID {
	defer u.lockWrite()()
	t, _ := u.typeExpr(e)
	return t
}

// ExprCategory returns the value category of an expression node.
func (u *Unit) ExprCategory(e ast.NodeID) Category {
	defer u.lockWrite()()
	_, c := u.typeExpr(e)
	return c
}

// Symbol returns the binding record of id. The record must not be
// modified.
func (u *Unit) Symbol(id symbols.SymbolID) *symbols.Symbol {
	defer u.lockWrite()()
	return u.sym(id)
}

// ScopeOf returns the scope names at n are looked up in.
func (u *Unit) ScopeOf(n ast.NodeID) symbols.ScopeID {
	defer u.lockWrite()()
	return u.scopeAt(n)
}

// Declarations returns the declaration name nodes of a binding, the
// definition included.
func (u *Unit) Declarations(id symbols.SymbolID) []ast.NodeID {
	defer u.lockWrite()()
	s := u.sym(id)
	if s == nil || s.Kind == symbols.SymbolProblem || s.Kind == symbols.SymbolMacro {
		return nil
	}
	var out []ast.NodeID
	for _, d := range s.Decls {
		if u.kind(d).IsName() {
			out = append(out, d)
		}
	}
	return out
}

// References returns the name nodes referring to a binding, in source
// order. The unit is frozen first.
func (u *Unit) References(id symbols.SymbolID) []ast.NodeID {
	u.Freeze()
	u.mu.RLock()
	defer u.mu.RUnlock()
	return slices.Clone(u.refs[id])
}

// Children returns the syntactic children of n in source order.
func (u *Unit) Children(n ast.NodeID) []ast.NodeID { return u.b.Children(n) }

// ImplicitNames returns the hidden names of an expression or declarator:
// the overloaded operator or constructor it calls.
func (u *Unit) ImplicitNames(n ast.NodeID) []ast.NodeID { return u.b.ImplicitNames(n) }

// InMacroExpansion reports nodes produced entirely by one macro
// invocation.
func (u *Unit) InMacroExpansion(n ast.NodeID) bool { return u.b.InMacroExpansion(n) }

// Syntax returns the tokens of n, or ast.ErrExpansionOverlapsBoundary
// when a macro invocation straddles the node boundary.
func (u *Unit) Syntax(n ast.NodeID) (ast.TokenView, error) { return u.b.Syntax(n) }

func (u *Unit) LeadingSyntax(n ast.NodeID) (ast.TokenView, error) { return u.b.LeadingSyntax(n) }

func (u *Unit) TrailingSyntax(n ast.NodeID) (ast.TokenView, error) { return u.b.TrailingSyntax(n) }

// Instantiate returns the specialization of tmpl for args: an explicit
// specialization or the memoized implicit instance. Missing trailing
// arguments take their defaults. NoSymbolID means the arguments do not
// fit.
func (u *Unit) Instantiate(tmpl symbols.SymbolID, args []types.TemplateArg) symbols.SymbolID {
	defer u.lockMutate()()
	return u.instantiate(tmpl, args, ast.NoNode)
}

// Deduce deduces the template arguments of function template tmpl from
// the arguments of a call.
func (u *Unit) Deduce(tmpl symbols.SymbolID, args []CallArg, explicit []types.TemplateArg) (types.Bindings, bool) {
	defer u.lockMutate()()
	ca := make([]callArg, len(args))
	for i, a := range args {
		ca[i] = callArg{t: a.Type, cat: a.Category}
	}
	b, _, ok := u.deduceCall(tmpl, explicit, ca)
	return b, ok
}

// InstantiationArgs returns the template and arguments an instance was
// created from.
func (u *Unit) InstantiationArgs(id symbols.SymbolID) (symbols.SymbolID, []types.TemplateArg, bool) {
	defer u.lockWrite()()
	s := u.sym(id)
	if s == nil || s.Instance == nil {
		return symbols.NoSymbolID, nil, false
	}
	return s.Instance.Template, slices.Clone(s.Instance.Args), true
}
