package symbols

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/source"
	"cxxsema/internal/types"
)

// DeclAttrs describe one declaration of a name.
type DeclAttrs struct {
	Node    ast.NodeID // declaring name node
	Decl    ast.NodeID // declaration construct
	Pos     uint32
	Type    types.TypeID
	Flags   SymbolFlags
	Linkage Linkage
	Access  Access
	// Definition marks a defining declaration. Tentative marks a C
	// file-scope object declaration without initializer; such declarations
	// may repeat and give way to one initialized definition.
	Definition bool
	Tentative  bool
	// Tag puts a C struct, union or enum into the tag name space.
	Tag         bool
	TemplateKey string
}

// DeclareResult reports the binding a declaration ended up with. When
// Problem is set, Symbol is NoSymbolID and Previous is the binding the
// declaration clashed with.
type DeclareResult struct {
	Symbol   SymbolID
	New      bool
	Problem  ProblemKind
	Previous SymbolID
}

// Declare introduces name in scope or merges the declaration into an
// existing compatible binding.
//
// A redeclaration with the same signature extends the earlier binding. A
// function with a different signature is a new overload in C++. A class
// or enum may share its name with an object, function or enumerator.
// Everything else clashes.
func (t *Table) Declare(scope ScopeID, name source.StringID, kind SymbolKind, a DeclAttrs) DeclareResult {
	s := t.Scopes.Get(scope)
	if s == nil {
		return DeclareResult{Problem: InvalidType}
	}
	var bucket []SymbolID
	switch {
	case kind == SymbolLabel:
		bucket = s.Labels[name]
	case a.Tag && !t.CXX:
		bucket = s.Tags[name]
	case name != source.NoStringID:
		bucket = s.NameIndex[name]
	}
	for _, prev := range bucket {
		res, done := t.redeclare(prev, kind, a)
		if done {
			return res
		}
	}
	sym := &Symbol{
		Name:        name,
		Kind:        kind,
		Type:        a.Type,
		Linkage:     a.Linkage,
		Scope:       scope,
		Decls:       []ast.NodeID{a.Node},
		Flags:       a.Flags,
		Pos:         a.Pos,
		Access:      a.Access,
		Node:        a.Decl,
		TemplateKey: a.TemplateKey,
	}
	if a.Tag && !t.CXX {
		sym.Flags |= FlagTag
	}
	switch {
	case a.Definition:
		sym.Def = a.Node
		sym.Flags |= FlagDefined
	case a.Tentative:
		sym.Def = a.Node
		sym.Flags |= FlagDefined | FlagTentative
	}
	return DeclareResult{Symbol: t.Insert(sym), New: true}
}

// redeclare decides how a declaration relates to the earlier binding prev.
// done=false means the two coexist and the search continues.
func (t *Table) redeclare(prev SymbolID, kind SymbolKind, a DeclAttrs) (DeclareResult, bool) {
	p := t.Symbols.Get(prev)
	conflict := func(kind ProblemKind) (DeclareResult, bool) {
		return DeclareResult{Problem: kind, Previous: prev}, true
	}
	if p.Kind == SymbolUsing {
		if kind == SymbolFunction {
			return DeclareResult{}, false
		}
		return conflict(InvalidOverload)
	}
	if p.Flags&FlagInjected != 0 {
		return DeclareResult{}, false
	}
	if t.CXX && p.Kind.IsTag() != (kind == SymbolClass || kind == SymbolEnum) {
		switch {
		case kind == SymbolTypedef && t.sameEntityType(prev, a.Type):
			return DeclareResult{Symbol: prev}, true
		case kind == SymbolTypedef || p.Kind == SymbolTypedef:
			return conflict(InvalidOverload)
		case kind == SymbolNamespace || p.Kind == SymbolNamespace || kind == SymbolNamespaceAlias || p.Kind == SymbolNamespaceAlias:
			return conflict(InvalidOverload)
		}
		return DeclareResult{}, false
	}

	if p.Kind != kind {
		if kind == SymbolTypedef && p.Kind.IsTag() && t.sameEntityType(prev, a.Type) {
			return DeclareResult{Symbol: prev}, true
		}
		if (kind == SymbolVariable && p.Kind == SymbolField) || (kind == SymbolField && p.Kind == SymbolVariable) {
			// static data member declared in class, defined at namespace scope
			if p.Flags&FlagStatic != 0 || a.Flags&FlagStatic != 0 {
				return t.mergeObject(prev, a)
			}
		}
		return conflict(InvalidOverload)
	}

	switch kind {
	case SymbolNamespace:
		t.merge(prev, a)
		return DeclareResult{Symbol: prev}, true

	case SymbolFunction:
		if !t.sameSignature(p.Type, a.Type) || p.TemplateKey != a.TemplateKey {
			if t.CXX {
				return DeclareResult{}, false
			}
			return conflict(RedefinitionConflict)
		}
		if !t.sameReturn(p.Type, a.Type) {
			return conflict(RedefinitionConflict)
		}
		if a.Definition && p.Def != ast.NoNode {
			return conflict(RedefinitionConflict)
		}
		if a.Flags&FlagStatic != 0 && p.Linkage == LinkageExternal && p.Scope != NoScopeID &&
			t.Scopes.Get(p.Scope).Kind != ScopeClass {
			return conflict(RedefinitionConflict)
		}
		t.merge(prev, a)
		return DeclareResult{Symbol: prev}, true

	case SymbolVariable, SymbolField:
		return t.mergeObject(prev, a)

	case SymbolClass, SymbolEnum:
		if p.TemplateKey != a.TemplateKey {
			return conflict(RedefinitionConflict)
		}
		if a.Definition && p.Def != ast.NoNode {
			return conflict(RedefinitionConflict)
		}
		if (p.Flags^a.Flags)&(FlagUnion|FlagScoped) != 0 && a.Definition {
			return conflict(RedefinitionConflict)
		}
		t.merge(prev, a)
		return DeclareResult{Symbol: prev}, true

	case SymbolTypedef:
		if p.Type == a.Type || p.Type == types.NoTypeID || a.Type == types.NoTypeID {
			t.merge(prev, a)
			return DeclareResult{Symbol: prev}, true
		}
		return conflict(RedefinitionConflict)

	case SymbolLabel:
		if a.Definition && p.Def != ast.NoNode {
			return conflict(RedefinitionConflict)
		}
		t.merge(prev, a)
		return DeclareResult{Symbol: prev}, true
	}
	return conflict(RedefinitionConflict)
}

func (t *Table) mergeObject(prev SymbolID, a DeclAttrs) (DeclareResult, bool) {
	p := t.Symbols.Get(prev)
	conflict := func(kind ProblemKind) (DeclareResult, bool) {
		return DeclareResult{Problem: kind, Previous: prev}, true
	}
	if s := t.Scopes.Get(p.Scope); s != nil && !s.Kind.IsNamespace() &&
		p.Flags&FlagExtern == 0 && a.Flags&FlagExtern == 0 && (p.Kind != SymbolField || p.Flags&FlagStatic == 0) {
		// block-scope objects, parameters and non-static members
		return conflict(RedefinitionConflict)
	}
	if a.Flags&FlagStatic != 0 && p.Linkage == LinkageExternal && p.Kind == SymbolVariable {
		if s := t.Scopes.Get(p.Scope); s != nil && s.Kind.IsNamespace() {
			// a static redeclaration cannot take back external linkage
			return conflict(RedefinitionConflict)
		}
	}
	typ, ok := t.compatibleObject(p.Type, a.Type)
	if !ok {
		return conflict(RedefinitionConflict)
	}
	tentative := p.Flags&FlagTentative != 0
	if a.Definition && p.Def != ast.NoNode && !tentative {
		return conflict(RedefinitionConflict)
	}
	t.merge(prev, a)
	p = t.Symbols.Get(prev)
	p.Type = typ
	switch {
	case a.Definition && tentative:
		p.Def = a.Node
		p.Node = a.Decl
		p.Flags &^= FlagTentative
	case a.Tentative && p.Def == ast.NoNode:
		p.Def = a.Node
		p.Node = a.Decl
		p.Flags |= FlagTentative | FlagDefined
	}
	return DeclareResult{Symbol: prev}, true
}

// merge appends the declaration to prev.
func (t *Table) merge(prev SymbolID, a DeclAttrs) {
	p := t.Symbols.Get(prev)
	p.Decls = append(p.Decls, a.Node)
	keep := p.Flags & (FlagStatic | FlagExplicitSpec | FlagPartialSpec)
	p.Flags |= a.Flags &^ (FlagStatic | FlagExplicitSpec | FlagPartialSpec)
	p.Flags |= keep
	if a.Definition && p.Def == ast.NoNode {
		p.Def = a.Node
		p.Flags |= FlagDefined
		p.Node = a.Decl
		if a.Type != types.NoTypeID && p.Kind != SymbolFunction {
			p.Type = a.Type
		}
	}
	if p.Node == ast.NoNode {
		p.Node = a.Decl
	}
	if p.Type == types.NoTypeID {
		p.Type = a.Type
	}
}

// sameSignature compares parameter lists and member qualifiers.
func (t *Table) sameSignature(x, y types.TypeID) bool {
	if x == y {
		return true
	}
	a, okA := t.Types.Lookup(x)
	b, okB := t.Types.Lookup(y)
	if !okA || !okB || a.Kind != types.KindFunction || b.Kind != types.KindFunction {
		return x == types.NoTypeID || y == types.NoTypeID
	}
	if a.Variadic != b.Variadic || a.FnCV != b.FnCV || a.Ref != b.Ref || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	return true
}

func (t *Table) sameReturn(x, y types.TypeID) bool {
	a, okA := t.Types.Lookup(x)
	b, okB := t.Types.Lookup(y)
	if !okA || !okB {
		return true
	}
	if a.Elem == b.Elem || t.Types.IsDependent(a.Elem) || t.Types.IsDependent(b.Elem) {
		return true
	}
	return false
}

// compatibleObject allows `int a[]; int a[3];` and returns the completed
// type.
func (t *Table) compatibleObject(x, y types.TypeID) (types.TypeID, bool) {
	if x == y || y == types.NoTypeID {
		return x, true
	}
	if x == types.NoTypeID {
		return y, true
	}
	a, _ := t.Types.Lookup(x)
	b, _ := t.Types.Lookup(y)
	if a.Kind == types.KindArray && b.Kind == types.KindArray && a.Elem == b.Elem {
		switch {
		case a.Count == types.UnknownBound:
			return y, true
		case b.Count == types.UnknownBound:
			return x, true
		}
	}
	return types.NoTypeID, false
}

// sameEntityType reports `typedef struct S S;` style declarations.
func (t *Table) sameEntityType(prev SymbolID, typ types.TypeID) bool {
	p := t.Symbols.Get(prev)
	if !p.Kind.IsTag() || typ == types.NoTypeID {
		return false
	}
	return p.Type == typ || t.Types.Entity(typ) == uint32(prev)
}
