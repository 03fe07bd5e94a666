package sema

import (
	"strings"

	"cxxsema/internal/ast"
	"cxxsema/internal/inst"
	"cxxsema/internal/source"
	"cxxsema/internal/symbols"
	"cxxsema/internal/token"
	"cxxsema/internal/types"
)

// classGraph lets member lookup see instance members and bases, which the
// unit produces on first use.
type classGraph struct{ u *Unit }

func (g classGraph) Bases(class symbols.SymbolID) []symbols.BaseEdge { return g.u.basesOf(class) }

func (g classGraph) Members(class symbols.SymbolID, name source.StringID) []symbols.SymbolID {
	return g.u.members(class, name)
}

func (u *Unit) graph() symbols.ClassGraph { return classGraph{u} }

// classEntity returns the class binding behind t, references and cv
// ignored.
func (u *Unit) classEntity(t types.TypeID) symbols.SymbolID {
	t = u.types.NonRef(t)
	if u.types.Kind(t) != types.KindClass {
		return symbols.NoSymbolID
	}
	return symbols.SymbolID(u.types.Entity(t))
}

// classScope is the member scope of a class. Instances get theirs on
// first use, once their pattern is defined.
func (u *Unit) classScope(id symbols.SymbolID) symbols.ScopeID {
	s := u.sym(id)
	if s == nil || s.Kind != symbols.SymbolClass {
		return symbols.NoScopeID
	}
	if s.Inner.IsValid() {
		return s.Inner
	}
	in := s.Instance
	if in == nil || s.Flags&symbols.FlagExplicitSpec != 0 {
		return symbols.NoScopeID
	}
	ps := u.sym(in.Pattern)
	if ps == nil || in.Pattern == id || !ps.Inner.IsValid() {
		return symbols.NoScopeID
	}
	sc := u.table.NewScope(symbols.ScopeClass, u.scope(ps.Inner).Parent, id, ps.Node)
	u.sym(id).Inner = sc
	return sc
}

// isImplicitInstance reports classes and members produced from a pattern.
func (u *Unit) isImplicitInstance(id symbols.SymbolID) bool {
	s := u.sym(id)
	return s != nil && s.Instance != nil && s.Flags&symbols.FlagExplicitSpec == 0 && s.Instance.Pattern != id
}

// members returns the bindings named name declared in class. Members of
// an instance are the pattern's, specialized on demand.
func (u *Unit) members(class symbols.SymbolID, name source.StringID) []symbols.SymbolID {
	if !u.isImplicitInstance(class) {
		return u.table.Bucket(u.classScope(class), name)
	}
	if !u.classScope(class).IsValid() {
		return nil
	}
	pattern := u.table.Bucket(u.sym(u.sym(class).Instance.Pattern).Inner, name)
	out := make([]symbols.SymbolID, 0, len(pattern))
	for _, m := range pattern {
		out = append(out, u.specializeMember(class, m))
	}
	return out
}

// allMembers lists the members of a class in declaration order.
func (u *Unit) allMembers(class symbols.SymbolID) []symbols.SymbolID {
	if !u.isImplicitInstance(class) {
		if sc := u.scope(u.classScope(class)); sc != nil {
			return append([]symbols.SymbolID(nil), sc.Symbols...)
		}
		return nil
	}
	if !u.classScope(class).IsValid() {
		return nil
	}
	ps := u.scope(u.sym(u.sym(class).Instance.Pattern).Inner)
	pattern := append([]symbols.SymbolID(nil), ps.Symbols...)
	out := make([]symbols.SymbolID, 0, len(pattern))
	for _, m := range pattern {
		out = append(out, u.specializeMember(class, m))
	}
	return out
}

// specializeMember produces the member of instance owner that corresponds
// to pattern member m. The result is memoized per (owner, m).
func (u *Unit) specializeMember(owner, m symbols.SymbolID) symbols.SymbolID {
	key := memberKey{owner, m}
	if id, ok := u.memberSpecs[key]; ok {
		return id
	}
	ms := u.sym(m)
	os := u.sym(owner)
	inner := u.classScope(owner)
	switch {
	case ms.Flags&symbols.FlagInjected != 0:
		id := u.table.Symbols.New(&symbols.Symbol{
			Name:   ms.Name,
			Kind:   symbols.SymbolClass,
			Scope:  inner,
			Flags:  symbols.FlagInjected,
			Access: symbols.AccessPublic,
			Target: owner,
			Node:   ms.Node,
			Type:   os.Type,
		})
		u.memberSpecs[key] = id
		return id
	case ms.Kind == symbols.SymbolEnum, ms.Kind == symbols.SymbolEnumerator, ms.Kind == symbols.SymbolProblem:
		u.memberSpecs[key] = m
		return m
	case ms.Kind == symbols.SymbolUsing:
		if t := u.sym(ms.Target); t != nil && t.Scope == ms.Scope {
			id := u.specializeMember(owner, ms.Target)
			u.memberSpecs[key] = id
			return id
		}
		u.memberSpecs[key] = m
		return m
	}

	b := os.Instance.Bindings
	dependent := os.Flags&symbols.FlagDependent != 0
	spec := &symbols.Symbol{
		Name:        ms.Name,
		Kind:        ms.Kind,
		Linkage:     ms.Linkage,
		Scope:       inner,
		Decls:       append([]ast.NodeID(nil), ms.Decls...),
		Def:         ms.Def,
		Flags:       ms.Flags &^ symbols.FlagExplicitSpec,
		Pos:         ms.Pos,
		Access:      ms.Access,
		Specialized: m,
		TemplateKey: ms.TemplateKey,
		Node:        ms.Node,
		Instance:    &symbols.InstanceInfo{Pattern: m, Bindings: b},
	}
	if dependent {
		spec.Flags |= symbols.FlagDependent
	}
	if ms.Template != nil {
		spec.Template = &symbols.TemplateInfo{
			Params: ms.Template.Params,
			Depth:  ms.Template.Depth,
			Decl:   ms.Template.Decl,
		}
	}
	id := u.table.Symbols.New(spec)
	u.memberSpecs[key] = id

	switch ms.Kind {
	case symbols.SymbolClass:
		u.sym(id).Type = u.types.Class(uint32(id), dependent)
	default:
		t := u.symbolType(m)
		if t == types.NoTypeID {
			break
		}
		if !u.stack.Push(inst.Frame{Template: owner, Key: u.text(ms.Name), Site: u.span(ms.Node)}) {
			u.depthExceeded(ms.Node)
			break
		}
		st, _ := u.subst(t, b)
		u.stack.Pop()
		u.sym(id).Type = st
	}
	return id
}

// basesOf returns the direct bases of a class, computed once. Instances
// take the bases of their pattern with the arguments substituted.
func (u *Unit) basesOf(class symbols.SymbolID) []symbols.BaseEdge {
	s := u.sym(class)
	if s == nil || s.Kind != symbols.SymbolClass {
		return nil
	}
	sc := u.classScope(class)
	cs := u.scope(sc)
	if cs == nil {
		return nil
	}
	if cs.BasesKnown {
		return cs.Bases
	}
	cs.BasesKnown = true

	node := s.Node
	var b types.Bindings
	if u.isImplicitInstance(class) {
		node = u.sym(s.Instance.Pattern).Node
		b = s.Instance.Bindings
	}
	if u.kind(node) != ast.KindClassSpec {
		return nil
	}
	cd := u.b.Class(node)
	var edges []symbols.BaseEdge
	for _, bn := range cd.Bases {
		bd := u.b.Class(bn)
		t := u.typeOfName(bd.Name)
		if b != nil {
			t, _ = u.subst(t, b)
		}
		if u.types.IsDependent(t) {
			u.depBases[class] = true
		}
		ent := u.classEntity(t)
		if !ent.IsValid() {
			continue
		}
		access := accessOf(bd.Access)
		if access == symbols.AccessNone {
			access = symbols.AccessPublic
			if cd.Key == token.KwClass {
				access = symbols.AccessPrivate
			}
		}
		edges = append(edges, symbols.BaseEdge{Class: ent, Virtual: bd.Virtual, Access: access, Node: bn})
	}
	u.scope(sc).Bases = edges
	return edges
}

// baseDistance is the number of derivation steps from derived to base, or
// -1 when base is not a base of derived.
func (u *Unit) baseDistance(derived, base symbols.SymbolID) int {
	if derived == base {
		return 0
	}
	level := []symbols.SymbolID{derived}
	seen := map[symbols.SymbolID]bool{derived: true}
	for depth := 1; len(level) > 0 && depth < 64; depth++ {
		var next []symbols.SymbolID
		for _, c := range level {
			for _, e := range u.basesOf(c) {
				if e.Class == base {
					return depth
				}
				if !seen[e.Class] {
					seen[e.Class] = true
					next = append(next, e.Class)
				}
			}
		}
		level = next
	}
	return -1
}

// constructors lists the declared constructors of a class.
func (u *Unit) constructors(class symbols.SymbolID) []symbols.SymbolID {
	s := u.sym(class)
	if s == nil || s.Kind != symbols.SymbolClass {
		return nil
	}
	var out []symbols.SymbolID
	for _, m := range u.members(class, s.Name) {
		if ms := u.sym(m); ms.Kind == symbols.SymbolFunction && ms.Flags&symbols.FlagInjected == 0 {
			out = append(out, m)
		}
	}
	return out
}

// conversionFunctions lists the conversion functions of a class and its
// bases; a derived one hides a base one converting to the same type.
func (u *Unit) conversionFunctions(class symbols.SymbolID) []symbols.SymbolID {
	var out []symbols.SymbolID
	seen := map[source.StringID]bool{}
	level := []symbols.SymbolID{class}
	visited := map[symbols.SymbolID]bool{class: true}
	for depth := 0; len(level) > 0 && depth < 64; depth++ {
		var next []symbols.SymbolID
		for _, c := range level {
			for _, m := range u.allMembers(c) {
				ms := u.sym(m)
				if ms.Kind != symbols.SymbolFunction || seen[ms.Name] {
					continue
				}
				name := u.text(ms.Name)
				if !strings.HasPrefix(name, "operator ") || strings.HasPrefix(name, "operator new") || strings.HasPrefix(name, "operator delete") {
					continue
				}
				out = append(out, m)
			}
			for _, m := range out {
				seen[u.sym(m).Name] = true
			}
			for _, e := range u.basesOf(c) {
				if !visited[e.Class] {
					visited[e.Class] = true
					next = append(next, e.Class)
				}
			}
		}
		level = next
	}
	return out
}
