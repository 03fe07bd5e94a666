package symbols

import (
	"slices"

	"cxxsema/internal/source"
)

// LookupOptions narrow a lookup.
type LookupOptions struct {
	// Pos is the byte offset of the use. Bindings of positional scopes
	// declared after it are invisible. Zero sees everything.
	Pos uint32
	// TypesOnly keeps bindings that name types and stops non-types from
	// hiding them.
	TypesOnly bool
	// Elaborated keeps classes and enums only (struct X, enum E).
	Elaborated bool
	// Qualifier keeps what may precede ::.
	Qualifier bool
	// NamespacesOnly keeps namespaces and namespace aliases.
	NamespacesOnly bool
	// Tags searches the C tag name space instead of ordinary names.
	Tags bool
	// Hidden admits friends declared only inside a class.
	Hidden bool
}

// LookupResult is the outcome of a lookup. Using-declarations and
// injected class names are already replaced by what they denote.
type LookupResult struct {
	Symbols   []SymbolID
	Ambiguous bool
}

// Found reports a non-empty result.
func (r LookupResult) Found() bool { return len(r.Symbols) > 0 }

// Single returns the only binding, or NoSymbolID.
func (r LookupResult) Single() SymbolID {
	if len(r.Symbols) == 1 && !r.Ambiguous {
		return r.Symbols[0]
	}
	return NoSymbolID
}

// ClassGraph gives lookup access to class members and bases. The
// resolution context completes classes and instances on demand.
type ClassGraph interface {
	Bases(class SymbolID) []BaseEdge
	Members(class SymbolID, name source.StringID) []SymbolID
}

// ScopeGraph reads bases and members straight from the table.
type ScopeGraph struct{ T *Table }

func (g ScopeGraph) Bases(class SymbolID) []BaseEdge {
	if sym := g.T.Symbols.Get(class); sym != nil {
		if s := g.T.Scopes.Get(sym.Inner); s != nil {
			return s.Bases
		}
	}
	return nil
}

func (g ScopeGraph) Members(class SymbolID, name source.StringID) []SymbolID {
	if sym := g.T.Symbols.Get(class); sym != nil {
		return g.T.Bucket(sym.Inner, name)
	}
	return nil
}

// LookupUnqualified performs unqualified name lookup starting at scope from.
//
// Scopes are searched innermost first and the first scope with a visible
// binding ends the search. Class scopes search their bases. A namespace
// nominated by a using-directive is searched together with the nearest
// namespace enclosing both the directive and the nominated namespace.
func (t *Table) LookupUnqualified(g ClassGraph, from ScopeID, name source.StringID, opts LookupOptions) LookupResult {
	attached := t.nominated(from, opts.Pos)
	for sc := from; sc.IsValid(); sc = t.Scopes.Get(sc).Parent {
		s := t.Scopes.Get(sc)
		if s.Kind == ScopeClass && s.Owner.IsValid() && g != nil {
			if r := t.LookupMember(g, s.Owner, name, opts); r.Found() {
				return r
			}
			continue
		}
		hits := t.direct(sc, name, opts)
		for _, ns := range attached[sc] {
			hits = append(hits, t.direct(ns, name, opts)...)
		}
		if r := t.finish(hits, opts); r.Found() {
			return r
		}
	}
	return LookupResult{}
}

// LookupLabel finds a label of the function enclosing scope.
func (t *Table) LookupLabel(scope ScopeID, name source.StringID) SymbolID {
	fn := t.Enclosing(scope, ScopeFunction)
	if s := t.Scopes.Get(fn); s != nil {
		if ids := s.Labels[name]; len(ids) > 0 {
			return ids[0]
		}
	}
	return NoSymbolID
}

// LookupQualified finds name as a member of scope: N::x, C::x, E::x.
//
// In a namespace, direct members win. Otherwise the namespaces nominated
// by using-directives are searched breadth first, and a namespace with
// hits does not contribute its own nominations.
func (t *Table) LookupQualified(g ClassGraph, scope ScopeID, name source.StringID, opts LookupOptions) LookupResult {
	s := t.Scopes.Get(scope)
	if s == nil {
		return LookupResult{}
	}
	if s.Kind == ScopeClass && s.Owner.IsValid() && g != nil {
		return t.LookupMember(g, s.Owner, name, opts)
	}
	if !s.Kind.IsNamespace() {
		return t.finish(t.direct(scope, name, opts), opts)
	}
	if r := t.finish(t.direct(scope, name, opts), opts); r.Found() {
		return r
	}
	visited := map[ScopeID]bool{scope: true}
	var hits []SymbolID
	frontier := t.usingTargets(scope, opts.Pos, visited)
	for len(frontier) > 0 {
		var next []ScopeID
		for _, ns := range frontier {
			h := t.direct(ns, name, opts)
			if len(h) > 0 {
				hits = append(hits, h...)
				continue
			}
			next = append(next, t.usingTargets(ns, opts.Pos, visited)...)
		}
		frontier = next
	}
	return t.finish(hits, opts)
}

func (t *Table) usingTargets(scope ScopeID, pos uint32, visited map[ScopeID]bool) []ScopeID {
	var out []ScopeID
	for _, e := range t.Scopes.Get(scope).Usings {
		if (pos != 0 && e.Pos > pos) || visited[e.Target] {
			continue
		}
		visited[e.Target] = true
		out = append(out, e.Target)
	}
	return out
}

// nominated maps a namespace on the chain of from to the namespaces whose
// members appear there through using-directives.
func (t *Table) nominated(from ScopeID, pos uint32) map[ScopeID][]ScopeID {
	var out map[ScopeID][]ScopeID
	seen := make(map[ScopeID]bool)
	for sc := from; sc.IsValid(); sc = t.Scopes.Get(sc).Parent {
		s := t.Scopes.Get(sc)
		if !s.Kind.allowsUsingDirectives() || len(s.Usings) == 0 {
			continue
		}
		queue := t.usingTargets(sc, pos, seen)
		for len(queue) > 0 {
			ns := queue[0]
			queue = queue[1:]
			at := t.commonNamespace(sc, ns)
			if out == nil {
				out = make(map[ScopeID][]ScopeID)
			}
			out[at] = append(out[at], ns)
			queue = append(queue, t.usingTargets(ns, pos, seen)...)
		}
	}
	return out
}

// commonNamespace returns the nearest namespace enclosing both a and b.
func (t *Table) commonNamespace(a, b ScopeID) ScopeID {
	for sc := t.EnclosingNamespace(a); sc.IsValid(); sc = t.Scopes.Get(sc).Parent {
		if t.Scopes.Get(sc).Kind.IsNamespace() && t.Encloses(sc, b) {
			return sc
		}
	}
	return t.Global
}

// direct returns the visible bindings named name declared in scope.
func (t *Table) direct(scope ScopeID, name source.StringID, opts LookupOptions) []SymbolID {
	s := t.Scopes.Get(scope)
	if s == nil {
		return nil
	}
	bucket := s.NameIndex[name]
	if opts.Tags && !t.CXX {
		bucket = s.Tags[name]
	}
	positional := s.Kind.positional() && opts.Pos != 0
	var out []SymbolID
	for _, id := range bucket {
		sym := t.Symbols.Get(id)
		if positional && sym.Pos > opts.Pos {
			continue
		}
		out = append(out, id)
	}
	return out
}

// accept applies the kind filters and returns the binding id denotes.
func (t *Table) accept(id SymbolID, opts LookupOptions) (SymbolID, bool) {
	sym := t.Symbols.Get(id)
	if sym == nil || sym.Kind == SymbolProblem || sym.Kind == SymbolMacro {
		return NoSymbolID, false
	}
	if sym.Flags&FlagHidden != 0 && !opts.Hidden {
		return NoSymbolID, false
	}
	// a template parameter of a redeclaration denotes the first declaration's
	if (sym.Kind == SymbolUsing || sym.Flags&FlagInjected != 0 || sym.Param != nil) && sym.Target.IsValid() {
		id = sym.Target
		sym = t.Symbols.Get(id)
	}
	if sym.Kind == SymbolProblem {
		return NoSymbolID, false
	}
	k := sym.Kind
	switch {
	case opts.NamespacesOnly:
		return id, k == SymbolNamespace || k == SymbolNamespaceAlias
	case opts.Elaborated:
		return id, k.IsTag()
	case opts.Qualifier:
		return id, k == SymbolNamespace || k == SymbolNamespaceAlias || k.IsType()
	case opts.TypesOnly:
		return id, k.IsType()
	}
	return id, true
}

// finish filters hits, applies hiding and decides ambiguity.
func (t *Table) finish(hits []SymbolID, opts LookupOptions) LookupResult {
	var out []SymbolID
	for _, h := range hits {
		id, ok := t.accept(h, opts)
		if ok && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return LookupResult{}
	}
	if !opts.TypesOnly && !opts.Elaborated && !opts.Qualifier && !opts.NamespacesOnly {
		nonTags := out[:0:0]
		for _, id := range out {
			if !t.Symbols.Get(id).Kind.IsTag() {
				nonTags = append(nonTags, id)
			}
		}
		if len(nonTags) > 0 {
			out = nonTags
		}
	}
	return LookupResult{Symbols: out, Ambiguous: t.ambiguous(out)}
}

// ambiguous: several entities that are not all functions.
func (t *Table) ambiguous(ids []SymbolID) bool {
	if len(ids) < 2 {
		return false
	}
	for _, id := range ids {
		if t.Symbols.Get(id).Kind != SymbolFunction {
			return true
		}
	}
	return false
}
