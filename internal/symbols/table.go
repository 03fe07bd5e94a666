package symbols

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"cxxsema/internal/ast"
	"cxxsema/internal/source"
	"cxxsema/internal/types"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates the scope and binding arenas of one translation unit
// together with the string and type interners they refer to.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Strings *source.Interner
	Types   *types.Interner
	Global  ScopeID
	// CXX selects C++ declaration rules: tags share the ordinary name
	// space and functions may be overloaded.
	CXX bool
}

// NewTable builds a fresh table with its global scope. Nil interners are
// allocated on demand.
func NewTable(h Hints, strings *source.Interner, typ *types.Interner, cxx bool) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	if typ == nil {
		typ = types.NewInterner()
	}
	t := &Table{
		Scopes:  NewScopes(scopeCap),
		Symbols: NewSymbols(symCap),
		Strings: strings,
		Types:   typ,
		CXX:     cxx,
	}
	t.Global = t.Scopes.New(ScopeGlobal, NoScopeID, NoSymbolID, ast.NoNode)
	return t
}

// NewScope allocates a child scope of parent.
func (t *Table) NewScope(kind ScopeKind, parent ScopeID, owner SymbolID, node ast.NodeID) ScopeID {
	return t.Scopes.New(kind, parent, owner, node)
}

// Insert allocates sym and registers it in its scope. Labels go to the
// label space, C tags to the tag space.
func (t *Table) Insert(sym *Symbol) SymbolID {
	id := t.Symbols.New(sym)
	scope := t.Scopes.Get(sym.Scope)
	if scope == nil {
		return id
	}
	scope.Symbols = append(scope.Symbols, id)
	switch {
	case sym.Kind == SymbolLabel:
		if scope.Labels == nil {
			scope.Labels = make(map[source.StringID][]SymbolID)
		}
		scope.Labels[sym.Name] = append(scope.Labels[sym.Name], id)
	case sym.Flags&FlagTag != 0:
		if scope.Tags == nil {
			scope.Tags = make(map[source.StringID][]SymbolID)
		}
		scope.Tags[sym.Name] = append(scope.Tags[sym.Name], id)
	default:
		scope.NameIndex[sym.Name] = append(scope.NameIndex[sym.Name], id)
	}
	return id
}

// NewProblem allocates a problem binding. It is never entered into a
// scope, so lookups cannot find it.
func (t *Table) NewProblem(kind ProblemKind, name source.StringID, scope ScopeID, node ast.NodeID) SymbolID {
	return t.Symbols.New(&Symbol{
		Name:    name,
		Kind:    SymbolProblem,
		Scope:   scope,
		Problem: kind,
		Node:    node,
		Decls:   []ast.NodeID{node},
	})
}

// Bucket returns the ordinary bindings named name declared directly in scope.
func (t *Table) Bucket(scope ScopeID, name source.StringID) []SymbolID {
	if s := t.Scopes.Get(scope); s != nil {
		return s.NameIndex[name]
	}
	return nil
}

// AddUsing records a using-directive in scope nominating target.
func (t *Table) AddUsing(scope, target ScopeID, pos uint32, node ast.NodeID) {
	s := t.Scopes.Get(scope)
	if s == nil || !target.IsValid() || scope == target {
		return
	}
	for _, e := range s.Usings {
		if e.Target == target && e.Pos <= pos {
			return
		}
	}
	s.Usings = append(s.Usings, UsingEdge{Target: target, Pos: pos, Node: node})
}

// EnclosingNamespace returns the innermost namespace or global scope
// containing scope, scope itself included.
func (t *Table) EnclosingNamespace(scope ScopeID) ScopeID {
	for id := scope; id.IsValid(); id = t.Scopes.Get(id).Parent {
		if t.Scopes.Get(id).Kind.IsNamespace() {
			return id
		}
	}
	return t.Global
}

// Enclosing returns the innermost scope of kind k around scope.
func (t *Table) Enclosing(scope ScopeID, k ScopeKind) ScopeID {
	for id := scope; id.IsValid(); id = t.Scopes.Get(id).Parent {
		if t.Scopes.Get(id).Kind == k {
			return id
		}
	}
	return NoScopeID
}

// Encloses reports whether outer is scope or one of its ancestors.
func (t *Table) Encloses(outer, scope ScopeID) bool {
	for id := scope; id.IsValid(); id = t.Scopes.Get(id).Parent {
		if id == outer {
			return true
		}
	}
	return false
}

// Name returns the unqualified spelling of a binding.
func (t *Table) Name(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return ""
	}
	if sym.Name == source.NoStringID {
		switch sym.Kind {
		case SymbolNamespace:
			return "(anonymous namespace)"
		case SymbolClass, SymbolEnum:
			return "(anonymous " + sym.Kind.String() + ")"
		}
		return ""
	}
	return t.Strings.MustLookup(sym.Name)
}

// QualifiedName renders a binding with its enclosing namespaces and
// classes, and template arguments for instances: "ns::vec<int>::size".
func (t *Table) QualifiedName(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return ""
	}
	var parts []string
	parts = append(parts, t.nameWithArgs(id))
	for sc := sym.Scope; sc.IsValid(); sc = t.Scopes.Get(sc).Parent {
		s := t.Scopes.Get(sc)
		if (s.Kind == ScopeNamespace || s.Kind == ScopeClass || s.Kind == ScopeEnum) && s.Owner.IsValid() {
			parts = append(parts, t.nameWithArgs(s.Owner))
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "::")
}

func (t *Table) nameWithArgs(id SymbolID) string {
	sym := t.Symbols.Get(id)
	name := t.Name(id)
	if sym.Instance != nil && sym.Instance.Template.IsValid() {
		return name + "<" + t.ArgsString(sym.Instance.Args) + ">"
	}
	if sym.Template != nil && sym.Template.Primary.IsValid() {
		return name + "<" + t.ArgsString(sym.Template.PatternArgs) + ">"
	}
	return name
}

// TypeName is the types.Namer of this table.
func (t *Table) TypeName(entity uint32) string {
	id := SymbolID(entity)
	sym := t.Symbols.Get(id)
	if sym == nil {
		return "<unknown>"
	}
	if sym.Param != nil {
		return t.Name(id)
	}
	return t.QualifiedName(id)
}

// TypeString renders a type with binding names.
func (t *Table) TypeString(id types.TypeID) string {
	return t.Types.String(id, t.TypeName)
}

// ArgsString renders a template argument list.
func (t *Table) ArgsString(args []types.TemplateArg) string {
	var sb strings.Builder
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		t.writeArg(&sb, a)
	}
	return sb.String()
}

func (t *Table) writeArg(sb *strings.Builder, a types.TemplateArg) {
	switch a.Kind {
	case types.ArgType:
		sb.WriteString(t.TypeString(a.Type))
	case types.ArgValue:
		sb.WriteString(strconv.FormatInt(a.Value, 10))
	case types.ArgDependentValue:
		fmt.Fprintf(sb, "$%d_%d", a.Param.Depth, a.Param.Index)
		if a.Value > 0 {
			sb.WriteString(" + " + strconv.FormatInt(a.Value, 10))
		} else if a.Value < 0 {
			sb.WriteString(" - " + strconv.FormatInt(-a.Value, 10))
		}
	case types.ArgTemplate:
		sb.WriteString(t.QualifiedName(SymbolID(a.Entity)))
	case types.ArgPack:
		sb.WriteString(t.ArgsString(a.Pack))
	}
}
