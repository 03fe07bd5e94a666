package symbols

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid   ScopeKind = iota
	ScopeGlobal              // the translation unit
	ScopeNamespace           // named, unnamed and inline namespaces
	ScopeClass               // class members; also the scope of an instance
	ScopeEnum                // enumerators of a scoped enum
	ScopeTemplate            // template parameters
	ScopePrototype           // function parameters
	ScopeFunction            // function body; owns labels
	ScopeBlock               // compound statements, conditions, for-init
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeNamespace:
		return "namespace"
	case ScopeClass:
		return "class"
	case ScopeEnum:
		return "enum"
	case ScopeTemplate:
		return "template"
	case ScopePrototype:
		return "prototype"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// positional reports scopes whose lookups only see earlier declarations.
// Class scopes are complete-class contexts.
func (k ScopeKind) positional() bool {
	switch k {
	case ScopeGlobal, ScopeNamespace, ScopePrototype, ScopeFunction, ScopeBlock:
		return true
	}
	return false
}

// allowsUsingDirectives lists the scopes a using-directive may appear in.
func (k ScopeKind) allowsUsingDirectives() bool {
	switch k {
	case ScopeGlobal, ScopeNamespace, ScopeFunction, ScopeBlock:
		return true
	}
	return false
}

// IsNamespace covers the global scope too.
func (k ScopeKind) IsNamespace() bool { return k == ScopeGlobal || k == ScopeNamespace }

// Access is a member access specifier.
type Access uint8

const (
	AccessNone Access = iota
	AccessPublic
	AccessProtected
	AccessPrivate
)

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	}
	return ""
}

// UsingEdge is a using-directive nominating Target, written at byte offset
// Pos. Implicit edges of unnamed and inline namespaces have Pos 0.
type UsingEdge struct {
	Target ScopeID
	Pos    uint32
	Node   ast.NodeID
}

// BaseEdge is one direct base class.
type BaseEdge struct {
	Class   SymbolID
	Virtual bool
	Access  Access
	Node    ast.NodeID
}

// Scope models a lexical scope with a parent-child hierarchy.
//
// NameIndex holds ordinary names in insertion order per name. C keeps
// struct, union and enum tags in Tags; labels live in Labels of the
// function scope.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Owner     SymbolID
	Node      ast.NodeID
	NameIndex map[source.StringID][]SymbolID
	Tags      map[source.StringID][]SymbolID
	Labels    map[source.StringID][]SymbolID
	Symbols   []SymbolID
	Children  []ScopeID
	Usings    []UsingEdge
	// Bases is filled on demand by the resolution context.
	Bases      []BaseEdge
	BasesKnown bool
}
