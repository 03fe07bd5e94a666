package symbols

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/source"
	"cxxsema/internal/types"
)

// SymbolKind classifies the semantic meaning of a binding.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolVariable
	SymbolParameter
	SymbolField
	SymbolFunction
	SymbolClass // class, struct and union
	SymbolEnum
	SymbolEnumerator
	SymbolNamespace
	SymbolNamespaceAlias
	SymbolTypedef // typedef and alias-declaration
	SymbolTypeParam
	SymbolValueParam
	SymbolTemplateParam // template template parameter
	SymbolLabel
	SymbolMacro
	SymbolUsing // using-declaration delegate, Target is the named entity
	SymbolProblem
)

var symbolKindNames = [...]string{
	SymbolInvalid:        "invalid",
	SymbolVariable:       "variable",
	SymbolParameter:      "parameter",
	SymbolField:          "field",
	SymbolFunction:       "function",
	SymbolClass:          "class",
	SymbolEnum:           "enum",
	SymbolEnumerator:     "enumerator",
	SymbolNamespace:      "namespace",
	SymbolNamespaceAlias: "namespace alias",
	SymbolTypedef:        "typedef",
	SymbolTypeParam:      "template type parameter",
	SymbolValueParam:     "template value parameter",
	SymbolTemplateParam:  "template template parameter",
	SymbolLabel:          "label",
	SymbolMacro:          "macro",
	SymbolUsing:          "using-declaration",
	SymbolProblem:        "problem",
}

func (k SymbolKind) String() string {
	if int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return "invalid"
}

// IsType reports kinds that name a type.
func (k SymbolKind) IsType() bool {
	switch k {
	case SymbolClass, SymbolEnum, SymbolTypedef, SymbolTypeParam, SymbolTemplateParam:
		return true
	}
	return false
}

// IsTag reports class and enum bindings, the ones a non-type may hide.
func (k SymbolKind) IsTag() bool { return k == SymbolClass || k == SymbolEnum }

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint32

const (
	FlagStatic SymbolFlags = 1 << iota
	FlagExtern
	FlagInline
	FlagVirtual
	FlagConst
	FlagExplicit
	FlagFriend
	FlagDefined
	FlagDeleted
	FlagPure
	FlagTypedef
	FlagHidden // friend declared only inside a class; found by ADL
	FlagInjected
	FlagScoped // enum class
	FlagUnion
	FlagDependent // instance with dependent arguments
	FlagMutable
	FlagDefaulted
	FlagPack
	FlagAnonymous
	FlagTag // C struct/union/enum tag
	FlagExplicitSpec
	FlagPartialSpec
	FlagVariadic
	FlagAutoType // type comes from the initializer
	FlagTentative
)

var flagNames = []struct {
	f    SymbolFlags
	name string
}{
	{FlagStatic, "static"}, {FlagExtern, "extern"}, {FlagInline, "inline"},
	{FlagVirtual, "virtual"}, {FlagConst, "const"}, {FlagExplicit, "explicit"},
	{FlagFriend, "friend"}, {FlagDefined, "defined"}, {FlagDeleted, "deleted"},
	{FlagPure, "pure"}, {FlagTypedef, "typedef"}, {FlagHidden, "hidden"},
	{FlagInjected, "injected"}, {FlagScoped, "scoped"}, {FlagUnion, "union"},
	{FlagDependent, "dependent"}, {FlagMutable, "mutable"}, {FlagDefaulted, "defaulted"},
	{FlagPack, "pack"}, {FlagAnonymous, "anonymous"}, {FlagTag, "tag"},
	{FlagExplicitSpec, "explicit-specialization"}, {FlagPartialSpec, "partial-specialization"},
	{FlagVariadic, "variadic"}, {FlagAutoType, "auto"}, {FlagTentative, "tentative"},
}

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	for _, e := range flagNames {
		if f&e.f != 0 {
			labels = append(labels, e.name)
		}
	}
	return labels
}

// Linkage of a binding.
type Linkage uint8

const (
	LinkageNone Linkage = iota
	LinkageInternal
	LinkageExternal
)

func (l Linkage) String() string {
	switch l {
	case LinkageInternal:
		return "internal"
	case LinkageExternal:
		return "external"
	}
	return "none"
}

// ProblemKind classifies a failed resolution.
type ProblemKind uint8

const (
	ProblemNone ProblemKind = iota
	NameNotFound
	AmbiguousName
	InvalidOverload
	NoViableOverload
	AmbiguousOverload
	DeductionFailure
	RedefinitionConflict
	CircularReference
	InstantiationDepth
	InvalidType
	NotAClassOrNamespace
)

var problemNames = [...]string{
	ProblemNone:          "none",
	NameNotFound:         "name not found",
	AmbiguousName:        "ambiguous name",
	InvalidOverload:      "invalid overload",
	NoViableOverload:     "no viable overload",
	AmbiguousOverload:    "ambiguous overload",
	DeductionFailure:     "template argument deduction failed",
	RedefinitionConflict: "redefinition",
	CircularReference:    "circular reference",
	InstantiationDepth:   "instantiation depth exceeded",
	InvalidType:          "not a type",
	NotAClassOrNamespace: "not a class or namespace",
}

func (p ProblemKind) String() string {
	if int(p) < len(problemNames) {
		return problemNames[p]
	}
	return "problem"
}

// TemplateInfo is attached to class and function templates and to partial
// specializations.
type TemplateInfo struct {
	Params []SymbolID
	Depth  uint32
	// Partials and Explicit are kept on the primary template.
	Partials []SymbolID
	Explicit map[string]SymbolID
	// Primary and PatternArgs describe a partial specialization.
	Primary     SymbolID
	PatternArgs []types.TemplateArg
	// Decl is the TemplateDecl node of the first declaration.
	Decl ast.NodeID
}

// ParamInfo describes a template parameter binding.
type ParamInfo struct {
	Depth   uint32
	Index   uint32
	Pack    bool
	Default ast.NodeID // TypeId, expression or template name
	Owner   SymbolID   // the template, once known
}

// Key is the position of the parameter.
func (p *ParamInfo) Key() types.ParamKey {
	return types.ParamKey{Depth: p.Depth, Index: p.Index}
}

// InstanceInfo describes a template instance or a member of one.
type InstanceInfo struct {
	Template SymbolID // NoSymbolID for members of instances
	Pattern  SymbolID // primary, partial specialization or pattern member
	Args     []types.TemplateArg
	Bindings types.Bindings
	Key      string
}

// Symbol describes a named entity. Decls holds the declaring name nodes in
// source order; Def is the defining one, if any.
type Symbol struct {
	Name        source.StringID
	Kind        SymbolKind
	Type        types.TypeID
	Linkage     Linkage
	Scope       ScopeID
	Inner       ScopeID
	Decls       []ast.NodeID
	Def         ast.NodeID
	Flags       SymbolFlags
	Pos         uint32
	Access      Access
	Template    *TemplateInfo
	Instance    *InstanceInfo
	Param       *ParamInfo
	Specialized SymbolID
	Target      SymbolID
	Problem     ProblemKind
	Value       int64
	HasValue    bool
	// TemplateKey tells function templates apart from plain functions
	// and from each other when their signatures coincide.
	TemplateKey string
	// Node is the declaration construct, used for lazy work such as
	// evaluating enumerators and auto initializers.
	Node ast.NodeID
}

// IsProblem reports problem bindings.
func (s *Symbol) IsProblem() bool { return s.Kind == SymbolProblem }
