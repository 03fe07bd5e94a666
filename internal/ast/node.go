package ast

import (
	"cxxsema/internal/source"
	"cxxsema/internal/token"
)

// NodeID is a 1-based index into Builder.Nodes; NoNode is absent.
type NodeID uint32

const NoNode NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNode }

// Node is the common header of every syntax node. First and End delimit
// the node's tokens in Builder.Tokens (End is exclusive).
type Node struct {
	Kind    NodeKind
	Span    source.Span
	First   uint32
	End     uint32
	Parent  NodeID
	Payload uint32
}

// NameRole tells whether a name introduces an entity or refers to one.
type NameRole uint8

const (
	RoleReference NameRole = iota
	RoleDeclaration
	RoleDefinition
)

func (r NameRole) String() string {
	switch r {
	case RoleDeclaration:
		return "decl"
	case RoleDefinition:
		return "def"
	}
	return "ref"
}

// ImplicitKind says which hidden call an implicit name stands for.
type ImplicitKind uint8

const (
	ImplicitNone ImplicitKind = iota
	ImplicitOperator
	ImplicitCall      // operator() on a class object
	ImplicitSubscript // operator[]
	ImplicitArrow     // operator->
	ImplicitCtor      // constructor chosen by an initializer
	ImplicitConversion
)

// NameData is the payload of every name kind.
//
//	Ident            Text
//	Qualified        Global, Segments (qualifiers), Last (final name)
//	TemplateID       Template (Ident/OperatorName), Args (TypeId or expr nodes), TemplateKw
//	OperatorName     Op, Array (new[]/delete[]), Text is the spelling
//	ConversionName   Type (TypeId)
//	DestructorName   Target (Ident/TemplateID)
//	ImplicitName     Implicit, Op, Text
type NameData struct {
	Role       NameRole
	Text       string
	Op         token.Kind
	Array      bool
	Global     bool
	TemplateKw bool
	Segments   []NodeID
	Last       NodeID
	Template   NodeID
	Args       []NodeID
	Type       NodeID
	Target     NodeID
	Implicit   ImplicitKind
}

type DeclFlags uint16

const (
	DeclInline        DeclFlags = 1 << iota // inline namespace
	DeclExtern                              // extern template
	DeclTypename                            // using typename / typename param
	DeclPack                                // parameter pack
	DeclExplicitSpec                        // template<> prefix
	DeclBraceInit                           // CtorInit with braces
	DeclDefaulted                           // = default
	DeclDeleted                             // = delete
	DeclVariadic                            // function-try or handler with ...
	DeclNonType                             // ParamDecl used as a template parameter
)

// DeclData is the payload of declarations, parameters, type-ids and
// mem-initializers.
//
//	TU                    List (top-level declarations)
//	SimpleDecl            Specs, List (declarators)
//	FunctionDef           Specs, Declarator, Body (Compound), Inits (CtorInit), Handlers (Catch)
//	Namespace             Name (0 for unnamed), List, Flags&DeclInline
//	NamespaceAlias        Name, Target
//	UsingDirective        Target
//	UsingDecl             Target, Flags&DeclTypename
//	AliasDecl             Name, Body (TypeId)
//	TemplateDecl          Params, Body (the templated declaration)
//	ExplicitInstantiation Body, Flags&DeclExtern
//	LinkageSpec           Lang, List
//	StaticAssert          Body (expr)
//	AccessSpec            Access
//	ParamDecl             Specs, Declarator, Body (default argument)
//	TypeParam             Name, Body (default TypeId), Key, Flags&DeclPack
//	TemplateTemplateParam Params, Name, Body (default name), Flags&DeclPack
//	TypeID                Specs, Declarator (abstract)
//	CtorInit              Name, List (arguments), Flags&DeclBraceInit
type DeclData struct {
	Specs      NodeID
	Declarator NodeID
	Body       NodeID
	Name       NodeID
	Target     NodeID
	List       []NodeID
	Params     []NodeID
	Inits      []NodeID
	Handlers   []NodeID
	Flags      DeclFlags
	Key        token.Kind
	Access     token.Kind
	Lang       string
}

type StorageFlags uint16

const (
	StorTypedef StorageFlags = 1 << iota
	StorStatic
	StorExtern
	StorRegister
	StorMutable
	StorFriend
	StorInline
	StorVirtual
	StorExplicit
	StorConstexpr
	StorAuto // C storage class
)

type CV uint8

const (
	CVConst CV = 1 << iota
	CVVolatile
	CVRestrict
)

// SpecData is the payload of a DeclSpec: storage class, cv and the type
// part (builtin keywords or one type node: name, ClassSpec, EnumSpec,
// ElaboratedSpec).
type SpecData struct {
	Storage  StorageFlags
	CV       CV
	Builtin  []token.Kind
	Type     NodeID
	Decltype NodeID
	AutoType bool
	Typename bool
}

// ClassData is the payload of class-like specifiers.
//
//	ClassSpec       Key, Name, Bases, Members
//	EnumSpec        Name, Scoped, Underlying, Members (Enumerator), Complete
//	ElaboratedSpec  Key, Name
//	BaseSpec        Name, Virtual, Access
//	Enumerator      Name, Value
type ClassData struct {
	Key        token.Kind
	Name       NodeID
	Bases      []NodeID
	Members    []NodeID
	Scoped     bool
	Underlying NodeID
	Complete   bool
	Virtual    bool
	Access     token.Kind
	Value      NodeID
}

type PtrOpKind uint8

const (
	PtrPointer PtrOpKind = iota
	PtrLRef
	PtrRRef
	PtrMember
)

// PtrOp is one *, &, && or C::* in front of a declarator.
type PtrOp struct {
	Kind  PtrOpKind
	CV    CV
	Class NodeID // name of C in C::*
}

type SuffixKind uint8

const (
	SuffixArray SuffixKind = iota
	SuffixFunction
)

// Suffix is one [] or (params) after the declarator id.
type Suffix struct {
	Kind     SuffixKind
	Size     NodeID // array bound expression
	Params   []NodeID
	Variadic bool
	CV       CV
	RefQual  PtrOpKind // PtrLRef/PtrRRef when present
	HasRef   bool
	Trailing NodeID // trailing return TypeId
	Throw    []NodeID
}

type InitKind uint8

const (
	InitNone InitKind = iota
	InitAssign
	InitParen
	InitBrace
)

// DeclaratorData is the payload of a (possibly abstract) declarator.
// Nested holds a parenthesised inner declarator: in `int (*f)(int)` the
// outer declarator has the function suffix and Nested has the pointer.
type DeclaratorData struct {
	Ptrs     []PtrOp
	Name     NodeID
	Nested   NodeID
	Suffixes []Suffix
	Init     NodeID
	InitKind InitKind
	BitWidth NodeID
	Pure     bool
	Pack     bool
	Implicit NodeID // constructor chosen by the initializer
}

// StmtData is the payload of statements.
//
//	Compound  List
//	DeclStmt  A (declaration)
//	ExprStmt  A
//	If        A (condition), B (then), C (else)
//	While     A (condition), B (body)
//	Do        B (body), A (condition)
//	For       A (init statement), B (condition), C (increment), D (body)
//	Switch    A, B
//	Case      A (value), B (statement)
//	Default   B
//	Return    A
//	Goto      A (label name)
//	Labeled   A (label name), B
//	Try       A (body), List (handlers)
//	Catch     A (ParamDecl or 0 for ...), B (body)
type StmtData struct {
	A, B, C, D NodeID
	List       []NodeID
}

type ExprFlags uint8

const (
	ExprGlobal ExprFlags = 1 << iota // ::new, ::delete
	ExprArray                        // delete[], new T[n]
	ExprBrace                        // T{...}
	ExprParenInit                    // new T(...)
)

// ExprData is the payload of expressions.
//
//	Literal       Op (literal token kind), Text
//	IdExpr        A (name)
//	Binary        Op, A, B, Implicit
//	Unary         Op, A, Implicit
//	Postfix       Op (++/--), A, Implicit
//	Call          A (callee), List, Implicit (operator() or constructor)
//	Subscript     A, B, Implicit
//	Member        Op (Dot/Arrow), A (object), B (name), Implicit (operator->)
//	Cast          Op (LParen for C casts, KwStaticCast...), Type, A
//	Conditional   A, B, C
//	Sizeof        A or Type
//	New           Type, List (placement), B (initializer), Implicit
//	Delete        A, Flags
//	Paren         A
//	InitList      List
//	ExprList      List (parenthesised initializer)
//	Throw         A
//	TypeConstruct Type, List, Flags&ExprBrace, Implicit
//	TypeidExpr    A or Type
type ExprData struct {
	Op       token.Kind
	A, B, C  NodeID
	List     []NodeID
	Type     NodeID
	Implicit NodeID
	Flags    ExprFlags
	Text     string
}
