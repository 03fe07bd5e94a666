package ast

import (
	"cxxsema/internal/source"
	"cxxsema/internal/token"
)

type Hints struct{ Nodes uint }

// Builder owns the token slice of one translation unit and every node
// arena built over it.
type Builder struct {
	Tokens     []token.Token
	Expansions []token.Expansion

	Nodes       *Arena[Node]
	Names       *Arena[NameData]
	Decls       *Arena[DeclData]
	Specs       *Arena[SpecData]
	Classes     *Arena[ClassData]
	Declarators *Arena[DeclaratorData]
	Stmts       *Arena[StmtData]
	Exprs       *Arena[ExprData]

	Root   NodeID
	linked bool
}

func NewBuilder(tokens []token.Token, expansions []token.Expansion, hints Hints) *Builder {
	if hints.Nodes == 0 {
		hints.Nodes = uint(len(tokens)) + 16
	}
	n := hints.Nodes
	return &Builder{
		Tokens:      tokens,
		Expansions:  expansions,
		Nodes:       NewArena[Node](n),
		Names:       NewArena[NameData](n / 2),
		Decls:       NewArena[DeclData](n / 8),
		Specs:       NewArena[SpecData](n / 8),
		Classes:     NewArena[ClassData](n / 16),
		Declarators: NewArena[DeclaratorData](n / 8),
		Stmts:       NewArena[StmtData](n / 4),
		Exprs:       NewArena[ExprData](n / 2),
	}
}

// Mark is a snapshot of arena sizes used to discard a speculative parse.
type Mark struct {
	nodes, names, decls, specs, classes, declarators, stmts, exprs uint32
}

func (b *Builder) Mark() Mark {
	return Mark{
		nodes:       b.Nodes.Len(),
		names:       b.Names.Len(),
		decls:       b.Decls.Len(),
		specs:       b.Specs.Len(),
		classes:     b.Classes.Len(),
		declarators: b.Declarators.Len(),
		stmts:       b.Stmts.Len(),
		exprs:       b.Exprs.Len(),
	}
}

// Reset discards every node created after m.
func (b *Builder) Reset(m Mark) {
	b.Nodes.Truncate(m.nodes)
	b.Names.Truncate(m.names)
	b.Decls.Truncate(m.decls)
	b.Specs.Truncate(m.specs)
	b.Classes.Truncate(m.classes)
	b.Declarators.Truncate(m.declarators)
	b.Stmts.Truncate(m.stmts)
	b.Exprs.Truncate(m.exprs)
}

// SpanOf covers tokens [first, end); an empty range is an empty span at first.
func (b *Builder) SpanOf(first, end uint32) source.Span {
	if int(first) >= len(b.Tokens) {
		if len(b.Tokens) == 0 {
			return source.Span{}
		}
		last := b.Tokens[len(b.Tokens)-1].Span
		return source.Span{File: last.File, Start: last.End, End: last.End}
	}
	if end <= first {
		sp := b.Tokens[first].Span
		return source.Span{File: sp.File, Start: sp.Start, End: sp.Start}
	}
	return b.Tokens[first].Span.Cover(b.Tokens[end-1].Span)
}

func (b *Builder) newNode(kind NodeKind, first, end, payload uint32) NodeID {
	return NodeID(b.Nodes.Allocate(Node{
		Kind:    kind,
		Span:    b.SpanOf(first, end),
		First:   first,
		End:     end,
		Payload: payload,
	}))
}

func (b *Builder) NewName(kind NodeKind, first, end uint32, d NameData) NodeID {
	return b.newNode(kind, first, end, b.Names.Allocate(d))
}

func (b *Builder) NewDecl(kind NodeKind, first, end uint32, d DeclData) NodeID {
	return b.newNode(kind, first, end, b.Decls.Allocate(d))
}

func (b *Builder) NewSpec(first, end uint32, d SpecData) NodeID {
	return b.newNode(KindDeclSpec, first, end, b.Specs.Allocate(d))
}

func (b *Builder) NewClass(kind NodeKind, first, end uint32, d ClassData) NodeID {
	return b.newNode(kind, first, end, b.Classes.Allocate(d))
}

func (b *Builder) NewDeclarator(first, end uint32, d DeclaratorData) NodeID {
	return b.newNode(KindDeclarator, first, end, b.Declarators.Allocate(d))
}

func (b *Builder) NewStmt(kind NodeKind, first, end uint32, d StmtData) NodeID {
	return b.newNode(kind, first, end, b.Stmts.Allocate(d))
}

func (b *Builder) NewExpr(kind NodeKind, first, end uint32, d ExprData) NodeID {
	return b.newNode(kind, first, end, b.Exprs.Allocate(d))
}

// SetRange moves the token range of an existing node.
func (b *Builder) SetRange(id NodeID, first, end uint32) {
	n := b.Node(id)
	n.First, n.End = first, end
	n.Span = b.SpanOf(first, end)
}

func (b *Builder) Node(id NodeID) *Node {
	return b.Nodes.Get(uint32(id))
}

func (b *Builder) Kind(id NodeID) NodeKind {
	if n := b.Node(id); n != nil {
		return n.Kind
	}
	return KindInvalid
}

func (b *Builder) payload(id NodeID, want payloadClass) uint32 {
	n := b.Node(id)
	if n == nil || n.Kind.payload() != want {
		return 0
	}
	return n.Payload
}

func (b *Builder) Name(id NodeID) *NameData { return b.Names.Get(b.payload(id, payloadName)) }
func (b *Builder) Decl(id NodeID) *DeclData { return b.Decls.Get(b.payload(id, payloadDecl)) }
func (b *Builder) Spec(id NodeID) *SpecData { return b.Specs.Get(b.payload(id, payloadSpec)) }
func (b *Builder) Class(id NodeID) *ClassData {
	return b.Classes.Get(b.payload(id, payloadClassLike))
}
func (b *Builder) Declarator(id NodeID) *DeclaratorData {
	return b.Declarators.Get(b.payload(id, payloadDeclarator))
}
func (b *Builder) Stmt(id NodeID) *StmtData { return b.Stmts.Get(b.payload(id, payloadStmt)) }
func (b *Builder) Expr(id NodeID) *ExprData { return b.Exprs.Get(b.payload(id, payloadExpr)) }

// Parent is valid after LinkParents.
func (b *Builder) Parent(id NodeID) NodeID {
	if n := b.Node(id); n != nil {
		return n.Parent
	}
	return NoNode
}

// Len reports the number of nodes.
func (b *Builder) Len() int { return int(b.Nodes.Len()) }
