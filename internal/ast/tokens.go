package ast

import (
	"errors"
	"strings"

	"cxxsema/internal/token"
)

// ErrExpansionOverlapsBoundary is returned by syntax queries whose token
// range starts or ends inside a macro expansion that also covers tokens
// outside of the range.
var ErrExpansionOverlapsBoundary = errors.New("macro expansion overlaps node boundary")

// TokenView is a read-only window of the translation unit's tokens.
type TokenView struct {
	Tokens []token.Token
}

func (v TokenView) Len() int { return len(v.Tokens) }

func (v TokenView) Empty() bool { return len(v.Tokens) == 0 }

// Text joins the token spellings with single spaces.
func (v TokenView) Text() string {
	parts := make([]string, len(v.Tokens))
	for i, t := range v.Tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

// outermost maps an expansion to the invocation written in the file.
func (b *Builder) outermost(id token.ExpansionID) token.ExpansionID {
	for id != token.NoExpansion && int(id) < len(b.Expansions) {
		p := b.Expansions[id].Parent
		if p == token.NoExpansion {
			break
		}
		id = p
	}
	return id
}

// sameExpansion reports whether tokens i and j come from one invocation.
func (b *Builder) sameExpansion(i, j int) bool {
	if i < 0 || j < 0 || i >= len(b.Tokens) || j >= len(b.Tokens) {
		return false
	}
	ei, ej := b.Tokens[i].Expansion, b.Tokens[j].Expansion
	if ei == token.NoExpansion || ej == token.NoExpansion {
		return false
	}
	return b.outermost(ei) == b.outermost(ej)
}

// cut reports whether a boundary between tokens i-1 and i splits an expansion.
func (b *Builder) cut(i int) bool {
	return b.sameExpansion(i-1, i)
}

func (b *Builder) view(first, end int) (TokenView, error) {
	if first < 0 {
		first = 0
	}
	if end > len(b.Tokens) {
		end = len(b.Tokens)
	}
	if end <= first {
		return TokenView{}, nil
	}
	if b.cut(first) || b.cut(end) {
		return TokenView{}, ErrExpansionOverlapsBoundary
	}
	return TokenView{Tokens: b.Tokens[first:end]}, nil
}

// Syntax returns the tokens of id.
func (b *Builder) Syntax(id NodeID) (TokenView, error) {
	n := b.Node(id)
	if n == nil {
		return TokenView{}, nil
	}
	return b.view(int(n.First), int(n.End))
}

// siblings returns the previous and next sibling of id (NoNode if none).
func (b *Builder) siblings(id NodeID) (prev, next NodeID) {
	p := b.Parent(id)
	if p == NoNode {
		return NoNode, NoNode
	}
	kids := b.Children(p)
	for i, c := range kids {
		if c != id {
			continue
		}
		if i > 0 {
			prev = kids[i-1]
		}
		if i+1 < len(kids) {
			next = kids[i+1]
		}
		return prev, next
	}
	return NoNode, NoNode
}

// LeadingSyntax returns the tokens between the end of the previous sibling
// (or the start of the parent) and the start of id.
func (b *Builder) LeadingSyntax(id NodeID) (TokenView, error) {
	n := b.Node(id)
	if n == nil {
		return TokenView{}, nil
	}
	start := 0
	prev, _ := b.siblings(id)
	switch {
	case prev != NoNode:
		start = int(b.Node(prev).End)
	case n.Parent != NoNode:
		start = int(b.Node(n.Parent).First)
	}
	return b.view(start, int(n.First))
}

// TrailingSyntax returns the tokens between the end of id and the start of
// the next sibling (or the end of the parent).
func (b *Builder) TrailingSyntax(id NodeID) (TokenView, error) {
	n := b.Node(id)
	if n == nil {
		return TokenView{}, nil
	}
	end := len(b.Tokens)
	if end > 0 && b.Tokens[end-1].Kind == token.EOF {
		end--
	}
	_, next := b.siblings(id)
	switch {
	case next != NoNode:
		end = int(b.Node(next).First)
	case n.Parent != NoNode:
		end = int(b.Node(n.Parent).End)
	}
	return b.view(int(n.End), end)
}

// InMacroExpansion reports whether every token of id was produced by one
// macro invocation.
func (b *Builder) InMacroExpansion(id NodeID) bool {
	n := b.Node(id)
	if n == nil || n.End <= n.First {
		return false
	}
	first, last := int(n.First), int(n.End)-1
	if b.Tokens[first].Expansion == token.NoExpansion {
		return false
	}
	return first == last || b.sameExpansion(first, last)
}
