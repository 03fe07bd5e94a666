package parser

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/token"
)

// Ambiguity resolution between declarations and expressions. The sketch
// supplies what is known about names; unknown names fall back to the shape
// of the surrounding tokens.

type verdict uint8

const (
	exprOnly verdict = iota
	declFirst
	declOnly
)

// judgeStatement decides how a block-scope statement starts.
func (p *Parser) judgeStatement() verdict {
	k := p.kind()
	switch {
	case k.IsBuiltinType(), k == token.KwDecltype, k == token.KwTypename:
		return declFirst
	case k == token.KwAuto:
		return declOnly
	case k.IsDeclSpecifier(), k == token.KwUsing, k == token.KwNamespace,
		k == token.KwStaticAssert, k == token.KwTemplate:
		return declOnly
	case k != token.Ident && !(k == token.ColonColon && p.opts.CXX):
		return exprOnly
	}
	if p.opts.CXX && k == token.ColonColon && (p.peekKind(1) == token.KwNew || p.peekKind(1) == token.KwDelete) {
		return exprOnly
	}

	var ni nameInfo
	var after, after2, after3 token.Kind
	parsed := false
	p.lookahead(func() {
		var ok bool
		if _, ni, ok = p.parseName(ast.RoleReference, nameExpr); ok {
			parsed = true
			after, after2, after3 = p.kind(), p.peekKind(1), p.peekKind(2)
		}
	})
	if !parsed {
		return exprOnly
	}
	switch {
	case ni.isType():
		return declFirst
	case ni.known && !ni.dependent:
		return exprOnly
	}
	// unknown or dependent leading name
	switch after {
	case token.Ident:
		return declFirst
	case token.Star, token.Amp:
		if after2 == token.Ident {
			switch after3 {
			case token.Semicolon, token.Assign, token.Comma, token.LBracket:
				return declFirst
			}
		}
	}
	return exprOnly
}

// parenIsCast decides whether the '(' at the current position starts a
// cast. It is a cast when the parenthesised tokens name a type that no
// variable shadows, or when an unknown name is followed by an operand.
func (p *Parser) parenIsCast() bool {
	t := p.peek(1)
	switch {
	case t.Kind.IsBuiltinType(), t.Kind == token.KwConst, t.Kind == token.KwVolatile,
		t.Kind == token.KwStruct, t.Kind == token.KwUnion, t.Kind == token.KwEnum,
		t.Kind == token.KwClass, t.Kind == token.KwTypename, t.Kind == token.KwDecltype:
		return true
	case t.Kind != token.Ident && !(t.Kind == token.ColonColon && p.opts.CXX):
		return false
	}
	var ni nameInfo
	var after, after2 token.Kind
	p.lookahead(func() {
		p.pos++
		var ok bool
		if _, ni, ok = p.parseName(ast.RoleReference, nameExpr); ok {
			after, after2 = p.kind(), p.peekKind(1)
		}
	})
	if ni.isType() {
		return true
	}
	if ni.known && !ni.dependent {
		return false
	}
	switch after {
	case token.Star:
		return after2 == token.RParen || after2 == token.Star
	case token.RParen:
		return startsOperandOnly(after2)
	}
	return false
}

// startsOperandOnly lists tokens that can begin an operand but cannot
// continue an expression.
func startsOperandOnly(k token.Kind) bool {
	switch k {
	case token.Ident, token.IntLit, token.FloatLit, token.CharLit, token.StringLit,
		token.Bang, token.Tilde, token.KwThis, token.KwSizeof, token.KwNew,
		token.KwTrue, token.KwFalse, token.KwNullptr:
		return true
	}
	return false
}

// startsCastOperand is checked after `(type)`.
func startsCastOperand(k token.Kind) bool {
	if startsOperandOnly(k) {
		return true
	}
	switch k {
	case token.LParen, token.Plus, token.Minus, token.Star, token.Amp,
		token.PlusPlus, token.MinusMinus, token.ColonColon, token.LBrace,
		token.KwDelete, token.KwStaticCast, token.KwDynamicCast,
		token.KwConstCast, token.KwReinterpretCast, token.KwTypeid, token.KwThrow:
		return true
	}
	return k.IsBuiltinType()
}
