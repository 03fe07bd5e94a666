package parser

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/token"
)

type declMode uint8

const (
	dmNamed    declMode = iota // variables, members, functions
	dmAbstract                 // type-ids
	dmEither                   // parameters
	dmNew                      // new-type-id: no function suffix
)

type declInfo struct {
	name       ast.NodeID
	nameInfo   nameInfo
	isFunc     bool
	paramScope int // sketch scope holding the parameters of a function
}

// parseDeclarator parses pointer operators, the declarator-id (or a
// parenthesised inner declarator) and array/function suffixes.
func (p *Parser) parseDeclarator(mode declMode) (ast.NodeID, declInfo, bool) {
	info := declInfo{paramScope: -1}
	if !p.enter() {
		return ast.NoNode, info, false
	}
	defer p.leave()
	start := p.pos
	var d ast.DeclaratorData
	if !p.parsePtrOps(&d, true) {
		return ast.NoNode, info, false
	}
	if p.opts.CXX && p.at(token.Ellipsis) {
		p.next()
		d.Pack = true
	}

	switch {
	case p.at(token.LParen) && (mode == dmNamed || !p.parenStartsParams(1)) && mode != dmNew:
		p.next()
		inner, ii, ok := p.parseDeclarator(mode)
		if !ok {
			return ast.NoNode, info, false
		}
		if !p.expect(token.RParen, "')' after declarator") {
			return ast.NoNode, info, false
		}
		d.Nested = inner
		info.name, info.nameInfo = ii.name, ii.nameInfo
	case mode != dmAbstract && mode != dmNew && p.atNameStart():
		name, ni, ok := p.parseName(ast.RoleDeclaration, nameDecl)
		if !ok {
			return ast.NoNode, info, false
		}
		d.Name = name
		info.name, info.nameInfo = name, ni
	case mode == dmNamed:
		return ast.NoNode, info, p.fail("expected declarator")
	}

	for {
		switch p.kind() {
		case token.LBracket:
			if p.opts.CXX && p.peekKind(1) == token.LBracket {
				return ast.NoNode, info, p.fail("unexpected attribute")
			}
			p.next()
			var size ast.NodeID
			if !p.at(token.RBracket) {
				sz, ok := p.parenthesizedUntil(token.RBracket, p.parseExpression)
				if !ok {
					return ast.NoNode, info, false
				}
				size = sz
			} else {
				p.next()
			}
			d.Suffixes = append(d.Suffixes, ast.Suffix{Kind: ast.SuffixArray, Size: size})
			continue
		case token.LParen:
			if mode == dmNew {
				break
			}
			if mode == dmNamed && d.Name != ast.NoNode && len(d.Suffixes) == 0 && !p.parenStartsParams(1) {
				// initializer, not parameters
				break
			}
			qualScope := -1
			if info.nameInfo.qualified && d.Name != ast.NoNode {
				qualScope = p.qualifierScope(d.Name)
			}
			suffix, scope, ok := p.parseFunctionSuffix(qualScope)
			if !ok {
				return ast.NoNode, info, false
			}
			if len(d.Suffixes) == 0 && d.Nested == ast.NoNode {
				info.isFunc = true
				info.paramScope = scope
			}
			d.Suffixes = append(d.Suffixes, suffix)
			continue
		}
		break
	}
	if p.pos == start {
		return ast.NoNode, info, true
	}
	return p.b.NewDeclarator(u32(start), p.end(), d), info, true
}

// parsePtrOps parses *, &, && and C::* with their cv-qualifiers.
func (p *Parser) parsePtrOps(d *ast.DeclaratorData, memberPtr bool) bool {
	for {
		var op ast.PtrOp
		switch p.kind() {
		case token.Star:
			op.Kind = ast.PtrPointer
			p.next()
		case token.Amp:
			if !p.opts.CXX {
				return true
			}
			op.Kind = ast.PtrLRef
			p.next()
		case token.AndAnd:
			if !p.opts.CXX {
				return true
			}
			op.Kind = ast.PtrRRef
			p.next()
		case token.Ident, token.ColonColon:
			if !p.opts.CXX || !memberPtr {
				return true
			}
			class, ok := p.try(func() (ast.NodeID, bool) {
				name, _, ok := p.parseName(ast.RoleReference, nameExpr)
				if !ok || !p.at(token.ColonColon) || p.peekKind(1) != token.Star {
					return ast.NoNode, false
				}
				p.next()
				p.next()
				return name, true
			})
			if !ok {
				return true
			}
			op.Kind = ast.PtrMember
			op.Class = class
		default:
			return true
		}
		op.CV = p.parseCV()
		d.Ptrs = append(d.Ptrs, op)
	}
}

func (p *Parser) parseCV() ast.CV {
	var cv ast.CV
	for {
		switch p.kind() {
		case token.KwConst:
			cv |= ast.CVConst
		case token.KwVolatile:
			cv |= ast.CVVolatile
		case token.KwRestrict:
			cv |= ast.CVRestrict
		default:
			return cv
		}
		p.next()
	}
}

// parenStartsParams decides whether the '(' at offset n-1 opens a parameter
// list: true when the next token begins a parameter declaration.
func (p *Parser) parenStartsParams(n int) bool {
	t := p.peek(n)
	switch t.Kind {
	case token.RParen, token.Ellipsis:
		return true
	case token.Ident, token.ColonColon:
	default:
		return t.Kind.IsDeclSpecifier() || t.Kind == token.KwDecltype ||
			(t.Kind == token.KwAuto && p.opts.CXX)
	}
	var ni nameInfo
	var after token.Kind
	p.lookahead(func() {
		p.pos += n
		var ok bool
		if _, ni, ok = p.parseName(ast.RoleReference, nameExpr); ok {
			after = p.kind()
		}
	})
	switch {
	case ni.isType():
		return true
	case ni.known && !ni.dependent:
		return false
	}
	return after == token.Ident
}

// lookahead runs fn and undoes everything it did.
func (p *Parser) lookahead(fn func()) {
	s := p.save()
	fn()
	p.restore(s)
}

// parseFunctionSuffix parses `( params ) cv ref-qualifier exception-spec
// -> trailing`. Parameters are declared in a fresh prototype scope whose
// index is returned for the function body.
func (p *Parser) parseFunctionSuffix(qualScope int) (ast.Suffix, int, bool) {
	s := ast.Suffix{Kind: ast.SuffixFunction}
	p.next()
	saved := p.sketch.cur
	scope := p.sketch.push(psProto)
	if qualScope >= 0 {
		p.sketch.addBase(scope, qualScope)
	}
	ok := p.parseParams(&s)
	p.sketch.cur = saved
	if !ok {
		return s, -1, false
	}
	s.CV = p.parseCV()
	if p.opts.CXX {
		switch p.kind() {
		case token.Amp:
			s.HasRef, s.RefQual = true, ast.PtrLRef
			p.next()
		case token.AndAnd:
			s.HasRef, s.RefQual = true, ast.PtrRRef
			p.next()
		}
		if !p.parseExceptionSpec(&s) {
			return s, -1, false
		}
		for p.at(token.Ident) && (p.tok().Text == "override" || p.tok().Text == "final") {
			p.next()
		}
		if p.at(token.Arrow) {
			p.next()
			saved := p.sketch.cur
			p.sketch.cur = scope
			t, ok := p.parseTypeID()
			p.sketch.cur = saved
			if !ok {
				return s, -1, false
			}
			s.Trailing = t
		}
		for p.at(token.Ident) && (p.tok().Text == "override" || p.tok().Text == "final") {
			p.next()
		}
	}
	return s, scope, true
}

func (p *Parser) parseParams(s *ast.Suffix) bool {
	if p.eat(token.RParen) {
		return true
	}
	for {
		if p.at(token.Ellipsis) {
			p.next()
			s.Variadic = true
			return p.expect(token.RParen, "')' after '...'")
		}
		param, ok := p.parseParamDecl()
		if !ok {
			return false
		}
		s.Params = append(s.Params, param)
		if p.eat(token.Comma) {
			continue
		}
		if p.opts.CXX && p.at(token.Ellipsis) {
			// f(int...)
			p.next()
			s.Variadic = true
		}
		return p.expect(token.RParen, "')' after parameters")
	}
}

func (p *Parser) parseParamDecl() (ast.NodeID, bool) {
	start := p.pos
	specs, si, ok := p.parseDeclSpecs(specParam)
	if !ok {
		return ast.NoNode, false
	}
	if !si.hasType {
		return ast.NoNode, p.fail("expected parameter declaration")
	}
	decl, di, ok := p.parseDeclarator(dmEither)
	if !ok {
		return ast.NoNode, false
	}
	var def ast.NodeID
	if p.eat(token.Assign) {
		v, ok := p.parseInitClause()
		if !ok {
			return ast.NoNode, false
		}
		def = v
	}
	if di.name != ast.NoNode && !di.nameInfo.qualified {
		p.sketch.declare(p.sketch.cur, di.nameInfo.text, nkValue)
	}
	return p.b.NewDecl(ast.KindParamDecl, u32(start), p.end(), ast.DeclData{
		Specs:      specs,
		Declarator: decl,
		Body:       def,
	}), true
}

func (p *Parser) parseExceptionSpec(s *ast.Suffix) bool {
	switch p.kind() {
	case token.KwThrow:
		p.next()
		if !p.expect(token.LParen, "'(' after throw") {
			return false
		}
		for !p.at(token.RParen) {
			if p.eat(token.Ellipsis) {
				continue
			}
			t, ok := p.parseTypeID()
			if !ok {
				return false
			}
			s.Throw = append(s.Throw, t)
			if !p.eat(token.Comma) {
				break
			}
		}
		return p.expect(token.RParen, "')' after exception specification")
	case token.KwNoexcept:
		p.next()
		if p.eat(token.LParen) {
			_, ok := p.parenthesized(p.parseExpression)
			return ok
		}
	}
	return true
}

// parseTypeID parses a type-specifier-seq and an abstract declarator.
func (p *Parser) parseTypeID() (ast.NodeID, bool) {
	return p.parseTypeIDMode(dmAbstract)
}

func (p *Parser) parseTypeIDMode(mode declMode) (ast.NodeID, bool) {
	start := p.pos
	specs, si, ok := p.parseDeclSpecs(specTypeOnly)
	if !ok {
		return ast.NoNode, false
	}
	if !si.hasType {
		return ast.NoNode, p.fail("expected type")
	}
	decl, _, ok := p.parseDeclarator(mode)
	if !ok {
		return ast.NoNode, false
	}
	return p.b.NewDecl(ast.KindTypeID, u32(start), p.end(), ast.DeclData{Specs: specs, Declarator: decl}), true
}

// startsTypeID reports whether the current token can begin a type-id that
// is not also an expression.
func (p *Parser) startsTypeID() bool {
	k := p.kind()
	switch {
	case k.IsBuiltinType(), k == token.KwConst, k == token.KwVolatile,
		k == token.KwStruct, k == token.KwClass, k == token.KwUnion, k == token.KwEnum,
		k == token.KwTypename, k == token.KwDecltype:
		return true
	case k == token.KwAuto:
		return p.opts.CXX
	case k != token.Ident && k != token.ColonColon:
		return false
	}
	var ni nameInfo
	var after token.Kind
	p.lookahead(func() {
		var ok bool
		if _, ni, ok = p.parseName(ast.RoleReference, nameExpr); ok {
			after = p.kind()
		}
	})
	if ni.isType() {
		return true
	}
	if ni.known && !ni.dependent {
		return false
	}
	switch after {
	case token.Comma, token.Gt, token.Shr, token.Star, token.Amp, token.AndAnd, token.Ellipsis:
		return true
	}
	return false
}
