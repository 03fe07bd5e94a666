package parser

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/token"
)

var binaryPrec = map[token.Kind]int{
	token.OrOr:      1,
	token.AndAnd:    2,
	token.Pipe:      3,
	token.Caret:     4,
	token.Amp:       5,
	token.EqEq:      6,
	token.BangEq:    6,
	token.Lt:        7,
	token.Gt:        7,
	token.LtEq:      7,
	token.GtEq:      7,
	token.Shl:       8,
	token.Shr:       8,
	token.Plus:      9,
	token.Minus:     9,
	token.Star:      10,
	token.Slash:     10,
	token.Percent:   10,
	token.DotStar:   11,
	token.ArrowStar: 11,
}

// implicitOp attaches an implicit name for the operator token at i. Only
// C++ has overloaded operators.
func (p *Parser) implicitOp(i int, kind ast.ImplicitKind, op token.Kind) ast.NodeID {
	if !p.opts.CXX {
		return ast.NoNode
	}
	text := "operator" + op.String()
	switch kind {
	case ast.ImplicitCall:
		text = "operator()"
	case ast.ImplicitSubscript:
		text = "operator[]"
	case ast.ImplicitCtor:
		text = "constructor"
	}
	return p.b.NewName(ast.KindImplicitName, u32(i), u32(i+1), ast.NameData{Implicit: kind, Op: op, Text: text})
}

// parseExpression parses a comma expression.
func (p *Parser) parseExpression() (ast.NodeID, bool) {
	start := p.pos
	lhs, ok := p.parseAssign()
	if !ok {
		return ast.NoNode, false
	}
	for p.at(token.Comma) {
		i := p.next()
		rhs, ok := p.parseAssign()
		if !ok {
			return ast.NoNode, false
		}
		lhs = p.b.NewExpr(ast.KindBinary, u32(start), p.end(), ast.ExprData{
			Op: token.Comma, A: lhs, B: rhs, Implicit: p.implicitOp(i, ast.ImplicitOperator, token.Comma),
		})
	}
	return lhs, true
}

// parseAssign parses assignment, conditional and throw expressions.
func (p *Parser) parseAssign() (ast.NodeID, bool) {
	if !p.enter() {
		return ast.NoNode, false
	}
	defer p.leave()
	start := p.pos
	if p.opts.CXX && p.at(token.KwThrow) {
		p.next()
		var v ast.NodeID
		if !p.at(token.Semicolon) && !p.at(token.RParen) && !p.at(token.Comma) && !p.at(token.Colon) {
			e, ok := p.parseAssign()
			if !ok {
				return ast.NoNode, false
			}
			v = e
		}
		return p.b.NewExpr(ast.KindThrow, u32(start), p.end(), ast.ExprData{A: v}), true
	}
	lhs, ok := p.parseBinary(1)
	if !ok {
		return ast.NoNode, false
	}
	if p.at(token.Question) {
		p.next()
		mid, ok := p.withoutNoGT(p.parseExpression)
		if !ok || !p.expect(token.Colon, "':' in conditional expression") {
			return ast.NoNode, false
		}
		rhs, ok := p.parseAssign()
		if !ok {
			return ast.NoNode, false
		}
		return p.b.NewExpr(ast.KindConditional, u32(start), p.end(), ast.ExprData{A: lhs, B: mid, C: rhs}), true
	}
	if k := p.kind(); k.IsAssignOp() && !(p.noGT > 0 && k == token.ShrAssign) {
		i := p.next()
		rhs, ok := p.parseInitClause()
		if !ok {
			return ast.NoNode, false
		}
		return p.b.NewExpr(ast.KindBinary, u32(start), p.end(), ast.ExprData{
			Op: k, A: lhs, B: rhs, Implicit: p.implicitOp(i, ast.ImplicitOperator, k),
		}), true
	}
	return lhs, true
}

// parseConditional parses a constant-expression.
func (p *Parser) parseConditional() (ast.NodeID, bool) {
	start := p.pos
	lhs, ok := p.parseBinary(1)
	if !ok {
		return ast.NoNode, false
	}
	if !p.at(token.Question) {
		return lhs, true
	}
	p.next()
	mid, ok := p.withoutNoGT(p.parseExpression)
	if !ok || !p.expect(token.Colon, "':' in conditional expression") {
		return ast.NoNode, false
	}
	rhs, ok := p.parseAssign()
	if !ok {
		return ast.NoNode, false
	}
	return p.b.NewExpr(ast.KindConditional, u32(start), p.end(), ast.ExprData{A: lhs, B: mid, C: rhs}), true
}

// parseBinary is precedence climbing over the binary operators. Inside
// template arguments '>' and '>>' close the list instead.
func (p *Parser) parseBinary(minPrec int) (ast.NodeID, bool) {
	start := p.pos
	lhs, ok := p.parseCast()
	if !ok {
		return ast.NoNode, false
	}
	for {
		k := p.kind()
		prec, isOp := binaryPrec[k]
		if !isOp || prec < minPrec || p.halfShr {
			return lhs, true
		}
		if p.noGT > 0 && (k == token.Gt || k == token.Shr) {
			return lhs, true
		}
		if !p.opts.CXX && (k == token.DotStar || k == token.ArrowStar) {
			return lhs, true
		}
		i := p.next()
		rhs, ok := p.parseBinary(prec + 1)
		if !ok {
			return ast.NoNode, false
		}
		lhs = p.b.NewExpr(ast.KindBinary, u32(start), p.end(), ast.ExprData{
			Op: k, A: lhs, B: rhs, Implicit: p.implicitOp(i, ast.ImplicitOperator, k),
		})
	}
}

// parseCast parses `(type) operand` when the parentheses hold a type.
func (p *Parser) parseCast() (ast.NodeID, bool) {
	if p.at(token.LParen) && p.parenIsCast() {
		id, ok := p.try(func() (ast.NodeID, bool) {
			start := p.next()
			typ, ok := p.withoutNoGT(p.parseTypeID)
			if !ok || !p.expect(token.RParen, "')' after type") {
				return ast.NoNode, false
			}
			if !startsCastOperand(p.kind()) {
				return ast.NoNode, p.fail("expected expression after cast")
			}
			var operand ast.NodeID
			if p.at(token.LBrace) {
				// compound literal
				operand, ok = p.parseBracedInit()
			} else {
				operand, ok = p.parseCast()
			}
			if !ok {
				return ast.NoNode, false
			}
			return p.b.NewExpr(ast.KindCast, u32(start), p.end(), ast.ExprData{Op: token.LParen, Type: typ, A: operand}), true
		})
		if ok {
			return id, true
		}
	}
	return p.parseUnary()
}

func (p *Parser) parseUnary() (ast.NodeID, bool) {
	if !p.enter() {
		return ast.NoNode, false
	}
	defer p.leave()
	start := p.pos
	switch k := p.kind(); k {
	case token.PlusPlus, token.MinusMinus, token.Star, token.Amp, token.Plus,
		token.Minus, token.Bang, token.Tilde:
		i := p.next()
		operand, ok := p.parseCast()
		if !ok {
			return ast.NoNode, false
		}
		return p.b.NewExpr(ast.KindUnary, u32(start), p.end(), ast.ExprData{
			Op: k, A: operand, Implicit: p.implicitOp(i, ast.ImplicitOperator, k),
		}), true
	case token.KwSizeof:
		return p.parseSizeof()
	case token.KwNoexcept:
		p.next()
		if !p.expect(token.LParen, "'(' after noexcept") {
			return ast.NoNode, false
		}
		e, ok := p.parenthesized(p.parseExpression)
		if !ok {
			return ast.NoNode, false
		}
		return p.b.NewExpr(ast.KindUnary, u32(start), p.end(), ast.ExprData{Op: k, A: e}), true
	case token.KwNew:
		if p.opts.CXX {
			return p.parseNew(start, 0)
		}
	case token.KwDelete:
		if p.opts.CXX {
			return p.parseDelete(start, 0)
		}
	case token.ColonColon:
		switch p.peekKind(1) {
		case token.KwNew:
			p.next()
			return p.parseNew(start, ast.ExprGlobal)
		case token.KwDelete:
			p.next()
			return p.parseDelete(start, ast.ExprGlobal)
		}
	}
	return p.parsePostfix()
}

func (p *Parser) parseSizeof() (ast.NodeID, bool) {
	start := p.next()
	if p.opts.CXX && p.eat(token.Ellipsis) {
		// sizeof...(Pack)
		if !p.expect(token.LParen, "'(' after sizeof...") {
			return ast.NoNode, false
		}
		e, ok := p.parenthesized(p.parseExpression)
		if !ok {
			return ast.NoNode, false
		}
		return p.b.NewExpr(ast.KindSizeof, u32(start), p.end(), ast.ExprData{A: e}), true
	}
	if p.at(token.LParen) {
		id, ok := p.try(func() (ast.NodeID, bool) {
			p.next()
			if !p.startsTypeID() {
				return ast.NoNode, false
			}
			typ, ok := p.withoutNoGT(p.parseTypeID)
			if !ok || !p.expect(token.RParen, "')' after type") {
				return ast.NoNode, false
			}
			return p.b.NewExpr(ast.KindSizeof, u32(start), p.end(), ast.ExprData{Type: typ}), true
		})
		if ok {
			return id, true
		}
	}
	operand, ok := p.parseUnary()
	if !ok {
		return ast.NoNode, false
	}
	return p.b.NewExpr(ast.KindSizeof, u32(start), p.end(), ast.ExprData{A: operand}), true
}

func (p *Parser) parseNew(start int, flags ast.ExprFlags) (ast.NodeID, bool) {
	newTok := p.next()
	var d ast.ExprData
	d.Flags = flags
	if p.at(token.LParen) {
		// placement arguments or a parenthesised type
		parenType, ok := p.try(func() (ast.NodeID, bool) {
			p.next()
			t, ok := p.withoutNoGT(p.parseTypeID)
			if !ok || !p.expect(token.RParen, "')'") {
				return ast.NoNode, false
			}
			if p.atNameStart() || p.kind().IsDeclSpecifier() {
				// new (place) T
				return ast.NoNode, p.fail("placement")
			}
			return t, true
		})
		if ok {
			d.Type = parenType
		} else {
			p.next()
			list, ok := p.parseExprListUntil(token.RParen)
			if !ok {
				return ast.NoNode, false
			}
			d.List = list
		}
	}
	if d.Type == ast.NoNode {
		if p.at(token.LParen) {
			p.next()
			t, ok := p.withoutNoGT(p.parseTypeID)
			if !ok || !p.expect(token.RParen, "')'") {
				return ast.NoNode, false
			}
			d.Type = t
		} else {
			t, ok := p.parseTypeIDMode(dmNew)
			if !ok {
				return ast.NoNode, false
			}
			d.Type = t
		}
	}
	if decl := p.b.Decl(d.Type); decl != nil {
		if dd := p.b.Declarator(decl.Declarator); dd != nil && len(dd.Suffixes) > 0 {
			d.Flags |= ast.ExprArray
		}
	}
	istart := p.pos
	switch p.kind() {
	case token.LParen:
		p.next()
		list, ok := p.parseExprListUntil(token.RParen)
		if !ok {
			return ast.NoNode, false
		}
		d.B = p.b.NewExpr(ast.KindExprList, u32(istart), p.end(), ast.ExprData{List: list})
		d.Flags |= ast.ExprParenInit
	case token.LBrace:
		init, ok := p.parseBracedInit()
		if !ok {
			return ast.NoNode, false
		}
		d.B = init
		d.Flags |= ast.ExprBrace
	}
	d.Implicit = p.implicitOp(newTok, ast.ImplicitCtor, token.KwNew)
	return p.b.NewExpr(ast.KindNew, u32(start), p.end(), d), true
}

func (p *Parser) parseDelete(start int, flags ast.ExprFlags) (ast.NodeID, bool) {
	p.next()
	if p.at(token.LBracket) && p.peekKind(1) == token.RBracket {
		p.next()
		p.next()
		flags |= ast.ExprArray
	}
	operand, ok := p.parseCast()
	if !ok {
		return ast.NoNode, false
	}
	return p.b.NewExpr(ast.KindDelete, u32(start), p.end(), ast.ExprData{A: operand, Flags: flags}), true
}

func (p *Parser) parsePostfix() (ast.NodeID, bool) {
	start := p.pos
	e, ok := p.parsePrimary()
	if !ok {
		return ast.NoNode, false
	}
	for {
		switch k := p.kind(); k {
		case token.LBracket:
			i := p.next()
			idx, ok := p.parenthesizedUntil(token.RBracket, p.parseExprOrBraced)
			if !ok {
				return ast.NoNode, false
			}
			e = p.b.NewExpr(ast.KindSubscript, u32(start), p.end(), ast.ExprData{
				A: e, B: idx, Implicit: p.implicitOp(i, ast.ImplicitSubscript, token.LBracket),
			})
		case token.LParen:
			i := p.next()
			args, ok := p.parseExprListUntil(token.RParen)
			if !ok {
				return ast.NoNode, false
			}
			e = p.b.NewExpr(ast.KindCall, u32(start), p.end(), ast.ExprData{
				A: e, List: args, Implicit: p.implicitOp(i, ast.ImplicitCall, token.LParen),
			})
		case token.Dot, token.Arrow:
			i := p.next()
			templateKw := p.opts.CXX && p.eat(token.KwTemplate)
			if templateKw && !p.at(token.Ident) {
				return ast.NoNode, p.fail("expected member template name")
			}
			name, ok := p.parseMemberName(templateKw)
			if !ok {
				return ast.NoNode, false
			}
			var implicit ast.NodeID
			if k == token.Arrow {
				implicit = p.implicitOp(i, ast.ImplicitArrow, token.Arrow)
			}
			e = p.b.NewExpr(ast.KindMember, u32(start), p.end(), ast.ExprData{Op: k, A: e, B: name, Implicit: implicit})
		case token.PlusPlus, token.MinusMinus:
			i := p.next()
			e = p.b.NewExpr(ast.KindPostfix, u32(start), p.end(), ast.ExprData{
				Op: k, A: e, Implicit: p.implicitOp(i, ast.ImplicitOperator, k),
			})
		default:
			return e, true
		}
	}
}

// parseMemberName parses the name after '.' or '->'.
func (p *Parser) parseMemberName(templateKw bool) (ast.NodeID, bool) {
	if templateKw {
		i := p.pos
		var info nameInfo
		id, ok := p.parseIdentOrTemplateID(ast.RoleReference, nameMember, -1, false, true, &info)
		if ok && p.b.Kind(id) != ast.KindTemplateID {
			p.pos = i
			return ast.NoNode, p.fail("expected template argument list")
		}
		return id, ok
	}
	name, _, ok := p.parseName(ast.RoleReference, nameMember)
	return name, ok
}

func (p *Parser) parsePrimary() (ast.NodeID, bool) {
	start := p.pos
	switch k := p.kind(); k {
	case token.IntLit, token.FloatLit, token.CharLit:
		i := p.next()
		return p.b.NewExpr(ast.KindLiteral, u32(start), p.end(), ast.ExprData{Op: k, Text: p.text(i)}), true
	case token.StringLit:
		text := ""
		for p.at(token.StringLit) {
			text += p.text(p.next())
		}
		return p.b.NewExpr(ast.KindLiteral, u32(start), p.end(), ast.ExprData{Op: k, Text: text}), true
	case token.KwTrue, token.KwFalse, token.KwNullptr:
		i := p.next()
		return p.b.NewExpr(ast.KindLiteral, u32(start), p.end(), ast.ExprData{Op: k, Text: p.text(i)}), true
	case token.KwThis:
		p.next()
		return p.b.NewExpr(ast.KindThis, u32(start), p.end(), ast.ExprData{}), true
	case token.LParen:
		p.next()
		inner, ok := p.parenthesized(p.parseExpression)
		if !ok {
			return ast.NoNode, false
		}
		return p.b.NewExpr(ast.KindParen, u32(start), p.end(), ast.ExprData{A: inner}), true
	case token.LBrace:
		if p.opts.CXX {
			return p.parseBracedInit()
		}
	case token.KwStaticCast, token.KwDynamicCast, token.KwConstCast, token.KwReinterpretCast:
		p.next()
		if !p.expect(token.Lt, "'<' after cast") {
			return ast.NoNode, false
		}
		p.noGT++
		typ, ok := p.parseTypeID()
		p.noGT--
		if !ok || !p.closeAngle() || !p.expect(token.LParen, "'(' after cast type") {
			return ast.NoNode, false
		}
		operand, ok := p.parenthesized(p.parseExpression)
		if !ok {
			return ast.NoNode, false
		}
		return p.b.NewExpr(ast.KindCast, u32(start), p.end(), ast.ExprData{Op: k, Type: typ, A: operand}), true
	case token.KwTypeid:
		p.next()
		if !p.expect(token.LParen, "'(' after typeid") {
			return ast.NoNode, false
		}
		if p.startsTypeID() {
			id, ok := p.try(func() (ast.NodeID, bool) {
				typ, ok := p.withoutNoGT(p.parseTypeID)
				if !ok || !p.expect(token.RParen, "')'") {
					return ast.NoNode, false
				}
				return p.b.NewExpr(ast.KindTypeidExpr, u32(start), p.end(), ast.ExprData{Type: typ}), true
			})
			if ok {
				return id, true
			}
		}
		e, ok := p.parenthesized(p.parseExpression)
		if !ok {
			return ast.NoNode, false
		}
		return p.b.NewExpr(ast.KindTypeidExpr, u32(start), p.end(), ast.ExprData{A: e}), true
	case token.KwTypename:
		return p.parseTypeConstruct()
	}
	if p.kind().IsBuiltinType() && p.opts.CXX {
		return p.parseTypeConstruct()
	}
	if p.atNameStart() {
		name, ni, ok := p.parseName(ast.RoleReference, nameExpr)
		if !ok {
			return ast.NoNode, false
		}
		if p.opts.CXX && ni.isType() && (p.at(token.LParen) || p.at(token.LBrace)) {
			typ := p.typeIDFromName(start, name)
			return p.finishTypeConstruct(start, typ, name)
		}
		return p.b.NewExpr(ast.KindIdExpr, u32(start), p.end(), ast.ExprData{A: name}), true
	}
	return ast.NoNode, p.fail("expected expression")
}

// typeIDFromName wraps a type name in a TypeId.
func (p *Parser) typeIDFromName(start int, name ast.NodeID) ast.NodeID {
	n := p.b.Node(name)
	specs := p.b.NewSpec(u32(start), n.End, ast.SpecData{Type: name})
	return p.b.NewDecl(ast.KindTypeID, u32(start), n.End, ast.DeclData{Specs: specs})
}

// parseTypeConstruct parses T(args) and T{args} for builtin and typename
// types.
func (p *Parser) parseTypeConstruct() (ast.NodeID, bool) {
	start := p.pos
	specs, si, ok := p.parseDeclSpecs(specTypeOnly)
	if !ok || !si.hasType {
		return ast.NoNode, p.fail("expected type")
	}
	n := p.b.Node(specs)
	typ := p.b.NewDecl(ast.KindTypeID, u32(start), n.End, ast.DeclData{Specs: specs})
	return p.finishTypeConstruct(start, typ, ast.NoNode)
}

func (p *Parser) finishTypeConstruct(start int, typ, name ast.NodeID) (ast.NodeID, bool) {
	var d ast.ExprData
	d.Type = typ
	switch p.kind() {
	case token.LParen:
		p.next()
		list, ok := p.parseExprListUntil(token.RParen)
		if !ok {
			return ast.NoNode, false
		}
		d.List = list
	case token.LBrace:
		p.next()
		list, ok := p.parseExprListUntil(token.RBrace)
		if !ok {
			return ast.NoNode, false
		}
		d.List = list
		d.Flags |= ast.ExprBrace
	default:
		return ast.NoNode, p.fail("expected '(' or '{' after type")
	}
	if name != ast.NoNode {
		n := p.b.Node(name)
		d.Implicit = p.b.NewName(ast.KindImplicitName, n.First, n.End, ast.NameData{Implicit: ast.ImplicitCtor, Text: "constructor"})
	}
	return p.b.NewExpr(ast.KindTypeConstruct, u32(start), p.end(), d), true
}

// --- lists and helpers ----------------------------------------------------

// parseInitClause is an assignment-expression or, in C++ and C
// initializers, a braced list.
func (p *Parser) parseInitClause() (ast.NodeID, bool) {
	if p.at(token.LBrace) {
		return p.parseBracedInit()
	}
	return p.parseAssign()
}

func (p *Parser) parseExprOrBraced() (ast.NodeID, bool) {
	if p.at(token.LBrace) && p.opts.CXX {
		return p.parseBracedInit()
	}
	return p.parseExpression()
}

// parseBracedInit parses `{ clauses }` including C designators.
func (p *Parser) parseBracedInit() (ast.NodeID, bool) {
	start := p.pos
	if !p.expect(token.LBrace, "'{'") {
		return ast.NoNode, false
	}
	if !p.enter() {
		return ast.NoNode, false
	}
	defer p.leave()
	saved := p.noGT
	p.noGT = 0
	defer func() { p.noGT = saved }()
	var list []ast.NodeID
	for !p.at(token.RBrace) {
		item, ok := p.parseDesignatedClause()
		if !ok {
			return ast.NoNode, false
		}
		p.eat(token.Ellipsis)
		list = append(list, item)
		if !p.eat(token.Comma) {
			break
		}
	}
	if !p.expect(token.RBrace, "'}' after initializer list") {
		return ast.NoNode, false
	}
	return p.b.NewExpr(ast.KindInitList, u32(start), p.end(), ast.ExprData{List: list}), true
}

// parseDesignatedClause handles `.field = v` and `[i] = v`. A designator is
// a Member or Subscript with no object.
func (p *Parser) parseDesignatedClause() (ast.NodeID, bool) {
	start := p.pos
	var target ast.NodeID
	for {
		dstart := p.pos
		switch {
		case p.at(token.Dot) && p.peekKind(1) == token.Ident:
			p.next()
			name := p.newIdent(p.next(), ast.RoleReference)
			target = p.b.NewExpr(ast.KindMember, u32(dstart), p.end(), ast.ExprData{Op: token.Dot, A: target, B: name})
			continue
		case p.at(token.LBracket) && target == ast.NoNode && !p.opts.CXX:
			p.next()
			idx, ok := p.parenthesizedUntil(token.RBracket, p.parseConditional)
			if !ok {
				return ast.NoNode, false
			}
			target = p.b.NewExpr(ast.KindSubscript, u32(dstart), p.end(), ast.ExprData{A: target, B: idx})
			continue
		}
		break
	}
	if target == ast.NoNode {
		return p.parseInitClause()
	}
	if !p.expect(token.Assign, "'=' after designator") {
		return ast.NoNode, false
	}
	v, ok := p.parseInitClause()
	if !ok {
		return ast.NoNode, false
	}
	return p.b.NewExpr(ast.KindBinary, u32(start), p.end(), ast.ExprData{Op: token.Assign, A: target, B: v}), true
}

// parseExprListUntil parses comma separated clauses and the closing token;
// the opening token is already consumed.
func (p *Parser) parseExprListUntil(close token.Kind) ([]ast.NodeID, bool) {
	saved := p.noGT
	p.noGT = 0
	defer func() { p.noGT = saved }()
	var list []ast.NodeID
	if p.eat(close) {
		return list, true
	}
	for {
		item, ok := p.parseInitClause()
		if !ok {
			return nil, false
		}
		p.eat(token.Ellipsis)
		list = append(list, item)
		if p.eat(token.Comma) {
			continue
		}
		if !p.expect(close, "'"+close.String()+"'") {
			return nil, false
		}
		return list, true
	}
}

// parenthesized runs fn after '(' with '>' as an operator again and
// consumes ')'.
func (p *Parser) parenthesized(fn func() (ast.NodeID, bool)) (ast.NodeID, bool) {
	return p.parenthesizedUntil(token.RParen, fn)
}

func (p *Parser) parenthesizedUntil(close token.Kind, fn func() (ast.NodeID, bool)) (ast.NodeID, bool) {
	id, ok := p.withoutNoGT(fn)
	if !ok || !p.expect(close, "'"+close.String()+"'") {
		return ast.NoNode, false
	}
	return id, true
}

func (p *Parser) withoutNoGT(fn func() (ast.NodeID, bool)) (ast.NodeID, bool) {
	saved := p.noGT
	p.noGT = 0
	id, ok := fn()
	p.noGT = saved
	return id, ok
}
