package parser

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/token"
)

// statement parses one statement or returns a problem node.
func (p *Parser) statement() ast.NodeID {
	p.clearFailure()
	st := p.save()
	if !p.enter() {
		return p.recoverAs(ast.KindProblemStmt, st)
	}
	defer p.leave()
	id, ok := p.parseStatement()
	if ok {
		return id
	}
	return p.recoverAs(ast.KindProblemStmt, st)
}

func (p *Parser) parseStatement() (ast.NodeID, bool) {
	start := p.pos
	switch p.kind() {
	case token.LBrace:
		return p.parseCompound()
	case token.Semicolon:
		p.next()
		return p.b.NewStmt(ast.KindNullStmt, u32(start), p.end(), ast.StmtData{}), true
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwDo:
		return p.parseDo()
	case token.KwFor:
		return p.parseFor()
	case token.KwSwitch:
		return p.parseSwitch()
	case token.KwCase:
		p.next()
		v, ok := p.parseConditional()
		if !ok || !p.expect(token.Colon, "':' after case value") {
			return ast.NoNode, false
		}
		body := p.statement()
		return p.b.NewStmt(ast.KindCase, u32(start), p.end(), ast.StmtData{A: v, B: body}), true
	case token.KwDefault:
		p.next()
		if !p.expect(token.Colon, "':' after default") {
			return ast.NoNode, false
		}
		body := p.statement()
		return p.b.NewStmt(ast.KindDefault, u32(start), p.end(), ast.StmtData{B: body}), true
	case token.KwBreak, token.KwContinue:
		kind := ast.KindBreak
		if p.kind() == token.KwContinue {
			kind = ast.KindContinue
		}
		p.next()
		if !p.expect(token.Semicolon, "';'") {
			return ast.NoNode, false
		}
		return p.b.NewStmt(kind, u32(start), p.end(), ast.StmtData{}), true
	case token.KwReturn:
		p.next()
		var v ast.NodeID
		if !p.at(token.Semicolon) {
			e, ok := p.parseExprOrBraced()
			if !ok {
				return ast.NoNode, false
			}
			v = e
		}
		if !p.expect(token.Semicolon, "';' after return") {
			return ast.NoNode, false
		}
		return p.b.NewStmt(ast.KindReturn, u32(start), p.end(), ast.StmtData{A: v}), true
	case token.KwGoto:
		p.next()
		if !p.at(token.Ident) {
			return ast.NoNode, p.fail("expected label")
		}
		label := p.newIdent(p.next(), ast.RoleReference)
		if !p.expect(token.Semicolon, "';' after goto") {
			return ast.NoNode, false
		}
		return p.b.NewStmt(ast.KindGoto, u32(start), p.end(), ast.StmtData{A: label}), true
	case token.KwTry:
		if !p.opts.CXX {
			break
		}
		p.next()
		body, ok := p.parseCompound()
		if !ok {
			return ast.NoNode, false
		}
		handlers, ok := p.parseHandlers()
		if !ok {
			return ast.NoNode, false
		}
		return p.b.NewStmt(ast.KindTry, u32(start), p.end(), ast.StmtData{A: body, List: handlers}), true
	case token.Ident:
		if p.peekKind(1) == token.Colon {
			label := p.newIdent(p.next(), ast.RoleDefinition)
			p.next()
			body := p.statement()
			return p.b.NewStmt(ast.KindLabeled, u32(start), p.end(), ast.StmtData{A: label, B: body}), true
		}
	}
	return p.declOrExprStatement()
}

// declOrExprStatement applies the declaration/expression verdict.
func (p *Parser) declOrExprStatement() (ast.NodeID, bool) {
	start := p.pos
	wrap := func(d ast.NodeID) ast.NodeID {
		return p.b.NewStmt(ast.KindDeclStmt, u32(start), p.end(), ast.StmtData{A: d})
	}
	switch p.judgeStatement() {
	case declOnly:
		d, ok := p.parseDeclaration(ctxBlock)
		if !ok {
			return ast.NoNode, false
		}
		return wrap(d), true
	case declFirst:
		st := p.save()
		d, ok := p.parseDeclaration(ctxBlock)
		if ok {
			return wrap(d), true
		}
		msg, at, nested := p.failMsg, p.failAt, p.nested
		p.restore(st)
		e, ok := p.exprStatement()
		if ok {
			return e, true
		}
		if at > p.failAt || nested {
			p.failMsg, p.failAt, p.nested = msg, at, nested
		}
		return ast.NoNode, false
	}
	return p.exprStatement()
}

func (p *Parser) exprStatement() (ast.NodeID, bool) {
	start := p.pos
	e, ok := p.parseExpression()
	if !ok {
		return ast.NoNode, false
	}
	if !p.expect(token.Semicolon, "';' after expression") {
		return ast.NoNode, false
	}
	return p.b.NewStmt(ast.KindExprStmt, u32(start), p.end(), ast.StmtData{A: e}), true
}

func (p *Parser) parseCompound() (ast.NodeID, bool) {
	start := p.pos
	if !p.expect(token.LBrace, "'{'") {
		return ast.NoNode, false
	}
	saved := p.sketch.cur
	p.sketch.push(psBlock)
	var list []ast.NodeID
	for !p.at(token.RBrace) && !p.atEOF() {
		list = append(list, p.statement())
	}
	p.sketch.cur = saved
	if !p.expect(token.RBrace, "'}'") {
		return ast.NoNode, false
	}
	return p.b.NewStmt(ast.KindCompound, u32(start), p.end(), ast.StmtData{List: list}), true
}

func (p *Parser) parseIf() (ast.NodeID, bool) {
	start := p.next()
	saved := p.sketch.cur
	p.sketch.push(psBlock)
	defer func() { p.sketch.cur = saved }()
	cond, ok := p.parenCondition(true)
	if !ok {
		return ast.NoNode, false
	}
	then := p.statement()
	var els ast.NodeID
	if p.eat(token.KwElse) {
		els = p.statement()
	}
	return p.b.NewStmt(ast.KindIf, u32(start), p.end(), ast.StmtData{A: cond, B: then, C: els}), true
}

func (p *Parser) parseWhile() (ast.NodeID, bool) {
	start := p.next()
	saved := p.sketch.cur
	p.sketch.push(psBlock)
	defer func() { p.sketch.cur = saved }()
	cond, ok := p.parenCondition(true)
	if !ok {
		return ast.NoNode, false
	}
	body := p.statement()
	return p.b.NewStmt(ast.KindWhile, u32(start), p.end(), ast.StmtData{A: cond, B: body}), true
}

func (p *Parser) parseSwitch() (ast.NodeID, bool) {
	start := p.next()
	saved := p.sketch.cur
	p.sketch.push(psBlock)
	defer func() { p.sketch.cur = saved }()
	cond, ok := p.parenCondition(true)
	if !ok {
		return ast.NoNode, false
	}
	body := p.statement()
	return p.b.NewStmt(ast.KindSwitch, u32(start), p.end(), ast.StmtData{A: cond, B: body}), true
}

func (p *Parser) parseDo() (ast.NodeID, bool) {
	start := p.next()
	body := p.statement()
	if !p.expect(token.KwWhile, "'while' after do body") {
		return ast.NoNode, false
	}
	cond, ok := p.parenCondition(false)
	if !ok || !p.expect(token.Semicolon, "';' after do-while") {
		return ast.NoNode, false
	}
	return p.b.NewStmt(ast.KindDo, u32(start), p.end(), ast.StmtData{A: cond, B: body}), true
}

func (p *Parser) parseFor() (ast.NodeID, bool) {
	start := p.next()
	if !p.expect(token.LParen, "'(' after for") {
		return ast.NoNode, false
	}
	saved := p.sketch.cur
	p.sketch.push(psBlock)
	defer func() { p.sketch.cur = saved }()

	var d ast.StmtData
	istart := p.pos
	switch {
	case p.at(token.Semicolon):
		p.next()
		d.A = p.b.NewStmt(ast.KindNullStmt, u32(istart), p.end(), ast.StmtData{})
	default:
		init, ok := p.declOrExprStatement()
		if !ok {
			return ast.NoNode, false
		}
		d.A = init
	}
	if !p.at(token.Semicolon) {
		c, ok := p.condition(true)
		if !ok {
			return ast.NoNode, false
		}
		d.B = c
	}
	if !p.expect(token.Semicolon, "';' in for") {
		return ast.NoNode, false
	}
	if !p.at(token.RParen) {
		inc, ok := p.parseExpression()
		if !ok {
			return ast.NoNode, false
		}
		d.C = inc
	}
	if !p.expect(token.RParen, "')' after for clauses") {
		return ast.NoNode, false
	}
	d.D = p.statement()
	return p.b.NewStmt(ast.KindFor, u32(start), p.end(), d), true
}

func (p *Parser) parseHandlers() ([]ast.NodeID, bool) {
	var out []ast.NodeID
	for p.at(token.KwCatch) {
		start := p.next()
		if !p.expect(token.LParen, "'(' after catch") {
			return nil, false
		}
		saved := p.sketch.cur
		p.sketch.push(psBlock)
		var param ast.NodeID
		if !p.eat(token.Ellipsis) {
			pd, ok := p.parseParamDecl()
			if !ok {
				p.sketch.cur = saved
				return nil, false
			}
			param = pd
		}
		if !p.expect(token.RParen, "')' after handler parameter") {
			p.sketch.cur = saved
			return nil, false
		}
		body, ok := p.parseCompound()
		p.sketch.cur = saved
		if !ok {
			return nil, false
		}
		out = append(out, p.b.NewStmt(ast.KindCatch, u32(start), p.end(), ast.StmtData{A: param, B: body}))
	}
	if len(out) == 0 {
		return nil, p.fail("expected handler")
	}
	return out, true
}

// parenCondition parses `( condition )`. A malformed condition becomes a
// problem expression so the rest of the statement is kept.
func (p *Parser) parenCondition(allowDecl bool) (ast.NodeID, bool) {
	if !p.expect(token.LParen, "'('") {
		return ast.NoNode, false
	}
	start := p.pos
	st := p.save()
	cond, ok := p.condition(allowDecl)
	if ok && p.eat(token.RParen) {
		return cond, true
	}
	if ok {
		p.fail("expected ')' after condition")
	}
	msg, at, nested := p.failMsg, p.failAt, p.nested
	p.restore(st)
	depth := 0
scan:
	for !p.atEOF() {
		switch p.kind() {
		case token.LParen:
			depth++
		case token.RParen:
			if depth == 0 {
				break scan
			}
			depth--
		case token.LBrace, token.RBrace, token.Semicolon:
			if depth == 0 {
				break scan
			}
		}
		p.next()
	}
	p.failMsg, p.failAt, p.nested = msg, at, nested
	if !p.at(token.RParen) {
		return ast.NoNode, false
	}
	id := p.b.NewExpr(ast.KindProblemExpr, u32(start), p.end(), ast.ExprData{})
	p.reportProblem(at, msg, nested)
	p.clearFailure()
	p.next()
	return id, true
}

// condition is an expression or, in C++, `T x = init`.
func (p *Parser) condition(allowDecl bool) (ast.NodeID, bool) {
	if allowDecl && p.opts.CXX && p.judgeStatement() != exprOnly {
		id, ok := p.try(func() (ast.NodeID, bool) {
			start := p.pos
			specs, si, ok := p.parseDeclSpecs(specDecl)
			if !ok || !si.hasType {
				return ast.NoNode, false
			}
			decl, di, ok := p.parseDeclarator(dmNamed)
			if !ok || di.isFunc || (!p.at(token.Assign) && !p.at(token.LBrace)) {
				return ast.NoNode, false
			}
			var flags ast.DeclFlags
			if !p.parseInitializer(ctxBlock, decl, di, si, &flags) {
				return ast.NoNode, false
			}
			p.declareDeclarator(di, si)
			return p.b.NewDecl(ast.KindSimpleDecl, u32(start), p.end(), ast.DeclData{Specs: specs, List: []ast.NodeID{decl}}), true
		})
		if ok {
			return id, true
		}
	}
	return p.parseExpression()
}
