package parser

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/token"
)

type declCtx uint8

const (
	ctxNamespace declCtx = iota
	ctxMember
	ctxBlock
)

func (p *Parser) parseTranslationUnit() ast.NodeID {
	var decls []ast.NodeID
	for !p.atEOF() {
		decls = append(decls, p.declaration(ctxNamespace))
	}
	// the unit ends before EOF
	return p.b.NewDecl(ast.KindTU, 0, u32(len(p.toks)-1), ast.DeclData{List: decls})
}

// declaration parses one declaration or returns a problem node.
func (p *Parser) declaration(ctx declCtx) ast.NodeID {
	p.clearFailure()
	st := p.save()
	if !p.enter() {
		return p.recoverAs(ast.KindProblemDecl, st)
	}
	defer p.leave()
	id, ok := p.parseDeclaration(ctx)
	if ok {
		return id
	}
	return p.recoverAs(ast.KindProblemDecl, st)
}

// recoverAs discards the failed attempt started at st and covers its tokens
// with a problem node.
func (p *Parser) recoverAs(kind ast.NodeKind, st state) ast.NodeID {
	msg, at, nested := p.failMsg, p.failAt, p.nested
	p.restore(st)
	p.failMsg, p.failAt, p.nested = msg, at, nested
	return p.problem(kind, st.pos)
}

// declarationList parses declarations up to the closing brace.
func (p *Parser) declarationList(ctx declCtx) []ast.NodeID {
	var out []ast.NodeID
	for !p.at(token.RBrace) && !p.atEOF() {
		out = append(out, p.declaration(ctx))
	}
	return out
}

func (p *Parser) parseDeclaration(ctx declCtx) (ast.NodeID, bool) {
	start := p.pos
	switch p.kind() {
	case token.Semicolon:
		p.next()
		return p.b.NewDecl(ast.KindEmptyDecl, u32(start), p.end(), ast.DeclData{}), true
	case token.KwTemplate:
		return p.parseTemplateDecl(ctx)
	case token.KwNamespace:
		return p.parseNamespace(false)
	case token.KwInline:
		if p.peekKind(1) == token.KwNamespace {
			p.next()
			return p.parseNamespace(true)
		}
	case token.KwUsing:
		return p.parseUsing(ctx)
	case token.KwStaticAssert:
		return p.parseStaticAssert()
	case token.KwExtern:
		switch p.peekKind(1) {
		case token.StringLit:
			if ctx != ctxMember {
				return p.parseLinkageSpec()
			}
		case token.KwTemplate:
			p.next()
			id, ok := p.parseTemplateDecl(ctx)
			if ok {
				p.b.SetRange(id, u32(start), p.end())
				if d := p.b.Decl(id); d != nil {
					d.Flags |= ast.DeclExtern
				}
			}
			return id, ok
		}
	case token.KwPublic, token.KwProtected, token.KwPrivate:
		if ctx == ctxMember {
			access := p.kind()
			p.next()
			if !p.expect(token.Colon, "':' after access specifier") {
				return ast.NoNode, false
			}
			return p.b.NewDecl(ast.KindAccessSpec, u32(start), p.end(), ast.DeclData{Access: access}), true
		}
	}
	return p.parseSimpleDeclaration(ctx)
}

// parseSimpleDeclaration parses specifiers followed by init-declarators, or
// a function definition.
func (p *Parser) parseSimpleDeclaration(ctx declCtx) (ast.NodeID, bool) {
	start := p.pos
	specs, si, ok := p.parseDeclSpecs(specDecl)
	if !ok {
		return ast.NoNode, false
	}
	if p.at(token.Semicolon) {
		if specs == ast.NoNode {
			return ast.NoNode, p.fail("expected declaration")
		}
		p.next()
		return p.b.NewDecl(ast.KindSimpleDecl, u32(start), p.end(), ast.DeclData{Specs: specs}), true
	}
	if specs == ast.NoNode && !p.atNameStart() && !p.at(token.LParen) && !p.at(token.Star) {
		return ast.NoNode, p.fail("expected declaration")
	}
	var decls []ast.NodeID
	var flags ast.DeclFlags
	for first := true; ; first = false {
		dstart := p.pos
		decl, di, ok := p.parseDeclarator(dmNamed)
		if !ok {
			return ast.NoNode, false
		}
		if specs == ast.NoNode && (ctx == ctxBlock || !di.isFunc) {
			return ast.NoNode, p.fail("expected type specifier")
		}
		if first && di.isFunc && (p.at(token.LBrace) || p.at(token.KwTry) ||
			(p.opts.CXX && p.at(token.Colon) && ctx != ctxMember) ||
			(p.opts.CXX && ctx == ctxMember && p.at(token.Colon) && p.ctorInitFollows())) {
			return p.parseFunctionDef(ctx, start, specs, si, decl, di)
		}
		d := p.b.Declarator(decl)
		if d == nil {
			return ast.NoNode, p.fail("expected declarator")
		}
		if ctx == ctxMember && p.at(token.Colon) {
			p.next()
			w, ok := p.parseConditional()
			if !ok {
				return ast.NoNode, false
			}
			d.BitWidth = w
		}
		if !p.parseInitializer(ctx, decl, di, si, &flags) {
			return ast.NoNode, false
		}
		p.b.SetRange(decl, u32(dstart), p.end())
		p.declareDeclarator(di, si)
		decls = append(decls, decl)
		if !p.eat(token.Comma) {
			break
		}
	}
	if !p.expect(token.Semicolon, "';' after declaration") {
		return ast.NoNode, false
	}
	return p.b.NewDecl(ast.KindSimpleDecl, u32(start), p.end(), ast.DeclData{
		Specs: specs,
		List:  decls,
		Flags: flags,
	}), true
}

// declareDeclarator records the declared name in the sketch.
func (p *Parser) declareDeclarator(di declInfo, si specInfo) {
	if di.name == ast.NoNode || di.nameInfo.qualified || si.friend || !si.hasType {
		// constructors, destructors and conversions declare nothing new
		return
	}
	k := nkValue
	if si.typedef {
		k = nkType
	}
	p.declareEntity(p.sketch.declScope(), di.nameInfo.text, k)
}

// parseInitializer handles `= expr`, `= {..}`, `(args)`, `{..}`, `= 0`,
// `= default` and `= delete`.
func (p *Parser) parseInitializer(ctx declCtx, decl ast.NodeID, di declInfo, si specInfo, flags *ast.DeclFlags) bool {
	d := p.b.Declarator(decl)
	initStart := p.pos
	switch p.kind() {
	case token.Assign:
		p.next()
		if p.opts.CXX && di.isFunc {
			switch {
			case p.at(token.KwDefault):
				p.next()
				*flags |= ast.DeclDefaulted
				return true
			case p.at(token.KwDelete):
				p.next()
				*flags |= ast.DeclDeleted
				return true
			case ctx == ctxMember && p.at(token.IntLit) && p.tok().Text == "0":
				p.next()
				d.Pure = true
				return true
			}
		}
		v, ok := p.parseInitClause()
		if !ok {
			return false
		}
		d.Init, d.InitKind = v, ast.InitAssign
	case token.LParen:
		if di.isFunc {
			return true
		}
		p.next()
		list, ok := p.parseExprListUntil(token.RParen)
		if !ok {
			return false
		}
		d.Init = p.b.NewExpr(ast.KindExprList, u32(initStart), p.end(), ast.ExprData{List: list})
		d.InitKind = ast.InitParen
	case token.LBrace:
		if !p.opts.CXX {
			return true
		}
		v, ok := p.parseBracedInit()
		if !ok {
			return false
		}
		d.Init, d.InitKind = v, ast.InitBrace
	}
	if p.opts.CXX && !di.isFunc && !si.typedef && di.name != ast.NoNode &&
		(d.InitKind != ast.InitNone || ctx == ctxBlock) {
		n := p.b.Node(di.name)
		d.Implicit = p.b.NewName(ast.KindImplicitName, n.First, n.End, ast.NameData{
			Implicit: ast.ImplicitCtor,
			Text:     "constructor",
		})
	}
	return true
}

// ctorInitFollows distinguishes `X() : a(1) {}` from a bit-field.
func (p *Parser) ctorInitFollows() bool {
	k1, k2 := p.peekKind(1), p.peekKind(2)
	return (k1 == token.Ident || k1 == token.ColonColon) && (k2 == token.LParen || k2 == token.LBrace || k2 == token.ColonColon || k2 == token.Lt)
}

func (p *Parser) parseFunctionDef(ctx declCtx, start int, specs ast.NodeID, si specInfo, decl ast.NodeID, di declInfo) (ast.NodeID, bool) {
	p.declareDeclarator(di, si)
	var d ast.DeclData
	d.Specs, d.Declarator = specs, decl
	isTry := p.eat(token.KwTry)

	saved := p.sketch.cur
	if di.paramScope >= 0 {
		p.sketch.cur = di.paramScope
	}
	inits, ok := p.parseCtorInits()
	p.sketch.cur = saved
	if !ok {
		return ast.NoNode, false
	}
	d.Inits = inits
	if !p.at(token.LBrace) {
		return ast.NoNode, p.fail("expected function body")
	}
	if ctx == ctxMember {
		bodyStart := p.pos
		if !p.skipBalanced() {
			return ast.NoNode, p.fail("unterminated function body")
		}
		handlersEnd := p.pos
		if isTry {
			for p.at(token.KwCatch) {
				p.next()
				if !p.at(token.LParen) || !p.skipBalanced() || !p.at(token.LBrace) || !p.skipBalanced() {
					return ast.NoNode, p.fail("malformed handler")
				}
			}
			handlersEnd = p.pos
		}
		id := p.b.NewDecl(ast.KindFunctionDef, u32(start), p.end(), d)
		p.deferred = append(p.deferred, deferredBody{
			def:   id,
			start: bodyStart,
			end:   handlersEnd,
			scope: di.paramScope,
			isTry: isTry,
		})
		return id, true
	}

	if di.paramScope >= 0 {
		p.sketch.cur = di.paramScope
	}
	body, handlers, ok := p.parseFunctionBody(isTry)
	p.sketch.cur = saved
	if !ok {
		return ast.NoNode, false
	}
	d.Body, d.Handlers = body, handlers
	return p.b.NewDecl(ast.KindFunctionDef, u32(start), p.end(), d), true
}

func (p *Parser) parseFunctionBody(isTry bool) (ast.NodeID, []ast.NodeID, bool) {
	body, ok := p.parseCompound()
	if !ok {
		return ast.NoNode, nil, false
	}
	var handlers []ast.NodeID
	if isTry {
		hs, ok := p.parseHandlers()
		if !ok {
			return ast.NoNode, nil, false
		}
		handlers = hs
	}
	return body, handlers, true
}

// parseDeferred parses the member function bodies recorded since index
// from, now that the enclosing class is complete.
func (p *Parser) parseDeferred(from int) {
	pending := append([]deferredBody(nil), p.deferred[from:]...)
	p.deferred = p.deferred[:from]
	saved := p.sketch.cur
	for _, db := range pending {
		p.pos = db.start
		p.halfShr = false
		if db.scope >= 0 {
			p.sketch.cur = db.scope
		}
		body, handlers, ok := p.parseFunctionBody(db.isTry)
		if !ok || p.pos != db.end {
			// the body was balanced, so only the handlers can fail here
			p.clearFailure()
			p.sketch.cur = saved
			continue
		}
		d := p.b.Decl(db.def)
		d.Body, d.Handlers = body, handlers
		p.sketch.cur = saved
	}
}

// skipBalanced skips a bracketed group starting at the current token.
func (p *Parser) skipBalanced() bool {
	depth := 0
	for !p.atEOF() {
		switch p.kind() {
		case token.LParen, token.LBracket, token.LBrace:
			depth++
		case token.RParen, token.RBracket, token.RBrace:
			depth--
			if depth == 0 {
				p.next()
				return true
			}
		}
		p.next()
	}
	return false
}

func (p *Parser) parseCtorInits() ([]ast.NodeID, bool) {
	if !p.opts.CXX || !p.eat(token.Colon) {
		return nil, true
	}
	var out []ast.NodeID
	for {
		start := p.pos
		name, _, ok := p.parseName(ast.RoleReference, nameExpr)
		if !ok {
			return nil, false
		}
		var d ast.DeclData
		d.Name = name
		switch p.kind() {
		case token.LParen:
			p.next()
			list, ok := p.parseExprListUntil(token.RParen)
			if !ok {
				return nil, false
			}
			d.List = list
		case token.LBrace:
			p.next()
			list, ok := p.parseExprListUntil(token.RBrace)
			if !ok {
				return nil, false
			}
			d.List = list
			d.Flags |= ast.DeclBraceInit
		default:
			return nil, p.fail("expected '(' or '{' in member initializer")
		}
		p.eat(token.Ellipsis)
		out = append(out, p.b.NewDecl(ast.KindCtorInit, u32(start), p.end(), d))
		if !p.eat(token.Comma) {
			return out, true
		}
	}
}

// --- namespaces, using, linkage -----------------------------------------

func (p *Parser) parseNamespace(inline bool) (ast.NodeID, bool) {
	start := p.pos
	if inline {
		start--
	}
	p.next()
	if p.at(token.Ident) && p.peekKind(1) == token.Assign {
		return p.parseNamespaceAlias(start)
	}
	var names []int
	for p.at(token.Ident) {
		names = append(names, p.next())
		if !p.eat(token.ColonColon) {
			break
		}
	}
	if !p.expect(token.LBrace, "'{' after namespace name") {
		return ast.NoNode, false
	}
	saved := p.sketch.cur
	owner := p.sketch.declScope()
	if len(names) == 0 {
		scope := p.sketch.scopeFor(owner, "", psNamespace, owner)
		p.sketch.addUsing(owner, scope)
		p.sketch.cur = scope
	}
	for _, i := range names {
		p.sketch.declare(owner, p.text(i), nkNamespace)
		scope := p.sketch.scopeFor(owner, p.text(i), psNamespace, owner)
		if inline {
			p.sketch.addUsing(owner, scope)
		}
		owner = scope
	}
	if len(names) > 0 {
		p.sketch.cur = owner
	}
	body := p.declarationList(ctxNamespace)
	p.sketch.cur = saved
	if !p.expect(token.RBrace, "'}' at end of namespace") {
		return ast.NoNode, false
	}
	end := p.end()
	if len(names) == 0 {
		return p.b.NewDecl(ast.KindNamespace, u32(start), end, ast.DeclData{List: body, Flags: inlineFlag(inline)}), true
	}
	// namespace A::B { } is built as nested namespaces
	var id ast.NodeID
	for j := len(names) - 1; j >= 0; j-- {
		i := names[j]
		name := p.newIdent(i, ast.RoleDefinition)
		list := body
		if id != ast.NoNode {
			list = []ast.NodeID{id}
		}
		id = p.b.NewDecl(ast.KindNamespace, u32(start), end, ast.DeclData{Name: name, List: list, Flags: inlineFlag(inline)})
	}
	return id, true
}

func inlineFlag(inline bool) ast.DeclFlags {
	if inline {
		return ast.DeclInline
	}
	return 0
}

func (p *Parser) parseNamespaceAlias(start int) (ast.NodeID, bool) {
	i := p.next()
	name := p.newIdent(i, ast.RoleDefinition)
	p.next() // '='
	target, _, ok := p.parseName(ast.RoleReference, nameExpr)
	if !ok {
		return ast.NoNode, false
	}
	if !p.expect(token.Semicolon, "';' after namespace alias") {
		return ast.NoNode, false
	}
	owner := p.sketch.declScope()
	p.sketch.declare(owner, p.text(i), nkNamespace)
	if q := p.nameScope(target); q >= 0 {
		alias := p.sketch.scopeFor(owner, p.text(i), psNamespace, owner)
		p.sketch.addUsing(alias, q)
	}
	return p.b.NewDecl(ast.KindNamespaceAlias, u32(start), p.end(), ast.DeclData{Name: name, Target: target}), true
}

// nameScope resolves a (possibly qualified) class or namespace name to its
// sketch scope.
func (p *Parser) nameScope(name ast.NodeID) int {
	last := p.b.LastName(name)
	text := p.b.NameString(last)
	if p.b.Kind(last) == ast.KindTemplateID {
		text = p.b.NameString(p.b.Name(last).Template)
	}
	if p.b.Kind(name) == ast.KindQualified {
		q := p.qualifierScope(name)
		if q < 0 {
			return -1
		}
		return p.sketch.child(q, text)
	}
	return p.sketch.child(-1, text)
}

func (p *Parser) parseUsing(ctx declCtx) (ast.NodeID, bool) {
	start := p.next()
	if p.eat(token.KwNamespace) {
		target, _, ok := p.parseName(ast.RoleReference, nameExpr)
		if !ok {
			return ast.NoNode, false
		}
		if !p.expect(token.Semicolon, "';' after using-directive") {
			return ast.NoNode, false
		}
		if q := p.nameScope(target); q >= 0 {
			p.sketch.addUsing(p.sketch.cur, q)
		}
		return p.b.NewDecl(ast.KindUsingDirective, u32(start), p.end(), ast.DeclData{Target: target}), true
	}
	if p.at(token.Ident) && p.peekKind(1) == token.Assign {
		i := p.next()
		name := p.newIdent(i, ast.RoleDefinition)
		p.next()
		typ, ok := p.parseTypeID()
		if !ok {
			return ast.NoNode, false
		}
		if !p.expect(token.Semicolon, "';' after alias declaration") {
			return ast.NoNode, false
		}
		p.declareEntity(p.sketch.declScope(), p.text(i), nkType)
		return p.b.NewDecl(ast.KindAliasDecl, u32(start), p.end(), ast.DeclData{Name: name, Body: typ}), true
	}
	var flags ast.DeclFlags
	if p.eat(token.KwTypename) {
		flags |= ast.DeclTypename
	}
	target, ni, ok := p.parseName(ast.RoleDeclaration, nameExpr)
	if !ok {
		return ast.NoNode, false
	}
	if !p.expect(token.Semicolon, "';' after using-declaration") {
		return ast.NoNode, false
	}
	switch {
	case flags&ast.DeclTypename != 0:
		p.sketch.declare(p.sketch.declScope(), ni.text, nkType)
	case ni.known:
		p.sketch.declare(p.sketch.declScope(), ni.text, ni.kind)
		if ctx != ctxMember {
			if q := p.nameScope(target); q >= 0 {
				alias := p.sketch.scopeFor(p.sketch.declScope(), ni.text, psClass, p.sketch.cur)
				if alias != q {
					p.sketch.addUsing(alias, q)
				}
			}
		}
	}
	return p.b.NewDecl(ast.KindUsingDecl, u32(start), p.end(), ast.DeclData{Target: target, Flags: flags}), true
}

func (p *Parser) parseLinkageSpec() (ast.NodeID, bool) {
	start := p.next()
	lang := unquote(p.text(p.next()))
	var list []ast.NodeID
	if p.eat(token.LBrace) {
		list = p.declarationList(ctxNamespace)
		if !p.expect(token.RBrace, "'}' after linkage specification") {
			return ast.NoNode, false
		}
	} else {
		d, ok := p.parseDeclaration(ctxNamespace)
		if !ok {
			return ast.NoNode, false
		}
		list = []ast.NodeID{d}
	}
	return p.b.NewDecl(ast.KindLinkageSpec, u32(start), p.end(), ast.DeclData{Lang: lang, List: list}), true
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func (p *Parser) parseStaticAssert() (ast.NodeID, bool) {
	start := p.next()
	if !p.expect(token.LParen, "'(' after static_assert") {
		return ast.NoNode, false
	}
	cond, ok := p.parseAssign()
	if !ok {
		return ast.NoNode, false
	}
	if p.eat(token.Comma) {
		if !p.at(token.StringLit) {
			return ast.NoNode, p.fail("expected message string")
		}
		for p.at(token.StringLit) {
			p.next()
		}
	}
	if !p.expect(token.RParen, "')'") || !p.expect(token.Semicolon, "';' after static_assert") {
		return ast.NoNode, false
	}
	return p.b.NewDecl(ast.KindStaticAssert, u32(start), p.end(), ast.DeclData{Body: cond}), true
}

// --- templates ----------------------------------------------------------

func (p *Parser) parseTemplateDecl(ctx declCtx) (ast.NodeID, bool) {
	start := p.next()
	if !p.at(token.Lt) {
		// explicit instantiation
		body, ok := p.parseDeclaration(ctx)
		if !ok {
			return ast.NoNode, false
		}
		return p.b.NewDecl(ast.KindExplicitInstantiation, u32(start), p.end(), ast.DeclData{Body: body}), true
	}
	p.next()
	saved := p.sketch.cur
	p.sketch.push(psTemplate)
	defer func() { p.sketch.cur = saved }()

	var flags ast.DeclFlags
	var params []ast.NodeID
	p.noGT++
	if p.atGT() {
		flags |= ast.DeclExplicitSpec
	} else {
		for {
			param, ok := p.parseTemplateParam()
			if !ok {
				p.noGT--
				return ast.NoNode, false
			}
			params = append(params, param)
			if !p.eat(token.Comma) {
				break
			}
		}
	}
	p.noGT--
	if !p.closeAngle() {
		return ast.NoNode, false
	}
	wasPending := p.pendingTemplate
	p.pendingTemplate = flags&ast.DeclExplicitSpec == 0
	body, ok := p.parseDeclaration(ctx)
	p.pendingTemplate = wasPending
	if !ok {
		return ast.NoNode, false
	}
	return p.b.NewDecl(ast.KindTemplateDecl, u32(start), p.end(), ast.DeclData{
		Params: params,
		Body:   body,
		Flags:  flags,
	}), true
}

func (p *Parser) parseTemplateParam() (ast.NodeID, bool) {
	start := p.pos
	switch p.kind() {
	case token.KwClass, token.KwTypename:
		if p.kind() == token.KwTypename && (p.peekKind(2) == token.ColonColon || p.peekKind(1) == token.ColonColon) {
			break // typename T::type N
		}
		key := p.kind()
		p.next()
		var d ast.DeclData
		d.Key = key
		if p.eat(token.Ellipsis) {
			d.Flags |= ast.DeclPack
		}
		if p.at(token.Ident) {
			i := p.next()
			d.Name = p.newIdent(i, ast.RoleDefinition)
			p.sketch.declare(p.sketch.cur, p.text(i), nkType)
		}
		if p.eat(token.Assign) {
			t, ok := p.parseTypeID()
			if !ok {
				return ast.NoNode, false
			}
			d.Body = t
		}
		return p.b.NewDecl(ast.KindTypeParam, u32(start), p.end(), d), true
	case token.KwTemplate:
		p.next()
		if !p.expect(token.Lt, "'<'") {
			return ast.NoNode, false
		}
		var d ast.DeclData
		saved := p.sketch.cur
		p.sketch.push(psTemplate)
		if !p.atGT() {
			for {
				param, ok := p.parseTemplateParam()
				if !ok {
					p.sketch.cur = saved
					return ast.NoNode, false
				}
				d.Params = append(d.Params, param)
				if !p.eat(token.Comma) {
					break
				}
			}
		}
		p.sketch.cur = saved
		if !p.closeAngle() {
			return ast.NoNode, false
		}
		if !p.at(token.KwClass) && !p.at(token.KwTypename) {
			return ast.NoNode, p.fail("expected 'class' in template template parameter")
		}
		d.Key = p.kind()
		p.next()
		if p.eat(token.Ellipsis) {
			d.Flags |= ast.DeclPack
		}
		if p.at(token.Ident) {
			i := p.next()
			d.Name = p.newIdent(i, ast.RoleDefinition)
			p.sketch.declare(p.sketch.cur, p.text(i), nkType|nkTemplate)
		}
		if p.eat(token.Assign) {
			n, _, ok := p.parseName(ast.RoleReference, nameExpr)
			if !ok {
				return ast.NoNode, false
			}
			d.Body = n
		}
		return p.b.NewDecl(ast.KindTemplateTemplateParam, u32(start), p.end(), d), true
	}
	id, ok := p.parseParamDecl()
	if !ok {
		return ast.NoNode, false
	}
	p.b.Decl(id).Flags |= ast.DeclNonType
	return id, true
}
