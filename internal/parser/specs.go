package parser

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/token"
)

type specMode uint8

const (
	specDecl     specMode = iota // namespace, block and member declarations
	specParam                    // function and template parameters
	specTypeOnly                 // type-ids: no storage classes
)

type specInfo struct {
	hasType   bool
	typedef   bool
	friend    bool
	defines   bool // a class or enum body was parsed
	named     nameInfo
	className string
}

var storageKeywords = map[token.Kind]ast.StorageFlags{
	token.KwTypedef:   ast.StorTypedef,
	token.KwStatic:    ast.StorStatic,
	token.KwExtern:    ast.StorExtern,
	token.KwRegister:  ast.StorRegister,
	token.KwMutable:   ast.StorMutable,
	token.KwFriend:    ast.StorFriend,
	token.KwInline:    ast.StorInline,
	token.KwVirtual:   ast.StorVirtual,
	token.KwExplicit:  ast.StorExplicit,
	token.KwConstexpr: ast.StorConstexpr,
}

// parseDeclSpecs parses a decl-specifier-seq. It returns NoNode when no
// specifier was present, which is legal for constructors, destructors and
// conversion functions.
func (p *Parser) parseDeclSpecs(mode specMode) (ast.NodeID, specInfo, bool) {
	start := p.pos
	var d ast.SpecData
	var info specInfo
loop:
	for {
		k := p.kind()
		if f, ok := storageKeywords[k]; ok {
			if mode == specTypeOnly {
				break
			}
			d.Storage |= f
			p.next()
			continue
		}
		switch k {
		case token.KwAuto:
			if p.opts.CXX {
				if info.hasType {
					break loop
				}
				d.AutoType = true
				info.hasType = true
			} else {
				d.Storage |= ast.StorAuto
			}
			p.next()
		case token.KwConst:
			d.CV |= ast.CVConst
			p.next()
		case token.KwVolatile:
			d.CV |= ast.CVVolatile
			p.next()
		case token.KwRestrict:
			d.CV |= ast.CVRestrict
			p.next()
		case token.KwClass, token.KwStruct, token.KwUnion, token.KwEnum:
			if info.hasType {
				break loop
			}
			var id ast.NodeID
			var ok bool
			if k == token.KwEnum {
				id, ok = p.parseEnumSpec(mode, &info)
			} else {
				id, ok = p.parseClassSpec(mode, &info)
			}
			if !ok {
				return ast.NoNode, info, false
			}
			d.Type = id
			info.hasType = true
		case token.KwTypename:
			if info.hasType {
				break loop
			}
			p.next()
			name, ni, ok := p.parseName(ast.RoleReference, nameExpr)
			if !ok {
				return ast.NoNode, info, false
			}
			d.Type, d.Typename = name, true
			info.named = ni
			info.hasType = true
		case token.KwDecltype:
			if info.hasType {
				break loop
			}
			p.next()
			if !p.expect(token.LParen, "'(' after decltype") {
				return ast.NoNode, info, false
			}
			e, ok := p.parenthesized(p.parseExpression)
			if !ok {
				return ast.NoNode, info, false
			}
			d.Decltype = e
			info.hasType = true
		default:
			if k.IsBuiltinType() {
				d.Builtin = append(d.Builtin, k)
				info.hasType = true
				p.next()
				continue
			}
			if info.hasType || !p.atNameStart() || p.at(token.Tilde) || p.at(token.KwOperator) {
				break loop
			}
			name, ni, ok := p.typeNameSpecifier(mode)
			if !ok {
				break loop
			}
			d.Type = name
			info.named = ni
			info.hasType = true
		}
	}
	info.typedef = d.Storage&ast.StorTypedef != 0
	info.friend = d.Storage&ast.StorFriend != 0
	if p.pos == start {
		return ast.NoNode, info, true
	}
	return p.b.NewSpec(u32(start), p.end(), d), info, true
}

// typeNameSpecifier accepts a name as the type of a declaration when the
// sketch says it is a type, or when it is unknown and a declarator follows.
// Constructor names are left for the declarator.
func (p *Parser) typeNameSpecifier(mode specMode) (ast.NodeID, nameInfo, bool) {
	var info nameInfo
	id, ok := p.try(func() (ast.NodeID, bool) {
		name, ni, ok := p.parseName(ast.RoleReference, nameExpr)
		if !ok {
			return ast.NoNode, false
		}
		info = ni
		if p.at(token.LParen) && p.isConstructorName(ni) {
			return ast.NoNode, false
		}
		switch {
		case ni.isType():
			return name, true
		case ni.known && !ni.dependent:
			return ast.NoNode, false
		}
		// unknown or dependent
		if p.declaratorFollows(mode) {
			return name, true
		}
		return ast.NoNode, false
	})
	return id, info, ok
}

func (p *Parser) isConstructorName(ni nameInfo) bool {
	if !p.opts.CXX {
		return false
	}
	if ni.qualified {
		return ni.prevText != "" && ni.prevText == ni.text
	}
	return len(p.classes) > 0 && p.classes[len(p.classes)-1] == ni.text
}

// declaratorFollows is used after an unknown type-like name.
func (p *Parser) declaratorFollows(mode specMode) bool {
	switch p.kind() {
	case token.Ident, token.KwOperator:
		return true
	case token.Star, token.Amp, token.AndAnd:
		if mode != specDecl {
			return true
		}
		// `a * b;` with unknown a is a declaration only in declaration shape
		k1, k2 := p.peekKind(1), p.peekKind(2)
		if k1 == token.Star || k1 == token.Amp || k1 == token.KwConst {
			return true
		}
		if k1 != token.Ident {
			return false
		}
		switch k2 {
		case token.Semicolon, token.Assign, token.Comma, token.LBracket, token.RParen:
			return true
		}
		return false
	case token.ColonColon:
		return p.opts.CXX
	case token.LParen:
		// T (*p)(int)
		return p.peekKind(1) == token.Star || p.peekKind(1) == token.Amp
	case token.Comma, token.RParen, token.LBracket, token.Gt, token.Shr, token.Ellipsis, token.Assign:
		return mode != specDecl
	case token.Semicolon:
		return false
	}
	return false
}

// --- classes ------------------------------------------------------------

func (p *Parser) parseClassSpec(mode specMode, info *specInfo) (ast.NodeID, bool) {
	start := p.pos
	key := p.kind()
	p.next()
	var name ast.NodeID
	var ni nameInfo
	if p.atNameStart() {
		var ok bool
		name, ni, ok = p.parseClassHeadName()
		if !ok {
			return ast.NoNode, false
		}
	}
	// contextual final
	if p.at(token.Ident) && p.tok().Text == "final" && (p.peekKind(1) == token.LBrace || p.peekKind(1) == token.Colon) {
		p.next()
	}
	if !p.at(token.LBrace) && !(p.opts.CXX && p.at(token.Colon) && name != ast.NoNode) {
		if name == ast.NoNode {
			return ast.NoNode, p.fail("expected class name or body")
		}
		// elaborated type specifier
		if !ni.qualified && (!ni.known || !ni.isType()) {
			p.declareTag(ni.text)
		}
		p.setRole(name, ast.RoleReference)
		if p.at(token.Semicolon) && mode == specDecl && !ni.qualified {
			p.setRole(name, ast.RoleDeclaration)
		}
		return p.b.NewClass(ast.KindElaboratedSpec, u32(start), p.end(), ast.ClassData{Key: key, Name: name}), true
	}

	text := ni.text
	scope := p.classScope(name, ni)
	info.defines = true
	info.className = text
	p.setRole(name, ast.RoleDefinition)

	var bases []ast.NodeID
	if p.eat(token.Colon) {
		for {
			base, ok := p.parseBaseSpec(scope)
			if !ok {
				return ast.NoNode, false
			}
			bases = append(bases, base)
			if !p.eat(token.Comma) {
				break
			}
		}
	}
	members, ok := p.parseClassBody(text, scope)
	if !ok {
		return ast.NoNode, false
	}
	return p.b.NewClass(ast.KindClassSpec, u32(start), p.end(), ast.ClassData{
		Key:     key,
		Name:    name,
		Bases:   bases,
		Members: members,
	}), true
}

// parseClassHeadName parses the name after class-key. Template-ids are
// allowed for specializations; qualified names for out-of-line definitions.
func (p *Parser) parseClassHeadName() (ast.NodeID, nameInfo, bool) {
	return p.parseName(ast.RoleDeclaration, nameDecl)
}

// classScope declares the class name and returns its sketch scope.
func (p *Parser) classScope(name ast.NodeID, ni nameInfo) int {
	if name == ast.NoNode {
		return p.sketch.scopeFor(p.sketch.declScope(), "", psClass, p.sketch.cur)
	}
	owner := p.sketch.declScope()
	if ni.qualified {
		if q := p.qualifierScope(name); q >= 0 {
			owner = q
		}
	}
	if p.opts.CXX {
		p.declareEntity(owner, ni.text, nkType)
	}
	return p.sketch.scopeFor(owner, ni.text, psClass, p.sketch.cur)
}

// qualifierScope resolves the qualifiers of a qualified name to a sketch
// scope, or -1.
func (p *Parser) qualifierScope(name ast.NodeID) int {
	d := p.b.Name(name)
	if d == nil || p.b.Kind(name) != ast.KindQualified {
		return -1
	}
	scope := -1
	if d.Global {
		scope = 0
	}
	for _, seg := range d.Segments {
		text := p.b.NameString(seg)
		if p.b.Kind(seg) == ast.KindTemplateID {
			text = p.b.NameString(p.b.Name(seg).Template)
		}
		scope = p.sketch.child(scope, text)
		if scope < 0 {
			return -1
		}
	}
	return scope
}

// declareTag makes a tag name usable as a type name; C keeps tags apart.
func (p *Parser) declareTag(text string) {
	if text == "" || !p.opts.CXX {
		return
	}
	p.declareEntity(p.sketch.declScope(), text, nkType)
}

// declareEntity declares a name; the first entity declared after a
// template header becomes a template.
func (p *Parser) declareEntity(scope int, text string, k nameKind) {
	if p.pendingTemplate {
		k |= nkTemplate
		p.pendingTemplate = false
	}
	p.sketch.declare(scope, text, k)
}

func (p *Parser) parseBaseSpec(classScope int) (ast.NodeID, bool) {
	start := p.pos
	var d ast.ClassData
	for {
		switch p.kind() {
		case token.KwVirtual:
			d.Virtual = true
			p.next()
			continue
		case token.KwPublic, token.KwProtected, token.KwPrivate:
			d.Access = p.kind()
			p.next()
			continue
		}
		break
	}
	name, ni, ok := p.parseName(ast.RoleReference, nameExpr)
	if !ok {
		return ast.NoNode, false
	}
	p.eat(token.Ellipsis)
	d.Name = name
	if !ni.dependent {
		text := ni.text
		if p.b.Kind(p.b.LastName(name)) == ast.KindTemplateID {
			text = p.b.NameString(p.b.Name(p.b.LastName(name)).Template)
		}
		var base int
		if ni.qualified {
			base = -1
			if q := p.qualifierScope(name); q >= 0 {
				base = p.sketch.child(q, text)
			}
		} else {
			base = p.sketch.child(-1, text)
		}
		if base >= 0 && base != classScope {
			p.sketch.addBase(classScope, base)
		}
	}
	return p.b.NewClass(ast.KindBaseSpec, u32(start), p.end(), d), true
}

// parseClassBody parses `{ members }` with the class scope current. Inline
// member function bodies are parsed once the class is complete.
func (p *Parser) parseClassBody(text string, scope int) ([]ast.NodeID, bool) {
	if !p.expect(token.LBrace, "'{'") {
		return nil, false
	}
	saved := p.sketch.cur
	p.sketch.cur = scope
	p.classes = append(p.classes, text)
	firstDeferred := len(p.deferred)
	defer func() {
		p.sketch.cur = saved
		p.classes = p.classes[:len(p.classes)-1]
	}()

	var members []ast.NodeID
	for !p.at(token.RBrace) && !p.atEOF() {
		members = append(members, p.memberDeclaration())
	}
	if !p.expect(token.RBrace, "'}'") {
		return nil, false
	}
	end := p.pos
	p.parseDeferred(firstDeferred)
	p.pos = end
	return members, true
}

// memberDeclaration parses one member or produces a problem node.
func (p *Parser) memberDeclaration() ast.NodeID {
	p.clearFailure()
	st := p.save()
	id, ok := p.parseDeclaration(ctxMember)
	if ok {
		return id
	}
	return p.recoverAs(ast.KindProblemDecl, st)
}

// --- enums ------------------------------------------------------------

func (p *Parser) parseEnumSpec(mode specMode, info *specInfo) (ast.NodeID, bool) {
	start := p.pos
	p.next()
	scoped := false
	if p.opts.CXX && (p.at(token.KwClass) || p.at(token.KwStruct)) {
		p.next()
		scoped = true
	}
	var name ast.NodeID
	var ni nameInfo
	if p.atNameStart() {
		var ok bool
		name, ni, ok = p.parseName(ast.RoleDeclaration, nameDecl)
		if !ok {
			return ast.NoNode, false
		}
	}
	var underlying ast.NodeID
	if p.opts.CXX && p.at(token.Colon) && (name != ast.NoNode || p.peekKind(1) != token.IntLit) {
		p.next()
		u, ok := p.parseTypeID()
		if !ok {
			return ast.NoNode, false
		}
		underlying = u
	}
	if !p.at(token.LBrace) {
		if name == ast.NoNode {
			return ast.NoNode, p.fail("expected enum name or body")
		}
		if !ni.known {
			p.declareTag(ni.text)
		}
		if underlying == ast.NoNode {
			p.setRole(name, ast.RoleReference)
		}
		return p.b.NewClass(ast.KindEnumSpec, u32(start), p.end(), ast.ClassData{
			Name: name, Scoped: scoped, Underlying: underlying,
		}), true
	}
	info.defines = true
	owner := p.sketch.declScope()
	enumScope := owner
	if name != ast.NoNode {
		p.setRole(name, ast.RoleDefinition)
		if p.opts.CXX {
			p.declareEntity(owner, ni.text, nkType)
		}
		if scoped {
			enumScope = p.sketch.scopeFor(owner, ni.text, psClass, p.sketch.cur)
		}
	}
	p.next()
	var members []ast.NodeID
	for !p.at(token.RBrace) {
		estart := p.pos
		if !p.at(token.Ident) {
			return ast.NoNode, p.fail("expected enumerator")
		}
		ename := p.newIdent(p.next(), ast.RoleDefinition)
		var value ast.NodeID
		if p.eat(token.Assign) {
			v, ok := p.parseAssign()
			if !ok {
				return ast.NoNode, false
			}
			value = v
		}
		p.sketch.declare(enumScope, p.text(estart), nkValue)
		members = append(members, p.b.NewClass(ast.KindEnumerator, u32(estart), p.end(), ast.ClassData{Name: ename, Value: value}))
		if !p.eat(token.Comma) {
			break
		}
	}
	if !p.expect(token.RBrace, "'}' after enumerators") {
		return ast.NoNode, false
	}
	return p.b.NewClass(ast.KindEnumSpec, u32(start), p.end(), ast.ClassData{
		Name:       name,
		Scoped:     scoped,
		Underlying: underlying,
		Members:    members,
		Complete:   true,
	}), true
}
