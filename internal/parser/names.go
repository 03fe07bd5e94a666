package parser

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/token"
)

// nameInfo is what the sketch knows about a parsed name.
type nameInfo struct {
	kind      nameKind
	known     bool
	dependent bool
	qualified bool
	scope     int // class or namespace scope named by the name, -1 if none
	text      string
	prevText  string // last qualifier, used to spot A::A
}

func (n nameInfo) isType() bool { return n.known && n.kind.isType() }

func (n nameInfo) isValue() bool { return n.known && !n.kind.isType() && !n.kind.isNamespace() }

type nameMode uint8

const (
	nameExpr nameMode = iota
	nameDecl
	nameMember // after . or ->
)

func (p *Parser) newIdent(i int, role ast.NameRole) ast.NodeID {
	return p.b.NewName(ast.KindIdent, u32(i), u32(i+1), ast.NameData{Role: role, Text: p.text(i)})
}

// atNameStart reports tokens that can begin an id-expression.
func (p *Parser) atNameStart() bool {
	switch p.kind() {
	case token.Ident:
		return true
	case token.ColonColon, token.KwOperator:
		return p.opts.CXX
	case token.Tilde:
		return p.opts.CXX && p.peekKind(1) == token.Ident
	}
	return false
}

// parseName parses [::] nested-name-specifier* unqualified-id. It stops in
// front of `::*` so that pointer-to-member declarators can take over.
func (p *Parser) parseName(role ast.NameRole, mode nameMode) (ast.NodeID, nameInfo, bool) {
	start := p.pos
	info := nameInfo{scope: -1}
	global := false
	scope := -1
	if p.opts.CXX && p.at(token.ColonColon) {
		p.next()
		global = true
		scope = 0
		info.qualified = true
	}
	var segs []ast.NodeID
	templateKw := false
	for {
		var last ast.NodeID
		var ok bool
		switch p.kind() {
		case token.Ident:
			last, ok = p.parseIdentOrTemplateID(role, mode, scope, info.dependent, templateKw, &info)
		case token.KwOperator:
			last, ok = p.parseOperatorName(role)
			info.text = p.b.NameString(last)
			info.known = false
		case token.Tilde:
			last, ok = p.parseDestructorName(role, scope, &info)
		default:
			return ast.NoNode, info, p.fail("expected name")
		}
		if !ok {
			return ast.NoNode, info, false
		}
		templateKw = false
		if p.opts.CXX && p.at(token.ColonColon) && p.peekKind(1) != token.Star &&
			(p.b.Kind(last) == ast.KindIdent || p.b.Kind(last) == ast.KindTemplateID) {
			// the name so far is a qualifier
			p.setRole(last, ast.RoleReference)
			segs = append(segs, last)
			info.qualified = true
			info.prevText = info.text
			next := -1
			if !info.dependent {
				if next = p.sketch.child(scope, info.text); next < 0 {
					info.dependent = true
				}
			}
			scope = next
			p.next()
			if p.at(token.KwTemplate) {
				p.next()
				templateKw = true
			}
			continue
		}
		if len(segs) == 0 && !global {
			return last, info, true
		}
		id := p.b.NewName(ast.KindQualified, u32(start), p.end(), ast.NameData{
			Role:     role,
			Global:   global,
			Segments: segs,
			Last:     last,
		})
		return id, info, true
	}
}

func (p *Parser) lookupName(scope int, name string) (nameKind, bool) {
	if scope >= 0 {
		k, _, ok := p.sketch.lookupIn(scope, name)
		return k, ok
	}
	k, _, ok := p.sketch.lookup(name)
	return k, ok
}

func (p *Parser) parseIdentOrTemplateID(role ast.NameRole, mode nameMode, scope int, dependent, templateKw bool, info *nameInfo) (ast.NodeID, bool) {
	i := p.next()
	id := p.newIdent(i, role)
	name := p.text(i)
	info.text = name
	info.known, info.kind = false, 0
	if !dependent {
		if mode == nameMember && scope < 0 {
			if p.sketch.isMemberTemplate(name) {
				info.kind, info.known = nkTemplate|nkValue, true
			}
		} else if k, ok := p.lookupName(scope, name); ok {
			info.kind, info.known = k, true
		}
	}
	if !p.opts.CXX || !p.at(token.Lt) {
		return id, true
	}
	isTemplate := templateKw || (info.known && info.kind.isTemplate())
	if !isTemplate {
		return id, true
	}
	tid, ok := p.try(func() (ast.NodeID, bool) {
		args, ok := p.parseTemplateArgs()
		if !ok {
			return ast.NoNode, false
		}
		return p.b.NewName(ast.KindTemplateID, u32(i), p.end(), ast.NameData{
			Role:       role,
			Template:   id,
			Args:       args,
			TemplateKw: templateKw,
		}), true
	})
	if !ok {
		if templateKw {
			return ast.NoNode, p.fail("expected template argument list")
		}
		// not a template-id after all; '<' is an operator
		return id, true
	}
	// a specialization of a class template names a type
	if info.known && info.kind&nkValue == 0 {
		info.kind |= nkType
	}
	return tid, true
}

func (p *Parser) parseDestructorName(role ast.NameRole, scope int, info *nameInfo) (ast.NodeID, bool) {
	start := p.next()
	if !p.at(token.Ident) {
		return ast.NoNode, p.fail("expected class name after '~'")
	}
	target, ok := p.parseIdentOrTemplateID(ast.RoleReference, nameExpr, scope, info.dependent, false, info)
	if !ok {
		return ast.NoNode, false
	}
	info.known = false
	info.text = "~" + info.text
	return p.b.NewName(ast.KindDestructorName, u32(start), p.end(), ast.NameData{Role: role, Target: target}), true
}

var overloadableOps = map[token.Kind]bool{
	token.Plus: true, token.Minus: true, token.Star: true, token.Slash: true,
	token.Percent: true, token.Caret: true, token.Amp: true, token.Pipe: true,
	token.Tilde: true, token.Bang: true, token.Assign: true, token.Lt: true,
	token.Gt: true, token.PlusAssign: true, token.MinusAssign: true,
	token.StarAssign: true, token.SlashAssign: true, token.PercentAssign: true,
	token.CaretAssign: true, token.AmpAssign: true, token.PipeAssign: true,
	token.Shl: true, token.Shr: true, token.ShlAssign: true, token.ShrAssign: true,
	token.EqEq: true, token.BangEq: true, token.LtEq: true, token.GtEq: true,
	token.AndAnd: true, token.OrOr: true, token.PlusPlus: true,
	token.MinusMinus: true, token.Comma: true, token.ArrowStar: true,
	token.Arrow: true,
}

// parseOperatorName parses `operator @`, `operator new[]` and conversion
// function names.
func (p *Parser) parseOperatorName(role ast.NameRole) (ast.NodeID, bool) {
	start := p.next()
	k := p.kind()
	d := ast.NameData{Role: role, Op: k}
	switch {
	case k == token.KwNew || k == token.KwDelete:
		p.next()
		if p.at(token.LBracket) && p.peekKind(1) == token.RBracket {
			p.next()
			p.next()
			d.Array = true
		}
	case k == token.LParen:
		p.next()
		if !p.expect(token.RParen, "')' in operator()") {
			return ast.NoNode, false
		}
	case k == token.LBracket:
		p.next()
		if !p.expect(token.RBracket, "']' in operator[]") {
			return ast.NoNode, false
		}
	case overloadableOps[k]:
		p.next()
	default:
		typ, ok := p.parseConversionType()
		if !ok {
			return ast.NoNode, false
		}
		return p.b.NewName(ast.KindConversionName, u32(start), p.end(), ast.NameData{Role: role, Type: typ}), true
	}
	d.Text = "operator" + d.Op.String()
	if d.Array {
		d.Text += "[]"
	}
	return p.b.NewName(ast.KindOperatorName, u32(start), p.end(), d), true
}

// parseConversionType is the type in `operator T()`: specifiers followed by
// pointer operators only.
func (p *Parser) parseConversionType() (ast.NodeID, bool) {
	start := p.pos
	specs, info, ok := p.parseDeclSpecs(specTypeOnly)
	if !ok {
		return ast.NoNode, false
	}
	if !info.hasType {
		return ast.NoNode, p.fail("expected type in conversion function name")
	}
	dstart := p.pos
	var d ast.DeclaratorData
	p.parsePtrOps(&d, false)
	var decl ast.NodeID
	if len(d.Ptrs) > 0 {
		decl = p.b.NewDeclarator(u32(dstart), p.end(), d)
	}
	return p.b.NewDecl(ast.KindTypeID, u32(start), p.end(), ast.DeclData{Specs: specs, Declarator: decl}), true
}

// parseTemplateArgs parses `< args >`, splitting a closing `>>`.
func (p *Parser) parseTemplateArgs() ([]ast.NodeID, bool) {
	if !p.expect(token.Lt, "'<'") {
		return nil, false
	}
	if !p.enter() {
		return nil, false
	}
	defer p.leave()
	p.noGT++
	defer func() { p.noGT-- }()
	var args []ast.NodeID
	if p.atGT() {
		return args, p.closeAngle()
	}
	for {
		arg, ok := p.parseTemplateArg()
		if !ok {
			return nil, false
		}
		p.eat(token.Ellipsis)
		args = append(args, arg)
		if p.eat(token.Comma) {
			continue
		}
		if !p.closeAngle() {
			return nil, false
		}
		return args, true
	}
}

func (p *Parser) parseTemplateArg() (ast.NodeID, bool) {
	if p.startsTypeID() {
		id, ok := p.try(func() (ast.NodeID, bool) {
			tid, ok := p.parseTypeID()
			if !ok {
				return ast.NoNode, false
			}
			if !p.at(token.Comma) && !p.atGT() && !p.at(token.Ellipsis) {
				return ast.NoNode, p.fail("expected ',' or '>'")
			}
			return tid, true
		})
		if ok {
			return id, true
		}
	}
	return p.parseAssign()
}

// setRole marks a name and its final component.
func (p *Parser) setRole(id ast.NodeID, role ast.NameRole) {
	d := p.b.Name(id)
	if d == nil {
		return
	}
	d.Role = role
	switch p.b.Kind(id) {
	case ast.KindQualified:
		p.setRole(d.Last, role)
	case ast.KindTemplateID:
		p.setRole(d.Template, role)
	}
}
