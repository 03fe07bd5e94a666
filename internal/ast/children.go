package ast

// Children returns the direct children of id in source order. Implicit
// names are not children; see ImplicitNames.
func (b *Builder) Children(id NodeID) []NodeID {
	n := b.Node(id)
	if n == nil {
		return nil
	}
	var out []NodeID
	add := func(ids ...NodeID) {
		for _, c := range ids {
			if c != NoNode {
				out = append(out, c)
			}
		}
	}

	switch n.Kind.payload() {
	case payloadName:
		d := b.Names.Get(n.Payload)
		switch n.Kind {
		case KindQualified:
			add(d.Segments...)
			add(d.Last)
		case KindTemplateID:
			add(d.Template)
			add(d.Args...)
		case KindConversionName:
			add(d.Type)
		case KindDestructorName:
			add(d.Target)
		}

	case payloadDecl:
		d := b.Decls.Get(n.Payload)
		switch n.Kind {
		case KindTU, KindLinkageSpec:
			add(d.List...)
		case KindSimpleDecl:
			add(d.Specs)
			add(d.List...)
		case KindFunctionDef:
			add(d.Specs, d.Declarator)
			add(d.Inits...)
			add(d.Body)
			add(d.Handlers...)
		case KindNamespace:
			add(d.Name)
			add(d.List...)
		case KindNamespaceAlias:
			add(d.Name, d.Target)
		case KindUsingDirective, KindUsingDecl:
			add(d.Target)
		case KindAliasDecl:
			add(d.Name, d.Body)
		case KindTemplateDecl:
			add(d.Params...)
			add(d.Body)
		case KindExplicitInstantiation, KindStaticAssert:
			add(d.Body)
		case KindParamDecl, KindTypeID:
			add(d.Specs, d.Declarator, d.Body)
		case KindTypeParam:
			add(d.Name, d.Body)
		case KindTemplateTemplateParam:
			add(d.Params...)
			add(d.Name, d.Body)
		case KindCtorInit:
			add(d.Name)
			add(d.List...)
		}

	case payloadSpec:
		d := b.Specs.Get(n.Payload)
		add(d.Decltype, d.Type)

	case payloadClassLike:
		d := b.Classes.Get(n.Payload)
		switch n.Kind {
		case KindClassSpec:
			add(d.Name)
			add(d.Bases...)
			add(d.Members...)
		case KindEnumSpec:
			add(d.Name, d.Underlying)
			add(d.Members...)
		case KindElaboratedSpec, KindBaseSpec:
			add(d.Name)
		case KindEnumerator:
			add(d.Name, d.Value)
		}

	case payloadDeclarator:
		d := b.Declarators.Get(n.Payload)
		for _, p := range d.Ptrs {
			add(p.Class)
		}
		add(d.Nested, d.Name)
		for _, s := range d.Suffixes {
			add(s.Size)
			add(s.Params...)
			add(s.Throw...)
			add(s.Trailing)
		}
		add(d.BitWidth, d.Init)

	case payloadStmt:
		d := b.Stmts.Get(n.Payload)
		switch n.Kind {
		case KindCompound:
			add(d.List...)
		case KindDo:
			add(d.B, d.A)
		case KindTry:
			add(d.A)
			add(d.List...)
		default:
			add(d.A, d.B, d.C, d.D)
		}

	case payloadExpr:
		d := b.Exprs.Get(n.Payload)
		switch n.Kind {
		case KindCall:
			add(d.A)
			add(d.List...)
		case KindNew:
			add(d.List...)
			add(d.Type, d.B)
		case KindCast:
			add(d.Type, d.A)
		case KindSizeof, KindTypeidExpr:
			add(d.Type, d.A)
		case KindInitList, KindExprList:
			add(d.List...)
		case KindTypeConstruct:
			add(d.Type)
			add(d.List...)
		default:
			add(d.A, d.B, d.C)
		}
	}
	return out
}

// ImplicitNames returns the implicit name nodes owned by id.
func (b *Builder) ImplicitNames(id NodeID) []NodeID {
	if e := b.Expr(id); e != nil && e.Implicit != NoNode {
		return []NodeID{e.Implicit}
	}
	if d := b.Declarator(id); d != nil && d.Implicit != NoNode {
		return []NodeID{d.Implicit}
	}
	return nil
}

// LinkParents fills Node.Parent for the tree under Root. It is iterative so
// that deeply nested input cannot exhaust the goroutine stack.
func (b *Builder) LinkParents() {
	if b.Root == NoNode {
		return
	}
	stack := []NodeID{b.Root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range b.Children(id) {
			b.Node(c).Parent = id
			stack = append(stack, c)
		}
		for _, c := range b.ImplicitNames(id) {
			b.Node(c).Parent = id
		}
	}
	b.linked = true
}

// Walk visits the tree under root in pre-order. Returning false from fn
// skips the children of that node.
func (b *Builder) Walk(root NodeID, fn func(NodeID) bool) {
	stack := []NodeID{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == NoNode || !fn(id) {
			continue
		}
		kids := b.Children(id)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}

// Ancestor returns the closest enclosing node of kind k, or NoNode.
func (b *Builder) Ancestor(id NodeID, k NodeKind) NodeID {
	for p := b.Parent(id); p != NoNode; p = b.Parent(p) {
		if b.Kind(p) == k {
			return p
		}
	}
	return NoNode
}

// LastName strips qualification: A::B<int>::c yields the node for c.
func (b *Builder) LastName(id NodeID) NodeID {
	for b.Kind(id) == KindQualified {
		id = b.Name(id).Last
	}
	return id
}

// NameString renders a name node the way it was written, without spaces
// except where required.
func (b *Builder) NameString(id NodeID) string {
	d := b.Name(id)
	if d == nil {
		return ""
	}
	switch b.Kind(id) {
	case KindQualified:
		s := ""
		if d.Global {
			s = "::"
		}
		for _, seg := range d.Segments {
			s += b.NameString(seg) + "::"
		}
		return s + b.NameString(d.Last)
	case KindTemplateID:
		s := b.NameString(d.Template) + "<"
		for i, a := range d.Args {
			if i > 0 {
				s += ", "
			}
			s += b.TokenText(a)
		}
		return s + ">"
	case KindDestructorName:
		return "~" + b.NameString(d.Target)
	case KindConversionName:
		return "operator " + b.TokenText(d.Type)
	}
	return d.Text
}

// TokenText joins the token spellings of a node with single spaces.
func (b *Builder) TokenText(id NodeID) string {
	n := b.Node(id)
	if n == nil {
		return ""
	}
	s := ""
	for i := n.First; i < n.End && int(i) < len(b.Tokens); i++ {
		if i > n.First {
			s += " "
		}
		s += b.Tokens[i].Text
	}
	return s
}
