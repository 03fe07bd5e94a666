package sema

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"cxxsema/internal/ast"
	"cxxsema/internal/source"
	"cxxsema/internal/symbols"
	"cxxsema/internal/token"
	"cxxsema/internal/types"
)

// typeExpr returns the type and value category of expression e. Operands
// are typed first, without recursion, so deep expression chains do not
// grow the Go stack. Results are cached per node; a reference type never
// appears as an expression type.
func (u *Unit) typeExpr(e ast.NodeID) (types.TypeID, Category) {
	if !u.valid(e) || !u.kind(e).IsExpr() {
		return types.NoTypeID, CategoryNone
	}
	if st := u.exprs[e].state; st != exprPending || u.isFrozen() {
		// an expression being typed is reached again through a
		// declaration it depends on
		return u.exprs[e].typ, u.exprs[e].cat
	}
	stack := []ast.NodeID{e}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		switch u.exprs[n].state {
		case exprDone:
			stack = stack[:len(stack)-1]
		case exprPending:
			u.exprs[n].state = exprTyping
			ops := u.operands(n)
			for i := len(ops) - 1; i >= 0; i-- {
				if c := ops[i]; u.valid(c) && u.kind(c).IsExpr() && u.exprs[c].state == exprPending {
					stack = append(stack, c)
				}
			}
		case exprTyping:
			t, cat := u.typeOne(n)
			if u.exprs[n].state != exprDone {
				u.exprs[n] = exprInfo{state: exprDone, typ: t, cat: cat}
			}
			stack = stack[:len(stack)-1]
		}
	}
	return u.exprs[e].typ, u.exprs[e].cat
}

// operands lists the subexpressions typed before n. A callee named by an
// id-expression or a member access waits for its call.
func (u *Unit) operands(n ast.NodeID) []ast.NodeID {
	e := u.b.Expr(n)
	switch u.kind(n) {
	case ast.KindCall:
		var out []ast.NodeID
		switch callee := u.stripParens(e.A); u.kind(callee) {
		case ast.KindIdExpr:
		case ast.KindMember:
			out = append(out, u.b.Expr(callee).A)
		default:
			out = append(out, e.A)
		}
		return append(out, e.List...)
	case ast.KindMember, ast.KindSizeof, ast.KindTypeidExpr, ast.KindCast,
		ast.KindUnary, ast.KindPostfix, ast.KindParen, ast.KindDelete, ast.KindThrow:
		return []ast.NodeID{e.A}
	case ast.KindBinary, ast.KindSubscript:
		return []ast.NodeID{e.A, e.B}
	case ast.KindConditional:
		return []ast.NodeID{e.A, e.B, e.C}
	case ast.KindNew:
		return append(append([]ast.NodeID(nil), e.List...), e.B)
	case ast.KindTypeConstruct, ast.KindInitList, ast.KindExprList:
		return e.List
	}
	return nil
}

func (u *Unit) stripParens(n ast.NodeID) ast.NodeID {
	for u.kind(n) == ast.KindParen {
		n = u.b.Expr(n).A
	}
	return n
}

// typeOne types n once its operands are typed.
func (u *Unit) typeOne(n ast.NodeID) (types.TypeID, Category) {
	e := u.b.Expr(n)
	switch u.kind(n) {
	case ast.KindLiteral:
		return u.literalType(e)
	case ast.KindIdExpr:
		return u.typeIdExpr(n, e.A)
	case ast.KindThis:
		return u.thisType(n), PRValue
	case ast.KindParen:
		return u.typeExpr(e.A)
	case ast.KindUnary:
		return u.typeUnary(n, e)
	case ast.KindPostfix:
		return u.typePostfix(n, e)
	case ast.KindBinary:
		return u.typeBinary(n, e)
	case ast.KindSubscript:
		return u.typeSubscript(n, e)
	case ast.KindCall:
		return u.typeCall(n, e)
	case ast.KindMember:
		return u.typeMember(n, e)
	case ast.KindCast:
		return u.typeCast(e)
	case ast.KindConditional:
		return u.typeConditional(e)
	case ast.KindSizeof:
		return u.builtins.ULong, PRValue
	case ast.KindTypeidExpr:
		return u.typeInfo(), LValue
	case ast.KindNew:
		return u.typeNew(n, e), PRValue
	case ast.KindDelete, ast.KindThrow:
		return u.builtins.Void, PRValue
	case ast.KindTypeConstruct:
		return u.typeConstruct(n, e)
	}
	return types.NoTypeID, CategoryNone
}

// dependentType stands for an expression whose type is known only after
// instantiation.
func (u *Unit) dependentType() types.TypeID {
	return u.types.DependentName(types.NoTypeID, source.NoStringID)
}

// boolType is the type of conditions and comparisons: int in C.
func (u *Unit) boolType() types.TypeID {
	if u.cxx {
		return u.builtins.Bool
	}
	return u.builtins.Int
}

// --- literals ----------------------------------------------------------------------

func (u *Unit) literalType(e *ast.ExprData) (types.TypeID, Category) {
	B := u.builtins
	switch e.Op {
	case token.IntLit:
		return u.intLiteralType(e.Text), PRValue
	case token.FloatLit:
		s := strings.ToLower(e.Text)
		hex := strings.HasPrefix(s, "0x")
		switch {
		case strings.HasSuffix(s, "l"):
			return B.LongDouble, PRValue
		case strings.HasSuffix(s, "f") && (!hex || strings.Contains(s, "p")):
			return B.Float, PRValue
		}
		return B.Double, PRValue
	case token.CharLit:
		prefix := e.Text[:max(strings.IndexByte(e.Text, '\''), 0)]
		switch prefix {
		case "L":
			return B.WChar, PRValue
		case "u":
			return B.Char16, PRValue
		case "U":
			return B.Char32, PRValue
		}
		if !u.cxx || charCount(e.Text) > 1 {
			return B.Int, PRValue
		}
		return B.Char, PRValue
	case token.StringLit:
		prefix, n := stringLiteral(e.Text)
		elem := B.Char
		switch strings.TrimSuffix(prefix, "R") {
		case "L":
			elem = B.WChar
		case "u":
			elem = B.Char16
		case "U":
			elem = B.Char32
		}
		if u.cxx {
			elem = u.types.Qualify(elem, types.Const)
		}
		return u.types.Array(elem, n), LValue
	case token.KwTrue, token.KwFalse:
		return u.boolType(), PRValue
	case token.KwNullptr:
		return B.Nullptr, PRValue
	}
	return types.NoTypeID, CategoryNone
}

// intLiteralType picks the first type of the literal's list that can
// represent its value. Octal and hexadecimal literals may be unsigned.
func (u *Unit) intLiteralType(text string) types.TypeID {
	B := u.builtins
	s := strings.ToLower(strings.ReplaceAll(text, "'", ""))
	unsigned, long := false, 0
trim:
	for s != "" {
		switch s[len(s)-1] {
		case 'u':
			unsigned = true
		case 'l':
			long++
		case 'z':
			long = 1
		default:
			break trim
		}
		s = s[:len(s)-1]
	}
	decimal := !(len(s) > 1 && s[0] == '0')
	v, _ := parseIntLiteral(text)
	uv := uint64(v)

	type cand struct {
		t   types.TypeID
		max uint64
	}
	signed := []cand{{B.Int, 1<<31 - 1}, {B.Long, 1<<63 - 1}, {B.LongLong, 1<<63 - 1}}
	uns := []cand{{B.UInt, 1<<32 - 1}, {B.ULong, 1<<64 - 1}, {B.ULongLong, 1<<64 - 1}}
	var list []cand
	for i := min(long, 2); i < 3; i++ {
		if long == 2 && i == 1 {
			continue
		}
		if !unsigned {
			list = append(list, signed[i])
		}
		if unsigned || !decimal {
			list = append(list, uns[i])
		}
	}
	for _, c := range list {
		if uv <= c.max {
			return c.t
		}
	}
	if len(list) > 0 {
		return list[len(list)-1].t
	}
	return B.Int
}

// charCount counts the characters of a character literal.
func charCount(text string) int {
	i := strings.IndexByte(text, '\'')
	if i < 0 || len(text) < i+2 {
		return 0
	}
	s := text[i+1 : len(text)-1]
	n := 0
	for s != "" {
		_, _, rest, err := strconv.UnquoteChar(s, '\'')
		if err != nil {
			return n + 1
		}
		s = rest
		n++
	}
	return n
}

// stringLiteral returns the encoding prefix of a (possibly concatenated)
// string literal and the number of elements of its array, the
// terminator included.
func stringLiteral(text string) (string, int64) {
	var prefix string
	var n int64
	for text != "" {
		q := strings.IndexByte(text, '"')
		if q < 0 {
			break
		}
		p := text[:q]
		if p != "" {
			prefix = p
		}
		rest := text[q+1:]
		narrow := p == "" || strings.HasPrefix(p, "u8")
		if strings.HasSuffix(p, "R") {
			open := strings.IndexByte(rest, '(')
			if open < 0 {
				break
			}
			delim := rest[:open]
			body := rest[open+1:]
			end := strings.Index(body, ")"+delim+`"`)
			if end < 0 {
				break
			}
			if narrow {
				n += int64(end)
			} else {
				n += int64(utf8.RuneCountInString(body[:end]))
			}
			text = body[end+len(delim)+2:]
			continue
		}
		i := 0
		for i < len(rest) && rest[i] != '"' {
			if rest[i] == '\\' {
				i++
			}
			i++
		}
		body := rest[:min(i, len(rest))]
		for body != "" {
			escaped := body[0] == '\\'
			r, _, tail, err := strconv.UnquoteChar(body, '"')
			if err != nil {
				body = body[1:]
				n++
				continue
			}
			if narrow && !escaped {
				n += int64(utf8.RuneLen(r))
			} else {
				n++
			}
			body = tail
		}
		if i+1 > len(rest) {
			break
		}
		text = rest[i+1:]
	}
	return prefix, n + 1
}

// --- names ---------------------------------------------------------------------------

// typeIdExpr binds the name of an id-expression and types it. An
// overloaded function name takes the overload its target type selects.
func (u *Unit) typeIdExpr(n, name ast.NodeID) (types.TypeID, Category) {
	id := u.slots[name].sym
	if u.slots[name].state != slotDone {
		id = u.bindExprName(n, name)
	}
	s := u.sym(id)
	if s != nil && s.Flags&symbols.FlagAutoType != 0 && s.Type == types.NoTypeID && (u.symBusy[id] || u.insideOwnDeclarator(name, id)) {
		pid := u.problem(symbols.CircularReference, name,
			"variable '"+u.b.NameString(name)+"' declared with deduced type 'auto' cannot appear in its own initializer")
		u.setNameSlots(name, pid)
		return types.NoTypeID, CategoryNone
	}
	if s != nil && s.Kind == symbols.SymbolFunction && u.types.Kind(u.exprs[n].typ) == types.KindOverloadSet {
		return u.builtins.Overload, LValue
	}
	return u.typeOfBinding(n, id)
}

func (u *Unit) bindExprName(n, name ast.NodeID) symbols.SymbolID {
	u.slots[name].state = slotResolving
	if last := u.b.LastName(name); u.kind(last) == ast.KindTemplateID {
		id := u.lookupBinding(name, symbols.LookupOptions{Pos: u.usePos(name)})
		u.setNameSlots(name, id)
		return id
	}
	res, dep, failed := u.lookupName(name, symbols.LookupOptions{Pos: u.usePos(name)})
	if !res.Ambiguous && len(res.Symbols) > 1 && u.allFunctions(res.Symbols) {
		id := res.Symbols[0]
		if target := u.targetFunctionType(n); target != types.NoTypeID {
			if fn := u.pickFromSet(n, target); fn.IsValid() {
				id = fn
			}
		} else {
			u.exprs[n].typ = u.builtins.Overload
		}
		u.setNameSlots(name, id)
		return id
	}
	if len(res.Symbols) == 1 && u.sym(res.Symbols[0]).Template != nil && u.sym(res.Symbols[0]).Kind == symbols.SymbolFunction {
		if target := u.targetFunctionType(n); target != types.NoTypeID {
			if fn := u.pickFromSet(n, target); fn.IsValid() {
				u.setNameSlots(name, fn)
				return fn
			}
		}
	}
	id := u.pick(name, res, dep, failed)
	u.setNameSlots(name, id)
	return id
}

func (u *Unit) allFunctions(ids []symbols.SymbolID) bool {
	for _, id := range ids {
		if s := u.sym(u.functionOf(id)); s == nil || s.Kind != symbols.SymbolFunction {
			return false
		}
	}
	return true
}

// typeOfBinding is the type and category of a name bound to id.
func (u *Unit) typeOfBinding(n ast.NodeID, id symbols.SymbolID) (types.TypeID, Category) {
	T := u.types
	s := u.sym(id)
	if s == nil {
		return u.dependentType(), LValue
	}
	switch s.Kind {
	case symbols.SymbolVariable, symbols.SymbolParameter, symbols.SymbolField:
		t := u.symbolType(id)
		if T.Kind(t).IsReference() {
			return T.NonRef(t), LValue
		}
		if s.Kind == symbols.SymbolField && s.Flags&(symbols.FlagStatic|symbols.FlagMutable) == 0 {
			if obj := u.implicitObject(n); obj != nil {
				t = T.Qualify(t, T.CVOf(obj.t))
			}
		}
		return t, LValue
	case symbols.SymbolFunction:
		if u.isNonStaticMember(id) {
			return u.symbolType(id), PRValue
		}
		return u.symbolType(id), LValue
	case symbols.SymbolEnumerator:
		if !u.cxx {
			return u.builtins.Int, PRValue
		}
		return u.symbolType(id), PRValue
	case symbols.SymbolValueParam:
		t := u.symbolType(id)
		if T.Kind(t).IsReference() {
			return T.NonRef(t), LValue
		}
		return T.Unqualified(t), PRValue
	case symbols.SymbolUsing:
		return u.typeOfBinding(n, s.Target)
	case symbols.SymbolClass, symbols.SymbolEnum, symbols.SymbolTypedef,
		symbols.SymbolTypeParam, symbols.SymbolTemplateParam:
		return u.typeOfEntity(id), CategoryNone
	}
	return types.NoTypeID, CategoryNone
}

// targetFunctionType finds the function type an overloaded name used as
// a value must match: the declared type it initializes, the type it is
// cast or assigned to.
func (u *Unit) targetFunctionType(n ast.NodeID) types.TypeID {
	T := u.types
	cur := n
	p := u.b.Parent(cur)
	for u.kind(p) == ast.KindParen || u.kind(p) == ast.KindUnary && u.b.Expr(p).Op == token.Amp {
		cur, p = p, u.b.Parent(p)
	}
	var t types.TypeID
	switch u.kind(p) {
	case ast.KindDeclarator:
		if u.b.Declarator(p).Init == cur {
			t = u.symbolType(u.declared[p])
		}
	case ast.KindCast:
		t = u.typeIDType(u.b.Expr(p).Type)
	case ast.KindBinary:
		if pe := u.b.Expr(p); pe.Op == token.Assign && pe.B == cur {
			t, _ = u.typeExpr(pe.A)
		}
	}
	t = T.NonRef(t)
	switch T.Kind(t) {
	case types.KindPointer, types.KindMemberPointer:
		t = T.Elem(t)
	}
	if T.Kind(t) != types.KindFunction {
		return types.NoTypeID
	}
	return t
}

// pickFromSet chooses, among the functions an id-expression names, the
// one of type target. Function templates are deduced from target.
func (u *Unit) pickFromSet(n ast.NodeID, target types.TypeID) symbols.SymbolID {
	n = u.stripParens(n)
	if u.kind(n) == ast.KindUnary && u.b.Expr(n).Op == token.Amp {
		n = u.stripParens(u.b.Expr(n).A)
	}
	if u.kind(n) != ast.KindIdExpr {
		return symbols.NoSymbolID
	}
	name := u.b.Expr(n).A
	var explicit []types.TemplateArg
	var cands []symbols.SymbolID
	if last := u.b.LastName(name); u.kind(last) == ast.KindTemplateID {
		ids, _, _ := u.templateCandidates(last)
		cands = ids
		if len(ids) > 0 {
			explicit = u.templateArgs(last, ids[0])
		}
	} else {
		res, _, _ := u.lookupName(name, symbols.LookupOptions{Pos: u.usePos(name)})
		cands = res.Symbols
	}
	var tmpl symbols.SymbolID
	var tb types.Bindings
	for _, c := range cands {
		c = u.functionOf(c)
		s := u.sym(c)
		if s == nil || s.Kind != symbols.SymbolFunction {
			continue
		}
		if s.Template == nil {
			ft := u.symbolType(c)
			if u.sameParams(ft, target) && u.types.Elem(ft) == u.types.Elem(target) {
				return c
			}
			continue
		}
		if !tmpl.IsValid() {
			if b, ok := u.deduceFromType(c, explicit, target); ok {
				tmpl, tb = c, b
			}
		}
	}
	if tmpl.IsValid() {
		return u.instantiate(tmpl, u.argsFromBindings(tmpl, tb), name)
	}
	return symbols.NoSymbolID
}

// bindSetArgs binds overloaded names passed as arguments to the function
// their conversion picked.
func (u *Unit) bindSetArgs(nodes []ast.NodeID, convs []conversion) {
	for i, c := range convs {
		if !c.fn.IsValid() || i >= len(nodes) {
			continue
		}
		n := u.stripParens(nodes[i])
		amp := u.kind(n) == ast.KindUnary && u.b.Expr(n).Op == token.Amp
		if amp {
			n = u.stripParens(u.b.Expr(n).A)
		}
		if u.kind(n) != ast.KindIdExpr {
			continue
		}
		u.setNameSlots(u.b.Expr(n).A, c.fn)
		ft := u.symbolType(c.fn)
		u.exprs[n] = exprInfo{state: exprDone, typ: ft, cat: LValue}
		if amp {
			u.exprs[u.stripParens(nodes[i])] = exprInfo{state: exprDone, typ: u.types.Pointer(ft), cat: PRValue}
		}
	}
}

// --- this and the implied object --------------------------------------------------

// enclosingFunction is the function whose body contains n.
func (u *Unit) enclosingFunction(n ast.NodeID) symbols.SymbolID {
	return u.bodies[u.table.Enclosing(u.scopeAt(n), symbols.ScopeFunction)]
}

// hasThis reports functions with a this pointer.
func (u *Unit) hasThis(fn symbols.SymbolID) bool {
	s := u.sym(fn)
	if s == nil || s.Kind != symbols.SymbolFunction || s.Flags&symbols.FlagStatic != 0 {
		return false
	}
	sc := u.scope(s.Scope)
	return sc != nil && sc.Kind == symbols.ScopeClass
}

// implicitObject is *this inside a non-static member function, nil
// elsewhere.
func (u *Unit) implicitObject(n ast.NodeID) *callArg {
	fn := u.enclosingFunction(n)
	if !u.hasThis(fn) {
		return nil
	}
	cls := u.owner(u.sym(fn).Scope)
	ft, _ := u.types.Lookup(u.symbolType(fn))
	return &callArg{t: u.types.Qualify(u.typeOfEntity(cls), ft.FnCV), cat: LValue}
}

func (u *Unit) thisType(n ast.NodeID) types.TypeID {
	if obj := u.implicitObject(n); obj != nil {
		return u.types.Pointer(obj.t)
	}
	// default member initializers and trailing return types
	if fn := u.enclosingFunction(n); !fn.IsValid() {
		if cls := u.enclosingClass(u.scopeAt(n)); cls.IsValid() {
			return u.types.Pointer(u.typeOfEntity(cls))
		}
	}
	u.report(problemCodes[symbols.InvalidType], n, "invalid use of 'this' outside of a non-static member function")
	return types.NoTypeID
}

// --- casts, conditionals and friends ------------------------------------------------

func (u *Unit) typeCast(e *ast.ExprData) (types.TypeID, Category) {
	T := u.types
	t := u.typeIDType(e.Type)
	if !u.cxx && u.kind(e.A) == ast.KindInitList {
		// compound literal
		return t, LValue
	}
	return T.NonRef(t), categoryOf(T, t)
}

func (u *Unit) typeConditional(e *ast.ExprData) (types.TypeID, Category) {
	T := u.types
	bn := e.B
	if bn == ast.NoNode {
		bn = e.A
	}
	bt, bcat := u.typeExpr(bn)
	ct, ccat := u.typeExpr(e.C)
	if T.IsDependent(bt) || T.IsDependent(ct) {
		return u.dependentType(), PRValue
	}
	switch {
	case u.kind(bn) == ast.KindThrow:
		return ct, ccat
	case u.kind(e.C) == ast.KindThrow:
		return bt, bcat
	case bt == types.NoTypeID || ct == types.NoTypeID:
		return types.NoTypeID, CategoryNone
	}
	if T.Unqualified(bt) == T.Unqualified(ct) {
		cv := T.CVOf(bt) | T.CVOf(ct)
		if bcat == ccat && bcat.IsGLValue() && u.cxx {
			return T.Qualify(bt, cv), bcat
		}
		return T.Unqualified(T.Decay(bt)), PRValue
	}
	bs, cs := T.Decay(T.Unqualified(bt)), T.Decay(T.Unqualified(ct))
	bk, ck := T.Kind(bs), T.Kind(cs)
	switch {
	case (bk.IsArithmetic() || bk == types.KindEnum) && (ck.IsArithmetic() || ck == types.KindEnum):
		return u.usualArithmetic(bs, cs), PRValue
	case bk == types.KindPointer && (ck != types.KindPointer || T.Kind(T.Elem(cs)) == types.KindVoid):
		if ck == types.KindPointer {
			return cs, PRValue
		}
		return bs, PRValue
	case ck == types.KindPointer:
		return cs, PRValue
	}
	bc, cc := u.classEntity(bs), u.classEntity(cs)
	if bc.IsValid() && cc.IsValid() {
		if u.baseDistance(bc, cc) > 0 {
			return cs, PRValue
		}
		if u.baseDistance(cc, bc) > 0 {
			return bs, PRValue
		}
	}
	return bs, PRValue
}

// typeInfo is const std::type_info when the program declares it.
func (u *Unit) typeInfo() types.TypeID {
	for _, ns := range u.table.Bucket(u.table.Global, u.intern("std")) {
		s := u.sym(ns)
		if s.Kind != symbols.SymbolNamespace {
			continue
		}
		for _, id := range u.table.Bucket(s.Inner, u.intern("type_info")) {
			if t := u.typeOfEntity(id); t != types.NoTypeID {
				return u.types.Qualify(t, types.Const)
			}
		}
	}
	return types.NoTypeID
}

// --- braced lists and designators ----------------------------------------------------

// initListTarget is the type a braced list initializes, when the context
// names it.
func (u *Unit) initListTarget(list ast.NodeID) types.TypeID {
	T := u.types
	p := u.b.Parent(list)
	switch u.kind(p) {
	case ast.KindDeclarator:
		if u.b.Declarator(p).Init == list {
			return T.NonRef(u.symbolType(u.declared[p]))
		}
	case ast.KindBinary:
		if pe := u.b.Expr(p); pe.B == list && pe.Op == token.Assign {
			t, _ := u.typeExpr(pe.A)
			return t
		}
	case ast.KindCast:
		return u.typeIDType(u.b.Expr(p).Type)
	case ast.KindTypeConstruct:
		return u.typeIDType(u.b.Expr(p).Type)
	case ast.KindInitList:
		outer := u.initListTarget(p)
		idx := 0
		for _, el := range u.b.Expr(p).List {
			if el == list {
				break
			}
			idx++
		}
		switch T.Kind(outer) {
		case types.KindArray:
			return T.Elem(outer)
		case types.KindClass:
			fields := u.fieldsOf(u.classEntity(outer))
			if idx < len(fields) {
				return u.symbolType(fields[idx])
			}
		}
	}
	return types.NoTypeID
}

// typeDesignator types the first component of a designator, .name or
// [index], against the object the enclosing braced list initializes.
func (u *Unit) typeDesignator(n ast.NodeID, e *ast.ExprData) (types.TypeID, Category) {
	T := u.types
	cur := n
	p := u.b.Parent(cur)
	for (u.kind(p) == ast.KindMember || u.kind(p) == ast.KindSubscript) && u.b.Expr(p).A == cur {
		cur, p = p, u.b.Parent(p)
	}
	var target types.TypeID
	if u.kind(p) == ast.KindBinary && u.b.Expr(p).A == cur && u.kind(u.b.Parent(p)) == ast.KindInitList {
		target = u.initListTarget(u.b.Parent(p))
	}
	if u.kind(n) == ast.KindSubscript {
		if T.Kind(target) == types.KindArray {
			return T.Elem(target), LValue
		}
		return types.NoTypeID, CategoryNone
	}
	if T.IsDependent(target) {
		return u.dependentType(), LValue
	}
	cls := u.classEntity(target)
	if !cls.IsValid() {
		if target != types.NoTypeID {
			u.setSlot(e.B, u.problem(symbols.NameNotFound, e.B, "field designator '"+u.b.NameString(e.B)+"' does not refer to any field in type '"+u.table.TypeString(target)+"'"))
		}
		return types.NoTypeID, CategoryNone
	}
	id := u.memberBinding(cls, e.B)
	u.setNameSlots(e.B, id)
	return u.memberAccessType(id, target, LValue)
}
