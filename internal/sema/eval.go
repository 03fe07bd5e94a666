package sema

import (
	"strconv"
	"strings"

	"cxxsema/internal/ast"
	"cxxsema/internal/inst"
	"cxxsema/internal/symbols"
	"cxxsema/internal/token"
	"cxxsema/internal/types"
)

// constVal is the value of an integral constant expression. A value that
// depends on template parameters has dep set; when it is a parameter plus
// a constant, pure is set as well and v holds the constant.
type constVal struct {
	v     int64
	ok    bool
	dep   bool
	pure  bool
	param types.ParamKey
}

const (
	valueBusy uint8 = iota + 1
	valueFailed
	valueDependent
)

func known(v int64) constVal { return constVal{v: v, ok: true} }

func boolVal(b bool) constVal {
	if b {
		return known(1)
	}
	return known(0)
}

// constValue evaluates n with no template arguments bound.
func (u *Unit) constValue(n ast.NodeID) constVal {
	if v, ok := u.values[n]; ok {
		return v
	}
	v := u.eval(n, nil)
	u.values[n] = v
	return v
}

// eval folds an integral constant expression. b binds template
// parameters, for expressions of a pattern evaluated inside an instance.
func (u *Unit) eval(n ast.NodeID, b types.Bindings) constVal {
	if !u.valid(n) || !u.kind(n).IsExpr() {
		return constVal{}
	}
	e := u.b.Expr(n)
	switch u.kind(n) {
	case ast.KindLiteral:
		return u.literalValue(e)
	case ast.KindParen:
		return u.eval(e.A, b)
	case ast.KindIdExpr:
		return u.evalName(e.A, b)
	case ast.KindUnary:
		return u.evalUnary(e.Op, u.eval(e.A, b))
	case ast.KindBinary:
		return u.evalBinary(e.Op, e.A, e.B, b)
	case ast.KindConditional:
		c := u.eval(e.A, b)
		switch {
		case c.dep:
			return constVal{dep: true}
		case !c.ok:
			return constVal{}
		case c.v != 0:
			return u.eval(e.B, b)
		}
		return u.eval(e.C, b)
	case ast.KindCast:
		t := u.typeIDType(e.Type)
		if b != nil {
			t, _ = u.subst(t, b)
		}
		v := u.eval(e.A, b)
		if u.types.IsDependent(t) && (v.ok || v.dep) {
			return constVal{dep: true}
		}
		return u.convertValue(v, t)
	case ast.KindTypeConstruct:
		if len(e.List) != 1 {
			if len(e.List) == 0 {
				return known(0)
			}
			return constVal{}
		}
		t := u.typeIDType(e.Type)
		if b != nil {
			t, _ = u.subst(t, b)
		}
		return u.convertValue(u.eval(e.List[0], b), t)
	case ast.KindSizeof:
		return u.evalSizeof(e, b)
	}
	return constVal{}
}

// evalName reads the value of a named constant: an enumerator, a const
// variable with a constant initializer, a non-type template parameter.
func (u *Unit) evalName(name ast.NodeID, b types.Bindings) constVal {
	id := u.resolve(name)
	if b != nil && id.IsValid() {
		id = u.substEntity(id, b)
	}
	s := u.sym(id)
	if s == nil {
		if b != nil {
			return u.dependentValue(name, b)
		}
		return constVal{dep: true}
	}
	switch s.Kind {
	case symbols.SymbolValueParam:
		if s.Flags&symbols.FlagPack != 0 {
			return constVal{dep: true}
		}
		return argValue(b, s.Param.Key(), 0)
	case symbols.SymbolEnumerator:
		return u.enumValue(id)
	case symbols.SymbolVariable, symbols.SymbolField:
		if s.Flags&symbols.FlagConst == 0 {
			return constVal{}
		}
		return u.symbolValue(id, name)
	case symbols.SymbolUsing:
		if s.Target.IsValid() && u.sym(s.Target).Kind == symbols.SymbolEnumerator {
			return u.enumValue(s.Target)
		}
	}
	return constVal{}
}

// dependentValue evaluates Q::x whose qualifier only resolves once b is
// applied.
func (u *Unit) dependentValue(name ast.NodeID, b types.Bindings) constVal {
	if u.kind(name) != ast.KindQualified {
		return constVal{dep: true}
	}
	dt := u.dependentNameType(name)
	if dt == types.NoTypeID {
		return constVal{dep: true}
	}
	q, ok := u.subst(u.types.Elem(dt), b)
	if !ok {
		return constVal{}
	}
	if u.types.IsDependent(q) {
		return constVal{dep: true}
	}
	cls := u.classEntity(q)
	if !cls.IsValid() {
		return constVal{}
	}
	res := u.table.LookupMember(u.graph(), cls, u.intern(u.nameText(u.b.Name(name).Last)), symbols.LookupOptions{})
	id := res.Single()
	if !id.IsValid() {
		return constVal{}
	}
	switch s := u.sym(id); s.Kind {
	case symbols.SymbolEnumerator:
		return u.enumValue(id)
	case symbols.SymbolVariable, symbols.SymbolField:
		if s.Flags&symbols.FlagConst != 0 {
			return u.symbolValue(id, name)
		}
	}
	return constVal{}
}

// symbolValue evaluates the initializer of a constant once. Members of
// instances evaluate their pattern's initializer under the instance
// arguments; the instantiation stack bounds the recursion.
func (u *Unit) symbolValue(id symbols.SymbolID, site ast.NodeID) constVal {
	s := u.sym(id)
	if s.HasValue {
		return known(s.Value)
	}
	if s.Flags&symbols.FlagDependent != 0 {
		return constVal{dep: true}
	}
	switch u.valueState[id] {
	case valueBusy, valueFailed:
		return constVal{}
	case valueDependent:
		return constVal{dep: true}
	}
	pattern, b := id, types.Bindings(nil)
	if s.Instance != nil && s.Instance.Pattern.IsValid() {
		pattern, b = s.Instance.Pattern, s.Instance.Bindings
	}
	init := u.initializerOf(pattern)
	if init == ast.NoNode {
		u.valueState[id] = valueFailed
		return constVal{}
	}
	if !u.stack.Push(inst.Frame{Template: id, Key: "value", Site: u.span(site)}) {
		u.valueState[id] = valueFailed
		u.depthExceeded(site)
		return constVal{}
	}
	u.valueState[id] = valueBusy
	v := u.eval(init, b)
	u.stack.Pop()
	switch {
	case v.ok:
		v = u.convertValue(v, u.symbolType(id))
		delete(u.valueState, id)
		s = u.sym(id)
		s.Value, s.HasValue = v.v, true
	case v.dep && u.sym(id).Instance != nil && u.sym(id).Flags&symbols.FlagDependent == 0:
		// every parameter of a concrete instance is bound
		u.valueState[id] = valueFailed
		v = constVal{}
	case v.dep:
		u.valueState[id] = valueDependent
	default:
		u.valueState[id] = valueFailed
	}
	return v
}

// initializerOf finds the initializer among the declarations of a
// variable: in class or out of line.
func (u *Unit) initializerOf(id symbols.SymbolID) ast.NodeID {
	s := u.sym(id)
	cands := append([]ast.NodeID{s.Node}, s.Decls...)
	for _, c := range cands {
		d := c
		if u.kind(d) != ast.KindDeclarator {
			d = u.b.Ancestor(c, ast.KindDeclarator)
		}
		dd := u.b.Declarator(d)
		if dd == nil || dd.Init == ast.NoNode {
			continue
		}
		init := dd.Init
		if ed := u.b.Expr(init); ed != nil && (u.kind(init) == ast.KindExprList || u.kind(init) == ast.KindInitList) {
			if len(ed.List) != 1 {
				continue
			}
			init = ed.List[0]
		}
		return init
	}
	return ast.NoNode
}

// enumValue is the value of an enumerator: its initializer, or one more
// than the enumerator before it.
func (u *Unit) enumValue(id symbols.SymbolID) constVal {
	s := u.sym(id)
	if s.HasValue {
		return known(s.Value)
	}
	switch u.valueState[id] {
	case valueBusy:
		u.valueState[id] = valueFailed
		u.problem(symbols.CircularReference, s.Node, "enumerator '"+u.text(s.Name)+"' depends on itself")
		return constVal{}
	case valueFailed:
		return constVal{}
	case valueDependent:
		return constVal{dep: true}
	}
	u.valueState[id] = valueBusy
	var v constVal
	if cd := u.b.Class(s.Node); cd != nil && cd.Value != ast.NoNode {
		v = u.eval(cd.Value, nil)
	} else if prev := u.enumPrev[id]; prev.IsValid() {
		v = u.enumValue(prev)
		if v.ok {
			v.v++
		}
	} else {
		v = known(0)
	}
	if u.valueState[id] == valueFailed {
		return constVal{}
	}
	switch {
	case v.ok:
		delete(u.valueState, id)
		s = u.sym(id)
		s.Value, s.HasValue = v.v, true
	case v.dep:
		u.valueState[id] = valueDependent
	default:
		u.valueState[id] = valueFailed
	}
	return v
}

// literalValue reads integer, character and boolean literals.
func (u *Unit) literalValue(e *ast.ExprData) constVal {
	switch e.Op {
	case token.KwTrue:
		return known(1)
	case token.KwFalse, token.KwNullptr:
		return known(0)
	case token.IntLit:
		v, ok := parseIntLiteral(e.Text)
		if !ok {
			return constVal{}
		}
		return known(v)
	case token.CharLit:
		v, ok := parseCharLiteral(e.Text)
		if !ok {
			return constVal{}
		}
		return known(v)
	}
	return constVal{}
}

func parseIntLiteral(text string) (int64, bool) {
	s := strings.ReplaceAll(text, "'", "")
	s = strings.TrimRight(s, "uUlLzZ")
	if len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9' {
		s = "0o" + s[1:]
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, false
	}
	return int64(v), true
}

func parseCharLiteral(text string) (int64, bool) {
	i := strings.IndexByte(text, '\'')
	if i < 0 || len(text) < i+2 {
		return 0, false
	}
	wide := i > 0
	s := text[i+1 : len(text)-1]
	var v int64
	for s != "" {
		r, _, rest, err := strconv.UnquoteChar(s, '\'')
		if err != nil {
			return 0, false
		}
		if wide {
			v = int64(r)
		} else {
			v = v<<8 | int64(byte(r))
		}
		s = rest
	}
	if !wide && len(text)-i-2 == 1 {
		v = int64(int8(v))
	}
	return v, true
}

func (u *Unit) evalUnary(op token.Kind, a constVal) constVal {
	if a.dep {
		if op == token.Plus {
			return a
		}
		return constVal{dep: true}
	}
	if !a.ok {
		return constVal{}
	}
	switch op {
	case token.Plus:
		return a
	case token.Minus:
		return known(-a.v)
	case token.Tilde:
		return known(^a.v)
	case token.Bang:
		return boolVal(a.v == 0)
	}
	return constVal{}
}

func (u *Unit) evalBinary(op token.Kind, an, bn ast.NodeID, b types.Bindings) constVal {
	x := u.eval(an, b)
	switch op {
	case token.AndAnd:
		if x.ok && x.v == 0 {
			return known(0)
		}
	case token.OrOr:
		if x.ok && x.v != 0 {
			return known(1)
		}
	case token.Comma:
		return u.eval(bn, b)
	}
	y := u.eval(bn, b)
	if x.dep || y.dep {
		switch {
		case op == token.Plus && x.pure && y.ok:
			return constVal{v: x.v + y.v, dep: true, pure: true, param: x.param}
		case op == token.Plus && y.pure && x.ok:
			return constVal{v: x.v + y.v, dep: true, pure: true, param: y.param}
		case op == token.Minus && x.pure && y.ok:
			return constVal{v: x.v - y.v, dep: true, pure: true, param: x.param}
		}
		if (x.ok || x.dep) && (y.ok || y.dep) {
			return constVal{dep: true}
		}
		return constVal{}
	}
	if !x.ok || !y.ok {
		return constVal{}
	}
	a, c := x.v, y.v
	switch op {
	case token.Plus:
		return known(a + c)
	case token.Minus:
		return known(a - c)
	case token.Star:
		return known(a * c)
	case token.Slash:
		if c == 0 {
			return constVal{}
		}
		return known(a / c)
	case token.Percent:
		if c == 0 {
			return constVal{}
		}
		return known(a % c)
	case token.Shl:
		if c < 0 || c >= 64 {
			return constVal{}
		}
		return known(a << uint(c))
	case token.Shr:
		if c < 0 || c >= 64 {
			return constVal{}
		}
		return known(a >> uint(c))
	case token.Amp:
		return known(a & c)
	case token.Pipe:
		return known(a | c)
	case token.Caret:
		return known(a ^ c)
	case token.AndAnd:
		return boolVal(a != 0 && c != 0)
	case token.OrOr:
		return boolVal(a != 0 || c != 0)
	case token.EqEq:
		return boolVal(a == c)
	case token.BangEq:
		return boolVal(a != c)
	case token.Lt:
		return boolVal(a < c)
	case token.Gt:
		return boolVal(a > c)
	case token.LtEq:
		return boolVal(a <= c)
	case token.GtEq:
		return boolVal(a >= c)
	}
	return constVal{}
}

// convertValue narrows a value to an integral or enumeration type.
func (u *Unit) convertValue(v constVal, t types.TypeID) constVal {
	if !v.ok {
		return v
	}
	switch u.types.Kind(u.types.NonRef(t)) {
	case types.KindBool:
		return boolVal(v.v != 0)
	case types.KindChar, types.KindSChar:
		return known(int64(int8(v.v)))
	case types.KindUChar:
		return known(int64(uint8(v.v)))
	case types.KindShort:
		return known(int64(int16(v.v)))
	case types.KindUShort, types.KindChar16:
		return known(int64(uint16(v.v)))
	case types.KindInt, types.KindWChar:
		return known(int64(int32(v.v)))
	case types.KindUInt, types.KindChar32:
		return known(int64(uint32(v.v)))
	case types.KindFloat, types.KindDouble, types.KindLongDouble,
		types.KindPointer, types.KindClass, types.KindVoid:
		return constVal{}
	}
	return v
}

func (u *Unit) evalSizeof(e *ast.ExprData, b types.Bindings) constVal {
	var t types.TypeID
	if e.Type != ast.NoNode {
		t = u.typeIDType(e.Type)
	} else {
		if n, ok := u.packSize(e.A, b); ok {
			return n
		}
		t, _ = u.typeExpr(e.A)
	}
	if b != nil {
		var ok bool
		if t, ok = u.subst(t, b); !ok {
			return constVal{}
		}
	}
	if u.types.IsDependent(t) {
		return constVal{dep: true}
	}
	size, _, ok := u.sizeAlign(u.types.NonRef(t))
	if !ok {
		return constVal{}
	}
	return known(size)
}

// packSize counts the elements of a pack named in sizeof...(x).
func (u *Unit) packSize(e ast.NodeID, b types.Bindings) (constVal, bool) {
	for u.kind(e) == ast.KindParen {
		e = u.b.Expr(e).A
	}
	if u.kind(e) != ast.KindIdExpr {
		return constVal{}, false
	}
	s := u.sym(u.resolve(u.b.Expr(e).A))
	if s == nil || s.Flags&symbols.FlagPack == 0 {
		return constVal{}, false
	}
	var key types.ParamKey
	switch {
	case s.Param != nil:
		key = s.Param.Key()
	default:
		k, ok := u.packKey(u.symbolType(u.resolve(u.b.Expr(e).A)))
		if !ok {
			return constVal{dep: true}, true
		}
		key = k
	}
	if a, ok := b[key]; ok && a.Kind == types.ArgPack {
		return known(int64(len(a.Pack))), true
	}
	return constVal{dep: true}, true
}

// sizeAlign lays types out for an LP64 target.
func (u *Unit) sizeAlign(t types.TypeID) (size, align int64, ok bool) {
	tt, found := u.types.Lookup(t)
	if !found {
		return 0, 0, false
	}
	switch tt.Kind {
	case types.KindBool, types.KindChar, types.KindSChar, types.KindUChar:
		return 1, 1, true
	case types.KindShort, types.KindUShort, types.KindChar16:
		return 2, 2, true
	case types.KindInt, types.KindUInt, types.KindWChar, types.KindChar32, types.KindFloat:
		return 4, 4, true
	case types.KindLong, types.KindULong, types.KindLongLong, types.KindULongLong,
		types.KindDouble, types.KindPointer, types.KindNullptr:
		return 8, 8, true
	case types.KindLongDouble:
		return 16, 16, true
	case types.KindMemberPointer:
		if u.types.Kind(tt.Elem) == types.KindFunction {
			return 16, 8, true
		}
		return 8, 8, true
	case types.KindLRef, types.KindRRef:
		return u.sizeAlign(tt.Elem)
	case types.KindArray:
		if tt.Count < 0 {
			return 0, 0, false
		}
		s, a, ok := u.sizeAlign(tt.Elem)
		return s * tt.Count, a, ok
	case types.KindEnum:
		es := u.sym(symbols.SymbolID(tt.Entity))
		if es != nil && es.Inner.IsValid() {
			if ut := u.enumUnderlying(symbols.SymbolID(tt.Entity)); ut != types.NoTypeID {
				return u.sizeAlign(ut)
			}
		}
		return 4, 4, true
	case types.KindClass:
		return u.classLayout(symbols.SymbolID(tt.Entity))
	}
	return 0, 0, false
}

// enumUnderlying is the declared underlying type of an enum, if any.
func (u *Unit) enumUnderlying(id symbols.SymbolID) types.TypeID {
	s := u.sym(id)
	if u.kind(s.Node) != ast.KindEnumSpec {
		return types.NoTypeID
	}
	if ut := u.b.Class(s.Node).Underlying; ut != ast.NoNode {
		return u.typeIDType(ut)
	}
	return types.NoTypeID
}

// classLayout places bases and then non-static fields in order; unions
// overlay their fields. An empty class has size one.
func (u *Unit) classLayout(id symbols.SymbolID) (size, align int64, ok bool) {
	s := u.sym(id)
	if s == nil || !u.classScope(id).IsValid() {
		return 0, 0, false
	}
	union := s.Flags&symbols.FlagUnion != 0
	align = 1
	place := func(fs, fa int64) {
		if fa > align {
			align = fa
		}
		if union {
			size = max(size, fs)
			return
		}
		size = (size+fa-1)/fa*fa + fs
	}
	for _, e := range u.basesOf(id) {
		bs, ba, ok := u.classLayout(e.Class)
		if !ok {
			return 0, 0, false
		}
		if len(u.fieldsOf(e.Class)) == 0 && len(u.basesOf(e.Class)) == 0 {
			continue
		}
		place(bs, ba)
	}
	for _, f := range u.fieldsOf(id) {
		fs, fa, ok := u.sizeAlign(u.symbolType(f))
		if !ok {
			return 0, 0, false
		}
		place(fs, fa)
	}
	if size == 0 {
		return 1, 1, true
	}
	return (size + align - 1) / align * align, align, true
}

// fieldsOf lists the non-static data members of a class.
func (u *Unit) fieldsOf(id symbols.SymbolID) []symbols.SymbolID {
	var out []symbols.SymbolID
	for _, m := range u.allMembers(id) {
		if ms := u.sym(m); ms.Kind == symbols.SymbolField && ms.Flags&symbols.FlagStatic == 0 {
			out = append(out, m)
		}
	}
	return out
}

// depthExceeded reports the instantiation depth limit once per unit.
func (u *Unit) depthExceeded(site ast.NodeID) {
	if u.depthReported {
		return
	}
	u.depthReported = true
	u.problem(symbols.InstantiationDepth, site, "template instantiation depth exceeds maximum of "+strconv.Itoa(u.stack.Max))
}
