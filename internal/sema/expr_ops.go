package sema

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/symbols"
	"cxxsema/internal/token"
	"cxxsema/internal/types"
)

// opResult is what userOperator found for an operator expression.
type opResult struct {
	handled bool
	t       types.TypeID
	cat     Category
}

// userOperator resolves an operator applied to class or enumeration
// operands against the operator functions in scope: members of the first
// operand, non-members found by ordinary lookup and by ADL. It reports
// handled=false when the built-in operator applies instead.
func (u *Unit) userOperator(n ast.NodeID, e *ast.ExprData, op token.Kind, operands []ast.NodeID, memberOnly, postfix bool) opResult {
	T := u.types
	if !u.cxx {
		return opResult{}
	}
	args := make([]callArg, 0, len(operands)+1)
	user := false
	for _, o := range operands {
		t, cat := u.typeExpr(o)
		switch T.Kind(T.NonRef(t)) {
		case types.KindClass, types.KindEnum:
			user = true
		}
		args = append(args, callArg{t: t, cat: cat, node: o})
	}
	if !user {
		return opResult{}
	}
	name := u.intern(operatorName(op, false))
	var cands []symbols.SymbolID
	if cls := u.classEntity(T.NonRef(args[0].t)); cls.IsValid() {
		cands = append(cands, u.table.LookupMember(u.graph(), cls, name, symbols.LookupOptions{}).Symbols...)
	}
	if !memberOnly {
		res := u.table.LookupUnqualified(u.graph(), u.scopeAt(n), name, symbols.LookupOptions{Pos: u.usePos(n)})
		for _, id := range res.Symbols {
			if s := u.sym(u.functionOf(id)); s != nil && s.Kind == symbols.SymbolFunction && !u.isNonStaticMember(u.functionOf(id)) {
				cands = append(cands, id)
			}
		}
		cands = append(cands, u.adlCandidates(name, args)...)
	}
	if len(cands) == 0 {
		return opResult{}
	}
	if postfix {
		args = append(args, callArg{t: u.builtins.Int, cat: PRValue})
	}
	out := u.resolveOverload(callSite{cands: cands, args: args, operator: true, site: n})
	switch {
	case out.best.IsValid():
		if e.Implicit != ast.NoNode {
			u.setSlot(e.Implicit, out.best)
		}
		u.bindSetArgs(operands, u.operandConvs(out))
		rt := T.Elem(out.typ)
		return opResult{handled: true, t: T.NonRef(rt), cat: categoryOf(T, rt)}
	case out.problem == symbols.NoViableOverload && u.builtinCandidate(args):
		return opResult{}
	case out.problem == symbols.NoViableOverload && op == token.Assign && u.implicitAssign(args):
		return opResult{}
	}
	what := operatorName(op, false)
	id := u.reportOverload(out, cands, n, what)
	if e.Implicit != ast.NoNode {
		u.setSlot(e.Implicit, id)
	}
	return opResult{handled: true}
}

// operandConvs drops the implied object slot of a member operator.
func (u *Unit) operandConvs(out overloadOutcome) []conversion {
	if u.isNonStaticMember(out.fn) && len(out.convs) > 0 {
		return append([]conversion{exactConversion()}, out.convs[1:]...)
	}
	return out.convs
}

// builtinCandidate reports operands a built-in operator can still take:
// enumerations, and classes converting to a scalar.
func (u *Unit) builtinCandidate(args []callArg) bool {
	T := u.types
	for _, a := range args {
		t := T.NonRef(a.t)
		if cls := u.classEntity(t); cls.IsValid() && len(u.conversionFunctions(cls)) == 0 {
			return false
		}
	}
	return true
}

// implicitAssign reports assignments the implicitly declared copy or move
// assignment operator accepts.
func (u *Unit) implicitAssign(args []callArg) bool {
	if len(args) != 2 {
		return false
	}
	lc := u.classEntity(u.types.NonRef(args[0].t))
	if u.kind(args[1].node) == ast.KindInitList {
		return lc.IsValid()
	}
	rc := u.classEntity(u.types.NonRef(args[1].t))
	return lc.IsValid() && rc.IsValid() && u.baseDistance(rc, lc) >= 0
}

// scalarOperand is the type a built-in operator sees for an operand: the
// result of a class's conversion function, arrays and functions decayed.
func (u *Unit) scalarOperand(t types.TypeID) types.TypeID {
	T := u.types
	t = T.NonRef(t)
	if cls := u.classEntity(t); cls.IsValid() {
		for _, fn := range u.conversionFunctions(cls) {
			if u.sym(fn).Template == nil {
				return T.Unqualified(T.NonRef(T.Elem(u.symbolType(fn))))
			}
		}
		return t
	}
	return T.Unqualified(T.Decay(t))
}

// --- unary and postfix -------------------------------------------------------------

func (u *Unit) typeUnary(n ast.NodeID, e *ast.ExprData) (types.TypeID, Category) {
	T := u.types
	if e.Op == token.KwNoexcept {
		return u.builtins.Bool, PRValue
	}
	at, _ := u.typeExpr(e.A)
	if T.IsDependent(at) {
		if e.Op == token.Amp {
			return T.Pointer(at), PRValue
		}
		return u.dependentType(), PRValue
	}
	if r := u.userOperator(n, e, e.Op, []ast.NodeID{e.A}, false, false); r.handled {
		return r.t, r.cat
	}
	if at == types.NoTypeID {
		return types.NoTypeID, CategoryNone
	}
	switch e.Op {
	case token.Amp:
		if mp := u.memberPointerOf(e.A); mp != types.NoTypeID {
			return mp, PRValue
		}
		if T.Kind(at) == types.KindOverloadSet {
			return at, PRValue
		}
		return T.Pointer(at), PRValue
	case token.Star:
		st := T.Decay(T.Unqualified(at))
		switch T.Kind(st) {
		case types.KindPointer:
			return T.Elem(st), LValue
		case types.KindFunction:
			return at, LValue
		}
		u.report(problemCodes[symbols.InvalidType], n, "indirection requires pointer operand ('"+u.table.TypeString(at)+"' invalid)")
		return types.NoTypeID, CategoryNone
	case token.Plus, token.Minus, token.Tilde:
		st := u.scalarOperand(at)
		if e.Op == token.Plus && T.Kind(st) == types.KindPointer {
			return st, PRValue
		}
		return u.promoted(st), PRValue
	case token.Bang:
		return u.boolType(), PRValue
	case token.PlusPlus, token.MinusMinus:
		if !u.cxx {
			return T.Unqualified(at), PRValue
		}
		return at, LValue
	}
	return types.NoTypeID, CategoryNone
}

// memberPointerOf types &C::m, a pointer to a non-static member.
func (u *Unit) memberPointerOf(operand ast.NodeID) types.TypeID {
	if u.kind(operand) != ast.KindIdExpr {
		return types.NoTypeID
	}
	name := u.b.Expr(operand).A
	if u.kind(name) != ast.KindQualified {
		return types.NoTypeID
	}
	id := u.functionOf(u.slots[name].sym)
	s := u.sym(id)
	if s == nil || s.Flags&symbols.FlagStatic != 0 {
		return types.NoTypeID
	}
	switch {
	case s.Kind == symbols.SymbolField, u.isNonStaticMember(id):
	default:
		return types.NoTypeID
	}
	cls := u.owner(s.Scope)
	return u.types.MemberPointer(u.typeOfEntity(cls), u.symbolType(id))
}

func (u *Unit) typePostfix(n ast.NodeID, e *ast.ExprData) (types.TypeID, Category) {
	T := u.types
	at, _ := u.typeExpr(e.A)
	if T.IsDependent(at) {
		return u.dependentType(), PRValue
	}
	if r := u.userOperator(n, e, e.Op, []ast.NodeID{e.A}, false, true); r.handled {
		return r.t, r.cat
	}
	return T.Unqualified(at), PRValue
}

// --- binary ----------------------------------------------------------------------------

func (u *Unit) typeBinary(n ast.NodeID, e *ast.ExprData) (types.TypeID, Category) {
	T := u.types
	if u.isDesignator(e.A) {
		// .field = value inside a braced list
		return types.NoTypeID, CategoryNone
	}
	at, acat := u.typeExpr(e.A)
	bt, bcat := u.typeExpr(e.B)
	if e.Op == token.Comma && !u.cxx {
		return bt, PRValue
	}
	if T.IsDependent(at) || T.IsDependent(bt) {
		return u.dependentType(), PRValue
	}
	if r := u.userOperator(n, e, e.Op, []ast.NodeID{e.A, e.B}, e.Op == token.Assign, false); r.handled {
		return r.t, r.cat
	}
	if e.Op == token.Comma {
		return bt, bcat
	}
	if at == types.NoTypeID || bt == types.NoTypeID {
		if e.Op.IsAssignOp() && at != types.NoTypeID {
			return at, LValue
		}
		return types.NoTypeID, CategoryNone
	}
	if e.Op == token.Assign {
		if lc := u.classEntity(at); lc.IsValid() {
			// implicitly declared copy or move assignment
			if u.kind(e.B) == ast.KindInitList {
				return at, LValue
			}
			if rc := u.classEntity(T.NonRef(bt)); rc.IsValid() && u.baseDistance(rc, lc) >= 0 {
				return at, LValue
			}
		}
	}
	return u.builtinBinary(n, e.Op, at, acat, bt)
}

// isDesignator reports the designator half of a designated initializer.
func (u *Unit) isDesignator(n ast.NodeID) bool {
	for {
		switch u.kind(n) {
		case ast.KindMember, ast.KindSubscript:
			e := u.b.Expr(n)
			if e.A == ast.NoNode {
				return true
			}
			n = e.A
		default:
			return false
		}
	}
}

func (u *Unit) builtinBinary(n ast.NodeID, op token.Kind, at types.TypeID, acat Category, bt types.TypeID) (types.TypeID, Category) {
	T := u.types
	if op.IsAssignOp() {
		if !u.cxx {
			return T.Unqualified(at), PRValue
		}
		return at, LValue
	}
	switch op {
	case token.EqEq, token.BangEq, token.Lt, token.Gt, token.LtEq, token.GtEq, token.AndAnd, token.OrOr:
		return u.boolType(), PRValue
	case token.DotStar, token.ArrowStar:
		return u.memberPointerAccess(n, op, at, acat, bt)
	}
	as, bs := u.scalarOperand(at), u.scalarOperand(bt)
	ak, bk := T.Kind(as), T.Kind(bs)
	switch op {
	case token.Plus, token.Minus:
		switch {
		case ak == types.KindPointer && bk == types.KindPointer && op == token.Minus:
			return u.builtins.Long, PRValue
		case ak == types.KindPointer:
			return as, PRValue
		case bk == types.KindPointer && op == token.Plus:
			return bs, PRValue
		}
	case token.Shl, token.Shr:
		return u.promoted(as), PRValue
	}
	if !arithmeticLike(ak) || !arithmeticLike(bk) {
		u.report(problemCodes[symbols.InvalidType], n, "invalid operands to binary expression ('"+
			u.table.TypeString(at)+"' and '"+u.table.TypeString(bt)+"')")
		return types.NoTypeID, CategoryNone
	}
	return u.usualArithmetic(as, bs), PRValue
}

func arithmeticLike(k types.Kind) bool { return k.IsArithmetic() || k == types.KindEnum }

// memberPointerAccess types obj.*pm and ptr->*pm.
func (u *Unit) memberPointerAccess(n ast.NodeID, op token.Kind, at types.TypeID, acat Category, bt types.TypeID) (types.TypeID, Category) {
	T := u.types
	mp := T.Unqualified(T.NonRef(bt))
	if T.Kind(mp) != types.KindMemberPointer {
		u.report(problemCodes[symbols.InvalidType], n, "right hand operand to "+op.String()+" has non-pointer-to-member type '"+u.table.TypeString(bt)+"'")
		return types.NoTypeID, CategoryNone
	}
	obj := at
	cat := acat
	if op == token.ArrowStar {
		obj = T.Elem(T.Decay(T.Unqualified(at)))
		cat = LValue
	}
	elem := T.Elem(mp)
	if T.Kind(elem) == types.KindFunction {
		return elem, PRValue
	}
	if cat == PRValue {
		cat = XValue
	}
	return T.Qualify(elem, T.CVOf(obj)), cat
}

// usualArithmetic is the common type of two arithmetic operands.
func (u *Unit) usualArithmetic(a, b types.TypeID) types.TypeID {
	T := u.types
	a, b = T.Unqualified(a), T.Unqualified(b)
	if T.Kind(a) == types.KindEnum {
		a = u.promoted(a)
	}
	if T.Kind(b) == types.KindEnum {
		b = u.promoted(b)
	}
	ak, bk := T.Kind(a), T.Kind(b)
	if ak.IsFloating() || bk.IsFloating() {
		switch {
		case !bk.IsFloating():
			return a
		case !ak.IsFloating():
			return b
		case ak >= bk:
			return a
		}
		return b
	}
	a, b = u.promoted(a), u.promoted(b)
	ak, bk = T.Kind(a), T.Kind(b)
	switch {
	case a == b:
		return a
	case ak.IsSigned() == bk.IsSigned():
		if ak.Rank() >= bk.Rank() {
			return a
		}
		return b
	}
	uns, sig := a, b
	if ak.IsSigned() {
		uns, sig = b, a
	}
	uk, sk := T.Kind(uns), T.Kind(sig)
	if uk.Rank() >= sk.Rank() {
		return uns
	}
	us, _, _ := u.sizeAlign(uns)
	ss, _, _ := u.sizeAlign(sig)
	if ss > us {
		return sig
	}
	return u.unsignedOf(sig)
}

func (u *Unit) unsignedOf(t types.TypeID) types.TypeID {
	switch u.types.Kind(t) {
	case types.KindInt:
		return u.builtins.UInt
	case types.KindLong:
		return u.builtins.ULong
	case types.KindLongLong:
		return u.builtins.ULongLong
	}
	return t
}

// --- subscript ---------------------------------------------------------------------------

func (u *Unit) typeSubscript(n ast.NodeID, e *ast.ExprData) (types.TypeID, Category) {
	T := u.types
	if e.A == ast.NoNode {
		return u.typeDesignator(n, e)
	}
	at, _ := u.typeExpr(e.A)
	bt, _ := u.typeExpr(e.B)
	if T.IsDependent(at) || T.IsDependent(bt) {
		return u.dependentType(), LValue
	}
	if u.classEntity(T.NonRef(at)).IsValid() {
		if r := u.userOperator(n, e, token.LBracket, []ast.NodeID{e.A, e.B}, true, false); r.handled {
			return r.t, r.cat
		}
	}
	for _, t := range []types.TypeID{at, bt} {
		st := T.Decay(T.Unqualified(T.NonRef(t)))
		if T.Kind(st) == types.KindPointer {
			return T.Elem(st), LValue
		}
	}
	if at != types.NoTypeID && bt != types.NoTypeID {
		u.report(problemCodes[symbols.InvalidType], n, "subscripted value is not an array or pointer")
	}
	return types.NoTypeID, CategoryNone
}
