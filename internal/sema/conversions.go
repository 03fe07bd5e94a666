package sema

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/symbols"
	"cxxsema/internal/types"
)

// rank orders implicit conversion sequences; lower is better.
type rank uint8

const (
	rankExact rank = iota
	rankPromotion
	rankConversion
	rankUser
	rankEllipsis
	rankBad
)

// stdConv is a standard conversion sequence.
type stdConv struct {
	rank   rank
	qual   bool // qualification adjustment only
	toBool bool // pointer or member pointer to bool
	toVoid bool // pointer to void*
	base   int  // derived-to-base steps
}

// conversion is an implicit conversion sequence from an argument to a
// parameter. For a user-defined conversion std is the second standard
// conversion, after the constructor or conversion function user.
type conversion struct {
	kind    rank
	std     stdConv
	user    symbols.SymbolID
	ref     bool // binds a reference
	rvalRef bool // binds an rvalue to an rvalue reference
	refCV   types.CV
	// fn is the function picked from an overloaded name passed as the
	// argument.
	fn symbols.SymbolID
}

var badConversion = conversion{kind: rankBad}

func exactConversion() conversion { return conversion{kind: rankExact} }

func fromStd(s stdConv) conversion { return conversion{kind: s.rank, std: s} }

// implicit computes the conversion of a to type to. Unknown and
// dependent types convert exactly so that errors do not cascade.
func (u *Unit) implicit(a callArg, to types.TypeID, allowUser bool) conversion {
	T := u.types
	if a.node != ast.NoNode && u.kind(a.node) == ast.KindInitList && to != types.NoTypeID && !T.IsDependent(to) {
		return u.listConversion(a, to, allowUser)
	}
	if a.t == types.NoTypeID || to == types.NoTypeID || T.IsDependent(a.t) || T.IsDependent(to) {
		return exactConversion()
	}
	if T.Kind(a.t) == types.KindOverloadSet {
		return u.overloadSetConversion(a, to)
	}
	if T.Kind(to).IsReference() {
		return u.bindReference(a, to, allowUser)
	}
	from := T.NonRef(a.t)
	if T.IsClass(to) || T.IsClass(from) {
		return u.classConversion(a, from, to, allowUser)
	}
	return fromStd(u.standard(a, from, to))
}

// bindReference binds a reference parameter: directly to a compatible
// glvalue or class rvalue, otherwise to a temporary initialized from a.
func (u *Unit) bindReference(a callArg, to types.TypeID, allowUser bool) conversion {
	T := u.types
	ref := T.Elem(to)
	rcv := T.CVOf(ref)
	from := T.NonRef(a.t)
	lref := T.Kind(to) == types.KindLRef
	// const T& and const volatile T& both accept a temporary
	constRef := rcv&types.Const != 0
	compat, dist := u.refCompatible(ref, from)

	var direct bool
	switch {
	case lref && a.cat == LValue && compat:
		direct = true
	case compat && a.cat != LValue && (!lref || constRef):
		direct = true
	case lref && !constRef:
		return badConversion
	case !lref && a.cat == LValue && compat:
		return badConversion
	}
	if direct {
		c := conversion{kind: rankExact, ref: true, refCV: rcv, rvalRef: !lref}
		if dist > 0 {
			c.kind = rankConversion
			c.std = stdConv{rank: rankConversion, base: dist}
		}
		return c
	}
	c := u.implicit(callArg{t: from, cat: PRValue, node: a.node}, T.Unqualified(ref), allowUser)
	if c.kind == rankBad {
		return c
	}
	c.ref, c.refCV, c.rvalRef = true, rcv, !lref
	return c
}

// refCompatible reports whether a reference to ref binds an object of
// type from directly, and the derived-to-base distance it takes.
func (u *Unit) refCompatible(ref, from types.TypeID) (bool, int) {
	T := u.types
	if !T.CVOf(ref).Covers(T.CVOf(from)) {
		return false, 0
	}
	ru, fu := T.Unqualified(ref), T.Unqualified(from)
	if ru == fu {
		return true, 0
	}
	rc, fc := u.classEntity(ru), u.classEntity(fu)
	if rc.IsValid() && fc.IsValid() {
		if d := u.baseDistance(fc, rc); d > 0 {
			return true, d
		}
	}
	return false, 0
}

// classConversion converts to or from a class type: a copy, a
// derived-to-base slice, or a user-defined conversion.
func (u *Unit) classConversion(a callArg, from, to types.TypeID, allowUser bool) conversion {
	fc, tc := u.classEntity(from), u.classEntity(to)
	if fc.IsValid() && tc.IsValid() {
		if fc == tc {
			return exactConversion()
		}
		if d := u.baseDistance(fc, tc); d > 0 {
			return fromStd(stdConv{rank: rankConversion, base: d})
		}
	}
	if !allowUser || !u.cxx {
		return badConversion
	}
	return u.userConversion(a, from, to)
}

// userConversion picks the best converting constructor of the target or
// conversion function of the source. Only one user conversion applies.
func (u *Unit) userConversion(a callArg, from, to types.TypeID) conversion {
	T := u.types
	best := badConversion
	consider := func(fn symbols.SymbolID, second conversion) {
		if second.kind == rankBad || second.kind == rankUser {
			return
		}
		c := conversion{kind: rankUser, user: fn, std: second.std}
		if best.kind == rankBad || compareStd(c.std, best.std) > 0 {
			best = c
		}
	}
	if tc := u.classEntity(to); tc.IsValid() {
		for _, ctor := range u.constructors(tc) {
			cs := u.sym(ctor)
			if cs.Flags&symbols.FlagExplicit != 0 || cs.Template != nil {
				continue
			}
			ft := u.symbolType(ctor)
			ps := T.Params(ft)
			if len(ps) == 0 || len(ps) > 1 && u.requiredParams(ctor, len(ps)) > 1 {
				continue
			}
			consider(ctor, u.implicit(a, ps[0], false))
		}
	}
	if fc := u.classEntity(from); fc.IsValid() {
		for _, cf := range u.conversionFunctions(fc) {
			cs := u.sym(cf)
			if cs.Flags&symbols.FlagExplicit != 0 || cs.Template != nil {
				continue
			}
			ft, ok := T.Lookup(u.symbolType(cf))
			if !ok || ft.Kind != types.KindFunction || !ft.FnCV.Covers(T.CVOf(from)) {
				continue
			}
			consider(cf, u.implicit(callArg{t: ft.Elem, cat: categoryOf(T, ft.Elem)}, to, false))
		}
	}
	return best
}

// standard computes a standard conversion between non-class types.
func (u *Unit) standard(a callArg, from, to types.TypeID) stdConv {
	T := u.types
	from = T.Decay(from)
	fu, tu := T.Unqualified(from), T.Unqualified(to)
	if fu == tu {
		return stdConv{rank: rankExact}
	}
	fk, tk := T.Kind(fu), T.Kind(tu)
	bad := stdConv{rank: rankBad}
	unscoped := fk == types.KindEnum && !u.scopedEnum(fu)
	switch {
	case tk == types.KindBool && (fk.IsArithmetic() || unscoped || fk == types.KindPointer || fk == types.KindMemberPointer):
		return stdConv{rank: rankConversion, toBool: fk == types.KindPointer || fk == types.KindMemberPointer}
	case tk.IsArithmetic() && (fk.IsArithmetic() || unscoped):
		if u.promotes(fu, tu) {
			return stdConv{rank: rankPromotion}
		}
		return stdConv{rank: rankConversion}
	case tk == types.KindEnum && !u.cxx && (fk.IsArithmetic() || fk == types.KindEnum):
		return stdConv{rank: rankConversion}
	case tk == types.KindPointer:
		if fk == types.KindNullptr || u.nullPointerConstant(a.node) {
			return stdConv{rank: rankConversion}
		}
		if fk == types.KindPointer {
			return u.pointerConversion(fu, tu)
		}
		if !u.cxx && fk.IsIntegral() {
			return stdConv{rank: rankConversion}
		}
	case tk == types.KindMemberPointer:
		if fk == types.KindNullptr || u.nullPointerConstant(a.node) {
			return stdConv{rank: rankConversion}
		}
		if fk == types.KindMemberPointer && u.qualCompatible(T.Elem(fu), T.Elem(tu), true) {
			return stdConv{rank: rankExact, qual: true}
		}
	}
	return bad
}

// pointerConversion converts between object pointer types.
func (u *Unit) pointerConversion(from, to types.TypeID) stdConv {
	T := u.types
	fe, te := T.Elem(from), T.Elem(to)
	fcv, tcv := T.CVOf(fe), T.CVOf(te)
	if T.Unqualified(fe) == T.Unqualified(te) {
		if tcv.Covers(fcv) {
			return stdConv{rank: rankExact, qual: true}
		}
		return stdConv{rank: rankBad}
	}
	if T.Kind(te) == types.KindVoid && T.Kind(fe) != types.KindFunction && tcv.Covers(fcv) {
		return stdConv{rank: rankConversion, toVoid: true}
	}
	if !u.cxx && T.Kind(fe) == types.KindVoid {
		return stdConv{rank: rankConversion}
	}
	if fc, tc := u.classEntity(fe), u.classEntity(te); fc.IsValid() && tc.IsValid() && tcv.Covers(fcv) {
		if d := u.baseDistance(fc, tc); d > 0 {
			return stdConv{rank: rankConversion, base: d}
		}
	}
	if u.qualCompatible(fe, te, true) {
		return stdConv{rank: rankExact, qual: true}
	}
	if !u.cxx {
		// C converts between incompatible object pointers with a warning
		return stdConv{rank: rankConversion}
	}
	return stdConv{rank: rankBad}
}

// qualCompatible checks a multi-level qualification conversion: where cv
// is added at one level, every outer level must be const.
func (u *Unit) qualCompatible(f, t types.TypeID, constSoFar bool) bool {
	T := u.types
	fcv, tcv := T.CVOf(f), T.CVOf(t)
	if !tcv.Covers(fcv) || tcv != fcv && !constSoFar {
		return false
	}
	fu, tu := T.Unqualified(f), T.Unqualified(t)
	if fu == tu {
		return true
	}
	if T.Kind(fu) == types.KindPointer && T.Kind(tu) == types.KindPointer {
		return u.qualCompatible(T.Elem(fu), T.Elem(tu), constSoFar && tcv&types.Const != 0)
	}
	return false
}

// promotes reports an integral or floating-point promotion.
func (u *Unit) promotes(from, to types.TypeID) bool {
	T := u.types
	fk, tk := T.Kind(from), T.Kind(to)
	switch {
	case fk == types.KindFloat:
		return tk == types.KindDouble
	case fk == types.KindEnum:
		ut := u.enumUnderlying(symbols.SymbolID(T.Entity(from)))
		return tk == types.KindInt && T.Kind(ut).Rank() <= types.KindInt.Rank() || to == u.promoted(ut)
	case fk == types.KindChar32:
		return tk == types.KindUInt
	case fk == types.KindWChar:
		return tk == types.KindInt
	case fk.IsIntegral() && fk.Rank() < types.KindInt.Rank():
		return tk == types.KindInt
	}
	return false
}

// promoted applies the integral promotions to t.
func (u *Unit) promoted(t types.TypeID) types.TypeID {
	T := u.types
	t = T.Unqualified(t)
	k := T.Kind(t)
	switch {
	case k == types.KindEnum:
		ut := u.enumUnderlying(symbols.SymbolID(T.Entity(t)))
		if ut == types.NoTypeID {
			return u.builtins.Int
		}
		return u.promoted(ut)
	case k == types.KindChar32:
		return u.builtins.UInt
	case k.IsIntegral() && k.Rank() < types.KindInt.Rank(), k == types.KindWChar:
		return u.builtins.Int
	}
	return t
}

func (u *Unit) scopedEnum(t types.TypeID) bool {
	s := u.sym(symbols.SymbolID(u.types.Entity(t)))
	return s != nil && s.Flags&symbols.FlagScoped != 0
}

// nullPointerConstant reports a literal zero.
func (u *Unit) nullPointerConstant(n ast.NodeID) bool {
	for u.kind(n) == ast.KindParen {
		n = u.b.Expr(n).A
	}
	if u.kind(n) != ast.KindLiteral || !u.types.Kind(u.exprs[n].typ).IsIntegral() {
		return false
	}
	v := u.constValue(n)
	return v.ok && v.v == 0
}

// listConversion converts a braced list argument.
func (u *Unit) listConversion(a callArg, to types.TypeID, allowUser bool) conversion {
	T := u.types
	elems := u.b.Expr(a.node).List
	if T.Kind(to).IsReference() {
		c := u.listConversion(a, T.Unqualified(T.Elem(to)), allowUser)
		if c.kind != rankBad {
			c.ref, c.refCV, c.rvalRef = true, T.CVOf(T.Elem(to)), T.Kind(to) == types.KindRRef
		}
		return c
	}
	cls := u.classEntity(to)
	if !cls.IsValid() {
		switch len(elems) {
		case 0:
			return exactConversion()
		case 1:
			et, cat := u.typeExpr(elems[0])
			return u.implicit(callArg{t: et, cat: cat, node: elems[0]}, to, allowUser)
		}
		return badConversion
	}
	if !allowUser {
		return badConversion
	}
	ctors := u.constructors(cls)
	if len(ctors) == 0 {
		return conversion{kind: rankUser}
	}
	args := make([]callArg, len(elems))
	for i, e := range elems {
		t, cat := u.typeExpr(e)
		args[i] = callArg{t: t, cat: cat, node: e}
	}
	out := u.resolveOverload(callSite{cands: ctors, args: args})
	if !out.best.IsValid() {
		return badConversion
	}
	return conversion{kind: rankUser, user: out.best}
}

// overloadSetConversion picks the function of an overloaded name whose
// type matches a pointer, reference or member pointer to function.
func (u *Unit) overloadSetConversion(a callArg, to types.TypeID) conversion {
	T := u.types
	target := T.NonRef(to)
	switch T.Kind(target) {
	case types.KindPointer, types.KindMemberPointer:
		target = T.Elem(target)
	}
	if T.Kind(target) != types.KindFunction {
		return badConversion
	}
	if fn := u.pickFromSet(a.node, target); fn.IsValid() {
		return conversion{kind: rankExact, fn: fn}
	}
	return badConversion
}

// compareConv orders two conversion sequences of the same argument: 1
// when a is better, -1 when b is, 0 when neither.
func compareConv(a, b conversion) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return 1
		}
		return -1
	}
	switch a.kind {
	case rankUser:
		if a.user != b.user || !a.user.IsValid() {
			return 0
		}
		return compareStd(a.std, b.std)
	case rankEllipsis, rankBad:
		return 0
	}
	if c := compareStd(a.std, b.std); c != 0 {
		return c
	}
	if a.ref && b.ref {
		if a.rvalRef != b.rvalRef {
			if a.rvalRef {
				return 1
			}
			return -1
		}
		if a.refCV != b.refCV {
			switch {
			case b.refCV.Covers(a.refCV):
				return 1
			case a.refCV.Covers(b.refCV):
				return -1
			}
		}
	}
	return 0
}

func compareStd(a, b stdConv) int {
	switch {
	case a.rank != b.rank:
		if a.rank < b.rank {
			return 1
		}
		return -1
	case a.toBool != b.toBool:
		if b.toBool {
			return 1
		}
		return -1
	case a.base > 0 && b.base > 0 && a.base != b.base:
		if a.base < b.base {
			return 1
		}
		return -1
	case a.base > 0 && b.toVoid:
		return 1
	case b.base > 0 && a.toVoid:
		return -1
	case a.qual != b.qual:
		if b.qual {
			return 1
		}
		return -1
	}
	return 0
}

// objectConversion binds the implied object argument of non-static
// member function fn. A const object needs a const function; ref
// qualifiers restrict the category.
func (u *Unit) objectConversion(obj callArg, fn symbols.SymbolID, ft types.TypeID) conversion {
	T := u.types
	ot := T.NonRef(obj.t)
	if ot == types.NoTypeID || T.IsDependent(ot) {
		return exactConversion()
	}
	t, ok := T.Lookup(ft)
	if !ok || t.Kind != types.KindFunction {
		return badConversion
	}
	cls := u.owner(u.sym(fn).Scope)
	oc := u.classEntity(ot)
	if !oc.IsValid() || !cls.IsValid() {
		return badConversion
	}
	dist := u.baseDistance(oc, cls)
	if dist < 0 || !t.FnCV.Covers(T.CVOf(ot)) {
		return badConversion
	}
	switch t.Ref {
	case types.RefLValue:
		if obj.cat != LValue && t.FnCV&types.Const == 0 {
			return badConversion
		}
	case types.RefRValue:
		if obj.cat == LValue {
			return badConversion
		}
	}
	c := conversion{kind: rankExact, ref: true, refCV: t.FnCV, rvalRef: t.Ref == types.RefRValue}
	if dist > 0 {
		c.kind = rankConversion
		c.std = stdConv{rank: rankConversion, base: dist}
	}
	return c
}

// categoryOf is the category of a call returning t.
func categoryOf(T *types.Interner, t types.TypeID) Category {
	switch T.Kind(t) {
	case types.KindLRef:
		return LValue
	case types.KindRRef:
		if T.Kind(T.Elem(t)) == types.KindFunction {
			return LValue
		}
		return XValue
	}
	return PRValue
}
