package symbols

import (
	"testing"

	"cxxsema/internal/ast"
)

func TestLookupSeesOnlyEarlierDeclarations(t *testing.T) {
	e := newEnv(true)
	g := ScopeGraph{T: e.t}
	outer := e.declare(e.t.Global, "x", SymbolVariable, DeclAttrs{Node: 1, Pos: 2, Type: e.b.Int})
	fn := e.t.NewScope(ScopeFunction, e.t.Global, NoSymbolID, ast.NoNode)
	inner := e.declare(fn, "x", SymbolVariable, DeclAttrs{Node: 2, Pos: 40, Type: e.b.Long})

	if got := e.t.LookupUnqualified(g, fn, e.s("x"), LookupOptions{Pos: 30}).Single(); got != outer.Symbol {
		t.Fatalf("before the local declaration the global x is visible, got %d", got)
	}
	if got := e.t.LookupUnqualified(g, fn, e.s("x"), LookupOptions{Pos: 50}).Single(); got != inner.Symbol {
		t.Fatalf("after the local declaration it hides the global, got %d", got)
	}
	if got := e.t.LookupUnqualified(g, fn, e.s("x"), LookupOptions{Pos: 1}); got.Found() {
		t.Fatalf("nothing is declared yet, got %+v", got)
	}
}

func TestClassScopeIsCompleteContext(t *testing.T) {
	e := newEnv(true)
	g := ScopeGraph{T: e.t}
	_, inner := e.class(e.t.Global, "C")
	body := e.t.NewScope(ScopeFunction, inner, NoSymbolID, ast.NoNode)
	member := e.declare(inner, "later", SymbolField, DeclAttrs{Node: 1, Pos: 100, Type: e.b.Int})
	if got := e.t.LookupUnqualified(g, body, e.s("later"), LookupOptions{Pos: 10}).Single(); got != member.Symbol {
		t.Fatalf("member functions see members declared after them, got %d", got)
	}
}

// namespace A { int i; }
// namespace B { int i; void f() { using namespace A; i; } }
func TestUsingDirectiveJoinsCommonNamespace(t *testing.T) {
	e := newEnv(true)
	g := ScopeGraph{T: e.t}
	a := e.namespace(e.t.Global, "A")
	ai := e.declare(a, "i", SymbolVariable, DeclAttrs{Node: 1, Pos: 10, Type: e.b.Int})
	b := e.namespace(e.t.Global, "B")
	bi := e.declare(b, "i", SymbolVariable, DeclAttrs{Node: 2, Pos: 30, Type: e.b.Int})
	fn := e.t.NewScope(ScopeFunction, b, NoSymbolID, ast.NoNode)
	e.t.AddUsing(fn, a, 50, ast.NoNode)

	if got := e.t.LookupUnqualified(g, fn, e.s("i"), LookupOptions{Pos: 60}).Single(); got != bi.Symbol {
		t.Fatalf("A::i joins the global namespace, so B::i wins; got %d (A::i is %d)", got, ai.Symbol)
	}

	// without B::i the nominated member is found through the global level
	e2 := newEnv(true)
	g2 := ScopeGraph{T: e2.t}
	a2 := e2.namespace(e2.t.Global, "A")
	ai2 := e2.declare(a2, "i", SymbolVariable, DeclAttrs{Node: 1, Pos: 10, Type: e2.b.Int})
	b2 := e2.namespace(e2.t.Global, "B")
	fn2 := e2.t.NewScope(ScopeFunction, b2, NoSymbolID, ast.NoNode)
	e2.t.AddUsing(fn2, a2, 50, ast.NoNode)
	if got := e2.t.LookupUnqualified(g2, fn2, e2.s("i"), LookupOptions{Pos: 60}).Single(); got != ai2.Symbol {
		t.Fatalf("expected A::i, got %d", got)
	}
	if got := e2.t.LookupUnqualified(g2, fn2, e2.s("i"), LookupOptions{Pos: 40}); got.Found() {
		t.Fatalf("the directive is not active before it appears, got %+v", got)
	}
}

func TestUsingDirectiveAmbiguity(t *testing.T) {
	e := newEnv(true)
	g := ScopeGraph{T: e.t}
	x := e.namespace(e.t.Global, "X")
	y := e.namespace(e.t.Global, "Y")
	e.declare(x, "v", SymbolVariable, DeclAttrs{Node: 1, Type: e.b.Int})
	e.declare(y, "v", SymbolVariable, DeclAttrs{Node: 2, Type: e.b.Int})
	e.t.AddUsing(e.t.Global, x, 0, ast.NoNode)
	e.t.AddUsing(e.t.Global, y, 0, ast.NoNode)
	r := e.t.LookupUnqualified(g, e.t.Global, e.s("v"), LookupOptions{})
	if !r.Ambiguous || len(r.Symbols) != 2 {
		t.Fatalf("expected an ambiguous result, got %+v", r)
	}

	// functions from both namespaces form one overload set
	e.declare(x, "f", SymbolFunction, DeclAttrs{Node: 3, Type: e.fn(e.b.Int)})
	e.declare(y, "f", SymbolFunction, DeclAttrs{Node: 4, Type: e.fn(e.b.Double)})
	r = e.t.LookupUnqualified(g, e.t.Global, e.s("f"), LookupOptions{})
	if r.Ambiguous || len(r.Symbols) != 2 {
		t.Fatalf("expected an overload set, got %+v", r)
	}
}

// namespace A { int a; }
// namespace B { using namespace A; }
// namespace C { using namespace A; }
// namespace BC { using namespace B; using namespace C; }
func TestQualifiedLookupDiamond(t *testing.T) {
	e := newEnv(true)
	g := ScopeGraph{T: e.t}
	a := e.namespace(e.t.Global, "A")
	aa := e.declare(a, "a", SymbolVariable, DeclAttrs{Node: 1, Type: e.b.Int})
	b := e.namespace(e.t.Global, "B")
	c := e.namespace(e.t.Global, "C")
	bc := e.namespace(e.t.Global, "BC")
	e.t.AddUsing(b, a, 0, ast.NoNode)
	e.t.AddUsing(c, a, 0, ast.NoNode)
	e.t.AddUsing(bc, b, 0, ast.NoNode)
	e.t.AddUsing(bc, c, 0, ast.NoNode)

	r := e.t.LookupQualified(g, bc, e.s("a"), LookupOptions{})
	if r.Single() != aa.Symbol {
		t.Fatalf("BC::a must find A::a once, got %+v", r)
	}

	// a direct member of B stops the search through B
	bb := e.declare(b, "a", SymbolVariable, DeclAttrs{Node: 2, Type: e.b.Long})
	r = e.t.LookupQualified(g, bc, e.s("a"), LookupOptions{})
	if !r.Ambiguous || len(r.Symbols) != 2 {
		t.Fatalf("B::a and A::a (through C) must be ambiguous, got %+v (B::a is %d)", r, bb.Symbol)
	}
	if err := e.t.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestQualifiedLookupFilters(t *testing.T) {
	e := newEnv(true)
	g := ScopeGraph{T: e.t}
	ns := e.namespace(e.t.Global, "N")
	cls, _ := e.class(ns, "T")
	e.declare(ns, "v", SymbolVariable, DeclAttrs{Node: 1, Type: e.b.Int})
	if got := e.t.LookupQualified(g, ns, e.s("T"), LookupOptions{Qualifier: true}).Single(); got != cls {
		t.Fatalf("a class may qualify a name, got %d", got)
	}
	if got := e.t.LookupQualified(g, ns, e.s("v"), LookupOptions{Qualifier: true}); got.Found() {
		t.Fatalf("a variable cannot qualify a name, got %+v", got)
	}
	if got := e.t.LookupUnqualified(g, e.t.Global, e.s("N"), LookupOptions{NamespacesOnly: true}); !got.Found() {
		t.Fatalf("namespace lookup must find N")
	}
}

func TestUsingDeclarationDenotesTarget(t *testing.T) {
	e := newEnv(true)
	g := ScopeGraph{T: e.t}
	ns := e.namespace(e.t.Global, "N")
	target := e.declare(ns, "f", SymbolFunction, DeclAttrs{Node: 1, Type: e.fn()})
	use := e.declare(e.t.Global, "f", SymbolUsing, DeclAttrs{Node: 2})
	e.t.Symbols.Get(use.Symbol).Target = target.Symbol
	if got := e.t.LookupUnqualified(g, e.t.Global, e.s("f"), LookupOptions{}).Single(); got != target.Symbol {
		t.Fatalf("using-declaration must denote N::f, got %d", got)
	}

	friend := e.declare(e.t.Global, "g", SymbolFunction, DeclAttrs{Node: 3, Type: e.fn(), Flags: FlagHidden | FlagFriend})
	if got := e.t.LookupUnqualified(g, e.t.Global, e.s("g"), LookupOptions{}); got.Found() {
		t.Fatalf("hidden friends are invisible to ordinary lookup")
	}
	if got := e.t.LookupUnqualified(g, e.t.Global, e.s("g"), LookupOptions{Hidden: true}).Single(); got != friend.Symbol {
		t.Fatalf("hidden friends are visible on request, got %d", got)
	}
}

func TestMemberLookupSubobjects(t *testing.T) {
	build := func(virtual bool, static bool) (*env, SymbolID, SymbolID) {
		e := newEnv(true)
		a, ai := e.class(e.t.Global, "A")
		flags := SymbolFlags(0)
		if static {
			flags = FlagStatic
		}
		x := e.declare(ai, "x", SymbolField, DeclAttrs{Node: 1, Type: e.b.Int, Flags: flags})
		b1, _ := e.class(e.t.Global, "B1", BaseEdge{Class: a, Virtual: virtual})
		b2, _ := e.class(e.t.Global, "B2", BaseEdge{Class: a, Virtual: virtual})
		d, _ := e.class(e.t.Global, "D", BaseEdge{Class: b1}, BaseEdge{Class: b2})
		return e, d, x.Symbol
	}
	cases := []struct {
		name          string
		virtual       bool
		static        bool
		wantAmbiguous bool
	}{
		{"two subobjects", false, false, true},
		{"virtual base", true, false, false},
		{"static member", false, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, d, x := build(tc.virtual, tc.static)
			r := e.t.LookupMember(ScopeGraph{T: e.t}, d, e.s("x"), LookupOptions{})
			if r.Ambiguous != tc.wantAmbiguous || len(r.Symbols) != 1 || r.Symbols[0] != x {
				t.Fatalf("got %+v, want ambiguous=%v with symbol %d", r, tc.wantAmbiguous, x)
			}
		})
	}
}

func TestMemberLookupHidingAndSets(t *testing.T) {
	e := newEnv(true)
	g := ScopeGraph{T: e.t}
	a, ai := e.class(e.t.Global, "A")
	ax := e.declare(ai, "x", SymbolField, DeclAttrs{Node: 1, Type: e.b.Int})
	b, bi := e.class(e.t.Global, "B")
	bx := e.declare(bi, "x", SymbolField, DeclAttrs{Node: 2, Type: e.b.Int})
	d, di := e.class(e.t.Global, "D", BaseEdge{Class: a}, BaseEdge{Class: b})

	r := e.t.LookupMember(g, d, e.s("x"), LookupOptions{})
	if !r.Ambiguous || len(r.Symbols) != 2 {
		t.Fatalf("A::x and B::x must be ambiguous, got %+v (%d, %d)", r, ax.Symbol, bx.Symbol)
	}

	dx := e.declare(di, "x", SymbolField, DeclAttrs{Node: 3, Type: e.b.Int})
	if got := e.t.LookupMember(g, d, e.s("x"), LookupOptions{}).Single(); got != dx.Symbol {
		t.Fatalf("D::x hides the bases, got %d", got)
	}

	// unqualified lookup from a member function body reaches the bases
	e.declare(bi, "y", SymbolField, DeclAttrs{Node: 4, Type: e.b.Int})
	body := e.t.NewScope(ScopeFunction, di, NoSymbolID, ast.NoNode)
	if got := e.t.LookupUnqualified(g, body, e.s("y"), LookupOptions{Pos: 1}); got.Single() == NoSymbolID {
		t.Fatalf("B::y must be found from D's member, got %+v", got)
	}
}

func TestLookupLabel(t *testing.T) {
	e := newEnv(false)
	fn := e.t.NewScope(ScopeFunction, e.t.Global, NoSymbolID, ast.NoNode)
	block := e.t.NewScope(ScopeBlock, fn, NoSymbolID, ast.NoNode)
	l := e.declare(fn, "out", SymbolLabel, DeclAttrs{Node: 1, Pos: 100, Definition: true})
	if got := e.t.LookupLabel(block, e.s("out")); got != l.Symbol {
		t.Fatalf("labels are visible in the whole function, got %d", got)
	}
	again := e.declare(fn, "out", SymbolLabel, DeclAttrs{Node: 2, Definition: true})
	if again.Problem != RedefinitionConflict {
		t.Fatalf("duplicate label must conflict, got %+v", again)
	}
	if err := e.t.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
