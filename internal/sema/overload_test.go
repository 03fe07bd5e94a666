package sema

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/symbols"
)

// calledDecls maps every call of name to the index of the declaration it
// binds, -1 when it binds none of them.
func calledDecls(u *Unit, name string) []int {
	decls, refs := namesOf(u, name)
	out := make([]int, len(refs))
	for i, r := range refs {
		out[i] = -1
		got := u.Resolve(r)
		if s := u.Symbol(got); s != nil && s.Instance != nil && s.Instance.Template.IsValid() {
			got = s.Instance.Template
		}
		for j, d := range decls {
			if u.Resolve(d) == got {
				out[i] = j
				break
			}
		}
	}
	return out
}

func TestOverloadSelection(t *testing.T) {
	cases := []struct {
		name  string
		fn    string
		input string
		want  []int
	}{
		{
			name: "exact match beats conversion",
			fn:   "f",
			input: `void f(int); void f(double); void f(char*);
void g() { char c; f(1); f(1.0); f(&c); f('x'); }`,
			want: []int{0, 1, 2, 0},
		},
		{
			name: "reference binding",
			fn:   "r",
			input: `void r(int&); void r(const int&);
const int ci = 1; int i;
void g() { r(i); r(ci); r(1); }`,
			want: []int{0, 1, 1},
		},
		{
			name: "const volatile reference binds a temporary",
			fn:   "cv",
			input: `void cv(const volatile int&); void cv(char*);
int i;
void g() { cv(i); cv(1); }`,
			want: []int{0, 0},
		},
		{
			name: "rvalue reference preferred for temporaries",
			fn:   "m",
			input: `void m(const int&); void m(int&&);
int i;
void g() { m(i); m(2); }`,
			want: []int{0, 1},
		},
		{
			name: "derived to base",
			fn:   "p",
			input: `struct B {}; struct D : B {};
void p(B*); void p(void*);
void g() { D d; p(&d); }`,
			want: []int{0},
		},
		{
			name: "promotion beats conversion",
			fn:   "q",
			input: `void q(int); void q(double);
void g() { short s = 1; q(s); float f = 0; q(f); }`,
			want: []int{0, 1},
		},
		{
			name: "non-template preferred to template",
			fn:   "h",
			input: `template<class T> void h(T); void h(int);
void g() { h(1); h(1.5); }`,
			want: []int{1, 0},
		},
		{
			name: "more specialized template",
			fn:   "k",
			input: `template<class T> void k(T); template<class T> void k(T*);
void g() { int* p = 0; k(p); k(3); }`,
			want: []int{1, 0},
		},
		{
			name: "converting constructor",
			fn:   "take",
			input: `struct S { S(int); };
void take(S); void take(const char*);
void g() { take(1); }`,
			want: []int{0},
		},
		{
			name: "conversion function",
			fn:   "w",
			input: `struct V { operator int(); };
void w(int); void w(const char*);
void g() { V v; w(v); }`,
			want: []int{0},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := analyzeClean(t, tc.input, true)
			if diff := cmp.Diff(tc.want, calledDecls(u, tc.fn)); diff != "" {
				t.Fatalf("chosen overloads mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOverloadFailures(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		problem symbols.ProblemKind
		code    diag.Code
	}{
		{
			name:    "ambiguous",
			input:   "void f(long); void f(double); void g() { f(1); }",
			problem: symbols.AmbiguousOverload,
			code:    diag.SemaAmbiguousOverload,
		},
		{
			name:    "no viable",
			input:   "struct S {}; void f(int); void g() { S s; f(s); }",
			problem: symbols.NoViableOverload,
			code:    diag.SemaNoViableOverload,
		},
		{
			name:    "deduction failure",
			input:   "template<class T> void f(T, T); void g() { f(1, 2.0); }",
			problem: symbols.DeductionFailure,
			code:    diag.SemaDeductionFailure,
		},
		{
			name:    "explicit constructor excluded",
			input:   "struct E { explicit E(int); }; void f(E); void g() { f(1); }",
			problem: symbols.NoViableOverload,
			code:    diag.SemaNoViableOverload,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, bag := analyzeSource(t, tc.input, true)
			_, refs := namesOf(u, "f")
			if len(refs) != 1 {
				t.Fatalf("got %d calls of f", len(refs))
			}
			s := u.Symbol(u.Resolve(refs[0]))
			if s == nil || !s.IsProblem() || s.Problem != tc.problem {
				t.Fatalf("call binds %s, want %s", qualified(u, u.Resolve(refs[0])), tc.problem)
			}
			if !hasCode(bag, tc.code) {
				t.Fatalf("missing %s: %s", tc.code.ID(), diagnosticsSummary(bag))
			}
		})
	}
}

func TestFriendFoundOnlyByArgumentDependentLookup(t *testing.T) {
	src := `
namespace N {
struct S { friend void touch(S); };
}
void g() { N::S s; touch(s); }
`
	u := analyzeClean(t, src, true)
	decls, refs := mustNames(t, u, "touch", 1, 1)
	if got, want := u.Resolve(refs[0]), u.Resolve(decls[0]); got != want || !got.IsValid() {
		t.Fatalf("touch(s) binds %s, want the friend", qualified(u, got))
	}

	_, bag := analyzeSource(t, "namespace N { struct S { friend void touch(S); }; } void g() { touch(1); }", true)
	if !hasCode(bag, diag.SemaNameNotFound) {
		t.Fatalf("friend visible to ordinary lookup: %s", diagnosticsSummary(bag))
	}
}

func TestArgumentDependentLookupAddsNamespaceFunctions(t *testing.T) {
	src := `
namespace N { struct S {}; void swap(S&, S&); }
void swap(int&, int&);
void g() { N::S a, b; swap(a, b); int x, y; swap(x, y); }
`
	u := analyzeClean(t, src, true)
	if diff := cmp.Diff([]int{0, 1}, calledDecls(u, "swap")); diff != "" {
		t.Fatalf("swap calls mismatch (-want +got):\n%s", diff)
	}
}

func TestOperatorOverloadsBindImplicitNames(t *testing.T) {
	src := `
struct V { V operator+(const V&) const; int operator[](int) const; };
bool operator==(const V&, const V&);
void g() { V a, b; a + b; a == b; a[0]; }
`
	u := analyzeClean(t, src, true)
	exprs := exprsOf(t, u)
	if len(exprs) != 3 {
		t.Fatalf("got %d expressions, want 3", len(exprs))
	}
	want := []string{"V::operator+", "operator==", "V::operator[]"}
	var got []string
	for _, e := range exprs {
		names := u.ImplicitNames(e)
		if len(names) != 1 {
			t.Fatalf("expression has %d implicit names", len(names))
		}
		got = append(got, qualified(u, u.Resolve(names[0])))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("operator bindings mismatch (-want +got):\n%s", diff)
	}
	if ty := u.ExprType(exprs[1]); ty != u.Types().Builtins().Bool {
		t.Fatalf("a == b has type %s", u.Table().TypeString(ty))
	}
}

func TestConstructorChosenForDeclarator(t *testing.T) {
	src := `
struct C { C(int); C(const char*); };
void g() { C a(1); C b("s"); }
`
	u := analyzeClean(t, src, true)
	decls, _ := namesOf(u, "C")
	var ctors []symbols.SymbolID
	for _, d := range decls {
		if s := u.Symbol(u.Resolve(d)); s != nil && s.Kind == symbols.SymbolFunction {
			ctors = append(ctors, u.Resolve(d))
		}
	}
	if len(ctors) != 2 {
		t.Fatalf("found %d constructors, want 2", len(ctors))
	}
	for i, v := range []string{"a", "b"} {
		vd, _ := mustNames(t, u, v, 1, 0)
		declarator := u.Builder().Parent(vd[0])
		names := u.ImplicitNames(declarator)
		if len(names) != 1 {
			t.Fatalf("%s has %d implicit names", v, len(names))
		}
		if got := u.Resolve(names[0]); got != ctors[i] {
			t.Fatalf("%s constructed with %s", v, qualified(u, got))
		}
	}
}

func TestImplicitNameResolvedBeforeFreeze(t *testing.T) {
	src := `
struct C { C(int); };
void g() { C a(1); }
`
	constructedWith := func(u *Unit) (ast.NodeID, symbols.SymbolID) {
		vd, _ := mustNames(t, u, "a", 1, 0)
		names := u.ImplicitNames(u.Builder().Parent(vd[0]))
		if len(names) != 1 {
			t.Fatalf("a has %d implicit names", len(names))
		}
		return names[0], u.Resolve(names[0])
	}

	frozen := analyzeClean(t, src, true)
	frozen.Freeze()
	_, want := constructedWith(frozen)
	if s := frozen.Symbol(want); s == nil || s.Kind != symbols.SymbolFunction {
		t.Fatalf("a constructed with %s", qualified(frozen, want))
	}

	lazy := analyzeClean(t, src, true)
	name, early := constructedWith(lazy)
	if early != want {
		t.Fatalf("before freeze a constructed with %s, want %s", qualified(lazy, early), qualified(frozen, want))
	}
	lazy.Freeze()
	if got := lazy.Resolve(name); got != early {
		t.Fatalf("freeze rebound the constructor to %s", qualified(lazy, got))
	}
}

func TestResolveCallQuery(t *testing.T) {
	u := analyzeClean(t, "void f(int); void f(double);", true)
	decls, _ := mustNames(t, u, "f", 2, 0)
	cands := []symbols.SymbolID{u.Resolve(decls[0]), u.Resolve(decls[1])}
	b := u.Types().Builtins()
	res := u.ResolveCall(cands, []CallArg{{Type: b.Double, Category: PRValue}}, nil)
	if res.Best != cands[1] {
		t.Fatalf("best = %s, want f(double)", qualified(u, res.Best))
	}
}
