package sema

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/symbols"
	"cxxsema/internal/types"
)

// templateIDs returns the referring template-ids of a variable declaration
// list, in source order.
func templateIDs(u *Unit) []ast.NodeID {
	b := u.Builder()
	var out []ast.NodeID
	b.Walk(b.Root, func(id ast.NodeID) bool {
		if b.Kind(id) == ast.KindTemplateID && b.Name(id).Role == ast.RoleReference {
			out = append(out, id)
		}
		return true
	})
	return out
}

func TestInstantiationIsMemoized(t *testing.T) {
	src := `
template<class T, int N> struct A {};
A<int, 1> a;
A<int, 2-1> b;
A<int, 2> c;
`
	u := analyzeClean(t, src, true)
	ids := templateIDs(u)
	if len(ids) != 3 {
		t.Fatalf("got %d template-ids, want 3", len(ids))
	}
	a, b, c := u.Resolve(ids[0]), u.Resolve(ids[1]), u.Resolve(ids[2])
	if !a.IsValid() || a != b {
		t.Fatalf("A<int, 1> = %s and A<int, 2-1> = %s differ", qualified(u, a), qualified(u, b))
	}
	if a == c {
		t.Fatalf("A<int, 2> shares the instance of A<int, 1>")
	}
	if got := qualified(u, c); got != "A<int, 2>" {
		t.Fatalf("instance named %q", got)
	}
	tmpl, args, ok := u.InstantiationArgs(a)
	if !ok || len(args) != 2 {
		t.Fatalf("InstantiationArgs = %v, %v", args, ok)
	}
	if u.Instantiate(tmpl, args) != a {
		t.Fatalf("Instantiate does not return the memoized instance")
	}
	if got := u.Instantiations().Len(); got != 2 {
		t.Fatalf("recorded %d instances, want 2", got)
	}
}

func TestPartialSpecializationSelection(t *testing.T) {
	src := `
template<class T1, class T2, int I> class A {};
template<class T, int I> class A<T, T*, I> {};
template<class T1, class T2, int I> class A<T1*, T2, I> {};
template<class T> class A<int, T*, 5> {};
template<class T1, class T2, int I> class A<T1, T2*, I> {};
A<int, int, 1> a1;
A<int, int*, 1> a2;
A<int, char*, 5> a3;
A<int, char*, 1> a4;
A<int*, int*, 2> a5;
`
	u, bag := analyzeSource(t, src, true)
	decls, _ := namesOf(u, "A")
	if len(decls) == 0 {
		t.Fatalf("primary template not declared")
	}
	primary := u.Resolve(decls[0])
	ps := u.Symbol(primary)
	if ps == nil || ps.Template == nil || len(ps.Template.Partials) != 4 {
		t.Fatalf("expected 4 partial specializations")
	}
	pattern := map[symbols.SymbolID]int{primary: 1}
	for i, p := range ps.Template.Partials {
		pattern[p] = i + 2
	}

	ids := templateIDs(u)
	if len(ids) != 5 {
		t.Fatalf("got %d template-ids, want 5", len(ids))
	}
	var got []int
	for _, id := range ids[:4] {
		s := u.Symbol(u.Resolve(id))
		if s == nil || s.Instance == nil {
			t.Fatalf("%s is not an instance", u.Builder().NameString(id))
		}
		got = append(got, pattern[s.Instance.Pattern])
	}
	if diff := cmp.Diff([]int{1, 2, 4, 5}, got); diff != "" {
		t.Fatalf("selected patterns mismatch (-want +got):\n%s", diff)
	}

	amb := u.Symbol(u.Resolve(ids[4]))
	if amb == nil || !amb.IsProblem() || amb.Problem != symbols.AmbiguousName {
		t.Fatalf("A<int*, int*, 2> binds %s, want an ambiguity", qualified(u, u.Resolve(ids[4])))
	}
	if !hasCode(bag, diag.SemaAmbiguousName) {
		t.Fatalf("missing ambiguity diagnostic: %s", diagnosticsSummary(bag))
	}
}

func TestExplicitSpecializationWins(t *testing.T) {
	src := `
template<class T> struct S { int generic; };
template<> struct S<int> { int special; };
S<int> x;
S<long> y;
int f() { return x.special + y.generic; }
`
	u := analyzeClean(t, src, true)
	for _, field := range []string{"special", "generic"} {
		decls, refs := mustNames(t, u, field, 1, 1)
		got := u.Symbol(u.Resolve(refs[0]))
		if got == nil || got.IsProblem() {
			t.Fatalf("%s does not resolve", field)
		}
		if u.Resolve(refs[0]) != u.Resolve(decls[0]) && got.Specialized != u.Resolve(decls[0]) {
			t.Fatalf("%s binds %s", field, qualified(u, u.Resolve(refs[0])))
		}
	}
}

func TestDefaultTemplateArgumentsReferToEarlierParameters(t *testing.T) {
	src := `
template<class T, class U = T*> struct P {};
P<int> a;
P<int, int*> b;
`
	u := analyzeClean(t, src, true)
	ids := templateIDs(u)
	if len(ids) != 2 {
		t.Fatalf("got %d template-ids, want 2", len(ids))
	}
	if u.Resolve(ids[0]) != u.Resolve(ids[1]) {
		t.Fatalf("P<int> and P<int, int*> are different instances")
	}
}

func TestFunctionTemplateDeduction(t *testing.T) {
	src := `
template<class T> T max2(T a, T b);
int f() { return max2(1, 2); }
double g() { return max2(1.5, 2.5); }
`
	u := analyzeClean(t, src, true)
	_, refs := namesOf(u, "max2")
	if len(refs) != 2 {
		t.Fatalf("got %d references, want 2", len(refs))
	}
	bi := u.Types().Builtins()
	for i, want := range []types.TypeID{bi.Int, bi.Double} {
		s := u.Symbol(u.Resolve(refs[i]))
		if s == nil || s.Instance == nil {
			t.Fatalf("call %d does not bind an instance", i)
		}
		if len(s.Instance.Args) != 1 || s.Instance.Args[0].Type != want {
			t.Fatalf("call %d deduced %s", i, u.Table().ArgsString(s.Instance.Args))
		}
	}

	decls, _ := namesOf(u, "max2")
	tmpl := u.Resolve(decls[0])
	b, ok := u.Deduce(tmpl, []CallArg{{Type: bi.Long, Category: LValue}, {Type: bi.Long, Category: PRValue}}, nil)
	if !ok || len(b) != 1 {
		t.Fatalf("Deduce = %v, %v", b, ok)
	}
	if _, ok := u.Deduce(tmpl, []CallArg{{Type: bi.Long}, {Type: bi.Char}}, nil); ok {
		t.Fatalf("conflicting arguments deduced")
	}
}

func TestMemberOfInstanceUsesSubstitutedType(t *testing.T) {
	src := `
template<class T> struct Box { T value; T get() const; };
Box<double> b;
void f() { b.value; b.get(); }
`
	u := analyzeClean(t, src, true)
	exprs := exprsOf(t, u)
	want := u.Types().Builtins().Double
	for i, e := range exprs {
		got := u.ExprType(e)
		if u.Types().NonRef(got) != want {
			t.Fatalf("expression %d has type %s, want double", i, u.Table().TypeString(got))
		}
	}
	if c := u.ExprCategory(exprs[0]); c != LValue {
		t.Fatalf("b.value is %s, want lvalue", c)
	}
}

func TestRecursiveConstantArgumentIsEvaluated(t *testing.T) {
	src := `
template<int N> struct F { static const int v = F<N-1>::v + 1; };
template<> struct F<0> { static const int v = 0; };
template<int V> struct A {};
A<F<1>::v> a;
A<1> b;
`
	u, bag := analyzeSource(t, src, true)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	var got []symbols.SymbolID
	for _, id := range templateIDs(u) {
		if name := u.Builder().NameString(id); len(name) > 1 && name[:2] == "A<" {
			got = append(got, u.Resolve(id))
		}
	}
	if len(got) != 2 || !got[0].IsValid() || got[0] != got[1] {
		t.Fatalf("A<F<1>::v> and A<1> resolve to %v", got)
	}
	if name := qualified(u, got[0]); name != "A<1>" {
		t.Fatalf("instance named %q", name)
	}
	for _, e := range u.Instantiations().Entries() {
		for _, a := range e.Args {
			if a.Kind == types.ArgDependentValue {
				t.Fatalf("instance %s keyed by an unevaluated argument", qualified(u, e.Instance))
			}
		}
	}
}

func TestInstantiationDepthIsBounded(t *testing.T) {
	src := `
template<int N> struct R { typedef typename R<N+1>::type type; };
R<0>::type x;
`
	_, bag := analyzeSource(t, src, true)
	if !hasCode(bag, diag.SemaInstantiationDepth) {
		t.Fatalf("missing depth diagnostic: %s", diagnosticsSummary(bag))
	}
}
