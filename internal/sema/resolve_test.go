package sema

import (
	"testing"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/symbols"
)

func TestBlockScopeSeesDeclarationsInOrder(t *testing.T) {
	for _, cxx := range []bool{false, true} {
		u := analyzeClean(t, "int a; void f() { a; int a; a; }", cxx)
		decls, refs := mustNames(t, u, "a", 2, 2)
		global, local := u.Resolve(decls[0]), u.Resolve(decls[1])
		if global == local {
			t.Fatalf("local declaration reuses the global binding")
		}
		if got := u.Resolve(refs[0]); got != global {
			t.Fatalf("first use binds %s, want the global a", qualified(u, got))
		}
		if got := u.Resolve(refs[1]); got != local {
			t.Fatalf("second use binds %s, want the local a", qualified(u, got))
		}
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	u := analyzeClean(t, "namespace N { int v; } int g() { return N::v; }", true)
	_, refs := mustNames(t, u, "N::v", 0, 1)
	first := u.Resolve(refs[0])
	if first != u.Resolve(refs[0]) {
		t.Fatalf("second resolution differs")
	}
	u.Freeze()
	if got := u.Resolve(refs[0]); got != first {
		t.Fatalf("resolution after freeze = %s, want %s", qualified(u, got), qualified(u, first))
	}
	if got := qualified(u, first); got != "N::v" {
		t.Fatalf("bound %s, want N::v", got)
	}
}

func TestRedeclarationsShareOneBinding(t *testing.T) {
	u := analyzeClean(t, "extern int x; int x; int x = 1; int y() { return x; }", false)
	decls, refs := mustNames(t, u, "x", 3, 1)
	want := u.Resolve(decls[0])
	for i, d := range decls {
		if got := u.Resolve(d); got != want {
			t.Fatalf("declaration %d binds %s", i, qualified(u, got))
		}
	}
	if u.Resolve(refs[0]) != want {
		t.Fatalf("use does not bind the declared x")
	}
	if got := u.Declarations(want); len(got) != 3 {
		t.Fatalf("Declarations = %d nodes, want 3", len(got))
	}
}

func TestUsingDirectiveClosure(t *testing.T) {
	src := `
namespace A { int a; }
namespace B { using namespace A; }
namespace C { using namespace A; }
namespace BC { using namespace B; using namespace C; }
void f() { BC::a++; }
`
	u := analyzeClean(t, src, true)
	decls, _ := namesOf(u, "a")
	_, refs := mustNames(t, u, "BC::a", 0, 1)
	if len(decls) != 1 {
		t.Fatalf("got %d declarations of a", len(decls))
	}
	if got, want := u.Resolve(refs[0]), u.Resolve(decls[0]); got != want {
		t.Fatalf("BC::a binds %s, want A::a", qualified(u, got))
	}
}

func TestUsingDirectiveAmbiguity(t *testing.T) {
	src := `
namespace A { int x; }
namespace B { int x; }
using namespace A;
using namespace B;
void f() { x; }
`
	u, bag := analyzeSource(t, src, true)
	_, refs := mustNames(t, u, "x", 2, 1)
	s := u.Symbol(u.Resolve(refs[0]))
	if s == nil || !s.IsProblem() || s.Problem != symbols.AmbiguousName {
		t.Fatalf("x binds %s, want an ambiguity problem", qualified(u, u.Resolve(refs[0])))
	}
	if !hasCode(bag, diag.SemaAmbiguousName) {
		t.Fatalf("missing ambiguity diagnostic: %s", diagnosticsSummary(bag))
	}
}

func TestNameNotFoundBecomesProblemBinding(t *testing.T) {
	u, bag := analyzeSource(t, "void f() { int y = missing + 1; }", true)
	_, refs := mustNames(t, u, "missing", 0, 1)
	s := u.Symbol(u.Resolve(refs[0]))
	if s == nil || !s.IsProblem() || s.Problem != symbols.NameNotFound {
		t.Fatalf("missing binds %s, want a name-not-found problem", qualified(u, u.Resolve(refs[0])))
	}
	if !hasCode(bag, diag.SemaNameNotFound) {
		t.Fatalf("missing diagnostic: %s", diagnosticsSummary(bag))
	}
	if got := u.Declarations(u.Resolve(refs[0])); got != nil {
		t.Fatalf("problem binding has declarations %v", got)
	}
}

func TestSyntaxErrorDoesNotStopResolution(t *testing.T) {
	src := "int broken = ; int y; int z; void f() { y; z; }"
	u, bag := analyzeSource(t, src, true)
	if !hasCode(bag, diag.SynProblem) {
		t.Fatalf("expected a syntax problem: %s", diagnosticsSummary(bag))
	}
	for _, name := range []string{"y", "z"} {
		decls, refs := mustNames(t, u, name, 1, 1)
		if got := u.Resolve(refs[0]); got != u.Resolve(decls[0]) || !got.IsValid() {
			t.Fatalf("%s binds %s after the syntax problem", name, qualified(u, got))
		}
	}
}

func TestCTagNamespace(t *testing.T) {
	u := analyzeClean(t, "struct S { int x; }; int S; struct S s; int f() { return S + s.x; }", false)
	_, refs := namesOf(u, "S")
	if len(refs) == 0 {
		t.Fatalf("no reference to S")
	}
	s := u.Symbol(u.Resolve(refs[len(refs)-1]))
	if s == nil || s.Kind != symbols.SymbolVariable {
		t.Fatalf("plain S should bind the variable")
	}
}

func TestCRejectsOverloading(t *testing.T) {
	_, bag := analyzeSource(t, "void f(int); void f(double);", false)
	if !hasCode(bag, diag.SemaRedefinition) {
		t.Fatalf("expected a redefinition conflict: %s", diagnosticsSummary(bag))
	}
}

func TestLabelsHaveFunctionScope(t *testing.T) {
	u := analyzeClean(t, "void f() { goto done; { done: ; } }", false)
	decls, refs := mustNames(t, u, "done", 1, 1)
	if got := u.Resolve(refs[0]); got != u.Resolve(decls[0]) || !got.IsValid() {
		t.Fatalf("goto binds %s", qualified(u, got))
	}
}

func TestUnscopedEnumeratorsLeakIntoEnclosingScope(t *testing.T) {
	src := "enum E { red, green }; enum class F { red2 }; int f() { return green + (int)F::red2; }"
	u := analyzeClean(t, src, true)
	decls, refs := mustNames(t, u, "green", 1, 1)
	if u.Resolve(refs[0]) != u.Resolve(decls[0]) {
		t.Fatalf("green does not bind its enumerator")
	}
	if got := qualified(u, u.Resolve(decls[0])); got != "E::green" && got != "green" {
		t.Fatalf("enumerator named %q", got)
	}
}

func TestReferencesAreCollectedOnFreeze(t *testing.T) {
	u := analyzeClean(t, "int a; void f() { a = a + 1; }", true)
	decls, refs := mustNames(t, u, "a", 1, 2)
	got := u.References(u.Resolve(decls[0]))
	if len(got) != 2 || got[0] != refs[0] || got[1] != refs[1] {
		t.Fatalf("References = %v, want %v", got, refs)
	}
}

func TestMacroBindingsAndExpansions(t *testing.T) {
	u := analyzeClean(t, "#define ONE 1\nint x = ONE;\n#undef ONE\n#define ONE 2\nint y = ONE;", false)
	ms := u.Macros()
	if len(ms) != 2 {
		t.Fatalf("Macros = %d, want 2", len(ms))
	}
	if got := u.MacroBinding("ONE"); got != ms[1] {
		t.Fatalf("MacroBinding picks the first definition")
	}
	b := u.Builder()
	var lits []ast.NodeID
	for id := 1; id <= b.Len(); id++ {
		if b.Kind(ast.NodeID(id)) == ast.KindLiteral {
			lits = append(lits, ast.NodeID(id))
		}
	}
	if len(lits) != 2 {
		t.Fatalf("found %d literals, want 2", len(lits))
	}
	for i, lit := range lits {
		if !u.InMacroExpansion(lit) {
			t.Fatalf("literal %d is not marked as expanded", i)
		}
		if got := u.ExpansionMacro(lit); got != ms[i] {
			t.Fatalf("literal %d expanded from macro %d", i, got)
		}
	}
	if d := u.MacroDefinition(ms[0]); d == nil || d.Name != "ONE" {
		t.Fatalf("MacroDefinition lost the #define")
	}
}
