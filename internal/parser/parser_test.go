package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/token"
)

func TestStatementDisambiguation(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "known type times name declares",
			input: "struct T {}; void f() { T * x; }",
			want:  []string{"DeclStmt"},
		},
		{
			name:  "variables multiply",
			input: "int a, b; void f() { a * b; }",
			want:  []string{"ExprStmt"},
		},
		{
			name:  "unknown name star name semicolon declares",
			input: "void f() { a * b; }",
			want:  []string{"DeclStmt"},
		},
		{
			name:  "unknown call stays an expression",
			input: "void f() { a(b); }",
			want:  []string{"ExprStmt"},
		},
		{
			name:  "functional cast of literal",
			input: "struct T { T(int); }; void f() { T(1); }",
			want:  []string{"ExprStmt"},
		},
		{
			name:  "parenthesised declarator",
			input: "typedef int T; void f() { T(x); }",
			want:  []string{"DeclStmt"},
		},
		{
			name:  "member access after functional cast",
			input: "struct T { int y; }; int x; void f() { T(x).y; }",
			want:  []string{"ExprStmt"},
		},
		{
			name:  "local variable shadows type",
			input: "struct T {}; void f() { int T; T * x; }",
			want:  []string{"DeclStmt", "ExprStmt"},
		},
		{
			name:  "qualified type",
			input: "namespace N { struct T {}; } void f() { N::T * p; }",
			want:  []string{"DeclStmt"},
		},
		{
			name:  "type through using directive",
			input: "namespace N { typedef int T; } using namespace N; void f() { T * p; }",
			want:  []string{"DeclStmt"},
		},
		{
			name:  "label",
			input: "void f() { out: return; }",
			want:  []string{"Labeled"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, bag := parseSource(t, tc.input, true)
			if bag.HasErrors() {
				t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
			}
			got := stmtKinds(b, lastBody(t, b))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("statement kinds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCastVersusBinary(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  ast.NodeKind
	}{
		{"type in parens casts", "typedef int T; int y; void f() { (T) - y; }", ast.KindCast},
		{"variable in parens subtracts", "int T; int y; void f() { (T) - y; }", ast.KindBinary},
		{"shadowed type subtracts", "typedef int T; int y; void f() { int T = 0; (T) - y; }", ast.KindBinary},
		{"builtin type casts", "int y; void f() { (unsigned) y; }", ast.KindCast},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, bag := parseSource(t, tc.input, true)
			if bag.HasErrors() {
				t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
			}
			stmts := lastBody(t, b)
			last := stmts[len(stmts)-1]
			if b.Kind(last) != ast.KindExprStmt {
				t.Fatalf("expected expression statement, got %s", b.Kind(last))
			}
			if got := b.Kind(b.Stmt(last).A); got != tc.want {
				t.Fatalf("expression kind = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestParameterListVersusInitializer(t *testing.T) {
	b, bag := parseSource(t, "struct T { T(int); }; struct U {}; int a; T x(U()); T y(a);", true)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	decls := topLevel(b)
	if len(decls) != 5 {
		t.Fatalf("expected 5 declarations, got %d", len(decls))
	}
	x := b.Declarator(b.Decl(decls[3]).List[0])
	if len(x.Suffixes) != 1 || x.Suffixes[0].Kind != ast.SuffixFunction {
		t.Fatalf("x should declare a function, got %+v", x.Suffixes)
	}
	if len(x.Suffixes[0].Params) != 1 {
		t.Fatalf("x should take one parameter, got %d", len(x.Suffixes[0].Params))
	}
	y := b.Declarator(b.Decl(decls[4]).List[0])
	if y.InitKind != ast.InitParen || len(y.Suffixes) != 0 {
		t.Fatalf("y should be direct-initialized, got init=%d suffixes=%d", y.InitKind, len(y.Suffixes))
	}
}

func TestTemplateArguments(t *testing.T) {
	t.Run("nested close splits", func(t *testing.T) {
		b, bag := parseSource(t, "template<class T> struct A {}; A<A<int>> x;", true)
		if bag.HasErrors() {
			t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
		}
		if got := countKind(b, ast.KindTemplateID); got != 2 {
			t.Fatalf("expected 2 template-ids, got %d", got)
		}
		outer := firstOf(b, ast.KindTemplateID)
		inner := b.Name(outer).Args[0]
		innerName := b.Decl(inner)
		if innerName == nil {
			t.Fatalf("inner argument should be a type-id, got %s", b.Kind(inner))
		}
		if b.Node(outer).End != b.Node(inner).End {
			t.Fatalf("inner and outer template-ids should share the '>>' token")
		}
		if tok := b.Tokens[b.Node(outer).End-1]; tok.Kind != token.Shr {
			t.Fatalf("template-id should end at '>>', got %s", tok.Kind)
		}
	})
	t.Run("less than without template", func(t *testing.T) {
		b, bag := parseSource(t, "int a, b, c; void f() { a < b > c; }", true)
		if bag.HasErrors() {
			t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
		}
		if got := countKind(b, ast.KindTemplateID); got != 0 {
			t.Fatalf("expected no template-ids, got %d", got)
		}
	})
	t.Run("shift inside parentheses", func(t *testing.T) {
		_, bag := parseSource(t, "template<int N> struct B {}; B<(4>>1)> b;", true)
		if bag.HasErrors() {
			t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
		}
	})
	t.Run("function template call", func(t *testing.T) {
		b, bag := parseSource(t, "template<typename T> T max(T a, T b) { return a < b ? b : a; } int m = max<int>(1, 2);", true)
		if bag.HasErrors() {
			t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
		}
		if got := countKind(b, ast.KindTemplateDecl); got != 1 {
			t.Fatalf("expected 1 template declaration, got %d", got)
		}
		if got := countKind(b, ast.KindTemplateID); got != 1 {
			t.Fatalf("expected 1 template-id, got %d", got)
		}
		if got := countKind(b, ast.KindConditional); got != 1 {
			t.Fatalf("expected the return value to be a conditional")
		}
	})
}

func TestErrorRecovery(t *testing.T) {
	t.Run("declarations", func(t *testing.T) {
		b, bag := parseSource(t, "int a; int 1 b; int c; int d;", true)
		if got := countKind(b, ast.KindProblemDecl); got != 1 {
			t.Fatalf("expected 1 problem declaration, got %d", got)
		}
		if got := countKind(b, ast.KindSimpleDecl); got != 3 {
			t.Fatalf("expected 3 declarations, got %d", got)
		}
		if bag.Len() != 1 || bag.Count(diag.SynProblem) != 1 {
			t.Fatalf("expected one syntax diagnostic, got %s", diagnosticsSummary(bag))
		}
		problem := topLevel(b)[1]
		if got := b.TokenText(problem); got != "int 1 b ;" {
			t.Fatalf("problem should cover the broken declaration, got %q", got)
		}
	})
	t.Run("statements", func(t *testing.T) {
		b, bag := parseSource(t, "void f() { int x = ; x = 1; }", true)
		want := []string{"ProblemStmt", "ExprStmt"}
		if diff := cmp.Diff(want, stmtKinds(b, lastBody(t, b))); diff != "" {
			t.Fatalf("statement kinds mismatch (-want +got):\n%s", diff)
		}
		if bag.Count(diag.SynProblem) != 1 {
			t.Fatalf("expected one syntax diagnostic, got %s", diagnosticsSummary(bag))
		}
		if !strings.Contains(diagnosticsSummary(bag), "expected expression") {
			t.Fatalf("diagnostic should name the missing expression: %s", diagnosticsSummary(bag))
		}
	})
	t.Run("condition", func(t *testing.T) {
		b, bag := parseSource(t, "void f() { if (1 +) return; }", true)
		if got := countKind(b, ast.KindIf); got != 1 {
			t.Fatalf("if statement should survive, got %d", got)
		}
		if got := countKind(b, ast.KindProblemExpr); got != 1 {
			t.Fatalf("expected a problem condition, got %d", got)
		}
		if bag.Len() != 1 {
			t.Fatalf("expected one diagnostic, got %s", diagnosticsSummary(bag))
		}
	})
	t.Run("stray brace", func(t *testing.T) {
		b, bag := parseSource(t, "} int a;", true)
		if got := countKind(b, ast.KindSimpleDecl); got != 1 {
			t.Fatalf("expected the declaration after the brace, got %d", got)
		}
		if bag.Count(diag.SynProblem) != 1 {
			t.Fatalf("expected one syntax diagnostic, got %s", diagnosticsSummary(bag))
		}
	})
}

func TestMissingSemicolonOffersFix(t *testing.T) {
	_, bag := parseSource(t, "int a = 1\nint b;", true)
	if bag.Count(diag.SynProblem) != 1 {
		t.Fatalf("expected one syntax diagnostic, got %s", diagnosticsSummary(bag))
	}
	d := bag.Items()[0]
	if len(d.Fixes) != 1 || len(d.Fixes[0].Edits) != 1 {
		t.Fatalf("expected one fix with one edit, got %+v", d.Fixes)
	}
	edit := d.Fixes[0].Edits[0]
	if edit.NewText != ";" || edit.Span.Start != 9 || edit.Span.End != 9 {
		t.Fatalf("fix should insert ';' after the initializer, got %+v", edit)
	}

	_, bag = parseSource(t, "void f() { int x = ; }", true)
	for _, d := range bag.Items() {
		if len(d.Fixes) != 0 {
			t.Fatalf("only a missing ';' carries a fix, got %+v", d.Fixes)
		}
	}
}

func TestNestingGuard(t *testing.T) {
	deep := "int x = " + strings.Repeat("(", 5000) + "1" + strings.Repeat(")", 5000) + "; int y;"
	b, bag := parseSource(t, deep, true)
	if bag.Count(diag.SynNestingTooDeep) != 1 || bag.Len() != 1 {
		t.Fatalf("expected one nesting diagnostic, got %s", diagnosticsSummary(bag))
	}
	if got := countKind(b, ast.KindProblemDecl); got != 1 {
		t.Fatalf("expected 1 problem declaration, got %d", got)
	}
	if got := countKind(b, ast.KindSimpleDecl); got != 1 {
		t.Fatalf("the declaration after the deep one should parse, got %d", got)
	}

	shallow := "int x = " + strings.Repeat("(", 500) + "1" + strings.Repeat(")", 500) + ";"
	if _, bag := parseSource(t, shallow, true); bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}

	_, bag = parseSourceWith(t, "int x = ((((1))));", Options{CXX: true, MaxNesting: 4})
	if bag.Count(diag.SynNestingTooDeep) != 1 {
		t.Fatalf("custom limit should apply, got %s", diagnosticsSummary(bag))
	}
}

func TestImplicitNames(t *testing.T) {
	b, bag := parseSource(t, "struct S { int operator+(S); }; S a, b; int c = a + b;", true)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	bin := firstOf(b, ast.KindBinary)
	names := b.ImplicitNames(bin)
	if len(names) != 1 {
		t.Fatalf("expected one implicit name, got %d", len(names))
	}
	d := b.Name(names[0])
	if d.Implicit != ast.ImplicitOperator || d.Text != "operator+" {
		t.Fatalf("unexpected implicit name %+v", d)
	}
	if b.Parent(names[0]) != bin {
		t.Fatalf("implicit name should be linked to its expression")
	}

	b, _ = parseSource(t, "int a, b; int c = a + b;", false)
	if names := b.ImplicitNames(firstOf(b, ast.KindBinary)); len(names) != 0 {
		t.Fatalf("C has no operator overloading, got %d implicit names", len(names))
	}
}

func TestMemberBodiesSeeWholeClass(t *testing.T) {
	b, bag := parseSource(t, "struct A { void f() { B b; } typedef int B; };", true)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	def := firstOf(b, ast.KindFunctionDef)
	body := b.Decl(def).Body
	if body == ast.NoNode {
		t.Fatalf("deferred body was not attached")
	}
	if got := stmtKinds(b, b.Stmt(body).List); !cmp.Equal(got, []string{"DeclStmt"}) {
		t.Fatalf("body statements = %v", got)
	}
	if b.Parent(body) != def {
		t.Fatalf("body parent should be the definition")
	}
}

func TestOutOfLineMemberSeesClassScope(t *testing.T) {
	b, bag := parseSource(t, "struct A { typedef int I; void f(); }; void A::f() { I * x; }", true)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	if got := stmtKinds(b, lastBody(t, b)); !cmp.Equal(got, []string{"DeclStmt"}) {
		t.Fatalf("body statements = %v", got)
	}
	def := topLevel(b)[1]
	name := b.Declarator(b.Decl(def).Declarator).Name
	if b.Kind(name) != ast.KindQualified || b.NameString(name) != "A::f" {
		t.Fatalf("definition name = %s %q", b.Kind(name), b.NameString(name))
	}
	if b.Name(name).Role != ast.RoleDeclaration {
		t.Fatalf("definition name should be a declaration, got %s", b.Name(name).Role)
	}
}

func TestCDeclarations(t *testing.T) {
	b, bag := parseSource(t, "typedef struct S { int x; } S; int g(void) { S * p; struct S s = { .x = 1 }; return s.x; }", false)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	want := []string{"DeclStmt", "DeclStmt", "Return"}
	if diff := cmp.Diff(want, stmtKinds(b, lastBody(t, b))); diff != "" {
		t.Fatalf("statement kinds mismatch (-want +got):\n%s", diff)
	}
	if got := countKind(b, ast.KindInitList); got != 1 {
		t.Fatalf("expected a designated initializer list, got %d", got)
	}
}

func TestCXXConstructs(t *testing.T) {
	input := `
namespace outer { namespace inner { int v; } }
namespace alias = outer::inner;
extern "C" { int cfun(int); }
class Base { public: virtual ~Base(); virtual int get() const = 0; };
class Derived : public Base {
public:
	Derived() : value(0) {}
	int get() const { return value; }
	operator bool() const { return value != 0; }
private:
	int value;
};
enum class Color : unsigned char { Red, Green = 2 };
template<class T, int N = 3> struct Array { T items[N]; };
template<> struct Array<char, 1> {};
template struct Array<int>;
using IntArray = Array<int, 4>;
static_assert(sizeof(int) == 4, "int");
int use(Base *b) {
	Derived *d = static_cast<Derived *>(b);
	int *p = new int[4];
	delete[] p;
	try { throw 1; } catch (int e) { return e; } catch (...) {}
	for (int i = 0; i < 3; ++i) { d->get(); }
	return alias::v + Color::Red == Color::Green;
}
`
	b, bag := parseSource(t, input, true)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	for kind, want := range map[ast.NodeKind]int{
		ast.KindNamespace:             2,
		ast.KindNamespaceAlias:        1,
		ast.KindLinkageSpec:           1,
		ast.KindClassSpec:             4,
		ast.KindEnumSpec:              1,
		ast.KindEnumerator:            2,
		ast.KindTemplateDecl:          2,
		ast.KindExplicitInstantiation: 1,
		ast.KindAliasDecl:             1,
		ast.KindStaticAssert:          1,
		ast.KindCtorInit:              1,
		ast.KindConversionName:        1,
		ast.KindDestructorName:        1,
		ast.KindNew:                   1,
		ast.KindDelete:                1,
		ast.KindTry:                   1,
		ast.KindCatch:                 2,
		ast.KindFor:                   1,
		ast.KindAccessSpec:            3,
		ast.KindBaseSpec:              1,
		ast.KindProblemDecl:           0,
		ast.KindProblemStmt:           0,
	} {
		if got := countKind(b, kind); got != want {
			t.Errorf("%s: got %d, want %d", kind, got, want)
		}
	}
}

func TestParentsAreLinked(t *testing.T) {
	b, _ := parseSource(t, "int f(int a) { return a + 1; }", true)
	bad := 0
	b.Walk(b.Root, func(id ast.NodeID) bool {
		for _, c := range b.Children(id) {
			if b.Parent(c) != id {
				bad++
			}
		}
		return true
	})
	if bad != 0 {
		t.Fatalf("%d nodes have a wrong parent", bad)
	}
}
