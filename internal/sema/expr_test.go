package sema

import (
	"testing"

	"cxxsema/internal/diag"
	"cxxsema/internal/types"
)

func TestExpressionTypes(t *testing.T) {
	src := `
int i; unsigned u; long l; double d; char c; int* p; const int ci = 0;
void f() {
	i + u;
	l + u;
	c + c;
	p - p;
	p + 1;
	sizeof i;
	1 < 2;
	'a';
	1u;
	10000000000;
	1.0f;
	"ab";
	i = 2;
	++i;
	i++;
	(double)i;
	&i;
	*p;
	i ? d : l;
	ci;
	i, d;
}
`
	u := analyzeClean(t, src, true)
	in := u.Types()
	b := in.Builtins()
	want := []struct {
		typ types.TypeID
		cat Category
	}{
		{b.UInt, PRValue},
		{b.Long, PRValue},
		{b.Int, PRValue},
		{b.Long, PRValue},
		{in.Pointer(b.Int), PRValue},
		{b.ULong, PRValue},
		{b.Bool, PRValue},
		{b.Char, PRValue},
		{b.UInt, PRValue},
		{b.Long, PRValue},
		{b.Float, PRValue},
		{in.Array(in.Qualify(b.Char, types.Const), 3), LValue},
		{b.Int, LValue},
		{b.Int, LValue},
		{b.Int, PRValue},
		{b.Double, PRValue},
		{in.Pointer(b.Int), PRValue},
		{b.Int, LValue},
		{b.Double, PRValue},
		{in.Qualify(b.Int, types.Const), LValue},
		{b.Double, LValue},
	}
	exprs := exprsOf(t, u)
	if len(exprs) != len(want) {
		t.Fatalf("got %d expressions, want %d", len(exprs), len(want))
	}
	for i, e := range exprs {
		w := want[i]
		t.Run(u.Builder().TokenText(e), func(t *testing.T) {
			if got := u.ExprType(e); got != w.typ {
				t.Fatalf("type = %s, want %s", u.Table().TypeString(got), u.Table().TypeString(w.typ))
			}
			if got := u.ExprCategory(e); got != w.cat {
				t.Fatalf("category = %s, want %s", got, w.cat)
			}
		})
	}
}

func TestCExpressionTypesDiffer(t *testing.T) {
	u := analyzeClean(t, "int i; void f() { 1 < 2; ++i; 'a'; }", false)
	exprs := exprsOf(t, u)
	b := u.Types().Builtins()
	cases := []struct {
		typ types.TypeID
		cat Category
	}{
		{b.Int, PRValue},
		{b.Int, PRValue},
		{b.Int, PRValue},
	}
	if len(exprs) != len(cases) {
		t.Fatalf("got %d expressions", len(exprs))
	}
	for i, tc := range cases {
		if got := u.ExprType(exprs[i]); got != tc.typ {
			t.Fatalf("expression %d: type %s", i, u.Table().TypeString(got))
		}
		if got := u.ExprCategory(exprs[i]); got != tc.cat {
			t.Fatalf("expression %d: category %s", i, got)
		}
	}
}

func TestAutoVariableTakesInitializerType(t *testing.T) {
	u := analyzeClean(t, "double g(); void f() { auto x = g(); x; auto& r = x; r; }", true)
	exprs := exprsOf(t, u)
	b := u.Types().Builtins()
	for i, e := range exprs {
		if got := u.ExprType(e); got != b.Double {
			t.Fatalf("expression %d has type %s", i, u.Table().TypeString(got))
		}
		if got := u.ExprCategory(e); got != LValue {
			t.Fatalf("expression %d is %s", i, got)
		}
	}
}

func TestFunctionUsedInOwnDeclarationIsReported(t *testing.T) {
	_, bag := analyzeSource(t, "int f(int x = f(1));", true)
	if !hasCode(bag, diag.SemaCircularReference) {
		t.Fatalf("default argument calling its own function accepted: %s", diagnosticsSummary(bag))
	}
	_, bag = analyzeSource(t, "int f(int); int g(int x = f(1));", true)
	if hasCode(bag, diag.SemaCircularReference) {
		t.Fatalf("call of a declared function reported: %s", diagnosticsSummary(bag))
	}
}

func TestCircularAutoIsReported(t *testing.T) {
	_, bag := analyzeSource(t, "auto x = x + 1;", true)
	if !hasCode(bag, diag.SemaCircularReference) {
		t.Fatalf("self-initialized auto variable accepted: %s", diagnosticsSummary(bag))
	}
}
