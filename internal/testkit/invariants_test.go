package testkit

import (
	"testing"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/lexer"
	"cxxsema/internal/parser"
	"cxxsema/internal/source"
)

func parse(t *testing.T, input string, cxx bool) (*ast.Builder, *source.File) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("input.cpp", []byte(input)))
	rep := diag.BagReporter{Bag: diag.NewBag(0)}
	res := lexer.Tokenize(file, lexer.Options{Reporter: rep, CXX: cxx})
	b := ast.NewBuilder(res.Tokens, res.Expansions, ast.Hints{})
	parser.ParseFile(b, parser.Options{Reporter: rep, CXX: cxx})
	return b, file
}

func TestParsedTreesHoldInvariants(t *testing.T) {
	cases := []struct {
		name  string
		input string
		cxx   bool
	}{
		{"c declarations", "struct S { int x; } s; int f(int a) { return a + s.x; }", false},
		{"templates", "template<class T> struct V { T v; }; V<int> x; int g() { return x.v; }", true},
		{"operators", "struct P { P operator+(const P&) const; }; void h() { P a, b; a + b; }", true},
		{"broken input", "int a = ; void f( { }", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, f := parse(t, tc.input, tc.cxx)
			if err := CheckTreeInvariants(b, f); err != nil {
				t.Fatalf("invariant violated: %v", err)
			}
		})
	}
}

func TestCheckTreeInvariantsCatchesBrokenParent(t *testing.T) {
	b, f := parse(t, "int a; int b;", false)
	var victim ast.NodeID
	b.Walk(b.Root, func(id ast.NodeID) bool {
		if id != b.Root && victim == ast.NoNode {
			victim = id
		}
		return true
	})
	b.Node(victim).Parent = ast.NoNode
	if err := CheckTreeInvariants(b, f); err == nil {
		t.Fatalf("broken parent link not reported")
	}
	if n := CountKinds(b)["SimpleDecl"]; n != 2 {
		t.Fatalf("counted %d SimpleDecl nodes", n)
	}
}
