package ast_test

import (
	"errors"
	"testing"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/lexer"
	"cxxsema/internal/parser"
	"cxxsema/internal/source"
)

func build(t *testing.T, input string) (*ast.Builder, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.cpp", []byte(input)))
	bag := diag.NewBag(0)
	rep := diag.BagReporter{Bag: bag}
	res := lexer.Tokenize(file, lexer.Options{Reporter: rep, CXX: true})
	b := ast.NewBuilder(res.Tokens, res.Expansions, ast.Hints{})
	parser.ParseFile(b, parser.Options{Reporter: rep, CXX: true})
	return b, bag
}

func find(b *ast.Builder, kind ast.NodeKind, nth int) ast.NodeID {
	found := ast.NoNode
	b.Walk(b.Root, func(id ast.NodeID) bool {
		if found != ast.NoNode {
			return false
		}
		if b.Kind(id) == kind {
			if nth == 0 {
				found = id
				return false
			}
			nth--
		}
		return true
	})
	return found
}

func TestMarkReset(t *testing.T) {
	b := ast.NewBuilder(nil, nil, ast.Hints{Nodes: 4})
	b.NewName(ast.KindIdent, 0, 0, ast.NameData{Text: "a"})
	m := b.Mark()
	b.NewName(ast.KindIdent, 0, 0, ast.NameData{Text: "b"})
	b.NewExpr(ast.KindLiteral, 0, 0, ast.ExprData{Text: "1"})
	if b.Len() != 3 {
		t.Fatalf("expected 3 nodes, got %d", b.Len())
	}
	b.Reset(m)
	if b.Len() != 1 || b.Names.Len() != 1 || b.Exprs.Len() != 0 {
		t.Fatalf("reset left nodes=%d names=%d exprs=%d", b.Len(), b.Names.Len(), b.Exprs.Len())
	}
	id := b.NewName(ast.KindIdent, 0, 0, ast.NameData{Text: "c"})
	if got := b.Name(id).Text; got != "c" {
		t.Fatalf("payload after reset = %q", got)
	}
}

func TestTypedAccessorsCheckKind(t *testing.T) {
	b := ast.NewBuilder(nil, nil, ast.Hints{})
	id := b.NewName(ast.KindIdent, 0, 0, ast.NameData{Text: "x"})
	if b.Expr(id) != nil || b.Decl(id) != nil {
		t.Fatalf("accessors of another payload class must return nil")
	}
	if b.Name(ast.NoNode) != nil || b.Kind(ast.NoNode) != ast.KindInvalid {
		t.Fatalf("NoNode must resolve to nothing")
	}
}

func TestChildrenInSourceOrder(t *testing.T) {
	input := `
namespace n { struct S { int v; S(int x) : v(x) {} int get() const { return v; } }; }
template<class T> T twice(T t) { return t + t; }
int main() {
	n::S s(1);
	int arr[3] = {1, 2, 3};
	for (int i = 0; i < 3; ++i) arr[i] = twice<int>(s.get()) * (int)2;
	return sizeof(arr) > 4 ? arr[0] : -1;
}
`
	b, bag := build(t, input)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %d", bag.Len())
	}
	b.Walk(b.Root, func(id ast.NodeID) bool {
		n := b.Node(id)
		kids := b.Children(id)
		for i, c := range kids {
			cn := b.Node(c)
			if cn.First < n.First || cn.End > n.End {
				t.Errorf("%s [%d,%d) escapes parent %s [%d,%d)", cn.Kind, cn.First, cn.End, n.Kind, n.First, n.End)
			}
			if i > 0 && cn.First < b.Node(kids[i-1]).First {
				t.Errorf("children of %s out of order at %d", n.Kind, i)
			}
			if b.Parent(c) != id {
				t.Errorf("%s has parent %d, want %d", cn.Kind, b.Parent(c), id)
			}
		}
		return true
	})
}

func TestSyntaxViews(t *testing.T) {
	b, bag := build(t, "#define TWO 1 + 1\nint a = TWO; int b = 3;\n")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %d", bag.Len())
	}

	sum := find(b, ast.KindBinary, 0)
	if !b.InMacroExpansion(sum) {
		t.Fatalf("1 + 1 comes from one expansion")
	}
	view, err := b.Syntax(sum)
	if err != nil || view.Text() != "1 + 1" {
		t.Fatalf("Syntax(sum) = %q, %v", view.Text(), err)
	}
	one := find(b, ast.KindLiteral, 0)
	if _, err := b.Syntax(one); !errors.Is(err, ast.ErrExpansionOverlapsBoundary) {
		t.Fatalf("a token in the middle of an expansion must not be cut out, got %v", err)
	}

	first := find(b, ast.KindSimpleDecl, 0)
	if b.InMacroExpansion(first) {
		t.Fatalf("the declaration is written in the file")
	}
	view, err = b.Syntax(first)
	if err != nil || view.Text() != "int a = 1 + 1 ;" {
		t.Fatalf("Syntax(first) = %q, %v", view.Text(), err)
	}

	second := find(b, ast.KindSimpleDecl, 1)
	lead, err := b.LeadingSyntax(second)
	if err != nil || !lead.Empty() {
		t.Fatalf("declarations are adjacent, got %q, %v", lead.Text(), err)
	}
	decl := b.Decl(second).List[0]
	trail, err := b.TrailingSyntax(decl)
	if err != nil || trail.Text() != ";" {
		t.Fatalf("TrailingSyntax(b = 3) = %q, %v", trail.Text(), err)
	}
	lead, err = b.LeadingSyntax(decl)
	if err != nil || !lead.Empty() {
		t.Fatalf("declarator follows its specifiers, got %q, %v", lead.Text(), err)
	}
	trail, err = b.TrailingSyntax(second)
	if err != nil || !trail.Empty() {
		t.Fatalf("nothing follows the last declaration, got %q, %v", trail.Text(), err)
	}
}

func TestNameString(t *testing.T) {
	b, _ := build(t, "namespace a { struct B { static int c; }; } int x = ::a::B::c;")
	id := find(b, ast.KindQualified, 0)
	if got := b.NameString(id); got != "::a::B::c" {
		t.Fatalf("NameString = %q", got)
	}
	if got := b.NameString(b.LastName(id)); got != "c" {
		t.Fatalf("LastName = %q", got)
	}
}
