package parser

import (
	"fmt"
	"strings"
	"testing"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/lexer"
	"cxxsema/internal/source"
)

func parseSource(t *testing.T, input string, cxx bool) (*ast.Builder, *diag.Bag) {
	t.Helper()
	return parseSourceWith(t, input, Options{CXX: cxx})
}

func parseSourceWith(t *testing.T, input string, opts Options) (*ast.Builder, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	name := "test.c"
	if opts.CXX {
		name = "test.cpp"
	}
	file := fs.Get(fs.AddVirtual(name, []byte(input)))
	bag := diag.NewBag(0)
	rep := diag.BagReporter{Bag: bag}
	res := lexer.Tokenize(file, lexer.Options{Reporter: rep, CXX: opts.CXX})
	b := ast.NewBuilder(res.Tokens, res.Expansions, ast.Hints{})
	opts.Reporter = rep
	ParseFile(b, opts)
	return b, bag
}

func diagnosticsSummary(bag *diag.Bag) string {
	if bag == nil || bag.Len() == 0 {
		return ""
	}
	items := bag.Items()
	lines := make([]string, len(items))
	for i, d := range items {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}

func countKind(b *ast.Builder, kind ast.NodeKind) int {
	n := 0
	b.Walk(b.Root, func(id ast.NodeID) bool {
		if b.Kind(id) == kind {
			n++
		}
		return true
	})
	return n
}

func firstOf(b *ast.Builder, kind ast.NodeKind) ast.NodeID {
	found := ast.NoNode
	b.Walk(b.Root, func(id ast.NodeID) bool {
		if found != ast.NoNode {
			return false
		}
		if b.Kind(id) == kind {
			found = id
			return false
		}
		return true
	})
	return found
}

func topLevel(b *ast.Builder) []ast.NodeID {
	return b.Decl(b.Root).List
}

// lastBody returns the statements of the last function defined at the top
// level.
func lastBody(t *testing.T, b *ast.Builder) []ast.NodeID {
	t.Helper()
	decls := topLevel(b)
	for i := len(decls) - 1; i >= 0; i-- {
		if b.Kind(decls[i]) == ast.KindFunctionDef {
			body := b.Decl(decls[i]).Body
			if body == ast.NoNode {
				t.Fatalf("function without body")
			}
			return b.Stmt(body).List
		}
	}
	t.Fatalf("no function definition in %d declarations", len(decls))
	return nil
}

func stmtKinds(b *ast.Builder, stmts []ast.NodeID) []string {
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = b.Kind(s).String()
	}
	return out
}
