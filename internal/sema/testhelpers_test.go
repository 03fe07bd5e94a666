package sema

import (
	"fmt"
	"strings"
	"testing"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/lexer"
	"cxxsema/internal/parser"
	"cxxsema/internal/source"
	"cxxsema/internal/symbols"
)

// analyzeLazy builds a unit without freezing it: names resolve on the
// first query.
func analyzeLazy(t *testing.T, input string, cxx bool) (*Unit, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	name := "test.c"
	if cxx {
		name = "test.cpp"
	}
	file := fs.Get(fs.AddVirtual(name, []byte(input)))
	bag := diag.NewBag(0)
	rep := diag.BagReporter{Bag: bag}
	res := lexer.Tokenize(file, lexer.Options{Reporter: rep, CXX: cxx})
	b := ast.NewBuilder(res.Tokens, res.Expansions, ast.Hints{})
	parser.ParseFile(b, parser.Options{Reporter: rep, CXX: cxx})
	u := Analyze(b, Options{Reporter: rep, CXX: cxx, Macros: res.Macros})
	return u, bag
}

// analyzeSource freezes the unit so that every lookup and overload
// diagnostic is in the bag.
func analyzeSource(t *testing.T, input string, cxx bool) (*Unit, *diag.Bag) {
	t.Helper()
	u, bag := analyzeLazy(t, input, cxx)
	u.Freeze()
	return u, bag
}

// analyzeClean fails the test on any diagnostic of the declaration walk
// and leaves name resolution lazy.
func analyzeClean(t *testing.T, input string, cxx bool) *Unit {
	t.Helper()
	u, bag := analyzeLazy(t, input, cxx)
	if bag.Len() > 0 {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	return u
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

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

// namesOf returns the name nodes spelled text in source order, split into
// declaring and referring names.
func namesOf(u *Unit, text string) (decls, refs []ast.NodeID) {
	b := u.Builder()
	b.Walk(b.Root, func(id ast.NodeID) bool {
		if !b.Kind(id).IsName() || b.NameString(id) != text {
			return true
		}
		if b.Name(id).Role == ast.RoleReference {
			refs = append(refs, id)
		} else {
			decls = append(decls, id)
		}
		return true
	})
	return decls, refs
}

func mustNames(t *testing.T, u *Unit, text string, wantDecls, wantRefs int) (decls, refs []ast.NodeID) {
	t.Helper()
	decls, refs = namesOf(u, text)
	if len(decls) != wantDecls || len(refs) != wantRefs {
		t.Fatalf("%q: got %d declarations and %d references, want %d and %d", text, len(decls), len(refs), wantDecls, wantRefs)
	}
	return decls, refs
}

// exprsOf returns the expression statements of the last function body.
func exprsOf(t *testing.T, u *Unit) []ast.NodeID {
	t.Helper()
	b := u.Builder()
	decls := b.Decl(b.Root).List
	for i := len(decls) - 1; i >= 0; i-- {
		if b.Kind(decls[i]) != ast.KindFunctionDef {
			continue
		}
		var out []ast.NodeID
		for _, s := range b.Stmt(b.Decl(decls[i]).Body).List {
			if b.Kind(s) == ast.KindExprStmt {
				out = append(out, b.Stmt(s).A)
			}
		}
		return out
	}
	t.Fatalf("no function definition")
	return nil
}

func qualified(u *Unit, id symbols.SymbolID) string {
	if !id.IsValid() {
		return "<none>"
	}
	if s := u.Symbol(id); s != nil && s.IsProblem() {
		return "<problem " + s.Problem.String() + ">"
	}
	return u.Table().QualifiedName(id)
}
