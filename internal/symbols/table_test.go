package symbols

import (
	"testing"

	"cxxsema/internal/ast"
	"cxxsema/internal/source"
	"cxxsema/internal/types"
)

type env struct {
	t *Table
	b types.Builtins
}

func newEnv(cxx bool) *env {
	t := NewTable(Hints{}, nil, nil, cxx)
	return &env{t: t, b: t.Types.Builtins()}
}

func (e *env) s(name string) source.StringID { return e.t.Strings.Intern(name) }

func (e *env) declare(scope ScopeID, name string, kind SymbolKind, a DeclAttrs) DeclareResult {
	return e.t.Declare(scope, e.s(name), kind, a)
}

func (e *env) namespace(parent ScopeID, name string) ScopeID {
	r := e.declare(parent, name, SymbolNamespace, DeclAttrs{Definition: true})
	sym := e.t.Symbols.Get(r.Symbol)
	if !sym.Inner.IsValid() {
		inner := e.t.NewScope(ScopeNamespace, parent, r.Symbol, ast.NoNode)
		e.t.Symbols.Get(r.Symbol).Inner = inner
	}
	return e.t.Symbols.Get(r.Symbol).Inner
}

func (e *env) class(parent ScopeID, name string, bases ...BaseEdge) (SymbolID, ScopeID) {
	r := e.declare(parent, name, SymbolClass, DeclAttrs{Definition: true})
	inner := e.t.NewScope(ScopeClass, parent, r.Symbol, ast.NoNode)
	sym := e.t.Symbols.Get(r.Symbol)
	sym.Inner = inner
	sym.Type = e.t.Types.Class(uint32(r.Symbol), false)
	e.t.Scopes.Get(inner).Bases = bases
	e.t.Scopes.Get(inner).BasesKnown = true
	return r.Symbol, inner
}

func (e *env) fn(params ...types.TypeID) types.TypeID {
	return e.t.Types.Function(e.b.Void, params, false, 0, types.RefNone)
}

func TestNewTableHasGlobalScope(t *testing.T) {
	e := newEnv(true)
	g := e.t.Scopes.Get(e.t.Global)
	if g == nil || g.Kind != ScopeGlobal || g.Parent.IsValid() {
		t.Fatalf("unexpected global scope: %+v", g)
	}
	if err := e.t.Validate(); err != nil {
		t.Fatalf("empty table must validate: %v", err)
	}
}

func TestDeclareMergesRedeclarations(t *testing.T) {
	e := newEnv(true)
	first := e.declare(e.t.Global, "f", SymbolFunction, DeclAttrs{Node: 1, Type: e.fn(e.b.Int), Linkage: LinkageExternal})
	again := e.declare(e.t.Global, "f", SymbolFunction, DeclAttrs{Node: 2, Type: e.fn(e.b.Int), Definition: true})
	if !first.New || again.New || again.Symbol != first.Symbol {
		t.Fatalf("redeclaration must extend the first binding: %+v %+v", first, again)
	}
	sym := e.t.Symbols.Get(first.Symbol)
	if len(sym.Decls) != 2 || sym.Def != 2 || sym.Flags&FlagDefined == 0 {
		t.Fatalf("unexpected merged binding: %+v", sym)
	}

	overload := e.declare(e.t.Global, "f", SymbolFunction, DeclAttrs{Node: 3, Type: e.fn(e.b.Double)})
	if !overload.New || overload.Symbol == first.Symbol {
		t.Fatalf("a different signature must be a new overload")
	}
	if got := len(e.t.Bucket(e.t.Global, e.s("f"))); got != 2 {
		t.Fatalf("expected two overloads, got %d", got)
	}
	if err := e.t.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestDeclareConflicts(t *testing.T) {
	cases := []struct {
		name  string
		cxx   bool
		run   func(e *env) DeclareResult
		wantP ProblemKind
	}{
		{
			name: "function defined twice",
			cxx:  true,
			run: func(e *env) DeclareResult {
				e.declare(e.t.Global, "f", SymbolFunction, DeclAttrs{Node: 1, Type: e.fn(), Definition: true})
				return e.declare(e.t.Global, "f", SymbolFunction, DeclAttrs{Node: 2, Type: e.fn(), Definition: true})
			},
			wantP: RedefinitionConflict,
		},
		{
			name: "return type differs",
			cxx:  true,
			run: func(e *env) DeclareResult {
				e.declare(e.t.Global, "f", SymbolFunction, DeclAttrs{Node: 1, Type: e.fn(e.b.Int)})
				other := e.t.Types.Function(e.b.Int, []types.TypeID{e.b.Int}, false, 0, types.RefNone)
				return e.declare(e.t.Global, "f", SymbolFunction, DeclAttrs{Node: 2, Type: other})
			},
			wantP: RedefinitionConflict,
		},
		{
			name: "c functions cannot overload",
			cxx:  false,
			run: func(e *env) DeclareResult {
				e.declare(e.t.Global, "f", SymbolFunction, DeclAttrs{Node: 1, Type: e.fn(e.b.Int)})
				return e.declare(e.t.Global, "f", SymbolFunction, DeclAttrs{Node: 2, Type: e.fn(e.b.Double)})
			},
			wantP: RedefinitionConflict,
		},
		{
			name: "variable type differs",
			cxx:  true,
			run: func(e *env) DeclareResult {
				e.declare(e.t.Global, "x", SymbolVariable, DeclAttrs{Node: 1, Type: e.b.Int, Flags: FlagExtern})
				return e.declare(e.t.Global, "x", SymbolVariable, DeclAttrs{Node: 2, Type: e.b.Long})
			},
			wantP: RedefinitionConflict,
		},
		{
			name: "variable and function",
			cxx:  true,
			run: func(e *env) DeclareResult {
				e.declare(e.t.Global, "x", SymbolVariable, DeclAttrs{Node: 1, Type: e.b.Int})
				return e.declare(e.t.Global, "x", SymbolFunction, DeclAttrs{Node: 2, Type: e.fn()})
			},
			wantP: InvalidOverload,
		},
		{
			name: "block scope redeclaration",
			cxx:  true,
			run: func(e *env) DeclareResult {
				block := e.t.NewScope(ScopeBlock, e.t.Global, NoSymbolID, ast.NoNode)
				e.declare(block, "x", SymbolVariable, DeclAttrs{Node: 1, Type: e.b.Int, Definition: true})
				return e.declare(block, "x", SymbolVariable, DeclAttrs{Node: 2, Type: e.b.Int, Definition: true})
			},
			wantP: RedefinitionConflict,
		},
		{
			name: "static after extern variable",
			cxx:  true,
			run: func(e *env) DeclareResult {
				e.declare(e.t.Global, "l", SymbolVariable, DeclAttrs{Node: 1, Type: e.b.Int, Flags: FlagExtern, Linkage: LinkageExternal})
				return e.declare(e.t.Global, "l", SymbolVariable, DeclAttrs{Node: 2, Type: e.b.Int, Flags: FlagStatic, Linkage: LinkageInternal, Definition: true})
			},
			wantP: RedefinitionConflict,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(tc.cxx)
			got := tc.run(e)
			if got.Problem != tc.wantP || got.Symbol.IsValid() || !got.Previous.IsValid() {
				t.Fatalf("got %+v, want problem %v", got, tc.wantP)
			}
		})
	}
}

func TestStaticThenExternKeepsInternalLinkage(t *testing.T) {
	e := newEnv(true)
	first := e.declare(e.t.Global, "l", SymbolVariable, DeclAttrs{Node: 1, Type: e.b.Int, Flags: FlagStatic, Linkage: LinkageInternal, Definition: true})
	again := e.declare(e.t.Global, "l", SymbolVariable, DeclAttrs{Node: 2, Type: e.b.Int, Flags: FlagExtern, Linkage: LinkageExternal})
	if again.Problem != ProblemNone || again.Symbol != first.Symbol {
		t.Fatalf("extern after static must merge: %+v", again)
	}
	if got := e.t.Symbols.Get(first.Symbol).Linkage; got != LinkageInternal {
		t.Fatalf("linkage = %v, want internal", got)
	}
}

func TestClassCoexistsWithObject(t *testing.T) {
	e := newEnv(true)
	cls, _ := e.class(e.t.Global, "S")
	v := e.declare(e.t.Global, "S", SymbolVariable, DeclAttrs{Node: 5, Type: e.b.Int, Definition: true})
	if !v.New {
		t.Fatalf("variable must coexist with the class: %+v", v)
	}
	g := ScopeGraph{T: e.t}
	if got := e.t.LookupUnqualified(g, e.t.Global, e.s("S"), LookupOptions{}).Single(); got != v.Symbol {
		t.Fatalf("the variable hides the class, got %d", got)
	}
	if got := e.t.LookupUnqualified(g, e.t.Global, e.s("S"), LookupOptions{TypesOnly: true}).Single(); got != cls {
		t.Fatalf("type lookup must find the class, got %d", got)
	}
	if got := e.t.LookupUnqualified(g, e.t.Global, e.s("S"), LookupOptions{Elaborated: true}).Single(); got != cls {
		t.Fatalf("elaborated lookup must find the class, got %d", got)
	}

	// typedef struct S S;
	td := e.declare(e.t.Global, "S", SymbolTypedef, DeclAttrs{Node: 9, Type: e.t.Symbols.Get(cls).Type})
	if td.New || td.Symbol != cls {
		t.Fatalf("typedef naming its own class must resolve to the class: %+v", td)
	}
}

func TestCTentativeDefinitions(t *testing.T) {
	e := newEnv(false)
	first := e.declare(e.t.Global, "x", SymbolVariable, DeclAttrs{Node: 1, Type: e.b.Int, Tentative: true})
	second := e.declare(e.t.Global, "x", SymbolVariable, DeclAttrs{Node: 2, Type: e.b.Int, Tentative: true})
	initialized := e.declare(e.t.Global, "x", SymbolVariable, DeclAttrs{Node: 3, Type: e.b.Int, Definition: true})
	if second.Symbol != first.Symbol || initialized.Symbol != first.Symbol {
		t.Fatalf("tentative definitions must merge: %+v %+v %+v", first, second, initialized)
	}
	if sym := e.t.Symbols.Get(first.Symbol); sym.Def != 3 || sym.Flags&FlagTentative != 0 {
		t.Fatalf("initialized definition must win: %+v", sym)
	}
	again := e.declare(e.t.Global, "x", SymbolVariable, DeclAttrs{Node: 4, Type: e.b.Int, Definition: true})
	if again.Problem != RedefinitionConflict {
		t.Fatalf("second initializer must conflict, got %+v", again)
	}
}

func TestCTagsAreSeparate(t *testing.T) {
	e := newEnv(false)
	tag := e.declare(e.t.Global, "S", SymbolClass, DeclAttrs{Node: 1, Tag: true, Definition: true})
	td := e.declare(e.t.Global, "S", SymbolTypedef, DeclAttrs{Node: 2, Type: e.b.Int})
	if !tag.New || !td.New {
		t.Fatalf("tag and typedef live in different name spaces")
	}
	g := ScopeGraph{T: e.t}
	if got := e.t.LookupUnqualified(g, e.t.Global, e.s("S"), LookupOptions{Tags: true}).Single(); got != tag.Symbol {
		t.Fatalf("tag lookup: got %d", got)
	}
	if got := e.t.LookupUnqualified(g, e.t.Global, e.s("S"), LookupOptions{}).Single(); got != td.Symbol {
		t.Fatalf("ordinary lookup: got %d", got)
	}
	if err := e.t.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestIncompleteArrayIsCompleted(t *testing.T) {
	e := newEnv(true)
	open := e.t.Types.Array(e.b.Int, types.UnknownBound)
	sized := e.t.Types.Array(e.b.Int, 3)
	first := e.declare(e.t.Global, "a", SymbolVariable, DeclAttrs{Node: 1, Type: open, Flags: FlagExtern})
	second := e.declare(e.t.Global, "a", SymbolVariable, DeclAttrs{Node: 2, Type: sized, Definition: true})
	if second.Symbol != first.Symbol {
		t.Fatalf("array redeclaration must merge: %+v", second)
	}
	if got := e.t.Symbols.Get(first.Symbol).Type; got != sized {
		t.Fatalf("expected completed type, got %s", e.t.TypeString(got))
	}
}

func TestQualifiedName(t *testing.T) {
	e := newEnv(true)
	ns := e.namespace(e.t.Global, "outer")
	cls, inner := e.class(ns, "box")
	field := e.declare(inner, "size", SymbolField, DeclAttrs{Node: 1, Type: e.b.Int})
	if got := e.t.QualifiedName(field.Symbol); got != "outer::box::size" {
		t.Fatalf("got %q", got)
	}
	inst := e.t.Symbols.New(&Symbol{
		Name:     e.s("box"),
		Kind:     SymbolClass,
		Scope:    ns,
		Instance: &InstanceInfo{Template: cls, Args: []types.TemplateArg{types.TypeArg(e.b.Int), types.ValueArg(3)}},
	})
	if got := e.t.QualifiedName(inst); got != "outer::box<int, 3>" {
		t.Fatalf("got %q", got)
	}
	if got := e.t.TypeString(e.t.Types.Pointer(e.t.Symbols.Get(cls).Type)); got != "outer::box *" {
		t.Fatalf("got %q", got)
	}
	if err := e.t.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
