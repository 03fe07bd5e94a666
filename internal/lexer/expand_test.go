package lexer_test

import (
	"testing"

	"cxxsema/internal/diag"
	"cxxsema/internal/token"
)

func TestObjectLikeMacro(t *testing.T) {
	src := "#define N 10\nint a[N];"
	res, _, file := tokenize(t, src, true)
	if got := texts(res.Tokens); got != "int a [ 10 ] ;" {
		t.Fatalf("got %q", got)
	}
	ten := res.Tokens[3]
	if !ten.FromExpansion() {
		t.Fatalf("10 should come from an expansion")
	}
	exp := res.Expansion(ten.Expansion)
	if exp.Macro != "N" || string(file.Content[exp.Image.Start:exp.Image.End]) != "N" {
		t.Fatalf("bad expansion %+v", exp)
	}
	if string(file.Content[ten.Origin.Start:ten.Origin.End]) != "10" {
		t.Fatalf("origin should point into the definition")
	}
	if len(res.Macros) != 1 || res.Macros[0].Def != ten.Origin {
		t.Fatalf("macro definition span mismatch")
	}
}

func TestFunctionLikeMacro(t *testing.T) {
	src := "#define MAX(a, b) ((a) > (b) ? (a) : (b))\nint x = MAX(1, y);"
	res, _, file := tokenize(t, src, true)
	if got := texts(res.Tokens); got != "int x = ( ( 1 ) > ( y ) ? ( 1 ) : ( y ) ) ;" {
		t.Fatalf("got %q", got)
	}
	img := res.Expansion(res.Tokens[3].Expansion).Image
	if string(file.Content[img.Start:img.End]) != "MAX(1, y)" {
		t.Fatalf("image %q", file.Content[img.Start:img.End])
	}
	if res.Tokens[len(res.Tokens)-2].FromExpansion() {
		t.Fatalf("';' is not part of the expansion")
	}
}

func TestFunctionLikeWithoutParensIsIdent(t *testing.T) {
	res, _, _ := tokenize(t, "#define F(x) x\nint F;", true)
	if got := texts(res.Tokens); got != "int F ;" {
		t.Fatalf("got %q", got)
	}
}

func TestSelfReferenceStops(t *testing.T) {
	res, _, _ := tokenize(t, "#define foo foo + 1\n#define a b\n#define b a\nfoo; a;", true)
	if got := texts(res.Tokens); got != "foo + 1 ; a ;" {
		t.Fatalf("got %q", got)
	}
}

func TestNestedExpansionHasParent(t *testing.T) {
	res, _, _ := tokenize(t, "#define ONE 1\n#define INC(x) x + ONE\nint v = INC(2);", true)
	if got := texts(res.Tokens); got != "int v = 2 + 1 ;" {
		t.Fatalf("got %q", got)
	}
	one := res.Tokens[5]
	inner := res.Expansion(one.Expansion)
	if inner.Macro != "ONE" || inner.Parent == token.NoExpansion {
		t.Fatalf("inner expansion %+v", inner)
	}
	if outer := res.Expansion(res.Outermost(one.Expansion)); outer.Macro != "INC" {
		t.Fatalf("outermost is %q", outer.Macro)
	}
}

func TestStringizeAndPaste(t *testing.T) {
	src := "#define STR(x) #x\n#define CAT(a, b) a ## b\nconst char* s = STR(hi there); int CAT(va, r1);"
	res, _, _ := tokenize(t, src, true)
	if got := texts(res.Tokens); got != `const char * s = "hi there" ; int var1 ;` {
		t.Fatalf("got %q", got)
	}
	for _, tok := range res.Tokens {
		if tok.Text == "var1" && tok.Kind != token.Ident {
			t.Fatalf("pasted token kind %v", tok.Kind)
		}
	}
}

func TestVariadicAndUndef(t *testing.T) {
	src := "#define CALL(f, ...) f(__VA_ARGS__)\nCALL(g, 1, 2);\n#undef CALL\nCALL(h);"
	res, _, _ := tokenize(t, src, true)
	if got := texts(res.Tokens); got != "g ( 1 , 2 ) ; CALL ( h ) ;" {
		t.Fatalf("got %q", got)
	}
}

func TestMacroArgCountMismatch(t *testing.T) {
	res, bag, _ := tokenize(t, "#define F(a, b) a\nF(1);", true)
	if bag.Count(diag.LexMacroArgCount) != 1 {
		t.Fatalf("expected LexMacroArgCount, got %v", bag.Items())
	}
	if got := texts(res.Tokens); got != "F ( 1 ) ;" {
		t.Fatalf("got %q", got)
	}
}
