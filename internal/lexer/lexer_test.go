package lexer_test

import (
	"fmt"
	"strings"
	"testing"

	"cxxsema/internal/diag"
	"cxxsema/internal/lexer"
	"cxxsema/internal/source"
	"cxxsema/internal/token"
)

func tokenize(t *testing.T, input string, cxx bool) (lexer.Result, *diag.Bag, *source.File) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.cpp", []byte(input)))
	bag := diag.NewBag(0)
	res := lexer.Tokenize(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}, CXX: cxx})
	return res, bag, file
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		if tok.Kind != token.EOF {
			out = append(out, tok.Kind)
		}
	}
	return out
}

func texts(toks []token.Token) string {
	parts := make([]string, 0, len(toks))
	for _, tok := range toks {
		if tok.Kind != token.EOF {
			parts = append(parts, tok.Text)
		}
	}
	return strings.Join(parts, " ")
}

func expectKinds(t *testing.T, input string, cxx bool, want ...token.Kind) {
	t.Helper()
	res, bag, _ := tokenize(t, input, cxx)
	got := kinds(res.Tokens)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("%q: got %v, want %v (diags %d)", input, got, want, bag.Len())
	}
}

func TestOperatorsGreedy(t *testing.T) {
	expectKinds(t, "a->*b", true, token.Ident, token.ArrowStar, token.Ident)
	expectKinds(t, "a->*b", false, token.Ident, token.Arrow, token.Star, token.Ident)
	expectKinds(t, "x<<=y>>=z", true, token.Ident, token.ShlAssign, token.Ident, token.ShrAssign, token.Ident)
	expectKinds(t, "A::b...", true, token.Ident, token.ColonColon, token.Ident, token.Ellipsis)
	expectKinds(t, "a>>b", true, token.Ident, token.Shr, token.Ident)
}

func TestKeywordsFollowDialect(t *testing.T) {
	expectKinds(t, "class restrict", true, token.KwClass, token.Ident)
	expectKinds(t, "class restrict", false, token.Ident, token.KwRestrict)
}

func TestLiterals(t *testing.T) {
	tests := []struct {
		in   string
		kind token.Kind
	}{
		{"42", token.IntLit},
		{"0x1F", token.IntLit},
		{"10ul", token.IntLit},
		{"1.5f", token.FloatLit},
		{".5", token.FloatLit},
		{"1e-3", token.FloatLit},
		{"0x1p3", token.FloatLit},
		{"1'000'000", token.IntLit},
		{`"a\"b"`, token.StringLit},
		{`L"wide"`, token.StringLit},
		{`u8"utf"`, token.StringLit},
		{`R"x(raw ")" )x"`, token.StringLit},
		{`'\n'`, token.CharLit},
		{`U'x'`, token.CharLit},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			res, bag, _ := tokenize(t, tt.in, true)
			if len(res.Tokens) != 2 || res.Tokens[0].Kind != tt.kind || res.Tokens[0].Text != tt.in {
				t.Fatalf("got %v %q", kinds(res.Tokens), texts(res.Tokens))
			}
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %v", bag.Items())
			}
		})
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		in   string
		code diag.Code
	}{
		{`"abc`, diag.LexUnterminatedString},
		{"'a\n", diag.LexUnterminatedChar},
		{"/* open", diag.LexUnterminatedBlockComment},
		{"0x", diag.LexBadNumber},
		{"a @ b", diag.LexUnknownChar},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, bag, _ := tokenize(t, tt.in, true)
			if bag.Count(tt.code) != 1 {
				t.Fatalf("expected one %s, got %v", tt.code.ID(), bag.Items())
			}
		})
	}
}

func TestTriviaAndDirectives(t *testing.T) {
	res, _, _ := tokenize(t, "#include <x.h>\n// c\nint /* b */ x;", true)
	first := res.Tokens[0]
	if first.Kind != token.KwInt {
		t.Fatalf("directive leaked into tokens: %v", kinds(res.Tokens))
	}
	var got []token.TriviaKind
	for _, tr := range first.Leading {
		got = append(got, tr.Kind)
	}
	want := []token.TriviaKind{token.TriviaDirective, token.TriviaNewline, token.TriviaLineComment, token.TriviaNewline}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("leading trivia %v, want %v", got, want)
	}
	if res.Tokens[1].Leading[1].Kind != token.TriviaBlockComment {
		t.Fatalf("block comment not attached to x")
	}
}

func TestNonASCIIIdentifierIsNFC(t *testing.T) {
	// "é" written as e + combining acute accent
	res, _, _ := tokenize(t, "cafe\u0301 = 1;", true)
	if res.Tokens[0].Kind != token.Ident || res.Tokens[0].Text != "caf\u00e9" {
		t.Fatalf("got %q", res.Tokens[0].Text)
	}
}

func TestTokenTooLongStops(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("long.cpp", []byte(strings.Repeat("a", 1<<16+1)+" b")))
	bag := diag.NewBag(4)
	lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	if tok := lx.Next(); tok.Kind != token.Invalid {
		t.Fatalf("expected invalid token, got %v", tok.Kind)
	}
	if bag.Count(diag.LexTokenTooLong) != 1 {
		t.Fatalf("expected LexTokenTooLong")
	}
	if next := lx.Next(); next.Kind != token.EOF {
		t.Fatalf("expected EOF after long token, got %v", next.Kind)
	}
}
