package dialect

import (
	"cxxsema/internal/source"
	"cxxsema/internal/token"
)

type signal struct {
	Dialect Kind
	Score   int
	Reason  string
}

// wordSignals is keyed by spelling: in C mode these are plain identifiers,
// in C++ mode they are keywords, so the lexer records both.
var wordSignals = map[string]signal{
	"class":            {CXX, 4, "`class` keyword"},
	"namespace":        {CXX, 6, "`namespace` keyword"},
	"template":         {CXX, 6, "`template` keyword"},
	"typename":         {CXX, 4, "`typename` keyword"},
	"public":           {CXX, 2, "access specifier"},
	"private":          {CXX, 2, "access specifier"},
	"protected":        {CXX, 2, "access specifier"},
	"virtual":          {CXX, 4, "`virtual` keyword"},
	"operator":         {CXX, 4, "`operator` keyword"},
	"using":            {CXX, 3, "`using` keyword"},
	"nullptr":          {CXX, 3, "`nullptr`"},
	"static_cast":      {CXX, 5, "C++ cast"},
	"dynamic_cast":     {CXX, 5, "C++ cast"},
	"reinterpret_cast": {CXX, 5, "C++ cast"},
	"const_cast":       {CXX, 5, "C++ cast"},
	"constexpr":        {CXX, 4, "`constexpr` keyword"},
	"restrict":         {C, 4, "`restrict` qualifier"},
	"_Bool":            {C, 4, "`_Bool` type"},
	"_Generic":         {C, 5, "`_Generic` selection"},
	"_Static_assert":   {C, 4, "`_Static_assert`"},
	"_Noreturn":        {C, 4, "`_Noreturn`"},
}

// RecordWord collects evidence for an identifier or keyword spelling.
func RecordWord(e *Evidence, word string, span source.Span) {
	if e == nil || word == "" {
		return
	}
	if sig, ok := wordSignals[word]; ok {
		e.Add(Hint{Dialect: sig.Dialect, Score: sig.Score, Reason: sig.Reason, Span: span})
	}
}

// ObserveTokenPair records two-token pattern evidence. The caller feeds
// tokens in source order.
func ObserveTokenPair(e *Evidence, prev, tok token.Token) {
	if e == nil {
		return
	}
	switch {
	case tok.Kind == token.ColonColon:
		e.Add(Hint{Dialect: CXX, Score: 3, Reason: "scope resolution `::`", Span: tok.Span})
	case tok.Kind == token.DotStar || tok.Kind == token.ArrowStar:
		e.Add(Hint{Dialect: CXX, Score: 5, Reason: "pointer-to-member access", Span: tok.Span})
	case (prev.Kind == token.LBrace || prev.Kind == token.Comma) && tok.Kind == token.Dot:
		e.Add(Hint{Dialect: C, Score: 3, Reason: "designated initializer", Span: tok.Span})
	case prev.Kind == token.LParen && tok.Kind == token.KwVoid:
		// "(void)" parameter lists are idiomatic C but legal C++.
		e.Add(Hint{Dialect: C, Score: 1, Reason: "`(void)` parameter list", Span: tok.Span})
	}
}
