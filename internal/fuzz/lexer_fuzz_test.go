package fuzztests

import (
	"testing"

	"cxxsema/internal/diag"
	"cxxsema/internal/dialect"
	"cxxsema/internal/lexer"
	"cxxsema/internal/source"
	"cxxsema/internal/token"
)

func FuzzLexerTokens(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.cpp", clip(input)))

		for _, cxx := range []bool{false, true} {
			bag := diag.NewBag(64)
			res := lexer.Tokenize(file, lexer.Options{
				Reporter: diag.BagReporter{Bag: bag},
				CXX:      cxx,
				Evidence: dialect.NewEvidence(),
			})
			if n := len(res.Tokens); n == 0 || res.Tokens[n-1].Kind != token.EOF {
				t.Fatalf("token stream does not end with EOF")
			}
			size := uint32(len(file.Content))
			for i, tok := range res.Tokens {
				if tok.Span.Start > tok.Span.End || tok.Span.End > size {
					t.Fatalf("token %d span %d..%d outside %d bytes", i, tok.Span.Start, tok.Span.End, size)
				}
				if int(tok.Expansion) >= len(res.Expansions) && tok.Expansion != token.NoExpansion {
					t.Fatalf("token %d refers to unknown expansion %d", i, tok.Expansion)
				}
			}
		}
	})
}
