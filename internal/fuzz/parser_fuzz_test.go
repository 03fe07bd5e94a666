package fuzztests

import (
	"context"
	"testing"
	"time"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/driver"
	"cxxsema/internal/lexer"
	"cxxsema/internal/parser"
	"cxxsema/internal/source"
	"cxxsema/internal/testkit"
)

// parseTimeout is the maximum time allowed for one input. Longer runs
// point at a loop in error recovery or lookup.
const parseTimeout = 5 * time.Second

func FuzzParserBuildsAST(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.cpp", clip(input)))

		bag := diag.NewBag(128)
		rep := diag.BagReporter{Bag: bag}
		lexed := lexer.Tokenize(file, lexer.Options{Reporter: rep, CXX: true})
		b := ast.NewBuilder(lexed.Tokens, lexed.Expansions, ast.Hints{})
		parser.ParseFile(b, parser.Options{Reporter: rep, CXX: true, MaxNesting: 256})
		if err := testkit.CheckTreeInvariants(b, file); err != nil {
			t.Fatalf("tree invariant broken: %v\ninput: %q", err, truncateForLog(input, 200))
		}
	})
}

// FuzzAnalyzeNoHang runs the whole pipeline, freeze included, under a
// timeout.
func FuzzAnalyzeNoHang(f *testing.F) {
	addCorpusSeeds(f)
	f.Add([]byte("template<class T> struct S : S<T*> {}; S<int> s;"))
	f.Add([]byte("struct A { A(B); }; struct B { B(A); }; void f(A); void g(B b) { f(b); }"))
	f.Add([]byte("namespace N { using namespace M; } namespace M { using namespace N; } int y = N::z;"))

	f.Fuzz(func(t *testing.T, input []byte) {
		ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
		defer cancel()

		content := clip(input)
		done := make(chan struct{})
		go func() {
			defer close(done)
			opts := driver.Options{Until: driver.StageFreeze, MaxDiagnostics: 128, MaxNesting: 256, MaxInstantiationDepth: 64}
			_, _ = driver.DiagnoseSource(context.Background(), "fuzz.cpp", content, opts)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			t.Fatalf("analysis hang detected after %v\ninput (%d bytes): %q",
				parseTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(append([]byte(nil), input[:maxLen]...), "..."...)
}
