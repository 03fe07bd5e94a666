package fuzztests

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
	maxFuzzInput = 1 << 16
)

var sourceExts = map[string]bool{".c": true, ".h": true, ".cc": true, ".cpp": true, ".cxx": true, ".hpp": true}

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	for _, s := range languageSeeds {
		f.Add([]byte(s))
	}
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || !sourceExts[filepath.Ext(path)] {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil || len(src) > maxSeedBytes {
			return nil
		}
		f.Add(bytes.Clone(src))
		return nil
	})
}

// clip copies input and bounds its size; fuzz inputs must not be retained.
func clip(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return bytes.Clone(input)
}

var languageSeeds = []string{
	"",
	"int x;",
	"int main(void) { return 0; }",
	"#define SQ(x) ((x)*(x))\nint y = SQ(3);\n",
	"#define A B\n#define B A\nint A;",
	"#define CAT(a, b) a ## b\nint CAT(fo, o);",
	"struct S { int a; struct S *next; }; struct S s;",
	"enum E { red, green = 3 }; int c = green;",
	"void f() { goto end; end: ; }",
	"typedef int T; T (*fp)(T);",
	"namespace N { int v; } int g() { return N::v; }",
	"template<class T> struct Box { T v; }; Box<int> b;",
	"template<class T> T max2(T a, T b); int m = max2(1, 2);",
	"template<class T, int N> struct A {}; template<class T> struct A<T*, 1> {};",
	"template<int N> struct R { typedef typename R<N+1>::type type; }; R<0>::type x;",
	"struct V { V operator+(const V&) const; }; V a, b; V c = a + b;",
	"struct C { C(int); explicit C(const char*); }; C c(1);",
	"namespace A { int x; } namespace B { int x; } using namespace A; using namespace B; int y = x;",
	"auto x = x + 1;",
	"class { int",
	"int f( { ) } ;",
	"template<> template<> struct",
	"a::b::c<d<e>>::f g;",
	"\"unterminated\nint x = 'c",
	"/* unterminated comment",
	"int été = 1;",
}
