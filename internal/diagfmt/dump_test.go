package diagfmt

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"cxxsema/internal/driver"
)

func analyze(t *testing.T, name, src string) *driver.Result {
	t.Helper()
	res, err := driver.DiagnoseSource(context.Background(), name, []byte(src), driver.Options{})
	if err != nil {
		t.Fatalf("DiagnoseSource: %v", err)
	}
	if res.Unit == nil {
		t.Fatalf("no unit for %s", name)
	}
	return res
}

func mustContain(t *testing.T, out string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(out, p) {
			t.Fatalf("output lacks %q:\n%s", p, out)
		}
	}
}

func TestFormatTokens(t *testing.T) {
	res := analyze(t, "m.c", "#define ONE 1\nint x = ONE;\n")

	var pretty bytes.Buffer
	if err := FormatTokensPretty(&pretty, res.Lexed, res.FileSet); err != nil {
		t.Fatal(err)
	}
	mustContain(t, pretty.String(), `"int"`, "at 2:1-2:4", "[macro ONE]", "EOF")

	var js bytes.Buffer
	if err := FormatTokensJSON(&js, res.Lexed); err != nil {
		t.Fatal(err)
	}
	var toks []TokenOutput
	if err := json.Unmarshal(js.Bytes(), &toks); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	var fromMacro int
	for _, tok := range toks {
		if tok.Macro == "ONE" {
			fromMacro++
		}
	}
	if fromMacro != 1 {
		t.Fatalf("%d tokens attributed to ONE, want 1", fromMacro)
	}
	if last := toks[len(toks)-1]; last.Kind != "EOF" {
		t.Fatalf("last token %s", last.Kind)
	}
}

func TestFormatASTTree(t *testing.T) {
	res := analyze(t, "a.c", "int x = 1;\nint y;\n")
	var buf bytes.Buffer
	if err := FormatASTTree(&buf, res.Builder, res.FileSet); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "TranslationUnit @") {
		t.Fatalf("tree does not start at the root:\n%s", out)
	}
	mustContain(t, out, "├─ SimpleDecl", "└─ SimpleDecl", `"x"`, `"y"`, "Literal 1")

	buf.Reset()
	if err := FormatASTTree(&buf, nil, res.FileSet); err != nil || buf.String() != "<empty>\n" {
		t.Fatalf("nil builder printed %q, %v", buf.String(), err)
	}
}

func TestFormatBindings(t *testing.T) {
	res := analyze(t, "b.cpp", "namespace N { int v; }\nint g() { return N::v + missing; }\n")
	var buf bytes.Buffer
	if err := FormatBindings(&buf, res.Unit, res.FileSet, BindingOpts{PathMode: PathModeBasename, Exprs: true}); err != nil {
		t.Fatal(err)
	}
	mustContain(t, buf.String(),
		"b.cpp:1:19 ",
		"ref N::v -> N::v (variable)",
		"ref missing -> problem(name not found)",
		" : int lvalue\n",
	)
}

func TestFormatInstantiations(t *testing.T) {
	res := analyze(t, "i.cpp", "template<class T> struct Box { T v; };\nBox<int> a;\nBox<int> b;\nBox<char> c;\n")
	var buf bytes.Buffer
	if err := FormatInstantiations(&buf, res.Unit, res.FileSet, PathModeBasename); err != nil {
		t.Fatal(err)
	}
	mustContain(t, buf.String(),
		"2 instantiations\n",
		"class Box<int> -> Box<int> (class)",
		"  at i.cpp:2:",
		"class Box<char>",
	)
}
