package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cxxsema/internal/diag"
	"cxxsema/internal/source"
)

func missingNameBag(t *testing.T) (*diag.Bag, *source.FileSet, source.FileID) {
	t.Helper()
	fs := source.NewFileSet()
	fs.SetBaseDir("/home/user/project")
	id := fs.AddVirtual("/home/user/project/src/use.c", []byte("int y;\nint x = missing;\n"))
	bag := diag.NewBag(10)
	d := diag.NewError(diag.SemaNameNotFound, source.Span{File: id, Start: 15, End: 22}, "name 'missing' not found")
	bag.Add(d.WithNote(source.Span{File: id, Start: 4, End: 5}, "did you mean 'y'?"))
	return bag, fs, id
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	bag, fs, _ := missingNameBag(t)
	tests := []struct {
		name string
		mode PathMode
		want string
	}{
		{name: "absolute", mode: PathModeAbsolute, want: "/home/user/project/src/use.c:2:9:"},
		{name: "relative", mode: PathModeRelative, want: "src/use.c:2:9:"},
		{name: "basename", mode: PathModeBasename, want: "use.c:2:9:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode}); err != nil {
				t.Fatalf("Pretty: %v", err)
			}
			if !strings.HasPrefix(buf.String(), tt.want) {
				t.Fatalf("output %q does not start with %q", buf.String(), tt.want)
			}
		})
	}
}

func TestPrettySnippetAndNotes(t *testing.T) {
	bag, fs, _ := missingNameBag(t)
	var buf bytes.Buffer
	opts := PrettyOpts{PathMode: PathModeBasename, Context: 1, ShowNotes: true}
	if err := Pretty(&buf, bag, fs, opts); err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	want := strings.Join([]string{
		"use.c:2:9: ERROR SEM3001: name 'missing' not found",
		"1 | int y;",
		"2 | int x = missing;",
		"  |         ^~~~~~~",
		"  note: use.c:1:5: did you mean 'y'?",
		"1 | int y;",
		"  |     ^",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("pretty output mismatch (-want +got):\n%s", diff)
	}
}

func TestPrettyExpandsTabs(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("tab.c", []byte("\tfoo;\n"))
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.SemaNameNotFound, source.Span{File: id, Start: 1, End: 4}, "unknown"))

	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{TabWidth: 4}); err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 3 {
		t.Fatalf("short output %q", buf.String())
	}
	if got, want := lines[1], "1 |     foo;"; got != want {
		t.Fatalf("source line %q, want %q", got, want)
	}
	if got, want := lines[2], "  |     ^~~"; got != want {
		t.Fatalf("underline %q, want %q", got, want)
	}
}

func TestPrettyColor(t *testing.T) {
	bag, fs, _ := missingNameBag(t)
	var plain, colored bytes.Buffer
	if err := Pretty(&plain, bag, fs, PrettyOpts{}); err != nil {
		t.Fatal(err)
	}
	if err := Pretty(&colored, bag, fs, PrettyOpts{Color: true}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatalf("escape codes with color disabled: %q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatalf("no escape codes with color enabled")
	}
}

func TestPrettyFixes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("fix.c", []byte("int x = 1\n"))
	bag := diag.NewBag(1)
	d := diag.NewError(diag.SynProblem, source.Span{File: id, Start: 9, End: 9}, "expected ';'")
	bag.Add(d.WithFix("insert ';'", diag.FixEdit{Span: source.Span{File: id, Start: 9, End: 9}, NewText: ";"}))

	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{ShowFixes: true, PathMode: PathModeBasename}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "  fix: insert ';'\n    fix.c:1:10: replace with \";\"\n") {
		t.Fatalf("fix not rendered:\n%s", buf.String())
	}
}

func TestShortAndSummary(t *testing.T) {
	bag, fs, id := missingNameBag(t)
	bag.Add(diag.New(diag.SevWarning, diag.ProjDialectHint, source.Span{File: id}, "looks like C++"))
	bag.Sort()

	var buf bytes.Buffer
	if err := Short(&buf, bag, fs); err != nil {
		t.Fatal(err)
	}
	// virtual files keep the path they were added with
	want := "warning PRJ5002 /home/user/project/src/use.c:1:1 looks like C++\n" +
		"error SEM3001 /home/user/project/src/use.c:2:9 name 'missing' not found\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("short output mismatch (-want +got):\n%s", diff)
	}
	if got := Summary(bag, nil); got != "1 error, 1 warning" {
		t.Fatalf("Summary = %q", got)
	}
	if got := Summary(diag.NewBag(1)); got != "0 errors, 0 warnings" {
		t.Fatalf("Summary of empty bag = %q", got)
	}
}
