package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersions(t *testing.T) {
	fs := NewFileSet()
	id1 := fs.Add("a.cpp", []byte("int a;"), 0)
	id2 := fs.Add("a.cpp", []byte("int b;"), 0)
	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %d twice", id1)
	}
	latest, ok := fs.GetLatest("a.cpp")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d,%v; want %d,true", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "int a;" {
		t.Fatalf("old version lost: %q", got)
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("x.c", []byte("ab\ncd\n\nef"))
	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}},
		{3, LineCol{2, 1}},
		{6, LineCol{3, 1}},
		{8, LineCol{4, 2}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Fatalf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
		}
		back, ok := fs.Get(id).Offset(start)
		if !ok || back != tt.off {
			t.Fatalf("Offset(%+v) = %d,%v; want %d", start, back, ok, tt.off)
		}
	}
	if line := fs.Get(id).GetLine(2); line != "cd" {
		t.Fatalf("GetLine(2) = %q", line)
	}
}

func TestLoadNormalizesCRLFAndBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.cpp")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFint a;\r\nint b;\r\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "int a;\nint b;\n" {
		t.Fatalf("unexpected content %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags not recorded: %b", f.Flags)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 5}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 8}) {
		t.Fatalf("Cover = %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 100}); got != a {
		t.Fatalf("cross-file Cover changed span: %v", got)
	}
	if !a.Encloses(Span{File: 1, Start: 5, End: 8}) || a.Encloses(b) {
		t.Fatalf("Encloses mismatch")
	}
}

func TestInterner(t *testing.T) {
	in := NewInterner()
	a := in.Intern("foo")
	b := in.Intern("foo")
	if a != b || a == NoStringID {
		t.Fatalf("intern ids: %d %d", a, b)
	}
	if s := in.MustLookup(a); s != "foo" {
		t.Fatalf("lookup: %q", s)
	}
	if _, ok := in.Find("bar"); ok {
		t.Fatalf("Find must not intern")
	}
}
