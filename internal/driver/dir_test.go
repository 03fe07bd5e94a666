package driver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cxxsema/internal/diag"
	"cxxsema/internal/dialect"
)

func TestListSourcesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.cpp", "a.c", "notes.txt", "inc/x.h", ".git/hook.c"} {
		writeSource(t, dir, name, "")
	}
	got, err := ListSources(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.ToSlash(filepath.Join(dir, "a.c")),
		filepath.ToSlash(filepath.Join(dir, "b.cpp")),
		filepath.ToSlash(filepath.Join(dir, "inc", "x.h")),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}
}

func TestDiagnoseDirRunsEveryUnit(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "ok.c", "struct S { int x; }; int f(struct S s) { return s.x; }\n")
	writeSource(t, dir, "bad.cpp", "int g() { return nope; }\n")
	writeSource(t, dir, "tmpl.cc", "template<class T> T id(T v); int h() { return id(1); }\n")

	rec := &recorder{}
	res, err := DiagnoseDir(context.Background(), dir, Options{Jobs: 2, Progress: rec, Until: StageFreeze})
	if err != nil {
		t.Fatalf("DiagnoseDir: %v", err)
	}
	if len(res.Files) != 3 {
		t.Fatalf("got %d results", len(res.Files))
	}
	byName := map[string]*Result{}
	for _, f := range res.Files {
		byName[filepath.Base(f.Path)] = f
	}
	if got := byName["ok.c"]; got.Dialect != dialect.C || got.Bag.HasErrors() {
		t.Fatalf("ok.c: dialect %s, %s", got.Dialect, diagnosticsSummary(got.Bag))
	}
	if got := byName["bad.cpp"]; got.Bag.Count(diag.SemaNameNotFound) != 1 {
		t.Fatalf("bad.cpp: %s", diagnosticsSummary(got.Bag))
	}
	if got := byName["tmpl.cc"]; got.Unit == nil || got.Unit.Instantiations().Len() == 0 {
		t.Fatalf("tmpl.cc was not analysed and frozen")
	}
	if !res.HasErrors() {
		t.Fatalf("HasErrors missed bad.cpp")
	}

	bad := byName["bad.cpp"].Path
	want := []Status{StatusQueued, StatusWorking, StatusWorking, StatusWorking, StatusWorking, StatusError}
	if diff := cmp.Diff(want, rec.statuses(bad)); diff != "" {
		t.Fatalf("progress for bad.cpp (-want +got):\n%s", diff)
	}
	if last := rec.events[len(rec.events)-1]; last.File != "" || last.Status != StatusDone {
		t.Fatalf("run did not end with a done event: %+v", last)
	}
}

func TestDiagnoseDirAggregatesTimings(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.c", "int a;")
	writeSource(t, dir, "b.c", "int b;")
	res, err := DiagnoseDir(context.Background(), dir, Options{EnableTimings: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Timing == nil {
		t.Fatalf("no aggregate timing")
	}
	for _, p := range res.Timing.Phases {
		if p.Count != 2 {
			t.Fatalf("phase %s counted %d files", p.Name, p.Count)
		}
	}
}

func TestDiagnoseDirEmpty(t *testing.T) {
	res, err := DiagnoseDir(context.Background(), t.TempDir(), Options{})
	if err != nil || len(res.Files) != 0 {
		t.Fatalf("empty dir: %v, %d files", err, len(res.Files))
	}
}
