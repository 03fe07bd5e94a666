package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"cxxsema/internal/diag"
	"cxxsema/internal/dialect"
	"cxxsema/internal/testkit"
)

func diagnosticsSummary(bag *diag.Bag) string {
	if bag == nil || bag.Len() == 0 {
		return ""
	}
	items := bag.Items()
	lines := make([]string, len(items))
	for i, d := range items {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}

func codes(bag *diag.Bag) []string {
	var out []string
	for _, d := range bag.Items() {
		out = append(out, d.Code.ID())
	}
	return out
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// recorder is a ProgressSink that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) statuses(file string) []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Status
	for _, ev := range r.events {
		if ev.File == file {
			out = append(out, ev.Status)
		}
	}
	return out
}

func TestDiagnoseStopsAtRequestedStage(t *testing.T) {
	src := []byte("template<class T> struct A { T v; }; A<int> a; int f() { return a.v; }")
	ctx := context.Background()
	cases := []struct {
		until                    Stage
		parsed, analyzed, frozen bool
	}{
		{StageLex, false, false, false},
		{StageParse, true, false, false},
		{StageAnalyze, true, true, false},
		{StageFreeze, true, true, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.until), func(t *testing.T) {
			res, err := DiagnoseSource(ctx, "a.cpp", src, Options{Until: tc.until})
			if err != nil {
				t.Fatalf("DiagnoseSource: %v", err)
			}
			if len(res.Lexed.Tokens) == 0 {
				t.Fatalf("no tokens")
			}
			if (res.Builder != nil) != tc.parsed || (res.Unit != nil) != tc.analyzed {
				t.Fatalf("builder=%v unit=%v", res.Builder != nil, res.Unit != nil)
			}
			if tc.frozen && res.Unit.Instantiations().Len() != 1 {
				t.Fatalf("frozen unit has %d instances", res.Unit.Instantiations().Len())
			}
			if tc.parsed {
				if err := testkit.CheckTreeInvariants(res.Builder, res.File); err != nil {
					t.Fatalf("tree: %v", err)
				}
			}
			if res.Bag.HasErrors() {
				t.Fatalf("unexpected errors: %s", diagnosticsSummary(res.Bag))
			}
		})
	}
}

func TestDialectSelection(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		file   string
		forced dialect.Kind
		input  string
		want   dialect.Kind
		hint   bool
	}{
		{"c extension", "x.c", dialect.Unknown, "int x;", dialect.C, false},
		{"cpp extension", "x.cpp", dialect.Unknown, "int x;", dialect.CXX, false},
		{"forced", "x.c", dialect.CXX, "int x;", dialect.CXX, false},
		{"c header", "x.h", dialect.Unknown, "struct P { int x; }; _Bool ok(struct P *p) { return (struct P){ .x = 1 }.x; }", dialect.C, true},
		{"c++ header", "x.h", dialect.Unknown, "namespace n { template<class T> class V {}; }", dialect.CXX, true},
		{"empty header", "x.h", dialect.Unknown, "", dialect.CXX, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := DiagnoseSource(ctx, tc.file, []byte(tc.input), Options{Dialect: tc.forced, Until: StageLex})
			if err != nil {
				t.Fatal(err)
			}
			if res.Dialect != tc.want {
				t.Fatalf("dialect = %s, want %s", res.Dialect, tc.want)
			}
			if got := res.Bag.Count(diag.ProjDialectHint) > 0; got != tc.hint {
				t.Fatalf("dialect hint reported = %v: %s", got, diagnosticsSummary(res.Bag))
			}
		})
	}
}

func TestCFileThatLooksLikeCXXWarns(t *testing.T) {
	src := "namespace n { template<class T> class V { public: virtual void f(); }; }"
	res, err := DiagnoseSource(context.Background(), "odd.c", []byte(src), Options{Until: StageLex})
	if err != nil {
		t.Fatal(err)
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.ProjDialectHint || items[0].Severity != diag.SevWarning {
		t.Fatalf("expected one dialect warning, got %s", diagnosticsSummary(res.Bag))
	}
	if len(items[0].Notes) == 0 || len(items[0].Notes) > 3 {
		t.Fatalf("warning carries %d notes", len(items[0].Notes))
	}
}

func TestSeverityPolicy(t *testing.T) {
	src := []byte("namespace n { template<class T> class V { public: virtual void f(); }; }")
	ctx := context.Background()

	res, err := DiagnoseSource(ctx, "odd.c", src, Options{Until: StageLex, WarningsAsErrors: true})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Bag.HasErrors() {
		t.Fatalf("warning was not promoted: %s", diagnosticsSummary(res.Bag))
	}

	res, err = DiagnoseSource(ctx, "odd.c", src, Options{Until: StageLex, IgnoreWarnings: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.Len() != 0 {
		t.Fatalf("warnings kept: %s", diagnosticsSummary(res.Bag))
	}
}

func TestSemanticDiagnosticsReachTheBag(t *testing.T) {
	src := []byte("void f(long); void f(double);\nvoid g() { f(1); missing(); }\n")
	res, err := DiagnoseSource(context.Background(), "bad.cpp", src, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, code := range []diag.Code{diag.SemaAmbiguousOverload, diag.SemaNameNotFound} {
		if res.Bag.Count(code) == 0 {
			t.Fatalf("missing %s: %s", code.ID(), diagnosticsSummary(res.Bag))
		}
	}
	if got := codes(res.Bag); got[0] != diag.SemaAmbiguousOverload.ID() {
		t.Fatalf("diagnostics not in source order: %v", got)
	}
}

func TestDefaultStageReportsLookupErrors(t *testing.T) {
	src := []byte("int f() { return missing; }")
	res, err := DiagnoseSource(context.Background(), "m.cpp", src, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.Count(diag.SemaNameNotFound) == 0 || !res.Bag.HasErrors() {
		t.Fatalf("default stage missed the lookup error: %s", diagnosticsSummary(res.Bag))
	}

	partial, err := DiagnoseSource(context.Background(), "m.cpp", src, Options{Until: StageAnalyze})
	if err != nil {
		t.Fatal(err)
	}
	if partial.Bag.Count(diag.SemaNameNotFound) != 0 {
		t.Fatalf("analyze stage resolved names eagerly")
	}
}

func TestTimingsDiagnostic(t *testing.T) {
	res, err := DiagnoseSource(context.Background(), "t.c", []byte("int x;"), Options{EnableTimings: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Timing == nil || len(res.Timing.Phases) != 4 {
		t.Fatalf("timing report = %+v", res.Timing)
	}
	if res.Bag.Count(diag.ObsTimings) != 1 {
		t.Fatalf("missing timings diagnostic: %s", diagnosticsSummary(res.Bag))
	}
}

func TestDiagnoseReportsLoadErrors(t *testing.T) {
	_, err := Diagnose(context.Background(), filepath.Join(t.TempDir(), "absent.c"), Options{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Diagnose error = %v", err)
	}
}

func TestDiagnoseHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DiagnoseSource(ctx, "c.c", []byte("int x;"), Options{}); err == nil {
		t.Fatalf("canceled context accepted")
	}
}
