package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cxxsema/internal/diag"
	"cxxsema/internal/source"
)

func decodeOutput(t *testing.T, data []byte) DiagnosticsOutput {
	t.Helper()
	var out DiagnosticsOutput
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, data)
	}
	return out
}

func TestJSONBasic(t *testing.T) {
	bag, fs, _ := missingNameBag(t)
	var buf bytes.Buffer
	opts := JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true}
	if err := JSON(&buf, bag, fs, opts); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	got := decodeOutput(t, buf.Bytes())
	want := DiagnosticsOutput{
		Count: 1,
		Diagnostics: []DiagnosticJSON{{
			Severity: "ERROR",
			Code:     "SEM3001",
			Message:  "name 'missing' not found",
			Location: LocationJSON{File: "use.c", StartByte: 15, EndByte: 22, StartLine: 2, StartCol: 9, EndLine: 2, EndCol: 16},
			Notes: []NoteJSON{{
				Message:  "did you mean 'y'?",
				Location: LocationJSON{File: "use.c", StartByte: 4, EndByte: 5, StartLine: 1, StartCol: 5, EndLine: 1, EndCol: 6},
			}},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("JSON mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONWithoutPositionsOrNotes(t *testing.T) {
	bag, fs, _ := missingNameBag(t)
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{PathMode: PathModeBasename})
	d := out.Diagnostics[0]
	if d.Location.StartLine != 0 || d.Location.StartCol != 0 {
		t.Fatalf("positions included: %+v", d.Location)
	}
	if len(d.Notes) != 0 {
		t.Fatalf("notes included: %+v", d.Notes)
	}
}

func TestJSONMaxTruncates(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("many.c", []byte("a b c d e"))
	bag := diag.NewBag(10)
	for i := uint32(0); i < 5; i++ {
		bag.Add(diag.NewError(diag.LexUnknownChar, source.Span{File: id, Start: i * 2, End: i*2 + 1}, "unexpected"))
	}
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 2})
	if out.Count != 2 || len(out.Diagnostics) != 2 || !out.Truncated {
		t.Fatalf("count=%d len=%d truncated=%v", out.Count, len(out.Diagnostics), out.Truncated)
	}
	if out := BuildDiagnosticsOutput(bag, fs, JSONOpts{}); out.Count != 5 || out.Truncated {
		t.Fatalf("unlimited output truncated: %+v", out)
	}
}

func TestJSONTimingsKeepNotes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.c", []byte("int x;"))
	bag := diag.NewBag(2)
	bag.Add(diag.New(diag.SevInfo, diag.ObsTimings, source.Span{File: id}, "timings").
		WithNote(source.Span{File: id}, `{"total_ms":1}`))
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{})
	if len(out.Diagnostics[0].Notes) != 1 {
		t.Fatalf("timing payload dropped")
	}
}

func TestJSONFixesWithPreview(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("fix.c", []byte("int x = 1\nint y;\n"))
	bag := diag.NewBag(1)
	edit := diag.FixEdit{Span: source.Span{File: id, Start: 8, End: 9}, NewText: "2;"}
	bag.Add(diag.NewError(diag.SynProblem, source.Span{File: id, Start: 9, End: 9}, "expected ';'").
		WithFix("terminate declaration", edit))

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{IncludeFixes: true, IncludePreviews: true})
	fixes := out.Diagnostics[0].Fixes
	if len(fixes) != 1 || len(fixes[0].Edits) != 1 {
		t.Fatalf("fixes = %+v", fixes)
	}
	got := fixes[0].Edits[0]
	if got.OldText != "1" || got.NewText != "2;" {
		t.Fatalf("edit texts %q -> %q", got.OldText, got.NewText)
	}
	if diff := cmp.Diff([]string{"int x = 1"}, got.BeforeLines); diff != "" {
		t.Fatalf("before lines (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"int x = 2;"}, got.AfterLines); diff != "" {
		t.Fatalf("after lines (-want +got):\n%s", diff)
	}

	if out := BuildDiagnosticsOutput(bag, fs, JSONOpts{}); len(out.Diagnostics[0].Fixes) != 0 {
		t.Fatalf("fixes included without IncludeFixes")
	}
}

func TestFixPreviewRejectsBadSpan(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("x.c", []byte("abc"))
	if _, err := buildFixEditPreview(fs, diag.FixEdit{Span: source.Span{File: id, Start: 2, End: 9}}); err == nil {
		t.Fatalf("span past the end accepted")
	}
	if _, err := buildFixEditPreview(nil, diag.FixEdit{}); err == nil {
		t.Fatalf("nil file set accepted")
	}
}
