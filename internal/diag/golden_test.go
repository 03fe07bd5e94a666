package diag

import (
	"testing"

	"cxxsema/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("sample.cpp", []byte("a\nb\n"))

	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     SemaAmbiguousName,
			Message:  "another",
			Primary:  source.Span{File: file, Start: 2, End: 3},
		},
		{
			Severity: SevError,
			Code:     SynProblem,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: file, Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{File: file, Start: 2, End: 3}, Msg: "note line"},
			},
		},
	}

	expected := "error SYN2001 sample.cpp:1:1 first line second\n" +
		"note SYN2001 sample.cpp:2:1 note line\n" +
		"warning SEM3002 sample.cpp:2:1 another"

	if got := FormatGoldenDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestBagLimitAndDedup(t *testing.T) {
	bag := NewBag(2)
	r := BagReporter{Bag: bag}
	sp := source.Span{File: 0, Start: 1, End: 2}
	ReportError(r, SemaNameNotFound, sp, "x").Emit()
	ReportError(r, SemaNameNotFound, sp, "x").Emit()
	if bag.Add(NewError(SynProblem, sp, "over")) {
		t.Fatalf("bag accepted a diagnostic past its limit")
	}
	bag.Dedup()
	if bag.Len() != 1 || !bag.HasErrors() {
		t.Fatalf("expected one error after dedup, got %d", bag.Len())
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(0)
	b := ReportWarning(BagReporter{Bag: bag}, ProjDialectHint, source.Span{}, "looks like C++").
		WithNote(source.Span{Start: 3, End: 4}, "class keyword")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("builder emitted %d times", bag.Len())
	}
	if got := bag.Items()[0]; len(got.Notes) != 1 || got.Code.ID() != "PRJ5002" {
		t.Fatalf("unexpected diagnostic %+v", got)
	}
}

func TestBagFilterAndTransform(t *testing.T) {
	bag := NewBag(0)
	bag.Add(New(SevInfo, ObsTimings, source.Span{}, "timings"))
	bag.Add(New(SevWarning, ProjDialectHint, source.Span{}, "hint"))
	bag.Add(NewError(SemaNameNotFound, source.Span{}, "missing"))

	bag.Filter(func(d *Diagnostic) bool { return d.Severity != SevInfo })
	if bag.Len() != 2 || bag.Count(ObsTimings) != 0 {
		t.Fatalf("filter kept %d diagnostics", bag.Len())
	}
	bag.Transform(func(d *Diagnostic) {
		if d.Severity == SevWarning {
			d.Severity = SevError
		}
	})
	for _, d := range bag.Items() {
		if d.Severity != SevError {
			t.Fatalf("%s still has severity %s", d.Code.ID(), d.Severity)
		}
	}
}
