package ui

import (
	"strings"
	"testing"

	"cxxsema/internal/driver"
)

func TestApplyEventTracksFiles(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("diag src", []string{"a.c", "b.cpp"}, events).(*progressModel)

	m.applyEvent(driver.Event{File: "a.c", Stage: driver.StageParse, Status: driver.StatusWorking})
	if got := m.items[0].status; got != "parsing" {
		t.Fatalf("a.c status = %q", got)
	}
	m.applyEvent(driver.Event{File: "a.c", Stage: driver.StageAnalyze, Status: driver.StatusDone})
	m.applyEvent(driver.Event{File: "unknown.c", Status: driver.StatusError})
	if got := m.fraction(); got != 0.5 {
		t.Fatalf("fraction = %v, want 0.5", got)
	}
	m.applyEvent(driver.Event{File: "b.cpp", Status: driver.StatusCached})
	if got := m.fraction(); got != 1 {
		t.Fatalf("fraction = %v, want 1", got)
	}

	view := m.View()
	for _, want := range []string{"a.c", "b.cpp", "cached", "diag src"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestTruncateUsesDisplayWidth(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"short.c", 20, "short.c"},
		{"very/long/path/to/file.cpp", 10, "very/lo..."},
		{"日本語.c", 5, "日..."},
		{"abc", 2, "ab"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.width); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}
