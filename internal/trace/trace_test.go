package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLevelScopes(t *testing.T) {
	cases := []struct {
		level Level
		want  []bool // driver, pass, unit, node
	}{
		{LevelOff, []bool{false, false, false, false}},
		{LevelError, []bool{true, true, false, false}},
		{LevelPhase, []bool{true, true, false, false}},
		{LevelDetail, []bool{true, true, true, false}},
		{LevelDebug, []bool{true, true, true, true}},
	}
	for _, tc := range cases {
		t.Run(tc.level.String(), func(t *testing.T) {
			var got []bool
			for _, s := range []Scope{ScopeDriver, ScopePass, ScopeUnit, ScopeNode} {
				got = append(got, tc.level.ShouldEmit(s))
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("scopes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseLevelRoundTrip(t *testing.T) {
	for _, l := range []Level{LevelOff, LevelError, LevelPhase, LevelDetail, LevelDebug} {
		got, err := ParseLevel(strings.ToUpper(l.String()))
		if err != nil || got != l {
			t.Fatalf("ParseLevel(%q) = %v, %v", l, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestRingKeepsNewestEvents(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for i := 0; i < 5; i++ {
		Point(r, ScopePass, string(rune('a'+i)), "", 0)
	}
	var names []string
	for _, ev := range r.Snapshot() {
		names = append(names, ev.Name)
	}
	if diff := cmp.Diff([]string{"c", "d", "e"}, names); diff != "" {
		t.Fatalf("ring contents mismatch (-want +got):\n%s", diff)
	}
}

func TestStreamSpans(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeStream, Format: FormatNDJSON, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root := Begin(tr, ScopeDriver, "diag", 0)
	Begin(tr, ScopeUnit, "unit:a.cpp", root.ID()).End("")
	root.WithExtra("files", "1").End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (unit spans filtered):\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], `"detail":"ok"`) || !strings.Contains(lines[1], `"files":"1"`) {
		t.Fatalf("end event lacks detail or extra: %s", lines[1])
	}
}

func TestContextCarriesTracerAndParent(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("empty context should give Nop")
	}
	r := NewRingTracer(8, LevelPhase)
	ctx := WithTracer(context.Background(), r)
	span := Begin(FromContext(ctx), ScopePass, "parse", 0)
	ctx = WithSpan(ctx, span)
	if got := ParentID(ctx); got != span.ID() || got == 0 {
		t.Fatalf("ParentID = %d, want %d", got, span.ID())
	}
	if Ring(NewMultiTracer(LevelPhase, Nop, r)) != r {
		t.Fatalf("Ring does not find the ring inside a multi tracer")
	}
}
