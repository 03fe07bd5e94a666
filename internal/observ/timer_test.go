package observ

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func TestTimerAccumulatesByName(t *testing.T) {
	tm := NewTimer()
	var g errgroup.Group
	for n := 0; n < 4; n++ {
		g.Go(func() error {
			tm.Track("lex", func() {})
			tm.Track("parse", func() {})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("got %d phases, want 2", len(r.Phases))
	}
	for _, p := range r.Phases {
		if p.Count != 4 {
			t.Fatalf("%s counted %d times", p.Name, p.Count)
		}
	}
	if !strings.Contains(tm.Summary(), "x4") {
		t.Fatalf("summary lacks counts:\n%s", tm.Summary())
	}
}

func TestTimerEndIgnoresUnknownHandle(t *testing.T) {
	tm := NewTimer()
	tm.End(3, time.Now(), "ghost")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("unexpected phases: %+v", r.Phases)
	}
	var nilTimer *Timer
	nilTimer.End(nilTimer.Begin("x"), time.Now(), "")
}
