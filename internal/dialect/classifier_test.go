package dialect

import (
	"testing"

	"cxxsema/internal/source"
	"cxxsema/internal/token"
)

func TestClassifyPrefersStrongSignals(t *testing.T) {
	e := NewEvidence()
	RecordWord(e, "namespace", source.Span{})
	RecordWord(e, "template", source.Span{})
	RecordWord(e, "restrict", source.Span{})
	c := Classifier{}.Classify(e)
	if c.Kind != CXX || c.RunnerUp != C {
		t.Fatalf("got %v runner-up %v", c.Kind, c.RunnerUp)
	}
	if Decide(c) != CXX {
		t.Fatalf("expected c++")
	}
}

func TestDecideDefaultsToCXX(t *testing.T) {
	if got := Decide(Classifier{}.Classify(nil)); got != CXX {
		t.Fatalf("empty evidence decided %v", got)
	}
	e := NewEvidence()
	ObserveTokenPair(e, token.Token{Kind: token.LBrace}, token.Token{Kind: token.Dot})
	RecordWord(e, "_Bool", source.Span{})
	if got := Decide(Classifier{}.Classify(e)); got != C {
		t.Fatalf("designated initializer and _Bool decided %v", got)
	}
}

func TestParse(t *testing.T) {
	for in, want := range map[string]Kind{"auto": Unknown, "c": C, "c++": CXX, "cpp": CXX} {
		got, err := Parse(in)
		if err != nil || got != want {
			t.Fatalf("Parse(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := Parse("pascal"); err == nil {
		t.Fatalf("expected error")
	}
}
