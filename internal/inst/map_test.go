package inst

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"cxxsema/internal/source"
	"cxxsema/internal/symbols"
	"cxxsema/internal/types"
)

func TestMapMemoizesByCanonicalArgs(t *testing.T) {
	in := types.NewInterner()
	m := NewMap()
	tmpl := symbols.SymbolID(3)
	one := []types.TemplateArg{types.TypeArg(in.Builtins().Int), types.ValueArg(1)}
	m.Record(KindClass, tmpl, one, 10, source.Span{}, symbols.NoSymbolID)

	same := []types.TemplateArg{types.TypeArg(in.Builtins().Int), types.ValueArg(2 - 1)}
	if got, ok := m.Lookup(tmpl, same); !ok || got != 10 {
		t.Fatalf("equivalent arguments must hit the memo, got %d %v", got, ok)
	}
	other := []types.TemplateArg{types.TypeArg(in.Builtins().Int), types.ValueArg(2)}
	if _, ok := m.Lookup(tmpl, other); ok {
		t.Fatalf("different arguments must miss")
	}
	if _, ok := m.Lookup(tmpl+1, one); ok {
		t.Fatalf("another template must miss")
	}
}

func TestMapRecordsUseSitesInOrder(t *testing.T) {
	in := types.NewInterner()
	m := NewMap()
	a := []types.TemplateArg{types.TypeArg(in.Builtins().Int)}
	b := []types.TemplateArg{types.TypeArg(in.Builtins().Char)}
	site := source.Span{File: 1, Start: 4, End: 9}
	m.Record(KindClass, 1, a, 5, site, 2)
	m.Record(KindClass, 1, a, 5, site, 2)
	m.Record(KindFunction, 7, b, 6, source.Span{}, 0)

	var got []symbols.SymbolID
	for _, e := range m.Entries() {
		got = append(got, e.Instance)
	}
	if diff := cmp.Diff([]symbols.SymbolID{5, 6}, got); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
	if n := len(m.Entries()[0].UseSites); n != 1 {
		t.Fatalf("duplicate use site recorded %d times", n)
	}
}

func TestMapPanicsOnConflictingInstance(t *testing.T) {
	m := NewMap()
	args := []types.TemplateArg{types.ValueArg(4)}
	m.Record(KindClass, 1, args, 5, source.Span{}, 0)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic")
		}
	}()
	m.Record(KindClass, 1, args, 6, source.Span{}, 0)
}

func TestStackDepthGuard(t *testing.T) {
	s := NewStack(2)
	if !s.Push(Frame{Template: 1, Key: "a"}) || !s.Push(Frame{Template: 1, Key: "b"}) {
		t.Fatalf("pushes under the limit must succeed")
	}
	if s.Push(Frame{Template: 1, Key: "c"}) {
		t.Fatalf("push over the limit must fail")
	}
	if s.Depth() != 2 || !s.Active(1, "a") || s.Active(1, "c") {
		t.Fatalf("unexpected stack state: %+v", s.Frames())
	}
	s.Pop()
	s.Pop()
	s.Pop()
	if s.Depth() != 0 {
		t.Fatalf("pop must empty the stack")
	}
	if NewStack(0).Max != DefaultMaxDepth {
		t.Fatalf("zero selects the default limit")
	}
}
