package sema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"cxxsema/internal/ast"
	"cxxsema/internal/symbols"
	"cxxsema/internal/types"
)

const freezeSource = `
namespace geo {
template<class T> struct Vec { T x, y; T dot(const Vec& o) const; };
typedef Vec<double> Vecd;
double length(const Vecd& v);
}
struct Shape { virtual double area() const; int id; };
struct Circle : Shape { double r; double area() const; };
double total(Shape* s, int n) {
	double sum = 0;
	for (int i = 0; i < n; ++i) sum += s[i].area();
	geo::Vecd v;
	sum += v.dot(v) + geo::length(v);
	Circle c;
	c.id = 3;
	return sum + c.r;
}
`

type snapshot struct {
	Bindings []symbols.SymbolID
	Types    []types.TypeID
	Cats     []Category
}

func takeSnapshot(u *Unit, nodes []ast.NodeID) snapshot {
	var s snapshot
	b := u.Builder()
	for _, n := range nodes {
		switch k := b.Kind(n); {
		case k.IsName():
			s.Bindings = append(s.Bindings, u.Resolve(n))
		case k.IsExpr():
			s.Types = append(s.Types, u.ExprType(n))
			s.Cats = append(s.Cats, u.ExprCategory(n))
		}
	}
	return s
}

func allNodes(u *Unit) []ast.NodeID {
	b := u.Builder()
	var out []ast.NodeID
	b.Walk(b.Root, func(id ast.NodeID) bool {
		out = append(out, id)
		return true
	})
	return out
}

func TestFrozenUnitAnswersConcurrently(t *testing.T) {
	u := analyzeClean(t, freezeSource, true)
	u.Freeze()
	u.Freeze()
	nodes := allNodes(u)
	want := takeSnapshot(u, nodes)
	if len(want.Bindings) == 0 || len(want.Types) == 0 {
		t.Fatalf("nothing resolved")
	}

	var g errgroup.Group
	results := make([]snapshot, 8)
	for i := range results {
		i := i
		g.Go(func() error {
			results[i] = takeSnapshot(u, nodes)
			for _, n := range nodes {
				if u.Builder().Kind(n).IsName() {
					u.References(u.Resolve(n))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent queries: %v", err)
	}
	for i, got := range results {
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("reader %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

// rendered spells a snapshot with names, which do not depend on the order
// bindings were created in.
func rendered(u *Unit) []string {
	s := takeSnapshot(u, allNodes(u))
	var out []string
	for _, id := range s.Bindings {
		out = append(out, qualified(u, id))
	}
	for i, t := range s.Types {
		out = append(out, u.Table().TypeString(t)+" "+s.Cats[i].String())
	}
	return out
}

func TestFreezeMatchesLazyResolution(t *testing.T) {
	lazy := analyzeClean(t, freezeSource, true)
	want := rendered(lazy)

	eager := analyzeClean(t, freezeSource, true)
	eager.Freeze()
	got := rendered(eager)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("frozen answers differ from lazy ones (-lazy +frozen):\n%s", diff)
	}
}

func TestVirtualCallThroughSubscript(t *testing.T) {
	u := analyzeClean(t, freezeSource, true)
	u.Freeze()
	decls, refs := namesOf(u, "area")
	if len(decls) != 2 || len(refs) != 1 {
		t.Fatalf("got %d declarations and %d references of area", len(decls), len(refs))
	}
	if got := u.Resolve(refs[0]); got != u.Resolve(decls[0]) {
		t.Fatalf("s[i].area() binds %s, want Shape::area", qualified(u, got))
	}
	if refs := u.References(u.Resolve(decls[0])); len(refs) != 1 {
		t.Fatalf("Shape::area has %d references, want 1", len(refs))
	}
}
