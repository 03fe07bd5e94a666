package driver

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cxxsema/internal/diag"
)

func TestDiskCacheRoundTripsDiagnostics(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	src := []byte("void f(long); void f(double);\nvoid g() { f(1); }\n")
	opts := Options{Cache: cache}

	first, err := DiagnoseSource(ctx, "c.cpp", src, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || first.Bag.Len() == 0 {
		t.Fatalf("first run cached=%v with %d diagnostics", first.Cached, first.Bag.Len())
	}

	second, err := DiagnoseSource(ctx, "c.cpp", src, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || second.Unit != nil {
		t.Fatalf("second run was not served from the cache")
	}
	golden := func(r *Result) string {
		return diag.FormatGoldenDiagnostics(r.Bag.Items(), r.FileSet, true)
	}
	if diff := cmp.Diff(golden(first), golden(second)); diff != "" {
		t.Fatalf("cached diagnostics differ (-fresh +cached):\n%s", diff)
	}

	other, err := DiagnoseSource(ctx, "c.cpp", src, Options{Cache: cache, MaxDiagnostics: 1})
	if err != nil {
		t.Fatal(err)
	}
	if other.Cached {
		t.Fatalf("different options hit the same entry")
	}
}

func TestDiskCacheKeepsFixes(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	src := []byte("int a = 1\nint b;\n")
	fixes := func(r *Result) []diag.Fix {
		var out []diag.Fix
		for _, d := range r.Bag.Items() {
			out = append(out, d.Fixes...)
		}
		return out
	}
	first, err := DiagnoseSource(ctx, "s.cpp", src, Options{Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	if len(fixes(first)) == 0 {
		t.Fatalf("missing ';' offered no fix: %s", diagnosticsSummary(first.Bag))
	}
	second, err := DiagnoseSource(ctx, "s.cpp", src, Options{Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Fatalf("second run was not served from the cache")
	}
	if diff := cmp.Diff(fixes(first), fixes(second)); diff != "" {
		t.Fatalf("cached fixes differ (-fresh +cached):\n%s", diff)
	}
}

func TestDiskCacheDropAll(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var key cacheKey
	key[0] = 0xab
	if err := cache.Put(key, &DiskPayload{Schema: diskCacheSchemaVersion, Path: "x.c"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	var got DiskPayload
	if ok, err := cache.Get(key, &got); !ok || err != nil || got.Path != "x.c" {
		t.Fatalf("Get = %v, %v, %+v", ok, err, got)
	}
	if err := cache.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if ok, err := cache.Get(key, &got); ok || err != nil {
		t.Fatalf("entry survived DropAll: %v, %v", ok, err)
	}
}
