package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cxxsema/internal/dialect"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestFindConfigWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigName), "[analysis]\ndialect = \"c\"\n")
	src := filepath.Join(root, "src", "deep", "main.c")
	writeFile(t, src, "int main(void) { return 0; }\n")

	got, err := FindConfig(src)
	if err != nil {
		t.Fatalf("FindConfig: %v", err)
	}
	if want := filepath.Join(root, ConfigName); got != want {
		t.Fatalf("FindConfig = %q, want %q", got, want)
	}

	cfg, err := Discover(filepath.Dir(src))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg.DialectKind() != dialect.C {
		t.Fatalf("dialect = %s, want c", cfg.DialectKind())
	}
	if cfg.Analysis.MaxNesting != 4096 {
		t.Fatalf("absent key lost its default: %d", cfg.Analysis.MaxNesting)
	}
}

func TestDiscoverWithoutConfig(t *testing.T) {
	cfg, err := Discover(t.TempDir())
	if !errors.Is(err, ErrNoConfig) {
		// a cxxsema.toml above the temp dir would be picked up here
		t.Skipf("config found above temp dir: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigName)
	writeFile(t, path, `
[analysis]
dialect = "c++"
max_diagnostics = 5

[driver]
jobs = 2
disk_cache = true
extensions = [".cpp", ".hpp"]
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := Default()
	want.Path = path
	want.Analysis.Dialect = "c++"
	want.Analysis.MaxDiagnostics = 5
	want.Driver = DriverConfig{Jobs: 2, DiskCache: true, Extensions: []string{".cpp", ".hpp"}}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if !cfg.Accepts("a/b.cpp") || cfg.Accepts("a/b.c") {
		t.Fatalf("extension filter ignores [driver] extensions")
	}
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"unknown dialect", "[analysis]\ndialect = \"fortran\"\n"},
		{"negative jobs", "[driver]\njobs = -1\n"},
		{"unknown key", "[analysis]\nmax_depth = 3\n"},
		{"extension without dot", "[driver]\nextensions = [\"c\"]\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigName)
			writeFile(t, path, tc.content)
			if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("LoadConfig error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	path := filepath.Join(t.TempDir(), ConfigName)
	writeFile(t, path, "[analysis\n")
	if _, err := LoadConfig(path); err == nil || errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("syntax error reported as %v", err)
	}
}

func TestCombineDependsOnParts(t *testing.T) {
	var content Digest
	content[0] = 1
	a := Combine(content, []byte("c"), []byte("100"))
	b := Combine(content, []byte("c++"), []byte("100"))
	if a == b || a.IsZero() {
		t.Fatalf("digests collide")
	}
	if a != Combine(content, []byte("c"), []byte("100")) {
		t.Fatalf("Combine is not deterministic")
	}
}
