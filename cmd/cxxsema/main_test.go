package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cxxsema/internal/diagfmt"
)

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"--color", "off"}, args...), &stdout, &stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	res := runCLI(t, "version")
	if res.code != 0 || !strings.HasPrefix(res.stdout, "cxxsema ") {
		t.Fatalf("version: code=%d out=%q err=%q", res.code, res.stdout, res.stderr)
	}
	if strings.Contains(res.stdout, "\x1b[") {
		t.Fatalf("colored banner with --color off: %q", res.stdout)
	}

	res = runCLI(t, "version", "--format", "json")
	var payload versionPayload
	if err := json.Unmarshal([]byte(res.stdout), &payload); err != nil {
		t.Fatalf("invalid JSON %q: %v", res.stdout, err)
	}
	if payload.Tool != "cxxsema" || payload.Version == "" {
		t.Fatalf("payload = %+v", payload)
	}

	if res := runCLI(t, "version", "--format", "xml"); res.code != 2 {
		t.Fatalf("unknown format exit code %d", res.code)
	}
}

func TestDiagExitCodes(t *testing.T) {
	dir := t.TempDir()
	clean := writeFile(t, dir, "clean.cpp", "int f(int a) { return a + 1; }\n")
	broken := writeFile(t, dir, "broken.cpp", "int f() { return missing; }\n")

	cases := []struct {
		name     string
		args     []string
		code     int
		contains string
	}{
		{name: "clean file", args: []string{"diag", clean}, code: 0},
		{name: "error", args: []string{"diag", "--format", "short", broken}, code: 1, contains: "error SEM3001"},
		{name: "pretty error", args: []string{"diag", broken}, code: 1, contains: "ERROR SEM3001"},
		{name: "missing file", args: []string{"diag", filepath.Join(dir, "nope.c")}, code: 2},
		{name: "bad stage", args: []string{"diag", "--until", "link", clean}, code: 2},
		{name: "conflicting warning flags", args: []string{"diag", "--no-warnings", "--warnings-as-errors", clean}, code: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := runCLI(t, tc.args...)
			if res.code != tc.code {
				t.Fatalf("exit code %d, want %d\nstdout: %s\nstderr: %s", res.code, tc.code, res.stdout, res.stderr)
			}
			if tc.contains != "" && !strings.Contains(res.stdout, tc.contains) {
				t.Fatalf("stdout lacks %q:\n%s", tc.contains, res.stdout)
			}
		})
	}
}

func TestDiagDirectoryJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.c", "int a;\n")
	writeFile(t, dir, "sub/b.cpp", "void g() { nothing(); }\n")
	writeFile(t, dir, "notes.txt", "not a source")

	res := runCLI(t, "diag", "--ui", "off", "--format", "json", "--jobs", "2", dir)
	if res.code != 1 {
		t.Fatalf("exit code %d\n%s", res.code, res.stderr)
	}
	var out diagfmt.DiagnosticsOutput
	if err := json.Unmarshal([]byte(res.stdout), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, res.stdout)
	}
	if out.Count == 0 {
		t.Fatalf("no diagnostics reported")
	}
	for _, d := range out.Diagnostics {
		if !strings.HasSuffix(d.Location.File, "b.cpp") {
			t.Fatalf("diagnostic in %s", d.Location.File)
		}
	}
}

func TestConfigFileApplies(t *testing.T) {
	dir := t.TempDir()
	// конфигурация задаёт диалект для заголовка
	src := writeFile(t, dir, "x.h", "int x;\n")
	cfg := writeFile(t, dir, "cxxsema.toml", "[analysis]\ndialect = \"c\"\n")

	if res := runCLI(t, "--config", cfg, "diag", src); res.code != 0 {
		t.Fatalf("exit code %d: %s", res.code, res.stderr)
	}

	bad := writeFile(t, t.TempDir(), "cxxsema.toml", "[analysis]\ndialect = \"fortran\"\n")
	res := runCLI(t, "--config", bad, "diag", src)
	if res.code != 2 || !strings.Contains(res.stderr, "fortran") {
		t.Fatalf("bad config: code=%d stderr=%q", res.code, res.stderr)
	}
}

func TestDumpCommands(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "n.cpp", "namespace N { int v; }\nint g() { return N::v; }\n")

	res := runCLI(t, "resolve", "--instantiations", src)
	if res.code != 0 {
		t.Fatalf("resolve: %d %s", res.code, res.stderr)
	}
	for _, want := range []string{"ref N::v -> N::v (variable)", "0 instantiations"} {
		if !strings.Contains(res.stdout, want) {
			t.Fatalf("resolve output lacks %q:\n%s", want, res.stdout)
		}
	}

	res = runCLI(t, "parse", src)
	if res.code != 0 || !strings.HasPrefix(res.stdout, "TranslationUnit") {
		t.Fatalf("parse: code=%d out=%q", res.code, res.stdout)
	}

	res = runCLI(t, "tokenize", "--format", "json", src)
	var toks []diagfmt.TokenOutput
	if err := json.Unmarshal([]byte(res.stdout), &toks); err != nil || len(toks) == 0 {
		t.Fatalf("tokenize JSON: %v\n%s", err, res.stdout)
	}
	if toks[0].Kind == "" || toks[len(toks)-1].Kind != "EOF" {
		t.Fatalf("tokens = %+v", toks)
	}
}

func TestTraceFlags(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "t.c", "int x;\n")
	out := filepath.Join(dir, "trace.ndjson")

	res := runCLI(t, "--trace", out, "--trace-level", "detail", "diag", src)
	if res.code != 0 {
		t.Fatalf("exit code %d: %s", res.code, res.stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("trace file: %v", err)
	}
	if !bytes.Contains(data, []byte("cli.diag")) {
		t.Fatalf("trace lacks the command span:\n%s", data)
	}

	if res := runCLI(t, "--trace-level", "loud", "diag", src); res.code != 2 {
		t.Fatalf("invalid level accepted")
	}
}
