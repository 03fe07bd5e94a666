package prof

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSessionWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.out")
	mem := filepath.Join(dir, "mem.out")
	stop, err := Session(cpu, mem, "")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if err := stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	for _, p := range []string{cpu, mem} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("%s not written: %v", filepath.Base(p), err)
		}
	}
}

func TestSessionReportsBadPath(t *testing.T) {
	if _, err := Session(filepath.Join(t.TempDir(), "missing", "cpu.out"), "", ""); err == nil {
		t.Fatalf("expected an error for an unwritable path")
	}
}
