package preflight

import (
	"path/filepath"
	"testing"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := CheckDirectoryAccess("Photo root", dir)
	if !result.Passed {
		t.Fatalf("expected pass for %s: %+v", dir, result)
	}

	result = CheckDirectoryAccess("Photo root", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatalf("expected failure for missing dir: %+v", result)
	}
}

func TestCheckFreeSpaceMissingPath(t *testing.T) {
	result := CheckFreeSpace("Root volume", filepath.Join(t.TempDir(), "missing"))
	if result.Passed {
		t.Fatalf("expected failure for missing path: %+v", result)
	}
}

func TestPassed(t *testing.T) {
	all := []Result{{Passed: true}, {Passed: true}}
	if !Passed(all) {
		t.Fatal("expected all-pass")
	}
	if Passed(append(all, Result{})) {
		t.Fatal("expected failure with one failing check")
	}
}
