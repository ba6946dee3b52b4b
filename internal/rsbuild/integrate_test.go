package rsbuild

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendLineOnce_Idempotent(t *testing.T) {
	profile := filepath.Join(t.TempDir(), ".bashrc")
	line := "export LD_LIBRARY_PATH=$LD_LIBRARY_PATH:/usr/local/lib"

	appended, err := appendLineOnce(profile, line)
	if err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if !appended {
		t.Errorf("first append reported no-op")
	}

	appended, err = appendLineOnce(profile, line)
	if err != nil {
		t.Fatalf("second append failed: %v", err)
	}
	if appended {
		t.Errorf("second append was not a no-op")
	}

	data, err := os.ReadFile(profile)
	if err != nil {
		t.Fatalf("read profile: %v", err)
	}
	count := strings.Count(string(data), line)
	if count != 1 {
		t.Errorf("profile contains %d copies of the export line, want 1\n%s", count, data)
	}
}

func TestAppendLineOnce_PreservesExistingContent(t *testing.T) {
	profile := filepath.Join(t.TempDir(), ".bashrc")
	existing := "alias ll='ls -l'\nexport EDITOR=vim\n"
	if err := os.WriteFile(profile, []byte(existing), 0o644); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	line := "export LD_LIBRARY_PATH=$LD_LIBRARY_PATH:/usr/local/lib"
	if _, err := appendLineOnce(profile, line); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	data, err := os.ReadFile(profile)
	if err != nil {
		t.Fatalf("read profile: %v", err)
	}
	if !strings.HasPrefix(string(data), existing) {
		t.Errorf("existing profile content was disturbed:\n%s", data)
	}
	if !strings.HasSuffix(string(data), line+"\n") {
		t.Errorf("export line not appended at end:\n%s", data)
	}
}

func TestAppendLineOnce_ExactMatchOnly(t *testing.T) {
	profile := filepath.Join(t.TempDir(), ".bashrc")
	line := "export LD_LIBRARY_PATH=$LD_LIBRARY_PATH:/usr/local/lib"

	// A commented-out copy must not count as present.
	if err := os.WriteFile(profile, []byte("# "+line+"\n"), 0o644); err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	appended, err := appendLineOnce(profile, line)
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if !appended {
		t.Errorf("commented-out line was wrongly treated as present")
	}
}
