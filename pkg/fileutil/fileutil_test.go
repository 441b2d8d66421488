package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	if Exists(filepath.Join(tmpDir, "nonexistent")) {
		t.Error("Exists returned true for non-existent file")
	}

	path := filepath.Join(tmpDir, "exists.tdc")
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}
	if !Exists(path) {
		t.Error("Exists returned false for existing file")
	}
}

func TestWriteTmpThenMove(t *testing.T) {
	tmpDir := t.TempDir()
	outDir := t.TempDir()
	outPath := filepath.Join(outDir, "nested", "output.tdc")

	content := []byte("test content")
	err := WriteTmpThenMove(tmpDir, outPath, func(tmpPath string) error {
		return os.WriteFile(tmpPath, content, 0644)
	})
	if err != nil {
		t.Fatalf("WriteTmpThenMove failed: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Content mismatch: got %q, want %q", got, content)
	}

	if Exists(filepath.Join(tmpDir, "output.tdc.tmp")) {
		t.Error("Tmp file still exists after successful write")
	}
}

func TestWriteTmpThenMoveDefaultTmpDir(t *testing.T) {
	outDir := t.TempDir()
	outPath := filepath.Join(outDir, "output.tdc")

	var seen string
	err := WriteTmpThenMove("", outPath, func(tmpPath string) error {
		seen = tmpPath
		return os.WriteFile(tmpPath, []byte("x"), 0644)
	})
	if err != nil {
		t.Fatalf("WriteTmpThenMove failed: %v", err)
	}
	if filepath.Dir(seen) != outDir {
		t.Errorf("tmp path %q not next to output", seen)
	}
	if !Exists(outPath) {
		t.Error("output missing")
	}
}

func TestWriteTmpThenMoveError(t *testing.T) {
	tmpDir := t.TempDir()
	outDir := t.TempDir()
	outPath := filepath.Join(outDir, "output.tdc")

	err := WriteTmpThenMove(tmpDir, outPath, func(tmpPath string) error {
		if err := os.WriteFile(tmpPath, []byte("partial"), 0644); err != nil {
			return err
		}
		return os.ErrPermission
	})
	if err == nil {
		t.Error("WriteTmpThenMove should have failed")
	}

	if Exists(filepath.Join(tmpDir, "output.tdc.tmp")) {
		t.Error("Tmp file exists after failed write")
	}
	if Exists(outPath) {
		t.Error("Output file exists after failed write")
	}
}
