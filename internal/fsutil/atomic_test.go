package fsutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "out.ini")
	if err := WriteFileAtomic(p, []byte("a\n")); err != nil {
		t.Fatalf("WriteFileAtomic() error: %v", err)
	}
	if err := WriteFileAtomic(p, []byte("b\n")); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}

	data, err := os.ReadFile(p)
	if err != nil || string(data) != "b\n" {
		t.Errorf("content = %q, %v", data, err)
	}
	assertNoTemp(t, dir)
}

func TestWriteAtomic_FailureLeavesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "out.ini")
	boom := errors.New("boom")

	err := WriteAtomic(p, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WriteAtomic() error = %v, want boom", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Error("destination exists after failed write")
	}
	assertNoTemp(t, dir)
}

func TestCopyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "a.wav")
	dst := filepath.Join(dir, "b.wav")
	payload := []byte{0, 1, 2, 0xff}
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile() error: %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != string(payload) {
		t.Errorf("copied %v, want %v", got, payload)
	}

	if err := CopyFile(filepath.Join(dir, "missing"), dst); err == nil {
		t.Error("CopyFile() expected error for missing source")
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b")
	for range 2 {
		if err := EnsureDir(dir); err != nil {
			t.Fatalf("EnsureDir() error: %v", err)
		}
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDir(file); err == nil {
		t.Error("EnsureDir() over a regular file should fail")
	}
}

func assertNoTemp(t *testing.T, dir string) {
	t.Helper()
	matches, _ := filepath.Glob(filepath.Join(dir, ".modconvert-*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestIsTempFile(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"out/.modconvert-123.tmp": true,
		".modconvert-x.tmp":       true,
		"out/Unit.ini":            false,
		"out/.modconvert-x.ini":   false,
	}
	for p, want := range tests {
		if got := IsTempFile(p); got != want {
			t.Errorf("IsTempFile(%q) = %v, want %v", p, got, want)
		}
	}
}
