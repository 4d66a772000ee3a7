//go:build unix

package internal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
)

// TestMoveFile_CrossDevice forces the rename to fail with EXDEV and checks
// that the copy fallback produces the destination, removes the source, and
// leaves no temporary files behind.
func TestMoveFile_CrossDevice(t *testing.T) {
	orig := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}
	defer func() { renameFunc = orig }()

	tempDir := t.TempDir()
	destDir := filepath.Join(tempDir, "2022-01-01")
	os.MkdirAll(destDir, 0755)

	src := writeTestFile(t, tempDir, "a.jpg", []byte("cross-device payload"))
	dest := filepath.Join(destDir, "a.jpg")

	if err := moveFile(src, dest); err != nil {
		t.Fatalf("moveFile failed: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "cross-device payload" {
		t.Errorf("destination content mismatch: %q", got)
	}
	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("source still present after cross-device move")
	}

	entries, err := os.ReadDir(destDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestIsCrossDevice(t *testing.T) {
	exdev := &os.LinkError{Op: "rename", Old: "a", New: "b", Err: syscall.EXDEV}
	if !isCrossDevice(exdev) {
		t.Error("EXDEV LinkError not recognized")
	}
	if !isCrossDevice(syscall.EXDEV) {
		t.Error("bare EXDEV not recognized")
	}
	if isCrossDevice(&os.LinkError{Op: "rename", Old: "a", New: "b", Err: syscall.EACCES}) {
		t.Error("EACCES misreported as cross-device")
	}
	if isCrossDevice(nil) {
		t.Error("nil misreported as cross-device")
	}
}
