package internal

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// renameFunc is swapped in tests to simulate cross-device rename failures.
var renameFunc = os.Rename

// Executor performs the relocation planned during phase 1, re-validating
// the plan against races that happened in between.
type Executor struct {
	DeleteDuplicates bool
	Log              *logrus.Logger
}

// Execute moves the planned source to its destination and returns the final
// destination path, which may differ from the plan when the destination was
// occupied in the meantime. ErrSourceVanished marks the expected race where
// the source disappeared after planning; ErrDuplicate means the occupant
// that appeared since planning holds identical content.
func (e *Executor) Execute(plan *Plan) (string, error) {
	if _, err := os.Stat(plan.Source); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrSourceVanished
		}
		return "", fmt.Errorf("failed to stat source %s: %w", plan.Source, err)
	}

	dest := plan.Dest
	if _, err := os.Stat(dest); err == nil {
		// Another plan or an external actor claimed the path since planning.
		// Equal content means this became a duplicate; otherwise recompute a
		// fresh name instead of failing.
		same, cerr := SameContent(plan.Source, dest)
		if cerr != nil {
			return "", fmt.Errorf("failed to compare %s with %s: %w", plan.Source, dest, cerr)
		}
		if same {
			if e.DeleteDuplicates {
				if rerr := os.Remove(plan.Source); rerr != nil {
					e.Log.Warnf("could not delete duplicate source %s: %v", plan.Source, rerr)
				} else {
					e.Log.Infof("deleted duplicate source: %s (identical to %s)", plan.Source, dest)
				}
			}
			return "", ErrDuplicate
		}
		fresh, uerr := uniqueDestPath(filepath.Dir(dest), filepath.Base(dest))
		if uerr != nil {
			return "", uerr
		}
		e.Log.Debugf("destination %s taken since planning, using %s", dest, fresh)
		dest = fresh
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to stat destination %s: %w", dest, err)
	}

	if err := moveFile(plan.Source, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// moveFile renames src to dest, falling back to copy-then-rename when the
// move crosses a filesystem boundary.
func moveFile(src, dest string) error {
	err := renameFunc(src, dest)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return fmt.Errorf("failed to move %s to %s: %w", src, dest, err)
	}
	return copyAcrossDevices(src, dest)
}

// copyAcrossDevices copies src to a dot-prefixed temporary file in the
// destination directory, then renames it into place, so a partially copied
// file is never visible under the final name. The temporary file is removed
// on any failure.
func copyAcrossDevices(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", dest, err)
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if _, err := io.Copy(tmp, in); err != nil {
		return cleanup(fmt.Errorf("failed to copy %s to %s: %w", src, dest, err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("failed to sync %s: %w", tmpName, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename %s to %s: %w", tmpName, dest, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("copied %s but failed to remove source: %w", src, err)
	}
	return nil
}
