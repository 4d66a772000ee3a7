package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Plan is an immutable destination plan for one source file, created during
// phase 1 and consumed exactly once by phase 2.
type Plan struct {
	Source     string
	Dest       string
	DateFolder string
	Size       int64
}

const (
	// maxCounterAttempts disambiguation attempts use a plain counter suffix;
	// after that a short random suffix breaks sustained collision storms.
	maxCounterAttempts = 10
	// maxNameAttempts is the absolute ceiling before disambiguation gives up
	// and the file is reported as failed.
	maxNameAttempts = 100
)

// Planner resolves the final destination path for a source file: date folder
// derivation, collision detection and disambiguation.
type Planner struct {
	Resolver         *Resolver
	TargetRoot       string
	DeleteDuplicates bool
	DryRun           bool
	Log              *logrus.Logger
}

// Plan computes the destination for f. It returns ErrSourceVanished when the
// file disappeared since the scan and ErrDuplicate when the destination is
// already occupied by identical content; both are skips, not failures. Any
// other error is a planning failure and the file is left untouched.
func (p *Planner) Plan(ctx context.Context, f MediaFile) (*Plan, error) {
	if _, err := os.Stat(f.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSourceVanished
		}
		return nil, fmt.Errorf("failed to stat source %s: %w", f.Path, err)
	}

	date := p.Resolver.Resolve(ctx, f)
	folder := date.Format("2006-01-02")
	destDir := filepath.Join(p.TargetRoot, folder)

	// MkdirAll is idempotent: concurrent workers creating the same date
	// folder all succeed.
	if !p.DryRun {
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", destDir, err)
		}
	}

	dest := filepath.Join(destDir, f.Name)
	if filepath.Clean(dest) == filepath.Clean(f.Path) {
		// Organizing in place over an already-organized tree: the file is
		// where it belongs. Must never fall into duplicate handling, which
		// could delete it.
		return nil, ErrAlreadyOrganized
	}

	_, err := os.Stat(dest)
	if errors.Is(err, fs.ErrNotExist) {
		return &Plan{Source: f.Path, Dest: dest, DateFolder: folder, Size: f.Size}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat destination %s: %w", dest, err)
	}

	// Destination occupied. Size then fingerprint decide whether this is a
	// duplicate or a genuine name collision.
	same, err := SameContent(f.Path, dest)
	if err != nil {
		return nil, fmt.Errorf("failed to compare %s with %s: %w", f.Path, dest, err)
	}
	if same {
		if p.DeleteDuplicates && !p.DryRun {
			if err := os.Remove(f.Path); err != nil {
				p.Log.Warnf("could not delete duplicate source %s: %v", f.Path, err)
			} else {
				p.Log.Infof("deleted duplicate source: %s (identical to %s)", f.Path, dest)
			}
		} else {
			p.Log.Debugf("duplicate kept in place: %s (identical to %s)", f.Path, dest)
		}
		return nil, ErrDuplicate
	}

	dest, err = uniqueDestPath(destDir, f.Name)
	if err != nil {
		return nil, err
	}
	return &Plan{Source: f.Path, Dest: dest, DateFolder: folder, Size: f.Size}, nil
}

// uniqueDestPath mints an unoccupied path in dir for name by appending a
// counter suffix, switching to short random suffixes after
// maxCounterAttempts. Each candidate is stat'ed fresh: directory contents
// can change between checks.
func uniqueDestPath(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for i := 1; i <= maxNameAttempts; i++ {
		var candidate string
		if i <= maxCounterAttempts {
			candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
		} else {
			candidate = fmt.Sprintf("%s_%s%s", base, uuid.NewString()[:6], ext)
		}
		path := filepath.Join(dir, candidate)
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to stat candidate %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("could not find a free name for %s in %s after %d attempts", name, dir, maxNameAttempts)
}
