package internal

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel skip conditions. Both are expected races or policy outcomes, not
// failures: the pipeline records them as Skipped.
var (
	// ErrSourceVanished means the source file disappeared between scan and
	// processing, e.g. the source tree was mutated externally.
	ErrSourceVanished = errors.New("source file vanished")

	// ErrDuplicate means the destination is already occupied by a file with
	// identical content.
	ErrDuplicate = errors.New("duplicate of existing destination file")

	// ErrAlreadyOrganized means the file already sits at its computed
	// destination, e.g. on a second run over an organized tree.
	ErrAlreadyOrganized = errors.New("already at its destination")
)

// ErrorCategory classifies a per-file failure for the run manifest.
type ErrorCategory string

const (
	ErrorCategoryIO       ErrorCategory = "io_error"       // permissions, disk space, device errors
	ErrorCategoryPlanning ErrorCategory = "planning_error" // destination could not be planned
	ErrorCategoryMove     ErrorCategory = "move_error"     // relocation raised or partial write detected
	ErrorCategoryUnknown  ErrorCategory = "unknown_error"
)

// ProcessError is a categorized per-file failure. It is always converted to
// a terminal Failed state plus a log line; it never terminates the run.
type ProcessError struct {
	FilePath    string
	Category    ErrorCategory
	OriginalErr error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.FilePath, e.OriginalErr)
}

func (e *ProcessError) Unwrap() error { return e.OriginalErr }

// CategorizeError maps an error onto the failure taxonomy.
func CategorizeError(filePath string, category ErrorCategory, err error) *ProcessError {
	if err == nil {
		return nil
	}
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "no space left"),
		strings.Contains(errStr, "permission denied"),
		strings.Contains(errStr, "read-only file system"),
		strings.Contains(errStr, "too many open files"),
		strings.Contains(errStr, "input/output error"):
		category = ErrorCategoryIO
	}
	if category == "" {
		category = ErrorCategoryUnknown
	}
	return &ProcessError{
		FilePath:    filePath,
		Category:    category,
		OriginalErr: err,
	}
}
