package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// sessionDirName is the per-target directory holding run manifests. The
// scan never descends into it.
const sessionDirName = ".mediasort"

// Manifest is an append-only JSONL record of one organizing run: session
// start/end plus one event per file that reached a terminal state. It is an
// audit log, not an index; nothing reads it back during a run.
type Manifest struct {
	ID         string
	SessionDir string

	mu   sync.Mutex
	file *os.File
}

// ManifestEvent is a single JSON line in manifest.jsonl.
type ManifestEvent struct {
	Event string `json:"event"`
	Ts    string `json:"ts"`

	Src        string `json:"src,omitempty"`
	Dest       string `json:"dest,omitempty"`
	DateFolder string `json:"date_folder,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	Category   string `json:"error_category,omitempty"`

	// Session start/end fields
	SourceDir  string `json:"source_dir,omitempty"`
	TotalFiles int    `json:"total_files,omitempty"`
	Moved      int64  `json:"moved,omitempty"`
	Skipped    int64  `json:"skipped,omitempty"`
	Failed     int64  `json:"failed,omitempty"`
	ElapsedSec int64  `json:"elapsed_seconds,omitempty"`
}

// NewManifest creates the session directory under the target root and opens
// the manifest for append-only writes.
func NewManifest(targetRoot, sourceDir string) (*Manifest, error) {
	id := time.Now().Format("2006-01-02-150405")
	sessionDir := filepath.Join(targetRoot, sessionDirName, id)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	path := filepath.Join(sessionDir, "manifest.jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest file: %w", err)
	}

	m := &Manifest{ID: id, SessionDir: sessionDir, file: file}
	return m, m.write(ManifestEvent{Event: "session_start", SourceDir: sourceDir})
}

func (m *Manifest) LogStart(totalFiles int) error {
	return m.write(ManifestEvent{Event: "scan_done", TotalFiles: totalFiles})
}

func (m *Manifest) LogMoved(src, dest, dateFolder string, size int64) error {
	return m.write(ManifestEvent{Event: "moved", Src: src, Dest: dest, DateFolder: dateFolder, Size: size})
}

func (m *Manifest) LogSkipped(src, reason string) error {
	return m.write(ManifestEvent{Event: "skipped", Src: src, Reason: reason})
}

func (m *Manifest) LogFailed(perr *ProcessError) error {
	return m.write(ManifestEvent{
		Event:    "failed",
		Src:      perr.FilePath,
		Error:    perr.OriginalErr.Error(),
		Category: string(perr.Category),
	})
}

func (m *Manifest) LogEnd(sn Snapshot) error {
	return m.write(ManifestEvent{
		Event:      "session_end",
		Moved:      sn.Moved,
		Skipped:    sn.Skipped,
		Failed:     sn.Failed,
		ElapsedSec: int64(sn.Elapsed.Seconds()),
	})
}

func (m *Manifest) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

// write serializes one event as a JSON line. Events arrive from concurrent
// workers, so the file handle is mutex-guarded.
func (m *Manifest) write(event ManifestEvent) error {
	event.Ts = time.Now().UTC().Format(time.RFC3339)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return nil
	}
	if _, err := m.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to manifest: %w", err)
	}
	return nil
}
