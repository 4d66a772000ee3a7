package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies a media file by its extension.
type Kind int

const (
	KindUnclassified Kind = iota
	KindImage
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	default:
		return "unclassified"
	}
}

// MediaFile is a single scanned source file. Size is captured at scan time
// and only used for throughput reporting.
type MediaFile struct {
	Name string
	Path string
	Size int64
	Kind Kind
}

// Classify returns the kind for a file name based on the configured
// extension sets. Files outside both sets are KindUnclassified and never
// enter the pipeline.
func (cfg *Config) Classify(name string) Kind {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range cfg.ImageExt {
		if ext == e {
			return KindImage
		}
	}
	for _, e := range cfg.VideoExt {
		if ext == e {
			return KindVideo
		}
	}
	return KindUnclassified
}

// skippableDirs are system or tooling directories the scan never descends
// into. Dot-prefixed directories are skipped as well.
var skippableDirs = map[string]bool{
	"@eaDir":       true,
	"__MACOSX":     true,
	sessionDirName: true,
}

// ScanMediaFiles walks inputDir recursively and returns the media files
// whose extension is in one of the configured sets.
func ScanMediaFiles(inputDir string, cfg *Config) ([]MediaFile, error) {
	var files []MediaFile
	err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()
		if info.IsDir() {
			if path != inputDir && (strings.HasPrefix(name, ".") || skippableDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}

		kind := cfg.Classify(name)
		if kind == KindUnclassified {
			return nil
		}
		files = append(files, MediaFile{
			Name: name,
			Path: path,
			Size: info.Size(),
			Kind: kind,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning files: %w", err)
	}
	return files, nil
}
