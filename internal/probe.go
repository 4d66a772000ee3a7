package internal

import (
	"context"
	"os/exec"
	"strings"
	"time"

	exiftool "github.com/barasher/go-exiftool"
)

// Probe asks an external ffprobe binary for the container creation-time tags
// of a video file. A missing binary, a timeout or a non-zero exit are all
// normal fallback conditions, never surfaced as errors.
type Probe struct {
	Binary  string
	Timeout time.Duration
}

const defaultProbeTimeout = 5 * time.Second

func NewProbe(timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &Probe{Binary: "ffprobe", Timeout: timeout}
}

// CreationTimes returns the raw tag value lines reported by the probe, one
// candidate per line, in the probe's own order. The slice is empty whenever
// the probe is unavailable or reports nothing.
func (p *Probe) CreationTimes(ctx context.Context, path string) []string {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.Binary,
		"-v", "error",
		"-show_entries", "format_tags=creation_time,creation_date,com.apple.quicktime.creationdate",
		"-of", "default=nokey=1:noprint_wrappers=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// exifToolDateTags are the tag names requested from exiftool, most
// trustworthy first.
var exifToolDateTags = []string{
	"DateTimeOriginal",
	"CreateDate",
	"MediaCreateDate",
	"ModifyDate",
}

// ExifToolProbe wraps a long-lived exiftool process used as an alternative
// tag reader for files the in-process EXIF decoder cannot parse (HEIC, some
// RAW formats). Optional: constructed only when the exiftool binary exists.
type ExifToolProbe struct {
	et *exiftool.Exiftool
}

func NewExifToolProbe() (*ExifToolProbe, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, err
	}
	return &ExifToolProbe{et: et}, nil
}

// DateValue returns the first non-empty date tag value exiftool reports for
// the file, following exifToolDateTags order.
func (p *ExifToolProbe) DateValue(path string) (string, bool) {
	metas := p.et.ExtractMetadata(path)
	for _, meta := range metas {
		if meta.Err != nil {
			continue
		}
		for _, tag := range exifToolDateTags {
			if v, err := meta.GetString(tag); err == nil && strings.TrimSpace(v) != "" {
				return v, true
			}
		}
	}
	return "", false
}

func (p *ExifToolProbe) Close() error {
	return p.et.Close()
}
