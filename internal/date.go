package internal

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/sirupsen/logrus"
)

// SentinelDate is returned when every resolution stage fails, including the
// filesystem timestamp. Resolution is total: callers never see a zero time.
var SentinelDate = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// imageDateTags is the fixed, ordered list of EXIF tags scanned for a
// capture date. First tag present with a parseable value wins.
var imageDateTags = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTimeDigitized,
	exif.DateTime,
	exif.FieldName("DateTimeCreated"),
	exif.FieldName("CreateDate"),
}

// imageTagFormats accepts the textual layouts seen in EXIF date tags, most
// common first. Values are truncated to 19 characters before parsing so
// timezone or sub-second suffixes don't break a match.
var imageTagFormats = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

// probeLineFormats accepts the layouts seen in container creation-time tags
// across camera vendors. Lines are normalized (T separator, fractional
// seconds and timezone suffixes stripped) before parsing.
var probeLineFormats = []string{
	"2006-01-02 15:04:05",
	"2006:01:02 15:04:05",
	"2006/01/02 15:04:05",
	"20060102150405",
	"20060102",
	"02-Jan-2006",
	"Jan 2 2006 15:04:05",
}

// filenameDatePatterns are the recognized date-like substrings in file base
// names. The timestamped pattern is tried before the bare 8-digit one so
// "20220101_120000" is not half-matched.
var filenameDatePatterns = []struct {
	re      *regexp.Regexp
	formats []string
}{
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}`), []string{"2006-01-02"}},
	{regexp.MustCompile(`\d{4}_\d{2}_\d{2}`), []string{"2006_01_02"}},
	{regexp.MustCompile(`\d{8}[_-]\d{6}`), []string{"20060102_150405", "20060102-150405"}},
	{regexp.MustCompile(`\d{8}`), []string{"20060102"}},
}

// Resolver derives a calendar date for a media file through the ordered
// fallback chain: embedded EXIF tags, container metadata via the external
// probe, filename patterns, filesystem mtime, sentinel. Results are cached
// per absolute path in a bounded LRU.
type Resolver struct {
	probe    *Probe
	exifTool *ExifToolProbe // nil unless enabled and the binary exists
	cache    *lru.Cache[string, time.Time]
	log      *logrus.Logger
}

func NewResolver(cfg *Config, log *logrus.Logger) *Resolver {
	size := cfg.CacheSize
	if size <= 0 {
		size = 4096
	}
	cache, _ := lru.New[string, time.Time](size)

	r := &Resolver{
		probe: NewProbe(time.Duration(cfg.ProbeTimeoutSec) * time.Second),
		cache: cache,
		log:   log,
	}
	if cfg.UseExifTool {
		et, err := NewExifToolProbe()
		if err != nil {
			log.Debugf("exiftool unavailable, continuing without it: %v", err)
		} else {
			r.exifTool = et
		}
	}
	return r
}

// Close releases the exiftool process, if one was started.
func (r *Resolver) Close() {
	if r.exifTool != nil {
		r.exifTool.Close()
	}
}

// Resolve returns the calendar date for the file. It never fails: when no
// metadata, filename pattern or timestamp is usable it returns SentinelDate.
func (r *Resolver) Resolve(ctx context.Context, f MediaFile) time.Time {
	if d, ok := r.cache.Get(f.Path); ok {
		return d
	}
	d := r.resolve(ctx, f)
	r.cache.Add(f.Path, d)
	return d
}

func (r *Resolver) resolve(ctx context.Context, f MediaFile) time.Time {
	if f.Kind == KindImage {
		if d, ok := r.imageTagDate(f.Path); ok {
			return d
		}
	}

	if f.Kind == KindVideo {
		for _, line := range r.probe.CreationTimes(ctx, f.Path) {
			if d, ok := parseProbeLine(line); ok {
				return d
			}
		}
	}

	if d, ok := filenameDate(f.Name); ok {
		return d
	}

	if info, err := os.Stat(f.Path); err == nil {
		return dateOnly(info.ModTime())
	}

	r.log.Debugf("no date source for %s, using sentinel", f.Name)
	return SentinelDate
}

// imageTagDate scans the embedded EXIF directory for the first known
// date-bearing tag with a parseable value. Falls back to exiftool when the
// in-process decoder cannot read the file and exiftool is enabled.
func (r *Resolver) imageTagDate(path string) (time.Time, bool) {
	file, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	x, err := exif.Decode(file)
	file.Close()
	if err != nil {
		if r.exifTool != nil {
			if v, ok := r.exifTool.DateValue(path); ok {
				return parseTagValue(v)
			}
		}
		return time.Time{}, false
	}

	for _, name := range imageDateTags {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		v, err := tag.StringVal()
		if err != nil || strings.TrimSpace(v) == "" {
			continue
		}
		if d, ok := parseTagValue(v); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// parseTagValue parses an EXIF-style date tag value against the accepted
// layouts, returning the date portion only.
func parseTagValue(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if len(v) > 19 {
		v = v[:19]
	}
	for _, layout := range imageTagFormats {
		if t, err := time.Parse(layout, v); err == nil && saneDate(t) {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

// parseProbeLine normalizes and parses one creation-time line from the
// external probe.
func parseProbeLine(line string) (time.Time, bool) {
	var b strings.Builder
	for _, c := range line {
		if c >= 0x20 && c != 0x7f {
			b.WriteRune(c)
		}
	}
	v := strings.ReplaceAll(b.String(), "T", " ")
	if i := strings.IndexByte(v, '.'); i >= 0 {
		v = v[:i]
	}
	if i := strings.IndexByte(v, '+'); i >= 0 {
		v = v[:i]
	}
	v = strings.TrimSuffix(strings.TrimSpace(v), "Z")
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}

	for _, layout := range probeLineFormats {
		if t, err := time.Parse(layout, v); err == nil && saneDate(t) {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

// filenameDate scans a base file name for a recognized date-like substring.
// Names are user-controlled, so matches outside a sane calendar range are
// rejected.
func filenameDate(name string) (time.Time, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, p := range filenameDatePatterns {
		m := p.re.FindString(base)
		if m == "" {
			continue
		}
		for _, layout := range p.formats {
			if len(m) != len(layout) {
				continue
			}
			if t, err := time.Parse(layout, m); err == nil && saneDate(t) {
				return dateOnly(t), true
			}
		}
	}
	return time.Time{}, false
}

// saneDate bounds accepted dates to 1900-2100. Day-of-month validity against
// the specific month is already enforced by time.Parse.
func saneDate(t time.Time) bool {
	y := t.Year()
	return y >= 1900 && y <= 2100
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
