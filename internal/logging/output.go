package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// File name prefix and suffix of generated log files.
const (
	filePrefix = "localdev-"
	fileSuffix = ".log"
)

// Output is where log records go: stderr, nowhere, or a file.
type Output struct {
	// Path is the log file, or empty when not writing to a file.
	Path string
	w    io.Writer
	f    *os.File
}

// OpenOutput resolves an output spec:
//
//   - "" or "-": stderr
//   - "none": discard
//   - "auto": a new timestamped file in dir
//   - anything else: that file, relative to dir unless absolute, appended to
func OpenOutput(spec, dir string) (*Output, error) {
	var path string
	switch strings.ToLower(spec) {
	case "", "-":
		return &Output{w: os.Stderr}, nil
	case "none":
		return &Output{w: io.Discard}, nil
	case "auto":
		path = filepath.Join(dir, FileName(time.Now().UTC()))
	default:
		path = spec
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &Output{Path: path, w: f, f: f}, nil
}

// Writer returns the destination writer.
func (o *Output) Writer() io.Writer { return o.w }

// Close closes the log file, if any.
func (o *Output) Close() error {
	if o.f == nil {
		return nil
	}
	return o.f.Close()
}

// FileName returns the generated log file name for t,
// e.g. localdev-20251213-095105-123.log.
func FileName(t time.Time) string {
	return fmt.Sprintf("%s%s-%03d%s", filePrefix, t.Format("20060102-150405"), t.Nanosecond()/int(time.Millisecond), fileSuffix)
}

// Prune deletes generated log files in dir last modified before now-keep and
// returns how many were removed. Other files are left alone. A missing dir is
// not an error.
func Prune(dir string, keep time.Duration, now time.Time) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read log directory: %w", err)
	}
	cutoff := now.Add(-keep)
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(dir, name)) == nil {
			removed++
		}
	}
	return removed, nil
}
