// Package hosts keeps loopback aliases for the environment's hostnames in the OS hosts file.
package hosts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/execx"
	"github.com/kompox/localdev/internal/logging"
	"github.com/kompox/localdev/internal/naming"
)

// DefaultPath is the hosts file on Unix-like systems.
const DefaultPath = "/etc/hosts"

// Marker is appended as a comment to every line this package writes.
const Marker = "# localdev"

// File edits a hosts file. Each mutation is a single read-modify-write of the
// whole file so callers never observe a half-applied change.
// It implements model.HostsPort.
type File struct {
	Path    string
	Address string

	// Sudo enables escalation through `sudo tee` when the file is not writable.
	Sudo bool
	// Interactive reports whether sudo may prompt for a password. When it
	// returns false, sudo runs with -n and fails instead of prompting.
	Interactive func() bool
	Runner      execx.Runner
}

var _ model.HostsPort = (*File)(nil)

// New returns a File for path with the loopback address.
func New(path string) *File {
	if path == "" {
		path = DefaultPath
	}
	return &File{Path: path, Address: model.LoopbackAddress, Runner: execx.OSRunner{}}
}

func (f *File) address() string {
	if f.Address == "" {
		return model.LoopbackAddress
	}
	return f.Address
}

// Upsert makes hostname resolve to the loopback address through exactly one line.
// The file is not written when that line is already the only mapping.
func (f *File) Upsert(ctx context.Context, hostname string) error {
	if err := naming.ValidateHostname(hostname); err != nil {
		return err
	}
	lines, err := f.read()
	if err != nil {
		return err
	}
	canonical := f.address() + "\t" + hostname + "\t" + Marker
	kept, removed := removeNames(lines, func(name string) bool { return strings.EqualFold(name, hostname) })
	if removed == 1 && slices.Contains(lines, canonical) {
		logging.FromContext(ctx).Debug(ctx, "Hosts:Upsert/unchanged", "host", hostname, "path", f.Path)
		return nil
	}
	lines = append(kept, canonical)
	if err := f.write(ctx, lines); err != nil {
		return err
	}
	logging.FromContext(ctx).Info(ctx, "Hosts:Upsert/eok", "host", hostname, "path", f.Path)
	return nil
}

// RemoveAll removes every hostname equal to suffix or ending in "."+suffix.
// It returns the number of hostnames removed; the file is left untouched when
// nothing matches.
func (f *File) RemoveAll(ctx context.Context, suffix string) (int, error) {
	if suffix == "" {
		return 0, fmt.Errorf("hosts suffix is empty")
	}
	lines, err := f.read()
	if err != nil {
		return 0, err
	}
	lines, removed := removeNames(lines, func(name string) bool { return naming.HasDomainSuffix(name, suffix) })
	if removed == 0 {
		return 0, nil
	}
	if err := f.write(ctx, lines); err != nil {
		return 0, err
	}
	logging.FromContext(ctx).Info(ctx, "Hosts:RemoveAll/eok", "suffix", suffix, "removed", removed, "path", f.Path)
	return removed, nil
}

// Has reports whether hostname is mapped to the loopback address.
func (f *File) Has(hostname string) (bool, error) {
	lines, err := f.read()
	if err != nil {
		return false, err
	}
	for _, l := range lines {
		addr, names, _ := parseLine(l)
		if addr != f.address() {
			continue
		}
		for _, n := range names {
			if strings.EqualFold(n, hostname) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *File) read() ([]string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, &model.PermissionError{Op: "read", Path: f.Path, Err: err}
		}
		return nil, fmt.Errorf("read hosts file %s: %w", f.Path, err)
	}
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

func (f *File) write(ctx context.Context, lines []string) error {
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	content := buf.Bytes()

	err := writeAtomic(f.Path, content)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("write hosts file %s: %w", f.Path, err)
	}
	if !f.Sudo || f.Runner == nil {
		return &model.PermissionError{Op: "write", Path: f.Path, Err: err}
	}

	args := []string{"tee", f.Path}
	if f.Interactive == nil || !f.Interactive() {
		args = append([]string{"-n"}, args...)
	}
	logging.FromContext(ctx).Debug(ctx, "Hosts:Write/sudo", "path", f.Path, "args", args)
	if _, serr := f.Runner.Run(ctx, bytes.NewReader(content), "sudo", args...); serr != nil {
		return &model.PermissionError{Op: "sudo tee", Path: f.Path, Err: serr}
	}
	return nil
}

// writeAtomic replaces path through a temp file in the same directory. When
// the directory is not writable but the file is, it falls back to rewriting
// the file in place.
func writeAtomic(path string, content []byte) error {
	mode := fs.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".hosts-*")
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return os.WriteFile(path, content, mode)
		}
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// parseLine splits a hosts line into address, names, and trailing comment.
// Blank and comment-only lines yield an empty address.
func parseLine(line string) (addr string, names []string, comment string) {
	body := line
	if i := strings.IndexByte(line, '#'); i >= 0 {
		body, comment = line[:i], line[i:]
	}
	fields := strings.Fields(body)
	if len(fields) < 2 {
		return "", nil, comment
	}
	return fields[0], fields[1:], comment
}

// removeNames drops matching hostnames from every line. Lines left without
// names are removed; other lines are rewritten keeping their comment.
func removeNames(lines []string, match func(string) bool) ([]string, int) {
	out := make([]string, 0, len(lines))
	removed := 0
	for _, l := range lines {
		addr, names, comment := parseLine(l)
		if addr == "" {
			out = append(out, l)
			continue
		}
		kept := names[:0:0]
		for _, n := range names {
			if match(n) {
				removed++
				continue
			}
			kept = append(kept, n)
		}
		switch {
		case len(kept) == len(names):
			out = append(out, l)
		case len(kept) == 0:
		default:
			nl := addr + "\t" + strings.Join(kept, " ")
			if comment != "" {
				nl += "\t" + comment
			}
			out = append(out, nl)
		}
	}
	return out, removed
}
