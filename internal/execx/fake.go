package execx

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// FakeResult is a scripted response for FakeRunner.
type FakeResult struct {
	Stdout []byte
	Err    error
}

// FakeRunner records invocations and returns scripted results keyed by
// command-line prefix ("security delete-certificate"). The longest matching
// prefix wins; unmatched commands succeed with empty output. Queued results
// for a prefix are consumed one per call before Results is consulted.
type FakeRunner struct {
	mu      sync.Mutex
	Queue   map[string][]FakeResult
	Results map[string]FakeResult
	Missing map[string]bool // binaries LookPath should not find
	Calls   []string
	Stdins  []string
}

func (f *FakeRunner) LookPath(name string) (string, error) {
	if f.Missing[name] {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
	return "/usr/bin/" + name, nil
}

func (f *FakeRunner) Run(_ context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	in := ""
	if stdin != nil {
		b, _ := io.ReadAll(stdin)
		in = string(b)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, line)
	f.Stdins = append(f.Stdins, in)
	if prefix := longestPrefix(line, f.Queue); prefix != "" {
		r := f.Queue[prefix][0]
		if f.Queue[prefix] = f.Queue[prefix][1:]; len(f.Queue[prefix]) == 0 {
			delete(f.Queue, prefix)
		}
		return r.Stdout, r.Err
	}
	best := longestPrefix(line, f.Results)
	if best == "" {
		return nil, nil
	}
	r := f.Results[best]
	return r.Stdout, r.Err
}

func longestPrefix[V any](line string, m map[string]V) string {
	best := ""
	for prefix := range m {
		if strings.HasPrefix(line, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	return best
}

// Called reports whether any recorded call starts with prefix.
func (f *FakeRunner) Called(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
