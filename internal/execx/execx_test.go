package execx

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExitError(t *testing.T) {
	err := error(&ExitError{Cmd: "security", Code: 44, Stderr: "The specified item could not be found in the keychain.\n"})
	if got := ExitCode(err); got != 44 {
		t.Errorf("ExitCode() = %d, want 44", got)
	}
	if !strings.Contains(err.Error(), "could not be found") {
		t.Errorf("Error() = %q", err.Error())
	}
	if got := ExitCode(errors.New("x")); got != -1 {
		t.Errorf("ExitCode(plain) = %d, want -1", got)
	}
}

func TestFakeRunner_LongestPrefix(t *testing.T) {
	f := &FakeRunner{Results: map[string]FakeResult{
		"security":                  {Stdout: []byte("generic")},
		"security find-certificate": {Err: &ExitError{Cmd: "security", Code: 44}},
	}}
	out, err := f.Run(context.Background(), strings.NewReader("in"), "security", "list-keychains")
	if err != nil || string(out) != "generic" {
		t.Errorf("Run(list-keychains) = %q, %v", out, err)
	}
	if _, err := f.Run(context.Background(), nil, "security", "find-certificate", "-c", "x"); ExitCode(err) != 44 {
		t.Errorf("Run(find-certificate) error = %v", err)
	}
	if !f.Called("security find-certificate") || f.Stdins[0] != "in" {
		t.Errorf("calls = %v stdins = %v", f.Calls, f.Stdins)
	}
}

func TestOSRunner_Missing(t *testing.T) {
	if _, err := (OSRunner{}).LookPath("definitely-not-a-real-binary-xyz"); err == nil {
		t.Error("LookPath() expected error")
	}
}
