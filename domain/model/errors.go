package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnsupportedOS is returned by host integrations that only exist on some platforms.
var ErrUnsupportedOS = errors.New("unsupported host operating system")

// Remedier is implemented by errors that can suggest what the operator should do next.
type Remedier interface {
	Remedy() string
}

// RemedyOf returns the first remedy found in err's chain, or an empty string.
func RemedyOf(err error) string {
	var r Remedier
	if errors.As(err, &r) {
		return r.Remedy()
	}
	return ""
}

// FatalPrereqError aborts setup before any mutation is attempted.
type FatalPrereqError struct {
	Check string
	Err   error
	Hint  string
}

func (e *FatalPrereqError) Error() string {
	return fmt.Sprintf("prerequisite %s failed: %v", e.Check, e.Err)
}
func (e *FatalPrereqError) Unwrap() error { return e.Err }
func (e *FatalPrereqError) Remedy() string {
	if e.Hint != "" {
		return e.Hint
	}
	return "fix the prerequisite and re-run setup"
}

// ApplyError reports a failed mutation of cluster state.
type ApplyError struct {
	Step     string
	Resource string
	Err      error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Step, e.Resource, e.Err)
}
func (e *ApplyError) Unwrap() error { return e.Err }
func (e *ApplyError) Remedy() string {
	return "run `localdev recovery` and then re-run `localdev setup`"
}

// ReadinessTimeout reports pods that did not become Ready in time.
type ReadinessTimeout struct {
	Namespace string
	Selector  string
	Timeout   time.Duration
}

func (e *ReadinessTimeout) Error() string {
	return fmt.Sprintf("pods %q in namespace %s not ready after %s", e.Selector, e.Namespace, e.Timeout)
}
func (e *ReadinessTimeout) Remedy() string {
	return "the workload may still converge; check it later with `localdev verify`"
}

// PermissionError reports an operation that needs privileges the process does not have.
type PermissionError struct {
	Op   string
	Path string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s %s: permission denied: %v", e.Op, e.Path, e.Err)
}
func (e *PermissionError) Unwrap() error { return e.Err }
func (e *PermissionError) Remedy() string {
	return "re-run with elevated privileges (sudo) or enable hosts.sudo in the configuration"
}

// CertGenerationError reports a failure of the certificate tool.
type CertGenerationError struct {
	Subject string
	Err     error
}

func (e *CertGenerationError) Error() string {
	return fmt.Sprintf("generate certificate for %s: %v", e.Subject, e.Err)
}
func (e *CertGenerationError) Unwrap() error { return e.Err }
func (e *CertGenerationError) Remedy() string {
	return "check that the certificate tool is installed and the temp directory is writable"
}

// TrustStoreError reports a failure to update the OS trust store.
type TrustStoreError struct {
	Op  string
	Err error
}

func (e *TrustStoreError) Error() string {
	return fmt.Sprintf("trust store %s: %v", e.Op, e.Err)
}
func (e *TrustStoreError) Unwrap() error { return e.Err }
func (e *TrustStoreError) Remedy() string {
	if errors.Is(e.Err, ErrUnsupportedOS) {
		return "the OS trust store integration is only available on macOS; disable trust.enabled"
	}
	return "re-run setup from an interactive terminal so the keychain can ask for credentials"
}

// ProbeFailure reports a failed verification probe.
type ProbeFailure struct {
	Result ProbeResult
}

func (e *ProbeFailure) Error() string {
	return fmt.Sprintf("%s probe %s failed: %s", e.Result.Kind, e.Result.Target, e.Result.Detail)
}
func (e *ProbeFailure) Remedy() string {
	switch e.Result.Kind {
	case ProbeDNS:
		return "run `localdev setup` to restore the hosts file entries"
	case ProbeTrustStore:
		return "run `localdev setup` from an interactive terminal to trust the certificate"
	case ProbeResource:
		return "inspect the pods in " + e.Result.Target + " with kubectl, or run `localdev recovery` and then `localdev setup`"
	default:
		return "run `localdev recovery` and then `localdev setup`"
	}
}
