// Package truststore registers certificates as trusted roots in the macOS
// system keychain through the security command.
package truststore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/execx"
	"github.com/kompox/localdev/internal/logging"
)

// SystemKeychain is where trusted roots are added.
const SystemKeychain = "/Library/Keychains/System.keychain"

// exitItemNotFound is returned by security when no matching item exists.
const exitItemNotFound = 44

// Keychain implements model.TrustStorePort.
type Keychain struct {
	Runner execx.Runner
	Path   string
	// GOOS and Euid default to the running process.
	GOOS string
	Euid func() int
	// Interactive reports whether sudo may prompt; when false sudo runs with -n.
	Interactive func() bool
}

var _ model.TrustStorePort = (*Keychain)(nil)

// New returns a Keychain backed by the system keychain.
func New(runner execx.Runner) *Keychain {
	return &Keychain{Runner: runner, Path: SystemKeychain}
}

func (k *Keychain) goos() string {
	if k.GOOS == "" {
		return runtime.GOOS
	}
	return k.GOOS
}

func (k *Keychain) keychain() string {
	if k.Path == "" {
		return SystemKeychain
	}
	return k.Path
}

// Supported returns model.ErrUnsupportedOS anywhere but macOS, and an error
// when the security executable is missing.
func (k *Keychain) Supported() error {
	if k.goos() != "darwin" {
		return fmt.Errorf("%w: %s", model.ErrUnsupportedOS, k.goos())
	}
	if _, err := k.Runner.LookPath("security"); err != nil {
		return fmt.Errorf("security not found: %w", err)
	}
	return nil
}

// AddTrustedRoot adds the certificate at certPath as a trusted root.
func (k *Keychain) AddTrustedRoot(ctx context.Context, certPath, commonName string) error {
	if err := k.Supported(); err != nil {
		return &model.TrustStoreError{Op: "add", Err: err}
	}
	_, err := k.privileged(ctx, "add-trusted-cert", "-d", "-r", "trustRoot", "-k", k.keychain(), certPath)
	if err != nil {
		return &model.TrustStoreError{Op: "add", Err: err}
	}
	logging.FromContext(ctx).Info(ctx, "TrustStore:Add/eok", "cn", commonName, "keychain", k.keychain())
	return nil
}

// RemoveTrustedRoot deletes every certificate named commonName. A keychain
// without one reports AlreadyAbsent.
func (k *Keychain) RemoveTrustedRoot(ctx context.Context, commonName string) (model.Outcome, error) {
	if err := k.Supported(); err != nil {
		return model.OutcomeIgnored, &model.TrustStoreError{Op: "remove", Err: err}
	}
	removed := 0
	// delete-certificate removes one match per call.
	for {
		_, err := k.privileged(ctx, "delete-certificate", "-c", commonName, k.keychain())
		if err != nil {
			if isNotFound(err) {
				break
			}
			return model.OutcomeIgnored, &model.TrustStoreError{Op: "remove", Err: err}
		}
		removed++
		if removed > 16 {
			return model.OutcomeIgnored, &model.TrustStoreError{Op: "remove", Err: fmt.Errorf("too many certificates named %q", commonName)}
		}
	}
	if removed == 0 {
		return model.OutcomeAlreadyAbsent, nil
	}
	logging.FromContext(ctx).Info(ctx, "TrustStore:Remove/eok", "cn", commonName, "count", removed)
	return model.OutcomeDeleted, nil
}

// IsTrusted reports whether a certificate named commonName is in the keychain.
func (k *Keychain) IsTrusted(ctx context.Context, commonName string) (bool, error) {
	if err := k.Supported(); err != nil {
		return false, err
	}
	_, err := k.Runner.Run(ctx, nil, "security", "find-certificate", "-c", commonName, k.keychain())
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

func (k *Keychain) privileged(ctx context.Context, args ...string) ([]byte, error) {
	euid := os.Geteuid
	if k.Euid != nil {
		euid = k.Euid
	}
	if euid() == 0 {
		return k.Runner.Run(ctx, nil, "security", args...)
	}
	sudoArgs := []string{"security"}
	if k.Interactive == nil || !k.Interactive() {
		sudoArgs = []string{"-n", "security"}
	}
	return k.Runner.Run(ctx, nil, "sudo", append(sudoArgs, args...)...)
}

func isNotFound(err error) bool {
	var ee *execx.ExitError
	if !errors.As(err, &ee) {
		return false
	}
	return ee.Code == exitItemNotFound || strings.Contains(ee.Stderr, "could not be found")
}
