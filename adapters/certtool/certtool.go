// Package certtool generates self-signed certificates for the local ingress.
package certtool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/execx"
	"github.com/kompox/localdev/internal/logging"
	"github.com/kompox/localdev/internal/manifests"
)

// File names written into the target directory.
const (
	KeyFile    = "tls.key"
	CertFile   = "tls.crt"
	ConfigFile = "openssl.cnf"
)

// Tool names accepted by New.
const (
	ToolOpenSSL = "openssl"
	ToolNative  = "native"
)

// New returns the certificate tool registered under name.
func New(name string, runner execx.Runner) (model.CertToolPort, error) {
	switch name {
	case "", ToolOpenSSL:
		return &OpenSSL{Runner: runner}, nil
	case ToolNative:
		return &Native{}, nil
	default:
		return nil, fmt.Errorf("unsupported certificate tool: %s", name)
	}
}

// OpenSSL drives the openssl executable with a rendered request config.
type OpenSSL struct {
	Runner execx.Runner
	// Binary defaults to "openssl".
	Binary string
	// KeyBits defaults to 2048.
	KeyBits int
}

var _ model.CertToolPort = (*OpenSSL)(nil)

func (o *OpenSSL) binary() string {
	if o.Binary == "" {
		return "openssl"
	}
	return o.Binary
}

// Check verifies that the openssl executable is on PATH.
func (o *OpenSSL) Check(ctx context.Context) error {
	if _, err := o.Runner.LookPath(o.binary()); err != nil {
		return fmt.Errorf("%s not found: %w", o.binary(), err)
	}
	return nil
}

// Generate writes a key and a self-signed certificate for req into dir.
func (o *OpenSSL) Generate(ctx context.Context, req model.CertRequest, dir string) (string, string, error) {
	if err := validateRequest(req); err != nil {
		return "", "", err
	}
	cnf, err := manifests.Render(manifests.OpenSSLConfig, req)
	if err != nil {
		return "", "", err
	}
	cnfPath := filepath.Join(dir, ConfigFile)
	if err := os.WriteFile(cnfPath, cnf, 0o600); err != nil {
		return "", "", fmt.Errorf("write %s: %w", cnfPath, err)
	}
	defer func() { _ = os.Remove(cnfPath) }()

	bits := o.KeyBits
	if bits == 0 {
		bits = 2048
	}
	keyPath := filepath.Join(dir, KeyFile)
	certPath := filepath.Join(dir, CertFile)
	args := []string{
		"req", "-x509",
		"-newkey", "rsa:" + strconv.Itoa(bits),
		"-nodes",
		"-keyout", keyPath,
		"-out", certPath,
		"-days", strconv.Itoa(req.ValidityDays),
		"-config", cnfPath,
	}
	logging.FromContext(ctx).Debug(ctx, "CertTool:OpenSSL/s", "subject", req.CommonName, "days", req.ValidityDays)
	if _, err := o.Runner.Run(ctx, nil, o.binary(), args...); err != nil {
		return "", "", err
	}
	return keyPath, certPath, nil
}

func validateRequest(req model.CertRequest) error {
	if req.CommonName == "" {
		return fmt.Errorf("certificate common name is empty")
	}
	if len(req.SANs) == 0 {
		return fmt.Errorf("certificate has no subject alternative names")
	}
	if req.ValidityDays <= 0 {
		return fmt.Errorf("certificate validity must be positive, got %d days", req.ValidityDays)
	}
	return nil
}
