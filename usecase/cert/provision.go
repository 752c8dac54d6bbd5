package cert

import (
	"context"
	"fmt"
	"os"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/logging"
)

// ProvisionInput describes the certificate to issue.
type ProvisionInput struct {
	Subject      string `json:"subject"` // wildcard subject, e.g. "*.localdev.me"
	ValidityDays int    `json:"validity_days"`
}

// Provision generates a self-signed key pair for the wildcard subject and
// its apex. The returned bundle owns a temporary directory holding the key;
// the caller must Destroy it. On failure nothing is left on disk.
func (u *UseCase) Provision(ctx context.Context, in *ProvisionInput) (bundle *model.CertificateBundle, err error) {
	if in == nil || in.Subject == "" {
		return nil, &model.CertGenerationError{Err: fmt.Errorf("subject is required")}
	}
	if in.ValidityDays <= 0 {
		return nil, &model.CertGenerationError{Subject: in.Subject, Err: fmt.Errorf("validity must be positive, got %d days", in.ValidityDays)}
	}

	ctx, end := logging.Span(ctx, "Cert", "Provision", "subject", in.Subject, "days", in.ValidityDays)
	defer func() { end(err) }()

	dir, err := os.MkdirTemp(u.TempDir, "localdev-cert-")
	if err != nil {
		return nil, &model.CertGenerationError{Subject: in.Subject, Err: err}
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(dir)
		}
	}()

	req := model.CertRequest{
		CommonName:   in.Subject,
		Organization: u.Organization,
		SANs:         model.WildcardSANs(in.Subject),
		ValidityDays: in.ValidityDays,
	}
	keyPath, certPath, err := u.CertTool.Generate(ctx, req, dir)
	if err != nil {
		return nil, &model.CertGenerationError{Subject: in.Subject, Err: err}
	}
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, &model.CertGenerationError{Subject: in.Subject, Err: err}
	}
	crt, err := os.ReadFile(certPath)
	if err != nil {
		return nil, &model.CertGenerationError{Subject: in.Subject, Err: err}
	}
	return &model.CertificateBundle{
		Key:      key,
		Cert:     crt,
		Subject:  in.Subject,
		SANs:     req.SANs,
		KeyPath:  keyPath,
		CertPath: certPath,
		Dir:      dir,
	}, nil
}

// WithBundle provisions a bundle, passes it to fn, and destroys it when fn
// returns whatever the result.
func (u *UseCase) WithBundle(ctx context.Context, in *ProvisionInput, fn func(*model.CertificateBundle) error) error {
	bundle, err := u.Provision(ctx, in)
	if err != nil {
		return err
	}
	defer func() {
		if derr := bundle.Destroy(); derr != nil {
			logging.FromContext(ctx).Warn(ctx, "Cert:Destroy/efail", "dir", bundle.Dir, "err", derr)
		}
	}()
	return fn(bundle)
}
