package cert

import (
	"context"
	"errors"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/logging"
)

// RegisterTrust installs the bundle's certificate as a trusted root,
// replacing any earlier certificate with the same subject. It fails fast
// when the host has no supported trust store.
func (u *UseCase) RegisterTrust(ctx context.Context, bundle *model.CertificateBundle) (err error) {
	ctx, end := logging.Span(ctx, "Cert", "RegisterTrust", "subject", bundle.Subject)
	defer func() { end(err) }()

	if err := u.TrustStore.Supported(); err != nil {
		return &model.TrustStoreError{Op: "check", Err: err}
	}
	if _, err := u.TrustStore.RemoveTrustedRoot(ctx, bundle.Subject); err != nil {
		return asTrustStoreError("remove", err)
	}
	if err := u.TrustStore.AddTrustedRoot(ctx, bundle.CertPath, bundle.Subject); err != nil {
		return asTrustStoreError("add", err)
	}
	return nil
}

// RevokeTrust removes the certificate named subject from the trust store.
func (u *UseCase) RevokeTrust(ctx context.Context, subject string) (model.Outcome, error) {
	if err := u.TrustStore.Supported(); err != nil {
		return model.OutcomeIgnored, &model.TrustStoreError{Op: "check", Err: err}
	}
	out, err := u.TrustStore.RemoveTrustedRoot(ctx, subject)
	if err != nil {
		return out, asTrustStoreError("remove", err)
	}
	return out, nil
}

func asTrustStoreError(op string, err error) error {
	var te *model.TrustStoreError
	if errors.As(err, &te) {
		return err
	}
	return &model.TrustStoreError{Op: op, Err: err}
}
