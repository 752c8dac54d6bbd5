package cert

import (
	"context"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/logging"
)

// PublishSecret creates or overwrites the TLS secret namespace/name with the
// bundle's key pair.
func (u *UseCase) PublishSecret(ctx context.Context, bundle *model.CertificateBundle, namespace, name string) (model.Outcome, error) {
	out, err := u.Cluster.UpsertTLSSecret(ctx, namespace, name, bundle.Key, bundle.Cert)
	if err != nil {
		return out, &model.ApplyError{Step: "publish secret", Resource: namespace + "/" + name, Err: err}
	}
	logging.FromContext(ctx).Debug(ctx, "Cert:PublishSecret/eok", "namespace", namespace, "name", name, "outcome", out)
	return out, nil
}
