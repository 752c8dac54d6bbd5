// Package component installs one subsystem of the environment: namespace,
// TLS secret, chart release, manifests, readiness wait, ingress rules, and
// hosts entries.
package component

import (
	"context"
	"time"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/waiter"
)

// DefaultReadinessTimeout applies to readiness targets without their own timeout.
const DefaultReadinessTimeout = 3 * time.Minute

// SecretPublisher copies a certificate bundle into a namespace.
type SecretPublisher interface {
	PublishSecret(ctx context.Context, bundle *model.CertificateBundle, namespace, name string) (model.Outcome, error)
}

// UseCase wires the ports an installation touches.
type UseCase struct {
	Cluster model.ClusterPort
	Release model.ReleasePort
	Hosts   model.HostsPort
	Secrets SecretPublisher
	// IngressClass is set on every Ingress; empty leaves the cluster default.
	IngressClass string
	// Wait is the base polling configuration; each target's timeout overrides Wait.Timeout.
	Wait waiter.Options
}
