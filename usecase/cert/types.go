// Package cert provisions the wildcard certificate that terminates TLS for
// every ingress of the environment.
package cert

import "github.com/kompox/localdev/domain/model"

// UseCase wires the collaborators needed to issue, trust, and publish the certificate.
type UseCase struct {
	CertTool   model.CertToolPort
	TrustStore model.TrustStorePort
	Cluster    model.ClusterPort
	// TempDir is the parent of per-bundle temporary directories; empty means os.TempDir.
	TempDir string
	// Organization is written into the certificate subject when set.
	Organization string
}
