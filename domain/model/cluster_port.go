package model

import "context"

// DeleteOptions controls tolerant deletion.
type DeleteOptions struct {
	Force              bool
	GracePeriodSeconds *int64
}

// ClusterPort is the cluster-control collaborator (kubectl equivalent).
// Mutations are upserts; deletions treat NotFound as success.
type ClusterPort interface {
	Ping(ctx context.Context) error
	ServerVersion(ctx context.Context) (string, error)
	NamespaceExists(ctx context.Context, name string) (bool, error)
	EnsureNamespace(ctx context.Context, name string) (Outcome, error)
	DeleteNamespace(ctx context.Context, name string, opts DeleteOptions) (Outcome, error)
	UpsertTLSSecret(ctx context.Context, namespace, name string, key, cert []byte) (Outcome, error)
	DeleteSecret(ctx context.Context, namespace, name string) (Outcome, error)
	// TLSCertificate returns the PEM certificate stored in a kubernetes.io/tls Secret.
	TLSCertificate(ctx context.Context, namespace, name string) ([]byte, error)
	ApplyManifest(ctx context.Context, namespace string, manifest []byte) (int, error)
	ApplyIngress(ctx context.Context, rule IngressRule, ingressClass string) (Outcome, error)
	PodsReady(ctx context.Context, namespace, selector string) (bool, error)
	StripFinalizers(ctx context.Context, namespace string) (int, error)
	DeleteNamespacedPersistentVolumes(ctx context.Context, namespaces []string) (int, error)
}

// ReleasePort is the package-release collaborator (helm equivalent).
type ReleasePort interface {
	Check(ctx context.Context) error
	Upsert(ctx context.Context, namespace string, chart *ChartRef) (Outcome, error)
	Uninstall(ctx context.Context, namespace, release string) (Outcome, error)
}

// TrustStorePort is the OS trust store collaborator (macOS security equivalent).
type TrustStorePort interface {
	// Supported returns ErrUnsupportedOS when the host has no usable trust store.
	Supported() error
	AddTrustedRoot(ctx context.Context, certPath, commonName string) error
	RemoveTrustedRoot(ctx context.Context, commonName string) (Outcome, error)
	IsTrusted(ctx context.Context, commonName string) (bool, error)
}

// CertToolPort generates self-signed certificates into a directory.
type CertToolPort interface {
	Check(ctx context.Context) error
	Generate(ctx context.Context, req CertRequest, dir string) (keyPath, certPath string, err error)
}

// HostsPort edits the OS hosts file.
type HostsPort interface {
	Upsert(ctx context.Context, hostname string) error
	RemoveAll(ctx context.Context, suffix string) (int, error)
	Has(hostname string) (bool, error)
}
