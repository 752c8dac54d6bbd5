package main

import (
	"context"

	"github.com/kompox/localdev/domain/model"
)

// offlineCluster stands in for the cluster when no client could be built
// from the kubeconfig. Every call reports the construction error, so the
// prerequisite check fails with it before anything is mutated.
type offlineCluster struct {
	err error
}

var _ model.ClusterPort = (*offlineCluster)(nil)

func (c *offlineCluster) Ping(context.Context) error { return c.err }
func (c *offlineCluster) ServerVersion(context.Context) (string, error) {
	return "", c.err
}
func (c *offlineCluster) NamespaceExists(context.Context, string) (bool, error) {
	return false, c.err
}
func (c *offlineCluster) EnsureNamespace(context.Context, string) (model.Outcome, error) {
	return "", c.err
}
func (c *offlineCluster) DeleteNamespace(context.Context, string, model.DeleteOptions) (model.Outcome, error) {
	return "", c.err
}
func (c *offlineCluster) UpsertTLSSecret(context.Context, string, string, []byte, []byte) (model.Outcome, error) {
	return "", c.err
}
func (c *offlineCluster) DeleteSecret(context.Context, string, string) (model.Outcome, error) {
	return "", c.err
}
func (c *offlineCluster) TLSCertificate(context.Context, string, string) ([]byte, error) {
	return nil, c.err
}
func (c *offlineCluster) ApplyManifest(context.Context, string, []byte) (int, error) {
	return 0, c.err
}
func (c *offlineCluster) ApplyIngress(context.Context, model.IngressRule, string) (model.Outcome, error) {
	return "", c.err
}
func (c *offlineCluster) PodsReady(context.Context, string, string) (bool, error) {
	return false, c.err
}
func (c *offlineCluster) StripFinalizers(context.Context, string) (int, error) {
	return 0, c.err
}
func (c *offlineCluster) DeleteNamespacedPersistentVolumes(context.Context, []string) (int, error) {
	return 0, c.err
}
