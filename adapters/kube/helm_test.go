package kube

import (
	"context"
	"testing"
	"time"

	"github.com/kompox/localdev/domain/model"
)

func TestReleaseManager_UpsertRejectsIncompleteRef(t *testing.T) {
	m := &ReleaseManager{Kubeconfig: "/nonexistent", Timeout: time.Second}
	for _, ref := range []*model.ChartRef{nil, {Chart: "ingress-nginx"}, {Release: "ingress-nginx"}} {
		if _, err := m.Upsert(context.Background(), "ingress-nginx", ref); err == nil {
			t.Errorf("Upsert(%+v) expected error", ref)
		}
	}
}

func TestResolveKubeconfigPath(t *testing.T) {
	t.Setenv("KUBECONFIG", "/tmp/a.yaml:/tmp/b.yaml")
	if got := ResolveKubeconfigPath(""); got != "/tmp/a.yaml" {
		t.Errorf("ResolveKubeconfigPath(\"\") = %q", got)
	}
	if got := ResolveKubeconfigPath("/etc/kube.yaml"); got != "/etc/kube.yaml" {
		t.Errorf("ResolveKubeconfigPath(abs) = %q", got)
	}
}
