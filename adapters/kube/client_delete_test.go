package kube_test

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/kompox/localdev/adapters/kube"
)

func TestStripFinalizers(t *testing.T) {
	ctx := context.Background()
	cs := fake.NewSimpleClientset(
		&corev1.Namespace{
			ObjectMeta: metav1.ObjectMeta{Name: "monitoring"},
			Spec:       corev1.NamespaceSpec{Finalizers: []corev1.FinalizerName{corev1.FinalizerKubernetes}},
		},
		&corev1.PersistentVolumeClaim{ObjectMeta: metav1.ObjectMeta{
			Name: "data", Namespace: "monitoring", Finalizers: []string{"kubernetes.io/pvc-protection"},
		}},
		&corev1.Secret{ObjectMeta: metav1.ObjectMeta{Name: "plain", Namespace: "monitoring"}},
	)
	c := kube.NewClientFromClientset(cs)

	n, err := c.StripFinalizers(ctx, "monitoring")
	if err != nil {
		t.Fatalf("StripFinalizers() error = %v", err)
	}
	if n != 2 {
		t.Errorf("StripFinalizers() = %d, want 2", n)
	}
	pvc, _ := cs.CoreV1().PersistentVolumeClaims("monitoring").Get(ctx, "data", metav1.GetOptions{})
	if len(pvc.Finalizers) != 0 {
		t.Errorf("pvc finalizers = %v", pvc.Finalizers)
	}

	// Re-running is safe and finds nothing left.
	if n, err := c.StripFinalizers(ctx, "monitoring"); err != nil || n != 0 {
		t.Errorf("second StripFinalizers() = %d, %v", n, err)
	}
	if n, err := c.StripFinalizers(ctx, "absent"); err != nil || n != 0 {
		t.Errorf("StripFinalizers(absent) = %d, %v", n, err)
	}
}

func TestDeleteNamespacedPersistentVolumes_ScopedToNamespaces(t *testing.T) {
	ctx := context.Background()
	pv := func(name, claimNs string) *corev1.PersistentVolume {
		p := &corev1.PersistentVolume{ObjectMeta: metav1.ObjectMeta{Name: name, Finalizers: []string{"kubernetes.io/pv-protection"}}}
		if claimNs != "" {
			p.Spec.ClaimRef = &corev1.ObjectReference{Namespace: claimNs, Name: "data"}
		}
		return p
	}
	cs := fake.NewSimpleClientset(pv("ours", "monitoring"), pv("theirs", "team-a"), pv("unbound", ""))
	c := kube.NewClientFromClientset(cs)

	n, err := c.DeleteNamespacedPersistentVolumes(ctx, []string{"monitoring", "tracing"})
	if err != nil {
		t.Fatalf("DeleteNamespacedPersistentVolumes() error = %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
	list, _ := cs.CoreV1().PersistentVolumes().List(ctx, metav1.ListOptions{})
	names := map[string]bool{}
	for _, p := range list.Items {
		names[p.Name] = true
	}
	if names["ours"] || !names["theirs"] || !names["unbound"] {
		t.Errorf("remaining PVs = %v", names)
	}
}
