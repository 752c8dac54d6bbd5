package kube

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PodsReady reports whether at least one pod matches selector and every
// running pod matching it has the Ready condition. Completed pods are ignored.
func (c *Client) PodsReady(ctx context.Context, namespace, selector string) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	pods, err := c.Clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: selector})
	if err != nil {
		return false, fmt.Errorf("list pods %s in %s: %w", selector, namespace, err)
	}
	counted := 0
	for i := range pods.Items {
		p := &pods.Items[i]
		if p.Status.Phase == corev1.PodSucceeded {
			continue
		}
		counted++
		if !isPodReady(p) {
			return false, nil
		}
	}
	return counted > 0, nil
}

func isPodReady(p *corev1.Pod) bool {
	if p.DeletionTimestamp != nil {
		return false
	}
	for _, c := range p.Status.Conditions {
		if c.Type == corev1.PodReady {
			return c.Status == corev1.ConditionTrue
		}
	}
	return false
}
