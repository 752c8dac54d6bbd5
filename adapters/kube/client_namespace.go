package kube

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kompox/localdev/domain/model"
)

// NamespaceExists reports whether the namespace exists (including while terminating).
func (c *Client) NamespaceExists(ctx context.Context, name string) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	_, err := c.Clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		return true, nil
	}
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("get namespace %s: %w", name, err)
}

// EnsureNamespace creates a namespace if it does not exist (idempotent).
// A namespace stuck in Terminating is reported as an error since nothing can
// be created inside it.
func (c *Client) EnsureNamespace(ctx context.Context, name string) (model.Outcome, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	if name == "" {
		return "", fmt.Errorf("namespace name is empty")
	}

	ns, err := c.Clientset.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err == nil {
		if ns.Status.Phase == corev1.NamespaceTerminating {
			return "", fmt.Errorf("namespace %s is terminating", name)
		}
		return model.OutcomeUnchanged, nil
	}
	if !apierrors.IsNotFound(err) {
		return "", fmt.Errorf("get namespace %s: %w", name, err)
	}

	_, err = c.Clientset.CoreV1().Namespaces().Create(ctx, &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: name, Labels: managedLabels(nil)},
	}, metav1.CreateOptions{FieldManager: FieldManager})
	if err != nil {
		if apierrors.IsAlreadyExists(err) {
			return model.OutcomeUnchanged, nil
		}
		return "", fmt.Errorf("create namespace %s: %w", name, err)
	}
	return model.OutcomeCreated, nil
}

// DeleteNamespace deletes a namespace if it exists (idempotent best-effort).
// With opts.Force the grace period defaults to zero.
func (c *Client) DeleteNamespace(ctx context.Context, name string, opts model.DeleteOptions) (model.Outcome, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	if name == "" {
		return "", fmt.Errorf("namespace name is empty")
	}

	err := c.Clientset.CoreV1().Namespaces().Delete(ctx, name, deleteOptions(opts))
	if err != nil {
		if apierrors.IsNotFound(err) {
			return model.OutcomeAlreadyAbsent, nil
		}
		return "", fmt.Errorf("delete namespace %s: %w", name, err)
	}
	return model.OutcomeDeleted, nil
}

func deleteOptions(opts model.DeleteOptions) metav1.DeleteOptions {
	policy := metav1.DeletePropagationForeground
	d := metav1.DeleteOptions{PropagationPolicy: &policy, GracePeriodSeconds: opts.GracePeriodSeconds}
	if opts.Force && d.GracePeriodSeconds == nil {
		zero := int64(0)
		d.GracePeriodSeconds = &zero
	}
	return d
}
