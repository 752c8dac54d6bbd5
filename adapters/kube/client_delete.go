package kube

import (
	"context"
	"errors"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kompox/localdev/internal/logging"
)

// StripFinalizers clears finalizers that keep a namespace and its common
// resources stuck in Terminating. It returns how many objects were modified.
// A missing namespace is not an error.
func (c *Client) StripFinalizers(ctx context.Context, namespace string) (int, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	logger := logging.FromContext(ctx).With("ns", namespace)
	var errs []error
	stripped := 0

	core := c.Clientset.CoreV1()
	if list, err := core.PersistentVolumeClaims(namespace).List(ctx, metav1.ListOptions{}); err == nil {
		for i := range list.Items {
			it := &list.Items[i]
			if len(it.Finalizers) == 0 {
				continue
			}
			it.Finalizers = nil
			if _, err := core.PersistentVolumeClaims(namespace).Update(ctx, it, metav1.UpdateOptions{}); err != nil && !apierrors.IsNotFound(err) {
				errs = append(errs, fmt.Errorf("pvc %s: %w", it.Name, err))
				continue
			}
			logger.Info(ctx, "KubeClient:StripFinalizers/eok", "kind", "PersistentVolumeClaim", "name", it.Name)
			stripped++
		}
	} else {
		errs = append(errs, fmt.Errorf("list pvcs: %w", err))
	}

	if list, err := core.Secrets(namespace).List(ctx, metav1.ListOptions{}); err == nil {
		for i := range list.Items {
			it := &list.Items[i]
			if len(it.Finalizers) == 0 {
				continue
			}
			it.Finalizers = nil
			if _, err := core.Secrets(namespace).Update(ctx, it, metav1.UpdateOptions{}); err != nil && !apierrors.IsNotFound(err) {
				errs = append(errs, fmt.Errorf("secret %s: %w", it.Name, err))
				continue
			}
			logger.Info(ctx, "KubeClient:StripFinalizers/eok", "kind", "Secret", "name", it.Name)
			stripped++
		}
	} else {
		errs = append(errs, fmt.Errorf("list secrets: %w", err))
	}

	ns, err := core.Namespaces().Get(ctx, namespace, metav1.GetOptions{})
	switch {
	case apierrors.IsNotFound(err):
	case err != nil:
		errs = append(errs, fmt.Errorf("get namespace: %w", err))
	case len(ns.Spec.Finalizers) > 0 || len(ns.Finalizers) > 0:
		ns.Finalizers = nil
		ns.Spec.Finalizers = nil
		if ns.Status.Phase == corev1.NamespaceTerminating {
			_, err = core.Namespaces().Finalize(ctx, ns, metav1.UpdateOptions{})
		} else {
			_, err = core.Namespaces().Update(ctx, ns, metav1.UpdateOptions{})
		}
		if err != nil && !apierrors.IsNotFound(err) {
			errs = append(errs, fmt.Errorf("finalize namespace: %w", err))
		} else {
			logger.Info(ctx, "KubeClient:StripFinalizers/eok", "kind", "Namespace", "name", namespace)
			stripped++
		}
	}
	return stripped, errors.Join(errs...)
}

// DeleteNamespacedPersistentVolumes deletes persistent volumes whose claim
// lives in one of the given namespaces. Volumes bound elsewhere are left alone.
func (c *Client) DeleteNamespacedPersistentVolumes(ctx context.Context, namespaces []string) (int, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	owned := make(map[string]struct{}, len(namespaces))
	for _, n := range namespaces {
		owned[n] = struct{}{}
	}
	pvs, err := c.Clientset.CoreV1().PersistentVolumes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return 0, fmt.Errorf("list persistent volumes: %w", err)
	}

	var errs []error
	deleted := 0
	for i := range pvs.Items {
		pv := &pvs.Items[i]
		if pv.Spec.ClaimRef == nil {
			continue
		}
		if _, ok := owned[pv.Spec.ClaimRef.Namespace]; !ok {
			continue
		}
		logger := logging.FromContext(ctx).With("kind", "PV", "name", pv.Name, "claimNs", pv.Spec.ClaimRef.Namespace)
		if len(pv.Finalizers) > 0 {
			pv.Finalizers = nil
			if _, err := c.Clientset.CoreV1().PersistentVolumes().Update(ctx, pv, metav1.UpdateOptions{}); err != nil && !apierrors.IsNotFound(err) {
				errs = append(errs, fmt.Errorf("strip finalizers pv %s: %w", pv.Name, err))
			}
		}
		if err := c.Clientset.CoreV1().PersistentVolumes().Delete(ctx, pv.Name, metav1.DeleteOptions{}); err != nil {
			if apierrors.IsNotFound(err) {
				continue
			}
			logger.Info(ctx, "KubeClient:Delete/efail", "err", err)
			errs = append(errs, fmt.Errorf("delete pv %s: %w", pv.Name, err))
			continue
		}
		logger.Info(ctx, "KubeClient:Delete/eok")
		deleted++
	}
	return deleted, errors.Join(errs...)
}
