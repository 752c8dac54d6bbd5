package kube

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kompox/localdev/domain/model"
)

// UpsertTLSSecret creates or overwrites a kubernetes.io/tls Secret.
func (c *Client) UpsertTLSSecret(ctx context.Context, namespace, name string, key, cert []byte) (model.Outcome, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	if namespace == "" || name == "" {
		return "", fmt.Errorf("secret namespace and name are required")
	}
	s := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace, Labels: managedLabels(nil)},
		Type:       corev1.SecretTypeTLS,
		Data: map[string][]byte{
			corev1.TLSCertKey:       cert,
			corev1.TLSPrivateKeyKey: key,
		},
	}
	out, err := upsertObject[*corev1.Secret](ctx, c.Clientset.CoreV1().Secrets(namespace), s, nil)
	if err != nil {
		return "", fmt.Errorf("upsert secret %s/%s: %w", namespace, name, err)
	}
	return out, nil
}

// DeleteSecret deletes a Secret, treating NotFound as success.
func (c *Client) DeleteSecret(ctx context.Context, namespace, name string) (model.Outcome, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	err := c.Clientset.CoreV1().Secrets(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return model.OutcomeAlreadyAbsent, nil
		}
		return "", fmt.Errorf("delete secret %s/%s: %w", namespace, name, err)
	}
	return model.OutcomeDeleted, nil
}

// TLSCertificate returns the tls.crt entry of a Secret.
func (c *Client) TLSCertificate(ctx context.Context, namespace, name string) ([]byte, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	s, err := c.Clientset.CoreV1().Secrets(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("get secret %s/%s: %w", namespace, name, err)
	}
	cert := s.Data[corev1.TLSCertKey]
	if len(cert) == 0 {
		return nil, fmt.Errorf("secret %s/%s has no %s", namespace, name, corev1.TLSCertKey)
	}
	return cert, nil
}
