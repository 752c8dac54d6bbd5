package kube

import (
	"context"
	"fmt"

	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/kompox/localdev/domain/model"
)

// BuildIngress converts an IngressRule into a networking/v1 Ingress with TLS.
func BuildIngress(rule model.IngressRule, ingressClass string) *networkingv1.Ingress {
	path := rule.Path
	if path == "" {
		path = "/"
	}
	pathType := networkingv1.PathTypePrefix
	ing := &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{
			Name:      rule.Name(),
			Namespace: rule.Namespace,
			Labels:    managedLabels(map[string]string{LabelAppK8sName: rule.Name()}),
		},
		Spec: networkingv1.IngressSpec{
			TLS: []networkingv1.IngressTLS{{Hosts: []string{rule.Host}, SecretName: rule.TLSSecret}},
			Rules: []networkingv1.IngressRule{{
				Host: rule.Host,
				IngressRuleValue: networkingv1.IngressRuleValue{HTTP: &networkingv1.HTTPIngressRuleValue{
					Paths: []networkingv1.HTTPIngressPath{{
						Path:     path,
						PathType: &pathType,
						Backend: networkingv1.IngressBackend{Service: &networkingv1.IngressServiceBackend{
							Name: rule.ServiceName,
							Port: networkingv1.ServiceBackendPort{Number: rule.ServicePort},
						}},
					}},
				}},
			}},
		},
	}
	if ingressClass != "" {
		ing.Spec.IngressClassName = &ingressClass
	}
	return ing
}

// ApplyIngress upserts the Ingress for rule. The referenced TLS secret must
// already exist in the same namespace.
func (c *Client) ApplyIngress(ctx context.Context, rule model.IngressRule, ingressClass string) (model.Outcome, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	if rule.Host == "" || rule.Namespace == "" || rule.ServiceName == "" {
		return "", fmt.Errorf("ingress rule requires host, namespace and service")
	}
	if rule.TLSSecret != "" {
		if _, err := c.Clientset.CoreV1().Secrets(rule.Namespace).Get(ctx, rule.TLSSecret, metav1.GetOptions{}); err != nil {
			if apierrors.IsNotFound(err) {
				return "", fmt.Errorf("tls secret %s/%s must exist before ingress %s", rule.Namespace, rule.TLSSecret, rule.Host)
			}
			return "", fmt.Errorf("get secret %s/%s: %w", rule.Namespace, rule.TLSSecret, err)
		}
	}
	ing := BuildIngress(rule, ingressClass)
	out, err := upsertObject[*networkingv1.Ingress](ctx, c.Clientset.NetworkingV1().Ingresses(rule.Namespace), ing, nil)
	if err != nil {
		return "", fmt.Errorf("upsert ingress %s/%s: %w", rule.Namespace, ing.Name, err)
	}
	return out, nil
}
