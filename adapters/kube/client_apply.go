package kube

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	meta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes/scheme"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/logging"
)

// objectClient is the subset of a typed client used for upserts.
type objectClient[T metav1.Object] interface {
	Get(ctx context.Context, name string, opts metav1.GetOptions) (T, error)
	Create(ctx context.Context, obj T, opts metav1.CreateOptions) (T, error)
	Update(ctx context.Context, obj T, opts metav1.UpdateOptions) (T, error)
}

// upsertObject creates obj, or on AlreadyExists updates it in place.
// preserve may copy server-assigned fields from the live object before update.
func upsertObject[T metav1.Object](ctx context.Context, cl objectClient[T], obj T, preserve func(live, desired T)) (model.Outcome, error) {
	if _, err := cl.Create(ctx, obj, metav1.CreateOptions{FieldManager: FieldManager}); err == nil {
		return model.OutcomeCreated, nil
	} else if !apierrors.IsAlreadyExists(err) {
		return "", err
	}
	live, err := cl.Get(ctx, obj.GetName(), metav1.GetOptions{})
	if err != nil {
		return "", err
	}
	obj.SetResourceVersion(live.GetResourceVersion())
	if preserve != nil {
		preserve(live, obj)
	}
	if _, err := cl.Update(ctx, obj, metav1.UpdateOptions{FieldManager: FieldManager}); err != nil {
		return "", err
	}
	return model.OutcomeUpdated, nil
}

// preserveServiceIPs keeps the immutable cluster IP allocation on update.
func preserveServiceIPs(live, desired *corev1.Service) {
	desired.Spec.ClusterIP = live.Spec.ClusterIP
	desired.Spec.ClusterIPs = live.Spec.ClusterIPs
}

// ApplyManifest upserts every object of a multi-document YAML stream.
// Objects without a namespace are placed in namespace. Kinds not handled by
// the typed path are applied with server-side apply when a dynamic client is
// available. It returns the number of objects applied.
func (c *Client) ApplyManifest(ctx context.Context, namespace string, manifest []byte) (count int, err error) {
	if err := c.ready(); err != nil {
		return 0, err
	}

	logger := logging.FromContext(ctx)
	msgSym := "KubeClient:ApplyManifest"
	logger.Info(ctx, msgSym+"/s", "ns", namespace)
	defer func() {
		if err == nil {
			logger.Info(ctx, msgSym+"/eok", "applied", count)
		} else {
			logger.Info(ctx, msgSym+"/efail", "applied", count, "err", err)
		}
	}()

	reader := utilyaml.NewYAMLReader(bufio.NewReader(bytes.NewReader(manifest)))
	decoder := scheme.Codecs.UniversalDeserializer()
	var mapper meta.RESTMapper
	for {
		doc, rerr := reader.Read()
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			return count, fmt.Errorf("read yaml: %w", rerr)
		}
		if len(bytes.TrimSpace(doc)) == 0 {
			continue
		}
		obj, gvk, derr := decoder.Decode(doc, nil, nil)
		if derr != nil {
			if !runtime.IsNotRegisteredError(derr) {
				return count, fmt.Errorf("decode yaml: %w", derr)
			}
			if mapper == nil {
				if mapper, err = c.restMapper(); err != nil {
					return count, err
				}
			}
			if err := c.applyUnstructuredDoc(ctx, doc, namespace, mapper); err != nil {
				return count, err
			}
			count++
			continue
		}
		if err := c.applyTyped(ctx, obj, gvk, namespace); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (c *Client) applyTyped(ctx context.Context, obj runtime.Object, gvk *schema.GroupVersionKind, namespace string) error {
	mo, ok := obj.(metav1.Object)
	if !ok {
		return fmt.Errorf("object %s has no metadata", gvk.Kind)
	}
	if mo.GetName() == "" {
		return fmt.Errorf("object %s missing metadata.name", gvk.String())
	}
	if mo.GetNamespace() == "" {
		mo.SetNamespace(namespace)
	}
	ns := mo.GetNamespace()
	labels := mo.GetLabels()
	if labels == nil {
		labels = map[string]string{}
	}
	if _, ok := labels[LabelAppK8sManagedBy]; !ok {
		labels[LabelAppK8sManagedBy] = ManagedByValue
	}
	mo.SetLabels(labels)

	logger := logging.FromContext(ctx).With("ns", ns, "kind", gvk.Kind, "name", mo.GetName())
	var out model.Outcome
	var err error
	switch o := obj.(type) {
	case *appsv1.Deployment:
		out, err = upsertObject[*appsv1.Deployment](ctx, c.Clientset.AppsV1().Deployments(ns), o, nil)
	case *appsv1.StatefulSet:
		out, err = upsertObject[*appsv1.StatefulSet](ctx, c.Clientset.AppsV1().StatefulSets(ns), o, nil)
	case *corev1.Service:
		out, err = upsertObject[*corev1.Service](ctx, c.Clientset.CoreV1().Services(ns), o, preserveServiceIPs)
	case *corev1.ConfigMap:
		out, err = upsertObject[*corev1.ConfigMap](ctx, c.Clientset.CoreV1().ConfigMaps(ns), o, nil)
	case *corev1.Secret:
		out, err = upsertObject[*corev1.Secret](ctx, c.Clientset.CoreV1().Secrets(ns), o, nil)
	case *corev1.ServiceAccount:
		out, err = upsertObject[*corev1.ServiceAccount](ctx, c.Clientset.CoreV1().ServiceAccounts(ns), o, nil)
	case *networkingv1.Ingress:
		out, err = upsertObject[*networkingv1.Ingress](ctx, c.Clientset.NetworkingV1().Ingresses(ns), o, nil)
	default:
		return fmt.Errorf("unsupported kind %s in manifest", gvk.Kind)
	}
	if err != nil {
		logger.Error(ctx, "KubeClient:Apply/efail", "err", err)
		return fmt.Errorf("apply %s %s: %w", gvk.Kind, mo.GetName(), err)
	}
	logger.Info(ctx, "KubeClient:Apply/eok", "outcome", out)
	return nil
}

// applyUnstructuredDoc performs server-side apply for one YAML document.
func (c *Client) applyUnstructuredDoc(ctx context.Context, doc []byte, namespace string, mapper meta.RESTMapper) error {
	if c.Dynamic == nil {
		return fmt.Errorf("dynamic client is required for kinds outside the core scheme")
	}
	var raw map[string]any
	if err := sigsyaml.Unmarshal(doc, &raw); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	u := &unstructured.Unstructured{Object: raw}
	if u.GetKind() == "" || u.GetAPIVersion() == "" {
		return nil
	}
	gvk := schema.FromAPIVersionAndKind(u.GetAPIVersion(), u.GetKind())
	mapping, err := mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return fmt.Errorf("rest mapping %s: %w", gvk.String(), err)
	}

	// Fill namespace if needed
	if mapping.Scope.Name() == meta.RESTScopeNameNamespace && u.GetNamespace() == "" {
		u.SetNamespace(namespace)
	}
	if u.GetName() == "" {
		return fmt.Errorf("object %s missing metadata.name", gvk.String())
	}

	body, err := json.Marshal(u.Object)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", u.GetKind(), u.GetName(), err)
	}
	ri := resourceInterfaceFor(c.Dynamic, mapping.Resource, u.GetNamespace())
	force := true

	logger := logging.FromContext(ctx).With("ns", u.GetNamespace(), "kind", u.GetKind(), "name", u.GetName())
	if _, err := ri.Patch(ctx, u.GetName(), types.ApplyPatchType, body, metav1.PatchOptions{FieldManager: FieldManager, Force: &force}); err != nil {
		logger.Error(ctx, "KubeClient:Apply/efail", "err", err)
		return fmt.Errorf("apply %s %s: %w", u.GetKind(), u.GetName(), err)
	}
	logger.Info(ctx, "KubeClient:Apply/eok")
	return nil
}

// resourceInterfaceFor returns the dynamic resource interface for gvr/namespace.
func resourceInterfaceFor(dy dynamic.Interface, gvr schema.GroupVersionResource, namespace string) dynamic.ResourceInterface {
	if namespace == "" {
		return dy.Resource(gvr)
	}
	return dy.Resource(gvr).Namespace(namespace)
}
