// Package fakeports provides in-memory implementations of the domain ports
// that share one recorded event log, so tests can assert call ordering and
// count mutations across collaborators.
package fakeports

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/naming"
)

// ErrInjected is returned by operations configured to fail without a specific error.
var ErrInjected = errors.New("injected failure")

// Event is one recorded port call.
type Event struct {
	Op       string // e.g. "cluster.UpsertTLSSecret"
	Key      string // e.g. "ingress-nginx/wildcard-tls"
	Mutating bool
}

func (e Event) String() string { return e.Op + " " + e.Key }

// World is the shared state behind all fakes.
type World struct {
	mu sync.Mutex

	Events     []Event
	Namespaces map[string]bool
	// Terminating namespaces exist but reject EnsureNamespace until finalizers are stripped.
	Terminating map[string]bool
	Secrets     map[string][]byte // "ns/name" -> cert
	Ingresses   map[string]model.IngressRule
	Releases    map[string]string // "ns/release" -> chart
	Manifests   map[string]int    // ns -> documents applied
	Hosts       map[string]bool
	Trusted     map[string]bool
	PVs         map[string]string // pv name -> claim namespace

	// NotReady lists namespaces whose pods never become Ready.
	NotReady map[string]bool
	// Fail maps "op" or "op key" to the error that call returns.
	Fail map[string]error
	// PingErr makes the cluster unreachable.
	PingErr error
	// Unsupported makes the trust store report model.ErrUnsupportedOS.
	Unsupported bool
}

// NewWorld returns an empty world.
func NewWorld() *World {
	return &World{
		Namespaces:  map[string]bool{},
		Terminating: map[string]bool{},
		Secrets:     map[string][]byte{},
		Ingresses:   map[string]model.IngressRule{},
		Releases:    map[string]string{},
		Manifests:   map[string]int{},
		Hosts:       map[string]bool{},
		Trusted:     map[string]bool{},
		PVs:         map[string]string{},
		NotReady:    map[string]bool{},
		Fail:        map[string]error{},
	}
}

// record appends an event and returns the injected failure for it, if any.
// Callers must hold w.mu.
func (w *World) record(op, key string, mutating bool) error {
	w.Events = append(w.Events, Event{Op: op, Key: key, Mutating: mutating})
	if err, ok := w.Fail[op+" "+key]; ok {
		return orInjected(err)
	}
	if err, ok := w.Fail[op]; ok {
		return orInjected(err)
	}
	return nil
}

func orInjected(err error) error {
	if err == nil {
		return ErrInjected
	}
	return err
}

// Mutations returns the recorded mutating events.
func (w *World) Mutations() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []Event
	for _, e := range w.Events {
		if e.Mutating {
			out = append(out, e)
		}
	}
	return out
}

// Index returns the position of the first event matching op and key, or -1.
func (w *World) Index(op, key string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, e := range w.Events {
		if e.Op == op && e.Key == key {
			return i
		}
	}
	return -1
}

// Count returns the number of events with op.
func (w *World) Count(op string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, e := range w.Events {
		if e.Op == op {
			n++
		}
	}
	return n
}

// ResetEvents clears the event log, keeping state.
func (w *World) ResetEvents() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Events = nil
}

// Snapshot summarises the durable state for convergence comparisons.
func (w *World) Snapshot() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for ns := range w.Namespaces {
		out = append(out, "ns "+ns)
	}
	for k := range w.Secrets {
		out = append(out, "secret "+k)
	}
	for h, r := range w.Ingresses {
		out = append(out, "ingress "+r.Namespace+"/"+h)
	}
	for k, c := range w.Releases {
		out = append(out, "release "+k+" "+c)
	}
	for ns, n := range w.Manifests {
		out = append(out, fmt.Sprintf("manifests %s %d", ns, n))
	}
	for h := range w.Hosts {
		out = append(out, "host "+h)
	}
	for cn := range w.Trusted {
		out = append(out, "trusted "+cn)
	}
	sort.Strings(out)
	return out
}

// Cluster implements model.ClusterPort.
type Cluster struct{ W *World }

var _ model.ClusterPort = Cluster{}

func (c Cluster) Ping(context.Context) error {
	c.W.mu.Lock()
	defer c.W.mu.Unlock()
	if err := c.W.record("cluster.Ping", "", false); err != nil {
		return err
	}
	return c.W.PingErr
}

func (c Cluster) ServerVersion(context.Context) (string, error) {
	c.W.mu.Lock()
	defer c.W.mu.Unlock()
	if err := c.W.record("cluster.ServerVersion", "", false); err != nil {
		return "", err
	}
	if c.W.PingErr != nil {
		return "", c.W.PingErr
	}
	return "v1.30.0", nil
}

func (c Cluster) NamespaceExists(_ context.Context, name string) (bool, error) {
	c.W.mu.Lock()
	defer c.W.mu.Unlock()
	if err := c.W.record("cluster.NamespaceExists", name, false); err != nil {
		return false, err
	}
	return c.W.Namespaces[name], nil
}

func (c Cluster) EnsureNamespace(_ context.Context, name string) (model.Outcome, error) {
	c.W.mu.Lock()
	defer c.W.mu.Unlock()
	if err := c.W.record("cluster.EnsureNamespace", name, true); err != nil {
		return "", err
	}
	if c.W.Terminating[name] {
		return "", fmt.Errorf("namespace %s is terminating", name)
	}
	if c.W.Namespaces[name] {
		return model.OutcomeUnchanged, nil
	}
	c.W.Namespaces[name] = true
	return model.OutcomeCreated, nil
}

func (c Cluster) DeleteNamespace(_ context.Context, name string, _ model.DeleteOptions) (model.Outcome, error) {
	c.W.mu.Lock()
	defer c.W.mu.Unlock()
	if err := c.W.record("cluster.DeleteNamespace", name, true); err != nil {
		return "", err
	}
	if !c.W.Namespaces[name] {
		return model.OutcomeAlreadyAbsent, nil
	}
	if c.W.Terminating[name] {
		return model.OutcomeUnchanged, nil
	}
	c.W.removeNamespaceLocked(name)
	return model.OutcomeDeleted, nil
}

func (w *World) removeNamespaceLocked(name string) {
	delete(w.Namespaces, name)
	delete(w.Manifests, name)
	for k := range w.Secrets {
		if strings.HasPrefix(k, name+"/") {
			delete(w.Secrets, k)
		}
	}
	for k := range w.Releases {
		if strings.HasPrefix(k, name+"/") {
			delete(w.Releases, k)
		}
	}
	for h, r := range w.Ingresses {
		if r.Namespace == name {
			delete(w.Ingresses, h)
		}
	}
}

func (c Cluster) UpsertTLSSecret(_ context.Context, namespace, name string, _, cert []byte) (model.Outcome, error) {
	c.W.mu.Lock()
	defer c.W.mu.Unlock()
	key := namespace + "/" + name
	if err := c.W.record("cluster.UpsertTLSSecret", key, true); err != nil {
		return "", err
	}
	if !c.W.Namespaces[namespace] {
		return "", fmt.Errorf("namespaces %q not found", namespace)
	}
	prev, ok := c.W.Secrets[key]
	c.W.Secrets[key] = append([]byte(nil), cert...)
	switch {
	case !ok:
		return model.OutcomeCreated, nil
	case string(prev) == string(cert):
		return model.OutcomeUnchanged, nil
	default:
		return model.OutcomeUpdated, nil
	}
}

func (c Cluster) DeleteSecret(_ context.Context, namespace, name string) (model.Outcome, error) {
	c.W.mu.Lock()
	defer c.W.mu.Unlock()
	key := namespace + "/" + name
	if err := c.W.record("cluster.DeleteSecret", key, true); err != nil {
		return "", err
	}
	if _, ok := c.W.Secrets[key]; !ok {
		return model.OutcomeAlreadyAbsent, nil
	}
	delete(c.W.Secrets, key)
	return model.OutcomeDeleted, nil
}

func (c Cluster) TLSCertificate(_ context.Context, namespace, name string) ([]byte, error) {
	c.W.mu.Lock()
	defer c.W.mu.Unlock()
	key := namespace + "/" + name
	if err := c.W.record("cluster.TLSCertificate", key, false); err != nil {
		return nil, err
	}
	cert, ok := c.W.Secrets[key]
	if !ok {
		return nil, fmt.Errorf("secrets %q not found", key)
	}
	return append([]byte(nil), cert...), nil
}

func (c Cluster) ApplyManifest(_ context.Context, namespace string, manifest []byte) (int, error) {
	c.W.mu.Lock()
	defer c.W.mu.Unlock()
	if err := c.W.record("cluster.ApplyManifest", namespace, true); err != nil {
		return 0, err
	}
	if !c.W.Namespaces[namespace] {
		return 0, fmt.Errorf("namespaces %q not found", namespace)
	}
	n := 0
	for _, doc := range strings.Split(string(manifest), "\n---") {
		if strings.TrimSpace(doc) != "" {
			n++
		}
	}
	c.W.Manifests[namespace] = n
	return n, nil
}

// ApplyIngress fails when the referenced TLS secret is missing, like the real adapter.
func (c Cluster) ApplyIngress(_ context.Context, rule model.IngressRule, _ string) (model.Outcome, error) {
	c.W.mu.Lock()
	defer c.W.mu.Unlock()
	if err := c.W.record("cluster.ApplyIngress", rule.Namespace+"/"+rule.Host, true); err != nil {
		return "", err
	}
	if rule.TLSSecret != "" {
		if _, ok := c.W.Secrets[rule.Namespace+"/"+rule.TLSSecret]; !ok {
			return "", fmt.Errorf("tls secret %s/%s not found", rule.Namespace, rule.TLSSecret)
		}
	}
	prev, ok := c.W.Ingresses[rule.Host]
	c.W.Ingresses[rule.Host] = rule
	switch {
	case !ok:
		return model.OutcomeCreated, nil
	case prev == rule:
		return model.OutcomeUnchanged, nil
	default:
		return model.OutcomeUpdated, nil
	}
}

func (c Cluster) PodsReady(_ context.Context, namespace, selector string) (bool, error) {
	c.W.mu.Lock()
	defer c.W.mu.Unlock()
	if err := c.W.record("cluster.PodsReady", namespace+"/"+selector, false); err != nil {
		return false, err
	}
	return c.W.Namespaces[namespace] && !c.W.NotReady[namespace], nil
}

func (c Cluster) StripFinalizers(_ context.Context, namespace string) (int, error) {
	c.W.mu.Lock()
	defer c.W.mu.Unlock()
	if err := c.W.record("cluster.StripFinalizers", namespace, true); err != nil {
		return 0, err
	}
	if !c.W.Terminating[namespace] {
		return 0, nil
	}
	delete(c.W.Terminating, namespace)
	c.W.removeNamespaceLocked(namespace)
	return 1, nil
}

func (c Cluster) DeleteNamespacedPersistentVolumes(_ context.Context, namespaces []string) (int, error) {
	c.W.mu.Lock()
	defer c.W.mu.Unlock()
	if err := c.W.record("cluster.DeletePersistentVolumes", strings.Join(namespaces, ","), true); err != nil {
		return 0, err
	}
	set := map[string]bool{}
	for _, ns := range namespaces {
		set[ns] = true
	}
	n := 0
	for pv, ns := range c.W.PVs {
		if set[ns] {
			delete(c.W.PVs, pv)
			n++
		}
	}
	return n, nil
}

// Release implements model.ReleasePort.
type Release struct{ W *World }

var _ model.ReleasePort = Release{}

func (r Release) Check(context.Context) error {
	r.W.mu.Lock()
	defer r.W.mu.Unlock()
	return r.W.record("release.Check", "", false)
}

func (r Release) Upsert(_ context.Context, namespace string, chart *model.ChartRef) (model.Outcome, error) {
	r.W.mu.Lock()
	defer r.W.mu.Unlock()
	key := namespace + "/" + chart.Release
	if err := r.W.record("release.Upsert", key, true); err != nil {
		return "", err
	}
	if !r.W.Namespaces[namespace] {
		return "", fmt.Errorf("namespaces %q not found", namespace)
	}
	_, ok := r.W.Releases[key]
	r.W.Releases[key] = chart.Chart
	if ok {
		return model.OutcomeUpdated, nil
	}
	return model.OutcomeCreated, nil
}

func (r Release) Uninstall(_ context.Context, namespace, release string) (model.Outcome, error) {
	r.W.mu.Lock()
	defer r.W.mu.Unlock()
	key := namespace + "/" + release
	if err := r.W.record("release.Uninstall", key, true); err != nil {
		return "", err
	}
	if _, ok := r.W.Releases[key]; !ok {
		return model.OutcomeAlreadyAbsent, nil
	}
	delete(r.W.Releases, key)
	return model.OutcomeDeleted, nil
}

// TrustStore implements model.TrustStorePort.
type TrustStore struct{ W *World }

var _ model.TrustStorePort = TrustStore{}

func (t TrustStore) Supported() error {
	t.W.mu.Lock()
	defer t.W.mu.Unlock()
	if t.W.Unsupported {
		return model.ErrUnsupportedOS
	}
	return nil
}

func (t TrustStore) AddTrustedRoot(_ context.Context, certPath, commonName string) error {
	t.W.mu.Lock()
	defer t.W.mu.Unlock()
	if err := t.W.record("truststore.Add", commonName, true); err != nil {
		return &model.TrustStoreError{Op: "add", Err: err}
	}
	if t.W.Unsupported {
		return &model.TrustStoreError{Op: "add", Err: model.ErrUnsupportedOS}
	}
	if _, err := os.Stat(certPath); err != nil {
		return &model.TrustStoreError{Op: "add", Err: err}
	}
	t.W.Trusted[commonName] = true
	return nil
}

func (t TrustStore) RemoveTrustedRoot(_ context.Context, commonName string) (model.Outcome, error) {
	t.W.mu.Lock()
	defer t.W.mu.Unlock()
	if err := t.W.record("truststore.Remove", commonName, true); err != nil {
		return model.OutcomeIgnored, &model.TrustStoreError{Op: "remove", Err: err}
	}
	if t.W.Unsupported {
		return model.OutcomeIgnored, &model.TrustStoreError{Op: "remove", Err: model.ErrUnsupportedOS}
	}
	if !t.W.Trusted[commonName] {
		return model.OutcomeAlreadyAbsent, nil
	}
	delete(t.W.Trusted, commonName)
	return model.OutcomeDeleted, nil
}

func (t TrustStore) IsTrusted(_ context.Context, commonName string) (bool, error) {
	t.W.mu.Lock()
	defer t.W.mu.Unlock()
	if t.W.Unsupported {
		return false, model.ErrUnsupportedOS
	}
	return t.W.Trusted[commonName], nil
}

// CertTool implements model.CertToolPort by writing placeholder PEM files.
type CertTool struct{ W *World }

var _ model.CertToolPort = CertTool{}

func (c CertTool) Check(context.Context) error {
	c.W.mu.Lock()
	defer c.W.mu.Unlock()
	return c.W.record("certtool.Check", "", false)
}

func (c CertTool) Generate(_ context.Context, req model.CertRequest, dir string) (string, string, error) {
	c.W.mu.Lock()
	defer c.W.mu.Unlock()
	if err := c.W.record("certtool.Generate", req.CommonName, false); err != nil {
		return "", "", err
	}
	keyPath := filepath.Join(dir, "tls.key")
	certPath := filepath.Join(dir, "tls.crt")
	if err := os.WriteFile(keyPath, []byte("KEY "+req.CommonName), 0o600); err != nil {
		return "", "", err
	}
	cert := "CERT " + strings.Join(req.SANs, ",")
	if err := os.WriteFile(certPath, []byte(cert), 0o644); err != nil {
		return "", "", err
	}
	return keyPath, certPath, nil
}

// Hosts implements model.HostsPort.
type Hosts struct{ W *World }

var _ model.HostsPort = Hosts{}

func (h Hosts) Upsert(_ context.Context, hostname string) error {
	h.W.mu.Lock()
	defer h.W.mu.Unlock()
	if err := h.W.record("hosts.Upsert", hostname, true); err != nil {
		return err
	}
	h.W.Hosts[hostname] = true
	return nil
}

func (h Hosts) RemoveAll(_ context.Context, suffix string) (int, error) {
	h.W.mu.Lock()
	defer h.W.mu.Unlock()
	if err := h.W.record("hosts.RemoveAll", suffix, true); err != nil {
		return 0, err
	}
	n := 0
	for host := range h.W.Hosts {
		if naming.HasDomainSuffix(host, suffix) {
			delete(h.W.Hosts, host)
			n++
		}
	}
	return n, nil
}

func (h Hosts) Has(hostname string) (bool, error) {
	h.W.mu.Lock()
	defer h.W.mu.Unlock()
	return h.W.Hosts[hostname], nil
}
