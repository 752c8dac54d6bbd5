package verify

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/logging"
)

// Run executes every probe. Groups whose namespace does not exist are
// skipped entirely. Probe failures are recorded in the summary, never returned.
func (u *UseCase) Run(ctx context.Context) *Summary {
	logger := logging.FromContext(ctx)
	logger.Info(ctx, "Verify:Run/s", "groups", len(u.Components))
	s := &Summary{}
	if !u.Trust {
		u.pinClusterCertificates(ctx)
	}

	for _, spec := range u.Components {
		for _, r := range u.group(ctx, spec) {
			s.add(r)
		}
	}
	s.add(u.trustProbe(ctx))

	for _, r := range s.Results {
		switch {
		case r.Skipped:
			logger.Debug(ctx, "Verify:Probe/skip", "group", r.Group, "kind", r.Kind, "target", r.Target)
		case r.Passed:
			logger.Debug(ctx, "Verify:Probe/ok", "group", r.Group, "kind", r.Kind, "target", r.Target)
		default:
			logger.Warn(ctx, "Verify:Probe/fail", "group", r.Group, "kind", r.Kind, "target", r.Target, "detail", r.Detail)
		}
	}
	logger.Info(ctx, "Verify:Run/eok", "total", s.Total, "passed", s.Passed, "skipped", s.Skipped)
	return s
}

// pinClusterCertificates makes HTTP probes trust the certificates stored in
// the components' TLS secrets. Unreadable secrets are skipped; the HTTP probe
// then reports the verification error.
func (u *UseCase) pinClusterCertificates(ctx context.Context) {
	logger := logging.FromContext(ctx)
	client := u.httpClient()
	seen := map[string]bool{}
	for _, spec := range u.Components {
		for _, name := range spec.SecretNames() {
			key := spec.Namespace + "/" + name
			if seen[key] {
				continue
			}
			seen[key] = true
			cert, err := u.Cluster.TLSCertificate(ctx, spec.Namespace, name)
			if err != nil {
				logger.Debug(ctx, "Verify:PinCertificate/skip", "secret", key, "err", err)
				continue
			}
			client.SetRootCertificateFromString(string(cert))
			logger.Debug(ctx, "Verify:PinCertificate/ok", "secret", key)
		}
	}
}

// probes lists the probes of one group without running them.
func probes(spec model.ComponentSpec) []model.ProbeResult {
	var out []model.ProbeResult
	for _, t := range spec.Readiness {
		out = append(out, model.ProbeResult{Group: spec.Name, Kind: model.ProbeResource, Target: spec.Namespace + "/" + t.Selector})
	}
	for _, r := range spec.Ingress {
		out = append(out,
			model.ProbeResult{Group: spec.Name, Kind: model.ProbeDNS, Target: r.Host},
			model.ProbeResult{Group: spec.Name, Kind: model.ProbeHTTP, Target: r.Host},
		)
	}
	return out
}

func (u *UseCase) group(ctx context.Context, spec model.ComponentSpec) []model.ProbeResult {
	planned := probes(spec)
	exists, err := u.Cluster.NamespaceExists(ctx, spec.Namespace)
	if err != nil {
		return []model.ProbeResult{{
			Group: spec.Name, Kind: model.ProbeResource, Target: spec.Namespace,
			Detail: fmt.Sprintf("check namespace: %v", err),
		}}
	}
	if !exists {
		for i := range planned {
			planned[i].Skipped = true
			planned[i].Detail = "namespace " + spec.Namespace + " not found"
		}
		return planned
	}

	i := 0
	for _, t := range spec.Readiness {
		planned[i].Passed, planned[i].Detail = u.probeResource(ctx, spec.Namespace, t.Selector)
		i++
	}
	for _, r := range spec.Ingress {
		planned[i].Passed, planned[i].Detail = u.probeDNS(ctx, r.Host)
		planned[i+1].Passed, planned[i+1].Detail = u.probeHTTP(ctx, r)
		i += 2
	}
	return planned
}

func (u *UseCase) probeResource(ctx context.Context, namespace, selector string) (bool, string) {
	ready, err := u.Cluster.PodsReady(ctx, namespace, selector)
	switch {
	case err != nil:
		return false, err.Error()
	case !ready:
		return false, "pods not ready"
	default:
		return true, "pods ready"
	}
}

// probeDNS requires both the hosts file entry and a loopback resolution.
func (u *UseCase) probeDNS(ctx context.Context, host string) (bool, string) {
	has, err := u.Hosts.Has(host)
	if err != nil {
		return false, fmt.Sprintf("read hosts file: %v", err)
	}
	if !has {
		return false, "no hosts file entry"
	}
	addrs, err := u.resolver().LookupHost(ctx, host)
	if err != nil {
		return false, err.Error()
	}
	if !slices.Contains(addrs, model.LoopbackAddress) {
		return false, fmt.Sprintf("resolves to %v, not %s", addrs, model.LoopbackAddress)
	}
	return true, "resolves to " + model.LoopbackAddress
}

// probeHTTP passes for any response below 500: the route and TLS work even
// when the backend answers 404 or 401.
func (u *UseCase) probeHTTP(ctx context.Context, r model.IngressRule) (bool, string) {
	resp, err := u.httpClient().R().SetContext(ctx).Get(u.urlFor(r))
	if err != nil {
		return false, err.Error()
	}
	code := resp.StatusCode()
	if code >= 500 {
		return false, fmt.Sprintf("status %d", code)
	}
	return true, fmt.Sprintf("status %d", code)
}

func (u *UseCase) trustProbe(ctx context.Context) model.ProbeResult {
	res := model.ProbeResult{Group: GroupTrust, Kind: model.ProbeTrustStore, Target: u.CertSubject}
	if !u.Trust {
		res.Skipped, res.Detail = true, "trust store integration disabled"
		return res
	}
	if err := u.TrustStore.Supported(); err != nil {
		res.Skipped = errors.Is(err, model.ErrUnsupportedOS)
		res.Detail = err.Error()
		return res
	}
	ok, err := u.TrustStore.IsTrusted(ctx, u.CertSubject)
	switch {
	case err != nil:
		res.Detail = err.Error()
	case !ok:
		res.Detail = "certificate not in trust store"
	default:
		res.Passed, res.Detail = true, "trusted"
	}
	return res
}
