// Package verify probes an installed environment and reports pass/fail counts.
package verify

import (
	"context"
	"net"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kompox/localdev/domain/model"
)

// GroupTrust is the group of the global trust store probe.
const GroupTrust = "trust"

// Resolver looks up host addresses. *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// UseCase wires the collaborators the probes read from. It never mutates anything.
type UseCase struct {
	Cluster    model.ClusterPort
	Hosts      model.HostsPort
	TrustStore model.TrustStorePort
	Resolver   Resolver
	HTTP       *resty.Client
	// URLFor builds the probe URL for a rule; defaults to https://<host><path>.
	URLFor func(model.IngressRule) string

	Components  []model.ComponentSpec
	CertSubject string
	Trust       bool
}

// NewHTTPClient returns the client used for HTTP probes. It trusts the
// system roots, so a probe only passes once the certificate is trusted.
// With trust disabled, Run pins the cluster's own certificate instead.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "localdev-verify")
}

func (u *UseCase) resolver() Resolver {
	if u.Resolver == nil {
		return net.DefaultResolver
	}
	return u.Resolver
}

func (u *UseCase) httpClient() *resty.Client {
	if u.HTTP == nil {
		u.HTTP = NewHTTPClient(10 * time.Second)
	}
	return u.HTTP
}

func (u *UseCase) urlFor(r model.IngressRule) string {
	if u.URLFor != nil {
		return u.URLFor(r)
	}
	path := r.Path
	if path == "" {
		path = "/"
	}
	return "https://" + r.Host + path
}

// Summary aggregates probe results. Skipped probes are not counted.
type Summary struct {
	Total   int                 `json:"total"`
	Passed  int                 `json:"passed"`
	Skipped int                 `json:"skipped"`
	Results []model.ProbeResult `json:"results"`
}

// OK reports whether every counted probe passed.
func (s *Summary) OK() bool { return s.Passed == s.Total }

// Failures returns one ProbeFailure per failed probe.
func (s *Summary) Failures() []error {
	var errs []error
	for _, r := range s.Results {
		if !r.Skipped && !r.Passed {
			errs = append(errs, &model.ProbeFailure{Result: r})
		}
	}
	return errs
}

func (s *Summary) add(r model.ProbeResult) {
	s.Results = append(s.Results, r)
	switch {
	case r.Skipped:
		s.Skipped++
	case r.Passed:
		s.Total++
		s.Passed++
	default:
		s.Total++
	}
}
