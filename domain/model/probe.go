package model

// ProbeKind classifies a verification probe.
type ProbeKind string

const (
	ProbeDNS        ProbeKind = "DNS"
	ProbeHTTP       ProbeKind = "HTTP"
	ProbeResource   ProbeKind = "Resource"
	ProbeTrustStore ProbeKind = "TrustStore"
)

// ProbeResult is the result of one verification probe.
type ProbeResult struct {
	Group   string
	Target  string
	Kind    ProbeKind
	Passed  bool
	Skipped bool
	Detail  string
}
