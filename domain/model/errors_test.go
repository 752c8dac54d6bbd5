package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRemedyOf(t *testing.T) {
	wrapped := fmt.Errorf("install core: %w", &ApplyError{Step: "apply", Resource: "Ingress echo", Err: errors.New("boom")})
	if got := RemedyOf(wrapped); !strings.Contains(got, "recovery") {
		t.Errorf("RemedyOf(ApplyError) = %q", got)
	}
	if got := RemedyOf(errors.New("plain")); got != "" {
		t.Errorf("RemedyOf(plain) = %q", got)
	}
	ts := &TrustStoreError{Op: "add", Err: ErrUnsupportedOS}
	if !errors.Is(ts, ErrUnsupportedOS) {
		t.Error("TrustStoreError does not unwrap to ErrUnsupportedOS")
	}
	if got := ts.Remedy(); !strings.Contains(got, "macOS") {
		t.Errorf("TrustStoreError.Remedy() = %q", got)
	}
}

func TestProbeFailure_Remedy(t *testing.T) {
	tests := []struct {
		kind ProbeKind
		want string
	}{
		{ProbeDNS, "hosts file"},
		{ProbeTrustStore, "interactive terminal"},
		{ProbeResource, "kubectl"},
		{ProbeHTTP, "localdev recovery"},
	}
	for _, tt := range tests {
		err := fmt.Errorf("verify: %w", &ProbeFailure{Result: ProbeResult{Kind: tt.kind, Target: "ingress-nginx/app=echo"}})
		if got := RemedyOf(err); !strings.Contains(got, tt.want) {
			t.Errorf("RemedyOf(%s) = %q, want it to mention %q", tt.kind, got, tt.want)
		}
	}
}
