package naming

import "testing"

func TestValidateHostname(t *testing.T) {
	tests := []struct {
		host    string
		wantErr bool
	}{
		{host: "echo.localdev.me"},
		{host: "localhost"},
		{host: "", wantErr: true},
		{host: "Echo.localdev.me", wantErr: true},
		{host: "echo_1.localdev.me", wantErr: true},
		{host: "*.localdev.me", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if err := ValidateHostname(tt.host); (err != nil) != tt.wantErr {
				t.Errorf("ValidateHostname(%q) error = %v, wantErr %v", tt.host, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDomain(t *testing.T) {
	if err := ValidateDomain("localdev.me"); err != nil {
		t.Errorf("ValidateDomain() error = %v", err)
	}
	if err := ValidateDomain("localhost"); err == nil {
		t.Error("ValidateDomain(single label) expected error")
	}
}

func TestValidateNamespace(t *testing.T) {
	if err := ValidateNamespace("ingress-nginx"); err != nil {
		t.Errorf("ValidateNamespace() error = %v", err)
	}
	if err := ValidateNamespace("Ingress"); err == nil {
		t.Error("ValidateNamespace(uppercase) expected error")
	}
	if err := ValidateComponentName(""); err == nil {
		t.Error("ValidateComponentName(empty) expected error")
	}
}

func TestHasDomainSuffix(t *testing.T) {
	tests := []struct {
		host, domain string
		want         bool
	}{
		{"echo.localdev.me", "localdev.me", true},
		{"localdev.me", "localdev.me", true},
		{"ECHO.localdev.me.", "localdev.me", true},
		{"notlocaldev.me", "localdev.me", false},
		{"example.com", "localdev.me", false},
	}
	for _, tt := range tests {
		if got := HasDomainSuffix(tt.host, tt.domain); got != tt.want {
			t.Errorf("HasDomainSuffix(%q, %q) = %v, want %v", tt.host, tt.domain, got, tt.want)
		}
	}
	if got := Hostname("grafana", "localdev.me"); got != "grafana.localdev.me" {
		t.Errorf("Hostname() = %q", got)
	}
	if got := Wildcard("localdev.me"); got != "*.localdev.me" {
		t.Errorf("Wildcard() = %q", got)
	}
}
