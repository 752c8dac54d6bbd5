package naming

import (
	"fmt"
	"strings"

	utilvalidation "k8s.io/apimachinery/pkg/util/validation"
)

func validateDNS1123Label(name string, maximum int, labelKind string) error {
	if name == "" {
		return fmt.Errorf("%s name must not be empty", labelKind)
	}
	if len(name) > maximum {
		return fmt.Errorf("%s name exceeds %d characters", labelKind, maximum)
	}
	if errs := utilvalidation.IsDNS1123Label(name); len(errs) > 0 {
		return fmt.Errorf("invalid %s name: %s", labelKind, strings.Join(errs, ", "))
	}
	return nil
}

// ValidateNamespace checks a Kubernetes namespace name.
func ValidateNamespace(name string) error {
	return validateDNS1123Label(name, utilvalidation.DNS1123LabelMaxLength, "namespace")
}

// ValidateComponentName checks a component name; it is used in labels and messages.
func ValidateComponentName(name string) error {
	return validateDNS1123Label(name, 32, "component")
}

// ValidateHostname checks a fully qualified hostname such as "echo.localdev.me".
func ValidateHostname(host string) error {
	if host == "" {
		return fmt.Errorf("hostname must not be empty")
	}
	if errs := utilvalidation.IsDNS1123Subdomain(host); len(errs) > 0 {
		return fmt.Errorf("invalid hostname %q: %s", host, strings.Join(errs, ", "))
	}
	return nil
}

// ValidateDomain checks the base domain under which all hostnames are created.
// It must contain at least one dot so the wildcard certificate is meaningful.
func ValidateDomain(domain string) error {
	if err := ValidateHostname(domain); err != nil {
		return err
	}
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("domain %q must contain at least two labels", domain)
	}
	return nil
}

// Hostname joins a subdomain label and the base domain.
func Hostname(sub, domain string) string {
	if sub == "" {
		return domain
	}
	return sub + "." + domain
}

// Wildcard returns the wildcard subject for domain.
func Wildcard(domain string) string {
	return "*." + domain
}

// HasDomainSuffix reports whether host equals domain or is a subdomain of it.
func HasDomainSuffix(host, domain string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	return host == domain || strings.HasSuffix(host, "."+domain)
}
