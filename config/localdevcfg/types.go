// Package localdevcfg defines the configuration schema (structs) for localdev.yml.
// Every field has a default, so an absent file describes the stock environment.
package localdevcfg

import "time"

// Root is the root structure of localdev.yml.
type Root struct {
	Version     string      `yaml:"version" default:"v1" validate:"eq=v1"`
	Domain      string      `yaml:"domain" default:"localdev.me" validate:"required,fqdn"`
	Kubeconfig  string      `yaml:"kubeconfig,omitempty"`
	Context     string      `yaml:"context,omitempty"`
	Certificate Certificate `yaml:"certificate"`
	Trust       Trust       `yaml:"trust"`
	Hosts       Hosts       `yaml:"hosts"`
	Ingress     Ingress     `yaml:"ingress"`
	Echo        Echo        `yaml:"echo"`
	Monitoring  Monitoring  `yaml:"monitoring"`
	Tracing     Tracing     `yaml:"tracing"`
	Wait        Wait        `yaml:"wait"`
}

// Certificate configures the wildcard certificate.
type Certificate struct {
	Tool         string `yaml:"tool" default:"openssl" validate:"oneof=openssl native"`
	ValidityDays int    `yaml:"validityDays" default:"365" validate:"min=1,max=3650"`
	Organization string `yaml:"organization" default:"localdev"`
	SecretName   string `yaml:"secretName" default:"wildcard-tls" validate:"required"`
	TempDir      string `yaml:"tempDir,omitempty"`
}

// Trust configures registration of the certificate in the OS trust store.
type Trust struct {
	Enabled  bool   `yaml:"enabled" default:"true"`
	Keychain string `yaml:"keychain" default:"/Library/Keychains/System.keychain"`
}

// Hosts configures the OS hosts file.
type Hosts struct {
	Path string `yaml:"path" default:"/etc/hosts" validate:"required"`
	// Sudo escalates with `sudo tee` when the file is not writable.
	Sudo bool `yaml:"sudo" default:"true"`
}

// Chart references a Helm chart.
type Chart struct {
	Repo    string         `yaml:"repo" validate:"required,url"`
	Name    string         `yaml:"name" validate:"required"`
	Version string         `yaml:"version,omitempty"`
	Release string         `yaml:"release" validate:"required"`
	Values  map[string]any `yaml:"values,omitempty"` // merged over the built-in values
}

// Ingress configures the core ingress controller.
type Ingress struct {
	Namespace string `yaml:"namespace" default:"ingress-nginx"`
	Class     string `yaml:"class" default:"nginx"`
	Chart     Chart  `yaml:"chart" default:"{\"repo\":\"https://kubernetes.github.io/ingress-nginx\",\"name\":\"ingress-nginx\",\"release\":\"ingress-nginx\"}"`
}

// Echo configures the echo test service installed with the core component.
type Echo struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Host    string `yaml:"host" default:"echo"`
	Image   string `yaml:"image" default:"ealen/echo-server:latest"`
}

// Monitoring configures the Prometheus and Grafana stack.
type Monitoring struct {
	Enabled        bool          `yaml:"enabled" default:"true"`
	Namespace      string        `yaml:"namespace" default:"monitoring"`
	Chart          Chart         `yaml:"chart" default:"{\"repo\":\"https://prometheus-community.github.io/helm-charts\",\"name\":\"kube-prometheus-stack\",\"release\":\"kube-prometheus-stack\"}"`
	Retention      string        `yaml:"retention" default:"30d"`
	GrafanaHost    string        `yaml:"grafanaHost" default:"grafana"`
	GrafanaAdmin   string        `yaml:"grafanaAdminPassword" default:"admin"`
	PrometheusHost string        `yaml:"prometheusHost" default:"prometheus"`
	Timeout        time.Duration `yaml:"timeout" default:"10m"`
}

// Tracing configures the Jaeger all-in-one deployment.
type Tracing struct {
	Enabled   bool              `yaml:"enabled" default:"true"`
	Namespace string            `yaml:"namespace" default:"tracing"`
	Host      string            `yaml:"host" default:"jaeger"`
	Image     string            `yaml:"image" default:"jaegertracing/all-in-one:1.57"`
	Env       map[string]string `yaml:"env,omitempty"`
}

// Wait tunes readiness polling.
type Wait struct {
	Timeout     time.Duration `yaml:"timeout" default:"5m"`
	Interval    time.Duration `yaml:"interval" default:"2s"`
	MaxInterval time.Duration `yaml:"maxInterval" default:"15s"`
}
