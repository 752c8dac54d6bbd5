package kube

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/kompox/localdev/domain/model"
)

// Client wraps commonly used Kubernetes clients and the underlying REST config.
// It implements model.ClusterPort.
type Client struct {
	// RESTConfig is the configuration used to talk to the API server.
	RESTConfig *rest.Config
	// Clientset provides typed clients for core/built-in resources.
	Clientset kubernetes.Interface
	// Dynamic is used for server-side apply of kinds the typed path does not cover.
	// Optional; when nil such kinds are rejected.
	Dynamic dynamic.Interface
	// Kubeconfig and Context record where the config came from, for messages.
	Kubeconfig string
	Context    string
}

var _ model.ClusterPort = (*Client)(nil)

// Options controls client construction tuning. All fields are optional.
type Options struct {
	// UserAgent adds a custom user agent to the REST config.
	UserAgent string
	// QPS sets the allowed queries per second on the REST client.
	QPS float32
	// Burst sets the client-side rate limiter burst.
	Burst int
}

// applyDefaults applies reasonable defaults if not set.
func (o *Options) applyDefaults() {
	if o.QPS <= 0 {
		o.QPS = 20
	}
	if o.Burst <= 0 {
		o.Burst = 50
	}
}

// ResolveKubeconfigPath returns the kubeconfig path to use: the explicit path
// (with a leading ~ expanded), then $KUBECONFIG, then ~/.kube/config.
func ResolveKubeconfigPath(path string) string {
	home, _ := os.UserHomeDir()
	if path == "" {
		if env := os.Getenv("KUBECONFIG"); env != "" {
			// Only the first entry of a list is honored.
			return strings.Split(env, string(os.PathListSeparator))[0]
		}
		if home != "" {
			return filepath.Join(home, ".kube", "config")
		}
		return ""
	}
	if path[0] == '~' && home != "" {
		return filepath.Join(home, path[1:])
	}
	return path
}

// NewClientFromKubeconfigPath constructs a Client from a kubeconfig file and
// optional context name.
func NewClientFromKubeconfigPath(path, kubeContext string, opts *Options) (*Client, error) {
	path = ResolveKubeconfigPath(path)
	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		return nil, fmt.Errorf("kubeconfig %q not found", path)
	}
	loadingRules := &clientcmd.ClientConfigLoadingRules{ExplicitPath: path}
	overrides := &clientcmd.ConfigOverrides{}
	if kubeContext != "" {
		overrides.CurrentContext = kubeContext
	}
	cc := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides)
	cfg, err := cc.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("build REST config from kubeconfig: %w", err)
	}
	c, err := NewClientFromRESTConfig(cfg, opts)
	if err != nil {
		return nil, err
	}
	c.Kubeconfig = path
	c.Context = kubeContext
	return c, nil
}

// NewClientFromRESTConfig constructs a Client from an existing rest.Config.
func NewClientFromRESTConfig(cfg *rest.Config, opts *Options) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("REST config is nil")
	}
	if opts == nil {
		opts = &Options{}
	}
	opts.applyDefaults()

	cfg.QPS = opts.QPS
	cfg.Burst = opts.Burst
	if opts.UserAgent != "" {
		_ = rest.AddUserAgent(cfg, opts.UserAgent)
	}

	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build clientset: %w", err)
	}
	dy, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build dynamic client: %w", err)
	}

	return &Client{RESTConfig: cfg, Clientset: cs, Dynamic: dy}, nil
}

// NewClientFromClientset wraps an existing clientset, e.g. a fake one in tests.
func NewClientFromClientset(cs kubernetes.Interface) *Client {
	return &Client{Clientset: cs}
}

func (c *Client) ready() error {
	if c == nil || c.Clientset == nil {
		return fmt.Errorf("kube client is not initialized")
	}
	return nil
}

// Ping performs a simple liveness check against the API (list namespaces with limit=1).
func (c *Client) Ping(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	if _, err := c.Clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{Limit: 1}); err != nil {
		return fmt.Errorf("cluster unreachable: %w", err)
	}
	return nil
}

// ServerVersion returns the Kubernetes version string.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	v, err := c.Clientset.Discovery().ServerVersion()
	if err != nil {
		return "", fmt.Errorf("server version: %w", err)
	}
	return v.GitVersion, nil
}

// restMapper builds a discovery-backed REST mapper for server-side apply.
func (c *Client) restMapper() (*restmapper.DeferredDiscoveryRESTMapper, error) {
	if c.RESTConfig == nil {
		return nil, fmt.Errorf("REST config is required for server-side apply")
	}
	dc, err := discovery.NewDiscoveryClientForConfig(c.RESTConfig)
	if err != nil {
		return nil, fmt.Errorf("create discovery client: %w", err)
	}
	return restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(dc)), nil
}
