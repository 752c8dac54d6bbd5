// Package kubeconfig inspects the cluster a kubeconfig context points at.
package kubeconfig

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// Target describes the cluster selected by a kubeconfig and context.
type Target struct {
	Path      string `json:"path" yaml:"path"`
	Context   string `json:"context" yaml:"context"`
	Cluster   string `json:"cluster" yaml:"cluster"`
	Server    string `json:"server" yaml:"server"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// Local reports whether the API server is on this machine.
func (t Target) Local() bool {
	return IsLocalServer(t.Server)
}

func (t Target) String() string {
	return fmt.Sprintf("%s (%s)", t.Context, t.Server)
}

// Inspect loads path and resolves ctxName, or the current context when empty.
func Inspect(path, ctxName string) (*Target, error) {
	cfg, err := clientcmd.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load kubeconfig %q: %w", path, err)
	}
	return resolve(cfg, path, ctxName)
}

// Parse is like Inspect but reads kubeconfig bytes.
func Parse(data []byte, ctxName string) (*Target, error) {
	cfg, err := clientcmd.Load(data)
	if err != nil {
		return nil, fmt.Errorf("parse kubeconfig: %w", err)
	}
	return resolve(cfg, "", ctxName)
}

func resolve(cfg *clientcmdapi.Config, path, ctxName string) (*Target, error) {
	if ctxName == "" {
		ctxName = cfg.CurrentContext
	}
	if ctxName == "" {
		if len(cfg.Contexts) != 1 {
			return nil, fmt.Errorf("kubeconfig has no current context")
		}
		for k := range cfg.Contexts {
			ctxName = k
		}
	}
	ctx := cfg.Contexts[ctxName]
	if ctx == nil {
		return nil, fmt.Errorf("context %q not found in kubeconfig", ctxName)
	}
	cluster := cfg.Clusters[ctx.Cluster]
	if cluster == nil {
		return nil, fmt.Errorf("referenced cluster %q not found", ctx.Cluster)
	}
	return &Target{
		Path:      path,
		Context:   ctxName,
		Cluster:   ctx.Cluster,
		Server:    cluster.Server,
		Namespace: ctx.Namespace,
	}, nil
}

// localHostnames are names desktop cluster distributions use for their API server.
var localHostnames = []string{"localhost", "kubernetes.docker.internal", "host.docker.internal"}

// IsLocalServer reports whether server is a loopback address or a well-known
// desktop cluster hostname.
func IsLocalServer(server string) bool {
	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, name := range localHostnames {
		if host == name {
			return true
		}
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
