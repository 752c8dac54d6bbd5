package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/kompox/localdev/adapters/certtool"
	"github.com/kompox/localdev/adapters/hosts"
	"github.com/kompox/localdev/adapters/kube"
	"github.com/kompox/localdev/adapters/truststore"
	"github.com/kompox/localdev/config/localdevcfg"
	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/execx"
	"github.com/kompox/localdev/internal/kubeconfig"
	"github.com/kompox/localdev/internal/terminal"
	"github.com/kompox/localdev/internal/waiter"
	"github.com/kompox/localdev/usecase/env"
	"github.com/kompox/localdev/usecase/verify"
)

// loadConfig resolves the configuration file and applies global flag overrides.
func loadConfig(cmd *cobra.Command) (*localdevcfg.Root, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, _, err := localdevcfg.Resolve(path)
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("domain"); v != "" {
		cfg.Domain = v
	}
	if v, _ := cmd.Flags().GetString("kubeconfig"); v != "" {
		cfg.Kubeconfig = v
	}
	if v, _ := cmd.Flags().GetString("context"); v != "" {
		cfg.Context = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildPorts wires the adapters for cfg.
func buildPorts(cfg *localdevcfg.Root) (*env.Ports, error) {
	runner := execx.OSRunner{}
	tool, err := certtool.New(cfg.Certificate.Tool, runner)
	if err != nil {
		return nil, err
	}

	var cluster model.ClusterPort
	client, err := kube.NewClientFromKubeconfigPath(cfg.Kubeconfig, cfg.Context, &kube.Options{UserAgent: "localdev/" + version})
	if err != nil {
		cluster = &offlineCluster{err: err}
	} else {
		cluster = client
	}

	hostsFile := hosts.New(cfg.Hosts.Path)
	hostsFile.Sudo = cfg.Hosts.Sudo
	hostsFile.Interactive = terminal.StdinIsTerminal
	hostsFile.Runner = runner

	keychain := truststore.New(runner)
	keychain.Path = cfg.Trust.Keychain
	keychain.Interactive = terminal.StdinIsTerminal

	return &env.Ports{
		Cluster:    cluster,
		Release:    kube.NewReleaseManager(cfg.Kubeconfig, cfg.Context),
		TrustStore: keychain,
		CertTool:   tool,
		Hosts:      hostsFile,
	}, nil
}

// buildEnvUseCase creates the sequencer for cfg.
func buildEnvUseCase(cfg *localdevcfg.Root) (*env.UseCase, error) {
	ports, err := buildPorts(cfg)
	if err != nil {
		return nil, err
	}
	specs, err := cfg.ToComponentSpecs()
	if err != nil {
		return nil, err
	}
	return &env.UseCase{
		Ports: ports,
		Config: &env.Config{
			Domain:           cfg.Domain,
			Components:       specs,
			Disabled:         cfg.Disabled(),
			CertSubject:      cfg.CertSubject(),
			CertValidityDays: cfg.Certificate.ValidityDays,
			CertOrganization: cfg.Certificate.Organization,
			CertTempDir:      cfg.Certificate.TempDir,
			Trust:            cfg.Trust.Enabled,
			IngressClass:     cfg.Ingress.Class,
			Wait: waiter.Options{
				Timeout:     cfg.Wait.Timeout,
				Interval:    cfg.Wait.Interval,
				MaxInterval: cfg.Wait.MaxInterval,
			},
		},
	}, nil
}

// buildVerifyUseCase creates the verifier for cfg.
func buildVerifyUseCase(cfg *localdevcfg.Root) (*verify.UseCase, error) {
	ports, err := buildPorts(cfg)
	if err != nil {
		return nil, err
	}
	specs, err := cfg.ToComponentSpecs()
	if err != nil {
		return nil, err
	}
	return &verify.UseCase{
		Cluster:     ports.Cluster,
		Hosts:       ports.Hosts,
		TrustStore:  ports.TrustStore,
		HTTP:        verify.NewHTTPClient(10 * time.Second),
		Components:  specs,
		CertSubject: cfg.CertSubject(),
		Trust:       cfg.Trust.Enabled,
	}, nil
}

// inspectTarget describes the cluster the configured context points at.
func inspectTarget(cfg *localdevcfg.Root) (*kubeconfig.Target, error) {
	return kubeconfig.Inspect(kube.ResolveKubeconfigPath(cfg.Kubeconfig), cfg.Context)
}
