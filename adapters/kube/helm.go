package kube

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	helmdriver "helm.sh/helm/v3/pkg/storage/driver"

	"github.com/kompox/localdev/domain/model"
	"github.com/kompox/localdev/internal/logging"
)

// ReleaseManager installs and removes Helm releases with the Helm SDK.
// It implements model.ReleasePort.
type ReleaseManager struct {
	// Kubeconfig and KubeContext select the cluster, like helm's flags of the same name.
	Kubeconfig  string
	KubeContext string
	// Timeout bounds each Helm operation; readiness is awaited separately.
	Timeout time.Duration
}

var _ model.ReleasePort = (*ReleaseManager)(nil)

// NewReleaseManager returns a ReleaseManager for the given kubeconfig and context.
func NewReleaseManager(kubeconfig, kubeContext string) *ReleaseManager {
	return &ReleaseManager{Kubeconfig: ResolveKubeconfigPath(kubeconfig), KubeContext: kubeContext, Timeout: 5 * time.Minute}
}

func (m *ReleaseManager) settings() *cli.EnvSettings {
	settings := cli.New()
	settings.KubeConfig = m.Kubeconfig
	settings.KubeContext = m.KubeContext
	return settings
}

func (m *ReleaseManager) configuration(ctx context.Context, settings *cli.EnvSettings, namespace string) (*action.Configuration, error) {
	logger := logging.FromContext(ctx)
	cfg := new(action.Configuration)
	if err := cfg.Init(settings.RESTClientGetter(), namespace, "secret", func(format string, v ...any) {
		logger.Debugf(ctx, "helm: "+format, v...)
	}); err != nil {
		return nil, fmt.Errorf("init helm configuration: %w", err)
	}
	return cfg, nil
}

// Check verifies that Helm can be configured and reach the cluster.
func (m *ReleaseManager) Check(ctx context.Context) error {
	cfg, err := m.configuration(ctx, m.settings(), "default")
	if err != nil {
		return err
	}
	if err := cfg.KubeClient.IsReachable(); err != nil {
		return fmt.Errorf("helm cannot reach cluster: %w", err)
	}
	return nil
}

func (m *ReleaseManager) loadChart(ref *model.ChartRef, settings *cli.EnvSettings) (*chart.Chart, error) {
	cpo := action.ChartPathOptions{RepoURL: ref.RepoURL, Version: ref.Version}
	chartPath, err := cpo.LocateChart(ref.Chart, settings)
	if err != nil {
		return nil, fmt.Errorf("locate %s chart: %w", ref.Chart, err)
	}
	ch, err := loader.Load(chartPath)
	if err != nil {
		return nil, fmt.Errorf("load %s chart: %w", ref.Chart, err)
	}
	return ch, nil
}

// Upsert upgrades the release, installing it when no deployed release exists.
// It does not wait for workloads; callers poll readiness themselves.
func (m *ReleaseManager) Upsert(ctx context.Context, namespace string, ref *model.ChartRef) (out model.Outcome, err error) {
	if ref == nil || ref.Chart == "" || ref.Release == "" {
		return "", fmt.Errorf("chart reference requires chart and release names")
	}
	logger := logging.FromContext(ctx).With("ns", namespace, "release", ref.Release, "chart", ref.Chart)
	msgSym := "Helm:Upsert"
	logger.Info(ctx, msgSym+"/s")
	defer func() {
		if err == nil {
			logger.Info(ctx, msgSym+"/eok", "outcome", out)
		} else {
			logger.Info(ctx, msgSym+"/efail", "err", err)
		}
	}()

	settings := m.settings()
	cfg, err := m.configuration(ctx, settings, namespace)
	if err != nil {
		return "", err
	}
	ch, err := m.loadChart(ref, settings)
	if err != nil {
		return "", err
	}
	values := map[string]any(ref.Values)
	if values == nil {
		values = map[string]any{}
	}

	// Try upgrade first; if the release doesn't exist, fallback to install (CLI-compatible behavior)
	up := action.NewUpgrade(cfg)
	up.Namespace = namespace
	up.Timeout = m.Timeout
	up.MaxHistory = 5
	if _, err := up.RunWithContext(ctx, ref.Release, ch, values); err != nil {
		if !stdErrors.Is(err, helmdriver.ErrNoDeployedReleases) {
			return "", fmt.Errorf("helm upgrade %s: %w", ref.Release, err)
		}
		in := action.NewInstall(cfg)
		in.Namespace = namespace
		in.ReleaseName = ref.Release
		in.Timeout = m.Timeout
		if _, ierr := in.RunWithContext(ctx, ch, values); ierr != nil {
			return "", fmt.Errorf("helm install %s: %w", ref.Release, ierr)
		}
		return model.OutcomeCreated, nil
	}
	return model.OutcomeUpdated, nil
}

// Uninstall removes the release. A missing release is reported as AlreadyAbsent.
func (m *ReleaseManager) Uninstall(ctx context.Context, namespace, release string) (model.Outcome, error) {
	cfg, err := m.configuration(ctx, m.settings(), namespace)
	if err != nil {
		return "", err
	}
	un := action.NewUninstall(cfg)
	un.Timeout = m.Timeout
	if _, err := un.Run(release); err != nil {
		// When the release doesn't exist, treat as success
		if stdErrors.Is(err, helmdriver.ErrReleaseNotFound) {
			return model.OutcomeAlreadyAbsent, nil
		}
		return "", fmt.Errorf("helm uninstall %s: %w", release, err)
	}
	return model.OutcomeDeleted, nil
}
