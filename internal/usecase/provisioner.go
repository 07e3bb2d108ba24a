package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Daltonopenclaw/agent-forge/internal/config"
	"github.com/Daltonopenclaw/agent-forge/internal/domain"
	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

// provisioner implements domain.Provisioner: an ordered, idempotent,
// all-or-nothing state machine that stands up one agent's namespace and
// everything inside it.
type provisioner struct {
	cluster   domain.ClusterRepository
	ingress   domain.IngressRepository
	platform  config.PlatformConfig
	providers config.ProvidersConfig
	opts      config.ProvisionerConfig
	logger    *slog.Logger

	// statuses holds the latest status per agent. In-memory only: a
	// process restart loses in-flight status, and callers re-derive it by
	// retrying. Shared by all concurrent provisioning runs.
	mu       sync.RWMutex
	statuses map[string]entity.ProvisioningStatus
}

// NewProvisioner creates a provisioner on top of the cluster and ingress
// repositories.
func NewProvisioner(
	cluster domain.ClusterRepository,
	ingress domain.IngressRepository,
	platform config.PlatformConfig,
	providers config.ProvidersConfig,
	opts config.ProvisionerConfig,
	logger *slog.Logger,
) domain.Provisioner {
	return &provisioner{
		cluster:   cluster,
		ingress:   ingress,
		platform:  platform,
		providers: providers,
		opts:      opts,
		logger:    logger,
		statuses:  make(map[string]entity.ProvisioningStatus),
	}
}

type stage struct {
	stage    entity.Stage
	progress int
	message  string
	run      func(ctx context.Context) error
}

// Provision runs the fixed stage sequence. Any stage failure reports an
// error status, deletes the namespace best-effort, and returns the original
// error.
func (p *provisioner) Provision(ctx context.Context, cfg *entity.AgentConfig, updates chan<- entity.ProvisioningStatus) (*domain.ProvisionResult, error) {
	if updates != nil {
		defer close(updates)
	}

	// Malformed config is rejected before any cluster resource is touched.
	if err := validateAgentConfig(cfg); err != nil {
		return nil, err
	}

	namespace := NamespaceFor(cfg.Name, cfg.AgentID)
	slug := AgentSlug(cfg.Name, cfg.AgentID)
	now := time.Now()

	logger := p.logger.With("agent_id", cfg.AgentID, "namespace", namespace)
	logger.Info("provisioning started", "tenant_id", cfg.TenantID, "model_tier", cfg.ModelTier)

	lastProgress := 0
	report := func(status entity.ProvisioningStatus) {
		// Progress never decreases within one run.
		if status.Progress < lastProgress {
			status.Progress = lastProgress
		}
		lastProgress = status.Progress

		p.mu.Lock()
		p.statuses[cfg.AgentID] = status
		p.mu.Unlock()

		if updates != nil {
			select {
			case updates <- status:
			default:
				// Drop if the consumer is slow; the status map always
				// holds the latest value.
			}
		}
	}

	stages := []stage{
		{entity.StageNamespace, 10, "Creating secure environment...", func(ctx context.Context) error {
			if err := p.cluster.CreateNamespace(ctx, namespace, cfg); err != nil {
				return err
			}
			return p.cluster.CreateResourceQuota(ctx, namespace)
		}},
		{entity.StageStorage, 25, "Allocating storage...", func(ctx context.Context) error {
			return p.cluster.CreateStateVolume(ctx, namespace)
		}},
		{entity.StageConfig, 40, "Configuring personality...", func(ctx context.Context) error {
			return p.cluster.CreateAgentConfigMap(ctx, namespace, agentDocuments(cfg, now))
		}},
		{entity.StageSecrets, 55, "Setting up credentials...", func(ctx context.Context) error {
			return p.cluster.CreateCredentialsSecret(ctx, namespace, p.credentialData(cfg))
		}},
		{entity.StageDeployment, 70, "Starting agent runtime...", func(ctx context.Context) error {
			if err := p.cluster.CreateRuntimeDeployment(ctx, namespace); err != nil {
				return err
			}
			if err := p.cluster.CreateRuntimeService(ctx, namespace); err != nil {
				return err
			}
			return p.cluster.CreateNetworkPolicies(ctx, namespace)
		}},
		{entity.StageHealth, 85, "Waiting for agent to be ready...", func(ctx context.Context) error {
			return p.waitForReady(ctx, namespace)
		}},
		{entity.StageIngress, 95, "Setting up external access...", func(ctx context.Context) error {
			return p.ingress.CreateRoute(ctx, namespace, slug)
		}},
	}

	for _, s := range stages {
		report(entity.ProvisioningStatus{
			Stage:    s.stage,
			Progress: s.progress,
			Message:  s.message,
		})

		if err := s.run(ctx); err != nil {
			logger.Error("provisioning stage failed", "stage", s.stage, "error", err)
			report(entity.ProvisioningStatus{
				Stage:    entity.StageError,
				Progress: lastProgress,
				Message:  "Provisioning failed",
				Error:    err.Error(),
			})
			p.rollback(ctx, namespace, logger)
			return nil, fmt.Errorf("provisioning stage %s failed: %w", s.stage, err)
		}
	}

	report(entity.ProvisioningStatus{
		Stage:    entity.StageComplete,
		Progress: 100,
		Message:  "Agent is ready!",
	})

	gatewayURL := fmt.Sprintf("https://agent-%s.%s", slug, p.platform.Domain)
	logger.Info("provisioning complete", "gateway_url", gatewayURL)

	return &domain.ProvisionResult{
		Namespace:  namespace,
		GatewayURL: gatewayURL,
	}, nil
}

// rollback deletes the namespace as a unit; everything inside it cascades.
// Cleanup errors are logged and swallowed so they never mask the original
// stage failure.
func (p *provisioner) rollback(ctx context.Context, namespace string, logger *slog.Logger) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := p.ingress.DeleteRoute(cleanupCtx, namespace); err != nil {
		logger.Warn("rollback: failed to delete agent route", "error", err)
	}
	if err := p.cluster.DeleteNamespace(cleanupCtx, namespace); err != nil {
		logger.Warn("rollback: failed to delete namespace", "error", err)
	}
}

// Deprovision deletes the external route and the namespace. Both paths are
// idempotent, so deprovisioning an already-deleted agent is a no-op.
func (p *provisioner) Deprovision(ctx context.Context, namespace string) error {
	if err := p.ingress.DeleteRoute(ctx, namespace); err != nil {
		return fmt.Errorf("failed to delete agent route: %w", err)
	}
	if err := p.cluster.DeleteNamespace(ctx, namespace); err != nil {
		return fmt.Errorf("failed to delete namespace: %w", err)
	}
	return nil
}

// RestartRuntime deletes the runtime pods; the deployment controller
// recreates them with current config and secrets.
func (p *provisioner) RestartRuntime(ctx context.Context, namespace string) error {
	return p.cluster.DeleteRuntimePods(ctx, namespace)
}

// Status returns the latest recorded status for the agent, if any.
func (p *provisioner) Status(agentID string) (entity.ProvisioningStatus, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	status, ok := p.statuses[agentID]
	return status, ok
}

// credentialData selects which provider keys the agent's secret carries.
// A BYOK key matching the platform's primary provider replaces the pooled
// aggregator key entirely; otherwise the pooled key is installed and the
// aggregator reaches the vendor. An OpenAI-compatible key is installed
// independently whenever one is configured.
func (p *provisioner) credentialData(cfg *entity.AgentConfig) map[string]string {
	openRouterKey := p.providers.OpenRouterAPIKey
	openAIKey := p.providers.OpenAIAPIKey

	if cfg.BYOKAPIKey != "" {
		switch cfg.BYOKProvider {
		case entity.BYOKProviderAnthropic:
			openRouterKey = ""
		case entity.BYOKProviderOpenAI:
			openAIKey = cfg.BYOKAPIKey
		}
	}

	data := make(map[string]string)
	if openAIKey != "" {
		data["OPENAI_API_KEY"] = openAIKey
	}
	if cfg.BYOKAPIKey != "" && cfg.BYOKProvider == entity.BYOKProviderAnthropic {
		data["ANTHROPIC_API_KEY"] = cfg.BYOKAPIKey
	} else if openRouterKey != "" {
		data["OPENROUTER_API_KEY"] = openRouterKey
	}
	return data
}

// waitForReady polls the runtime deployment until its ready replica count
// reaches the desired count, or the bounded timeout elapses. A timeout is a
// stage failure like any other.
func (p *provisioner) waitForReady(ctx context.Context, namespace string) error {
	deadline := time.Now().Add(p.opts.ReadyTimeout)
	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()

	for {
		ready, err := p.cluster.RuntimeReady(ctx, namespace)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for agent runtime to be ready after %s", p.opts.ReadyTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func validateAgentConfig(cfg *entity.AgentConfig) error {
	if cfg == nil {
		return domain.ErrInvalidInput
	}
	if cfg.AgentID == "" {
		return domain.NewInvalidInputError("agent id is required")
	}
	if cfg.TenantID == "" {
		return domain.NewInvalidInputError("tenant id is required")
	}
	if cfg.Name == "" {
		return domain.NewInvalidInputError("agent name is required")
	}
	if Slugify(cfg.Name) == "" {
		return domain.NewInvalidInputError("agent name must contain at least one alphanumeric character")
	}
	if !cfg.ModelTier.Valid() {
		return domain.NewInvalidInputError(fmt.Sprintf("invalid model tier: %s", cfg.ModelTier))
	}
	if cfg.BYOKAPIKey != "" {
		switch cfg.BYOKProvider {
		case entity.BYOKProviderAnthropic, entity.BYOKProviderOpenAI:
		default:
			return domain.NewInvalidInputError(fmt.Sprintf("invalid key provider: %s", cfg.BYOKProvider))
		}
	}
	return nil
}
