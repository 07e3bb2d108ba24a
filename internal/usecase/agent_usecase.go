package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Daltonopenclaw/agent-forge/internal/domain"
	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

// agentUsecase implements domain.AgentUsecase.
type agentUsecase struct {
	agents      domain.AgentRepository
	tenants     domain.TenantRepository
	provisioner domain.Provisioner
	logger      *slog.Logger

	// provisionTimeout caps one background provisioning run end to end.
	provisionTimeout time.Duration
}

// NewAgentUsecase creates a new AgentUsecase instance.
func NewAgentUsecase(
	agents domain.AgentRepository,
	tenants domain.TenantRepository,
	provisioner domain.Provisioner,
	logger *slog.Logger,
) domain.AgentUsecase {
	return &agentUsecase{
		agents:           agents,
		tenants:          tenants,
		provisioner:      provisioner,
		logger:           logger,
		provisionTimeout: 10 * time.Minute,
	}
}

func (u *agentUsecase) CreateAgent(ctx context.Context, req *domain.CreateAgentRequest) (*entity.Agent, error) {
	if err := u.validateCreateRequest(req); err != nil {
		return nil, err
	}

	// The tenant must exist and belong to the caller.
	if _, err := u.tenants.GetByIDAndOwner(ctx, req.TenantID, req.OwnerID); err != nil {
		return nil, err
	}

	agent, err := u.agents.Create(ctx, &entity.Agent{
		ID:        uuid.NewString(),
		TenantID:  req.TenantID,
		Name:      req.Name,
		Avatar:    req.Avatar,
		ModelTier: req.ModelTier,
		Status:    entity.AgentStatusProvisioning,
	})
	if err != nil {
		return nil, err
	}

	cfg := &entity.AgentConfig{
		AgentID:         agent.ID,
		TenantID:        agent.TenantID,
		Name:            agent.Name,
		Avatar:          agent.Avatar,
		PersonalityType: req.PersonalityType,
		SoulContent:     req.SoulContent,
		AgentsContent:   req.AgentsContent,
		ModelTier:       agent.ModelTier,
		BYOKProvider:    req.BYOKProvider,
		BYOKAPIKey:      req.BYOKAPIKey,
	}

	// Provisioning is slow; it runs detached from the request context and
	// reconciles the record when it finishes either way.
	go u.provisionInBackground(cfg)

	u.logger.Info("agent created", "agent_id", agent.ID, "tenant_id", agent.TenantID)
	return agent, nil
}

func (u *agentUsecase) provisionInBackground(cfg *entity.AgentConfig) {
	ctx, cancel := context.WithTimeout(context.Background(), u.provisionTimeout)
	defer cancel()

	updates := make(chan entity.ProvisioningStatus, 32)
	go func() {
		// Drain so the provisioner never blocks; status queries go through
		// the provisioner's status map.
		for range updates {
		}
	}()

	result, err := u.provisioner.Provision(ctx, cfg, updates)
	if err != nil {
		u.logger.Error("background provisioning failed", "agent_id", cfg.AgentID, "error", err)
		if uerr := u.agents.UpdateStatus(ctx, cfg.AgentID, entity.AgentStatusError); uerr != nil {
			u.logger.Error("failed to record provisioning failure", "agent_id", cfg.AgentID, "error", uerr)
		}
		return
	}

	if err := u.agents.UpdateProvisioned(ctx, cfg.AgentID, result.Namespace, result.GatewayURL); err != nil {
		u.logger.Error("failed to record provisioning result", "agent_id", cfg.AgentID, "error", err)
	}
}

func (u *agentUsecase) GetAgent(ctx context.Context, ownerID, agentID string) (*entity.Agent, error) {
	return u.getOwnedAgent(ctx, ownerID, agentID)
}

func (u *agentUsecase) ListAgents(ctx context.Context, ownerID, tenantID string) ([]*entity.Agent, error) {
	if _, err := u.tenants.GetByIDAndOwner(ctx, tenantID, ownerID); err != nil {
		return nil, err
	}
	return u.agents.ListByTenant(ctx, tenantID)
}

func (u *agentUsecase) ProvisioningStatus(ctx context.Context, ownerID, agentID string) (entity.ProvisioningStatus, error) {
	agent, err := u.getOwnedAgent(ctx, ownerID, agentID)
	if err != nil {
		return entity.ProvisioningStatus{}, err
	}

	if status, ok := u.provisioner.Status(agentID); ok {
		return status, nil
	}

	// No in-memory status: the process restarted since provisioning ran.
	// Derive a terminal status from the stored record.
	switch agent.Status {
	case entity.AgentStatusRunning:
		return entity.ProvisioningStatus{
			Stage:    entity.StageComplete,
			Progress: 100,
			Message:  "Agent is ready!",
		}, nil
	case entity.AgentStatusError:
		return entity.ProvisioningStatus{
			Stage:   entity.StageError,
			Message: "Provisioning failed",
			Error:   "provisioning failed",
		}, nil
	default:
		return entity.ProvisioningStatus{
			Stage:   entity.StageNamespace,
			Message: "Creating secure environment...",
		}, nil
	}
}

func (u *agentUsecase) RestartAgent(ctx context.Context, ownerID, agentID string) error {
	agent, err := u.getOwnedAgent(ctx, ownerID, agentID)
	if err != nil {
		return err
	}
	if agent.Namespace == "" {
		return domain.NewConflictError("agent is not provisioned yet")
	}

	if err := u.provisioner.RestartRuntime(ctx, agent.Namespace); err != nil {
		return fmt.Errorf("failed to restart agent runtime: %w", err)
	}
	u.logger.Info("agent runtime restarted", "agent_id", agentID, "namespace", agent.Namespace)
	return nil
}

func (u *agentUsecase) DeleteAgent(ctx context.Context, ownerID, agentID string) error {
	agent, err := u.getOwnedAgent(ctx, ownerID, agentID)
	if err != nil {
		return err
	}

	// Namespace may be empty when provisioning never got far enough to
	// record it; derive it deterministically so teardown still works.
	namespace := agent.Namespace
	if namespace == "" {
		namespace = NamespaceFor(agent.Name, agent.ID)
	}

	if err := u.provisioner.Deprovision(ctx, namespace); err != nil {
		return fmt.Errorf("failed to deprovision agent: %w", err)
	}
	if err := u.agents.SoftDelete(ctx, agentID); err != nil {
		return err
	}

	u.logger.Info("agent deleted", "agent_id", agentID, "namespace", namespace)
	return nil
}

func (u *agentUsecase) ResolveForRelay(ctx context.Context, ownerID, agentID string) (*entity.Agent, error) {
	agent, err := u.getOwnedAgent(ctx, ownerID, agentID)
	if err != nil {
		return nil, err
	}
	if agent.Status != entity.AgentStatusRunning || agent.Namespace == "" {
		return nil, domain.NewConflictError("agent is not running")
	}

	// Best-effort activity tracking; a failed touch never blocks a chat.
	if err := u.agents.TouchLastActive(ctx, agentID); err != nil {
		u.logger.Warn("failed to touch agent activity", "agent_id", agentID, "error", err)
	}
	return agent, nil
}

// getOwnedAgent loads the agent and checks the caller owns its tenant.
// Agents the caller cannot see report not-found, never forbidden.
func (u *agentUsecase) getOwnedAgent(ctx context.Context, ownerID, agentID string) (*entity.Agent, error) {
	agent, err := u.agents.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if _, err := u.tenants.GetByIDAndOwner(ctx, agent.TenantID, ownerID); err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewNotFoundError("Agent", agentID)
		}
		return nil, err
	}
	return agent, nil
}

func (u *agentUsecase) validateCreateRequest(req *domain.CreateAgentRequest) error {
	if req.TenantID == "" {
		return domain.NewInvalidInputError("tenant id is required")
	}
	if req.Name == "" {
		return domain.NewInvalidInputError("agent name is required")
	}
	if len(req.Name) > 100 {
		return domain.NewInvalidInputError("agent name must be at most 100 characters")
	}
	if Slugify(req.Name) == "" {
		return domain.NewInvalidInputError("agent name must contain at least one alphanumeric character")
	}
	if req.ModelTier == "" {
		req.ModelTier = entity.ModelTierSmart
	}
	if !req.ModelTier.Valid() {
		return domain.NewInvalidInputError(fmt.Sprintf("invalid model tier: %s", req.ModelTier))
	}
	if req.BYOKAPIKey != "" {
		switch req.BYOKProvider {
		case entity.BYOKProviderAnthropic, entity.BYOKProviderOpenAI:
		default:
			return domain.NewInvalidInputError(fmt.Sprintf("invalid key provider: %s", req.BYOKProvider))
		}
	}
	return nil
}
