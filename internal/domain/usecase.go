package domain

import (
	"context"

	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

// AgentUsecase covers the agent lifecycle: creation with background
// provisioning, queries, restart and teardown.
type AgentUsecase interface {
	// CreateAgent persists the record and starts provisioning in the
	// background; the returned agent is in the provisioning state.
	CreateAgent(ctx context.Context, req *CreateAgentRequest) (*entity.Agent, error)
	GetAgent(ctx context.Context, ownerID, agentID string) (*entity.Agent, error)
	ListAgents(ctx context.Context, ownerID, tenantID string) ([]*entity.Agent, error)
	// ProvisioningStatus returns the latest provisioning status for the
	// agent. A running agent with no in-memory status reports complete.
	ProvisioningStatus(ctx context.Context, ownerID, agentID string) (entity.ProvisioningStatus, error)
	RestartAgent(ctx context.Context, ownerID, agentID string) error
	DeleteAgent(ctx context.Context, ownerID, agentID string) error

	// ResolveForRelay authorizes a relay connection: the agent must exist,
	// belong to a tenant owned by the subject, and be running.
	ResolveForRelay(ctx context.Context, ownerID, agentID string) (*entity.Agent, error)
}

// TenantUsecase covers tenant account management.
type TenantUsecase interface {
	CreateTenant(ctx context.Context, req *CreateTenantRequest) (*entity.Tenant, error)
	GetTenant(ctx context.Context, ownerID, tenantID string) (*entity.Tenant, error)
	ListTenants(ctx context.Context, ownerID string) ([]*entity.Tenant, error)
	DeleteTenant(ctx context.Context, ownerID, tenantID string) error
}

// UsageUsecase covers usage metering.
type UsageUsecase interface {
	RecordUsage(ctx context.Context, record *entity.UsageRecord) error
	TenantUsage(ctx context.Context, ownerID, tenantID string) (map[string]int64, error)
}
