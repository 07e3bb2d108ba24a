package domain

import (
	"context"

	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

// AgentRepository defines data access for agent records.
type AgentRepository interface {
	Create(ctx context.Context, agent *entity.Agent) (*entity.Agent, error)
	GetByID(ctx context.Context, id string) (*entity.Agent, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*entity.Agent, error)
	UpdateStatus(ctx context.Context, id, status string) error
	UpdateProvisioned(ctx context.Context, id, namespace, gatewayURL string) error
	TouchLastActive(ctx context.Context, id string) error
	SoftDelete(ctx context.Context, id string) error
}

// TenantRepository defines data access for tenant records.
type TenantRepository interface {
	Create(ctx context.Context, tenant *entity.Tenant) (*entity.Tenant, error)
	GetByID(ctx context.Context, id string) (*entity.Tenant, error)
	GetByIDAndOwner(ctx context.Context, id, ownerID string) (*entity.Tenant, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Tenant, error)
	SoftDelete(ctx context.Context, id string) error
}

// UsageRepository defines data access for usage metering records.
type UsageRepository interface {
	Record(ctx context.Context, record *entity.UsageRecord) error
	SummarizeByTenant(ctx context.Context, tenantID string) (map[string]int64, error)
}

// TokenVerifier checks a bearer credential against the identity provider
// and returns the authenticated subject.
type TokenVerifier interface {
	VerifyBearerToken(ctx context.Context, token string) (subjectID string, err error)
}

// CreateAgentRequest is the input for creating an agent record and kicking
// off provisioning.
type CreateAgentRequest struct {
	TenantID        string
	OwnerID         string
	Name            string
	Avatar          string
	PersonalityType string
	SoulContent     string
	AgentsContent   string
	ModelTier       entity.ModelTier
	BYOKProvider    entity.BYOKProvider
	BYOKAPIKey      string
}

// CreateTenantRequest is the input for creating a tenant record.
type CreateTenantRequest struct {
	Name    string
	Slug    string
	OwnerID string
}
