package entity

import "time"

// ModelTier selects the class of model backing an agent.
type ModelTier string

const (
	ModelTierSmart    ModelTier = "smart"
	ModelTierPowerful ModelTier = "powerful"
	ModelTierFast     ModelTier = "fast"
)

// Valid reports whether the tier is one of the known values.
func (t ModelTier) Valid() bool {
	switch t {
	case ModelTierSmart, ModelTierPowerful, ModelTierFast:
		return true
	}
	return false
}

// BYOKProvider identifies the vendor of a user-supplied model credential.
type BYOKProvider string

const (
	BYOKProviderAnthropic BYOKProvider = "anthropic"
	BYOKProviderOpenAI    BYOKProvider = "openai"
)

// AgentConfig is the immutable input to provisioning: everything needed to
// stand up one agent's runtime environment.
type AgentConfig struct {
	AgentID         string
	TenantID        string
	Name            string
	Avatar          string
	PersonalityType string
	SoulContent     string
	AgentsContent   string
	ModelTier       ModelTier
	BYOKProvider    BYOKProvider
	BYOKAPIKey      string
}

// Stage is one discrete step of the provisioning state machine.
type Stage string

const (
	StageNamespace  Stage = "namespace"
	StageStorage    Stage = "storage"
	StageConfig     Stage = "config"
	StageSecrets    Stage = "secrets"
	StageDeployment Stage = "deployment"
	StageHealth     Stage = "health"
	StageIngress    Stage = "ingress"
	StageComplete   Stage = "complete"
	StageError      Stage = "error"
)

// ProvisioningStatus is a point-in-time view of one provisioning run.
// Progress is monotonically non-decreasing within a run and reaches 100
// only on terminal success.
type ProvisioningStatus struct {
	Stage    Stage  `json:"stage"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	Error    string `json:"error,omitempty"`
}

// Agent status values stored in the record store.
const (
	AgentStatusProvisioning = "provisioning"
	AgentStatusRunning      = "running"
	AgentStatusError        = "error"
	AgentStatusDeleted      = "deleted"
)

// Agent is the persisted record of a user-created agent.
type Agent struct {
	ID           string
	TenantID     string
	Name         string
	Avatar       string
	ModelTier    ModelTier
	SystemPrompt string
	Status       string
	// Namespace and GatewayURL are set once provisioning succeeds.
	Namespace    string
	GatewayURL   string
	LastActiveAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Tenant is the owning account for a set of agents.
type Tenant struct {
	ID        string
	Name      string
	Slug      string
	OwnerID   string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// UsageRecord is one metered usage event attributed to a tenant and,
// optionally, a specific agent.
type UsageRecord struct {
	ID        string
	TenantID  string
	AgentID   string
	Type      string
	Quantity  map[string]int64
	Timestamp time.Time
}
