package dto

import (
	"time"

	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

// CreateAgentRequest represents the HTTP request for creating an agent
type CreateAgentRequest struct {
	TenantID        string `json:"tenantId" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Avatar          string `json:"avatar,omitempty"`
	PersonalityType string `json:"personalityType,omitempty"`
	SoulContent     string `json:"soulContent,omitempty"`
	AgentsContent   string `json:"agentsContent,omitempty"`
	ModelTier       string `json:"modelTier,omitempty"`
	BYOKProvider    string `json:"byokProvider,omitempty"`
	BYOKAPIKey      string `json:"byokApiKey,omitempty"`
}

// AgentResponse represents the HTTP response for an agent record. The BYOK
// key is never echoed back.
type AgentResponse struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenant_id"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar,omitempty"`
	ModelTier    string `json:"model_tier"`
	Status       string `json:"status"`
	Namespace    string `json:"namespace,omitempty"`
	GatewayURL   string `json:"gateway_url,omitempty"`
	LastActiveAt string `json:"last_active_at,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// ToAgentResponse converts an agent entity to its response shape.
func ToAgentResponse(agent *entity.Agent) AgentResponse {
	resp := AgentResponse{
		ID:         agent.ID,
		TenantID:   agent.TenantID,
		Name:       agent.Name,
		Avatar:     agent.Avatar,
		ModelTier:  string(agent.ModelTier),
		Status:     agent.Status,
		Namespace:  agent.Namespace,
		GatewayURL: agent.GatewayURL,
		CreatedAt:  agent.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  agent.UpdatedAt.Format(time.RFC3339),
	}
	if agent.LastActiveAt != nil {
		resp.LastActiveAt = agent.LastActiveAt.Format(time.RFC3339)
	}
	return resp
}

// ToAgentListResponse converts a slice of agent entities.
func ToAgentListResponse(agents []*entity.Agent) []AgentResponse {
	out := make([]AgentResponse, 0, len(agents))
	for _, a := range agents {
		out = append(out, ToAgentResponse(a))
	}
	return out
}
