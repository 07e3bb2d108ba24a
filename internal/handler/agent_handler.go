package handler

import (
	"context"
	"log/slog"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/Daltonopenclaw/agent-forge/internal/domain"
	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
	"github.com/Daltonopenclaw/agent-forge/internal/handler/dto"
	"github.com/Daltonopenclaw/agent-forge/internal/middleware"
)

// AgentHandler handles agent lifecycle requests
type AgentHandler struct {
	usecase domain.AgentUsecase
	logger  *slog.Logger
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(uc domain.AgentUsecase) *AgentHandler {
	return &AgentHandler{
		usecase: uc,
		logger:  slog.Default(),
	}
}

// Create creates an agent record and starts provisioning in the background
//
//	@Summary		Create agent
//	@Description	Create a new agent and provision its isolated runtime
//	@Tags			Agent Management
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		dto.CreateAgentRequest	true	"Agent configuration"
//	@Success		201		{object}	dto.AgentResponse		"Created, provisioning in progress"
//	@Failure		400		{object}	map[string]string		"Invalid request parameters"
//	@Router			/agents [post]
func (h *AgentHandler) Create(ctx context.Context, c *app.RequestContext) {
	var req dto.CreateAgentRequest
	if err := c.BindJSON(&req); err != nil {
		h.logger.Error("invalid create agent request", "error", err)
		ErrorResponse(c, domain.ErrInvalidInput)
		return
	}

	agent, err := h.usecase.CreateAgent(ctx, &domain.CreateAgentRequest{
		TenantID:        req.TenantID,
		OwnerID:         middleware.Subject(c),
		Name:            req.Name,
		Avatar:          req.Avatar,
		PersonalityType: req.PersonalityType,
		SoulContent:     req.SoulContent,
		AgentsContent:   req.AgentsContent,
		ModelTier:       entity.ModelTier(req.ModelTier),
		BYOKProvider:    entity.BYOKProvider(req.BYOKProvider),
		BYOKAPIKey:      req.BYOKAPIKey,
	})
	if err != nil {
		h.logger.Error("failed to create agent", "error", err)
		ErrorResponse(c, err)
		return
	}

	CreatedResponse(c, dto.ToAgentResponse(agent))
}

// Get returns one agent record
func (h *AgentHandler) Get(ctx context.Context, c *app.RequestContext) {
	agent, err := h.usecase.GetAgent(ctx, middleware.Subject(c), c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToAgentResponse(agent))
}

// List returns all agents in a tenant
func (h *AgentHandler) List(ctx context.Context, c *app.RequestContext) {
	tenantID := c.Query("tenantId")
	if tenantID == "" {
		BadRequestResponse(c, "tenantId query parameter is required")
		return
	}

	agents, err := h.usecase.ListAgents(ctx, middleware.Subject(c), tenantID)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, ListResponse{
		Items:      dto.ToAgentListResponse(agents),
		TotalCount: len(agents),
	})
}

// Status returns the live provisioning status for polling
//
//	@Summary		Provisioning status
//	@Description	Current stage, progress and message of the agent's provisioning run
//	@Tags			Agent Management
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Agent ID"
//	@Success		200	{object}	entity.ProvisioningStatus
//	@Router			/agents/{id}/status [get]
func (h *AgentHandler) Status(ctx context.Context, c *app.RequestContext) {
	status, err := h.usecase.ProvisioningStatus(ctx, middleware.Subject(c), c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, status)
}

// Restart recreates the agent's runtime pods
func (h *AgentHandler) Restart(ctx context.Context, c *app.RequestContext) {
	agentID := c.Param("id")
	if err := h.usecase.RestartAgent(ctx, middleware.Subject(c), agentID); err != nil {
		h.logger.Error("failed to restart agent", "agent_id", agentID, "error", err)
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, nil)
}

// Delete deprovisions the agent and soft-deletes its record
func (h *AgentHandler) Delete(ctx context.Context, c *app.RequestContext) {
	agentID := c.Param("id")
	if err := h.usecase.DeleteAgent(ctx, middleware.Subject(c), agentID); err != nil {
		h.logger.Error("failed to delete agent", "agent_id", agentID, "error", err)
		ErrorResponse(c, err)
		return
	}
	NoContentResponse(c)
}
