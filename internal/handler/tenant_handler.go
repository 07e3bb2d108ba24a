package handler

import (
	"context"
	"log/slog"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/Daltonopenclaw/agent-forge/internal/domain"
	"github.com/Daltonopenclaw/agent-forge/internal/handler/dto"
	"github.com/Daltonopenclaw/agent-forge/internal/middleware"
)

// TenantHandler handles tenant account requests
type TenantHandler struct {
	usecase domain.TenantUsecase
	logger  *slog.Logger
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(uc domain.TenantUsecase) *TenantHandler {
	return &TenantHandler{
		usecase: uc,
		logger:  slog.Default(),
	}
}

// Create creates a tenant owned by the caller
func (h *TenantHandler) Create(ctx context.Context, c *app.RequestContext) {
	var req dto.CreateTenantRequest
	if err := c.BindJSON(&req); err != nil {
		h.logger.Error("invalid create tenant request", "error", err)
		ErrorResponse(c, domain.ErrInvalidInput)
		return
	}

	tenant, err := h.usecase.CreateTenant(ctx, &domain.CreateTenantRequest{
		Name:    req.Name,
		Slug:    req.Slug,
		OwnerID: middleware.Subject(c),
	})
	if err != nil {
		h.logger.Error("failed to create tenant", "error", err)
		ErrorResponse(c, err)
		return
	}

	CreatedResponse(c, dto.ToTenantResponse(tenant))
}

// Get returns one tenant record
func (h *TenantHandler) Get(ctx context.Context, c *app.RequestContext) {
	tenant, err := h.usecase.GetTenant(ctx, middleware.Subject(c), c.Param("id"))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.ToTenantResponse(tenant))
}

// List returns the caller's tenants
func (h *TenantHandler) List(ctx context.Context, c *app.RequestContext) {
	tenants, err := h.usecase.ListTenants(ctx, middleware.Subject(c))
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, ListResponse{
		Items:      dto.ToTenantListResponse(tenants),
		TotalCount: len(tenants),
	})
}

// Delete soft-deletes a tenant
func (h *TenantHandler) Delete(ctx context.Context, c *app.RequestContext) {
	if err := h.usecase.DeleteTenant(ctx, middleware.Subject(c), c.Param("id")); err != nil {
		ErrorResponse(c, err)
		return
	}
	NoContentResponse(c)
}
