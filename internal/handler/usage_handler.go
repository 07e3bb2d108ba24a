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

// UsageHandler handles usage metering requests
type UsageHandler struct {
	usecase domain.UsageUsecase
	logger  *slog.Logger
}

// NewUsageHandler creates a new usage handler
func NewUsageHandler(uc domain.UsageUsecase) *UsageHandler {
	return &UsageHandler{
		usecase: uc,
		logger:  slog.Default(),
	}
}

// Record stores one usage event
func (h *UsageHandler) Record(ctx context.Context, c *app.RequestContext) {
	var req dto.RecordUsageRequest
	if err := c.BindJSON(&req); err != nil {
		h.logger.Error("invalid usage record request", "error", err)
		ErrorResponse(c, domain.ErrInvalidInput)
		return
	}

	err := h.usecase.RecordUsage(ctx, &entity.UsageRecord{
		TenantID: req.TenantID,
		AgentID:  req.AgentID,
		Type:     req.Type,
		Quantity: req.Quantity,
	})
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	CreatedResponse(c, nil)
}

// Summary returns aggregated usage totals for a tenant
func (h *UsageHandler) Summary(ctx context.Context, c *app.RequestContext) {
	tenantID := c.Param("id")
	totals, err := h.usecase.TenantUsage(ctx, middleware.Subject(c), tenantID)
	if err != nil {
		ErrorResponse(c, err)
		return
	}
	SuccessResponse(c, dto.UsageSummaryResponse{
		TenantID: tenantID,
		Totals:   totals,
	})
}
