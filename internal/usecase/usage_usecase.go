package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Daltonopenclaw/agent-forge/internal/domain"
	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

type usageUsecase struct {
	usage   domain.UsageRepository
	tenants domain.TenantRepository
	logger  *slog.Logger
}

// NewUsageUsecase creates a new UsageUsecase instance.
func NewUsageUsecase(usage domain.UsageRepository, tenants domain.TenantRepository, logger *slog.Logger) domain.UsageUsecase {
	return &usageUsecase{usage: usage, tenants: tenants, logger: logger}
}

func (u *usageUsecase) RecordUsage(ctx context.Context, record *entity.UsageRecord) error {
	if record.TenantID == "" {
		return domain.NewInvalidInputError("tenant id is required")
	}
	if record.Type == "" {
		return domain.NewInvalidInputError("usage type is required")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	return u.usage.Record(ctx, record)
}

func (u *usageUsecase) TenantUsage(ctx context.Context, ownerID, tenantID string) (map[string]int64, error) {
	if _, err := u.tenants.GetByIDAndOwner(ctx, tenantID, ownerID); err != nil {
		return nil, err
	}
	return u.usage.SummarizeByTenant(ctx, tenantID)
}
