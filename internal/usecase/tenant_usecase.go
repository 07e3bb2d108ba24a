package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Daltonopenclaw/agent-forge/internal/domain"
	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

type tenantUsecase struct {
	tenants domain.TenantRepository
	logger  *slog.Logger
}

// NewTenantUsecase creates a new TenantUsecase instance.
func NewTenantUsecase(tenants domain.TenantRepository, logger *slog.Logger) domain.TenantUsecase {
	return &tenantUsecase{tenants: tenants, logger: logger}
}

func (u *tenantUsecase) CreateTenant(ctx context.Context, req *domain.CreateTenantRequest) (*entity.Tenant, error) {
	if req.Name == "" {
		return nil, domain.NewInvalidInputError("tenant name is required")
	}
	if req.OwnerID == "" {
		return nil, domain.NewInvalidInputError("owner id is required")
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}
	if Slugify(slug) != slug || slug == "" {
		return nil, domain.NewInvalidInputError("tenant slug must be lowercase alphanumeric with hyphens")
	}

	tenant, err := u.tenants.Create(ctx, &entity.Tenant{
		ID:      uuid.NewString(),
		Name:    req.Name,
		Slug:    slug,
		OwnerID: req.OwnerID,
		Status:  "active",
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("tenant created", "tenant_id", tenant.ID, "slug", tenant.Slug)
	return tenant, nil
}

func (u *tenantUsecase) GetTenant(ctx context.Context, ownerID, tenantID string) (*entity.Tenant, error) {
	return u.tenants.GetByIDAndOwner(ctx, tenantID, ownerID)
}

func (u *tenantUsecase) ListTenants(ctx context.Context, ownerID string) ([]*entity.Tenant, error) {
	return u.tenants.ListByOwner(ctx, ownerID)
}

func (u *tenantUsecase) DeleteTenant(ctx context.Context, ownerID, tenantID string) error {
	if _, err := u.tenants.GetByIDAndOwner(ctx, tenantID, ownerID); err != nil {
		return err
	}
	return u.tenants.SoftDelete(ctx, tenantID)
}
