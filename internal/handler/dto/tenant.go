package dto

import (
	"time"

	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

// CreateTenantRequest represents the HTTP request for creating a tenant
type CreateTenantRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug,omitempty"`
}

// TenantResponse represents the HTTP response for a tenant record
type TenantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func ToTenantResponse(tenant *entity.Tenant) TenantResponse {
	return TenantResponse{
		ID:        tenant.ID,
		Name:      tenant.Name,
		Slug:      tenant.Slug,
		Status:    tenant.Status,
		CreatedAt: tenant.CreatedAt.Format(time.RFC3339),
		UpdatedAt: tenant.UpdatedAt.Format(time.RFC3339),
	}
}

func ToTenantListResponse(tenants []*entity.Tenant) []TenantResponse {
	out := make([]TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, ToTenantResponse(t))
	}
	return out
}
