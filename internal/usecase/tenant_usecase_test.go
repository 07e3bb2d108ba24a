package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Daltonopenclaw/agent-forge/internal/domain"
	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

func TestCreateTenant(t *testing.T) {
	repo := newTestTenantRepository()
	uc := NewTenantUsecase(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tenant, err := uc.CreateTenant(context.Background(), &domain.CreateTenantRequest{
		Name:    "Acme Corp",
		OwnerID: "user-1",
	})
	if err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
	if tenant.Slug != "acme-corp" {
		t.Errorf("slug = %q, want %q", tenant.Slug, "acme-corp")
	}
	if tenant.ID == "" || tenant.Status != "active" {
		t.Errorf("tenant not initialized: %+v", tenant)
	}

	// Same slug again conflicts.
	_, err = uc.CreateTenant(context.Background(), &domain.CreateTenantRequest{
		Name:    "Acme Corp",
		OwnerID: "user-2",
	})
	if !domain.IsAlreadyExists(err) {
		t.Errorf("duplicate slug: got %v, want already-exists", err)
	}
}

func TestCreateTenantValidation(t *testing.T) {
	uc := NewTenantUsecase(newTestTenantRepository(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name string
		req  domain.CreateTenantRequest
	}{
		{"missing name", domain.CreateTenantRequest{OwnerID: "user-1"}},
		{"missing owner", domain.CreateTenantRequest{Name: "Acme"}},
		{"non-canonical slug", domain.CreateTenantRequest{Name: "Acme", OwnerID: "user-1", Slug: "Acme Corp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := uc.CreateTenant(context.Background(), &tt.req); !domain.IsInvalidInput(err) {
				t.Errorf("got %v, want invalid-input", err)
			}
		})
	}
}

func TestTenantOwnershipScoping(t *testing.T) {
	repo := newTestTenantRepository()
	repo.tenants["t1"] = &entity.Tenant{ID: "t1", Name: "Acme", Slug: "acme", OwnerID: "user-1"}
	uc := NewTenantUsecase(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, err := uc.GetTenant(context.Background(), "user-1", "t1"); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := uc.GetTenant(context.Background(), "user-2", "t1"); !domain.IsNotFound(err) {
		t.Errorf("foreign read: got %v, want not-found", err)
	}
	if err := uc.DeleteTenant(context.Background(), "user-2", "t1"); !domain.IsNotFound(err) {
		t.Errorf("foreign delete: got %v, want not-found", err)
	}
	if err := uc.DeleteTenant(context.Background(), "user-1", "t1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

type testUsageRepository struct {
	records []*entity.UsageRecord
}

func (r *testUsageRepository) Record(ctx context.Context, record *entity.UsageRecord) error {
	copied := *record
	r.records = append(r.records, &copied)
	return nil
}

func (r *testUsageRepository) SummarizeByTenant(ctx context.Context, tenantID string) (map[string]int64, error) {
	totals := make(map[string]int64)
	for _, rec := range r.records {
		if rec.TenantID != tenantID {
			continue
		}
		for k, v := range rec.Quantity {
			totals[k] += v
		}
	}
	return totals, nil
}

func TestRecordUsage(t *testing.T) {
	repo := &testUsageRepository{}
	uc := NewUsageUsecase(repo, newTestTenantRepository(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := uc.RecordUsage(context.Background(), &entity.UsageRecord{
		TenantID: "t1",
		Type:     "chat",
		Quantity: map[string]int64{"tokens_in": 120, "tokens_out": 450},
	})
	if err != nil {
		t.Fatalf("RecordUsage: %v", err)
	}
	if len(repo.records) != 1 || repo.records[0].ID == "" {
		t.Errorf("record not persisted with generated id: %+v", repo.records)
	}

	if err := uc.RecordUsage(context.Background(), &entity.UsageRecord{Type: "chat"}); !domain.IsInvalidInput(err) {
		t.Errorf("missing tenant: got %v, want invalid-input", err)
	}
	if err := uc.RecordUsage(context.Background(), &entity.UsageRecord{TenantID: "t1"}); !domain.IsInvalidInput(err) {
		t.Errorf("missing type: got %v, want invalid-input", err)
	}
}

func TestTenantUsageSummary(t *testing.T) {
	tenants := newTestTenantRepository()
	tenants.tenants["t1"] = &entity.Tenant{ID: "t1", Slug: "acme", OwnerID: "user-1"}
	usage := &testUsageRepository{
		records: []*entity.UsageRecord{
			{TenantID: "t1", Type: "chat", Quantity: map[string]int64{"tokens_in": 100}},
			{TenantID: "t1", Type: "chat", Quantity: map[string]int64{"tokens_in": 50, "tokens_out": 30}},
			{TenantID: "t2", Type: "chat", Quantity: map[string]int64{"tokens_in": 999}},
		},
	}
	uc := NewUsageUsecase(usage, tenants, slog.New(slog.NewTextHandler(io.Discard, nil)))

	totals, err := uc.TenantUsage(context.Background(), "user-1", "t1")
	if err != nil {
		t.Fatalf("TenantUsage: %v", err)
	}
	if totals["tokens_in"] != 150 || totals["tokens_out"] != 30 {
		t.Errorf("totals = %v", totals)
	}

	// Usage is owner-scoped like every other tenant read.
	if _, err := uc.TenantUsage(context.Background(), "user-2", "t1"); !domain.IsNotFound(err) {
		t.Errorf("foreign summary: got %v, want not-found", err)
	}
}
