package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Daltonopenclaw/agent-forge/internal/domain"
	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

type tenantRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewTenantRepository creates a tenant record repository.
func NewTenantRepository(db *pgxpool.Pool, logger *slog.Logger) domain.TenantRepository {
	return &tenantRepository{db: db, logger: logger}
}

const tenantColumns = `
	id, name, slug, owner_id, status, created_at, updated_at, deleted_at`

func scanTenant(row pgx.Row) (*entity.Tenant, error) {
	var t entity.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.OwnerID, &t.Status, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepository) Create(ctx context.Context, tenant *entity.Tenant) (*entity.Tenant, error) {
	row := r.db.QueryRow(ctx, `
		insert into tenants (id, name, slug, owner_id, status)
		values ($1, $2, $3, $4, $5)
		returning`+tenantColumns+`
	`, tenant.ID, tenant.Name, tenant.Slug, tenant.OwnerID, tenant.Status)

	created, err := scanTenant(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.NewAlreadyExistsError("Tenant", tenant.Slug)
		}
		r.logger.Error("failed to create tenant record", "slug", tenant.Slug, "error", err)
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	return created, nil
}

func (r *tenantRepository) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	row := r.db.QueryRow(ctx, `
		select`+tenantColumns+`
		from tenants
		where id = $1 and deleted_at is null
	`, id)

	tenant, err := scanTenant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFoundError("Tenant", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}

func (r *tenantRepository) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*entity.Tenant, error) {
	row := r.db.QueryRow(ctx, `
		select`+tenantColumns+`
		from tenants
		where id = $1 and owner_id = $2 and deleted_at is null
	`, id, ownerID)

	tenant, err := scanTenant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFoundError("Tenant", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}

func (r *tenantRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Tenant, error) {
	rows, err := r.db.Query(ctx, `
		select`+tenantColumns+`
		from tenants
		where owner_id = $1 and deleted_at is null
		order by created_at desc
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*entity.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

func (r *tenantRepository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `
		update tenants set deleted_at = now(), updated_at = now()
		where id = $1 and deleted_at is null
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("Tenant", id)
	}
	return nil
}
