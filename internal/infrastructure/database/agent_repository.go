package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Daltonopenclaw/agent-forge/internal/domain"
	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

// agentRepository implements domain.AgentRepository on PostgreSQL.
type agentRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewAgentRepository creates an agent record repository.
func NewAgentRepository(db *pgxpool.Pool, logger *slog.Logger) domain.AgentRepository {
	return &agentRepository{db: db, logger: logger}
}

const agentColumns = `
	id, tenant_id, name, coalesce(avatar, ''), model_tier,
	coalesce(system_prompt, ''), status,
	coalesce(namespace, ''), coalesce(gateway_url, ''),
	last_active_at, created_at, updated_at, deleted_at`

func scanAgent(row pgx.Row) (*entity.Agent, error) {
	var a entity.Agent
	err := row.Scan(
		&a.ID, &a.TenantID, &a.Name, &a.Avatar, &a.ModelTier,
		&a.SystemPrompt, &a.Status,
		&a.Namespace, &a.GatewayURL,
		&a.LastActiveAt, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *agentRepository) Create(ctx context.Context, agent *entity.Agent) (*entity.Agent, error) {
	row := r.db.QueryRow(ctx, `
		insert into agents (id, tenant_id, name, avatar, model_tier, system_prompt, status)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning`+agentColumns+`
	`, agent.ID, agent.TenantID, agent.Name, agent.Avatar, agent.ModelTier, agent.SystemPrompt, agent.Status)

	created, err := scanAgent(row)
	if err != nil {
		r.logger.Error("failed to create agent record", "agent_id", agent.ID, "error", err)
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return created, nil
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*entity.Agent, error) {
	row := r.db.QueryRow(ctx, `
		select`+agentColumns+`
		from agents
		where id = $1 and deleted_at is null
	`, id)

	agent, err := scanAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewNotFoundError("Agent", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return agent, nil
}

func (r *agentRepository) ListByTenant(ctx context.Context, tenantID string) ([]*entity.Agent, error) {
	rows, err := r.db.Query(ctx, `
		select`+agentColumns+`
		from agents
		where tenant_id = $1 and deleted_at is null
		order by created_at desc
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []*entity.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

func (r *agentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.db.Exec(ctx, `
		update agents set status = $2, updated_at = now()
		where id = $1 and deleted_at is null
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update agent status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("Agent", id)
	}
	return nil
}

func (r *agentRepository) UpdateProvisioned(ctx context.Context, id, namespace, gatewayURL string) error {
	tag, err := r.db.Exec(ctx, `
		update agents
		set status = $2, namespace = $3, gateway_url = $4, updated_at = now()
		where id = $1 and deleted_at is null
	`, id, entity.AgentStatusRunning, namespace, gatewayURL)
	if err != nil {
		return fmt.Errorf("failed to mark agent provisioned: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("Agent", id)
	}
	return nil
}

func (r *agentRepository) TouchLastActive(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		update agents set last_active_at = now()
		where id = $1 and deleted_at is null
	`, id)
	if err != nil {
		return fmt.Errorf("failed to touch agent activity: %w", err)
	}
	return nil
}

func (r *agentRepository) SoftDelete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `
		update agents
		set status = $2, deleted_at = now(), updated_at = now()
		where id = $1 and deleted_at is null
	`, id, entity.AgentStatusDeleted)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("Agent", id)
	}
	return nil
}
