package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Daltonopenclaw/agent-forge/internal/domain"
	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

type usageRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewUsageRepository creates a usage metering repository.
func NewUsageRepository(db *pgxpool.Pool, logger *slog.Logger) domain.UsageRepository {
	return &usageRepository{db: db, logger: logger}
}

func (r *usageRepository) Record(ctx context.Context, record *entity.UsageRecord) error {
	quantity, err := sonic.Marshal(record.Quantity)
	if err != nil {
		return fmt.Errorf("failed to encode usage quantity: %w", err)
	}

	agentID := any(record.AgentID)
	if record.AgentID == "" {
		agentID = nil
	}
	ts := any(record.Timestamp)
	if record.Timestamp.IsZero() {
		ts = nil
	}

	_, err = r.db.Exec(ctx, `
		insert into usage_records (id, tenant_id, agent_id, type, quantity, ts)
		values ($1, $2, $3, $4, $5, coalesce($6, now()))
	`, record.ID, record.TenantID, agentID, record.Type, quantity, ts)
	if err != nil {
		r.logger.Error("failed to record usage", "tenant_id", record.TenantID, "type", record.Type, "error", err)
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// SummarizeByTenant aggregates each quantity key across all of a tenant's
// usage records.
func (r *usageRepository) SummarizeByTenant(ctx context.Context, tenantID string) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `
		select kv.key, sum(kv.value::bigint)
		from usage_records, jsonb_each_text(quantity) as kv
		where tenant_id = $1
		group by kv.key
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize usage: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var key string
		var total int64
		if err := rows.Scan(&key, &total); err != nil {
			return nil, fmt.Errorf("failed to scan usage summary: %w", err)
		}
		totals[key] = total
	}
	return totals, rows.Err()
}
