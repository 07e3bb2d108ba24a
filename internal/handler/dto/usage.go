package dto

// RecordUsageRequest represents one metered usage event
type RecordUsageRequest struct {
	TenantID string           `json:"tenantId" binding:"required"`
	AgentID  string           `json:"agentId,omitempty"`
	Type     string           `json:"type" binding:"required"`
	Quantity map[string]int64 `json:"quantity"`
}

// UsageSummaryResponse aggregates usage per quantity key
type UsageSummaryResponse struct {
	TenantID string           `json:"tenant_id"`
	Totals   map[string]int64 `json:"totals"`
}
