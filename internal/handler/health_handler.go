package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Daltonopenclaw/agent-forge/pkg/k8s"
)

// HealthHandler answers liveness and readiness probes
type HealthHandler struct {
	k8sClient *k8s.Client
	db        *pgxpool.Pool
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(k8sClient *k8s.Client, db *pgxpool.Pool) *HealthHandler {
	return &HealthHandler{
		k8sClient: k8sClient,
		db:        db,
	}
}

// Ping is a basic health check
func (h *HealthHandler) Ping(ctx context.Context, c *app.RequestContext) {
	c.JSON(200, utils.H{
		"status":  "ok",
		"message": "pong",
	})
}

// Readiness checks the service and its dependencies
func (h *HealthHandler) Readiness(ctx context.Context, c *app.RequestContext) {
	if err := h.k8sClient.HealthCheck(ctx); err != nil {
		c.JSON(503, utils.H{
			"status":     "not_ready",
			"kubernetes": "unhealthy",
			"error":      err.Error(),
		})
		return
	}
	if err := h.db.Ping(ctx); err != nil {
		c.JSON(503, utils.H{
			"status":   "not_ready",
			"database": "unhealthy",
			"error":    err.Error(),
		})
		return
	}

	c.JSON(200, utils.H{
		"status":     "ready",
		"kubernetes": "healthy",
		"database":   "healthy",
	})
}

// Liveness reports process liveness
func (h *HealthHandler) Liveness(ctx context.Context, c *app.RequestContext) {
	c.JSON(200, utils.H{
		"status": "alive",
	})
}
