package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/Daltonopenclaw/agent-forge/internal/domain"
	"github.com/Daltonopenclaw/agent-forge/internal/handler"
	"github.com/Daltonopenclaw/agent-forge/internal/middleware"
)

// Setup sets up all routes
func Setup(
	h *server.Hertz,
	verifier domain.TokenVerifier,
	agentHandler *handler.AgentHandler,
	tenantHandler *handler.TenantHandler,
	usageHandler *handler.UsageHandler,
	healthHandler *handler.HealthHandler,
) {
	// Global middleware
	h.Use(middleware.Recovery())
	h.Use(middleware.Logger())
	h.Use(middleware.CORS())

	// Health check routes (no authentication required)
	h.GET("/ping", healthHandler.Ping)
	h.GET("/health/ready", healthHandler.Readiness)
	h.GET("/health/live", healthHandler.Liveness)

	// API v1 routes (all protected; tokens come from the external identity
	// provider)
	apiV1 := h.Group("/api/v1")
	apiV1.Use(middleware.Auth(verifier))
	{
		tenants := apiV1.Group("/tenants")
		{
			tenants.POST("", tenantHandler.Create)
			tenants.GET("", tenantHandler.List)
			tenants.GET("/:id", tenantHandler.Get)
			tenants.DELETE("/:id", tenantHandler.Delete)
			tenants.GET("/:id/usage", usageHandler.Summary)
		}

		agents := apiV1.Group("/agents")
		{
			agents.POST("", agentHandler.Create)
			agents.GET("", agentHandler.List)
			agents.GET("/:id", agentHandler.Get)
			agents.GET("/:id/status", agentHandler.Status)
			agents.POST("/:id/restart", agentHandler.Restart)
			agents.DELETE("/:id", agentHandler.Delete)
		}

		apiV1.POST("/usage", usageHandler.Record)
	}
}
