package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/network/netpoll"
	"github.com/spf13/cobra"

	"github.com/Daltonopenclaw/agent-forge/internal/config"
	"github.com/Daltonopenclaw/agent-forge/internal/handler"
	"github.com/Daltonopenclaw/agent-forge/internal/infrastructure/auth"
	infradb "github.com/Daltonopenclaw/agent-forge/internal/infrastructure/database"
	infrak8s "github.com/Daltonopenclaw/agent-forge/internal/infrastructure/k8s"
	"github.com/Daltonopenclaw/agent-forge/internal/relay"
	"github.com/Daltonopenclaw/agent-forge/internal/router"
	"github.com/Daltonopenclaw/agent-forge/internal/usecase"
	dbpkg "github.com/Daltonopenclaw/agent-forge/pkg/database"
	k8sclient "github.com/Daltonopenclaw/agent-forge/pkg/k8s"
	"github.com/Daltonopenclaw/agent-forge/pkg/logger"
)

var (
	cfgFile string
	version = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   "agent-forge",
	Short: "Agent Forge control plane for isolated AI agent environments",
	Long: `Agent Forge provisions one isolated Kubernetes namespace per AI agent,
exposes a management API for tenants and agents, and relays chat
WebSocket traffic to the agent runtime gateways.`,
	Version: version,
	Run:     runServer,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "configs/config.yaml", "path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runServer(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.Setup(cfg.Log); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	slog.Info("agent-forge starting...",
		"version", version,
		"config", cfgFile,
	)

	// Route hertz's own logging through slog.
	hlog.SetLogger(logger.NewHertzSlogAdapter(slog.Default()))

	k8sClient, err := k8sclient.NewClient(cfg.Kubernetes)
	if err != nil {
		slog.Error("failed to create kubernetes client", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := k8sClient.HealthCheck(ctx); err != nil {
		slog.Warn("kubernetes health check failed, provisioning may not work", "error", err)
	}

	db, err := dbpkg.NewPool(ctx, cfg.Database, slog.Default())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := infradb.Migrate(ctx, db, slog.Default()); err != nil {
		slog.Error("failed to run database migrations", "error", err)
		os.Exit(1)
	}

	slog.Info("database connected and migrated")

	clusterRepo := infrak8s.NewClusterRepository(k8sClient.GetClientset(), cfg.Platform, slog.Default())
	ingressRepo := infrak8s.NewIngressRepository(k8sClient.GetDynamicClient(), cfg.Platform, slog.Default())
	provisioner := usecase.NewProvisioner(clusterRepo, ingressRepo, cfg.Platform, cfg.Providers, cfg.Provisioner, slog.Default())

	agentRepo := infradb.NewAgentRepository(db, slog.Default())
	tenantRepo := infradb.NewTenantRepository(db, slog.Default())
	usageRepo := infradb.NewUsageRepository(db, slog.Default())

	agentUsecase := usecase.NewAgentUsecase(agentRepo, tenantRepo, provisioner, slog.Default())
	tenantUsecase := usecase.NewTenantUsecase(tenantRepo, slog.Default())
	usageUsecase := usecase.NewUsageUsecase(usageRepo, tenantRepo, slog.Default())

	verifier := auth.NewJWTVerifier(cfg.JWT)

	agentHandler := handler.NewAgentHandler(agentUsecase)
	tenantHandler := handler.NewTenantHandler(tenantUsecase)
	usageHandler := handler.NewUsageHandler(usageUsecase)
	healthHandler := handler.NewHealthHandler(k8sClient, db)

	slog.Info("handlers initialized")

	h := server.Default(
		server.WithHostPorts(cfg.GetServerAddr()),
		server.WithReadTimeout(cfg.GetReadTimeout()),
		server.WithWriteTimeout(cfg.GetWriteTimeout()),
		server.WithMaxRequestBodySize(cfg.Server.MaxRequestBodySize*1024*1024),
		server.WithTransport(netpoll.NewTransporter),
	)

	router.Setup(h, verifier, agentHandler, tenantHandler, usageHandler, healthHandler)

	// The relay runs on its own listener: hertz connections cannot be
	// hijacked for WebSocket upgrades.
	relayServer := relay.NewServer(verifier, agentUsecase, cfg.Platform, cfg.Relay, slog.Default())
	relayHTTP := &http.Server{
		Addr:    cfg.GetRelayAddr(),
		Handler: relayServer.Handler(),
	}

	go func() {
		if err := h.Run(); err != nil {
			slog.Error("api server run failed", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		slog.Info("relay listening", "address", cfg.GetRelayAddr())
		if err := relayHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("relay server run failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("server started successfully",
		"api_address", cfg.GetServerAddr(),
		"relay_address", cfg.GetRelayAddr(),
		"mode", cfg.Server.Mode,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	relayServer.Shutdown(ctx)
	if err := relayHTTP.Shutdown(ctx); err != nil {
		slog.Error("relay shutdown failed", "error", err)
	}

	if err := h.Shutdown(ctx); err != nil {
		slog.Error("api server shutdown failed", "error", err)
		os.Exit(1)
	}

	db.Close()
	slog.Info("server stopped gracefully")
}
