package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Daltonopenclaw/agent-forge/internal/config"
	"github.com/Daltonopenclaw/agent-forge/internal/domain"
)

const (
	headerUserID  = "x-agentforge-user-id"
	headerAgentID = "x-agentforge-agent-id"
)

// Server accepts browser WebSocket connections at /ws/agent and bridges
// each one to the agent runtime inside its provisioned namespace.
type Server struct {
	verifier domain.TokenVerifier
	agents   domain.AgentUsecase
	platform config.PlatformConfig
	logger   *slog.Logger

	upgrader websocket.Upgrader
	dialer   *websocket.Dialer

	// runtimeURL builds the dial address for a namespace; swapped out in
	// tests.
	runtimeURL func(namespace string) string

	mu    sync.Mutex
	conns map[*Conn]struct{}
}

// NewServer creates a relay server.
func NewServer(
	verifier domain.TokenVerifier,
	agents domain.AgentUsecase,
	platform config.PlatformConfig,
	relayCfg config.RelayConfig,
	logger *slog.Logger,
) *Server {
	s := &Server{
		verifier: verifier,
		agents:   agents,
		platform: platform,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect cross-origin from the dashboard;
			// auth happens via the bearer token, not the Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: relayCfg.HandshakeTimeout,
		},
		conns: make(map[*Conn]struct{}),
	}
	s.runtimeURL = func(namespace string) string {
		return fmt.Sprintf("ws://gateway.%s.svc.cluster.local:%d", namespace, platform.RuntimePort)
	}
	return s
}

// Handler returns the HTTP handler serving the relay endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/agent", s.handleAgent)
	return mux
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	client, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	query := r.URL.Query()
	agentID := query.Get("agentId")
	token := query.Get("token")
	if agentID == "" || token == "" {
		closeWith(client, CloseMissingParams, "Missing agentId or token")
		return
	}

	userID, err := s.verifier.VerifyBearerToken(r.Context(), token)
	if err != nil {
		closeWith(client, CloseInvalidToken, "Invalid token")
		return
	}

	agent, err := s.agents.ResolveForRelay(r.Context(), userID, agentID)
	if err != nil {
		if domain.IsNotFound(err) || domain.IsConflict(err) {
			closeWith(client, CloseAgentNotFound, "Agent not found")
		} else {
			s.logger.Error("agent resolution failed", "agent_id", agentID, "error", err)
			closeWith(client, CloseInternalError, "Internal error")
		}
		return
	}

	// The trusted headers are honored by the runtime only because network
	// policy restricts who can reach it.
	header := http.Header{}
	header.Set(headerUserID, userID)
	header.Set(headerAgentID, agentID)

	runtime, _, err := s.dialer.DialContext(r.Context(), s.runtimeURL(agent.Namespace), header)
	if err != nil {
		s.logger.Error("runtime dial failed", "agent_id", agentID, "namespace", agent.Namespace, "error", err)
		closeWith(client, CloseAgentConnectFailed, "Agent connection failed")
		return
	}

	conn := newConn(userID, agentID, client, runtime, s.logger, s.remove)
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	s.logger.Info("relay session opened", "agent_id", agentID, "user_id", userID, "namespace", agent.Namespace)
	go conn.run()
}

func (s *Server) remove(conn *Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.logger.Info("relay session closed", "agent_id", conn.agentID, "user_id", conn.userID)
}

// ConnectionCount reports the number of live relay sessions.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Shutdown tears down every live session.
func (s *Server) Shutdown(ctx context.Context) {
	s.mu.Lock()
	conns := make([]*Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		conn.teardown(websocket.CloseGoingAway, "server shutting down")
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
	_ = conn.Close()
}
