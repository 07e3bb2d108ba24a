package relay

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// chatSessionKey is the runtime session all relayed chat lands in.
	chatSessionKey = "main"

	closeWriteWait = 5 * time.Second
)

// Conn pairs one external client socket with one internal runtime socket
// and bridges between the two protocols. Each Conn owns its two forwarding
// loops; nothing is shared across connections except the server registry.
type Conn struct {
	userID  string
	agentID string
	client  *websocket.Conn
	runtime *websocket.Conn
	logger  *slog.Logger

	// onClose removes the connection from the server registry. Invoked
	// exactly once, from whichever side tears down first.
	onClose   func(*Conn)
	closeOnce sync.Once

	// mu guards the handshake state, the pre-handshake queue, the request
	// counter, and all writes to the runtime socket. Holding it across a
	// queue flush keeps flushed and freshly submitted messages ordered.
	mu          sync.Mutex
	connected   bool
	queue       []string
	nextID      uint64
	handshakeID string

	// clientWriteMu serializes writes to the client socket.
	clientWriteMu sync.Mutex
}

func newConn(userID, agentID string, client, runtime *websocket.Conn, logger *slog.Logger, onClose func(*Conn)) *Conn {
	return &Conn{
		userID:  userID,
		agentID: agentID,
		client:  client,
		runtime: runtime,
		logger:  logger.With("agent_id", agentID, "user_id", userID),
		onClose: onClose,
	}
}

// run sends the handshake and drives both forwarding loops. It returns when
// the connection is torn down.
func (c *Conn) run() {
	if err := c.sendHandshake(); err != nil {
		c.logger.Error("handshake send failed", "error", err)
		c.teardown(CloseAgentConnectFailed, "Agent connection failed")
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.runtimeLoop()
	}()

	c.clientLoop()
	<-done
}

// sendHandshake issues the connect request. Nothing else is forwarded to
// the runtime until its response arrives.
func (c *Conn) sendHandshake() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handshakeID = c.nextRequestIDLocked()
	return c.writeRuntimeLocked(&runtimeRequest{
		Type:   runtimeFrameReq,
		ID:     c.handshakeID,
		Method: methodConnect,
		Params: connectParams{
			MinProtocol: relayProtocolVersion,
			MaxProtocol: relayProtocolVersion,
			Client: clientDescriptor{
				Name:    "agentforge-relay",
				Version: "1.0",
				Mode:    "trusted-proxy",
			},
		},
	})
}

// clientLoop reads frames from the browser client until its socket closes,
// then closes the runtime side.
func (c *Conn) clientLoop() {
	defer c.teardown(websocket.CloseNormalClosure, "client disconnected")

	for {
		_, raw, err := c.client.ReadMessage()
		if err != nil {
			return
		}

		var frame clientFrame
		if err := sonic.Unmarshal(raw, &frame); err != nil {
			c.notifyClient(&serverFrame{Type: serverFrameError, Error: "malformed frame"})
			continue
		}
		if frame.Type != clientFrameMessage || frame.Content == "" {
			continue
		}

		c.submitMessage(frame.Content)
	}
}

// submitMessage forwards a chat message, or queues it while the handshake
// is still in flight.
func (c *Conn) submitMessage(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		c.queue = append(c.queue, content)
		return
	}
	if err := c.sendChatLocked(content); err != nil {
		c.logger.Error("failed to forward chat message", "error", err)
	}
}

func (c *Conn) sendChatLocked(content string) error {
	return c.writeRuntimeLocked(&runtimeRequest{
		Type:   runtimeFrameReq,
		ID:     c.nextRequestIDLocked(),
		Method: methodChatSend,
		Params: chatSendParams{
			SessionKey:     chatSessionKey,
			Message:        content,
			IdempotencyKey: uuid.NewString(),
		},
	})
}

// runtimeLoop reads frames from the agent runtime until its socket closes,
// then closes the client side with an equivalent code.
func (c *Conn) runtimeLoop() {
	for {
		_, raw, err := c.runtime.ReadMessage()
		if err != nil {
			code, reason := equivalentCloseCode(err)
			c.teardown(code, reason)
			return
		}

		var frame runtimeFrame
		if err := sonic.Unmarshal(raw, &frame); err != nil {
			c.logger.Warn("unparseable runtime frame", "error", err)
			continue
		}
		c.handleRuntimeFrame(&frame)
	}
}

func (c *Conn) handleRuntimeFrame(frame *runtimeFrame) {
	switch frame.Type {
	case runtimeFrameRes:
		c.handleResponse(frame)
	case runtimeFrameEvent:
		c.handleEvent(frame)
	}
}

func (c *Conn) handleResponse(frame *runtimeFrame) {
	c.mu.Lock()
	isHandshake := frame.ID == c.handshakeID && !c.connected
	c.mu.Unlock()

	if isHandshake {
		if frame.OK {
			c.completeHandshake()
		} else {
			c.logger.Warn("runtime rejected handshake", "reason", frame.Error.text())
			c.teardown(CloseAgentConnectFailed, frame.Error.text())
		}
		return
	}

	// Failed chat requests surface as error notifications; the connection
	// stays up.
	if !frame.OK {
		c.notifyClient(&serverFrame{Type: serverFrameError, Error: frame.Error.text()})
	}
}

// completeHandshake marks the connection live, flushes the queued messages
// in submission order, and notifies the client. The mutex is held across
// the flush so a concurrently submitted message cannot jump the queue.
func (c *Conn) completeHandshake() {
	c.mu.Lock()
	c.connected = true
	queued := c.queue
	c.queue = nil

	// The connected notification precedes any chunk the flushed messages
	// may trigger, because nothing reaches the runtime before the flush.
	c.notifyClient(&serverFrame{Type: serverFrameConnected})

	var flushErr error
	for _, content := range queued {
		if flushErr = c.sendChatLocked(content); flushErr != nil {
			break
		}
	}
	c.mu.Unlock()

	if flushErr != nil {
		c.logger.Error("failed to flush queued messages", "error", flushErr)
		c.teardown(CloseAgentConnectFailed, "Agent connection failed")
		return
	}
	c.logger.Info("relay connected", "flushed_messages", len(queued))
}

func (c *Conn) handleEvent(frame *runtimeFrame) {
	switch frame.Event {
	case eventChatChunk:
		c.notifyClient(&serverFrame{Type: serverFrameChunk, Payload: frame.Payload})
	case eventChatMessage:
		c.notifyClient(&serverFrame{Type: serverFrameMessage, Payload: frame.Payload})
	case eventChatDone:
		c.notifyClient(&serverFrame{Type: serverFrameDone, Payload: frame.Payload})
	case eventChatError:
		c.notifyClient(&serverFrame{Type: serverFrameError, Payload: frame.Payload})
	default:
		// Unknown events are internal runtime chatter; not the client's
		// concern.
	}
}

func (c *Conn) notifyClient(frame *serverFrame) {
	raw, err := sonic.Marshal(frame)
	if err != nil {
		c.logger.Error("failed to encode client frame", "error", err)
		return
	}

	c.clientWriteMu.Lock()
	defer c.clientWriteMu.Unlock()
	if err := c.client.WriteMessage(websocket.TextMessage, raw); err != nil {
		c.logger.Debug("client write failed", "error", err)
	}
}

func (c *Conn) writeRuntimeLocked(req *runtimeRequest) error {
	raw, err := sonic.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode runtime frame: %w", err)
	}
	return c.runtime.WriteMessage(websocket.TextMessage, raw)
}

func (c *Conn) nextRequestIDLocked() string {
	c.nextID++
	return strconv.FormatUint(c.nextID, 10)
}

// teardown closes both sockets and drops the connection from the registry.
// Closing one socket closes the other; repeated calls are no-ops.
func (c *Conn) teardown(code int, reason string) {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(code, reason)
		deadline := time.Now().Add(closeWriteWait)

		c.clientWriteMu.Lock()
		_ = c.client.WriteControl(websocket.CloseMessage, msg, deadline)
		c.clientWriteMu.Unlock()
		_ = c.client.Close()

		c.mu.Lock()
		_ = c.runtime.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.mu.Unlock()
		_ = c.runtime.Close()

		if c.onClose != nil {
			c.onClose(c)
		}
	})
}

// equivalentCloseCode maps a runtime-side read error to the close code the
// client should observe. Application close codes are mirrored verbatim;
// abnormal terminations become an agent-connection failure.
func equivalentCloseCode(err error) (int, string) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure:
			return CloseAgentConnectFailed, "Agent connection failed"
		}
		return closeErr.Code, closeErr.Text
	}
	return CloseAgentConnectFailed, "Agent connection failed"
}
