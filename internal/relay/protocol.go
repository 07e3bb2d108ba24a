package relay

import "encoding/json"

// Close codes sent to the external client.
const (
	CloseMissingParams      = 4000 // agentId or token query parameter absent
	CloseInvalidToken       = 4001 // bearer token rejected
	CloseAgentNotFound      = 4004 // agent unknown, foreign, or not provisioned
	CloseInternalError      = 4500
	CloseAgentConnectFailed = 4502 // runtime dial or handshake failure
)

// relayProtocolVersion is the internal protocol version the relay speaks.
const relayProtocolVersion = 1

// External client frame types.
const (
	clientFrameMessage = "message"

	serverFrameConnected = "connected"
	serverFrameChunk     = "chunk"
	serverFrameMessage   = "message"
	serverFrameDone      = "done"
	serverFrameError     = "error"
)

// clientFrame is a frame received from the browser client.
type clientFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// serverFrame is a notification sent to the browser client.
type serverFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Internal runtime frame types.
const (
	runtimeFrameReq   = "req"
	runtimeFrameRes   = "res"
	runtimeFrameEvent = "event"

	methodConnect  = "connect"
	methodChatSend = "chat.send"

	eventChatChunk   = "chat.chunk"
	eventChatMessage = "chat.message"
	eventChatDone    = "chat.done"
	eventChatError   = "chat.error"
)

// runtimeRequest is a request frame sent to the agent runtime.
type runtimeRequest struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// runtimeFrame is any frame received from the agent runtime. Res frames
// carry ID/OK/Result/Error; event frames carry Event/Payload.
type runtimeFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	OK      bool            `json:"ok,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *runtimeError   `json:"error,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type runtimeError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *runtimeError) text() string {
	if e == nil || e.Message == "" {
		return "agent request failed"
	}
	return e.Message
}

// connectParams is the handshake payload for the connect method.
type connectParams struct {
	MinProtocol int              `json:"minProtocol"`
	MaxProtocol int              `json:"maxProtocol"`
	Client      clientDescriptor `json:"client"`
}

type clientDescriptor struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Mode    string `json:"mode"`
}

// chatSendParams is the payload for one relayed chat message.
type chatSendParams struct {
	SessionKey     string `json:"sessionKey"`
	Message        string `json:"message"`
	IdempotencyKey string `json:"idempotencyKey"`
}
