// Package a2a implements the agent-to-agent JSON-RPC 2.0 envelope used by
// every service in the mesh: request validation, text extraction, the
// artifact result model, and agent card discovery.
//
// The only RPC method is "tasks/send". Transport is HTTP/1.1 with JSON
// bodies; each service exposes POST /rpc, GET /health, and
// GET /.well-known/agent.json.
package a2a

import (
	"encoding/json"
	"fmt"
)

const (
	// Version is the JSON-RPC protocol version on every envelope.
	Version = "2.0"

	// MethodTasksSend is the single supported RPC method.
	MethodTasksSend = "tasks/send"
)

// JSON-RPC error codes.
const (
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ============================================================================
// REQUEST ENVELOPE
// ============================================================================

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Params  *TaskSendParams `json:"params,omitempty"`
}

// TaskSendParams carries the task payload of a tasks/send request.
type TaskSendParams struct {
	ID        string                 `json:"id,omitempty"`
	SessionID string                 `json:"sessionId,omitempty"`
	Message   *Message               `json:"message,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Message is a conversation message with one or more content parts.
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is a message or artifact content part. Only text parts are emitted
// by this system, but unknown part types are tolerated on ingest.
type Part struct {
	Type string      `json:"type"`
	Text TextContent `json:"text,omitempty"`
}

// PartTypeText is the only part type this system produces.
const PartTypeText = "text"

// TextContent is the text payload of a part. On the wire it is either a
// raw JSON string or an object {"raw": "..."}; both decode to the same
// value. Encoding always produces the object form.
type TextContent struct {
	Raw string
}

func (t TextContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Raw string `json:"raw"`
	}{Raw: t.Raw})
}

func (t *TextContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Raw = s
		return nil
	}

	var obj struct {
		Raw string `json:"raw"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("text content must be a string or {raw}: %w", err)
	}
	t.Raw = obj.Raw
	return nil
}

// ============================================================================
// RESPONSE ENVELOPE
// ============================================================================

// Response is a JSON-RPC 2.0 response envelope. Exactly one of Result and
// Error is set.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Result  *TaskResult `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// TaskResult is the successful result of a tasks/send call.
type TaskResult struct {
	ID        string                 `json:"id,omitempty"`
	SessionID string                 `json:"sessionId,omitempty"`
	Status    TaskStatus             `json:"status"`
	Artifacts []Artifact             `json:"artifacts"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// TaskStatus wraps the task completion state.
type TaskStatus struct {
	State string `json:"state"`
}

// Task completion states. Completion is one-shot; intermediate states
// never appear on the wire.
const (
	TaskStateCompleted = "completed"
	TaskStateFailed    = "failed"
)

// Artifact is the result container. This system always emits exactly one
// artifact with one text part carrying a JSON-encoded payload.
type Artifact struct {
	Parts     []Part `json:"parts"`
	Index     int    `json:"index"`
	Append    bool   `json:"append"`
	LastChunk bool   `json:"lastChunk"`
}

// ============================================================================
// AGENT CARD - Discovery document served at /.well-known/agent.json
// ============================================================================

// AgentCard is an agent's static self-description.
type AgentCard struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Version      string       `json:"version,omitempty"`
	Capabilities []string     `json:"capabilities,omitempty"`
	Skills       []AgentSkill `json:"skills,omitempty"`
	AgentType    string       `json:"agent_type"`
}

// AgentSkill describes a specific skill the agent advertises.
type AgentSkill struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}
