package a2a

import (
	"fmt"

	"github.com/google/uuid"
)

// ============================================================================
// REQUEST VALIDATION AND TEXT EXTRACTION
// ============================================================================

// Validate checks the envelope of a tasks/send request. It returns a
// ready-to-send error response when the request is malformed, or nil when
// the request is acceptable.
func Validate(req *Request) *Response {
	if req.Method != MethodTasksSend {
		return NewErrorResponse(req.ID, CodeMethodNotFound,
			fmt.Sprintf("method not found: %s", req.Method))
	}
	if req.Params == nil || req.Params.Message == nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, "params.message is required")
	}
	if !hasTextPart(req.Params.Message) {
		return NewErrorResponse(req.ID, CodeInvalidParams, "message has no text part")
	}
	return nil
}

// ExtractText returns the first text part's content from a message.
func ExtractText(msg *Message) (string, error) {
	if msg == nil {
		return "", fmt.Errorf("message is nil")
	}
	for _, part := range msg.Parts {
		if part.Type == PartTypeText {
			return part.Text.Raw, nil
		}
	}
	return "", fmt.Errorf("message has no text part")
}

func hasTextPart(msg *Message) bool {
	for _, part := range msg.Parts {
		if part.Type == PartTypeText {
			return true
		}
	}
	return false
}

// ============================================================================
// RESPONSE CONSTRUCTION
// ============================================================================

// ResponseOption customizes a task response.
type ResponseOption func(*TaskResult)

// WithSessionID sets the session identifier on the result.
func WithSessionID(sessionID string) ResponseOption {
	return func(r *TaskResult) { r.SessionID = sessionID }
}

// WithMetadata sets the result metadata map.
func WithMetadata(metadata map[string]interface{}) ResponseOption {
	return func(r *TaskResult) { r.Metadata = metadata }
}

// NewTaskResponse wraps output text as a completed single-artifact
// response: one text part, index 0, append false, lastChunk true.
func NewTaskResponse(requestID, taskID, outputText string, opts ...ResponseOption) *Response {
	result := &TaskResult{
		ID:        taskID,
		SessionID: uuid.New().String(),
		Status:    TaskStatus{State: TaskStateCompleted},
		Artifacts: []Artifact{
			{
				Parts:     []Part{{Type: PartTypeText, Text: TextContent{Raw: outputText}}},
				Index:     0,
				Append:    false,
				LastChunk: true,
			},
		},
		Metadata: map[string]interface{}{},
	}
	for _, opt := range opts {
		opt(result)
	}
	return &Response{JSONRPC: Version, ID: requestID, Result: result}
}

// NewErrorResponse builds a JSON-RPC error response.
func NewErrorResponse(requestID string, code int, message string) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      requestID,
		Error:   &Error{Code: code, Message: message},
	}
}

// NewTaskRequest builds a tasks/send request with a single user text part.
func NewTaskRequest(text string, metadata map[string]interface{}) *Request {
	return &Request{
		JSONRPC: Version,
		ID:      uuid.New().String(),
		Method:  MethodTasksSend,
		Params: &TaskSendParams{
			ID: uuid.New().String(),
			Message: &Message{
				Role:  "user",
				Parts: []Part{{Type: PartTypeText, Text: TextContent{Raw: text}}},
			},
			Metadata: metadata,
		},
	}
}

// ResultText returns the first text part of the first artifact in a task
// result.
func ResultText(result *TaskResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("result is nil")
	}
	for _, artifact := range result.Artifacts {
		for _, part := range artifact.Parts {
			if part.Type == PartTypeText {
				return part.Text.Raw, nil
			}
		}
	}
	return "", fmt.Errorf("result has no text artifact")
}
