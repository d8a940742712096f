package a2a

import (
	"testing"
)

func textRequest(method, text string) *Request {
	return &Request{
		JSONRPC: Version,
		ID:      "req-1",
		Method:  method,
		Params: &TaskSendParams{
			ID: "task-1",
			Message: &Message{
				Role:  "user",
				Parts: []Part{{Type: PartTypeText, Text: TextContent{Raw: text}}},
			},
		},
	}
}

func TestValidateAcceptsTasksSend(t *testing.T) {
	if resp := Validate(textRequest(MethodTasksSend, "hello")); resp != nil {
		t.Errorf("expected valid request, got error %v", resp.Error)
	}
}

func TestValidateUnknownMethod(t *testing.T) {
	resp := Validate(textRequest("foo", "hello"))
	if resp == nil || resp.Error == nil {
		t.Fatal("expected error response")
	}
	if resp.Error.Code != CodeMethodNotFound {
		t.Errorf("expected code %d, got %d", CodeMethodNotFound, resp.Error.Code)
	}
	if resp.ID != "req-1" {
		t.Errorf("error response must echo the request id, got %q", resp.ID)
	}
}

func TestValidateMissingMessage(t *testing.T) {
	req := &Request{JSONRPC: Version, ID: "req-1", Method: MethodTasksSend, Params: &TaskSendParams{}}
	resp := Validate(req)
	if resp == nil || resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Fatalf("expected -32602, got %+v", resp)
	}
}

func TestValidateEmptyParts(t *testing.T) {
	req := textRequest(MethodTasksSend, "x")
	req.Params.Message.Parts = []Part{}
	resp := Validate(req)
	if resp == nil || resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Fatalf("expected -32602 for empty parts, got %+v", resp)
	}
}

func TestValidateNonTextPartsOnly(t *testing.T) {
	req := textRequest(MethodTasksSend, "x")
	req.Params.Message.Parts = []Part{{Type: "image"}}
	resp := Validate(req)
	if resp == nil || resp.Error == nil || resp.Error.Code != CodeInvalidParams {
		t.Fatalf("expected -32602 for no text part, got %+v", resp)
	}
}

func TestNewTaskResponseShape(t *testing.T) {
	resp := NewTaskResponse("req-9", "task-9", "payload")

	if resp.JSONRPC != Version {
		t.Errorf("expected jsonrpc %s", Version)
	}
	if resp.ID != "req-9" {
		t.Errorf("expected id req-9, got %s", resp.ID)
	}
	if resp.Result.Status.State != TaskStateCompleted {
		t.Errorf("expected completed state, got %s", resp.Result.Status.State)
	}
	if len(resp.Result.Artifacts) != 1 {
		t.Fatalf("expected exactly one artifact, got %d", len(resp.Result.Artifacts))
	}

	artifact := resp.Result.Artifacts[0]
	if artifact.Index != 0 || artifact.Append || !artifact.LastChunk {
		t.Errorf("artifact flags wrong: %+v", artifact)
	}
	if resp.Result.SessionID == "" {
		t.Error("expected generated session id")
	}
}

// Wrapping text in a response and extracting it back must be lossless.
func TestEnvelopeRoundTripIdempotent(t *testing.T) {
	payloads := []string{
		"simple",
		`{"nested":"json with \"quotes\""}`,
		"unicode: héllo wörld",
		"",
	}

	for _, payload := range payloads {
		resp := NewTaskResponse("req", "task", payload)
		got, err := ResultText(resp.Result)
		if err != nil {
			t.Fatalf("extract failed for %q: %v", payload, err)
		}
		if got != payload {
			t.Errorf("round trip changed payload: %q != %q", got, payload)
		}

		// A second wrap of the extracted text yields the same text again.
		again, err := ResultText(NewTaskResponse("req", "task", got).Result)
		if err != nil || again != payload {
			t.Errorf("second round trip changed payload: %q != %q (%v)", again, payload, err)
		}
	}
}

func TestNewTaskResponseOptions(t *testing.T) {
	resp := NewTaskResponse("req", "task", "x",
		WithSessionID("session-7"),
		WithMetadata(map[string]interface{}{"k": "v"}))

	if resp.Result.SessionID != "session-7" {
		t.Errorf("expected session-7, got %s", resp.Result.SessionID)
	}
	if resp.Result.Metadata["k"] != "v" {
		t.Errorf("metadata option not applied: %v", resp.Result.Metadata)
	}
}

func TestResultTextNoArtifacts(t *testing.T) {
	if _, err := ResultText(&TaskResult{}); err == nil {
		t.Error("expected error for result without artifacts")
	}
}

func TestNewTaskRequest(t *testing.T) {
	req := NewTaskRequest("review text", map[string]interface{}{"max_tokens": 150})

	if resp := Validate(req); resp != nil {
		t.Fatalf("generated request failed validation: %v", resp.Error)
	}
	text, err := ExtractText(req.Params.Message)
	if err != nil || text != "review text" {
		t.Errorf("expected 'review text', got %q (%v)", text, err)
	}
	if req.ID == "" || req.Params.ID == "" {
		t.Error("expected generated ids")
	}
}
