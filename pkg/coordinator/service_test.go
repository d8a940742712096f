package coordinator

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/sentimesh/pkg/a2a"
	"github.com/kadirpekel/sentimesh/pkg/analysis"
	"github.com/kadirpekel/sentimesh/pkg/config"
	"github.com/kadirpekel/sentimesh/pkg/workflow"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := config.Default().Coordinator
	svc, err := New(cfg, NewLocalInvoker(stubAnalyzers(analysis.SentimentPositive), nil, nil))
	require.NoError(t, err)
	return svc
}

func postRPC(t *testing.T, svc *Service, req *a2a.Request) *a2a.Response {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	svc.handleRPC(rec, httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp a2a.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return &resp
}

func TestServiceFullRun(t *testing.T) {
	svc := newTestService(t)

	req := a2a.NewTaskRequest("This phone is absolutely fantastic!", map[string]interface{}{
		"product_category":       "electronics",
		"max_discussion_rounds":  2,
		"disagreement_threshold": 0.6,
	})
	resp := postRPC(t, svc, req)

	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)
	assert.Equal(t, a2a.TaskStateCompleted, resp.Result.Status.State)

	payload, err := a2a.ResultText(resp.Result)
	require.NoError(t, err)

	result, err := workflow.ParseResult(payload)
	require.NoError(t, err)
	assert.Len(t, result.DepartmentRecords, 5)
	assert.True(t, result.ConsensusReached)
	assert.Equal(t, 0, result.DiscussionRounds)
	require.NotNil(t, result.MasterRecord)
	require.NotNil(t, result.AdvisorRecord)

	assert.Equal(t, true, resp.Result.Metadata["consensus_reached"])
}

func TestServiceMethodNotFound(t *testing.T) {
	svc := newTestService(t)

	req := a2a.NewTaskRequest("review", nil)
	req.Method = "foo"
	resp := postRPC(t, svc, req)

	require.NotNil(t, resp.Error)
	assert.Equal(t, a2a.CodeMethodNotFound, resp.Error.Code)
}

func TestServiceMissingTextPart(t *testing.T) {
	svc := newTestService(t)

	req := a2a.NewTaskRequest("x", nil)
	req.Params.Message.Parts = []a2a.Part{}
	resp := postRPC(t, svc, req)

	require.NotNil(t, resp.Error)
	assert.Equal(t, a2a.CodeInvalidParams, resp.Error.Code)
}

func TestServiceInvalidBody(t *testing.T) {
	svc := newTestService(t)

	rec := httptest.NewRecorder()
	svc.handleRPC(rec, httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader([]byte("not json"))))

	var resp a2a.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, a2a.CodeInvalidParams, resp.Error.Code)
}

func TestServiceAgentTypesOverride(t *testing.T) {
	svc := newTestService(t)

	req := a2a.NewTaskRequest("review", map[string]interface{}{
		"agent_types": []string{"quality", "technical"},
	})
	resp := postRPC(t, svc, req)
	require.Nil(t, resp.Error)

	payload, err := a2a.ResultText(resp.Result)
	require.NoError(t, err)
	result, err := workflow.ParseResult(payload)
	require.NoError(t, err)

	require.Len(t, result.DepartmentRecords, 2)
	assert.Equal(t, "quality", result.DepartmentRecords[0].AgentType)
	assert.Equal(t, "technical", result.DepartmentRecords[1].AgentType)
}

func TestServiceHealth(t *testing.T) {
	svc := newTestService(t)

	rec := httptest.NewRecorder()
	svc.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "coordinator", body["agent"])
}

func TestDecodeTaskOptions(t *testing.T) {
	opts, err := DecodeTaskOptions(map[string]interface{}{
		"product_category":        "fashion",
		"agent_types":             []interface{}{"quality", "business"},
		"max_discussion_rounds":   float64(3), // JSON numbers decode as float64
		"disagreement_threshold":  0.25,
		"enable_consensus_debate": false,
		"enable_scraping":         true,
		"product_name":            "acme sneakers",
		"sources":                 []interface{}{"tiki"},
		"max_items_per_source":    float64(5),
		"unknown_key":             "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, "fashion", opts.ProductCategory)
	assert.Equal(t, []string{"quality", "business"}, opts.AgentTypes)
	require.NotNil(t, opts.MaxDiscussionRounds)
	assert.Equal(t, 3, *opts.MaxDiscussionRounds)
	require.NotNil(t, opts.DisagreementThreshold)
	assert.Equal(t, 0.25, *opts.DisagreementThreshold)
	require.NotNil(t, opts.EnableConsensusDebate)
	assert.False(t, *opts.EnableConsensusDebate)
	assert.True(t, opts.EnableScraping)
	assert.Equal(t, "acme sneakers", opts.ProductName)
	assert.Equal(t, []string{"tiki"}, opts.Sources)
	assert.Equal(t, 5, opts.MaxItemsPerSource)
}

func TestDecodeTaskOptionsEmpty(t *testing.T) {
	opts, err := DecodeTaskOptions(nil)
	require.NoError(t, err)
	assert.Empty(t, opts.AgentTypes)
	assert.Nil(t, opts.MaxDiscussionRounds)
	assert.Nil(t, opts.DisagreementThreshold)
	assert.Nil(t, opts.EnableConsensusDebate)
}

func TestWorkflowOptionsDefaults(t *testing.T) {
	defaults := config.Default().Coordinator

	opts := (&TaskOptions{}).WorkflowOptions(defaults, "task-1")
	assert.Equal(t, defaults.AgentTypes, opts.AgentTypes)
	assert.Equal(t, 2, opts.Rounds())
	assert.Equal(t, 0.6, opts.Threshold())
	assert.True(t, opts.DebateEnabled())
	assert.Equal(t, "task-1", opts.ProductID)
	assert.Equal(t, "electronics", opts.ProductCategory)

	rounds, threshold := 4, 0.3
	override := (&TaskOptions{MaxDiscussionRounds: &rounds, DisagreementThreshold: &threshold}).
		WorkflowOptions(defaults, "")
	assert.Equal(t, 4, override.Rounds())
	assert.Equal(t, 0.3, override.Threshold())
}

func TestWorkflowOptionsExplicitZero(t *testing.T) {
	defaults := config.Default().Coordinator

	// An explicit zero in the request metadata must survive the merge
	// instead of being replaced by the configured defaults.
	decoded, err := DecodeTaskOptions(map[string]interface{}{
		"max_discussion_rounds":  float64(0),
		"disagreement_threshold": float64(0),
	})
	require.NoError(t, err)

	opts := decoded.WorkflowOptions(defaults, "task-0")
	assert.Equal(t, 0, opts.Rounds())
	assert.Equal(t, 0.0, opts.Threshold())
}
