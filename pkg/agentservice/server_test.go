package agentservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/sentimesh/pkg/a2a"
	"github.com/kadirpekel/sentimesh/pkg/analysis"
	"github.com/kadirpekel/sentimesh/pkg/analyzer"
)

type stubAnalyzer struct {
	agentType string
	sentiment analysis.Sentiment
	fail      bool

	lastSynthRecords []analysis.Record
	lastMaster       *analysis.Record
}

func (s *stubAnalyzer) AgentType() string { return s.agentType }
func (s *stubAnalyzer) AgentName() string { return analyzer.DisplayName(s.agentType) }
func (s *stubAnalyzer) Card() *a2a.AgentCard {
	return &a2a.AgentCard{Name: s.AgentName(), AgentType: s.agentType, Version: "1.0.0"}
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text string, params analyzer.Params) analysis.Record {
	if s.fail {
		return analysis.Fallback(s.agentType, s.AgentName(), fmt.Errorf("stub failure"))
	}
	rec := analysis.Record{AgentType: s.agentType, AgentName: s.AgentName(), Sentiment: s.sentiment, Confidence: 0.9}
	rec.Normalize()
	return rec
}

func (s *stubAnalyzer) Synthesize(ctx context.Context, records []analysis.Record, review string, params analyzer.Params) (analysis.Record, error) {
	if s.agentType != analyzer.TypeMasterAnalyst {
		return analysis.Record{}, analyzer.ErrUnsupported
	}
	s.lastSynthRecords = records
	rec := analysis.Record{AgentType: s.agentType, Sentiment: s.sentiment, Confidence: 0.85}
	rec.Normalize()
	return rec, nil
}

func (s *stubAnalyzer) Recommend(ctx context.Context, master analysis.Record, records []analysis.Record, review string, params analyzer.Params) (analysis.Record, error) {
	if s.agentType != analyzer.TypeBusinessAdvisor {
		return analysis.Record{}, analyzer.ErrUnsupported
	}
	s.lastMaster = &master
	rec := analysis.Record{AgentType: s.agentType, Sentiment: master.Sentiment, Confidence: 0.8}
	rec.Normalize()
	return rec, nil
}

func newTestServer(t *testing.T, az analyzer.Analyzer) *Server {
	t.Helper()
	srv, err := New(Config{Host: "127.0.0.1", Port: 18001}, az)
	require.NoError(t, err)
	return srv
}

func postRPC(t *testing.T, srv *Server, req *a2a.Request) *a2a.Response {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.handleRPC(rec, httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp a2a.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return &resp
}

func decodeRecord(t *testing.T, resp *a2a.Response) analysis.Record {
	t.Helper()
	require.Nil(t, resp.Error)
	payload, err := a2a.ResultText(resp.Result)
	require.NoError(t, err)

	var rec analysis.Record
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))
	return rec
}

func TestServerAnalyze(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{agentType: "quality", sentiment: analysis.SentimentPositive})

	req := a2a.NewTaskRequest("great phone", map[string]interface{}{
		"product_category": "electronics",
		"max_tokens":       float64(200),
	})
	resp := postRPC(t, srv, req)
	rec := decodeRecord(t, resp)

	assert.Equal(t, analysis.SentimentPositive, rec.Sentiment)
	assert.Equal(t, "quality", rec.AgentType)

	assert.Equal(t, "quality", resp.Result.Metadata["agent_type"])
	assert.Equal(t, "electronics", resp.Result.Metadata["product_category"])
	assert.Equal(t, float64(200), resp.Result.Metadata["max_tokens"])
	assert.Equal(t, "positive", resp.Result.Metadata["sentiment"])
}

func TestServerAnalyzeFailureStillCompletes(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{agentType: "quality", fail: true})

	resp := postRPC(t, srv, a2a.NewTaskRequest("anything", nil))
	rec := decodeRecord(t, resp)

	// Failures come back as fallback records, never RPC errors.
	assert.Equal(t, a2a.TaskStateCompleted, resp.Result.Status.State)
	assert.True(t, rec.Failed())
	assert.Equal(t, analysis.SentimentNeutral, rec.Sentiment)
	assert.Equal(t, 0.5, rec.Confidence)
}

func TestServerMethodNotFound(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{agentType: "quality"})

	req := a2a.NewTaskRequest("text", nil)
	req.Method = "foo"
	resp := postRPC(t, srv, req)

	require.NotNil(t, resp.Error)
	assert.Equal(t, a2a.CodeMethodNotFound, resp.Error.Code)
}

func TestServerMissingTextPart(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{agentType: "quality"})

	req := a2a.NewTaskRequest("text", nil)
	req.Params.Message.Parts = nil
	resp := postRPC(t, srv, req)

	require.NotNil(t, resp.Error)
	assert.Equal(t, a2a.CodeInvalidParams, resp.Error.Code)
}

func TestServerMasterSynthesizesFromMetadata(t *testing.T) {
	stub := &stubAnalyzer{agentType: analyzer.TypeMasterAnalyst, sentiment: analysis.SentimentPositive}
	srv := newTestServer(t, stub)

	req := a2a.NewTaskRequest("the review", map[string]interface{}{
		"department_records": []map[string]interface{}{
			{"agent_type": "quality", "sentiment": "positive", "confidence": 0.9},
			{"agent_type": "technical", "sentiment": "negative", "confidence": 0.7},
		},
	})
	resp := postRPC(t, srv, req)
	rec := decodeRecord(t, resp)

	assert.Equal(t, analyzer.TypeMasterAnalyst, rec.AgentType)
	require.Len(t, stub.lastSynthRecords, 2)
	assert.Equal(t, "quality", stub.lastSynthRecords[0].AgentType)
	assert.Equal(t, analysis.SentimentNegative, stub.lastSynthRecords[1].Sentiment)
}

func TestServerAdvisorRecommendsFromMetadata(t *testing.T) {
	stub := &stubAnalyzer{agentType: analyzer.TypeBusinessAdvisor}
	srv := newTestServer(t, stub)

	req := a2a.NewTaskRequest("the review", map[string]interface{}{
		"master_record": map[string]interface{}{
			"agent_type": "master_analyst", "sentiment": "negative", "confidence": 0.8,
		},
	})
	resp := postRPC(t, srv, req)
	rec := decodeRecord(t, resp)

	assert.Equal(t, analysis.SentimentNegative, rec.Sentiment)
	require.NotNil(t, stub.lastMaster)
	assert.Equal(t, analysis.SentimentNegative, stub.lastMaster.Sentiment)
}

func TestServerHealth(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{agentType: "quality"})

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "quality", body["agent"])
	assert.Equal(t, ServiceVersion, body["version"])
}

func TestServerCardFallback(t *testing.T) {
	az := &stubAnalyzer{agentType: "quality"}
	handler := a2a.CardHandler("", az.Card())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, a2a.WellKnownCardPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var card a2a.AgentCard
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&card))
	assert.Equal(t, "quality", card.AgentType)
}

func TestDecodeMetaWeakTyping(t *testing.T) {
	meta, err := DecodeMeta(map[string]interface{}{
		"product_category": "fashion",
		"max_tokens":       float64(150),
	})
	require.NoError(t, err)
	assert.Equal(t, "fashion", meta.ProductCategory)
	assert.Equal(t, 150, meta.MaxTokens)
}

func TestDecodeMetaNil(t *testing.T) {
	meta, err := DecodeMeta(nil)
	require.NoError(t, err)
	assert.Empty(t, meta.ProductCategory)
	assert.Nil(t, meta.MasterRecord)
}

func TestNewRejectsNilAnalyzer(t *testing.T) {
	_, err := New(Config{Port: 18001}, nil)
	assert.Error(t, err)
}

func TestNewRequiresPort(t *testing.T) {
	_, err := New(Config{}, &stubAnalyzer{agentType: "quality"})
	assert.Error(t, err)
}
