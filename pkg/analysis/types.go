// Package analysis defines the sentiment analysis data model shared by
// every agent: the Sentiment enum, the AnalysisRecord produced by each
// specialization, and the ingest normalization rules.
package analysis

import (
	"strings"
)

// ============================================================================
// SENTIMENT - Three-valued classification
// ============================================================================

// Sentiment is the classification an analyzer assigns to a review.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// NormalizeSentiment lower-cases, trims, and collapses unknown values to
// neutral. Receivers map, never reject.
func NormalizeSentiment(s string) Sentiment {
	switch Sentiment(strings.ToLower(strings.TrimSpace(s))) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// Valid reports whether s is one of the three enum values.
func (s Sentiment) Valid() bool {
	return s == SentimentPositive || s == SentimentNeutral || s == SentimentNegative
}

// ============================================================================
// ANALYSIS RECORD - Fundamental unit of agent output
// ============================================================================

// MaxFreeTextLen bounds the reasoning and business_impact fields on ingest.
const MaxFreeTextLen = 500

// Fallback values used whenever an analyzer fails.
const (
	FallbackSentiment  = SentimentNeutral
	FallbackConfidence = 0.5
)

// Record is a single analyzer's structured output. Records are produced by
// agents, normalized on ingest, and never mutated after insertion into a
// workflow state.
type Record struct {
	AgentType      string    `json:"agent_type"`
	AgentName      string    `json:"agent_name"`
	Sentiment      Sentiment `json:"sentiment"`
	Confidence     float64   `json:"confidence"`
	Emotions       []string  `json:"emotions"`
	Topics         []string  `json:"topics"`
	Reasoning      string    `json:"reasoning"`
	BusinessImpact string    `json:"business_impact"`
	Error          string    `json:"error,omitempty"`
}

// Normalize applies the ingest pipeline in place: sentiment to enum,
// confidence clamped to [0,1], free text truncated. Idempotent.
func (r *Record) Normalize() {
	r.Sentiment = NormalizeSentiment(string(r.Sentiment))

	if r.Confidence < 0 {
		r.Confidence = 0
	} else if r.Confidence > 1 {
		r.Confidence = 1
	}

	r.Reasoning = Truncate(r.Reasoning, MaxFreeTextLen)
	r.BusinessImpact = Truncate(r.BusinessImpact, MaxFreeTextLen)

	if r.Emotions == nil {
		r.Emotions = []string{}
	}
	if r.Topics == nil {
		r.Topics = []string{}
	}
}

// Failed reports whether the record is a synthesized fallback.
func (r *Record) Failed() bool {
	return r.Error != ""
}

// Fallback builds a well-formed record standing in for a failed analyzer
// call. Sentiment is neutral, confidence 0.5, and the error string is
// carried both in reasoning and the error field.
func Fallback(agentType, agentName string, err error) Record {
	reason := "analysis failed"
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
		reason = "analysis failed: " + errMsg
	}
	rec := Record{
		AgentType:      agentType,
		AgentName:      agentName,
		Sentiment:      FallbackSentiment,
		Confidence:     FallbackConfidence,
		Emotions:       []string{},
		Topics:         []string{},
		Reasoning:      reason,
		BusinessImpact: "",
		Error:          errMsg,
	}
	rec.Normalize()
	return rec
}

// Truncate cuts s to at most max bytes on a rune boundary.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back up to a rune boundary so truncation never splits a character.
	cut := max
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return s[:cut]
}
