package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawRecord tolerates the loosely-typed JSON that LLMs produce: confidence
// as number or string, tag lists as arrays or comma-joined strings.
type rawRecord struct {
	Sentiment      string          `json:"sentiment"`
	Confidence     json.RawMessage `json:"confidence"`
	Emotions       json.RawMessage `json:"emotions"`
	Topics         json.RawMessage `json:"topics"`
	Reasoning      string          `json:"reasoning"`
	BusinessImpact string          `json:"business_impact"`
}

// ParseRecord extracts a Record from LLM output text. The text may wrap
// the JSON object in markdown fences or prose; the first balanced JSON
// object is used. The returned record is normalized but carries no agent
// identity; callers stamp agent_type/agent_name.
func ParseRecord(text string) (Record, error) {
	jsonText, err := extractJSONObject(text)
	if err != nil {
		return Record{}, err
	}

	var raw rawRecord
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return Record{}, fmt.Errorf("failed to decode analysis output: %w", err)
	}

	rec := Record{
		Sentiment:      NormalizeSentiment(raw.Sentiment),
		Confidence:     parseConfidence(raw.Confidence),
		Emotions:       parseTagList(raw.Emotions),
		Topics:         parseTagList(raw.Topics),
		Reasoning:      raw.Reasoning,
		BusinessImpact: raw.BusinessImpact,
	}
	rec.Normalize()
	return rec, nil
}

// extractJSONObject returns the first balanced top-level JSON object in
// text, skipping markdown fences and surrounding prose.
func extractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in output")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in output")
}

func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return FallbackConfidence
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f); err == nil {
			return f
		}
	}

	return FallbackConfidence
}

func parseTagList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return cleanTags(list)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return cleanTags(strings.Split(s, ","))
	}

	return []string{}
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
