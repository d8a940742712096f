package a2a

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// WellKnownCardPath is the discovery endpoint every service serves.
const WellKnownCardPath = "/.well-known/agent.json"

// LoadAgentCard reads an agent card file once at startup.
func LoadAgentCard(path string) (*AgentCard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent card %s: %w", path, err)
	}

	var card AgentCard
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("failed to parse agent card %s: %w", path, err)
	}

	return &card, nil
}

// CardHandler serves an agent card file. Missing file yields 404,
// malformed content 500. When cardPath is empty and a fallback card is
// provided, the fallback is served instead.
func CardHandler(cardPath string, fallback *AgentCard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if cardPath == "" {
			if fallback == nil {
				http.Error(w, "agent card not found", http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(fallback)
			return
		}

		data, err := os.ReadFile(cardPath)
		if err != nil {
			if os.IsNotExist(err) {
				http.Error(w, "agent card not found", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to read agent card", http.StatusInternalServerError)
			return
		}

		// Reject malformed files instead of serving garbage.
		var card AgentCard
		if err := json.Unmarshal(data, &card); err != nil {
			http.Error(w, "malformed agent card", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}
}
