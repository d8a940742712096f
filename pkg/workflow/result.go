package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/kadirpekel/sentimesh/pkg/analysis"
)

// Result is the complete structured outcome of a workflow run. It is
// JSON-encoded into the single text artifact of the coordinator's RPC
// response.
type Result struct {
	ProductID       string `json:"product_id,omitempty"`
	ProductCategory string `json:"product_category"`

	DepartmentRecords []analysis.Record `json:"department_records"`
	MasterRecord      *analysis.Record  `json:"master_record"`
	AdvisorRecord     *analysis.Record  `json:"advisor_record"`

	Disagreement       float64  `json:"disagreement"`
	ConsensusReached   bool     `json:"consensus_reached"`
	DiscussionRounds   int      `json:"discussion_rounds"`
	DiscussionMessages []string `json:"discussion_messages"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ResultFromState snapshots a finished run.
func ResultFromState(s *State) *Result {
	return &Result{
		ProductID:          s.ProductID,
		ProductCategory:    s.ProductCategory,
		DepartmentRecords:  s.DepartmentRecords,
		MasterRecord:       s.MasterRecord,
		AdvisorRecord:      s.AdvisorRecord,
		Disagreement:       s.Disagreement,
		ConsensusReached:   s.ConsensusReached,
		DiscussionRounds:   s.CurrentRound,
		DiscussionMessages: s.DiscussionMessages,
		Metadata:           s.Metadata,
	}
}

// JSON encodes the result for the response artifact.
func (r *Result) JSON() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to encode workflow result: %w", err)
	}
	return string(data), nil
}

// ParseResult decodes an artifact payload back into a Result.
func ParseResult(text string) (*Result, error) {
	var r Result
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, fmt.Errorf("failed to decode workflow result: %w", err)
	}
	return &r, nil
}
