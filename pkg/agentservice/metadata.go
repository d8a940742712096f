package agentservice

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/kadirpekel/sentimesh/pkg/analysis"
)

// RequestMeta is the decoded view of the recognized agent-service request
// metadata keys. Unknown keys are ignored at this boundary.
//
// department_records and master_record appear only on requests to the
// master and advisor specializations; the coordinator sends them when it
// runs in remote mode.
type RequestMeta struct {
	ProductCategory string `mapstructure:"product_category"`
	MaxTokens       int    `mapstructure:"max_tokens"`

	DepartmentRecords []analysis.Record `mapstructure:"-"`
	MasterRecord      *analysis.Record  `mapstructure:"-"`
}

// DecodeMeta builds a RequestMeta from raw request metadata. A nil map
// decodes to the zero value.
func DecodeMeta(metadata map[string]interface{}) (*RequestMeta, error) {
	meta := &RequestMeta{}
	if len(metadata) == 0 {
		return meta, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           meta,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata decoder: %w", err)
	}
	if err := decoder.Decode(metadata); err != nil {
		return nil, fmt.Errorf("failed to decode request metadata: %w", err)
	}

	// Nested records arrive as generic JSON maps; roundtrip them through
	// their json tags instead of teaching mapstructure about them.
	if raw, ok := metadata["department_records"]; ok {
		if err := reencode(raw, &meta.DepartmentRecords); err != nil {
			return nil, fmt.Errorf("failed to decode department_records: %w", err)
		}
	}
	if raw, ok := metadata["master_record"]; ok {
		if err := reencode(raw, &meta.MasterRecord); err != nil {
			return nil, fmt.Errorf("failed to decode master_record: %w", err)
		}
	}
	return meta, nil
}

func reencode(from, to interface{}) error {
	data, err := json.Marshal(from)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, to)
}
