package trace

import (
	"bytes"
	"encoding/json"

	"github.com/Readm/pipeview/core"
)

var statisticsFields = map[string]bool{
	"total_cycles":               true,
	"total_instructions":         true,
	"cpi":                        true,
	"data_transfer_instructions": true,
	"alu_instructions":           true,
	"control_instructions":       true,
	"stall_count":                true,
	"data_hazards":               true,
	"control_hazards":            true,
	"branch_mispredictions":      true,
	"stalls_data_hazards":        true,
	"stalls_control_hazards":     true,
}

// ParseStatistics decodes the flat statistics record. Keys without a typed
// field are kept in Extra.
func ParseStatistics(raw []byte) (*core.Statistics, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, malformed(-1, "", "expected a JSON object")
	}

	var stats core.Statistics
	if err := json.Unmarshal(trimmed, &stats); err != nil {
		return nil, malformed(-1, "", "%v", err)
	}

	var all map[string]any
	if err := json.Unmarshal(trimmed, &all); err != nil {
		return nil, malformed(-1, "", "%v", err)
	}
	for key, value := range all {
		if statisticsFields[key] {
			continue
		}
		if stats.Extra == nil {
			stats.Extra = make(map[string]any)
		}
		stats.Extra[key] = value
	}
	return &stats, nil
}
