package core

// Statistics is the flat performance record emitted alongside a trace.
type Statistics struct {
	TotalCycles              int     `json:"total_cycles"`
	TotalInstructions        int     `json:"total_instructions"`
	CPI                      float64 `json:"cpi"`
	DataTransferInstructions int     `json:"data_transfer_instructions"`
	ALUInstructions          int     `json:"alu_instructions"`
	ControlInstructions      int     `json:"control_instructions"`
	StallCount               int     `json:"stall_count"`
	DataHazards              int     `json:"data_hazards"`
	ControlHazards           int     `json:"control_hazards"`
	BranchMispredictions     int     `json:"branch_mispredictions"`
	StallsDataHazards        int     `json:"stalls_data_hazards"`
	StallsControlHazards     int     `json:"stalls_control_hazards"`

	// Extra holds keys the producer emitted that have no typed field.
	Extra map[string]any `json:"extra,omitempty"`
}

// MixEntry is one slice of the instruction-type breakdown.
type MixEntry struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// InstructionMix returns the data-transfer / ALU / control breakdown with
// shares relative to their sum.
func (s *Statistics) InstructionMix() []MixEntry {
	if s == nil {
		return nil
	}
	mix := []MixEntry{
		{Name: "Data Transfer", Count: s.DataTransferInstructions},
		{Name: "ALU", Count: s.ALUInstructions},
		{Name: "Control", Count: s.ControlInstructions},
	}
	total := s.DataTransferInstructions + s.ALUInstructions + s.ControlInstructions
	if total == 0 {
		return mix
	}
	for i := range mix {
		mix[i].Share = float64(mix[i].Count) / float64(total)
	}
	return mix
}
