package core

// StallInstruction marks a pipeline slot that holds no real instruction.
const StallInstruction = 0

// StageEvent is one instruction's activity in one stage during one cycle.
type StageEvent struct {
	Instruction int      `json:"instruction"`
	Stage       string   `json:"stage"`
	Key         StageKey `json:"key"`
	Message     string   `json:"message"`
}

// IsStall reports whether the event describes a bubble rather than an instruction.
func (e StageEvent) IsStall() bool {
	return e.Instruction == StallInstruction
}

// RegisterSnapshot is the value of one architectural register at a cycle.
type RegisterSnapshot struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MemorySnapshot is the value stored at one address at a cycle.
type MemorySnapshot struct {
	Address string `json:"address"`
	Value   string `json:"value"`
}

// Cycle owns the stage events and optional snapshots recorded for one cycle number.
type Cycle struct {
	Number      int                `json:"cycle"`
	StageEvents []StageEvent       `json:"stageEvents"`
	Registers   []RegisterSnapshot `json:"registers,omitempty"`
	Memory      []MemorySnapshot   `json:"memory,omitempty"`
}

// Trace is the reconstructed record of one execution run. Cycles are kept in
// order of first appearance in the source stream and numbers are unique.
// A Trace is never modified after it has been built.
type Trace struct {
	Cycles         []Cycle `json:"cycles"`
	MaxInstruction int     `json:"maxInstruction"`
}

// Len returns the number of cycles, treating a nil trace as empty.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Cycles)
}

// Cycle returns the cycle at trace position i.
func (t *Trace) Cycle(i int) (Cycle, bool) {
	if t == nil || i < 0 || i >= len(t.Cycles) {
		return Cycle{}, false
	}
	return t.Cycles[i], true
}

// CycleNumbers returns the cycle numbers in trace order.
func (t *Trace) CycleNumbers() []int {
	if t == nil {
		return nil
	}
	numbers := make([]int, len(t.Cycles))
	for i := range t.Cycles {
		numbers[i] = t.Cycles[i].Number
	}
	return numbers
}

// EventCount returns the total number of stage events across all cycles.
func (t *Trace) EventCount() int {
	if t == nil {
		return 0
	}
	total := 0
	for i := range t.Cycles {
		total += len(t.Cycles[i].StageEvents)
	}
	return total
}

// StallCount returns how many stage events are bubbles.
func (t *Trace) StallCount() int {
	if t == nil {
		return 0
	}
	stalls := 0
	for i := range t.Cycles {
		for _, ev := range t.Cycles[i].StageEvents {
			if ev.IsStall() {
				stalls++
			}
		}
	}
	return stalls
}
