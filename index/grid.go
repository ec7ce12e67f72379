package index

import "github.com/Readm/pipeview/core"

// GridColumn is one stage cell of a dense grid row.
type GridColumn struct {
	Stage  core.StageKey     `json:"stage"`
	Name   string            `json:"name"`
	Events []core.StageEvent `json:"events"`
}

// GridRow is one cycle of the cycle-by-stage matrix.
type GridRow struct {
	Cycle   int          `json:"cycle"`
	Columns []GridColumn `json:"columns"`
}

// Row builds the matrix row for cycle: the five pipeline stages always, plus
// any custom stage present anywhere in the trace. Empty cells carry an empty
// event list. The second result is false for unknown cycles.
func (idx *Index) Row(cycle int) (GridRow, bool) {
	if !idx.HasCycle(cycle) {
		return GridRow{}, false
	}
	row := GridRow{Cycle: cycle}
	for _, key := range idx.gridStages() {
		events := clone(idx.columns[columnKey{cycle: cycle, stage: key}])
		if events == nil {
			events = []core.StageEvent{}
		}
		row.Columns = append(row.Columns, GridColumn{
			Stage:  key,
			Name:   key.DisplayName(),
			Events: events,
		})
	}
	return row, true
}

// Grid builds rows for the given cycle numbers, skipping unknown ones.
func (idx *Index) Grid(cycles []int) []GridRow {
	rows := make([]GridRow, 0, len(cycles))
	for _, c := range cycles {
		if row, ok := idx.Row(c); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func (idx *Index) gridStages() []core.StageKey {
	stages := append([]core.StageKey(nil), core.PipelineStages...)
	for _, key := range idx.stageKeys {
		if !key.IsPipelineStage() {
			stages = append(stages, key)
		}
	}
	return stages
}
