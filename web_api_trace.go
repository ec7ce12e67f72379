package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/Readm/pipeview/core"
	"github.com/Readm/pipeview/index"
	"github.com/Readm/pipeview/ingest"
)

// eventDataset resolves the ?stream= parameter to a published event dataset.
// It writes the error response itself and returns nil on failure.
func (ws *WebServer) eventDataset(w http.ResponseWriter, r *http.Request) *ingest.Dataset {
	stream, err := ws.app.ResolveStream(r.URL.Query().Get("stream"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	if !stream.CarriesEvents() {
		http.Error(w, fmt.Sprintf("stream %s carries no cycles", stream), http.StatusBadRequest)
		return nil
	}
	ds, err := ws.app.Dataset(stream)
	if err != nil {
		writeDatasetError(w, err)
		return nil
	}
	return ds
}

func pathInt(path, prefix string) (int, error) {
	if !strings.HasPrefix(path, prefix) {
		return 0, fmt.Errorf("invalid path")
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimPrefix(path, prefix), "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid number in path")
	}
	return n, nil
}

func (ws *WebServer) handleTrace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ds := ws.eventDataset(w, r)
	if ds == nil {
		return
	}
	writeJSON(w, http.StatusOK, ds.Trace)
}

type traceSummary struct {
	Stream         string   `json:"stream"`
	DatasetID      string   `json:"datasetId"`
	Generation     uint64   `json:"generation"`
	LoadedAt       string   `json:"loadedAt"`
	Cycles         int      `json:"cycles"`
	FirstCycle     int      `json:"firstCycle,omitempty"`
	LastCycle      int      `json:"lastCycle,omitempty"`
	Events         int      `json:"events"`
	Stalls         int      `json:"stalls"`
	MaxInstruction int      `json:"maxInstruction"`
	Stages         []string `json:"stages"`
	HasSnapshots   bool     `json:"hasSnapshots"`
}

func summarize(ds *ingest.Dataset) traceSummary {
	numbers := ds.Trace.CycleNumbers()
	summary := traceSummary{
		Stream:         string(ds.Stream),
		DatasetID:      ds.ID,
		Generation:     ds.Generation,
		LoadedAt:       ds.LoadedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Cycles:         len(numbers),
		Events:         ds.Trace.EventCount(),
		Stalls:         ds.Trace.StallCount(),
		MaxInstruction: ds.Index.MaxInstruction(),
		Stages: lo.Map(ds.Index.StageKeys(), func(k core.StageKey, _ int) string {
			return string(k)
		}),
		HasSnapshots: ds.Index.Snapshots().HasData(),
	}
	if len(numbers) > 0 {
		summary.FirstCycle = numbers[0]
		summary.LastCycle = numbers[len(numbers)-1]
	}
	return summary
}

func (ws *WebServer) handleTraceSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ds := ws.eventDataset(w, r)
	if ds == nil {
		return
	}
	writeJSON(w, http.StatusOK, summarize(ds))
}

type lookupResponse struct {
	Found bool             `json:"found"`
	Event *core.StageEvent `json:"event,omitempty"`
}

func (ws *WebServer) handleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	cycle, err := strconv.Atoi(q.Get("cycle"))
	if err != nil {
		http.Error(w, "cycle must be an integer", http.StatusBadRequest)
		return
	}
	instruction, err := strconv.Atoi(q.Get("instruction"))
	if err != nil {
		http.Error(w, "instruction must be an integer", http.StatusBadRequest)
		return
	}
	stage := q.Get("stage")
	if stage == "" {
		http.Error(w, "stage is required", http.StatusBadRequest)
		return
	}
	ds := ws.eventDataset(w, r)
	if ds == nil {
		return
	}
	ws.app.metrics.RecordLookup()
	var resp lookupResponse
	if ev, ok := ds.Index.Lookup(cycle, instruction, stage); ok {
		resp = lookupResponse{Found: true, Event: &ev}
	}
	writeJSON(w, http.StatusOK, resp)
}

type cycleResponse struct {
	Cycle    int               `json:"cycle"`
	Events   []core.StageEvent `json:"events"`
	Row      index.GridRow     `json:"row"`
	Snapshot index.Snapshot    `json:"snapshot"`
}

func (ws *WebServer) handleCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cycle, err := pathInt(r.URL.Path, "/api/cycle/")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ds := ws.eventDataset(w, r)
	if ds == nil {
		return
	}
	row, ok := ds.Index.Row(cycle)
	if !ok {
		http.Error(w, fmt.Sprintf("cycle %d not found", cycle), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cycleResponse{
		Cycle:    cycle,
		Events:   ds.Index.EventsForCycle(cycle),
		Row:      row,
		Snapshot: ds.Index.Snapshots().SnapshotFor(cycle),
	})
}

type instructionResponse struct {
	Instruction int               `json:"instruction"`
	Stage       string            `json:"stage"`
	Cycles      []int             `json:"cycles"`
	Events      []core.StageEvent `json:"events"`
}

func (ws *WebServer) handleInstruction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	instruction, err := pathInt(r.URL.Path, "/api/instruction/")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if instruction < 0 {
		http.Error(w, "instruction must be non-negative", http.StatusBadRequest)
		return
	}
	stage := r.URL.Query().Get("stage")
	if stage == "" {
		http.Error(w, "stage is required", http.StatusBadRequest)
		return
	}
	ds := ws.eventDataset(w, r)
	if ds == nil {
		return
	}
	cycles := ds.Index.CyclesForInstruction(instruction, stage)
	if cycles == nil {
		cycles = []int{}
	}
	events := ds.Index.EventsForInstruction(instruction, stage)
	if events == nil {
		events = []core.StageEvent{}
	}
	writeJSON(w, http.StatusOK, instructionResponse{
		Instruction: instruction,
		Stage:       string(core.NormalizeStage(stage)),
		Cycles:      cycles,
		Events:      events,
	})
}

func (ws *WebServer) handleGrid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ds := ws.eventDataset(w, r)
	if ds == nil {
		return
	}
	cycles := ds.Index.CycleNumbers()
	if revealed := r.URL.Query().Get("revealed"); revealed == "1" || revealed == "true" {
		c, err := ws.app.navigator.Cursor(ds.Stream)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cycles = c.VisibleCycleNumbers()
	}
	writeJSON(w, http.StatusOK, ds.Index.Grid(cycles))
}

func (ws *WebServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cycle, err := pathInt(r.URL.Path, "/api/snapshot/")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ds := ws.eventDataset(w, r)
	if ds == nil {
		return
	}
	if !ds.Index.HasCycle(cycle) {
		http.Error(w, fmt.Sprintf("cycle %d not found", cycle), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ds.Index.Snapshots().SnapshotFor(cycle))
}
