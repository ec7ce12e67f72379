package main

import (
	"net/http"
	"time"

	"github.com/Readm/pipeview/core"
	"github.com/Readm/pipeview/ingest"
)

type streamStatus struct {
	Stream     string     `json:"stream"`
	Loaded     bool       `json:"loaded"`
	DatasetID  string     `json:"datasetId,omitempty"`
	Generation uint64     `json:"generation,omitempty"`
	LoadedAt   *time.Time `json:"loadedAt,omitempty"`
	Status     string     `json:"status"`
}

func (ws *WebServer) handleStreams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	specs := ws.app.ingestor.Streams()
	out := make([]streamStatus, 0, len(specs))
	for _, spec := range specs {
		entry := streamStatus{Stream: string(spec.Stream)}
		ds, err := ws.app.Dataset(spec.Stream)
		if err != nil {
			entry.Status = errorStatus(err)
		} else {
			entry.Loaded = true
			entry.DatasetID = ds.ID
			entry.Generation = ds.Generation
			loadedAt := ds.LoadedAt
			entry.LoadedAt = &loadedAt
			entry.Status = "ready"
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

type statsResponse struct {
	*core.Statistics
	Mix []core.MixEntry `json:"mix"`
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ds, err := ws.app.Dataset(ingest.StreamStats)
	if err != nil {
		writeDatasetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Statistics: ds.Stats, Mix: ds.Stats.InstructionMix()})
}

func (ws *WebServer) handleMemory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ds, err := ws.app.Dataset(ingest.StreamMemory)
	if err != nil {
		writeDatasetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds.Memory)
}

func (ws *WebServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, ws.app.metrics.Snapshot())
}
