package main

import (
	"encoding/json"
	"io"
	"net/http"
)

func (ws *WebServer) handleCursor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stream, err := ws.app.ResolveStream(r.URL.Query().Get("stream"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, err := ws.app.navigator.Cursor(stream)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, c.Status())
}

func (ws *WebServer) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		GetLogger().Debugf("Error reading request body: %v", err)
		http.Error(w, "Error reading request body", http.StatusBadRequest)
		return
	}
	GetLogger().Debugf("Received /api/control request: Body=%s", string(bodyBytes))

	var req controlRequest
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		GetLogger().Debugf("Error decoding JSON: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd, err := ws.processControlRequest(&req)
	if err != nil {
		GetLogger().Debugf("Error processing control request: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !ws.queueCommand(*cmd) {
		GetLogger().Debugf("Command queue full, cannot accept %s", cmd.Type)
		http.Error(w, "Command queue full", http.StatusServiceUnavailable)
		return
	}

	GetLogger().Debugf("Command queued: Type=%s, Stream=%q", cmd.Type, cmd.Stream)
	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte("Command accepted"))
}
