package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Readm/pipeview/control"
	"github.com/Readm/pipeview/core"
)

// WebServer exposes the current datasets and cursors over HTTP and WebSocket.
type WebServer struct {
	app       *App
	commands  *control.Queue[control.Command]
	hub       *wsHub
	staticDir string
	server    *http.Server
}

// NewWebServer creates a server for app. Control requests are queued and
// applied by whoever drains NextCommand/WaitCommand.
func NewWebServer(addr string, app *App) *WebServer {
	queueSize := app.cfg.CommandQueue
	if queueSize <= 0 {
		queueSize = DefaultCommandQueue
	}
	ws := &WebServer{
		app:       app,
		commands:  control.NewQueue[control.Command](queueSize),
		hub:       newHub(),
		staticDir: app.cfg.StaticDir,
	}
	ws.hub.attach(app.broker)

	ws.server = &http.Server{
		Addr:              addr,
		Handler:           NewRouter(ws),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws
}

func (ws *WebServer) registerHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/api/streams", ws.handleStreams)
	mux.HandleFunc("/api/trace", ws.handleTrace)
	mux.HandleFunc("/api/trace/summary", ws.handleTraceSummary)
	mux.HandleFunc("/api/lookup", ws.handleLookup)
	mux.HandleFunc("/api/cycle/", ws.handleCycle)
	mux.HandleFunc("/api/instruction/", ws.handleInstruction)
	mux.HandleFunc("/api/grid", ws.handleGrid)
	mux.HandleFunc("/api/snapshot/", ws.handleSnapshot)
	mux.HandleFunc("/api/stats", ws.handleStats)
	mux.HandleFunc("/api/memory", ws.handleMemory)
	mux.HandleFunc("/api/metrics", ws.handleMetrics)
	mux.HandleFunc("/api/cursor", ws.handleCursor)
	mux.HandleFunc("/api/control", ws.handleControl)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.hub.handle(ws, w, r)
	})
	if ws.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(ws.staticDir)))
	}
}

// Start starts the HTTP server in a goroutine.
func (ws *WebServer) Start() error {
	go func() {
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			GetLogger().Errorf("HTTP server stopped: %v", err)
		}
	}()
	GetLogger().Infof("Listening on http://%s", ws.server.Addr)
	return nil
}

// Shutdown stops accepting requests and closes WebSocket clients.
func (ws *WebServer) Shutdown(ctx context.Context) error {
	ws.hub.stop()
	return ws.server.Shutdown(ctx)
}

// NextCommand returns the next control command if available, non-blocking.
func (ws *WebServer) NextCommand() (control.Command, bool) {
	return ws.commands.NextCommand()
}

// WaitCommand blocks until a control command is queued or ctx is done.
func (ws *WebServer) WaitCommand(ctx context.Context) (control.Command, bool) {
	return ws.commands.WaitCommand(ctx)
}

func (ws *WebServer) queueCommand(cmd control.Command) bool {
	return ws.commands.Push(cmd)
}

type controlRequest struct {
	Type   string `json:"type"`
	Stream string `json:"stream,omitempty"`
}

func (ws *WebServer) processControlRequest(req *controlRequest) (*control.Command, error) {
	kind, err := control.ParseCommandType(req.Type)
	if err != nil {
		return nil, err
	}
	if req.Stream != "" {
		stream, err := ws.app.ResolveStream(req.Stream)
		if err != nil {
			return nil, err
		}
		if kind.IsNavigation() && !stream.CarriesEvents() {
			return nil, fmt.Errorf("stream %s has no cycles to navigate", stream)
		}
	}
	return &control.Command{Type: kind, Stream: req.Stream}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		GetLogger().Warnf("Failed to encode response: %v", err)
	}
}

// writeDatasetError maps ingest and parse failures onto HTTP statuses.
func writeDatasetError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotIngested):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrIngestUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, core.ErrMalformedTrace),
		errors.Is(err, core.ErrOrphanStageEvent),
		errors.Is(err, core.ErrInvalidInstructionIndex):
		status = http.StatusUnprocessableEntity
	}
	http.Error(w, err.Error(), status)
}
