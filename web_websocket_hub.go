package main

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Readm/pipeview/cursor"
	"github.com/Readm/pipeview/hooks"
)

// wsMessage is the envelope pushed to every connected client.
type wsMessage struct {
	Type       string         `json:"type"`
	Stream     string         `json:"stream"`
	Generation uint64         `json:"generation,omitempty"`
	DatasetID  string         `json:"datasetId,omitempty"`
	Cycles     int            `json:"cycles,omitempty"`
	Error      string         `json:"error,omitempty"`
	Cursor     *cursor.Status `json:"cursor,omitempty"`
}

type wsHub struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	register  chan *websocket.Conn
	remove    chan *websocket.Conn
	broadcast chan []byte
	done      chan struct{}
	stopOnce  sync.Once
}

func newHub() *wsHub {
	hub := &wsHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		register:  make(chan *websocket.Conn),
		remove:    make(chan *websocket.Conn),
		broadcast: make(chan []byte, 16),
		done:      make(chan struct{}),
	}
	go hub.run()
	return hub
}

func (h *wsHub) run() {
	for {
		select {
		case conn := <-h.register:
			h.clients[conn] = true
		case conn := <-h.remove:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
		case msg := <-h.broadcast:
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					GetLogger().Warnf("Failed to send update to WebSocket client: %v", err)
					delete(h.clients, conn)
					conn.Close()
				}
			}
		case <-h.done:
			for conn := range h.clients {
				conn.Close()
			}
			h.clients = map[*websocket.Conn]bool{}
			return
		}
	}
}

func (h *wsHub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// attach forwards publish, failure and cursor hooks to connected clients.
func (h *wsHub) attach(b *hooks.Broker) {
	b.RegisterPublished(func(ctx *hooks.PublishedContext) error {
		h.send(wsMessage{
			Type:       "published",
			Stream:     ctx.Stream,
			Generation: ctx.Generation,
			DatasetID:  ctx.DatasetID,
			Cycles:     ctx.Cycles,
		})
		return nil
	})
	b.RegisterIngestFailed(func(ctx *hooks.IngestFailedContext) error {
		msg := wsMessage{Type: "ingest_failed", Stream: ctx.Stream, Generation: ctx.Generation}
		if ctx.Err != nil {
			msg.Error = ctx.Err.Error()
		}
		h.send(msg)
		return nil
	})
	b.RegisterCursorMoved(func(ctx *hooks.CursorMovedContext) error {
		status := ctx.Status
		h.send(wsMessage{Type: "cursor", Stream: ctx.Stream, Cursor: &status})
		return nil
	})
}

func (h *wsHub) handle(ws *WebServer, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		GetLogger().Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	// initial state goes out before the hub can write to conn
	for _, spec := range ws.app.ingestor.Streams() {
		if c, err := ws.app.navigator.Cursor(spec.Stream); err == nil {
			status := c.Status()
			if data, err := json.Marshal(wsMessage{Type: "cursor", Stream: string(spec.Stream), Cursor: &status}); err == nil {
				conn.WriteMessage(websocket.TextMessage, data)
			}
		}
	}

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	go func() {
		defer func() {
			select {
			case h.remove <- conn:
			case <-h.done:
			}
		}()
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					GetLogger().Warnf("WebSocket error: %v", err)
				}
				break
			}

			var req controlRequest
			if err := json.Unmarshal(message, &req); err == nil {
				if cmd, err := ws.processControlRequest(&req); err == nil {
					ws.queueCommand(*cmd)
				}
			}
		}
	}()
}

// send drops the message when the broadcast buffer is full so hooks never
// block ingest or navigation.
func (h *wsHub) send(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		GetLogger().Errorf("Failed to marshal WebSocket message: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		GetLogger().Debugf("WebSocket broadcast buffer full, dropping %s message", msg.Type)
	}
}
