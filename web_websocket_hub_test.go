package main

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Readm/pipeview/cursor"
)

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWebSocketHubBroadcasts(t *testing.T) {
	app := loadedTestApp(t)
	server := newTestServer(t, app)
	ts := httptest.NewServer(server.server.Handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// one initial cursor message per event stream
	for i := 0; i < 2; i++ {
		msg := readMessage(t, conn)
		if msg.Type != "cursor" || msg.Cursor == nil || msg.Cursor.State != cursor.NotStarted {
			t.Fatalf("Unexpected initial message %+v", msg)
		}
	}

	// control requests sent over the socket are queued like HTTP ones
	data, _ := json.Marshal(controlRequest{Type: "start", Stream: "pipeline"})
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cmd, ok := server.WaitCommand(ctx)
	if !ok {
		t.Fatal("Expected command from socket")
	}
	app.HandleCommand(cmd)

	msg := readMessage(t, conn)
	if msg.Type != "cursor" || msg.Stream != "pipeline" || msg.Cursor.Position != 0 {
		t.Errorf("Unexpected cursor broadcast %+v", msg)
	}

	if err := app.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	seen := map[string]bool{}
	for i := 0; i < 6; i++ {
		msg := readMessage(t, conn)
		if msg.Type == "published" {
			seen[msg.Stream] = true
			if msg.DatasetID == "" {
				t.Errorf("Expected dataset id on publish of %s", msg.Stream)
			}
		}
	}
	if len(seen) != 4 {
		t.Errorf("Expected publish messages for 4 streams, got %v", seen)
	}
}
