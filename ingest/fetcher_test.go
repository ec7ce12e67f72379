package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Readm/pipeview/core"
)

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "web2.txt"), []byte(`[{"cycle": 1}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "custom.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	f := NewFileFetcher(dir, map[Stream]string{StreamStats: "custom.json"})
	data, err := f.Fetch(context.Background(), StreamPipeline)
	if err != nil || string(data) != `[{"cycle": 1}]` {
		t.Fatalf("unexpected fetch result %q err=%v", data, err)
	}
	if data, err := f.Fetch(context.Background(), StreamStats); err != nil || string(data) != `{}` {
		t.Errorf("expected path override, got %q err=%v", data, err)
	}

	_, err = f.Fetch(context.Background(), StreamTrace)
	if !errors.Is(err, core.ErrIngestUnavailable) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected unavailable + not-exist, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Fetch(ctx, StreamPipeline); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation error, got %v", err)
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sim/web2.txt":
			w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/sim", nil, time.Second)
	data, err := f.Fetch(context.Background(), StreamPipeline)
	if err != nil || string(data) != `[]` {
		t.Fatalf("unexpected fetch result %q err=%v", data, err)
	}

	_, err = f.Fetch(context.Background(), StreamStats)
	if !errors.Is(err, core.ErrIngestUnavailable) {
		t.Errorf("expected unavailable for 404, got %v", err)
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Stream != StreamStats {
		t.Errorf("expected FetchError for stats, got %v", err)
	}
}

func TestParseStream(t *testing.T) {
	if s, err := ParseStream(" Pipeline "); err != nil || s != StreamPipeline {
		t.Errorf("unexpected %q %v", s, err)
	}
	if _, err := ParseStream("audio"); err == nil {
		t.Errorf("expected error for unknown stream")
	}
	if StreamStats.CarriesEvents() || !StreamTrace.CarriesEvents() {
		t.Errorf("unexpected CarriesEvents results")
	}
}
