package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/Readm/pipeview/core"
)

// MaxStreamBytes bounds how much of one stream is read.
const MaxStreamBytes = 64 << 20

// ErrStreamNotConfigured indicates a fetcher has no location for a stream.
var ErrStreamNotConfigured = errors.New("stream not configured")

// Fetcher supplies the raw text of a stream.
type Fetcher interface {
	Fetch(ctx context.Context, stream Stream) ([]byte, error)
}

// FetchError reports a failed fetch. It matches both core.ErrIngestUnavailable
// and the underlying cause under errors.Is.
type FetchError struct {
	Stream Stream
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s: %v", e.Stream, e.Source, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{core.ErrIngestUnavailable, e.Err}
}

// FileFetcher reads streams from files under Root.
type FileFetcher struct {
	Root  string
	Paths map[Stream]string
}

// NewFileFetcher creates a fetcher rooted at dir using paths, falling back to
// DefaultPaths for streams paths does not mention.
func NewFileFetcher(root string, paths map[Stream]string) *FileFetcher {
	return &FileFetcher{Root: root, Paths: withDefaults(paths)}
}

// Fetch reads the stream's file.
func (f *FileFetcher) Fetch(ctx context.Context, stream Stream) ([]byte, error) {
	rel, ok := f.Paths[stream]
	if !ok || rel == "" {
		return nil, &FetchError{Stream: stream, Source: f.Root, Err: ErrStreamNotConfigured}
	}
	path := rel
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.Root, rel)
	}
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Stream: stream, Source: path, Err: err}
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, &FetchError{Stream: stream, Source: path, Err: err}
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, MaxStreamBytes))
	if err != nil {
		return nil, &FetchError{Stream: stream, Source: path, Err: err}
	}
	return data, nil
}

// HTTPFetcher downloads streams relative to BaseURL.
type HTTPFetcher struct {
	BaseURL string
	Paths   map[Stream]string
	Client  *http.Client
}

// NewHTTPFetcher creates a fetcher for baseURL with a bounded client timeout.
func NewHTTPFetcher(baseURL string, paths map[Stream]string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{
		BaseURL: baseURL,
		Paths:   withDefaults(paths),
		Client:  &http.Client{Timeout: timeout},
	}
}

// Fetch issues a GET for the stream. Any non-2xx status is a failure.
func (f *HTTPFetcher) Fetch(ctx context.Context, stream Stream) ([]byte, error) {
	rel, ok := f.Paths[stream]
	if !ok || rel == "" {
		return nil, &FetchError{Stream: stream, Source: f.BaseURL, Err: ErrStreamNotConfigured}
	}
	target, err := url.JoinPath(f.BaseURL, rel)
	if err != nil {
		return nil, &FetchError{Stream: stream, Source: f.BaseURL, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Stream: stream, Source: target, Err: err}
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Stream: stream, Source: target, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Stream: stream, Source: target, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxStreamBytes))
	if err != nil {
		return nil, &FetchError{Stream: stream, Source: target, Err: err}
	}
	return data, nil
}

func withDefaults(paths map[Stream]string) map[Stream]string {
	merged := make(map[Stream]string, len(DefaultPaths))
	for s, p := range DefaultPaths {
		merged[s] = p
	}
	for s, p := range paths {
		if p != "" {
			merged[s] = p
		}
	}
	return merged
}
