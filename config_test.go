package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Readm/pipeview/ingest"
	"github.com/Readm/pipeview/trace"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.FetchTimeout != DefaultFetchTimeout || cfg.RefreshInterval != 0 {
		t.Errorf("unexpected durations %s / %s", cfg.FetchTimeout, cfg.RefreshInterval)
	}
	if cfg.Level != LogLevelInfo {
		t.Errorf("expected info level, got %s", cfg.Level)
	}
	specs := cfg.StreamSpecs()
	if len(specs) != 4 {
		t.Fatalf("expected 4 enabled streams, got %d", len(specs))
	}
	for _, spec := range specs {
		if spec.Stream == ingest.StreamTrace && spec.Shape != trace.ShapeNested {
			t.Errorf("expected nested shape for trace stream, got %s", spec.Shape)
		}
	}
}

func TestLoadConfigFormats(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"pipeview.yaml", `
listen: 0.0.0.0:9000
refresh: 2s
log_level: debug
streams:
  pipeline:
    path: out/pipeline.json
  memory:
    disabled: true
`},
		{"pipeview.toml", `
listen = "0.0.0.0:9000"
refresh = "2s"
log_level = "debug"

[streams.pipeline]
path = "out/pipeline.json"

[streams.memory]
disabled = true
`},
		{"pipeview.json", `{
  "listen": "0.0.0.0:9000",
  "refresh": "2s",
  "log_level": "debug",
  "streams": {
    "pipeline": {"path": "out/pipeline.json"},
    "memory": {"disabled": true}
  }
}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tc.name, tc.content))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if err := ValidateConfig(cfg); err != nil {
				t.Fatalf("validate: %v", err)
			}
			if cfg.Listen != "0.0.0.0:9000" || cfg.RefreshInterval != 2*time.Second || cfg.Level != LogLevelDebug {
				t.Errorf("unexpected config %+v", cfg)
			}
			if got := cfg.Streams["pipeline"].Path; got != "out/pipeline.json" {
				t.Errorf("expected pipeline path override, got %q", got)
			}
			if got := cfg.Streams["trace"]; got.Path != "web.txt" || got.Shape != "nested" {
				t.Errorf("expected trace defaults kept, got %+v", got)
			}
			if mem := cfg.Streams["memory"]; !mem.Disabled || mem.Path != "data.mc" {
				t.Errorf("expected memory disabled with default path, got %+v", mem)
			}
			if len(cfg.StreamSpecs()) != 3 {
				t.Errorf("expected 3 enabled streams, got %d", len(cfg.StreamSpecs()))
			}
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "pipeview.ini", "listen=x")); err == nil {
		t.Error("expected unsupported format error")
	}
	if _, err := LoadConfig(writeConfig(t, "pipeview.yaml", "listen: [")); err == nil {
		t.Error("expected yaml parse error")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected read error")
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"http without base url", func(c *Config) { c.Source = "http" }, "base_url"},
		{"unknown source", func(c *Config) { c.Source = "ftp" }, "source"},
		{"negative parallel", func(c *Config) { c.MaxParallel = -1 }, "max_parallel"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
		{"bad timeout", func(c *Config) { c.Timeout = "soon" }, "timeout"},
		{"negative refresh", func(c *Config) { c.Refresh = "-1s" }, "refresh"},
		{"unknown stream", func(c *Config) { c.Streams["extra"] = StreamConfig{Path: "x"} }, "stream"},
		{"bad shape", func(c *Config) { c.Streams["pipeline"] = StreamConfig{Path: "x", Shape: "tree"} }, "shape"},
		{"shape on stats", func(c *Config) { c.Streams["stats"] = StreamConfig{Path: "x", Shape: "flat"} }, "shape only applies"},
		{"missing path", func(c *Config) { c.Streams["memory"] = StreamConfig{} }, "path is required"},
		{"stats default stream", func(c *Config) { c.DefaultStream = "stats" }, "event stream"},
		{"disabled default stream", func(c *Config) {
			c.Streams["pipeline"] = StreamConfig{Path: "web2.txt", Disabled: true}
		}, "disabled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := ValidateConfig(cfg)
			if err == nil {
				t.Fatalf("expected error containing %q", tc.errMsg)
			}
			if !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestConfigNewFetcher(t *testing.T) {
	cfg := DefaultConfig()
	if err := ValidateConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if _, ok := cfg.NewFetcher().(*ingest.FileFetcher); !ok {
		t.Errorf("expected file fetcher, got %T", cfg.NewFetcher())
	}

	cfg = DefaultConfig()
	cfg.Source = "HTTP"
	cfg.BaseURL = "http://sim.local/out"
	if err := ValidateConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if _, ok := cfg.NewFetcher().(*ingest.HTTPFetcher); !ok {
		t.Errorf("expected http fetcher, got %T", cfg.NewFetcher())
	}
}
