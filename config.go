package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Readm/pipeview/ingest"
	"github.com/Readm/pipeview/trace"
)

const (
	SourceFile = "file"
	SourceHTTP = "http"

	DefaultListen       = "127.0.0.1:8080"
	DefaultCommandQueue = 16
	DefaultFetchTimeout = 10 * time.Second
)

// StreamConfig locates one raw stream.
type StreamConfig struct {
	Path     string `json:"path" yaml:"path" toml:"path"`
	Shape    string `json:"shape,omitempty" yaml:"shape,omitempty" toml:"shape,omitempty"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty" toml:"disabled,omitempty"`
}

// Config holds everything the CLI needs to ingest and serve traces.
type Config struct {
	Listen        string                  `json:"listen" yaml:"listen" toml:"listen"`
	Source        string                  `json:"source" yaml:"source" toml:"source"`
	Root          string                  `json:"root" yaml:"root" toml:"root"`
	BaseURL       string                  `json:"base_url" yaml:"base_url" toml:"base_url"`
	Timeout       string                  `json:"timeout" yaml:"timeout" toml:"timeout"`
	Refresh       string                  `json:"refresh" yaml:"refresh" toml:"refresh"`
	DefaultStream string                  `json:"default_stream" yaml:"default_stream" toml:"default_stream"`
	LogLevel      string                  `json:"log_level" yaml:"log_level" toml:"log_level"`
	StaticDir     string                  `json:"static_dir" yaml:"static_dir" toml:"static_dir"`
	MaxParallel   int                     `json:"max_parallel" yaml:"max_parallel" toml:"max_parallel"`
	CommandQueue  int                     `json:"command_queue" yaml:"command_queue" toml:"command_queue"`
	Streams       map[string]StreamConfig `json:"streams" yaml:"streams" toml:"streams"`

	// Resolved by ValidateConfig.
	FetchTimeout    time.Duration `json:"-" yaml:"-" toml:"-"`
	RefreshInterval time.Duration `json:"-" yaml:"-" toml:"-"`
	Level           LogLevel      `json:"-" yaml:"-" toml:"-"`
}

// DefaultConfig reads the simulator's usual output files from the working directory.
func DefaultConfig() *Config {
	streams := make(map[string]StreamConfig, len(ingest.AllStreams))
	for _, s := range ingest.AllStreams {
		streams[string(s)] = StreamConfig{Path: ingest.DefaultPaths[s]}
	}
	nested := streams[string(ingest.StreamTrace)]
	nested.Shape = string(trace.ShapeNested)
	streams[string(ingest.StreamTrace)] = nested

	return &Config{
		Listen:        DefaultListen,
		Source:        SourceFile,
		Root:          ".",
		DefaultStream: string(ingest.StreamPipeline),
		LogLevel:      "info",
		CommandQueue:  DefaultCommandQueue,
		Streams:       streams,
	}
}

// LoadConfig reads a YAML, TOML or JSON config file over the defaults. The
// result still has to pass ValidateConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// decode stream entries separately so a partial entry overlays its default
	// instead of replacing it
	overlay := struct {
		Streams map[string]StreamConfig `json:"streams" yaml:"streams" toml:"streams"`
	}{}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
		if err == nil {
			err = yaml.Unmarshal(data, &overlay)
		}
	case ".toml":
		err = toml.Unmarshal(data, cfg)
		if err == nil {
			err = toml.Unmarshal(data, &overlay)
		}
	case ".json":
		err = json.Unmarshal(data, cfg)
		if err == nil {
			err = json.Unmarshal(data, &overlay)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (use .yaml, .toml or .json)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Streams = DefaultConfig().Streams
	for name, sc := range overlay.Streams {
		base := cfg.Streams[strings.ToLower(name)]
		if sc.Path != "" {
			base.Path = sc.Path
		}
		if sc.Shape != "" {
			base.Shape = sc.Shape
		}
		base.Disabled = sc.Disabled
		cfg.Streams[strings.ToLower(name)] = base
	}
	return cfg, nil
}

// StreamSpecs returns the enabled streams in a stable order.
func (c *Config) StreamSpecs() []ingest.StreamSpec {
	specs := make([]ingest.StreamSpec, 0, len(ingest.AllStreams))
	for _, s := range ingest.AllStreams {
		sc, ok := c.Streams[string(s)]
		if !ok || sc.Disabled {
			continue
		}
		shape, _ := trace.ParseShape(sc.Shape)
		specs = append(specs, ingest.StreamSpec{Stream: s, Shape: shape})
	}
	return specs
}

// StreamPaths returns the configured location of every stream.
func (c *Config) StreamPaths() map[ingest.Stream]string {
	paths := make(map[ingest.Stream]string, len(c.Streams))
	for name, sc := range c.Streams {
		paths[ingest.Stream(name)] = sc.Path
	}
	return paths
}

// NewFetcher builds the fetcher selected by Source.
func (c *Config) NewFetcher() ingest.Fetcher {
	if c.Source == SourceHTTP {
		return ingest.NewHTTPFetcher(c.BaseURL, c.StreamPaths(), c.FetchTimeout)
	}
	return ingest.NewFileFetcher(c.Root, c.StreamPaths())
}
