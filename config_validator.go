package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Readm/pipeview/ingest"
	"github.com/Readm/pipeview/trace"
)

// ValidateConfig applies structural checks to Config and populates defaults where required.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.Source == "" {
		cfg.Source = SourceFile
	}
	cfg.Source = strings.ToLower(cfg.Source)
	switch cfg.Source {
	case SourceFile:
		if cfg.Root == "" {
			cfg.Root = "."
		}
	case SourceHTTP:
		if cfg.BaseURL == "" {
			return errors.New("base_url is required when source is http")
		}
	default:
		return fmt.Errorf("source must be %q or %q, got %q", SourceFile, SourceHTTP, cfg.Source)
	}

	if cfg.MaxParallel < 0 {
		return fmt.Errorf("max_parallel must be non-negative, got %d", cfg.MaxParallel)
	}
	if cfg.CommandQueue <= 0 {
		cfg.CommandQueue = DefaultCommandQueue
	}

	level, err := ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	cfg.Level = level

	cfg.FetchTimeout = DefaultFetchTimeout
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("timeout must be a positive duration, got %q", cfg.Timeout)
		}
		cfg.FetchTimeout = d
	}
	cfg.RefreshInterval = 0
	if cfg.Refresh != "" {
		d, err := time.ParseDuration(cfg.Refresh)
		if err != nil || d < 0 {
			return fmt.Errorf("refresh must be a non-negative duration, got %q", cfg.Refresh)
		}
		cfg.RefreshInterval = d
	}

	if cfg.Streams == nil {
		cfg.Streams = DefaultConfig().Streams
	}
	for name, sc := range cfg.Streams {
		stream, err := ingest.ParseStream(name)
		if err != nil {
			return err
		}
		if _, err := trace.ParseShape(sc.Shape); err != nil {
			return fmt.Errorf("stream %s: %w", stream, err)
		}
		if !stream.CarriesEvents() && sc.Shape != "" {
			return fmt.Errorf("stream %s: shape only applies to event streams", stream)
		}
		if !sc.Disabled && sc.Path == "" {
			return fmt.Errorf("stream %s: path is required", stream)
		}
	}

	if cfg.DefaultStream == "" {
		cfg.DefaultStream = string(ingest.StreamPipeline)
	}
	def, err := ingest.ParseStream(cfg.DefaultStream)
	if err != nil {
		return fmt.Errorf("default_stream: %w", err)
	}
	if !def.CarriesEvents() {
		return fmt.Errorf("default_stream must be an event stream (trace or pipeline), got %s", def)
	}
	if sc, ok := cfg.Streams[string(def)]; !ok || sc.Disabled {
		return fmt.Errorf("default_stream %s is disabled", def)
	}
	cfg.DefaultStream = string(def)

	return nil
}
