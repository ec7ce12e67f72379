package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Readm/pipeview/control"
	"github.com/Readm/pipeview/ingest"
)

type rootOptions struct {
	configPath string
	root       string
	baseURL    string
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "pipeview",
		Short:        "Inspect and step through pipeline simulator traces",
		SilenceUsage: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (.yaml, .toml or .json)")
	flags.StringVar(&opts.root, "root", "", "directory holding the trace files")
	flags.StringVar(&opts.baseURL, "base-url", "", "fetch streams over HTTP from this URL")
	flags.StringVar(&opts.logLevel, "log-level", "", "error, warn, info or debug")

	cmd.AddCommand(newServeCommand(opts), newInspectCommand(opts), newStepCommand(opts))
	return cmd
}

// loadConfig reads the config file, applies flag overrides and validates.
func loadConfig(opts *rootOptions) (*Config, error) {
	cfg := DefaultConfig()
	if opts.configPath != "" {
		loaded, err := LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.root != "" {
		cfg.Root = opts.root
	}
	if opts.baseURL != "" {
		cfg.BaseURL = opts.baseURL
		cfg.Source = SourceHTTP
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	GetLogger().SetLevel(cfg.Level)
	return cfg, nil
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var listen, refresh string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve traces over HTTP and WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if refresh != "" {
				d, err := time.ParseDuration(refresh)
				if err != nil || d < 0 {
					return fmt.Errorf("refresh must be a non-negative duration, got %q", refresh)
				}
				cfg.RefreshInterval = d
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on")
	cmd.Flags().StringVar(&refresh, "refresh", "", "re-ingest interval, e.g. 2s (0 disables)")
	return cmd
}

func runServe(parent context.Context, cfg *Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(cfg, nil)
	app.Bind(ctx)
	if err := app.Reload(ctx); err != nil {
		GetLogger().Warnf("Initial ingest incomplete: %v", err)
	}

	server := NewWebServer(cfg.Listen, app)
	if err := server.Start(); err != nil {
		return err
	}
	if cfg.RefreshInterval > 0 {
		go app.ingestor.Watch(ctx, cfg.RefreshInterval)
	}

	loop := control.NewCommandLoop[control.Command](server, control.CommandHandlerFunc[control.Command](app.HandleCommand))
	loop.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	GetLogger().Infof("Shutting down")
	return server.Shutdown(shutdownCtx)
}

func newInspectCommand(opts *rootOptions) *cobra.Command {
	var streamName string
	var grid bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Parse the streams once and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			app := NewApp(cfg, nil)
			reloadErr := app.Reload(cmd.Context())
			return runInspect(cmd.OutOrStdout(), app, streamName, grid, reloadErr)
		},
	}
	cmd.Flags().StringVar(&streamName, "stream", "", "event stream to summarize (trace or pipeline)")
	cmd.Flags().BoolVar(&grid, "grid", false, "print the full cycle-by-stage grid")
	return cmd
}

func runInspect(w io.Writer, app *App, streamName string, grid bool, reloadErr error) error {
	stream, err := app.ResolveStream(streamName)
	if err != nil {
		return err
	}
	if !stream.CarriesEvents() {
		return fmt.Errorf("stream %s carries no cycles", stream)
	}
	ds, err := app.Dataset(stream)
	if err != nil {
		if reloadErr != nil {
			return reloadErr
		}
		return err
	}
	PrintTraceSummary(w, ds)
	if grid {
		fmt.Fprintln(w, renderGrid(ds.Index.Grid(ds.Index.CycleNumbers())))
	}
	fmt.Fprintln(w)
	if stats, err := app.Dataset(ingest.StreamStats); err == nil {
		PrintStatistics(w, stats.Stats)
	} else {
		fmt.Fprintf(w, "Statistics %s\n", errorStatus(err))
	}
	if reloadErr != nil {
		GetLogger().Warnf("Some streams failed to load: %v", reloadErr)
	}
	return nil
}

func newStepCommand(opts *rootOptions) *cobra.Command {
	var streamName string
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Reveal a trace cycle by cycle in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app := NewApp(cfg, nil)
			app.Bind(ctx)
			if err := app.Reload(ctx); err != nil {
				GetLogger().Warnf("Initial ingest incomplete: %v", err)
			}
			stream, err := app.ResolveStream(streamName)
			if err != nil {
				return err
			}
			if !stream.CarriesEvents() {
				return fmt.Errorf("stream %s carries no cycles", stream)
			}
			return NewStepper(app, stream, os.Stdin, cmd.OutOrStdout()).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&streamName, "stream", "", "event stream to step through (trace or pipeline)")
	return cmd
}
