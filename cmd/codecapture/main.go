// CLAUDE:SUMMARY CLI entry point for codecapture: capture daemon, coordinator, display server and MCP tools, with one-shot show/clear/analyze modes.
// Command codecapture watches a judge page in Chrome, stores the latest
// submission and reviews it on demand.
//
// Usage:
//
//	codecapture                              # capture + coordinator + display on 127.0.0.1:8765
//	codecapture -config codecapture.yaml     # same, from YAML config
//	codecapture -capture=false               # coordinator + display only
//	codecapture -show | -clear | -analyze    # one-shot against the stored submission
//	codecapture -mcp                         # MCP tools on stdio
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/codecapture/background"
	"github.com/hazyhaar/codecapture/capture"
	"github.com/hazyhaar/codecapture/connectivity"
	"github.com/hazyhaar/codecapture/display"
	"github.com/hazyhaar/codecapture/submission"
)

var version = "dev"

type options struct {
	configPath string
	pageURL    string
	capture    bool
	serve      bool
	show       bool
	clear      bool
	analyze    bool
	mcp        bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to codecapture.yaml config file")
	flag.StringVar(&opts.pageURL, "url", "", "judge page to open (overrides page.url)")
	flag.BoolVar(&opts.capture, "capture", true, "run the capture daemon")
	flag.BoolVar(&opts.serve, "serve", true, "run the display server")
	flag.BoolVar(&opts.show, "show", false, "print the stored submission and exit")
	flag.BoolVar(&opts.clear, "clear", false, "clear the stored submission and exit")
	flag.BoolVar(&opts.analyze, "analyze", false, "review the stored submission and exit")
	flag.BoolVar(&opts.mcp, "mcp", false, "serve MCP tools on stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, opts); err != nil {
		logger.Error("codecapture: fatal", "error", err)
		os.Exit(1)
	}
}

func loadConfig(opts options) (*capture.Config, error) {
	cfg := capture.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = capture.LoadConfigFile(opts.configPath); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	if opts.pageURL != "" {
		cfg.Page.URL = opts.pageURL
		cfg.Page.Match = ""
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	// The coordinator runs here unless a remote one is configured.
	var coord *background.Coordinator
	var bus *connectivity.Router
	if cfg.Background.Endpoint == "" {
		coord, err = background.New(ctx, cfg.CoordinatorConfig(), logger)
		if err != nil {
			return fmt.Errorf("start coordinator: %w", err)
		}
		defer coord.Close()
		bus = coord.Bus()
	} else {
		bus, err = capture.RemoteBus(cfg.Background.Endpoint, cfg.Background.Timeout, logger)
		if err != nil {
			return fmt.Errorf("remote bus: %w", err)
		}
		defer bus.Close()
	}
	for svc := range bus.ListServices() {
		logger.Debug("codecapture: bus service", "name", svc.Name, "strategy", svc.Strategy, "endpoint", svc.Endpoint)
	}

	switch {
	case opts.show:
		return runShow(ctx, bus)
	case opts.clear:
		return runClear(ctx, bus)
	case opts.analyze:
		return runAnalyze(ctx, bus)
	case opts.mcp:
		if coord == nil {
			return errors.New("-mcp needs the coordinator in-process (empty background.endpoint)")
		}
		return runMCP(ctx, coord)
	}

	return runDaemon(ctx, logger, cfg, opts, bus)
}

func runDaemon(ctx context.Context, logger *slog.Logger, cfg *capture.Config, opts options, bus *connectivity.Router) error {
	errCh := make(chan error, 2)

	if cfg.Background.Listen != "" {
		srv := &http.Server{
			Addr:              cfg.Background.Listen,
			Handler:           connectivity.HTTPHandler(bus),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("codecapture: bus listening", "addr", cfg.Background.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("bus server: %w", err)
			}
		}()
		defer srv.Close()
	}

	if opts.serve {
		ds := display.New(bus, display.WithLogger(logger))
		go func() {
			if err := ds.ListenAndServe(ctx, cfg.Display.Listen); err != nil {
				errCh <- err
			}
		}()
	}

	if opts.capture {
		var sinks []capture.Sink
		sinks = append(sinks, capture.NewBusSink(bus, logger))
		if cfg.Output.Stdout {
			sinks = append(sinks, capture.NewStdoutSink(nil))
		}
		d := capture.New(cfg, logger, sinks...)
		if err := d.Start(ctx); err != nil {
			return fmt.Errorf("start capture: %w", err)
		}
		defer d.Stop()
	}

	if !opts.capture && !opts.serve && cfg.Background.Listen == "" {
		return errors.New("nothing to run: enable -capture, -serve or background.listen")
	}

	logger.Info("codecapture: running", "version", version,
		"capture", opts.capture, "display", opts.serve,
		"review_provider", cfg.Review.Provider, "review_key_set", cfg.Review.APIKey != "")

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func callJSON(ctx context.Context, bus *connectivity.Router, action string, msg, out any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	raw, err := bus.Call(ctx, action, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	return json.Unmarshal(raw, out)
}

func runShow(ctx context.Context, bus *connectivity.Router) error {
	var resp submission.GetResponse
	if err := callJSON(ctx, bus, submission.ActionGet, submission.Envelope{Action: submission.ActionGet}, &resp); err != nil {
		return err
	}
	if resp.ProblemInfo == nil {
		fmt.Println(display.MsgNoSubmission)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func runClear(ctx context.Context, bus *connectivity.Router) error {
	var resp submission.SaveResponse
	if err := callJSON(ctx, bus, submission.ActionClear, submission.Envelope{Action: submission.ActionClear}, &resp); err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}

func runAnalyze(ctx context.Context, bus *connectivity.Router) error {
	var stored submission.GetResponse
	if err := callJSON(ctx, bus, submission.ActionGet, submission.Envelope{Action: submission.ActionGet}, &stored); err != nil {
		return err
	}
	if stored.ProblemInfo == nil || !stored.ProblemInfo.HasCode() {
		fmt.Println(display.MsgNoCode)
		return nil
	}

	var resp submission.AnalyzeResponse
	req := submission.AnalyzeRequest{
		Action:      submission.ActionAnalyze,
		Code:        stored.ProblemInfo.UserCode,
		ProblemInfo: *stored.ProblemInfo,
	}
	if err := callJSON(ctx, bus, submission.ActionAnalyze, req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s", resp.Error)
	}
	fmt.Println(resp.Analysis)
	return nil
}

func runMCP(ctx context.Context, coord *background.Coordinator) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "codecapture", Version: version}, nil)
	coord.RegisterMCP(srv)
	return srv.Run(ctx, &mcp.StdioTransport{})
}
