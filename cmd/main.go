package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/okian/tripbuddy/internal/adapters/http/api"
	"github.com/okian/tripbuddy/internal/adapters/http/swagger"
	app "github.com/okian/tripbuddy/internal/app"
	"github.com/okian/tripbuddy/internal/config"
	"github.com/okian/tripbuddy/internal/loadgen"
	"github.com/okian/tripbuddy/pkg/logger"
	"github.com/okian/tripbuddy/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Custom system metrics replace the default Go collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:          "tripbuddy",
		Short:        "tripbuddy matches ski and snowboard riders with trip buddies",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfgFile)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default from "+config.EnvConfigPath+")")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the matching HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfgFile)
		},
	})

	var refresh bool
	analyze := &cobra.Command{
		Use:   "analyze <user_id>",
		Short: "Print a user's skill vector and learning focus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return analyzeUser(cmd.Context(), cmd.OutOrStdout(), cfgFile, args[0], refresh)
		},
	}
	analyze.Flags().BoolVar(&refresh, "refresh", false, "recompute even when a cached vector exists")
	root.AddCommand(analyze)

	root.AddCommand(newLoadgenCmd())

	return root
}

// setup loads configuration and initializes the process logger from it.
func setup(ctx context.Context, cfgFile string) (*config.Config, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	cfg, err := config.Load(ctx, cfgFile)
	if err != nil {
		return nil, err
	}
	if err := logger.InitWithFormat(cfg.LogFormat); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

func serve(parent context.Context, cfgFile string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := setup(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	svc := app.New(cfg, app.WithLogger(log.Named("service")))
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	api.NewServer(svc, svc, svc).Register(mux)
	swagger.Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		errs = append(errs, err)
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
		errs = append(errs, err)
	}
	if err, ok := <-serveErr; ok && err != nil {
		errs = append(errs, err)
	}

	log.Info(ctx, "server stopped")
	return errors.Join(errs...)
}

func newLoadgenCmd() *cobra.Command {
	cfg := loadgen.Config{}
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Drive a running service with concurrent searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(); err != nil {
				return err
			}
			stats, err := loadgen.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if stats.Violations > 0 {
				return fmt.Errorf("%d searches returned inconsistent results", stats.Violations)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", loadgen.DefaultBaseURL, "base URL of the service")
	f.IntVar(&cfg.Searches, "searches", loadgen.DefaultSearches, "number of searches to submit")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "concurrent submitters")
	f.StringSliceVar(&cfg.Seekers, "seeker", nil, "seeker ids to cycle through (default random)")
	f.StringSliceVar(&cfg.Resorts, "resort", nil, "resorts to sample preferences from")
	f.DurationVar(&cfg.Timeout, "timeout", loadgen.DefaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.Wait, "wait", loadgen.DefaultWait, "how long to wait for each search")
	f.BoolVar(&cfg.Verbose, "verbose", false, "log every failed search")
	return cmd
}

type analysis struct {
	Vector any `json:"vector"`
	Focus  any `json:"focus"`
}

func analyzeUser(ctx context.Context, out io.Writer, cfgFile, userID string, refresh bool) error {
	cfg, err := setup(ctx, cfgFile)
	if err != nil {
		return err
	}
	// Only the analyzer is needed, so searches never leave the process.
	cfg.Workflow.BaseURL = ""
	cfg.Queue.WorkerCount = 1

	svc := app.New(cfg)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() { _ = svc.Stop(context.WithoutCancel(ctx)) }()

	vector, err := svc.Analyze(ctx, userID, refresh)
	if err != nil {
		return err
	}
	focus, err := svc.Focus(ctx, userID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(analysis{Vector: vector, Focus: focus})
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

func updateServiceMetrics(svc *app.Service) {
	stats := svc.Stats()

	if queueLen, ok := stats["queue_length"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if capacity, ok := stats["queue_capacity"].(int); ok {
		metrics.UpdateQueueCapacity(capacity)
	}
	if workers, ok := stats["workers"].(int); ok {
		metrics.UpdateWorkerCount(workers)
	}
}
