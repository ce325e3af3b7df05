// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/LilVoxy/mayabus_analytics/ETL/config"
	"github.com/LilVoxy/mayabus_analytics/ETL/extractors"
	"github.com/LilVoxy/mayabus_analytics/ETL/load"
	"github.com/LilVoxy/mayabus_analytics/ETL/metrics"
	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/publish"
	"github.com/LilVoxy/mayabus_analytics/ETL/transform"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
	"github.com/LilVoxy/mayabus_analytics/processor"
	"github.com/LilVoxy/mayabus_analytics/routes"
	"github.com/LilVoxy/mayabus_analytics/websocket"
)

// server holds the collaborators of the dashboard API
type server struct {
	cfg         config.ETLConfig
	logger      *utils.ETLLogger
	files       *extractors.FileSet
	transformer *transform.Transformer
	metrics     *metrics.Metrics
	publisher   publish.Publisher
	connections *config.DBConnections
	loadManager *load.LoadManager
	hub         *websocket.Manager
	coordinator *processor.Coordinator
}

func newServer(cfg config.ETLConfig, logger *utils.ETLLogger) (*server, error) {
	s := &server{
		cfg:         cfg,
		logger:      logger,
		files:       extractors.NewFileSet(),
		transformer: transform.NewTransformer(logger, transform.WithJoinWorkers(cfg.JoinWorkers)),
		metrics:     metrics.New(),
		publisher:   publish.New(cfg.Kafka, logger),
	}

	connections, err := config.ConnectDatabases(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to the analytics database: %w", err)
	}
	s.connections = connections
	if connections != nil {
		s.loadManager = load.NewLoadManager(connections.AnalyticsDB, connections.Dialect, logger)
		if err := s.loadManager.EnsureSchema(); err != nil {
			config.CloseDatabases(connections)
			return nil, fmt.Errorf("creating analytics tables: %w", err)
		}
	}

	s.coordinator = processor.NewCoordinator(s.process, s.deliver, logger)
	s.hub = websocket.NewManager(s.coordinator.Latest, logger)
	s.hub.SetCheckOrigin(websocket.AllowOrigins(cfg.Server.AllowedOrigins))
	return s, nil
}

// process is the background run started by every change of the file set
func (s *server) process(ctx context.Context, runID string, datasets models.Datasets) *models.ProcessedData {
	// 1. Transform
	startTime := time.Now()
	out := s.transformer.Process(ctx, datasets)
	out.RunID = runID
	if ctx.Err() != nil {
		return out
	}

	s.metrics.ObserveRun(out, time.Since(startTime))

	// 2. Load
	if s.loadManager != nil {
		switch err := s.loadManager.Load(ctx, out); {
		case errors.Is(err, context.Canceled):
			s.logger.Debug("run %s superseded before storing", runID)
			return out
		case err != nil:
			s.logger.Error("storing run %s: %v", runID, err)
		}
	}

	// 3. Publish
	if err := s.publisher.Publish(ctx, out); err != nil {
		s.logger.Warn("publishing run %s: %v", runID, err)
	}
	return out
}

func (s *server) deliver(out *models.ProcessedData) {
	s.hub.Notify(out)
}

// preload registers the exports already present in the input directory
func (s *server) preload(ctx context.Context) {
	if _, err := os.Stat(s.cfg.InputDir); err != nil {
		s.logger.Debug("no input directory to preload: %v", err)
		return
	}

	extracted, err := extractors.NewExtractor(s.cfg.InputDir, s.logger).Extract(ctx)
	if err != nil {
		s.logger.Warn("preloading %s: %v", s.cfg.InputDir, err)
		return
	}
	for _, f := range extracted.Files {
		if _, err := s.files.Add(f); err != nil {
			s.logger.Warn("preloading %s: %v", f.Name, err)
		}
	}
	if s.files.Len() > 0 {
		if _, err := s.coordinator.Submit(s.files.Datasets()); err != nil {
			s.logger.Error("submitting preloaded files: %v", err)
		}
	}
}

func (s *server) router() http.Handler {
	deps := routes.Dependencies{
		Files:          s.files,
		Pipeline:       s.coordinator,
		Hub:            s.hub,
		Metrics:        s.metrics,
		Logger:         s.logger,
		MaxUploadBytes: s.cfg.Server.MaxUploadMB << 20,
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
	}
	if s.loadManager != nil {
		deps.Backups = s.loadManager.Loader()
	}

	router := mux.NewRouter()
	routes.SetupRoutes(router, deps)

	return handlers.RecoveryHandler()(handlers.LoggingHandler(s.logger.Zerolog(), router))
}

func (s *server) close() {
	s.coordinator.Close()
	if err := s.publisher.Close(); err != nil {
		s.logger.Error("closing publisher: %v", err)
	}
	if err := config.CloseDatabases(s.connections); err != nil {
		s.logger.Error("%v", err)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := utils.NewETLLogger(utils.LoggerOptions{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Verbose: cfg.EnableDetailedLogging,
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Close()

	s, err := newServer(cfg, logger)
	if err != nil {
		return err
	}
	defer s.close()

	go s.hub.Run(ctx)
	s.preload(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dashboard server listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("dashboard server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down dashboard server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func main() {
	var configPath string

	root := &cobra.Command{
		Use:          "mayabus",
		Short:        "Shuttle reconciliation dashboard server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "config file (YAML)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
