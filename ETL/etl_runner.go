package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/LilVoxy/mayabus_analytics/ETL/config"
	"github.com/LilVoxy/mayabus_analytics/ETL/extractors"
	"github.com/LilVoxy/mayabus_analytics/ETL/load"
	"github.com/LilVoxy/mayabus_analytics/ETL/metrics"
	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/publish"
	"github.com/LilVoxy/mayabus_analytics/ETL/transform"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
)

const publishTimeout = 10 * time.Second

// ETLRunner wires the Extract, Transform and Load phases of a reconciliation run
type ETLRunner struct {
	config        config.ETLConfig
	dbConnections *config.DBConnections
	logger        *utils.ETLLogger
	extractor     *extractors.Extractor
	transformer   *transform.Transformer
	loadManager   *load.LoadManager
	etlLogRepo    models.ETLLogRepository
	publisher     publish.Publisher
	metrics       *metrics.Metrics
	newRunID      func() string
}

// NewETLRunner creates a runner. Storage is optional: without it runs are
// neither persisted nor logged to the database.
func NewETLRunner(cfg config.ETLConfig, logger *utils.ETLLogger) (*ETLRunner, error) {
	logger.Info("initializing ETL runner (input: %s, storage: %s)", cfg.InputDir, cfg.Storage.Dialect())

	connections, err := config.ConnectDatabases(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to the analytics database: %w", err)
	}

	r := &ETLRunner{
		config:        cfg,
		dbConnections: connections,
		logger:        logger,
		extractor:     extractors.NewExtractor(cfg.InputDir, logger),
		transformer:   transform.NewTransformer(logger, transform.WithJoinWorkers(cfg.JoinWorkers)),
		publisher:     publish.New(cfg.Kafka, logger),
		metrics:       metrics.New(),
		newRunID:      uuid.NewString,
	}

	if connections != nil {
		r.loadManager = load.NewLoadManager(connections.AnalyticsDB, connections.Dialect, logger)
		if err := r.loadManager.EnsureSchema(); err != nil {
			config.CloseDatabases(connections)
			return nil, fmt.Errorf("creating analytics tables: %w", err)
		}
		r.etlLogRepo = r.loadManager.RunLogs()
	}

	return r, nil
}

// Close releases the publisher and the database connection
func (r *ETLRunner) Close() {
	r.logger.Info("shutting down ETL runner")
	if err := r.publisher.Close(); err != nil {
		r.logger.Error("closing publisher: %v", err)
	}
	if err := config.CloseDatabases(r.dbConnections); err != nil {
		r.logger.Error("%v", err)
	}
}

// ExecuteETL extracts the input directory and runs the pipeline over it
func (r *ETLRunner) ExecuteETL(ctx context.Context) (*models.ProcessedData, error) {
	datasets, err := r.extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract phase: %w", err)
	}

	out := r.runPipeline(ctx, r.newRunID(), datasets)
	if out.Failed() {
		return out, out.Err
	}
	return out, nil
}

// extract decodes the input directory and counts the files that failed
func (r *ETLRunner) extract(ctx context.Context) (models.Datasets, error) {
	extracted, err := r.extractor.Extract(ctx)
	if err != nil {
		return models.Datasets{}, err
	}
	for _, e := range extracted.Errors {
		var decodeErr *extractors.DecodeError
		if errors.As(e, &decodeErr) {
			r.metrics.DecodeError(decodeErr.Category)
		}
	}
	return extracted.Datasets, nil
}

// runPipeline transforms the datasets, then loads and publishes the result.
// It records the run in the run log and the metrics.
func (r *ETLRunner) runPipeline(ctx context.Context, runID string, datasets models.Datasets) *models.ProcessedData {
	startTime := time.Now()
	logger := r.logger.With("run_id", runID)
	logger.Info("run started")

	logID := r.startRunLog(runID, startTime)

	// 1. Transform
	out := r.transformer.Process(ctx, datasets)
	out.RunID = runID

	if ctx.Err() != nil {
		logger.Info("run canceled")
		r.finishRunLog(logID, startTime, datasets, out, ctx.Err())
		return out
	}

	// 2. Load
	var loadErr error
	if r.loadManager != nil {
		loadErr = r.loadManager.Load(ctx, out)
		if errors.Is(loadErr, context.Canceled) {
			logger.Info("run canceled before load")
			r.finishRunLog(logID, startTime, datasets, out, loadErr)
			return out
		}
		if loadErr != nil {
			logger.Error("load phase: %v", loadErr)
		}
	}

	// 3. Publish
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	if err := r.publisher.Publish(pubCtx, out); err != nil {
		logger.Warn("publishing run event: %v", err)
	}
	cancel()

	r.metrics.ObserveRun(out, time.Since(startTime))
	r.finishRunLog(logID, startTime, datasets, out, loadErr)

	if out.Failed() {
		logger.Error("run failed: %s", out.ErrorMessage)
	} else {
		logger.Info("run completed: %d records, %d dropped rows, %d tickets sold, duration %v",
			len(out.CombinedData), out.DroppedRows, out.TicketsSold, time.Since(startTime))
	}
	return out
}

func (r *ETLRunner) startRunLog(runID string, startTime time.Time) int64 {
	if r.etlLogRepo == nil {
		return 0
	}
	id, err := r.etlLogRepo.CreateLogEntry(runID, startTime)
	if err != nil {
		r.logger.Error("creating run log entry: %v", err)
		return 0
	}
	return id
}

// finishRunLog closes the run log entry. A failed run or a phase error marks
// the entry failed.
func (r *ETLRunner) finishRunLog(logID int64, startTime time.Time, datasets models.Datasets, out *models.ProcessedData, phaseErr error) {
	if r.etlLogRepo == nil || logID == 0 {
		return
	}
	endTime := time.Now()

	var err error
	switch {
	case phaseErr != nil:
		err = r.etlLogRepo.UpdateLogEntryFailure(logID, startTime, endTime, phaseErr.Error())
	case out.Failed():
		err = r.etlLogRepo.UpdateLogEntryFailure(logID, startTime, endTime, out.ErrorMessage)
	default:
		err = r.etlLogRepo.UpdateLogEntrySuccess(logID, startTime, endTime, models.NewRunStats(datasets, out))
	}
	if err != nil {
		r.logger.Error("updating run log entry: %v", err)
	}
}

// StartScheduler runs ExecuteETL every RunInterval until ctx is done
func (r *ETLRunner) StartScheduler(ctx context.Context) error {
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	r.logger.Info("starting scheduler with interval %v", r.config.RunInterval)

	_, err := scheduler.Every(r.config.RunInterval).Do(func() {
		r.logger.Info("scheduled run")
		if _, err := r.ExecuteETL(ctx); err != nil {
			r.logger.Error("scheduled run: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("configuring scheduler: %w", err)
	}

	scheduler.StartAsync()
	<-ctx.Done()
	scheduler.Stop()

	r.logger.Info("scheduler stopped")
	return nil
}

// Status returns the aggregate state of the run log
func (r *ETLRunner) Status() (*models.ETLStateMonitor, error) {
	if r.loadManager == nil {
		return nil, errors.New("storage is disabled, no run log available")
	}
	return r.loadManager.RunLogs().GetETLStateMonitor()
}
