package processor

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
)

// ErrCoordinatorClosed is returned by Submit after Close
var ErrCoordinatorClosed = errors.New("coordinator is closed")

// ProcessFunc runs one reconciliation over a snapshot of the datasets
type ProcessFunc func(ctx context.Context, runID string, datasets models.Datasets) *models.ProcessedData

// SinkFunc receives every delivered result. It runs while the coordinator
// holds its lock and must not call back into the coordinator.
type SinkFunc func(out *models.ProcessedData)

// Coordinator runs reconciliations in the background. A new submission
// cancels the run in flight and only the newest run's result is delivered.
type Coordinator struct {
	process ProcessFunc
	sink    SinkFunc
	logger  *utils.ETLLogger
	newID   func() string

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	latest     *models.ProcessedData
	closed     bool
	wg         sync.WaitGroup
}

// NewCoordinator creates a coordinator. sink may be nil.
func NewCoordinator(process ProcessFunc, sink SinkFunc, logger *utils.ETLLogger) *Coordinator {
	if logger == nil {
		logger = utils.NewTestLogger()
	}
	return &Coordinator{
		process: process,
		sink:    sink,
		logger:  logger,
		newID:   uuid.NewString,
	}
}

// Submit starts a run over datasets and supersedes any run in flight
func (c *Coordinator) Submit(datasets models.Datasets) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrCoordinatorClosed
	}
	if c.cancel != nil {
		c.cancel()
	}

	c.generation++
	generation := c.generation
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	runID := c.newID()

	c.wg.Add(1)
	go c.run(ctx, generation, runID, datasets)

	c.logger.Debug("run %s submitted (generation %d)", runID, generation)
	return runID, nil
}

func (c *Coordinator) run(ctx context.Context, generation uint64, runID string, datasets models.Datasets) {
	defer c.wg.Done()

	out := c.process(ctx, runID, datasets)
	if out != nil {
		out.RunID = runID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation || ctx.Err() != nil {
		c.logger.Debug("run %s superseded, result discarded", runID)
		return
	}
	c.cancel()
	c.cancel = nil
	c.latest = out
	if c.sink != nil && out != nil {
		c.sink(out)
	}
}

// Latest returns the last delivered result, nil before the first delivery
func (c *Coordinator) Latest() *models.ProcessedData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Wait blocks until every submitted run has returned
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close cancels the run in flight and waits for it. Later submissions fail.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	c.wg.Wait()
}
