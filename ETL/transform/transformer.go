package transform

import (
	"context"
	"errors"
	"time"

	"github.com/LilVoxy/mayabus_analytics/ETL/aggregate"
	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/schema"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
)

const (
	reasonNoRecords = "no validation row could be combined; check the date formats and the key columns ('ID salida', 'Usuario')"
	reasonNoService = "no validation 'ID salida' matches a service run; check the identifier format of both exports"
)

// Transformer coordinates the reconciliation of the three datasets
type Transformer struct {
	resolver  *schema.Resolver
	validator *schema.Validator
	engine    *JoinEngine
	logger    *utils.ETLLogger
	now       func() time.Time
}

// Option configures a Transformer
type Option func(*transformerOptions)

type transformerOptions struct {
	contract schema.Contract
	workers  int
	now      func() time.Time
}

// WithContract replaces the default column contract
func WithContract(c schema.Contract) Option {
	return func(o *transformerOptions) { o.contract = c }
}

// WithJoinWorkers sets the number of goroutines of the per-row join
func WithJoinWorkers(n int) Option {
	return func(o *transformerOptions) { o.workers = n }
}

// WithClock overrides the clock stamping FinishedAt
func WithClock(now func() time.Time) Option {
	return func(o *transformerOptions) { o.now = now }
}

// NewTransformer creates a new Transformer
func NewTransformer(logger *utils.ETLLogger, opts ...Option) *Transformer {
	o := transformerOptions{contract: schema.DefaultContract, workers: 1, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = utils.NewTestLogger()
	}
	resolver := schema.NewResolver(o.contract)
	return &Transformer{
		resolver:  resolver,
		validator: schema.NewValidator(o.contract, resolver),
		engine:    NewJoinEngine(resolver, o.workers),
		logger:    logger,
		now:       o.now,
	}
}

// Reconcile validates the datasets and joins them into combined records.
// It returns models.ErrNoInput when every category is empty.
func (t *Transformer) Reconcile(ctx context.Context, datasets models.Datasets) (*models.ReconciledData, error) {
	if datasets.Empty() {
		return nil, models.ErrNoInput
	}

	// 1. Header fixups and contract validation
	prepared := models.Datasets{
		Tickets:     PreprocessTickets(datasets.Tickets),
		Services:    datasets.Services,
		Validations: datasets.Validations,
	}
	if err := t.validator.ValidateAll(prepared); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2. Indexes, fully built before the join starts
	tickets := t.engine.BuildTicketIndex(prepared.Tickets)
	services := t.engine.BuildServiceIndex(prepared.Services)
	t.logger.Debug("indexes built: %d users with tickets, %d service runs", tickets.Len(), services.Len())

	// 3. Join
	result, err := t.engine.Join(ctx, prepared.Validations, tickets, services)
	if err != nil {
		return nil, err
	}

	// 4. Failure checks
	if len(prepared.Validations) > 0 {
		if len(result.Records) == 0 {
			return nil, &models.ReconciliationFailureError{Reason: reasonNoRecords}
		}
		if services.Len() > 0 && result.ServiceMatches == 0 {
			return nil, &models.ReconciliationFailureError{Reason: reasonNoService}
		}
	}

	return &models.ReconciledData{
		Records:        result.Records,
		TicketsSold:    tickets.TicketsSold(),
		ValidationRows: len(prepared.Validations),
		DroppedRows:    result.Dropped,
	}, nil
}

// Process runs Reconcile and builds the dashboard output. A schema mismatch
// carries the raw rows of every category as backup.
func (t *Transformer) Process(ctx context.Context, datasets models.Datasets) *models.ProcessedData {
	startTime := time.Now()
	t.logger.LogTransformStart()

	data, err := t.Reconcile(ctx, datasets)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNoInput):
		t.logger.Debug("no input rows, nothing to reconcile")
		return &models.ProcessedData{FinishedAt: t.now()}
	case errors.Is(err, context.Canceled):
		t.logger.Debug("reconciliation canceled by a newer run")
		return &models.ProcessedData{ErrorMessage: err.Error(), Err: err, FinishedAt: t.now()}
	case models.IsSchemaMismatch(err):
		t.logger.Error("reconciliation rejected: %v", err)
		return &models.ProcessedData{
			ErrorMessage: err.Error(),
			Backup:       models.NewBackupSnapshot(datasets),
			Err:          err,
			FinishedAt:   t.now(),
		}
	default:
		t.logger.Error("reconciliation failed: %v", err)
		return &models.ProcessedData{ErrorMessage: err.Error(), Err: err, FinishedAt: t.now()}
	}

	summary := aggregate.Summarize(data.Records)
	t.logger.LogTransformComplete(len(data.Records), data.DroppedRows, time.Since(startTime))

	return &models.ProcessedData{
		CombinedData:    data.Records,
		KPIs:            summary.KPIs,
		AvailableYears:  summary.Years,
		AvailableMonths: summary.Months,
		TicketsSold:     data.TicketsSold,
		DroppedRows:     data.DroppedRows,
		FinishedAt:      t.now(),
	}
}
