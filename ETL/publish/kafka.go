// Package publish emits completion events of reconciliation runs
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/LilVoxy/mayabus_analytics/ETL/config"
	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/utils"
)

// Publisher announces processed runs
type Publisher interface {
	Publish(ctx context.Context, out *models.ProcessedData) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RunEvent is the payload published for a successful run
type RunEvent struct {
	RunID       string             `json:"runId"`
	Records     int                `json:"records"`
	KPIs        *models.KPISummary `json:"kpis"`
	Years       []string           `json:"years"`
	Months      []string           `json:"months"`
	TicketsSold int                `json:"ticketsSold"`
	FinishedAt  time.Time          `json:"finishedAt"`
}

// NewRunEvent builds the event of a processed run
func NewRunEvent(out *models.ProcessedData) RunEvent {
	return RunEvent{
		RunID:       out.RunID,
		Records:     len(out.CombinedData),
		KPIs:        out.KPIs,
		Years:       out.AvailableYears,
		Months:      out.AvailableMonths,
		TicketsSold: out.TicketsSold,
		FinishedAt:  out.FinishedAt,
	}
}

// KafkaPublisher writes one message per successful run, keyed by run id
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *utils.ETLLogger
}

// NewKafkaPublisher creates a publisher writing to cfg.Topic
func NewKafkaPublisher(cfg config.KafkaConfig, logger *utils.ETLLogger) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}, cfg.Topic, logger)
}

func newKafkaPublisher(w messageWriter, topic string, logger *utils.ETLLogger) *KafkaPublisher {
	if logger == nil {
		logger = utils.NewTestLogger()
	}
	return &KafkaPublisher{writer: w, topic: topic, logger: logger}
}

// Publish writes the event of out. Failed runs are not published.
func (p *KafkaPublisher) Publish(ctx context.Context, out *models.ProcessedData) error {
	if out == nil || out.Failed() {
		return nil
	}

	value, err := json.Marshal(NewRunEvent(out))
	if err != nil {
		return fmt.Errorf("encoding run event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(out.RunID),
		Value: value,
		Time:  out.FinishedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing run %s to %s: %w", out.RunID, p.topic, err)
	}

	p.logger.Debug("run %s published to %s", out.RunID, p.topic)
	return nil
}

// Close flushes and closes the underlying writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *models.ProcessedData) error { return nil }
func (NoopPublisher) Close() error { return nil }

// New returns a KafkaPublisher when cfg is enabled and a NoopPublisher otherwise
func New(cfg config.KafkaConfig, logger *utils.ETLLogger) Publisher {
	if !cfg.Enabled() {
		return NoopPublisher{}
	}
	return NewKafkaPublisher(cfg, logger)
}
