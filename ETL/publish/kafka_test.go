package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/mayabus_analytics/ETL/config"
	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishSuccessfulRun(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "runs", nil)

	out := &models.ProcessedData{
		RunID:           "run-1",
		CombinedData:    make([]models.CombinedRecord, 3),
		KPIs:            &models.KPISummary{TotalTickets: 3},
		AvailableYears:  []string{"2024"},
		AvailableMonths: []string{"3"},
		TicketsSold:     7,
		FinishedAt:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), out))
	require.Len(t, w.messages, 1)
	assert.Equal(t, "run-1", string(w.messages[0].Key))

	var event map[string]any
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &event))
	assert.Equal(t, "run-1", event["runId"])
	assert.Equal(t, 3.0, event["records"])
	assert.Equal(t, 7.0, event["ticketsSold"])
	assert.Equal(t, []any{"2024"}, event["years"])
	assert.Equal(t, "2024-03-01T12:00:00Z", event["finishedAt"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishSkipsFailedRun(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "runs", nil)

	require.NoError(t, p.Publish(context.Background(), &models.ProcessedData{RunID: "x", Err: models.ErrNoInput}))
	require.NoError(t, p.Publish(context.Background(), nil))
	assert.Empty(t, w.messages)
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := newKafkaPublisher(&fakeWriter{err: boom}, "runs", nil)

	err := p.Publish(context.Background(), &models.ProcessedData{RunID: "run-2"})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "run-2")
}

func TestNewChoosesPublisher(t *testing.T) {
	assert.IsType(t, NoopPublisher{}, New(config.KafkaConfig{Topic: "runs"}, nil))

	p := New(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "runs"}, nil)
	assert.IsType(t, &KafkaPublisher{}, p)
	assert.NoError(t, p.Close())
}
