package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	BatchCompletedTopic     = "payroll.batch.completed"
	BatchCompletedEventType = "payroll_batch_completed"
)

// BatchCompletedEvent is the payload published when a batch run completes.
type BatchCompletedEvent struct {
	PeriodID       string            `json:"period_id"`
	Country        string            `json:"country"`
	State          string            `json:"state,omitempty"`
	StartDate      string            `json:"start_date"`
	EndDate        string            `json:"end_date"`
	TotalGross     decimal.Decimal   `json:"total_gross"`
	TotalNet       decimal.Decimal   `json:"total_net"`
	EmployeeCount  int               `json:"employee_count"`
	ProcessedCount int               `json:"processed_count"`
	Failures       []payroll.Failure `json:"failures"`
	ProcessedAt    *time.Time        `json:"processed_at,omitempty"`
}

func NewBatchCompletedEvent(batch payroll.PayrollBatch, result payroll.BatchResult) BatchCompletedEvent {
	failures := result.Failures
	if failures == nil {
		failures = []payroll.Failure{}
	}
	return BatchCompletedEvent{
		PeriodID:       batch.ID,
		Country:        batch.Jurisdiction.Country,
		State:          batch.Jurisdiction.State,
		StartDate:      batch.StartDate.Format("2006-01-02"),
		EndDate:        batch.EndDate.Format("2006-01-02"),
		TotalGross:     batch.TotalGross,
		TotalNet:       batch.TotalNet,
		EmployeeCount:  batch.EmployeeCount,
		ProcessedCount: result.ProcessedCount,
		Failures:       failures,
		ProcessedAt:    batch.ProcessedAt,
	}
}

// MessageWriter is the subset of *kafkago.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type noopBatchPublisher struct{}

// NewNoopBatchPublisher drops every event. Used when no broker is configured.
func NewNoopBatchPublisher() payroll.BatchCompletedNotifier {
	return noopBatchPublisher{}
}

func (noopBatchPublisher) BatchCompleted(context.Context, payroll.PayrollBatch, payroll.BatchResult) error {
	return nil
}

type batchPublisher struct {
	writer MessageWriter
	topic  string
}

func NewBatchPublisher(writer MessageWriter, topic string) payroll.BatchCompletedNotifier {
	if topic == "" {
		topic = BatchCompletedTopic
	}
	return &batchPublisher{writer: writer, topic: topic}
}

func (p *batchPublisher) BatchCompleted(ctx context.Context, batch payroll.PayrollBatch, result payroll.BatchResult) error {
	payload, err := json.Marshal(NewBatchCompletedEvent(batch, result))
	if err != nil {
		return fmt.Errorf("failed to encode batch completed event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: p.topic,
		Key:   []byte(batch.ID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(BatchCompletedEventType)},
			{Key: "aggregate_type", Value: []byte("payroll_batch")},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish batch completed event: %w", err)
	}
	return nil
}

// NewWriter builds a writer for a comma separated broker list. Messages are
// keyed by period so events of one batch stay ordered.
func NewWriter(brokers string) *kafkago.Writer {
	addrs := strings.Split(brokers, ",")
	for i := range addrs {
		addrs[i] = strings.TrimSpace(addrs[i])
	}
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(addrs...),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}
