package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/gartstein/roimodeling/internal/roimodel/dto"
	e "github.com/gartstein/roimodeling/internal/roimodel/errors"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	SnapshotPublished   EventType = "roi_model_snapshot"
	CalculatorCompleted EventType = "roi_calculator_completed"
	OperationFailed     EventType = "roi_operation_failed"
	AggregateSaved      EventType = "roi_aggregate_saved"
)

// Event is one entry of a session's change stream. Snapshot is set for
// snapshot and calculator events, Error for failures.
type Event struct {
	Type        EventType         `json:"type"`
	SessionID   string            `json:"sessionId"`
	AggregateID string            `json:"aggregateId,omitempty"`
	Snapshot    *dto.RoiModelDto  `json:"snapshot,omitempty"`
	Error       *e.OperationError `json:"error,omitempty"`
	OccurredAt  time.Time         `json:"occurredAt"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
}

// NewProducer creates the topic when missing and starts the delivery loop.
func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	topicConfigs := []kafka.TopicConfig{
		{
			Topic:             topic,
			NumPartitions:     3,
			ReplicationFactor: 1,
		},
	}

	err = conn.CreateTopics(topicConfigs...)
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	p := newProducer(&kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
		Topic:    topic,
	}, logger, 1000)
	go p.eventLoop()
	return p, nil
}

func newProducer(writer KafkaWriter, logger *zap.Logger, buffer int) *Producer {
	return &Producer{
		writer:    writer,
		events:    make(chan Event, buffer),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}
}

// Produce queues ev for delivery; it never blocks and drops the event when the
// queue is full.
func (p *Producer) Produce(ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	select {
	case p.events <- ev:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(ev.Type)),
			zap.String("session_id", ev.SessionID),
		)
	}
}

func (p *Producer) eventLoop() {
	for {
		select {
		case ev := <-p.events:
			p.sendEvent(context.Background(), ev)
		case <-p.closeChan:
			return
		}
	}
}

// sendEvent keys messages by session so one session's events stay ordered.
func (p *Producer) sendEvent(ctx context.Context, ev Event) {
	value, err := jsonMarshal(ev)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("session_id", ev.SessionID),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.SessionID),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(ev.Type)),
			zap.String("session_id", ev.SessionID),
		)
	}
}

func (p *Producer) Close() {
	close(p.closeChan)
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
