package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

// DefaultTopic receives every scheduling event; consumers filter on the event_type header.
const DefaultTopic = "scheduling.appointments"

var _ ports.EventPublisher = (*Publisher)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes scheduling events to Kafka keyed by appointment, so one appointment's events stay ordered.
type Publisher struct {
	writer messageWriter
	topic  string
	newID  func() string
}

// Envelope is the JSON value written for every event.
type Envelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	AppointmentID string          `json:"appointmentId"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Payload       json.RawMessage `json:"payload"`
}

// NewPublisher builds a Kafka writer for brokers, a comma separated host list.
func NewPublisher(brokers, topic string) (*Publisher, error) {
	list := SplitBrokers(brokers)
	if len(list) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if strings.TrimSpace(topic) == "" {
		topic = DefaultTopic
	}
	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(list...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(writer, topic), nil
}

func newPublisher(writer messageWriter, topic string) *Publisher {
	return &Publisher{writer: writer, topic: topic, newID: uuid.NewString}
}

// Publish encodes and writes events in a single batch.
func (p *Publisher) Publish(ctx context.Context, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(events))
	for _, event := range events {
		msg, err := p.message(ctx, event)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d scheduling events: %w", len(msgs), err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *Publisher) message(ctx context.Context, event domain.Event) (kafkago.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("encode %s: %w", event.EventName(), err)
	}
	envelope := Envelope{
		EventID:       p.newID(),
		EventType:     event.EventName(),
		AppointmentID: event.AggregateID(),
		OccurredAt:    event.OccurredAt().UTC(),
		Payload:       payload,
	}
	value, err := json.Marshal(envelope)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("encode envelope: %w", err)
	}
	headers := []kafkago.Header{
		{Key: "event_id", Value: []byte(envelope.EventID)},
		{Key: "event_type", Value: []byte(envelope.EventType)},
	}
	return kafkago.Message{
		Key:     []byte(envelope.AppointmentID),
		Value:   value,
		Headers: injectTraceHeaders(ctx, headers),
		Time:    envelope.OccurredAt,
	}, nil
}

// SplitBrokers parses a comma separated broker list, dropping blanks.
func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func injectTraceHeaders(ctx context.Context, headers []kafkago.Header) []kafkago.Header {
	carrier := &headerCarrier{headers: headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.headers
}

type headerCarrier struct {
	headers []kafkago.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafkago.Header{Key: key, Value: []byte(value)})
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)
