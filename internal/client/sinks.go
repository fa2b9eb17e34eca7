package client

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"

	"github.com/pesio-ai/be-fraud-cases/internal/config"
)

// Message is one encoded event ready for a sink.
type Message struct {
	Subject string
	Key     string
	Data    []byte
}

// Sink delivers encoded events to a broker.
type Sink interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// NewSink builds the sink selected by cfg.Driver. "none" yields a sink that
// drops every message.
func NewSink(cfg config.EventsConfig) (Sink, error) {
	switch cfg.Driver {
	case "", "none":
		return NopSink{}, nil
	case "nats":
		return NewNATSSink(cfg.NATSURL, cfg.NATSJetStream)
	case "kafka":
		return NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "rabbitmq":
		return NewRabbitMQSink(cfg.RabbitMQURL, cfg.RabbitMQQueue)
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}

// NopSink discards messages.
type NopSink struct{}

func (NopSink) Publish(context.Context, Message) error { return nil }
func (NopSink) Close() error                           { return nil }

// ── NATS ─────────────────────────────────────────────────────────────────────

// natsConn is the subset of *nats.Conn the sink needs.
type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSSink publishes core NATS messages, or JetStream messages when a stream
// captures the subject.
type NATSSink struct {
	conn natsConn
	js   jetstream.JetStream
}

// NewNATSSink connects to url. With useJetStream, publishes wait for a
// stream acknowledgement.
func NewNATSSink(url string, useJetStream bool) (*NATSSink, error) {
	nc, err := nats.Connect(url,
		nats.Name("be-fraud-cases"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	sink := &NATSSink{conn: nc}
	if useJetStream {
		js, err := jetstream.New(nc)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}
		sink.js = js
	}
	return sink, nil
}

func (s *NATSSink) Publish(ctx context.Context, msg Message) error {
	if s.js != nil {
		_, err := s.js.Publish(ctx, msg.Subject, msg.Data)
		return err
	}
	return s.conn.Publish(msg.Subject, msg.Data)
}

func (s *NATSSink) Close() error {
	return s.conn.Drain()
}

// ── Kafka ────────────────────────────────────────────────────────────────────

// KafkaWriter is the subset of kafka.Writer the sink needs.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes every event to one topic, keyed by case id so a case's
// events stay ordered within a partition.
type KafkaSink struct {
	writer KafkaWriter
}

// NewKafkaSink creates a sink writing to topic on brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return NewKafkaSinkWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	})
}

// NewKafkaSinkWithWriter allows injecting a test writer.
func NewKafkaSinkWithWriter(w KafkaWriter) *KafkaSink {
	return &KafkaSink{writer: w}
}

func (s *KafkaSink) Publish(ctx context.Context, msg Message) error {
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Data,
		Headers: []kafka.Header{{Key: "subject", Value: []byte(msg.Subject)}},
	})
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// ── RabbitMQ ─────────────────────────────────────────────────────────────────

// amqpChannel is the subset of *amqp.Channel the sink needs.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQSink publishes persistent messages to a durable queue through the
// default exchange.
type RabbitMQSink struct {
	conn  *amqp.Connection
	chn   amqpChannel
	queue string
}

// NewRabbitMQSink dials url and declares queue.
func NewRabbitMQSink(url, queue string) (*RabbitMQSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := chn.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return &RabbitMQSink{conn: conn, chn: chn, queue: queue}, nil
}

func (s *RabbitMQSink) Publish(ctx context.Context, msg Message) error {
	return s.chn.PublishWithContext(ctx,
		"",      // default exchange
		s.queue, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         msg.Subject,
			MessageId:    msg.Key,
			Body:         msg.Data,
		},
	)
}

func (s *RabbitMQSink) Close() error {
	if err := s.chn.Close(); err != nil {
		return err
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
