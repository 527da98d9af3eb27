package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// topicWriter is the part of *kafka.Writer the producer drives.
type topicWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
	Close() error
}

// KafkaProducer keeps one synchronous writer per journal topic. Messages are
// hash-balanced on their key, the user id, so each user's changes stay
// ordered on a single partition.
type KafkaProducer struct {
	newWriter func(topic string) topicWriter

	mu      sync.Mutex
	writers map[string]topicWriter
	closed  bool
}

// NewKafkaProducer creates a KafkaProducer for brokers.
func NewKafkaProducer(brokers []string) *KafkaProducer {
	return newProducer(func(topic string) topicWriter {
		return &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			BatchTimeout: 50 * time.Millisecond,
		}
	})
}

func newProducer(factory func(topic string) topicWriter) *KafkaProducer {
	return &KafkaProducer{newWriter: factory, writers: make(map[string]topicWriter)}
}

// errProducerClosed is returned by WriteMessages after Close.
var errProducerClosed = errors.New("kafka producer closed")

// WriteMessages publishes msgs to topic and returns once the brokers acknowledged them.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	writer, err := p.writer(topic)
	if err != nil {
		return err
	}
	return writer.WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writer(topic string) (topicWriter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, errProducerClosed
	}
	w, ok := p.writers[topic]
	if !ok {
		w = p.newWriter(topic)
		p.writers[topic] = w
	}
	return w, nil
}

// Close flushes and releases every writer. Later writes fail.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(p.writers, topic)
	}
	return errors.Join(errs...)
}
