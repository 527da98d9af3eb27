package outbox

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"example.com/journal/internal/events"
)

func TestEncodeWireFormat(t *testing.T) {
	frame := encodeWireFormat(513, []byte(`{"a":1}`))

	require.Equal(t, byte(0), frame[0])
	require.Equal(t, uint32(513), binary.BigEndian.Uint32(frame[1:5]))
	require.Equal(t, `{"a":1}`, string(frame[5:]))
}

func TestDeliverSetsHeadersAndGroupsByTopic(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{id: 42}
	d := NewDispatcher(nil, producer, registry, time.Second, 10)

	messages := []Message{
		testMessage(1, "user-1", events.TypeRecordChanged, events.TopicRecords),
		testMessage(2, "user-1", events.TypeTagChanged, events.TopicTags),
		testMessage(3, "user-2", events.TypeRecordChanged, events.TopicRecords),
	}

	require.NoError(t, d.deliver(context.Background(), messages))

	require.Len(t, producer.writes, 2)
	require.Equal(t, events.TopicRecords, producer.writes[0].topic)
	require.Len(t, producer.writes[0].messages, 2)
	require.Equal(t, events.TopicTags, producer.writes[1].topic)

	first := producer.writes[0].messages[0]
	require.Equal(t, "user-1", string(first.Key))
	require.Equal(t, uint32(42), binary.BigEndian.Uint32(first.Value[1:5]))
	require.Equal(t, map[string]string{
		events.HeaderEventType:     events.TypeRecordChanged,
		events.HeaderUserID:        "user-1",
		events.HeaderSchemaSubject: events.TopicRecords + "-value",
	}, headerMap(first.Headers))

	require.Len(t, registry.calls, 2, "one registry lookup per subject")
}

func TestDeliverRejectsUnknownEventType(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{id: 1}
	d := NewDispatcher(nil, producer, registry, time.Second, 10)

	err := d.deliver(context.Background(), []Message{testMessage(1, "user-1", "journal.unknown", events.TopicRecords)})

	require.ErrorContains(t, err, "no schema metadata for event_type=journal.unknown")
	require.Empty(t, producer.writes)
	require.Empty(t, registry.calls)
}

func TestDeliverPropagatesRegistryFailure(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{err: errors.New("registry down")}
	d := NewDispatcher(nil, producer, registry, time.Second, 10)

	err := d.deliver(context.Background(), []Message{testMessage(1, "user-1", events.TypeTagChanged, events.TopicTags)})

	require.ErrorContains(t, err, "registry down")
	require.Empty(t, producer.writes)
}

func TestDispatcherStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDispatcher(nil, &stubProducer{}, &stubRegistry{}, time.Millisecond, 10)
	d.fetch = func(context.Context) ([]Message, error) { return nil, ctx.Err() }
	go d.Start(ctx)
	d.Wait()
}

func testMessage(id int64, userID, eventType, topic string) Message {
	payload, _ := json.Marshal(events.RecordChanged{RecordID: "r", UserID: userID, Kind: "activity", Op: events.OpCreated})
	return Message{
		EventID:       id,
		UserID:        userID,
		AggregateType: "activity",
		AggregateID:   "r",
		EventType:     eventType,
		Topic:         topic,
		SchemaSubject: topic + "-value",
		PartitionKey:  userID,
		Payload:       payload,
	}
}

func headerMap(headers []kafka.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

type stubProducer struct {
	mu     sync.Mutex
	err    error
	writes []writtenBatch
}

type writtenBatch struct {
	topic    string
	messages []kafka.Message
}

func (s *stubProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	copied := make([]kafka.Message, len(msgs))
	copy(copied, msgs)

	s.writes = append(s.writes, writtenBatch{
		topic:    topic,
		messages: copied,
	})
	return nil
}

type stubRegistry struct {
	mu    sync.Mutex
	id    int
	err   error
	calls []schemaCall
}

type schemaCall struct {
	subject string
	schema  string
}

func (s *stubRegistry) EnsureSchema(ctx context.Context, subject string, schema string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, schemaCall{subject: subject, schema: schema})
	if s.err != nil {
		return 0, s.err
	}
	if s.id == 0 {
		s.id = 1
	}
	return s.id, nil
}
