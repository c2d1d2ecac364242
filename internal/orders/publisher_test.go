package orders

import (
	"context"
	"encoding/json"
	"testing"

	kafkax "github.com/ariefcatur/go-order-fulfillment/internal/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	topic   string
	key     []byte
	value   []byte
	headers []kafkago.Header
}

type fakeProducer struct{ msgs []sent }

func (f *fakeProducer) Publish(topic string, key, value []byte, headers ...kafkago.Header) error {
	f.msgs = append(f.msgs, sent{topic, key, value, headers})
	return nil
}

func TestKafkaPublisherEnvelope(t *testing.T) {
	fp := &fakeProducer{}
	p := &KafkaPublisher{Producer: fp, Service: "order-service", TopicPlaced: TopicOrderPlaced, TopicCancelled: TopicOrderCancelled}

	require.NoError(t, p.OrderPlaced(context.Background(), OrderPlacedPayload{OrderNumber: "n-1", Email: "budi@example.com", FirstName: "Budi"}))
	require.NoError(t, p.OrderCancelled(context.Background(), OrderCancelledPayload{OrderNumber: "n-1", Email: "budi@example.com"}))
	require.Len(t, fp.msgs, 2)

	m := fp.msgs[0]
	assert.Equal(t, TopicOrderPlaced, m.topic)
	assert.Equal(t, []byte("n-1"), m.key)
	assert.Equal(t, EventOrderPlaced, kafkax.HeaderValue(kafkago.Message{Headers: m.headers}, kafkax.HeaderEventType))

	var ev Envelope
	require.NoError(t, json.Unmarshal(m.value, &ev))
	assert.Equal(t, EventOrderPlaced, ev.EventType)
	assert.Equal(t, 1, ev.EventVersion)
	assert.Equal(t, "order-service", ev.Producer)
	assert.Equal(t, "n-1", ev.CorrelationID)
	assert.NotEmpty(t, ev.EventID)

	payload, err := kafkax.UnwrapPayload[OrderPlacedPayload](ev.Payload)
	require.NoError(t, err)
	assert.Equal(t, "Budi", payload.FirstName)

	assert.Equal(t, TopicOrderCancelled, fp.msgs[1].topic)
}
