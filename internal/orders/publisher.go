package orders

import (
	"context"
	"time"

	kafkax "github.com/ariefcatur/go-order-fulfillment/internal/kafka"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

type producer interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header) error
}

// KafkaPublisher wraps order events in the v1 envelope and hands them to the
// buffered producer.
type KafkaPublisher struct {
	Producer       producer
	Service        string
	TopicPlaced    string
	TopicCancelled string
}

func NewKafkaPublisher(p *kafkax.Producer, service, topicPlaced, topicCancelled string) *KafkaPublisher {
	return &KafkaPublisher{Producer: p, Service: service, TopicPlaced: topicPlaced, TopicCancelled: topicCancelled}
}

func (k *KafkaPublisher) OrderPlaced(ctx context.Context, p OrderPlacedPayload) error {
	return k.publish(ctx, k.TopicPlaced, EventOrderPlaced, p.OrderNumber, p)
}

func (k *KafkaPublisher) OrderCancelled(ctx context.Context, p OrderCancelledPayload) error {
	return k.publish(ctx, k.TopicCancelled, EventOrderCancelled, p.OrderNumber, p)
}

func (k *KafkaPublisher) publish(ctx context.Context, topic, eventType, orderNumber string, payload any) error {
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      k.Service,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: orderNumber,
		Payload:       kafkax.MustMarshal(payload),
	}
	return k.Producer.Publish(topic, PartitionKey(orderNumber), kafkax.MustMarshal(ev),
		kafkago.Header{Key: kafkax.HeaderEventType, Value: []byte(eventType)},
		kafkago.Header{Key: kafkax.HeaderEventVersion, Value: []byte("1")},
	)
}
