// Package notify consumes order events and hands a message to the mailer. It
// never calls back into the order or inventory services.
package notify

import (
	"context"
	"fmt"

	kafkax "github.com/ariefcatur/go-order-fulfillment/internal/kafka"
	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// Deduper remembers processed event ids. Optional.
type Deduper interface {
	MarkProcessed(ctx context.Context, service, eventID string) (bool, error)
	Forget(ctx context.Context, service, eventID string) error
}

type Notifier struct {
	Service string
	Mailer  Mailer
	Dedup   Deduper
	Log     *zap.Logger
}

// Handle is a kafka.Handler. Malformed and unknown events are logged and
// acknowledged so they do not block the partition.
func (n *Notifier) Handle(ctx context.Context, m kafka.Message) error {
	var ev orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &ev); err != nil {
		n.Log.Warn("skip malformed event", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}

	if n.Dedup != nil && ev.EventID != "" {
		first, err := n.Dedup.MarkProcessed(ctx, n.Service, ev.EventID)
		if err != nil {
			return fmt.Errorf("dedup %s: %w", ev.EventID, err)
		}
		if !first {
			n.Log.Debug("duplicate event", zap.String("event_id", ev.EventID))
			return nil
		}
	}

	msg, err := compose(ev)
	if err != nil {
		n.Log.Warn("skip event", zap.String("event_id", ev.EventID), zap.String("event_type", ev.EventType), zap.Error(err))
		return nil
	}
	if err := n.Mailer.Send(ctx, msg); err != nil {
		// lepas tanda dedup supaya redelivery masih dikirim
		if n.Dedup != nil && ev.EventID != "" {
			if ferr := n.Dedup.Forget(ctx, n.Service, ev.EventID); ferr != nil {
				n.Log.Warn("dedup forget", zap.String("event_id", ev.EventID), zap.Error(ferr))
			}
		}
		return fmt.Errorf("send %s: %w", ev.EventType, err)
	}
	n.Log.Info("notification sent",
		zap.String("event_type", ev.EventType),
		zap.String("order_number", ev.CorrelationID),
		zap.String("to", msg.To),
	)
	return nil
}

func compose(ev orders.Envelope) (Message, error) {
	switch ev.EventType {
	case orders.EventOrderPlaced:
		p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](ev.Payload)
		if err != nil {
			return Message{}, err
		}
		return Message{
			To:      p.Email,
			Subject: "Order Confirmation - Order Number " + p.OrderNumber,
			Body:    fmt.Sprintf("Dear %s %s, your order %s has been placed successfully.", p.FirstName, p.LastName, p.OrderNumber),
		}, nil
	case orders.EventOrderCancelled:
		p, err := kafkax.UnwrapPayload[orders.OrderCancelledPayload](ev.Payload)
		if err != nil {
			return Message{}, err
		}
		return Message{
			To:      p.Email,
			Subject: "Order Cancellation - Order Number " + p.OrderNumber,
			Body:    fmt.Sprintf("Your order %s has been cancelled.", p.OrderNumber),
		}, nil
	default:
		return Message{}, fmt.Errorf("unknown event type %q", ev.EventType)
	}
}

// LogMailer stands in for the SMTP collaborator and only logs.
type LogMailer struct{ Log *zap.Logger }

func (l LogMailer) Send(_ context.Context, m Message) error {
	l.Log.Info("mail", zap.String("to", m.To), zap.String("subject", m.Subject), zap.String("body", m.Body))
	return nil
}
