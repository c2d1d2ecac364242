package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/apperr"
	"github.com/ariefcatur/go-order-fulfillment/internal/inventory"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgOutOfStock   = "Out of Stock"
	msgCancelFailed = "Order cancel failed"
	msgNotFound     = "Order not found"
	MsgPlaced       = "Order placed successfully"
)

// InventoryGateway reserves and returns stock. False covers both a business
// refusal and an unreachable inventory service.
type InventoryGateway interface {
	Reserve(ctx context.Context, items []inventory.Item) bool
	Compensate(ctx context.Context, items []inventory.Item) bool
}

// EventPublisher hands events to the broker. Delivery is best effort.
type EventPublisher interface {
	OrderPlaced(ctx context.Context, p OrderPlacedPayload) error
	OrderCancelled(ctx context.Context, p OrderCancelledPayload) error
}

// Saga orchestrates order placement and the order lifecycle against the
// inventory service.
type Saga struct {
	Repo      Repository
	Inventory InventoryGateway
	Events    EventPublisher
	Log       *zap.Logger
	Now       func() time.Time
}

func NewSaga(repo Repository, inv InventoryGateway, events EventPublisher, log *zap.Logger) *Saga {
	return &Saga{Repo: repo, Inventory: inv, Events: events, Log: log, Now: time.Now}
}

// Place reserves the whole batch first and only then writes the order. When
// the reservation is refused nothing is written.
func (s *Saga) Place(ctx context.Context, req PlaceOrderRequest) (Order, error) {
	date, err := validatePlace(req, s.Now())
	if err != nil {
		placed.WithLabelValues("invalid").Inc()
		return Order{}, err
	}

	if !s.Inventory.Reserve(ctx, toInventoryItems(req.Items)) {
		placed.WithLabelValues("out_of_stock").Inc()
		return Order{}, apperr.OutOfStock(msgOutOfStock)
	}

	o := Order{
		OrderNumber:     uuid.NewString(),
		Total:           req.Total,
		UserEmail:       req.UserDetails.Email,
		OrderDate:       date,
		ShippingAddress: req.ShippingAddress,
		PaymentStatus:   PaymentUnpaid,
		DeliveryStatus:  DeliveryPending,
		Items:           append([]OrderItem(nil), req.Items...),
	}
	if err := s.Repo.Create(ctx, &o); err != nil {
		placed.WithLabelValues("error").Inc()
		// Stok sudah terpotong; kembalikan supaya tidak bocor.
		if !s.Inventory.Compensate(ctx, toInventoryItems(req.Items)) {
			s.Log.Error("stock leaked after failed order write",
				zap.String("order_number", o.OrderNumber),
				zap.Any("items", req.Items),
			)
		}
		return Order{}, apperr.Internal("Order Place failed", err)
	}
	placed.WithLabelValues("placed").Inc()
	s.Log.Info("order placed",
		zap.Int64("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("email", o.UserEmail),
	)

	if err := s.Events.OrderPlaced(ctx, OrderPlacedPayload{
		OrderNumber: o.OrderNumber,
		Email:       req.UserDetails.Email,
		FirstName:   req.UserDetails.FirstName,
		LastName:    req.UserDetails.LastName,
	}); err != nil {
		publishFailures.WithLabelValues(EventOrderPlaced).Inc()
		s.Log.Warn("publish order-placed", zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
	return o, nil
}

// Pay moves an unpaid order to PAID.
func (s *Saga) Pay(ctx context.Context, id int64) (Order, string, error) {
	return s.transition(ctx, id, ActionPay, nil)
}

// Cancel returns the order's stock to inventory and cancels it. The order
// stays untouched when inventory does not confirm the compensation.
func (s *Saga) Cancel(ctx context.Context, id int64) (Order, string, error) {
	var returned []OrderItem
	o, msg, err := s.transition(ctx, id, ActionCancel, func(ctx context.Context, o *Order) error {
		if !s.Inventory.Compensate(ctx, toInventoryItems(o.Items)) {
			return apperr.New(apperr.KindUnavailable, msgCancelFailed)
		}
		returned = o.Items
		return nil
	})
	if err != nil {
		if returned != nil {
			// Stok sudah dikembalikan tapi status tidak tersimpan; cancel ulang akan mengembalikan lagi.
			s.Log.Error("stock returned but order cancel not saved",
				zap.Int64("order_id", id),
				zap.Any("items", returned),
				zap.Error(err),
			)
		}
		return o, msg, err
	}
	if err := s.Events.OrderCancelled(ctx, OrderCancelledPayload{OrderNumber: o.OrderNumber, Email: o.UserEmail}); err != nil {
		publishFailures.WithLabelValues(EventOrderCancelled).Inc()
		s.Log.Warn("publish order-cancelled", zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
	return o, msg, nil
}

// Ship requires a paid order that has not left the warehouse.
func (s *Saga) Ship(ctx context.Context, id int64) (Order, string, error) {
	return s.transition(ctx, id, ActionShip, nil)
}

// Deliver requires a shipped order.
func (s *Saga) Deliver(ctx context.Context, id int64) (Order, string, error) {
	return s.transition(ctx, id, ActionDeliver, nil)
}

// transition checks and applies a under the order's lock. sideEffect, when
// set, runs after the check and before the write; its error aborts the write.
func (s *Saga) transition(ctx context.Context, id int64, a Action, sideEffect func(context.Context, *Order) error) (Order, string, error) {
	o, err := s.Repo.Mutate(ctx, id, func(o *Order) error {
		if err := CheckTransition(*o, a); err != nil {
			return err
		}
		if sideEffect != nil {
			if err := sideEffect(ctx, o); err != nil {
				return err
			}
		}
		apply(o, a)
		return nil
	})
	if err != nil {
		err = s.orderErr(id, err)
		transitions.WithLabelValues(string(a), strings.ToLower(string(apperr.KindOf(err)))).Inc()
		return Order{}, "", err
	}
	transitions.WithLabelValues(string(a), "ok").Inc()
	s.Log.Info("order transition",
		zap.Int64("order_id", o.ID),
		zap.String("action", string(a)),
		zap.String("payment_status", string(o.PaymentStatus)),
		zap.String("delivery_status", string(o.DeliveryStatus)),
	)
	return o, successMessage[a], nil
}

func (s *Saga) Get(ctx context.Context, orderNumber string) (Order, error) {
	o, err := s.Repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return Order{}, s.orderErr(0, err)
	}
	return o, nil
}

func (s *Saga) ListByUser(ctx context.Context, email string) ([]Order, error) {
	list, err := s.Repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal("could not list orders", err)
	}
	return list, nil
}

func (s *Saga) List(ctx context.Context) ([]Order, error) {
	list, err := s.Repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal("could not list orders", err)
	}
	return list, nil
}

// orderErr keeps user-facing errors as they are and turns storage failures
// into internal ones.
func (s *Saga) orderErr(id int64, err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound(msgNotFound)
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	s.Log.Error("order storage", zap.Int64("order_id", id), zap.Error(err))
	return apperr.Internal("order storage failed", err)
}

func validatePlace(req PlaceOrderRequest, now time.Time) (time.Time, error) {
	if len(req.Items) == 0 {
		return time.Time{}, apperr.Validation("at least one item is required")
	}
	for _, it := range req.Items {
		if strings.TrimSpace(it.SKUCode) == "" {
			return time.Time{}, apperr.Validation("skuCode is required")
		}
		if it.Quantity <= 0 {
			return time.Time{}, apperr.Validation("quantity must be positive for sku %s", it.SKUCode)
		}
	}
	if strings.TrimSpace(req.UserDetails.Email) == "" {
		return time.Time{}, apperr.Validation("userDetails.email is required")
	}
	if req.Total.IsNegative() {
		return time.Time{}, apperr.Validation("total must not be negative")
	}
	if req.Date == "" {
		return now.UTC().Truncate(24 * time.Hour), nil
	}
	d, err := time.Parse(DateLayout, req.Date)
	if err != nil {
		return time.Time{}, apperr.Validation("date must look like %s", DateLayout)
	}
	return d, nil
}

func toInventoryItems(items []OrderItem) []inventory.Item {
	out := make([]inventory.Item, 0, len(items))
	for _, it := range items {
		out = append(out, inventory.Item{SKUCode: it.SKUCode, Quantity: it.Quantity})
	}
	return out
}
