package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-order-fulfillment/internal/apperr"
	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HeaderIdempotencyKey lets clients retry POST /orders without placing the
// order twice.
const HeaderIdempotencyKey = "Idempotency-Key"

// OrderCache is the Redis shortcut in front of the order store. Optional.
type OrderCache interface {
	LookupIdempotent(ctx context.Context, key string) (string, bool, error)
	RememberIdempotent(ctx context.Context, key, orderNumber string) error
	CachedOrder(ctx context.Context, orderNumber string) ([]byte, bool, error)
	CacheOrder(ctx context.Context, orderNumber string, body []byte) error
	InvalidateOrder(ctx context.Context, orderNumber string) error
}

type OrdersHandler struct {
	Saga  *orders.Saga
	Cache OrderCache
	Log   *zap.Logger
}

type CreateOrderResp struct {
	OrderID     int64           `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	Total       decimal.Decimal `json:"total"`
	Message     string          `json:"message"`
	Idempotent  bool            `json:"idempotent"`
}

type TransitionResp struct {
	Message string       `json:"message"`
	Order   orders.Order `json:"order"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/user/{email}", h.listByUser)
		// {id} is the order number for GET and the numeric id for PUT.
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}/payment", h.transition(h.Saga.Pay))
		r.Put("/{id}/cancel", h.transition(h.Saga.Cancel))
		r.Put("/{id}/ship", h.transition(h.Saga.Ship))
		r.Put("/{id}/deliver", h.transition(h.Saga.Deliver))
	})
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.PlaceOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	ctx := r.Context()

	// Fast-path idempotency via Redis (optional, store tetap jadi kebenaran)
	idemKey := r.Header.Get(HeaderIdempotencyKey)
	if idemKey != "" && h.Cache != nil {
		if number, ok, err := h.Cache.LookupIdempotent(ctx, idemKey); err != nil {
			h.Log.Warn("idempotency lookup", zap.Error(err))
		} else if ok {
			if o, err := h.Saga.Get(ctx, number); err == nil {
				writeJSON(w, http.StatusOK, CreateOrderResp{
					OrderID: o.ID, OrderNumber: o.OrderNumber, Total: o.Total,
					Message: orders.MsgPlaced, Idempotent: true,
				})
				return
			}
		}
	}

	o, err := h.Saga.Place(ctx, req)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if idemKey != "" && h.Cache != nil {
		if err := h.Cache.RememberIdempotent(ctx, idemKey, o.OrderNumber); err != nil {
			h.Log.Warn("idempotency store", zap.String("order_number", o.OrderNumber), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusCreated, CreateOrderResp{
		OrderID: o.ID, OrderNumber: o.OrderNumber, Total: o.Total, Message: orders.MsgPlaced,
	})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "id")
	ctx := r.Context()

	// 1) coba cache
	if h.Cache != nil {
		if b, ok, err := h.Cache.CachedOrder(ctx, number); err == nil && ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(b)
			return
		}
	}

	// 2) fallback store
	o, err := h.Saga.Get(ctx, number)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	b, err := json.Marshal(o)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if h.Cache != nil {
		_ = h.Cache.CacheOrder(ctx, number, b)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Saga.List(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	list, err := h.Saga.ListByUser(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type transitionFunc func(ctx context.Context, id int64) (orders.Order, string, error)

func (h *OrdersHandler) transition(fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, r, h.Log, apperr.Validation("order id must be a positive integer"))
			return
		}
		o, msg, err := fn(r.Context(), id)
		if err != nil {
			writeError(w, r, h.Log, err)
			return
		}
		if h.Cache != nil {
			if err := h.Cache.InvalidateOrder(r.Context(), o.OrderNumber); err != nil {
				h.Log.Warn("order cache invalidate", zap.String("order_number", o.OrderNumber), zap.Error(err))
			}
		}
		writeJSON(w, http.StatusOK, TransitionResp{Message: msg, Order: o})
	}
}
