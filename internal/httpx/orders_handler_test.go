package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/inventory"
	"github.com/ariefcatur/go-order-fulfillment/internal/inventoryclient"
	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopEvents struct{}

func (nopEvents) OrderPlaced(context.Context, orders.OrderPlacedPayload) error       { return nil }
func (nopEvents) OrderCancelled(context.Context, orders.OrderCancelledPayload) error { return nil }

type memCache struct {
	mu     sync.Mutex
	idem   map[string]string
	orders map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{idem: map[string]string{}, orders: map[string][]byte{}}
}

func (c *memCache) LookupIdempotent(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.idem[key]
	return v, ok, nil
}

func (c *memCache) RememberIdempotent(_ context.Context, key, number string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idem[key] = number
	return nil
}

func (c *memCache) CachedOrder(_ context.Context, number string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.orders[number]
	return b, ok, nil
}

func (c *memCache) CacheOrder(_ context.Context, number string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[number] = body
	return nil
}

func (c *memCache) InvalidateOrder(_ context.Context, number string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.orders, number)
	return nil
}

// services wires the order service to a real inventory service over HTTP.
type services struct {
	orders    http.Handler
	inventory http.Handler
	cache     *memCache
}

func newServices(t *testing.T, seed ...inventory.StockRecord) *services {
	t.Helper()
	inv, _ := newInventoryRouter(seed...)
	srv := httptest.NewServer(inv)
	t.Cleanup(srv.Close)

	client := inventoryclient.New(inventoryclient.Config{
		BaseURL:          srv.URL,
		Timeout:          time.Second,
		RetryAttempts:    2,
		RetryBackoff:     time.Millisecond,
		BreakerErrors:    5,
		BreakerSuccesses: 1,
		BreakerTimeout:   time.Second,
	}, zap.NewNop())

	cache := newMemCache()
	h := &OrdersHandler{
		Saga:  orders.NewSaga(orders.NewMemoryRepo(), client, nopEvents{}, zap.NewNop()),
		Cache: cache,
		Log:   zap.NewNop(),
	}
	r := NewRouter(zap.NewNop(), 0)
	h.Register(r)
	return &services{orders: r, inventory: inv, cache: cache}
}

func (s *services) available(t *testing.T, sku string) int {
	rec := do(t, s.inventory, http.MethodGet, "/inventory/stock?skuCode="+sku, nil)
	return decode[inventory.StockResponse](t, rec).AvailableQuantity
}

func placeBody(items ...orders.OrderItem) map[string]any {
	return map[string]any{
		"items":           items,
		"total":           "2499.98",
		"shippingAddress": "Jl. Merdeka 10, Bandung",
		"date":            "2024-05-01",
		"userDetails":     map[string]string{"email": "budi@example.com", "firstName": "Budi", "lastName": "Santoso"},
	}
}

func TestOrderFlowOverHTTP(t *testing.T) {
	s := newServices(t,
		inventory.StockRecord{SKUCode: "iphone_15", Quantity: 10},
		inventory.StockRecord{SKUCode: "pixel_8", Quantity: 5},
	)

	rec := do(t, s.orders, http.MethodPost, "/orders", placeBody(
		orders.OrderItem{SKUCode: "iphone_15", Quantity: 2},
		orders.OrderItem{SKUCode: "pixel_8", Quantity: 2},
	))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[CreateOrderResp](t, rec)
	assert.NotEmpty(t, created.OrderNumber)
	assert.Equal(t, "2499.98", created.Total.StringFixed(2))
	assert.Equal(t, 8, s.available(t, "iphone_15"))
	assert.Equal(t, 3, s.available(t, "pixel_8"))

	path := "/orders/" + itoa(created.OrderID)

	rec = do(t, s.orders, http.MethodPut, path+"/payment", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Payment successfully done", decode[TransitionResp](t, rec).Message)

	rec = do(t, s.orders, http.MethodPut, path+"/payment", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Your already did payment", decode[errorResp](t, rec).Message)

	rec = do(t, s.orders, http.MethodPut, path+"/ship", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s.orders, http.MethodPut, path+"/deliver", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orders.DeliveryDelivered, decode[TransitionResp](t, rec).Order.DeliveryStatus)

	rec = do(t, s.orders, http.MethodPut, path+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Can't cancel after payment", decode[errorResp](t, rec).Message)

	rec = do(t, s.orders, http.MethodGet, "/orders/"+created.OrderNumber, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[orders.Order](t, rec)
	assert.Equal(t, orders.PaymentPaid, got.PaymentStatus)
	assert.Len(t, got.Items, 2)

	rec = do(t, s.orders, http.MethodGet, "/orders/user/budi@example.com", nil)
	assert.Len(t, decode[[]orders.Order](t, rec), 1)
}

func TestOutOfStockOverHTTP(t *testing.T) {
	s := newServices(t,
		inventory.StockRecord{SKUCode: "iphone_15", Quantity: 10},
		inventory.StockRecord{SKUCode: "pixel_8", Quantity: 5},
	)

	rec := do(t, s.orders, http.MethodPost, "/orders", placeBody(
		orders.OrderItem{SKUCode: "iphone_15", Quantity: 2},
		orders.OrderItem{SKUCode: "pixel_8", Quantity: 999999},
	))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Out of Stock", decode[errorResp](t, rec).Message)
	assert.Equal(t, 10, s.available(t, "iphone_15"))

	rec = do(t, s.orders, http.MethodGet, "/orders", nil)
	assert.Empty(t, decode[[]orders.Order](t, rec))
}

func TestCancelOverHTTPReturnsStock(t *testing.T) {
	s := newServices(t, inventory.StockRecord{SKUCode: "iphone_15", Quantity: 10})

	rec := do(t, s.orders, http.MethodPost, "/orders", placeBody(orders.OrderItem{SKUCode: "iphone_15", Quantity: 4}))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[CreateOrderResp](t, rec)

	// warm the cache so the cancel has something to invalidate
	do(t, s.orders, http.MethodGet, "/orders/"+created.OrderNumber, nil)

	rec = do(t, s.orders, http.MethodPut, "/orders/"+itoa(created.OrderID)+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Order Canceled successfully", decode[TransitionResp](t, rec).Message)
	assert.Equal(t, 10, s.available(t, "iphone_15"))

	rec = do(t, s.orders, http.MethodGet, "/orders/"+created.OrderNumber, nil)
	assert.Equal(t, orders.PaymentCanceled, decode[orders.Order](t, rec).PaymentStatus)
}

func TestIdempotentCreate(t *testing.T) {
	s := newServices(t, inventory.StockRecord{SKUCode: "iphone_15", Quantity: 10})

	send := func() *httptest.ResponseRecorder {
		body, err := json.Marshal(placeBody(orders.OrderItem{SKUCode: "iphone_15", Quantity: 3}))
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
		req.Header.Set(HeaderIdempotencyKey, "checkout-77")
		rec := httptest.NewRecorder()
		s.orders.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code)
	second := send()
	require.Equal(t, http.StatusOK, second.Code)

	a, b := decode[CreateOrderResp](t, first), decode[CreateOrderResp](t, second)
	assert.Equal(t, a.OrderNumber, b.OrderNumber)
	assert.True(t, b.Idempotent)
	assert.Equal(t, 7, s.available(t, "iphone_15"))
}

func TestOrderRequestErrors(t *testing.T) {
	s := newServices(t)

	rec := do(t, s.orders, http.MethodPut, "/orders/abc/payment", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s.orders, http.MethodPut, "/orders/99/payment", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", decode[errorResp](t, rec).Message)

	rec = do(t, s.orders, http.MethodGet, "/orders/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s.orders, http.MethodPost, "/orders", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
