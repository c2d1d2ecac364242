package orders

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/postgres"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPGRepo needs a disposable database in TEST_POSTGRES_DSN; the order
// tables are emptied before each test.
func newPGRepo(t *testing.T) *PGRepo {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, postgres.Migrate(ctx, db, postgres.SchemaOrders))
	_, err = db.Exec(ctx, `TRUNCATE orders, order_items RESTART IDENTITY`)
	require.NoError(t, err)
	return &PGRepo{DB: db}
}

func newOrder(email string) Order {
	return Order{
		OrderNumber:     uuid.NewString(),
		Total:           decimal.RequireFromString("1299.50"),
		UserEmail:       email,
		OrderDate:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		ShippingAddress: "Jl. Merdeka 10, Bandung",
		PaymentStatus:   PaymentUnpaid,
		DeliveryStatus:  DeliveryPending,
		Items:           []OrderItem{{SKUCode: "iphone_15", Quantity: 2}, {SKUCode: "pixel_8", Quantity: 1}},
	}
}

func TestPGRepoRoundTrip(t *testing.T) {
	r := newPGRepo(t)
	ctx := context.Background()

	o := newOrder("budi@example.com")
	require.NoError(t, r.Create(ctx, &o))
	require.NotZero(t, o.ID)

	got, err := r.FindByNumber(ctx, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.True(t, o.Total.Equal(got.Total))
	assert.Equal(t, o.Items, got.Items)

	list, err := r.ListByEmail(ctx, "budi@example.com")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = r.FindByID(ctx, o.ID+1000)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPGRepoMutateRollsBackOnError(t *testing.T) {
	r := newPGRepo(t)
	ctx := context.Background()
	o := newOrder("siti@example.com")
	require.NoError(t, r.Create(ctx, &o))

	_, err := r.Mutate(ctx, o.ID, func(o *Order) error {
		apply(o, ActionPay)
		return errors.New("inventory refused")
	})
	require.Error(t, err)

	got, err := r.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentUnpaid, got.PaymentStatus)
}

func TestPGRepoMutateSerializesPay(t *testing.T) {
	r := newPGRepo(t)
	ctx := context.Background()
	o := newOrder("andi@example.com")
	require.NoError(t, r.Create(ctx, &o))

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Mutate(ctx, o.ID, func(o *Order) error {
				if err := CheckTransition(*o, ActionPay); err != nil {
					return err
				}
				apply(o, ActionPay)
				return nil
			})
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
