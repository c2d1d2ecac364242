package inventory

import (
	"context"
	"testing"

	"github.com/ariefcatur/go-order-fulfillment/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestWarehouseCRUD(t *testing.T) {
	l := NewMemoryLedger()
	svc := &Warehouses{Store: l}
	ctx := context.Background()

	_, err := svc.Create(ctx, WarehouseRequest{Address: strp("Jl. Sudirman 1")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	w, err := svc.Create(ctx, WarehouseRequest{Name: strp("Cikarang DC"), Address: strp("Jl. Industri 5")})
	require.NoError(t, err)
	assert.NotZero(t, w.ID)

	w, err = svc.Update(ctx, w.ID, WarehouseRequest{ManagerName: strp("Sari")})
	require.NoError(t, err)
	assert.Equal(t, "Cikarang DC", w.Name)
	assert.Equal(t, "Sari", w.ManagerName)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, w.ID))
	_, err = svc.Get(ctx, w.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(svc.Delete(ctx, w.ID), apperr.KindNotFound))
}

func TestDeleteWarehouseDetachesStock(t *testing.T) {
	l := NewMemoryLedger()
	svc := &Warehouses{Store: l}
	ctx := context.Background()

	w, err := svc.Create(ctx, WarehouseRequest{Name: strp("Surabaya")})
	require.NoError(t, err)
	l.Seed(StockRecord{SKUCode: "iphone_15", Quantity: 4, WarehouseID: &w.ID})

	require.NoError(t, svc.Delete(ctx, w.ID))

	rs, _ := l.FindBySKU(ctx, "iphone_15")
	require.Len(t, rs, 1)
	assert.Nil(t, rs[0].WarehouseID)
}
