package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recs(qs ...int) []StockRecord {
	out := make([]StockRecord, len(qs))
	for i, q := range qs {
		out[i] = newStockRecord("sku", "", q)
		out[i].ID = int64(i + 1)
	}
	return out
}

func quantities(rs []StockRecord) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.Quantity
	}
	return out
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, StatusOutOfStock, DeriveStatus(0))
	assert.Equal(t, StatusLowStock, DeriveStatus(1))
	assert.Equal(t, StatusLowStock, DeriveStatus(9))
	assert.Equal(t, StatusInStock, DeriveStatus(10))
}

func TestSortFullestFirst(t *testing.T) {
	rs := recs(3, 8, 8, 1)
	sortFullestFirst(rs)

	assert.Equal(t, []int{8, 8, 3, 1}, quantities(rs))
	assert.Equal(t, int64(2), rs[0].ID)
	assert.Equal(t, int64(3), rs[1].ID)
}

func TestDeductSpillsIntoNextRecord(t *testing.T) {
	rs := recs(8, 3)
	touched, short := deduct(rs, 10)

	assert.Equal(t, []int{0, 1}, touched)
	assert.Zero(t, short)
	assert.Equal(t, []int{0, 1}, quantities(rs))
	assert.Equal(t, StatusOutOfStock, rs[0].Status)
	assert.Equal(t, StatusLowStock, rs[1].Status)
}

func TestDeductSkipsEmptyRecords(t *testing.T) {
	rs := recs(0, 4)
	touched, short := deduct(rs, 6)

	assert.Equal(t, []int{1}, touched)
	assert.Equal(t, 2, short)
}

func TestFillToCapacityAndOverflow(t *testing.T) {
	rs := recs(495, 10)
	touched, overflow := fill(rs, 500, RecordCapacity)

	assert.Equal(t, []int{0, 1}, touched)
	assert.Equal(t, []int{500, 500}, quantities(rs))
	assert.Equal(t, 5, overflow)
}

func TestFillLeavesOverCapacityRecordAlone(t *testing.T) {
	rs := recs(700, 20)
	touched, overflow := fill(rs, 30, RecordCapacity)

	assert.Equal(t, []int{1}, touched)
	assert.Equal(t, []int{700, 50}, quantities(rs))
	assert.Zero(t, overflow)
}

func TestFirstRecordIsLowestID(t *testing.T) {
	rs := recs(1, 2, 3)
	sortFullestFirst(rs)

	assert.Equal(t, int64(1), rs[firstRecord(rs)].ID)
}

func TestLockOrderMergesAndSorts(t *testing.T) {
	items, err := lockOrder([]Item{
		{SKUCode: "pixel_8", Quantity: 1},
		{SKUCode: "iphone_15", Quantity: 2},
		{SKUCode: "pixel_8", Quantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, []Item{
		{SKUCode: "iphone_15", Quantity: 2},
		{SKUCode: "pixel_8", Quantity: 5},
	}, items)

	reversed, err := lockOrder([]Item{
		{SKUCode: "pixel_8", Quantity: 5},
		{SKUCode: "iphone_15", Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, items, reversed)

	_, err = lockOrder([]Item{
		{SKUCode: "pixel_8", Quantity: MaxQuantity},
		{SKUCode: "pixel_8", Quantity: MaxQuantity},
	})
	assert.Error(t, err)
}
