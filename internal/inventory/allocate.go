package inventory

import (
	"sort"

	"github.com/ariefcatur/go-order-fulfillment/internal/apperr"
)

// sortFullestFirst orders records by quantity descending, ties by id.
func sortFullestFirst(recs []StockRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Quantity != recs[j].Quantity {
			return recs[i].Quantity > recs[j].Quantity
		}
		return recs[i].ID < recs[j].ID
	})
}

func totalQuantity(recs []StockRecord) int {
	n := 0
	for _, r := range recs {
		n += r.Quantity
	}
	return n
}

// deduct removes qty from recs, fullest record first, spilling into the next
// one. recs must already be sorted fullest first. It returns the indexes of the
// records it changed and whatever could not be taken.
func deduct(recs []StockRecord, qty int) (touched []int, short int) {
	remaining := qty
	for i := range recs {
		if remaining <= 0 {
			break
		}
		if recs[i].Quantity == 0 {
			continue
		}
		take := min(recs[i].Quantity, remaining)
		recs[i].SetQuantity(recs[i].Quantity - take)
		remaining -= take
		touched = append(touched, i)
	}
	return touched, remaining
}

// fill tops records up to capacity in the order given and returns the indexes
// it changed plus the overflow. Records already at or above capacity are left
// alone.
func fill(recs []StockRecord, qty, capacity int) (touched []int, overflow int) {
	remaining := qty
	for i := range recs {
		if remaining <= 0 {
			break
		}
		space := capacity - recs[i].Quantity
		if space <= 0 {
			continue
		}
		add := min(space, remaining)
		recs[i].SetQuantity(recs[i].Quantity + add)
		remaining -= add
		touched = append(touched, i)
	}
	return touched, remaining
}

// firstRecord returns the index of the record with the lowest id.
func firstRecord(recs []StockRecord) int {
	first := 0
	for i := range recs {
		if recs[i].ID < recs[first].ID {
			first = i
		}
	}
	return first
}

// lockOrder merges items of the same SKU and sorts them by SKU, so every
// batch takes its row locks in the same order.
func lockOrder(batch []Item) ([]Item, error) {
	sums := make(map[string]int, len(batch))
	for _, it := range batch {
		if sums[it.SKUCode] > MaxQuantity-it.Quantity {
			return nil, apperr.Validation("quantity for sku %s must not exceed %d", it.SKUCode, MaxQuantity)
		}
		sums[it.SKUCode] += it.Quantity
	}
	out := make([]Item, 0, len(sums))
	for sku, qty := range sums {
		out = append(out, Item{SKUCode: sku, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKUCode < out[j].SKUCode })
	return out, nil
}
