package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-order-fulfillment/internal/apperr"
	"go.uber.org/zap"
)

// Engine is the allocation engine. Every operation that mutates stock runs in
// one Ledger unit of work.
type Engine struct {
	Ledger            Ledger
	Log               *zap.Logger
	LowStockThreshold int
}

func NewEngine(l Ledger, log *zap.Logger) *Engine {
	return &Engine{Ledger: l, Log: log, LowStockThreshold: DefaultLowStockThreshold}
}

// Reserve deducts every item of the batch, summing across the SKU's records
// fullest first. It reports false with a NotFound or OutOfStock error when any
// SKU cannot be covered, in which case nothing in the batch is deducted.
func (e *Engine) Reserve(ctx context.Context, batch []Item) (bool, error) {
	items, err := prepareBatch(batch)
	if err != nil {
		reservations.WithLabelValues("invalid").Inc()
		return false, err
	}

	err = e.Ledger.InTx(ctx, func(tx LedgerTx) error {
		for _, it := range items {
			recs, err := tx.LockBySKU(ctx, it.SKUCode)
			if err != nil {
				return fmt.Errorf("lock %s: %w", it.SKUCode, err)
			}
			if len(recs) == 0 {
				return apperr.NotFound("Product with SKU %s not found", it.SKUCode)
			}
			if available := totalQuantity(recs); available < it.Quantity {
				e.Log.Info("insufficient stock",
					zap.String("sku", it.SKUCode),
					zap.Int("requested", it.Quantity),
					zap.Int("available", available),
				)
				return apperr.OutOfStock(fmt.Sprintf("Not enough stock for product with SKU %s", it.SKUCode))
			}
			touched, _ := deduct(recs, it.Quantity)
			for _, i := range touched {
				if err := tx.Save(ctx, &recs[i]); err != nil {
					return fmt.Errorf("save record %d: %w", recs[i].ID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindNotFound:
			reservations.WithLabelValues("not_found").Inc()
		case apperr.KindOutOfStock:
			reservations.WithLabelValues("insufficient").Inc()
		default:
			reservations.WithLabelValues("error").Inc()
			e.Log.Error("reserve batch", zap.Error(err), zap.Int("items", len(batch)))
		}
		return false, err
	}
	reservations.WithLabelValues("reserved").Inc()
	return true, nil
}

// Compensate returns stock, topping each record up to RecordCapacity fullest
// first and putting the rest into a new record. It has no business failure:
// an error means invalid input or a storage fault.
func (e *Engine) Compensate(ctx context.Context, batch []Item) (bool, error) {
	items, err := prepareBatch(batch)
	if err != nil {
		return false, err
	}

	var created, units int
	err = e.Ledger.InTx(ctx, func(tx LedgerTx) error {
		for _, it := range items {
			recs, err := tx.LockBySKU(ctx, it.SKUCode)
			if err != nil {
				return fmt.Errorf("lock %s: %w", it.SKUCode, err)
			}
			touched, overflow := fill(recs, it.Quantity, RecordCapacity)
			for _, i := range touched {
				if err := tx.Save(ctx, &recs[i]); err != nil {
					return fmt.Errorf("save record %d: %w", recs[i].ID, err)
				}
			}
			if overflow > 0 {
				rec := newStockRecord(it.SKUCode, DefaultLocation, overflow)
				if err := tx.Save(ctx, &rec); err != nil {
					return fmt.Errorf("create record for %s: %w", it.SKUCode, err)
				}
				created++
			}
			units += it.Quantity
		}
		return nil
	})
	if err != nil {
		e.Log.Error("compensate batch", zap.Error(err), zap.Int("items", len(batch)))
		return false, err
	}
	createdRecords.Add(float64(created))
	compensatedUnits.Add(float64(units))
	return true, nil
}

// CheckSingle reports whether one record alone can cover quantity. Unlike
// Reserve it does not sum across locations.
func (e *Engine) CheckSingle(ctx context.Context, sku string, quantity int) (bool, error) {
	if err := validateItem(Item{SKUCode: sku, Quantity: quantity}); err != nil {
		return false, err
	}
	recs, err := e.Ledger.FindBySKU(ctx, sku)
	if err != nil {
		return false, fmt.Errorf("find %s: %w", sku, err)
	}
	for _, r := range recs {
		if r.Quantity >= quantity {
			return true, nil
		}
	}
	return false, nil
}

// Query describes the SKU's first record (lowest id), not the sum over
// locations.
func (e *Engine) Query(ctx context.Context, sku string, quantity int) (StockResponse, error) {
	if strings.TrimSpace(sku) == "" {
		return StockResponse{}, apperr.Validation("skuCode is required")
	}
	recs, err := e.Ledger.FindBySKU(ctx, sku)
	if err != nil {
		return StockResponse{}, fmt.Errorf("find %s: %w", sku, err)
	}
	if len(recs) == 0 {
		return StockResponse{SKUCode: sku, Status: statusNotFound}, nil
	}
	r := recs[0]
	return StockResponse{
		SKUCode:           sku,
		IsInStock:         r.Quantity >= quantity,
		AvailableQuantity: r.Quantity,
		Status:            string(DeriveStatus(r.Quantity)),
	}, nil
}

// AddToSingle adds delta to the SKU's first record.
func (e *Engine) AddToSingle(ctx context.Context, sku string, delta int) (StockResponse, error) {
	if err := validateItem(Item{SKUCode: sku, Quantity: delta}); err != nil {
		return StockResponse{}, err
	}
	var out StockRecord
	err := e.Ledger.InTx(ctx, func(tx LedgerTx) error {
		recs, err := tx.LockBySKU(ctx, sku)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return apperr.NotFound("Product with SKU %s not found", sku)
		}
		out = recs[firstRecord(recs)]
		if err := checkRoom(out, delta); err != nil {
			return err
		}
		out.SetQuantity(out.Quantity + delta)
		return tx.Save(ctx, &out)
	})
	if err != nil {
		return StockResponse{}, err
	}
	return recordResponse(out), nil
}

// Deduct takes quantity from the SKU's first record only.
func (e *Engine) Deduct(ctx context.Context, sku string, quantity int) (StockResponse, error) {
	if err := validateItem(Item{SKUCode: sku, Quantity: quantity}); err != nil {
		return StockResponse{}, err
	}
	var out StockRecord
	err := e.Ledger.InTx(ctx, func(tx LedgerTx) error {
		recs, err := tx.LockBySKU(ctx, sku)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return apperr.NotFound("Product with SKU %s not found", sku)
		}
		out = recs[firstRecord(recs)]
		if out.Quantity < quantity {
			return apperr.OutOfStock(fmt.Sprintf("Not enough stock for product with SKU %s", sku))
		}
		out.SetQuantity(out.Quantity - quantity)
		return tx.Save(ctx, &out)
	})
	if err != nil {
		return StockResponse{}, err
	}
	return recordResponse(out), nil
}

// Restock adds to the SKU's first record, or creates one at the requested
// location when the SKU is unknown.
func (e *Engine) Restock(ctx context.Context, req RestockRequest) (StockResponse, error) {
	if err := validateItem(Item{SKUCode: req.SKUCode, Quantity: req.Quantity}); err != nil {
		return StockResponse{}, err
	}
	var (
		out     StockRecord
		created bool
	)
	err := e.Ledger.InTx(ctx, func(tx LedgerTx) error {
		recs, err := tx.LockBySKU(ctx, req.SKUCode)
		if err != nil {
			return err
		}
		created = len(recs) == 0
		if created {
			out = newStockRecord(req.SKUCode, req.Location, req.Quantity)
			out.WarehouseID = req.WarehouseID
		} else {
			out = recs[firstRecord(recs)]
			if err := checkRoom(out, req.Quantity); err != nil {
				return err
			}
			out.SetQuantity(out.Quantity + req.Quantity)
		}
		return tx.Save(ctx, &out)
	})
	if err != nil {
		return StockResponse{}, err
	}
	if created {
		createdRecords.Inc()
	}
	return recordResponse(out), nil
}

// EnsureProduct is the get-or-create entry point: an unknown SKU gets an empty
// record at DefaultLocation.
func (e *Engine) EnsureProduct(ctx context.Context, sku string) (StockResponse, error) {
	if strings.TrimSpace(sku) == "" {
		return StockResponse{}, apperr.Validation("skuCode is required")
	}
	var (
		out     StockRecord
		created bool
	)
	err := e.Ledger.InTx(ctx, func(tx LedgerTx) error {
		var err error
		out, created, err = getOrCreate(ctx, tx, sku)
		return err
	})
	if err != nil {
		return StockResponse{}, err
	}
	if created {
		createdRecords.Inc()
	}
	return recordResponse(out), nil
}

func getOrCreate(ctx context.Context, tx LedgerTx, sku string) (StockRecord, bool, error) {
	recs, err := tx.LockBySKU(ctx, sku)
	if err != nil {
		return StockRecord{}, false, err
	}
	if len(recs) > 0 {
		return recs[firstRecord(recs)], false, nil
	}
	rec := newStockRecord(sku, DefaultLocation, 0)
	if err := tx.Save(ctx, &rec); err != nil {
		return StockRecord{}, false, err
	}
	return rec, true, nil
}

// RemoveProduct deletes every record of the SKU.
func (e *Engine) RemoveProduct(ctx context.Context, sku string) error {
	if strings.TrimSpace(sku) == "" {
		return apperr.Validation("skuCode is required")
	}
	return e.Ledger.InTx(ctx, func(tx LedgerTx) error {
		n, err := tx.DeleteBySKU(ctx, sku)
		if err != nil {
			return err
		}
		if n == 0 {
			e.Log.Warn("delete of unknown sku", zap.String("sku", sku))
			return apperr.NotFound("Product with SKU %s not found", sku)
		}
		e.Log.Info("product deleted", zap.String("sku", sku), zap.Int("records", n))
		return nil
	})
}

// LowStockItems returns every record with quantity <= threshold, across all
// SKUs. Callers without a threshold of their own pass e.LowStockThreshold.
func (e *Engine) LowStockItems(ctx context.Context, threshold int) ([]StockRecord, error) {
	if threshold < 0 {
		return nil, apperr.Validation("threshold must not be negative")
	}
	return e.Ledger.LowStock(ctx, threshold)
}

func (e *Engine) List(ctx context.Context) ([]StockRecord, error) {
	return e.Ledger.List(ctx)
}

func recordResponse(r StockRecord) StockResponse {
	return StockResponse{
		SKUCode:           r.SKUCode,
		IsInStock:         r.Quantity > 0,
		AvailableQuantity: r.Quantity,
		Status:            string(r.Status),
	}
}

// prepareBatch validates the batch and returns it in lock order.
func prepareBatch(batch []Item) ([]Item, error) {
	if len(batch) == 0 {
		return nil, apperr.Validation("at least one item is required")
	}
	for _, it := range batch {
		if err := validateItem(it); err != nil {
			return nil, err
		}
	}
	return lockOrder(batch)
}

func validateItem(it Item) error {
	if strings.TrimSpace(it.SKUCode) == "" {
		return apperr.Validation("skuCode is required")
	}
	if it.Quantity <= 0 {
		return apperr.Validation("quantity must be positive for sku %s", it.SKUCode)
	}
	if it.Quantity > MaxQuantity {
		return apperr.Validation("quantity for sku %s must not exceed %d", it.SKUCode, MaxQuantity)
	}
	return nil
}

// checkRoom rejects an addition that would push r past MaxQuantity.
func checkRoom(r StockRecord, add int) error {
	if r.Quantity > MaxQuantity-add {
		return apperr.Validation("quantity for sku %s must not exceed %d", r.SKUCode, MaxQuantity)
	}
	return nil
}
