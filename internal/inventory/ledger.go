package inventory

import (
	"context"
	"errors"
)

var ErrWarehouseNotFound = errors.New("warehouse not found")

// Ledger stores stock records. Writes happen only inside InTx.
type Ledger interface {
	// InTx runs fn as one unit of work. If fn returns an error every write
	// made through tx is discarded.
	InTx(ctx context.Context, fn func(tx LedgerTx) error) error

	// FindBySKU returns the SKU's records ordered by id.
	FindBySKU(ctx context.Context, sku string) ([]StockRecord, error)
	List(ctx context.Context) ([]StockRecord, error)
	// LowStock returns every record with quantity <= threshold.
	LowStock(ctx context.Context, threshold int) ([]StockRecord, error)
}

type LedgerTx interface {
	// LockBySKU returns the SKU's records fullest first and holds them until
	// the unit of work ends.
	LockBySKU(ctx context.Context, sku string) ([]StockRecord, error)
	// Save inserts records with a zero ID (setting it) and updates the rest.
	Save(ctx context.Context, rec *StockRecord) error
	DeleteBySKU(ctx context.Context, sku string) (int, error)
}

type WarehouseStore interface {
	ListWarehouses(ctx context.Context) ([]Warehouse, error)
	GetWarehouse(ctx context.Context, id int64) (Warehouse, error)
	CreateWarehouse(ctx context.Context, w *Warehouse) error
	UpdateWarehouse(ctx context.Context, w Warehouse) error
	DeleteWarehouse(ctx context.Context, id int64) error
}
