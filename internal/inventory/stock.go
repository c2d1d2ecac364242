package inventory

import "math"

type Status string

const (
	StatusOutOfStock Status = "OUT_OF_STOCK"
	StatusLowStock   Status = "LOW_STOCK"
	StatusInStock    Status = "IN_STOCK"
)

const (
	// below this a non-empty record is LOW_STOCK
	lowStockBoundary = 10

	// RecordCapacity is the most a single record takes during compensation.
	RecordCapacity = 500

	// MaxQuantity bounds a request quantity and a record's quantity. It is
	// the largest value the stock_records.quantity column holds.
	MaxQuantity = math.MaxInt32

	DefaultLocation          = "Unknown"
	DefaultLowStockThreshold = 5

	statusNotFound = "Inventory not found"
)

// DeriveStatus is the only source of a record's status.
func DeriveStatus(quantity int) Status {
	switch {
	case quantity <= 0:
		return StatusOutOfStock
	case quantity < lowStockBoundary:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// StockRecord is the quantity of one SKU held at one location. A SKU may have
// several records.
type StockRecord struct {
	ID          int64  `json:"id"`
	SKUCode     string `json:"skuCode"`
	Quantity    int    `json:"quantity"`
	Location    string `json:"location"`
	Status      Status `json:"status"`
	WarehouseID *int64 `json:"warehouseId,omitempty"`
}

// SetQuantity updates the quantity and recomputes the status. q must not be
// negative.
func (r *StockRecord) SetQuantity(q int) {
	r.Quantity = q
	r.Status = DeriveStatus(q)
}

// newStockRecord is the single place a record is born. ID stays zero until
// the ledger saves it.
func newStockRecord(sku, location string, quantity int) StockRecord {
	if location == "" {
		location = DefaultLocation
	}
	r := StockRecord{SKUCode: sku, Location: location}
	r.SetQuantity(quantity)
	return r
}

// Item is one line of an order item batch.
type Item struct {
	SKUCode  string `json:"skuCode"`
	Quantity int    `json:"quantity"`
}

// StockResponse answers single-SKU queries.
type StockResponse struct {
	SKUCode           string `json:"skuCode"`
	IsInStock         bool   `json:"isInStock"`
	AvailableQuantity int    `json:"availableQuantity"`
	Status            string `json:"status"`
}

type RestockRequest struct {
	SKUCode     string `json:"skuCode"`
	Quantity    int    `json:"quantity"`
	Location    string `json:"location"`
	WarehouseID *int64 `json:"warehouseId,omitempty"`
}
