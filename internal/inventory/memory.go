package inventory

import (
	"context"
	"sort"
	"sync"
)

// MemoryLedger keeps records in process. A single mutex serializes every unit
// of work, which stands in for row locks.
type MemoryLedger struct {
	mu         sync.Mutex
	nextID     int64
	records    map[int64]StockRecord
	nextWH     int64
	warehouses map[int64]Warehouse
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		records:    make(map[int64]StockRecord),
		warehouses: make(map[int64]Warehouse),
	}
}

// Seed inserts records as-is apart from ID and status, which are assigned.
func (m *MemoryLedger) Seed(recs ...StockRecord) []StockRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]StockRecord, 0, len(recs))
	for _, r := range recs {
		m.nextID++
		r.ID = m.nextID
		if r.Location == "" {
			r.Location = DefaultLocation
		}
		r.SetQuantity(r.Quantity)
		m.records[r.ID] = r
		out = append(out, r)
	}
	return out
}

func (m *MemoryLedger) InTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{m: m, staged: map[int64]StockRecord{}, deleted: map[int64]bool{}}
	if err := fn(tx); err != nil {
		return err
	}
	for id := range tx.deleted {
		delete(m.records, id)
	}
	for id, r := range tx.staged {
		m.records[id] = r
	}
	return nil
}

func (m *MemoryLedger) FindBySKU(ctx context.Context, sku string) ([]StockRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(r StockRecord) bool { return r.SKUCode == sku }), nil
}

func (m *MemoryLedger) List(ctx context.Context) ([]StockRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(StockRecord) bool { return true }), nil
}

func (m *MemoryLedger) LowStock(ctx context.Context, threshold int) ([]StockRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(r StockRecord) bool { return r.Quantity <= threshold }), nil
}

// filter expects m.mu to be held.
func (m *MemoryLedger) filter(keep func(StockRecord) bool) []StockRecord {
	out := []StockRecord{}
	for _, r := range m.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memTx struct {
	m       *MemoryLedger
	staged  map[int64]StockRecord
	deleted map[int64]bool
}

func (t *memTx) LockBySKU(ctx context.Context, sku string) ([]StockRecord, error) {
	var out []StockRecord
	for id, r := range t.m.records {
		if t.deleted[id] {
			continue
		}
		if s, ok := t.staged[id]; ok {
			r = s
		}
		if r.SKUCode == sku {
			out = append(out, r)
		}
	}
	for id, r := range t.staged {
		if _, existing := t.m.records[id]; !existing && r.SKUCode == sku {
			out = append(out, r)
		}
	}
	sortFullestFirst(out)
	return out, nil
}

func (t *memTx) Save(ctx context.Context, rec *StockRecord) error {
	if rec.ID == 0 {
		t.m.nextID++
		rec.ID = t.m.nextID
	}
	t.staged[rec.ID] = *rec
	return nil
}

func (t *memTx) DeleteBySKU(ctx context.Context, sku string) (int, error) {
	recs, _ := t.LockBySKU(ctx, sku)
	for _, r := range recs {
		delete(t.staged, r.ID)
		if _, existing := t.m.records[r.ID]; existing {
			t.deleted[r.ID] = true
		}
	}
	return len(recs), nil
}

func (m *MemoryLedger) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Warehouse, 0, len(m.warehouses))
	for _, w := range m.warehouses {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryLedger) GetWarehouse(ctx context.Context, id int64) (Warehouse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.warehouses[id]
	if !ok {
		return Warehouse{}, ErrWarehouseNotFound
	}
	return w, nil
}

func (m *MemoryLedger) CreateWarehouse(ctx context.Context, w *Warehouse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextWH++
	w.ID = m.nextWH
	m.warehouses[w.ID] = *w
	return nil
}

func (m *MemoryLedger) UpdateWarehouse(ctx context.Context, w Warehouse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.warehouses[w.ID]; !ok {
		return ErrWarehouseNotFound
	}
	m.warehouses[w.ID] = w
	return nil
}

func (m *MemoryLedger) DeleteWarehouse(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.warehouses[id]; !ok {
		return ErrWarehouseNotFound
	}
	delete(m.warehouses, id)
	for rid, r := range m.records {
		if r.WarehouseID != nil && *r.WarehouseID == id {
			r.WarehouseID = nil
			m.records[rid] = r
		}
	}
	return nil
}
