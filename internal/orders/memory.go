package orders

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo keeps orders in process. Each order has its own mutex so Mutate
// on one order does not block the others.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	orders map[int64]Order
	locks  map[int64]*sync.Mutex
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		orders: make(map[int64]Order),
		locks:  make(map[int64]*sync.Mutex),
	}
}

func (m *MemoryRepo) Create(ctx context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	o.ID = m.nextID
	m.orders[o.ID] = clone(*o)
	m.locks[o.ID] = &sync.Mutex{}
	return nil
}

func (m *MemoryRepo) FindByID(ctx context.Context, id int64) (Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return clone(o), nil
}

func (m *MemoryRepo) FindByNumber(ctx context.Context, number string) (Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.orders {
		if o.OrderNumber == number {
			return clone(o), nil
		}
	}
	return Order{}, ErrNotFound
}

func (m *MemoryRepo) ListByEmail(ctx context.Context, email string) ([]Order, error) {
	return m.filter(func(o Order) bool { return o.UserEmail == email }), nil
}

func (m *MemoryRepo) List(ctx context.Context) ([]Order, error) {
	return m.filter(func(Order) bool { return true }), nil
}

func (m *MemoryRepo) Mutate(ctx context.Context, id int64, fn func(o *Order) error) (Order, error) {
	m.mu.RLock()
	lock, ok := m.locks[id]
	m.mu.RUnlock()
	if !ok {
		return Order{}, ErrNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	o, err := m.FindByID(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if err := fn(&o); err != nil {
		return Order{}, err
	}

	m.mu.Lock()
	cur := m.orders[id]
	cur.PaymentStatus = o.PaymentStatus
	cur.DeliveryStatus = o.DeliveryStatus
	m.orders[id] = cur
	m.mu.Unlock()
	return o, nil
}

func (m *MemoryRepo) filter(keep func(Order) bool) []Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Order{}
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func clone(o Order) Order {
	o.Items = append([]OrderItem(nil), o.Items...)
	return o
}
