package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("order not found")

// Repository stores orders with their items.
type Repository interface {
	// Create writes the order and its items in one transaction and sets o.ID.
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id int64) (Order, error)
	FindByNumber(ctx context.Context, number string) (Order, error)
	ListByEmail(ctx context.Context, email string) ([]Order, error)
	List(ctx context.Context) ([]Order, error)
	// Mutate loads the order under a lock, runs fn and persists the statuses
	// if fn returns nil. Concurrent Mutate calls on one order run one at a time.
	Mutate(ctx context.Context, id int64, fn func(o *Order) error) (Order, error)
}

type PGRepo struct{ DB *pgxpool.Pool }

const orderColumns = `id, order_number::text, total::text, user_email, order_date, shipping_address, payment_status, delivery_status`

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO orders(order_number, total, user_email, order_date, shipping_address, payment_status, delivery_status)
		VALUES ($1, $2::numeric, $3, $4, $5, $6, $7)
		RETURNING id`,
		o.OrderNumber, o.Total.String(), o.UserEmail, o.OrderDate, o.ShippingAddress,
		string(o.PaymentStatus), string(o.DeliveryStatus),
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, sku_code, quantity)
			VALUES ($1,$2,$3)`, o.ID, it.SKUCode, it.Quantity); err != nil {
			return fmt.Errorf("insert item %s: %w", it.SKUCode, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) FindByID(ctx context.Context, id int64) (Order, error) {
	return r.findOne(ctx, r.DB, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
}

func (r *PGRepo) FindByNumber(ctx context.Context, number string) (Order, error) {
	return r.findOne(ctx, r.DB, `SELECT `+orderColumns+` FROM orders WHERE order_number::text=$1`, number)
}

func (r *PGRepo) ListByEmail(ctx context.Context, email string) ([]Order, error) {
	return r.findMany(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_email=$1 ORDER BY id`, email)
}

func (r *PGRepo) List(ctx context.Context) ([]Order, error) {
	return r.findMany(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY id`)
}

// Mutate: lock baris order (FOR UPDATE) selama fn jalan, lalu simpan status.
func (r *PGRepo) Mutate(ctx context.Context, id int64, fn func(o *Order) error) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := r.findOne(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, id)
	if err != nil {
		return Order{}, err
	}
	if err := fn(&o); err != nil {
		return Order{}, err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE orders SET payment_status=$2, delivery_status=$3, updated_at=now()
		WHERE id=$1`, o.ID, string(o.PaymentStatus), string(o.DeliveryStatus)); err != nil {
		return Order{}, fmt.Errorf("update order %d: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PGRepo) findOne(ctx context.Context, q querier, sql string, args ...any) (Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	items, err := loadItems(ctx, q, o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

func (r *PGRepo) findMany(ctx context.Context, sql string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := loadItems(ctx, r.DB, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o                 Order
		total             string
		payment, delivery string
	)
	if err := row.Scan(&o.ID, &o.OrderNumber, &total, &o.UserEmail, &o.OrderDate, &o.ShippingAddress, &payment, &delivery); err != nil {
		return Order{}, err
	}
	t, err := decimal.NewFromString(total)
	if err != nil {
		return Order{}, fmt.Errorf("parse total %q: %w", total, err)
	}
	o.Total = t
	o.PaymentStatus = PaymentStatus(payment)
	o.DeliveryStatus = DeliveryStatus(delivery)
	return o, nil
}

func loadItems(ctx context.Context, q querier, orderID int64) ([]OrderItem, error) {
	rows, err := q.Query(ctx, `SELECT sku_code, quantity FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []OrderItem{}
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.SKUCode, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
