package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGLedger struct{ DB *pgxpool.Pool }

const stockColumns = `id, sku_code, quantity, location, status, warehouse_id`

// InTx: rollback via defer kecuali fn sukses dan commit berhasil.
func (l *PGLedger) InTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	tx, err := l.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (l *PGLedger) FindBySKU(ctx context.Context, sku string) ([]StockRecord, error) {
	rows, err := l.DB.Query(ctx, `SELECT `+stockColumns+` FROM stock_records WHERE sku_code=$1 ORDER BY id`, sku)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func (l *PGLedger) List(ctx context.Context) ([]StockRecord, error) {
	rows, err := l.DB.Query(ctx, `SELECT `+stockColumns+` FROM stock_records ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func (l *PGLedger) LowStock(ctx context.Context, threshold int) ([]StockRecord, error) {
	rows, err := l.DB.Query(ctx, `SELECT `+stockColumns+` FROM stock_records WHERE quantity <= $1 ORDER BY id`, threshold)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

type pgTx struct{ tx pgx.Tx }

// LockBySKU: lock semua record SKU (FOR UPDATE) supaya read-check-write tidak balapan.
func (t *pgTx) LockBySKU(ctx context.Context, sku string) ([]StockRecord, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+stockColumns+` FROM stock_records
		WHERE sku_code=$1
		ORDER BY quantity DESC, id
		FOR UPDATE`, sku)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

func (t *pgTx) Save(ctx context.Context, rec *StockRecord) error {
	if rec.ID == 0 {
		return t.tx.QueryRow(ctx, `
			INSERT INTO stock_records(sku_code, quantity, location, status, warehouse_id)
			VALUES ($1,$2,$3,$4,$5)
			RETURNING id`,
			rec.SKUCode, rec.Quantity, rec.Location, string(rec.Status), rec.WarehouseID,
		).Scan(&rec.ID)
	}
	_, err := t.tx.Exec(ctx, `
		UPDATE stock_records
		SET quantity=$2, location=$3, status=$4, warehouse_id=$5, updated_at=now()
		WHERE id=$1`,
		rec.ID, rec.Quantity, rec.Location, string(rec.Status), rec.WarehouseID)
	return err
}

func (t *pgTx) DeleteBySKU(ctx context.Context, sku string) (int, error) {
	ct, err := t.tx.Exec(ctx, `DELETE FROM stock_records WHERE sku_code=$1`, sku)
	if err != nil {
		return 0, err
	}
	return int(ct.RowsAffected()), nil
}

func scanRecords(rows pgx.Rows) ([]StockRecord, error) {
	defer rows.Close()
	out := []StockRecord{}
	for rows.Next() {
		var (
			r      StockRecord
			status string
		)
		if err := rows.Scan(&r.ID, &r.SKUCode, &r.Quantity, &r.Location, &status, &r.WarehouseID); err != nil {
			return nil, err
		}
		r.Status = Status(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (l *PGLedger) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	rows, err := l.DB.Query(ctx, `SELECT id, name, address, manager_name FROM warehouses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Warehouse{}
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Address, &w.ManagerName); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (l *PGLedger) GetWarehouse(ctx context.Context, id int64) (Warehouse, error) {
	var w Warehouse
	err := l.DB.QueryRow(ctx, `SELECT id, name, address, manager_name FROM warehouses WHERE id=$1`, id).
		Scan(&w.ID, &w.Name, &w.Address, &w.ManagerName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Warehouse{}, ErrWarehouseNotFound
	}
	return w, err
}

func (l *PGLedger) CreateWarehouse(ctx context.Context, w *Warehouse) error {
	return l.DB.QueryRow(ctx, `
		INSERT INTO warehouses(name, address, manager_name)
		VALUES ($1,$2,$3)
		RETURNING id`, w.Name, w.Address, w.ManagerName).Scan(&w.ID)
}

func (l *PGLedger) UpdateWarehouse(ctx context.Context, w Warehouse) error {
	ct, err := l.DB.Exec(ctx, `UPDATE warehouses SET name=$2, address=$3, manager_name=$4 WHERE id=$1`,
		w.ID, w.Name, w.Address, w.ManagerName)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrWarehouseNotFound
	}
	return nil
}

// DeleteWarehouse: FK stock_records.warehouse_id di-set NULL oleh ON DELETE SET NULL.
func (l *PGLedger) DeleteWarehouse(ctx context.Context, id int64) error {
	ct, err := l.DB.Exec(ctx, `DELETE FROM warehouses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrWarehouseNotFound
	}
	return nil
}
