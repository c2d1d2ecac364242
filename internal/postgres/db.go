package postgres

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Schema names one of the files under schema/.
type Schema string

const (
	SchemaInventory Schema = "inventory"
	SchemaOrders    Schema = "orders"
)

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Migrate applies the given schema. The statements are idempotent, so it runs
// on every start.
func Migrate(ctx context.Context, db *pgxpool.Pool, s Schema) error {
	ddl, err := schemaFS.ReadFile("schema/" + string(s) + ".sql")
	if err != nil {
		return fmt.Errorf("read schema %s: %w", s, err)
	}
	if _, err := db.Exec(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply schema %s: %w", s, err)
	}
	return nil
}
