package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/config"
	"github.com/ariefcatur/go-order-fulfillment/internal/httpx"
	"github.com/ariefcatur/go-order-fulfillment/internal/inventory"
	"github.com/ariefcatur/go-order-fulfillment/internal/logx"
	"github.com/ariefcatur/go-order-fulfillment/internal/postgres"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ledger is what the inventory service needs from its store.
type ledger interface {
	inventory.Ledger
	inventory.WarehouseStore
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	service := getenv("INVENTORY_SERVICE_NAME", "inventory-service")
	log := logx.New(cfg.Environment).With(zap.String("service", service))
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store ledger
	switch cfg.StoreDriver {
	case "memory":
		store = inventory.NewMemoryLedger()
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db, postgres.SchemaInventory); err != nil {
			log.Fatal("db migrate", zap.Error(err))
		}
		store = &inventory.PGLedger{DB: db}
	}

	engine := inventory.NewEngine(store, log)
	engine.LowStockThreshold = cfg.LowStockThreshold

	router := httpx.NewRouter(log, cfg.RequestTimeout)
	ih := &httpx.InventoryHandler{
		Engine:     engine,
		Warehouses: &inventory.Warehouses{Store: store},
		Log:        log,
	}
	ih.Register(router)

	srv := &http.Server{Addr: cfg.InventoryHTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP listening", zap.String("addr", cfg.InventoryHTTPAddr), zap.String("driver", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("inventory service stopped", zap.Error(err))
		os.Exit(1)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
