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
	"github.com/ariefcatur/go-order-fulfillment/internal/inventoryclient"
	kafkax "github.com/ariefcatur/go-order-fulfillment/internal/kafka"
	"github.com/ariefcatur/go-order-fulfillment/internal/logx"
	"github.com/ariefcatur/go-order-fulfillment/internal/orders"
	"github.com/ariefcatur/go-order-fulfillment/internal/postgres"
	"github.com/ariefcatur/go-order-fulfillment/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logx.New(cfg.Environment).With(zap.String("service", cfg.ServiceName))
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Order store
	var repo orders.Repository
	switch cfg.StoreDriver {
	case "memory":
		repo = orders.NewMemoryRepo()
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db, postgres.SchemaOrders); err != nil {
			log.Fatal("db migrate", zap.Error(err))
		}
		repo = &orders.PGRepo{DB: db}
	}
	log.Info("order store ready", zap.String("driver", cfg.StoreDriver))

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start(ctx)

	inv := inventoryclient.New(inventoryclient.Config{
		BaseURL:          cfg.InventoryURL,
		Timeout:          cfg.InventoryTimeout,
		RetryAttempts:    cfg.RetryAttempts,
		RetryBackoff:     cfg.RetryBackoff,
		BreakerErrors:    cfg.BreakerErrors,
		BreakerSuccesses: cfg.BreakerSuccesses,
		BreakerTimeout:   cfg.BreakerOpenTimeout,
	}, log)

	saga := orders.NewSaga(repo, inv,
		orders.NewKafkaPublisher(prod, cfg.ServiceName, cfg.TopicOrderPlaced, cfg.TopicOrderCancelled),
		log,
	)

	router := httpx.NewRouter(log, cfg.RequestTimeout)
	oh := &httpx.OrdersHandler{
		Saga:  saga,
		Cache: redisx.NewStore(rdb),
		Log:   log,
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr), zap.String("inventory_url", cfg.InventoryURL))
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
		err := srv.Shutdown(shutdownCtx)
		prod.Close()      // tutup inbox -> flush & close writer
		prod.WaitClosed() // drain
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("order service stopped", zap.Error(err))
		os.Exit(1)
	}
}
