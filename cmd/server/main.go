package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/warimas/backoffice/internal/api"
	"github.com/warimas/backoffice/internal/audit"
	"github.com/warimas/backoffice/internal/cache"
	"github.com/warimas/backoffice/internal/category"
	"github.com/warimas/backoffice/internal/config"
	"github.com/warimas/backoffice/internal/customer"
	"github.com/warimas/backoffice/internal/db"
	"github.com/warimas/backoffice/internal/events"
	"github.com/warimas/backoffice/internal/logger"
	"github.com/warimas/backoffice/internal/metrics"
	"github.com/warimas/backoffice/internal/middleware"
	"github.com/warimas/backoffice/internal/order"
	"github.com/warimas/backoffice/internal/product"
)

const (
	eventBuffer     = 1024
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv, cfg.LogLevel)
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := db.InitDB(cfg)
	defer database.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = cache.NewRedis(cfg.RedisAddr)
		defer rdb.Close()
		if err := cache.Ping(ctx, rdb); err != nil {
			log.Warn("redis unreachable, idempotency keys degrade to no-ops until it returns", zap.Error(err))
		}
	}

	// the producer outlives ctx so handlers still in flight during shutdown can publish
	pubCtx, pubCancel := context.WithCancel(context.Background())
	defer pubCancel()

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, eventBuffer)
		producer.Start(pubCtx)
	} else {
		log.Info("KAFKA_BROKERS not set, order events are not published")
	}

	limiter := middleware.NewLimiter()
	go limiter.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           setupRouter(cfg, database, rdb, producer, limiter),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}

	if producer != nil {
		producer.Close()
		producer.WaitClosed()
	}
	pubCancel()
}

// setupRouter wires repositories and services onto the HTTP router. rdb and
// producer are optional.
func setupRouter(cfg *config.Config, database *sql.DB, rdb *redis.Client, producer *events.Producer, limiter *middleware.Limiter) http.Handler {
	var publisher events.Publisher = events.Noop{}
	if producer != nil {
		publisher = producer
	}

	var idem api.Idempotency
	if rdb != nil {
		idem = cache.NewIdempotency(rdb)
	}

	orderMetrics := metrics.NewOrders()
	orderSvc := order.NewService(order.NewStore(database), publisher, order.Options{
		LaunchYear: cfg.OrderLaunchYear,
		StockCheck: cfg.OrderStockCheck,
		Metrics:    orderMetrics,
	})

	return api.NewRouter(api.Deps{
		Orders:      orderSvc,
		Products:    product.NewService(database),
		Categories:  category.NewService(database),
		Customers:   customer.NewService(database),
		Audit:       audit.NewRepository(database),
		Idempotency: idem,
		JWTSecret:   cfg.JWTSecret,
		InternalKey: cfg.InternalSecretKey,
		CORSOrigins: cfg.CORSOrigins,
		Limiter:     limiter,
		Metrics:     orderMetrics,
		Health: func(ctx context.Context) error {
			if err := database.PingContext(ctx); err != nil {
				return err
			}
			if rdb != nil {
				return cache.Ping(ctx, rdb)
			}
			return nil
		},
	})
}
