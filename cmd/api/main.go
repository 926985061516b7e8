package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"hayase/internal/config"
	"hayase/internal/db"
	"hayase/internal/domain"
	"hayase/internal/events"
	"hayase/internal/httpserver"
	"hayase/internal/logging"
	cartrepo "hayase/internal/repository/cart"
	conciergerepo "hayase/internal/repository/concierge"
	couponrepo "hayase/internal/repository/coupon"
	orderrepo "hayase/internal/repository/order"
	settingsrepo "hayase/internal/repository/paymentsettings"
	productrepo "hayase/internal/repository/product"
	reviewrepo "hayase/internal/repository/review"
	"hayase/internal/service/checkout"
	conciergesvc "hayase/internal/service/concierge"
	couponsvc "hayase/internal/service/coupon"
	ordersvc "hayase/internal/service/order"
	settingssvc "hayase/internal/service/paymentsettings"
	productsvc "hayase/internal/service/product"
	reviewsvc "hayase/internal/service/review"
	"hayase/internal/service/session"

	"go.uber.org/zap"
)

// memoryStoreAddr selects the in-process cart store instead of redis.
const memoryStoreAddr = "memory"

func main() {
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger = logger.Named("api")

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	var snapshots cartrepo.SnapshotStore
	if cfg.RedisAddr == memoryStoreAddr {
		logger.Warn("cart snapshots kept in memory, carts will not survive a restart")
		snapshots = cartrepo.NewMemory()
	} else {
		rdb, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Fatal("connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		snapshots = cartrepo.NewRedis(rdb, cfg.CartTTL)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.OrderEventsTopic, cfg.KafkaBrokers...)
		defer kp.Close()
		publisher = kp
	} else {
		logger.Info("no kafka brokers configured, order events are dropped")
	}

	productRepo := productrepo.NewPostgres(dbpool, logger)
	couponRepo := couponrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	settingsRepo := settingsrepo.NewPostgres(dbpool)

	couponService := couponsvc.New(couponRepo, logger)
	sessions := session.NewRegistry(session.Deps{
		Snapshots: snapshots,
		Coupons:   couponService,
		Orders:    orderRepo,
		Publisher: publisher,
		Checkout: checkout.Options{
			CouponTimeout: cfg.CouponLookupTimeout,
			ShippingCost:  domain.Money(cfg.ShippingCostPaise),
		},
	}, cfg.SessionTTL, logger)
	go sessions.Run(ctx, time.Minute)

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Products:        productsvc.New(productRepo),
		Coupons:         couponService,
		Orders:          ordersvc.New(orderRepo, publisher, logger),
		PaymentSettings: settingssvc.New(settingsRepo),
		Reviews:         reviewsvc.New(reviewrepo.NewPostgres(dbpool, logger)),
		Concierge:       conciergesvc.New(conciergerepo.NewPostgres(dbpool, logger)),
		Sessions:        sessions,
		AdminKeys:       cfg.AdminAPIKeys,
		CORSOrigins:     cfg.CORSOrigins,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
