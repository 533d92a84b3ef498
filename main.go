package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appCart "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/cart"
	appOrder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	appPayment "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	appWishlist "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/wishlist"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/config"
	cartdomain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cart"
	orderdomain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/httpclient"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/redisstore"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-fulfillment/internal/presentation/http"
)

const metricsNamespace = "fulfillment"

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		panic(err)
	}

	baseLogger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	if s, ok := baseLogger.(interface{ Sync() error }); ok {
		defer func() { _ = s.Sync() }()
	}

	metrics := prometrics.New(metricsNamespace)
	tel := telemetry.New(
		oteltrace.New(cfg.ServiceName),
		baseLogger,
		registerCounters(metrics),
		registerHistograms(metrics),
	)
	systemLogger := tel.Logger().With(observability.F("component", "main"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orderRepo, cleanupOrders, err := buildOrderRepository(ctx, cfg)
	if err != nil {
		systemLogger.Error("order_store_init_failed", observability.F("error", err.Error()))
		os.Exit(1)
	}
	defer cleanupOrders()

	cartRepo, cleanupCart, err := buildCartRepository(ctx, cfg)
	if err != nil {
		systemLogger.Error("cart_store_init_failed", observability.F("error", err.Error()))
		os.Exit(1)
	}
	defer cleanupCart()

	paymentRepo := memory.NewPaymentRepository()
	idGenerator := id.NewUUIDGenerator()

	stockLedger := httpclient.NewStockLedger(httpclient.Config{
		BaseURL: cfg.ProductServiceURL,
		Secret:  cfg.InternalSecret,
		Timeout: cfg.ClientTimeout,
	}, tel)
	addressSource := httpclient.NewAddressSource(httpclient.Config{
		BaseURL: cfg.UserServiceURL,
		Secret:  cfg.InternalSecret,
		Timeout: cfg.ClientTimeout,
	}, tel)

	cartService := appCart.NewService(cartRepo, stockLedger, idGenerator, tel.Logger())
	orderService := appOrder.NewService(orderRepo, cartRepo, stockLedger, addressSource, idGenerator, tel)
	paymentService := appPayment.NewService(paymentRepo, orderService, idGenerator, tel)
	wishlistService := appWishlist.NewService(memory.NewWishlistRepository(), stockLedger, idGenerator, tel.Logger())

	handler := httppresentation.NewHandler(
		cartService,
		orderService,
		paymentService,
		wishlistService,
		cfg.InternalSecret,
		promhttp.Handler(),
		tel,
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		systemLogger.Info("http_server_start",
			observability.F("addr", server.Addr),
			observability.F("order_store", cfg.OrderStore),
			observability.F("cart_store", cfg.CartStore),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error", observability.F("error", err.Error()))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", observability.F("error", err.Error()))
	} else {
		systemLogger.Info("http_server_stopped")
	}
}

func registerCounters(reg prometrics.Registry) map[string]observability.Counter {
	return map[string]observability.Counter{
		observability.MetricUsecaseRequests: reg.Counter(
			observability.MetricUsecaseRequests,
			"Total number of use case invocations.",
			"use_case", "outcome",
		),
		observability.MetricExternalRequests: reg.Counter(
			observability.MetricExternalRequests,
			"Total number of outbound service calls.",
			"target", "operation", "outcome",
		),
		observability.MetricHTTPRequests: reg.Counter(
			observability.MetricHTTPRequests,
			"Total number of handled HTTP requests.",
			"method", "route", "status",
		),
	}
}

func registerHistograms(reg prometrics.Registry) map[string]observability.Histogram {
	return map[string]observability.Histogram{
		observability.MetricUsecaseDuration: reg.Histogram(
			observability.MetricUsecaseDuration,
			"Duration of use case execution in seconds.",
			nil,
			"use_case",
		),
		observability.MetricExternalDuration: reg.Histogram(
			observability.MetricExternalDuration,
			"Duration of outbound service calls in seconds.",
			nil,
			"target", "operation",
		),
		observability.MetricHTTPDuration: reg.Histogram(
			observability.MetricHTTPDuration,
			"Duration of handled HTTP requests in seconds.",
			nil,
			"method", "route", "status",
		),
	}
}

func buildOrderRepository(ctx context.Context, cfg config.Config) (orderdomain.Repository, func(), error) {
	if cfg.OrderStore == "postgres" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewOrderRepository(pool), pool.Close, nil
	}
	return memory.NewOrderRepository(), func() {}, nil
}

func buildCartRepository(ctx context.Context, cfg config.Config) (cartdomain.Repository, func(), error) {
	if cfg.CartStore == "redis" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		return redisstore.NewCartRepository(rdb), func() { _ = rdb.Close() }, nil
	}
	return memory.NewCartRepository(), func() {}, nil
}
