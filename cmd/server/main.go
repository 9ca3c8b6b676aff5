package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-inventory-service/config"
	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/metrics"
	"github.com/fekuna/omnipos-inventory-service/internal/notifier"
	"github.com/fekuna/omnipos-inventory-service/internal/product"
	prodRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/product/repository"

	alertH "github.com/fekuna/omnipos-inventory-service/internal/alert/handler"
	alertUCPkg "github.com/fekuna/omnipos-inventory-service/internal/alert/usecase"

	invH "github.com/fekuna/omnipos-inventory-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/omnipos-inventory-service/internal/inventory/listener"
	invUCPkg "github.com/fekuna/omnipos-inventory-service/internal/inventory/usecase"

	orderH "github.com/fekuna/omnipos-inventory-service/internal/order/handler"
	orderUCPkg "github.com/fekuna/omnipos-inventory-service/internal/order/usecase"

	prodH "github.com/fekuna/omnipos-inventory-service/internal/product/handler"
	prodUCPkg "github.com/fekuna/omnipos-inventory-service/internal/product/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appMetrics := metrics.New()

	// 3. Open the store
	repos, closeStore, err := openStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Could not open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeStore()

	// 4. Initialize Redis. Without it events stay on this instance.
	var redisClient redis.UniversalClient
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			appLogger.Warn("Could not connect to Redis, running without cross-instance events", zap.Error(err))
			client.Close()
		} else {
			redisClient = client
			defer client.Close()
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 5. Wire the notifier
	hub := notifier.NewHub(appLogger, appMetrics)
	trackers := notifier.MultiTracker{hub}
	var (
		sinks     []notifier.Sink
		relay     *notifier.RedisRelay
		listCache *prodRepoPkg.RedisListCache
	)
	if redisClient != nil {
		broadcaster := notifier.NewRedisBroadcaster(redisClient, cfg.Redis.StockChannel, time.Duration(cfg.Redis.SubscriberTTL)*time.Second)
		relay = notifier.NewRedisRelay(redisClient, cfg.Redis.StockChannel, hub, appLogger)
		listCache = prodRepoPkg.NewRedisListCache(redisClient, time.Duration(cfg.Redis.ListCacheTTL)*time.Second)
		sinks = append(sinks,
			notifier.Sink{Name: "redis", Publisher: broadcaster},
			notifier.Sink{Name: "product_cache", Publisher: listCache},
		)
		trackers = append(trackers, broadcaster)
	} else {
		sinks = append(sinks, notifier.Sink{Name: "hub", Publisher: hub})
	}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.StockEventsTopic != "" {
		kafkaSink := notifier.NewKafkaSink(notifier.KafkaSinkConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.StockEventsTopic,
		}, appLogger)
		defer kafkaSink.Close()
		sinks = append(sinks, notifier.Sink{Name: "kafka", Publisher: kafkaSink})
	}
	publisher := notifier.NewFanout(appLogger, appMetrics, time.Duration(cfg.Stock.NotifyTimeout)*time.Millisecond, sinks...)

	// 6. Initialize UseCases
	rules := inventory.Rules{
		MaxVersionRetries: cfg.Stock.MaxVersionRetries,
		Adjustment: inventory.AdjustmentRules{
			DoubleConfirmRatio: cfg.Adjustment.DoubleConfirmRatio,
			SignificantRatio:   cfg.Adjustment.SignificantRatio,
			MinReasonLength:    cfg.Adjustment.MinReasonLength,
			MaxReasonLength:    cfg.Adjustment.MaxReasonLength,
		},
		Reorder: inventory.ReorderRules{
			DefaultReorderPoint:    cfg.Reorder.DefaultReorderPoint,
			MaxReorderPoint:        cfg.Reorder.MaxReorderPoint,
			SalesWindowDays:        cfg.Reorder.SalesWindowDays,
			FallbackSuggestion:     cfg.Reorder.FallbackSuggestion,
			DefaultLeadTimeDays:    cfg.Reorder.DefaultLeadTimeDays,
			DefaultSafetyStockDays: cfg.Reorder.DefaultSafetyStockDays,
		},
	}

	invUC := invUCPkg.NewInventoryUseCase(repos.inventory, publisher, rules, appLogger, appMetrics)
	var productCache product.ListCache
	if listCache != nil {
		productCache = listCache
	}
	orderUC := orderUCPkg.NewOrderUseCase(repos.order, publisher, productCache, appLogger, appMetrics)
	alertUC := alertUCPkg.NewAlertUseCase(repos.alert, appLogger, appMetrics)
	prodUC := prodUCPkg.NewProductUseCase(repos.product, productCache, publisher, rules.Reorder, appLogger)

	// 7. HTTP router
	if !logConfig.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), auth.Middleware())
	router.GET("/metrics", gin.WrapH(appMetrics.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		if err := repos.ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": cfg.Store.Driver, "stream_clients": hub.Count()})
	})

	api := router.Group("/api")
	prodH.NewProductHandler(prodUC, appLogger).RegisterRoutes(api)
	invH.NewInventoryHandler(invUC, appLogger).RegisterRoutes(api)
	orderH.NewOrderHandler(orderUC, appLogger).RegisterRoutes(api)
	alertH.NewAlertHandler(alertUC, appLogger).RegisterRoutes(api)
	notifier.NewStreamHandler(hub, trackers, cfg.Stock.NotifyBuffer, appLogger).RegisterRoutes(api)

	httpServer := &http.Server{
		Addr:              normalizePort(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 8. gRPC health server
	lis, err := net.Listen("tcp", normalizePort(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("Failed to listen", zap.String("addr", cfg.Server.GRPCPort), zap.Error(err))
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("inventory", healthpb.HealthCheckResponse_SERVING)

	// Register Reflection
	reflection.Register(grpcServer)

	// 9. Run everything until a signal arrives or one component fails
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		appLogger.Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))
		return grpcServer.Serve(lis)
	})

	if relay != nil {
		g.Go(func() error { return relay.Run(gctx) })
	}

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.ReceiptsTopic != "" {
		reader := invListenerPkg.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.ReceiptsTopic, cfg.Kafka.GroupID)
		invListener := invListenerPkg.NewInventoryListener(reader, invUC, appLogger, appMetrics)
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.ReceiptsTopic))
		g.Go(func() error { return invListener.Start(gctx) })
	}

	// Graceful Shutdown
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Server stopped with error", zap.Error(err))
		return
	}
	appLogger.Info("Server stopped")
}

func normalizePort(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
