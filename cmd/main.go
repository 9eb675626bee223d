package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accountcmd "github.com/eaglebank/account-service/internal/command"
	"github.com/eaglebank/account-service/internal/config"
	"github.com/eaglebank/account-service/internal/events"
	"github.com/eaglebank/account-service/internal/handler"
	"github.com/eaglebank/account-service/internal/metrics"
	"github.com/eaglebank/account-service/internal/middleware"
	accountqry "github.com/eaglebank/account-service/internal/query"
	redisClient "github.com/eaglebank/account-service/internal/redis"
	"github.com/eaglebank/account-service/internal/repository"
	"github.com/eaglebank/account-service/internal/repository/memory"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var seedUserNames = []string{"Alice", "Bob"}

type stores struct {
	users        accountUserStore
	accounts     accountcmd.AccountStore
	transactions accountcmd.TransactionStore
	reader       accountqry.TransactionReader
	publisher    accountcmd.EventPublisher
	projector    *events.TransactionProjector
	redis        *redisClient.Client
	closers      []func() error
}

type accountUserStore interface {
	accountcmd.UserStore
	accountqry.UserStore
	repository.UserSeeder
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var s *stores
	switch cfg.StoreBackend {
	case config.BackendMemory:
		s = memoryStores()
	default:
		s, err = postgresStores(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialise stores", zap.Error(err))
		}
	}
	defer func() {
		for _, closeFn := range s.closers {
			_ = closeFn()
		}
	}()

	if cfg.SeedUsers {
		if err := repository.SeedUsers(ctx, s.users, logger, seedUserNames...); err != nil {
			logger.Fatal("Failed to seed users", zap.Error(err))
		}
	}

	// --- CQRS wiring ---
	commandSvc := accountcmd.NewAccountCommandService(s.users, s.accounts, s.transactions, s.publisher, logger)
	querySvc := accountqry.NewAccountQueryService(s.users, s.accounts, s.reader)
	accountHandler := handler.NewAccountHandler(commandSvc, querySvc, logger)

	if s.redis != nil {
		go func() {
			subscriber := events.NewSubscriber(s.redis.Client, events.SubscriberConfig{
				Group:    "account-service-group",
				Consumer: cfg.EventsConsumer,
				Stream:   events.TransactionEventsStream,
				Handler:  s.projector.Handle,
				Logger:   logger,
			})
			if err := subscriber.Start(ctx); err != nil {
				logger.Error("Subscriber stopped", zap.Error(err))
			}
		}()
	}

	// Setup router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(metrics.HTTPMetrics())

	router.GET("/health", func(c *gin.Context) {
		if s.redis != nil {
			if err := s.redis.Healthy(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "backend": cfg.StoreBackend, "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": cfg.StoreBackend})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	accountHandler.RegisterRoutes(router.Group("/v1/accounts"))

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Account service starting", zap.String("port", cfg.ServerPort), zap.String("backend", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = lvl
	return zcfg.Build()
}

func memoryStores() *stores {
	transactions := memory.NewTransactionStore()
	return &stores{
		users:        memory.NewUserStore(),
		accounts:     memory.NewAccountStore(),
		transactions: transactions,
		reader:       transactions,
		publisher:    events.NopPublisher{},
	}
}

func postgresStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	// Database connection (write store)
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Redis connection (read model store + event streaming)
	redis, err := redisClient.NewClient(ctx, redisClient.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	transactions := repository.NewTransactionWriteRepository(db)
	readRepo := repository.NewTransactionReadRepository(transactions, redis.Client, cfg.TransactionCacheTTL, logger)

	return &stores{
		users:        repository.NewUserRepository(db),
		accounts:     repository.NewAccountRepository(db),
		transactions: transactions,
		reader:       readRepo,
		publisher:    events.NewPublisher(redis.Client, cfg.EventsStreamMaxLen, logger),
		projector:    events.NewTransactionProjector(readRepo, logger),
		redis:        redis,
		closers:      []func() error{redis.Close, db.Close},
	}, nil
}
