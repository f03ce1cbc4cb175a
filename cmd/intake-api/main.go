package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuongbtq/video-intake/internal/api/handler"
	"github.com/cuongbtq/video-intake/internal/api/router"
	"github.com/cuongbtq/video-intake/internal/config"
	"github.com/cuongbtq/video-intake/internal/identity"
	"github.com/cuongbtq/video-intake/internal/intake"
	"github.com/cuongbtq/video-intake/internal/storage"
	"github.com/cuongbtq/video-intake/internal/workflow"
	"github.com/cuongbtq/video-intake/shared/logger"
	"github.com/cuongbtq/video-intake/shared/postgresql"
	"github.com/cuongbtq/video-intake/shared/rabbitmq"
	sharedredis "github.com/cuongbtq/video-intake/shared/redis"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// closers are released in reverse order on shutdown
type closers []func() error

func (c *closers) add(fn func() error) { *c = append(*c, fn) }

func (c closers) closeAll() {
	for i := len(c) - 1; i >= 0; i-- {
		_ = c[i]()
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("INTAKE_API_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/intake-api/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	schema, err := intake.LookupSchema(cfg.Intake.SchemaVersion)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	var resources closers
	defer resources.closeAll()
	resources.add(appLogger.Close)

	appLogger.Info("Starting intake API",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("schema_version", schema.Version),
		slog.String("store", cfg.Store.Driver),
		slog.String("workflow", cfg.Workflow.Driver),
	)

	checks := map[string]handler.HealthCheck{}

	store, err := initStore(cfg, appLogger, &resources, checks)
	if err != nil {
		return err
	}

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = sharedredis.NewClient(context.Background(), &sharedredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		resources.add(redisClient.Close)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	engine, err := initEngine(cfg, appLogger, &resources, checks)
	if err != nil {
		return err
	}

	identityService, err := initIdentity(&cfg.Identity)
	if err != nil {
		return fmt.Errorf("failed to initialize identity client: %w", err)
	}

	metrics := router.NewMetrics()
	pipeline := intake.NewPipeline(&intake.Dependencies{
		Schema:   schema,
		Identity: identityService,
		Engine:   engine,
		Store:    store,
		Logger:   appLogger.Component("intake"),
		Outcomes: metrics,
	})

	opts := router.Options{Metrics: metrics}
	if redisClient != nil && cfg.RateLimit.Requests > 0 {
		opts.RateLimit = &router.RateLimitConfig{
			Counter:  redisClient,
			Limit:    cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
			Logger:   appLogger.Logger,
			OnReject: metrics.RecordRateLimited,
		}
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.SetupRouter(&handler.Dependencies{
		Logger:       appLogger.Logger,
		Pipeline:     pipeline,
		Records:      store,
		MaxBodyBytes: cfg.Intake.MaxBodyBytes,
		HealthChecks: checks,
		ServiceName:  cfg.App.Name,
	}, opts)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	appLogger.Info("Intake API is running", slog.String("address", addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Shutting down server...", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
}

// initStore builds the configured record store and registers its health check
func initStore(cfg *config.Config, appLogger *logger.Logger, resources *closers, checks map[string]handler.HealthCheck) (storage.RecordStore, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		appLogger.Warn("Using in-memory job store; records are lost on restart")
		return storage.NewMemoryStore(), nil
	}

	dbClient, err := postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, appLogger.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	resources.add(dbClient.Close)
	checks["postgres"] = dbClient.HealthCheck

	pgStore, err := storage.NewPostgresStore(dbClient.DB(), cfg.Database.Table, appLogger.Component("storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize job store: %w", err)
	}
	if cfg.Store.EnsureSchema {
		if err := pgStore.EnsureSchema(context.Background()); err != nil {
			return nil, err
		}
	}
	return pgStore, nil
}

// initEngine builds the configured workflow engine
func initEngine(cfg *config.Config, appLogger *logger.Logger, resources *closers, checks map[string]handler.HealthCheck) (intake.WorkflowEngine, error) {
	switch cfg.Workflow.Driver {
	case config.WorkflowDriverAsynq:
		client := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		resources.add(client.Close)
		return workflow.NewAsynqEngine(client, cfg.Workflow.DefinitionID, workflow.AsynqOptions{
			Queue:    cfg.Workflow.Queue,
			Timeout:  cfg.Workflow.Timeout,
			MaxRetry: cfg.Workflow.MaxRetry,
		}), nil
	default:
		rabbitCfg := rabbitConfig(&cfg.RabbitMQ)
		if rabbitCfg.RoutingKey == "" {
			rabbitCfg.RoutingKey = cfg.Workflow.DefinitionID
		}
		rabbitClient, err := rabbitmq.NewClient(rabbitCfg, appLogger.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		resources.add(rabbitClient.Close)
		checks["rabbitmq"] = func(context.Context) error {
			if !rabbitClient.IsConnected() {
				return errors.New("rabbitmq connection closed")
			}
			return nil
		}
		return workflow.NewAMQPEngine(rabbitClient, cfg.Workflow.DefinitionID, appLogger.Component("workflow")), nil
	}
}

// initIdentity builds the identity service per the configured client policy
func initIdentity(cfg *config.IdentityConfig) (intake.IdentityService, error) {
	idCfg := identity.Config{
		Endpoint: cfg.Endpoint,
		PoolID:   cfg.PoolID,
		Timeout:  cfg.Timeout,
	}
	if cfg.FreshClientPerCall {
		return identity.NewPerCallService(idCfg)
	}
	return identity.NewClient(idCfg)
}

func rabbitConfig(cfg *config.RabbitMQConfig) *rabbitmq.Config {
	return &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
		PrefetchCount:      cfg.Consumer.PrefetchCount,
	}
}
