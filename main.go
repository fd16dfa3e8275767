// main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"cinema-ops/cmd"
	"cinema-ops/internal/data/repository"
	"cinema-ops/internal/event"
	"cinema-ops/internal/projection"
	"cinema-ops/internal/wire"
	"cinema-ops/internal/worker"
	"cinema-ops/pkg/database"
	"cinema-ops/pkg/mq"
	"cinema-ops/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Connect to the broker
	conn, ch, err := mq.Connect(config.Broker.URL)
	if err != nil {
		logger.Fatal("Failed to connect to message broker", zap.Error(err))
	}
	defer conn.Close()
	defer ch.Close()

	if err := mq.DeclareQueue(ch, config.Broker.EventQueue); err != nil {
		logger.Fatal("Failed to declare event queue", zap.Error(err))
	}

	logger.Info("Message broker connected successfully")

	// Redis backs the read projections
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Projection.RedisAddr,
		Password: config.Projection.RedisPassword,
		DB:       config.Projection.RedisDB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}

	logger.Info("Redis connected successfully")

	// Initialize all repositories and the transactional machinery
	repos := repository.NewRepository(db, logger)
	uow := repository.NewUnitOfWork(db, logger)

	publisher := event.NewPublisher(ch, config.Broker.EventQueue, logger)
	relay := event.NewRelay(uow, publisher, config.Jobs.RelayInterval, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, uow, relay, config, logger)

	// Background workers
	store := projection.NewRedisStore(rdb)
	consumer := projection.NewConsumer(store, config.Broker.URL, config.Broker.EventQueue, logger)
	reaper := worker.NewReaper(uow, config.Jobs.ReaperInterval, logger)

	var refresher *worker.Refresher
	if config.Jobs.CatalogURL != "" {
		source := worker.NewHTTPFilmSource(config.Jobs.CatalogURL)
		refresher = worker.NewRefresher(repos, uow, app.Service.Scheduler, source, config.Jobs.RefreshInterval, logger)
	}

	go relay.Run(ctx)
	go consumer.Run(ctx)
	go reaper.Run(ctx)
	if refresher != nil {
		go refresher.Run(ctx)
	} else {
		logger.Info("CATALOG_URL not set, film refresh disabled")
	}

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(ctx, app.Router, config.App.Port); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}
