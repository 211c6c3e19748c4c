package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zainiii163/tearence-backend-sub004/internal/api"
	"github.com/zainiii163/tearence-backend-sub004/internal/cache"
	"github.com/zainiii163/tearence-backend-sub004/internal/commands"
	"github.com/zainiii163/tearence-backend-sub004/internal/config"
	"github.com/zainiii163/tearence-backend-sub004/internal/db"
	"github.com/zainiii163/tearence-backend-sub004/internal/logger"
	"github.com/zainiii163/tearence-backend-sub004/internal/repositories"
	"github.com/zainiii163/tearence-backend-sub004/internal/services"
	"github.com/zainiii163/tearence-backend-sub004/internal/storage"
	"github.com/zainiii163/tearence-backend-sub004/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background jobs and scheduler), 'all' (default)")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-m api|bg|all]\n       %s <command> [args]\n\nCommands:\n", os.Args[0], os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "  ads:moderate-harmful [--delete]")
		fmt.Fprintln(flag.CommandLine.Output(), "  ads:delete-old [days]")
		flag.PrintDefaults()
	}
	flag.Parse()
	os.Exit(run(flag.Args()))
}

func run(args []string) int {
	cfg, err := config.Load(*runMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return commands.ExitFailure
	}
	logger.Init(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return commands.ExitFailure
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			logger.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		return commands.ExitFailure
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			logger.Error("Error disconnecting from Redis", "error", err)
		}
	}()

	listingRepo := repositories.NewListingRepository(mongoDb)
	referralRepo := repositories.NewReferralRepository(mongoDb)
	invoiceRepo := repositories.NewInvoiceRepository(mongoDb)
	if err := db.EnsureIndexes(ctx, listingRepo.(db.Indexer), referralRepo.(db.Indexer), invoiceRepo.(db.Indexer)); err != nil {
		logger.Error("Failed to ensure indexes", "error", err)
		return commands.ExitFailure
	}

	configSvc := services.NewConfigService(mongoDb, cfg, redisClient)
	go func() {
		if err := configSvc.SubscribeToChanges(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Config subscription stopped", "error", err)
		}
	}()

	reportStore, err := storage.NewReportStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize report store", "error", err)
		return commands.ExitFailure
	}

	moderationService := services.NewModerationService(listingRepo, configSvc)
	cleanupService := services.NewCleanupService(listingRepo, configSvc)
	taskProcessor := tasks.NewTaskProcessor(cfg, moderationService, cleanupService, cache.NewRedisLocker(redisClient), reportStore)

	if len(args) > 0 {
		return commands.Run(ctx, taskProcessor, args, os.Stdout)
	}

	return serve(ctx, cfg, mongoDb, redisClient, configSvc, taskProcessor, reportStore)
}

func serve(
	ctx context.Context,
	cfg *config.Config,
	mongoDb *mongo.Database,
	redisClient *redis.Client,
	configSvc services.IConfigService,
	taskProcessor *tasks.TaskProcessor,
	reportStore storage.IReportStore,
) int {
	var wg sync.WaitGroup
	failed := make(chan error, 3)
	shutdownChan := make(chan struct{}, 1)

	var serviceSrv *http.Server
	if cfg.ServiceApiPort != "" {
		taskClient := tasks.NewClient(redisClient)
		defer taskClient.Close()

		serviceSrv = &http.Server{
			Addr:    ":" + cfg.ServiceApiPort,
			Handler: api.SetupServiceRouter(cfg, taskClient, shutdownChan),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("Service API listening", "port", cfg.ServiceApiPort)
			if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				failed <- fmt.Errorf("service API: %w", err)
			}
		}()
	}

	var mainApiSrv *http.Server
	var backgroundTaskSrv *asynq.Server
	var scheduler *asynq.Scheduler

	logger.Info("Starting application", "mode", cfg.RunMode)

	apiMode := func() {
		mainApiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: api.SetupRouter(ctx, cfg, mongoDb, configSvc, taskProcessor, reportStore),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("Main API listening", "port", cfg.ApiPort)
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				failed <- fmt.Errorf("main API: %w", err)
			}
		}()
	}

	bgMode := func() error {
		var mux *asynq.ServeMux
		backgroundTaskSrv, mux = tasks.SetupServer(redisClient, taskProcessor)
		if err := backgroundTaskSrv.Start(mux); err != nil {
			return fmt.Errorf("failed to start background task server: %w", err)
		}

		var err error
		scheduler, err = tasks.NewScheduler(redisClient, cfg)
		if err != nil {
			return err
		}
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		return nil
	}

	exitCode := commands.ExitOK
	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		if err := bgMode(); err != nil {
			logger.Error("Background mode failed", "error", err)
			exitCode = commands.ExitFailure
		}
	case "all":
		apiMode()
		if err := bgMode(); err != nil {
			logger.Error("Background mode failed", "error", err)
			exitCode = commands.ExitFailure
		}
	default:
		logger.Error("Invalid run mode", "mode", cfg.RunMode)
		exitCode = commands.ExitUsage
	}

	if exitCode == commands.ExitOK {
		select {
		case <-ctx.Done():
			logger.Info("Received signal, shutting down gracefully")
		case <-shutdownChan:
			logger.Info("Shutdown requested via service API")
		case err := <-failed:
			logger.Error("Server failed", "error", err)
			exitCode = commands.ExitFailure
		}
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if serviceSrv != nil {
		if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
			logger.Error("Service API server shutdown error", "error", err)
		}
	}
	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			logger.Error("Main API server shutdown error", "error", err)
		}
	}
	if scheduler != nil {
		scheduler.Shutdown()
	}
	if backgroundTaskSrv != nil {
		backgroundTaskSrv.Shutdown()
	}

	wg.Wait()
	logger.Info("Server gracefully stopped")
	return exitCode
}
