package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/grievance-service/internal/api/http"
	"github.com/spec-kit/grievance-service/internal/api/http/handlers"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/classify"
	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/extract"
	"github.com/spec-kit/grievance-service/internal/notify"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/persistence"
	"github.com/spec-kit/grievance-service/internal/ratelimit"
	"github.com/spec-kit/grievance-service/internal/registry"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/routing"
	"github.com/spec-kit/grievance-service/internal/service"
	"github.com/spec-kit/grievance-service/internal/telegram"
	"github.com/spec-kit/grievance-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := persistence.NewSQLite(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer store.Close()

	reg, err := registry.Load(cfg.Routing.RegistryPath)
	if err != nil {
		logger.Fatal("failed to load department registry", zap.Error(err))
	}
	logger.Info("department registry loaded", zap.Int("departments", len(reg.All())))

	provider, err := extract.NewProvider(cfg.Oracle)
	if err != nil {
		logger.Fatal("failed to build oracle provider", zap.Error(err))
	}
	if provider == nil {
		logger.Warn("extraction oracle disabled, all submissions will use keyword fallback")
	}

	var redis *persistence.Redis
	if cfg.Redis.RateLimitEnabled {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
	}

	metrics := observability.NewMetrics()
	oracle := extract.NewOracle(cfg.Oracle, reg, provider, logger, metrics)
	engine := routing.NewEngine(cfg.Routing, reg, classify.Default())
	complaintRepo := repository.NewComplaintRepository(store.Handle())
	dispatcher := events.NewInMemoryDispatcher()

	complaintService := service.NewComplaintService(service.Dependencies{
		ComplaintRepo: complaintRepo,
		Extractor:     oracle,
		Router:        engine,
		Registry:      reg,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})

	pool := worker.NewPool(2, 64, logger)
	pool.Start(ctx)
	defer pool.Stop()

	var sender notify.Sender
	botCtx, stopBot := context.WithCancel(ctx)
	defer stopBot()
	if cfg.Telegram.Enabled() {
		client := telegram.NewClient(cfg.Telegram.BotToken, "", 0)
		sender = client
		bot := telegram.NewBot(client, complaintService, reg, cfg.Telegram.PollTimeout(), logger)
		go func() {
			if err := bot.Run(botCtx); err != nil {
				logger.Error("telegram bot stopped", zap.Error(err))
			}
		}()
	} else {
		logger.Info("telegram bot disabled, no bot token configured")
	}

	notifier := notify.NewService(complaintService, reg, sender, pool, logger, metrics)
	notifier.RegisterHandlers(dispatcher)

	tokens := auth.NewTokenManager(cfg.Admin.JWTSecret, cfg.Admin.SessionTTLMinutes)
	adminMiddleware := auth.NewAdminMiddleware(cfg.Admin, tokens)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, redis),
		Complaints:      handlers.NewComplaintsHandler(complaintService, reg),
		Admin:           handlers.NewAdminHandler(complaintService, notifier, reg, tokens, cfg.Admin, metrics),
		AdminMiddleware: adminMiddleware,
		RateLimiter:     ratelimit.Middleware(cfg.Redis, redis, logger),
		AdminAssetsDir:  "./web/admin",
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	stopBot()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
