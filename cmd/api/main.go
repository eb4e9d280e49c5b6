package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/streetsweepai/streetsweep-service/internal/api/http"
	"github.com/streetsweepai/streetsweep-service/internal/api/http/handlers"
	"github.com/streetsweepai/streetsweep-service/internal/auth"
	"github.com/streetsweepai/streetsweep-service/internal/config"
	"github.com/streetsweepai/streetsweep-service/internal/notifier"
	"github.com/streetsweepai/streetsweep-service/internal/observability"
	"github.com/streetsweepai/streetsweep-service/internal/persistence"
	"github.com/streetsweepai/streetsweep-service/internal/repository"
	"github.com/streetsweepai/streetsweep-service/internal/service"
	"github.com/streetsweepai/streetsweep-service/internal/storage"
	"github.com/streetsweepai/streetsweep-service/internal/vision"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	imageStore, err := storage.NewCloudinaryStore(cfg.Cloudinary)
	if err != nil {
		logger.Fatal("failed to init image store", zap.Error(err))
	}

	gemini, err := vision.NewGemini(ctx, cfg.Gemini)
	if err != nil {
		logger.Fatal("failed to init vision model", zap.Error(err))
	}

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:    ticketRepo,
		UserRepo:      userRepo,
		ImageStore:    imageStore,
		Classifier:    gemini,
		Logger:        logger,
		MaxImageBytes: cfg.Cloudinary.MaxUploadBytes,
	})
	authService := service.NewAuthService(cfg.Auth, userRepo)
	insightService := service.NewInsightService(ticketRepo, gemini, redis.Client, logger)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	watcher := notifier.NewWatcher(notifier.Options{
		Feed:            notifier.NewPostgresFeed(pool, cfg.Notifier.Channel),
		WebhookURL:      cfg.Notifier.WebhookURL,
		Backoff:         cfg.Notifier.ReconnectBackoff(),
		DeliveryTimeout: cfg.Notifier.DeliveryTimeout(),
		Logger:          logger,
	})
	go watcher.Run(ctx)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.Cloudinary.BodyLimit(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Users:          handlers.NewUsersHandler(authService),
		Vision:         handlers.NewVisionHandler(gemini, gemini, insightService, cfg.Cloudinary.MaxUploadBytes),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
