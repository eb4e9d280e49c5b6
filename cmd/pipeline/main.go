package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/streetsweepai/streetsweep-service/internal/config"
	"github.com/streetsweepai/streetsweep-service/internal/domain"
	"github.com/streetsweepai/streetsweep-service/internal/observability"
	"github.com/streetsweepai/streetsweep-service/internal/persistence"
	"github.com/streetsweepai/streetsweep-service/internal/pipeline"
	"github.com/streetsweepai/streetsweep-service/internal/repository"
	"github.com/streetsweepai/streetsweep-service/internal/service"
	"github.com/streetsweepai/streetsweep-service/internal/storage"
	"github.com/streetsweepai/streetsweep-service/internal/vision"
)

func main() {
	var (
		sourceName = flag.String("source", "camera", "image source: camera, dir or demo")
		imagesDir  = flag.String("dir", "", "directory for the dir source")
		demoGroups = flag.String("demos", "", "comma-separated demo group numbers (demo source, empty = all)")
		maxImages  = flag.Int("max", 0, "max images per cycle (0 = config default)")
		loop       = flag.Bool("loop", false, "run on a schedule instead of once")
	)
	flag.Parse()

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
	go cancelOnSignal(cancel, logger)

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
	insightService := service.NewInsightService(ticketRepo, gemini, redis.Client, logger)

	source, err := buildSource(ctx, *sourceName, *imagesDir, *demoGroups, cfg.Pipeline, logger)
	if err != nil {
		logger.Fatal("failed to build image source", zap.Error(err))
	}

	limit := *maxImages
	if limit <= 0 {
		limit = cfg.Pipeline.MaxImages
	}

	run := pipeline.New(pipeline.Options{
		Source:       source,
		Engine:       ticketService,
		Policy:       service.ThresholdPolicy{Threshold: cfg.Pipeline.SeverityThreshold},
		UploadImages: cfg.Pipeline.UploadImages,
		MaxImages:    limit,
		Logger:       logger,
	})

	if !*loop {
		if err := runOnce(ctx, run, insightService, logger); err != nil {
			logger.Fatal("pipeline run failed", zap.Error(err))
		}
		return
	}

	runLoop(ctx, run, insightService, cfg.Pipeline, logger)
}

// runOnce executes a single cycle followed by insight regeneration.
func runOnce(ctx context.Context, run *pipeline.Pipeline, insights *service.InsightService, logger *zap.Logger) error {
	stats, err := run.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("cycle complete",
		zap.Int("created", stats.Created),
		zap.Int("skipped", stats.Skipped),
		zap.Int("errors", stats.Errors))

	if _, err := insights.Generate(ctx); err != nil {
		logger.Warn("insight generation failed", zap.Error(err))
	}
	return nil
}

// runLoop repeats cycles on the configured interval. A failed cycle
// retries after the shorter backoff instead of waiting a full interval.
func runLoop(ctx context.Context, run *pipeline.Pipeline, insights *service.InsightService, cfg config.PipelineConfig, logger *zap.Logger) {
	for {
		wait := cfg.Interval()
		if err := runOnce(ctx, run, insights, logger); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("cycle failed", zap.Error(err), zap.Duration("retry_in", cfg.RetryBackoff()))
			wait = cfg.RetryBackoff()
		} else {
			logger.Info("next cycle scheduled", zap.Duration("in", wait))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func buildSource(ctx context.Context, name, dir, demoGroups string, cfg config.PipelineConfig, logger *zap.Logger) (pipeline.Source, error) {
	cameras := pipeline.NewCameraFeedSource(cfg.CameraListURL, cfg.CameraImageURLTemplate, logger)

	switch name {
	case "camera":
		return cameras, nil
	case "dir":
		if dir == "" {
			dir = cfg.DemoImagesDir
		}
		return pipeline.NewDirectorySource(dir, defaultLocation, logger), nil
	case "demo":
		if dir == "" {
			dir = cfg.DemoImagesDir
		}
		groups, err := parseGroups(demoGroups)
		if err != nil {
			return nil, err
		}
		locations, err := cameras.Locations(ctx)
		if err != nil {
			logger.Warn("camera locations unavailable, using camera numbers only", zap.Error(err))
			locations = nil
		}
		return pipeline.NewDemoFixtureSource(dir, groups, locations, logger), nil
	default:
		return nil, fmt.Errorf("unknown source %q, expected camera, dir or demo", name)
	}
}

func parseGroups(value string) ([]int, error) {
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	groups := make([]int, 0, len(parts))
	for _, part := range parts {
		group, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid demo group %q", part)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// defaultLocation is downtown Toronto, matching the camera network the
// directory source's frames come from.
var defaultLocation = domain.Location{Lat: 43.6532, Lon: -79.3832}

func cancelOnSignal(cancel context.CancelFunc, logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
	cancel()
}
