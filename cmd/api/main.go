package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"careerPilot/internal/ai"
	"careerPilot/internal/api"
	"careerPilot/internal/apply"
	"careerPilot/internal/config"
	"careerPilot/internal/database"
	"careerPilot/internal/jobboard"
	"careerPilot/internal/storage"
	"careerPilot/internal/store"
	"careerPilot/internal/tasks"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error("close database failed", slog.Any("error", err))
		}
	}()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	logger.Info("database ready", slog.String("db", cfg.Database.Name))

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	scanner := storage.NewScanner(cfg.Clamd.Addr)
	if cfg.Clamd.Addr == "" {
		logger.Warn("clamd address not configured, uploads are not scanned")
	}

	gemini, err := ai.NewGemini(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("init gemini client: %v", err)
	}
	advisor := ai.NewAdvisor(gemini, logger)

	st := store.New(db)
	enqueuer := tasks.NewClient(asynqClient)
	jobs := jobboard.NewGateway(jobboard.NewAdzuna(cfg.JobBoard, nil), st, logger)
	orchestrator := apply.NewOrchestrator(st, advisor, enqueuer, logger)

	router := api.NewRouter(api.Deps{
		Store:          st,
		Advisor:        advisor,
		Jobs:           jobs,
		Applier:        orchestrator,
		Enqueuer:       enqueuer,
		Archiver:       storageClient,
		Scanner:        scanner,
		Redis:          redisClient,
		Logger:         logger,
		AllowedOrigins: cfg.API.AllowedOrigins(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("api server stopped", slog.Any("error", err))
	}
}
