package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/storyweave/storyweave/internal/app"
	"github.com/storyweave/storyweave/internal/audit"
	"github.com/storyweave/storyweave/internal/auth"
	"github.com/storyweave/storyweave/internal/communities"
	"github.com/storyweave/storyweave/internal/curriculums"
	"github.com/storyweave/storyweave/internal/files"
	"github.com/storyweave/storyweave/internal/observability"
	"github.com/storyweave/storyweave/internal/places"
	"github.com/storyweave/storyweave/internal/platform/cache"
	"github.com/storyweave/storyweave/internal/platform/db"
	"github.com/storyweave/storyweave/internal/policy"
	"github.com/storyweave/storyweave/internal/shared"
	"github.com/storyweave/storyweave/internal/speakers"
	"github.com/storyweave/storyweave/internal/stories"
	"github.com/storyweave/storyweave/internal/themes"
	"github.com/storyweave/storyweave/internal/users"
	"github.com/storyweave/storyweave/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "storyweave_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	metrics := observability.NewMetrics()

	decisionStore := policy.NewStore(dbpool)
	recorder := policy.NewRecorder(decisionStore, logger, policy.RecorderOptions{
		LogGrantMutations: cfg.DecisionLogGrantMutations,
		LogGrantReads:     cfg.DecisionLogGrantReads,
		Buffer:            cfg.DecisionLogBuffer,
		WriteTimeout:      cfg.DecisionLogWriteTimeout,
	})
	defer recorder.Close()
	authorizer := policy.NewAuthorizer(policy.NewEngine(), recorder, metrics)

	approvalRecorder := shared.NewApprovalRecorder(dbpool, logger)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)
	authMiddleware := auth.Middleware{Service: authService, Logger: logger}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	communitiesService := communities.NewService(communities.NewRepository(dbpool), authorizer)
	usersService := users.NewService(users.NewRepository(dbpool), authorizer)
	storiesService := stories.NewService(stories.NewRepository(dbpool), authorizer, approvalRecorder)
	placesService := places.NewService(places.NewRepository(dbpool), authorizer)
	speakersService := speakers.NewService(speakers.NewRepository(dbpool), authorizer)
	themesService := themes.NewService(themes.NewRepository(dbpool), authorizer)
	curriculumsService := curriculums.NewService(curriculums.NewRepository(dbpool), authorizer)
	filesService := files.NewService(files.NewRepository(dbpool), authorizer, files.NewLocalStorage(cfg.StorageBaseURL), idempotencyStore, asynqClient, logger)
	auditService := audit.NewService(audit.NewRepository(dbpool), authorizer)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
		CommunitiesHandler: communities.NewHandler(logger, communitiesService),
		UsersHandler:       users.NewHandler(logger, usersService),
		StoriesHandler:     stories.NewHandler(logger, storiesService),
		PlacesHandler:      places.NewHandler(logger, placesService),
		SpeakersHandler:    speakers.NewHandler(logger, speakersService),
		ThemesHandler:      themes.NewHandler(logger, themesService),
		CurriculumsHandler: curriculums.NewHandler(logger, curriculumsService),
		FilesHandler:       files.NewHandler(logger, filesService, cfg.UploadsPerMinute),
		AuditHandler:       audit.NewHandler(logger, auditService),
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
