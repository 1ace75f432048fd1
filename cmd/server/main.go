package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/config"
	"github.com/stemsi/classroom-backend/internal/database"
	"github.com/stemsi/classroom-backend/internal/events"
	"github.com/stemsi/classroom-backend/internal/handler"
	"github.com/stemsi/classroom-backend/internal/logger"
	"github.com/stemsi/classroom-backend/internal/middleware"
	"github.com/stemsi/classroom-backend/internal/observability"
	"github.com/stemsi/classroom-backend/internal/repository"
	"github.com/stemsi/classroom-backend/internal/repository/memory"
	"github.com/stemsi/classroom-backend/internal/router"
	"github.com/stemsi/classroom-backend/internal/seed"
	"github.com/stemsi/classroom-backend/internal/service"
	"github.com/stemsi/classroom-backend/internal/validator"
	"github.com/stemsi/classroom-backend/internal/worker"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "classroom-api",
		Version: version,
	})
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreDriver).
		Msg("Starting Classroom Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	// ─── Error Reporting ───────────────────────────────────────────────
	flushSentry, err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv, version)
	if err != nil {
		log.Warn().Err(err).Msg("Sentry disabled")
	}
	defer flushSentry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Storage, Sessions and Events ──────────────────────────────────
	var (
		store    repository.Store
		sessions service.SessionStore
		bus      events.Bus
		activity events.ActivityLog
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn().Msg("Using the in-memory store; data is lost on exit")
		store = memory.New()
		sessions = service.NewMemorySessionStore()
		bus = events.NewLocalBus()
		activity = events.NewMemoryActivityLog(events.DefaultActivityCapacity)
		if err := seed.New(store, cfg.BcryptCost, log).Run(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed the in-memory store")
		}

	case config.StoreDriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.MaxDBConns, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()

		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()

		store = repository.NewPostgresStore(pool)
		sessions = service.NewRedisSessionStore(rdb)
		bus = events.NewRedisBus(rdb, log)
		activity = events.NewRedisActivityLog(rdb, events.DefaultActivityCapacity)

	default:
		log.Fatal().Str("store", cfg.StoreDriver).Msg("Unknown STORE_DRIVER")
	}

	// ─── Initialize Services ──────────────────────────────────────────
	userService := service.NewUserService(store, cfg.BcryptCost)
	authService := service.NewAuthService(userService, sessions, cfg.JWTSecret, cfg.JWTExpiry, log)
	studentService := service.NewStudentService(store, cfg.MaxUploadBytes)
	classService := service.NewClassService(store)
	requestService := service.NewClassRequestService(store, bus, log)
	attendanceService := service.NewAttendanceService(store, bus, log)
	reportService := service.NewReportService(store)

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(ctx)
	workerDone := make(chan struct{})
	activityWorker := worker.NewActivityWorker(bus, activity, log)
	go func() {
		activityWorker.Start(workerCtx)
		close(workerDone)
	}()

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Student:    handler.NewStudentHandler(studentService),
		Class:      handler.NewClassHandler(classService),
		Request:    handler.NewClassRequestHandler(requestService),
		Attendance: handler.NewAttendanceHandler(attendanceService, reportService),
		User:       handler.NewUserHandler(userService),
		WS:         handler.NewWSHandler(bus, log, cfg.AllowedOrigins),
		Activity:   handler.NewActivityHandler(activity),
	}

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, time.Minute)
	defer loginLimiter.Stop()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, loginLimiter, cfg, log)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// Request contexts derive from ctx; cancelling it ends open WebSocket streams.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	workerCancel()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("Activity worker did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
