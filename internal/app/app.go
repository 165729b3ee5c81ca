package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-disk-cleaner/internal/backup"
	"go-disk-cleaner/internal/cache"
	"go-disk-cleaner/internal/classify"
	"go-disk-cleaner/internal/config"
	"go-disk-cleaner/internal/database"
	"go-disk-cleaner/internal/engine"
	"go-disk-cleaner/internal/event"
	"go-disk-cleaner/internal/handler"
	"go-disk-cleaner/internal/middleware"
	"go-disk-cleaner/internal/recovery"
	"go-disk-cleaner/internal/repository"
	"go-disk-cleaner/internal/router"
	"go-disk-cleaner/internal/scanner"
	"go-disk-cleaner/internal/service"
	"go-disk-cleaner/internal/websocket"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, int32(cfg.DBMaxConns), int32(cfg.DBMinConns))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	classificationRepo := repository.NewClassificationRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	planRepo := repository.NewPlanRepository(pool)
	backupRepo := repository.NewBackupRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	recoveryRepo := repository.NewRecoveryRepository(pool)
	slog.Info("database ready")

	authService := service.NewAuthService(userRepo, tokenRepo, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err := authService.EnsureSeedUser(context.Background(), cfg.SeedAdminUser, cfg.SeedAdminPassword); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed admin user: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(authService)
	authHandler := handler.NewAuthHandler(authService)

	bus := event.NewBus()
	hub := websocket.NewHub(bus)
	go hub.Run()

	auditService := service.NewAuditService(auditRepo)
	auditHandler := handler.NewAuditHandler(auditService)

	classCache := cache.New(classificationRepo, cfg.CacheTTL)
	if warmed := classCache.Warmup(context.Background(), cfg.CacheWarmupSize); warmed > 0 {
		slog.Info("classification cache warmed", "records", warmed)
	}

	rules := classify.NewDefaultEngine()
	if cfg.RulesFile != "" {
		custom, loadErr := classify.LoadRules(cfg.RulesFile)
		if loadErr != nil {
			db.Close()
			return nil, fmt.Errorf("failed to load classification rules: %w", loadErr)
		}
		rules = classify.NewEngine(custom)
	}

	var assisted service.Assessor
	if cfg.AnthropicAPIKey != "" {
		assisted = classify.NewAssisted(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		slog.Info("assisted classification enabled")
	}

	backupManager, err := backup.NewManager(cfg.BackupRoot, backupRepo)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize backup manager: %w", err)
	}

	eng := engine.New(backupManager, resultRepo, engine.Config{
		LockedRetries:    cfg.ExecLockedRetries,
		LockedBackoff:    cfg.ExecLockedBackoff,
		IOAbortThreshold: cfg.ExecIOAbortThreshold,
		ItemTimeout:      cfg.ExecItemTimeout,
	})
	recoveryManager := recovery.NewManager(backupRepo, recoveryRepo, eng)

	scan := scanner.New(scanner.Options{
		MaxDepth: cfg.ScanMaxDepth,
		MaxItems: cfg.ScanMaxItems,
	})

	planService := service.NewPlanService(rules, classCache, assisted, feedbackRepo, planRepo, scan, bus, auditService)
	executionService := service.NewExecutionService(eng, planRepo, resultRepo, bus, auditService)
	backupService := service.NewBackupService(recoveryManager, bus, auditService)

	planHandler := handler.NewPlanHandler(planService, executionService)
	backupHandler := handler.NewBackupHandler(backupService)
	classifyHandler := handler.NewClassifyHandler(planService)

	appRouter := router.New(cfg, authMiddleware, authHandler, planHandler, backupHandler, classifyHandler, auditHandler, hub, healthCheck(db))

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			func() {
				db.Close()
			},
		},
	}, nil
}

func healthCheck(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if err := db.Health(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
