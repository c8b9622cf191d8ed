package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"clinic-api/internal/config"
	"clinic-api/internal/database"
	"clinic-api/internal/handler"
	"clinic-api/internal/metrics"
	"clinic-api/internal/middleware"
	"clinic-api/internal/repository"
	"clinic-api/internal/router"
	"clinic-api/internal/service"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	slog.Info("database ready")

	appRouter, err := NewRouter(cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			db.Close,
		},
	}, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests and
// releases the pool.
func (a *App) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		a.cleanup()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.cleanup()
	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for _, fn := range a.cleanupFuncs {
		fn()
	}
}

// NewRouter wires repositories, services and handlers on top of db.
func NewRouter(cfg *config.Config, db *database.DB) (http.Handler, error) {
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	recordRepo := repository.NewMedicalRecordRepository(db)
	prescriptionRepo := repository.NewPrescriptionRepository(db)

	tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	var appMetrics *metrics.Metrics
	if cfg.MetricsEnabled {
		appMetrics = metrics.New()
		if err := appMetrics.Register(metrics.NewPoolCollector(db.Pool)); err != nil {
			return nil, fmt.Errorf("failed to register pool metrics: %w", err)
		}
	}

	auditService := service.NewAuditService(auditRepo, appMetrics)
	authService := service.NewAuthService(
		userRepo,
		service.NewPasswordVerifier(cfg.BcryptCost),
		service.NewLockoutPolicy(cfg.LockoutThreshold, cfg.LockoutDuration),
		tokens,
		auditService,
	)
	patientService := service.NewPatientService(patientRepo, auditService)
	visitService := service.NewVisitService(visitRepo)
	recordService := service.NewMedicalRecordService(recordRepo, auditService)
	prescriptionService := service.NewPrescriptionService(db, prescriptionRepo, auditService)

	return router.New(cfg, middleware.NewAuthMiddleware(authService), router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		User:          handler.NewUserHandler(authService),
		Patient:       handler.NewPatientHandler(patientService),
		Visit:         handler.NewVisitHandler(visitService),
		MedicalRecord: handler.NewMedicalRecordHandler(recordService),
		Prescription:  handler.NewPrescriptionHandler(prescriptionService),
		Audit:         handler.NewAuditHandler(auditService),
		Health:        handler.NewHealthHandler(db),
		Docs:          handler.NewDocsHandler(),
		Metrics:       appMetrics,
	}), nil
}
