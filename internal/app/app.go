package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wastewatch/internal/config"
	"wastewatch/internal/logger"
	"wastewatch/internal/repository/sqlite"
	"wastewatch/internal/routes"
	"wastewatch/internal/service/ai"
	"wastewatch/internal/service/ai/dnn"
	"wastewatch/internal/service/analysis"
	"wastewatch/internal/service/review"
	"wastewatch/internal/service/storage"
	"wastewatch/internal/service/websocket"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   *logger.Logger
	db       *sqlite.DB
	detector *ai.DetectorService
	hub      *websocket.HubService
	manager  *review.Manager
	handler  http.Handler
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// The model is loaded on first use; a missing file only switches analysis to the mock.
	detector := ai.NewDetectorService(cfg, dnn.Load, log)
	analyzer := analysis.NewAnalyzer(cfg, ai.NewPreprocessor(cfg.ModelInputSize), detector, log)
	verifier := analysis.NewVerifier(analyzer, analysis.NewRandomSource(cfg.VerificationSeed), log)
	hub := websocket.NewHubService(log)

	manager := review.NewManager(review.Dependencies{
		Reports:  sqlite.NewReportRepository(db),
		Cleanups: sqlite.NewCleanupRepository(db),
		Users:    sqlite.NewUserRepository(db),
		Photos:   storage.NewPhotoService(cfg, log),
		Analyzer: analyzer,
		Verifier: verifier,
		Events:   hub,
	}, cfg, log)

	handler := routes.SetupRoutes(routes.Services{
		Manager:  manager,
		Analyzer: analyzer,
		Verifier: verifier,
		Model:    detector,
		Hub:      hub,
	}, cfg, log)

	return &App{
		config:   cfg,
		logger:   log,
		db:       db,
		detector: detector,
		hub:      hub,
		manager:  manager,
		handler:  handler,
	}, nil
}

// Run serves HTTP until SIGINT/SIGTERM, then drains workers and releases the model.
func (a *App) Run() error {
	go a.hub.Run()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("🚀 WasteWatch verification server")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("📁 Photos: %s", a.config.PhotoDirectory)
	a.logger.Info("🤖 AI Model: %s (%s)", a.config.ModelPath, a.config.ModelVersion)
	if a.config.AdminToken == "" {
		a.logger.Warning("ADMIN_TOKEN is not set - admin routes are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	a.close()
	return err
}

func (a *App) close() {
	a.manager.Stop()
	a.hub.Stop()
	if err := a.detector.Close(); err != nil {
		a.logger.Error("Error releasing model: %v", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database: %v", err)
	}
}
