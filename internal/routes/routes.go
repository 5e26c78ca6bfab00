package routes

import (
	"net/http"

	"wastewatch/internal/config"
	"wastewatch/internal/handler"
	"wastewatch/internal/logger"
	"wastewatch/internal/middleware"
	"wastewatch/internal/service/analysis"
	"wastewatch/internal/service/review"
	"wastewatch/internal/service/websocket"
)

// Services groups what the HTTP layer needs.
type Services struct {
	Manager  *review.Manager
	Analyzer analysis.ImageAnalyzer
	Verifier review.CleanupVerifier
	Model    handler.ModelStatus
	Hub      *websocket.HubService
}

// SetupRoutes registers the API endpoints and wraps the mux with the admin guard
// and request logging.
func SetupRoutes(services Services, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Analysis endpoints
	mux.HandleFunc("POST /api/analyze", handler.AnalyzeHandler(services.Analyzer, cfg, logger))
	mux.HandleFunc("POST /api/verify", handler.VerifyHandler(services.Verifier, cfg, logger))
	mux.HandleFunc("GET /api/health", handler.HealthHandler(services.Model, services.Hub, cfg))

	// Reports and cleanups
	mux.HandleFunc("POST /api/reports", handler.SubmitReportHandler(services.Manager, cfg, logger))
	mux.HandleFunc("GET /api/reports/{id}", handler.GetReportHandler(services.Manager, logger))
	mux.HandleFunc("POST /api/cleanups", handler.SubmitCleanupHandler(services.Manager, cfg, logger))
	mux.HandleFunc("GET /api/cleanups", handler.ListCleanupsHandler(services.Manager, logger))
	mux.HandleFunc("GET /api/users/{id}/points", handler.GetPointsHandler(services.Manager, logger))

	// Live review feed
	mux.HandleFunc("GET /api/view", handler.ViewWebsocketHandler(services.Hub, logger))

	// Admin endpoints
	mux.HandleFunc("POST /api/admin/reports/{id}/review", handler.ReviewReportHandler(services.Manager, logger))
	mux.HandleFunc("POST /api/admin/cleanups/{id}/review", handler.ReviewCleanupHandler(services.Manager, logger))
	mux.HandleFunc("POST /api/admin/logs/{level}/clear", handler.ClearLogsHandler(logger))

	// Log endpoints
	mux.HandleFunc("GET /logs/{level}", handler.ShowLogsHandler(cfg))

	return middleware.RequestLogger(logger)(middleware.AdminMiddleware(cfg.AdminToken)(mux))
}
