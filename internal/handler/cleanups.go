package handler

import (
	"encoding/json"
	"net/http"

	"wastewatch/internal/config"
	"wastewatch/internal/dto"
	"wastewatch/internal/logger"
	"wastewatch/internal/service/review"
)

// SubmitCleanupHandler handles POST /api/cleanups.
func SubmitCleanupHandler(manager *review.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseUpload(w, r, cfg.MaxUploadSize); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		photo, err := readFile(r, "photo")
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		cleanup, err := manager.SubmitCleanup(dto.CleanupSubmission{
			UserID:   r.FormValue("userId"),
			ReportID: r.FormValue("reportId"),
			Photo:    photo,
		})
		if err != nil {
			respondFailure(w, logger, "cleanup submission", err)
			return
		}

		respondJSON(w, http.StatusCreated, cleanup)
	}
}

// ListCleanupsHandler handles GET /api/cleanups?status=&userId=&limit=&offset=.
func ListCleanupsHandler(manager *review.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := &dto.CleanupFilters{
			Status: q.Get("status"),
			UserID: q.Get("userId"),
			Limit:  atoiDefault(q.Get("limit"), 0),
			Offset: atoiDefault(q.Get("offset"), 0),
		}

		cleanups, err := manager.ListCleanups(filter)
		if err != nil {
			respondFailure(w, logger, "cleanup listing", err)
			return
		}
		respondJSON(w, http.StatusOK, cleanups)
	}
}

// ReviewCleanupHandler handles POST /api/admin/cleanups/{id}/review.
func ReviewCleanupHandler(manager *review.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.ReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		cleanup, err := manager.ReviewCleanup(r.PathValue("id"), req)
		if err != nil {
			respondFailure(w, logger, "cleanup review", err)
			return
		}
		respondJSON(w, http.StatusOK, cleanup)
	}
}

// GetPointsHandler handles GET /api/users/{id}/points.
func GetPointsHandler(manager *review.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.PathValue("id")

		points, err := manager.Points(userID)
		if err != nil {
			respondFailure(w, logger, "points lookup", err)
			return
		}
		respondJSON(w, http.StatusOK, dto.PointsResponse{UserID: userID, CarbonPoints: points})
	}
}
