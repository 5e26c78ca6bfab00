package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"wastewatch/internal/config"
	"wastewatch/internal/dto"
	"wastewatch/internal/logger"
	"wastewatch/internal/service/review"
)

// SubmitReportHandler handles POST /api/reports.
func SubmitReportHandler(manager *review.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
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

		latitude, err := parseFloat(r.FormValue("latitude"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "latitude must be a number")
			return
		}
		longitude, err := parseFloat(r.FormValue("longitude"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "longitude must be a number")
			return
		}

		severity := 0
		if raw := r.FormValue("severity"); raw != "" {
			if severity, err = strconv.Atoi(raw); err != nil {
				respondError(w, http.StatusBadRequest, "severity must be an integer")
				return
			}
		}

		report, err := manager.SubmitReport(dto.ReportSubmission{
			UserID:       r.FormValue("userId"),
			Latitude:     latitude,
			Longitude:    longitude,
			LocationName: r.FormValue("locationName"),
			Description:  r.FormValue("description"),
			WasteType:    r.FormValue("wasteType"),
			Severity:     severity,
			Photo:        photo,
		})
		if err != nil {
			respondFailure(w, logger, "report submission", err)
			return
		}

		respondJSON(w, http.StatusCreated, report)
	}
}

// GetReportHandler handles GET /api/reports/{id}.
func GetReportHandler(manager *review.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := manager.GetReport(r.PathValue("id"))
		if err != nil {
			respondFailure(w, logger, "report lookup", err)
			return
		}
		respondJSON(w, http.StatusOK, report)
	}
}

// ReviewReportHandler handles POST /api/admin/reports/{id}/review.
func ReviewReportHandler(manager *review.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.ReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		report, err := manager.ReviewReport(r.PathValue("id"), req.Approved)
		if err != nil {
			respondFailure(w, logger, "report review", err)
			return
		}
		respondJSON(w, http.StatusOK, report)
	}
}
