package handler

import (
	"net/http"
	"strconv"

	"wastewatch/internal/config"
	"wastewatch/internal/dto"
	"wastewatch/internal/logger"
	"wastewatch/internal/service/analysis"
	"wastewatch/internal/service/review"
)

// ModelStatus reports on the lazily loaded detector.
type ModelStatus interface {
	Ready() bool
	ModelPath() string
}

// ViewerCounter reports connected dashboard viewers.
type ViewerCounter interface {
	GetClientCount() int
}

// AnalyzeHandler handles POST /api/analyze with a multipart "photo" field.
func AnalyzeHandler(analyzer analysis.ImageAnalyzer, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
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

		result, err := analyzer.Analyze(photo)
		if err != nil {
			respondFailure(w, logger, "analysis", err)
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

// VerifyHandler handles POST /api/verify with "before" and "after" photos and an
// optional "severity" used to price the result.
func VerifyHandler(verifier review.CleanupVerifier, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseUpload(w, r, cfg.MaxUploadSize); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		before, err := readFile(r, "before")
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		after, err := readFile(r, "after")
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		severity := 0
		if raw := r.FormValue("severity"); raw != "" {
			severity, err = strconv.Atoi(raw)
			if err != nil {
				respondError(w, http.StatusBadRequest, "severity must be an integer")
				return
			}
		}
		severity = review.NormalizeSeverity(severity)

		result, err := verifier.Verify(before, after)
		if err != nil {
			respondFailure(w, logger, "verification", err)
			return
		}

		respondJSON(w, http.StatusOK, dto.VerifyResponse{
			VerificationResult: result,
			Severity:           severity,
			Points:             analysis.CalculateCarbonPoints(severity, result.ObjectsRemoved, result.Confidence),
		})
	}
}

// HealthHandler reports service and model state.
func HealthHandler(model ModelStatus, viewers ViewerCounter, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, dto.HealthResponse{
			Status:       "ok",
			ModelLoaded:  model.Ready(),
			ModelPath:    model.ModelPath(),
			ModelVersion: cfg.ModelVersion,
			Viewers:      viewers.GetClientCount(),
		})
	}
}
