package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"wastewatch/internal/dto"
	"wastewatch/internal/logger"
	"wastewatch/internal/repository"
	"wastewatch/internal/service/ai"
	"wastewatch/internal/service/review"
)

// respondJSON writes v with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, dto.ErrorResponse{Error: message})
}

// respondFailure maps workflow errors onto HTTP status codes.
func respondFailure(w http.ResponseWriter, logger *logger.Logger, action string, err error) {
	var decodeErr *ai.ImageDecodeError
	var validation *review.ValidationError

	switch {
	case errors.As(err, &decodeErr):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrConflict), errors.Is(err, review.ErrReportNotApproved):
		respondError(w, http.StatusConflict, err.Error())
	default:
		logger.Error("Error during %s: %v", action, err)
		respondError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// parseUpload parses a multipart request bounded by maxBytes.
func parseUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return fmt.Errorf("invalid multipart form: %w", err)
	}
	return nil
}

// readFile returns the bytes of an uploaded file field.
func readFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%s file is required", field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s file is empty", field)
	}
	return data, nil
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
