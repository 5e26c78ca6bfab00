package dto

import "wastewatch/internal/service/analysis"

type ErrorResponse struct {
	Error string `json:"error"`
}

type PointsResponse struct {
	UserID       string `json:"userId"`
	CarbonPoints int    `json:"carbonPoints"`
}

// VerifyResponse is a verification result with the points it would award.
type VerifyResponse struct {
	*analysis.VerificationResult
	Severity int `json:"severity"`
	Points   int `json:"points"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	ModelLoaded  bool   `json:"modelLoaded"`
	ModelPath    string `json:"modelPath"`
	ModelVersion string `json:"modelVersion"`
	Viewers      int    `json:"viewers"`
}
