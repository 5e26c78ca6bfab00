package model

import (
	"time"

	"wastewatch/internal/service/analysis"
)

// ReportStatus tracks a waste report through admin review and cleanup.
type ReportStatus string

const (
	ReportPendingReview ReportStatus = "PENDING_REVIEW"
	ReportApproved      ReportStatus = "APPROVED"
	ReportRejected      ReportStatus = "REJECTED"
	ReportCleaned       ReportStatus = "CLEANED"
)

// Report is a citizen's waste report for one location.
type Report struct {
	ID           string                  `json:"id"`
	UserID       string                  `json:"userId"`
	PhotoPath    string                  `json:"photoPath"`
	Latitude     float64                 `json:"latitude"`
	Longitude    float64                 `json:"longitude"`
	LocationName string                  `json:"locationName"`
	Description  string                  `json:"description"`
	WasteType    string                  `json:"wasteType"`
	Severity     int                     `json:"severity"`
	Status       ReportStatus            `json:"status"`
	Analysis     *analysis.WasteAnalysis `json:"aiAnalysis,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
}
