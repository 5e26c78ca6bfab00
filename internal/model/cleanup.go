package model

import (
	"time"

	"wastewatch/internal/service/analysis"
)

// CleanupStatus tracks a cleanup submission through verification.
type CleanupStatus string

const (
	CleanupPendingVerification CleanupStatus = "PENDING_VERIFICATION"
	CleanupApproved            CleanupStatus = "APPROVED"
	CleanupRejected            CleanupStatus = "REJECTED"
)

// Cleanup is a user's claim to have cleaned a reported site.
type Cleanup struct {
	ID                string                       `json:"id"`
	UserID            string                       `json:"userId"`
	ReportID          string                       `json:"reportId"`
	BeforePhotoPath   string                       `json:"beforePhotoPath"`
	AfterPhotoPath    string                       `json:"afterPhotoPath"`
	Status            CleanupStatus                `json:"status"`
	PointsAwarded     int                          `json:"pointsAwarded"`
	AIConfidenceScore *float64                     `json:"aiConfidenceScore,omitempty"`
	AIAnalysis        *analysis.VerificationResult `json:"aiAnalysisData,omitempty"`
	AdminNotes        string                       `json:"adminNotes,omitempty"`
	VerifiedAt        *time.Time                   `json:"verifiedAt,omitempty"`
	CreatedAt         time.Time                    `json:"createdAt"`
}

// Reviewed reports whether an admin decision has already been recorded.
func (c *Cleanup) Reviewed() bool {
	return c.Status != CleanupPendingVerification
}
