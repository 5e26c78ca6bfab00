package repository

import (
	"errors"

	"wastewatch/internal/dto"
	"wastewatch/internal/model"
	"wastewatch/internal/service/analysis"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a record is not in the state an update requires.
	ErrConflict = errors.New("record state conflict")
)

// ReportRepository defines the interface for waste report operations.
type ReportRepository interface {
	// Create operations
	Insert(report *model.Report) error

	// Read operations
	GetByID(id string) (*model.Report, error)
	// GetUnanalyzed lists reports with no stored analysis, oldest first.
	GetUnanalyzed(limit int) ([]model.Report, error)

	// Update operations
	UpdateAnalysis(id string, result *analysis.WasteAnalysis) error
	// UpdateStatus moves a report from one status to another; ErrConflict if it is not in from.
	UpdateStatus(id string, from, to model.ReportStatus) error
}

// CleanupRepository defines the interface for cleanup activity operations.
type CleanupRepository interface {
	// Create operations
	Insert(cleanup *model.Cleanup) error

	// Read operations
	GetByID(id string) (*model.Cleanup, error)
	GetAll(filter *dto.CleanupFilters) ([]model.Cleanup, error)

	// CompleteReview records an admin decision in one transaction: the cleanup leaves
	// PENDING_VERIFICATION, and on approval the report is marked CLEANED and the
	// user's balance grows by the awarded points. ErrConflict if already reviewed.
	CompleteReview(cleanup *model.Cleanup) error
}

// UserRepository defines the interface for point balances.
type UserRepository interface {
	// GetPoints returns the balance; unknown users have zero points.
	GetPoints(userID string) (int, error)
	// AddPoints credits a balance and returns the new total.
	AddPoints(userID string, points int) (int, error)
}
