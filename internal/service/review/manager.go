package review

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"wastewatch/internal/config"
	"wastewatch/internal/dto"
	"wastewatch/internal/logger"
	"wastewatch/internal/model"
	"wastewatch/internal/repository"
	"wastewatch/internal/service/analysis"
	"wastewatch/internal/service/storage"
)

// DefaultSeverity is used when a report does not state one.
const DefaultSeverity = 3

// ErrReportNotApproved is returned when a cleanup targets a report that is not open for cleanup.
var ErrReportNotApproved = errors.New("report is not approved for cleanup")

// PhotoStore persists uploaded photos.
type PhotoStore interface {
	Save(data []byte, kind string) (string, error)
	Load(name string) ([]byte, error)
}

// CleanupVerifier compares before and after photos.
type CleanupVerifier interface {
	Verify(beforeImage, afterImage []byte) (*analysis.VerificationResult, error)
}

// Broadcaster pushes events to live viewers.
type Broadcaster interface {
	Broadcast(event dto.ReviewEvent)
}

// Manager runs the report and cleanup review workflow. Report photos are analyzed
// in the background by a fixed pool of workers.
type Manager struct {
	reports  repository.ReportRepository
	cleanups repository.CleanupRepository
	users    repository.UserRepository
	photos   PhotoStore
	analyzer analysis.ImageAnalyzer
	verifier CleanupVerifier
	events   Broadcaster
	validate *validator.Validate
	logger   *logger.Logger

	processingQueue chan analysisTask
	numWorkers      int
	now             func() time.Time

	wg       sync.WaitGroup
	stopOnce sync.Once
}

type analysisTask struct {
	ReportID string
	Photo    []byte
}

// Dependencies groups the collaborators of a Manager.
type Dependencies struct {
	Reports  repository.ReportRepository
	Cleanups repository.CleanupRepository
	Users    repository.UserRepository
	Photos   PhotoStore
	Analyzer analysis.ImageAnalyzer
	Verifier CleanupVerifier
	Events   Broadcaster
}

// NewManager starts the analysis workers.
func NewManager(deps Dependencies, config *config.Config, logger *logger.Logger) *Manager {
	workers := config.ProcessingWorkers
	if workers <= 0 {
		workers = 1
	}
	queueSize := config.ProcessingQueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	manager := &Manager{
		reports:         deps.Reports,
		cleanups:        deps.Cleanups,
		users:           deps.Users,
		photos:          deps.Photos,
		analyzer:        deps.Analyzer,
		verifier:        deps.Verifier,
		events:          deps.Events,
		validate:        newValidator(),
		logger:          logger,
		processingQueue: make(chan analysisTask, queueSize),
		numWorkers:      workers,
		now:             time.Now,
	}

	for i := 0; i < manager.numWorkers; i++ {
		manager.wg.Add(1)
		go manager.processingWorker(i)
	}

	manager.logger.Info("🎬 Review manager started with %d analysis worker(s)", manager.numWorkers)
	return manager
}

// SubmitReport stores a new report and queues its photo for analysis.
func (m *Manager) SubmitReport(sub dto.ReportSubmission) (*model.Report, error) {
	if err := validateSubmission(m.validate, sub); err != nil {
		return nil, err
	}

	photoPath, err := m.photos.Save(sub.Photo, storage.KindReport)
	if err != nil {
		return nil, err
	}

	now := m.now()
	report := &model.Report{
		ID:           uuid.NewString(),
		UserID:       sub.UserID,
		PhotoPath:    photoPath,
		Latitude:     sub.Latitude,
		Longitude:    sub.Longitude,
		LocationName: sub.LocationName,
		Description:  sub.Description,
		WasteType:    sub.WasteType,
		Severity:     NormalizeSeverity(sub.Severity),
		Status:       model.ReportPendingReview,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := m.reports.Insert(report); err != nil {
		return nil, err
	}

	m.logger.Info("📍 Report %s submitted by %s (severity %d)", report.ID, report.UserID, report.Severity)
	m.publish(dto.EventReportSubmitted, report.ID, report.UserID, string(report.Status), 0, 0)

	select {
	case m.processingQueue <- analysisTask{ReportID: report.ID, Photo: sub.Photo}:
		m.logger.Info("Report %s queued for analysis", report.ID)
	default:
		m.logger.Warning("⚠️  Processing queue full - skipping AI analysis for report %s", report.ID)
	}

	return report, nil
}

// GetReport returns a report with its analysis, if any.
func (m *Manager) GetReport(id string) (*model.Report, error) {
	return m.reports.GetByID(id)
}

// ReviewReport approves or rejects a pending report.
func (m *Manager) ReviewReport(id string, approved bool) (*model.Report, error) {
	status := model.ReportRejected
	if approved {
		status = model.ReportApproved
	}

	if err := m.reports.UpdateStatus(id, model.ReportPendingReview, status); err != nil {
		return nil, err
	}

	report, err := m.reports.GetByID(id)
	if err != nil {
		return nil, err
	}

	m.logger.Info("Report %s reviewed: %s", id, status)
	m.publish(dto.EventReportReviewed, report.ID, report.UserID, string(status), 0, 0)
	return report, nil
}

// SubmitCleanup records a cleanup of an approved report; the report photo becomes the before photo.
func (m *Manager) SubmitCleanup(sub dto.CleanupSubmission) (*model.Cleanup, error) {
	if err := validateSubmission(m.validate, sub); err != nil {
		return nil, err
	}

	report, err := m.reports.GetByID(sub.ReportID)
	if err != nil {
		return nil, err
	}
	if report.Status != model.ReportApproved {
		return nil, ErrReportNotApproved
	}

	photoPath, err := m.photos.Save(sub.Photo, storage.KindCleanup)
	if err != nil {
		return nil, err
	}

	cleanup := &model.Cleanup{
		ID:              uuid.NewString(),
		UserID:          sub.UserID,
		ReportID:        report.ID,
		BeforePhotoPath: report.PhotoPath,
		AfterPhotoPath:  photoPath,
		Status:          model.CleanupPendingVerification,
		CreatedAt:       m.now(),
	}

	if err := m.cleanups.Insert(cleanup); err != nil {
		return nil, err
	}

	m.logger.Info("🧹 Cleanup %s submitted by %s for report %s", cleanup.ID, cleanup.UserID, report.ID)
	return cleanup, nil
}

// ListCleanups returns cleanups matching the filter, newest first.
func (m *Manager) ListCleanups(filter *dto.CleanupFilters) ([]model.Cleanup, error) {
	return m.cleanups.GetAll(filter)
}

// ReviewCleanup records an admin decision. Approval runs AI verification and awards
// carbon points; when verification cannot run the fixed fallback award is used.
func (m *Manager) ReviewCleanup(id string, req dto.ReviewRequest) (*model.Cleanup, error) {
	cleanup, err := m.cleanups.GetByID(id)
	if err != nil {
		return nil, err
	}
	if cleanup.Reviewed() {
		return nil, repository.ErrConflict
	}

	cleanup.AdminNotes = req.AdminNotes

	if !req.Approved {
		cleanup.Status = model.CleanupRejected
		cleanup.PointsAwarded = 0
	} else {
		report, err := m.reports.GetByID(cleanup.ReportID)
		if err != nil {
			return nil, err
		}

		cleanup.Status = model.CleanupApproved
		verifiedAt := m.now()
		cleanup.VerifiedAt = &verifiedAt

		result, err := m.verify(cleanup)
		if err != nil {
			m.logger.WithFields(logger.Fields{
				"cleanup": cleanup.ID,
				"report":  report.ID,
				"error":   err.Error(),
			}).Warn("AI verification failed, awarding fallback points")
			cleanup.PointsAwarded = analysis.FallbackPoints
		} else {
			confidence := result.Confidence
			cleanup.AIConfidenceScore = &confidence
			cleanup.AIAnalysis = result
			cleanup.PointsAwarded = analysis.CalculateCarbonPoints(report.Severity, result.ObjectsRemoved, result.Confidence)
		}
	}

	if err := m.cleanups.CompleteReview(cleanup); err != nil {
		return nil, err
	}

	m.logger.Info("Cleanup %s reviewed: %s, %d points awarded to %s",
		cleanup.ID, cleanup.Status, cleanup.PointsAwarded, cleanup.UserID)
	m.publish(dto.EventCleanupReviewed, cleanup.ID, cleanup.UserID, string(cleanup.Status), cleanup.PointsAwarded, 0)

	return cleanup, nil
}

// Points returns a user's carbon point balance.
func (m *Manager) Points(userID string) (int, error) {
	return m.users.GetPoints(userID)
}

func (m *Manager) verify(cleanup *model.Cleanup) (*analysis.VerificationResult, error) {
	before, err := m.photos.Load(cleanup.BeforePhotoPath)
	if err != nil {
		return nil, fmt.Errorf("before photo: %w", err)
	}
	after, err := m.photos.Load(cleanup.AfterPhotoPath)
	if err != nil {
		return nil, fmt.Errorf("after photo: %w", err)
	}
	return m.verifier.Verify(before, after)
}

// processingWorker analyzes queued report photos.
func (m *Manager) processingWorker(workerID int) {
	defer m.wg.Done()

	m.logger.Info("🔧 Analysis worker %d started", workerID)

	for task := range m.processingQueue {
		m.analyzeReport(task)
	}

	m.logger.Info("🔧 Analysis worker %d stopped", workerID)
}

func (m *Manager) analyzeReport(task analysisTask) {
	result, err := m.analyzer.Analyze(task.Photo)
	if err != nil {
		m.logger.Warning("Analysis of report %s failed, storing fallback analysis: %v", task.ReportID, err)
		result = analysis.ReportFallbackAnalysis()
	}

	if err := m.reports.UpdateAnalysis(task.ReportID, result); err != nil {
		m.logger.Error("Failed to store analysis for report %s: %v", task.ReportID, err)
		return
	}

	m.publish(dto.EventReportAnalyzed, task.ReportID, "", "", 0, result.ObjectsCount)
}

func (m *Manager) publish(kind, id, userID, status string, points, objects int) {
	if m.events == nil {
		return
	}
	m.events.Broadcast(dto.ReviewEvent{
		Type:          kind,
		ID:            id,
		UserID:        userID,
		Status:        status,
		PointsAwarded: points,
		ObjectsCount:  objects,
		Timestamp:     m.now(),
	})
}

// Stop drains the analysis queue and waits for the workers.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.processingQueue)
		m.wg.Wait()
		m.logger.Info("🛑 All analysis workers stopped")
	})
}

// NormalizeSeverity defaults an unset severity to 3 and clamps the rest to 1..5.
func NormalizeSeverity(severity int) int {
	switch {
	case severity == 0:
		return DefaultSeverity
	case severity < 1:
		return 1
	case severity > 5:
		return 5
	default:
		return severity
	}
}
