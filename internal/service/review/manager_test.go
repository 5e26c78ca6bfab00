package review

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastewatch/internal/config"
	"wastewatch/internal/dto"
	"wastewatch/internal/logger"
	"wastewatch/internal/model"
	"wastewatch/internal/repository"
	"wastewatch/internal/repository/sqlite"
	"wastewatch/internal/service/ai"
	"wastewatch/internal/service/analysis"
	"wastewatch/internal/service/storage"
)

type stubAnalyzer struct {
	result *analysis.WasteAnalysis
	err    error
}

func (s *stubAnalyzer) Analyze([]byte) (*analysis.WasteAnalysis, error) {
	return s.result, s.err
}

type stubVerifier struct {
	mu     sync.Mutex
	calls  int
	result *analysis.VerificationResult
	err    error
}

func (s *stubVerifier) Verify(before, after []byte) (*analysis.VerificationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.result, s.err
}

type recorder struct {
	mu     sync.Mutex
	events []dto.ReviewEvent
}

func (r *recorder) Broadcast(event dto.ReviewEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	manager  *Manager
	photos   *storage.PhotoService
	reports  *sqlite.ReportRepository
	verifier *stubVerifier
	events   *recorder
}

func newFixture(t *testing.T, analyzer analysis.ImageAnalyzer) *fixture {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		PhotoDirectory:      filepath.Join(dir, "photos"),
		ProcessingWorkers:   2,
		ProcessingQueueSize: 10,
	}
	log := logger.NewDiscard()

	db, err := sqlite.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		photos:   storage.NewPhotoService(cfg, log),
		reports:  sqlite.NewReportRepository(db),
		verifier: &stubVerifier{},
		events:   &recorder{},
	}

	f.manager = NewManager(Dependencies{
		Reports:  f.reports,
		Cleanups: sqlite.NewCleanupRepository(db),
		Users:    sqlite.NewUserRepository(db),
		Photos:   f.photos,
		Analyzer: analyzer,
		Verifier: f.verifier,
		Events:   f.events,
	}, cfg, log)
	t.Cleanup(f.manager.Stop)

	return f
}

func validReport() dto.ReportSubmission {
	return dto.ReportSubmission{
		UserID:       "reporter",
		Latitude:     50.06,
		Longitude:    19.94,
		LocationName: "Old town",
		Photo:        []byte("before-photo"),
	}
}

// approvedReport submits and approves a report with the given severity.
func (f *fixture) approvedReport(t *testing.T, severity int) *model.Report {
	t.Helper()

	sub := validReport()
	sub.Severity = severity
	report, err := f.manager.SubmitReport(sub)
	require.NoError(t, err)

	report, err = f.manager.ReviewReport(report.ID, true)
	require.NoError(t, err)
	return report
}

func (f *fixture) pendingCleanup(t *testing.T, severity int) *model.Cleanup {
	t.Helper()

	report := f.approvedReport(t, severity)
	cleanup, err := f.manager.SubmitCleanup(dto.CleanupSubmission{
		UserID:   "cleaner",
		ReportID: report.ID,
		Photo:    []byte("after-photo"),
	})
	require.NoError(t, err)
	return cleanup
}

func TestSubmitReport_StoresAndAnalyzes(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{result: analysis.MockAnalysis("YOLO11n")})

	report, err := f.manager.SubmitReport(validReport())
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, model.ReportPendingReview, report.Status)
	assert.Equal(t, DefaultSeverity, report.Severity)

	photo, err := f.photos.Load(report.PhotoPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("before-photo"), photo)

	require.Eventually(t, func() bool {
		got, err := f.manager.GetReport(report.ID)
		return err == nil && got.Analysis != nil
	}, 2*time.Second, 10*time.Millisecond)

	got, err := f.manager.GetReport(report.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Analysis.ObjectsCount)

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{dto.EventReportSubmitted, dto.EventReportAnalyzed}, f.events.types())
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubmitReport_DecodeFailureStoresFallback(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{err: &ai.ImageDecodeError{Cause: errors.New("bad bytes")}})

	report, err := f.manager.SubmitReport(validReport())
	require.NoError(t, err)

	f.manager.Stop()

	got, err := f.manager.GetReport(report.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, analysis.ReportFallbackVersion, got.Analysis.ModelVersion)
	assert.Equal(t, 2, got.Analysis.ObjectsCount)
	assert.True(t, got.Analysis.IsMock())
	assert.Equal(t, model.ReportPendingReview, got.Status)
}

func TestSubmitReport_Validation(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{result: analysis.MockAnalysis("YOLO11n")})

	tests := []struct {
		name  string
		field string
		edit  func(*dto.ReportSubmission)
	}{
		{"missing user", "userId", func(s *dto.ReportSubmission) { s.UserID = "" }},
		{"missing photo", "photo", func(s *dto.ReportSubmission) { s.Photo = nil }},
		{"latitude", "latitude", func(s *dto.ReportSubmission) { s.Latitude = 91 }},
		{"longitude", "longitude", func(s *dto.ReportSubmission) { s.Longitude = -181 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validReport()
			tt.edit(&sub)

			_, err := f.manager.SubmitReport(sub)

			var validation *ValidationError
			require.True(t, errors.As(err, &validation))
			assert.Equal(t, tt.field, validation.Field)
		})
	}
}

func TestNormalizeSeverity(t *testing.T) {
	cases := map[int]int{0: 3, -4: 1, 1: 1, 3: 3, 5: 5, 9: 5}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeSeverity(in), "severity %d", in)
	}
}

func TestReviewReport(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{result: analysis.MockAnalysis("YOLO11n")})

	report, err := f.manager.SubmitReport(validReport())
	require.NoError(t, err)

	rejected, err := f.manager.ReviewReport(report.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.ReportRejected, rejected.Status)

	_, err = f.manager.ReviewReport(report.ID, true)
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = f.manager.ReviewReport("missing", true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSubmitCleanup_RequiresApprovedReport(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{result: analysis.MockAnalysis("YOLO11n")})

	report, err := f.manager.SubmitReport(validReport())
	require.NoError(t, err)

	sub := dto.CleanupSubmission{UserID: "cleaner", ReportID: report.ID, Photo: []byte("after")}
	_, err = f.manager.SubmitCleanup(sub)
	assert.ErrorIs(t, err, ErrReportNotApproved)

	sub.ReportID = "missing"
	_, err = f.manager.SubmitCleanup(sub)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.manager.ReviewReport(report.ID, true)
	require.NoError(t, err)

	sub.ReportID = report.ID
	cleanup, err := f.manager.SubmitCleanup(sub)
	require.NoError(t, err)
	assert.Equal(t, model.CleanupPendingVerification, cleanup.Status)
	assert.Equal(t, report.PhotoPath, cleanup.BeforePhotoPath)
	assert.NotEqual(t, report.PhotoPath, cleanup.AfterPhotoPath)
}

func TestReviewCleanup_ApprovedAwardsCalculatedPoints(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{result: analysis.MockAnalysis("YOLO11n")})
	f.verifier.result = &analysis.VerificationResult{
		ObjectsRemoved:       2,
		Verified:             true,
		CleanupEffectiveness: 67,
		Confidence:           0.9,
		Recommendation:       analysis.RecommendationGood,
	}
	cleanup := f.pendingCleanup(t, 3)

	reviewed, err := f.manager.ReviewCleanup(cleanup.ID, dto.ReviewRequest{Approved: true, AdminNotes: "ok"})
	require.NoError(t, err)

	assert.Equal(t, model.CleanupApproved, reviewed.Status)
	assert.Equal(t, 29, reviewed.PointsAwarded)
	require.NotNil(t, reviewed.AIConfidenceScore)
	assert.InDelta(t, 0.9, *reviewed.AIConfidenceScore, 1e-9)
	assert.NotNil(t, reviewed.AIAnalysis)
	assert.NotNil(t, reviewed.VerifiedAt)

	points, err := f.manager.Points("cleaner")
	require.NoError(t, err)
	assert.Equal(t, 29, points)

	report, err := f.manager.GetReport(cleanup.ReportID)
	require.NoError(t, err)
	assert.Equal(t, model.ReportCleaned, report.Status)

	_, err = f.manager.ReviewCleanup(cleanup.ID, dto.ReviewRequest{Approved: true})
	assert.ErrorIs(t, err, repository.ErrConflict)

	points, err = f.manager.Points("cleaner")
	require.NoError(t, err)
	assert.Equal(t, 29, points)
	assert.Equal(t, 1, f.verifier.calls)
	assert.Contains(t, f.events.types(), dto.EventCleanupReviewed)
}

func TestReviewCleanup_VerificationFailureAwardsFallback(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{result: analysis.MockAnalysis("YOLO11n")})
	f.verifier.err = &ai.ImageDecodeError{Cause: errors.New("corrupt")}
	cleanup := f.pendingCleanup(t, 5)

	reviewed, err := f.manager.ReviewCleanup(cleanup.ID, dto.ReviewRequest{Approved: true})
	require.NoError(t, err)

	assert.Equal(t, model.CleanupApproved, reviewed.Status)
	assert.Equal(t, analysis.FallbackPoints, reviewed.PointsAwarded)
	assert.Nil(t, reviewed.AIAnalysis)
	assert.Nil(t, reviewed.AIConfidenceScore)

	points, err := f.manager.Points("cleaner")
	require.NoError(t, err)
	assert.Equal(t, analysis.FallbackPoints, points)
}

func TestReviewCleanup_MissingPhotoAwardsFallback(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{result: analysis.MockAnalysis("YOLO11n")})
	cleanup := f.pendingCleanup(t, 3)

	require.NoError(t, os.Remove(filepath.Join(f.photos.Directory(), cleanup.AfterPhotoPath)))

	reviewed, err := f.manager.ReviewCleanup(cleanup.ID, dto.ReviewRequest{Approved: true})
	require.NoError(t, err)
	assert.Equal(t, analysis.FallbackPoints, reviewed.PointsAwarded)
	assert.Equal(t, 0, f.verifier.calls)
}

func TestReviewCleanup_Rejected(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{result: analysis.MockAnalysis("YOLO11n")})
	cleanup := f.pendingCleanup(t, 3)

	reviewed, err := f.manager.ReviewCleanup(cleanup.ID, dto.ReviewRequest{Approved: false, AdminNotes: "wrong site"})
	require.NoError(t, err)

	assert.Equal(t, model.CleanupRejected, reviewed.Status)
	assert.Equal(t, 0, reviewed.PointsAwarded)
	assert.Equal(t, 0, f.verifier.calls)

	report, err := f.manager.GetReport(cleanup.ReportID)
	require.NoError(t, err)
	assert.Equal(t, model.ReportApproved, report.Status)

	pending, err := f.manager.ListCleanups(&dto.CleanupFilters{Status: string(model.CleanupPendingVerification)})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReviewCleanup_NotFound(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{result: analysis.MockAnalysis("YOLO11n")})

	_, err := f.manager.ReviewCleanup("missing", dto.ReviewRequest{Approved: true})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSubmitCleanup_Validation(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{result: analysis.MockAnalysis("YOLO11n")})

	_, err := f.manager.SubmitCleanup(dto.CleanupSubmission{UserID: "cleaner", Photo: []byte("after")})

	var validation *ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "reportId", validation.Field)
	assert.Equal(t, "invalid reportId: required", err.Error())
}
