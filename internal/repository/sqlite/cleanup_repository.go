package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wastewatch/internal/dto"
	"wastewatch/internal/model"
	"wastewatch/internal/repository"
	"wastewatch/internal/service/analysis"
)

const cleanupColumns = `id, user_id, report_id, before_photo_path, after_photo_path, status,
	points_awarded, ai_confidence_score, ai_analysis_data, admin_notes, verified_at, created_at`

// CleanupRepository implements repository.CleanupRepository for SQLite.
type CleanupRepository struct {
	db *DB
}

// NewCleanupRepository creates a new SQLite cleanup repository.
func NewCleanupRepository(db *DB) *CleanupRepository {
	return &CleanupRepository{db: db}
}

// Insert adds a new cleanup record to the database.
func (r *CleanupRepository) Insert(c *model.Cleanup) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO cleanup_activities (id, user_id, report_id, before_photo_path, after_photo_path,
			status, points_awarded, admin_notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.UserID, c.ReportID, c.BeforePhotoPath, c.AfterPhotoPath, string(c.Status),
		c.PointsAwarded, c.AdminNotes, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert cleanup: %w", err)
	}
	return nil
}

// GetByID retrieves a cleanup by its ID.
func (r *CleanupRepository) GetByID(id string) (*model.Cleanup, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT `+cleanupColumns+` FROM cleanup_activities WHERE id = ?`, id)
	c, err := scanCleanup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cleanup: %w", err)
	}
	return c, nil
}

// GetAll retrieves cleanups matching the filter, newest first.
func (r *CleanupRepository) GetAll(filter *dto.CleanupFilters) ([]model.Cleanup, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT ` + cleanupColumns + ` FROM cleanup_activities WHERE 1=1`
	args := []interface{}{}

	if filter != nil && filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	if filter != nil && filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}

	query += " ORDER BY created_at DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cleanups: %w", err)
	}
	defer rows.Close()

	cleanups := []model.Cleanup{}
	for rows.Next() {
		c, err := scanCleanup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cleanup: %w", err)
		}
		cleanups = append(cleanups, *c)
	}
	return cleanups, rows.Err()
}

// CompleteReview stores the admin decision together with its side effects.
func (r *CleanupRepository) CompleteReview(c *model.Cleanup) error {
	data, err := encodeJSON(c.AIAnalysis, c.AIAnalysis == nil)
	if err != nil {
		return fmt.Errorf("failed to encode verification: %w", err)
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var confidence sql.NullFloat64
	if c.AIConfidenceScore != nil {
		confidence = sql.NullFloat64{Float64: *c.AIConfidenceScore, Valid: true}
	}
	var verifiedAt sql.NullTime
	if c.VerifiedAt != nil {
		verifiedAt = sql.NullTime{Time: *c.VerifiedAt, Valid: true}
	}

	res, err := tx.Exec(`
		UPDATE cleanup_activities
		SET status = ?, points_awarded = ?, ai_confidence_score = ?, ai_analysis_data = ?,
			admin_notes = ?, verified_at = ?
		WHERE id = ? AND status = ?
	`, string(c.Status), c.PointsAwarded, confidence, data, c.AdminNotes, verifiedAt,
		c.ID, string(model.CleanupPendingVerification))
	if err != nil {
		return fmt.Errorf("failed to update cleanup: %w", err)
	}
	if err := expectOne(res, repository.ErrConflict); err != nil {
		return err
	}

	if c.Status == model.CleanupApproved {
		now := time.Now()
		if _, err := tx.Exec(`
			UPDATE waste_reports SET status = ?, updated_at = ? WHERE id = ?
		`, string(model.ReportCleaned), now, c.ReportID); err != nil {
			return fmt.Errorf("failed to mark report cleaned: %w", err)
		}

		if _, err := tx.Exec(`
			INSERT INTO users (id, carbon_points, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET carbon_points = carbon_points + excluded.carbon_points,
				updated_at = excluded.updated_at
		`, c.UserID, c.PointsAwarded, now); err != nil {
			return fmt.Errorf("failed to award points: %w", err)
		}
	}

	return tx.Commit()
}

func scanCleanup(s scanner) (*model.Cleanup, error) {
	var c model.Cleanup
	var status string
	var confidence sql.NullFloat64
	var data sql.NullString
	var verifiedAt sql.NullTime

	if err := s.Scan(&c.ID, &c.UserID, &c.ReportID, &c.BeforePhotoPath, &c.AfterPhotoPath, &status,
		&c.PointsAwarded, &confidence, &data, &c.AdminNotes, &verifiedAt, &c.CreatedAt); err != nil {
		return nil, err
	}

	c.Status = model.CleanupStatus(status)
	if confidence.Valid {
		c.AIConfidenceScore = &confidence.Float64
	}
	if verifiedAt.Valid {
		c.VerifiedAt = &verifiedAt.Time
	}
	if data.Valid {
		c.AIAnalysis = &analysis.VerificationResult{}
		if err := decodeJSON(data, c.AIAnalysis); err != nil {
			return nil, err
		}
	}
	return &c, nil
}
