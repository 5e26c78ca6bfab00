package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wastewatch/internal/model"
	"wastewatch/internal/repository"
	"wastewatch/internal/service/analysis"
)

// ReportRepository implements repository.ReportRepository for SQLite.
type ReportRepository struct {
	db *DB
}

// NewReportRepository creates a new SQLite report repository.
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Insert adds a new report record to the database.
func (r *ReportRepository) Insert(report *model.Report) error {
	data, err := encodeJSON(report.Analysis, report.Analysis == nil)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	r.db.Lock()
	defer r.db.Unlock()

	_, err = r.db.Conn().Exec(`
		INSERT INTO waste_reports (id, user_id, photo_path, latitude, longitude, location_name,
			description, waste_type, severity, status, ai_analysis, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, report.ID, report.UserID, report.PhotoPath, report.Latitude, report.Longitude, report.LocationName,
		report.Description, report.WasteType, report.Severity, string(report.Status), data,
		report.CreatedAt, report.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

const reportColumns = `id, user_id, photo_path, latitude, longitude, location_name, description,
	waste_type, severity, status, ai_analysis, created_at, updated_at`

// GetByID retrieves a report by its ID.
func (r *ReportRepository) GetByID(id string) (*model.Report, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT `+reportColumns+` FROM waste_reports WHERE id = ?`, id)
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

// GetUnanalyzed lists reports whose photo has not been analyzed yet.
func (r *ReportRepository) GetUnanalyzed(limit int) ([]model.Report, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT ` + reportColumns + ` FROM waste_reports WHERE ai_analysis IS NULL ORDER BY created_at ASC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []model.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}

func scanReport(s scanner) (*model.Report, error) {
	var report model.Report
	var status string
	var data sql.NullString

	if err := s.Scan(&report.ID, &report.UserID, &report.PhotoPath, &report.Latitude, &report.Longitude,
		&report.LocationName, &report.Description, &report.WasteType, &report.Severity, &status,
		&data, &report.CreatedAt, &report.UpdatedAt); err != nil {
		return nil, err
	}

	report.Status = model.ReportStatus(status)
	if data.Valid {
		report.Analysis = &analysis.WasteAnalysis{}
		if err := decodeJSON(data, report.Analysis); err != nil {
			return nil, fmt.Errorf("failed to decode report analysis: %w", err)
		}
	}
	return &report, nil
}

// UpdateAnalysis stores the AI analysis of the report photo.
func (r *ReportRepository) UpdateAnalysis(id string, result *analysis.WasteAnalysis) error {
	data, err := encodeJSON(result, result == nil)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	r.db.Lock()
	defer r.db.Unlock()

	res, err := r.db.Conn().Exec(`
		UPDATE waste_reports SET ai_analysis = ?, updated_at = ? WHERE id = ?
	`, data, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update report analysis: %w", err)
	}
	return expectOne(res, repository.ErrNotFound)
}

// UpdateStatus moves a report between statuses.
func (r *ReportRepository) UpdateStatus(id string, from, to model.ReportStatus) error {
	r.db.Lock()
	defer r.db.Unlock()

	res, err := r.db.Conn().Exec(`
		UPDATE waste_reports SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`, string(to), time.Now(), id, string(from))
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM waste_reports WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check report existence: %w", err)
	}
	if exists == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func expectOne(res sql.Result, otherwise error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected != 1 {
		return otherwise
	}
	return nil
}
