package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UserRepository implements repository.UserRepository for SQLite.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetPoints returns a user's carbon point balance.
func (r *UserRepository) GetPoints(userID string) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var points int
	err := r.db.Conn().QueryRow(`SELECT carbon_points FROM users WHERE id = ?`, userID).Scan(&points)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get points: %w", err)
	}
	return points, nil
}

// AddPoints credits a balance, creating the user on first award.
func (r *UserRepository) AddPoints(userID string, points int) (int, error) {
	r.db.Lock()
	defer r.db.Unlock()

	var total int
	err := r.db.Conn().QueryRow(`
		INSERT INTO users (id, carbon_points, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET carbon_points = carbon_points + excluded.carbon_points,
			updated_at = excluded.updated_at
		RETURNING carbon_points
	`, userID, points, time.Now()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to add points: %w", err)
	}
	return total, nil
}
