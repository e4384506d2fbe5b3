package sqlite

import (
	"database/sql"
	"facecam/internal/dto"
	"facecam/internal/model"
	"fmt"
)

// FaceRepository implements repository.FaceRepository for SQLite.
type FaceRepository struct {
	db *DB
}

// NewFaceRepository creates a new SQLite face repository.
func NewFaceRepository(db *DB) *FaceRepository {
	return &FaceRepository{db: db}
}

// Insert adds a new face record to the database.
func (r *FaceRepository) Insert(face *model.SavedFace) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO faces (run_id, session, face_index, filename, filepath, x, y, width, height, timestamp, filesize)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, face.RunID, face.Session, face.Index, face.Filename, face.FilePath,
		face.X, face.Y, face.Width, face.Height, face.Timestamp, face.FileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to insert face: %w", err)
	}

	return result.LastInsertId()
}

// InsertBatch adds multiple face records in a single transaction.
// Rows whose filename is already indexed are skipped.
func (r *FaceRepository) InsertBatch(faces []model.SavedFace) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO faces (run_id, session, face_index, filename, filepath, x, y, width, height, timestamp, filesize)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, face := range faces {
		_, err := stmt.Exec(face.RunID, face.Session, face.Index, face.Filename, face.FilePath,
			face.X, face.Y, face.Width, face.Height, face.Timestamp, face.FileSize)
		if err != nil {
			return fmt.Errorf("failed to insert face %s: %w", face.Filename, err)
		}
	}

	return tx.Commit()
}

// filterClause builds the WHERE clause shared by GetAll and GetTotalCount.
func filterClause(filter *dto.FaceFilter) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}

	if filter.RunID != "" {
		where += " AND run_id = ?"
		args = append(args, filter.RunID)
	}

	if filter.Session > 0 {
		where += " AND session = ?"
		args = append(args, filter.Session)
	}

	if !filter.StartDate.IsZero() {
		where += " AND timestamp >= ?"
		args = append(args, filter.StartDate)
	}

	if !filter.EndDate.IsZero() {
		where += " AND timestamp < ?"
		args = append(args, filter.EndDate)
	}

	return where, args
}

// GetAll retrieves faces based on filter criteria, newest first.
func (r *FaceRepository) GetAll(filter *dto.FaceFilter) ([]model.SavedFace, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := filterClause(filter)
	query := `
		SELECT id, run_id, session, face_index, filename, filepath, x, y, width, height, timestamp, filesize
		FROM faces` + where + " ORDER BY timestamp DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query faces: %w", err)
	}
	defer rows.Close()

	var faces []model.SavedFace
	for rows.Next() {
		var face model.SavedFace
		if err := rows.Scan(&face.ID, &face.RunID, &face.Session, &face.Index, &face.Filename, &face.FilePath,
			&face.X, &face.Y, &face.Width, &face.Height, &face.Timestamp, &face.FileSize); err != nil {
			return nil, fmt.Errorf("failed to scan face: %w", err)
		}
		faces = append(faces, face)
	}

	return faces, rows.Err()
}

// GetTotalCount returns the number of faces matching the filter, ignoring paging.
func (r *FaceRepository) GetTotalCount(filter *dto.FaceFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := filterClause(filter)

	var count int
	if err := r.db.Conn().QueryRow("SELECT COUNT(*) FROM faces"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count faces: %w", err)
	}
	return count, nil
}

// GetByFilename retrieves a face by its filename.
func (r *FaceRepository) GetByFilename(filename string) (*model.SavedFace, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var face model.SavedFace
	err := r.db.Conn().QueryRow(`
		SELECT id, run_id, session, face_index, filename, filepath, x, y, width, height, timestamp, filesize
		FROM faces WHERE filename = ?
	`, filename).Scan(&face.ID, &face.RunID, &face.Session, &face.Index, &face.Filename, &face.FilePath,
		&face.X, &face.Y, &face.Width, &face.Height, &face.Timestamp, &face.FileSize)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get face: %w", err)
	}

	return &face, nil
}

// Exists checks if a face with the given filename exists.
func (r *FaceRepository) Exists(filename string) (bool, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow("SELECT COUNT(*) FROM faces WHERE filename = ?", filename).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return count > 0, nil
}

// DeleteByFilename removes a face record. A missing record is not an error.
func (r *FaceRepository) DeleteByFilename(filename string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec("DELETE FROM faces WHERE filename = ?", filename); err != nil {
		return fmt.Errorf("failed to delete face: %w", err)
	}
	return nil
}

// Count returns the number of indexed faces.
func (r *FaceRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow("SELECT COUNT(*) FROM faces").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count faces: %w", err)
	}
	return count, nil
}

// CountByRun returns the number of faces saved by one recorder run.
func (r *FaceRepository) CountByRun(runID string) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow("SELECT COUNT(*) FROM faces WHERE run_id = ?", runID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count faces: %w", err)
	}
	return count, nil
}

// GetStats returns statistics about stored faces.
func (r *FaceRepository) GetStats() (*model.FaceStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.FaceStats{PerRun: make(map[string]int)}

	err := r.db.Conn().QueryRow("SELECT COUNT(*), COALESCE(SUM(filesize), 0) FROM faces").
		Scan(&stats.TotalFaces, &stats.TotalSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to get totals: %w", err)
	}

	if err := r.db.Conn().QueryRow("SELECT COUNT(*) FROM sessions").Scan(&stats.TotalSessions); err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	rows, err := r.db.Conn().Query("SELECT run_id, COUNT(*) FROM faces GROUP BY run_id")
	if err != nil {
		return nil, fmt.Errorf("failed to get run stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var runID string
		var count int
		if err := rows.Scan(&runID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan run stats: %w", err)
		}
		stats.PerRun[runID] = count
	}

	return stats, rows.Err()
}
