package sqlite

import (
	"database/sql"
	"facecam/internal/model"
	"fmt"
)

// SessionRepository implements repository.SessionRepository for SQLite.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Start records the beginning of a recording session.
func (r *SessionRepository) Start(session *model.Session) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO sessions (run_id, number, started_at, filepath)
		VALUES (?, ?, ?, ?)
	`, session.RunID, session.Number, session.StartedAt, session.FilePath)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get session id: %w", err)
	}
	session.ID = id
	return id, nil
}

// Finish stores the end time and counters of a session.
func (r *SessionRepository) Finish(session *model.Session) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		UPDATE sessions SET ended_at = ?, filepath = ?, frames = ?, faces_saved = ?
		WHERE run_id = ? AND number = ?
	`, session.EndedAt, session.FilePath, session.Frames, session.FacesSaved, session.RunID, session.Number)
	if err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s/%d not found", session.RunID, session.Number)
	}
	return nil
}

// GetByRun returns all sessions of one run ordered by number.
func (r *SessionRepository) GetByRun(runID string) ([]model.Session, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, run_id, number, started_at, ended_at, filepath, frames, faces_saved
		FROM sessions WHERE run_id = ? ORDER BY number ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var s model.Session
		var ended sql.NullTime
		if err := rows.Scan(&s.ID, &s.RunID, &s.Number, &s.StartedAt, &ended, &s.FilePath, &s.Frames, &s.FacesSaved); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if ended.Valid {
			s.EndedAt = ended.Time
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}
