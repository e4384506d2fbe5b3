package repository

import (
	"facecam/internal/dto"
	"facecam/internal/model"
)

// FaceRepository defines the interface for saved face crop records.
type FaceRepository interface {
	// Create operations
	Insert(face *model.SavedFace) (int64, error)
	InsertBatch(faces []model.SavedFace) error

	// Read operations
	GetAll(filter *dto.FaceFilter) ([]model.SavedFace, error)
	GetTotalCount(filter *dto.FaceFilter) (int, error)
	GetByFilename(filename string) (*model.SavedFace, error)
	Exists(filename string) (bool, error)
	DeleteByFilename(filename string) error
	Count() (int, error)
	CountByRun(runID string) (int, error)
	GetStats() (*model.FaceStats, error)
}

// SessionRepository defines the interface for recording session records.
type SessionRepository interface {
	// Create operations
	Start(session *model.Session) (int64, error)

	// Update operations
	Finish(session *model.Session) error

	// Read operations
	GetByRun(runID string) ([]model.Session, error)
}
