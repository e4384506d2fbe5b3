package storage

import (
	"facecam/internal/config"
	"facecam/internal/logger"
	"facecam/internal/model"
	"facecam/internal/repository"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"
)

// FaceStore writes face crops to disk and indexes them.
type FaceStore struct {
	facesDir string
	runID    string
	session  int
	logger   *logger.Logger
	faceRepo repository.FaceRepository
}

// NewFaceStore creates a FaceStore writing into config.FaceDirectory.
// faceRepo may be nil, in which case crops are only written to disk.
func NewFaceStore(config *config.Config, logger *logger.Logger, faceRepo repository.FaceRepository) *FaceStore {
	return &FaceStore{
		facesDir: config.FaceDirectory,
		logger:   logger,
		faceRepo: faceRepo,
	}
}

// SetRun tags subsequent records with the recorder run id.
func (s *FaceStore) SetRun(runID string) {
	s.runID = runID
}

// SetSession tags subsequent records with the current session number.
func (s *FaceStore) SetSession(number int) {
	s.session = number
}

// Dir returns the crop directory.
func (s *FaceStore) Dir() string {
	return s.facesDir
}

// Save encodes the crop region of frame as JPEG and writes it to disk.
func (s *FaceStore) Save(frame gocv.Mat, crop image.Rectangle, index int, at time.Time) (*model.SavedFace, error) {
	region := frame.Region(crop)
	defer region.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, region)
	if err != nil {
		return nil, fmt.Errorf("failed to encode crop: %w", err)
	}
	defer buf.Close()
	data := buf.GetBytes()

	filename := FaceFilename(index, at)
	fullpath := filepath.Join(s.facesDir, filename)

	if err := os.WriteFile(fullpath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", filename, err)
	}

	face := &model.SavedFace{
		RunID:     s.runID,
		Session:   s.session,
		Index:     index,
		Filename:  filename,
		FilePath:  fullpath,
		X:         crop.Min.X,
		Y:         crop.Min.Y,
		Width:     crop.Dx(),
		Height:    crop.Dy(),
		Timestamp: at,
		FileSize:  int64(len(data)),
	}

	// Zapis do bazy nie blokuje zapisu pliku
	if s.faceRepo != nil {
		id, err := s.faceRepo.Insert(face)
		if err != nil {
			s.logger.Error("Error saving face to database %s: %v", filename, err)
		} else {
			face.ID = id
		}
	}

	return face, nil
}
