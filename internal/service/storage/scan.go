package storage

import (
	"facecam/internal/logger"
	"facecam/internal/model"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
)

// ScanResult is the outcome of scanning a crop directory.
type ScanResult struct {
	Faces   []model.SavedFace
	Skipped int
}

// CountCrops returns the number of .jpg files in dir.
func CountCrops(dir string) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read face directory: %w", err)
	}
	n := 0
	for _, file := range files {
		if !file.IsDir() && strings.EqualFold(filepath.Ext(file.Name()), faceExt) {
			n++
		}
	}
	return n, nil
}

// ScanFaces rebuilds face records from the crop files in dir. Files with an
// unknown name are skipped. progress, if set, is called once per .jpg file.
func ScanFaces(dir, runID string, logger *logger.Logger, progress func()) (*ScanResult, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read face directory: %w", err)
	}

	result := &ScanResult{}
	for _, file := range files {
		if file.IsDir() || !strings.EqualFold(filepath.Ext(file.Name()), faceExt) {
			continue
		}
		if progress != nil {
			progress()
		}

		index, timestamp, err := ParseFaceFilename(file.Name())
		if err != nil {
			logger.Warning("⚠️  Skipping %s: %v", file.Name(), err)
			result.Skipped++
			continue
		}

		info, err := file.Info()
		if err != nil {
			logger.Warning("⚠️  Failed to get info for %s: %v", file.Name(), err)
			result.Skipped++
			continue
		}

		path := filepath.Join(dir, file.Name())
		face := model.SavedFace{
			RunID:     runID,
			Index:     index,
			Filename:  file.Name(),
			FilePath:  path,
			Timestamp: timestamp,
			FileSize:  info.Size(),
		}

		// Rozmiar wycinka z nagłówka JPEG; pozycja w klatce jest nieznana
		if w, h, err := jpegSize(path); err == nil {
			face.Width, face.Height = w, h
		} else {
			logger.Warning("⚠️  Could not read JPEG header of %s: %v", file.Name(), err)
		}

		result.Faces = append(result.Faces, face)
	}

	return result, nil
}

func jpegSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
