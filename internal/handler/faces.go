package handler

import (
	"encoding/json"
	"facecam/internal/dto"
	"facecam/internal/logger"
	"facecam/internal/model"
	"facecam/internal/repository"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// GetFacesHandler returns the indexed face crops, newest first, with
// filtering by run, session and date plus pagination.
// Response is JSON of type dto.FacesPage.
func GetFacesHandler(facesDir string, faceRepo repository.FaceRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		filter := &dto.FaceFilter{
			RunID:     q.Get("run"),
			Session:   atoiDefault(q.Get("session"), 0),
			StartDate: parseDate(q.Get("dateAfter")),
			Limit:     limit,
			Offset:    (page - 1) * limit,
		}
		// dateBefore obejmuje cały wskazany dzień
		if end := parseDate(q.Get("dateBefore")); !end.IsZero() {
			filter.EndDate = end.AddDate(0, 0, 1)
		}

		faces, err := faceRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying faces from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := faceRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting faces: %v", err)
			totalCount = len(faces)
		}

		if faces == nil {
			faces = []model.SavedFace{}
		}

		data := dto.FacesPage{
			Faces:       faces,
			FacesDir:    facesDir,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// ViewFaceHandler serves a single crop specified via the "face" query parameter.
func ViewFaceHandler(facesDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("face")
		if name == "" {
			http.Error(w, "Face parameter is required", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, filepath.Join(facesDir, filepath.Base(name)))
	}
}

// DeleteFaceHandler removes a crop from disk and from the index.
func DeleteFaceHandler(facesDir string, faceRepo repository.FaceRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		filename := filepath.Base(r.URL.Query().Get("face"))
		if filename == "." || filename == "/" {
			http.Error(w, "Face parameter is required", http.StatusBadRequest)
			return
		}

		face, err := faceRepo.GetByFilename(filename)
		if err != nil {
			logger.Error("Failed to look up face %s: %v", filename, err)
			http.Error(w, "Failed to delete face", http.StatusInternalServerError)
			return
		}
		if face == nil {
			http.Error(w, "Face not found", http.StatusNotFound)
			return
		}

		filePath := filepath.Join(facesDir, filename)
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to delete file %s: %v", filePath, err)
		}

		if err := faceRepo.DeleteByFilename(filename); err != nil {
			logger.Error("Failed to delete from database: %v", err)
			http.Error(w, "Failed to delete face", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted face: %s", filename)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted", "filename": filename})
	}
}

type runSessionsResponse struct {
	RunID      string          `json:"run_id"`
	FacesSaved int             `json:"faces_saved"`
	Sessions   []model.Session `json:"sessions"`
}

// GetSessionsHandler lists the sessions recorded by one run together with
// the number of crops indexed for it.
func GetSessionsHandler(sessionRepo repository.SessionRepository, faceRepo repository.FaceRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := r.URL.Query().Get("run")
		if runID == "" {
			http.Error(w, "Run parameter is required", http.StatusBadRequest)
			return
		}

		sessions, err := sessionRepo.GetByRun(runID)
		if err != nil {
			logger.Error("Failed to get sessions for run %s: %v", runID, err)
			http.Error(w, "Failed to retrieve sessions", http.StatusInternalServerError)
			return
		}
		if sessions == nil {
			sessions = []model.Session{}
		}

		count, err := faceRepo.CountByRun(runID)
		if err != nil {
			logger.Error("Failed to count faces for run %s: %v", runID, err)
			http.Error(w, "Failed to retrieve sessions", http.StatusInternalServerError)
			return
		}

		response := runSessionsResponse{RunID: runID, FacesSaved: count, Sessions: sessions}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// FaceStatsHandler returns totals over every indexed crop.
func FaceStatsHandler(faceRepo repository.FaceRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := faceRepo.GetStats()
		if err != nil {
			logger.Error("Failed to get stats: %v", err)
			http.Error(w, "Failed to retrieve stats", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// helpers

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a "2006-01-02" date (HTML input format) in local time,
// matching how crop timestamps are stored.
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
