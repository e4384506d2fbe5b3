package handler

import (
	"encoding/json"
	"facecam/internal/dto"
	"facecam/internal/logger"
	"facecam/internal/model"
	"facecam/internal/repository/sqlite"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupFaceRepos(t *testing.T) (*sqlite.FaceRepository, *sqlite.SessionRepository) {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "faces.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return sqlite.NewFaceRepository(db), sqlite.NewSessionRepository(db)
}

func seedFaces(t *testing.T, repo *sqlite.FaceRepository, run string, count int, day time.Time) {
	t.Helper()

	var faces []model.SavedFace
	for i := 1; i <= count; i++ {
		name := fmt.Sprintf("face_%05d_%s_%03d.jpg", i, day.Format("20060102_150405"), i)
		faces = append(faces, model.SavedFace{
			RunID:     run,
			Session:   1,
			Index:     i,
			Filename:  name,
			FilePath:  filepath.Join("/faces", name),
			Width:     80,
			Height:    80,
			Timestamp: day.Add(time.Duration(i) * time.Minute),
			FileSize:  1024,
		})
	}
	if err := repo.InsertBatch(faces); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
}

// ========================================
// Faces Handler Tests
// ========================================

func TestGetFacesHandler_Pagination(t *testing.T) {
	faces, _ := setupFaceRepos(t)
	seedFaces(t, faces, "run-a", 5, time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local))

	req := httptest.NewRequest(http.MethodGet, "/api/faces?page=2&limit=2&run=run-a", nil)
	w := httptest.NewRecorder()
	GetFacesHandler("/faces", faces, logger.NewDiscard())(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var page dto.FacesPage
	if err := json.NewDecoder(w.Body).Decode(&page); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if page.Length != 5 || page.TotalPages != 3 || page.CurrentPage != 2 || page.Limit != 2 {
		t.Errorf("Unexpected paging: %+v", page)
	}
	if len(page.Faces) != 2 {
		t.Fatalf("Expected 2 faces, got %d", len(page.Faces))
	}
	// newest first: page 2 holds indexes 3 and 2
	if page.Faces[0].Index != 3 || page.Faces[1].Index != 2 {
		t.Errorf("Unexpected order: %d, %d", page.Faces[0].Index, page.Faces[1].Index)
	}
	if page.FacesDir != "/faces" {
		t.Errorf("FacesDir = %q", page.FacesDir)
	}
}

func TestGetFacesHandler_DateFilter(t *testing.T) {
	faces, _ := setupFaceRepos(t)
	seedFaces(t, faces, "run-a", 2, time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local))
	seedFaces(t, faces, "run-b", 3, time.Date(2025, 3, 2, 10, 0, 0, 0, time.Local))

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"no filter", "", 5},
		{"after", "?dateAfter=2025-03-02", 3},
		{"before includes whole day", "?dateBefore=2025-03-01", 2},
		{"unknown run", "?run=nope", 0},
		{"invalid date ignored", "?dateAfter=yesterday", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/faces"+tt.query, nil)
			w := httptest.NewRecorder()
			GetFacesHandler("/faces", faces, logger.NewDiscard())(w, req)

			var page dto.FacesPage
			if err := json.NewDecoder(w.Body).Decode(&page); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if page.Length != tt.want {
				t.Errorf("Length = %d, expected %d", page.Length, tt.want)
			}
			if page.Faces == nil {
				t.Error("Faces should encode as an empty list, not null")
			}
		})
	}
}

func TestViewFaceHandler(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "face_00001.jpg"), []byte("jpeg"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	tests := []struct {
		name  string
		query string
		code  int
	}{
		{"missing parameter", "", http.StatusBadRequest},
		{"existing crop", "?face=face_00001.jpg", http.StatusOK},
		{"traversal stripped", "?face=../../face_00001.jpg", http.StatusOK},
		{"unknown crop", "?face=nope.jpg", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/faces/view"+tt.query, nil)
			w := httptest.NewRecorder()
			ViewFaceHandler(dir)(w, req)

			if w.Code != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, w.Code)
			}
		})
	}
}

func TestDeleteFaceHandler(t *testing.T) {
	faces, _ := setupFaceRepos(t)
	seedFaces(t, faces, "run-a", 1, time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local))

	page, err := faces.GetAll(&dto.FaceFilter{})
	if err != nil || len(page) != 1 {
		t.Fatalf("GetAll = %v, %v", page, err)
	}
	name := page[0].Filename

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("jpeg"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	h := DeleteFaceHandler(dir, faces, logger.NewDiscard())

	req := httptest.NewRequest(http.MethodGet, "/api/faces/delete?face="+name, nil)
	w := httptest.NewRecorder()
	h(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET should be rejected, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/faces/delete", nil)
	w = httptest.NewRecorder()
	h(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing face: status %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/faces/delete?face=face_99999.jpg", nil)
	w = httptest.NewRecorder()
	h(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown face: expected 404, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/faces/delete?face="+name, nil)
	w = httptest.NewRecorder()
	h(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("crop file should be removed")
	}
	if exists, _ := faces.Exists(name); exists {
		t.Error("crop should be removed from the index")
	}

	// second delete of the same crop
	req = httptest.NewRequest(http.MethodDelete, "/api/faces/delete?face="+name, nil)
	w = httptest.NewRecorder()
	h(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("already deleted face: expected 404, got %d", w.Code)
	}
}

func TestGetSessionsHandler(t *testing.T) {
	faces, sessions := setupFaceRepos(t)
	seedFaces(t, faces, "run-a", 3, time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local))
	seedFaces(t, faces, "run-b", 1, time.Date(2025, 3, 2, 10, 0, 0, 0, time.Local))
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for n := 1; n <= 2; n++ {
		if _, err := sessions.Start(&model.Session{RunID: "run-a", Number: n, StartedAt: start, FilePath: "s.mp4"}); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	w := httptest.NewRecorder()
	GetSessionsHandler(sessions, faces, logger.NewDiscard())(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing run: status %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions?run=run-a", nil)
	w = httptest.NewRecorder()
	GetSessionsHandler(sessions, faces, logger.NewDiscard())(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var got runSessionsResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.RunID != "run-a" || got.FacesSaved != 3 {
		t.Errorf("Unexpected run totals: %+v", got)
	}
	if len(got.Sessions) != 2 || got.Sessions[0].Number != 1 || got.Sessions[1].Number != 2 {
		t.Errorf("Unexpected sessions: %+v", got.Sessions)
	}
}

func TestFaceStatsHandler(t *testing.T) {
	faces, _ := setupFaceRepos(t)
	seedFaces(t, faces, "run-a", 3, time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local))

	req := httptest.NewRequest(http.MethodGet, "/api/faces/stats", nil)
	w := httptest.NewRecorder()
	FaceStatsHandler(faces, logger.NewDiscard())(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var stats model.FaceStats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if stats.TotalFaces != 3 || stats.TotalSizeBytes != 3*1024 || stats.PerRun["run-a"] != 3 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}
