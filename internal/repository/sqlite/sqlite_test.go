package sqlite

import (
	"facecam/internal/dto"
	"facecam/internal/model"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func testFace(run string, index int) model.SavedFace {
	return model.SavedFace{
		RunID:     run,
		Session:   1,
		Index:     index,
		Filename:  fmt.Sprintf("face_%05d_20250101_120000_000.jpg", index),
		FilePath:  fmt.Sprintf("/faces/face_%05d_20250101_120000_000.jpg", index),
		X:         100,
		Y:         120,
		Width:     90,
		Height:    90,
		Timestamp: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		FileSize:  2048,
	}
}

// ========================================
// Database Tests
// ========================================

func TestDatabase_Connection(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	// Verify database file exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestDatabase_MigrationIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 2; i++ {
		db, err := New(dbPath)
		if err != nil {
			t.Fatalf("Open %d failed: %v", i+1, err)
		}

		version, err := db.SchemaVersion()
		if err != nil {
			t.Fatalf("SchemaVersion failed: %v", err)
		}
		if version != len(migrations) {
			t.Errorf("Open %d: schema version = %d, expected %d", i+1, version, len(migrations))
		}
		db.Close()
	}
}

// ========================================
// Face Repository Tests
// ========================================

func TestFaceRepository_InsertAndGet(t *testing.T) {
	repo := NewFaceRepository(setupTestDB(t))

	face := testFace("run-a", 1)
	id, err := repo.Insert(&face)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id <= 0 {
		t.Errorf("Expected positive id, got %d", id)
	}

	got, err := repo.GetByFilename(face.Filename)
	if err != nil {
		t.Fatalf("GetByFilename failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected face, got nil")
	}
	if got.RunID != "run-a" || got.Index != 1 || got.Width != 90 {
		t.Errorf("Unexpected face: %+v", got)
	}
	if !got.Timestamp.Equal(face.Timestamp) {
		t.Errorf("Timestamp = %v, expected %v", got.Timestamp, face.Timestamp)
	}
}

func TestFaceRepository_GetByFilename_NotFound(t *testing.T) {
	repo := NewFaceRepository(setupTestDB(t))

	got, err := repo.GetByFilename("missing.jpg")
	if err != nil {
		t.Fatalf("GetByFilename failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil, got %+v", got)
	}
}

func TestFaceRepository_DuplicateFilename(t *testing.T) {
	repo := NewFaceRepository(setupTestDB(t))

	face := testFace("run-a", 1)
	if _, err := repo.Insert(&face); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if _, err := repo.Insert(&face); err == nil {
		t.Error("Expected error on duplicate filename")
	}
}

func TestFaceRepository_InsertBatchSkipsExisting(t *testing.T) {
	repo := NewFaceRepository(setupTestDB(t))

	first := testFace("run-a", 1)
	if _, err := repo.Insert(&first); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	batch := []model.SavedFace{testFace("run-a", 1), testFace("run-a", 2), testFace("run-b", 3)}
	if err := repo.InsertBatch(batch); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, expected 3", count)
	}

	runCount, err := repo.CountByRun("run-a")
	if err != nil {
		t.Fatalf("CountByRun failed: %v", err)
	}
	if runCount != 2 {
		t.Errorf("CountByRun = %d, expected 2", runCount)
	}

	exists, err := repo.Exists(testFace("run-b", 3).Filename)
	if err != nil || !exists {
		t.Errorf("Exists = %v, %v; expected true", exists, err)
	}
}

func TestFaceRepository_DeleteByFilename(t *testing.T) {
	repo := NewFaceRepository(setupTestDB(t))

	face := testFace("run-a", 1)
	if _, err := repo.Insert(&face); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := repo.DeleteByFilename(face.Filename); err != nil {
		t.Fatalf("DeleteByFilename failed: %v", err)
	}
	if exists, _ := repo.Exists(face.Filename); exists {
		t.Error("Face should be gone after delete")
	}
	if err := repo.DeleteByFilename("missing.jpg"); err != nil {
		t.Errorf("Deleting a missing face should not fail: %v", err)
	}
}

func TestFaceRepository_GetStats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFaceRepository(db)
	sessions := NewSessionRepository(db)

	if err := repo.InsertBatch([]model.SavedFace{testFace("run-a", 1), testFace("run-a", 2), testFace("run-b", 3)}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	if _, err := sessions.Start(&model.Session{RunID: "run-a", Number: 1, StartedAt: time.Now(), FilePath: "a.mp4"}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	stats, err := repo.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalFaces != 3 {
		t.Errorf("TotalFaces = %d, expected 3", stats.TotalFaces)
	}
	if stats.TotalSizeBytes != 3*2048 {
		t.Errorf("TotalSizeBytes = %d, expected %d", stats.TotalSizeBytes, 3*2048)
	}
	if stats.TotalSessions != 1 {
		t.Errorf("TotalSessions = %d, expected 1", stats.TotalSessions)
	}
	if stats.PerRun["run-a"] != 2 || stats.PerRun["run-b"] != 1 {
		t.Errorf("PerRun = %v", stats.PerRun)
	}
}

func seedFilterFaces(t *testing.T, repo *FaceRepository) time.Time {
	t.Helper()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	var faces []model.SavedFace
	for i := 1; i <= 6; i++ {
		face := testFace("run-a", i)
		face.Session = 1 + (i-1)/3
		face.Timestamp = base.Add(time.Duration(i) * time.Hour)
		faces = append(faces, face)
	}
	other := testFace("run-b", 7)
	other.Timestamp = base.Add(24 * time.Hour)
	faces = append(faces, other)

	if err := repo.InsertBatch(faces); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	return base
}

func TestFaceRepository_GetAll_Filters(t *testing.T) {
	repo := NewFaceRepository(setupTestDB(t))
	base := seedFilterFaces(t, repo)

	tests := []struct {
		name   string
		filter dto.FaceFilter
		want   int
	}{
		{"all", dto.FaceFilter{}, 7},
		{"by run", dto.FaceFilter{RunID: "run-a"}, 6},
		{"by session", dto.FaceFilter{RunID: "run-a", Session: 2}, 3},
		{"start inclusive", dto.FaceFilter{StartDate: base.Add(6 * time.Hour)}, 2},
		{"end exclusive", dto.FaceFilter{EndDate: base.Add(3 * time.Hour)}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces, err := repo.GetAll(&tt.filter)
			if err != nil {
				t.Fatalf("GetAll failed: %v", err)
			}
			if len(faces) != tt.want {
				t.Errorf("GetAll returned %d faces, expected %d", len(faces), tt.want)
			}

			total, err := repo.GetTotalCount(&tt.filter)
			if err != nil {
				t.Fatalf("GetTotalCount failed: %v", err)
			}
			if total != tt.want {
				t.Errorf("GetTotalCount = %d, expected %d", total, tt.want)
			}
		})
	}
}

func TestFaceRepository_GetAll_Pagination(t *testing.T) {
	repo := NewFaceRepository(setupTestDB(t))
	seedFilterFaces(t, repo)

	filter := &dto.FaceFilter{RunID: "run-a", Limit: 4, Offset: 4}
	faces, err := repo.GetAll(filter)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(faces) != 2 {
		t.Fatalf("Expected 2 faces on second page, got %d", len(faces))
	}
	// newest first
	if faces[0].Index != 2 || faces[1].Index != 1 {
		t.Errorf("Unexpected order: %d, %d", faces[0].Index, faces[1].Index)
	}

	total, err := repo.GetTotalCount(filter)
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if total != 6 {
		t.Errorf("GetTotalCount should ignore paging, got %d", total)
	}
}

// ========================================
// Session Repository Tests
// ========================================

func TestSessionRepository_Lifecycle(t *testing.T) {
	repo := NewSessionRepository(setupTestDB(t))
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for n := 1; n <= 2; n++ {
		s := &model.Session{RunID: "run-a", Number: n, StartedAt: start, FilePath: fmt.Sprintf("s%d.mp4", n)}
		id, err := repo.Start(s)
		if err != nil {
			t.Fatalf("Start %d failed: %v", n, err)
		}
		if s.ID != id {
			t.Errorf("Start should set ID: %d != %d", s.ID, id)
		}
	}

	finished := &model.Session{
		RunID:      "run-a",
		Number:     1,
		EndedAt:    start.Add(3 * time.Hour),
		FilePath:   "s1.avi",
		Frames:     1234,
		FacesSaved: 7,
	}
	if err := repo.Finish(finished); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	sessions, err := repo.GetByRun("run-a")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].Number != 1 || sessions[1].Number != 2 {
		t.Errorf("Sessions not ordered: %d, %d", sessions[0].Number, sessions[1].Number)
	}
	if sessions[0].Frames != 1234 || sessions[0].FacesSaved != 7 || sessions[0].FilePath != "s1.avi" {
		t.Errorf("Finish not persisted: %+v", sessions[0])
	}
	if !sessions[1].EndedAt.IsZero() {
		t.Errorf("Open session should have zero EndedAt, got %v", sessions[1].EndedAt)
	}
}

func TestSessionRepository_FinishUnknown(t *testing.T) {
	repo := NewSessionRepository(setupTestDB(t))

	if err := repo.Finish(&model.Session{RunID: "nope", Number: 9}); err == nil {
		t.Error("Expected error finishing unknown session")
	}
}

func TestSessionRepository_DuplicateNumber(t *testing.T) {
	repo := NewSessionRepository(setupTestDB(t))
	s := &model.Session{RunID: "run-a", Number: 1, StartedAt: time.Now(), FilePath: "a.mp4"}

	if _, err := repo.Start(s); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := repo.Start(s); err == nil {
		t.Error("Expected error on duplicate session number")
	}
}
