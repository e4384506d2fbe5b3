package route

import (
	"facecam/internal/logger"
	"facecam/internal/repository/sqlite"
	"facecam/internal/service/session"
	"facecam/internal/service/websocket"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

type idleSource struct{}

func (idleSource) Snapshot() session.Snapshot { return session.Snapshot{} }

func setupRouter(t *testing.T, password string) http.Handler {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "routes.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := logger.NewDiscard()
	hub := websocket.NewHubService(log)
	stores := Stores{
		Faces:    sqlite.NewFaceRepository(db),
		Sessions: sqlite.NewSessionRepository(db),
		FacesDir: t.TempDir(),
	}
	return SetupRoutes(hub, websocket.NewLiveView(hub, log), idleSource{}, stores, password, log)
}

func TestSetupRoutes(t *testing.T) {
	router := setupRouter(t, "pw")

	tests := []struct {
		name string
		path string
		code int
	}{
		{"stats needs auth", "/api/stats", http.StatusUnauthorized},
		{"stats with password", "/api/stats?password=pw", http.StatusOK},
		{"faces with password", "/api/faces?password=pw", http.StatusOK},
		{"face stats with password", "/api/faces/stats?password=pw", http.StatusOK},
		{"sessions without run", "/api/sessions?password=pw", http.StatusBadRequest},
		{"unknown path", "/nope?password=pw", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.code {
				t.Errorf("GET %s: expected %d, got %d", tt.path, tt.code, w.Code)
			}
		})
	}
}

func TestSetupRoutes_NoPassword(t *testing.T) {
	router := setupRouter(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/faces", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected open access without password, got %d", w.Code)
	}
}
