package route

import (
	"facecam/internal/handler"
	"facecam/internal/logger"
	"facecam/internal/middleware"
	"facecam/internal/repository"
	"facecam/internal/service/websocket"
	"net/http"
)

// Stores gives the routes read access to the face index.
type Stores struct {
	Faces    repository.FaceRepository
	Sessions repository.SessionRepository
	FacesDir string
}

// SetupRoutes registers the live view, face index, stats and log endpoints
// and wraps the mux with the authentication middleware.
func SetupRoutes(hub *websocket.HubService, view *websocket.LiveView, stats handler.SnapshotSource,
	stores Stores, password string, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Live view
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(hub, log))
	mux.Handle("/stream.mjpeg", view.StreamHandler())
	mux.HandleFunc("/api/stats", handler.StatsHandler(stats, hub.GetClientCount, log))

	// Face index
	mux.HandleFunc("/api/faces", handler.GetFacesHandler(stores.FacesDir, stores.Faces, log))
	mux.HandleFunc("/api/faces/view", handler.ViewFaceHandler(stores.FacesDir))
	mux.HandleFunc("/api/faces/delete", handler.DeleteFaceHandler(stores.FacesDir, stores.Faces, log))
	mux.HandleFunc("/api/faces/stats", handler.FaceStatsHandler(stores.Faces, log))
	mux.HandleFunc("/api/sessions", handler.GetSessionsHandler(stores.Sessions, stores.Faces, log))

	// Log endpoints
	for name, file := range map[string]string{
		"info":    logger.InfoFile,
		"warning": logger.WarningFile,
		"error":   logger.ErrorFile,
	} {
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(log, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(log, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(password))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Apply middleware
	return middleware.AuthMiddleware(password, mux)
}
