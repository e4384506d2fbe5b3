package handler

import (
	"encoding/json"
	"facecam/internal/logger"
	"facecam/internal/service/overlay"
	"facecam/internal/service/session"
	"net/http"
)

// SnapshotSource provides the live state of the recorder.
type SnapshotSource interface {
	Snapshot() session.Snapshot
}

type statsResponse struct {
	session.Snapshot
	ElapsedText string `json:"elapsed"`
	Viewers     int    `json:"viewers"`
}

// StatsHandler returns the current run state as JSON.
func StatsHandler(source SnapshotSource, viewers func() int, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := source.Snapshot()
		response := statsResponse{
			Snapshot:    snap,
			ElapsedText: overlay.FormatElapsed(snap.Elapsed),
		}
		if viewers != nil {
			response.Viewers = viewers()
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error("Failed to encode stats: %v", err)
		}
	}
}
