package model

// FaceStats contains statistics about stored face crops.
type FaceStats struct {
	TotalFaces     int            `json:"total_faces"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	TotalSessions  int            `json:"total_sessions"`
	PerRun         map[string]int `json:"per_run"`
}
