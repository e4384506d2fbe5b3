package model

import "time"

// Session represents one bounded recording interval and its output file.
type Session struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"run_id"`
	Number     int       `json:"number"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	FilePath   string    `json:"filepath"`
	Frames     int       `json:"frames"`
	FacesSaved int       `json:"faces_saved"`
}
