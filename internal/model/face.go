package model

import "time"

// SavedFace represents one persisted detection crop.
type SavedFace struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Session   int       `json:"session"`
	Index     int       `json:"index"`
	Filename  string    `json:"filename"`
	FilePath  string    `json:"filepath"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Timestamp time.Time `json:"timestamp"`
	FileSize  int64     `json:"filesize"`
}
